package cache

import (
	"context"
	"time"
)

// OverviewCache holds serialized dashboard overviews for a short TTL so the
// POS terminals polling the dashboard do not hammer the aggregate queries.
type OverviewCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type NoopOverviewCache struct{}

func (NoopOverviewCache) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoopOverviewCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}
