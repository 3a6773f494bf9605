package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-pharmacy-pos/internal/cache"
	"go-pharmacy-pos/internal/model"
	"go-pharmacy-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// overviewTTL keeps dashboard reads cheap without letting the numbers go
// noticeably stale on a busy floor.
const overviewTTL = 30 * time.Second

const trendDays = 7

type DashboardService interface {
	// GetOverview assembles the landing-page numbers. A nil branchID means
	// the all-branches view, which additionally carries per-branch totals.
	GetOverview(ctx context.Context, branchID *uuid.UUID) (*Overview, error)
}

type BranchTotal struct {
	BranchID   uuid.UUID       `json:"branch_id"`
	BranchName string          `json:"branch_name"`
	Total      decimal.Decimal `json:"total"`
	Count      int64           `json:"count"`
}

type Overview struct {
	TodayTotal decimal.Decimal         `json:"today_total"`
	TodayCount int64                   `json:"today_count"`
	Trend      []repository.DailySales `json:"trend"`

	LowStocks    []model.ProductStock `json:"low_stocks"`
	NearExpiries []model.ProductStock `json:"near_expiries"`
	RecentSales  []model.Sale         `json:"recent_sales"`

	// Populated only on the all-branches view.
	BranchTotals []BranchTotal `json:"branch_totals,omitempty"`
}

type dashboardService struct {
	saleRepo   repository.SaleRepository
	stockRepo  repository.StockRepository
	branchRepo repository.BranchRepository
	cache      cache.OverviewCache
}

func NewDashboardService(
	saleRepo repository.SaleRepository,
	stockRepo repository.StockRepository,
	branchRepo repository.BranchRepository,
	c cache.OverviewCache,
) DashboardService {
	if c == nil {
		c = cache.NoopOverviewCache{}
	}
	return &dashboardService{
		saleRepo:   saleRepo,
		stockRepo:  stockRepo,
		branchRepo: branchRepo,
		cache:      c,
	}
}

func overviewKey(branchID *uuid.UUID) string {
	if branchID == nil {
		return "dashboard:overview:all"
	}
	return "dashboard:overview:" + branchID.String()
}

func (s *dashboardService) GetOverview(ctx context.Context, branchID *uuid.UUID) (*Overview, error) {
	key := overviewKey(branchID)
	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		logrus.WithError(err).Warn("overview cache read failed")
	} else if ok {
		var cached Overview
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
	}

	overview, err := s.buildOverview(branchID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(overview); err == nil {
		if err := s.cache.Set(ctx, key, raw, overviewTTL); err != nil {
			logrus.WithError(err).Warn("overview cache write failed")
		}
	}
	return overview, nil
}

func (s *dashboardService) buildOverview(branchID *uuid.UUID) (*Overview, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	overview := &Overview{}

	var err error
	if overview.TodayTotal, err = s.saleRepo.TotalBetween(branchID, dayStart, now); err != nil {
		return nil, fmt.Errorf("today's total: %w", err)
	}
	if overview.TodayCount, err = s.saleRepo.CountBetween(branchID, dayStart, now); err != nil {
		return nil, fmt.Errorf("today's count: %w", err)
	}
	if overview.Trend, err = s.saleRepo.DailyTotals(branchID, dayStart.AddDate(0, 0, -(trendDays-1)), now); err != nil {
		return nil, fmt.Errorf("sales trend: %w", err)
	}
	if overview.LowStocks, err = s.stockRepo.FindLowStock(branchID, LowStockThreshold); err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	if overview.NearExpiries, err = s.stockRepo.FindNearExpiry(branchID, NearExpiryDays); err != nil {
		return nil, fmt.Errorf("near expiry: %w", err)
	}
	if overview.RecentSales, err = s.saleRepo.FindRecent(branchID, 10); err != nil {
		return nil, fmt.Errorf("recent sales: %w", err)
	}

	if branchID == nil {
		branches, err := s.branchRepo.FindAll()
		if err != nil {
			return nil, fmt.Errorf("branches: %w", err)
		}
		for _, branch := range branches {
			id := branch.ID
			total, err := s.saleRepo.TotalBetween(&id, dayStart, now)
			if err != nil {
				return nil, fmt.Errorf("branch total: %w", err)
			}
			count, err := s.saleRepo.CountBetween(&id, dayStart, now)
			if err != nil {
				return nil, fmt.Errorf("branch count: %w", err)
			}
			overview.BranchTotals = append(overview.BranchTotals, BranchTotal{
				BranchID:   branch.ID,
				BranchName: branch.Name,
				Total:      total,
				Count:      count,
			})
		}
	}
	return overview, nil
}
