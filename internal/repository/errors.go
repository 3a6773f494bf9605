package repository

import "gorm.io/gorm"

// ErrNotFound is what every Repository implementation returns for a missing
// row. Aliased to gorm's sentinel so the gorm-backed repos need no mapping;
// the in-memory implementation returns the same value.
var ErrNotFound = gorm.ErrRecordNotFound
