package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStock is one inventory lot: a batch of one product received at one
// branch, tracked with its own acquisition cost and optional expiry date.
// (product, branch, batch, expiry_date) identifies a lot; restocking the same
// tuple increments the existing row instead of creating a new one.
//
// Quantity only moves two ways: restock increments it, sale allocation
// decrements it. A lot referenced by a sale item is never deleted.
type ProductStock struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;not null;index:idx_lot_tuple,unique" json:"product_id" validate:"uuid_required"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	BranchID uuid.UUID `gorm:"type:uuid;not null;index:idx_lot_tuple,unique" json:"branch_id" validate:"uuid_required"`
	Branch   *Branch   `gorm:"foreignKey:BranchID" json:"branch,omitempty"`

	Batch      string     `gorm:"type:varchar(120);index:idx_lot_tuple,unique" json:"batch"`
	ExpiryDate *time.Time `gorm:"type:date;index:idx_lot_tuple,unique" json:"expiry_date,omitempty"`

	Quantity int             `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
	UnitCost decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"unit_cost"`

	SupplierID *uuid.UUID `gorm:"type:uuid" json:"supplier_id,omitempty"`
	Supplier   *Supplier  `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

func (ProductStock) TableName() string {
	return "product_stocks"
}

// Expired reports whether the lot's expiry date has passed at the given time.
// Lots without an expiry date never expire.
func (s *ProductStock) Expired(at time.Time) bool {
	return s.ExpiryDate != nil && s.ExpiryDate.Before(at)
}
