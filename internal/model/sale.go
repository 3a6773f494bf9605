package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is a committed POS transaction. It is created exactly once, together
// with all of its items and the matching lot decrements, or not at all.
type Sale struct {
	BaseModel
	BranchID uuid.UUID `gorm:"type:uuid;not null;index" json:"branch_id"`
	Branch   *Branch   `gorm:"foreignKey:BranchID" json:"branch,omitempty"`

	CashierID uuid.UUID `gorm:"type:uuid;not null;index" json:"cashier_id"`
	Cashier   *User     `gorm:"foreignKey:CashierID" json:"cashier,omitempty"`

	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Customer   *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	Total        decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total"`
	CashReceived decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"cash_received"`
	Notes        string          `gorm:"type:text" json:"notes"`

	// Items are exclusively owned: deleting a sale deletes its items.
	Items []SaleItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// SaleItem is one line of a sale. It records the exact lot the quantity was
// drawn from so cost and expiry stay auditable after the fact. Immutable once
// created.
type SaleItem struct {
	BaseModel
	SaleID uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`

	ProductID uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	// The lot is referenced, not owned; RESTRICT keeps the audit trail intact.
	ProductStockID uuid.UUID     `gorm:"type:uuid;not null;constraint:OnDelete:RESTRICT" json:"product_stock_id"`
	ProductStock   *ProductStock `gorm:"foreignKey:ProductStockID" json:"product_stock,omitempty"`

	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Qty       int             `gorm:"not null" json:"qty"`
	LineTotal decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"line_total"`
}
