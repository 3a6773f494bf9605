package model

import "github.com/shopspring/decimal"

// Product is a catalog entry. Price is the default selling price, MinPrice is
// the hard floor a cashier can never go below. Quantity on hand is never
// stored here; it is always derived by summing the product's stock lots.
type Product struct {
	BaseModel
	Name        string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Category    string          `gorm:"type:varchar(120);index" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	MinPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"min_price"`

	Stocks []ProductStock `json:"stocks,omitempty"`
}

// ProductWithStock is the list/response shape: the catalog row plus its
// derived total quantity across all lots.
type ProductWithStock struct {
	Product
	TotalQuantity int `json:"total_quantity"`
}
