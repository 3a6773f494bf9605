package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rejection reasons the sale processor surfaces to the caller. Each carries
// the offending entity and the numbers involved so handlers can render a
// precise message instead of a generic failure.

var ErrEmptyCart = errors.New("add at least one item")

type ProductNotFoundError struct {
	ProductID uuid.UUID
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

type PriceBelowFloorError struct {
	ProductName string
	Requested   decimal.Decimal
	MinPrice    decimal.Decimal
}

func (e *PriceBelowFloorError) Error() string {
	return fmt.Sprintf("price for %s cannot be lower than %s (got %s)",
		e.ProductName, e.MinPrice.StringFixed(2), e.Requested.StringFixed(2))
}

type InsufficientStockError struct {
	ProductName string
	BranchName  string
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s in branch %s (requested %d)",
		e.ProductName, e.BranchName, e.Requested)
}

type SaleBelowCostError struct {
	ProductName string
	Requested   decimal.Decimal
	UnitCost    decimal.Decimal
}

func (e *SaleBelowCostError) Error() string {
	return fmt.Sprintf("cannot sell %s at a loss: selling price %s < cost %s",
		e.ProductName, e.Requested.StringFixed(2), e.UnitCost.StringFixed(2))
}

// IsRejection reports whether err is one of the structured sale rejections,
// as opposed to an unexpected persistence failure.
func IsRejection(err error) bool {
	var (
		notFound   *ProductNotFoundError
		belowFloor *PriceBelowFloorError
		noStock    *InsufficientStockError
		belowCost  *SaleBelowCostError
	)
	return errors.Is(err, ErrEmptyCart) ||
		errors.As(err, &notFound) ||
		errors.As(err, &belowFloor) ||
		errors.As(err, &noStock) ||
		errors.As(err, &belowCost)
}
