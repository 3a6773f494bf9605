package service

import (
	"errors"
	"fmt"
	"strings"

	"go-pharmacy-pos/internal/model"
	"go-pharmacy-pos/internal/notifier"
	"go-pharmacy-pos/internal/repository"
	"go-pharmacy-pos/internal/ws"
	"go-pharmacy-pos/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// LowStockThreshold is the quantity at or below which a lot counts as low
// stock, on dashboards and in post-sale alerts.
const LowStockThreshold = 10

// NearExpiryDays is how far ahead the near-expiry alerts look.
const NearExpiryDays = 60

type SaleService interface {
	// SubmitSale validates a proposed sale, allocates one inventory lot per
	// line (earliest expiry first), decrements stock and persists the sale
	// with its items as one atomic unit. On any rejection or failure nothing
	// is written. The cashier is passed explicitly; nothing is read from
	// ambient state.
	SubmitSale(req *SubmitSaleRequest, cashierID uuid.UUID, cashierName string) (*model.Sale, error)
	GetSale(id uuid.UUID) (*model.Sale, error)
	GetRecentSales(branchID *uuid.UUID, limit int) ([]model.Sale, error)
}

type SaleItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Qty       int             `json:"qty" validate:"required,gt=0"`
}

type SubmitSaleRequest struct {
	BranchID      uuid.UUID         `json:"branch_id" validate:"uuid_required"`
	CustomerPhone string            `json:"customer_phone"`
	CustomerName  string            `json:"customer_name"`
	CashReceived  decimal.Decimal   `json:"cash_received"`
	Notes         string            `json:"notes"`
	Items         []SaleItemRequest `json:"items" validate:"dive"`
}

type saleService struct {
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
	branchRepo  repository.BranchRepository
	stockRepo   repository.StockRepository
	notifier    notifier.Notifier
	wsHub       *ws.Hub
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	branchRepo repository.BranchRepository,
	stockRepo repository.StockRepository,
	n notifier.Notifier,
	hub *ws.Hub,
) SaleService {
	return &saleService{
		saleRepo:    saleRepo,
		productRepo: productRepo,
		branchRepo:  branchRepo,
		stockRepo:   stockRepo,
		notifier:    n,
		wsHub:       hub,
	}
}

func (s *saleService) SubmitSale(req *SubmitSaleRequest, cashierID uuid.UUID, cashierName string) (*model.Sale, error) {
	// 1. Input validation. All of it happens before any mutation.
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	branch, err := s.branchRepo.FindByID(req.BranchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.New("branch not found")
		}
		return nil, err
	}

	// 2. Resolve every product and enforce the floor price per line, in list
	// order, so the first offending line is the one reported.
	products := make(map[uuid.UUID]*model.Product, len(req.Items))
	for i, item := range req.Items {
		if item.Qty <= 0 {
			return nil, &validator.ValidationError{
				Field: fmt.Sprintf("SubmitSaleRequest.Items[%d].Qty", i),
				Tag:   "gt",
			}
		}
		product, ok := products[item.ProductID]
		if !ok {
			product, err = s.productRepo.FindByID(item.ProductID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil, &ProductNotFoundError{ProductID: item.ProductID}
				}
				return nil, err
			}
			products[item.ProductID] = product
		}
		if item.UnitPrice.LessThan(product.MinPrice) {
			return nil, &PriceBelowFloorError{
				ProductName: product.Name,
				Requested:   item.UnitPrice,
				MinPrice:    product.MinPrice,
			}
		}
	}

	// 3. Allocate, decrement and persist inside one transaction. Any error
	// returned from the callback rolls the whole sale back.
	var sale *model.Sale
	err = s.saleRepo.Atomically(func(tx repository.SaleTx) error {
		customer, err := s.resolveCustomer(tx, req, cashierName)
		if err != nil {
			return err
		}

		total := decimal.Zero
		items := make([]model.SaleItem, 0, len(req.Items))
		for _, item := range req.Items {
			product := products[item.ProductID]

			// FEFO at whole-line granularity: the earliest-expiring lot that
			// can cover the full quantity, or nothing. No multi-lot split.
			lot, err := tx.FirstAllocatableLot(item.ProductID, req.BranchID, item.Qty)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return &InsufficientStockError{
						ProductName: product.Name,
						BranchName:  branch.Name,
						Requested:   item.Qty,
					}
				}
				return err
			}

			if item.UnitPrice.LessThan(lot.UnitCost) {
				return &SaleBelowCostError{
					ProductName: product.Name,
					Requested:   item.UnitPrice,
					UnitCost:    lot.UnitCost,
				}
			}

			if err := tx.DecrementLot(lot.ID, item.Qty); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return &InsufficientStockError{
						ProductName: product.Name,
						BranchName:  branch.Name,
						Requested:   item.Qty,
					}
				}
				return err
			}

			lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty)))
			total = total.Add(lineTotal)
			items = append(items, model.SaleItem{
				ProductID:      item.ProductID,
				Product:        product,
				ProductStockID: lot.ID,
				UnitPrice:      item.UnitPrice,
				Qty:            item.Qty,
				LineTotal:      lineTotal,
			})
		}

		cashReceived := req.CashReceived
		if cashReceived.IsZero() {
			cashReceived = total
		}

		sale = &model.Sale{
			BranchID:     req.BranchID,
			CashierID:    cashierID,
			Total:        total,
			CashReceived: cashReceived,
			Notes:        req.Notes,
		}
		if customer != nil {
			sale.CustomerID = &customer.ID
			sale.Customer = customer
		}
		sale.CreatedBy = cashierName
		sale.UpdatedBy = cashierName
		if err := tx.CreateSale(sale); err != nil {
			return err
		}

		for i := range items {
			items[i].SaleID = sale.ID
			items[i].CreatedBy = cashierName
			items[i].UpdatedBy = cashierName
		}
		if err := tx.CreateSaleItems(items); err != nil {
			return err
		}
		sale.Items = items
		return nil
	})
	if err != nil {
		if IsRejection(err) {
			return nil, err
		}
		return nil, fmt.Errorf("sale transaction aborted: %w", err)
	}

	// 4. Best-effort side effects. Never fail or roll back the sale.
	go s.afterCommit(sale, branch, cashierName)

	return sale, nil
}

// resolveCustomer finds or creates the customer by phone. Walk-in sales (no
// phone) get no customer row.
func (s *saleService) resolveCustomer(tx repository.SaleTx, req *SubmitSaleRequest, cashierName string) (*model.Customer, error) {
	phone := strings.TrimSpace(req.CustomerPhone)
	if phone == "" {
		return nil, nil
	}

	customer, err := tx.FirstCustomerByPhone(phone)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	customer = &model.Customer{
		Phone: phone,
		Name:  strings.TrimSpace(req.CustomerName),
	}
	customer.CreatedBy = cashierName
	customer.UpdatedBy = cashierName
	if err := tx.CreateCustomer(customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *saleService) afterCommit(sale *model.Sale, branch *model.Branch, cashierName string) {
	if sale.Customer != nil && sale.Customer.Email != "" {
		subject := fmt.Sprintf("Your Receipt from %s", branch.Name)
		if err := s.notifier.Send(sale.Customer.Email, subject, receiptBody(sale, branch, cashierName)); err != nil {
			logrus.WithError(err).WithField("sale_id", sale.ID).Warn("receipt email failed")
		}
	}

	if s.wsHub != nil {
		s.wsHub.Publish(ws.EventSaleRecorded,
			fmt.Sprintf("%s recorded a sale of %s at %s", cashierName, sale.Total.StringFixed(2), branch.Name),
			map[string]interface{}{
				"sale_id":   sale.ID,
				"branch_id": sale.BranchID,
				"total":     sale.Total,
				"items":     len(sale.Items),
			})

		for _, item := range sale.Items {
			lot, err := s.stockRepo.FindByID(item.ProductStockID)
			if err != nil || lot.Quantity > LowStockThreshold {
				continue
			}
			name := ""
			if lot.Product != nil {
				name = lot.Product.Name
			}
			s.wsHub.Publish(ws.EventLowStock,
				fmt.Sprintf("Low stock: %s (%d units, batch %s) at %s", name, lot.Quantity, lot.Batch, branch.Name),
				map[string]interface{}{
					"product_stock_id": lot.ID,
					"product_id":       lot.ProductID,
					"branch_id":        lot.BranchID,
					"quantity":         lot.Quantity,
				})
		}
	}
}

func receiptBody(sale *model.Sale, branch *model.Branch, cashierName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your purchase at %s.\n\n", branch.Name)
	for _, item := range sale.Items {
		name := item.ProductID.String()
		if item.Product != nil {
			name = item.Product.Name
		}
		fmt.Fprintf(&b, "%s x%d @ %s = %s\n", name, item.Qty, item.UnitPrice.StringFixed(2), item.LineTotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\nServed by: %s\nSale ref: %s\n", sale.Total.StringFixed(2), cashierName, sale.ID)
	return b.String()
}

func (s *saleService) GetSale(id uuid.UUID) (*model.Sale, error) {
	return s.saleRepo.FindByID(id)
}

func (s *saleService) GetRecentSales(branchID *uuid.UUID, limit int) ([]model.Sale, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.saleRepo.FindRecent(branchID, limit)
}
