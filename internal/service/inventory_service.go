package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-pharmacy-pos/internal/model"
	"go-pharmacy-pos/internal/repository"
	"go-pharmacy-pos/internal/ws"
	"go-pharmacy-pos/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InventoryService interface {
	// CreateProduct adds a catalog entry, optionally with an opening stock
	// lot; entry and lot are persisted together or not at all.
	CreateProduct(req *CreateProductRequest, userName string) (*model.Product, error)
	UpdateProduct(id uuid.UUID, req *UpdateProductRequest, userName string) (*model.Product, error)
	GetProducts() ([]model.ProductWithStock, error)
	GetProduct(id uuid.UUID) (*model.Product, error)
	GetCategories() ([]string, error)

	// Restock adds quantity to the lot identified by (product, branch, batch,
	// expiry), creating it on first receipt.
	Restock(req *RestockRequest, userName string) (*model.ProductStock, error)
	GetBranchStock(branchID uuid.UUID) ([]model.ProductStock, error)
	GetLowStock(branchID *uuid.UUID) ([]model.ProductStock, error)
	GetNearExpiry(branchID *uuid.UUID) ([]model.ProductStock, error)
}

type OpeningStockRequest struct {
	BranchID   uuid.UUID       `json:"branch_id" validate:"uuid_required"`
	Batch      string          `json:"batch"`
	ExpiryDate *time.Time      `json:"expiry_date"`
	Quantity   int             `json:"quantity" validate:"required,gt=0"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	SupplierID *uuid.UUID      `json:"supplier_id"`
}

type CreateProductRequest struct {
	Name         string               `json:"name" validate:"required"`
	Category     string               `json:"category"`
	Description  string               `json:"description"`
	Price        decimal.Decimal      `json:"price"`
	MinPrice     decimal.Decimal      `json:"min_price"`
	OpeningStock *OpeningStockRequest `json:"opening_stock"`
}

type UpdateProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	MinPrice    decimal.Decimal `json:"min_price"`
}

type RestockRequest struct {
	ProductID  uuid.UUID       `json:"product_id" validate:"uuid_required"`
	BranchID   uuid.UUID       `json:"branch_id" validate:"uuid_required"`
	Batch      string          `json:"batch"`
	ExpiryDate *time.Time      `json:"expiry_date"`
	Quantity   int             `json:"quantity" validate:"required,gt=0"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	SupplierID *uuid.UUID      `json:"supplier_id"`
}

type inventoryService struct {
	productRepo repository.ProductRepository
	stockRepo   repository.StockRepository
	branchRepo  repository.BranchRepository
	wsHub       *ws.Hub
}

func NewInventoryService(
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	branchRepo repository.BranchRepository,
	hub *ws.Hub,
) InventoryService {
	return &inventoryService{
		productRepo: productRepo,
		stockRepo:   stockRepo,
		branchRepo:  branchRepo,
		wsHub:       hub,
	}
}

// checkPrices enforces the catalog invariants: no negative prices, and the
// floor can never sit above the selling price.
func checkPrices(price, minPrice decimal.Decimal) error {
	if price.IsNegative() || minPrice.IsNegative() {
		return errors.New("price and min_price must not be negative")
	}
	if minPrice.GreaterThan(price) {
		return errors.New("min_price must not exceed price")
	}
	return nil
}

func (s *inventoryService) CreateProduct(req *CreateProductRequest, userName string) (*model.Product, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	if err := checkPrices(req.Price, req.MinPrice); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        strings.TrimSpace(req.Name),
		Category:    strings.TrimSpace(req.Category),
		Description: req.Description,
		Price:       req.Price,
		MinPrice:    req.MinPrice,
	}
	product.CreatedBy = userName
	product.UpdatedBy = userName

	if req.OpeningStock == nil {
		if err := s.productRepo.Create(product); err != nil {
			return nil, err
		}
		return product, nil
	}

	opening := req.OpeningStock
	if err := validator.Validate(opening); err != nil {
		return nil, err
	}
	if _, err := s.branchRepo.FindByID(opening.BranchID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.New("branch not found")
		}
		return nil, err
	}

	lot := &model.ProductStock{
		BranchID:   opening.BranchID,
		Batch:      strings.TrimSpace(opening.Batch),
		ExpiryDate: opening.ExpiryDate,
		Quantity:   opening.Quantity,
		UnitCost:   opening.UnitCost,
		SupplierID: opening.SupplierID,
	}
	lot.CreatedBy = userName
	lot.UpdatedBy = userName
	if err := s.productRepo.CreateWithOpeningStock(product, lot); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *inventoryService) UpdateProduct(id uuid.UUID, req *UpdateProductRequest, userName string) (*model.Product, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	if err := checkPrices(req.Price, req.MinPrice); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ProductNotFoundError{ProductID: id}
		}
		return nil, err
	}

	product.Name = strings.TrimSpace(req.Name)
	product.Category = strings.TrimSpace(req.Category)
	product.Description = req.Description
	product.Price = req.Price
	product.MinPrice = req.MinPrice
	product.UpdatedBy = userName

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *inventoryService) GetProducts() ([]model.ProductWithStock, error) {
	return s.productRepo.FindAllWithTotals()
}

func (s *inventoryService) GetProduct(id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ProductNotFoundError{ProductID: id}
		}
		return nil, err
	}
	return product, nil
}

func (s *inventoryService) GetCategories() ([]string, error) {
	return s.productRepo.Categories()
}

func (s *inventoryService) Restock(req *RestockRequest, userName string) (*model.ProductStock, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(req.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ProductNotFoundError{ProductID: req.ProductID}
		}
		return nil, err
	}
	branch, err := s.branchRepo.FindByID(req.BranchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.New("branch not found")
		}
		return nil, err
	}

	lot := &model.ProductStock{
		ProductID:  req.ProductID,
		BranchID:   req.BranchID,
		Batch:      strings.TrimSpace(req.Batch),
		ExpiryDate: req.ExpiryDate,
		Quantity:   req.Quantity,
		UnitCost:   req.UnitCost,
		SupplierID: req.SupplierID,
	}
	lot.CreatedBy = userName
	lot.UpdatedBy = userName

	saved, err := s.stockRepo.Restock(lot)
	if err != nil {
		return nil, err
	}

	if s.wsHub != nil {
		s.wsHub.Publish(ws.EventRestocked,
			fmt.Sprintf("%s restocked %d x %s at %s", userName, req.Quantity, product.Name, branch.Name),
			map[string]interface{}{
				"product_stock_id": saved.ID,
				"product_id":       saved.ProductID,
				"branch_id":        saved.BranchID,
				"quantity":         saved.Quantity,
				"batch":            saved.Batch,
			})
	}
	return saved, nil
}

func (s *inventoryService) GetBranchStock(branchID uuid.UUID) ([]model.ProductStock, error) {
	return s.stockRepo.FindByBranch(branchID)
}

func (s *inventoryService) GetLowStock(branchID *uuid.UUID) ([]model.ProductStock, error) {
	return s.stockRepo.FindLowStock(branchID, LowStockThreshold)
}

func (s *inventoryService) GetNearExpiry(branchID *uuid.UUID) ([]model.ProductStock, error) {
	return s.stockRepo.FindNearExpiry(branchID, NearExpiryDays)
}
