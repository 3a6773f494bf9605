package repository

import (
	"time"

	"go-pharmacy-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRepository interface {
	// Restock adds quantity to the lot identified by (product, branch, batch,
	// expiry), creating the lot when it does not exist yet. The existing row
	// is locked while it is incremented.
	Restock(lot *model.ProductStock) (*model.ProductStock, error)
	FindByID(id uuid.UUID) (*model.ProductStock, error)
	FindByBranch(branchID uuid.UUID) ([]model.ProductStock, error)
	FindLowStock(branchID *uuid.UUID, threshold int) ([]model.ProductStock, error)
	FindNearExpiry(branchID *uuid.UUID, withinDays int) ([]model.ProductStock, error)
	TotalQuantity(productID uuid.UUID, branchID *uuid.UUID) (int, error)
	InventoryValue(branchID *uuid.UUID) (decimal.Decimal, error)
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) Restock(lot *model.ProductStock) (*model.ProductStock, error) {
	var result *model.ProductStock
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing model.ProductStock
		q := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ? AND branch_id = ? AND batch = ?", lot.ProductID, lot.BranchID, lot.Batch)
		if lot.ExpiryDate != nil {
			q = q.Where("expiry_date = ?", lot.ExpiryDate)
		} else {
			q = q.Where("expiry_date IS NULL")
		}

		err := q.First(&existing).Error
		if err == nil {
			existing.Quantity += lot.Quantity
			existing.UnitCost = lot.UnitCost
			if lot.SupplierID != nil {
				existing.SupplierID = lot.SupplierID
			}
			existing.UpdatedBy = lot.UpdatedBy
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			result = &existing
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := tx.Create(lot).Error; err != nil {
			return err
		}
		result = lot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *stockRepo) FindByID(id uuid.UUID) (*model.ProductStock, error) {
	var lot model.ProductStock
	if err := r.db.Preload("Product").Preload("Branch").Preload("Supplier").First(&lot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *stockRepo) FindByBranch(branchID uuid.UUID) ([]model.ProductStock, error) {
	var lots []model.ProductStock
	err := r.db.Preload("Product").Preload("Supplier").
		Where("branch_id = ?", branchID).
		Order("expiry_date ASC NULLS LAST").
		Find(&lots).Error
	return lots, err
}

func (r *stockRepo) FindLowStock(branchID *uuid.UUID, threshold int) ([]model.ProductStock, error) {
	var lots []model.ProductStock
	q := r.db.Preload("Product").Preload("Branch").Where("quantity <= ?", threshold)
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	err := q.Order("quantity ASC").Find(&lots).Error
	return lots, err
}

func (r *stockRepo) FindNearExpiry(branchID *uuid.UUID, withinDays int) ([]model.ProductStock, error) {
	cutoff := time.Now().AddDate(0, 0, withinDays)

	var lots []model.ProductStock
	q := r.db.Preload("Product").Preload("Branch").
		Where("expiry_date IS NOT NULL AND expiry_date <= ?", cutoff)
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	err := q.Order("expiry_date ASC").Find(&lots).Error
	return lots, err
}

func (r *stockRepo) TotalQuantity(productID uuid.UUID, branchID *uuid.UUID) (int, error) {
	var total int64
	q := r.db.Model(&model.ProductStock{}).Where("product_id = ?", productID)
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	err := q.Select("COALESCE(SUM(quantity), 0)").Scan(&total).Error
	return int(total), err
}

func (r *stockRepo) InventoryValue(branchID *uuid.UUID) (decimal.Decimal, error) {
	var value decimal.Decimal
	q := r.db.Model(&model.ProductStock{})
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	err := q.Select("COALESCE(SUM(quantity * unit_cost), 0)").Scan(&value).Error
	return value, err
}
