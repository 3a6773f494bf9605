package repository

import (
	"go-pharmacy-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	// CreateWithOpeningStock persists a new catalog entry together with its
	// first inventory lot in one transaction.
	CreateWithOpeningStock(product *model.Product, lot *model.ProductStock) error
	Update(product *model.Product) error
	FindAll() ([]model.Product, error)
	FindAllWithTotals() ([]model.ProductWithStock, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	Categories() ([]string, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) CreateWithOpeningStock(product *model.Product, lot *model.ProductStock) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return err
		}
		lot.ProductID = product.ID
		return tx.Create(lot).Error
	})
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

func (r *productRepo) FindAll() ([]model.Product, error) {
	var products []model.Product
	err := r.db.Order("name ASC").Find(&products).Error
	return products, err
}

// FindAllWithTotals lists the catalog with the derived on-hand quantity,
// summed across every lot of every branch.
func (r *productRepo) FindAllWithTotals() ([]model.ProductWithStock, error) {
	products, err := r.FindAll()
	if err != nil {
		return nil, err
	}

	type totalRow struct {
		ProductID uuid.UUID
		Total     int
	}
	var totals []totalRow
	err = r.db.Model(&model.ProductStock{}).
		Select("product_id, COALESCE(SUM(quantity), 0) as total").
		Group("product_id").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	byProduct := make(map[uuid.UUID]int, len(totals))
	for _, t := range totals {
		byProduct[t.ProductID] = t.Total
	}

	result := make([]model.ProductWithStock, len(products))
	for i, p := range products {
		result[i] = model.ProductWithStock{Product: p, TotalQuantity: byProduct[p.ID]}
	}
	return result, nil
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Categories() ([]string, error) {
	var categories []string
	err := r.db.Model(&model.Product{}).
		Where("category <> ''").
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}
