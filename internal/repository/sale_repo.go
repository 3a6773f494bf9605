package repository

import (
	"time"

	"go-pharmacy-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleTx is the unit-of-work handed to the sale processor. Every method runs
// inside one database transaction; if the callback returns an error nothing
// it did is visible afterwards.
type SaleTx interface {
	// FirstAllocatableLot returns the earliest-expiring lot of the product at
	// the branch that can satisfy the whole quantity on its own, locked FOR
	// UPDATE. Lots without an expiry date sort last. gorm.ErrRecordNotFound
	// when no single lot suffices.
	FirstAllocatableLot(productID, branchID uuid.UUID, qty int) (*model.ProductStock, error)
	// DecrementLot subtracts qty from the lot. The guard in the UPDATE itself
	// keeps quantity from ever going negative, even under concurrent sales.
	DecrementLot(lotID uuid.UUID, qty int) error
	FirstCustomerByPhone(phone string) (*model.Customer, error)
	CreateCustomer(customer *model.Customer) error
	CreateSale(sale *model.Sale) error
	CreateSaleItems(items []model.SaleItem) error
}

// DailySales is one day of the sales/profit series.
type DailySales struct {
	Date   string          `json:"date"`
	Total  decimal.Decimal `json:"total"`
	Profit decimal.Decimal `json:"profit"`
}

// ProductSales is one row of the top-selling aggregation.
type ProductSales struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	TotalQty     int             `json:"total_qty"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// ProductMovement is one row of the per-product stock movement report.
type ProductMovement struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Sold        int             `json:"sold"`
	COGS        decimal.Decimal `json:"cogs"`
}

type SaleRepository interface {
	// Atomically runs fn inside a single database transaction. Errors from fn
	// roll everything back and propagate to the caller unchanged.
	Atomically(fn func(tx SaleTx) error) error

	FindByID(id uuid.UUID) (*model.Sale, error)
	FindRecent(branchID *uuid.UUID, limit int) ([]model.Sale, error)

	// Aggregations over the sale tables. Centralized here so every dashboard
	// and report consumes the same definitions.
	TotalBetween(branchID *uuid.UUID, start, end time.Time) (decimal.Decimal, error)
	CountBetween(branchID *uuid.UUID, start, end time.Time) (int64, error)
	// ProfitBetween is SUM(line_total - qty * lot.unit_cost) over the window.
	ProfitBetween(branchID *uuid.UUID, start, end time.Time) (decimal.Decimal, error)
	DailyTotals(branchID *uuid.UUID, start, end time.Time) ([]DailySales, error)
	TopSelling(branchID *uuid.UUID, start, end time.Time, limit int) ([]ProductSales, error)
	SoldPerProduct(branchID *uuid.UUID, start, end time.Time) ([]ProductMovement, error)
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

type saleTx struct {
	tx *gorm.DB
}

func (r *saleRepo) Atomically(fn func(tx SaleTx) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&saleTx{tx: tx})
	})
}

func (t *saleTx) FirstAllocatableLot(productID, branchID uuid.UUID, qty int) (*model.ProductStock, error) {
	var lot model.ProductStock
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND branch_id = ? AND quantity >= ?", productID, branchID, qty).
		Order("expiry_date ASC NULLS LAST").
		First(&lot).Error
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

func (t *saleTx) DecrementLot(lotID uuid.UUID, qty int) error {
	res := t.tx.Model(&model.ProductStock{}).
		Where("id = ? AND quantity >= ?", lotID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Lost a race for the last units since the lot was selected.
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (t *saleTx) FirstCustomerByPhone(phone string) (*model.Customer, error) {
	var customer model.Customer
	if err := t.tx.Where("phone = ?", phone).Order("created_at ASC").First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (t *saleTx) CreateCustomer(customer *model.Customer) error {
	return t.tx.Create(customer).Error
}

func (t *saleTx) CreateSale(sale *model.Sale) error {
	// Associations (customer, items) are written by their own calls.
	return t.tx.Omit(clause.Associations).Create(sale).Error
}

func (t *saleTx) CreateSaleItems(items []model.SaleItem) error {
	return t.tx.Omit(clause.Associations).Create(&items).Error
}

func (r *saleRepo) FindByID(id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.
		Preload("Branch").
		Preload("Cashier").
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.ProductStock").
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) FindRecent(branchID *uuid.UUID, limit int) ([]model.Sale, error) {
	var sales []model.Sale
	q := r.db.
		Preload("Branch").
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		Order("created_at DESC").
		Limit(limit)
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	err := q.Find(&sales).Error
	return sales, err
}

func (r *saleRepo) TotalBetween(branchID *uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	q := r.db.Model(&model.Sale{}).Where("created_at BETWEEN ? AND ?", start, end)
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	err := q.Select("COALESCE(SUM(total), 0)").Scan(&total).Error
	return total, err
}

func (r *saleRepo) CountBetween(branchID *uuid.UUID, start, end time.Time) (int64, error) {
	var count int64
	q := r.db.Model(&model.Sale{}).Where("created_at BETWEEN ? AND ?", start, end)
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	err := q.Count(&count).Error
	return count, err
}

func (r *saleRepo) ProfitBetween(branchID *uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	var profit decimal.Decimal
	q := r.db.Model(&model.SaleItem{}).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Joins("JOIN product_stocks ON product_stocks.id = sale_items.product_stock_id").
		Where("sales.created_at BETWEEN ? AND ?", start, end)
	if branchID != nil {
		q = q.Where("sales.branch_id = ?", *branchID)
	}
	err := q.Select("COALESCE(SUM(sale_items.line_total - sale_items.qty * product_stocks.unit_cost), 0)").
		Scan(&profit).Error
	return profit, err
}

// dailyBucket formats a timestamp to the series' day key in SQL. TO_CHAR
// rather than DATE so the column always scans as plain text and matches the
// "2006-01-02" keys the rest of the series uses.
const dailyBucket = "TO_CHAR(sales.created_at, 'YYYY-MM-DD')"

func (r *saleRepo) DailyTotals(branchID *uuid.UUID, start, end time.Time) ([]DailySales, error) {
	q := r.db.Model(&model.Sale{}).
		Select(dailyBucket+" as date, COALESCE(SUM(sales.total), 0) as total").
		Where("sales.created_at BETWEEN ? AND ?", start, end)
	if branchID != nil {
		q = q.Where("sales.branch_id = ?", *branchID)
	}
	rows, err := q.Group(dailyBucket).Order("date ASC").Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []DailySales
	for rows.Next() {
		var day DailySales
		if err := rows.Scan(&day.Date, &day.Total); err != nil {
			return nil, err
		}
		day.Profit = decimal.Zero
		results = append(results, day)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Per-day profit comes from one grouped join over the item/lot tables.
	pq := r.db.Model(&model.SaleItem{}).
		Select(dailyBucket+" as date, COALESCE(SUM(sale_items.line_total - sale_items.qty * product_stocks.unit_cost), 0) as profit").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Joins("JOIN product_stocks ON product_stocks.id = sale_items.product_stock_id").
		Where("sales.created_at BETWEEN ? AND ?", start, end)
	if branchID != nil {
		pq = pq.Where("sales.branch_id = ?", *branchID)
	}
	profitRows, err := pq.Group(dailyBucket).Rows()
	if err != nil {
		return nil, err
	}
	defer profitRows.Close()

	profitByDay := make(map[string]decimal.Decimal)
	for profitRows.Next() {
		var (
			date   string
			profit decimal.Decimal
		)
		if err := profitRows.Scan(&date, &profit); err != nil {
			return nil, err
		}
		profitByDay[date] = profit
	}
	if err := profitRows.Err(); err != nil {
		return nil, err
	}

	return attachDailyProfits(results, profitByDay), nil
}

// attachDailyProfits joins the profit series onto the totals series by day
// key. Days with sales but no matching profit row keep zero profit.
func attachDailyProfits(days []DailySales, profitByDay map[string]decimal.Decimal) []DailySales {
	for i := range days {
		if profit, ok := profitByDay[days[i].Date]; ok {
			days[i].Profit = profit
		}
	}
	return days
}

func (r *saleRepo) TopSelling(branchID *uuid.UUID, start, end time.Time, limit int) ([]ProductSales, error) {
	q := r.db.Model(&model.SaleItem{}).
		Select(`
			sale_items.product_id,
			products.name as product_name,
			COALESCE(SUM(sale_items.qty), 0) as total_qty,
			COALESCE(SUM(sale_items.line_total), 0) as total_revenue
		`).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Joins("JOIN products ON products.id = sale_items.product_id").
		Where("sales.created_at BETWEEN ? AND ?", start, end)
	if branchID != nil {
		q = q.Where("sales.branch_id = ?", *branchID)
	}
	rows, err := q.Group("sale_items.product_id, products.name").
		Order("total_qty DESC").
		Limit(limit).
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ProductSales
	for rows.Next() {
		var row ProductSales
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.TotalQty, &row.TotalRevenue); err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func (r *saleRepo) SoldPerProduct(branchID *uuid.UUID, start, end time.Time) ([]ProductMovement, error) {
	q := r.db.Model(&model.SaleItem{}).
		Select(`
			sale_items.product_id,
			products.name as product_name,
			COALESCE(SUM(sale_items.qty), 0) as sold,
			COALESCE(SUM(sale_items.qty * product_stocks.unit_cost), 0) as cogs
		`).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Joins("JOIN products ON products.id = sale_items.product_id").
		Joins("JOIN product_stocks ON product_stocks.id = sale_items.product_stock_id").
		Where("sales.created_at BETWEEN ? AND ?", start, end)
	if branchID != nil {
		q = q.Where("sales.branch_id = ?", *branchID)
	}
	rows, err := q.Group("sale_items.product_id, products.name").
		Order("product_name ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ProductMovement
	for rows.Next() {
		var row ProductMovement
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.Sold, &row.COGS); err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
