// Package memory implements the repository interfaces against plain maps.
// It backs the service tests and mirrors the transactional semantics of the
// postgres implementation: Atomically snapshots state and restores it when
// the callback errors, so rollback behavior is observable without a database.
package memory

import (
	"sort"
	"sync"
	"time"

	"go-pharmacy-pos/internal/model"
	"go-pharmacy-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu sync.Mutex

	branches  map[uuid.UUID]*model.Branch
	products  map[uuid.UUID]*model.Product
	lots      map[uuid.UUID]*model.ProductStock
	customers map[uuid.UUID]*model.Customer
	sales     map[uuid.UUID]*model.Sale
	saleItems map[uuid.UUID]*model.SaleItem
}

func New() *Store {
	return &Store{
		branches:  make(map[uuid.UUID]*model.Branch),
		products:  make(map[uuid.UUID]*model.Product),
		lots:      make(map[uuid.UUID]*model.ProductStock),
		customers: make(map[uuid.UUID]*model.Customer),
		sales:     make(map[uuid.UUID]*model.Sale),
		saleItems: make(map[uuid.UUID]*model.SaleItem),
	}
}

func assignID(base *model.BaseModel) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	now := time.Now()
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

// ---- BranchRepository ----

func (s *Store) Create(branch *model.Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignID(&branch.BaseModel)
	copied := *branch
	s.branches[branch.ID] = &copied
	return nil
}

func (s *Store) Update(branch *model.Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.branches[branch.ID]; !ok {
		return repository.ErrNotFound
	}
	branch.UpdatedAt = time.Now()
	copied := *branch
	s.branches[branch.ID] = &copied
	return nil
}

func (s *Store) FindAll() ([]model.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Branch, 0, len(s.branches))
	for _, b := range s.branches {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) FindByID(id uuid.UUID) (*model.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.branches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (s *Store) FindByName(name string) (*model.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.branches {
		if b.Name == name {
			copied := *b
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Branches exposes a BranchRepository view of the store.
func (s *Store) Branches() repository.BranchRepository { return (*branchView)(s) }

type branchView Store

func (v *branchView) Create(b *model.Branch) error     { return (*Store)(v).Create(b) }
func (v *branchView) Update(b *model.Branch) error     { return (*Store)(v).Update(b) }
func (v *branchView) FindAll() ([]model.Branch, error) { return (*Store)(v).FindAll() }
func (v *branchView) FindByID(id uuid.UUID) (*model.Branch, error) {
	return (*Store)(v).FindByID(id)
}
func (v *branchView) FindByName(name string) (*model.Branch, error) {
	return (*Store)(v).FindByName(name)
}

// ---- ProductRepository ----

type productView Store

func (s *Store) Products() repository.ProductRepository { return (*productView)(s) }

func (v *productView) Create(product *model.Product) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	assignID(&product.BaseModel)
	copied := *product
	s.products[product.ID] = &copied
	return nil
}

func (v *productView) CreateWithOpeningStock(product *model.Product, lot *model.ProductStock) error {
	if err := v.Create(product); err != nil {
		return err
	}
	lot.ProductID = product.ID
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	assignID(&lot.BaseModel)
	copied := *lot
	s.lots[lot.ID] = &copied
	return nil
}

func (v *productView) Update(product *model.Product) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product.ID]; !ok {
		return repository.ErrNotFound
	}
	product.UpdatedAt = time.Now()
	copied := *product
	s.products[product.ID] = &copied
	return nil
}

func (v *productView) FindAll() ([]model.Product, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (v *productView) FindAllWithTotals() ([]model.ProductWithStock, error) {
	products, err := v.FindAll()
	if err != nil {
		return nil, err
	}
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := make(map[uuid.UUID]int)
	for _, lot := range s.lots {
		totals[lot.ProductID] += lot.Quantity
	}
	out := make([]model.ProductWithStock, len(products))
	for i, p := range products {
		out[i] = model.ProductWithStock{Product: p, TotalQuantity: totals[p.ID]}
	}
	return out, nil
}

func (v *productView) FindByID(id uuid.UUID) (*model.Product, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (v *productView) Categories() ([]string, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, p := range s.products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ---- StockRepository ----

type stockView Store

func (s *Store) Stocks() repository.StockRepository { return (*stockView)(s) }

func sameExpiry(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func (v *stockView) Restock(lot *model.ProductStock) (*model.ProductStock, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.lots {
		if existing.ProductID == lot.ProductID &&
			existing.BranchID == lot.BranchID &&
			existing.Batch == lot.Batch &&
			sameExpiry(existing.ExpiryDate, lot.ExpiryDate) {
			existing.Quantity += lot.Quantity
			existing.UnitCost = lot.UnitCost
			if lot.SupplierID != nil {
				existing.SupplierID = lot.SupplierID
			}
			existing.UpdatedAt = time.Now()
			copied := *existing
			return &copied, nil
		}
	}
	assignID(&lot.BaseModel)
	copied := *lot
	s.lots[lot.ID] = &copied
	result := copied
	return &result, nil
}

func (v *stockView) FindByID(id uuid.UUID) (*model.ProductStock, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	lot, ok := s.lots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *lot
	if p, ok := s.products[lot.ProductID]; ok {
		pc := *p
		copied.Product = &pc
	}
	if b, ok := s.branches[lot.BranchID]; ok {
		bc := *b
		copied.Branch = &bc
	}
	return &copied, nil
}

func (v *stockView) FindByBranch(branchID uuid.UUID) ([]model.ProductStock, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ProductStock
	for _, lot := range s.lots {
		if lot.BranchID == branchID {
			out = append(out, *lot)
		}
	}
	sortLotsByExpiry(out)
	return out, nil
}

func (v *stockView) FindLowStock(branchID *uuid.UUID, threshold int) ([]model.ProductStock, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ProductStock
	for _, lot := range s.lots {
		if lot.Quantity <= threshold && (branchID == nil || lot.BranchID == *branchID) {
			out = append(out, *lot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity < out[j].Quantity })
	return out, nil
}

func (v *stockView) FindNearExpiry(branchID *uuid.UUID, withinDays int) ([]model.ProductStock, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().AddDate(0, 0, withinDays)
	var out []model.ProductStock
	for _, lot := range s.lots {
		if lot.ExpiryDate == nil || lot.ExpiryDate.After(cutoff) {
			continue
		}
		if branchID != nil && lot.BranchID != *branchID {
			continue
		}
		out = append(out, *lot)
	}
	sortLotsByExpiry(out)
	return out, nil
}

func (v *stockView) TotalQuantity(productID uuid.UUID, branchID *uuid.UUID) (int, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, lot := range s.lots {
		if lot.ProductID != productID {
			continue
		}
		if branchID != nil && lot.BranchID != *branchID {
			continue
		}
		total += lot.Quantity
	}
	return total, nil
}

func (v *stockView) InventoryValue(branchID *uuid.UUID) (decimal.Decimal, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	value := decimal.Zero
	for _, lot := range s.lots {
		if branchID != nil && lot.BranchID != *branchID {
			continue
		}
		value = value.Add(lot.UnitCost.Mul(decimal.NewFromInt(int64(lot.Quantity))))
	}
	return value, nil
}

func sortLotsByExpiry(lots []model.ProductStock) {
	sort.Slice(lots, func(i, j int) bool {
		a, b := lots[i].ExpiryDate, lots[j].ExpiryDate
		switch {
		case a == nil && b == nil:
			return lots[i].CreatedAt.Before(lots[j].CreatedAt)
		case a == nil:
			return false // nil expiry sorts last
		case b == nil:
			return true
		case a.Equal(*b):
			return lots[i].CreatedAt.Before(lots[j].CreatedAt)
		default:
			return a.Before(*b)
		}
	})
}

// ---- CustomerRepository ----

type customerView Store

func (s *Store) Customers() repository.CustomerRepository { return (*customerView)(s) }

func (v *customerView) Create(customer *model.Customer) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	assignID(&customer.BaseModel)
	copied := *customer
	s.customers[customer.ID] = &copied
	return nil
}

func (v *customerView) FindByID(id uuid.UUID) (*model.Customer, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (v *customerView) FirstByPhone(phone string) (*model.Customer, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstCustomerByPhoneLocked(phone)
}

func (s *Store) firstCustomerByPhoneLocked(phone string) (*model.Customer, error) {
	var match *model.Customer
	for _, c := range s.customers {
		if c.Phone != phone {
			continue
		}
		if match == nil || c.CreatedAt.Before(match.CreatedAt) {
			match = c
		}
	}
	if match == nil {
		return nil, repository.ErrNotFound
	}
	copied := *match
	return &copied, nil
}

func (v *customerView) FindAll() ([]model.Customer, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---- SaleRepository ----

type saleView Store

func (s *Store) Sales() repository.SaleRepository { return (*saleView)(s) }

type memTx struct {
	s *Store
}

// Atomically snapshots the mutable tables, runs fn, and restores the
// snapshot when fn errors — the same all-or-nothing contract the database
// transaction gives the real implementation.
func (v *saleView) Atomically(fn func(tx repository.SaleTx) error) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()

	lotSnap := snapshotMap(s.lots)
	customerSnap := snapshotMap(s.customers)
	saleSnap := snapshotMap(s.sales)
	itemSnap := snapshotMap(s.saleItems)

	if err := fn(&memTx{s: s}); err != nil {
		s.lots = lotSnap
		s.customers = customerSnap
		s.sales = saleSnap
		s.saleItems = itemSnap
		return err
	}
	return nil
}

func snapshotMap[T any](src map[uuid.UUID]*T) map[uuid.UUID]*T {
	out := make(map[uuid.UUID]*T, len(src))
	for k, val := range src {
		copied := *val
		out[k] = &copied
	}
	return out
}

func (t *memTx) FirstAllocatableLot(productID, branchID uuid.UUID, qty int) (*model.ProductStock, error) {
	var candidates []model.ProductStock
	for _, lot := range t.s.lots {
		if lot.ProductID == productID && lot.BranchID == branchID && lot.Quantity >= qty {
			candidates = append(candidates, *lot)
		}
	}
	if len(candidates) == 0 {
		return nil, repository.ErrNotFound
	}
	sortLotsByExpiry(candidates)
	chosen := candidates[0]
	return &chosen, nil
}

func (t *memTx) DecrementLot(lotID uuid.UUID, qty int) error {
	lot, ok := t.s.lots[lotID]
	if !ok || lot.Quantity < qty {
		return repository.ErrNotFound
	}
	lot.Quantity -= qty
	lot.UpdatedAt = time.Now()
	return nil
}

func (t *memTx) FirstCustomerByPhone(phone string) (*model.Customer, error) {
	return t.s.firstCustomerByPhoneLocked(phone)
}

func (t *memTx) CreateCustomer(customer *model.Customer) error {
	assignID(&customer.BaseModel)
	copied := *customer
	t.s.customers[customer.ID] = &copied
	return nil
}

func (t *memTx) CreateSale(sale *model.Sale) error {
	assignID(&sale.BaseModel)
	copied := *sale
	copied.Items = nil
	t.s.sales[sale.ID] = &copied
	return nil
}

func (t *memTx) CreateSaleItems(items []model.SaleItem) error {
	for i := range items {
		assignID(&items[i].BaseModel)
		copied := items[i]
		t.s.saleItems[items[i].ID] = &copied
	}
	return nil
}

func (v *saleView) FindByID(id uuid.UUID) (*model.Sale, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *sale
	for _, item := range s.saleItems {
		if item.SaleID == id {
			copied.Items = append(copied.Items, *item)
		}
	}
	sort.Slice(copied.Items, func(i, j int) bool {
		return copied.Items[i].CreatedAt.Before(copied.Items[j].CreatedAt)
	})
	return &copied, nil
}

func (v *saleView) FindRecent(branchID *uuid.UUID, limit int) ([]model.Sale, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Sale
	for _, sale := range s.sales {
		if branchID == nil || sale.BranchID == *branchID {
			out = append(out, *sale)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (v *saleView) inWindow(sale *model.Sale, branchID *uuid.UUID, start, end time.Time) bool {
	if branchID != nil && sale.BranchID != *branchID {
		return false
	}
	return !sale.CreatedAt.Before(start) && !sale.CreatedAt.After(end)
}

func (v *saleView) TotalBetween(branchID *uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, sale := range s.sales {
		if v.inWindow(sale, branchID, start, end) {
			total = total.Add(sale.Total)
		}
	}
	return total, nil
}

func (v *saleView) CountBetween(branchID *uuid.UUID, start, end time.Time) (int64, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, sale := range s.sales {
		if v.inWindow(sale, branchID, start, end) {
			count++
		}
	}
	return count, nil
}

func (v *saleView) ProfitBetween(branchID *uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	profit := decimal.Zero
	for _, item := range s.saleItems {
		sale, ok := s.sales[item.SaleID]
		if !ok || !v.inWindow(sale, branchID, start, end) {
			continue
		}
		lot, ok := s.lots[item.ProductStockID]
		if !ok {
			continue
		}
		cost := lot.UnitCost.Mul(decimal.NewFromInt(int64(item.Qty)))
		profit = profit.Add(item.LineTotal.Sub(cost))
	}
	return profit, nil
}

func (v *saleView) DailyTotals(branchID *uuid.UUID, start, end time.Time) ([]repository.DailySales, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	byDay := make(map[string]*repository.DailySales)
	for _, sale := range s.sales {
		if !v.inWindow(sale, branchID, start, end) {
			continue
		}
		day := sale.CreatedAt.Format("2006-01-02")
		entry, ok := byDay[day]
		if !ok {
			entry = &repository.DailySales{Date: day, Total: decimal.Zero, Profit: decimal.Zero}
			byDay[day] = entry
		}
		entry.Total = entry.Total.Add(sale.Total)
	}
	for _, item := range s.saleItems {
		sale, ok := s.sales[item.SaleID]
		if !ok || !v.inWindow(sale, branchID, start, end) {
			continue
		}
		lot, ok := s.lots[item.ProductStockID]
		if !ok {
			continue
		}
		day := sale.CreatedAt.Format("2006-01-02")
		if entry, ok := byDay[day]; ok {
			cost := lot.UnitCost.Mul(decimal.NewFromInt(int64(item.Qty)))
			entry.Profit = entry.Profit.Add(item.LineTotal.Sub(cost))
		}
	}
	out := make([]repository.DailySales, 0, len(byDay))
	for _, entry := range byDay {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (v *saleView) TopSelling(branchID *uuid.UUID, start, end time.Time, limit int) ([]repository.ProductSales, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	byProduct := make(map[uuid.UUID]*repository.ProductSales)
	for _, item := range s.saleItems {
		sale, ok := s.sales[item.SaleID]
		if !ok || !v.inWindow(sale, branchID, start, end) {
			continue
		}
		entry, ok := byProduct[item.ProductID]
		if !ok {
			name := ""
			if p, ok := s.products[item.ProductID]; ok {
				name = p.Name
			}
			entry = &repository.ProductSales{ProductID: item.ProductID, ProductName: name, TotalRevenue: decimal.Zero}
			byProduct[item.ProductID] = entry
		}
		entry.TotalQty += item.Qty
		entry.TotalRevenue = entry.TotalRevenue.Add(item.LineTotal)
	}
	out := make([]repository.ProductSales, 0, len(byProduct))
	for _, entry := range byProduct {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalQty > out[j].TotalQty })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (v *saleView) SoldPerProduct(branchID *uuid.UUID, start, end time.Time) ([]repository.ProductMovement, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	byProduct := make(map[uuid.UUID]*repository.ProductMovement)
	for _, item := range s.saleItems {
		sale, ok := s.sales[item.SaleID]
		if !ok || !v.inWindow(sale, branchID, start, end) {
			continue
		}
		entry, ok := byProduct[item.ProductID]
		if !ok {
			name := ""
			if p, ok := s.products[item.ProductID]; ok {
				name = p.Name
			}
			entry = &repository.ProductMovement{ProductID: item.ProductID, ProductName: name, COGS: decimal.Zero}
			byProduct[item.ProductID] = entry
		}
		entry.Sold += item.Qty
		if lot, ok := s.lots[item.ProductStockID]; ok {
			entry.COGS = entry.COGS.Add(lot.UnitCost.Mul(decimal.NewFromInt(int64(item.Qty))))
		}
	}
	out := make([]repository.ProductMovement, 0, len(byProduct))
	for _, entry := range byProduct {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductName < out[j].ProductName })
	return out, nil
}
