package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go-pharmacy-pos/internal/model"
	"go-pharmacy-pos/internal/notifier"
	"go-pharmacy-pos/internal/repository"
	"go-pharmacy-pos/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type saleFixture struct {
	store   *memory.Store
	svc     SaleService
	branch  *model.Branch
	product *model.Product
}

func newSaleFixture(t *testing.T) *saleFixture {
	t.Helper()
	store := memory.New()

	branch := &model.Branch{Name: "Downtown"}
	if err := store.Branches().Create(branch); err != nil {
		t.Fatalf("seed branch: %v", err)
	}

	product := &model.Product{
		Name:     "Paracetamol 500mg",
		Price:    decimal.NewFromInt(100),
		MinPrice: decimal.NewFromInt(60),
	}
	if err := store.Products().Create(product); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	svc := NewSaleService(store.Sales(), store.Products(), store.Branches(), store.Stocks(), notifier.LogNotifier{}, nil)
	return &saleFixture{store: store, svc: svc, branch: branch, product: product}
}

func (f *saleFixture) addLot(t *testing.T, batch string, expiry *time.Time, qty int, unitCost int64) *model.ProductStock {
	t.Helper()
	lot, err := f.store.Stocks().Restock(&model.ProductStock{
		ProductID:  f.product.ID,
		BranchID:   f.branch.ID,
		Batch:      batch,
		ExpiryDate: expiry,
		Quantity:   qty,
		UnitCost:   decimal.NewFromInt(unitCost),
	})
	if err != nil {
		t.Fatalf("seed lot %s: %v", batch, err)
	}
	return lot
}

func daysFromNow(days int) *time.Time {
	d := time.Now().AddDate(0, 0, days)
	return &d
}

func (f *saleFixture) request(qty int, unitPrice int64) *SubmitSaleRequest {
	return &SubmitSaleRequest{
		BranchID: f.branch.ID,
		Items: []SaleItemRequest{
			{ProductID: f.product.ID, UnitPrice: decimal.NewFromInt(unitPrice), Qty: qty},
		},
	}
}

func TestSubmitSaleHappyPath(t *testing.T) {
	f := newSaleFixture(t)
	lot := f.addLot(t, "B-01", daysFromNow(180), 20, 40)

	sale, err := f.svc.SubmitSale(f.request(3, 100), uuid.New(), "Cashier A")
	if err != nil {
		t.Fatalf("submit sale: %v", err)
	}

	if !sale.Total.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected total 300, got %s", sale.Total)
	}
	if !sale.CashReceived.Equal(sale.Total) {
		t.Fatalf("expected cash received to default to total, got %s", sale.CashReceived)
	}
	if len(sale.Items) != 1 || sale.Items[0].Qty != 3 {
		t.Fatalf("unexpected sale items: %+v", sale.Items)
	}
	if !sale.Items[0].LineTotal.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected line total 300, got %s", sale.Items[0].LineTotal)
	}

	after, err := f.store.Stocks().FindByID(lot.ID)
	if err != nil {
		t.Fatalf("reload lot: %v", err)
	}
	if after.Quantity != 17 {
		t.Fatalf("expected lot quantity 17 after sale, got %d", after.Quantity)
	}
}

func TestSubmitSalePicksEarliestExpiringLot(t *testing.T) {
	f := newSaleFixture(t)
	far := f.addLot(t, "B-FAR", daysFromNow(365), 10, 40)
	near := f.addLot(t, "B-NEAR", daysFromNow(30), 10, 40)
	open := f.addLot(t, "B-OPEN", nil, 10, 40)

	if _, err := f.svc.SubmitSale(f.request(2, 100), uuid.New(), "Cashier A"); err != nil {
		t.Fatalf("submit sale: %v", err)
	}

	check := func(id uuid.UUID, want int, label string) {
		lot, err := f.store.Stocks().FindByID(id)
		if err != nil {
			t.Fatalf("reload %s: %v", label, err)
		}
		if lot.Quantity != want {
			t.Fatalf("%s lot: expected quantity %d, got %d", label, want, lot.Quantity)
		}
	}
	check(near.ID, 8, "near-expiry")
	check(far.ID, 10, "far-expiry")
	check(open.ID, 10, "no-expiry")
}

func TestSubmitSaleSkipsLotsTooSmallForTheLine(t *testing.T) {
	f := newSaleFixture(t)
	small := f.addLot(t, "B-SMALL", daysFromNow(30), 2, 40)
	big := f.addLot(t, "B-BIG", daysFromNow(90), 50, 40)

	// The earliest lot cannot cover the whole line, so the later one is used.
	if _, err := f.svc.SubmitSale(f.request(5, 100), uuid.New(), "Cashier A"); err != nil {
		t.Fatalf("submit sale: %v", err)
	}

	lot, err := f.store.Stocks().FindByID(small.ID)
	if err != nil {
		t.Fatalf("reload small lot: %v", err)
	}
	if lot.Quantity != 2 {
		t.Fatalf("small lot should be untouched, got quantity %d", lot.Quantity)
	}
	lot, err = f.store.Stocks().FindByID(big.ID)
	if err != nil {
		t.Fatalf("reload big lot: %v", err)
	}
	if lot.Quantity != 45 {
		t.Fatalf("expected big lot quantity 45, got %d", lot.Quantity)
	}
}

func TestSubmitSaleEmptyCart(t *testing.T) {
	f := newSaleFixture(t)

	_, err := f.svc.SubmitSale(&SubmitSaleRequest{BranchID: f.branch.ID}, uuid.New(), "Cashier A")
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestSubmitSaleUnknownProduct(t *testing.T) {
	f := newSaleFixture(t)

	req := f.request(1, 100)
	req.Items[0].ProductID = uuid.New()

	_, err := f.svc.SubmitSale(req, uuid.New(), "Cashier A")
	var notFound *ProductNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ProductNotFoundError, got %v", err)
	}
}

func TestSubmitSaleRejectsPriceBelowFloor(t *testing.T) {
	f := newSaleFixture(t)
	f.addLot(t, "B-01", daysFromNow(90), 10, 40)

	_, err := f.svc.SubmitSale(f.request(1, 50), uuid.New(), "Cashier A")
	var belowFloor *PriceBelowFloorError
	if !errors.As(err, &belowFloor) {
		t.Fatalf("expected PriceBelowFloorError, got %v", err)
	}
	if !belowFloor.MinPrice.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected floor 60 in error, got %s", belowFloor.MinPrice)
	}
}

func TestSubmitSaleRejectsSellingBelowCost(t *testing.T) {
	f := newSaleFixture(t)
	// Floor is 60 but this batch cost 75: selling at 70 passes the floor and
	// still loses money.
	f.addLot(t, "B-EXPENSIVE", daysFromNow(90), 10, 75)

	_, err := f.svc.SubmitSale(f.request(1, 70), uuid.New(), "Cashier A")
	var belowCost *SaleBelowCostError
	if !errors.As(err, &belowCost) {
		t.Fatalf("expected SaleBelowCostError, got %v", err)
	}
}

func TestSubmitSaleInsufficientStock(t *testing.T) {
	f := newSaleFixture(t)
	f.addLot(t, "B-01", daysFromNow(90), 3, 40)

	_, err := f.svc.SubmitSale(f.request(5, 100), uuid.New(), "Cashier A")
	var noStock *InsufficientStockError
	if !errors.As(err, &noStock) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if noStock.Requested != 5 {
		t.Fatalf("expected requested 5 in error, got %d", noStock.Requested)
	}
}

func TestSubmitSaleRollsBackEverythingOnRejection(t *testing.T) {
	f := newSaleFixture(t)
	lot := f.addLot(t, "B-01", daysFromNow(90), 10, 40)

	second := &model.Product{
		Name:     "Amoxicillin 250mg",
		Price:    decimal.NewFromInt(200),
		MinPrice: decimal.NewFromInt(150),
	}
	if err := f.store.Products().Create(second); err != nil {
		t.Fatalf("seed second product: %v", err)
	}
	// No stock at all for the second product.

	req := &SubmitSaleRequest{
		BranchID:      f.branch.ID,
		CustomerPhone: "0712000111",
		CustomerName:  "Jane",
		Items: []SaleItemRequest{
			{ProductID: f.product.ID, UnitPrice: decimal.NewFromInt(100), Qty: 4},
			{ProductID: second.ID, UnitPrice: decimal.NewFromInt(200), Qty: 1},
		},
	}

	_, err := f.svc.SubmitSale(req, uuid.New(), "Cashier A")
	var noStock *InsufficientStockError
	if !errors.As(err, &noStock) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}

	// The first line's decrement must be undone.
	after, err := f.store.Stocks().FindByID(lot.ID)
	if err != nil {
		t.Fatalf("reload lot: %v", err)
	}
	if after.Quantity != 10 {
		t.Fatalf("expected lot quantity restored to 10, got %d", after.Quantity)
	}

	// No sale row survived.
	sales, err := f.store.Sales().FindRecent(nil, 10)
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 0 {
		t.Fatalf("expected no sales after rollback, got %d", len(sales))
	}

	// Neither did the customer created mid-transaction.
	if _, err := f.store.Customers().FirstByPhone("0712000111"); err == nil {
		t.Fatal("expected customer creation to be rolled back")
	}
}

func TestSubmitSaleReusesCustomerByPhone(t *testing.T) {
	f := newSaleFixture(t)
	f.addLot(t, "B-01", daysFromNow(90), 20, 40)

	req := f.request(1, 100)
	req.CustomerPhone = "0712000222"
	req.CustomerName = "First Visit"
	first, err := f.svc.SubmitSale(req, uuid.New(), "Cashier A")
	if err != nil {
		t.Fatalf("first sale: %v", err)
	}
	if first.CustomerID == nil {
		t.Fatal("expected first sale to carry a customer")
	}

	req = f.request(2, 100)
	req.CustomerPhone = "0712000222"
	req.CustomerName = "Different Name"
	second, err := f.svc.SubmitSale(req, uuid.New(), "Cashier A")
	if err != nil {
		t.Fatalf("second sale: %v", err)
	}
	if second.CustomerID == nil || *second.CustomerID != *first.CustomerID {
		t.Fatal("expected both sales to reference the same customer")
	}
}

func TestSubmitSaleWalkInHasNoCustomer(t *testing.T) {
	f := newSaleFixture(t)
	f.addLot(t, "B-01", daysFromNow(90), 20, 40)

	sale, err := f.svc.SubmitSale(f.request(1, 100), uuid.New(), "Cashier A")
	if err != nil {
		t.Fatalf("submit sale: %v", err)
	}
	if sale.CustomerID != nil {
		t.Fatal("walk-in sale should not carry a customer")
	}
}

func TestSubmitSaleMultipleLinesSameProduct(t *testing.T) {
	f := newSaleFixture(t)
	f.addLot(t, "B-01", daysFromNow(30), 5, 40)
	f.addLot(t, "B-02", daysFromNow(90), 5, 40)

	req := &SubmitSaleRequest{
		BranchID: f.branch.ID,
		Items: []SaleItemRequest{
			{ProductID: f.product.ID, UnitPrice: decimal.NewFromInt(100), Qty: 4},
			{ProductID: f.product.ID, UnitPrice: decimal.NewFromInt(100), Qty: 4},
		},
	}

	sale, err := f.svc.SubmitSale(req, uuid.New(), "Cashier A")
	if err != nil {
		t.Fatalf("submit sale: %v", err)
	}
	if !sale.Total.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("expected total 800, got %s", sale.Total)
	}

	// The first line drains the near lot below 4, so the second line must
	// come out of the later one.
	remaining, err := f.store.Stocks().TotalQuantity(f.product.ID, &f.branch.ID)
	if err != nil {
		t.Fatalf("total quantity: %v", err)
	}
	if remaining != 2 {
		t.Fatalf("expected 2 units left across lots, got %d", remaining)
	}
}

func TestSubmitSaleKeepsExplicitCashReceived(t *testing.T) {
	f := newSaleFixture(t)
	f.addLot(t, "B-01", daysFromNow(90), 10, 40)

	req := f.request(1, 100)
	req.CashReceived = decimal.NewFromInt(150)

	sale, err := f.svc.SubmitSale(req, uuid.New(), "Cashier A")
	if err != nil {
		t.Fatalf("submit sale: %v", err)
	}
	if !sale.CashReceived.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected cash received 150, got %s", sale.CashReceived)
	}
}

func TestSubmitSaleRejectionIsTyped(t *testing.T) {
	f := newSaleFixture(t)

	_, err := f.svc.SubmitSale(&SubmitSaleRequest{BranchID: f.branch.ID}, uuid.New(), "Cashier A")
	if !IsRejection(err) {
		t.Fatalf("expected a rejection, got %v", err)
	}
}

// faultySaleStore wraps the in-memory sale store and fails a chosen
// persistence step, forcing the surrounding transaction to unwind.
type faultySaleStore struct {
	repository.SaleRepository
	failSale  bool
	failItems bool
}

func (s *faultySaleStore) Atomically(fn func(tx repository.SaleTx) error) error {
	return s.SaleRepository.Atomically(func(tx repository.SaleTx) error {
		return fn(&faultySaleTx{SaleTx: tx, store: s})
	})
}

type faultySaleTx struct {
	repository.SaleTx
	store *faultySaleStore
}

func (t *faultySaleTx) CreateSale(sale *model.Sale) error {
	if t.store.failSale {
		return errors.New("connection reset by peer")
	}
	return t.SaleTx.CreateSale(sale)
}

func (t *faultySaleTx) CreateSaleItems(items []model.SaleItem) error {
	if t.store.failItems {
		return errors.New("connection reset by peer")
	}
	return t.SaleTx.CreateSaleItems(items)
}

func TestSubmitSaleRollsBackWhenPersistenceFails(t *testing.T) {
	cases := []struct {
		name      string
		failSale  bool
		failItems bool
	}{
		{name: "sale row", failSale: true},
		{name: "item rows", failItems: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newSaleFixture(t)
			lot := f.addLot(t, "B-01", daysFromNow(90), 10, 40)

			faulty := &faultySaleStore{
				SaleRepository: f.store.Sales(),
				failSale:       tc.failSale,
				failItems:      tc.failItems,
			}
			svc := NewSaleService(faulty, f.store.Products(), f.store.Branches(), f.store.Stocks(), notifier.LogNotifier{}, nil)

			req := f.request(4, 100)
			req.CustomerPhone = "0712000333"
			req.CustomerName = "Jane"

			_, err := svc.SubmitSale(req, uuid.New(), "Cashier A")
			if err == nil {
				t.Fatal("expected the sale to fail")
			}
			if IsRejection(err) {
				t.Fatalf("a storage failure must not read as a rejection: %v", err)
			}
			if !strings.Contains(err.Error(), "sale transaction aborted") {
				t.Fatalf("expected an aborted-transaction error, got %v", err)
			}

			// The lot decrement was undone.
			after, err := f.store.Stocks().FindByID(lot.ID)
			if err != nil {
				t.Fatalf("reload lot: %v", err)
			}
			if after.Quantity != 10 {
				t.Fatalf("expected lot quantity restored to 10, got %d", after.Quantity)
			}

			// No sale row survived.
			sales, err := f.store.Sales().FindRecent(nil, 10)
			if err != nil {
				t.Fatalf("list sales: %v", err)
			}
			if len(sales) != 0 {
				t.Fatalf("expected no sales after rollback, got %d", len(sales))
			}

			// Neither did the customer created mid-transaction.
			if _, err := f.store.Customers().FirstByPhone("0712000333"); err == nil {
				t.Fatal("expected customer creation to be rolled back")
			}
		})
	}
}
