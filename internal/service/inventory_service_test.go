package service

import (
	"testing"
	"time"

	"go-pharmacy-pos/internal/model"
	"go-pharmacy-pos/internal/repository/memory"

	"github.com/shopspring/decimal"
)

func newInventoryFixture(t *testing.T) (*memory.Store, InventoryService, *model.Branch) {
	t.Helper()
	store := memory.New()

	branch := &model.Branch{Name: "Westside"}
	if err := store.Branches().Create(branch); err != nil {
		t.Fatalf("seed branch: %v", err)
	}

	svc := NewInventoryService(store.Products(), store.Stocks(), store.Branches(), nil)
	return store, svc, branch
}

func TestCreateProductRejectsFloorAbovePrice(t *testing.T) {
	_, svc, _ := newInventoryFixture(t)

	_, err := svc.CreateProduct(&CreateProductRequest{
		Name:     "Ibuprofen 400mg",
		Price:    decimal.NewFromInt(50),
		MinPrice: decimal.NewFromInt(80),
	}, "Manager")
	if err == nil {
		t.Fatal("expected rejection when min_price exceeds price")
	}
}

func TestCreateProductWithOpeningStock(t *testing.T) {
	store, svc, branch := newInventoryFixture(t)

	expiry := time.Now().AddDate(1, 0, 0)
	product, err := svc.CreateProduct(&CreateProductRequest{
		Name:     "Ibuprofen 400mg",
		Price:    decimal.NewFromInt(80),
		MinPrice: decimal.NewFromInt(50),
		OpeningStock: &OpeningStockRequest{
			BranchID:   branch.ID,
			Batch:      "OPEN-1",
			ExpiryDate: &expiry,
			Quantity:   30,
			UnitCost:   decimal.NewFromInt(35),
		},
	}, "Manager")
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	total, err := store.Stocks().TotalQuantity(product.ID, &branch.ID)
	if err != nil {
		t.Fatalf("total quantity: %v", err)
	}
	if total != 30 {
		t.Fatalf("expected opening quantity 30, got %d", total)
	}
}

func TestRestockIncrementsExistingLot(t *testing.T) {
	store, svc, branch := newInventoryFixture(t)

	product, err := svc.CreateProduct(&CreateProductRequest{
		Name:     "Cetirizine 10mg",
		Price:    decimal.NewFromInt(40),
		MinPrice: decimal.NewFromInt(20),
	}, "Manager")
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	expiry := time.Now().AddDate(0, 6, 0)
	req := &RestockRequest{
		ProductID:  product.ID,
		BranchID:   branch.ID,
		Batch:      "CET-1",
		ExpiryDate: &expiry,
		Quantity:   10,
		UnitCost:   decimal.NewFromInt(15),
	}

	first, err := svc.Restock(req, "Manager")
	if err != nil {
		t.Fatalf("first restock: %v", err)
	}
	second, err := svc.Restock(req, "Manager")
	if err != nil {
		t.Fatalf("second restock: %v", err)
	}

	if first.ID != second.ID {
		t.Fatal("restocking the same lot tuple should reuse the row")
	}
	if second.Quantity != 20 {
		t.Fatalf("expected quantity 20 after two receipts, got %d", second.Quantity)
	}

	total, err := store.Stocks().TotalQuantity(product.ID, &branch.ID)
	if err != nil {
		t.Fatalf("total quantity: %v", err)
	}
	if total != 20 {
		t.Fatalf("expected total 20, got %d", total)
	}
}

func TestRestockNewBatchCreatesSeparateLot(t *testing.T) {
	_, svc, branch := newInventoryFixture(t)

	product, err := svc.CreateProduct(&CreateProductRequest{
		Name:     "Cetirizine 10mg",
		Price:    decimal.NewFromInt(40),
		MinPrice: decimal.NewFromInt(20),
	}, "Manager")
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	first, err := svc.Restock(&RestockRequest{
		ProductID: product.ID,
		BranchID:  branch.ID,
		Batch:     "CET-1",
		Quantity:  10,
	}, "Manager")
	if err != nil {
		t.Fatalf("first restock: %v", err)
	}
	second, err := svc.Restock(&RestockRequest{
		ProductID: product.ID,
		BranchID:  branch.ID,
		Batch:     "CET-2",
		Quantity:  5,
	}, "Manager")
	if err != nil {
		t.Fatalf("second restock: %v", err)
	}

	if first.ID == second.ID {
		t.Fatal("different batches must be separate lots")
	}
}

func TestLowStockAndNearExpiryViews(t *testing.T) {
	_, svc, branch := newInventoryFixture(t)

	product, err := svc.CreateProduct(&CreateProductRequest{
		Name:     "Amoxicillin 250mg",
		Price:    decimal.NewFromInt(120),
		MinPrice: decimal.NewFromInt(90),
	}, "Manager")
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	soon := time.Now().AddDate(0, 0, 14)
	far := time.Now().AddDate(2, 0, 0)

	if _, err := svc.Restock(&RestockRequest{
		ProductID: product.ID, BranchID: branch.ID, Batch: "A-LOW", ExpiryDate: &soon, Quantity: 3,
	}, "Manager"); err != nil {
		t.Fatalf("restock low: %v", err)
	}
	if _, err := svc.Restock(&RestockRequest{
		ProductID: product.ID, BranchID: branch.ID, Batch: "A-FULL", ExpiryDate: &far, Quantity: 500,
	}, "Manager"); err != nil {
		t.Fatalf("restock full: %v", err)
	}

	low, err := svc.GetLowStock(&branch.ID)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(low) != 1 || low[0].Batch != "A-LOW" {
		t.Fatalf("expected only the small lot to be low, got %+v", low)
	}

	near, err := svc.GetNearExpiry(&branch.ID)
	if err != nil {
		t.Fatalf("near expiry: %v", err)
	}
	if len(near) != 1 || near[0].Batch != "A-LOW" {
		t.Fatalf("expected only the soon-expiring lot, got %+v", near)
	}
}
