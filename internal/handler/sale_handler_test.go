package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-pharmacy-pos/internal/model"
	"go-pharmacy-pos/internal/notifier"
	"go-pharmacy-pos/internal/repository/memory"
	"go-pharmacy-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type saleAppFixture struct {
	app     *fiber.App
	store   *memory.Store
	branch  *model.Branch
	product *model.Product
}

func newSaleAppFixture(t *testing.T) *saleAppFixture {
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

	svc := service.NewSaleService(store.Sales(), store.Products(), store.Branches(), store.Stocks(), notifier.LogNotifier{}, nil)
	app := fiber.New()
	app.Post("/api/v1/sales", NewSaleHandler(svc).Create)

	return &saleAppFixture{app: app, store: store, branch: branch, product: product}
}

func (f *saleAppFixture) addLot(t *testing.T, qty int) {
	t.Helper()
	expiry := time.Now().AddDate(0, 0, 180)
	if _, err := f.store.Stocks().Restock(&model.ProductStock{
		ProductID:  f.product.ID,
		BranchID:   f.branch.ID,
		Batch:      "B-01",
		ExpiryDate: &expiry,
		Quantity:   qty,
		UnitCost:   decimal.NewFromInt(40),
	}); err != nil {
		t.Fatalf("seed lot: %v", err)
	}
}

func (f *saleAppFixture) postSale(t *testing.T, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.app.Test(req)
	if err != nil {
		t.Fatalf("post sale: %v", err)
	}
	return resp
}

func TestCreateSaleReturnsCreated(t *testing.T) {
	f := newSaleAppFixture(t)
	f.addLot(t, 20)

	resp := f.postSale(t, fiber.Map{
		"branch_id": f.branch.ID,
		"items": []fiber.Map{
			{"product_id": f.product.ID, "unit_price": 100, "qty": 2},
		},
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
}

func TestCreateSaleMissingBranchIsBadRequest(t *testing.T) {
	f := newSaleAppFixture(t)
	f.addLot(t, 20)

	resp := f.postSale(t, fiber.Map{
		"items": []fiber.Map{
			{"product_id": f.product.ID, "unit_price": 100, "qty": 2},
		},
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for missing branch, got %d", resp.StatusCode)
	}
}

func TestCreateSaleNegativeQtyIsBadRequest(t *testing.T) {
	f := newSaleAppFixture(t)
	f.addLot(t, 20)

	resp := f.postSale(t, fiber.Map{
		"branch_id": f.branch.ID,
		"items": []fiber.Map{
			{"product_id": f.product.ID, "unit_price": 100, "qty": -1},
		},
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for negative qty, got %d", resp.StatusCode)
	}
}

func TestCreateSaleUnknownProductIsNotFound(t *testing.T) {
	f := newSaleAppFixture(t)
	f.addLot(t, 20)

	resp := f.postSale(t, fiber.Map{
		"branch_id": f.branch.ID,
		"items": []fiber.Map{
			{"product_id": uuid.New(), "unit_price": 100, "qty": 1},
		},
	})
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", resp.StatusCode)
	}
}
