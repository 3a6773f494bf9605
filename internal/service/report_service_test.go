package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestSalesReportAggregates(t *testing.T) {
	f := newSaleFixture(t)
	f.addLot(t, "B-01", daysFromNow(90), 10, 40)

	if _, err := f.svc.SubmitSale(f.request(2, 100), uuid.New(), "Cashier A"); err != nil {
		t.Fatalf("submit sale: %v", err)
	}

	reports := NewReportService(f.store.Sales(), f.store.Stocks(), f.store.Branches())

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	report, err := reports.GetSalesReport(&f.branch.ID, start, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("sales report: %v", err)
	}

	if !report.TotalSales.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected total sales 200, got %s", report.TotalSales)
	}
	if report.SaleCount != 1 {
		t.Fatalf("expected 1 sale, got %d", report.SaleCount)
	}
	// Sold 2 at 100 with unit cost 40.
	if !report.Profit.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected profit 120, got %s", report.Profit)
	}
	if !report.COGS.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected COGS 80, got %s", report.COGS)
	}
	// 8 units remain at cost 40.
	if !report.InventoryValue.Equal(decimal.NewFromInt(320)) {
		t.Fatalf("expected inventory value 320, got %s", report.InventoryValue)
	}
	if len(report.TopSelling) != 1 || report.TopSelling[0].TotalQty != 2 {
		t.Fatalf("unexpected top selling rows: %+v", report.TopSelling)
	}
	if len(report.Daily) != 1 {
		t.Fatalf("expected one day in the series, got %d", len(report.Daily))
	}
	if _, err := time.Parse("2006-01-02", report.Daily[0].Date); err != nil {
		t.Fatalf("daily series date %q is not a plain day key: %v", report.Daily[0].Date, err)
	}
	if !report.Daily[0].Profit.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected daily profit 120, got %s", report.Daily[0].Profit)
	}
}

func TestSalesReportRejectsInvertedRange(t *testing.T) {
	f := newSaleFixture(t)
	reports := NewReportService(f.store.Sales(), f.store.Stocks(), f.store.Branches())

	now := time.Now()
	if _, err := reports.GetSalesReport(nil, now, now.Add(-time.Hour)); err == nil {
		t.Fatal("expected error for end before start")
	}
}

func TestDailyReportBody(t *testing.T) {
	f := newSaleFixture(t)
	f.addLot(t, "B-01", daysFromNow(90), 10, 40)

	if _, err := f.svc.SubmitSale(f.request(1, 100), uuid.New(), "Cashier A"); err != nil {
		t.Fatalf("submit sale: %v", err)
	}

	reports := NewReportService(f.store.Sales(), f.store.Stocks(), f.store.Branches())
	summaries, err := reports.DailySummaries()
	if err != nil {
		t.Fatalf("daily summaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected one branch summary, got %d", len(summaries))
	}
	if !summaries[0].Total.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected branch total 100, got %s", summaries[0].Total)
	}

	body := reports.DailyReportBody(summaries, time.Now())
	if !strings.Contains(body, "Downtown") || !strings.Contains(body, "100.00") {
		t.Fatalf("report body missing branch line:\n%s", body)
	}
}

func TestDashboardOverview(t *testing.T) {
	f := newSaleFixture(t)
	f.addLot(t, "B-LOW", daysFromNow(90), 5, 40)

	if _, err := f.svc.SubmitSale(f.request(1, 100), uuid.New(), "Cashier A"); err != nil {
		t.Fatalf("submit sale: %v", err)
	}

	dash := NewDashboardService(f.store.Sales(), f.store.Stocks(), f.store.Branches(), nil)

	overview, err := dash.GetOverview(context.Background(), nil)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if !overview.TodayTotal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected today's total 100, got %s", overview.TodayTotal)
	}
	if overview.TodayCount != 1 {
		t.Fatalf("expected today's count 1, got %d", overview.TodayCount)
	}
	if len(overview.LowStocks) != 1 {
		t.Fatalf("expected one low stock lot, got %d", len(overview.LowStocks))
	}
	if len(overview.RecentSales) != 1 {
		t.Fatalf("expected one recent sale, got %d", len(overview.RecentSales))
	}
	if len(overview.BranchTotals) != 1 || !overview.BranchTotals[0].Total.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected branch totals: %+v", overview.BranchTotals)
	}

	// Branch-scoped view carries no per-branch breakdown.
	scoped, err := dash.GetOverview(context.Background(), &f.branch.ID)
	if err != nil {
		t.Fatalf("scoped overview: %v", err)
	}
	if len(scoped.BranchTotals) != 0 {
		t.Fatalf("expected no branch totals on scoped view, got %+v", scoped.BranchTotals)
	}
}
