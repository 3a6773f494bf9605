package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-pharmacy-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const topSellingLimit = 5

type ReportService interface {
	// GetSalesReport summarizes one branch (or all branches when branchID is
	// nil) over [start, end].
	GetSalesReport(branchID *uuid.UUID, start, end time.Time) (*SalesReport, error)
	// DailySummaries returns today's totals per branch, for the end-of-day
	// mail to the administrators.
	DailySummaries() ([]BranchDaySummary, error)
	// DailyReportBody renders the summaries as the plain-text mail body.
	DailyReportBody(summaries []BranchDaySummary, day time.Time) string
}

type SalesReport struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	TotalSales decimal.Decimal `json:"total_sales"`
	SaleCount  int64           `json:"sale_count"`
	Profit     decimal.Decimal `json:"profit"`
	COGS       decimal.Decimal `json:"cogs"`

	InventoryValue decimal.Decimal `json:"inventory_value"`
	// Turnover is COGS over current inventory value; zero when the shelf
	// is empty.
	Turnover decimal.Decimal `json:"turnover"`

	Daily      []repository.DailySales      `json:"daily"`
	TopSelling []repository.ProductSales    `json:"top_selling"`
	Movement   []repository.ProductMovement `json:"movement"`
}

type BranchDaySummary struct {
	BranchID   uuid.UUID       `json:"branch_id"`
	BranchName string          `json:"branch_name"`
	Total      decimal.Decimal `json:"total"`
	Count      int64           `json:"count"`
}

type reportService struct {
	saleRepo   repository.SaleRepository
	stockRepo  repository.StockRepository
	branchRepo repository.BranchRepository
}

func NewReportService(
	saleRepo repository.SaleRepository,
	stockRepo repository.StockRepository,
	branchRepo repository.BranchRepository,
) ReportService {
	return &reportService{
		saleRepo:   saleRepo,
		stockRepo:  stockRepo,
		branchRepo: branchRepo,
	}
}

func (s *reportService) GetSalesReport(branchID *uuid.UUID, start, end time.Time) (*SalesReport, error) {
	if end.Before(start) {
		return nil, errors.New("report range end precedes start")
	}

	report := &SalesReport{Start: start, End: end}

	var err error
	if report.TotalSales, err = s.saleRepo.TotalBetween(branchID, start, end); err != nil {
		return nil, fmt.Errorf("total sales: %w", err)
	}
	if report.SaleCount, err = s.saleRepo.CountBetween(branchID, start, end); err != nil {
		return nil, fmt.Errorf("sale count: %w", err)
	}
	if report.Profit, err = s.saleRepo.ProfitBetween(branchID, start, end); err != nil {
		return nil, fmt.Errorf("profit: %w", err)
	}
	if report.Daily, err = s.saleRepo.DailyTotals(branchID, start, end); err != nil {
		return nil, fmt.Errorf("daily series: %w", err)
	}
	if report.TopSelling, err = s.saleRepo.TopSelling(branchID, start, end, topSellingLimit); err != nil {
		return nil, fmt.Errorf("top selling: %w", err)
	}
	if report.Movement, err = s.saleRepo.SoldPerProduct(branchID, start, end); err != nil {
		return nil, fmt.Errorf("movement: %w", err)
	}

	for _, row := range report.Movement {
		report.COGS = report.COGS.Add(row.COGS)
	}

	if report.InventoryValue, err = s.stockRepo.InventoryValue(branchID); err != nil {
		return nil, fmt.Errorf("inventory value: %w", err)
	}
	if report.InventoryValue.IsPositive() {
		report.Turnover = report.COGS.Div(report.InventoryValue).Round(4)
	}
	return report, nil
}

func (s *reportService) DailySummaries() ([]BranchDaySummary, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	branches, err := s.branchRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("branches: %w", err)
	}

	summaries := make([]BranchDaySummary, 0, len(branches))
	for _, branch := range branches {
		id := branch.ID
		total, err := s.saleRepo.TotalBetween(&id, dayStart, now)
		if err != nil {
			return nil, fmt.Errorf("branch %s total: %w", branch.Name, err)
		}
		count, err := s.saleRepo.CountBetween(&id, dayStart, now)
		if err != nil {
			return nil, fmt.Errorf("branch %s count: %w", branch.Name, err)
		}
		summaries = append(summaries, BranchDaySummary{
			BranchID:   branch.ID,
			BranchName: branch.Name,
			Total:      total,
			Count:      count,
		})
	}
	return summaries, nil
}

func (s *reportService) DailyReportBody(summaries []BranchDaySummary, day time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily sales report for %s\n\n", day.Format("Monday, 02 Jan 2006"))

	grandTotal := decimal.Zero
	var grandCount int64
	for _, s := range summaries {
		fmt.Fprintf(&b, "%s: %s from %d sale(s)\n", s.BranchName, s.Total.StringFixed(2), s.Count)
		grandTotal = grandTotal.Add(s.Total)
		grandCount += s.Count
	}
	fmt.Fprintf(&b, "\nAll branches: %s from %d sale(s)\n", grandTotal.StringFixed(2), grandCount)
	return b.String()
}
