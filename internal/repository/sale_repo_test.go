package repository

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAttachDailyProfitsJoinsByDayKey(t *testing.T) {
	days := []DailySales{
		{Date: "2026-08-27", Total: decimal.NewFromInt(300)},
		{Date: "2026-08-28", Total: decimal.NewFromInt(150)},
		{Date: "2026-08-29", Total: decimal.NewFromInt(500)},
	}
	profits := map[string]decimal.Decimal{
		"2026-08-27": decimal.NewFromInt(120),
		"2026-08-29": decimal.NewFromInt(210),
	}

	merged := attachDailyProfits(days, profits)

	if len(merged) != 3 {
		t.Fatalf("expected 3 days, got %d", len(merged))
	}
	if !merged[0].Profit.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected profit 120 on the first day, got %s", merged[0].Profit)
	}
	if !merged[1].Profit.IsZero() {
		t.Fatalf("day without a profit row should keep zero profit, got %s", merged[1].Profit)
	}
	if !merged[2].Profit.Equal(decimal.NewFromInt(210)) {
		t.Fatalf("expected profit 210 on the last day, got %s", merged[2].Profit)
	}
}
