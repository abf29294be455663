package core

import "testing"

func exp(cents int64, cat Category, date Date) Expense {
	return Expense{Amount: Money{Cents: cents}, Category: cat, Date: date}
}

func TestMonthlyExpensesExcludesAdjacentMonths(t *testing.T) {
	ref := NewDate(2024, 3, 1)
	expenses := []Expense{
		exp(1000, Food, NewDate(2024, 2, 28)), // within 31 days but wrong month
		exp(2000, Food, NewDate(2024, 3, 15)),
		exp(3000, Transport, NewDate(2024, 3, 31)),
		exp(4000, Food, NewDate(2023, 3, 10)), // same month, wrong year
		exp(5000, Food, NewDate(2024, 4, 1)),
	}

	got := MonthlyExpenses(expenses, ref)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	// order preserved from input
	if got[0].Amount.Cents != 2000 || got[1].Amount.Cents != 3000 {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestDailyExpenses(t *testing.T) {
	ref := NewDate(2024, 3, 15)
	expenses := []Expense{
		exp(100, Food, NewDate(2024, 3, 15)),
		exp(200, Food, NewDate(2024, 3, 14)),
		exp(300, Health, NewDate(2024, 3, 15)),
	}
	got := DailyExpenses(expenses, ref)
	if len(got) != 2 || got[0].Amount.Cents != 100 || got[1].Amount.Cents != 300 {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestTotalAmount(t *testing.T) {
	if got := TotalAmount(nil); got.Cents != 0 {
		t.Fatalf("empty input must sum to 0, got %d", got.Cents)
	}

	d := NewDate(2024, 1, 1)
	a := []Expense{exp(1050, Food, d), exp(333, Health, d), exp(7, Other, d)}
	b := []Expense{a[2], a[0], a[1]} // same entries, different order
	if TotalAmount(a).Cents != 1390 || TotalAmount(b).Cents != 1390 {
		t.Fatalf("sum must be order-independent: %d vs %d", TotalAmount(a).Cents, TotalAmount(b).Cents)
	}
}

func TestCategoryBreakdownInsertionOrder(t *testing.T) {
	d := NewDate(2024, 1, 1)
	got := CategoryBreakdown([]Expense{
		exp(1000, Food, d),
		exp(500, Food, d),
		exp(300, Transport, d),
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(got))
	}
	if got[0].Category != Food || got[0].Amount.Cents != 1500 {
		t.Fatalf("expected Food 1500 first, got %+v", got[0])
	}
	if got[1].Category != Transport || got[1].Amount.Cents != 300 {
		t.Fatalf("expected Transport 300 second, got %+v", got[1])
	}
}

func TestClassifyBudget(t *testing.T) {
	limit := Money{Cents: 1000_00}
	cases := []struct {
		spent int64
		want  BudgetTier
	}{
		{0, OnTrack},
		{800_00, OnTrack}, // exactly 0.80 stays OnTrack
		{800_01, NearBudget},
		{810_00, NearBudget},  // limit*0.81
		{1000_00, NearBudget}, // spend == limit is not over, ratio 1.0 > 0.80
		{1010_00, OverBudget}, // limit*1.01
	}
	for _, tc := range cases {
		if got := ClassifyBudget(Money{Cents: tc.spent}, limit); got != tc.want {
			t.Fatalf("spent=%d expected %s, got %s", tc.spent, tc.want, got)
		}
	}
}

func TestClassifyBudgetOverWinsTieBreak(t *testing.T) {
	// A value above the limit also has ratio > 0.80; the over check must win.
	if got := ClassifyBudget(Money{Cents: 2000_00}, Money{Cents: 1000_00}); got != OverBudget {
		t.Fatalf("expected OverBudget, got %s", got)
	}
}

func TestRemainingBudgetNeverNegative(t *testing.T) {
	limit := Money{Cents: 1000_00}
	if got := RemainingBudget(Money{Cents: 850_00}, limit); got.Cents != 150_00 {
		t.Fatalf("expected 15000, got %d", got.Cents)
	}
	if got := RemainingBudget(Money{Cents: 1200_00}, limit); got.Cents != 0 {
		t.Fatalf("expected floor at 0, got %d", got.Cents)
	}
}

func TestUsageRatio(t *testing.T) {
	limit := Money{Cents: 1000_00}
	if got := UsageRatio(Money{Cents: 850_00}, limit); got != 0.85 {
		t.Fatalf("expected 0.85, got %v", got)
	}
	// unclamped above 1 for the classification path
	if got := UsageRatio(Money{Cents: 1500_00}, limit); got != 1.5 {
		t.Fatalf("expected 1.5, got %v", got)
	}
	// clamped for display
	if got := ProgressFraction(Money{Cents: 1500_00}, limit); got != 1 {
		t.Fatalf("expected clamp to 1, got %v", got)
	}
}

func TestSavingsProgress(t *testing.T) {
	goal := Money{Cents: 500_00}
	cases := []struct {
		current int64
		want    float64
	}{
		{0, 0},
		{250_00, 0.5},
		{500_00, 1},
		{750_00, 1}, // clamped
	}
	for _, tc := range cases {
		got, err := SavingsProgress(Money{Cents: tc.current}, goal)
		if err != nil {
			t.Fatalf("current=%d unexpected error: %v", tc.current, err)
		}
		if got != tc.want {
			t.Fatalf("current=%d expected %v, got %v", tc.current, tc.want, got)
		}
	}

	if _, err := SavingsProgress(Money{Cents: 100}, Money{Cents: 0}); err != ErrInvalidGoal {
		t.Fatalf("expected ErrInvalidGoal, got %v", err)
	}
}

func TestSavingsProgressMonotonic(t *testing.T) {
	goal := Money{Cents: 500_00}
	prev := -1.0
	for c := int64(0); c <= 600_00; c += 50_00 {
		got, err := SavingsProgress(Money{Cents: c}, goal)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got < prev {
			t.Fatalf("progress decreased at current=%d: %v < %v", c, got, prev)
		}
		prev = got
	}
}

func TestBuildOverviewNearBudgetScenario(t *testing.T) {
	// settings {budgetLimit: 1000}, month sums to 850
	settings := DefaultSettings()
	ref := NewDate(2024, 6, 15)
	expenses := []Expense{
		exp(600_00, Housing, NewDate(2024, 6, 2)),
		exp(250_00, Food, NewDate(2024, 6, 15)),
		exp(999_00, Food, NewDate(2024, 5, 30)), // previous month, ignored
	}

	ov, err := BuildOverview(expenses, settings, ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ov.MonthTotal.Cents != 850_00 {
		t.Fatalf("month total: expected 85000, got %d", ov.MonthTotal.Cents)
	}
	if ov.DayTotal.Cents != 250_00 {
		t.Fatalf("day total: expected 25000, got %d", ov.DayTotal.Cents)
	}
	if ov.Tier != NearBudget {
		t.Fatalf("expected NearBudget, got %s", ov.Tier)
	}
	if ov.Remaining.Cents != 150_00 {
		t.Fatalf("remaining: expected 15000, got %d", ov.Remaining.Cents)
	}
	if ov.UsageRatio != 0.85 {
		t.Fatalf("usage ratio: expected 0.85, got %v", ov.UsageRatio)
	}
}
