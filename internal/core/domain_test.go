package core

import (
	"testing"
	"time"
)

func TestNormalizeCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
	}{
		{"Food", Food},
		{" Transport ", Transport},
		{"Groceries", Other}, // unknown values collapse to Other
		{"food", Other},      // the set is case-sensitive
		{"", Other},
	}
	for _, tc := range cases {
		if got := NormalizeCategory(tc.in); got != tc.want {
			t.Fatalf("%q expected %s, got %s", tc.in, tc.want, got)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		ID:       "e1",
		Amount:   Money{Cents: 100},
		Category: Food,
		Date:     NewDate(2025, 1, 1),
		Merchant: "corner shop",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Amount: Money{Cents: 100}, Category: Food, Date: Date{Time: time.Time{}}},
		{Amount: Money{Cents: 0}, Category: Food, Date: NewDate(2025, 1, 1)},
		{Amount: Money{Cents: 100}, Category: "Groceries", Date: NewDate(2025, 1, 1)},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSettingsValidate(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("defaults must pass the edit boundary, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*UserSettings)
	}{
		{"zero budget", func(s *UserSettings) { s.BudgetLimit.Cents = 0 }},
		{"negative budget", func(s *UserSettings) { s.BudgetLimit.Cents = -1 }},
		{"zero goal", func(s *UserSettings) { s.SavingsGoal.Cents = 0 }},
		{"negative savings", func(s *UserSettings) { s.CurrentSavings.Cents = -1 }},
		{"unknown currency", func(s *UserSettings) { s.Currency = "CAD" }},
		{"unknown language", func(s *UserSettings) { s.Language = "de" }},
		{"unknown income style", func(s *UserSettings) { s.IncomeStyle = "monthly" }},
	}
	for _, tc := range cases {
		s := DefaultSettings()
		tc.mutate(&s)
		if err := s.Validate(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.March || d.Day() != 1 {
		t.Fatalf("unexpected date: %v", d)
	}
	if _, err := ParseDate("01/03/2024"); err == nil {
		t.Fatal("expected error for non-ISO format")
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := Housing.Label(French); got != "Logement" {
		t.Fatalf("expected Logement, got %q", got)
	}
	if got := Housing.Label("de"); got != "Housing" {
		t.Fatalf("unknown language should fall back to English, got %q", got)
	}
}
