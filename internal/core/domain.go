package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Housing       Category = "Housing"
	Entertainment Category = "Entertainment"
	Health        Category = "Health"
	Education     Category = "Education"
	Savings       Category = "Savings"
	Other         Category = "Other"
)

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	INR Currency = "INR"
	NGN Currency = "NGN"
	PHP Currency = "PHP"
)

const (
	English Language = "en"
	French  Language = "fr"
)

const (
	DailyIncome     IncomeStyle = "daily"
	WeeklyIncome    IncomeStyle = "weekly"
	IrregularIncome IncomeStyle = "irregular"
)

type (
	Category    string
	Currency    string
	Language    string
	IncomeStyle string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		ID        string
		Amount    Money
		Category  Category
		Date      Date
		Merchant  string
		Note      string
		IsScanned bool
	}

	// UserSettings is replaced wholesale on every edit; no partial patches.
	UserSettings struct {
		IsOnboarded    bool
		Name           string
		Currency       Currency
		IncomeStyle    IncomeStyle
		BudgetLimit    Money
		SavingsGoal    Money
		CurrentSavings Money
		Language       Language
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidLanguage = errors.New("invalid language")
	ErrInvalidIncome   = errors.New("invalid income style")
	ErrInvalidBudget   = errors.New("budget limit must be positive")
	ErrInvalidGoal     = errors.New("savings goal must be positive")
	ErrInvalidSavings  = errors.New("current savings cannot be negative")
)

// Categories returns the closed category set in its canonical order.
func Categories() []Category {
	return []Category{Food, Transport, Housing, Entertainment, Health, Education, Savings, Other}
}

// NormalizeCategory maps an arbitrary string onto the closed category set.
// Anything outside the eight known values becomes Other.
func NormalizeCategory(s string) Category {
	c := Category(strings.TrimSpace(s))
	if c.Valid() {
		return c
	}
	return Other
}

func (c Category) Valid() bool {
	switch c {
	case Food, Transport, Housing, Entertainment, Health, Education, Savings, Other:
		return true
	default:
		return false
	}
}

func (c Currency) Valid() bool {
	switch c {
	case USD, EUR, GBP, INR, NGN, PHP:
		return true
	default:
		return false
	}
}

func (l Language) Valid() bool {
	return l == English || l == French
}

func (s IncomeStyle) Valid() bool {
	switch s {
	case DailyIncome, WeeklyIncome, IrregularIncome:
		return true
	default:
		return false
	}
}

// NewDate creates a Date at midnight UTC. Expense dates carry no time component.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// SameMonth reports whether both dates fall in the same calendar month and year.
func (d Date) SameMonth(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month()
}

// SameDay reports whether both dates are the same calendar day.
func (d Date) SameDay(o Date) bool {
	return d.SameMonth(o) && d.Day() == o.Day()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if len(e.Merchant) > 200 {
		return errors.New("merchant too long (max 200 characters)")
	}
	if len(e.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

// DefaultSettings are applied for brand-new users and after sign-out.
func DefaultSettings() UserSettings {
	return UserSettings{
		IsOnboarded:    false,
		Name:           "",
		Currency:       USD,
		IncomeStyle:    IrregularIncome,
		BudgetLimit:    Money{Cents: 1000_00},
		SavingsGoal:    Money{Cents: 500_00},
		CurrentSavings: Money{Cents: 0},
		Language:       English,
	}
}

// Validate is the edit boundary for settings: every wholesale replacement
// passes through here, so a positive budget and goal hold for every record
// the user has saved. Defaults satisfy it trivially.
func (s UserSettings) Validate() error {
	if !s.Currency.Valid() {
		return ErrInvalidCurrency
	}
	if !s.IncomeStyle.Valid() {
		return ErrInvalidIncome
	}
	if !s.Language.Valid() {
		return ErrInvalidLanguage
	}
	if s.BudgetLimit.Cents <= 0 {
		return ErrInvalidBudget
	}
	if s.SavingsGoal.Cents <= 0 {
		return ErrInvalidGoal
	}
	if s.CurrentSavings.Cents < 0 {
		return ErrInvalidSavings
	}
	if len(s.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	return nil
}
