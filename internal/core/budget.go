package core

// BudgetTier classifies monthly spend against the budget limit.
type BudgetTier string

const (
	OnTrack    BudgetTier = "on_track"
	NearBudget BudgetTier = "near_budget"
	OverBudget BudgetTier = "over_budget"
)

// CategoryAmount is an amount aggregated per category.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// MonthlyExpenses returns the entries dated in the same calendar month and
// year as ref, preserving input order. Adjacent months are excluded even
// when within 31 days of ref.
func MonthlyExpenses(expenses []Expense, ref Date) []Expense {
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Date.SameMonth(ref) {
			out = append(out, e)
		}
	}
	return out
}

// DailyExpenses returns the entries dated exactly on ref's calendar day.
func DailyExpenses(expenses []Expense, ref Date) []Expense {
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Date.SameDay(ref) {
			out = append(out, e)
		}
	}
	return out
}

// TotalAmount sums the amounts of the given entries. Empty input sums to zero.
func TotalAmount(expenses []Expense) Money {
	var total Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// CategoryBreakdown sums amounts per category. Categories absent from the
// input are omitted; the result is ordered by first occurrence, not by the
// canonical category order.
func CategoryBreakdown(expenses []Expense) []CategoryAmount {
	idx := make(map[Category]int, len(expenses))
	out := make([]CategoryAmount, 0, 8)
	for _, e := range expenses {
		if i, ok := idx[e.Category]; ok {
			out[i].Amount = out[i].Amount.Add(e.Amount)
			continue
		}
		idx[e.Category] = len(out)
		out = append(out, CategoryAmount{Category: e.Category, Amount: e.Amount})
	}
	return out
}

// ClassifyBudget picks exactly one tier for the given monthly spend.
// Spend above the limit is always OverBudget; at or below it, the tier is
// NearBudget when spend/limit exceeds 0.80 and OnTrack otherwise. The
// comparison is done on cents, never through a float.
func ClassifyBudget(spent, limit Money) BudgetTier {
	if spent.Cents > limit.Cents {
		return OverBudget
	}
	if spent.Cents*5 > limit.Cents*4 {
		return NearBudget
	}
	return OnTrack
}

// RemainingBudget is the unspent part of the limit, floored at zero.
// There is no borrowing against future periods.
func RemainingBudget(spent, limit Money) Money {
	if spent.Cents >= limit.Cents {
		return Money{}
	}
	return Money{Cents: limit.Cents - spent.Cents}
}

// UsageRatio is spent/limit, unclamped. Callers clamp for display with
// ProgressFraction; the classification in ClassifyBudget never goes through
// this float.
func UsageRatio(spent, limit Money) float64 {
	if limit.Cents <= 0 {
		return 0
	}
	return float64(spent.Cents) / float64(limit.Cents)
}

// ProgressFraction clamps the usage ratio to [0, 1] for progress bars.
func ProgressFraction(spent, limit Money) float64 {
	r := UsageRatio(spent, limit)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// SavingsProgress is current/goal clamped to [0, 1]. A non-positive goal
// returns ErrInvalidGoal.
func SavingsProgress(current, goal Money) (float64, error) {
	if goal.Cents <= 0 {
		return 0, ErrInvalidGoal
	}
	if current.Cents <= 0 {
		return 0, nil
	}
	if current.Cents >= goal.Cents {
		return 1, nil
	}
	return float64(current.Cents) / float64(goal.Cents), nil
}
