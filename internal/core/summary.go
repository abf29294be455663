package core

// Overview is the derived dashboard state for one reference date. It is
// recomputed from scratch on every read; nothing here is cached.
type Overview struct {
	Year            int
	Month           int // 1-12
	MonthTotal      Money
	DayTotal        Money
	Remaining       Money
	UsageRatio      float64 // unclamped
	Progress        float64 // clamped to [0,1]
	Tier            BudgetTier
	ByCategory      []CategoryAmount
	SavingsProgress float64
}

// BuildOverview runs the whole aggregation pass for one reference date.
// Pure: no I/O, inputs are not mutated.
func BuildOverview(expenses []Expense, settings UserSettings, ref Date) (Overview, error) {
	month := MonthlyExpenses(expenses, ref)
	monthTotal := TotalAmount(month)
	dayTotal := TotalAmount(DailyExpenses(expenses, ref))

	savings, err := SavingsProgress(settings.CurrentSavings, settings.SavingsGoal)
	if err != nil {
		return Overview{}, err
	}

	return Overview{
		Year:            ref.Year(),
		Month:           int(ref.Month()),
		MonthTotal:      monthTotal,
		DayTotal:        dayTotal,
		Remaining:       RemainingBudget(monthTotal, settings.BudgetLimit),
		UsageRatio:      UsageRatio(monthTotal, settings.BudgetLimit),
		Progress:        ProgressFraction(monthTotal, settings.BudgetLimit),
		Tier:            ClassifyBudget(monthTotal, settings.BudgetLimit),
		ByCategory:      CategoryBreakdown(month),
		SavingsProgress: savings,
	}, nil
}
