package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/log"
)

type settingsPayload struct {
	IsOnboarded    bool   `json:"is_onboarded"`
	Name           string `json:"name"`
	Currency       string `json:"currency"`
	IncomeStyle    string `json:"income_style"`
	BudgetLimit    string `json:"budget_limit"`
	SavingsGoal    string `json:"savings_goal"`
	CurrentSavings string `json:"current_savings"`
	Language       string `json:"language"`
}

func toSettingsPayload(s core.UserSettings) settingsPayload {
	return settingsPayload{
		IsOnboarded:    s.IsOnboarded,
		Name:           s.Name,
		Currency:       string(s.Currency),
		IncomeStyle:    string(s.IncomeStyle),
		BudgetLimit:    s.BudgetLimit.DecimalString(),
		SavingsGoal:    s.SavingsGoal.DecimalString(),
		CurrentSavings: s.CurrentSavings.DecimalString(),
		Language:       string(s.Language),
	}
}

func (p settingsPayload) toSettings() (core.UserSettings, error) {
	budget, err := core.ParseDecimalToCents(p.BudgetLimit)
	if err != nil {
		return core.UserSettings{}, core.ErrInvalidBudget
	}
	goal, err := core.ParseDecimalToCents(p.SavingsGoal)
	if err != nil {
		return core.UserSettings{}, core.ErrInvalidGoal
	}
	savings, err := core.ParseDecimalToCents(p.CurrentSavings)
	if err != nil {
		return core.UserSettings{}, core.ErrInvalidSavings
	}

	return core.UserSettings{
		IsOnboarded:    p.IsOnboarded,
		Name:           sanitizeInput(p.Name),
		Currency:       core.Currency(p.Currency),
		IncomeStyle:    core.IncomeStyle(p.IncomeStyle),
		BudgetLimit:    core.Money{Cents: budget},
		SavingsGoal:    core.Money{Cents: goal},
		CurrentSavings: core.Money{Cents: savings},
		Language:       core.Language(p.Language),
	}, nil
}

type expensePayload struct {
	ID        string `json:"id,omitempty"`
	Amount    string `json:"amount"`
	Category  string `json:"category"`
	Date      string `json:"date"`
	Merchant  string `json:"merchant,omitempty"`
	Note      string `json:"note,omitempty"`
	IsScanned bool   `json:"is_scanned,omitempty"`
}

func toExpensePayload(e core.Expense) expensePayload {
	return expensePayload{
		ID:        e.ID,
		Amount:    e.Amount.DecimalString(),
		Category:  string(e.Category),
		Date:      e.Date.String(),
		Merchant:  e.Merchant,
		Note:      e.Note,
		IsScanned: e.IsScanned,
	}
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	m, err := s.manager(r.Context(), user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Session load failed",
			log.FieldUserID, user.ID, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	switch r.Method {
	case http.MethodGet:
		settings, _ := m.Snapshot()
		writeJSON(w, http.StatusOK, toSettingsPayload(settings))

	case http.MethodPut:
		var payload settingsPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		settings, err := payload.toSettings()
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if err := m.UpdateSettings(r.Context(), settings); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toSettingsPayload(settings))

	default:
		w.Header().Set("Allow", "GET, PUT")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	m, err := s.manager(r.Context(), user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Session load failed",
			log.FieldUserID, user.ID, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	switch r.Method {
	case http.MethodGet:
		_, expenses := m.Snapshot()
		payload := make([]expensePayload, len(expenses))
		for i, e := range expenses {
			payload[i] = toExpensePayload(e)
		}
		writeJSON(w, http.StatusOK, payload)

	case http.MethodPost:
		var payload expensePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		cents, err := core.ParseDecimalToCents(strings.TrimSpace(payload.Amount))
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid amount")
			return
		}
		date, err := core.ParseDate(payload.Date)
		if err != nil {
			date = core.DateOf(time.Now())
		}

		expense, err := m.AddExpense(r.Context(), core.Expense{
			Amount:    core.Money{Cents: cents},
			Category:  core.Category(payload.Category),
			Date:      date,
			Merchant:  sanitizeInput(payload.Merchant),
			Note:      sanitizeInput(payload.Note),
			IsScanned: payload.IsScanned,
		})
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, toExpensePayload(expense))

	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type categoryAmountPayload struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Emoji    string `json:"emoji"`
	Amount   string `json:"amount"`
}

type dashboardPayload struct {
	Year            int                     `json:"year"`
	Month           int                     `json:"month"`
	MonthTotal      string                  `json:"month_total"`
	DayTotal        string                  `json:"day_total"`
	Remaining       string                  `json:"remaining"`
	UsageRatio      float64                 `json:"usage_ratio"`
	Progress        float64                 `json:"progress"`
	Tier            string                  `json:"tier"`
	ByCategory      []categoryAmountPayload `json:"by_category"`
	SavingsProgress float64                 `json:"savings_progress"`
	CurrencySymbol  string                  `json:"currency_symbol"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	m, err := s.manager(r.Context(), user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Session load failed",
			log.FieldUserID, user.ID, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	ref := refDate(r)
	overview, err := m.Overview(ref)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	settings, _ := m.Snapshot()
	byCategory := make([]categoryAmountPayload, len(overview.ByCategory))
	for i, ca := range overview.ByCategory {
		byCategory[i] = categoryAmountPayload{
			Category: string(ca.Category),
			Label:    ca.Category.Label(settings.Language),
			Emoji:    ca.Category.Emoji(),
			Amount:   ca.Amount.DecimalString(),
		}
	}

	writeJSON(w, http.StatusOK, dashboardPayload{
		Year:            overview.Year,
		Month:           overview.Month,
		MonthTotal:      overview.MonthTotal.DecimalString(),
		DayTotal:        overview.DayTotal.DecimalString(),
		Remaining:       overview.Remaining.DecimalString(),
		UsageRatio:      overview.UsageRatio,
		Progress:        overview.Progress,
		Tier:            string(overview.Tier),
		ByCategory:      byCategory,
		SavingsProgress: overview.SavingsProgress,
		CurrencySymbol:  settings.Currency.Symbol(),
	})
}

// refDate resolves the reference date for aggregation: today by default,
// or the requested year/month. A past or future month aggregates from its
// first day so the daily total stays within that month.
func refDate(r *http.Request) core.Date {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if mo, err := strconv.Atoi(v); err == nil && mo >= 1 && mo <= 12 {
			month = mo
		}
	}

	if year == now.Year() && month == int(now.Month()) {
		return core.DateOf(now)
	}
	return core.NewDate(year, month, 1)
}
