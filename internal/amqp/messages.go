package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"pennywise/internal/core"
)

// WriteKind identifies what a queued durable write carries.
type WriteKind string

const (
	WriteExpense  WriteKind = "expense"
	WriteSettings WriteKind = "settings"
)

// ExpensePayload is the wire form of an expense write. Amount is integer
// cents and date is YYYY-MM-DD, same as the storage schema.
type ExpensePayload struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Category  string `json:"category"`
	Date      string `json:"date"`
	Merchant  string `json:"merchant"`
	Note      string `json:"note"`
	IsScanned bool   `json:"is_scanned"`
}

// SettingsPayload is the wire form of a full settings replacement.
type SettingsPayload struct {
	IsOnboarded    bool   `json:"is_onboarded"`
	Name           string `json:"name"`
	Currency       string `json:"currency"`
	IncomeStyle    string `json:"income_style"`
	BudgetLimit    int64  `json:"budget_limit"`
	SavingsGoal    int64  `json:"savings_goal"`
	CurrentSavings int64  `json:"current_savings"`
	Language       string `json:"language"`
}

// WriteMessage is one queued durable write. Exactly one of Expense or
// Settings is set, selected by Kind.
type WriteMessage struct {
	Kind      WriteKind        `json:"kind"`
	UserID    string           `json:"user_id"`
	Timestamp time.Time        `json:"timestamp"`
	Expense   *ExpensePayload  `json:"expense,omitempty"`
	Settings  *SettingsPayload `json:"settings,omitempty"`
}

// NewExpenseWriteMessage wraps an expense for the retry queue.
func NewExpenseWriteMessage(userID string, e core.Expense) *WriteMessage {
	return &WriteMessage{
		Kind:      WriteExpense,
		UserID:    userID,
		Timestamp: time.Now(),
		Expense: &ExpensePayload{
			ID:        e.ID,
			Amount:    e.Amount.Cents,
			Category:  string(e.Category),
			Date:      e.Date.String(),
			Merchant:  e.Merchant,
			Note:      e.Note,
			IsScanned: e.IsScanned,
		},
	}
}

// NewSettingsWriteMessage wraps a settings replacement for the retry queue.
func NewSettingsWriteMessage(userID string, s core.UserSettings) *WriteMessage {
	return &WriteMessage{
		Kind:      WriteSettings,
		UserID:    userID,
		Timestamp: time.Now(),
		Settings: &SettingsPayload{
			IsOnboarded:    s.IsOnboarded,
			Name:           s.Name,
			Currency:       string(s.Currency),
			IncomeStyle:    string(s.IncomeStyle),
			BudgetLimit:    s.BudgetLimit.Cents,
			SavingsGoal:    s.SavingsGoal.Cents,
			CurrentSavings: s.CurrentSavings.Cents,
			Language:       string(s.Language),
		},
	}
}

// ExpenseRecord converts the payload back to the domain record.
func (m *WriteMessage) ExpenseRecord() (core.Expense, error) {
	if m.Kind != WriteExpense || m.Expense == nil {
		return core.Expense{}, fmt.Errorf("message is not an expense write")
	}
	date, err := core.ParseDate(m.Expense.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", m.Expense.Date, err)
	}
	return core.Expense{
		ID:        m.Expense.ID,
		Amount:    core.Money{Cents: m.Expense.Amount},
		Category:  core.Category(m.Expense.Category),
		Date:      date,
		Merchant:  m.Expense.Merchant,
		Note:      m.Expense.Note,
		IsScanned: m.Expense.IsScanned,
	}, nil
}

// SettingsRecord converts the payload back to the domain record.
func (m *WriteMessage) SettingsRecord() (core.UserSettings, error) {
	if m.Kind != WriteSettings || m.Settings == nil {
		return core.UserSettings{}, fmt.Errorf("message is not a settings write")
	}
	return core.UserSettings{
		IsOnboarded:    m.Settings.IsOnboarded,
		Name:           m.Settings.Name,
		Currency:       core.Currency(m.Settings.Currency),
		IncomeStyle:    core.IncomeStyle(m.Settings.IncomeStyle),
		BudgetLimit:    core.Money{Cents: m.Settings.BudgetLimit},
		SavingsGoal:    core.Money{Cents: m.Settings.SavingsGoal},
		CurrentSavings: core.Money{Cents: m.Settings.CurrentSavings},
		Language:       core.Language(m.Settings.Language),
	}, nil
}

// Validate checks the kind and payload pairing before publish.
func (m *WriteMessage) Validate() error {
	if m.UserID == "" {
		return fmt.Errorf("write message missing user id")
	}
	switch m.Kind {
	case WriteExpense:
		if m.Expense == nil {
			return fmt.Errorf("expense write missing payload")
		}
	case WriteSettings:
		if m.Settings == nil {
			return fmt.Errorf("settings write missing payload")
		}
	default:
		return fmt.Errorf("unknown write kind: %s", m.Kind)
	}
	return nil
}

// ToJSON converts the message to JSON bytes.
func (m *WriteMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// WriteMessageFromJSON parses a queued message.
func WriteMessageFromJSON(data []byte) (*WriteMessage, error) {
	var msg WriteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
