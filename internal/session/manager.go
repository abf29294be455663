// Package session holds the per-user working state: the settings record
// and the expense list, loaded once and mutated optimistically. Local
// state changes first; durable writes happen in the background and are
// never allowed to block or roll back the user-visible update.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"pennywise/internal/amqp"
	"pennywise/internal/backend"
	"pennywise/internal/core"
	"pennywise/internal/log"

	"golang.org/x/sync/errgroup"
)

const writeTimeout = 10 * time.Second

// WriteQueue is the durable-write retry queue. Nil when no broker is
// configured; the manager then writes straight to the store.
type WriteQueue interface {
	PublishWrite(ctx context.Context, msg *amqp.WriteMessage) error
}

type Manager struct {
	userID string
	store  backend.Store
	queue  WriteQueue
	logger *log.Logger

	mu       sync.RWMutex
	loaded   bool
	settings core.UserSettings
	expenses []core.Expense
}

func NewManager(userID string, store backend.Store, queue WriteQueue, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Manager{
		userID:   userID,
		store:    store,
		queue:    queue,
		logger:   logger.WithComponent(log.ComponentSession).With(log.FieldUserID, userID),
		settings: core.DefaultSettings(),
	}
}

// Load fetches settings and expenses concurrently and applies both in one
// step once the slower fetch finishes. A missing or unreadable settings
// record falls back to defaults rather than failing the load.
func (m *Manager) Load(ctx context.Context) error {
	var (
		settings = core.DefaultSettings()
		expenses []core.Expense
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s, err := m.store.GetSettings(gctx, m.userID)
		if err != nil {
			if !errors.Is(err, backend.ErrNotFound) {
				m.logger.WarnContext(gctx, "Settings fetch failed, using defaults", log.FieldError, err)
			}
			return nil
		}
		settings = s
		return nil
	})

	g.Go(func() error {
		list, err := m.store.GetExpenses(gctx, m.userID)
		if err != nil {
			m.logger.WarnContext(gctx, "Expense fetch failed, starting empty", log.FieldError, err)
			return nil
		}
		expenses = list
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	m.mu.Lock()
	m.settings = settings
	m.expenses = expenses
	m.loaded = true
	m.mu.Unlock()

	return nil
}

// Loaded reports whether Load has completed for this manager.
func (m *Manager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// Snapshot returns copies of the current state.
func (m *Manager) Snapshot() (core.UserSettings, []core.Expense) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings, append([]core.Expense(nil), m.expenses...)
}

// Overview recomputes the dashboard aggregates for the given date.
func (m *Manager) Overview(ref core.Date) (core.Overview, error) {
	settings, expenses := m.Snapshot()
	return core.BuildOverview(expenses, settings, ref)
}

// AddExpense validates, assigns identity, prepends to local state, and
// queues the durable write.
func (m *Manager) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = uuid.NewString()

	m.mu.Lock()
	m.expenses = append([]core.Expense{e}, m.expenses...)
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "Expense added",
		log.FieldExpenseID, e.ID,
		log.FieldCategory, e.Category,
		log.FieldAmount, e.Amount.Cents)

	m.persistExpense(e)
	return e, nil
}

// UpdateSettings replaces the settings record wholesale.
func (m *Manager) UpdateSettings(ctx context.Context, s core.UserSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.settings = s
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "Settings updated")
	m.persistSettings(s)
	return nil
}

// EditBudget replaces the monthly budget limit.
func (m *Manager) EditBudget(ctx context.Context, limit core.Money) error {
	return m.edit(ctx, func(s *core.UserSettings) {
		s.BudgetLimit = limit
	})
}

// EditSavingsGoal replaces the savings goal.
func (m *Manager) EditSavingsGoal(ctx context.Context, goal core.Money) error {
	return m.edit(ctx, func(s *core.UserSettings) {
		s.SavingsGoal = goal
	})
}

// AddToSavings moves an amount into the savings pot. The amount must be
// positive; the pot only grows through this path.
func (m *Manager) AddToSavings(ctx context.Context, amount core.Money) error {
	if amount.Cents <= 0 {
		return core.ErrInvalidAmount
	}
	return m.edit(ctx, func(s *core.UserSettings) {
		s.CurrentSavings = s.CurrentSavings.Add(amount)
	})
}

// ToggleLanguage flips between the two supported languages.
func (m *Manager) ToggleLanguage(ctx context.Context) error {
	return m.edit(ctx, func(s *core.UserSettings) {
		if s.Language == core.English {
			s.Language = core.French
		} else {
			s.Language = core.English
		}
	})
}

// CompleteOnboarding records the initial profile and marks onboarding done.
func (m *Manager) CompleteOnboarding(ctx context.Context, name string, currency core.Currency, style core.IncomeStyle, budget, goal core.Money) error {
	return m.edit(ctx, func(s *core.UserSettings) {
		s.IsOnboarded = true
		s.Name = name
		s.Currency = currency
		s.IncomeStyle = style
		s.BudgetLimit = budget
		s.SavingsGoal = goal
	})
}

// edit applies a mutation to a copy of the settings, validates the result,
// and only then swaps it in and schedules the write.
func (m *Manager) edit(ctx context.Context, mutate func(*core.UserSettings)) error {
	m.mu.Lock()
	next := m.settings
	mutate(&next)
	if err := next.Validate(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.settings = next
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "Settings updated")
	m.persistSettings(next)
	return nil
}

// Reset drops all local state. Called on sign-out.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.settings = core.DefaultSettings()
	m.expenses = nil
	m.loaded = false
	m.mu.Unlock()
}

// persistExpense writes in the background. Queue first when available so
// a dead store gets retried by the worker; without a broker the write is
// fire-and-forget against the store and failure is logged only.
func (m *Manager) persistExpense(e core.Expense) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if m.queue != nil {
			err := m.queue.PublishWrite(ctx, amqp.NewExpenseWriteMessage(m.userID, e))
			if err == nil {
				return
			}
			m.logger.WarnContext(ctx, "Queue publish failed, writing directly",
				log.FieldExpenseID, e.ID, log.FieldError, err)
		}

		if err := m.store.PutExpense(ctx, m.userID, e); err != nil {
			m.logger.ErrorContext(ctx, "Background expense write failed",
				log.FieldExpenseID, e.ID, log.FieldError, err)
		}
	}()
}

func (m *Manager) persistSettings(s core.UserSettings) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if m.queue != nil {
			err := m.queue.PublishWrite(ctx, amqp.NewSettingsWriteMessage(m.userID, s))
			if err == nil {
				return
			}
			m.logger.WarnContext(ctx, "Queue publish failed, writing directly", log.FieldError, err)
		}

		if err := m.store.PutSettings(ctx, m.userID, s); err != nil {
			m.logger.ErrorContext(ctx, "Background settings write failed", log.FieldError, err)
		}
	}()
}
