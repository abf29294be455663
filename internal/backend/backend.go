// Package backend defines the ports to the durable persistence collaborator.
// The in-memory session state is a write-through cache over a Store; the
// Store is the owner of record.
package backend

import (
	"context"
	"errors"

	"pennywise/internal/core"
)

// ErrNotFound is returned by reads for records that do not exist. Callers
// treat it as "no data" and fall back to defaults.
var ErrNotFound = errors.New("not found")

// Store is the persistence collaborator, keyed by user identifier.
type Store interface {
	// GetSettings returns the stored settings record, or ErrNotFound.
	GetSettings(ctx context.Context, userID string) (core.UserSettings, error)

	// PutSettings upserts the full settings record. No partial patches.
	PutSettings(ctx context.Context, userID string, s core.UserSettings) error

	// GetExpenses returns all expenses for the user, sorted by date descending.
	GetExpenses(ctx context.Context, userID string) ([]core.Expense, error)

	// PutExpense inserts a new expense. There is no update or delete path.
	PutExpense(ctx context.Context, userID string, e core.Expense) error
}

// Type selects a Store implementation.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	return t == SQLiteBackend || t == MemoryBackend
}
