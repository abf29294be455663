// Package worker applies queued durable writes to the backend store.
// It runs out of process from the HTTP server so a slow or down store
// never stalls the interactive path.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"pennywise/internal/amqp"
	"pennywise/internal/backend"
)

// RetryWorker consumes the durable-write queue and applies each message
// to the store. The broker redelivers on failure, so Apply only has to
// be idempotent for expense inserts that already landed.
type RetryWorker struct {
	store backend.Store
}

func NewRetryWorker(store backend.Store) *RetryWorker {
	return &RetryWorker{store: store}
}

// HandleWriteMessage applies one queued write. An error return makes the
// consumer nack with requeue.
func (w *RetryWorker) HandleWriteMessage(ctx context.Context, msg *amqp.WriteMessage) error {
	switch msg.Kind {
	case amqp.WriteExpense:
		return w.applyExpense(ctx, msg)
	case amqp.WriteSettings:
		return w.applySettings(ctx, msg)
	default:
		return fmt.Errorf("unknown write kind: %s", msg.Kind)
	}
}

func (w *RetryWorker) applyExpense(ctx context.Context, msg *amqp.WriteMessage) error {
	expense, err := msg.ExpenseRecord()
	if err != nil {
		return fmt.Errorf("decode expense write: %w", err)
	}

	existing, err := w.store.GetExpenses(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("check existing expenses: %w", err)
	}
	for _, e := range existing {
		if e.ID == expense.ID {
			slog.InfoContext(ctx, "Expense already stored, skipping",
				"expense_id", expense.ID,
				"user_id", msg.UserID)
			return nil
		}
	}

	if err := w.store.PutExpense(ctx, msg.UserID, expense); err != nil {
		return fmt.Errorf("put expense: %w", err)
	}

	slog.InfoContext(ctx, "Applied expense write",
		"expense_id", expense.ID,
		"user_id", msg.UserID,
		"amount_cents", expense.Amount.Cents)

	return nil
}

func (w *RetryWorker) applySettings(ctx context.Context, msg *amqp.WriteMessage) error {
	settings, err := msg.SettingsRecord()
	if err != nil {
		return fmt.Errorf("decode settings write: %w", err)
	}

	if err := w.store.PutSettings(ctx, msg.UserID, settings); err != nil {
		return fmt.Errorf("put settings: %w", err)
	}

	slog.InfoContext(ctx, "Applied settings write", "user_id", msg.UserID)

	return nil
}
