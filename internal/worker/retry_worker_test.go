package worker

import (
	"context"
	"testing"

	"pennywise/internal/amqp"
	"pennywise/internal/core"
	"pennywise/internal/storage/memory"
)

func TestHandleExpenseWrite(t *testing.T) {
	store := memory.New()
	w := NewRetryWorker(store)
	ctx := context.Background()

	expense := core.Expense{
		ID:       "e1",
		Amount:   core.Money{Cents: 25_00},
		Category: core.Food,
		Date:     core.NewDate(2024, 3, 10),
		Merchant: "Deli",
	}
	msg := amqp.NewExpenseWriteMessage("u1", expense)

	if err := w.HandleWriteMessage(ctx, msg); err != nil {
		t.Fatalf("handle expense write: %v", err)
	}

	got, err := store.GetExpenses(ctx, "u1")
	if err != nil {
		t.Fatalf("get expenses: %v", err)
	}
	if len(got) != 1 || got[0].ID != "e1" || got[0].Amount.Cents != 25_00 {
		t.Fatalf("unexpected stored expenses: %+v", got)
	}
}

func TestHandleExpenseWriteIsIdempotent(t *testing.T) {
	store := memory.New()
	w := NewRetryWorker(store)
	ctx := context.Background()

	msg := amqp.NewExpenseWriteMessage("u1", core.Expense{
		ID:       "e1",
		Amount:   core.Money{Cents: 10_00},
		Category: core.Transport,
		Date:     core.NewDate(2024, 3, 10),
	})

	if err := w.HandleWriteMessage(ctx, msg); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := w.HandleWriteMessage(ctx, msg); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	got, _ := store.GetExpenses(ctx, "u1")
	if len(got) != 1 {
		t.Fatalf("expected 1 expense after redelivery, got %d", len(got))
	}
}

func TestHandleSettingsWrite(t *testing.T) {
	store := memory.New()
	w := NewRetryWorker(store)
	ctx := context.Background()

	settings := core.DefaultSettings()
	settings.Name = "Alice"
	settings.BudgetLimit = core.Money{Cents: 2000_00}
	msg := amqp.NewSettingsWriteMessage("u1", settings)

	if err := w.HandleWriteMessage(ctx, msg); err != nil {
		t.Fatalf("handle settings write: %v", err)
	}

	got, err := store.GetSettings(ctx, "u1")
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got != settings {
		t.Fatalf("settings mismatch: got %+v want %+v", got, settings)
	}
}

func TestHandleUnknownKind(t *testing.T) {
	w := NewRetryWorker(memory.New())
	msg := &amqp.WriteMessage{Kind: "bogus", UserID: "u1"}

	if err := w.HandleWriteMessage(context.Background(), msg); err == nil {
		t.Fatal("expected error for unknown write kind")
	}
}
