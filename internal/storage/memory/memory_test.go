package memory

import (
	"context"
	"errors"
	"testing"

	"pennywise/internal/auth"
	"pennywise/internal/backend"
	"pennywise/internal/core"
)

func TestSettingsRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.GetSettings(ctx, "u1"); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	want := core.DefaultSettings()
	want.Name = "Alice"
	want.IsOnboarded = true
	if err := s.PutSettings(ctx, "u1", want); err != nil {
		t.Fatalf("put settings: %v", err)
	}

	got, err := s.GetSettings(ctx, "u1")
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got != want {
		t.Fatalf("settings mismatch: got %+v want %+v", got, want)
	}
}

func TestExpensesSortedByDateDescending(t *testing.T) {
	s := New()
	ctx := context.Background()

	dates := []core.Date{
		core.NewDate(2024, 3, 1),
		core.NewDate(2024, 3, 15),
		core.NewDate(2024, 3, 8),
	}
	for i, d := range dates {
		e := core.Expense{
			ID:       string(rune('a' + i)),
			Amount:   core.Money{Cents: 100},
			Category: core.Food,
			Date:     d,
		}
		if err := s.PutExpense(ctx, "u1", e); err != nil {
			t.Fatalf("put expense: %v", err)
		}
	}

	got, err := s.GetExpenses(ctx, "u1")
	if err != nil {
		t.Fatalf("get expenses: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 expenses, got %d", len(got))
	}
	if got[0].Date.String() != "2024-03-15" || got[2].Date.String() != "2024-03-01" {
		t.Fatalf("wrong order: %v %v %v", got[0].Date, got[1].Date, got[2].Date)
	}
}

func TestPutExpenseValidates(t *testing.T) {
	s := New()
	e := core.Expense{ID: "x", Amount: core.Money{Cents: 0}, Category: core.Food, Date: core.NewDate(2024, 3, 1)}
	if err := s.PutExpense(context.Background(), "u1", e); err == nil {
		t.Fatal("expected validation error for zero amount")
	}
}

func TestUserAndSessionLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "bob@example.com", "hash", "Bob")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := s.CreateUser(ctx, "bob@example.com", "hash2", "Bob2"); !errors.Is(err, auth.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	sess := auth.Session{Token: "tok", UserID: u.ID}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	gotSess, gotUser, err := s.SessionByToken(ctx, "tok")
	if err != nil {
		t.Fatalf("session by token: %v", err)
	}
	if gotSess.UserID != u.ID || gotUser.Email != "bob@example.com" {
		t.Fatalf("session mismatch: %+v %+v", gotSess, gotUser)
	}

	if err := s.DeleteSession(ctx, "tok"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, _, err := s.SessionByToken(ctx, "tok"); !errors.Is(err, auth.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession after delete, got %v", err)
	}
}
