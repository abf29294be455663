// Package storage is the SQLite backend. One database holds both the
// finance records and the auth tables, so a single repository serves as
// the backend.Store and the auth.Repository.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"pennywise/internal/auth"
	"pennywise/internal/backend"
	"pennywise/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetSettings implements backend.Store.
func (r *SQLiteRepository) GetSettings(ctx context.Context, userID string) (core.UserSettings, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT is_onboarded, name, currency, income_style,
		       budget_limit, savings_goal, current_savings, language
		FROM user_settings WHERE user_id = ?`, userID)

	var (
		s           core.UserSettings
		isOnboarded int64
	)
	err := row.Scan(&isOnboarded, &s.Name, &s.Currency, &s.IncomeStyle,
		&s.BudgetLimit.Cents, &s.SavingsGoal.Cents, &s.CurrentSavings.Cents, &s.Language)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserSettings{}, backend.ErrNotFound
	}
	if err != nil {
		return core.UserSettings{}, fmt.Errorf("get settings: %w", err)
	}
	s.IsOnboarded = isOnboarded != 0

	return s, nil
}

// PutSettings implements backend.Store. The whole record is replaced.
func (r *SQLiteRepository) PutSettings(ctx context.Context, userID string, s core.UserSettings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_settings
			(user_id, is_onboarded, name, currency, income_style,
			 budget_limit, savings_goal, current_savings, language, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			is_onboarded    = excluded.is_onboarded,
			name            = excluded.name,
			currency        = excluded.currency,
			income_style    = excluded.income_style,
			budget_limit    = excluded.budget_limit,
			savings_goal    = excluded.savings_goal,
			current_savings = excluded.current_savings,
			language        = excluded.language,
			updated_at      = CURRENT_TIMESTAMP`,
		userID, boolToInt(s.IsOnboarded), s.Name, string(s.Currency), string(s.IncomeStyle),
		s.BudgetLimit.Cents, s.SavingsGoal.Cents, s.CurrentSavings.Cents, string(s.Language))
	if err != nil {
		return fmt.Errorf("put settings: %w", err)
	}
	return nil
}

// GetExpenses implements backend.Store. Rows come back newest first so the
// session layer can hand them straight to the aggregation pass.
func (r *SQLiteRepository) GetExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, category, date, merchant, note, is_scanned
		FROM expenses WHERE user_id = ?
		ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("get expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e         core.Expense
			date      string
			isScanned int64
		)
		if err := rows.Scan(&e.ID, &e.Amount.Cents, &e.Category, &date, &e.Merchant, &e.Note, &isScanned); err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", date, err)
		}
		e.Date = d
		e.IsScanned = isScanned != 0
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	return expenses, nil
}

// PutExpense implements backend.Store. Insert only, there is no edit path.
func (r *SQLiteRepository) PutExpense(ctx context.Context, userID string, e core.Expense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, amount, category, date, merchant, note, is_scanned)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, userID, e.Amount.Cents, string(e.Category), e.Date.String(),
		e.Merchant, e.Note, boolToInt(e.IsScanned))
	if err != nil {
		return fmt.Errorf("put expense: %w", err)
	}
	return nil
}

// CreateUser implements auth.Repository.
func (r *SQLiteRepository) CreateUser(ctx context.Context, email, passwordHash, name string) (auth.User, error) {
	id := newID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash) VALUES (?, ?, ?, ?)`,
		id, email, name, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.User{}, auth.ErrEmailTaken
		}
		return auth.User{}, fmt.Errorf("create user: %w", err)
	}

	return auth.User{ID: id, Email: email, Name: name}, nil
}

// UserByEmail implements auth.Repository.
func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (auth.User, string, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash FROM users WHERE email = ?`, email)

	var (
		u    auth.User
		hash string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, "", auth.ErrBadCredentials
	}
	if err != nil {
		return auth.User{}, "", fmt.Errorf("user by email: %w", err)
	}

	return u, hash, nil
}

// CreateSession implements auth.Repository.
func (r *SQLiteRepository) CreateSession(ctx context.Context, s auth.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		s.Token, s.UserID, s.ExpiresAt.UTC(), s.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// SessionByToken implements auth.Repository.
func (r *SQLiteRepository) SessionByToken(ctx context.Context, token string) (auth.Session, auth.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT s.token, s.user_id, s.expires_at, s.created_at, u.email, u.name
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ?`, token)

	var (
		s auth.Session
		u auth.User
	)
	err := row.Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt, &u.Email, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Session{}, auth.User{}, auth.ErrInvalidSession
	}
	if err != nil {
		return auth.Session{}, auth.User{}, fmt.Errorf("session by token: %w", err)
	}
	u.ID = s.UserID

	return s, u, nil
}

// DeleteSession implements auth.Repository. Deleting an unknown token is
// not an error.
func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry. Run
// periodically by the server, not on the request path.
func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func newID() string {
	return uuid.NewString()
}
