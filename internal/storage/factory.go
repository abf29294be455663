package storage

import (
	"fmt"
	"log/slog"

	"pennywise/internal/auth"
	"pennywise/internal/backend"
	"pennywise/internal/storage/memory"
)

// Result bundles the two ports a backend provides plus its cleanup hook.
// Both ports are always served by the same underlying store so finance
// records and auth records share one lifecycle.
type Result struct {
	Store   backend.Store
	Auth    auth.Repository
	Cleanup func() error
}

// Factory builds the configured store implementation.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create builds the store for the given backend type.
func (f *Factory) Create(backendType backend.Type, sqliteDBPath string) (*Result, error) {
	switch backendType {
	case backend.SQLiteBackend:
		return f.createSQLite(sqliteDBPath)
	case backend.MemoryBackend:
		return f.createMemory()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", backendType)
	}
}

func (f *Factory) createSQLite(dbPath string) (*Result, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite backend requires a database path")
	}

	repo, err := NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", dbPath)

	return &Result{
		Store:   repo,
		Auth:    repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *Factory) createMemory() (*Result, error) {
	store := memory.New()

	f.logger.Info("Initialized memory backend")

	return &Result{
		Store:   store,
		Auth:    store,
		Cleanup: nil,
	}, nil
}
