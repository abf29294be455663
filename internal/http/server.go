// Package http is the JSON API surface. It owns routing, middleware, and
// the per-user session managers; all domain behavior lives below it.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"pennywise/internal/auth"
	"pennywise/internal/backend"
	"pennywise/internal/log"
	"pennywise/internal/scan"
	"pennywise/internal/session"
)

// Scanner is the receipt extraction collaborator.
type Scanner interface {
	Extract(ctx context.Context, image []byte, mimeType string) (scan.Draft, error)
}

type Server struct {
	http.Server

	authService *auth.Service
	store       backend.Store
	queue       session.WriteQueue
	scanner     Scanner
	logger      *log.Logger
	rateLimiter *rateLimiter

	managersMu sync.Mutex
	managers   map[string]*session.Manager

	unsubscribe  func()
	shutdownOnce sync.Once
}

func NewServer(addr string, authService *auth.Service, store backend.Store, queue session.WriteQueue, scanner Scanner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		authService: authService,
		store:       store,
		queue:       queue,
		scanner:     scanner,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(),
		managers:    make(map[string]*session.Manager),
	}

	// Observe auth transitions for the whole process lifetime.
	changes, unsubscribe := authService.Subscribe()
	s.unsubscribe = unsubscribe
	go s.watchAuthChanges(changes)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/auth/signup", s.withMiddleware(s.handleSignUp))
	mux.HandleFunc("/auth/signin", s.withMiddleware(s.handleSignIn))
	mux.HandleFunc("/auth/signout", s.withMiddleware(s.requireAuth(s.handleSignOut)))
	mux.HandleFunc("/auth/oauth", s.withMiddleware(s.handleBeginOAuth))

	mux.HandleFunc("/settings", s.withMiddleware(s.requireAuth(s.handleSettings)))
	mux.HandleFunc("/expenses", s.withMiddleware(s.requireAuth(s.handleExpenses)))
	mux.HandleFunc("/dashboard", s.withMiddleware(s.requireAuth(s.handleDashboard)))
	mux.HandleFunc("/scan", s.withMiddleware(s.requireAuth(s.handleScan)))

	return s
}

// manager returns the session manager for a user, loading state on first
// access.
func (s *Server) manager(ctx context.Context, userID string) (*session.Manager, error) {
	s.managersMu.Lock()
	m, ok := s.managers[userID]
	if !ok {
		m = session.NewManager(userID, s.store, s.queue, s.logger)
		s.managers[userID] = m
	}
	s.managersMu.Unlock()

	if !m.Loaded() {
		if err := m.Load(ctx); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// dropManager discards a user's local state on sign-out.
func (s *Server) dropManager(userID string) {
	s.managersMu.Lock()
	if m, ok := s.managers[userID]; ok {
		m.Reset()
		delete(s.managers, userID)
	}
	s.managersMu.Unlock()
}

func (s *Server) watchAuthChanges(changes <-chan auth.StateChange) {
	for change := range changes {
		if change.User != nil {
			s.logger.Info("Auth state changed", log.FieldUserID, change.User.ID, "signed_in", true)
		} else {
			s.logger.Info("Auth state changed", "signed_in", false)
		}
	}
}

// Shutdown stops the middleware cleanup goroutines and drains the HTTP
// server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
