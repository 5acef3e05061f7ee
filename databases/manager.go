package databases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sqlens/sqlens/registry"
)

// openFunc opens a handle for a connection target. Swappable in tests.
type openFunc func(ctx context.Context, target string) (Database, error)

// Manager resolves logical database names and owns the lazy handle cache:
// one long-lived handle per database, opened on first use under a mutex and
// shared by every later call.
type Manager struct {
	reg    *registry.Registry
	logger *slog.Logger

	mu      sync.Mutex
	handles map[string]Database
	open    openFunc
}

// NewManager builds a manager over an immutable registry. No connections are
// opened until a database is first used.
func NewManager(reg *registry.Registry, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		reg:     reg,
		logger:  logger,
		handles: make(map[string]Database),
		open:    NewConnector,
	}
}

// Registry returns the registry this manager resolves against.
func (m *Manager) Registry() *registry.Registry {
	return m.reg
}

// Resolve maps an optional requested name to a registered logical name.
// With exactly one registered database the request is ignored entirely, so
// single-database deployments never need to pass one. Otherwise a missing
// name fails with AmbiguousDatabaseError and an unknown one with
// UnknownDatabaseError, both carrying the sorted name list.
func (m *Manager) Resolve(requested string) (string, error) {
	names := m.reg.Names()
	if len(names) == 1 {
		return names[0], nil
	}
	name := registry.Normalize(requested)
	if name == "" {
		return "", &AmbiguousDatabaseError{Available: names}
	}
	if _, ok := m.reg.Get(name); !ok {
		return "", &UnknownDatabaseError{Name: name, Available: names}
	}
	return name, nil
}

// Get resolves the requested name and returns the cached handle for it,
// opening it first if this is the database's first use. A failed open is not
// cached, so a later call retries.
func (m *Manager) Get(ctx context.Context, requested string) (string, Database, error) {
	name, err := m.Resolve(requested)
	if err != nil {
		return "", nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if db, ok := m.handles[name]; ok {
		return name, db, nil
	}

	entry, _ := m.reg.Get(name)
	db, err := m.open(ctx, entry.URL)
	if err != nil {
		return "", nil, &ConnectionError{Database: name, Err: err}
	}
	m.logger.Info("opened database connection", "database", name, "engine", db.Engine())
	m.handles[name] = db
	return name, db, nil
}

// Close shuts down every cached handle. Meant for process teardown.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for name, db := range m.handles {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing %s: %w", name, err)
		}
		delete(m.handles, name)
	}
	return firstErr
}
