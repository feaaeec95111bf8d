package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/widgetflow/internal/service"
)

// Store is a widget store that also keeps tier assignments.
type Store interface {
	service.WidgetStore
	service.TierStore
}

// Supported backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Open connects to the configured backend. For sqlite, dsn is a file path;
// for postgres, a connection URL.
func Open(ctx context.Context, backend, dsn string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendSQLite, "sqlite3", "":
		store, err := NewSQLiteStorage(dsn)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendPostgres, "postgresql", "pg":
		store, err := NewPostgresStorage(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
