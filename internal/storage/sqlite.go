package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/widgetflow/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// tierCacheTTL bounds how long a tier read from user_tiers is reused.
const tierCacheTTL = 5 * time.Minute

// SQLiteStorage implements service.WidgetStore and service.TierStore using SQLite.
type SQLiteStorage struct {
	db         *sql.DB
	tierCache  map[string]cachedTier
	now        func() time.Time
	dbPath     string
	cacheMutex sync.RWMutex
}

type cachedTier struct {
	expires time.Time
	tier    model.Tier
}

// queryable is satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if !strings.HasPrefix(dbPath, ":memory:") {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Immediate transactions take the write lock at BEGIN, so the
	// count-then-insert in InsertWidgets cannot interleave with another writer.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't benefit from multiple connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:        db,
		dbPath:    dbPath,
		tierCache: make(map[string]cachedTier),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Path returns the database location.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// withTx runs fn inside a transaction and commits when it returns nil.
func (s *SQLiteStorage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) getCachedTier(ownerID string) (model.Tier, bool) {
	s.cacheMutex.RLock()
	defer s.cacheMutex.RUnlock()

	entry, ok := s.tierCache[ownerID]
	if !ok || s.now().After(entry.expires) {
		return "", false
	}
	return entry.tier, true
}

func (s *SQLiteStorage) cacheTier(ownerID string, tier model.Tier) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	s.tierCache[ownerID] = cachedTier{tier: tier, expires: s.now().Add(tierCacheTTL)}
}

func (s *SQLiteStorage) invalidateTier(ownerID string) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	delete(s.tierCache, ownerID)
}
