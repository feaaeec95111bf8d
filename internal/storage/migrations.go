package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/widgetflow/internal/model"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Widgets table",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS widgets (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					type TEXT NOT NULL,
					title TEXT NOT NULL,
					payload TEXT NOT NULL,
					parent_id TEXT,
					position INTEGER NOT NULL DEFAULT 0,
					active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					deactivated_at DATETIME
				)`,
				`CREATE INDEX IF NOT EXISTS idx_widgets_owner_active ON widgets(owner_id, active)`,
				`CREATE INDEX IF NOT EXISTS idx_widgets_parent ON widgets(parent_id)`,
			}
			return execAll(tx, queries)
		},
	},
	{
		Version:     2,
		Description: "User tiers",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS user_tiers (
					owner_id TEXT PRIMARY KEY,
					tier TEXT NOT NULL,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Normalize legacy widget type names",
		Up: func(tx *sql.Tx) error {
			rows, err := tx.Query(`SELECT DISTINCT type FROM widgets`)
			if err != nil {
				return fmt.Errorf("failed to list widget types: %w", err)
			}
			var types []string
			for rows.Next() {
				var t string
				if err := rows.Scan(&t); err != nil {
					_ = rows.Close()
					return fmt.Errorf("failed to scan widget type: %w", err)
				}
				types = append(types, t)
			}
			_ = rows.Close()
			if err := rows.Err(); err != nil {
				return fmt.Errorf("failed to iterate widget types: %w", err)
			}

			for _, t := range types {
				canonical, err := model.ParseWidgetType(t)
				if err != nil {
					slog.Warn("Leaving unknown widget type in place", "type", t)
					continue
				}
				if string(canonical) == t {
					continue
				}
				if _, err := tx.Exec(`UPDATE widgets SET type = ? WHERE type = ?`, string(canonical), t); err != nil {
					return fmt.Errorf("failed to normalize widget type %q: %w", t, err)
				}
			}
			return nil
		},
	},
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// SchemaVersion returns the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate runs all pending migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
