package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/widgetflow/internal/common"
	"github.com/Veraticus/widgetflow/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage implements service.WidgetStore and service.TierStore on PostgreSQL.
type PostgresStorage struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS widgets (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		payload JSONB NOT NULL,
		parent_id TEXT,
		position INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deactivated_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_widgets_owner_active ON widgets(owner_id, active)`,
	`CREATE INDEX IF NOT EXISTS idx_widgets_parent ON widgets(parent_id)`,
	`CREATE TABLE IF NOT EXISTS user_tiers (
		owner_id TEXT PRIMARY KEY,
		tier TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// NewPostgresStorage connects to PostgreSQL, retrying the initial ping.
func NewPostgresStorage(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(databaseURL, "databaseURL"); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	err = common.WithRetry(ctx, func() error {
		return pool.Ping(ctx)
	}, common.RetryOptions{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStorage{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close releases the connection pool.
func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// Migrate creates the schema if it does not exist.
func (p *PostgresStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for _, stmt := range postgresSchema {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}
	return nil
}

// CountActiveWidgets returns the number of active widgets the owner has.
func (p *PostgresStorage) CountActiveWidgets(ctx context.Context, ownerID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return 0, err
	}

	var count int
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM widgets WHERE owner_id = $1 AND active`, ownerID).Scan(&count)
	if err != nil {
		return 0, common.StoreError("count active widgets", err)
	}
	return count, nil
}

// InsertWidgets stores a batch in one transaction. A transaction-scoped
// advisory lock on the owner serializes concurrent batches for that owner.
func (p *PostgresStorage) InsertWidgets(ctx context.Context, widgets []model.Widget, limit int) ([]model.Widget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateWidgets(widgets); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	stored, err := p.insertWidgets(ctx, widgets, limit)
	if err != nil {
		if isCallerError(err) {
			return nil, err
		}
		return nil, common.StoreError("insert widgets", err)
	}
	return stored, nil
}

func (p *PostgresStorage) insertWidgets(ctx context.Context, widgets []model.Widget, limit int) ([]model.Widget, error) {
	ownerID := widgets[0].OwnerID

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ownerID); err != nil {
		return nil, fmt.Errorf("lock owner: %w", err)
	}

	ids := make([]string, 0, len(widgets))
	for _, w := range widgets {
		ids = append(ids, w.ID)
	}

	rows, err := tx.Query(ctx, `SELECT id, owner_id FROM widgets WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("look up widget ids: %w", err)
	}
	existing := make(map[string]string)
	for rows.Next() {
		var id, owner string
		if err := rows.Scan(&id, &owner); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan widget id: %w", err)
		}
		existing[id] = owner
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate widget ids: %w", err)
	}

	fresh := make([]model.Widget, 0, len(widgets))
	for _, w := range widgets {
		owner, ok := existing[w.ID]
		if !ok {
			fresh = append(fresh, w)
			continue
		}
		if owner != ownerID {
			return nil, fmt.Errorf("%w: %s", ErrForeignReplay, w.ID)
		}
	}

	if len(fresh) > 0 {
		if err := p.insertFreshTx(ctx, tx, ownerID, fresh, limit); err != nil {
			return nil, err
		}
	}

	stored, err := p.widgetsByID(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return stored, nil
}

func (p *PostgresStorage) insertFreshTx(ctx context.Context, tx pgx.Tx, ownerID string, fresh []model.Widget, limit int) error {
	var count, position int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(MAX(position), -1) + 1
		FROM widgets WHERE owner_id = $1 AND active
	`, ownerID).Scan(&count, &position)
	if err != nil {
		return fmt.Errorf("count active widgets: %w", err)
	}
	if limit != model.Unlimited && count >= limit {
		return fmt.Errorf("%w: owner %s has %d of %d active widgets", common.ErrQuotaExceeded, ownerID, count, limit)
	}

	now := p.now()
	batch := &pgx.Batch{}
	for i, w := range fresh {
		payload, err := model.MarshalPayload(w.Payload)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidWidget, w.ID, err)
		}
		canonical, _ := model.ParseWidgetType(string(w.Type))
		batch.Queue(`
			INSERT INTO widgets (id, owner_id, type, title, payload, parent_id, position, active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8)
			ON CONFLICT (id) DO NOTHING
		`, w.ID, ownerID, string(canonical), w.Title, string(payload), w.ParentID, position+i, now)
	}

	results := tx.SendBatch(ctx, batch)
	for range fresh {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert widget: %w", err)
		}
	}
	return results.Close()
}

func (p *PostgresStorage) widgetsByID(ctx context.Context, tx pgx.Tx, ids []string) ([]model.Widget, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, owner_id, type, title, payload::text, parent_id, position, active, created_at
		FROM widgets WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("load widgets: %w", err)
	}
	loaded, err := collectWidgets(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Widget, len(loaded))
	for _, w := range loaded {
		byID[w.ID] = w
	}
	ordered := make([]model.Widget, 0, len(ids))
	for _, id := range ids {
		w, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: widget %s", common.ErrNotFound, id)
		}
		ordered = append(ordered, w)
	}
	return ordered, nil
}

func collectWidgets(rows pgx.Rows) ([]model.Widget, error) {
	defer rows.Close()

	widgets := []model.Widget{}
	for rows.Next() {
		w, err := scanPGWidget(rows)
		if err != nil {
			return nil, err
		}
		widgets = append(widgets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate widgets: %w", err)
	}
	return widgets, nil
}

func scanPGWidget(row pgx.Row) (model.Widget, error) {
	var (
		w       model.Widget
		typ     string
		payload string
	)
	if err := row.Scan(&w.ID, &w.OwnerID, &typ, &w.Title, &payload, &w.ParentID, &w.Position, &w.Active, &w.CreatedAt); err != nil {
		return model.Widget{}, err
	}

	t, err := model.ParseWidgetType(typ)
	if err != nil {
		return model.Widget{}, fmt.Errorf("%w: widget %s: %v", common.ErrDatabaseCorrupted, w.ID, err)
	}
	w.Type = t

	fields, err := model.UnmarshalPayload(t, []byte(payload))
	if err != nil {
		return model.Widget{}, fmt.Errorf("%w: widget %s: %v", common.ErrDatabaseCorrupted, w.ID, err)
	}
	w.Payload = fields
	w.CreatedAt = w.CreatedAt.UTC()
	return w, nil
}

// GetActiveWidgets returns the owner's active widgets in display order.
func (p *PostgresStorage) GetActiveWidgets(ctx context.Context, ownerID string) ([]model.Widget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, owner_id, type, title, payload::text, parent_id, position, active, created_at
		FROM widgets
		WHERE owner_id = $1 AND active
		ORDER BY position, created_at, id
	`, ownerID)
	if err != nil {
		return nil, common.StoreError("query active widgets", err)
	}

	widgets, err := collectWidgets(rows)
	if err != nil {
		if errors.Is(err, common.ErrDatabaseCorrupted) {
			return nil, err
		}
		return nil, common.StoreError("scan widgets", err)
	}
	return widgets, nil
}

// DeactivateWidget soft-deletes a widget. Deactivating an inactive widget is a no-op.
func (p *PostgresStorage) DeactivateWidget(ctx context.Context, widgetID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(widgetID, "widgetID"); err != nil {
		return err
	}

	tag, err := p.pool.Exec(ctx, `
		UPDATE widgets SET active = FALSE, deactivated_at = $1
		WHERE id = $2 AND active
	`, p.now(), widgetID)
	if err != nil {
		return common.StoreError("deactivate widget", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM widgets WHERE id = $1)`, widgetID).Scan(&exists)
	if err != nil {
		return common.StoreError("look up widget", err)
	}
	if !exists {
		return fmt.Errorf("%w: widget %s", common.ErrNotFound, widgetID)
	}
	return nil
}

// GetTier returns the stored tier for an owner, or common.ErrNotFound.
func (p *PostgresStorage) GetTier(ctx context.Context, ownerID string) (model.Tier, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return "", err
	}

	var tier string
	err := p.pool.QueryRow(ctx, `SELECT tier FROM user_tiers WHERE owner_id = $1`, ownerID).Scan(&tier)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: tier for %s", common.ErrNotFound, ownerID)
	}
	if err != nil {
		return "", common.StoreError("get tier", err)
	}
	return model.NormalizeTier(tier), nil
}

// SetTier records an owner's tier.
func (p *PostgresStorage) SetTier(ctx context.Context, ownerID string, tier model.Tier) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return err
	}
	if err := validateTier(tier); err != nil {
		return err
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO user_tiers (owner_id, tier, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id) DO UPDATE SET tier = EXCLUDED.tier, updated_at = EXCLUDED.updated_at
	`, ownerID, string(model.NormalizeTier(string(tier))), p.now())
	if err != nil {
		return common.StoreError("set tier", err)
	}
	return nil
}
