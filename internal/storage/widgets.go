package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/widgetflow/internal/common"
	"github.com/Veraticus/widgetflow/internal/model"
)

const widgetColumns = `id, owner_id, type, title, payload, parent_id, position, active, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWidget(row rowScanner) (model.Widget, error) {
	var (
		w       model.Widget
		typ     string
		payload string
		parent  sql.NullString
	)
	if err := row.Scan(&w.ID, &w.OwnerID, &typ, &w.Title, &payload, &parent, &w.Position, &w.Active, &w.CreatedAt); err != nil {
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

	if parent.Valid {
		p := parent.String
		w.ParentID = &p
	}
	return w, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// CountActiveWidgets returns the number of active widgets the owner has.
func (s *SQLiteStorage) CountActiveWidgets(ctx context.Context, ownerID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return 0, err
	}
	return countActiveWidgets(ctx, s.db, ownerID)
}

func countActiveWidgets(ctx context.Context, q queryable, ownerID string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM widgets WHERE owner_id = ? AND active = 1
	`, ownerID).Scan(&count)
	if err != nil {
		return 0, common.StoreError("count active widgets", err)
	}
	return count, nil
}

func nextPosition(ctx context.Context, q queryable, ownerID string) (int, error) {
	var next int
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position), -1) + 1 FROM widgets WHERE owner_id = ? AND active = 1
	`, ownerID).Scan(&next)
	if err != nil {
		return 0, common.StoreError("next widget position", err)
	}
	return next, nil
}

// widgetOwner reports the owner of an existing widget id.
func widgetOwner(ctx context.Context, q queryable, id string) (string, bool, error) {
	var owner string
	err := q.QueryRowContext(ctx, `SELECT owner_id FROM widgets WHERE id = ?`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, common.StoreError("look up widget", err)
	}
	return owner, true, nil
}

// InsertWidgets stores a batch in one immediate transaction. Widgets whose
// IDs already exist are treated as replays of an earlier call and skipped.
// New widgets are refused with common.ErrQuotaExceeded when the owner
// already holds limit active widgets. Inserted widgets are always active.
func (s *SQLiteStorage) InsertWidgets(ctx context.Context, widgets []model.Widget, limit int) ([]model.Widget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateWidgets(widgets); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	ownerID := widgets[0].OwnerID
	var stored []model.Widget

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		fresh := make([]model.Widget, 0, len(widgets))
		for _, w := range widgets {
			owner, found, err := widgetOwner(ctx, tx, w.ID)
			if err != nil {
				return err
			}
			if !found {
				fresh = append(fresh, w)
				continue
			}
			if owner != ownerID {
				return fmt.Errorf("%w: %s", ErrForeignReplay, w.ID)
			}
		}

		if len(fresh) > 0 {
			if err := s.insertFreshTx(ctx, tx, ownerID, fresh, limit); err != nil {
				return err
			}
		}

		stored = make([]model.Widget, 0, len(widgets))
		for _, w := range widgets {
			got, err := getWidgetTx(ctx, tx, w.ID)
			if err != nil {
				return err
			}
			stored = append(stored, *got)
		}
		return nil
	})
	if err != nil {
		if isCallerError(err) {
			return nil, err
		}
		return nil, common.StoreError("insert widgets", err)
	}

	return stored, nil
}

func (s *SQLiteStorage) insertFreshTx(ctx context.Context, tx *sql.Tx, ownerID string, fresh []model.Widget, limit int) error {
	count, err := countActiveWidgets(ctx, tx, ownerID)
	if err != nil {
		return err
	}
	if limit != model.Unlimited && count >= limit {
		return fmt.Errorf("%w: owner %s has %d of %d active widgets", common.ErrQuotaExceeded, ownerID, count, limit)
	}

	position, err := nextPosition(ctx, tx, ownerID)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO widgets (`+widgetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)
	`)
	if err != nil {
		return common.StoreError("prepare widget insert", err)
	}
	defer func() { _ = stmt.Close() }()

	now := s.now()
	for i, w := range fresh {
		payload, err := model.MarshalPayload(w.Payload)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidWidget, w.ID, err)
		}
		canonical, _ := model.ParseWidgetType(string(w.Type))

		if _, err := stmt.ExecContext(ctx,
			w.ID, ownerID, string(canonical), w.Title, string(payload),
			nullableString(w.ParentID), position+i, now,
		); err != nil {
			return common.StoreError("insert widget "+w.ID, err)
		}
	}
	return nil
}

func isCallerError(err error) bool {
	return errors.Is(err, common.ErrQuotaExceeded) ||
		errors.Is(err, ErrInvalidWidget) ||
		errors.Is(err, ErrForeignReplay)
}

// GetWidget retrieves a widget by id, active or not.
func (s *SQLiteStorage) GetWidget(ctx context.Context, id string) (*model.Widget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getWidgetTx(ctx, s.db, id)
}

func getWidgetTx(ctx context.Context, q queryable, id string) (*model.Widget, error) {
	row := q.QueryRowContext(ctx, `SELECT `+widgetColumns+` FROM widgets WHERE id = ?`, id)
	w, err := scanWidget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: widget %s", common.ErrNotFound, id)
	}
	if err != nil {
		if errors.Is(err, common.ErrDatabaseCorrupted) {
			return nil, err
		}
		return nil, common.StoreError("get widget", err)
	}
	return &w, nil
}

// GetActiveWidgets returns the owner's active widgets in display order.
func (s *SQLiteStorage) GetActiveWidgets(ctx context.Context, ownerID string) ([]model.Widget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+widgetColumns+`
		FROM widgets
		WHERE owner_id = ? AND active = 1
		ORDER BY position, created_at, id
	`, ownerID)
	if err != nil {
		return nil, common.StoreError("query active widgets", err)
	}
	defer func() { _ = rows.Close() }()

	widgets := []model.Widget{}
	for rows.Next() {
		w, err := scanWidget(rows)
		if err != nil {
			if errors.Is(err, common.ErrDatabaseCorrupted) {
				return nil, err
			}
			return nil, common.StoreError("scan widget", err)
		}
		widgets = append(widgets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StoreError("iterate widgets", err)
	}

	return widgets, nil
}

// DeactivateWidget soft-deletes a widget. Deactivating an inactive widget is a no-op.
func (s *SQLiteStorage) DeactivateWidget(ctx context.Context, widgetID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(widgetID, "widgetID"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE widgets SET active = 0, deactivated_at = ?
		WHERE id = ? AND active = 1
	`, s.now(), widgetID)
	if err != nil {
		return common.StoreError("deactivate widget", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return common.StoreError("deactivate widget", err)
	}
	if affected > 0 {
		return nil
	}

	_, found, err := widgetOwner(ctx, s.db, widgetID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: widget %s", common.ErrNotFound, widgetID)
	}
	return nil
}
