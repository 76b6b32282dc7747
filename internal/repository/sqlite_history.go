package repository

import (
	"context"
	"fmt"

	"github.com/Kitrop/workflow/internal/db"
	"github.com/Kitrop/workflow/internal/domain"
)

// SQLiteHistoryRepo appends and reads task history. The table is guarded by
// triggers that reject UPDATE and DELETE.
type SQLiteHistoryRepo struct {
	db db.DBTX
}

func NewSQLiteHistoryRepo(conn db.DBTX) *SQLiteHistoryRepo {
	return &SQLiteHistoryRepo{db: conn}
}

func (r *SQLiteHistoryRepo) Append(ctx context.Context, entries []domain.TaskHistoryEntry) error {
	for _, e := range entries {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO task_history (task_id, field, old_value, new_value, changed_by, changed_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			e.TaskID, e.Field, e.OldValue, e.NewValue, e.ChangedBy, timestamp(e.ChangedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting history entry for %s: %w", e.Field, err)
		}
	}
	return nil
}

func (r *SQLiteHistoryRepo) ListByTask(ctx context.Context, taskID string) ([]domain.TaskHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, task_id, field, old_value, new_value, changed_by, changed_at
		FROM task_history WHERE task_id = ? ORDER BY changed_at DESC, id DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing task history: %w", err)
	}
	defer rows.Close()

	var out []domain.TaskHistoryEntry
	for rows.Next() {
		var e domain.TaskHistoryEntry
		var changedAt string
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Field, &e.OldValue, &e.NewValue, &e.ChangedBy, &changedAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		if e.ChangedAt, err = parseTimestamp("changed_at", changedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task history: %w", err)
	}
	return out, nil
}
