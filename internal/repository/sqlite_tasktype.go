package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Kitrop/workflow/internal/db"
	"github.com/Kitrop/workflow/internal/domain"
)

// SQLiteTaskTypeRepo reads and extends the task type dictionary.
type SQLiteTaskTypeRepo struct {
	db db.DBTX
}

func NewSQLiteTaskTypeRepo(conn db.DBTX) *SQLiteTaskTypeRepo {
	return &SQLiteTaskTypeRepo{db: conn}
}

func (r *SQLiteTaskTypeRepo) Create(ctx context.Context, tt *domain.TaskType) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO task_types (name, display_name) VALUES (?, ?)`,
		tt.Name, tt.DisplayName)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflictf("task type %q already exists", tt.Name)
		}
		return fmt.Errorf("inserting task type: %w", err)
	}
	return nil
}

func (r *SQLiteTaskTypeRepo) Get(ctx context.Context, name string) (*domain.TaskType, error) {
	var tt domain.TaskType
	err := r.db.QueryRowContext(ctx, `SELECT name, display_name FROM task_types WHERE name = ?`, name).
		Scan(&tt.Name, &tt.DisplayName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("task type %q", name)
		}
		return nil, fmt.Errorf("scanning task type: %w", err)
	}
	return &tt, nil
}

func (r *SQLiteTaskTypeRepo) List(ctx context.Context) ([]domain.TaskType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, display_name FROM task_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing task types: %w", err)
	}
	defer rows.Close()

	var out []domain.TaskType
	for rows.Next() {
		var tt domain.TaskType
		if err := rows.Scan(&tt.Name, &tt.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning task type row: %w", err)
		}
		out = append(out, tt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task types: %w", err)
	}
	return out, nil
}
