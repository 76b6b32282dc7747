package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Kitrop/workflow/internal/db"
	"github.com/Kitrop/workflow/internal/domain"
)

// SQLiteGrantRepo stores per-project access grants keyed by (user, project).
type SQLiteGrantRepo struct {
	db db.DBTX
}

func NewSQLiteGrantRepo(conn db.DBTX) *SQLiteGrantRepo {
	return &SQLiteGrantRepo{db: conn}
}

// Grant keeps an existing row untouched, so the first granter and grant time
// survive repeated grants.
func (r *SQLiteGrantRepo) Grant(ctx context.Context, g *domain.AccessGrant) (bool, error) {
	query := `INSERT INTO access_grants (user_id, project_id, granted_by, granted_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, project_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, g.UserID, g.ProjectID, g.GrantedBy, timestamp(g.GrantedAt))
	if err != nil {
		return false, fmt.Errorf("inserting access grant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading grant result: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteGrantRepo) Get(ctx context.Context, userID, projectID string) (*domain.AccessGrant, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, project_id, granted_by, granted_at FROM access_grants WHERE user_id = ? AND project_id = ?`,
		userID, projectID)
	g, err := scanGrant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("grant for user %s on project %s", userID, projectID)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *SQLiteGrantRepo) Revoke(ctx context.Context, userID, projectID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM access_grants WHERE user_id = ? AND project_id = ?`, userID, projectID)
	if err != nil {
		return false, fmt.Errorf("deleting access grant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading revoke result: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteGrantRepo) ListByProject(ctx context.Context, projectID string) ([]domain.AccessGrant, error) {
	return r.list(ctx, `SELECT user_id, project_id, granted_by, granted_at FROM access_grants
		WHERE project_id = ? ORDER BY granted_at, user_id`, projectID)
}

func (r *SQLiteGrantRepo) ListByUser(ctx context.Context, userID string) ([]domain.AccessGrant, error) {
	return r.list(ctx, `SELECT user_id, project_id, granted_by, granted_at FROM access_grants
		WHERE user_id = ? ORDER BY granted_at, project_id`, userID)
}

func (r *SQLiteGrantRepo) list(ctx context.Context, query string, arg string) ([]domain.AccessGrant, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing access grants: %w", err)
	}
	defer rows.Close()

	var out []domain.AccessGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating access grants: %w", err)
	}
	return out, nil
}

func scanGrant(s rowScanner) (domain.AccessGrant, error) {
	var g domain.AccessGrant
	var grantedAt string
	if err := s.Scan(&g.UserID, &g.ProjectID, &g.GrantedBy, &grantedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return g, err
		}
		return g, fmt.Errorf("scanning access grant: %w", err)
	}
	t, err := parseTimestamp("granted_at", grantedAt)
	if err != nil {
		return g, err
	}
	g.GrantedAt = t
	return g, nil
}
