package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Kitrop/workflow/internal/db"
	"github.com/Kitrop/workflow/internal/domain"
)

// SQLiteTaskRepo stores tasks together with their periods and reviews.
// Reads always return fully hydrated tasks.
type SQLiteTaskRepo struct {
	db db.DBTX
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo.
func NewSQLiteTaskRepo(conn db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: conn}
}

const taskColumns = `t.id, t.project_id, t.type, t.name, t.issue_url, t.issue_date,
	t.assignee_id, t.manager_id, t.extra_fields, t.created_at, t.updated_at`

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	extra, err := encodeExtra(t.Extra)
	if err != nil {
		return err
	}
	query := `INSERT INTO tasks (id, project_id, type, name, issue_url, issue_date,
		assignee_id, manager_id, extra_fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		t.ID,
		t.ProjectID,
		t.Type,
		t.Name,
		t.IssueURL,
		t.IssueDate.Format(dateLayout),
		nullableString(t.AssigneeID),
		nullableString(t.ManagerID),
		extra,
		timestamp(t.CreatedAt),
		timestamp(t.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflictf("task id %s already exists", t.ID)
		}
		return fmt.Errorf("inserting task: %w", err)
	}
	return r.insertChildren(ctx, t)
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	tasks, err := r.load(ctx, "WHERE t.id = ?", []any{id})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, domain.NotFoundf("task %s", id)
	}
	return tasks[0], nil
}

func (r *SQLiteTaskRepo) List(ctx context.Context, f TaskFilter) ([]*domain.Task, error) {
	where, args := f.where()
	if f.Offset <= 0 && f.Limit <= 0 {
		return r.load(ctx, where, args)
	}
	ids, err := r.pageIDs(ctx, where, args, f.Offset, f.Limit)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	return r.load(ctx, "WHERE t.id IN ("+placeholders(len(ids))+")", stringArgs(ids))
}

// pageIDs selects one page of task ids in load order. SQLite reads a
// negative LIMIT as unbounded.
func (r *SQLiteTaskRepo) pageIDs(ctx context.Context, where string, args []any, offset, limit int) ([]string, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id FROM tasks t `+where+` ORDER BY t.issue_date, t.id LIMIT ? OFFSET ?`,
		append(append([]any{}, args...), limit, max(offset, 0))...)
	if err != nil {
		return nil, fmt.Errorf("paging tasks: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning task id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task ids: %w", err)
	}
	return ids, nil
}

func (r *SQLiteTaskRepo) Count(ctx context.Context, f TaskFilter) (int, error) {
	where, args := f.where()
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks t `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return n, nil
}

func (r *SQLiteTaskRepo) CountByProject(ctx context.Context, projectID string) (int, error) {
	return r.Count(ctx, TaskFilter{AllProjects: true, ProjectID: projectID})
}

// Update rewrites the task row and replaces its periods and reviews.
// project_id is never written.
func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	extra, err := encodeExtra(t.Extra)
	if err != nil {
		return err
	}
	query := `UPDATE tasks SET type = ?, name = ?, issue_url = ?, issue_date = ?,
		assignee_id = ?, manager_id = ?, extra_fields = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		t.Type,
		t.Name,
		t.IssueURL,
		t.IssueDate.Format(dateLayout),
		nullableString(t.AssigneeID),
		nullableString(t.ManagerID),
		extra,
		timestamp(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("task %s", t.ID)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM task_periods WHERE task_id = ?`, t.ID); err != nil {
		return fmt.Errorf("clearing task periods: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM task_reviews WHERE task_id = ?`, t.ID); err != nil {
		return fmt.Errorf("clearing task reviews: %w", err)
	}
	return r.insertChildren(ctx, t)
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("task %s", id)
	}
	return nil
}

// insertChildren writes periods and reviews in order. Child ids are global,
// so an id owned by another task is a Conflict.
func (r *SQLiteTaskRepo) insertChildren(ctx context.Context, t *domain.Task) error {
	for i, p := range t.Periods {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO task_periods (id, task_id, position, type, start_date, end_date, tester_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, t.ID, i, string(p.Type),
			p.Start.Format(dateLayout), p.End.Format(dateLayout),
			nullableString(p.TesterID),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.Conflictf("period id %s is already in use", p.ID)
			}
			return fmt.Errorf("inserting task period: %w", err)
		}
	}
	for i, rv := range t.Reviews {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO task_reviews (id, task_id, position, reviewer_id, review_date)
			VALUES (?, ?, ?, ?, ?)`,
			rv.ID, t.ID, i, rv.ReviewerID, rv.ReviewDate.Format(dateLayout),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.Conflictf("review id %s is already in use", rv.ID)
			}
			return fmt.Errorf("inserting task review: %w", err)
		}
	}
	return nil
}

// load reads the tasks matching where and attaches their periods and reviews
// using the same predicate.
func (r *SQLiteTaskRepo) load(ctx context.Context, where string, args []any) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks t `+where+` ORDER BY t.issue_date, t.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	var tasks []*domain.Task
	byID := make(map[string]*domain.Task)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		tasks = append(tasks, t)
		byID[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	rows.Close()
	if len(tasks) == 0 {
		return tasks, nil
	}

	if err := r.loadPeriods(ctx, where, args, byID); err != nil {
		return nil, err
	}
	if err := r.loadReviews(ctx, where, args, byID); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *SQLiteTaskRepo) loadPeriods(ctx context.Context, where string, args []any, byID map[string]*domain.Task) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.task_id, p.id, p.type, p.start_date, p.end_date, p.tester_id
		FROM task_periods p JOIN tasks t ON t.id = p.task_id `+where+`
		ORDER BY p.task_id, p.position`, args...)
	if err != nil {
		return fmt.Errorf("listing task periods: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID, typ, start, end string
		var tester sql.NullString
		var p domain.Period
		if err := rows.Scan(&taskID, &p.ID, &typ, &start, &end, &tester); err != nil {
			return fmt.Errorf("scanning task period: %w", err)
		}
		p.Type = domain.PeriodType(typ)
		p.TesterID = nullToEmpty(tester)
		if p.Start, err = parseDate("start_date", start); err != nil {
			return err
		}
		if p.End, err = parseDate("end_date", end); err != nil {
			return err
		}
		if t, ok := byID[taskID]; ok {
			t.Periods = append(t.Periods, p)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating task periods: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) loadReviews(ctx context.Context, where string, args []any, byID map[string]*domain.Task) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT v.task_id, v.id, v.reviewer_id, v.review_date
		FROM task_reviews v JOIN tasks t ON t.id = v.task_id `+where+`
		ORDER BY v.task_id, v.position`, args...)
	if err != nil {
		return fmt.Errorf("listing task reviews: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID, date string
		var rv domain.Review
		if err := rows.Scan(&taskID, &rv.ID, &rv.ReviewerID, &date); err != nil {
			return fmt.Errorf("scanning task review: %w", err)
		}
		if rv.ReviewDate, err = parseDate("review_date", date); err != nil {
			return err
		}
		if t, ok := byID[taskID]; ok {
			t.Reviews = append(t.Reviews, rv)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating task reviews: %w", err)
	}
	return nil
}

func (f TaskFilter) where() (string, []any) {
	var conds []string
	var args []any
	if !f.AllProjects {
		if len(f.ProjectIDs) == 0 {
			return "WHERE 1 = 0", nil
		}
		conds = append(conds, "t.project_id IN ("+placeholders(len(f.ProjectIDs))+")")
		args = append(args, stringArgs(f.ProjectIDs)...)
	}
	if f.ProjectID != "" {
		conds = append(conds, "t.project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.AssigneeID != "" {
		conds = append(conds, "t.assignee_id = ?")
		args = append(args, f.AssigneeID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func scanTask(s rowScanner) (*domain.Task, error) {
	var t domain.Task
	var issueDate, extra, createdAt, updatedAt string
	var assignee, manager sql.NullString
	err := s.Scan(&t.ID, &t.ProjectID, &t.Type, &t.Name, &t.IssueURL, &issueDate,
		&assignee, &manager, &extra, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	t.AssigneeID = nullToEmpty(assignee)
	t.ManagerID = nullToEmpty(manager)
	if t.IssueDate, err = parseDate("issue_date", issueDate); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(extra), &t.Extra); err != nil {
		return nil, fmt.Errorf("decoding extra_fields for task %s: %w", t.ID, err)
	}
	return &t, nil
}

func encodeExtra(e domain.ExtraFields) (string, error) {
	if len(e) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encoding extra_fields: %w", err)
	}
	return string(b), nil
}
