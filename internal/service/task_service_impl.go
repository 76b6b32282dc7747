package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kitrop/workflow/internal/access"
	"github.com/Kitrop/workflow/internal/db"
	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/history"
	"github.com/Kitrop/workflow/internal/repository"
)

type taskService struct {
	types    repository.TaskTypeRepo
	uow      db.UnitOfWork
	recorder *history.Recorder
	observer UseCaseObserver
}

func NewTaskService(types repository.TaskTypeRepo, uow db.UnitOfWork, recorder *history.Recorder, observers ...UseCaseObserver) TaskService {
	if recorder == nil {
		recorder = history.NewRecorder()
	}
	return &taskService{types: types, uow: uow, recorder: recorder, observer: useCaseObserverOrNoop(observers)}
}

func (s *taskService) Create(ctx context.Context, actor domain.Actor, t *domain.Task) (err error) {
	done := track(ctx, s.observer, "task.create", map[string]any{"project_id": t.ProjectID, "name": t.Name})
	defer func() { done(err) }()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return createTaskTx(ctx, tx, s.recorder, actor, t)
	})
}

// createTaskTx checks, stores and records a new task inside tx.
func createTaskTx(ctx context.Context, tx db.DBTX, rec *history.Recorder, actor domain.Actor, t *domain.Task) error {
	if !access.CanLoadTasks(actor) {
		return domain.Forbiddenf("user %s cannot load tasks", actor.Username)
	}
	if strings.TrimSpace(t.ProjectID) == "" {
		return domain.Validationf("task project is required")
	}
	_, readable, err := projectReadable(ctx, tx, actor, t.ProjectID)
	if err != nil {
		return err
	}
	if !access.Decide(actor, access.ProjectResource(t.ProjectID), access.Read, readable) {
		return domain.Forbiddenf("read access to project %s denied", t.ProjectID)
	}

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.Name = strings.TrimSpace(t.Name)
	assignChildIDs(t)
	if err := checkTask(ctx, tx, t); err != nil {
		return err
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := repository.NewSQLiteTaskRepo(tx).Create(ctx, t); err != nil {
		return err
	}
	return rec.RecordCreate(ctx, tx, t, actor)
}

func assignChildIDs(t *domain.Task) {
	for i := range t.Periods {
		if t.Periods[i].ID == "" {
			t.Periods[i].ID = uuid.New().String()
		}
	}
	for i := range t.Reviews {
		if t.Reviews[i].ID == "" {
			t.Reviews[i].ID = uuid.New().String()
		}
	}
}

// checkTask validates t and every reference it carries.
func checkTask(ctx context.Context, tx db.DBTX, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := repository.NewSQLiteTaskTypeRepo(tx).Get(ctx, t.Type); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Validationf("unknown task type %q", t.Type)
		}
		return err
	}
	if err := userExists(ctx, tx, "assignee", t.AssigneeID); err != nil {
		return err
	}
	if err := userExists(ctx, tx, "manager", t.ManagerID); err != nil {
		return err
	}
	for _, p := range t.Periods {
		if err := userExists(ctx, tx, "tester", p.TesterID); err != nil {
			return err
		}
	}
	for _, r := range t.Reviews {
		if err := userExists(ctx, tx, "reviewer", r.ReviewerID); err != nil {
			return err
		}
	}
	return nil
}

func (s *taskService) Get(ctx context.Context, actor domain.Actor, id string) (t *domain.Task, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		t, err = requireTask(ctx, tx, actor, id, access.Read)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// filter turns q into a repository filter limited to the actor's scope. A
// project filter the actor cannot read is Forbidden rather than empty.
func filter(ctx context.Context, tx db.DBTX, actor domain.Actor, q TaskQuery) (repository.TaskFilter, error) {
	if q.Skip < 0 || q.Limit < 0 {
		return repository.TaskFilter{}, domain.Validationf("skip and limit must not be negative")
	}
	if q.ProjectID != "" {
		_, readable, err := projectReadable(ctx, tx, actor, q.ProjectID)
		if err != nil {
			return repository.TaskFilter{}, err
		}
		if !access.Decide(actor, access.ProjectResource(q.ProjectID), access.Read, readable) {
			return repository.TaskFilter{}, domain.Forbiddenf("read access to project %s denied", q.ProjectID)
		}
	}
	scope, err := access.NewResolver(repository.NewSQLiteProjectRepo(tx)).ScopeFor(ctx, actor)
	if err != nil {
		return repository.TaskFilter{}, err
	}
	return scope.TaskFilter(repository.TaskFilter{
		ProjectID:  q.ProjectID,
		AssigneeID: q.AssigneeID,
		Offset:     q.Skip,
		Limit:      q.Limit,
	}), nil
}

func (s *taskService) List(ctx context.Context, actor domain.Actor, q TaskQuery) (out []*domain.Task, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		f, err := filter(ctx, tx, actor, q)
		if err != nil {
			return err
		}
		out, err = repository.NewSQLiteTaskRepo(tx).List(ctx, f)
		return err
	})
	return out, err
}

func (s *taskService) Count(ctx context.Context, actor domain.Actor, q TaskQuery) (n int, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		f, err := filter(ctx, tx, actor, q)
		if err != nil {
			return err
		}
		n, err = repository.NewSQLiteTaskRepo(tx).Count(ctx, f)
		return err
	})
	return n, err
}

// Counts reads both numbers in one transaction. Total ignores
// q.ProjectID, but the project must still exist and be readable.
func (s *taskService) Counts(ctx context.Context, actor domain.Actor, q TaskQuery) (out TaskCounts, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteTaskRepo(tx)
		f, err := filter(ctx, tx, actor, q)
		if err != nil {
			return err
		}
		if q.ProjectID != "" {
			n, err := repo.Count(ctx, f)
			if err != nil {
				return err
			}
			out.Project = &n
		}
		f.ProjectID = ""
		out.Total, err = repo.Count(ctx, f)
		return err
	})
	return out, err
}

// Update replaces the stored task with t. The row, its periods and reviews
// and one history entry per changed field commit together. An update that
// changes nothing writes nothing.
func (s *taskService) Update(ctx context.Context, actor domain.Actor, t *domain.Task) (diffs []history.FieldDiff, err error) {
	fields := map[string]any{"task_id": t.ID}
	done := track(ctx, s.observer, "task.update", fields)
	defer func() { done(err) }()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		before, err := requireTask(ctx, tx, actor, t.ID, access.Write)
		if err != nil {
			return err
		}
		if t.ProjectID != "" && t.ProjectID != before.ProjectID {
			return domain.Validationf("task %s cannot move from project %s to %s", t.ID, before.ProjectID, t.ProjectID)
		}
		after := t.Clone()
		after.ProjectID = before.ProjectID
		after.Name = strings.TrimSpace(after.Name)
		after.CreatedAt = before.CreatedAt
		assignChildIDs(after)
		if err := checkTask(ctx, tx, after); err != nil {
			return err
		}

		diffs = history.Diff(before, after)
		if len(diffs) == 0 {
			return nil
		}
		after.UpdatedAt = time.Now().UTC()
		if err := repository.NewSQLiteTaskRepo(tx).Update(ctx, after); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, after.ID, actor, diffs); err != nil {
			return fmt.Errorf("recording history: %w", err)
		}
		*t = *after
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["changes"] = len(diffs)
	return diffs, nil
}

// Delete removes the task. Its history stays and gains a delete entry.
func (s *taskService) Delete(ctx context.Context, actor domain.Actor, id string) (err error) {
	done := track(ctx, s.observer, "task.delete", map[string]any{"task_id": id})
	defer func() { done(err) }()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		t, err := requireTask(ctx, tx, actor, id, access.Write)
		if err != nil {
			return err
		}
		if err := repository.NewSQLiteTaskRepo(tx).Delete(ctx, id); err != nil {
			return err
		}
		return s.recorder.RecordDelete(ctx, tx, t, actor)
	})
}

// History returns the task's entries newest first. Admins can still read the
// history of a deleted task.
func (s *taskService) History(ctx context.Context, actor domain.Actor, id string) (out []domain.TaskHistoryEntry, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		_, err := requireTask(ctx, tx, actor, id, access.Read)
		if err != nil && !(errors.Is(err, domain.ErrNotFound) && actor.IsAdmin()) {
			return err
		}
		out, err = repository.NewSQLiteHistoryRepo(tx).ListByTask(ctx, id)
		if err != nil {
			return err
		}
		if len(out) == 0 {
			return domain.NotFoundf("task %s", id)
		}
		return nil
	})
	return out, err
}

func (s *taskService) ListTypes(ctx context.Context) ([]domain.TaskType, error) {
	return s.types.List(ctx)
}

func (s *taskService) AddType(ctx context.Context, actor domain.Actor, tt *domain.TaskType) (err error) {
	done := track(ctx, s.observer, "task_type.add", map[string]any{"name": tt.Name})
	defer func() { done(err) }()

	if !actor.IsAdmin() {
		return domain.Forbiddenf("admin role required to add task types")
	}
	tt.Name = strings.ToLower(strings.TrimSpace(tt.Name))
	if tt.Name == "" {
		return domain.Validationf("task type name is required")
	}
	tt.DisplayName = domain.CoalesceStr(strings.TrimSpace(tt.DisplayName), tt.Name)
	return s.types.Create(ctx, tt)
}
