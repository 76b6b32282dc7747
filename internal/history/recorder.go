package history

import (
	"context"
	"time"

	"github.com/Kitrop/workflow/internal/db"
	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/repository"
)

// Lifecycle field names. A create entry carries the new task name, a delete
// entry carries the name the task had.
const (
	FieldCreate = "create"
	FieldDelete = "delete"
)

// Recorder writes diffs to task_history inside the caller's transaction, so
// the mutation and its history commit or roll back together.
type Recorder struct {
	now func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{now: func() time.Time { return time.Now().UTC() }}
}

// NewRecorderWithClock is used by tests that need fixed timestamps.
func NewRecorderWithClock(now func() time.Time) *Recorder {
	return &Recorder{now: now}
}

// Record appends one entry per diff. All entries of one mutation share a
// timestamp. An empty diff writes nothing.
func (r *Recorder) Record(ctx context.Context, tx db.DBTX, taskID string, actor domain.Actor, diffs []FieldDiff) error {
	if len(diffs) == 0 {
		return nil
	}
	at := r.now()
	entries := make([]domain.TaskHistoryEntry, 0, len(diffs))
	for _, d := range diffs {
		entries = append(entries, domain.TaskHistoryEntry{
			TaskID:    taskID,
			Field:     d.Field,
			OldValue:  d.Old,
			NewValue:  d.New,
			ChangedBy: actor.UserID,
			ChangedAt: at,
		})
	}
	return repository.NewSQLiteHistoryRepo(tx).Append(ctx, entries)
}

func (r *Recorder) RecordCreate(ctx context.Context, tx db.DBTX, t *domain.Task, actor domain.Actor) error {
	return r.Record(ctx, tx, t.ID, actor, []FieldDiff{{Field: FieldCreate, New: t.Name}})
}

func (r *Recorder) RecordDelete(ctx context.Context, tx db.DBTX, t *domain.Task, actor domain.Actor) error {
	return r.Record(ctx, tx, t.ID, actor, []FieldDiff{{Field: FieldDelete, Old: t.Name}})
}
