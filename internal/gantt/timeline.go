// Package gantt builds per-user timelines of task periods clipped to a date
// window.
package gantt

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Kitrop/workflow/internal/access"
	"github.com/Kitrop/workflow/internal/db"
	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/repository"
)

// Interval is one period of one task. Start and End are already clipped to
// the requested window.
type Interval struct {
	TaskID     string            `json:"task_id"`
	TaskName   string            `json:"task_name"`
	ProjectID  string            `json:"project_id"`
	PeriodID   string            `json:"period_id"`
	PeriodType domain.PeriodType `json:"period_type"`
	Start      time.Time         `json:"start"`
	End        time.Time         `json:"end"`
}

// Days is the inclusive length of the interval.
func (iv Interval) Days() int {
	return int(iv.End.Sub(iv.Start).Hours()/24) + 1
}

type Builder struct {
	uow db.UnitOfWork
}

func NewBuilder(uow db.UnitOfWork) *Builder {
	return &Builder{uow: uow}
}

// BuildTimeline returns the periods of tasks assigned to targetUserID that
// the actor can read. Overlapping periods are all returned. An actor who can
// read none of the target's projects gets an empty timeline.
func (b *Builder) BuildTimeline(ctx context.Context, actor domain.Actor, targetUserID string, window domain.DateWindow) ([]Interval, error) {
	if !access.CanViewReports(actor) {
		return nil, domain.Forbiddenf("user %s cannot view timelines", actor.Username)
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	var tasks []*domain.Task
	err := b.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := repository.NewSQLiteUserRepo(tx).GetByID(ctx, targetUserID); err != nil {
			return err
		}
		scope, err := access.NewResolver(repository.NewSQLiteProjectRepo(tx)).ScopeFor(ctx, actor)
		if err != nil {
			return err
		}
		tasks, err = repository.NewSQLiteTaskRepo(tx).List(ctx, scope.TaskFilter(repository.TaskFilter{AssigneeID: targetUserID}))
		if err != nil {
			return fmt.Errorf("loading tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Intervals(tasks, window), nil
}

// Intervals clips the periods of tasks to window and orders them by start,
// then task id, then period id.
func Intervals(tasks []*domain.Task, window domain.DateWindow) []Interval {
	out := make([]Interval, 0)
	for _, t := range tasks {
		for _, p := range t.Periods {
			if !window.Overlaps(p.Start, p.End) {
				continue
			}
			start, end := window.Clip(p.Start, p.End)
			out = append(out, Interval{
				TaskID:     t.ID,
				TaskName:   t.Name,
				ProjectID:  t.ProjectID,
				PeriodID:   p.ID,
				PeriodType: p.Type,
				Start:      start,
				End:        end,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		if out[i].TaskID != out[j].TaskID {
			return out[i].TaskID < out[j].TaskID
		}
		return out[i].PeriodID < out[j].PeriodID
	})
	return out
}
