package report

import (
	"context"
	"log/slog"

	"github.com/Kitrop/workflow/internal/access"
	"github.com/Kitrop/workflow/internal/db"
	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/repository"
)

// Request selects one report. Metric is ignored by Scorecard.
type Request struct {
	Actor  domain.Actor
	Metric Metric
	Window domain.DateWindow
}

// Aggregator computes series and scorecards.
type Aggregator struct {
	uow    db.UnitOfWork
	logger *slog.Logger
}

// NewAggregator creates an Aggregator. A nil logger discards output.
func NewAggregator(uow db.UnitOfWork, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Aggregator{uow: uow, logger: logger}
}

func (a *Aggregator) check(req Request) error {
	if !access.CanViewReports(req.Actor) {
		return domain.Forbiddenf("user %s cannot view reports", req.Actor.Username)
	}
	return req.Window.Validate()
}

// Aggregate computes one metric over the tasks the actor can read. No data
// yields an empty series, never an error.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) (Series, error) {
	if err := a.check(req); err != nil {
		return nil, err
	}
	if _, ok := metricTitles[req.Metric]; !ok {
		return nil, domain.Validationf("unknown metric %q", req.Metric)
	}

	snap, err := loadSnapshot(ctx, a.uow, req.Actor, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}

	r := run{ctx: ctx, logger: a.logger, metric: req.Metric, window: req.Window, snap: snap, acc: newAccumulator()}
	switch req.Metric {
	case MetricTasksByType:
		r.eachTask(func(t *domain.Task) {
			r.acc.add(t.Type, snap.typeLabel(t.Type), 1)
		})
	case MetricProjectsByType:
		r.eachTask(func(t *domain.Task) {
			r.acc.add(t.ProjectID+"/"+t.Type, snap.projectLabel(t.ProjectID)+" / "+snap.typeLabel(t.Type), 1)
		})
	case MetricReviewers:
		r.reviewers()
	case MetricTesters:
		r.testers()
	case MetricSPByProject:
		r.eachTask(func(t *domain.Task) {
			if sp, ok := r.storyPoints(t); ok {
				r.acc.add(t.ProjectID, snap.projectLabel(t.ProjectID), sp)
			}
		})
	case MetricSPByUser, MetricSPAvgByUser:
		r.eachAssigned(func(t *domain.Task) {
			if sp, ok := r.storyPoints(t); ok {
				r.acc.add(t.AssigneeID, snap.userLabel(t.AssigneeID), sp)
			}
		})
	case MetricLOCByUser:
		r.eachAssigned(func(t *domain.Task) {
			loc, ok := t.Extra.LinesOfCode()
			if !ok {
				r.skip(t, "no numeric lines of code")
				return
			}
			r.acc.add(t.AssigneeID, snap.userLabel(t.AssigneeID), loc)
		})
	case MetricTasksByUser:
		r.eachAssigned(func(t *domain.Task) {
			r.acc.add(t.AssigneeID, snap.userLabel(t.AssigneeID), 1)
		})
	}

	if req.Metric == MetricSPAvgByUser {
		return r.acc.means(), nil
	}
	return r.acc.sums(), nil
}

// run holds the state of one aggregation.
type run struct {
	ctx    context.Context
	logger *slog.Logger
	metric Metric
	window domain.DateWindow
	snap   *snapshot
	acc    *accumulator
}

// eachTask visits tasks whose issue date is in the window.
func (r *run) eachTask(fn func(*domain.Task)) {
	for _, t := range r.snap.tasks {
		if r.window.Contains(t.IssueDate) {
			fn(t)
		}
	}
}

// eachAssigned is eachTask restricted to tasks with an assignee.
func (r *run) eachAssigned(fn func(*domain.Task)) {
	r.eachTask(func(t *domain.Task) {
		if t.AssigneeID == "" {
			r.skip(t, "no assignee")
			return
		}
		fn(t)
	})
}

func (r *run) reviewers() {
	for _, t := range r.snap.tasks {
		for _, rv := range t.Reviews {
			if rv.ReviewerID == "" || !r.window.Contains(rv.ReviewDate) {
				continue
			}
			r.acc.add(rv.ReviewerID, r.snap.userLabel(rv.ReviewerID), 1)
		}
	}
}

func (r *run) testers() {
	for _, t := range r.snap.tasks {
		for _, p := range t.Periods {
			if p.Type != domain.PeriodTest || !r.window.Overlaps(p.Start, p.End) {
				continue
			}
			if p.TesterID == "" {
				r.skip(t, "test period without tester")
				continue
			}
			r.acc.add(p.TesterID, r.snap.userLabel(p.TesterID), 1)
		}
	}
}

func (r *run) storyPoints(t *domain.Task) (float64, bool) {
	sp, ok := t.Extra.StoryPoints()
	if !ok {
		r.skip(t, "no numeric story points")
	}
	return sp, ok
}

func (r *run) skip(t *domain.Task, reason string) {
	r.logger.DebugContext(r.ctx, "report_record_skipped",
		"metric", string(r.metric),
		"task_id", t.ID,
		"reason", reason,
	)
}
