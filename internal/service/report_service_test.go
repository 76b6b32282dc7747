package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/gantt"
	"github.com/Kitrop/workflow/internal/report"
	"github.com/Kitrop/workflow/internal/testutil"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) last() UseCaseEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events[len(o.events)-1]
}

func TestReportService_ObservesUseCases(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	uow := testutil.NewTestUoW(e.db)
	obs := &recordingObserver{}
	svc := NewReportService(report.NewAggregator(uow, nil), gantt.NewBuilder(uow), obs)

	dev, _ := e.user(t, "dev")
	p := e.project(t, "Core")
	e.createTask(t, p.ID, "a", testutil.WithAssignee(dev.ID), testutil.WithStoryPoints(2),
		testutil.WithPeriod(domain.PeriodWork, "2024-01-02", "2024-01-04"))

	series, err := svc.Series(ctx, report.Request{Actor: e.admin, Metric: report.MetricTasksByUser, Window: testutil.Window("2024-01-01", "2024-01-31")})
	require.NoError(t, err)
	require.Len(t, series, 1)
	ev := obs.last()
	assert.Equal(t, "report.series", ev.Name)
	assert.True(t, ev.Success)
	assert.Equal(t, 1, ev.Fields["groups"])
	assert.Equal(t, "2024-01-01", ev.Fields["date_from"])

	intervals, err := svc.Timeline(ctx, e.admin, dev.ID, domain.DateWindow{})
	require.NoError(t, err)
	assert.Len(t, intervals, 1)
	assert.Equal(t, "report.gantt", obs.last().Name)

	_, err = svc.Scorecard(ctx, report.Request{Actor: e.admin, Window: testutil.Window("2024-02-01", "2024-01-01")})
	assert.True(t, errors.Is(err, domain.ErrInvalidRange))
	ev = obs.last()
	assert.Equal(t, "report.scorecard", ev.Name)
	assert.False(t, ev.Success)
	assert.Error(t, ev.Err)
}

func TestTaskService_ObserverSeesChangeCount(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	obs := &recordingObserver{}
	svc := NewTaskService(nil, testutil.NewTestUoW(e.db), nil, obs)
	p := e.project(t, "Core")

	task := testutil.NewTestTask(p.ID, "x")
	require.NoError(t, svc.Create(ctx, e.admin, task))
	assert.Equal(t, "task.create", obs.last().Name)

	next := task.Clone()
	next.Name = "y"
	_, err := svc.Update(ctx, e.admin, next)
	require.NoError(t, err)
	assert.Equal(t, 1, obs.last().Fields["changes"])
}
