package service

import (
	"context"

	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/gantt"
	"github.com/Kitrop/workflow/internal/report"
)

type reportService struct {
	aggregator *report.Aggregator
	timelines  *gantt.Builder
	observer   UseCaseObserver
}

func NewReportService(aggregator *report.Aggregator, timelines *gantt.Builder, observers ...UseCaseObserver) ReportService {
	return &reportService{aggregator: aggregator, timelines: timelines, observer: useCaseObserverOrNoop(observers)}
}

func windowFields(w domain.DateWindow, fields map[string]any) map[string]any {
	if w.From != nil {
		fields["date_from"] = w.From.Format(domain.DateLayout)
	}
	if w.To != nil {
		fields["date_to"] = w.To.Format(domain.DateLayout)
	}
	return fields
}

func (s *reportService) Series(ctx context.Context, req report.Request) (series report.Series, err error) {
	fields := windowFields(req.Window, map[string]any{"metric": string(req.Metric)})
	done := track(ctx, s.observer, "report.series", fields)
	defer func() { done(err) }()

	series, err = s.aggregator.Aggregate(ctx, req)
	fields["groups"] = len(series)
	return series, err
}

func (s *reportService) Scorecard(ctx context.Context, req report.Request) (rows []report.ScoreRow, err error) {
	fields := windowFields(req.Window, map[string]any{})
	done := track(ctx, s.observer, "report.scorecard", fields)
	defer func() { done(err) }()

	rows, err = s.aggregator.Scorecard(ctx, req)
	fields["rows"] = len(rows)
	return rows, err
}

func (s *reportService) Timeline(ctx context.Context, actor domain.Actor, userID string, window domain.DateWindow) (out []gantt.Interval, err error) {
	fields := windowFields(window, map[string]any{"user_id": userID})
	done := track(ctx, s.observer, "report.gantt", fields)
	defer func() { done(err) }()

	out, err = s.timelines.BuildTimeline(ctx, actor, userID, window)
	fields["intervals"] = len(out)
	return out, err
}
