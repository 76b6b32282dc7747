// Package report aggregates task data into labelled series and the per-user
// scorecard. Every read goes through the actor's access scope and happens in
// a single transaction.
package report

import (
	"strings"

	"github.com/Kitrop/workflow/internal/domain"
)

// Metric names one aggregation.
type Metric string

const (
	MetricTasksByType    Metric = "tasks_by_type"
	MetricProjectsByType Metric = "projects_by_type"
	MetricReviewers      Metric = "reviewers"
	MetricTesters        Metric = "testers"
	MetricSPByProject    Metric = "sp_by_project"
	MetricSPByUser       Metric = "sp_by_user"
	MetricLOCByUser      Metric = "loc_by_user"
	MetricTasksByUser    Metric = "tasks_by_user"
	MetricSPAvgByUser    Metric = "sp_avg_by_user"
)

// Metrics lists every metric in display order.
var Metrics = []Metric{
	MetricTasksByType,
	MetricProjectsByType,
	MetricReviewers,
	MetricTesters,
	MetricSPByProject,
	MetricSPByUser,
	MetricLOCByUser,
	MetricTasksByUser,
	MetricSPAvgByUser,
}

var metricTitles = map[Metric]string{
	MetricTasksByType:    "Tasks by type",
	MetricProjectsByType: "Tasks by project and type",
	MetricReviewers:      "Reviews by reviewer",
	MetricTesters:        "Test periods by tester",
	MetricSPByProject:    "Story points by project",
	MetricSPByUser:       "Story points by user",
	MetricLOCByUser:      "Lines of code by user",
	MetricTasksByUser:    "Tasks by user",
	MetricSPAvgByUser:    "Average story points by user",
}

// Title is the human-readable heading of the metric.
func (m Metric) Title() string {
	if t, ok := metricTitles[m]; ok {
		return t
	}
	return string(m)
}

func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := metricTitles[m]; !ok {
		return "", domain.Validationf("unknown metric %q", s)
	}
	return m, nil
}
