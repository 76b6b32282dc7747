package report

import (
	"context"
	"errors"
	"testing"

	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/repository"
	"github.com/Kitrop/workflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	agg      *Aggregator
	users    *repository.SQLiteUserRepo
	projects *repository.SQLiteProjectRepo
	grants   *repository.SQLiteGrantRepo
	tasks    *repository.SQLiteTaskRepo
	admin    domain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	f := &fixture{
		agg:      NewAggregator(testutil.NewTestUoW(database), nil),
		users:    repository.NewSQLiteUserRepo(database),
		projects: repository.NewSQLiteProjectRepo(database),
		grants:   repository.NewSQLiteGrantRepo(database),
		tasks:    repository.NewSQLiteTaskRepo(database),
	}
	admin := testutil.MustCreate(t, f.users, testutil.NewTestUser("root", testutil.WithRole(domain.RoleAdmin)))
	f.admin = domain.ActorFor(admin)
	return f
}

func (f *fixture) user(t *testing.T, name string, opts ...testutil.UserOption) *domain.User {
	return testutil.MustCreate(t, f.users, testutil.NewTestUser(name, opts...))
}

func (f *fixture) project(t *testing.T, name string, opts ...testutil.ProjectOption) *domain.Project {
	return testutil.MustCreate(t, f.projects, testutil.NewTestProject(name, opts...))
}

func (f *fixture) task(t *testing.T, projectID, name string, opts ...testutil.TaskOption) *domain.Task {
	return testutil.MustCreate(t, f.tasks, testutil.NewTestTask(projectID, name, opts...))
}

func (f *fixture) aggregate(t *testing.T, actor domain.Actor, m Metric, w domain.DateWindow) Series {
	t.Helper()
	s, err := f.agg.Aggregate(context.Background(), Request{Actor: actor, Metric: m, Window: w})
	require.NoError(t, err)
	return s
}

func labels(s Series) []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Label
	}
	return out
}

func TestAggregate_SPAverageExcludesTasksWithoutStoryPoints(t *testing.T) {
	f := newFixture(t)
	x := f.user(t, "x")
	p := f.project(t, "Core")
	f.task(t, p.ID, "t1", testutil.WithAssignee(x.ID), testutil.WithStoryPoints(3))
	f.task(t, p.ID, "t2", testutil.WithAssignee(x.ID), testutil.WithStoryPoints(5))
	f.task(t, p.ID, "t3", testutil.WithAssignee(x.ID))

	s := f.aggregate(t, f.admin, MetricSPAvgByUser, domain.DateWindow{})
	require.Len(t, s, 1)
	assert.Equal(t, x.ID, s[0].Key)
	assert.InDelta(t, 4.0, s[0].Value, 1e-9)
}

func TestAggregate_OrdersByValueThenLabel(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "A")
	b := f.user(t, "B")
	c := f.user(t, "C")
	p := f.project(t, "Core")
	for i, n := range map[*domain.User]int{a: 2, b: 5, c: 5} {
		for j := 0; j < n; j++ {
			f.task(t, p.ID, i.Username, testutil.WithAssignee(i.ID))
		}
	}

	s := f.aggregate(t, f.admin, MetricTasksByUser, domain.DateWindow{})
	assert.Equal(t, []string{"B", "C", "A"}, labels(s))
	assert.Equal(t, []float64{5, 5, 2}, []float64{s[0].Value, s[1].Value, s[2].Value})
}

func TestAggregate_EmptyWindowYieldsEmptySeries(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "Core")
	f.task(t, p.ID, "t1", testutil.WithIssueDate("2024-01-01"))

	for _, m := range Metrics {
		s := f.aggregate(t, f.admin, m, testutil.Window("2024-06-01", "2024-06-01"))
		assert.NotNil(t, s, m)
		assert.Empty(t, s, m)
	}
}

func TestAggregate_InvalidRange(t *testing.T) {
	f := newFixture(t)
	_, err := f.agg.Aggregate(context.Background(), Request{
		Actor:  f.admin,
		Metric: MetricTasksByType,
		Window: testutil.Window("2024-02-01", "2024-01-01"),
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidRange))
}

func TestAggregate_RequiresReportCapability(t *testing.T) {
	f := newFixture(t)
	plain := domain.ActorFor(f.user(t, "plain"))
	_, err := f.agg.Aggregate(context.Background(), Request{Actor: plain, Metric: MetricTasksByType})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	viewer := domain.ActorFor(f.user(t, "viewer", testutil.WithCanViewReports()))
	_, err = f.agg.Aggregate(context.Background(), Request{Actor: viewer, Metric: MetricTasksByType})
	assert.NoError(t, err)
}

func TestAggregate_UnknownMetric(t *testing.T) {
	f := newFixture(t)
	_, err := f.agg.Aggregate(context.Background(), Request{Actor: f.admin, Metric: "velocity"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestAggregate_AccessFilteringBeforeGrouping(t *testing.T) {
	f := newFixture(t)
	viewer := f.user(t, "viewer", testutil.WithCanViewReports())
	dev := f.user(t, "dev")
	open := f.project(t, "Open", testutil.WithPublic())
	granted := f.project(t, "Granted")
	hidden := f.project(t, "Hidden")
	testutil.MustGrant(t, f.grants, viewer.ID, granted.ID)

	f.task(t, open.ID, "o", testutil.WithAssignee(dev.ID), testutil.WithStoryPoints(1))
	f.task(t, granted.ID, "g", testutil.WithAssignee(dev.ID), testutil.WithStoryPoints(2))
	f.task(t, hidden.ID, "h", testutil.WithAssignee(dev.ID), testutil.WithStoryPoints(40))

	adminSeries := f.aggregate(t, f.admin, MetricSPByUser, domain.DateWindow{})
	require.Len(t, adminSeries, 1)
	assert.Equal(t, 43.0, adminSeries[0].Value)

	viewerSeries := f.aggregate(t, domain.ActorFor(viewer), MetricSPByUser, domain.DateWindow{})
	require.Len(t, viewerSeries, 1)
	assert.Equal(t, 3.0, viewerSeries[0].Value)

	byProject := f.aggregate(t, domain.ActorFor(viewer), MetricSPByProject, domain.DateWindow{})
	assert.Equal(t, []string{"Granted", "Open"}, labels(byProject))
}

func TestAggregate_TypeAndProjectLabels(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "Core")
	f.task(t, p.ID, "a", testutil.WithType(domain.TaskTypeBug))
	f.task(t, p.ID, "b", testutil.WithType(domain.TaskTypeBug))
	f.task(t, p.ID, "c")

	byType := f.aggregate(t, f.admin, MetricTasksByType, domain.DateWindow{})
	assert.Equal(t, []string{"Bug", "Development"}, labels(byType))

	byProjectType := f.aggregate(t, f.admin, MetricProjectsByType, domain.DateWindow{})
	require.Len(t, byProjectType, 2)
	assert.Equal(t, "Core / Bug", byProjectType[0].Label)
	assert.Equal(t, p.ID+"/"+domain.TaskTypeBug, byProjectType[0].Key)
}

func TestAggregate_WindowedByIssueDate(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "Core")
	f.task(t, p.ID, "jan", testutil.WithIssueDate("2024-01-15"))
	f.task(t, p.ID, "feb", testutil.WithIssueDate("2024-02-01"))
	f.task(t, p.ID, "mar", testutil.WithIssueDate("2024-03-01"))

	s := f.aggregate(t, f.admin, MetricTasksByType, testutil.Window("2024-01-15", "2024-02-01"))
	require.Len(t, s, 1)
	assert.Equal(t, 2.0, s[0].Value)

	s = f.aggregate(t, f.admin, MetricTasksByType, testutil.Window("2024-02-01", ""))
	require.Len(t, s, 1)
	assert.Equal(t, 2.0, s[0].Value)
}

func TestAggregate_ReviewersAndTesters(t *testing.T) {
	f := newFixture(t)
	rev := f.user(t, "rev")
	tester := f.user(t, "tester")
	p := f.project(t, "Core")
	f.task(t, p.ID, "a",
		testutil.WithReview(rev.ID, "2024-01-10"),
		testutil.WithReview(rev.ID, "2024-03-10"),
		testutil.WithTestPeriod(tester.ID, "2023-12-25", "2024-01-02"),
		testutil.WithTestPeriod("", "2024-01-05", "2024-01-06"),
		testutil.WithTestPeriod(tester.ID, "2024-04-01", "2024-04-02"),
		testutil.WithPeriod(domain.PeriodWork, "2024-01-01", "2024-01-31"),
	)
	w := testutil.Window("2024-01-01", "2024-01-31")

	reviewers := f.aggregate(t, f.admin, MetricReviewers, w)
	require.Len(t, reviewers, 1)
	assert.Equal(t, 1.0, reviewers[0].Value)

	testers := f.aggregate(t, f.admin, MetricTesters, w)
	require.Len(t, testers, 1)
	assert.Equal(t, tester.ID, testers[0].Key)
	assert.Equal(t, 1.0, testers[0].Value)
}

func TestAggregate_LOCFallsBackToTotal(t *testing.T) {
	f := newFixture(t)
	dev := f.user(t, "dev")
	p := f.project(t, "Core")
	f.task(t, p.ID, "split", testutil.WithAssignee(dev.ID),
		testutil.WithExtra(domain.KeyLOCAdded, domain.Number(30)),
		testutil.WithExtra(domain.KeyLOCRemoved, domain.Number(10)),
		testutil.WithExtra(domain.KeyLOC, domain.Number(999)),
	)
	f.task(t, p.ID, "total", testutil.WithAssignee(dev.ID), testutil.WithExtra(domain.KeyLOC, domain.Number(60)))
	f.task(t, p.ID, "text", testutil.WithAssignee(dev.ID), testutil.WithExtra(domain.KeyLOC, domain.String("lots")))

	s := f.aggregate(t, f.admin, MetricLOCByUser, domain.DateWindow{})
	require.Len(t, s, 1)
	assert.Equal(t, 100.0, s[0].Value)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric(" SP_Avg_By_User ")
	require.NoError(t, err)
	assert.Equal(t, MetricSPAvgByUser, m)

	_, err = ParseMetric("nope")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
