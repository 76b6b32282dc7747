package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Kitrop/workflow/internal/domain"
	"github.com/google/uuid"
)

var fixtureCounter atomic.Int64

// Now returns the current time truncated to the second, matching the
// precision stored by the repositories.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// Date parses YYYY-MM-DD and panics on bad input. Test-only.
func Date(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(fmt.Sprintf("testutil.Date(%q): %v", s, err))
	}
	return t
}

// DatePtr is Date returning a pointer, for window bounds.
func DatePtr(s string) *time.Time {
	t := Date(s)
	return &t
}

// Window builds an inclusive window; empty strings leave the bound open.
func Window(from, to string) domain.DateWindow {
	var w domain.DateWindow
	if from != "" {
		w.From = DatePtr(from)
	}
	if to != "" {
		w.To = DatePtr(to)
	}
	return w
}

// User options
type UserOption func(*domain.User)

func WithRole(r domain.Role) UserOption {
	return func(u *domain.User) {
		u.Role = r
	}
}

func WithCanLoadTasks() UserOption {
	return func(u *domain.User) {
		u.CanLoadTasks = true
	}
}

func WithCanViewReports() UserOption {
	return func(u *domain.User) {
		u.CanViewReports = true
	}
}

func WithFullName(name string) UserOption {
	return func(u *domain.User) {
		u.FullName = name
	}
}

func NewTestUser(username string, opts ...UserOption) *domain.User {
	now := Now()
	u := &domain.User{
		ID:        uuid.New().String(),
		Username:  username,
		Role:      domain.RoleUser,
		Color:     domain.DefaultUserColor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Project options
type ProjectOption func(*domain.Project)

func WithPublic() ProjectOption {
	return func(p *domain.Project) {
		p.IsPublic = true
	}
}

func WithDescription(d string) ProjectOption {
	return func(p *domain.Project) {
		p.Description = d
	}
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := Now()
	p := &domain.Project{
		ID:        uuid.New().String(),
		Name:      name,
		Color:     domain.DefaultProjectColor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Task options
type TaskOption func(*domain.Task)

func WithType(typ string) TaskOption {
	return func(t *domain.Task) {
		t.Type = typ
	}
}

func WithAssignee(userID string) TaskOption {
	return func(t *domain.Task) {
		t.AssigneeID = userID
	}
}

func WithManager(userID string) TaskOption {
	return func(t *domain.Task) {
		t.ManagerID = userID
	}
}

func WithIssueDate(d string) TaskOption {
	return func(t *domain.Task) {
		t.IssueDate = Date(d)
	}
}

func WithExtra(key string, v domain.Value) TaskOption {
	return func(t *domain.Task) {
		if t.Extra == nil {
			t.Extra = domain.ExtraFields{}
		}
		t.Extra[key] = v
	}
}

func WithStoryPoints(sp float64) TaskOption {
	return WithExtra(domain.KeyStoryPoints, domain.Number(sp))
}

func WithPeriod(typ domain.PeriodType, start, end string) TaskOption {
	return func(t *domain.Task) {
		t.Periods = append(t.Periods, domain.Period{
			ID:    uuid.New().String(),
			Type:  typ,
			Start: Date(start),
			End:   Date(end),
		})
	}
}

func WithTestPeriod(testerID, start, end string) TaskOption {
	return func(t *domain.Task) {
		t.Periods = append(t.Periods, domain.Period{
			ID:       uuid.New().String(),
			Type:     domain.PeriodTest,
			Start:    Date(start),
			End:      Date(end),
			TesterID: testerID,
		})
	}
}

func WithReview(reviewerID, date string) TaskOption {
	return func(t *domain.Task) {
		t.Reviews = append(t.Reviews, domain.Review{
			ID:         uuid.New().String(),
			ReviewerID: reviewerID,
			ReviewDate: Date(date),
		})
	}
}

func NewTestTask(projectID, name string, opts ...TaskOption) *domain.Task {
	now := Now()
	n := fixtureCounter.Add(1)
	t := &domain.Task{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Type:      domain.TaskTypeDevelopment,
		Name:      name,
		IssueURL:  fmt.Sprintf("https://tracker.example.com/issue/%d", n),
		IssueDate: Date("2024-01-01"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}
