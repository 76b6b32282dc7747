package service

import (
	"context"

	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/gantt"
	"github.com/Kitrop/workflow/internal/history"
	"github.com/Kitrop/workflow/internal/importer"
	"github.com/Kitrop/workflow/internal/report"
)

// NewUser is the input of UserService.Create. Password may be empty for
// accounts that never log in over HTTP.
type NewUser struct {
	Username       string
	FullName       string
	Password       string
	Role           domain.Role
	CanLoadTasks   bool
	CanViewReports bool
	Color          string
}

// UserPatch changes only the non-nil fields.
type UserPatch struct {
	FullName       *string
	Password       *string
	Role           *domain.Role
	CanLoadTasks   *bool
	CanViewReports *bool
	Color          *string
}

type UserService interface {
	Create(ctx context.Context, actor domain.Actor, in NewUser) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, actor domain.Actor, id string, patch UserPatch) (*domain.User, error)
	// Delete refuses to remove the acting admin or a user still named on a task.
	Delete(ctx context.Context, actor domain.Actor, id string) error
	// Search matches query against username and full name, ignoring case.
	// Managers restricts the result to admins.
	Search(ctx context.Context, query string, managers bool) ([]*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	// EnsureAdmin creates the admin account if no user has that name yet.
	EnsureAdmin(ctx context.Context, username, password string) (*domain.User, bool, error)
}

type ProjectService interface {
	Create(ctx context.Context, actor domain.Actor, p *domain.Project) error
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.Project, error)
	GetByName(ctx context.Context, actor domain.Actor, name string) (*domain.Project, error)
	List(ctx context.Context, actor domain.Actor) ([]*domain.Project, error)
	Update(ctx context.Context, actor domain.Actor, p *domain.Project) error
	Delete(ctx context.Context, actor domain.Actor, id string) error
	// Grant reports whether a new grant was created; an existing one is kept.
	Grant(ctx context.Context, actor domain.Actor, projectID, userID string) (*domain.AccessGrant, bool, error)
	Revoke(ctx context.Context, actor domain.Actor, projectID, userID string) error
	ListGrants(ctx context.Context, actor domain.Actor, projectID string) ([]domain.AccessGrant, error)
	// Search returns readable projects whose name contains query, ignoring case.
	Search(ctx context.Context, actor domain.Actor, query string) ([]*domain.Project, error)
}

// TaskQuery narrows List and Count. Empty fields do not filter. Skip and
// Limit page List only; a zero Limit returns every remaining task.
type TaskQuery struct {
	ProjectID  string
	AssigneeID string
	Skip       int
	Limit      int
}

// TaskCounts is the readable task total and, when a project was asked
// for, the count within it.
type TaskCounts struct {
	Total   int
	Project *int
}

type TaskService interface {
	Create(ctx context.Context, actor domain.Actor, t *domain.Task) error
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.Task, error)
	List(ctx context.Context, actor domain.Actor, q TaskQuery) ([]*domain.Task, error)
	Count(ctx context.Context, actor domain.Actor, q TaskQuery) (int, error)
	Counts(ctx context.Context, actor domain.Actor, q TaskQuery) (TaskCounts, error)
	// Update replaces the task with t and returns the recorded changes.
	Update(ctx context.Context, actor domain.Actor, t *domain.Task) ([]history.FieldDiff, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
	History(ctx context.Context, actor domain.Actor, id string) ([]domain.TaskHistoryEntry, error)
	ListTypes(ctx context.Context) ([]domain.TaskType, error)
	AddType(ctx context.Context, actor domain.Actor, tt *domain.TaskType) error
}

type ReportService interface {
	Series(ctx context.Context, req report.Request) (report.Series, error)
	Scorecard(ctx context.Context, req report.Request) ([]report.ScoreRow, error)
	Timeline(ctx context.Context, actor domain.Actor, userID string, window domain.DateWindow) ([]gantt.Interval, error)
}

// ImportResult holds the outcome of an import.
type ImportResult struct {
	UserCount    int
	ProjectCount int
	GrantCount   int
	TaskCount    int
}

type ImportService interface {
	Import(ctx context.Context, actor domain.Actor, filePath string) (*ImportResult, error)
	ImportFromSchema(ctx context.Context, actor domain.Actor, schema *importer.ImportSchema) (*ImportResult, error)
}
