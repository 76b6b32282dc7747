package repository

import (
	"context"

	"github.com/Kitrop/workflow/internal/domain"
)

// TaskFilter narrows task reads. ProjectIDs limits rows to the listed
// projects unless AllProjects is set; an empty list matches nothing.
// Offset and Limit page List in issue date order; a zero Limit means no
// limit. Count ignores both.
type TaskFilter struct {
	AllProjects bool
	ProjectIDs  []string
	ProjectID   string
	AssigneeID  string
	Offset      int
	Limit       int
}

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
}

type TaskTypeRepo interface {
	Create(ctx context.Context, tt *domain.TaskType) error
	Get(ctx context.Context, name string) (*domain.TaskType, error)
	List(ctx context.Context) ([]domain.TaskType, error)
}

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByName(ctx context.Context, name string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	// ListReadableIDs returns ids of public projects plus those granted to userID.
	ListReadableIDs(ctx context.Context, userID string) ([]string, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}

type GrantRepo interface {
	// Grant inserts the pair if absent and reports whether a row was created.
	Grant(ctx context.Context, g *domain.AccessGrant) (bool, error)
	Get(ctx context.Context, userID, projectID string) (*domain.AccessGrant, error)
	// Revoke deletes the pair and reports whether a row existed.
	Revoke(ctx context.Context, userID, projectID string) (bool, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.AccessGrant, error)
	ListByUser(ctx context.Context, userID string) ([]domain.AccessGrant, error)
}

type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, f TaskFilter) ([]*domain.Task, error)
	Count(ctx context.Context, f TaskFilter) (int, error)
	CountByProject(ctx context.Context, projectID string) (int, error)
	Update(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id string) error
}

type HistoryRepo interface {
	Append(ctx context.Context, entries []domain.TaskHistoryEntry) error
	// ListByTask returns entries newest first.
	ListByTask(ctx context.Context, taskID string) ([]domain.TaskHistoryEntry, error)
}
