package report

import (
	"context"
	"fmt"

	"github.com/Kitrop/workflow/internal/access"
	"github.com/Kitrop/workflow/internal/db"
	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/repository"
)

// snapshot is everything one report reads, loaded in one transaction.
// tasks are already restricted to the actor's readable projects.
type snapshot struct {
	tasks    []*domain.Task
	users    map[string]*domain.User
	projects map[string]*domain.Project
	types    map[string]domain.TaskType
}

func loadSnapshot(ctx context.Context, uow db.UnitOfWork, actor domain.Actor, f repository.TaskFilter) (*snapshot, error) {
	var s snapshot
	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		projectRepo := repository.NewSQLiteProjectRepo(tx)
		scope, err := access.NewResolver(projectRepo).ScopeFor(ctx, actor)
		if err != nil {
			return err
		}
		if s.tasks, err = repository.NewSQLiteTaskRepo(tx).List(ctx, scope.TaskFilter(f)); err != nil {
			return fmt.Errorf("loading tasks: %w", err)
		}

		users, err := repository.NewSQLiteUserRepo(tx).List(ctx)
		if err != nil {
			return fmt.Errorf("loading users: %w", err)
		}
		s.users = make(map[string]*domain.User, len(users))
		for _, u := range users {
			s.users[u.ID] = u
		}

		projects, err := projectRepo.List(ctx)
		if err != nil {
			return fmt.Errorf("loading projects: %w", err)
		}
		s.projects = make(map[string]*domain.Project, len(projects))
		for _, p := range projects {
			s.projects[p.ID] = p
		}

		types, err := repository.NewSQLiteTaskTypeRepo(tx).List(ctx)
		if err != nil {
			return fmt.Errorf("loading task types: %w", err)
		}
		s.types = make(map[string]domain.TaskType, len(types))
		for _, tt := range types {
			s.types[tt.Name] = tt
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *snapshot) userLabel(id string) string {
	if u, ok := s.users[id]; ok {
		return u.DisplayName()
	}
	return id
}

func (s *snapshot) projectLabel(id string) string {
	if p, ok := s.projects[id]; ok {
		return p.Name
	}
	return id
}

func (s *snapshot) typeLabel(name string) string {
	if tt, ok := s.types[name]; ok && tt.DisplayName != "" {
		return tt.DisplayName
	}
	return name
}
