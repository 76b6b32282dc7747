package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kitrop/workflow/internal/access"
	"github.com/Kitrop/workflow/internal/db"
	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/repository"
)

type projectService struct {
	projects repository.ProjectRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewProjectService(projects repository.ProjectRepo, uow db.UnitOfWork, observers ...UseCaseObserver) ProjectService {
	return &projectService{projects: projects, uow: uow, observer: useCaseObserverOrNoop(observers)}
}

func requireProjectWrite(actor domain.Actor, projectID string) error {
	if !access.Decide(actor, access.ProjectResource(projectID), access.Write, false) {
		return domain.Forbiddenf("admin role required to change projects")
	}
	return nil
}

func (s *projectService) Create(ctx context.Context, actor domain.Actor, p *domain.Project) (err error) {
	done := track(ctx, s.observer, "project.create", map[string]any{"name": p.Name})
	defer func() { done(err) }()

	if err = requireProjectWrite(actor, p.ID); err != nil {
		return err
	}
	prepareProject(p)
	if err = p.Validate(); err != nil {
		return err
	}
	return s.projects.Create(ctx, p)
}

func prepareProject(p *domain.Project) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Color == "" {
		p.Color = domain.DefaultProjectColor
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
}

func (s *projectService) Get(ctx context.Context, actor domain.Actor, id string) (p *domain.Project, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var readable bool
		p, readable, err = projectReadable(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if !access.Decide(actor, access.ProjectResource(id), access.Read, readable) {
			return domain.Forbiddenf("read access to project %s denied", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *projectService) GetByName(ctx context.Context, actor domain.Actor, name string) (*domain.Project, error) {
	p, err := s.projects.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, p.ID)
}

// List returns the projects the actor can read.
func (s *projectService) List(ctx context.Context, actor domain.Actor) ([]*domain.Project, error) {
	return s.readable(ctx, actor, func(*domain.Project) bool { return true })
}

func (s *projectService) Search(ctx context.Context, actor domain.Actor, query string) ([]*domain.Project, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	return s.readable(ctx, actor, func(p *domain.Project) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	})
}

// readable lists the projects the actor's scope can read that match keep.
func (s *projectService) readable(ctx context.Context, actor domain.Actor, keep func(*domain.Project) bool) (out []*domain.Project, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteProjectRepo(tx)
		scope, err := access.NewResolver(repo).ScopeFor(ctx, actor)
		if err != nil {
			return err
		}
		all, err := repo.List(ctx)
		if err != nil {
			return err
		}
		out = make([]*domain.Project, 0, len(all))
		for _, p := range all {
			if scope.CanAccess(access.ProjectResource(p.ID), access.Read) && keep(p) {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

func (s *projectService) Update(ctx context.Context, actor domain.Actor, p *domain.Project) (err error) {
	done := track(ctx, s.observer, "project.update", map[string]any{"project_id": p.ID})
	defer func() { done(err) }()

	if err = requireProjectWrite(actor, p.ID); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(p.Name)
	if err = p.Validate(); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	return s.projects.Update(ctx, p)
}

// Delete removes an empty project. A project that still has tasks is a
// Conflict; grants go with it.
func (s *projectService) Delete(ctx context.Context, actor domain.Actor, id string) (err error) {
	done := track(ctx, s.observer, "project.delete", map[string]any{"project_id": id})
	defer func() { done(err) }()

	if err = requireProjectWrite(actor, id); err != nil {
		return err
	}
	return s.projects.Delete(ctx, id)
}

func (s *projectService) Grant(ctx context.Context, actor domain.Actor, projectID, userID string) (g *domain.AccessGrant, created bool, err error) {
	done := track(ctx, s.observer, "project.grant", map[string]any{"project_id": projectID, "user_id": userID})
	defer func() { done(err) }()

	if err = requireUserAdmin(actor); err != nil {
		return nil, false, err
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		g, created, err = grantTx(ctx, tx, actor, projectID, userID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return g, created, nil
}

// grantTx inserts the grant if absent and returns the stored one.
func grantTx(ctx context.Context, tx db.DBTX, actor domain.Actor, projectID, userID string) (*domain.AccessGrant, bool, error) {
	if _, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, projectID); err != nil {
		return nil, false, err
	}
	if _, err := repository.NewSQLiteUserRepo(tx).GetByID(ctx, userID); err != nil {
		return nil, false, err
	}
	grants := repository.NewSQLiteGrantRepo(tx)
	created, err := grants.Grant(ctx, &domain.AccessGrant{
		UserID:    userID,
		ProjectID: projectID,
		GrantedBy: actor.UserID,
		GrantedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, false, err
	}
	g, err := grants.Get(ctx, userID, projectID)
	if err != nil {
		return nil, false, err
	}
	return g, created, nil
}

func (s *projectService) Revoke(ctx context.Context, actor domain.Actor, projectID, userID string) (err error) {
	done := track(ctx, s.observer, "project.revoke", map[string]any{"project_id": projectID, "user_id": userID})
	defer func() { done(err) }()

	if err = requireUserAdmin(actor); err != nil {
		return err
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		removed, err := repository.NewSQLiteGrantRepo(tx).Revoke(ctx, userID, projectID)
		if err != nil {
			return err
		}
		if !removed {
			return domain.NotFoundf("grant for user %s on project %s", userID, projectID)
		}
		return nil
	})
}

func (s *projectService) ListGrants(ctx context.Context, actor domain.Actor, projectID string) (out []domain.AccessGrant, err error) {
	if err = requireUserAdmin(actor); err != nil {
		return nil, err
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, projectID); err != nil {
			return err
		}
		out, err = repository.NewSQLiteGrantRepo(tx).ListByProject(ctx, projectID)
		return err
	})
	return out, err
}
