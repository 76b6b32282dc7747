package service

import (
	"context"
	"errors"

	"github.com/Kitrop/workflow/internal/access"
	"github.com/Kitrop/workflow/internal/db"
	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/repository"
)

// projectReadable loads projectID and reports whether actor may read it.
// A missing project is NotFound for everyone.
func projectReadable(ctx context.Context, conn db.DBTX, actor domain.Actor, projectID string) (*domain.Project, bool, error) {
	p, err := repository.NewSQLiteProjectRepo(conn).GetByID(ctx, projectID)
	if err != nil {
		return nil, false, err
	}
	if actor.IsAdmin() || p.IsPublic {
		return p, true, nil
	}
	_, err = repository.NewSQLiteGrantRepo(conn).Get(ctx, actor.UserID, projectID)
	switch {
	case err == nil:
		return p, true, nil
	case errors.Is(err, domain.ErrNotFound):
		return p, false, nil
	default:
		return nil, false, err
	}
}

// requireTask loads a task and checks op against it.
func requireTask(ctx context.Context, conn db.DBTX, actor domain.Actor, id string, op access.Operation) (*domain.Task, error) {
	t, err := repository.NewSQLiteTaskRepo(conn).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	_, readable, err := projectReadable(ctx, conn, actor, t.ProjectID)
	if err != nil {
		return nil, err
	}
	if !access.Decide(actor, access.TaskResource(t), op, readable) {
		return nil, domain.Forbiddenf("%s access to task %s denied", op, id)
	}
	return t, nil
}

func requireUserAdmin(actor domain.Actor) error {
	if !access.CanManageUsers(actor) {
		return domain.Forbiddenf("admin role required")
	}
	return nil
}
