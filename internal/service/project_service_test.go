package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/testutil"
)

func TestProjectService_CreateRequiresAdmin(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	_, mod := e.user(t, "mod", testutil.WithRole(domain.RoleModerator))

	err := e.projectSvc.Create(ctx, mod, &domain.Project{Name: "Nope"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	p := &domain.Project{Name: "  Core  "}
	require.NoError(t, e.projectSvc.Create(ctx, e.admin, p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Core", p.Name)
	assert.Equal(t, domain.DefaultProjectColor, p.Color)

	err = e.projectSvc.Create(ctx, e.admin, &domain.Project{Name: "Core"})
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestProjectService_GetDistinguishesNotFoundFromForbidden(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	hidden := e.project(t, "Hidden")
	u, actor := e.user(t, "u")

	_, err := e.projectSvc.Get(ctx, actor, hidden.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = e.projectSvc.Get(ctx, actor, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	testutil.MustGrant(t, e.grants, u.ID, hidden.ID)
	got, err := e.projectSvc.Get(ctx, actor, hidden.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hidden", got.Name)

	got, err = e.projectSvc.GetByName(ctx, actor, "Hidden")
	require.NoError(t, err)
	assert.Equal(t, hidden.ID, got.ID)
}

func TestProjectService_ListFiltersByReadAccess(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.project(t, "Open", testutil.WithPublic())
	granted := e.project(t, "Granted")
	e.project(t, "Hidden")
	u, actor := e.user(t, "u")
	testutil.MustGrant(t, e.grants, u.ID, granted.ID)

	list, err := e.projectSvc.List(ctx, actor)
	require.NoError(t, err)
	names := make([]string, 0, len(list))
	for _, p := range list {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"Open", "Granted"}, names)

	all, err := e.projectSvc.List(ctx, e.admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestProjectService_SearchFiltersByReadAccess(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.project(t, "Core Open", testutil.WithPublic())
	e.project(t, "Core Hidden")
	e.project(t, "Web")
	_, actor := e.user(t, "u")

	found, err := e.projectSvc.Search(ctx, actor, "core")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Core Open", found[0].Name)

	found, err = e.projectSvc.Search(ctx, e.admin, "CORE")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestProjectService_GrantIsIdempotent(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	p := e.project(t, "Core")
	u, _ := e.user(t, "u")

	first, created, err := e.projectSvc.Grant(ctx, e.admin, p.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := e.projectSvc.Grant(ctx, e.admin, p.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, first.GrantedAt.Equal(second.GrantedAt), "original grant time is kept")

	grants, err := e.projectSvc.ListGrants(ctx, e.admin, p.ID)
	require.NoError(t, err)
	assert.Len(t, grants, 1)
}

func TestProjectService_GrantChecks(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	p := e.project(t, "Core")
	u, actor := e.user(t, "u")

	_, _, err := e.projectSvc.Grant(ctx, actor, p.ID, u.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, _, err = e.projectSvc.Grant(ctx, e.admin, "missing", u.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, _, err = e.projectSvc.Grant(ctx, e.admin, p.ID, "ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestProjectService_RevokeMissingGrantIsNotFound(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	p := e.project(t, "Core")
	u, _ := e.user(t, "u")

	err := e.projectSvc.Revoke(ctx, e.admin, p.ID, u.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	testutil.MustGrant(t, e.grants, u.ID, p.ID)
	require.NoError(t, e.projectSvc.Revoke(ctx, e.admin, p.ID, u.ID))
}

func TestProjectService_DeleteWithTasksConflicts(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	busy := e.project(t, "Busy")
	empty := e.project(t, "Empty")
	task := e.createTask(t, busy.ID, "t")

	err := e.projectSvc.Delete(ctx, e.admin, busy.ID)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	require.NoError(t, e.taskSvc.Delete(ctx, e.admin, task.ID))
	assert.NoError(t, e.projectSvc.Delete(ctx, e.admin, busy.ID))
	assert.NoError(t, e.projectSvc.Delete(ctx, e.admin, empty.ID))

	err = e.projectSvc.Delete(ctx, e.admin, empty.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestProjectService_Update(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	p := e.project(t, "Core")
	_, actor := e.user(t, "u")

	p.Description = "changed"
	assert.True(t, errors.Is(e.projectSvc.Update(ctx, actor, p), domain.ErrForbidden))
	require.NoError(t, e.projectSvc.Update(ctx, e.admin, p))

	got, err := e.projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Description)
}
