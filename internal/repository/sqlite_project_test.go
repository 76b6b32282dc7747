package repository

import (
	"context"
	"testing"

	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRepo_CreateAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	proj := testutil.NewTestProject("Backend", testutil.WithPublic(), testutil.WithDescription("API work"))
	require.NoError(t, repo.Create(ctx, proj))

	fetched, err := repo.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, proj.ID, fetched.ID)
	assert.Equal(t, "Backend", fetched.Name)
	assert.Equal(t, "API work", fetched.Description)
	assert.True(t, fetched.IsPublic)
	assert.Equal(t, domain.DefaultProjectColor, fetched.Color)
	assert.True(t, proj.CreatedAt.Equal(fetched.CreatedAt))

	byName, err := repo.GetByName(ctx, "Backend")
	require.NoError(t, err)
	assert.Equal(t, proj.ID, byName.ID)
}

func TestProjectRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)

	_, err := repo.GetByID(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectRepo_DuplicateName_Conflict(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestProject("Mobile")))
	err := repo.Create(ctx, testutil.NewTestProject("Mobile"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)

	other := testutil.NewTestProject("Web")
	require.NoError(t, repo.Create(ctx, other))
	other.Name = "Mobile"
	assert.ErrorIs(t, repo.Update(ctx, other), domain.ErrConflict)
}

func TestProjectRepo_ListReadableIDs(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	projects := NewSQLiteProjectRepo(db)
	grants := NewSQLiteGrantRepo(db)
	users := NewSQLiteUserRepo(db)

	alice := testutil.MustCreate(t, users, testutil.NewTestUser("alice"))
	bob := testutil.MustCreate(t, users, testutil.NewTestUser("bob"))
	public := testutil.MustCreate(t, projects, testutil.NewTestProject("Public", testutil.WithPublic()))
	secret := testutil.MustCreate(t, projects, testutil.NewTestProject("Secret"))
	testutil.MustCreate(t, projects, testutil.NewTestProject("Other"))
	testutil.MustGrant(t, grants, alice.ID, secret.ID)

	ids, err := projects.ListReadableIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{public.ID, secret.ID}, ids)

	ids, err = projects.ListReadableIDs(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{public.ID}, ids)
}

func TestProjectRepo_UpdateAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	proj := testutil.MustCreate(t, repo, testutil.NewTestProject("Infra"))
	proj.IsPublic = true
	proj.Color = "#00ff00"
	require.NoError(t, repo.Update(ctx, proj))

	fetched, err := repo.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	assert.True(t, fetched.IsPublic)
	assert.Equal(t, "#00ff00", fetched.Color)

	require.NoError(t, repo.Delete(ctx, proj.ID))
	assert.ErrorIs(t, repo.Delete(ctx, proj.ID), ErrNotFound)
}

func TestProjectRepo_Delete_WithTasksConflicts(t *testing.T) {
	db := testutil.NewTestDB(t)
	projects := NewSQLiteProjectRepo(db)
	tasks := NewSQLiteTaskRepo(db)
	ctx := context.Background()

	proj := testutil.MustCreate(t, projects, testutil.NewTestProject("Busy"))
	testutil.MustCreate(t, tasks, testutil.NewTestTask(proj.ID, "Still here"))

	err := projects.Delete(ctx, proj.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
}
