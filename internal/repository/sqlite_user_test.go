package repository

import (
	"context"
	"testing"

	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepo_Roundtrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteUserRepo(db)
	ctx := context.Background()

	u := testutil.NewTestUser("carol",
		testutil.WithRole(domain.RoleModerator),
		testutil.WithCanViewReports(),
		testutil.WithFullName("Carol C."))
	u.PasswordHash = "hash"
	require.NoError(t, repo.Create(ctx, u))

	fetched, err := repo.GetByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, u.ID, fetched.ID)
	assert.Equal(t, domain.RoleModerator, fetched.Role)
	assert.True(t, fetched.CanViewReports)
	assert.False(t, fetched.CanLoadTasks)
	assert.Equal(t, "Carol C.", fetched.FullName)
	assert.Equal(t, "hash", fetched.PasswordHash)

	fetched.CanLoadTasks = true
	fetched.Role = domain.RoleAdmin
	require.NoError(t, repo.Update(ctx, fetched))

	again, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, again.CanLoadTasks)
	assert.Equal(t, domain.RoleAdmin, again.Role)
}

func TestUserRepo_DuplicateUsername(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteUserRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestUser("dave")))
	err := repo.Create(ctx, testutil.NewTestUser("dave"))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUserRepo_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteUserRepo(db)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByUsername(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, testutil.NewTestUser("ghost")), ErrNotFound)
}

func TestUserRepo_ListSortedByUsername(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteUserRepo(db)

	testutil.MustCreate(t, repo, testutil.NewTestUser("zed"))
	testutil.MustCreate(t, repo, testutil.NewTestUser("amy"))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "amy", users[0].Username)
	assert.Equal(t, "zed", users[1].Username)
}

func TestUserRepo_Delete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteUserRepo(db)
	ctx := context.Background()
	p := testutil.MustCreate(t, NewSQLiteProjectRepo(db), testutil.NewTestProject("Core"))
	tester := testutil.MustCreate(t, repo, testutil.NewTestUser("tom"))
	idle := testutil.MustCreate(t, repo, testutil.NewTestUser("ida"))
	testutil.MustCreate(t, NewSQLiteTaskRepo(db),
		testutil.NewTestTask(p.ID, "x", testutil.WithTestPeriod(tester.ID, "2024-01-01", "2024-01-02")))

	assert.ErrorIs(t, repo.Delete(ctx, tester.ID), domain.ErrConflict)
	require.NoError(t, repo.Delete(ctx, idle.ID))
	_, err := repo.GetByID(ctx, idle.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, idle.ID), ErrNotFound)
}

func TestTaskTypeRepo(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskTypeRepo(db)
	ctx := context.Background()

	types, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 4)

	require.NoError(t, repo.Create(ctx, &domain.TaskType{Name: "ops", DisplayName: "Operations"}))
	assert.ErrorIs(t, repo.Create(ctx, &domain.TaskType{Name: "ops", DisplayName: "Ops"}), domain.ErrConflict)

	tt, err := repo.Get(ctx, "ops")
	require.NoError(t, err)
	assert.Equal(t, "Operations", tt.DisplayName)

	_, err = repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
