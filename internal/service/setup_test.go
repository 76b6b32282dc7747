package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Kitrop/workflow/internal/db"
	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/history"
	"github.com/Kitrop/workflow/internal/repository"
	"github.com/Kitrop/workflow/internal/testutil"
)

type env struct {
	db       *sql.DB
	users    *repository.SQLiteUserRepo
	projects *repository.SQLiteProjectRepo
	grants   *repository.SQLiteGrantRepo
	taskRepo *repository.SQLiteTaskRepo
	history  *repository.SQLiteHistoryRepo

	userSvc    UserService
	projectSvc ProjectService
	taskSvc    TaskService

	admin domain.Actor
}

func setup(t *testing.T) *env {
	t.Helper()
	database := testutil.NewTestDB(t)
	return setupWithUoW(t, database, testutil.NewTestUoW(database))
}

// setupFileDB uses a file database so concurrent transactions get their own
// connections.
func setupFileDB(t *testing.T) *env {
	t.Helper()
	database, err := db.OpenDB(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return setupWithUoW(t, database, db.NewSQLiteUnitOfWork(database))
}

func setupWithUoW(t *testing.T, database *sql.DB, uow db.UnitOfWork) *env {
	t.Helper()
	e := &env{
		db:       database,
		users:    repository.NewSQLiteUserRepo(database),
		projects: repository.NewSQLiteProjectRepo(database),
		grants:   repository.NewSQLiteGrantRepo(database),
		taskRepo: repository.NewSQLiteTaskRepo(database),
		history:  repository.NewSQLiteHistoryRepo(database),
	}
	e.userSvc = NewUserService(e.users)
	e.projectSvc = NewProjectService(e.projects, uow)
	e.taskSvc = NewTaskService(repository.NewSQLiteTaskTypeRepo(database), uow, history.NewRecorder())

	admin := testutil.MustCreate(t, e.users, testutil.NewTestUser("root", testutil.WithRole(domain.RoleAdmin)))
	e.admin = domain.ActorFor(admin)
	return e
}

func (e *env) user(t *testing.T, name string, opts ...testutil.UserOption) (*domain.User, domain.Actor) {
	t.Helper()
	u := testutil.MustCreate(t, e.users, testutil.NewTestUser(name, opts...))
	return u, domain.ActorFor(u)
}

func (e *env) project(t *testing.T, name string, opts ...testutil.ProjectOption) *domain.Project {
	t.Helper()
	return testutil.MustCreate(t, e.projects, testutil.NewTestProject(name, opts...))
}

// createTask goes through the service so the create entry is recorded.
func (e *env) createTask(t *testing.T, projectID, name string, opts ...testutil.TaskOption) *domain.Task {
	t.Helper()
	task := testutil.NewTestTask(projectID, name, opts...)
	require.NoError(t, e.taskSvc.Create(context.Background(), e.admin, task))
	return task
}

func (e *env) historyOf(t *testing.T, taskID string) []domain.TaskHistoryEntry {
	t.Helper()
	entries, err := e.history.ListByTask(context.Background(), taskID)
	require.NoError(t, err)
	return entries
}
