package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/Kitrop/workflow/internal/db"
	"github.com/Kitrop/workflow/internal/domain"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestUoW creates a UnitOfWork backed by the given test database.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}

type creator[T any] interface {
	Create(ctx context.Context, v T) error
}

// MustCreate stores v through repo or fails the test. Tasks stored this way
// get no history entries.
func MustCreate[T any](t *testing.T, repo creator[T], v T) T {
	t.Helper()
	if err := repo.Create(context.Background(), v); err != nil {
		t.Fatalf("seeding %T: %v", v, err)
	}
	return v
}

type granter interface {
	Grant(ctx context.Context, g *domain.AccessGrant) (bool, error)
}

// MustGrant gives userID read access to projectID or fails the test.
func MustGrant(t *testing.T, repo granter, userID, projectID string) {
	t.Helper()
	g := &domain.AccessGrant{UserID: userID, ProjectID: projectID, GrantedAt: Now()}
	if _, err := repo.Grant(context.Background(), g); err != nil {
		t.Fatalf("granting %s on %s: %v", userID, projectID, err)
	}
}
