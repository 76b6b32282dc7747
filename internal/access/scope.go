package access

import (
	"context"
	"fmt"

	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/repository"
)

// ReadableProjects lists the ids of projects a non-admin user can read:
// public projects plus granted ones.
type ReadableProjects interface {
	ListReadableIDs(ctx context.Context, userID string) ([]string, error)
}

// Resolver builds a Scope per request.
type Resolver struct {
	projects ReadableProjects
}

func NewResolver(projects ReadableProjects) *Resolver {
	return &Resolver{projects: projects}
}

// ScopeFor loads the readable project set for actor. Grants and revocations
// are visible to the next call.
func (r *Resolver) ScopeFor(ctx context.Context, actor domain.Actor) (*Scope, error) {
	if actor.IsAdmin() {
		return &Scope{Actor: actor, all: true}, nil
	}
	ids, err := r.projects.ListReadableIDs(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolving readable projects: %w", err)
	}
	readable := make(map[string]bool, len(ids))
	for _, id := range ids {
		readable[id] = true
	}
	return &Scope{Actor: actor, ids: ids, readable: readable}, nil
}

// Scope is an actor plus the projects it can read.
type Scope struct {
	Actor    domain.Actor
	all      bool
	ids      []string
	readable map[string]bool
}

// AllProjects reports whether the actor can read every project.
func (s *Scope) AllProjects() bool { return s.all }

// ProjectIDs returns the readable project ids. Meaningless when AllProjects.
func (s *Scope) ProjectIDs() []string { return s.ids }

func (s *Scope) CanReadProject(projectID string) bool {
	return s.all || s.readable[projectID]
}

func (s *Scope) CanAccess(r Resource, op Operation) bool {
	return Decide(s.Actor, r, op, s.CanReadProject(r.ProjectID))
}

// TaskFilter restricts f to the readable projects.
func (s *Scope) TaskFilter(f repository.TaskFilter) repository.TaskFilter {
	if s.all {
		f.AllProjects = true
		f.ProjectIDs = nil
		return f
	}
	f.AllProjects = false
	f.ProjectIDs = append([]string{}, s.ids...)
	return f
}
