// Package access decides whether an actor may read or write a project or a
// task. The decision itself is a pure function; Scope precomputes the set of
// projects an actor can read so that listings, counts, reports and
// timelines all filter through the same place.
package access

import "github.com/Kitrop/workflow/internal/domain"

type Operation string

const (
	Read  Operation = "read"
	Write Operation = "write"
)

type ResourceKind int

const (
	KindProject ResourceKind = iota
	KindTask
)

// Resource identifies what is being accessed. A task is identified by its
// owning project plus the two users allowed to write it.
type Resource struct {
	Kind       ResourceKind
	ProjectID  string
	AssigneeID string
	ManagerID  string
}

func ProjectResource(projectID string) Resource {
	return Resource{Kind: KindProject, ProjectID: projectID}
}

func TaskResource(t *domain.Task) Resource {
	return Resource{
		Kind:       KindTask,
		ProjectID:  t.ProjectID,
		AssigneeID: t.AssigneeID,
		ManagerID:  t.ManagerID,
	}
}

// ProjectReadable is the read rule for a non-admin: the project is public or
// the actor holds a grant on it.
func ProjectReadable(isPublic, hasGrant bool) bool {
	return isPublic || hasGrant
}

// Decide is the policy table. projectReadable is the result of
// ProjectReadable for the resource's project.
func Decide(a domain.Actor, r Resource, op Operation, projectReadable bool) bool {
	if a.IsAdmin() {
		return true
	}
	if !projectReadable {
		return false
	}
	switch r.Kind {
	case KindProject:
		return op == Read
	case KindTask:
		if op == Read {
			return true
		}
		if op != Write || a.UserID == "" {
			return false
		}
		return r.AssigneeID == a.UserID || r.ManagerID == a.UserID
	}
	return false
}

// CanLoadTasks gates task creation and bulk import.
func CanLoadTasks(a domain.Actor) bool {
	return a.IsAdmin() || a.CanLoadTasks
}

// CanViewReports gates every report, scorecard and timeline.
func CanViewReports(a domain.Actor) bool {
	return a.IsAdmin() || a.Role == domain.RoleModerator || a.CanViewReports
}

// CanManageUsers gates user administration and access grants.
func CanManageUsers(a domain.Actor) bool {
	return a.IsAdmin()
}
