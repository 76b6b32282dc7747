package domain

import (
	"strings"
	"time"
)

type User struct {
	ID             string
	Username       string
	FullName       string
	PasswordHash   string
	Role           Role
	CanLoadTasks   bool
	CanViewReports bool
	Color          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the fields a user must always carry.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return Validationf("username is required")
	}
	if !ValidRoles[u.Role] {
		return Validationf("unknown role %q", u.Role)
	}
	return nil
}

// DisplayName returns the full name when set, otherwise the username.
func (u *User) DisplayName() string {
	return CoalesceStr(u.FullName, u.Username)
}

// Actor is the resolved identity performing an operation. Authentication
// adapters build it; the core trusts it as given.
type Actor struct {
	UserID         string
	Username       string
	Role           Role
	CanLoadTasks   bool
	CanViewReports bool
}

// ActorFor builds the actor identity of a stored user.
func ActorFor(u *User) Actor {
	return Actor{
		UserID:         u.ID,
		Username:       u.Username,
		Role:           u.Role,
		CanLoadTasks:   u.CanLoadTasks,
		CanViewReports: u.CanViewReports,
	}
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
