package domain

import (
	"regexp"
	"strings"
	"time"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type Project struct {
	ID          string
	Name        string
	Description string
	IsPublic    bool
	Color       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the project name and display color.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return Validationf("project name is required")
	}
	if p.Color != "" && !colorPattern.MatchString(p.Color) {
		return Validationf("color %q must be a hex value like #1f77b4", p.Color)
	}
	return nil
}

// AccessGrant gives one user read access to one non-public project.
// (UserID, ProjectID) is unique.
type AccessGrant struct {
	UserID    string
	ProjectID string
	GrantedBy string
	GrantedAt time.Time
}

// ValidColor reports whether s is a #rrggbb color.
func ValidColor(s string) bool {
	return colorPattern.MatchString(s)
}
