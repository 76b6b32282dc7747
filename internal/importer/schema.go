package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Kitrop/workflow/internal/domain"
)

// ImportSchema is the top-level JSON structure for bulk import. Entities
// refer to each other by username and project name; references may point at
// records in the document or already in the store.
type ImportSchema struct {
	Users    []UserImport    `json:"users,omitempty"`
	Projects []ProjectImport `json:"projects,omitempty"`
	Grants   []GrantImport   `json:"grants,omitempty"`
	Tasks    []TaskImport    `json:"tasks,omitempty"`
}

type UserImport struct {
	Username       string `json:"username"`
	FullName       string `json:"full_name,omitempty"`
	Password       string `json:"password,omitempty"`
	Role           string `json:"role,omitempty"`
	CanLoadTasks   bool   `json:"can_load_tasks,omitempty"`
	CanViewReports bool   `json:"can_view_reports,omitempty"`
	Color          string `json:"color,omitempty"`
}

type ProjectImport struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPublic    bool   `json:"is_public,omitempty"`
	Color       string `json:"color,omitempty"`
}

type GrantImport struct {
	Username string `json:"username"`
	Project  string `json:"project"`
}

type TaskImport struct {
	Project   string                  `json:"project"`
	Type      string                  `json:"type,omitempty"`
	Name      string                  `json:"name"`
	IssueURL  string                  `json:"issue_url,omitempty"`
	IssueDate string                  `json:"issue_date"`
	Assignee  string                  `json:"assignee,omitempty"`
	Manager   string                  `json:"manager,omitempty"`
	Extra     map[string]domain.Value `json:"extra,omitempty"`
	Periods   []PeriodImport          `json:"periods,omitempty"`
	Reviews   []ReviewImport          `json:"reviews,omitempty"`
}

type PeriodImport struct {
	Type   string `json:"type"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Tester string `json:"tester,omitempty"`
}

type ReviewImport struct {
	Reviewer string `json:"reviewer"`
	Date     string `json:"date"`
}

// LoadImportSchema reads and parses an import JSON file.
func LoadImportSchema(path string) (*ImportSchema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()
	return DecodeImportSchema(f)
}

// DecodeImportSchema parses an import document. Unknown fields are rejected.
func DecodeImportSchema(r io.Reader) (*ImportSchema, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var schema ImportSchema
	if err := dec.Decode(&schema); err != nil {
		return nil, domain.Validationf("parsing import file: %v", err)
	}
	return &schema, nil
}
