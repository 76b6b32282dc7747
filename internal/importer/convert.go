package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kitrop/workflow/internal/domain"
)

// UserDraft is a user to create. The password is still plain text; the
// caller hashes it.
type UserDraft struct {
	ID             string
	Username       string
	FullName       string
	Password       string
	Role           domain.Role
	CanLoadTasks   bool
	CanViewReports bool
	Color          string
}

// Plan is a converted document in write order.
type Plan struct {
	Users    []UserDraft
	Projects []*domain.Project
	Grants   []domain.AccessGrant
	Tasks    []*domain.Task
}

// Convert turns a validated document into domain objects. Call
// ValidateImportSchema and ValidateReferences first; Convert assumes both
// passed.
func Convert(schema *ImportSchema, known Known) (*Plan, error) {
	now := time.Now().UTC()

	userIDs := make(map[string]string, len(known.Users)+len(schema.Users))
	for name, id := range known.Users {
		userIDs[name] = id
	}
	projectIDs := make(map[string]string, len(known.Projects)+len(schema.Projects))
	for name, id := range known.Projects {
		projectIDs[name] = id
	}

	plan := &Plan{}

	for _, u := range schema.Users {
		d := UserDraft{
			ID:             uuid.New().String(),
			Username:       strings.TrimSpace(u.Username),
			FullName:       u.FullName,
			Password:       u.Password,
			Role:           domain.Role(domain.CoalesceStr(u.Role, string(domain.RoleUser))),
			CanLoadTasks:   u.CanLoadTasks,
			CanViewReports: u.CanViewReports,
			Color:          u.Color,
		}
		userIDs[d.Username] = d.ID
		plan.Users = append(plan.Users, d)
	}

	for _, p := range schema.Projects {
		project := &domain.Project{
			ID:          uuid.New().String(),
			Name:        strings.TrimSpace(p.Name),
			Description: p.Description,
			IsPublic:    p.IsPublic,
			Color:       domain.CoalesceStr(p.Color, domain.DefaultProjectColor),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		projectIDs[project.Name] = project.ID
		plan.Projects = append(plan.Projects, project)
	}

	lookupUser := func(name string) (string, error) {
		if name == "" {
			return "", nil
		}
		id, ok := userIDs[name]
		if !ok {
			return "", fmt.Errorf("user %q not found", name)
		}
		return id, nil
	}
	lookupProject := func(name string) (string, error) {
		id, ok := projectIDs[strings.TrimSpace(name)]
		if !ok {
			return "", fmt.Errorf("project %q not found", name)
		}
		return id, nil
	}

	for _, g := range schema.Grants {
		userID, err := lookupUser(g.Username)
		if err != nil {
			return nil, err
		}
		projectID, err := lookupProject(g.Project)
		if err != nil {
			return nil, err
		}
		plan.Grants = append(plan.Grants, domain.AccessGrant{UserID: userID, ProjectID: projectID})
	}

	for i, t := range schema.Tasks {
		task, err := convertTask(t, lookupUser, lookupProject)
		if err != nil {
			return nil, fmt.Errorf("tasks[%d]: %w", i, err)
		}
		plan.Tasks = append(plan.Tasks, task)
	}

	return plan, nil
}

func convertTask(t TaskImport, lookupUser, lookupProject func(string) (string, error)) (*domain.Task, error) {
	projectID, err := lookupProject(t.Project)
	if err != nil {
		return nil, err
	}
	issueDate, err := time.Parse(domain.DateLayout, t.IssueDate)
	if err != nil {
		return nil, fmt.Errorf("parsing issue_date: %w", err)
	}
	task := &domain.Task{
		ProjectID: projectID,
		Type:      taskType(t),
		Name:      strings.TrimSpace(t.Name),
		IssueURL:  t.IssueURL,
		IssueDate: issueDate,
		Extra:     domain.ExtraFields(t.Extra).Clone(),
	}
	if task.AssigneeID, err = lookupUser(t.Assignee); err != nil {
		return nil, err
	}
	if task.ManagerID, err = lookupUser(t.Manager); err != nil {
		return nil, err
	}

	for _, p := range t.Periods {
		start, err := time.Parse(domain.DateLayout, p.Start)
		if err != nil {
			return nil, fmt.Errorf("parsing period start: %w", err)
		}
		end, err := time.Parse(domain.DateLayout, p.End)
		if err != nil {
			return nil, fmt.Errorf("parsing period end: %w", err)
		}
		tester, err := lookupUser(p.Tester)
		if err != nil {
			return nil, err
		}
		task.Periods = append(task.Periods, domain.Period{
			ID:       uuid.New().String(),
			Type:     domain.PeriodType(p.Type),
			Start:    start,
			End:      end,
			TesterID: tester,
		})
	}

	for _, r := range t.Reviews {
		date, err := time.Parse(domain.DateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("parsing review date: %w", err)
		}
		reviewer, err := lookupUser(r.Reviewer)
		if err != nil {
			return nil, err
		}
		task.Reviews = append(task.Reviews, domain.Review{
			ID:         uuid.New().String(),
			ReviewerID: reviewer,
			ReviewDate: date,
		})
	}

	return task, nil
}
