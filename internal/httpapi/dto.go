package httpapi

import (
	"time"

	"github.com/Kitrop/workflow/internal/domain"
)

type userJSON struct {
	ID             string      `json:"id"`
	Username       string      `json:"username"`
	FullName       string      `json:"full_name"`
	Role           domain.Role `json:"role"`
	CanLoadTasks   bool        `json:"can_load_tasks"`
	CanViewReports bool        `json:"can_view_reports"`
	Color          string      `json:"color"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func toUserJSON(u *domain.User) userJSON {
	return userJSON{
		ID:             u.ID,
		Username:       u.Username,
		FullName:       u.FullName,
		Role:           u.Role,
		CanLoadTasks:   u.CanLoadTasks,
		CanViewReports: u.CanViewReports,
		Color:          u.Color,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

type projectJSON struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"is_public"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProjectJSON(p *domain.Project) projectJSON {
	return projectJSON{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		IsPublic:    p.IsPublic,
		Color:       p.Color,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type projectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
	Color       string `json:"color"`
}

type grantJSON struct {
	UserID    string    `json:"user_id"`
	ProjectID string    `json:"project_id"`
	GrantedBy string    `json:"granted_by"`
	GrantedAt time.Time `json:"granted_at"`
}

func toGrantJSON(g domain.AccessGrant) grantJSON {
	return grantJSON{UserID: g.UserID, ProjectID: g.ProjectID, GrantedBy: g.GrantedBy, GrantedAt: g.GrantedAt}
}

type periodJSON struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type"`
	Start    string `json:"start"`
	End      string `json:"end"`
	TesterID string `json:"tester_id,omitempty"`
}

type reviewJSON struct {
	ID         string `json:"id,omitempty"`
	ReviewerID string `json:"reviewer_id"`
	ReviewDate string `json:"review_date"`
}

// taskJSON is both the task representation and the create/update body.
// Dates are YYYY-MM-DD.
type taskJSON struct {
	ID         string             `json:"id,omitempty"`
	ProjectID  string             `json:"project_id"`
	Type       string             `json:"type"`
	Name       string             `json:"name"`
	IssueURL   string             `json:"issue_url"`
	IssueDate  string             `json:"issue_date"`
	AssigneeID string             `json:"assignee_id,omitempty"`
	ManagerID  string             `json:"manager_id,omitempty"`
	Extra      domain.ExtraFields `json:"extra,omitempty"`
	Periods    []periodJSON       `json:"periods"`
	Reviews    []reviewJSON       `json:"reviews"`
	CreatedAt  *time.Time         `json:"created_at,omitempty"`
	UpdatedAt  *time.Time         `json:"updated_at,omitempty"`
}

func toTaskJSON(t *domain.Task) taskJSON {
	out := taskJSON{
		ID:         t.ID,
		ProjectID:  t.ProjectID,
		Type:       t.Type,
		Name:       t.Name,
		IssueURL:   t.IssueURL,
		IssueDate:  t.IssueDate.Format(domain.DateLayout),
		AssigneeID: t.AssigneeID,
		ManagerID:  t.ManagerID,
		Extra:      t.Extra,
		Periods:    make([]periodJSON, 0, len(t.Periods)),
		Reviews:    make([]reviewJSON, 0, len(t.Reviews)),
		CreatedAt:  &t.CreatedAt,
		UpdatedAt:  &t.UpdatedAt,
	}
	for _, p := range t.Periods {
		out.Periods = append(out.Periods, periodJSON{
			ID:       p.ID,
			Type:     string(p.Type),
			Start:    p.Start.Format(domain.DateLayout),
			End:      p.End.Format(domain.DateLayout),
			TesterID: p.TesterID,
		})
	}
	for _, r := range t.Reviews {
		out.Reviews = append(out.Reviews, reviewJSON{
			ID:         r.ID,
			ReviewerID: r.ReviewerID,
			ReviewDate: r.ReviewDate.Format(domain.DateLayout),
		})
	}
	return out
}

// toDomain parses the body into a task. Date errors are ValidationFailed.
func (in taskJSON) toDomain() (*domain.Task, error) {
	issue, err := domain.ParseDate(in.IssueDate)
	if err != nil {
		return nil, err
	}
	t := &domain.Task{
		ID:         in.ID,
		ProjectID:  in.ProjectID,
		Type:       domain.CoalesceStr(in.Type, domain.TaskTypeDevelopment),
		Name:       in.Name,
		IssueURL:   in.IssueURL,
		IssueDate:  issue,
		AssigneeID: in.AssigneeID,
		ManagerID:  in.ManagerID,
		Extra:      in.Extra,
	}
	for _, p := range in.Periods {
		start, err := domain.ParseDate(p.Start)
		if err != nil {
			return nil, err
		}
		end, err := domain.ParseDate(p.End)
		if err != nil {
			return nil, err
		}
		t.Periods = append(t.Periods, domain.Period{
			ID:       p.ID,
			Type:     domain.PeriodType(p.Type),
			Start:    start,
			End:      end,
			TesterID: p.TesterID,
		})
	}
	for _, r := range in.Reviews {
		d, err := domain.ParseDate(r.ReviewDate)
		if err != nil {
			return nil, err
		}
		t.Reviews = append(t.Reviews, domain.Review{ID: r.ID, ReviewerID: r.ReviewerID, ReviewDate: d})
	}
	return t, nil
}

type historyJSON struct {
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

type changeJSON struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

type taskTypeJSON struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}
