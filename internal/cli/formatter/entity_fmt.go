package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Kitrop/workflow/internal/domain"
)

func yesNo(b bool) string {
	if b {
		return StyleGreen.Render("yes")
	}
	return StyleDim.Render("no")
}

func FormatUserList(users []*domain.User) string {
	if len(users) == 0 {
		return Dim("no users") + "\n"
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			TruncID(u.ID),
			Swatch(u.Color) + " " + u.Username,
			orDash(u.FullName),
			RoleBadge(u.Role),
			yesNo(u.CanLoadTasks),
			yesNo(u.CanViewReports),
		})
	}
	return RenderTable([]string{"ID", "USERNAME", "NAME", "ROLE", "LOAD", "REPORTS"}, rows)
}

func FormatProjectList(projects []*domain.Project) string {
	if len(projects) == 0 {
		return Dim("no projects") + "\n"
	}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		visibility := StyleDim.Render("private")
		if p.IsPublic {
			visibility = StyleGreen.Render("public")
		}
		rows = append(rows, []string{TruncID(p.ID), Swatch(p.Color) + " " + p.Name, visibility, orDash(p.Description)})
	}
	return RenderTable([]string{"ID", "NAME", "VISIBILITY", "DESCRIPTION"}, rows)
}

func FormatProject(p *domain.Project, taskCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", Swatch(p.Color), Bold(p.Name))
	fmt.Fprintf(&b, "%s %s\n", Dim("id:"), p.ID)
	fmt.Fprintf(&b, "%s %v\n", Dim("public:"), p.IsPublic)
	fmt.Fprintf(&b, "%s %d\n", Dim("tasks:"), taskCount)
	if p.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", p.Description)
	}
	return RenderBox("project", strings.TrimRight(b.String(), "\n"))
}

// FormatGrantList resolves user ids to names through users when present.
func FormatGrantList(grants []domain.AccessGrant, users map[string]*domain.User) string {
	if len(grants) == 0 {
		return Dim("no grants") + "\n"
	}
	rows := make([][]string, 0, len(grants))
	for _, g := range grants {
		rows = append(rows, []string{userName(users, g.UserID), userName(users, g.GrantedBy), FormatDate(g.GrantedAt)})
	}
	return RenderTable([]string{"USER", "GRANTED BY", "GRANTED AT"}, rows)
}

func userName(users map[string]*domain.User, id string) string {
	if id == "" {
		return StyleDim.Render("--")
	}
	if u, ok := users[id]; ok {
		return u.Username
	}
	return TruncID(id)
}

func FormatTaskList(tasks []*domain.Task, users map[string]*domain.User) string {
	if len(tasks) == 0 {
		return Dim("no tasks") + "\n"
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		sp := "--"
		if v, ok := t.Extra.StoryPoints(); ok {
			sp = FormatNumber(v)
		}
		rows = append(rows, []string{
			TruncID(t.ID),
			t.Name,
			StylePurple.Render(t.Type),
			FormatDate(t.IssueDate),
			userName(users, t.AssigneeID),
			sp,
		})
	}
	return RenderTable([]string{"ID", "NAME", "TYPE", "ISSUED", "ASSIGNEE", "SP"}, rows)
}

func FormatTask(t *domain.Task, users map[string]*domain.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", Bold(t.Name))
	fmt.Fprintf(&b, "%s %s\n", Dim("id:      "), t.ID)
	fmt.Fprintf(&b, "%s %s\n", Dim("type:    "), t.Type)
	fmt.Fprintf(&b, "%s %s\n", Dim("issued:  "), FormatDate(t.IssueDate))
	fmt.Fprintf(&b, "%s %s\n", Dim("issue:   "), orDash(t.IssueURL))
	fmt.Fprintf(&b, "%s %s\n", Dim("assignee:"), userName(users, t.AssigneeID))
	fmt.Fprintf(&b, "%s %s\n", Dim("manager: "), userName(users, t.ManagerID))

	if keys := t.Extra.Keys(); len(keys) > 0 {
		b.WriteString("\n" + Dim("extra") + "\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s = %s\n", k, t.Extra[k].Serialize())
		}
	}
	if len(t.Periods) > 0 {
		b.WriteString("\n" + Dim("periods") + "\n")
		for _, p := range t.Periods {
			line := fmt.Sprintf("  %-4s %s..%s", p.Type, FormatDate(p.Start), FormatDate(p.End))
			if p.TesterID != "" {
				line += "  tester " + userName(users, p.TesterID)
			}
			b.WriteString(line + "\n")
		}
	}
	if len(t.Reviews) > 0 {
		b.WriteString("\n" + Dim("reviews") + "\n")
		for _, r := range t.Reviews {
			fmt.Fprintf(&b, "  %s  %s\n", FormatDate(r.ReviewDate), userName(users, r.ReviewerID))
		}
	}
	return RenderBox("task", strings.TrimRight(b.String(), "\n"))
}

func FormatHistory(entries []domain.TaskHistoryEntry, users map[string]*domain.User) string {
	if len(entries) == 0 {
		return Dim("no history") + "\n"
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.ChangedAt.Format("2006-01-02 15:04:05"),
			userName(users, e.ChangedBy),
			StyleBlue.Render(e.Field),
			orDash(e.OldValue),
			orDash(e.NewValue),
		})
	}
	return RenderTable([]string{"WHEN", "BY", "FIELD", "OLD", "NEW"}, rows)
}

func FormatTaskTypes(types []domain.TaskType) string {
	sorted := append([]domain.TaskType(nil), types...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	rows := make([][]string, 0, len(sorted))
	for _, tt := range sorted {
		rows = append(rows, []string{tt.Name, domain.CoalesceStr(tt.DisplayName, tt.Name)})
	}
	return RenderTable([]string{"NAME", "DISPLAY"}, rows)
}
