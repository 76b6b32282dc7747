package domain

import (
	"strings"
	"time"
)

// TaskType is a dictionary entry. Name is the stable key stored on tasks.
type TaskType struct {
	Name        string
	DisplayName string
}

type Task struct {
	ID         string
	ProjectID  string
	Type       string
	Name       string
	IssueURL   string
	IssueDate  time.Time
	AssigneeID string
	ManagerID  string
	Extra      ExtraFields
	Periods    []Period
	Reviews    []Review
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Period is a work or test window on a task. ID is stable across updates so
// history can address it.
type Period struct {
	ID       string
	Type     PeriodType
	Start    time.Time
	End      time.Time
	TesterID string
}

type Review struct {
	ID         string
	ReviewerID string
	ReviewDate time.Time
}

// TaskHistoryEntry is one immutable field change. TaskID is a plain id, not
// a foreign key, so entries outlive the task.
type TaskHistoryEntry struct {
	ID        int64
	TaskID    string
	Field     string
	OldValue  string
	NewValue  string
	ChangedBy string
	ChangedAt time.Time
}

// IsManagedBy reports whether userID is the task's assignee or manager.
func (t *Task) IsManagedBy(userID string) bool {
	if userID == "" {
		return false
	}
	return t.AssigneeID == userID || t.ManagerID == userID
}

// Validate checks required fields and every period and review.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return Validationf("task name is required")
	}
	if strings.TrimSpace(t.ProjectID) == "" {
		return Validationf("task project is required")
	}
	if strings.TrimSpace(t.Type) == "" {
		return Validationf("task type is required")
	}
	if t.IssueDate.IsZero() {
		return Validationf("issue date is required")
	}
	seen := make(map[string]bool, len(t.Periods))
	for i := range t.Periods {
		p := &t.Periods[i]
		if p.ID != "" {
			if seen[p.ID] {
				return Validationf("duplicate period id %s", p.ID)
			}
			seen[p.ID] = true
		}
		if err := p.Validate(); err != nil {
			return err
		}
	}
	seen = make(map[string]bool, len(t.Reviews))
	for i := range t.Reviews {
		r := &t.Reviews[i]
		if r.ID != "" {
			if seen[r.ID] {
				return Validationf("duplicate review id %s", r.ID)
			}
			seen[r.ID] = true
		}
		if r.ReviewerID == "" {
			return Validationf("review reviewer is required")
		}
		if r.ReviewDate.IsZero() {
			return Validationf("review date is required")
		}
	}
	return nil
}

func (p *Period) Validate() error {
	if !ValidPeriodTypes[p.Type] {
		return Validationf("unknown period type %q", p.Type)
	}
	if p.Start.IsZero() || p.End.IsZero() {
		return Validationf("period start and end are required")
	}
	if Day(p.End).Before(Day(p.Start)) {
		return InvalidRangef("period end %s is before start %s",
			p.End.Format(DateLayout), p.Start.Format(DateLayout))
	}
	if p.Type != PeriodTest && p.TesterID != "" {
		return Validationf("tester is only allowed on test periods")
	}
	return nil
}

// Clone returns a deep copy used as the pre-mutation snapshot.
func (t *Task) Clone() *Task {
	c := *t
	c.Extra = t.Extra.Clone()
	if t.Periods != nil {
		c.Periods = append([]Period(nil), t.Periods...)
	}
	if t.Reviews != nil {
		c.Reviews = append([]Review(nil), t.Reviews...)
	}
	return &c
}
