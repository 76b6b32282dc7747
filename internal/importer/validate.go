package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/Kitrop/workflow/internal/domain"
)

// ValidateImportSchema checks the document on its own, before any store
// lookups. Returns every error found.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	usernames := make(map[string]bool)
	errs = append(errs, validateUsers(schema.Users, usernames)...)

	projectNames := make(map[string]bool)
	errs = append(errs, validateProjects(schema.Projects, projectNames)...)

	errs = append(errs, validateGrants(schema.Grants)...)
	errs = append(errs, validateTasks(schema.Tasks)...)

	return errs
}

func validateUsers(users []UserImport, seen map[string]bool) []error {
	var errs []error

	for i, u := range users {
		prefix := fmt.Sprintf("users[%d]", i)

		name := strings.TrimSpace(u.Username)
		if name == "" {
			errs = append(errs, fmt.Errorf("%s.username is required", prefix))
		} else if seen[name] {
			errs = append(errs, fmt.Errorf("%s.username: duplicate username %q", prefix, name))
		} else {
			seen[name] = true
		}
		if u.Role != "" && !domain.ValidRoles[domain.Role(u.Role)] {
			errs = append(errs, fmt.Errorf("%s.role: invalid value %q", prefix, u.Role))
		}
		if u.Color != "" && !domain.ValidColor(u.Color) {
			errs = append(errs, fmt.Errorf("%s.color: invalid value %q (expected #rrggbb)", prefix, u.Color))
		}
	}

	return errs
}

func validateProjects(projects []ProjectImport, seen map[string]bool) []error {
	var errs []error

	for i, p := range projects {
		prefix := fmt.Sprintf("projects[%d]", i)

		name := strings.TrimSpace(p.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else if seen[name] {
			errs = append(errs, fmt.Errorf("%s.name: duplicate project %q", prefix, name))
		} else {
			seen[name] = true
		}
		if p.Color != "" && !domain.ValidColor(p.Color) {
			errs = append(errs, fmt.Errorf("%s.color: invalid value %q (expected #rrggbb)", prefix, p.Color))
		}
	}

	return errs
}

func validateGrants(grants []GrantImport) []error {
	var errs []error

	for i, g := range grants {
		prefix := fmt.Sprintf("grants[%d]", i)
		if g.Username == "" {
			errs = append(errs, fmt.Errorf("%s.username is required", prefix))
		}
		if g.Project == "" {
			errs = append(errs, fmt.Errorf("%s.project is required", prefix))
		}
	}

	return errs
}

func validateTasks(tasks []TaskImport) []error {
	var errs []error

	for i, t := range tasks {
		prefix := fmt.Sprintf("tasks[%d]", i)

		if strings.TrimSpace(t.Project) == "" {
			errs = append(errs, fmt.Errorf("%s.project is required", prefix))
		}
		if strings.TrimSpace(t.Name) == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if t.IssueDate == "" {
			errs = append(errs, fmt.Errorf("%s.issue_date is required", prefix))
		} else {
			errs = append(errs, validateDate(prefix+".issue_date", t.IssueDate)...)
		}

		for j, p := range t.Periods {
			pp := fmt.Sprintf("%s.periods[%d]", prefix, j)
			if !domain.ValidPeriodTypes[domain.PeriodType(p.Type)] {
				errs = append(errs, fmt.Errorf("%s.type: invalid value %q", pp, p.Type))
			}
			if p.Start == "" || p.End == "" {
				errs = append(errs, fmt.Errorf("%s: start and end are required", pp))
				continue
			}
			startErrs := validateDate(pp+".start", p.Start)
			endErrs := validateDate(pp+".end", p.End)
			errs = append(errs, startErrs...)
			errs = append(errs, endErrs...)
			if len(startErrs) == 0 && len(endErrs) == 0 && p.End < p.Start {
				errs = append(errs, fmt.Errorf("%s: end %q is before start %q", pp, p.End, p.Start))
			}
			if p.Tester != "" && p.Type != string(domain.PeriodTest) {
				errs = append(errs, fmt.Errorf("%s.tester: only test periods have a tester", pp))
			}
		}

		for j, r := range t.Reviews {
			rp := fmt.Sprintf("%s.reviews[%d]", prefix, j)
			if r.Reviewer == "" {
				errs = append(errs, fmt.Errorf("%s.reviewer is required", rp))
			}
			if r.Date == "" {
				errs = append(errs, fmt.Errorf("%s.date is required", rp))
			} else {
				errs = append(errs, validateDate(rp+".date", r.Date)...)
			}
		}
	}

	return errs
}

// Known is what the store already holds, keyed the way the document refers
// to it.
type Known struct {
	Users     map[string]string // username -> id
	Projects  map[string]string // name -> id
	TaskTypes map[string]bool
}

// ValidateReferences checks that every username, project and task type the
// document uses exists in the document or in known, and that the document
// does not redefine existing users or projects.
func ValidateReferences(schema *ImportSchema, known Known) []error {
	var errs []error

	users := make(map[string]bool, len(known.Users)+len(schema.Users))
	for name := range known.Users {
		users[name] = true
	}
	for i, u := range schema.Users {
		name := strings.TrimSpace(u.Username)
		if _, ok := known.Users[name]; ok {
			errs = append(errs, fmt.Errorf("users[%d].username: user %q already exists", i, name))
		}
		users[name] = true
	}

	projects := make(map[string]bool, len(known.Projects)+len(schema.Projects))
	for name := range known.Projects {
		projects[name] = true
	}
	for i, p := range schema.Projects {
		name := strings.TrimSpace(p.Name)
		if _, ok := known.Projects[name]; ok {
			errs = append(errs, fmt.Errorf("projects[%d].name: project %q already exists", i, name))
		}
		projects[name] = true
	}

	userRef := func(field, name string) {
		if name != "" && !users[name] {
			errs = append(errs, fmt.Errorf("%s: unknown user %q", field, name))
		}
	}
	projectRef := func(field, name string) {
		if name != "" && !projects[strings.TrimSpace(name)] {
			errs = append(errs, fmt.Errorf("%s: unknown project %q", field, name))
		}
	}

	for i, g := range schema.Grants {
		userRef(fmt.Sprintf("grants[%d].username", i), g.Username)
		projectRef(fmt.Sprintf("grants[%d].project", i), g.Project)
	}
	for i, t := range schema.Tasks {
		prefix := fmt.Sprintf("tasks[%d]", i)
		projectRef(prefix+".project", t.Project)
		if typ := taskType(t); !known.TaskTypes[typ] {
			errs = append(errs, fmt.Errorf("%s.type: unknown task type %q", prefix, typ))
		}
		userRef(prefix+".assignee", t.Assignee)
		userRef(prefix+".manager", t.Manager)
		for j, p := range t.Periods {
			userRef(fmt.Sprintf("%s.periods[%d].tester", prefix, j), p.Tester)
		}
		for j, r := range t.Reviews {
			userRef(fmt.Sprintf("%s.reviews[%d].reviewer", prefix, j), r.Reviewer)
		}
	}

	return errs
}

func taskType(t TaskImport) string {
	return domain.CoalesceStr(strings.ToLower(strings.TrimSpace(t.Type)), domain.TaskTypeDevelopment)
}

func validateDate(field, s string) []error {
	if _, err := time.Parse(domain.DateLayout, s); err != nil {
		return []error{fmt.Errorf("%s: invalid date format %q (expected YYYY-MM-DD)", field, s)}
	}
	return nil
}

// FormatErrors folds validation errors into one ValidationFailed error.
func FormatErrors(errs []error) error {
	var b strings.Builder
	fmt.Fprintf(&b, "import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		b.WriteString("\n  - ")
		b.WriteString(e.Error())
	}
	return domain.Validationf("%s", b.String())
}
