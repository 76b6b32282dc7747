package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kitrop/workflow/internal/cli/formatter"
	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/service"
)

func newTaskCmd(app *App, actor actorFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(
		newTaskAddCmd(app, actor),
		newTaskListCmd(app, actor),
		newTaskShowCmd(app, actor),
		newTaskUpdateCmd(app, actor),
		newTaskRemoveCmd(app, actor),
		newTaskHistoryCmd(app, actor),
		newTaskCountCmd(app, actor),
		newTaskTypesCmd(app, actor),
	)
	return cmd
}

// taskFlags are shared by add and update. Users are given by username or id.
type taskFlags struct {
	name, typ, issueURL, issueDate string
	assignee, manager              string
	sp, loc                        float64
	extra, unset                   []string
	periods, reviews               []string
}

func (f *taskFlags) register(cmd *cobra.Command, forUpdate bool) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "task name")
	fs.StringVar(&f.typ, "type", "", "task type (default development)")
	fs.StringVar(&f.issueURL, "issue-url", "", "tracker link")
	fs.StringVar(&f.issueDate, "issue-date", "", "issue date (YYYY-MM-DD)")
	fs.StringVar(&f.assignee, "assignee", "", "assignee username")
	fs.StringVar(&f.manager, "manager", "", "manager username")
	fs.Float64Var(&f.sp, "sp", 0, "story points")
	fs.Float64Var(&f.loc, "loc", 0, "lines of code")
	fs.StringArrayVar(&f.extra, "extra", nil, "extra field key=value (repeatable)")
	fs.StringArrayVar(&f.periods, "period", nil, "period type:start:end[:tester] (repeatable)")
	fs.StringArrayVar(&f.reviews, "review", nil, "review reviewer:date (repeatable)")
	if forUpdate {
		fs.StringArrayVar(&f.unset, "unset", nil, "remove an extra field (repeatable)")
		fs.Lookup("period").Usage = "replace all periods with type:start:end[:tester] (repeatable)"
		fs.Lookup("review").Usage = "replace all reviews with reviewer:date (repeatable)"
	}
}

// apply writes the changed flags onto t.
func (f *taskFlags) apply(ctx context.Context, cmd *cobra.Command, app *App, t *domain.Task) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("name") {
		t.Name = f.name
	}
	if flags.Changed("type") {
		t.Type = f.typ
	}
	if flags.Changed("issue-url") {
		t.IssueURL = f.issueURL
	}
	if flags.Changed("issue-date") {
		if t.IssueDate, err = domain.ParseDate(f.issueDate); err != nil {
			return err
		}
	}
	if flags.Changed("assignee") {
		if t.AssigneeID, err = resolveUserID(ctx, app, f.assignee); err != nil {
			return err
		}
	}
	if flags.Changed("manager") {
		if t.ManagerID, err = resolveUserID(ctx, app, f.manager); err != nil {
			return err
		}
	}

	extra, err := parseExtra(f.extra)
	if err != nil {
		return err
	}
	if flags.Changed("sp") {
		extra[domain.KeyStoryPoints] = domain.Number(f.sp)
	}
	if flags.Changed("loc") {
		extra[domain.KeyLOC] = domain.Number(f.loc)
	}
	if len(extra) > 0 || len(f.unset) > 0 {
		if t.Extra == nil {
			t.Extra = domain.ExtraFields{}
		}
		for k, v := range extra {
			t.Extra[k] = v
		}
		for _, k := range f.unset {
			delete(t.Extra, k)
		}
	}

	if flags.Changed("period") {
		t.Periods = nil
		for _, s := range f.periods {
			p, tester, err := parsePeriod(s)
			if err != nil {
				return err
			}
			if p.TesterID, err = resolveUserID(ctx, app, tester); err != nil {
				return err
			}
			t.Periods = append(t.Periods, p)
		}
	}
	if flags.Changed("review") {
		t.Reviews = nil
		for _, s := range f.reviews {
			reviewer, r, err := parseReview(s)
			if err != nil {
				return err
			}
			if r.ReviewerID, err = resolveUserID(ctx, app, reviewer); err != nil {
				return err
			}
			t.Reviews = append(t.Reviews, r)
		}
	}
	return nil
}

func newTaskAddCmd(app *App, actor actorFunc) *cobra.Command {
	var f taskFlags
	var project string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			projectID, err := resolveProjectID(ctx, app, a, project)
			if err != nil {
				return err
			}
			t := &domain.Task{ProjectID: projectID, Type: domain.TaskTypeDevelopment}
			if err := f.apply(ctx, cmd, app, t); err != nil {
				return err
			}
			if err := app.Tasks.Create(ctx, a, t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s %s\n", t.Name, t.ID)
			return nil
		},
	}
	f.register(cmd, false)
	cmd.Flags().StringVar(&project, "project", "", "project name or id")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("issue-date")
	return cmd
}

func newTaskListCmd(app *App, actor actorFunc) *cobra.Command {
	var project, assignee string
	var skip, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visible tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			q, err := taskQuery(ctx, app, a, project, assignee)
			if err != nil {
				return err
			}
			q.Skip, q.Limit = skip, limit
			tasks, err := app.Tasks.List(ctx, a, q)
			if err != nil {
				return err
			}
			users, err := userIndex(ctx, app)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTaskList(tasks, users))
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "only this project")
	cmd.Flags().StringVar(&assignee, "assignee", "", "only tasks assigned to this user")
	cmd.Flags().IntVar(&skip, "skip", 0, "tasks to skip, in issue date order")
	cmd.Flags().IntVar(&limit, "limit", 0, "at most this many tasks (0 lists all)")
	return cmd
}

func taskQuery(ctx context.Context, app *App, a domain.Actor, project, assignee string) (service.TaskQuery, error) {
	var q service.TaskQuery
	var err error
	if project != "" {
		if q.ProjectID, err = resolveProjectID(ctx, app, a, project); err != nil {
			return q, err
		}
	}
	if assignee != "" {
		if q.AssigneeID, err = resolveUserID(ctx, app, assignee); err != nil {
			return q, err
		}
	}
	return q, nil
}

func newTaskShowCmd(app *App, actor actorFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			id, err := resolveTaskID(ctx, app, a, args[0])
			if err != nil {
				return err
			}
			t, err := app.Tasks.Get(ctx, a, id)
			if err != nil {
				return err
			}
			users, err := userIndex(ctx, app)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatTask(t, users))
			return nil
		},
	}
}

func newTaskUpdateCmd(app *App, actor actorFunc) *cobra.Command {
	var f taskFlags

	cmd := &cobra.Command{
		Use:   "update <task>",
		Short: "Change a task; every changed field is recorded in its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			id, err := resolveTaskID(ctx, app, a, args[0])
			if err != nil {
				return err
			}
			t, err := app.Tasks.Get(ctx, a, id)
			if err != nil {
				return err
			}
			if err := f.apply(ctx, cmd, app, t); err != nil {
				return err
			}
			diffs, err := app.Tasks.Update(ctx, a, t)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(diffs) == 0 {
				fmt.Fprintln(out, "No changes")
				return nil
			}
			fmt.Fprintf(out, "Updated task %s (%d changes)\n", t.Name, len(diffs))
			for _, d := range diffs {
				fmt.Fprintf(out, "  %s: %q -> %q\n", d.Field, d.Old, d.New)
			}
			return nil
		},
	}
	f.register(cmd, true)
	return cmd
}

func newTaskRemoveCmd(app *App, actor actorFunc) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <task>",
		Short: "Delete a task; its history is kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			id, err := resolveTaskID(ctx, app, a, args[0])
			if err != nil {
				return err
			}
			if err := confirm(app, yes, "delete task "+args[0]); err != nil {
				return err
			}
			if err := app.Tasks.Delete(ctx, a, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newTaskHistoryCmd(app *App, actor actorFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "history <task>",
		Short: "Show a task's change history, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			id, err := resolveTaskID(ctx, app, a, args[0])
			if err != nil {
				return err
			}
			entries, err := app.Tasks.History(ctx, a, id)
			if err != nil {
				return err
			}
			users, err := userIndex(ctx, app)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistory(entries, users))
			return nil
		},
	}
}

func newTaskCountCmd(app *App, actor actorFunc) *cobra.Command {
	var project, assignee string

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count visible tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			q, err := taskQuery(ctx, app, a, project, assignee)
			if err != nil {
				return err
			}
			counts, err := app.Tasks.Counts(ctx, a, q)
			if err != nil {
				return err
			}
			if counts.Project == nil {
				fmt.Fprintln(cmd.OutOrStdout(), counts.Total)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d\n", *counts.Project, counts.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "only this project")
	cmd.Flags().StringVar(&assignee, "assignee", "", "only tasks assigned to this user")
	return cmd
}

func newTaskTypesCmd(app *App, actor actorFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List task types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := app.Tasks.ListTypes(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTaskTypes(types))
			return nil
		},
	}

	var display string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a task type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			tt := &domain.TaskType{Name: args[0], DisplayName: display}
			if err := app.Tasks.AddType(ctx, a, tt); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task type %s\n", tt.Name)
			return nil
		},
	}
	add.Flags().StringVar(&display, "display", "", "display name")
	cmd.AddCommand(add)
	return cmd
}
