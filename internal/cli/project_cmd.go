package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kitrop/workflow/internal/cli/formatter"
	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/service"
)

func newProjectCmd(app *App, actor actorFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects and access grants",
	}
	cmd.AddCommand(
		newProjectAddCmd(app, actor),
		newProjectListCmd(app, actor),
		newProjectSearchCmd(app, actor),
		newProjectShowCmd(app, actor),
		newProjectUpdateCmd(app, actor),
		newProjectRemoveCmd(app, actor),
		newProjectGrantCmd(app, actor),
		newProjectRevokeCmd(app, actor),
		newProjectGrantsCmd(app, actor),
	)
	return cmd
}

func newProjectAddCmd(app *App, actor actorFunc) *cobra.Command {
	var p domain.Project

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			p.Name = args[0]
			if err := app.Projects.Create(ctx, a, &p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s %s\n", p.Name, formatter.TruncID(p.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&p.Description, "description", "", "project description")
	cmd.Flags().BoolVar(&p.IsPublic, "public", false, "readable by every user")
	cmd.Flags().StringVar(&p.Color, "color", "", "display color (#rrggbb)")
	return cmd
}

func newProjectListCmd(app *App, actor actorFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List readable projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			projects, err := app.Projects.List(ctx, a)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProjectList(projects))
			return nil
		},
	}
}

func newProjectSearchCmd(app *App, actor actorFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Find readable projects by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			projects, err := app.Projects.Search(ctx, a, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProjectList(projects))
			return nil
		},
	}
}

func newProjectShowCmd(app *App, actor actorFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			id, err := resolveProjectID(ctx, app, a, args[0])
			if err != nil {
				return err
			}
			p, err := app.Projects.Get(ctx, a, id)
			if err != nil {
				return err
			}
			n, err := app.Tasks.Count(ctx, a, service.TaskQuery{ProjectID: p.ID})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProject(p, n))
			return nil
		},
	}
}

func newProjectUpdateCmd(app *App, actor actorFunc) *cobra.Command {
	var name, description, color string
	var public bool

	cmd := &cobra.Command{
		Use:   "update <project>",
		Short: "Change a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			id, err := resolveProjectID(ctx, app, a, args[0])
			if err != nil {
				return err
			}
			p, err := app.Projects.Get(ctx, a, id)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = name
			}
			if flags.Changed("description") {
				p.Description = description
			}
			if flags.Changed("public") {
				p.IsPublic = public
			}
			if flags.Changed("color") {
				p.Color = color
			}
			if err := app.Projects.Update(ctx, a, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s\n", p.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&description, "description", "", "project description")
	cmd.Flags().BoolVar(&public, "public", false, "readable by every user")
	cmd.Flags().StringVar(&color, "color", "", "display color (#rrggbb)")
	return cmd
}

func newProjectRemoveCmd(app *App, actor actorFunc) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <project>",
		Short: "Delete a project without tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			id, err := resolveProjectID(ctx, app, a, args[0])
			if err != nil {
				return err
			}
			if err := confirm(app, yes, "delete project "+args[0]); err != nil {
				return err
			}
			if err := app.Projects.Delete(ctx, a, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newProjectGrantCmd(app *App, actor actorFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "grant <project> <user>",
		Short: "Give a user read access to a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			projectID, err := resolveProjectID(ctx, app, a, args[0])
			if err != nil {
				return err
			}
			userID, err := resolveUserID(ctx, app, args[1])
			if err != nil {
				return err
			}
			_, created, err := app.Projects.Grant(ctx, a, projectID, userID)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Granted %s access to %s\n", args[1], args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already has access to %s\n", args[1], args[0])
			}
			return nil
		},
	}
}

func newProjectRevokeCmd(app *App, actor actorFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <project> <user>",
		Short: "Remove a user's access grant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			projectID, err := resolveProjectID(ctx, app, a, args[0])
			if err != nil {
				return err
			}
			userID, err := resolveUserID(ctx, app, args[1])
			if err != nil {
				return err
			}
			if err := app.Projects.Revoke(ctx, a, projectID, userID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked %s access to %s\n", args[1], args[0])
			return nil
		},
	}
}

func newProjectGrantsCmd(app *App, actor actorFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "grants <project>",
		Short: "List access grants on a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			projectID, err := resolveProjectID(ctx, app, a, args[0])
			if err != nil {
				return err
			}
			grants, err := app.Projects.ListGrants(ctx, a, projectID)
			if err != nil {
				return err
			}
			users, err := userIndex(ctx, app)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatGrantList(grants, users))
			return nil
		},
	}
}
