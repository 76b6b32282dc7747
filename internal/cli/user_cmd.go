package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kitrop/workflow/internal/cli/formatter"
	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/service"
)

func newUserCmd(app *App, actor actorFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(
		newUserAddCmd(app, actor),
		newUserListCmd(app),
		newUserUpdateCmd(app, actor),
		newUserSearchCmd(app),
		newUserRemoveCmd(app, actor),
	)
	return cmd
}

func newUserAddCmd(app *App, actor actorFunc) *cobra.Command {
	var in service.NewUser
	var role string

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			in.Username = args[0]
			in.Role = domain.Role(role)
			u, err := app.Users.Create(ctx, a, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s) %s\n", u.Username, u.Role, formatter.TruncID(u.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&in.FullName, "full-name", "", "display name")
	cmd.Flags().StringVar(&in.Password, "password", "", "password for API login")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleUser), "admin, moderator or user")
	cmd.Flags().BoolVar(&in.CanLoadTasks, "can-load-tasks", false, "allow creating and importing tasks")
	cmd.Flags().BoolVar(&in.CanViewReports, "can-view-reports", false, "allow reports and timelines")
	cmd.Flags().StringVar(&in.Color, "color", "", "display color (#rrggbb)")
	return cmd
}

func newUserListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.Users.List(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatUserList(users))
			return nil
		},
	}
}

func newUserUpdateCmd(app *App, actor actorFunc) *cobra.Command {
	var fullName, password, role, color string
	var canLoad, canView bool

	cmd := &cobra.Command{
		Use:   "update <user>",
		Short: "Change a user's role, flags or details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			id, err := resolveUserID(ctx, app, args[0])
			if err != nil {
				return err
			}

			var patch service.UserPatch
			flags := cmd.Flags()
			if flags.Changed("full-name") {
				patch.FullName = &fullName
			}
			if flags.Changed("password") {
				patch.Password = &password
			}
			if flags.Changed("role") {
				r := domain.Role(role)
				patch.Role = &r
			}
			if flags.Changed("can-load-tasks") {
				patch.CanLoadTasks = &canLoad
			}
			if flags.Changed("can-view-reports") {
				patch.CanViewReports = &canView
			}
			if flags.Changed("color") {
				patch.Color = &color
			}

			u, err := app.Users.Update(ctx, a, id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated user %s (%s)\n", u.Username, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	cmd.Flags().StringVar(&role, "role", "", "admin, moderator or user")
	cmd.Flags().BoolVar(&canLoad, "can-load-tasks", false, "allow creating and importing tasks")
	cmd.Flags().BoolVar(&canView, "can-view-reports", false, "allow reports and timelines")
	cmd.Flags().StringVar(&color, "color", "", "display color (#rrggbb)")
	return cmd
}

func newUserSearchCmd(app *App) *cobra.Command {
	var managers bool

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Find users by username or full name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.Users.Search(cmd.Context(), args[0], managers)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatUserList(users))
			return nil
		},
	}
	cmd.Flags().BoolVar(&managers, "managers", false, "only admins, who can manage tasks")
	return cmd
}

func newUserRemoveCmd(app *App, actor actorFunc) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <user>",
		Short: "Delete a user no task refers to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			id, err := resolveUserID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := confirm(app, yes, "delete user "+args[0]); err != nil {
				return err
			}
			if err := app.Users.Delete(ctx, a, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
