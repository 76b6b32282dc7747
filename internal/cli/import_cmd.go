package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd(app *App, actor actorFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import users, projects, grants and tasks from a JSON document",
		Long: `Import validates the whole document first and reports every problem.
Nothing is written unless the document is valid; then everything is written
in one transaction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			res, err := app.Import.Import(ctx, a, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d users, %d projects, %d grants, %d tasks\n",
				res.UserCount, res.ProjectCount, res.GrantCount, res.TaskCount)
			return nil
		},
	}
}
