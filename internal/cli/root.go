// Package cli is the operator command line. Commands run as the user named
// by --as; the operator is trusted, so no password is asked.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/service"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Users    service.UserService
	Projects service.ProjectService
	Tasks    service.TaskService
	Reports  service.ReportService
	Import   service.ImportService

	// DefaultUser is used when --as is not given.
	DefaultUser string
	// Serve runs the HTTP API until ctx is done. Nil disables "serve".
	Serve func(ctx context.Context) error
	// IsInteractive reports whether stdin is a terminal. Nil means no.
	IsInteractive func() bool
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "workflow" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var as string
	root := &cobra.Command{
		Use:           "workflow",
		Short:         "Task tracking, access control and reporting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&as, "as", "", "username to act as (defaults to the configured admin)")

	actor := func(ctx context.Context) (domain.Actor, error) {
		name := strings.TrimSpace(as)
		if name == "" {
			name = app.DefaultUser
		}
		if name == "" {
			return domain.Actor{}, fmt.Errorf("no user given: pass --as <username>")
		}
		u, err := app.Users.GetByUsername(ctx, name)
		if err != nil {
			return domain.Actor{}, fmt.Errorf("resolving --as %q: %w", name, err)
		}
		return domain.ActorFor(u), nil
	}

	root.AddCommand(
		newServeCmd(app),
		newUserCmd(app, actor),
		newProjectCmd(app, actor),
		newTaskCmd(app, actor),
		newReportCmd(app, actor),
		newImportCmd(app, actor),
	)
	return root
}

// actorFunc resolves the acting user for one command run.
type actorFunc func(ctx context.Context) (domain.Actor, error)
