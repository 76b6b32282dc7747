package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Kitrop/workflow/internal/cli/formatter"
)

func workflowHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	return t
}

// confirm asks before a destructive command. --yes skips the prompt; without
// a terminal the command refuses instead of guessing.
func confirm(app *App, yes bool, title string) error {
	if yes {
		return nil
	}
	if !app.interactive() {
		return fmt.Errorf("refusing to %s without --yes (no terminal)", title)
	}
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Really " + title + "?").
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(workflowHuhTheme()).WithShowHelp(false).Run()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("cancelled")
	}
	return nil
}
