package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/service"
)

// resolveUserID accepts a username, a full id or a unique id prefix.
func resolveUserID(ctx context.Context, app *App, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}
	if u, err := app.Users.GetByUsername(ctx, input); err == nil {
		return u.ID, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	users, err := app.Users.List(ctx)
	if err != nil {
		return "", err
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return matchID("user", input, ids)
}

// resolveProjectID accepts a project name, a full id or a unique id prefix
// among the projects the actor can read.
func resolveProjectID(ctx context.Context, app *App, actor domain.Actor, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("project is required")
	}
	projects, err := app.Projects.List(ctx, actor)
	if err != nil {
		return "", err
	}
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		if strings.EqualFold(p.Name, input) {
			return p.ID, nil
		}
		ids = append(ids, p.ID)
	}
	id, err := matchID("project", input, ids)
	if errors.Is(err, domain.ErrNotFound) {
		// Let the service tell a hidden project from a missing one.
		return input, nil
	}
	return id, err
}

// resolveTaskID accepts a full id or a unique prefix among visible tasks.
func resolveTaskID(ctx context.Context, app *App, actor domain.Actor, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("task id is required")
	}
	tasks, err := app.Tasks.List(ctx, actor, service.TaskQuery{})
	if err != nil {
		return "", err
	}
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	id, err := matchID("task", input, ids)
	if errors.Is(err, domain.ErrNotFound) {
		return input, nil
	}
	return id, err
}

func matchID(kind, input string, ids []string) (string, error) {
	var matches []string
	for _, id := range ids {
		if id == input {
			return id, nil
		}
		if strings.HasPrefix(id, input) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", domain.NotFoundf("%s %q", kind, input)
	case 1:
		return matches[0], nil
	default:
		return "", domain.Validationf("%s id prefix %q is ambiguous (%d matches)", kind, input, len(matches))
	}
}

// userIndex loads every user keyed by id, for rendering names.
func userIndex(ctx context.Context, app *App) (map[string]*domain.User, error) {
	users, err := app.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*domain.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
