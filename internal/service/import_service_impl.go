package service

import (
	"context"
	"fmt"

	"github.com/Kitrop/workflow/internal/access"
	"github.com/Kitrop/workflow/internal/db"
	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/history"
	"github.com/Kitrop/workflow/internal/importer"
	"github.com/Kitrop/workflow/internal/repository"
)

type importService struct {
	uow      db.UnitOfWork
	recorder *history.Recorder
	observer UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, recorder *history.Recorder, observers ...UseCaseObserver) ImportService {
	if recorder == nil {
		recorder = history.NewRecorder()
	}
	return &importService{uow: uow, recorder: recorder, observer: useCaseObserverOrNoop(observers)}
}

func (s *importService) Import(ctx context.Context, actor domain.Actor, filePath string) (*ImportResult, error) {
	schema, err := importer.LoadImportSchema(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.ImportFromSchema(ctx, actor, schema)
}

// ImportFromSchema writes the whole document in one transaction. Tasks go
// through the same path as TaskService.Create, so each gets a create entry.
func (s *importService) ImportFromSchema(ctx context.Context, actor domain.Actor, schema *importer.ImportSchema) (res *ImportResult, err error) {
	fields := map[string]any{
		"users":    len(schema.Users),
		"projects": len(schema.Projects),
		"grants":   len(schema.Grants),
		"tasks":    len(schema.Tasks),
	}
	done := track(ctx, s.observer, "import", fields)
	defer func() { done(err) }()

	if !access.CanLoadTasks(actor) {
		return nil, domain.Forbiddenf("user %s cannot load tasks", actor.Username)
	}
	if (len(schema.Users) > 0 || len(schema.Projects) > 0 || len(schema.Grants) > 0) && !access.CanManageUsers(actor) {
		return nil, domain.Forbiddenf("admin role required to import users, projects or grants")
	}
	if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
		return nil, importer.FormatErrors(errs)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		known, err := loadKnown(ctx, tx)
		if err != nil {
			return err
		}
		if errs := importer.ValidateReferences(schema, known); len(errs) > 0 {
			return importer.FormatErrors(errs)
		}
		plan, err := importer.Convert(schema, known)
		if err != nil {
			return fmt.Errorf("converting import schema: %w", err)
		}
		res, err = s.apply(ctx, tx, actor, plan)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *importService) apply(ctx context.Context, tx db.DBTX, actor domain.Actor, plan *importer.Plan) (*ImportResult, error) {
	users := repository.NewSQLiteUserRepo(tx)
	for _, d := range plan.Users {
		u, err := buildUser(NewUser{
			Username:       d.Username,
			FullName:       d.FullName,
			Password:       d.Password,
			Role:           d.Role,
			CanLoadTasks:   d.CanLoadTasks,
			CanViewReports: d.CanViewReports,
			Color:          d.Color,
		})
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", d.Username, err)
		}
		u.ID = d.ID
		if err := users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("creating user %q: %w", d.Username, err)
		}
	}

	projects := repository.NewSQLiteProjectRepo(tx)
	for _, p := range plan.Projects {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("project %q: %w", p.Name, err)
		}
		if err := projects.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("creating project %q: %w", p.Name, err)
		}
	}

	for _, g := range plan.Grants {
		if _, _, err := grantTx(ctx, tx, actor, g.ProjectID, g.UserID); err != nil {
			return nil, fmt.Errorf("granting project access: %w", err)
		}
	}

	for _, t := range plan.Tasks {
		if err := createTaskTx(ctx, tx, s.recorder, actor, t); err != nil {
			return nil, fmt.Errorf("creating task %q: %w", t.Name, err)
		}
	}

	return &ImportResult{
		UserCount:    len(plan.Users),
		ProjectCount: len(plan.Projects),
		GrantCount:   len(plan.Grants),
		TaskCount:    len(plan.Tasks),
	}, nil
}

func loadKnown(ctx context.Context, tx db.DBTX) (importer.Known, error) {
	known := importer.Known{
		Users:     map[string]string{},
		Projects:  map[string]string{},
		TaskTypes: map[string]bool{},
	}
	users, err := repository.NewSQLiteUserRepo(tx).List(ctx)
	if err != nil {
		return known, fmt.Errorf("loading users: %w", err)
	}
	for _, u := range users {
		known.Users[u.Username] = u.ID
	}
	projects, err := repository.NewSQLiteProjectRepo(tx).List(ctx)
	if err != nil {
		return known, fmt.Errorf("loading projects: %w", err)
	}
	for _, p := range projects {
		known.Projects[p.Name] = p.ID
	}
	types, err := repository.NewSQLiteTaskTypeRepo(tx).List(ctx)
	if err != nil {
		return known, fmt.Errorf("loading task types: %w", err)
	}
	for _, tt := range types {
		known.TaskTypes[tt.Name] = true
	}
	return known, nil
}
