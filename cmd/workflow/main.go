package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/Kitrop/workflow/internal/auth"
	"github.com/Kitrop/workflow/internal/cli"
	"github.com/Kitrop/workflow/internal/config"
	"github.com/Kitrop/workflow/internal/db"
	"github.com/Kitrop/workflow/internal/gantt"
	"github.com/Kitrop/workflow/internal/history"
	"github.com/Kitrop/workflow/internal/httpapi"
	"github.com/Kitrop/workflow/internal/report"
	"github.com/Kitrop/workflow/internal/repository"
	"github.com/Kitrop/workflow/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.Log.NewLogger(os.Stderr)

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	userRepo := repository.NewSQLiteUserRepo(database)
	projectRepo := repository.NewSQLiteProjectRepo(database)
	typeRepo := repository.NewSQLiteTaskTypeRepo(database)

	// Wire unit of work for transactional operations
	uow := db.NewSQLiteUnitOfWork(database)
	recorder := history.NewRecorder()
	observer := service.NewLogUseCaseObserver(logger)

	// Wire services
	userSvc := service.NewUserService(userRepo, observer)
	projectSvc := service.NewProjectService(projectRepo, uow, observer)
	taskSvc := service.NewTaskService(typeRepo, uow, recorder, observer)
	reportSvc := service.NewReportService(report.NewAggregator(uow, logger), gantt.NewBuilder(uow), observer)
	importSvc := service.NewImportService(uow, recorder, observer)

	if cfg.Admin.Enabled() {
		u, created, err := userSvc.EnsureAdmin(context.Background(), cfg.Admin.Username, cfg.Admin.Password)
		if err != nil {
			return fmt.Errorf("seeding admin: %w", err)
		}
		if created {
			logger.Info("admin_created", "username", u.Username)
		}
	}

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	app := &cli.App{
		Users:       userSvc,
		Projects:    projectSvc,
		Tasks:       taskSvc,
		Reports:     reportSvc,
		Import:      importSvc,
		DefaultUser: cfg.Admin.Username,
		Serve: func(ctx context.Context) error {
			if cfg.Auth.DefaultSecret() {
				logger.Warn("jwt_secret_default",
					"hint", "set auth.jwt_secret or WORKFLOW_JWT_SECRET before exposing the API")
			}
			srv := httpapi.NewServer(httpapi.Deps{
				Users:    userSvc,
				Projects: projectSvc,
				Tasks:    taskSvc,
				Reports:  reportSvc,
				Issuer:   issuer,
				Logger:   logger,
			})
			return srv.ListenAndServe(ctx, cfg.HTTP.Addr)
		},
	}

	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.Execute()
}
