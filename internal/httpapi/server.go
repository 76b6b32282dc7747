// Package httpapi exposes the services over a JSON HTTP API. Every route
// except token issue needs a bearer token; the token is resolved to an
// Actor before any handler runs.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kitrop/workflow/internal/auth"
	"github.com/Kitrop/workflow/internal/service"
)

// Deps are the collaborators the API serves.
type Deps struct {
	Users    service.UserService
	Projects service.ProjectService
	Tasks    service.TaskService
	Reports  service.ReportService
	Issuer   *auth.Issuer
	Logger   *slog.Logger
}

type Server struct {
	users    service.UserService
	projects service.ProjectService
	tasks    service.TaskService
	reports  service.ReportService
	issuer   *auth.Issuer
	logger   *slog.Logger
	engine   *gin.Engine
}

func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		users:    d.Users,
		projects: d.Projects,
		tasks:    d.Tasks,
		reports:  d.Reports,
		issuer:   d.Issuer,
		logger:   logger,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	api := r.Group("/api")
	api.POST("/auth/token", s.issueToken)

	authed := api.Group("", s.authenticate())

	authed.GET("/users/me", s.me)
	authed.GET("/users", s.listUsers)
	authed.POST("/users", s.createUser)
	authed.GET("/users/:id", s.getUser)
	authed.PATCH("/users/:id", s.updateUser)
	authed.DELETE("/users/:id", s.deleteUser)

	authed.GET("/projects", s.listProjects)
	authed.POST("/projects", s.createProject)
	authed.GET("/projects/:id", s.getProject)
	authed.PUT("/projects/:id", s.updateProject)
	authed.DELETE("/projects/:id", s.deleteProject)
	authed.GET("/projects/:id/grants", s.listGrants)
	authed.POST("/projects/:id/grants", s.grant)
	authed.DELETE("/projects/:id/grants/:user_id", s.revoke)

	authed.GET("/tasks", s.listTasks)
	authed.POST("/tasks", s.createTask)
	authed.GET("/tasks/count", s.countTasks)
	authed.GET("/tasks/:id", s.getTask)
	authed.PUT("/tasks/:id", s.updateTask)
	authed.DELETE("/tasks/:id", s.deleteTask)
	authed.GET("/tasks/:id/history", s.taskHistory)
	authed.GET("/task-types", s.listTaskTypes)

	authed.GET("/autocomplete/users", s.searchUsers(false))
	authed.GET("/autocomplete/managers", s.searchUsers(true))
	authed.GET("/autocomplete/projects", s.searchProjects)

	authed.GET("/reports/series/:metric", s.reportSeries)
	authed.GET("/reports/gantt", s.reportGantt)
	authed.GET("/reports/scorecard", s.reportScorecard)

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "http_listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
