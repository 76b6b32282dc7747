package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/service"
)

// taskListQuery is the query string of GET /tasks. A limit of 0 lifts
// the page size.
type taskListQuery struct {
	ProjectID  string `form:"project_id"`
	AssigneeID string `form:"assignee_id"`
	Skip       int    `form:"skip,default=0" binding:"min=0"`
	Limit      int    `form:"limit,default=100" binding:"min=0"`
}

func taskQuery(c *gin.Context) service.TaskQuery {
	return service.TaskQuery{ProjectID: c.Query("project_id"), AssigneeID: c.Query("assignee_id")}
}

func (s *Server) listTasks(c *gin.Context) {
	var q taskListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "skip and limit must be non-negative integers")
		return
	}
	tasks, err := s.tasks.List(c.Request.Context(), actorFrom(c), service.TaskQuery(q))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	out := make([]taskJSON, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskJSON(t))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) countTasks(c *gin.Context) {
	counts, err := s.tasks.Counts(c.Request.Context(), actorFrom(c), taskQuery(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_count":   counts.Total,
		"project_count": counts.Project,
	})
}

func (s *Server) createTask(c *gin.Context) {
	var req taskJSON
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	t, err := req.toDomain()
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	t.ID = ""
	if err := s.tasks.Create(c.Request.Context(), actorFrom(c), t); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTaskJSON(t))
}

func (s *Server) getTask(c *gin.Context) {
	t, err := s.tasks.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskJSON(t))
}

// updateTask replaces the task and returns it with the recorded changes.
func (s *Server) updateTask(c *gin.Context) {
	var req taskJSON
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	t, err := req.toDomain()
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	t.ID = c.Param("id")
	ctx, actor := c.Request.Context(), actorFrom(c)
	diffs, err := s.tasks.Update(ctx, actor, t)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if len(diffs) == 0 {
		if t, err = s.tasks.Get(ctx, actor, t.ID); err != nil {
			s.abortWithError(c, err)
			return
		}
	}
	changes := make([]changeJSON, 0, len(diffs))
	for _, d := range diffs {
		changes = append(changes, changeJSON{Field: d.Field, Old: d.Old, New: d.New})
	}
	c.JSON(http.StatusOK, gin.H{"task": toTaskJSON(t), "changes": changes})
}

func (s *Server) deleteTask(c *gin.Context) {
	if err := s.tasks.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) taskHistory(c *gin.Context) {
	entries, err := s.tasks.History(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	out := make([]historyJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyJSON{
			Field:     e.Field,
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			ChangedBy: e.ChangedBy,
			ChangedAt: e.ChangedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listTaskTypes(c *gin.Context) {
	types, err := s.tasks.ListTypes(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	out := make([]taskTypeJSON, 0, len(types))
	for _, tt := range types {
		out = append(out, taskTypeJSON{Name: tt.Name, DisplayName: domain.CoalesceStr(tt.DisplayName, tt.Name)})
	}
	c.JSON(http.StatusOK, out)
}
