package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kitrop/workflow/internal/domain"
)

func (s *Server) listProjects(c *gin.Context) {
	projects, err := s.projects.List(c.Request.Context(), actorFrom(c))
	s.writeProjects(c, projects, err)
}

func (s *Server) searchProjects(c *gin.Context) {
	projects, err := s.projects.Search(c.Request.Context(), actorFrom(c), c.Query("query"))
	s.writeProjects(c, projects, err)
}

func (s *Server) writeProjects(c *gin.Context, projects []*domain.Project, err error) {
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	out := make([]projectJSON, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectJSON(p))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createProject(c *gin.Context) {
	var req projectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p := &domain.Project{Name: req.Name, Description: req.Description, IsPublic: req.IsPublic, Color: req.Color}
	if err := s.projects.Create(c.Request.Context(), actorFrom(c), p); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProjectJSON(p))
}

func (s *Server) getProject(c *gin.Context) {
	p, err := s.projects.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectJSON(p))
}

// updateProject replaces the editable fields. Color falls back to the
// stored one when omitted.
func (s *Server) updateProject(c *gin.Context) {
	var req projectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	ctx, actor := c.Request.Context(), actorFrom(c)
	p, err := s.projects.Get(ctx, actor, c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	p.Name = req.Name
	p.Description = req.Description
	p.IsPublic = req.IsPublic
	p.Color = domain.CoalesceStr(req.Color, p.Color)
	if err := s.projects.Update(ctx, actor, p); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectJSON(p))
}

func (s *Server) deleteProject(c *gin.Context) {
	if err := s.projects.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listGrants(c *gin.Context) {
	grants, err := s.projects.ListGrants(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	out := make([]grantJSON, 0, len(grants))
	for _, g := range grants {
		out = append(out, toGrantJSON(g))
	}
	c.JSON(http.StatusOK, out)
}

type grantRequest struct {
	UserID string `json:"user_id"`
}

// grant answers 201 for a new grant and 200 when it already existed.
func (s *Server) grant(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		badRequest(c, "user_id is required")
		return
	}
	g, created, err := s.projects.Grant(c.Request.Context(), actorFrom(c), c.Param("id"), req.UserID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, toGrantJSON(*g))
}

func (s *Server) revoke(c *gin.Context) {
	if err := s.projects.Revoke(c.Request.Context(), actorFrom(c), c.Param("id"), c.Param("user_id")); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
