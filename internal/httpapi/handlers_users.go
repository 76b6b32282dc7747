package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/service"
)

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) issueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	u, err := s.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	token, exp, err := s.issuer.Issue(u)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_at":   exp.UTC(),
	})
}

func (s *Server) me(c *gin.Context) {
	u, err := s.users.Get(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserJSON(u))
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.users.List(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUsersJSON(users))
}

func (s *Server) getUser(c *gin.Context) {
	u, err := s.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserJSON(u))
}

func (s *Server) deleteUser(c *gin.Context) {
	if err := s.users.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// searchUsers backs both user autocompletes; managers are admins.
func (s *Server) searchUsers(managers bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := s.users.Search(c.Request.Context(), c.Query("query"), managers)
		if err != nil {
			s.abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, toUsersJSON(users))
	}
}

func toUsersJSON(users []*domain.User) []userJSON {
	out := make([]userJSON, 0, len(users))
	for _, u := range users {
		out = append(out, toUserJSON(u))
	}
	return out
}

type createUserRequest struct {
	Username       string      `json:"username"`
	FullName       string      `json:"full_name"`
	Password       string      `json:"password"`
	Role           domain.Role `json:"role"`
	CanLoadTasks   bool        `json:"can_load_tasks"`
	CanViewReports bool        `json:"can_view_reports"`
	Color          string      `json:"color"`
}

func (s *Server) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	u, err := s.users.Create(c.Request.Context(), actorFrom(c), service.NewUser(req))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserJSON(u))
}

type updateUserRequest struct {
	FullName       *string      `json:"full_name"`
	Password       *string      `json:"password"`
	Role           *domain.Role `json:"role"`
	CanLoadTasks   *bool        `json:"can_load_tasks"`
	CanViewReports *bool        `json:"can_view_reports"`
	Color          *string      `json:"color"`
}

func (s *Server) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	u, err := s.users.Update(c.Request.Context(), actorFrom(c), c.Param("id"), service.UserPatch(req))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserJSON(u))
}
