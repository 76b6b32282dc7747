package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/report"
)

// window reads date_from and date_to. A malformed date is a 400.
func window(c *gin.Context) (domain.DateWindow, error) {
	from, err := domain.ParseOptionalDate(c.Query("date_from"))
	if err != nil {
		return domain.DateWindow{}, err
	}
	to, err := domain.ParseOptionalDate(c.Query("date_to"))
	if err != nil {
		return domain.DateWindow{}, err
	}
	return domain.DateWindow{From: from, To: to}, nil
}

func (s *Server) reportSeries(c *gin.Context) {
	metric, err := report.ParseMetric(c.Param("metric"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	w, err := window(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	series, err := s.reports.Series(c.Request.Context(), report.Request{Actor: actorFrom(c), Metric: metric, Window: w})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if series == nil {
		series = report.Series{}
	}
	c.JSON(http.StatusOK, gin.H{"metric": metric, "title": metric.Title(), "points": series})
}

func (s *Server) reportGantt(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		badRequest(c, "user_id is required")
		return
	}
	w, err := window(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	intervals, err := s.reports.Timeline(c.Request.Context(), actorFrom(c), userID, w)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "intervals": intervals})
}

func (s *Server) reportScorecard(c *gin.Context) {
	w, err := window(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	rows, err := s.reports.Scorecard(c.Request.Context(), report.Request{Actor: actorFrom(c), Window: w})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if rows == nil {
		rows = []report.ScoreRow{}
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}
