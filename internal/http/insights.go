package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"finance-tracker-go/internal/export"
)

func (s *Server) getDashboard(c *gin.Context) {
	dash, err := s.Aggregate.Dashboard(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, dash)
}

func (s *Server) getStats(c *gin.Context) {
	stats, err := s.Aggregate.DashboardStats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, stats)
}

// GET /v1/dashboard/daily?days=N
func (s *Server) getDaily(c *gin.Context) {
	days := s.cfg.DailyWindowDays
	if q := c.Query("days"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > 366 {
			c.JSON(400, gin.H{"error": "invalid_days"})
			return
		}
		days = n
	}
	series, err := s.Aggregate.DailySeries(c.Request.Context(), days)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, series)
}

func (s *Server) getCategoryDistribution(c *gin.Context) {
	dist, err := s.Aggregate.CategoryDistribution(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, dist)
}

// GET /v1/export/transactions?format=csv|xlsx
func (s *Server) exportTransactions(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid_format"})
		return
	}
	details, err := s.Aggregate.ListTransactionsWithDetails(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	stamp := s.Aggregate.Today().Format("20060102")
	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", "attachment; filename=\""+format.Filename(stamp)+"\"")
	c.Status(200)
	if err := export.Write(c.Writer, format, details); err != nil {
		s.log.Error().Err(err).Msg("export failed")
	}
}
