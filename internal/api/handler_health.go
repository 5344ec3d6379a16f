package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// healthHandler handles GET /healthz.
func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Database: "unreachable"})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Database: "ok"})
}
