package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/contact-manager/internal/logger"
)

const readinessTimeout = 2 * time.Second

type healthHandler struct {
	database Pinger
}

// live always succeeds while the process serves requests.
func (h *healthHandler) live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// ready succeeds when the database answers a ping.
func (h *healthHandler) ready(c *gin.Context) {
	if h.database != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()
		if err := h.database.Ping(ctx); err != nil {
			logger.FromContext(ctx).WarnContext(ctx, "database not ready", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": gin.H{"database": err.Error()}})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
