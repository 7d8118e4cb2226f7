// internal/handlers/health.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vials-labs/vials-backend/internal/database"
)

const Version = "1.0.0"

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := database.Ping(ctx, h.db); err != nil {
		requestLog(c).WithError(err).Warn("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success":  false,
			"status":   "unhealthy",
			"database": "unreachable",
			"version":  Version,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"status":   "healthy",
		"database": "ok",
		"version":  Version,
	})
}
