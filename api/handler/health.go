package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/skim/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Status degrades while every batch slot is busy.
func Health(batches *BatchStore, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := batches.Stats()

		status := "healthy"
		if stats.MaxConcurrent > 0 && len(batches.slots) >= stats.MaxConcurrent {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: Version,
			Batch:   stats,
		})
	}
}
