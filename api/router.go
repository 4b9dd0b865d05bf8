package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/skim/api/handler"
	"github.com/use-agent/skim/api/middleware"
	"github.com/use-agent/skim/config"
	"github.com/use-agent/skim/discover"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	API:     Auth (if enabled) → RateLimit
//
// Health and the legacy /scrape endpoint are outside auth.
func NewRouter(ctx context.Context, d *discover.Discoverer, batches *handler.BatchStore, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	r.GET("/scrape", handler.Scrape(d))

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(batches, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	protected.GET("/discover", handler.Discover(d))
	protected.POST("/discover", handler.Discover(d))

	protected.POST("/batch/discover", handler.PostBatch(batches))
	protected.GET("/batch/:id", handler.GetBatch(batches))

	return r
}
