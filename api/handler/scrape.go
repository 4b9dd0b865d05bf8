package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/use-agent/skim/discover"
	"github.com/use-agent/skim/models"
)

// Scrape returns a handler for the legacy GET /scrape?url=&keywords=&logic=
// endpoint. It is served outside the authenticated API group and accepts
// only query parameters.
func Scrape(d *discover.Discoverer) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := models.DiscoverRequest{
			URL:      c.Query("url"),
			Keywords: c.Query("keywords"),
			Logic:    c.Query("logic"),
			Strategy: c.Query("strategy"),
			Format:   c.Query("format"),
		}
		run(c, d, &req)
	}
}
