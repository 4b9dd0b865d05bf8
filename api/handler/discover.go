package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/skim/discover"
	"github.com/use-agent/skim/models"
)

// Discover returns a handler for GET and POST /api/v1/discover.
//
// GET reads url, keywords, logic, strategy and format from the query string;
// POST reads the same fields from a JSON body.
func Discover(d *discover.Discoverer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			req models.DiscoverRequest
			err error
		)
		if c.Request.Method == http.MethodGet {
			err = c.ShouldBindQuery(&req)
		} else {
			err = c.ShouldBindJSON(&req)
		}
		if err != nil {
			respondError(c, models.NewDiscoverError(models.ErrCodeInvalidInput, err.Error(), err), nil)
			return
		}

		run(c, d, &req)
	}
}

// run executes one discovery and writes the response.
func run(c *gin.Context, d *discover.Discoverer, req *models.DiscoverRequest) {
	resp, err := d.Discover(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// respondError is the single place where errors become HTTP responses.
// resp, when non-nil, keeps its timing and page metadata.
func respondError(c *gin.Context, err error, resp *models.DiscoverResponse) {
	de := asDiscoverError(err)
	if resp == nil {
		resp = &models.DiscoverResponse{}
	}
	resp.Success = false
	if resp.Articles == nil {
		resp.Articles = []models.Article{}
	}
	resp.Error = de.ToDetail()

	c.JSON(mapErrorToStatus(de), resp)
}

// asDiscoverError unwraps err to a DiscoverError, wrapping unknown errors as
// INTERNAL_ERROR.
func asDiscoverError(err error) *models.DiscoverError {
	var de *models.DiscoverError
	if errors.As(err, &de) {
		return de
	}
	return models.NewDiscoverError(models.ErrCodeInternal, err.Error(), err)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.DiscoverError) int {
	switch e.Code {
	case models.ErrCodeMissingParameter,
		models.ErrCodeInvalidLogic,
		models.ErrCodeInvalidStrategy,
		models.ErrCodeInvalidInput,
		models.ErrCodeNotHTML:
		return http.StatusBadRequest // 400
	case models.ErrCodeNoResults:
		return http.StatusNotFound // 404
	case models.ErrCodeFetchTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		// FETCH_FAILED and INTERNAL_ERROR.
		return http.StatusInternalServerError // 500
	}
}
