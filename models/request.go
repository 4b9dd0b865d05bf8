package models

// DiscoverRequest is the payload for GET /scrape, GET /api/v1/discover
// (query string) and POST /api/v1/discover (JSON body).
type DiscoverRequest struct {
	// URL is the listing page to analyse. Required.
	URL string `json:"url" form:"url"`

	// Keywords is a comma-separated term list. Required; terms are trimmed
	// and lower-cased, empty terms are dropped.
	Keywords string `json:"keywords" form:"keywords"`

	// Logic combines the terms: "and" or "or" (case-insensitive).
	// The legacy values "et" and "ou" are accepted as aliases. Required.
	Logic string `json:"logic" form:"logic"`

	// Strategy selects the extraction strategy.
	// "structure" (default): cluster image ancestor paths into blocks.
	// "links": classify anchors by URL shape.
	Strategy string `json:"strategy,omitempty" form:"strategy"`

	// Format controls the response body.
	// "json" (default) or "markdown" (adds a rendered digest).
	Format string `json:"format,omitempty" form:"format"`
}

// Defaults applies default values to unset optional fields.
func (r *DiscoverRequest) Defaults(defaultStrategy string) {
	if r.Strategy == "" {
		r.Strategy = defaultStrategy
	}
	if r.Format == "" {
		r.Format = "json"
	}
}
