package models

// DiscoverResponse is the response for the discover endpoints.
type DiscoverResponse struct {
	// Success indicates whether discovery completed without errors.
	Success bool `json:"success"`

	// Articles are the retained candidates in document order.
	Articles []Article `json:"article_links"`

	// SiteImage is the favicon (or Open Graph image) address, or "".
	SiteImage string `json:"site_image"`

	// SiteName is the page host without a leading "www.".
	SiteName string `json:"site_name"`

	// SiteTitle is the page title.
	SiteTitle string `json:"site_title,omitempty"`

	// SourceURL is the final page address after redirects.
	SourceURL string `json:"source_url,omitempty"`

	// Strategy names the extraction strategy that produced Articles.
	Strategy string `json:"strategy,omitempty"`

	// SeparationLevel is the container level found by the structure
	// strategy, counted back from each image. Absent when none was found
	// or another strategy ran.
	SeparationLevel *int `json:"separation_level,omitempty"`

	// Markdown is a rendered digest of Articles when format=markdown.
	Markdown string `json:"markdown,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// Article is one discovered listing entry. Both strategies produce it.
type Article struct {
	Title string `json:"title"`

	// URL is the absolute article address, nil when the block has no link.
	URL *string `json:"url"`

	// Image is the article image address, nil when none was found.
	Image *string `json:"image"`

	// Keywords are the filter terms found in Title or URL.
	Keywords []string `json:"keywords"`
}

// URLString returns the article address or "".
func (a Article) URLString() string {
	if a.URL == nil {
		return ""
	}
	return *a.URL
}

// ImageString returns the image address or "".
func (a Article) ImageString() string {
	if a.Image == nil {
		return ""
	}
	return *a.Image
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// FetchMs is the time spent downloading the page.
	FetchMs int64 `json:"fetch_ms"`

	// ExtractMs is the time spent parsing and extracting articles.
	ExtractMs int64 `json:"extract_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`

	// Batch reports the batch worker pool state.
	Batch BatchStats `json:"batch"`
}

// BatchStats reports the state of the batch worker pool.
type BatchStats struct {
	MaxConcurrent int `json:"max_concurrent"`
	ActiveJobs    int `json:"active_jobs"`
}
