package engine

import (
	"context"
	"time"
)

// Engine is the interface that page fetchers implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http").
	Name() string

	// Fetch downloads the page for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string

	// Timeout overrides the engine's default deadline when positive.
	Timeout time.Duration
}

// FetchResult is the output of a successful fetch.
type FetchResult struct {
	// HTML is the page body decoded to UTF-8.
	HTML        string
	ContentType string
	StatusCode  int

	// FinalURL is the address after following redirects.
	FinalURL   string
	EngineName string
}
