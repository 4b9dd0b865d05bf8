// Package discover finds article listings on arbitrary HTML pages.
//
// Two independent strategies are available and one is selected per request:
//
//	structure: cluster the ancestor paths of the page's images and take one
//	           container per repeating block.
//	links:     classify anchors by URL shape and attach a title and image
//	           found next to each one.
//
// Either way the candidates pass the keyword filter before being returned.
package discover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/use-agent/skim/config"
	"github.com/use-agent/skim/dom"
	"github.com/use-agent/skim/engine"
	"github.com/use-agent/skim/keyword"
	"github.com/use-agent/skim/models"
)

// Strategy names an extraction strategy.
type Strategy string

const (
	StrategyStructure Strategy = "structure"
	StrategyLinks     Strategy = "links"
)

// ParseStrategy validates a strategy name (case-insensitive).
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyStructure:
		return StrategyStructure, nil
	case StrategyLinks:
		return StrategyLinks, nil
	}
	return "", models.NewDiscoverError(models.ErrCodeInvalidStrategy,
		fmt.Sprintf("strategy must be %q or %q, got %q", StrategyStructure, StrategyLinks, s), nil)
}

// Options are the validated per-request settings.
type Options struct {
	URL      string
	Keywords keyword.Spec
	Strategy Strategy
	Markdown bool
}

// ParseOptions validates req, which must already carry its defaults.
// Every failure is a *models.DiscoverError with a client-error code.
func ParseOptions(req *models.DiscoverRequest) (Options, error) {
	target := strings.TrimSpace(req.URL)
	if target == "" || strings.TrimSpace(req.Keywords) == "" || strings.TrimSpace(req.Logic) == "" {
		return Options{}, models.NewDiscoverError(models.ErrCodeMissingParameter,
			"url, keywords and logic are required", nil)
	}

	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Options{}, models.NewDiscoverError(models.ErrCodeInvalidInput,
			fmt.Sprintf("url must be an absolute http(s) address, got %q", req.URL), err)
	}

	spec, err := keyword.New(req.Keywords, req.Logic)
	switch {
	case errors.Is(err, keyword.ErrNoTerms):
		return Options{}, models.NewDiscoverError(models.ErrCodeMissingParameter,
			"keywords must contain at least one non-empty term", err)
	case errors.Is(err, keyword.ErrInvalidLogic):
		return Options{}, models.NewDiscoverError(models.ErrCodeInvalidLogic,
			fmt.Sprintf("logic must be \"and\" or \"or\", got %q", req.Logic), err)
	case err != nil:
		return Options{}, models.NewDiscoverError(models.ErrCodeInvalidInput, err.Error(), err)
	}

	strategy, err := ParseStrategy(req.Strategy)
	if err != nil {
		return Options{}, err
	}

	var md bool
	switch strings.ToLower(req.Format) {
	case "json", "":
	case "markdown":
		md = true
	default:
		return Options{}, models.NewDiscoverError(models.ErrCodeInvalidInput,
			fmt.Sprintf("format must be \"json\" or \"markdown\", got %q", req.Format), nil)
	}

	return Options{URL: target, Keywords: spec, Strategy: strategy, Markdown: md}, nil
}

// Discoverer runs the fetch, parse and extract pipeline for one page at a
// time. It holds no per-request state and is safe for concurrent use.
type Discoverer struct {
	engine engine.Engine
	cfg    *config.Config
	md     *converter.Converter
}

// New creates a Discoverer that fetches pages with eng.
func New(eng engine.Engine, cfg *config.Config) *Discoverer {
	return &Discoverer{
		engine: eng,
		cfg:    cfg,
		md:     newMarkdownConverter(),
	}
}

// Discover validates req, fetches the page and extracts its articles.
//
// The returned response is never nil: on failure it still carries the
// timing, and for NO_RESULTS the page metadata as well.
func (d *Discoverer) Discover(ctx context.Context, req *models.DiscoverRequest) (*models.DiscoverResponse, error) {
	totalStart := time.Now()
	req.Defaults(d.cfg.Discover.DefaultStrategy)

	opts, err := ParseOptions(req)
	if err != nil {
		return failed(totalStart, 0), err
	}

	fetchStart := time.Now()
	page, err := d.engine.Fetch(ctx, &engine.FetchRequest{URL: opts.URL})
	fetchMs := time.Since(fetchStart).Milliseconds()
	if err != nil {
		slog.Warn("discover: fetch failed", "url", opts.URL, "error", err)
		return failed(totalStart, fetchMs), err
	}

	pageURL := page.FinalURL
	if pageURL == "" {
		pageURL = opts.URL
	}

	resp, err := d.extract(page.HTML, pageURL, opts)
	resp.Timing.FetchMs = fetchMs
	resp.Timing.TotalMs = time.Since(totalStart).Milliseconds()
	return resp, err
}

// DiscoverHTML runs the pipeline on an already downloaded page.
func (d *Discoverer) DiscoverHTML(req *models.DiscoverRequest, rawHTML string) (*models.DiscoverResponse, error) {
	totalStart := time.Now()
	req.Defaults(d.cfg.Discover.DefaultStrategy)

	opts, err := ParseOptions(req)
	if err != nil {
		return failed(totalStart, 0), err
	}

	resp, err := d.extract(rawHTML, opts.URL, opts)
	resp.Timing.TotalMs = time.Since(totalStart).Milliseconds()
	return resp, err
}

func (d *Discoverer) extract(rawHTML, pageURL string, opts Options) (*models.DiscoverResponse, error) {
	start := time.Now()

	doc, err := dom.ParseString(rawHTML, pageURL)
	if err != nil {
		resp := failed(start, 0)
		return resp, models.NewDiscoverError(models.ErrCodeInternal, "parsing page failed", err)
	}

	resp, err := d.Extract(doc, rawHTML, opts)
	resp.Timing.ExtractMs = time.Since(start).Milliseconds()
	return resp, err
}

// Extract runs the selected strategy over doc. A panic anywhere in
// extraction is returned as INTERNAL_ERROR.
func (d *Discoverer) Extract(doc *dom.Document, rawHTML string, opts Options) (resp *models.DiscoverResponse, err error) {
	resp = &models.DiscoverResponse{
		Articles:  []models.Article{},
		SourceURL: doc.Url.String(),
		Strategy:  string(opts.Strategy),
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("discover: extraction panicked", "url", resp.SourceURL, "panic", r)
			resp.Success = false
			resp.Articles = []models.Article{}
			resp.SeparationLevel = nil
			err = models.NewDiscoverError(models.ErrCodeInternal,
				fmt.Sprintf("extraction failed: %v", r), nil)
		}
	}()

	meta := resolveMetadata(doc, resp.SourceURL, rawHTML)
	resp.SiteName = meta.SiteName
	resp.SiteImage = meta.SiteImage
	resp.SiteTitle = meta.SiteTitle

	switch opts.Strategy {
	case StrategyLinks:
		resp.Articles = links(doc, opts.Keywords, d.cfg.Discover)
		if len(resp.Articles) == 0 {
			return resp, models.NewDiscoverError(models.ErrCodeNoResults,
				"no article links matched the keywords", nil)
		}
	default:
		resp.Articles, resp.SeparationLevel = structure(doc, opts.Keywords)
	}

	if opts.Markdown {
		md, err := toMarkdown(d.md, resp.SiteTitle, resp.Articles, doc.Base.String())
		if err != nil {
			return resp, models.NewDiscoverError(models.ErrCodeInternal, "markdown rendering failed", err)
		}
		resp.Markdown = md
	}

	slog.Info("discover: extracted",
		"url", resp.SourceURL,
		"strategy", resp.Strategy,
		"articles", len(resp.Articles),
	)

	resp.Success = true
	return resp, nil
}

func failed(start time.Time, fetchMs int64) *models.DiscoverResponse {
	return &models.DiscoverResponse{
		Articles: []models.Article{},
		Timing: models.TimingInfo{
			TotalMs: time.Since(start).Milliseconds(),
			FetchMs: fetchMs,
		},
	}
}
