package discover

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"github.com/use-agent/skim/dom"
)

var (
	iconLinks = cascadia.MustCompile(`link[rel~="icon"]`)
	ogImage   = cascadia.MustCompile(`meta[property="og:image"]`)
)

// Metadata describes the listing page itself.
type Metadata struct {
	SiteName  string
	SiteImage string
	SiteTitle string
}

// siteName returns the host of pageURL without a leading "www.", or
// "Unknown" when it has none.
func siteName(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Hostname() == "" {
		return "Unknown"
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// siteImage returns the favicon address, falling back to the Open Graph
// image. Both are resolved against the document base.
func siteImage(doc *dom.Document) string {
	if n := doc.FindMatcher(iconLinks).Nodes; len(n) > 0 {
		if href, ok := dom.Attr(n[0], "href"); ok {
			if abs, ok := doc.Resolve(href); ok {
				return abs
			}
		}
	}
	if n := doc.FindMatcher(ogImage).Nodes; len(n) > 0 {
		if content, ok := dom.Attr(n[0], "content"); ok {
			if abs, ok := doc.Resolve(content); ok {
				return abs
			}
		}
	}
	return ""
}

// siteTitle runs readability over the raw page for its title and falls back
// to the <title> element when readability finds nothing.
func siteTitle(doc *dom.Document, rawHTML string) string {
	article, err := readability.FromReader(strings.NewReader(rawHTML), doc.Base)
	if err != nil {
		slog.Debug("metadata: readability failed", "url", doc.Base.String(), "error", err)
	} else if t := strings.TrimSpace(article.Title); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// resolveMetadata collects the page-level fields of a response.
func resolveMetadata(doc *dom.Document, pageURL, rawHTML string) Metadata {
	return Metadata{
		SiteName:  siteName(pageURL),
		SiteImage: siteImage(doc),
		SiteTitle: siteTitle(doc, rawHTML),
	}
}
