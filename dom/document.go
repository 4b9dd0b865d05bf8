package dom

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed page together with the address its relative
// references resolve against. The embedded goquery document's Url is the
// page address itself.
//
// The tree is owned by the underlying goquery document. Parent pointers on
// html.Node are only used for upward traversal.
type Document struct {
	*goquery.Document

	// Base is the address relative links resolve against: the page URL,
	// replaced by the document's <base href> when one is present.
	Base *url.URL
}

// Parse builds a Document from an HTML stream. pageURL must be absolute.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("dom: invalid page url %q: %w", pageURL, err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("dom: page url %q is not absolute", pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse html: %w", err)
	}
	doc.Url = base

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := doc.Url.Parse(strings.TrimSpace(href)); err == nil && b.IsAbs() {
			base = b
		}
	}

	return &Document{Document: doc, Base: base}, nil
}

// ParseString is Parse for an in-memory page.
func ParseString(rawHTML, pageURL string) (*Document, error) {
	return Parse(strings.NewReader(rawHTML), pageURL)
}

// Root returns the <html> element, or nil if the tree has none.
func (d *Document) Root() *html.Node {
	if len(d.Nodes) == 0 {
		return nil
	}
	for c := d.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Html {
			return c
		}
	}
	return nil
}

// Resolve turns ref into an absolute address against the document base.
// It reports false for blank or unparsable references.
func (d *Document) Resolve(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	u, err := d.Base.Parse(ref)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
