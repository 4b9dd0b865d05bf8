package discover

import (
	"log/slog"
	"net"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/skim/config"
	"github.com/use-agent/skim/dom"
	"github.com/use-agent/skim/keyword"
	"github.com/use-agent/skim/models"
	"golang.org/x/net/html"
	"golang.org/x/net/publicsuffix"
)

// linkRules are the URL-shape tests an anchor must pass to count as an
// article link.
type linkRules struct {
	minLength  int
	paths      []string
	extensions []string
}

func newLinkRules(cfg config.DiscoverConfig) linkRules {
	r := linkRules{minLength: cfg.MinLinkLength}
	for _, p := range cfg.ExcludedPaths {
		r.paths = append(r.paths, strings.ToLower(p))
	}
	for _, e := range cfg.ExcludedExtensions {
		r.extensions = append(r.extensions, strings.ToLower(e))
	}
	return r
}

// isArticle reports whether the resolved address abs looks like an article
// on the same site as base.
func (r linkRules) isArticle(abs string, base *url.URL) bool {
	if utf8.RuneCountInString(abs) < r.minLength || strings.Contains(abs, "#") {
		return false
	}
	u, err := url.Parse(abs)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	if !sameSite(u.Hostname(), base.Hostname()) {
		return false
	}

	path := strings.ToLower(u.Path)
	for _, ext := range r.extensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	for _, p := range r.paths {
		if strings.Contains(path, p) {
			return false
		}
	}
	return strings.Contains(path, "-")
}

// sameSite compares the registrable domains of two hosts, so that
// www.example.co.uk and news.example.co.uk match. Hosts without a public
// suffix (IP addresses, localhost) must match exactly.
func sameSite(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if net.ParseIP(a) != nil || net.ParseIP(b) != nil {
		return false
	}
	ra, errA := publicsuffix.EffectiveTLDPlusOne(a)
	rb, errB := publicsuffix.EffectiveTLDPlusOne(b)
	if errA != nil || errB != nil {
		return false
	}
	return ra == rb
}

// links runs the link strategy over every anchor in document order.
func links(doc *dom.Document, spec keyword.Spec, cfg config.DiscoverConfig) []models.Article {
	rules := newLinkRules(cfg)
	seen := make(map[string]struct{})
	articles := []models.Article{}
	scanned := 0

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		anchor := s.Get(0)
		scanned++

		if dom.InBoilerplate(anchor) || dom.InMinorHeading(anchor) {
			return
		}

		href, _ := dom.Attr(anchor, "href")
		abs, ok := doc.Resolve(href)
		if !ok || !rules.isArticle(abs, doc.Base) {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}

		title := anchorTitle(anchor)
		if title == "" {
			slog.Debug("links: anchor without text", "url", abs)
			return
		}

		img := nearbyImage(anchor.Parent, cfg.SiblingScan)
		if img == nil {
			slog.Debug("links: anchor without image", "url", abs)
			return
		}
		image, ok := linkImageAddress(doc, img)
		if !ok {
			return
		}

		matched := spec.Matched(title, abs)
		if !spec.Accept(matched) {
			return
		}

		seen[abs] = struct{}{}
		u := abs
		articles = append(articles, models.Article{
			Title:    title,
			URL:      &u,
			Image:    &image,
			Keywords: matched,
		})
	})

	slog.Info("links: scanned anchors", "anchors", scanned, "retained", len(articles))
	return articles
}

// anchorTitle picks the longest text among the anchor's descendants and
// keeps its longest case-boundary segment.
func anchorTitle(anchor *html.Node) string {
	longest := ""
	dom.Walk(anchor, func(n *html.Node) {
		if t := dom.Text(n); utf8.RuneCountInString(t) > utf8.RuneCountInString(longest) {
			longest = t
		}
	})
	return LongestSegment(longest)
}

// nearbyImage finds the image that belongs with an anchor: first inside the
// anchor's parent, then in the parent's siblings, nearest first, up to
// maxSteps away in each direction. Images in page chrome are ignored.
func nearbyImage(parent *html.Node, maxSteps int) *html.Node {
	if parent == nil {
		return nil
	}
	if img := imageWithin(parent); img != nil {
		return img
	}

	next, prev := parent.NextSibling, parent.PrevSibling
	for step := 0; step < maxSteps; step++ {
		next = nextElement(next, func(n *html.Node) *html.Node { return n.NextSibling })
		prev = nextElement(prev, func(n *html.Node) *html.Node { return n.PrevSibling })
		if next == nil && prev == nil {
			return nil
		}
		for _, sib := range []*html.Node{next, prev} {
			if sib == nil {
				continue
			}
			if isUsableImage(sib) {
				return sib
			}
			if img := imageWithin(sib); img != nil {
				return img
			}
		}
		if next != nil {
			next = next.NextSibling
		}
		if prev != nil {
			prev = prev.PrevSibling
		}
	}
	return nil
}

// nextElement returns n or the first element reached from it via step.
func nextElement(n *html.Node, step func(*html.Node) *html.Node) *html.Node {
	for ; n != nil; n = step(n) {
		if n.Type == html.ElementNode {
			return n
		}
	}
	return nil
}

func imageWithin(n *html.Node) *html.Node {
	return dom.FirstDescendant(n, isUsableImage)
}

func isUsableImage(n *html.Node) bool {
	if !dom.IsTag(n, "img") || dom.InBoilerplate(n) {
		return false
	}
	_, ok := rawImageAddress(n)
	return ok
}
