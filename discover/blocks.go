package discover

import (
	"log/slog"

	"github.com/use-agent/skim/cluster"
	"github.com/use-agent/skim/dom"
	"github.com/use-agent/skim/keyword"
	"github.com/use-agent/skim/models"
	"golang.org/x/net/html"
)

// structure runs the structural strategy: cluster the image paths, take one
// container per repeating block and resolve each into an article. level is
// nil when the page has no repeating structure; that is an empty result,
// not an error.
func structure(doc *dom.Document, spec keyword.Spec) (articles []models.Article, level *int) {
	paths := doc.ImagePaths()
	res := cluster.Run(paths)

	slog.Info("structure: clustered image paths",
		"images", len(paths),
		"survivors", len(res.Paths),
		"found", res.Found,
		"level", res.Level,
	)

	articles = []models.Article{}
	if !res.Found {
		slog.Warn("structure: no separation level found", "url", doc.Base.String())
		return articles, nil
	}

	blocks := containers(res)
	for _, block := range blocks {
		a := resolveBlock(doc, block, spec)
		if !spec.Accept(a.Keywords) {
			slog.Debug("structure: block rejected by keywords", "title", a.Title, "url", a.URLString())
			continue
		}
		articles = append(articles, a)
	}

	slog.Info("structure: resolved blocks", "blocks", len(blocks), "retained", len(articles))

	lvl := res.Level
	return articles, &lvl
}

// containers returns the distinct container nodes of res in path order.
// Blocks holding several images appear once.
func containers(res cluster.Result) []*html.Node {
	seen := make(map[*html.Node]struct{}, len(res.Paths))
	out := make([]*html.Node, 0, len(res.Paths))
	for _, p := range res.Paths {
		c := res.Container(p)
		if c == nil {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// resolveBlock derives the article fields of one container.
func resolveBlock(doc *dom.Document, block *html.Node, spec keyword.Spec) models.Article {
	var a models.Article

	if img := dom.FirstDescendant(block, func(n *html.Node) bool { return dom.IsTag(n, "img") }); img != nil {
		if src, ok := dom.Attr(img, "src"); ok {
			if abs, ok := doc.Resolve(src); ok {
				a.Image = &abs
			}
		}
	}

	anchor := blockAnchor(block)
	if anchor != nil {
		href, _ := dom.Attr(anchor, "href")
		if abs, ok := doc.Resolve(href); ok {
			a.URL = &abs
		}
		a.Title = dom.Text(anchor)
	}
	if a.Title == "" {
		a.Title = dom.Text(block)
	}

	a.Keywords = spec.Matched(a.Title, a.URLString())
	return a
}

// blockAnchor returns the link of a block: the container itself when it is
// an anchor, otherwise its first descendant <a href>.
func blockAnchor(block *html.Node) *html.Node {
	if isLink(block) {
		return block
	}
	return dom.FirstDescendant(block, isLink)
}

func isLink(n *html.Node) bool {
	if !dom.IsTag(n, "a") {
		return false
	}
	_, ok := dom.Attr(n, "href")
	return ok
}
