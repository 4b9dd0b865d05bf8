package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr returns the value of the named attribute and whether it is present.
// Keys are compared case-insensitively. A present-but-empty attribute
// returns ("", true) so callers can tell it apart from a missing one.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// IsTag reports whether n is an element with the given tag name.
func IsTag(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

// TagName returns the element name of n, or "" for non-element nodes.
func TagName(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return n.Data
}

// Text flattens the text content under n.
//
// Runs of whitespace collapse to a single space and the result is trimmed.
// Adjacent text nodes that have no whitespace between them in the markup
// stay glued together, so "<b>Sport</b><i>Today</i>" yields "SportToday".
// Script, style and template contents are skipped.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	collectText(n, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// FirstDescendant returns the first element below n (document order,
// excluding n itself) for which match returns true.
func FirstDescendant(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := FirstDescendant(c, match); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits every node below n in document order, n excluded.
func Walk(n *html.Node, visit func(*html.Node)) {
	if n == nil {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visit(c)
		Walk(c, visit)
	}
}

// HasAncestor reports whether any ancestor of n (n excluded) satisfies match.
func HasAncestor(n *html.Node, match func(*html.Node) bool) bool {
	if n == nil {
		return false
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && match(p) {
			return true
		}
	}
	return false
}
