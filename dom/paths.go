package dom

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Path is the ancestor chain of a node, root-first. The last element is the
// node the path was built for.
type Path []*html.Node

// Tail returns the node the path leads to.
func (p Path) Tail() *html.Node {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

// Tags returns the tag names along the path.
func (p Path) Tags() []string {
	tags := make([]string, len(p))
	for i, n := range p {
		tags[i] = TagName(n)
	}
	return tags
}

// ImagePaths returns one Path per <img> in document order, each running from
// the <html> element down to the image. Images not attached under an <html>
// element are skipped.
func (d *Document) ImagePaths() []Path {
	root := d.Root()
	if root == nil {
		return nil
	}

	var paths []Path
	Walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode || n.DataAtom != atom.Img {
			return
		}
		if p := PathTo(n); p != nil {
			paths = append(paths, p)
		}
	})
	return paths
}

// PathTo walks parent references from n up to the enclosing <html> element
// and returns the chain root-first. It returns nil when no <html> ancestor
// is reachable.
func PathTo(n *html.Node) Path {
	var rev Path
	for cur := n; cur != nil; cur = cur.Parent {
		rev = append(rev, cur)
		if cur.Type == html.ElementNode && cur.DataAtom == atom.Html {
			for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
				rev[i], rev[j] = rev[j], rev[i]
			}
			return rev
		}
	}
	return nil
}
