package dom

import (
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

var (
	// boilerplateRegions are page chrome whose links and images never
	// belong to an article listing.
	boilerplateRegions = cascadia.MustCompile("nav, header, footer")

	// minorHeadings hold repeated references to titles already linked
	// elsewhere in the same block.
	minorHeadings = cascadia.MustCompile("h3, h4, h5, h6")
)

// InBoilerplate reports whether n sits inside a nav, header or footer element.
func InBoilerplate(n *html.Node) bool {
	return boilerplateRegions.Match(n) || HasAncestor(n, boilerplateRegions)
}

// InMinorHeading reports whether n sits inside an h3..h6 element.
func InMinorHeading(n *html.Node) bool {
	return HasAncestor(n, minorHeadings)
}
