package discover

import (
	"strings"

	"github.com/use-agent/skim/dom"
	"golang.org/x/net/html"
)

// srcsetLast returns the URL of the final candidate in a srcset value, which
// by convention is the highest-resolution variant.
func srcsetLast(srcset string) string {
	candidates := strings.Split(srcset, ",")
	for i := len(candidates) - 1; i >= 0; i-- {
		if fields := strings.Fields(candidates[i]); len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

// rawImageAddress picks the best address an <img> carries: the last srcset
// candidate, then data-src for lazy-loaded images, then src.
func rawImageAddress(img *html.Node) (string, bool) {
	if v, ok := dom.Attr(img, "srcset"); ok {
		if u := srcsetLast(v); u != "" {
			return u, true
		}
	}
	for _, key := range []string{"data-src", "src"} {
		if v, ok := dom.Attr(img, key); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// linkImageAddress returns the image address for the link strategy.
// Root-relative and protocol-relative addresses are resolved against the
// page base; anything else is returned as written.
func linkImageAddress(doc *dom.Document, img *html.Node) (string, bool) {
	raw, ok := rawImageAddress(img)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(raw, "/") {
		return doc.Resolve(raw)
	}
	return raw, true
}
