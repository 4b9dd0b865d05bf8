// Package cluster finds the repeating container level of article blocks from
// the ancestor paths of a page's images.
package cluster

import (
	"github.com/use-agent/skim/dom"
	"golang.org/x/net/html"
)

// Result is the outcome of clustering a page's image paths.
type Result struct {
	// Paths are the surviving paths, all of equal length.
	Paths []dom.Path

	// Level counts from the path tail: the container of each path is
	// Paths[i][len(Paths[i])+Level]. It is always negative when Found.
	Level int

	// Found is false when no repeating structure was detected.
	Found bool
}

// Container returns the container node of p at the result's level.
func (r Result) Container(p dom.Path) *html.Node {
	idx := len(p) + r.Level
	if !r.Found || idx < 0 || idx >= len(p) {
		return nil
	}
	return p[idx]
}

// Run prunes paths down to the recurring ones and resolves their
// separation level.
func Run(paths []dom.Path) Result {
	survivors := Prune(paths)
	level, ok := SeparationLevel(survivors)
	return Result{Paths: survivors, Level: level, Found: ok}
}

// Prune keeps only the deepest paths, then walks from the deepest index
// toward the root discarding every path whose tag at that index occurs
// fewer than twice among the remaining candidates. Pruning stops once one
// or zero candidates remain or the root index has been processed.
func Prune(paths []dom.Path) []dom.Path {
	if len(paths) == 0 {
		return nil
	}

	maxLen := 0
	for _, p := range paths {
		if len(p) > maxLen {
			maxLen = len(p)
		}
	}

	candidates := make([]dom.Path, 0, len(paths))
	for _, p := range paths {
		if len(p) == maxLen {
			candidates = append(candidates, p)
		}
	}

	for idx := maxLen - 1; idx >= 0 && len(candidates) > 1; idx-- {
		counts := make(map[string]int, len(candidates))
		for _, p := range candidates {
			counts[dom.TagName(p[idx])]++
		}
		kept := candidates[:0:0]
		for _, p := range candidates {
			if counts[dom.TagName(p[idx])] > 1 {
				kept = append(kept, p)
			}
		}
		candidates = kept
	}

	return candidates
}

// SeparationLevel returns the tail-relative index of the article container
// shared by paths, which must all have the same length.
//
// The container is the shallowest index at which the paths stop running
// through the same element: everything above it is common page structure,
// everything at or below it belongs to one block. Different tag names at an
// index always mean different elements, so a tag divergence is caught at
// that index or above it. The container is always a proper ancestor of the
// images: sibling images under one parent share that parent as their block.
// A single path has no divergence and resolves to the root, level -len.
//
// ok is false only when paths is empty.
func SeparationLevel(paths []dom.Path) (level int, ok bool) {
	if len(paths) == 0 {
		return 0, false
	}

	n := len(paths[0])
	for idx := 0; idx < n; idx++ {
		first := paths[0][idx]
		for _, p := range paths[1:] {
			if p[idx] != first {
				if idx == n-1 && idx > 0 {
					idx--
				}
				return idx - n, true
			}
		}
	}
	return -n, true
}
