// Package keyword implements the AND/OR keyword filter applied to article
// candidates.
package keyword

import (
	"errors"
	"fmt"
	"strings"
)

// Logic selects how multiple terms combine.
type Logic int

const (
	// And requires every term to occur.
	And Logic = iota
	// Or requires at least one term to occur.
	Or
)

func (l Logic) String() string {
	if l == Or {
		return "or"
	}
	return "and"
}

var (
	// ErrNoTerms is returned when the keyword list is empty after normalisation.
	ErrNoTerms = errors.New("keyword: no terms")

	// ErrInvalidLogic is returned for a logic value other than and/or.
	ErrInvalidLogic = errors.New("keyword: invalid logic")
)

// Spec is a normalised keyword filter.
type Spec struct {
	// Terms are lower-case, trimmed, non-empty and unique, in input order.
	Terms []string
	Logic Logic
}

// ParseLogic accepts "and"/"or" in any case, plus the legacy "et"/"ou".
func ParseLogic(s string) (Logic, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "and", "et":
		return And, nil
	case "or", "ou":
		return Or, nil
	default:
		return And, fmt.Errorf("%w: %q", ErrInvalidLogic, s)
	}
}

// ParseTerms splits a comma-separated list into normalised terms.
func ParseTerms(raw string) []string {
	parts := strings.Split(raw, ",")
	terms := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		t := strings.ToLower(strings.TrimSpace(p))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}

// New builds a Spec from the raw request values.
func New(rawTerms, rawLogic string) (Spec, error) {
	terms := ParseTerms(rawTerms)
	if len(terms) == 0 {
		return Spec{}, ErrNoTerms
	}
	logic, err := ParseLogic(rawLogic)
	if err != nil {
		return Spec{}, err
	}
	return Spec{Terms: terms, Logic: logic}, nil
}

// Matched returns the terms found, case-insensitively, in title or url.
// The result preserves term order and is never nil.
func (s Spec) Matched(title, url string) []string {
	title = strings.ToLower(title)
	url = strings.ToLower(url)

	found := []string{}
	for _, t := range s.Terms {
		if strings.Contains(title, t) || strings.Contains(url, t) {
			found = append(found, t)
		}
	}
	return found
}

// Accept applies the filter's logic to a set of matched terms produced by
// Matched.
func (s Spec) Accept(matched []string) bool {
	if len(s.Terms) == 0 {
		return false
	}
	if s.Logic == Or {
		return len(matched) > 0
	}
	return len(matched) == len(s.Terms)
}

// Match reports whether a candidate with the given title and url passes.
func (s Spec) Match(title, url string) bool {
	return s.Accept(s.Matched(title, url))
}
