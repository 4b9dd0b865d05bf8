package keyword

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTerms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"single", "sport", []string{"sport"}},
		{"trims and lowers", " Sport , FINANCE ", []string{"sport", "finance"}},
		{"drops empties", "a,,b, ,", []string{"a", "b"}},
		{"dedupes keeping order", "b,a,B", []string{"b", "a"}},
		{"all empty", " , ,", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTerms(tt.raw))
		})
	}
}

func TestParseLogic(t *testing.T) {
	for _, in := range []string{"and", "AND", " And ", "et", "ET"} {
		l, err := ParseLogic(in)
		require.NoError(t, err, in)
		assert.Equal(t, And, l, in)
	}
	for _, in := range []string{"or", "OR", "ou"} {
		l, err := ParseLogic(in)
		require.NoError(t, err, in)
		assert.Equal(t, Or, l, in)
	}

	_, err := ParseLogic("xor")
	assert.True(t, errors.Is(err, ErrInvalidLogic))
}

func TestNew_Errors(t *testing.T) {
	_, err := New(" , ", "and")
	assert.ErrorIs(t, err, ErrNoTerms)

	_, err = New("sport", "maybe")
	assert.ErrorIs(t, err, ErrInvalidLogic)
}

func TestMatch_AndAcrossTitleAndURL(t *testing.T) {
	spec, err := New("sport,finance", "and")
	require.NoError(t, err)

	assert.True(t, spec.Match("Sport news", "https://example.com/finance-update"))
	assert.False(t, spec.Match("Sport news", "https://example.com/weather-update"))
}

func TestMatch_Or(t *testing.T) {
	spec, err := New("sport,finance", "or")
	require.NoError(t, err)

	assert.True(t, spec.Match("Weather", "https://example.com/finance-update"))
	assert.True(t, spec.Match("SPORT", ""))
	assert.False(t, spec.Match("Weather", "https://example.com/rain"))
}

func TestMatched_PreservesOrderAndIsNeverNil(t *testing.T) {
	spec, err := New("b,a,c", "or")
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a"}, spec.Matched("A and B", ""))

	none := spec.Matched("nothing", "")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

// Retained iff every term (AND) or some term (OR) is a substring of the
// title or url, for a grid of inputs.
func TestMatch_Property(t *testing.T) {
	titles := []string{"", "Alpha", "alpha beta", "GAMMA", "beta-gamma"}
	urls := []string{"", "https://x.com/alpha", "https://x.com/gamma-beta"}
	lists := []string{"alpha", "alpha,beta", "beta,gamma", "alpha,beta,gamma"}

	contains := func(title, url, term string) bool {
		return strings.Contains(strings.ToLower(title), term) || strings.Contains(strings.ToLower(url), term)
	}

	for _, raw := range lists {
		for _, logic := range []string{"and", "or"} {
			spec, err := New(raw, logic)
			require.NoError(t, err)
			for _, title := range titles {
				for _, url := range urls {
					all, some := true, false
					for _, term := range spec.Terms {
						if contains(title, url, term) {
							some = true
						} else {
							all = false
						}
					}
					want := all
					if spec.Logic == Or {
						want = some
					}
					assert.Equal(t, want, spec.Match(title, url), "%s/%s title=%q url=%q", raw, logic, title, url)
				}
			}
		}
	}
}
