package discover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/skim/dom"
)

func TestSplitCaseBoundaries(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"plain text", []string{"plain text"}},
		{"SportBig win", []string{"Sport", "Big win"}},
		{"iPhone launch", []string{"i", "Phone launch"}},
		{"ALL CAPS", []string{"ALL CAPS"}},
		{"ÉtéFête", []string{"Été", "Fête"}},
		{"aBcD", []string{"a", "Bc", "D"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitCaseBoundaries(tt.in))
		})
	}
}

func TestLongestSegment(t *testing.T) {
	assert.Equal(t, "Big win for the home side", LongestSegment("SportBig win for the home side"))
	assert.Equal(t, "Markets rally", LongestSegment("Markets rally"))
	assert.Equal(t, "Ab", LongestSegment("AbCd"), "earlier segment wins ties")
	assert.Equal(t, "", LongestSegment("   "))
}

func TestSrcsetLast(t *testing.T) {
	assert.Equal(t, "/l.jpg", srcsetLast("/s.jpg 320w, /m.jpg 640w, /l.jpg 1024w"))
	assert.Equal(t, "/only.jpg", srcsetLast("/only.jpg"))
	assert.Equal(t, "/m.jpg", srcsetLast("/s.jpg 1x, /m.jpg 2x, "))
	assert.Equal(t, "", srcsetLast(" , "))
}

func TestImageAddresses(t *testing.T) {
	tests := []struct {
		name    string
		img     string
		wantRaw string
		wantOK  bool
		wantAbs string
	}{
		{"srcset wins", `<img src="/s.jpg" data-src="/d.jpg" srcset="/a.jpg 1x, /b.jpg 2x">`, "/b.jpg", true, "https://example.com/b.jpg"},
		{"data-src before src", `<img src="/s.jpg" data-src="/d.jpg">`, "/d.jpg", true, "https://example.com/d.jpg"},
		{"src", `<img src="/s.jpg">`, "/s.jpg", true, "https://example.com/s.jpg"},
		{"protocol relative", `<img src="//cdn.example.net/s.jpg">`, "//cdn.example.net/s.jpg", true, "https://cdn.example.net/s.jpg"},
		{"relative passes through", `<img src="img/s.jpg">`, "img/s.jpg", true, "img/s.jpg"},
		{"absolute passes through", `<img src="https://cdn.example.net/s.jpg">`, "https://cdn.example.net/s.jpg", true, "https://cdn.example.net/s.jpg"},
		{"blank", `<img src="  ">`, "", false, ""},
		{"none", `<img alt="x">`, "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := dom.ParseString("<html><body>"+tt.img+"</body></html>", "https://example.com/news/")
			require.NoError(t, err)
			img := doc.Find("img").Get(0)

			raw, ok := rawImageAddress(img)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantRaw, raw)

			abs, ok := linkImageAddress(doc, img)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantAbs, abs)
		})
	}
}
