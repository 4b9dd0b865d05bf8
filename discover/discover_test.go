package discover

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/skim/config"
	"github.com/use-agent/skim/dom"
	"github.com/use-agent/skim/engine"
	"github.com/use-agent/skim/models"
)

const cardsPage = `<html><head><title>Example News Daily Listing</title>
<link rel="shortcut icon" href="/favicon.ico"></head>
<body>
<header><img src="/logo.png"></header>
<div class="card"><img src="/a.jpg"><a href="/post-one">Title One</a></div>
<div class="card"><img src="/b.jpg"><a href="/post-two">Title Two</a></div>
<div class="card"><img src="/c.jpg"><a href="/post-three">Title Three</a></div>
</body></html>`

const linksPage = `<html><head><title>Example News Daily Listing</title></head>
<body>
<nav><div><img src="/nav.png"><a href="/sport/world-sport-today">World sport today</a></div></nav>
<ul>
  <li><img src="/img/1.jpg"><a href="/sport/big-win-for-the-home-side">SportBig win for the home side</a></li>
  <li><img srcset="/img/2-small.jpg 320w, /img/2-large.jpg 1024w"><a href="/news/markets-rally-on-finance-news">Markets rally on finance news</a></li>
  <li><img src="/img/3.jpg"><a href="https://other.org/news/sport-elsewhere-story">Sport elsewhere story</a></li>
  <li><img src="/img/4.jpg"><a href="/news/sportnews">Sport without slug</a></li>
  <li><img src="/img/6.jpg"><a href="/files/sport-annual-report.pdf">Sport report</a></li>
  <li><img src="/img/7.jpg"><a href="/tag/sport-latest-stories">Sport tag page</a></li>
  <li><img src="/img/8.jpg"><h3><a href="/news/sport-heading-duplicate">Sport heading duplicate</a></h3></li>
  <li><img src="/img/1.jpg"><a href="/sport/big-win-for-the-home-side">Big win for the home side again</a></li>
</ul>
</body></html>`

func newTestDiscoverer(eng engine.Engine) *Discoverer {
	return New(eng, config.Defaults())
}

func request(url, keywords, logic, strategy string) *models.DiscoverRequest {
	return &models.DiscoverRequest{URL: url, Keywords: keywords, Logic: logic, Strategy: strategy}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *models.DiscoverError
	require.True(t, errors.As(err, &de), "expected *models.DiscoverError, got %T", err)
	assert.Equal(t, code, de.Code)
}

func TestParseOptions_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  models.DiscoverRequest
		code string
	}{
		{"missing url", models.DiscoverRequest{Keywords: "a", Logic: "and"}, models.ErrCodeMissingParameter},
		{"missing keywords", models.DiscoverRequest{URL: "https://example.com", Logic: "and"}, models.ErrCodeMissingParameter},
		{"missing logic", models.DiscoverRequest{URL: "https://example.com", Keywords: "a"}, models.ErrCodeMissingParameter},
		{"blank terms", models.DiscoverRequest{URL: "https://example.com", Keywords: " , ,", Logic: "and"}, models.ErrCodeMissingParameter},
		{"bad logic", models.DiscoverRequest{URL: "https://example.com", Keywords: "a", Logic: "xor"}, models.ErrCodeInvalidLogic},
		{"relative url", models.DiscoverRequest{URL: "/news", Keywords: "a", Logic: "and"}, models.ErrCodeInvalidInput},
		{"ftp url", models.DiscoverRequest{URL: "ftp://example.com/x", Keywords: "a", Logic: "and"}, models.ErrCodeInvalidInput},
		{"bad strategy", models.DiscoverRequest{URL: "https://example.com", Keywords: "a", Logic: "or", Strategy: "magic"}, models.ErrCodeInvalidStrategy},
		{"bad format", models.DiscoverRequest{URL: "https://example.com", Keywords: "a", Logic: "or", Strategy: "links", Format: "xml"}, models.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOptions(&tt.req)
			requireCode(t, err, tt.code)
		})
	}
}

func TestParseOptions_Valid(t *testing.T) {
	req := request(" https://example.com/news ", "Sport, FINANCE ,sport", "OU", "Links")
	req.Format = "markdown"

	opts, err := ParseOptions(req)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/news", opts.URL)
	assert.Equal(t, []string{"sport", "finance"}, opts.Keywords.Terms)
	assert.Equal(t, "or", opts.Keywords.Logic.String())
	assert.Equal(t, StrategyLinks, opts.Strategy)
	assert.True(t, opts.Markdown)
}

func TestDiscoverHTML_StructureCards(t *testing.T) {
	d := newTestDiscoverer(nil)

	resp, err := d.DiscoverHTML(request("https://example.com/", "title", "or", ""), cardsPage)
	require.NoError(t, err)
	require.True(t, resp.Success)

	assert.Equal(t, "structure", resp.Strategy)
	require.NotNil(t, resp.SeparationLevel)
	assert.Equal(t, -2, *resp.SeparationLevel)

	require.Len(t, resp.Articles, 3)
	want := []struct{ title, url, image string }{
		{"Title One", "https://example.com/post-one", "https://example.com/a.jpg"},
		{"Title Two", "https://example.com/post-two", "https://example.com/b.jpg"},
		{"Title Three", "https://example.com/post-three", "https://example.com/c.jpg"},
	}
	for i, w := range want {
		a := resp.Articles[i]
		assert.Equal(t, w.title, a.Title)
		assert.Equal(t, w.url, a.URLString())
		assert.Equal(t, w.image, a.ImageString())
		assert.Equal(t, []string{"title"}, a.Keywords)
	}

	assert.Equal(t, "example.com", resp.SiteName)
	assert.Equal(t, "https://example.com/favicon.ico", resp.SiteImage)
	assert.Equal(t, "Example News Daily Listing", resp.SiteTitle)
}

func TestDiscoverHTML_StructureKeywordFilter(t *testing.T) {
	d := newTestDiscoverer(nil)

	resp, err := d.DiscoverHTML(request("https://example.com/", "two", "and", "structure"), cardsPage)
	require.NoError(t, err)
	require.Len(t, resp.Articles, 1)
	assert.Equal(t, "Title Two", resp.Articles[0].Title)

	resp, err = d.DiscoverHTML(request("https://example.com/", "two,three", "and", "structure"), cardsPage)
	require.NoError(t, err, "structure strategy reports an empty list, not an error")
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Articles)
	assert.NotNil(t, resp.Articles)
}

func TestDiscoverHTML_StructureNoImages(t *testing.T) {
	d := newTestDiscoverer(nil)

	resp, err := d.DiscoverHTML(request("https://www.example.com/", "a", "or", "structure"),
		`<html><head><meta property="og:image" content="/og.png"></head><body><p>No pictures here</p></body></html>`)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Articles)
	assert.Nil(t, resp.SeparationLevel)
	assert.Equal(t, "example.com", resp.SiteName)
	assert.Equal(t, "https://www.example.com/og.png", resp.SiteImage)
}

func TestDiscoverHTML_StructureBlockWithoutLink(t *testing.T) {
	d := newTestDiscoverer(nil)
	page := `<html><body>
		<div class="tile"><img src="/x.jpg"><p>Sport caption one</p></div>
		<div class="tile"><img><p>Sport caption two</p></div>
	</body></html>`

	resp, err := d.DiscoverHTML(request("https://example.com/", "sport", "and", "structure"), page)
	require.NoError(t, err)
	require.Len(t, resp.Articles, 2)

	assert.Nil(t, resp.Articles[0].URL)
	assert.Equal(t, "Sport caption one", resp.Articles[0].Title)
	assert.Equal(t, "https://example.com/x.jpg", resp.Articles[0].ImageString())
	assert.Nil(t, resp.Articles[1].Image, "img without src yields no image")
}

func TestDiscoverHTML_Links(t *testing.T) {
	d := newTestDiscoverer(nil)

	resp, err := d.DiscoverHTML(request("https://www.example.com/news/", "sport,finance", "or", "links"), linksPage)
	require.NoError(t, err)
	assert.Equal(t, "links", resp.Strategy)
	assert.Nil(t, resp.SeparationLevel)

	require.Len(t, resp.Articles, 2)

	first := resp.Articles[0]
	assert.Equal(t, "Big win for the home side", first.Title)
	assert.Equal(t, "https://www.example.com/sport/big-win-for-the-home-side", first.URLString())
	assert.Equal(t, "https://www.example.com/img/1.jpg", first.ImageString())
	assert.Equal(t, []string{"sport"}, first.Keywords)

	second := resp.Articles[1]
	assert.Equal(t, "Markets rally on finance news", second.Title)
	assert.Equal(t, "https://www.example.com/img/2-large.jpg", second.ImageString())
	assert.Equal(t, []string{"finance"}, second.Keywords)
}

func TestDiscoverHTML_LinksNoResults(t *testing.T) {
	d := newTestDiscoverer(nil)

	resp, err := d.DiscoverHTML(request("https://example.com/", "weather", "and", "links"), linksPage)
	requireCode(t, err, models.ErrCodeNoResults)
	require.NotNil(t, resp)
	assert.False(t, resp.Success)
	assert.Equal(t, "example.com", resp.SiteName, "metadata survives a not-found result")
}

func TestDiscoverHTML_Markdown(t *testing.T) {
	d := newTestDiscoverer(nil)
	req := request("https://example.com/", "title", "or", "structure")
	req.Format = "markdown"

	resp, err := d.DiscoverHTML(req, cardsPage)
	require.NoError(t, err)
	assert.Contains(t, resp.Markdown, "[Title One](https://example.com/post-one)")
	assert.Contains(t, resp.Markdown, "https://example.com/c.jpg")
}

func TestExtract_Idempotent(t *testing.T) {
	d := newTestDiscoverer(nil)

	for _, strategy := range []Strategy{StrategyStructure, StrategyLinks} {
		t.Run(string(strategy), func(t *testing.T) {
			page := cardsPage
			if strategy == StrategyLinks {
				page = linksPage
			}
			doc, err := dom.ParseString(page, "https://example.com/")
			require.NoError(t, err)
			opts, err := ParseOptions(request("https://example.com/", "sport,finance,title", "or", string(strategy)))
			require.NoError(t, err)

			first, err := d.Extract(doc, page, opts)
			require.NoError(t, err)
			second, err := d.Extract(doc, page, opts)
			require.NoError(t, err)
			assert.Equal(t, first.Articles, second.Articles)
		})
	}
}

func TestExtract_RecoversFromPanic(t *testing.T) {
	d := newTestDiscoverer(nil)
	page := `<html><head><link rel="icon" href="/favicon.ico"></head><body></body></html>`

	doc, err := dom.ParseString(page, "https://example.com/")
	require.NoError(t, err)
	doc.Base = nil // resolving against a missing base dereferences nil

	opts, err := ParseOptions(request("https://example.com/", "a", "or", "structure"))
	require.NoError(t, err)

	resp, err := d.Extract(doc, page, opts)
	requireCode(t, err, models.ErrCodeInternal)
	assert.False(t, resp.Success)
	assert.Contains(t, err.Error(), "extraction failed")
}

type stubEngine struct {
	result *engine.FetchResult
	err    error
	got    *engine.FetchRequest
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Fetch(_ context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	s.got = req
	return s.result, s.err
}

func TestDiscover_UsesFinalURL(t *testing.T) {
	eng := &stubEngine{result: &engine.FetchResult{
		HTML:     cardsPage,
		FinalURL: "https://www.example.org/home/",
	}}
	d := newTestDiscoverer(eng)

	resp, err := d.Discover(context.Background(), request("https://example.org", "one", "and", ""))
	require.NoError(t, err)
	assert.Equal(t, "https://example.org", eng.got.URL)
	assert.Equal(t, "https://www.example.org/home/", resp.SourceURL)
	assert.Equal(t, "example.org", resp.SiteName)
	require.Len(t, resp.Articles, 1)
	assert.Equal(t, "https://www.example.org/post-one", resp.Articles[0].URLString())
}

func TestDiscover_FetchErrorPropagates(t *testing.T) {
	eng := &stubEngine{err: models.NewDiscoverError(models.ErrCodeNotHTML, "content is not an HTML page", nil)}
	d := newTestDiscoverer(eng)

	resp, err := d.Discover(context.Background(), request("https://example.com/api", "a", "or", ""))
	requireCode(t, err, models.ErrCodeNotHTML)
	require.NotNil(t, resp)
	assert.False(t, resp.Success)
}

func TestDiscover_ValidationSkipsFetch(t *testing.T) {
	eng := &stubEngine{}
	d := newTestDiscoverer(eng)

	_, err := d.Discover(context.Background(), request("https://example.com", "a", "maybe", ""))
	requireCode(t, err, models.ErrCodeInvalidLogic)
	assert.Nil(t, eng.got)
}

func TestDigestHTML_Escapes(t *testing.T) {
	u := "https://example.com/a?x=1&y=2"
	out := digestHTML("News <live>", []models.Article{{Title: "A & B", URL: &u, Keywords: []string{"a"}}})
	assert.Contains(t, out, "News &lt;live&gt;")
	assert.Contains(t, out, "A &amp; B")
	assert.Contains(t, out, `href="https://example.com/a?x=1&amp;y=2"`)
	assert.True(t, strings.HasSuffix(out, "</ul>"))
}
