package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/skim/dom"
)

func imagePaths(t *testing.T, body string) []dom.Path {
	t.Helper()
	doc, err := dom.ParseString("<html><body>"+body+"</body></html>", "https://example.com/")
	require.NoError(t, err)
	return doc.ImagePaths()
}

func TestRun_CardsWithHeaderLogo(t *testing.T) {
	paths := imagePaths(t, `
		<header><img src="/logo.png"></header>
		<div class="card"><img src="/a.jpg"><a href="/post-one">Title One</a></div>
		<div class="card"><img src="/b.jpg"><a href="/post-two">Title Two</a></div>
		<div class="card"><img src="/c.jpg"><a href="/post-three">Title Three</a></div>`)
	require.Len(t, paths, 4)

	res := Run(paths)
	require.True(t, res.Found)
	require.Len(t, res.Paths, 3, "header logo has a unique ancestor tag and is pruned")
	assert.Equal(t, -2, res.Level)

	for _, p := range res.Paths {
		c := res.Container(p)
		require.NotNil(t, c)
		assert.True(t, dom.IsTag(c, "div"))
		class, _ := dom.Attr(c, "class")
		assert.Equal(t, "card", class)
	}
}

func TestRun_NoImages(t *testing.T) {
	res := Run(imagePaths(t, `<p>text only</p>`))
	assert.False(t, res.Found)
	assert.Empty(t, res.Paths)
	assert.Nil(t, res.Container(dom.Path{}))
}

func TestRun_SingleImageResolvesToRoot(t *testing.T) {
	paths := imagePaths(t, `<main><figure><img src="/only.jpg"></figure></main>`)
	require.Len(t, paths, 1)

	res := Run(paths)
	require.True(t, res.Found)
	require.Len(t, res.Paths, 1)
	assert.Equal(t, -len(paths[0]), res.Level)
	assert.True(t, dom.IsTag(res.Container(res.Paths[0]), "html"))
}

// Two groups of identical tag sequences that differ at exactly one index k
// separate at -(L-k).
func TestSeparationLevel_DivergentTag(t *testing.T) {
	paths := imagePaths(t, `<main>
		<section><div><img src="/1.jpg"></div></section>
		<section><div><img src="/2.jpg"></div></section>
		<article><div><img src="/3.jpg"></div></article>
		<article><div><img src="/4.jpg"></div></article>
	</main>`)
	require.Len(t, paths, 4)

	res := Run(paths)
	require.Len(t, res.Paths, 4)

	const L, k = 6, 3 // html body main section|article div img
	require.Equal(t, L, len(res.Paths[0]))
	assert.Equal(t, -(L - k), res.Level)
}

func TestPrune_KeepsOnlyDeepestPaths(t *testing.T) {
	paths := imagePaths(t, `
		<img src="/shallow.jpg">
		<ul><li><img src="/1.jpg"></li><li><img src="/2.jpg"></li></ul>`)
	require.Len(t, paths, 3)

	kept := Prune(paths)
	require.Len(t, kept, 2)
	for _, p := range kept {
		assert.Equal(t, []string{"html", "body", "ul", "li", "img"}, p.Tags())
	}
}

func TestPrune_DropsUniqueTags(t *testing.T) {
	paths := imagePaths(t, `
		<div><p><img src="/1.jpg"></p></div>
		<div><p><img src="/2.jpg"></p></div>
		<div><span><img src="/odd.jpg"></span></div>`)
	require.Len(t, paths, 3)

	kept := Prune(paths)
	require.Len(t, kept, 2)
	for _, p := range kept {
		assert.Equal(t, "p", dom.TagName(p[3]))
	}
}

func TestPrune_AllUniqueLeavesNothing(t *testing.T) {
	paths := imagePaths(t, `
		<div><img src="/1.jpg"></div>
		<section><img src="/2.jpg"></section>`)

	kept := Prune(paths)
	assert.Empty(t, kept)

	_, ok := SeparationLevel(kept)
	assert.False(t, ok)
}

func TestSeparationLevel_SiblingImagesShareParent(t *testing.T) {
	paths := imagePaths(t, `<div class="card"><img src="/a.jpg"><img src="/b.jpg"></div>`)
	require.Len(t, paths, 2)

	level, ok := SeparationLevel(paths)
	require.True(t, ok)
	assert.Equal(t, -2, level)
}

func TestSeparationLevel_MultiImageBlocks(t *testing.T) {
	paths := imagePaths(t, `
		<div class="card"><p><img src="/a1.jpg"></p><p><img src="/a2.jpg"></p></div>
		<div class="card"><p><img src="/b1.jpg"></p><p><img src="/b2.jpg"></p></div>`)
	require.Len(t, paths, 4)

	res := Run(paths)
	require.Len(t, res.Paths, 4)
	assert.Equal(t, -3, res.Level)
	assert.Same(t, res.Container(res.Paths[0]), res.Container(res.Paths[1]))
	assert.NotSame(t, res.Container(res.Paths[0]), res.Container(res.Paths[2]))
}

func TestRun_Idempotent(t *testing.T) {
	paths := imagePaths(t, `
		<div><img src="/1.jpg"></div><div><img src="/2.jpg"></div>`)

	first := Run(paths)
	second := Run(paths)
	assert.Equal(t, first.Level, second.Level)
	require.Equal(t, len(first.Paths), len(second.Paths))
	for i := range first.Paths {
		assert.Same(t, first.Paths[i].Tail(), second.Paths[i].Tail())
	}
}
