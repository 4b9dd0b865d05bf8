package discover

import (
	"html"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/use-agent/skim/models"
)

// newMarkdownConverter creates a reusable, goroutine-safe Converter for the
// article digest.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
}

// digestHTML lays the articles out as a heading plus one list item each.
func digestHTML(title string, articles []models.Article) string {
	var b strings.Builder
	if title != "" {
		b.WriteString("<h1>" + html.EscapeString(title) + "</h1>\n")
	}
	b.WriteString("<ul>\n")
	for _, a := range articles {
		b.WriteString("<li>")
		if u := a.URLString(); u != "" {
			b.WriteString(`<a href="` + html.EscapeString(u) + `">` + html.EscapeString(a.Title) + "</a>")
		} else {
			b.WriteString(html.EscapeString(a.Title))
		}
		if img := a.ImageString(); img != "" {
			b.WriteString(`<br><img src="` + html.EscapeString(img) + `" alt="` + html.EscapeString(a.Title) + `">`)
		}
		if len(a.Keywords) > 0 {
			b.WriteString("<br><em>" + html.EscapeString(strings.Join(a.Keywords, ", ")) + "</em>")
		}
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>")
	return b.String()
}

// toMarkdown renders the article list as Markdown. Relative image addresses
// left by the link strategy are resolved against domain.
func toMarkdown(conv *converter.Converter, title string, articles []models.Article, domain string) (string, error) {
	return conv.ConvertString(digestHTML(title, articles), converter.WithDomain(domain))
}
