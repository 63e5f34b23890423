package lemmatizer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageText returns the visible text of an HTML document: the title followed
// by the body, without script, style and noscript content. Unparseable
// input is returned unchanged.
func PageText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style, noscript, template").Remove()

	var b strings.Builder
	b.WriteString(doc.Find("title").First().Text())
	b.WriteByte(' ')
	body := doc.Find("body")
	if body.Length() == 0 {
		b.WriteString(doc.Text())
	} else {
		body.Find("title").Remove()
		b.WriteString(body.Text())
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
