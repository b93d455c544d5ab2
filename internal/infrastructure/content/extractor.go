package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MaxContentChars is the hard ceiling on extracted text.
const MaxContentChars = 10000

var noiseSelectors = "script, style, noscript, iframe, nav, header, footer, aside, form, svg"

// containerSelectors are tried in order; body is the last resort.
var containerSelectors = []string{
	"article",
	"main",
	"[role='main']",
	".article-content",
	".article-body",
	".post-content",
	".entry-content",
	".content",
	"body",
}

// ExtractText strips non-content markup and returns the visible text of the
// first matching content container, whitespace-collapsed and cut to limit runes.
func ExtractText(html string, limit int) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	if limit <= 0 {
		limit = MaxContentChars
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find(noiseSelectors).Remove()

	var text string
	for _, selector := range containerSelectors {
		text = collapseWhitespace(doc.Find(selector).First().Text())
		if text != "" {
			break
		}
	}
	if text == "" {
		text = collapseWhitespace(doc.Text())
	}

	return Truncate(text, limit)
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit < 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
