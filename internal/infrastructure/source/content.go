package source

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// contentSelector is the known content container of an article page.
const contentSelector = "div.paragraph"

// removeSelectors are the known non-content sub-elements stripped before text
// extraction.
var removeSelectors = []string{
	".shareBar",
	".modalbox",
	".advertise",
	".subscribe",
	".keywordTag",
	"script",
}

// boilerplatePhrases are fixed sentences the site appends to article bodies.
var boilerplatePhrases = []string{
	"本網站之文字、圖片及影音，非經授權，不得轉載。",
	"（中央社）",
}

var (
	editorTagExpr  = regexp.MustCompile(`（編輯：[^）]*）\d*`)
	whitespaceExpr = regexp.MustCompile(`\s+`)
)

// ExtractContent pulls the cleaned article text out of a parsed page. It
// returns "" when the container is missing or nothing but boilerplate remains.
func ExtractContent(doc *goquery.Document) string {
	container := doc.Find(contentSelector).First()
	if container.Length() == 0 {
		return ""
	}

	container.Find(strings.Join(removeSelectors, ", ")).Remove()

	return CleanText(container.Text())
}

// CleanText collapses whitespace runs and strips known boilerplate phrases.
func CleanText(text string) string {
	text = whitespaceExpr.ReplaceAllString(text, " ")
	text = editorTagExpr.ReplaceAllString(text, "")
	for _, phrase := range boilerplatePhrases {
		text = strings.ReplaceAll(text, phrase, "")
	}
	text = whitespaceExpr.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
