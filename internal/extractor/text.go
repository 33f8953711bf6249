package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var strictPolicy = bluemonday.StrictPolicy()

// skipTextTags never contribute visible text.
var skipTextTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"svg":      true,
}

// CleanText strips residual markup, decodes entities and collapses whitespace.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	stripped := html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.Join(strings.Fields(stripped), " ")
}

// NodeText returns the visible text below n with text nodes joined by spaces.
func NodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTextTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return CleanText(b.String())
}

// selectionText returns the visible text of the first node in sel.
func selectionText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return NodeText(sel.Get(0))
}

// --- Shared selectors ---

type attrSelector struct {
	selector string
	attr     string // empty means element text
}

var headlineSelectors = []attrSelector{
	{"h1", ""},
	{"h2", ""},
	{"h3", ""},
	{`meta[property="og:title"]`, "content"},
	{`meta[name="twitter:title"]`, "content"},
}

var contentSelectors = []string{
	"article",
	`div[class*="content"]`,
	`div[class*="body"]`,
	`div[class*="main"]`,
	`section[class*="content"]`,
	"main",
	"body",
}

var dateSelectors = []attrSelector{
	{`meta[property="article:published_time"]`, "content"},
	{`meta[name="datePublished"]`, "content"},
	{`meta[name="pubdate"]`, "content"},
	{"time", "datetime"},
	{`span[class*="date"]`, ""},
}

// firstValue returns the first non-empty value produced by the selectors.
// An attribute selector falls back to element text for non-meta elements.
func firstValue(doc *goquery.Document, selectors []attrSelector) string {
	for _, s := range selectors {
		sel := doc.Find(s.selector).First()
		if sel.Length() == 0 {
			continue
		}
		var v string
		if s.attr != "" {
			v, _ = sel.Attr(s.attr)
			v = CleanText(v)
			if v == "" && goquery.NodeName(sel) != "meta" {
				v = selectionText(sel)
			}
		} else {
			v = selectionText(sel)
		}
		if v != "" {
			return v
		}
	}
	return ""
}

// headlineFrom returns the first non-empty headline candidate.
func headlineFrom(doc *goquery.Document) string {
	return firstValue(doc, headlineSelectors)
}

// contentFrom returns the text of the first container longer than minLen
// runes, or the last non-empty container text otherwise.
func contentFrom(doc *goquery.Document, minLen int) string {
	var last string
	for _, s := range contentSelectors {
		text := selectionText(doc.Find(s).First())
		if text == "" {
			continue
		}
		if len([]rune(text)) > minLen {
			return text
		}
		last = text
	}
	return last
}

// dateFrom returns the normalized publication date, or "".
func dateFrom(doc *goquery.Document) string {
	return NormalizeDate(firstValue(doc, dateSelectors))
}
