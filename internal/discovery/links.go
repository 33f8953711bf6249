package discovery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Mode selects how aggressively anchors are classified as article links.
type Mode int

const (
	// ModeStatic applies path, extension and teaser-class rules to raw HTML.
	ModeStatic Mode = iota
	// ModeRendered adds rules for script-rendered card layouts.
	ModeRendered
)

var (
	articlePathMarkers = []string{"/news/", "/article/", "/story/"}
	articleSuffixes    = []string{".html", ".shtml", ".shtm"}
	teaserClasses      = []string{"teaser", "heading-link"}
	cardClasses        = []string{"resource-item-meta", "card-title"}
	excludedTerms      = []string{"login", "signup", "register"}

	renderedHrefRe = regexp.MustCompile(`/news/|/article/|/story/|/20\d\d`)
)

// Discover returns absolute candidate article URLs found in a homepage document,
// in first-seen order with duplicates collapsed.
func Discover(doc *goquery.Document, homepage string, mode Mode) []string {
	base, err := url.Parse(homepage)
	if err != nil {
		return nil
	}
	homeCanonical := Canonicalize(homepage)

	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if excludedHref(href) {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		abs := resolved.String()

		if excludedTerm(abs) || !SameDomain(abs, homepage) {
			return
		}
		if !isArticleLink(a, href, resolved.Path, mode) {
			return
		}

		canonical := Canonicalize(abs)
		if canonical == homeCanonical || seen[canonical] {
			return
		}
		seen[canonical] = true
		links = append(links, canonical)
	})

	return links
}

// DiscoverCoarse walks a parsed page with XPath and keeps absolute same-domain
// hrefs only. No path or class heuristics are applied.
func DiscoverCoarse(root *html.Node, homepage string) []string {
	nodes, err := htmlquery.QueryAll(root, "//a[@href]")
	if err != nil {
		return nil
	}
	homeCanonical := Canonicalize(homepage)

	seen := make(map[string]bool)
	var links []string
	for _, n := range nodes {
		href := strings.TrimSpace(htmlquery.SelectAttr(n, "href"))
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			continue
		}
		if excludedTerm(href) || !SameDomain(href, homepage) {
			continue
		}
		canonical := Canonicalize(href)
		if canonical == homeCanonical || seen[canonical] {
			continue
		}
		seen[canonical] = true
		links = append(links, canonical)
	}
	return links
}

func excludedHref(href string) bool {
	if href == "" {
		return true
	}
	lower := strings.ToLower(href)
	for _, prefix := range []string{"#", "mailto:", "javascript:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func excludedTerm(link string) bool {
	lower := strings.ToLower(link)
	for _, term := range excludedTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func isArticleLink(a *goquery.Selection, href, path string, mode Mode) bool {
	for _, marker := range articlePathMarkers {
		if strings.Contains(path, marker) {
			return true
		}
	}
	for _, suffix := range articleSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	if classMatches(a, teaserClasses) {
		return true
	}
	for p := a.Parent(); p.Length() > 0; p = p.Parent() {
		if classMatches(p, teaserClasses) {
			return true
		}
	}

	if mode != ModeRendered {
		return false
	}

	if classMatches(a, []string{"article-links"}) {
		return true
	}
	if a.Find("h2, h3").Length() > 0 {
		return true
	}
	for p := a.Parent(); p.Length() > 0; p = p.Parent() {
		if class, ok := p.Attr("class"); ok && strings.TrimSpace(class) != "" {
			if classMatches(p, cardClasses) {
				return true
			}
			break
		}
	}
	return renderedHrefRe.MatchString(href)
}

func classMatches(sel *goquery.Selection, needles []string) bool {
	class, ok := sel.Attr("class")
	if !ok {
		return false
	}
	for _, needle := range needles {
		if strings.Contains(class, needle) {
			return true
		}
	}
	return false
}
