package rssfeeds

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Rule pairs a content-container matcher with the strategy that turns the
// matched container into text.
type Rule struct {
	Name    string
	Match   func(doc *goquery.Document) *goquery.Selection
	Extract func(container *goquery.Selection) string
}

// textBlocks are the container children preferred over raw container text
const textBlocks = "p, h1, h2, h3, h4, h5, h6, li"

// stripSelectors are removed from the page before any rule runs
const stripSelectors = "script, style, noscript, nav, header, footer, aside, form, iframe"

// minParagraphRunes filters short boilerplate paragraphs in the page-wide fallback
const minParagraphRunes = 20

// SelectorRule matches the first element for selector and extracts block text
func SelectorRule(name, selector string) Rule {
	return Rule{
		Name: name,
		Match: func(doc *goquery.Document) *goquery.Selection {
			return doc.Find(selector).First()
		},
		Extract: blockText,
	}
}

// DefaultRules is ordered from site-specific to generic. The first rule whose
// matcher finds an element wins, even if that element yields no text.
func DefaultRules() []Rule {
	return []Rule{
		SelectorRule("itmedia", "#cmsBody"),
		SelectorRule("ledge", ".article-body"),
		SelectorRule("wordpress-entry", ".entry-content"),
		SelectorRule("post-content", ".post-content"),
		SelectorRule("article-content", ".article-content"),
		SelectorRule("article", "article"),
		SelectorRule("main", "main"),
		SelectorRule("role-main", "[role='main']"),
		SelectorRule("content", "#content, .content"),
	}
}

// blockText prefers paragraph, heading and list-item text; a container
// without any of those falls back to its whole text.
func blockText(container *goquery.Selection) string {
	blocks := container.Find(textBlocks)
	if blocks.Length() == 0 {
		return strings.TrimSpace(container.Text())
	}

	parts := make([]string, 0, blocks.Length())
	blocks.Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.Text())
	})
	return joinTrimmed(parts)
}

// paragraphFallback collects every page paragraph longer than minParagraphRunes
func paragraphFallback(doc *goquery.Document) string {
	parts := make([]string, 0)
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len([]rune(text)) > minParagraphRunes {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n")
}

// applyRules runs rules in order and returns the first match's text and rule name
func applyRules(doc *goquery.Document, rules []Rule) (string, string, bool) {
	for _, r := range rules {
		container := r.Match(doc)
		if container == nil || container.Length() == 0 {
			continue
		}
		return r.Extract(container), r.Name, true
	}
	return "", "", false
}
