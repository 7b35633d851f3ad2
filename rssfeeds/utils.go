package rssfeeds

import (
	"strings"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"
)

func sourceName(feed *gofeed.Feed) string {
	if title := strings.TrimSpace(feed.Title); title != "" {
		return title
	}
	return UnknownSource
}

// truncateRunes cuts s to at most limit characters, appending suffix when it cuts
func truncateRunes(s string, limit int, suffix string) (string, bool) {
	if utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:limit]) + suffix, true
}

// joinTrimmed trims every part and joins the non-empty ones with newlines
func joinTrimmed(parts []string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
