// Package digest shapes the generated digest for each delivery channel.
package digest

import (
	"strings"
	"time"
	"unicode/utf8"

	"newsdigest/types"
)

const (
	// MaxMessageRunes keeps push messages under the messaging API's 5000 character ceiling
	MaxMessageRunes = 4900
	messageEllipsis = "..."

	sectionRule = "========================================"
	articleRule = "----------------------------------------"
	dateLayout  = "2006年01月02日"
)

// ForMessage returns the digest cut to MaxMessageRunes characters, with an
// ellipsis appended when it was cut.
func ForMessage(digest string) string {
	if utf8.RuneCountInString(digest) <= MaxMessageRunes {
		return digest
	}
	runes := []rune(digest)
	return string(runes[:MaxMessageRunes]) + messageEllipsis
}

// ComposeDocument renders the section appended to the shared document: a
// dated header, the untruncated digest and, for articles that carry an
// extracted body, one block per article.
func ComposeDocument(now time.Time, loc *time.Location, digest string, articles []*types.Article) string {
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(sectionRule)
	b.WriteString("\n")
	b.WriteString(now.In(loc).Format(dateLayout))
	b.WriteString(" AIニュースまとめ\n")
	b.WriteString(sectionRule)
	b.WriteString("\n\n")
	b.WriteString(digest)
	b.WriteString("\n")

	withBodies := make([]*types.Article, 0, len(articles))
	for _, a := range articles {
		if a.HasBody() {
			withBodies = append(withBodies, a)
		}
	}
	if len(withBodies) == 0 {
		return b.String()
	}

	b.WriteString("\n【記事本文】\n")
	for _, a := range withBodies {
		b.WriteString(articleRule)
		b.WriteString("\n■ ")
		b.WriteString(a.Title)
		b.WriteString("\n出典: ")
		b.WriteString(a.Source)
		b.WriteString("\nURL: ")
		b.WriteString(a.Link)
		b.WriteString("\n\n")
		b.WriteString(a.Body)
		b.WriteString("\n")
	}
	b.WriteString(articleRule)
	b.WriteString("\n")
	return b.String()
}
