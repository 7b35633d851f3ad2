package types

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// BodyStatus describes how an article body was obtained
type BodyStatus string

const (
	BodyOK        BodyStatus = "ok"
	BodyTruncated BodyStatus = "truncated"
	BodyFailed    BodyStatus = "failed"
	BodyNotFound  BodyStatus = "not_found"
)

// Article represents a single feed entry retained for the current run
type Article struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Summary     string     `json:"summary"`
	Source      string     `json:"source"`
	PublishedAt time.Time  `json:"published_at"`
	Body        string     `json:"body,omitempty"`
	BodyStatus  BodyStatus `json:"body_status,omitempty"`
}

// HasBody reports whether the extractor has annotated this article
func (a *Article) HasBody() bool {
	return a.BodyStatus != ""
}

// FeedResult records what a single feed contributed to a run
type FeedResult struct {
	URL     string `json:"url"`
	Source  string `json:"source,omitempty"`
	Entries int    `json:"entries"`
	Kept    int    `json:"kept"`
	Error   string `json:"error,omitempty"`
}

// GenerateID creates a short, stable ID from a link
func GenerateID(link string) string {
	hash := sha256.Sum256([]byte(link))
	return hex.EncodeToString(hash[:])[:16]
}
