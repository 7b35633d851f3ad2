package config

import "time"

// DefaultFeedURLs are the AI news feeds polled when FEED_URLS is unset
var DefaultFeedURLs = []string{
	"https://rss.itmedia.co.jp/rss/2.0/aiplus.xml",
	"https://ledge.ai/feed",
	"https://ainow.ai/feed",
	"https://google.com/search?q=AI+%E3%83%8B%E3%83%A5%E3%83%BC%E3%82%B9&tbm=nws&output=rss",
}

// Feed constants
const (
	// DefaultFeedTimeout bounds a single feed fetch
	DefaultFeedTimeout = 30 * time.Second

	// DefaultRecencyWindow is the trailing window an entry must fall inside
	DefaultRecencyWindow = 24 * time.Hour
)

// Extraction constants
const (
	DefaultExtractTimeout = 15 * time.Second
	DefaultExtractWorkers = 1

	// MaxExtractWorkers caps EXTRACT_WORKERS so a misconfiguration cannot hammer publishers
	MaxExtractWorkers = 16

	// DefaultUserAgent is sent on article fetches; several publishers reject Go's default
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Summarizer constants
const (
	ProviderGemini = "gemini"
	ProviderCohere = "cohere"

	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultCohereModel = "command-r-plus"
)

// Delivery constants
const (
	DefaultTimezone   = "Asia/Tokyo"
	DefaultKafkaTopic = "digest-events"
	DefaultBodyTTL    = 24 * time.Hour
)

// Daemon constants
const (
	DefaultHTTPPort = "8080"
	DefaultCron     = "0 8 * * *"
)
