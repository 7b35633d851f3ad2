package rssfeeds

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html/charset"

	"newsdigest/logger"
	"newsdigest/types"
)

// Sentinel bodies. ExtractBody never returns an empty string.
const (
	BodyFailedText   = "（本文の取得に失敗しました）"
	BodyNotFoundText = "（本文が見つかりませんでした）"
	OmittedMarker    = "\n...（以下省略）"
)

const (
	// MaxBodyRunes is the longest body kept before the omitted marker is appended
	MaxBodyRunes = 2000

	maxPageBytes = 5 << 20
)

// BodyCache stores successful extractions between runs
type BodyCache interface {
	Get(ctx context.Context, link string) (string, types.BodyStatus, bool)
	Set(ctx context.Context, link, body string, status types.BodyStatus)
}

// ExtractorConfig configures an Extractor
type ExtractorConfig struct {
	Timeout             time.Duration
	UserAgent           string
	Workers             int
	ReadabilityFallback bool
	Rules               []Rule
	Cache               BodyCache
	Client              *http.Client
	Logger              logger.Logger
}

// Extractor fetches article pages and reduces them to plain text bodies
type Extractor struct {
	client      *http.Client
	timeout     time.Duration
	userAgent   string
	workers     int
	readability bool
	rules       []Rule
	cache       BodyCache
	log         logger.Logger
}

// NewExtractor builds an Extractor; zero values fall back to DefaultRules,
// one worker and http.DefaultClient.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	e := &Extractor{
		client:      cfg.Client,
		timeout:     cfg.Timeout,
		userAgent:   cfg.UserAgent,
		workers:     cfg.Workers,
		readability: cfg.ReadabilityFallback,
		rules:       cfg.Rules,
		cache:       cfg.Cache,
		log:         cfg.Logger,
	}
	if e.client == nil {
		e.client = http.DefaultClient
	}
	if e.workers < 1 {
		e.workers = 1
	}
	if len(e.rules) == 0 {
		e.rules = DefaultRules()
	}
	if e.log == nil {
		e.log = logger.NewNop()
	}
	return e
}

// ExtractAll annotates every article with a body, using the configured number
// of workers. Articles are updated in place so their order is unchanged.
// It returns how many article fetches failed outright.
func (e *Extractor) ExtractAll(ctx context.Context, articles []*types.Article) int {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	queue := make(chan *types.Article)

	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for article := range queue {
				article.Body, article.BodyStatus = e.ExtractBody(ctx, article.Link)
				if article.BodyStatus == types.BodyFailed {
					mu.Lock()
					failed++
					mu.Unlock()
					e.log.Debug("No body extracted",
						logger.Int("worker", workerID),
						logger.String("url", article.Link),
						logger.String("status", string(article.BodyStatus)),
					)
				}
			}
		}(w)
	}

	for _, article := range articles {
		queue <- article
	}
	close(queue)
	wg.Wait()

	return failed
}

// ExtractBody fetches pageURL and returns its body text with a status. It is
// total: any failure yields BodyFailedText and a page with no usable content
// yields BodyNotFoundText.
func (e *Extractor) ExtractBody(ctx context.Context, pageURL string) (string, types.BodyStatus) {
	if e.cache != nil {
		if body, status, ok := e.cache.Get(ctx, pageURL); ok {
			return body, status
		}
	}

	raw, err := e.fetch(ctx, pageURL)
	if err != nil {
		e.log.Warn("Article fetch failed", logger.String("url", pageURL), logger.Error(err))
		return BodyFailedText, types.BodyFailed
	}

	text, err := e.textFrom(raw, pageURL)
	if err != nil {
		e.log.Warn("Article parse failed", logger.String("url", pageURL), logger.Error(err))
		return BodyFailedText, types.BodyFailed
	}
	if text == "" {
		return BodyNotFoundText, types.BodyNotFound
	}

	body, cut := truncateRunes(text, MaxBodyRunes, OmittedMarker)
	status := types.BodyOK
	if cut {
		status = types.BodyTruncated
	}

	if e.cache != nil {
		e.cache.Set(ctx, pageURL, body, status)
	}
	return body, status
}

// fetch performs one timed GET and returns the page decoded to UTF-8
func (e *Extractor) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// charset picks the encoding from Content-Type, a BOM or <meta charset>
	reader, err := charset.NewReader(io.LimitReader(resp.Body, maxPageBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	return raw, nil
}

// textFrom strips non-content elements, runs the rule cascade, then the
// paragraph fallback, then readability when enabled.
func (e *Extractor) textFrom(raw []byte, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(stripSelectors).Remove()

	if text, rule, ok := applyRules(doc, e.rules); ok {
		e.log.Debug("Extraction rule matched", logger.String("url", pageURL), logger.String("rule", rule))
		return strings.TrimSpace(text), nil
	}

	if text := paragraphFallback(doc); text != "" {
		return text, nil
	}

	if e.readability {
		return e.readabilityText(raw, pageURL), nil
	}
	return "", nil
}

func (e *Extractor) readabilityText(raw []byte, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(raw), parsed)
	if err != nil {
		e.log.Debug("Readability fallback failed", logger.String("url", pageURL), logger.Error(err))
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}
