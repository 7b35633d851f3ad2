package rssfeeds

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"newsdigest/logger"
	"newsdigest/types"
)

// UnknownSource labels entries from feeds that carry no title
const UnknownSource = "Unknown Source"

// IngestorConfig configures an Ingestor
type IngestorConfig struct {
	URLs    []string
	Timeout time.Duration
	Window  time.Duration
	Client  *http.Client
	Logger  logger.Logger
	// Now overrides the clock; nil means time.Now
	Now func() time.Time
}

// Ingestor pulls the configured feeds and keeps the recent, unique entries
type Ingestor struct {
	urls    []string
	timeout time.Duration
	window  time.Duration
	parser  *gofeed.Parser
	now     func() time.Time
	log     logger.Logger
}

// NewIngestor builds an Ingestor from cfg
func NewIngestor(cfg IngestorConfig) *Ingestor {
	parser := gofeed.NewParser()
	if cfg.Client != nil {
		parser.Client = cfg.Client
	}

	ing := &Ingestor{
		urls:    append([]string(nil), cfg.URLs...),
		timeout: cfg.Timeout,
		window:  cfg.Window,
		parser:  parser,
		now:     cfg.Now,
		log:     cfg.Logger,
	}
	if ing.now == nil {
		ing.now = time.Now
	}
	if ing.log == nil {
		ing.log = logger.NewNop()
	}
	return ing
}

// FetchRecent reads every feed in order and returns entries published strictly
// after now minus the recency window, deduplicated by link with the first
// occurrence kept. A feed that cannot be fetched or parsed contributes nothing;
// its error is recorded in the matching FeedResult.
func (i *Ingestor) FetchRecent(ctx context.Context) ([]*types.Article, []types.FeedResult) {
	cutoff := i.now().UTC().Add(-i.window)

	articles := make([]*types.Article, 0)
	results := make([]types.FeedResult, 0, len(i.urls))
	seen := make(map[string]struct{})

	for _, feedURL := range i.urls {
		res := types.FeedResult{URL: feedURL}

		feed, err := i.fetchFeed(ctx, feedURL)
		if err != nil {
			res.Error = err.Error()
			results = append(results, res)
			i.log.Warn("Feed fetch failed", logger.String("feed", feedURL), logger.Error(err))
			continue
		}

		res.Source = sourceName(feed)
		res.Entries = len(feed.Items)

		for _, item := range feed.Items {
			if !isRecent(item, cutoff) {
				continue
			}
			// entries without a link have no identity to deduplicate on
			if item.Link == "" {
				continue
			}
			if _, dup := seen[item.Link]; dup {
				continue
			}
			seen[item.Link] = struct{}{}

			articles = append(articles, toArticle(item, res.Source))
			res.Kept++
		}

		results = append(results, res)
		i.log.Info("Feed fetched",
			logger.String("feed", feedURL),
			logger.Int("entries", res.Entries),
			logger.Int("kept", res.Kept),
		)
	}

	return articles, results
}

func (i *Ingestor) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	feed, err := i.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	return feed, nil
}

// isRecent reports whether the entry has a publish time strictly after cutoff.
// The updated timestamp is deliberately ignored: an entry without a publish
// time is excluded.
func isRecent(item *gofeed.Item, cutoff time.Time) bool {
	if item.PublishedParsed == nil {
		return false
	}
	return item.PublishedParsed.UTC().After(cutoff)
}

func toArticle(item *gofeed.Item, source string) *types.Article {
	summary := item.Description
	if summary == "" {
		summary = item.Content
	}

	return &types.Article{
		ID:          types.GenerateID(item.Link),
		Title:       item.Title,
		Link:        item.Link,
		Summary:     summary,
		Source:      source,
		PublishedAt: item.PublishedParsed.UTC(),
	}
}
