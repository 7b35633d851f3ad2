// Package app assembles a digest Runner from configuration.
//
// Optional stages are wired only when configured. A stage whose client cannot
// be constructed is still wired, as a stub that reports the construction error,
// so the failure shows up in every run report instead of silently disappearing.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"newsdigest/archive"
	"newsdigest/cache"
	"newsdigest/config"
	"newsdigest/delivery"
	"newsdigest/document"
	"newsdigest/events"
	"newsdigest/logger"
	"newsdigest/metrics"
	"newsdigest/orchestrator"
	"newsdigest/rssfeeds"
	"newsdigest/summarizer"
	"newsdigest/types"
)

// App is a fully wired pipeline plus the resources it owns
type App struct {
	Runner   *orchestrator.Runner
	Registry *prometheus.Registry
	Metrics  *metrics.Recorder

	closers []io.Closer
	log     logger.Logger
}

// Options carry test hooks; the zero value is production wiring
type Options struct {
	HTTPClient *http.Client
	// GeminiBaseURL and CohereBaseURL redirect the summarizer providers
	GeminiBaseURL string
	CohereBaseURL string
	LineEndpoint  string
}

// New builds the pipeline described by cfg. It only fails when a required
// stage cannot be built.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*App, error) {
	if log == nil {
		log = logger.NewNop()
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	a := &App{Registry: prometheus.NewRegistry(), log: log}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	deps := orchestrator.Deps{
		Feeds: rssfeeds.NewIngestor(rssfeeds.IngestorConfig{
			URLs:    cfg.Feeds.URLs,
			Timeout: cfg.Feeds.Timeout,
			Window:  cfg.Feeds.RecencyWindow,
			Client:  client,
			Logger:  log.With(logger.String("component", "ingest")),
		}),
		Summarizer: a.buildSummarizer(ctx, cfg.Summarizer, client, opts),
		Observer:   a.Metrics,
	}

	if cfg.Extract.Enabled {
		deps.Extractor = a.buildExtractor(ctx, cfg, client)
	}
	if cfg.Line.Enabled() {
		pusher, err := delivery.NewLinePusher(delivery.LineConfig{
			ChannelAccessToken: cfg.Line.ChannelAccessToken,
			UserID:             cfg.Line.UserID,
			Endpoint:           opts.LineEndpoint,
			HTTPClient:         client,
		})
		if err != nil {
			deps.Messenger = brokenStage{err: err}
		} else {
			deps.Messenger = pusher
		}
	}
	if cfg.Document.Enabled {
		deps.Document = a.buildDocument(ctx, cfg.Document)
	}
	if cfg.S3.Bucket != "" {
		archiver, err := archive.New(ctx, archive.S3Config{
			Bucket:       cfg.S3.Bucket,
			Prefix:       cfg.S3.Prefix,
			Region:       cfg.S3.Region,
			Profile:      cfg.S3.Profile,
			Endpoint:     cfg.S3.Endpoint,
			UsePathStyle: cfg.S3.UsePathStyle,
		})
		if err != nil {
			log.Error("S3 archiver unavailable", logger.Error(err))
			deps.Archiver = brokenStage{err: err}
		} else {
			deps.Archiver = archiver
		}
	}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := events.NewPublisher(events.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		if err != nil {
			log.Error("Kafka publisher unavailable", logger.Error(err))
			deps.Publisher = brokenStage{err: err}
		} else {
			deps.Publisher = publisher
			a.closers = append(a.closers, publisher)
		}
	}

	runner, err := orchestrator.NewRunner(deps, orchestrator.Options{
		Location: cfg.Location(),
		Logger:   log,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Runner = runner
	return a, nil
}

// buildSummarizer picks the provider. A missing key yields a Service without a
// generator so the run still delivers the missing-key notice.
func (a *App) buildSummarizer(ctx context.Context, cfg config.SummarizerConfig, client *http.Client, opts Options) *summarizer.Service {
	log := a.log.With(logger.String("component", "summarize"))

	switch cfg.Provider {
	case config.ProviderCohere:
		if cfg.CohereAPIKey == "" {
			return summarizer.New(nil, "COHERE_API_KEY", log)
		}
		gen := summarizer.NewCohere(summarizer.CohereConfig{
			APIKey:     cfg.CohereAPIKey,
			Model:      cfg.CohereModel,
			BaseURL:    opts.CohereBaseURL,
			HTTPClient: client,
		})
		return summarizer.New(gen, "COHERE_API_KEY", log)
	default:
		if cfg.GeminiAPIKey == "" {
			return summarizer.New(nil, "GEMINI_API_KEY", log)
		}
		gen, err := summarizer.NewGemini(ctx, summarizer.GeminiConfig{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiModel,
			BaseURL:    opts.GeminiBaseURL,
			HTTPClient: client,
		})
		if err != nil {
			log.Error("Gemini client unavailable", logger.Error(err))
			return summarizer.New(brokenGenerator{name: "gemini/" + cfg.GeminiModel, err: err}, "GEMINI_API_KEY", log)
		}
		return summarizer.New(gen, "GEMINI_API_KEY", log)
	}
}

func (a *App) buildExtractor(ctx context.Context, cfg *config.Config, client *http.Client) *rssfeeds.Extractor {
	log := a.log.With(logger.String("component", "extract"))

	ec := rssfeeds.ExtractorConfig{
		Timeout:             cfg.Extract.Timeout,
		UserAgent:           cfg.Extract.UserAgent,
		Workers:             cfg.Extract.Workers,
		ReadabilityFallback: cfg.Extract.ReadabilityFallback,
		Client:              client,
		Logger:              log,
	}
	if cfg.Redis.Addr != "" {
		bc, err := cache.New(ctx, cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		}, log)
		if err != nil {
			log.Warn("Body cache disabled", logger.Error(err))
		} else {
			ec.Cache = bc
			a.closers = append(a.closers, bc)
		}
	}
	return rssfeeds.NewExtractor(ec)
}

func (a *App) buildDocument(ctx context.Context, cfg config.DocumentConfig) orchestrator.DocumentAppender {
	appender, err := document.NewAppender(ctx, document.Config{
		Credentials: cfg.CredentialsJSON,
		DocID:       cfg.DocID,
	})
	if errors.Is(err, document.ErrNotConfigured) {
		a.log.Info("Document append enabled but credentials or document id missing; skipping")
		return nil
	}
	if err != nil {
		a.log.Error("Document appender unavailable", logger.Error(err))
		return brokenStage{err: err}
	}
	return appender
}

// Close releases connections held by optional stages
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// brokenStage stands in for a configured stage whose client failed to build
type brokenStage struct {
	err error
}

func (b brokenStage) Push(context.Context, string) error   { return b.err }
func (b brokenStage) Append(context.Context, string) error { return b.err }

func (b brokenStage) Archive(context.Context, *types.RunReport) (string, error) {
	return "", b.err
}

func (b brokenStage) Publish(context.Context, events.DigestEvent) error { return b.err }

type brokenGenerator struct {
	name string
	err  error
}

func (g brokenGenerator) Name() string { return g.name }

func (g brokenGenerator) Generate(context.Context, string) (string, error) {
	return "", fmt.Errorf("%s: %w", g.name, g.err)
}
