// Package orchestrator runs one digest cycle: ingest, extract, summarize,
// deliver, append, archive, publish.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"newsdigest/digest"
	"newsdigest/events"
	"newsdigest/logger"
	"newsdigest/summarizer"
	"newsdigest/types"
)

// FeedSource produces the recent, deduplicated articles
type FeedSource interface {
	FetchRecent(ctx context.Context) ([]*types.Article, []types.FeedResult)
}

// BodyExtractor annotates articles with bodies and reports failed fetches
type BodyExtractor interface {
	ExtractAll(ctx context.Context, articles []*types.Article) int
}

// Summarizer turns articles into the digest text
type Summarizer interface {
	Summarize(ctx context.Context, articles []*types.Article) summarizer.Result
}

// Messenger delivers the (truncated) digest
type Messenger interface {
	Push(ctx context.Context, text string) error
}

// DocumentAppender appends the composed section to the shared document
type DocumentAppender interface {
	Append(ctx context.Context, text string) error
}

// Archiver persists the finished run
type Archiver interface {
	Archive(ctx context.Context, report *types.RunReport) (string, error)
}

// Publisher announces the digest
type Publisher interface {
	Publish(ctx context.Context, event events.DigestEvent) error
}

// Observer is told about every finished run
type Observer interface {
	ObserveRun(report *types.RunReport)
}

// Deps are the pipeline stages. Feeds and Summarizer are required; a nil
// optional stage is recorded as skipped.
type Deps struct {
	Feeds      FeedSource
	Extractor  BodyExtractor
	Summarizer Summarizer
	Messenger  Messenger
	Document   DocumentAppender
	Archiver   Archiver
	Publisher  Publisher
	Observer   Observer
}

// Options tune a Runner
type Options struct {
	// Location is used for the document's date header and the event date
	Location *time.Location
	Now      func() time.Time
	NewID    func() string
	Logger   logger.Logger
}

// Runner executes digest runs
type Runner struct {
	deps  Deps
	loc   *time.Location
	now   func() time.Time
	newID func() string
	log   logger.Logger
}

// NewRunner validates deps and fills option defaults
func NewRunner(deps Deps, opts Options) (*Runner, error) {
	if deps.Feeds == nil {
		return nil, fmt.Errorf("orchestrator: feed source is required")
	}
	if deps.Summarizer == nil {
		return nil, fmt.Errorf("orchestrator: summarizer is required")
	}

	r := &Runner{deps: deps, loc: opts.Location, now: opts.Now, newID: opts.NewID, log: opts.Logger}
	if r.loc == nil {
		r.loc = time.UTC
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.newID == nil {
		r.newID = uuid.NewString
	}
	if r.log == nil {
		r.log = logger.NewNop()
	}
	return r, nil
}

// RunOnce executes a single end-to-end cycle. It never aborts early: every
// stage records an explicit result in the returned report, and a failing
// delivery channel does not affect the others.
func (r *Runner) RunOnce(ctx context.Context) *types.RunReport {
	report := &types.RunReport{RunID: r.newID(), StartedAt: r.now()}
	log := r.log.With(logger.String("run_id", report.RunID))
	log.Info("Digest run started")

	articles := r.ingest(ctx, report, log)
	r.extract(ctx, report, articles, log)

	res := r.summarize(ctx, report, articles)
	report.Digest = res.Text
	report.Message = digest.ForMessage(res.Text)

	r.message(ctx, report, log)
	r.document(ctx, report, articles, log)

	report.FinishedAt = r.now()
	r.archive(ctx, report, log)
	r.publish(ctx, report, log)
	report.FinishedAt = r.now()

	if r.deps.Observer != nil {
		r.deps.Observer.ObserveRun(report)
	}
	logSummary(log, report)
	return report
}

func (r *Runner) ingest(ctx context.Context, report *types.RunReport, log logger.Logger) []*types.Article {
	start := r.now()
	articles, feeds := r.deps.Feeds.FetchRecent(ctx)
	report.Feeds = feeds
	report.Articles = articles
	report.ArticleCount = len(articles)

	failed := 0
	for _, f := range feeds {
		if f.Error != "" {
			failed++
		}
	}

	res := types.StageResult{Stage: types.StageIngest, Status: types.StatusOK}
	if failed > 0 {
		res.Status = types.StatusDegraded
		res.Reason = fmt.Sprintf("%d of %d feeds failed", failed, len(feeds))
	}
	r.finish(report, res, start)
	log.Info("Articles ingested", logger.Int("articles", len(articles)), logger.Int("failed_feeds", failed))
	return articles
}

func (r *Runner) extract(ctx context.Context, report *types.RunReport, articles []*types.Article, log logger.Logger) {
	start := r.now()
	switch {
	case r.deps.Extractor == nil:
		r.finish(report, skipped(types.StageExtract, "disabled"), start)
		return
	case len(articles) == 0:
		r.finish(report, skipped(types.StageExtract, "no articles"), start)
		return
	}

	failed := r.deps.Extractor.ExtractAll(ctx, articles)
	res := types.StageResult{Stage: types.StageExtract, Status: types.StatusOK}
	if failed > 0 {
		res.Status = types.StatusDegraded
		res.Reason = fmt.Sprintf("%d of %d pages could not be fetched", failed, len(articles))
	}
	r.finish(report, res, start)
	log.Info("Bodies extracted", logger.Int("articles", len(articles)), logger.Int("failed", failed))
}

func (r *Runner) summarize(ctx context.Context, report *types.RunReport, articles []*types.Article) summarizer.Result {
	start := r.now()
	res := r.deps.Summarizer.Summarize(ctx, articles)
	r.finish(report, types.StageResult{Stage: types.StageSummarize, Status: res.Status, Reason: res.Reason}, start)
	return res
}

func (r *Runner) message(ctx context.Context, report *types.RunReport, log logger.Logger) {
	start := r.now()
	if r.deps.Messenger == nil {
		log.Info("Messaging not configured; skipping push")
		r.finish(report, skipped(types.StageMessage, "not configured"), start)
		return
	}
	if err := r.deps.Messenger.Push(ctx, report.Message); err != nil {
		log.Error("Push failed", logger.Error(err))
		r.finish(report, failedResult(types.StageMessage, err), start)
		return
	}
	r.finish(report, types.StageResult{Stage: types.StageMessage, Status: types.StatusOK}, start)
}

func (r *Runner) document(ctx context.Context, report *types.RunReport, articles []*types.Article, log logger.Logger) {
	start := r.now()
	if r.deps.Document == nil {
		log.Info("Document append not configured; skipping")
		r.finish(report, skipped(types.StageDocument, "not configured"), start)
		return
	}

	text := digest.ComposeDocument(report.StartedAt, r.loc, report.Digest, articles)
	if err := r.deps.Document.Append(ctx, text); err != nil {
		log.Error("Document append failed", logger.Error(err))
		r.finish(report, failedResult(types.StageDocument, err), start)
		return
	}
	r.finish(report, types.StageResult{Stage: types.StageDocument, Status: types.StatusOK}, start)
}

func (r *Runner) archive(ctx context.Context, report *types.RunReport, log logger.Logger) {
	start := r.now()
	if r.deps.Archiver == nil {
		r.finish(report, skipped(types.StageArchive, "not configured"), start)
		return
	}
	key, err := r.deps.Archiver.Archive(ctx, report)
	if err != nil {
		log.Error("Archive failed", logger.Error(err))
		r.finish(report, failedResult(types.StageArchive, err), start)
		return
	}
	log.Info("Run archived", logger.String("key", key))
	r.finish(report, types.StageResult{Stage: types.StageArchive, Status: types.StatusOK, Reason: key}, start)
}

func (r *Runner) publish(ctx context.Context, report *types.RunReport, log logger.Logger) {
	start := r.now()
	if r.deps.Publisher == nil {
		r.finish(report, skipped(types.StagePublish, "not configured"), start)
		return
	}

	links := make([]string, len(report.Articles))
	for i, a := range report.Articles {
		links[i] = a.Link
	}
	err := r.deps.Publisher.Publish(ctx, events.DigestEvent{
		RunID:        report.RunID,
		Date:         report.StartedAt.In(r.loc).Format(time.DateOnly),
		Digest:       report.Digest,
		ArticleCount: report.ArticleCount,
		Links:        links,
		Degraded:     report.Degraded(),
	})
	if err != nil {
		log.Error("Publish failed", logger.Error(err))
		r.finish(report, failedResult(types.StagePublish, err), start)
		return
	}
	log.Info("Digest event published",
		logger.Strings("links", links),
		logger.Bool("degraded", report.Degraded()),
	)
	r.finish(report, types.StageResult{Stage: types.StagePublish, Status: types.StatusOK}, start)
}

func (r *Runner) finish(report *types.RunReport, res types.StageResult, start time.Time) {
	res.Duration = r.now().Sub(start)
	report.Add(res)
}

func skipped(stage types.Stage, reason string) types.StageResult {
	return types.StageResult{Stage: stage, Status: types.StatusSkipped, Reason: reason}
}

func failedResult(stage types.Stage, err error) types.StageResult {
	return types.StageResult{Stage: stage, Status: types.StatusFailed, Reason: err.Error()}
}

func logSummary(log logger.Logger, report *types.RunReport) {
	fields := []logger.Field{
		logger.String("status", string(report.Status())),
		logger.Int("articles", report.ArticleCount),
		logger.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	}
	for _, s := range report.Stages {
		fields = append(fields, logger.String("stage_"+string(s.Stage), string(s.Status)))
	}
	log.Info("Digest run complete", fields...)
}
