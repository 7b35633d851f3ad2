package types

import "time"

// Stage names a pipeline step
type Stage string

const (
	StageIngest    Stage = "ingest"
	StageExtract   Stage = "extract"
	StageSummarize Stage = "summarize"
	StageMessage   Stage = "message"
	StageDocument  Stage = "document"
	StageArchive   Stage = "archive"
	StagePublish   Stage = "publish"
)

// StageStatus is the outcome of a single stage
type StageStatus string

const (
	StatusOK       StageStatus = "ok"
	StatusDegraded StageStatus = "degraded"
	StatusSkipped  StageStatus = "skipped"
	StatusFailed   StageStatus = "failed"
)

// StageResult is the explicit outcome of one pipeline stage
type StageResult struct {
	Stage    Stage         `json:"stage"`
	Status   StageStatus   `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

// RunReport aggregates everything a single run produced
type RunReport struct {
	RunID        string        `json:"run_id"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	Feeds        []FeedResult  `json:"feeds"`
	ArticleCount int           `json:"article_count"`
	Articles     []*Article    `json:"articles,omitempty"`
	Digest       string        `json:"digest"`
	Message      string        `json:"message,omitempty"`
	Stages       []StageResult `json:"stages"`
}

// Add appends a stage result
func (r *RunReport) Add(res StageResult) {
	r.Stages = append(r.Stages, res)
}

// Stage returns the recorded result for a stage, if any
func (r *RunReport) Stage(stage Stage) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Stage == stage {
			return s, true
		}
	}
	return StageResult{}, false
}

// Degraded reports whether any stage failed or fell back to degraded output
func (r *RunReport) Degraded() bool {
	for _, s := range r.Stages {
		if s.Status == StatusDegraded || s.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Status returns the overall run status used for metrics and the API
func (r *RunReport) Status() StageStatus {
	if r.Degraded() {
		return StatusDegraded
	}
	return StatusOK
}
