// Package summarizer turns the day's articles into a short Japanese digest
// using a generative-text provider.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"newsdigest/logger"
	"newsdigest/types"
)

// Canned digests used in place of generated text
const (
	NoNewsText        = "本日のAI関連ニュースはありませんでした。"
	missingKeyFormat  = "エラー: %sが設定されていません。"
	failedFormat      = "要約中にエラーが発生しました: %s"
	promptInstruction = `以下のAI関連のニュース記事リストを、日本語で要約してください。
読者が手短に内容を把握できるように、重要なニュースを3〜5個に絞って簡潔に記述してください。
各要約の後に、該当記事のURLを記載してください。

ニュースリスト:
`
)

// ErrEmptyResponse is returned by generators that got a reply without text
var ErrEmptyResponse = errors.New("empty response from model")

// Generator produces text for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Result is the digest text together with how it was produced
type Result struct {
	Text   string
	Status types.StageStatus
	Reason string
}

// Service builds prompts and calls a Generator
type Service struct {
	gen    Generator
	keyEnv string
	log    logger.Logger
}

// New returns a Service. gen may be nil when the provider key is absent;
// keyEnv names the variable reported in that case.
func New(gen Generator, keyEnv string, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{gen: gen, keyEnv: keyEnv, log: log}
}

// MissingKeyText is the digest delivered when no API key is configured
func MissingKeyText(keyEnv string) string {
	return fmt.Sprintf(missingKeyFormat, keyEnv)
}

// FailureText is the digest delivered when generation fails
func FailureText(err error) string {
	return fmt.Sprintf(failedFormat, err)
}

// Summarize never fails: an empty list yields NoNewsText without calling the
// provider, and provider problems become a visible error text in the digest.
func (s *Service) Summarize(ctx context.Context, articles []*types.Article) Result {
	if len(articles) == 0 {
		return Result{Text: NoNewsText, Status: types.StatusSkipped, Reason: "no articles"}
	}

	if s.gen == nil {
		s.log.Warn("Summarizer key missing", logger.String("env", s.keyEnv))
		return Result{
			Text:   MissingKeyText(s.keyEnv),
			Status: types.StatusDegraded,
			Reason: s.keyEnv + " not set",
		}
	}

	text, err := s.gen.Generate(ctx, BuildPrompt(articles))
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		s.log.Error("Summarization failed", logger.String("provider", s.gen.Name()), logger.Error(err))
		return Result{Text: FailureText(err), Status: types.StatusDegraded, Reason: err.Error()}
	}

	s.log.Info("Digest generated",
		logger.String("provider", s.gen.Name()),
		logger.Int("articles", len(articles)),
	)
	return Result{Text: text, Status: types.StatusOK}
}

// BuildPrompt renders the instruction followed by one "- title (source): link" line per article
func BuildPrompt(articles []*types.Article) string {
	var b strings.Builder
	b.WriteString(promptInstruction)
	for i, a := range articles {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s (%s): %s", a.Title, a.Source, a.Link)
	}
	b.WriteByte('\n')
	return b.String()
}
