package summarizer_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdigest/summarizer"
	"newsdigest/types"
)

type fakeGenerator struct {
	text    string
	err     error
	calls   int
	prompts []string
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func sampleArticles() []*types.Article {
	return []*types.Article{
		{Title: "新しいモデル", Source: "ITmedia AI+", Link: "https://example.jp/1"},
		{Title: "AI規制", Source: "Ledge.ai", Link: "https://example.jp/2"},
	}
}

func TestSummarize_EmptySkipsProvider(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{text: "unused"}
	res := summarizer.New(gen, "GEMINI_API_KEY", nil).Summarize(context.Background(), nil)

	assert.Equal(t, "本日のAI関連ニュースはありませんでした。", res.Text)
	assert.Equal(t, types.StatusSkipped, res.Status)
	assert.Zero(t, gen.calls)
}

func TestSummarize_MissingKey(t *testing.T) {
	t.Parallel()

	res := summarizer.New(nil, "GEMINI_API_KEY", nil).Summarize(context.Background(), sampleArticles())

	assert.Equal(t, "エラー: GEMINI_API_KEYが設定されていません。", res.Text)
	assert.Equal(t, types.StatusDegraded, res.Status)
}

func TestSummarize_ProviderFailureBecomesDigest(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	res := summarizer.New(gen, "GEMINI_API_KEY", nil).Summarize(context.Background(), sampleArticles())

	assert.Equal(t, "要約中にエラーが発生しました: quota exceeded", res.Text)
	assert.Equal(t, types.StatusDegraded, res.Status)
	assert.Equal(t, "quota exceeded", res.Reason)
}

func TestSummarize_BlankResponse(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{text: "  \n"}
	res := summarizer.New(gen, "GEMINI_API_KEY", nil).Summarize(context.Background(), sampleArticles())

	assert.Equal(t, types.StatusDegraded, res.Status)
	assert.Equal(t, summarizer.FailureText(summarizer.ErrEmptyResponse), res.Text)
}

func TestSummarize_UsesPrompt(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{text: "今日のまとめ"}
	res := summarizer.New(gen, "GEMINI_API_KEY", nil).Summarize(context.Background(), sampleArticles())

	assert.Equal(t, "今日のまとめ", res.Text)
	assert.Equal(t, types.StatusOK, res.Status)
	require.Len(t, gen.prompts, 1)
	assert.Equal(t, summarizer.BuildPrompt(sampleArticles()), gen.prompts[0])
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt := summarizer.BuildPrompt(sampleArticles())

	assert.True(t, strings.HasPrefix(prompt, "以下のAI関連のニュース記事リストを、日本語で要約してください。\n"))
	assert.Contains(t, prompt, "重要なニュースを3〜5個に絞って")
	assert.True(t, strings.HasSuffix(prompt,
		"ニュースリスト:\n- 新しいモデル (ITmedia AI+): https://example.jp/1\n- AI規制 (Ledge.ai): https://example.jp/2\n"))
}

func TestGemini_GenerateContent(t *testing.T) {
	t.Parallel()

	var gotPath, gotKey, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": "生成された要約"}},
				},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	gen, err := summarizer.NewGemini(context.Background(), summarizer.GeminiConfig{
		APIKey:     "test-key",
		Model:      "gemini-2.5-flash",
		BaseURL:    srv.URL + "/",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), "prompt body")
	require.NoError(t, err)
	assert.Equal(t, "生成された要約", text)
	assert.True(t, strings.HasSuffix(gotPath, "/models/gemini-2.5-flash:generateContent"), gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Contains(t, gotBody, "prompt body")
	assert.Equal(t, "gemini/gemini-2.5-flash", gen.Name())
}

func TestGemini_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	t.Cleanup(srv.Close)

	gen, err := summarizer.NewGemini(context.Background(), summarizer.GeminiConfig{
		APIKey:     "k",
		Model:      "gemini-2.5-flash",
		BaseURL:    srv.URL + "/",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	res := summarizer.New(gen, "GEMINI_API_KEY", nil).Summarize(context.Background(), sampleArticles())
	assert.Equal(t, types.StatusDegraded, res.Status)
	assert.True(t, strings.HasPrefix(res.Text, "要約中にエラーが発生しました: "))
}

func TestCohere_Chat(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth string
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"cohereの要約","generation_id":"g1","finish_reason":"COMPLETE"}`))
	}))
	t.Cleanup(srv.Close)

	gen := summarizer.NewCohere(summarizer.CohereConfig{
		APIKey:     "co-key",
		Model:      "command-r-plus",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})

	text, err := gen.Generate(context.Background(), "prompt body")
	require.NoError(t, err)
	assert.Equal(t, "cohereの要約", text)
	assert.Equal(t, "/v1/chat", gotPath)
	assert.Equal(t, "Bearer co-key", gotAuth)
	assert.Equal(t, "prompt body", gotReq["message"])
	assert.Equal(t, "command-r-plus", gotReq["model"])
}
