package rssfeeds_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"newsdigest/rssfeeds"
	"newsdigest/types"
)

const testUA = "newsdigest-test-agent"

func servePages(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != testUA {
			http.Error(w, "bot", http.StatusForbidden)
			return
		}
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newExtractor(srv *httptest.Server) *rssfeeds.Extractor {
	return rssfeeds.NewExtractor(rssfeeds.ExtractorConfig{
		Timeout:   5 * time.Second,
		UserAgent: testUA,
		Client:    srv.Client(),
	})
}

func TestExtractBody_Cascade(t *testing.T) {
	t.Parallel()

	srv := servePages(t, map[string]string{
		"/specific": `<html><body>
			<nav>menu</nav>
			<article><p>generic article text</p></article>
			<div id="cmsBody"><h2> Heading </h2><p>First paragraph.</p><script>var x=1;</script><ul><li>item</li></ul></div>
		</body></html>`,
		"/container-text": `<html><body><article>Just loose text here</article></body></html>`,
		"/empty-match": `<html><body><div class="entry-content"></div>
			<p>This paragraph is long enough to pass the noise filter.</p></body></html>`,
		"/paragraphs": `<html><body><div>
			<p>short one</p>
			<p>This paragraph is long enough to pass the noise filter.</p>
			<footer><p>Footer paragraph that is long but stripped anyway.</p></footer>
		</div></body></html>`,
		"/nothing": `<html><body><div><p>tiny</p><span>no paragraphs of note</span></div></body></html>`,
	})
	ex := newExtractor(srv)
	ctx := context.Background()

	body, status := ex.ExtractBody(ctx, srv.URL+"/specific")
	assert.Equal(t, types.BodyOK, status)
	assert.Equal(t, "Heading\nFirst paragraph.\nitem", body, "site specific rule wins over article")

	body, status = ex.ExtractBody(ctx, srv.URL+"/container-text")
	assert.Equal(t, types.BodyOK, status)
	assert.Equal(t, "Just loose text here", body)

	// first matching selector wins even when it is empty
	body, status = ex.ExtractBody(ctx, srv.URL+"/empty-match")
	assert.Equal(t, types.BodyNotFound, status)
	assert.Equal(t, rssfeeds.BodyNotFoundText, body)

	body, status = ex.ExtractBody(ctx, srv.URL+"/paragraphs")
	assert.Equal(t, types.BodyOK, status)
	assert.Equal(t, "This paragraph is long enough to pass the noise filter.", body)

	body, status = ex.ExtractBody(ctx, srv.URL+"/nothing")
	assert.Equal(t, types.BodyNotFound, status)
	assert.Equal(t, rssfeeds.BodyNotFoundText, body)
}

func TestExtractBody_Failures(t *testing.T) {
	t.Parallel()

	srv := servePages(t, map[string]string{})
	ex := newExtractor(srv)
	ctx := context.Background()

	for _, u := range []string{
		srv.URL + "/404",
		"http://127.0.0.1:1/unreachable",
		"::not a url::",
		"",
	} {
		body, status := ex.ExtractBody(ctx, u)
		assert.Equal(t, types.BodyFailed, status, u)
		assert.Equal(t, rssfeeds.BodyFailedText, body, u)
	}

	// missing user agent is rejected by the server
	bare := rssfeeds.NewExtractor(rssfeeds.ExtractorConfig{Timeout: time.Second, Client: srv.Client()})
	_, status := bare.ExtractBody(ctx, srv.URL+"/anything")
	assert.Equal(t, types.BodyFailed, status)
}

func TestExtractBody_Truncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("あ", 2500)
	srv := servePages(t, map[string]string{
		"/long":  "<html><body><article><p>" + long + "</p></article></body></html>",
		"/exact": "<html><body><article><p>" + strings.Repeat("い", 2000) + "</p></article></body></html>",
	})
	ex := newExtractor(srv)

	body, status := ex.ExtractBody(context.Background(), srv.URL+"/long")
	assert.Equal(t, types.BodyTruncated, status)
	require.True(t, strings.HasSuffix(body, rssfeeds.OmittedMarker))
	assert.Equal(t, 2000, utf8.RuneCountInString(strings.TrimSuffix(body, rssfeeds.OmittedMarker)))

	body, status = ex.ExtractBody(context.Background(), srv.URL+"/exact")
	assert.Equal(t, types.BodyOK, status)
	assert.Equal(t, 2000, utf8.RuneCountInString(body))
}

func TestExtractBody_ShiftJIS(t *testing.T) {
	t.Parallel()

	page := `<html><head><meta charset="shift_jis"></head><body><article><p>人工知能のニュース</p></article></body></html>`
	var encoded bytes.Buffer
	w := transform.NewWriter(&encoded, japanese.ShiftJIS.NewEncoder())
	_, err := w.Write([]byte(page))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=Shift_JIS")
		_, _ = w.Write(encoded.Bytes())
	}))
	t.Cleanup(srv.Close)

	body, status := newExtractor(srv).ExtractBody(context.Background(), srv.URL)
	assert.Equal(t, types.BodyOK, status)
	assert.Equal(t, "人工知能のニュース", body)
}

func TestExtractBody_ReadabilityFallback(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("Readable sentence in a plain div without paragraphs. ", 20)
	srv := servePages(t, map[string]string{
		"/divs": "<html><head><title>t</title></head><body><div>" + text + "</div></body></html>",
	})

	plain := newExtractor(srv)
	_, status := plain.ExtractBody(context.Background(), srv.URL+"/divs")
	assert.Equal(t, types.BodyNotFound, status)

	withFallback := rssfeeds.NewExtractor(rssfeeds.ExtractorConfig{
		Timeout:             5 * time.Second,
		UserAgent:           testUA,
		Client:              srv.Client(),
		ReadabilityFallback: true,
	})
	body, status := withFallback.ExtractBody(context.Background(), srv.URL+"/divs")
	assert.NotEqual(t, types.BodyFailed, status)
	assert.Contains(t, body, "Readable sentence")
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
}

func (m *memCache) Get(_ context.Context, link string) (string, types.BodyStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.entries[link]
	return body, types.BodyOK, ok
}

func (m *memCache) Set(_ context.Context, link, body string, _ types.BodyStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[link] = body
	m.sets++
}

func TestExtractAll_OrderAndCache(t *testing.T) {
	t.Parallel()

	srv := servePages(t, map[string]string{
		"/1": "<html><body><article><p>one</p></article></body></html>",
		"/2": "<html><body><article><p>two</p></article></body></html>",
		"/3": "<html><body><article><p>three</p></article></body></html>",
	})
	cache := &memCache{entries: map[string]string{srv.URL + "/cached": "from cache"}}

	ex := rssfeeds.NewExtractor(rssfeeds.ExtractorConfig{
		Timeout:   5 * time.Second,
		UserAgent: testUA,
		Workers:   3,
		Client:    srv.Client(),
		Cache:     cache,
	})

	articles := []*types.Article{
		{Link: srv.URL + "/1"},
		{Link: srv.URL + "/2"},
		{Link: srv.URL + "/missing"},
		{Link: srv.URL + "/cached"},
		{Link: srv.URL + "/3"},
	}
	failed := ex.ExtractAll(context.Background(), articles)

	assert.Equal(t, 1, failed)
	assert.Equal(t, "one", articles[0].Body)
	assert.Equal(t, "two", articles[1].Body)
	assert.Equal(t, rssfeeds.BodyFailedText, articles[2].Body)
	assert.Equal(t, "from cache", articles[3].Body)
	assert.Equal(t, "three", articles[4].Body)
	for _, a := range articles {
		assert.True(t, a.HasBody())
	}
	// failures are never cached
	assert.Equal(t, 3, cache.sets)
}
