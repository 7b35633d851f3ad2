package document

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	docs "google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

func newTestAppender(t *testing.T, handler http.HandlerFunc) *Appender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	service, err := docs.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return NewWithService(service, "doc-1")
}

func TestAppend_InsertsAtEnd(t *testing.T) {
	t.Parallel()

	var batch docs.BatchUpdateDocumentRequest
	var calls []string
	a := newTestAppender(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"documentId":"doc-1","body":{"content":[
				{"endIndex":1,"sectionBreak":{}},
				{"startIndex":1,"endIndex":42,"paragraph":{}}
			]}}`))
		case strings.HasSuffix(r.URL.Path, ":batchUpdate"):
			_ = json.NewDecoder(r.Body).Decode(&batch)
			_, _ = w.Write([]byte(`{"documentId":"doc-1"}`))
		default:
			http.NotFound(w, r)
		}
	})

	require.NoError(t, a.Append(context.Background(), "新しいセクション"))

	require.Len(t, calls, 2)
	assert.Equal(t, "GET /v1/documents/doc-1", calls[0])
	assert.Equal(t, "POST /v1/documents/doc-1:batchUpdate", calls[1])
	require.Len(t, batch.Requests, 1)
	require.NotNil(t, batch.Requests[0].InsertText)
	assert.Equal(t, int64(41), batch.Requests[0].InsertText.Location.Index)
	assert.Equal(t, "新しいセクション", batch.Requests[0].InsertText.Text)
}

func TestAppend_ReadFailure(t *testing.T) {
	t.Parallel()

	a := newTestAppender(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied"}}`))
	})

	err := a.Append(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read document")
}

func TestInsertIndex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(1), insertIndex(&docs.Document{}))
	assert.Equal(t, int64(1), insertIndex(&docs.Document{Body: &docs.Body{Content: []*docs.StructuralElement{{EndIndex: 1}}}}))
	assert.Equal(t, int64(9), insertIndex(&docs.Document{Body: &docs.Body{Content: []*docs.StructuralElement{{EndIndex: 1}, {EndIndex: 10}}}}))
}

func TestNewAppender_Config(t *testing.T) {
	t.Parallel()

	_, err := NewAppender(context.Background(), Config{DocID: "d"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewAppender(context.Background(), Config{Credentials: "{not json", DocID: "d"})
	assert.Error(t, err)

	_, err = NewAppender(context.Background(), Config{Credentials: "/nonexistent/sa.json", DocID: "d"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to read service account file")
}
