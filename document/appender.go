// Package document appends digest sections to a Google Doc.
package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	docs "google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

// ErrNotConfigured is returned when credentials or the document id are missing
var ErrNotConfigured = errors.New("document append not configured")

// Config configures the appender
type Config struct {
	// Credentials is a service account JSON blob, or a path to one
	Credentials string
	DocID       string
}

// Appender inserts text at the end of one document
type Appender struct {
	service *docs.Service
	docID   string
}

// NewAppender authenticates with a service account and returns an Appender
func NewAppender(ctx context.Context, cfg Config) (*Appender, error) {
	if cfg.Credentials == "" || cfg.DocID == "" {
		return nil, ErrNotConfigured
	}

	data, err := credentialBytes(cfg.Credentials)
	if err != nil {
		return nil, err
	}

	jwt, err := google.JWTConfigFromJSON(data, docs.DocumentsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account: %w", err)
	}

	service, err := docs.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create docs service: %w", err)
	}
	return NewWithService(service, cfg.DocID), nil
}

// NewWithService wraps an existing Docs service
func NewWithService(service *docs.Service, docID string) *Appender {
	return &Appender{service: service, docID: docID}
}

// Append reads the document's current end offset and inserts text there in
// a single batched edit.
func (a *Appender) Append(ctx context.Context, text string) error {
	doc, err := a.service.Documents.Get(a.docID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	req := &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: insertIndex(doc)},
				Text:     text,
			},
		}},
	}
	if _, err := a.service.Documents.BatchUpdate(a.docID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

// insertIndex is just before the body's final newline, which cannot be written past
func insertIndex(doc *docs.Document) int64 {
	if doc.Body == nil || len(doc.Body.Content) == 0 {
		return 1
	}
	end := doc.Body.Content[len(doc.Body.Content)-1].EndIndex
	if end <= 1 {
		return 1
	}
	return end - 1
}

func credentialBytes(value string) ([]byte, error) {
	if strings.HasPrefix(strings.TrimSpace(value), "{") {
		return []byte(value), nil
	}
	data, err := os.ReadFile(value)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account file: %w", err)
	}
	return data, nil
}
