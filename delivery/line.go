// Package delivery pushes the digest to a single LINE recipient.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// ErrNotConfigured is returned when the channel token or recipient is missing
var ErrNotConfigured = errors.New("line delivery not configured")

// LineConfig configures the LINE pusher
type LineConfig struct {
	ChannelAccessToken string
	UserID             string
	// Endpoint overrides the API base URL; used by tests
	Endpoint   string
	HTTPClient *http.Client
}

// LinePusher sends push messages through the LINE Messaging API
type LinePusher struct {
	api    *messaging_api.MessagingApiAPI
	userID string
}

// NewLinePusher creates a pusher, or ErrNotConfigured when credentials are absent
func NewLinePusher(cfg LineConfig) (*LinePusher, error) {
	if cfg.ChannelAccessToken == "" || cfg.UserID == "" {
		return nil, ErrNotConfigured
	}

	opts := make([]messaging_api.MessagingApiAPIOption, 0, 2)
	if cfg.Endpoint != "" {
		opts = append(opts, messaging_api.WithEndpoint(cfg.Endpoint))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, messaging_api.WithHTTPClient(cfg.HTTPClient))
	}

	api, err := messaging_api.NewMessagingApiAPI(cfg.ChannelAccessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create line client: %w", err)
	}
	return &LinePusher{api: api, userID: cfg.UserID}, nil
}

// Push sends text as a single text message
func (p *LinePusher) Push(ctx context.Context, text string) error {
	_, err := p.api.WithContext(ctx).PushMessage(&messaging_api.PushMessageRequest{
		To: p.userID,
		Messages: []messaging_api.MessageInterface{
			&messaging_api.TextMessage{Text: text},
		},
	}, "")
	if err != nil {
		return fmt.Errorf("line push: %w", err)
	}
	return nil
}
