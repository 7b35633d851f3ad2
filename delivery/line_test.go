package delivery_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdigest/delivery"
)

type pushBody struct {
	To       string `json:"to"`
	Messages []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"messages"`
}

func TestNewLinePusher_NotConfigured(t *testing.T) {
	t.Parallel()

	_, err := delivery.NewLinePusher(delivery.LineConfig{ChannelAccessToken: "tok"})
	assert.ErrorIs(t, err, delivery.ErrNotConfigured)

	_, err = delivery.NewLinePusher(delivery.LineConfig{UserID: "U1"})
	assert.ErrorIs(t, err, delivery.ErrNotConfigured)
}

func TestLinePusher_Push(t *testing.T) {
	t.Parallel()

	var got pushBody
	var path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sentMessages":[{"id":"1","quoteToken":"q"}]}`))
	}))
	t.Cleanup(srv.Close)

	p, err := delivery.NewLinePusher(delivery.LineConfig{
		ChannelAccessToken: "tok",
		UserID:             "U123",
		Endpoint:           srv.URL,
		HTTPClient:         srv.Client(),
	})
	require.NoError(t, err)

	require.NoError(t, p.Push(context.Background(), "今日のAIニュース"))

	assert.Equal(t, "/v2/bot/message/push", path)
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "U123", got.To)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "text", got.Messages[0].Type)
	assert.Equal(t, "今日のAIニュース", got.Messages[0].Text)
}

func TestLinePusher_PushRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"The request body has 1 error(s)"}`))
	}))
	t.Cleanup(srv.Close)

	p, err := delivery.NewLinePusher(delivery.LineConfig{
		ChannelAccessToken: "tok",
		UserID:             "U123",
		Endpoint:           srv.URL,
		HTTPClient:         srv.Client(),
	})
	require.NoError(t, err)

	assert.Error(t, p.Push(context.Background(), "x"))
}
