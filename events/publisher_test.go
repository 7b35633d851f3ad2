package events_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdigest/events"
)

func TestPublish_SendsJSON(t *testing.T) {
	t.Parallel()

	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var ev events.DigestEvent
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		assert.Equal(t, "run-9", ev.RunID)
		assert.Equal(t, "2025-06-01", ev.Date)
		assert.Equal(t, []string{"https://a.example"}, ev.Links)
		return nil
	})

	p := events.NewWithProducer(producer, "digest-events")
	err := p.Publish(context.Background(), events.DigestEvent{
		RunID:        "run-9",
		Date:         "2025-06-01",
		Digest:       "要約",
		ArticleCount: 1,
		Links:        []string{"https://a.example"},
	})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestPublish_Failure(t *testing.T) {
	t.Parallel()

	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := events.NewWithProducer(producer, "digest-events")
	err := p.Publish(context.Background(), events.DigestEvent{RunID: "r"})
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestPublish_CanceledContext(t *testing.T) {
	t.Parallel()

	producer := mocks.NewSyncProducer(t, nil)
	p := events.NewWithProducer(producer, "digest-events")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, events.DigestEvent{RunID: "r"}), context.Canceled)
	require.NoError(t, p.Close())
}
