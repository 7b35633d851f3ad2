// Package events announces finished digests on Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
)

// DigestEvent is published once per run
type DigestEvent struct {
	RunID        string   `json:"run_id"`
	Date         string   `json:"date"`
	Digest       string   `json:"digest"`
	ArticleCount int      `json:"article_count"`
	Links        []string `json:"links"`
	Degraded     bool     `json:"degraded"`
}

// Config holds Kafka producer configuration
type Config struct {
	Brokers []string
	Topic   string
}

// Publisher sends DigestEvents with a synchronous producer
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewPublisher connects a sync producer to the brokers
func NewPublisher(cfg Config) (*Publisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewWithProducer(producer, cfg.Topic), nil
}

// NewWithProducer wraps an existing producer
func NewWithProducer(producer sarama.SyncProducer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

// Publish sends one event keyed by run ID. The sync producer has no context
// support, so ctx is only checked before sending.
func (p *Publisher) Publish(ctx context.Context, event DigestEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode digest event: %w", err)
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.RunID),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("send digest event: %w", err)
	}
	return nil
}

// Close shuts down the producer
func (p *Publisher) Close() error {
	return p.producer.Close()
}
