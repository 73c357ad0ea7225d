// Package events publishes refresh notifications to Kafka so downstream
// consumers can react to a new news snapshot.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Refreshed is emitted after the news collection has been replaced.
type Refreshed struct {
	ID       string    `json:"id"`
	Fetched  int       `json:"fetched"`
	Stored   int       `json:"stored"`
	RunAt    time.Time `json:"runAt"`
	Provider string    `json:"provider"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes Refreshed events to a topic.
type Publisher struct {
	w messageWriter
}

// NewPublisher builds a Kafka-backed publisher.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
	}}
}

// PublishRefreshed sends one event keyed by its provider.
func (p *Publisher) PublishRefreshed(ctx context.Context, ev Refreshed) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.RunAt.IsZero() {
		ev.RunAt = time.Now().UTC()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal refresh event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.Provider),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte("news.refreshed")},
			{Key: "timestamp", Value: []byte(ev.RunAt.Format(time.RFC3339))},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write refresh event: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}
