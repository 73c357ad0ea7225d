package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type stubWriter struct {
	msgs []kafka.Message
	err  error
}

func (s *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msgs...)
	return nil
}

func (s *stubWriter) Close() error { return nil }

func TestPublishRefreshed(t *testing.T) {
	w := &stubWriter{}
	p := &Publisher{w: w}

	runAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, p.PublishRefreshed(context.Background(), Refreshed{Fetched: 10, Stored: 4, RunAt: runAt, Provider: "gnews"}))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	require.Equal(t, "gnews", string(msg.Key))

	var ev Refreshed
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	require.NotEmpty(t, ev.ID)
	require.Equal(t, 4, ev.Stored)
	require.True(t, runAt.Equal(ev.RunAt))
}

func TestPublishRefreshedWrapsWriterError(t *testing.T) {
	p := &Publisher{w: &stubWriter{err: errors.New("broker down")}}
	err := p.PublishRefreshed(context.Background(), Refreshed{Provider: "gnews"})
	require.ErrorContains(t, err, "broker down")
}
