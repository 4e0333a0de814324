package mq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"filedrive/config"
)

func TestNewEvent_JSON(t *testing.T) {
	e := NewEvent(FileCreated, "alice", map[string]any{"file_id": "abc123"})

	b, err := json.Marshal(e)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "file.created", got["event_action"])
	assert.Equal(t, "alice", got["subject"])
	assert.Equal(t, e.Id.String(), got["event_id"])
	assert.Equal(t, map[string]any{"file_id": "abc123"}, got["payload"])
}

func TestPublish_DropsWhenFull(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := New(config.MQ{}, zap.New(core))

	for range bufferSize + 3 {
		r.Publish(NewEvent(UserUpdated, "bob", nil))
	}

	assert.Len(t, r.in, bufferSize)
	assert.Equal(t, 3, logs.FilterMessage("mq buffer full, event dropped").Len())
}

func TestPublisherWorker_StopsOnCancel(t *testing.T) {
	r := New(config.MQ{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.PublisherWorker(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher worker did not stop")
	}

	// publishing after shutdown must not panic
	r.Publish(NewEvent(FileDeleted, "bob", nil))
}

func TestConnect_InvalidDSN(t *testing.T) {
	r := New(config.MQ{}, zap.NewNop())

	err := r.Connect(context.Background(), "amqp://bad:://dsn")
	require.Error(t, err)
	assert.Nil(t, r.GetConn())
}

func TestDiscard(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	NewDiscard(zap.New(core)).Publish(NewEvent(UserCreated, "carol", nil))
	assert.Equal(t, 1, logs.Len())
}
