package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBrokerDeliversToSubscribers(t *testing.T) {
	b := NewLocalBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, "schedule.created")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "schedule.created", map[string]string{"id": "abc"}))
	require.NoError(t, b.Publish(ctx, "schedule.deleted", map[string]string{"id": "other"}))

	select {
	case msg := <-ch:
		assert.JSONEq(t, `{"id":"abc"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message %s", msg)
	default:
	}
}

func TestLocalBrokerRawMessagePassesThrough(t *testing.T) {
	b := NewLocalBroker()
	defer b.Close()

	ctx := context.Background()
	ch, err := b.Subscribe(ctx, "topic")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "topic", json.RawMessage(`{"a":1}`)))
	assert.JSONEq(t, `{"a":1}`, string(<-ch))
}

func TestLocalBrokerUnsubscribeOnCancel(t *testing.T) {
	b := NewLocalBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Subscribe(ctx, "topic")
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestLocalBrokerClosed(t *testing.T) {
	b := NewLocalBroker()
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Publish(context.Background(), "topic", "x"), ErrBrokerClosed)
	_, err := b.Subscribe(context.Background(), "topic")
	assert.ErrorIs(t, err, ErrBrokerClosed)
}

func TestBrokerAdapterInvokesHandler(t *testing.T) {
	b := NewLocalBroker()
	defer b.Close()
	adapter := NewBrokerAdapter(b, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 1)
	require.NoError(t, adapter.Subscribe(ctx, "topic", func(msg []byte) error {
		got <- string(msg)
		return nil
	}))

	require.NoError(t, adapter.Publish(ctx, "topic", []byte(`{"ok":true}`)))

	select {
	case msg := <-got:
		assert.JSONEq(t, `{"ok":true}`, msg)
	case <-time.After(time.Second):
		t.Fatal("handler not invoked")
	}
}
