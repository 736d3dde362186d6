package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestNotifier_NilClientIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(t.Context(), 1, "x"))
	assert.NoError(t, n.PublishBroadcast(t.Context(), "x"))
	assert.NoError(t, n.StartPatternSubscriber(t.Context(), func(string, string) {}))

	var nilNotifier *Notifier
	assert.NoError(t, nilNotifier.PublishEvent(t.Context(), nil, NewEvent(EventThreadCreated, nil)))
}

func TestUserChannel(t *testing.T) {
	assert.Equal(t, "activity:user:42", UserChannel(42))

	id, ok := parseUserChannel(UserChannel(42))
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"activity:user:", "activity:user:x", "other:user:1", "activity:user:0"} {
		_, ok := parseUserChannel(bad)
		assert.False(t, ok, bad)
	}
}

func TestNotifier_SubscriberReceivesUserAndBroadcast(t *testing.T) {
	n := NewNotifier(newTestRedis(t))
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	type msg struct{ channel, payload string }
	got := make(chan msg, 4)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(channel, payload string) {
		got <- msg{channel, payload}
	}))

	userID := uint(7)
	require.NoError(t, n.PublishEvent(t.Context(), &userID, NewEvent(EventReplyCreated, map[string]uint{"reply_id": 3})))
	require.NoError(t, n.PublishEvent(t.Context(), nil, NewEvent(EventThreadCreated, map[string]uint{"thread_id": 1})))

	first := <-got
	assert.Equal(t, "activity:user:7", first.channel)
	var e struct {
		Type    string          `json:"type"`
		Payload map[string]uint `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(first.payload), &e))
	assert.Equal(t, EventReplyCreated, e.Type)
	assert.Equal(t, uint(3), e.Payload["reply_id"])

	second := <-got
	assert.Equal(t, broadcastChannel, second.channel)
}

func TestNotifier_SubscriberSurvivesPanics(t *testing.T) {
	n := NewNotifier(newTestRedis(t))
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	got := make(chan string, 2)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(_, payload string) {
		if payload == "boom" {
			panic("handler failure")
		}
		got <- payload
	}))

	require.NoError(t, n.PublishBroadcast(t.Context(), "boom"))
	require.NoError(t, n.PublishBroadcast(t.Context(), "after"))

	select {
	case p := <-got:
		assert.Equal(t, "after", p)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber stopped after a panic")
	}
}
