package notifications

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterLimitsAndUnregister(t *testing.T) {
	h := NewHub()

	clients := make([]*Client, 0, maxConnsPerUser)
	for range maxConnsPerUser {
		c, err := h.Register(1, nil)
		require.NoError(t, err)
		clients = append(clients, c)
	}
	_, err := h.Register(1, nil)
	assert.ErrorIs(t, err, ErrUserConnLimit)

	_, err = h.Register(2, nil)
	require.NoError(t, err)
	assert.Equal(t, maxConnsPerUser+1, h.Connections())

	h.Unregister(clients[0])
	h.Unregister(clients[0])
	assert.Equal(t, maxConnsPerUser, h.Connections())
	_, open := <-clients[0].Send
	assert.False(t, open)
}

func TestHub_DeliverTargetsUser(t *testing.T) {
	h := NewHub()
	alice, err := h.Register(1, nil)
	require.NoError(t, err)
	bob, err := h.Register(2, nil)
	require.NoError(t, err)

	h.Deliver(1, "for alice")
	h.DeliverAll("for everyone")

	assert.Equal(t, "for alice", string(<-alice.Send))
	assert.Equal(t, "for everyone", string(<-alice.Send))
	assert.Equal(t, "for everyone", string(<-bob.Send))
	assert.Empty(t, bob.Send)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	h := NewHub()
	c, err := h.Register(1, nil)
	require.NoError(t, err)

	for range sendBuffer + 5 {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBuffer)

	h.Unregister(c)
	assert.NotPanics(t, func() { c.TrySend([]byte("late")) })
}

func TestHub_ShutdownRefusesNewClients(t *testing.T) {
	h := NewHub()
	c, err := h.Register(1, nil)
	require.NoError(t, err)

	require.NoError(t, h.Shutdown(t.Context()))
	require.NoError(t, h.Shutdown(t.Context()))
	assert.Zero(t, h.Connections())
	_, open := <-c.Send
	assert.False(t, open)

	_, err = h.Register(1, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestHub_StartWiringRoutesMessages(t *testing.T) {
	n := NewNotifier(newTestRedis(t))
	h := NewHub()
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	require.NoError(t, h.StartWiring(ctx, n))

	c, err := h.Register(9, nil)
	require.NoError(t, err)
	require.NoError(t, n.PublishUser(t.Context(), 9, "hello"))
	require.NoError(t, n.PublishUser(t.Context(), 10, "not yours"))

	select {
	case m := <-c.Send:
		assert.Equal(t, "hello", string(m))
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
	assert.Never(t, func() bool { return len(c.Send) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestHub_ShutdownFlushesQueuedMessagesThenCloses(t *testing.T) {
	h := NewHub()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		client, err := h.Register(1, conn)
		if err != nil {
			return
		}
		go client.WritePump()
		client.ReadPump()
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.ShutdownWithTimeout(time.Second) })

	conn, _, err := gorillaws.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.Connections() == 1 }, 2*time.Second, 10*time.Millisecond)

	h.Deliver(1, "one")
	h.Deliver(1, "two")
	h.DeliverAll("three")
	require.NoError(t, h.Shutdown(t.Context()))

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var got []string
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			assert.True(t, gorillaws.IsCloseError(err, gorillaws.CloseGoingAway), "unexpected error: %v", err)
			break
		}
		got = append(got, string(msg))
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)
	assert.Zero(t, h.Connections())
}
