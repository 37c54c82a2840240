package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"ai-recipe-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc, <-chan struct{}) {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(cancel)
	return hub, cancel, stopped
}

func TestHub_SendToUser(t *testing.T) {
	hub, _, _ := startHub(t)
	userID := uuid.New()
	client := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, 4)}
	require.True(t, hub.Register(client))
	require.Eventually(t, func() bool { return hub.Connected(userID) == 1 }, time.Second, 5*time.Millisecond)

	hub.SendToUser(context.Background(), userID, Message{Type: "subscription.activated", Data: map[string]string{"session_id": "cs_1"}})
	hub.SendToUser(context.Background(), uuid.New(), Message{Type: "ignored"})

	select {
	case raw := <-client.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "subscription.activated", msg.Type)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
	assert.Empty(t, client.Send)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.Connected(userID) == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-client.Send
	assert.False(t, open)
}

// Pushes racing with disconnects must never send on a closed channel.
func TestHub_DeliverWhileClientsDisconnect(t *testing.T) {
	hub, _, _ := startHub(t)
	userID := uuid.New()

	for round := 0; round < 20; round++ {
		clients := make([]*Client, 16)
		for i := range clients {
			clients[i] = &Client{Hub: hub, UserID: userID, Send: make(chan []byte, 1)}
			require.True(t, hub.Register(clients[i]))
		}
		require.Eventually(t, func() bool { return hub.Connected(userID) == len(clients) }, time.Second, time.Millisecond)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				hub.deliverLocal(userID, []byte(`{"type":"ping"}`))
			}
		}()
		go func() {
			defer wg.Done()
			for _, c := range clients {
				hub.Unregister(c)
			}
		}()
		wg.Wait()

		require.Eventually(t, func() bool { return hub.Connected(userID) == 0 }, time.Second, time.Millisecond)
	}
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	hub, cancel, stopped := startHub(t)
	client := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 1)}
	require.True(t, hub.Register(client))

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	done := make(chan struct{})
	go func() {
		hub.Unregister(client)
		assert.False(t, hub.Register(&Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 1)}))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unregister blocked after the hub stopped")
	}
}
