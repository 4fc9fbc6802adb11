package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"booking-settlement-be/internal/dto"
	"booking-settlement-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	hub := startHub(t)

	a := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 4)}
	b := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 4)}
	hub.register <- a
	hub.register <- b
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(dto.DeskMessage{Type: "REFUND_PENDING_REVIEW", Data: map[string]interface{}{"request_id": "r-1"}})

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.Send:
			var msg dto.DeskMessage
			require.NoError(t, json.Unmarshal(raw, &msg))
			assert.Equal(t, "REFUND_PENDING_REVIEW", msg.Type)
			assert.Equal(t, "r-1", msg.Data["request_id"])
		case <-time.After(time.Second):
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := startHub(t)

	slow := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte)}
	hub.register <- slow
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(dto.DeskMessage{Type: "REFUND_COMPLETED"})

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-slow.Send
	assert.False(t, open)
}

func TestHub_UnregisterRemovesOnlyThatDevice(t *testing.T) {
	hub := startHub(t)
	user := uuid.New()

	phone := &Client{Hub: hub, UserID: user, Send: make(chan []byte, 1)}
	laptop := &Client{Hub: hub, UserID: user, Send: make(chan []byte, 1)}
	hub.register <- phone
	hub.register <- laptop
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.unregister <- phone
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
}
