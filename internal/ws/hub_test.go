package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(userID uint) *Client {
	return &Client{UserID: userID, Role: "CUSTOMER", Send: make(chan []byte, 4)}
}

func TestHubBroadcastToUserReachesAllDevices(t *testing.T) {
	h := NewHub()
	phone := newTestClient(1)
	laptop := newTestClient(1)
	other := newTestClient(2)
	h.Register(phone)
	h.Register(laptop)
	h.Register(other)

	h.BroadcastToUser(1, map[string]interface{}{"order_id": 7, "status": "DELIVERED"})

	assert.Len(t, phone.Send, 1)
	assert.Len(t, laptop.Send, 1)
	assert.Empty(t, other.Send)
}

func TestHubBroadcastAllReachesEveryClient(t *testing.T) {
	h := NewHub()
	clients := []*Client{newTestClient(1), newTestClient(2), newTestClient(3)}
	for _, c := range clients {
		h.Register(c)
	}
	require.Equal(t, 3, h.ClientCount())

	h.BroadcastAll(map[string]interface{}{"type": "announcement", "message": "last slot today closes at 6pm"})

	for _, c := range clients {
		msg := <-c.Send
		assert.Contains(t, string(msg), "announcement")
	}
}

func TestHubSkipsSlowConsumer(t *testing.T) {
	h := NewHub()
	slow := &Client{UserID: 1, Send: make(chan []byte)} // no buffer, never read
	ok := newTestClient(1)
	h.Register(slow)
	h.Register(ok)

	h.BroadcastToUser(1, map[string]interface{}{"status": "CONFIRMED"})

	assert.Len(t, ok.Send, 1)
}

func TestHubCloseUnregisters(t *testing.T) {
	h := NewHub()
	c := newTestClient(1)
	h.Register(c)
	require.Equal(t, 1, h.ClientCount())

	c.Close()
	assert.Equal(t, 0, h.ClientCount())

	// Closing twice must not panic or double-close the channel.
	c.Close()
}
