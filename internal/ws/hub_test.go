package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFeed(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	router := gin.New()
	router.GET("/ws/orders", hub.HandleWS)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/orders"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Give the hub a moment to register the connection.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		n := len(hub.clients)
		hub.mu.RUnlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	return hub, conn
}

func TestBroadcastReachesSubscriber(t *testing.T) {
	hub, conn := newTestFeed(t)

	hub.BroadcastOrderUpdate(42, 7, "cooking")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var update OrderUpdate
	require.NoError(t, json.Unmarshal(data, &update))
	assert.Equal(t, uint(42), update.OrderID)
	assert.Equal(t, uint(7), update.RestaurantID)
	assert.Equal(t, "cooking", update.Status)
	assert.False(t, update.At.IsZero())
}

func TestBroadcastWithoutSubscribers(t *testing.T) {
	hub := NewHub()

	// Must not block or panic with nobody listening.
	hub.BroadcastOrderUpdate(1, 1, "ready")
}
