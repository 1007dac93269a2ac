package tracker

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, hub *Hub, orderID string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, orderID)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Registration happens in the handler goroutine after the handshake.
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers(orderID) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, hub.Subscribers(orderID))
	return conn
}

func TestPublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	conn := dial(t, hub, "order-1")

	hub.Publish(StatusEvent{
		OrderID:     "order-1",
		OrderNumber: "ORD-20260830-0042",
		Status:      "preparing",
		At:          time.Now().UTC(),
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev StatusEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, "preparing", ev.Status)
	assert.Equal(t, "ORD-20260830-0042", ev.OrderNumber)
}

func TestPublishIsScopedToOrder(t *testing.T) {
	hub := NewHub()
	conn := dial(t, hub, "order-1")

	hub.Publish(StatusEvent{OrderID: "other-order", Status: "ready", At: time.Now().UTC()})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "no event should arrive for another order")
}

func TestPublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		hub.Publish(StatusEvent{OrderID: "nobody", Status: "ready", At: time.Now().UTC()})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no subscribers")
	}
}

func TestUnregisterOnClose(t *testing.T) {
	hub := NewHub()
	conn := dial(t, hub, "order-1")

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers("order-1") != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Zero(t, hub.Subscribers("order-1"))
}
