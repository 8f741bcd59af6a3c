package events

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad-ledger/internal/domain"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(nil, nil)
	server := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func receive(t *testing.T, sub *Subscriber) *domain.Event {
	t.Helper()
	select {
	case e := <-sub.Events():
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestHub_StreamsEvents(t *testing.T) {
	hub, url := startHub(t)

	sub, err := Subscribe(context.Background(), url, "", nil, nil)
	require.NoError(t, err)
	defer sub.Close()
	waitForClients(t, hub, 1)

	err = hub.Handle(context.Background(), []*domain.Event{
		{Kind: domain.EventSwap, Mint: "A", Side: "buy", AmountIn: 100_000, AmountOut: 9, Timestamp: 42},
	})
	require.NoError(t, err)

	e := receive(t, sub)
	assert.Equal(t, domain.EventSwap, e.Kind)
	assert.Equal(t, "A", e.Mint)
	assert.Equal(t, uint64(9), e.AmountOut)
	assert.Equal(t, int64(42), e.Timestamp)
}

func TestHub_MintFilter(t *testing.T) {
	hub, url := startHub(t)

	sub, err := Subscribe(context.Background(), url, "B", nil, nil)
	require.NoError(t, err)
	defer sub.Close()
	waitForClients(t, hub, 1)

	require.NoError(t, hub.Handle(context.Background(), []*domain.Event{
		{Kind: domain.EventSwap, Mint: "A", Timestamp: 1},
		{Kind: domain.EventSwap, Mint: "B", Timestamp: 2},
	}))

	e := receive(t, sub)
	assert.Equal(t, "B", e.Mint)
	select {
	case extra := <-sub.Events():
		t.Errorf("unexpected event for mint %s", extra.Mint)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub, url := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	waitForClients(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)

	// Publishing with no clients is a no-op.
	assert.NoError(t, hub.Handle(context.Background(), []*domain.Event{{Kind: domain.EventClaim}}))
}

func TestHub_SlowClientDropsInsteadOfBlocking(t *testing.T) {
	cfg := DefaultHubConfig()
	cfg.SendBuffer = 1
	hub := NewHub(&cfg, nil)
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	// A raw client that never reads.
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	waitForClients(t, hub, 1)

	batch := make([]*domain.Event, 1000)
	for i := range batch {
		batch[i] = &domain.Event{Kind: domain.EventSwap, Mint: strings.Repeat("x", 1024)}
	}

	done := make(chan struct{})
	go func() {
		_ = hub.Handle(context.Background(), batch)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Handle blocked on a slow client")
	}
}

func TestSubscriber_DialError(t *testing.T) {
	_, err := Subscribe(context.Background(), "ws://127.0.0.1:1/ws/events", "", nil, nil)
	assert.Error(t, err)
}

func TestSubscriber_CloseIsIdempotent(t *testing.T) {
	_, url := startHub(t)

	sub, err := Subscribe(context.Background(), url, "", nil, nil)
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	_, ok := <-sub.Events()
	assert.False(t, ok, "events channel should be closed")
}
