package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/spindle/internal/logging"
	"github.com/tessro/spindle/internal/session"
)

func TestHubStopReleasesClients(t *testing.T) {
	hub := NewHub(logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := &Client{hub: hub, send: make(chan session.Event, 1), remote: "test"}
	require.True(t, hub.RegisterClient(context.Background(), client))

	cancel()
	<-stopped

	_, open := <-client.send
	assert.False(t, open, "stopping the hub closes client queues")

	unregistered := make(chan struct{})
	go func() {
		hub.UnregisterClient(context.Background(), client)
		close(unregistered)
	}()
	select {
	case <-unregistered:
	case <-time.After(time.Second):
		t.Fatal("UnregisterClient blocked after the hub stopped")
	}

	assert.False(t, hub.RegisterClient(context.Background(), &Client{hub: hub, send: make(chan session.Event, 1)}))
}
