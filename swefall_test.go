package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionLimiter(t *testing.T) {
	base := time.Now()

	l := actionLimiter{interval: 100 * time.Millisecond}
	assert.True(t, l.allow(base))
	assert.False(t, l.allow(base.Add(50*time.Millisecond)))

	// Denied actions do not push the window forward.
	assert.True(t, l.allow(base.Add(150*time.Millisecond)))

	unlimited := actionLimiter{}
	for i := 0; i < 5; i++ {
		assert.True(t, unlimited.allow(base))
	}
}

// A client whose send buffer backs up is evicted, and the handler's
// follow-up sends to it (the ack after a broadcast) must be no-ops
// rather than writes to a closed channel.
func TestSlowClientIsDroppedWithoutPanic(t *testing.T) {
	reg := testRegistry()
	hub := newHub("KITTEN", reg)

	c := &Client{
		send:   make(chan any, 1),
		connID: "conn-1",
	}

	hub.mu.Lock()
	hub.clients[c] = true
	_, err := hub.room.join("conn-1", "ALICE")
	hub.mu.Unlock()
	require.NoError(t, err)

	// Fill the buffer so the next broadcast evicts the client.
	c.send <- RoundStartedMessage{Type: "round-started"}

	require.NotPanics(t, func() {
		hub.handle(inbound{
			client: c,
			msg:    ClientMessage{Type: "make-guess", AccusedName: "BOB"},
		})
	})

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	_, ok := hub.clients[c]
	assert.False(t, ok)
}

func TestGameErrorKeys(t *testing.T) {
	key, msg := gameError(errNameTaken)
	assert.Equal(t, "nameTaken", key)
	assert.NotEmpty(t, msg)

	key, msg = gameError(errors.New("disk on fire"))
	assert.Equal(t, "serverError", key)
	assert.NotContains(t, msg, "disk")
}
