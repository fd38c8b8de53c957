package correlate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixeljam/devwatch/internal/dispatch"
	"github.com/pixeljam/devwatch/internal/protocol"
)

// fakeWire records requests and lets the test author responses by emitting
// on the dispatcher's iframe namespace, the way a transport would.
type fakeWire struct {
	mu       sync.Mutex
	requests []map[string]any
}

func (w *fakeWire) send(msgType string, data map[string]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests = append(w.requests, data)
	return nil
}

func (w *fakeWire) lastRequestID(t *testing.T) string {
	t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	require.NotEmpty(t, w.requests)
	id, ok := w.requests[len(w.requests)-1][protocol.RequestIDKey].(string)
	require.True(t, ok)
	return id
}

func TestIssueResolvesWithFirstMatch(t *testing.T) {
	d := dispatch.New(nil)
	wire := &fakeWire{}
	c := New(wire.send, d)

	done := make(chan map[string]any, 1)
	go func() {
		payload, ok := c.Issue(context.Background(), "pja-auth-check", nil, "pja-auth-response", time.Second)
		require.True(t, ok)
		done <- payload
	}()

	require.Eventually(t, func() bool {
		wire.mu.Lock()
		defer wire.mu.Unlock()
		return len(wire.requests) == 1
	}, time.Second, time.Millisecond)

	d.Emit(dispatch.NamespaceIframe, "pja-auth-response", map[string]any{
		protocol.RequestIDKey: wire.lastRequestID(t),
		"user":                map[string]any{"username": "dev"},
	})

	payload := <-done
	assert.Equal(t, map[string]any{"username": "dev"}, payload["user"])
}

func TestIssueTimesOutWithNil(t *testing.T) {
	d := dispatch.New(nil)
	wire := &fakeWire{}
	c := New(wire.send, d)

	start := time.Now()
	payload, ok := c.Issue(context.Background(), "pja-auth-check", nil, "pja-auth-response", 30*time.Millisecond)
	assert.False(t, ok)
	assert.Nil(t, payload)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestLateDuplicateIsIgnored(t *testing.T) {
	d := dispatch.New(nil)
	wire := &fakeWire{}
	c := New(wire.send, d)

	done := make(chan map[string]any, 1)
	go func() {
		payload, _ := c.Issue(context.Background(), "req", nil, "resp", time.Second)
		done <- payload
	}()

	require.Eventually(t, func() bool {
		wire.mu.Lock()
		defer wire.mu.Unlock()
		return len(wire.requests) == 1
	}, time.Second, time.Millisecond)
	id := wire.lastRequestID(t)

	d.Emit(dispatch.NamespaceIframe, "resp", map[string]any{protocol.RequestIDKey: id, "n": 1})
	payload := <-done
	assert.Equal(t, 1, payload["n"])

	// The listener is gone; a later duplicate reaches nobody and must not
	// panic or re-resolve anything.
	require.NotPanics(t, func() {
		d.Emit(dispatch.NamespaceIframe, "resp", map[string]any{protocol.RequestIDKey: id, "n": 2})
	})
	assert.Equal(t, 0, d.Count(dispatch.NamespaceIframe, "resp"))
}

func TestConcurrentIssuesAreIsolatedByRequestID(t *testing.T) {
	d := dispatch.New(nil)
	wire := &fakeWire{}
	c := New(wire.send, d)

	results := make(chan map[string]any, 2)
	for i := 0; i < 2; i++ {
		go func() {
			payload, ok := c.Issue(context.Background(), "req", nil, "resp", time.Second)
			require.True(t, ok)
			results <- payload
		}()
	}

	require.Eventually(t, func() bool {
		wire.mu.Lock()
		defer wire.mu.Unlock()
		return len(wire.requests) == 2
	}, time.Second, time.Millisecond)

	wire.mu.Lock()
	ids := []string{
		wire.requests[0][protocol.RequestIDKey].(string),
		wire.requests[1][protocol.RequestIDKey].(string),
	}
	wire.mu.Unlock()
	require.NotEqual(t, ids[0], ids[1])

	d.Emit(dispatch.NamespaceIframe, "resp", map[string]any{protocol.RequestIDKey: ids[0], "for": ids[0]})
	d.Emit(dispatch.NamespaceIframe, "resp", map[string]any{protocol.RequestIDKey: ids[1], "for": ids[1]})

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		payload := <-results
		seen[payload["for"].(string)] = true
	}
	assert.True(t, seen[ids[0]])
	assert.True(t, seen[ids[1]])
}

func TestResponseWithoutIDStillMatches(t *testing.T) {
	d := dispatch.New(nil)
	wire := &fakeWire{}
	c := New(wire.send, d)

	done := make(chan bool, 1)
	go func() {
		_, ok := c.Issue(context.Background(), "req", nil, "resp", time.Second)
		done <- ok
	}()

	require.Eventually(t, func() bool {
		wire.mu.Lock()
		defer wire.mu.Unlock()
		return len(wire.requests) == 1
	}, time.Second, time.Millisecond)

	// Counterparties that do not echo ids are still accepted.
	d.Emit(dispatch.NamespaceIframe, "resp", map[string]any{"n": 1})
	assert.True(t, <-done)
}

func TestContextCancellationResolvesNil(t *testing.T) {
	d := dispatch.New(nil)
	wire := &fakeWire{}
	c := New(wire.send, d)

	ctx, cancel := context.WithCancel(context.Background())
	go cancel()
	payload, ok := c.Issue(ctx, "req", nil, "resp", time.Second)
	assert.False(t, ok)
	assert.Nil(t, payload)
}
