// Package correlate pairs one-shot requests with their responses over a
// one-way envelope transport.
//
// A correlated request transmits an envelope, listens transiently for the
// expected response type, and resolves with the first matching payload or
// with nil on timeout. Calls never fail; absence of a timely response is a
// nil result, not an error.
//
// Each request carries an explicit correlation id under
// protocol.RequestIDKey. A response matches when its type matches and it
// either echoes the same id or carries none at all. The fallback keeps
// compatibility with counterparties that do not echo ids, while echoing
// counterparties make concurrent overlapping requests safe.
package correlate

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pixeljam/devwatch/internal/dispatch"
	"github.com/pixeljam/devwatch/internal/protocol"
)

// SendFunc transmits a request envelope payload under the given type.
type SendFunc func(msgType string, data map[string]any) error

// Correlator issues correlated requests over a dispatcher's iframe namespace.
type Correlator struct {
	send       SendFunc
	dispatcher *dispatch.Dispatcher
}

// New builds a correlator. The dispatcher must be the one receiving the raw
// inbound pass-through for the party issuing requests.
func New(send SendFunc, dispatcher *dispatch.Dispatcher) *Correlator {
	return &Correlator{send: send, dispatcher: dispatcher}
}

// Issue transmits a request and blocks until the first matching response,
// the timeout, or ctx cancellation. The boolean is false when no response
// arrived in time. Responses arriving after resolution are ignored.
func (c *Correlator) Issue(ctx context.Context, reqType string, data map[string]any, respType string, timeout time.Duration) (map[string]any, bool) {
	if data == nil {
		data = map[string]any{}
	}
	requestID := uuid.New().String()
	data[protocol.RequestIDKey] = requestID

	result := make(chan map[string]any, 1)

	dispose := c.dispatcher.Subscribe(dispatch.NamespaceIframe, respType, func(payload map[string]any) {
		if id, ok := payload[protocol.RequestIDKey].(string); ok && id != requestID {
			return
		}
		// Buffered channel: only the first match lands, later duplicates
		// fall through to the default and are dropped.
		select {
		case result <- payload:
		default:
		}
	})
	defer dispose()

	if err := c.send(reqType, data); err != nil {
		return nil, false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case payload := <-result:
		return payload, true
	case <-timer.C:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}
