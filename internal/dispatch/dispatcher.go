// Package dispatch provides per-party pub/sub over namespaced event types.
//
// Each party (host side and guest side) owns its own Dispatcher with two
// namespaces: "iframe" for raw protocol pass-through and "game" for
// application-level events. Handlers are isolated: a panicking subscriber is
// recovered and logged, and never disturbs the remaining subscribers or the
// emitter.
package dispatch

import (
	"sync"

	"go.uber.org/zap"
)

// Namespace separates raw protocol subscribers from application subscribers.
type Namespace string

const (
	// NamespaceIframe receives every inbound envelope verbatim.
	NamespaceIframe Namespace = "iframe"
	// NamespaceGame receives open application-level events.
	NamespaceGame Namespace = "game"
)

// Handler consumes an event payload.
type Handler func(data map[string]any)

type subscription struct {
	id int64
	fn Handler
}

// Dispatcher routes events to subscribers keyed by (namespace, event type).
type Dispatcher struct {
	mu     sync.Mutex
	nextID int64
	subs   map[Namespace]map[string][]subscription
	logger *zap.Logger
}

// New creates a dispatcher. A nil logger is replaced with a no-op one.
func New(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		subs:   make(map[Namespace]map[string][]subscription),
		logger: logger,
	}
}

// Subscribe registers fn for the (ns, eventType) pair and returns a disposer.
// The disposer removes exactly this registration and is safe to call more
// than once; calls after the first are no-ops.
func (d *Dispatcher) Subscribe(ns Namespace, eventType string, fn Handler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID

	byType, ok := d.subs[ns]
	if !ok {
		byType = make(map[string][]subscription)
		d.subs[ns] = byType
	}
	byType[eventType] = append(byType[eventType], subscription{id: id, fn: fn})

	return func() {
		d.unsubscribe(ns, eventType, id)
	}
}

func (d *Dispatcher) unsubscribe(ns Namespace, eventType string, id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	byType, ok := d.subs[ns]
	if !ok {
		return
	}
	list := byType[eventType]
	for i, sub := range list {
		if sub.id == id {
			byType[eventType] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Emit invokes every currently-subscribed handler for (ns, eventType) in
// insertion order. The subscriber set is snapshotted first, so handlers that
// subscribe or unsubscribe during dispatch take effect on future emits only.
func (d *Dispatcher) Emit(ns Namespace, eventType string, data map[string]any) {
	d.mu.Lock()
	var snapshot []subscription
	if byType, ok := d.subs[ns]; ok {
		snapshot = append(snapshot, byType[eventType]...)
	}
	d.mu.Unlock()

	for _, sub := range snapshot {
		d.invoke(ns, eventType, sub, data)
	}
}

func (d *Dispatcher) invoke(ns Namespace, eventType string, sub subscription, data map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked",
				zap.String("namespace", string(ns)),
				zap.String("event", eventType),
				zap.Any("panic", r),
			)
		}
	}()
	sub.fn(data)
}

// Count returns the number of subscribers for a pair. Used by tests and
// diagnostics endpoints.
func (d *Dispatcher) Count(ns Namespace, eventType string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if byType, ok := d.subs[ns]; ok {
		return len(byType[eventType])
	}
	return 0
}
