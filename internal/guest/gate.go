package guest

import "sync"

// queued is one message held back by the readiness gate.
type queued struct {
	msgType string
	data    map[string]any
}

// gate buffers outbound messages in FIFO order until the guest is ready.
type gate struct {
	mu    sync.Mutex
	queue []queued
}

func (g *gate) enqueue(msgType string, data map[string]any) {
	g.mu.Lock()
	g.queue = append(g.queue, queued{msgType: msgType, data: data})
	g.mu.Unlock()
}

// drain returns the queued messages in order and empties the gate. Each
// message is handed out exactly once.
func (g *gate) drain() []queued {
	g.mu.Lock()
	pending := g.queue
	g.queue = nil
	g.mu.Unlock()
	return pending
}

func (g *gate) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}
