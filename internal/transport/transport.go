package transport

import (
	"errors"
	"sync"

	"github.com/pixeljam/devwatch/internal/protocol"
)

// ErrClosed is returned by Send after a transport has been closed.
var ErrClosed = errors.New("transport: closed")

// Transport is one end of a FIFO envelope channel. SetReceiver installs the
// inbound callback; envelopes arriving before a receiver is set are buffered
// in order and replayed when one is installed.
type Transport interface {
	Send(env protocol.Envelope) error
	SetReceiver(fn func(protocol.Envelope))
	Close() error
}

// pipeEnd is one side of an in-memory transport pair.
type pipeEnd struct {
	mu       sync.Mutex
	peer     *pipeEnd
	receiver func(protocol.Envelope)
	backlog  []protocol.Envelope
	closed   bool
}

// Pipe returns two connected in-memory transports. Delivery is synchronous
// and order-preserving per direction; payload maps are copied across so a
// sender's later mutations are not observed by the receiver.
func Pipe() (Transport, Transport) {
	a := &pipeEnd{}
	b := &pipeEnd{}
	a.peer = b
	b.peer = a
	return a, b
}

func (p *pipeEnd) Send(env protocol.Envelope) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	peer := p.peer
	p.mu.Unlock()

	env.Data = env.CopyData()
	peer.deliver(env)
	return nil
}

func (p *pipeEnd) deliver(env protocol.Envelope) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if p.receiver == nil {
		p.backlog = append(p.backlog, env)
		p.mu.Unlock()
		return
	}
	fn := p.receiver
	p.mu.Unlock()

	fn(env)
}

func (p *pipeEnd) SetReceiver(fn func(protocol.Envelope)) {
	p.mu.Lock()
	p.receiver = fn
	pending := p.backlog
	p.backlog = nil
	p.mu.Unlock()

	for _, env := range pending {
		fn(env)
	}
}

func (p *pipeEnd) Close() error {
	p.mu.Lock()
	p.closed = true
	p.backlog = nil
	p.mu.Unlock()
	return nil
}
