package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/pixeljam/devwatch/internal/protocol"
)

// WS adapts a websocket connection to the Transport interface. Writes are
// serialized behind a mutex because gorilla connections allow only one
// concurrent writer.
type WS struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu       sync.Mutex
	receiver func(protocol.Envelope)
	backlog  []protocol.Envelope
	closed   bool
	done     chan struct{}
}

// Dial connects to a host websocket endpoint and starts the read loop.
func Dial(ctx context.Context, url string) (*WS, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}
	return FromConn(conn), nil
}

// FromConn wraps an already-upgraded connection (host side).
func FromConn(conn *websocket.Conn) *WS {
	w := &WS{
		conn: conn,
		done: make(chan struct{}),
	}
	go w.readLoop()
	return w
}

func (w *WS) readLoop() {
	defer close(w.done)
	for {
		var env protocol.Envelope
		if err := w.conn.ReadJSON(&env); err != nil {
			w.Close()
			return
		}
		if !env.Valid() {
			continue
		}
		w.deliver(env)
	}
}

func (w *WS) deliver(env protocol.Envelope) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	if w.receiver == nil {
		w.backlog = append(w.backlog, env)
		w.mu.Unlock()
		return
	}
	fn := w.receiver
	w.mu.Unlock()

	fn(env)
}

func (w *WS) Send(env protocol.Envelope) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrClosed
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.conn.WriteJSON(env)
}

func (w *WS) SetReceiver(fn func(protocol.Envelope)) {
	w.mu.Lock()
	w.receiver = fn
	pending := w.backlog
	w.backlog = nil
	w.mu.Unlock()

	for _, env := range pending {
		fn(env)
	}
}

func (w *WS) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.backlog = nil
	w.mu.Unlock()
	return w.conn.Close()
}

// Done is closed when the read loop exits, signalling peer disconnect.
func (w *WS) Done() <-chan struct{} {
	return w.done
}
