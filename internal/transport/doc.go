// Package transport moves envelopes between a host and a guest.
//
// A Transport is one end of a point-to-point, FIFO channel. Payloads are
// copied on send: the two sides share no memory, only envelope contents.
//
// Two implementations:
//   - Pipe: synchronous in-memory pair, used by tests and same-process embedding
//   - WS: gorilla/websocket endpoint, used between host and guest processes
package transport
