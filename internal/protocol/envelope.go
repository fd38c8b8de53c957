package protocol

import (
	"time"
)

// Tag identifies the authoring party of an envelope.
type Tag string

// The two parties of the protocol. An envelope authored by anyone else is
// dropped at the boundary.
const (
	TagGuest Tag = "pja-game"
	TagHost  Tag = "devwatch-host"
)

// Valid reports whether t is one of the two protocol tags.
func (t Tag) Valid() bool {
	return t == TagGuest || t == TagHost
}

// Counterpart returns the opposite party's tag.
func (t Tag) Counterpart() Tag {
	if t == TagGuest {
		return TagHost
	}
	return TagGuest
}

// Envelope is the normalized message unit crossing the host/guest boundary.
type Envelope struct {
	Source    Tag            `json:"source"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

// New builds an envelope stamped with the current time. A nil data map is
// normalized to an empty one so receivers never see a null payload.
func New(source Tag, msgType string, data map[string]any) Envelope {
	if data == nil {
		data = map[string]any{}
	}
	return Envelope{
		Source:    source,
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Valid reports whether the envelope carries a known tag and a type.
func (e Envelope) Valid() bool {
	return e.Source.Valid() && e.Type != ""
}

// Pong builds the heartbeat reply for a ping envelope: the ping's payload is
// carried over and stamped with a timestamp strictly greater than the ping's.
func Pong(source Tag, ping Envelope) Envelope {
	data := make(map[string]any, len(ping.Data)+1)
	for k, v := range ping.Data {
		data[k] = v
	}
	ts := time.Now().UnixMilli()
	if ts <= ping.Timestamp {
		ts = ping.Timestamp + 1
	}
	data["timestamp"] = ts
	return Envelope{
		Source:    source,
		Type:      TypePong,
		Data:      data,
		Timestamp: ts,
	}
}

// CopyData returns a shallow copy of the envelope payload. Transports hand
// copies across the boundary so neither side can mutate the other's state.
func (e Envelope) CopyData() map[string]any {
	if e.Data == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(e.Data))
	for k, v := range e.Data {
		out[k] = v
	}
	return out
}
