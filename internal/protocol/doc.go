// Package protocol defines the wire format exchanged between the devwatch
// host and its embedded guests.
//
// Every message crossing the host/guest boundary is normalized into an
// Envelope carrying a sender tag, a type string, a data payload, and an
// epoch-millisecond timestamp. The type vocabulary splits in two:
//
// Reserved types (fixed protocol effects):
//   - devwatch-set-theme: apply a theme on the guest
//   - pja-ping / pja-pong: liveness heartbeat
//   - pja-show-infopanel, pja-hide-infopanel, pja-set-credits: info panel control
//   - pja-auth-response: auth correlation reply
//   - devwatch-iframe-ready: guest readiness handshake
//   - devwatch-title-update, pja-get-theme, pja-auth-check, pja-game-log,
//     pja-game-unload, pja-asset-info: guest-originated control traffic
//
// Open types: any other type string, routed to application-level subscribers
// on the receiving side.
//
// Example Usage:
//
//	env := protocol.New(protocol.TagGuest, "score-update", map[string]any{"score": 12})
//	if kind, ok := protocol.ReservedFromType(env.Type); ok {
//	    // fixed protocol effect
//	}
package protocol
