// Package guest implements the protocol core a guest application links
// against to talk to the devwatch host.
//
// Lifecycle state machine:
//
//	Uninitialized → Validating → {Ready | Blocked}
//
// An embedded guest validates its embedder exactly once at Start. Failure is
// terminal for the process lifetime: the OnBlocked hook fires with the
// lockout notice and the core neither emits nor accepts protocol traffic
// again. A guest launched standalone (no transport) skips validation and
// becomes Ready after a configurable delay, with the default theme.
//
// Outbound messages sent before readiness are held in a FIFO gate and
// flushed exactly once, in original order, the moment the guest becomes
// Ready. The readiness handshake itself and heartbeat replies bypass the
// gate.
//
// Inbound envelopes are accepted only from the host tag. Each accepted
// envelope is passed verbatim to "iframe"-namespace subscribers, then either
// interpreted against the closed reserved vocabulary or fanned out to
// "game"-namespace subscribers plus the legacy OnMessage hook.
//
// Example Usage:
//
//	tr, _ := transport.Dial(ctx, hostURL)
//	core := guest.New(guest.Options{
//	    EmbedderURL: embedder,
//	    Hostname:    hostname,
//	}, tr, logger)
//	core.Start()
//	defer core.Close()
//
//	off := core.On(dispatch.NamespaceGame, "level-complete", onLevel)
//	defer off()
package guest
