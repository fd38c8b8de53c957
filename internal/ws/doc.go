// Package ws binds connecting guests to their frame adapters.
//
// Each guest process dials GET /ws/guests/:id. The handler upgrades the
// connection, looks the frame up in the registry, and binds the resulting
// transport to the frame's adapter; from then on all routing happens in
// internal/host. Unknown frame ids are rejected before upgrade. When the
// read loop ends the adapter is unbound so the guest can reconnect.
package ws
