// Package server wires the dashboard host together: configuration, logging,
// metrics, the auth service, the frame registry with its bootstrap batch,
// the guest websocket endpoint, and the REST surface for dashboard code.
package server
