// Package monitoring provides Prometheus metrics for the dashboard host.
//
// Metrics cover the HTTP surface, frame lifecycle, envelope traffic by
// direction and kind, heartbeat round trips, and websocket connections. A nil *Metrics is safe everywhere: recording
// methods no-op, so protocol components take metrics optionally.
package monitoring
