// Package main is the entry point for the devwatch dashboard host.
//
// The host embeds semi-trusted guest mini-applications, tracks one frame per
// guest, and routes protocol envelopes between guests and dashboard code.
//
// Architecture:
//
//	Dashboard UI → devwatch host → guest processes (websocket, one per frame)
//
// The server provides:
//   - REST API for frame management and dashboard auth
//   - WebSocket endpoint guests connect to
//   - Frame bootstrap from a yaml manifest, tolerant of partial failure
//   - Heartbeat liveness sweeps across connected guests
//
// Configuration:
//   - Environment variables (DEVWATCH_ prefix)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Production mode
//	./hostd -port 8600 -frames frames.yaml
//
//	# Development mode (colored logs, debug level)
//	./hostd -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
