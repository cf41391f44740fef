// Package api implements the HTTP REST API and WebSocket server for the
// retimer core.
//
// This package provides:
//   - REST endpoints for registering, inspecting, and releasing retimer handles
//   - A plain-text label attribute endpoint mirroring the attribute read format
//   - WebSocket hub for real-time lifecycle broadcasts
//   - Middleware stack (request ID, logging, recovery, body size limit)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server sits between operators and the in-memory registry. Handle
// mutations flow through the registry, which fans lifecycle events out to
// the audit trail, the MQTT announcer, and the WebSocket hub.
//
// # Graceful Degradation
//
// The server operates without the audit repository — the audit endpoint
// returns empty results and everything else works. This enables testing
// and partial operation.
package api
