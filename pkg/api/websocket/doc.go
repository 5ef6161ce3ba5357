// Package websocket provides real-time event streaming via WebSocket.
//
// Clients can connect to /api/v1/spells/:id/ws to receive the spell and
// node events of one execution as JSON text frames. The server closes the
// stream after the final spell event.
package websocket
