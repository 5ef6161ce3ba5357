// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Spell submission and management
//   - Status and result queries
//   - The component and tool catalog
//   - Health checks
//   - Prometheus metrics
package http
