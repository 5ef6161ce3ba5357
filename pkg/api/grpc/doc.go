// Package grpc provides the gRPC server. It exposes the standard health
// service, reporting the orchestrator under ServiceName, and server
// reflection.
package grpc
