// Package orchestrator implements spell validation, compilation and execution.
//
// The orchestrator manager coordinates spell execution by:
//   - Validating spell structure against the component registry
//   - Compiling nodes into linked instances
//   - Dispatching ready nodes to the worker pool
//   - Publishing events to the event bus
//   - Tracking execution state via state storage
//
// The validator ensures spells are well-formed with no cycles and compatible sockets.
package orchestrator
