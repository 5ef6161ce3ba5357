// Package registry stores the components and tool functions contributed by
// plugins.
//
// Components are keyed by definition name and are what spell nodes refer to.
// Tools are worker actions keyed by a stable id, so a tool descriptor emitted
// by a node can be resolved back to its function without serializing code.
// Duplicate registrations are programming errors and panic.
package registry
