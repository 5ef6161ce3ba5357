// Package node defines the contract between spell graphs and the components
// that plugins contribute to them.
//
// A component is made of three parts:
//   - a Definition describing its name, category and typed sockets
//   - a builder that attaches one Port per declared socket to an Instance
//   - a Worker that turns resolved inputs into an Outputs record
//
// Workers receive a Context carrying the optional Agent for the running
// session. Missing optional capabilities are reported as ordinary output
// values; only failures of external calls are returned as errors.
package node
