// Package workers implements the worker pool that executes spell nodes.
//
// The pool manages a fixed number of goroutines that:
//   - Take node jobs from a shared queue
//   - Call the component worker under the node timeout
//   - Check the returned outputs against the component definition
//   - Record node metrics
//
// The health monitor tracks worker status and logs metrics.
package workers
