// Package events provides event bus implementations.
//
// Implementations:
//   - redis: Redis Streams with one consumer group per subscription
//   - memory: In-process synchronous delivery for development and tests
package events
