// Package gateway adapts the external transactional-email provider behind a
// narrow interface. Adapters are thin wrappers: they translate requests and
// errors and never retry — retry policy belongs to the outbox.
//
// Adapters are constructed from an immutable config and hold no shared
// mutable client state, so a gateway value is safe to use from concurrent
// drain workers.
package gateway
