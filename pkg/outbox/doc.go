// Package outbox implements the durable send queue. Messages are persisted
// as pending before any provider call, drained by a background worker that
// claims them atomically, and retried with exponential backoff on provider
// failure. The outbox table is the source of truth for send history; the
// provider is only the transport.
package outbox
