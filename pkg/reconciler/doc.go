// Package reconciler folds provider webhook events into the local send
// history. The event log is append-only and deduplicated by the natural key
// (providerMessageID, eventType, occurredAt), so at-least-once webhook
// delivery and out-of-order arrival both converge to the same final state.
package reconciler
