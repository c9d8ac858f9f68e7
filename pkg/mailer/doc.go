// Package mailer defines the domain model shared by the outbox, the event
// reconciler and the HTTP API: outgoing messages with their lifecycle state
// machine, the append-only delivery event log, and sending domains.
//
// Status and event types are closed string enums so the state machine stays
// exhaustively checkable in one place instead of being scattered across
// modules as loose strings.
package mailer
