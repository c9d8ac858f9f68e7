// Package pg wires mailroom to PostgreSQL: pgxpool connection with retry,
// goose migrations, error classification helpers, and a healthcheck closure
// for the HTTP health endpoint. Postgres is the single source of truth for
// the outbox, the delivery event log, and sending domains.
package pg
