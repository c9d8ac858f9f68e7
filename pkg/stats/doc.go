// Package stats computes read-only delivery rollups over the outbox for
// dashboards. Aggregation happens in memory over a bounded time window, and
// the result size is capped so dashboard queries stay cheap regardless of
// send volume.
package stats
