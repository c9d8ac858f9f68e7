// Package logger builds configured slog.Logger instances for mailroom
// services. Production gets JSON output for log aggregation, development
// gets text output. Context extractors let request-scoped values such as
// request IDs flow into every record without threading them by hand.
package logger
