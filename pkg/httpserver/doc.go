// Package httpserver wraps net/http with graceful shutdown, signal handling
// and option-based configuration for the mailroom API.
package httpserver
