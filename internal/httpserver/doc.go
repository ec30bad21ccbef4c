// Package httpserver wraps net/http.Server with listen-address validation,
// fixed timeouts and graceful shutdown.
package httpserver
