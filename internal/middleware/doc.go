// Package middleware provides the gin middleware shared by every route:
// response security headers, request IDs, access logging, request metrics
// and panic recovery.
package middleware
