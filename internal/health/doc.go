// Package health implements the GET /health endpoint. Each request builds a
// fresh report from settings fixed at startup; there is no state shared
// between requests.
package health
