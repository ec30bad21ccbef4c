// Package metrics keeps in-memory request statistics per route:
//   - Request counts
//   - HTTP status code distribution
//   - Latency average and percentiles (P50, P95, P99) over the last 1000 samples
//
// Middleware records each finished request with RecordRequest and the
// Handler serves a JSON snapshot. All methods are safe for concurrent use.
package metrics
