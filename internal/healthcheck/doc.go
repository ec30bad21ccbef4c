// Package healthcheck probes /health endpoints and the database from the
// outside. It backs the check command: a single pass reports every target,
// and Watch keeps probing on an interval and logs when a target goes down
// or comes back. WithBackoff stops Watch from hammering a target that keeps
// failing.
package healthcheck
