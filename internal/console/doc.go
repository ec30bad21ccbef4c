// Package console prints health probe results for humans.
//
// Each result is one colored line (OK, FAIL or SKIP) followed by the target
// and its latency or error. Summary closes the report and returns how many
// results failed, which the check command turns into its exit status.
package console
