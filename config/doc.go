// Package config loads service settings from defaults, an optional YAML file
// and environment variables. It covers the HTTP listener, runtime environment,
// log level, reported version, database URL, response headers and the
// targets used by the health probe.
package config
