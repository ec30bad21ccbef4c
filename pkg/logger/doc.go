// Package logger provides a leveled logger with two output modes: a plain
// "[timestamp] LEVEL: message" line in development and a single-line JSON
// object otherwise. The same formatter is available as a log/slog handler
// for application-wide logging.
package logger
