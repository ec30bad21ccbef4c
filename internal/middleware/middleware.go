package middleware

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/angeloszaimis/sim-health/internal/metrics"
)

const (
	RequestIDHeader = "X-Request-ID"

	requestIDKey   = "request_id"
	maxRequestID   = 128
	unmatchedRoute = "unmatched"
)

// SecurityHeaders sets the given headers on every response.
func SecurityHeaders(headers map[string]string) gin.HandlerFunc {
	canonical := make(map[string]string, len(headers))
	for name, value := range headers {
		canonical[http.CanonicalHeaderKey(name)] = value
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for name, value := range canonical {
			h.Set(name, value)
		}
		c.Next()
	}
}

// RequestID propagates the inbound X-Request-ID or assigns a new UUID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestID {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the ID assigned by RequestID, if any.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// AccessLog writes one entry per completed request.
func AccessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.String("client", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
		}
		if id := GetRequestID(c); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}

		if status >= http.StatusInternalServerError {
			logger.Warn("Request failed", attrs...)
			return
		}
		logger.Info("Request completed", attrs...)
	}
}

// Metrics records every request under its route pattern.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		m.RecordRequest(route, time.Since(start), c.Writer.Status())
	}
}

// Recovery converts a panic in a later handler into a JSON 500.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error("Recovered from panic",
			slog.String("path", c.Request.URL.Path),
			slog.String("panic", fmt.Sprint(recovered)),
			slog.String("request_id", GetRequestID(c)))

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  http.StatusText(http.StatusInternalServerError),
		})
	})
}
