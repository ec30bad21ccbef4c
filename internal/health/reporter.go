package health

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type Status string

const (
	StatusHealthy Status = "healthy"
	StatusError   Status = "error"
)

const (
	DefaultVersion     = "1.0.0"
	DefaultEnvironment = "development"

	// DatabaseConnected only reflects that a database URL is configured.
	DatabaseConnected = "connected"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Settings are the values reported by every request.
type Settings struct {
	Version     string
	Environment string
	DatabaseURL string
}

// Report is the success body.
type Report struct {
	Timestamp   string `json:"timestamp"`
	Status      Status `json:"status"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Database    string `json:"database,omitempty"`
}

// ErrorReport is the body sent when a report cannot be produced.
type ErrorReport struct {
	Status    Status `json:"status"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

type Reporter struct {
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
	encode   func(any) ([]byte, error)
}

type Option func(*Reporter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		r.now = now
	}
}

// WithEncoder overrides how the success body is serialized.
func WithEncoder(encode func(any) ([]byte, error)) Option {
	return func(r *Reporter) {
		r.encode = encode
	}
}

// NewReporter creates a Reporter. Empty version and environment fall back
// to DefaultVersion and DefaultEnvironment. A nil logger discards.
func NewReporter(settings Settings, logger *slog.Logger, opts ...Option) *Reporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if settings.Version == "" {
		settings.Version = DefaultVersion
	}
	if settings.Environment == "" {
		settings.Environment = DefaultEnvironment
	}

	r := &Reporter{
		settings: settings,
		logger:   logger,
		now:      time.Now,
		encode:   json.Marshal,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Report assembles the current health report.
func (r *Reporter) Report() Report {
	report := Report{
		Timestamp:   r.timestamp(),
		Status:      StatusHealthy,
		Version:     r.settings.Version,
		Environment: r.settings.Environment,
	}

	if r.settings.DatabaseURL != "" {
		report.Database = DatabaseConnected
	}

	return report
}

func (r *Reporter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, err := r.render()
	if err != nil {
		r.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (r *Reporter) render() (body []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()

	return r.encode(r.Report())
}

func (r *Reporter) fail(w http.ResponseWriter, cause error) {
	msg := cause.Error()
	if msg == "" {
		msg = http.StatusText(http.StatusInternalServerError)
	}

	r.logger.Error("Failed to build health report", slog.String("error", msg))

	body, _ := json.Marshal(ErrorReport{
		Status:    StatusError,
		Error:     msg,
		Timestamp: r.timestamp(),
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write(body)
}

func (r *Reporter) timestamp() string {
	return r.now().UTC().Format(timestampLayout)
}
