package health_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/sim-health/internal/health"
	"github.com/angeloszaimis/sim-health/pkg/logger"
)

func serve(h http.Handler) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var body map[string]any
	Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
	return w, body
}

var _ = Describe("Reporter", func() {
	var (
		logBuf *bytes.Buffer
		log    *slog.Logger
		fixed  time.Time
		clock  func() time.Time
	)

	BeforeEach(func() {
		logBuf = &bytes.Buffer{}
		log = logger.New(logger.Config{Level: logger.LevelDebug}, logBuf).Slog()
		fixed = time.Date(2026, 10, 19, 8, 30, 0, 123_000_000, time.UTC)
		clock = func() time.Time { return fixed }
	})

	Describe("NewReporter", func() {
		It("should apply defaults for empty settings", func() {
			report := health.NewReporter(health.Settings{}, log).Report()
			Expect(report.Version).To(Equal("1.0.0"))
			Expect(report.Environment).To(Equal("development"))
			Expect(report.Database).To(BeEmpty())
		})
	})

	Describe("Report", func() {
		It("should report healthy with the configured values", func() {
			r := health.NewReporter(health.Settings{Version: "2.0.1", Environment: "production"}, log, health.WithClock(clock))

			Expect(r.Report()).To(Equal(health.Report{
				Timestamp:   "2026-10-19T08:30:00.123Z",
				Status:      health.StatusHealthy,
				Version:     "2.0.1",
				Environment: "production",
			}))
		})

		It("should mark the database connected when a URL is set", func() {
			r := health.NewReporter(health.Settings{DatabaseURL: "postgres://nowhere.invalid:5432/sim"}, log)
			Expect(r.Report().Database).To(Equal(health.DatabaseConnected))
		})
	})

	Describe("ServeHTTP", func() {
		Context("without a database URL", func() {
			It("should return 200 without a database key", func() {
				w, body := serve(health.NewReporter(health.Settings{}, log))

				Expect(w.Code).To(Equal(http.StatusOK))
				Expect(body).To(HaveKeyWithValue("status", "healthy"))
				Expect(body).To(HaveKeyWithValue("version", "1.0.0"))
				Expect(body).To(HaveKeyWithValue("environment", "development"))
				Expect(body).To(HaveKey("timestamp"))
				Expect(body).NotTo(HaveKey("database"))
			})

			It("should set the content and cache headers", func() {
				w, _ := serve(health.NewReporter(health.Settings{}, log))

				Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))
				Expect(w.Header().Get("Cache-Control")).To(Equal("no-cache, no-store, must-revalidate"))
			})
		})

		Context("with a database URL", func() {
			It("should report connected without contacting the database", func() {
				r := health.NewReporter(health.Settings{DatabaseURL: "postgres://user@127.0.0.1:1/none"}, log)
				w, body := serve(r)

				Expect(w.Code).To(Equal(http.StatusOK))
				Expect(body).To(HaveKeyWithValue("database", "connected"))
			})
		})

		Context("when the report cannot be encoded", func() {
			It("should return 500 with the error", func() {
				r := health.NewReporter(health.Settings{}, log,
					health.WithClock(clock),
					health.WithEncoder(func(any) ([]byte, error) {
						return nil, errors.New("encoder unavailable")
					}))

				w, body := serve(r)

				Expect(w.Code).To(Equal(http.StatusInternalServerError))
				Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))
				Expect(w.Header().Get("Cache-Control")).To(BeEmpty())
				Expect(body).To(Equal(map[string]any{
					"status":    "error",
					"error":     "encoder unavailable",
					"timestamp": "2026-10-19T08:30:00.123Z",
				}))
			})

			It("should log the failure", func() {
				r := health.NewReporter(health.Settings{}, log,
					health.WithEncoder(func(any) ([]byte, error) {
						return nil, errors.New("encoder unavailable")
					}))

				serve(r)

				Expect(logBuf.String()).To(ContainSubstring(`"level":"error"`))
				Expect(logBuf.String()).To(ContainSubstring("encoder unavailable"))
			})

			It("should turn a panic into a 500", func() {
				r := health.NewReporter(health.Settings{}, log,
					health.WithEncoder(func(any) ([]byte, error) {
						panic("serializer exploded")
					}))

				w, body := serve(r)

				Expect(w.Code).To(Equal(http.StatusInternalServerError))
				Expect(body).To(HaveKeyWithValue("status", "error"))
				Expect(body).To(HaveKeyWithValue("error", "serializer exploded"))
			})

			It("should answer 500 without a logger", func() {
				r := health.NewReporter(health.Settings{}, nil,
					health.WithEncoder(func(any) ([]byte, error) {
						return nil, errors.New("encoder unavailable")
					}))

				var w *httptest.ResponseRecorder
				var body map[string]any
				Expect(func() { w, body = serve(r) }).NotTo(Panic())
				Expect(w.Code).To(Equal(http.StatusInternalServerError))
				Expect(body).To(HaveKeyWithValue("error", "encoder unavailable"))
			})

			It("should never send an empty error message", func() {
				r := health.NewReporter(health.Settings{}, log,
					health.WithEncoder(func(any) ([]byte, error) {
						return nil, errors.New("")
					}))

				_, body := serve(r)
				Expect(body["error"]).NotTo(BeEmpty())
			})
		})

		It("should produce identical bodies apart from the timestamp", func() {
			r := health.NewReporter(health.Settings{Version: "3.1.0", DatabaseURL: "postgres://db/sim"}, log)

			_, first := serve(r)
			time.Sleep(5 * time.Millisecond)
			_, second := serve(r)

			delete(first, "timestamp")
			delete(second, "timestamp")
			Expect(first).To(Equal(second))
		})

		It("should emit an ISO-8601 UTC timestamp", func() {
			_, body := serve(health.NewReporter(health.Settings{}, log))

			ts, err := time.Parse(time.RFC3339Nano, body["timestamp"].(string))
			Expect(err).NotTo(HaveOccurred())
			Expect(ts.Location()).To(Equal(time.UTC))
		})
	})
})
