package logger_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/sim-health/pkg/logger"
)

var _ = Describe("Handler", func() {
	var (
		buf *bytes.Buffer
		log *slog.Logger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		log = logger.New(logger.Config{Level: logger.LevelInfo}, buf).Slog()
	})

	It("should map slog levels onto ordinals", func() {
		Expect(logger.FromSlog(slog.LevelError)).To(Equal(logger.LevelError))
		Expect(logger.FromSlog(slog.LevelWarn)).To(Equal(logger.LevelWarn))
		Expect(logger.FromSlog(slog.LevelInfo)).To(Equal(logger.LevelInfo))
		Expect(logger.FromSlog(slog.LevelDebug)).To(Equal(logger.LevelDebug))
		Expect(logger.FromSlog(slog.LevelError + 4)).To(Equal(logger.LevelError))
	})

	It("should respect the configured level", func() {
		Expect(log.Enabled(context.Background(), slog.LevelInfo)).To(BeTrue())
		Expect(log.Enabled(context.Background(), slog.LevelDebug)).To(BeFalse())

		log.Debug("hidden")
		Expect(buf.Len()).To(BeZero())
	})

	It("should turn attributes into fields", func() {
		log.Info("request served",
			slog.String("path", "/health"),
			slog.Int("status", 200),
			slog.Duration("took", 1500*time.Millisecond),
			slog.Any("err", errors.New("upstream closed")))

		entry := decode(lines(buf)[0])
		Expect(entry).To(HaveKeyWithValue("message", "request served"))
		Expect(entry).To(HaveKeyWithValue("level", "info"))
		Expect(entry).To(HaveKeyWithValue("path", "/health"))
		Expect(entry).To(HaveKeyWithValue("status", BeNumerically("==", 200)))
		Expect(entry).To(HaveKeyWithValue("took", "1.5s"))
		Expect(entry).To(HaveKeyWithValue("err", "upstream closed"))
	})

	It("should carry attributes added with With", func() {
		log.With(slog.String("component", "probe")).Warn("target down")

		entry := decode(lines(buf)[0])
		Expect(entry).To(HaveKeyWithValue("component", "probe"))
		Expect(entry).To(HaveKeyWithValue("level", "warn"))
	})

	It("should flatten groups into dotted keys", func() {
		log.WithGroup("db").Info("connected", slog.String("host", "pg"))
		log.Info("nested", slog.Group("http", slog.Int("status", 503)))

		out := lines(buf)
		Expect(out).To(HaveLen(2))
		Expect(decode(out[0])).To(HaveKeyWithValue("db.host", "pg"))
		Expect(decode(out[1])).To(HaveKeyWithValue("http.status", BeNumerically("==", 503)))
	})

	It("should use the development format", func() {
		dev := logger.New(logger.NewConfig("", true), buf).Slog()
		dev.Debug("watching", slog.String("target", "http://localhost:3000/health"))

		out := lines(buf)
		Expect(out).To(HaveLen(1))
		Expect(devLine.MatchString(out[0])).To(BeTrue())
		Expect(out[0]).To(HaveSuffix("DEBUG: watching"))
	})
})
