package logger

import (
	"context"
	"log/slog"
	"time"
)

type handler struct {
	logger *Logger
	attrs  []slog.Attr
	groups []string
}

// Handler exposes the logger as a slog.Handler. Records are filtered and
// formatted exactly like direct calls; attributes become fields.
func (l *Logger) Handler() slog.Handler {
	return &handler{logger: l}
}

// Slog returns a *slog.Logger backed by Handler.
func (l *Logger) Slog() *slog.Logger {
	return slog.New(l.Handler())
}

// FromSlog maps a slog level onto the nearest severity ordinal.
func FromSlog(level slog.Level) Level {
	switch {
	case level >= slog.LevelError:
		return LevelError
	case level >= slog.LevelWarn:
		return LevelWarn
	case level >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.Enabled(FromSlog(level))
}

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	fields := make(Fields, len(h.attrs)+r.NumAttrs())

	prefix := groupPrefix(h.groups)
	for _, a := range h.attrs {
		addAttr(fields, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(fields, prefix, a)
		return true
	})

	at := r.Time
	if at.IsZero() {
		at = h.logger.now()
	}

	return h.logger.emit(FromSlog(r.Level), at, r.Message, fields)
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	prefix := groupPrefix(h.groups)
	qualified := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	qualified = append(qualified, h.attrs...)
	for _, a := range attrs {
		a.Key = prefix + a.Key
		qualified = append(qualified, a)
	}

	return &handler{logger: h.logger, attrs: qualified, groups: h.groups}
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)

	return &handler{logger: h.logger, attrs: h.attrs, groups: groups}
}

func groupPrefix(groups []string) string {
	prefix := ""
	for _, g := range groups {
		prefix += g + "."
	}
	return prefix
}

func addAttr(fields Fields, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		nested := prefix
		if a.Key != "" {
			nested = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			addAttr(fields, nested, ga)
		}
		return
	}

	fields[prefix+a.Key] = attrValue(a.Value)
}

func attrValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	default:
		return v.Any()
	}
}
