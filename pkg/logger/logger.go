package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level is the severity ordinal of an entry. Lower values are more severe.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel maps a level name to its ordinal.
func ParseLevel(name string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return LevelError, true
	case "warn":
		return LevelWarn, true
	case "info":
		return LevelInfo, true
	case "debug":
		return LevelDebug, true
	default:
		return LevelInfo, false
	}
}

// Fields holds the supplementary fields of an entry.
type Fields map[string]any

// Config is fixed when the logger is created.
type Config struct {
	Level       Level
	Development bool
}

// NewConfig selects the minimum level from a level name. An empty name
// yields debug in development and info otherwise; an unknown name yields info.
func NewConfig(levelName string, development bool) Config {
	cfg := Config{Level: LevelInfo, Development: development}

	if strings.TrimSpace(levelName) == "" {
		if development {
			cfg.Level = LevelDebug
		}
		return cfg
	}

	if lvl, ok := ParseLevel(levelName); ok {
		cfg.Level = lvl
	}

	return cfg
}

// Logger writes level-filtered entries, one line each.
type Logger struct {
	cfg   Config
	out   io.Writer
	mutex sync.Mutex
	now   func() time.Time
}

// New creates a Logger writing to w, or to standard output when w is nil.
func New(cfg Config, w io.Writer) *Logger {
	if w == nil {
		w = os.Stdout
	}

	return &Logger{
		cfg: cfg,
		out: w,
		now: time.Now,
	}
}

// Config returns the settings the logger was created with.
func (l *Logger) Config() Config {
	return l.cfg
}

// Enabled reports whether entries at level are emitted.
func (l *Logger) Enabled(level Level) bool {
	return level <= l.cfg.Level
}

func (l *Logger) Error(msg string, fields ...Fields) error {
	return l.Log(LevelError, msg, merge(fields))
}

func (l *Logger) Warn(msg string, fields ...Fields) error {
	return l.Log(LevelWarn, msg, merge(fields))
}

func (l *Logger) Info(msg string, fields ...Fields) error {
	return l.Log(LevelInfo, msg, merge(fields))
}

func (l *Logger) Debug(msg string, fields ...Fields) error {
	return l.Log(LevelDebug, msg, merge(fields))
}

// Log emits msg at level. Filtered entries return nil without writing.
// An error is returned when a field cannot be encoded; nothing is written then.
func (l *Logger) Log(level Level, msg string, fields Fields) error {
	if !l.Enabled(level) {
		return nil
	}

	return l.emit(level, l.now(), msg, fields)
}

func (l *Logger) emit(level Level, at time.Time, msg string, fields Fields) error {
	line, err := l.format(level, at, msg, fields)
	if err != nil {
		return err
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	_, err = l.out.Write(line)
	return err
}

func (l *Logger) format(level Level, at time.Time, msg string, fields Fields) ([]byte, error) {
	timestamp := at.UTC().Format(timestampLayout)

	// Fields are accepted but not rendered in development output.
	if l.cfg.Development {
		return []byte(fmt.Sprintf("[%s] %s: %s\n", timestamp, strings.ToUpper(level.String()), msg)), nil
	}

	return encodeEntry(timestamp, level, msg, fields)
}

var reservedKeys = []string{"timestamp", "level", "message"}

func encodeEntry(timestamp string, level Level, msg string, fields Fields) ([]byte, error) {
	values := map[string]any{
		"timestamp": timestamp,
		"level":     level.String(),
		"message":   msg,
	}

	extra := make([]string, 0, len(fields))
	for key, value := range fields {
		if _, reserved := values[key]; reserved {
			values[key] = value
			continue
		}
		extra = append(extra, key)
	}
	sort.Strings(extra)

	var buf bytes.Buffer
	buf.WriteByte('{')

	write := func(i int, key string, value any) error {
		encoded, err := marshal(value)
		if err != nil {
			return fmt.Errorf("encode log field %q: %w", key, err)
		}

		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := marshal(key)
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(encoded)
		return nil
	}

	for i, key := range reservedKeys {
		if err := write(i, key, values[key]); err != nil {
			return nil, err
		}
	}

	for i, key := range extra {
		if err := write(len(reservedKeys)+i, key, fields[key]); err != nil {
			return nil, err
		}
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func marshal(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func merge(fields []Fields) Fields {
	switch len(fields) {
	case 0:
		return nil
	case 1:
		return fields[0]
	}

	merged := make(Fields)
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}
	return merged
}
