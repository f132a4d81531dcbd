package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zerolog wrapper with typed fields and an optional collector
// for repeated warn/error lines.
type Logger struct {
	zl        zerolog.Logger
	collector *LogCollector
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	}

	zl := zerolog.New(out).Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(4).
		Logger()
	return &Logger{zl: zl}, nil
}

func openOutput(dst string) (io.Writer, error) {
	switch dst {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	f, err := os.OpenFile(dst, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", dst, err)
	}
	return f, nil
}

// NewWithWriter logs JSON to w at the given level. Used by tests.
func NewWithWriter(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger carrying fields on every line. The collector is shared.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		k, v := f.GetKeyValue()
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zl: ctx.Logger(), collector: l.collector}
}

// collect records a warn or error line with the caller outside this package.
func (l *Logger) collect(level, msg string, fields []Field) {
	if l.collector == nil {
		return
	}
	caller := "unknown"
	if _, file, line, ok := runtime.Caller(3); ok {
		if i := strings.LastIndex(file, "SessionEdge/"); i >= 0 {
			file = file[i+len("SessionEdge"):]
		}
		caller = fmt.Sprintf("%s:%d", file, line)
	}
	kv := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		k, v := f.GetKeyValue()
		kv[k] = v
	}
	l.collector.AddLog(level, msg, kv, caller)
}

func (l *Logger) emit(ev *zerolog.Event, level, msg string, fields []Field) {
	for _, f := range fields {
		f.AddTo(ev)
	}
	ev.Msg(msg)
	if level != "" {
		l.collect(level, msg, fields)
	}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.emit(l.zl.Debug(), "", msg, fields) }

func (l *Logger) Info(msg string, fields ...Field) { l.emit(l.zl.Info(), "", msg, fields) }

// Warn and Error lines also feed the collector when one is attached.
func (l *Logger) Warn(msg string, fields ...Field) { l.emit(l.zl.Warn(), "warn", msg, fields) }

func (l *Logger) Error(msg string, fields ...Field) { l.emit(l.zl.Error(), "error", msg, fields) }

// AddCollector attaches an aggregator for warn and error lines, replacing
// any previous one. Children created with With afterwards share it.
func (l *Logger) AddCollector(config *CollectionConfig) *LogCollector {
	if l.collector != nil {
		l.collector.Close()
	}
	l.collector = NewLogCollector(config)
	return l.collector
}

func (l *Logger) Collector() *LogCollector { return l.collector }

func (l *Logger) RemoveCollector() {
	if l.collector != nil {
		l.collector.Close()
		l.collector = nil
	}
}

// Field is one structured key/value pair.
type Field interface {
	AddTo(event *zerolog.Event)
	GetKeyValue() (string, interface{})
}

type field[T any] struct {
	key   string
	value T
	add   func(e *zerolog.Event, key string, v T) *zerolog.Event
	plain func(v T) interface{}
}

func (f field[T]) AddTo(event *zerolog.Event) { f.add(event, f.key, f.value) }

func (f field[T]) GetKeyValue() (string, interface{}) {
	if f.plain != nil {
		return f.key, f.plain(f.value)
	}
	return f.key, f.value
}

func String(key, value string) Field {
	return field[string]{key: key, value: value, add: (*zerolog.Event).Str}
}

func Int(key string, value int) Field {
	return field[int]{key: key, value: value, add: (*zerolog.Event).Int}
}

func Int64(key string, value int64) Field {
	return field[int64]{key: key, value: value, add: (*zerolog.Event).Int64}
}

func Float64(key string, value float64) Field {
	return field[float64]{key: key, value: value, add: (*zerolog.Event).Float64}
}

func Bool(key string, value bool) Field {
	return field[bool]{key: key, value: value, add: (*zerolog.Event).Bool}
}

func Any(key string, value interface{}) Field {
	return field[interface{}]{key: key, value: value, add: (*zerolog.Event).Interface}
}

// Error logs under zerolog's error key; the collector sees the message text.
func Error(err error) Field {
	return field[error]{
		key:   zerolog.ErrorFieldName,
		value: err,
		add:   func(e *zerolog.Event, _ string, v error) *zerolog.Event { return e.Err(v) },
		plain: func(v error) interface{} {
			if v == nil {
				return nil
			}
			return v.Error()
		},
	}
}

// Duration is logged in whole milliseconds.
func Duration(key string, value time.Duration) Field {
	return Int64(key, value.Milliseconds())
}

func Strings(key string, value []string) Field {
	return String(key, strings.Join(value, ", "))
}
