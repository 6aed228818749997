// Package logger is the JSON access logger of the HTTP interface.
//
// Each line is a flat JSON object: time, level, msg, optional caller, then
// the fields. Handlers attach curriculum identifiers to the request with
// Annotate, and the access log line picks them up at the end of the request.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a LOG_LEVEL value to a Level. Unknown values mean info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is one key/value of a log line.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field  { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Err records err under "error". A nil error is recorded as null.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Curriculum identifiers.
func StudentID(id string) Field     { return String("student_id", id) }
func CourseID(id string) Field      { return String("course_id", id) }
func CareerID(id string) Field      { return String("career_id", id) }
func Term(term int) Field           { return Int("term", term) }
func RunID(id string) Field         { return String("run_id", id) }
func Component(name string) Field   { return String("component", name) }
func Latency(d time.Duration) Field { return Field{Key: "latency_ms", Value: d.Milliseconds()} }

// reserved keys are written by the logger itself and never overwritten by fields.
var reserved = map[string]struct{}{"time": {}, "level": {}, "msg": {}, "caller": {}}

// Logger writes JSON lines to one output. Loggers derived with With share the output lock.
type Logger struct {
	mu         *sync.Mutex
	output     io.Writer
	level      Level
	fields     []Field
	addCaller  bool
	callerSkip int
}

// Options configures the logger.
type Options struct {
	Output     io.Writer
	Level      Level
	AddCaller  bool
	CallerSkip int
}

// New creates a Logger. A nil Output writes to stdout.
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Logger{
		mu:         &sync.Mutex{},
		output:     opts.Output,
		level:      opts.Level,
		addCaller:  opts.AddCaller,
		callerSkip: opts.CallerSkip,
	}
}

// Default logs info and above to stdout.
func Default() *Logger {
	return New(Options{Level: LevelInfo})
}

// With returns a Logger that adds fields to every line.
func (l *Logger) With(fields ...Field) *Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)

	child := *l
	child.fields = merged
	return &child
}

// RequestIDKey is the field key of the request id.
const RequestIDKey = "request_id"

// WithRequestID returns a logger tagged with a request id.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.With(String(RequestIDKey, requestID))
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

func (l *Logger) log(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}

	line := make(map[string]any, 4+len(l.fields)+len(fields))
	for _, f := range l.fields {
		line[f.Key] = f.Value
	}
	for _, f := range fields {
		line[f.Key] = f.Value
	}
	for key := range reserved {
		delete(line, key)
	}

	line["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	line["level"] = level.String()
	line["msg"] = msg
	if l.addCaller {
		if _, file, no, ok := runtime.Caller(2 + l.callerSkip); ok {
			if idx := strings.LastIndex(file, "/"); idx >= 0 {
				file = file[idx+1:]
			}
			line["caller"] = fmt.Sprintf("%s:%d", file, no)
		}
	}

	data, err := json.Marshal(line)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		fmt.Fprintf(l.output, "%s [%s] %s (unencodable fields: %v)\n", line["time"], line["level"], msg, err)
		return
	}
	l.output.Write(append(data, '\n'))
}

// ─────────────────────────────────────────────────────────────────────────────
// Context
// ─────────────────────────────────────────────────────────────────────────────

type ctxKey struct{}

// WithContext returns a new context with the logger attached.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from context, or returns a default logger.
// Annotations attached to ctx are included.
func FromContext(ctx context.Context) *Logger {
	l, ok := ctx.Value(ctxKey{}).(*Logger)
	if !ok {
		l = Default()
	}
	if extra := Annotations(ctx); len(extra) > 0 {
		return l.With(extra...)
	}
	return l
}

// annotations are fields collected while a request is handled.
type annotations struct {
	mu     sync.Mutex
	fields []Field
}

type annotationsKey struct{}

// WithAnnotations prepares ctx to collect fields through Annotate.
func WithAnnotations(ctx context.Context) context.Context {
	return context.WithValue(ctx, annotationsKey{}, &annotations{})
}

// Annotate records fields on the request. It is a no-op on a context
// without WithAnnotations. A repeated key replaces the earlier value.
func Annotate(ctx context.Context, fields ...Field) {
	a, ok := ctx.Value(annotationsKey{}).(*annotations)
	if !ok {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

next:
	for _, f := range fields {
		for i := range a.fields {
			if a.fields[i].Key == f.Key {
				a.fields[i] = f
				continue next
			}
		}
		a.fields = append(a.fields, f)
	}
}

// Annotations returns a copy of the fields recorded on ctx.
func Annotations(ctx context.Context) []Field {
	a, ok := ctx.Value(annotationsKey{}).(*annotations)
	if !ok {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Field(nil), a.fields...)
}
