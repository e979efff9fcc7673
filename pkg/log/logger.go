package log

import "time"

// Logger is the structured logger every cwship layer writes to.
// The zerolog adapter backs it in the CLI; libraries default to NoopLogger.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one key-value pair attached to a log event.
type Field struct {
	Key   string
	Value any
}

// Keys shared by events that concern a stream or a group.
const (
	StreamKey   = "stream"
	LogGroupKey = "log_group"
	ErrorKey    = "error"
)

func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field     { return Field{Key: key, Value: value} }
func Uint64(key string, value uint64) Field   { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }
func Any(key string, value any) Field         { return Field{Key: key, Value: value} }

// Duration creates a duration field; the zerolog adapter renders it in
// milliseconds.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field under ErrorKey.
func Err(err error) Field {
	return Field{Key: ErrorKey, Value: err}
}

// Stream names the stream an event concerns.
func Stream(name string) Field {
	return String(StreamKey, name)
}

// LogGroup names the log group an event concerns.
func LogGroup(name string) Field {
	return String(LogGroupKey, name)
}
