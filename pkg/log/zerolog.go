package log

import (
	"time"

	"github.com/rs/zerolog"
)

// ZerologAdapter sends Logger calls to a zerolog.Logger.
type ZerologAdapter struct {
	zl zerolog.Logger
}

// FromZerolog wraps zl. Level filtering and output format are zl's.
func FromZerolog(zl zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{zl: zl}
}

func (z *ZerologAdapter) Debug(msg string, fields ...Field) { send(z.zl.Debug(), msg, fields) }
func (z *ZerologAdapter) Info(msg string, fields ...Field)  { send(z.zl.Info(), msg, fields) }
func (z *ZerologAdapter) Warn(msg string, fields ...Field)  { send(z.zl.Warn(), msg, fields) }
func (z *ZerologAdapter) Error(msg string, fields ...Field) { send(z.zl.Error(), msg, fields) }

// With returns a child adapter whose zerolog context carries fields.
func (z *ZerologAdapter) With(fields ...Field) *ZerologAdapter {
	c := z.zl.With()
	for _, f := range fields {
		c = c.Interface(f.Key, f.Value)
	}
	return &ZerologAdapter{zl: c.Logger()}
}

// send is a no-op when e is nil, which zerolog returns for disabled levels.
func send(e *zerolog.Event, msg string, fields []Field) {
	if e == nil {
		return
	}
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			e.Str(f.Key, v)
		case int:
			e.Int(f.Key, v)
		case int64:
			e.Int64(f.Key, v)
		case uint64:
			e.Uint64(f.Key, v)
		case float64:
			e.Float64(f.Key, v)
		case bool:
			e.Bool(f.Key, v)
		case time.Duration:
			e.Dur(f.Key, v)
		case error:
			e.AnErr(f.Key, v)
		default:
			e.Interface(f.Key, v)
		}
	}
	e.Msg(msg)
}
