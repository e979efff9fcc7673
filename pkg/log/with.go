package log

// With returns a Logger that prepends fields to every message logged
// through it.
func With(l Logger, fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	if z, ok := l.(*ZerologAdapter); ok {
		return z.With(fields...)
	}
	if w, ok := l.(*withLogger); ok {
		return &withLogger{next: w.next, fields: joinFields(w.fields, fields)}
	}
	return &withLogger{next: l, fields: fields}
}

type withLogger struct {
	next   Logger
	fields []Field
}

func (w *withLogger) Debug(msg string, fields ...Field) {
	w.next.Debug(msg, joinFields(w.fields, fields)...)
}

func (w *withLogger) Info(msg string, fields ...Field) {
	w.next.Info(msg, joinFields(w.fields, fields)...)
}

func (w *withLogger) Warn(msg string, fields ...Field) {
	w.next.Warn(msg, joinFields(w.fields, fields)...)
}

func (w *withLogger) Error(msg string, fields ...Field) {
	w.next.Error(msg, joinFields(w.fields, fields)...)
}

func joinFields(a, b []Field) []Field {
	out := make([]Field, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
