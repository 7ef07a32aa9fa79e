package log

// With returns a Logger that adds fields to every record it writes,
// ahead of the fields passed at the call site.
func With(l Logger, fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	if c, ok := l.(*scoped); ok {
		return &scoped{parent: c.parent, fields: c.merge(fields)}
	}
	return &scoped{parent: l, fields: fields}
}

type scoped struct {
	parent Logger
	fields []Field
}

func (s *scoped) Debug(msg string, fields ...Field) { s.parent.Debug(msg, s.merge(fields)...) }
func (s *scoped) Info(msg string, fields ...Field)  { s.parent.Info(msg, s.merge(fields)...) }
func (s *scoped) Warn(msg string, fields ...Field)  { s.parent.Warn(msg, s.merge(fields)...) }
func (s *scoped) Error(msg string, fields ...Field) { s.parent.Error(msg, s.merge(fields)...) }

func (s *scoped) merge(fields []Field) []Field {
	out := make([]Field, 0, len(s.fields)+len(fields))
	out = append(out, s.fields...)
	return append(out, fields...)
}
