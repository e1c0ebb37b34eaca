package logger

import (
	"go.uber.org/zap/zapcore"
)

// NewZapCore returns a zapcore.Core that records entries in l. A named zap
// logger uses its name as the entry label unless a "label" field is given.
// Sync flushes l.
//
//	zl := zap.New(logger.NewZapCore(log, zapcore.InfoLevel)).Named("api")
func NewZapCore(l *Logger, enab zapcore.LevelEnabler) zapcore.Core {
	return &zapCore{LevelEnabler: enab, l: l}
}

type zapCore struct {
	zapcore.LevelEnabler
	l      *Logger
	fields []zapcore.Field
}

func (c *zapCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *zapCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *zapCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	extra := enc.Fields
	if ent.LoggerName != "" {
		if _, ok := extra[FieldLabel]; !ok {
			extra[FieldLabel] = ent.LoggerName
		}
	}
	c.l.log(fromZap(ent.Level), ent.Message, mergeFields([]map[string]any{extra}))
	return nil
}

func (c *zapCore) Sync() error {
	return c.l.Flush()
}

func fromZap(level zapcore.Level) Level {
	switch {
	case level < zapcore.InfoLevel:
		return LevelDebug
	case level == zapcore.InfoLevel:
		return LevelInfo
	case level == zapcore.WarnLevel:
		return LevelWarn
	default:
		return LevelError
	}
}
