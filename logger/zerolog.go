package logger

import (
	"bytes"
	"encoding/json"

	"github.com/rs/zerolog"
)

// Zerolog returns a zerolog.Logger whose events are recorded by l. The event
// message becomes the body and the remaining fields the extra context.
func (l *Logger) Zerolog() zerolog.Logger {
	return zerolog.New(zerologWriter{l: l})
}

type zerologWriter struct {
	l *Logger
}

func (w zerologWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.NoLevel, p)
}

func (w zerologWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(p))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		w.l.log(fromZerolog(level), string(bytes.TrimSpace(p)), nil)
		return len(p), nil
	}

	msg, _ := fields[zerolog.MessageFieldName].(string)
	delete(fields, zerolog.MessageFieldName)
	delete(fields, zerolog.LevelFieldName)
	delete(fields, zerolog.TimestampFieldName)
	w.l.log(fromZerolog(level), msg, mergeFields([]map[string]any{fields}))
	return len(p), nil
}

func fromZerolog(level zerolog.Level) Level {
	switch level {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return LevelDebug
	case zerolog.WarnLevel:
		return LevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return LevelError
	default:
		return LevelInfo
	}
}
