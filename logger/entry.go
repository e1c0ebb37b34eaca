package logger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kbukum/redkit/util"
)

// Level is the severity of an entry, rendered as a single character.
type Level byte

const (
	LevelInfo  Level = 'I'
	LevelDebug Level = 'D'
	LevelWarn  Level = 'W'
	LevelError Level = 'E'
)

func (l Level) String() string { return string(rune(l)) }

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) { return []byte{byte(l)}, nil }

// ParseLevel accepts a level name ("info", "debug", "warn", "warning",
// "error") or its letter, in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "i", "info":
		return LevelInfo, nil
	case "d", "debug":
		return LevelDebug, nil
	case "w", "warn", "warning":
		return LevelWarn, nil
	case "e", "error":
		return LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// TimeLayout is the timestamp layout of a formatted line.
const TimeLayout = "2006-01-02 15:04:05"

// labelColumn is the padded width of "(LABEL)".
const labelColumn = 10

// Entry is one recorded log line.
type Entry struct {
	Label   string    `json:"label"`
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Body    string    `json:"body"`
	Elapsed int64     `json:"elapsed_ms"` // since the previous recorded entry
	Extra   string    `json:"extra,omitempty"`
}

// Format renders e as a single line without the trailing newline:
//
//	(LABEL)    2006-01-02 15:04:05 <L> body "extra" +Nms
func (e Entry) Format() string {
	var b strings.Builder
	b.WriteString(runewidth.FillRight("("+e.Label+")", labelColumn))
	b.WriteByte(' ')
	b.WriteString(e.Time.Format(TimeLayout))
	b.WriteString(" <")
	b.WriteByte(byte(e.Level))
	b.WriteString("> ")
	b.WriteString(util.CollapseNewlines(e.Body))
	b.WriteByte(' ')
	if e.Extra != "" {
		b.WriteString(quote(util.CollapseNewlines(e.Extra)))
		b.WriteByte(' ')
	}
	b.WriteByte('+')
	b.WriteString(strconv.FormatInt(e.Elapsed, 10))
	b.WriteString("ms")
	return b.String()
}

// NormalizeLabel upper-cases s and cuts it to LabelWidth runes.
func NormalizeLabel(s string) string {
	return util.Truncate(cases.Upper(language.Und).String(s), LabelWidth)
}
