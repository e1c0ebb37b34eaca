package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// serialize turns a message into an entry body. Strings pass through and
// errors use their text; anything else is JSON with raw UTF-8.
func serialize(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case error:
		return t.Error()
	}
	s, err := encodeJSON(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// serializeExtra encodes the extra context, or "" when there is none.
func serializeExtra(extra map[string]any) string {
	if len(extra) == 0 {
		return ""
	}
	s, err := encodeJSON(extra)
	if err != nil {
		return fmt.Sprint(extra)
	}
	return s
}

// mergeFields flattens field maps, later keys winning. Error values are
// replaced by their text so they survive JSON encoding.
func mergeFields(fields []map[string]any) map[string]any {
	var out map[string]any
	for _, f := range fields {
		if len(f) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(f))
		}
		maps.Copy(out, f)
	}
	for k, v := range out {
		if err, ok := v.(error); ok {
			out[k] = err.Error()
		}
	}
	return out
}

// quote encodes s as a JSON string.
func quote(s string) string {
	out, err := encodeJSON(s)
	if err != nil {
		return `""`
	}
	return out
}

func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
