package logging

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// A template is a compiled formatter: literal chunks interleaved with
// placeholder lookups. Recognized placeholders: {time}, {level},
// {logger}, {caller}, {message}, {fields}.
type template struct {
	segs []segment
}

type segment struct {
	lit string
	key string // empty for literals
}

var knownPlaceholders = map[string]bool{
	"time":    true,
	"level":   true,
	"logger":  true,
	"caller":  true,
	"message": true,
	"fields":  true,
}

func compileTemplate(format string) (*template, error) {
	var t template
	rest := format
	for {
		i := strings.IndexByte(rest, '{')
		if i < 0 {
			if rest != "" {
				t.segs = append(t.segs, segment{lit: rest})
			}
			return &t, nil
		}
		j := strings.IndexByte(rest[i:], '}')
		if j < 0 {
			return nil, fmt.Errorf("unterminated placeholder at %q", rest[i:])
		}
		if i > 0 {
			t.segs = append(t.segs, segment{lit: rest[:i]})
		}
		key := rest[i+1 : i+j]
		if !knownPlaceholders[key] {
			return nil, fmt.Errorf("unknown placeholder {%s}", key)
		}
		t.segs = append(t.segs, segment{key: key})
		rest = rest[i+j+1:]
	}
}

// render turns one zerolog JSON line into a text line per the template.
// Unparseable input is passed through trimmed, so a broken record is
// still visible rather than silently dropped.
func (t *template) render(level zerolog.Level, line []byte) string {
	var m map[string]any
	if err := json.Unmarshal(line, &m); err != nil {
		return strings.TrimSpace(string(line)) + "\n"
	}

	timeStr, _ := m[zerolog.TimestampFieldName].(string)
	logger, _ := m["logger"].(string)
	caller, _ := m[zerolog.CallerFieldName].(string)
	msg, _ := m[zerolog.MessageFieldName].(string)

	var b strings.Builder
	for _, s := range t.segs {
		if s.key == "" {
			b.WriteString(s.lit)
			continue
		}
		switch s.key {
		case "time":
			b.WriteString(timeStr)
		case "level":
			b.WriteString(LevelName(level))
		case "logger":
			b.WriteString(logger)
		case "caller":
			b.WriteString(caller)
		case "message":
			b.WriteString(msg)
		case "fields":
			b.WriteString(renderFields(m))
		}
	}
	out := strings.TrimRight(b.String(), " ")
	return out + "\n"
}

// renderFields joins the remaining record fields as key=value pairs,
// sorted for stable output.
func renderFields(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		switch k {
		case zerolog.TimestampFieldName, zerolog.LevelFieldName,
			zerolog.MessageFieldName, zerolog.CallerFieldName, "logger":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(fieldValue(m[k]))
	}
	return b.String()
}

func fieldValue(v any) string {
	switch x := v.(type) {
	case string:
		if strings.ContainsAny(x, " \t\"") {
			return fmt.Sprintf("%q", x)
		}
		return x
	case float64:
		// JSON numbers decode as float64; print integers without a dot.
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprint(x)
	}
}
