package fields

import (
	"encoding/json"
	"strings"

	"github.com/churnscope/churnscope/internal/table"
)

// decodeCell turns one semi-structured cell into a generic JSON value
// (map[string]any or []any). Cells arrive as text; exports from the upstream
// CRM frequently use Python literal syntax (single quotes, True/None), so a
// normalization pass runs before giving up on a payload.
func decodeCell(cell table.Value) (any, bool) {
	s, ok := cell.(string)
	if !ok {
		// Already-decoded payloads pass through untouched.
		switch cell.(type) {
		case map[string]any, []any:
			return cell, true
		}
		return nil, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}

	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v, structured(v)
	}
	if err := json.Unmarshal([]byte(normalizePyLiteral(s)), &v); err == nil {
		return v, structured(v)
	}
	return nil, false
}

// structured accepts only object or array payloads; bare scalars are treated
// as malformed.
func structured(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	default:
		return false
	}
}

// normalizePyLiteral rewrites a Python literal into JSON: single-quoted
// strings become double-quoted (embedded double quotes escaped) and the
// True/False/None keywords are lowered. Keyword replacement only applies
// outside string literals.
func normalizePyLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inString:
			if c == '\\' && i+1 < len(s) {
				b.WriteByte(c)
				i++
				b.WriteByte(s[i])
				continue
			}
			if c == quote {
				inString = false
				b.WriteByte('"')
				continue
			}
			if c == '"' {
				b.WriteString(`\"`)
				continue
			}
			b.WriteByte(c)
		case c == '\'' || c == '"':
			inString = true
			quote = c
			b.WriteByte('"')
		default:
			if replaced, n := pyKeyword(s[i:]); n > 0 {
				b.WriteString(replaced)
				i += n - 1
				continue
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

func pyKeyword(s string) (string, int) {
	for from, to := range map[string]string{"True": "true", "False": "false", "None": "null"} {
		if strings.HasPrefix(s, from) && !followedByIdent(s, len(from)) {
			return to, len(from)
		}
	}
	return "", 0
}

func followedByIdent(s string, at int) bool {
	if at >= len(s) {
		return false
	}
	c := s[at]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Generic getters over decoded payloads. Upstream exports are inconsistent
// about numeric types, so numbers are accepted as float64, int or numeric
// string.

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

func num(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := table.Float(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func str(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// yes reads flags encoded either as booleans or "Yes"/"No" strings.
func yes(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		switch v := m[k].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			if strings.EqualFold(strings.TrimSpace(v), "yes") {
				return true
			}
		}
	}
	return false
}
