package form

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Coerce infers the natural type of a single raw value: bool, float64,
// decoded JSON (map[string]any or []any) or the original string.
// Blank input stays a string so empty optional fields never turn into 0.
func Coerce(raw string) any {
	s := strings.TrimSpace(raw)
	switch s {
	case "":
		return ""
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	if isJSONShaped(s) {
		if v, ok := ParseJSON(s); ok {
			return v
		}
	}
	return raw
}

func isJSONShaped(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}

// ParseJSON decodes s; malformed input reports false instead of an error.
func ParseJSON(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !gjson.Valid(s) {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}
