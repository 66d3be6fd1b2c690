package transform

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/samber/mo"

	"listing_intake/internal/form"
)

// parseIntOrNull truncates any finite number toward zero. Blank, absent,
// non-numeric or out of int32 range input is None, which callers store as
// null.
func parseIntOrNull(v any) mo.Option[int] {
	if f, ok := parseFloat(v).Get(); ok && f > math.MinInt32-1 && f < math.MaxInt32+1 {
		return mo.Some(int(f))
	}
	return mo.None[int]()
}

func parseFloat(v any) mo.Option[float64] {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		return mo.Some(float64(t))
	case int64:
		return mo.Some(float64(t))
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return mo.None[float64]()
		}
		f = n
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return mo.None[float64]()
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return mo.None[float64]()
		}
		f = n
	default:
		return mo.None[float64]()
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return mo.None[float64]()
	}
	return mo.Some(f)
}

// parseBool accepts a bool or the exact strings "true"/"false".
func parseBool(v any) mo.Option[bool] {
	switch t := v.(type) {
	case bool:
		return mo.Some(t)
	case string:
		switch strings.TrimSpace(t) {
		case "true":
			return mo.Some(true)
		case "false":
			return mo.Some(false)
		}
	}
	return mo.None[bool]()
}

// parseArray passes sequences through as strings. A string is read as a
// JSON array first and as a comma separated list otherwise; blanks are
// dropped either way.
func parseArray(v any) mo.Option[[]string] {
	switch t := v.(type) {
	case []string:
		return mo.Some(compact(t))
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			if s, ok := parseString(it).Get(); ok {
				out = append(out, s)
			}
		}
		return mo.Some(compact(out))
	case string:
		if parsed, ok := form.ParseJSON(t); ok {
			if arr, ok := parsed.([]any); ok {
				return parseArray(arr)
			}
		}
		return mo.Some(compact(strings.Split(t, ",")))
	case float64, int, int64, bool, json.Number:
		if s, ok := parseString(t).Get(); ok {
			return mo.Some([]string{s})
		}
	}
	return mo.None[[]string]()
}

// parseString renders scalars as trimmed text; composites are None.
func parseString(v any) mo.Option[string] {
	switch t := v.(type) {
	case string:
		return mo.Some(strings.TrimSpace(t))
	case float64:
		return mo.Some(strconv.FormatFloat(t, 'f', -1, 64))
	case int:
		return mo.Some(strconv.Itoa(t))
	case int64:
		return mo.Some(strconv.FormatInt(t, 10))
	case json.Number:
		return mo.Some(t.String())
	case bool:
		return mo.Some(strconv.FormatBool(t))
	}
	return mo.None[string]()
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
