package transform

import (
	"encoding/json"
	"strings"

	"listing_intake/internal/domain"
)

// mapper copies submitted keys from a decoded object into canonical fields.
// Keys that were never submitted are never written, so an update merge
// keeps whatever is stored for them.
type mapper struct {
	in  map[string]any
	out domain.Fields
}

func newMapper(in map[string]any) *mapper {
	return &mapper{in: in, out: domain.Fields{}}
}

// raw returns the first of keys holding a non-blank value, falling back to
// the first key present at all.
func (m *mapper) raw(keys ...string) (any, bool) {
	var (
		first   any
		present bool
	)
	for _, k := range keys {
		v, ok := m.in[k]
		if !ok {
			continue
		}
		if !present {
			first, present = v, true
		}
		if s, isStr := v.(string); v != nil && (!isStr || strings.TrimSpace(s) != "") {
			return v, true
		}
	}
	return first, present
}

func (m *mapper) str(dst string, keys ...string) {
	v, ok := m.raw(keys...)
	if !ok {
		return
	}
	if v == nil {
		m.out[dst] = nil
		return
	}
	if s, ok := parseString(v).Get(); ok {
		m.out[dst] = s
	}
}

// integer stores null for blank or non-numeric input.
func (m *mapper) integer(dst string, keys ...string) {
	v, ok := m.raw(keys...)
	if !ok {
		return
	}
	if n, ok := parseIntOrNull(v).Get(); ok {
		m.out[dst] = n
		return
	}
	m.out[dst] = nil
}

func (m *mapper) float(dst string, keys ...string) {
	v, ok := m.raw(keys...)
	if !ok {
		return
	}
	if f, ok := parseFloat(v).Get(); ok {
		m.out[dst] = f
		return
	}
	m.out[dst] = nil
}

// boolean leaves dst unset unless the value is a recognizable bool.
func (m *mapper) boolean(dst string, keys ...string) {
	v, ok := m.raw(keys...)
	if !ok {
		return
	}
	if b, ok := parseBool(v).Get(); ok {
		m.out[dst] = b
	}
}

func (m *mapper) list(dst string, keys ...string) {
	v, ok := m.raw(keys...)
	if !ok {
		return
	}
	if v == nil {
		m.out[dst] = nil
		return
	}
	if arr, ok := parseArray(v).Get(); ok {
		m.out[dst] = arr
	}
}

// text stores strings as-is and composites as their JSON encoding.
func (m *mapper) text(dst string, keys ...string) {
	v, ok := m.raw(keys...)
	if !ok {
		return
	}
	switch v.(type) {
	case map[string]any, []any:
		if b, err := json.Marshal(v); err == nil {
			m.out[dst] = string(b)
		}
	default:
		m.str(dst, keys...)
	}
}
