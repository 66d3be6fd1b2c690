package domain

import (
	"bytes"
	"encoding/json"
	"math"
)

// UnmarshalJSON keeps integral numbers as int so stored fields read back with
// the types the transformers produced.
func (f *Fields) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	if m == nil {
		*f = nil
		return nil
	}
	for k, v := range m {
		m[k] = normalizeNumbers(v)
	}
	*f = m
	return nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
			return int(i)
		}
		if fl, err := t.Float64(); err == nil {
			return fl
		}
		return t.String()
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	}
	return v
}
