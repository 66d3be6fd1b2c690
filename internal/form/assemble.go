package form

import (
	"errors"
	"sort"
	"strings"
)

// Prefixes are the bracket roots that carry nested category data.
var Prefixes = []string{"location", "resort", "carRental", "convenience", "dining"}

// Submission is an ordered key/value view of one request body. Values are
// raw strings from forms, []any for repeated form keys, or typed JSON values.
type Submission struct {
	keys   []string
	values map[string]any
}

func NewSubmission() *Submission {
	return &Submission{values: map[string]any{}}
}

// SubmissionFromMap builds a submission with keys in sorted order.
func SubmissionFromMap(m map[string]any) *Submission {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := NewSubmission()
	for _, k := range keys {
		s.Set(k, m[k])
	}
	return s
}

// Set stores v under key; a key keeps its first insertion position.
func (s *Submission) Set(key string, v any) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = v
}

func (s *Submission) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *Submission) Keys() []string { return append([]string(nil), s.keys...) }
func (s *Submission) Len() int       { return len(s.keys) }

// Assemble builds the nested value submitted under prefix.
//
// A JSON string stored directly under prefix wins. Otherwise every
// "prefix[...]" key is decoded into one tree. With no bracket keys the plain
// value is used when it is already an object (native JSON bodies).
func Assemble(sub *Submission, prefix string) (any, bool, error) {
	if v, ok := sub.Get(prefix); ok {
		if s, ok := v.(string); ok {
			if parsed, ok := ParseJSON(s); ok {
				return parsed, true, nil
			}
		}
	}

	open := prefix + "["
	n := 0
	for _, k := range sub.keys {
		if strings.HasPrefix(k, open) {
			n++
		}
	}
	root := NewObject()
	root.LimitSlots(SlotBudget(n))
	found := false
	for _, k := range sub.keys {
		if !strings.HasPrefix(k, open) {
			continue
		}
		segs := Segments(k[len(prefix):])
		if len(segs) == 0 {
			continue
		}
		found = true
		v := sub.values[k]
		if s, ok := v.(string); ok {
			v = Coerce(s)
		}
		if err := root.WriteAtPath(segs, v); err != nil {
			var pc *PathConflictError
			if errors.As(err, &pc) {
				pc.Path = prefix + pc.Path
			}
			return nil, false, err
		}
	}
	if found {
		return root.Value(), true, nil
	}

	if v, ok := sub.Get(prefix); ok {
		if m, ok := v.(map[string]any); ok {
			return m, true, nil
		}
	}
	return nil, false, nil
}

// Decoded holds one nested value per submitted prefix plus the plain,
// non-bracketed top-level fields (title, category, basePrice, ...).
type Decoded struct {
	Prefixed map[string]any
	TopLevel map[string]any
}

// Object returns the decoded prefix when it is an object.
func (d Decoded) Object(prefix string) (map[string]any, bool) {
	m, ok := d.Prefixed[prefix].(map[string]any)
	return m, ok
}

// AssembleAll decodes every known prefix of sub. The first conflicting
// bracket path aborts decoding.
func AssembleAll(sub *Submission) (Decoded, error) {
	out := Decoded{Prefixed: map[string]any{}, TopLevel: map[string]any{}}
	for _, p := range Prefixes {
		v, ok, err := Assemble(sub, p)
		if err != nil {
			return Decoded{}, err
		}
		if ok {
			out.Prefixed[p] = v
		}
	}
	known := make(map[string]struct{}, len(Prefixes))
	for _, p := range Prefixes {
		known[p] = struct{}{}
	}
	for _, k := range sub.keys {
		if strings.ContainsRune(k, '[') {
			continue
		}
		if _, ok := known[k]; ok {
			continue
		}
		out.TopLevel[k] = sub.values[k]
	}
	return out, nil
}
