package form

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MaxArrayIndex bounds the slot a single bracket index may address.
const MaxArrayIndex = 1000

// SlotsPerKey is how many array slots, holes included, each submitted key
// may allocate on average once a tree has a slot limit.
const SlotsPerKey = 8

// SlotBudget is the array slot limit for a tree decoded from keys entries.
// A single key may still reach MaxArrayIndex.
func SlotBudget(keys int) int {
	return max(MaxArrayIndex+1, keys*SlotsPerKey)
}

var (
	segmentRe = regexp.MustCompile(`\[([^\]]+)\]`)
	indexRe   = regexp.MustCompile(`^[0-9]+$`)
)

var ErrEmptyPath = errors.New("form: empty path")

// PathConflictError reports a bracket path that cannot be written without
// discarding earlier data, e.g. "a[0]" followed by "a[x]".
type PathConflictError struct {
	Path   string
	Reason string
}

func (e *PathConflictError) Error() string {
	return fmt.Sprintf("form: conflicting path %s: %s", e.Path, e.Reason)
}

// Prefix is the part of Path before the first bracket, empty when the
// conflict was raised outside Assemble.
func (e *PathConflictError) Prefix() string {
	if i := strings.IndexByte(e.Path, '['); i >= 0 {
		return e.Path[:i]
	}
	return e.Path
}

// Segments returns the bracket groups of key, without its prefix.
// "dining[menuItems][0][name]" yields ["menuItems", "0", "name"].
func Segments(key string) []string {
	matches := segmentRe.FindAllStringSubmatch(key, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

func isIndex(seg string) bool { return indexRe.MatchString(seg) }

type Kind uint8

const (
	KindScalar Kind = iota
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "scalar"
	}
}

// Node is one value of a decoded tree: a scalar, an array of nodes, or an
// object of nodes keyed by name. Keys reports object keys in insertion
// order; Value materializes plain maps, which do not.
type Node struct {
	kind   Kind
	scalar any
	items  []*Node
	keys   []string
	fields map[string]*Node
	// slotsLeft limits array growth below this node for WriteAtPath;
	// negative means unlimited.
	slotsLeft int
}

func NewObject() *Node { return &Node{kind: KindObject, fields: map[string]*Node{}, slotsLeft: -1} }
func NewArray() *Node  { return &Node{kind: KindArray, slotsLeft: -1} }
func NewScalar(v any) *Node {
	return &Node{kind: KindScalar, scalar: v, slotsLeft: -1}
}

// LimitSlots caps the array slots, holes included, that WriteAtPath calls
// on n may allocate in total.
func (n *Node) LimitSlots(slots int) { n.slotsLeft = slots }

// SlotsLeft is the remaining slot allowance, negative when unlimited.
func (n *Node) SlotsLeft() int { return n.slotsLeft }

// growth is how many slots writing seg into n would append.
func (n *Node) growth(seg string) int {
	if n.kind != KindArray {
		return 0
	}
	i, _ := strconv.Atoi(seg)
	if i < len(n.items) {
		return 0
	}
	return i + 1 - len(n.items)
}

func newContainer(k Kind) *Node {
	if k == KindArray {
		return NewArray()
	}
	return NewObject()
}

func containerFor(seg string) Kind {
	if isIndex(seg) {
		return KindArray
	}
	return KindObject
}

// FromValue converts decoded JSON (maps, slices, scalars) into a node tree.
// Map keys are inserted in sorted order.
func FromValue(v any) *Node {
	switch t := v.(type) {
	case map[string]any:
		n := NewObject()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			n.setField(k, FromValue(t[k]))
		}
		return n
	case []any:
		n := NewArray()
		for _, it := range t {
			n.items = append(n.items, FromValue(it))
		}
		return n
	default:
		return NewScalar(v)
	}
}

func (n *Node) Kind() Kind { return n.kind }

// Keys returns object keys in insertion order.
func (n *Node) Keys() []string { return append([]string(nil), n.keys...) }

func (n *Node) Len() int {
	switch n.kind {
	case KindArray:
		return len(n.items)
	case KindObject:
		return len(n.keys)
	}
	return 0
}

func (n *Node) setField(k string, child *Node) {
	if _, ok := n.fields[k]; !ok {
		n.keys = append(n.keys, k)
	}
	n.fields[k] = child
}

// get returns the child at seg, nil when the slot is empty.
func (n *Node) get(seg string) *Node {
	if n.kind == KindArray {
		i, _ := strconv.Atoi(seg)
		if i < len(n.items) {
			return n.items[i]
		}
		return nil
	}
	return n.fields[seg]
}

func (n *Node) set(seg string, child *Node) {
	if n.kind == KindArray {
		i, _ := strconv.Atoi(seg)
		for len(n.items) <= i {
			n.items = append(n.items, nil)
		}
		n.items[i] = child
		return
	}
	n.setField(seg, child)
}

// WriteAtPath stores value at segs below n, allocating an array for every
// numeric segment and an object for any other. Composite values (decoded
// JSON) are expanded into nodes so later paths may extend them.
func (n *Node) WriteAtPath(segs []string, value any) error {
	if len(segs) == 0 {
		return ErrEmptyPath
	}
	cur := n
	for i, seg := range segs {
		want := containerFor(seg)
		if cur.kind != want {
			return conflict(segs[:i], fmt.Sprintf("%s used as %s", cur.kind, want))
		}
		if want == KindArray {
			if idx, err := strconv.Atoi(seg); err != nil || idx > MaxArrayIndex {
				return conflict(segs[:i+1], fmt.Sprintf("index exceeds %d", MaxArrayIndex))
			}
		}
		if g := cur.growth(seg); g > 0 && n.slotsLeft >= 0 {
			if g > n.slotsLeft {
				return conflict(segs[:i+1], "array slot limit exceeded")
			}
			n.slotsLeft -= g
		}
		existing := cur.get(seg)
		if i == len(segs)-1 {
			if existing != nil && existing.kind != KindScalar {
				return conflict(segs, fmt.Sprintf("scalar written over %s", existing.kind))
			}
			cur.set(seg, FromValue(value))
			return nil
		}
		next := containerFor(segs[i+1])
		switch {
		case existing == nil:
			existing = newContainer(next)
			cur.set(seg, existing)
		case existing.kind == KindScalar:
			return conflict(segs[:i+1], "path descends into a scalar")
		case existing.kind != next:
			return conflict(segs[:i+1], fmt.Sprintf("%s used as %s", existing.kind, next))
		}
		cur = existing
	}
	return nil
}

// Lookup reads the materialized value at segs.
func (n *Node) Lookup(segs []string) (any, bool) {
	cur := n
	for _, seg := range segs {
		if cur == nil || cur.kind == KindScalar || cur.kind != containerFor(seg) {
			return nil, false
		}
		cur = cur.get(seg)
	}
	if cur == nil {
		return nil, false
	}
	return cur.Value(), true
}

// Value materializes the tree: objects become map[string]any (key order is
// not kept, use Keys for it), arrays []any (unwritten slots are nil),
// scalars their stored value.
func (n *Node) Value() any {
	if n == nil {
		return nil
	}
	switch n.kind {
	case KindArray:
		out := make([]any, len(n.items))
		for i, it := range n.items {
			out[i] = it.Value()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			out[k] = n.fields[k].Value()
		}
		return out
	default:
		return n.scalar
	}
}

func conflict(segs []string, reason string) *PathConflictError {
	return &PathConflictError{Path: renderPath(segs), Reason: reason}
}

func renderPath(segs []string) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString("[")
		b.WriteString(s)
		b.WriteString("]")
	}
	return b.String()
}
