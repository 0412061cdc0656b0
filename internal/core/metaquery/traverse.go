package metaquery

import (
	"strconv"
	"strings"
)

// PathSeparator joins the segments of a KeyPath in query text.
const PathSeparator = ":"

// KeyPath is an ordered sequence of object keys.
type KeyPath []string

// String renders the path in query syntax.
func (p KeyPath) String() string {
	return strings.Join(p, PathSeparator)
}

// Equal reports whether both paths have the same segments.
func (p KeyPath) Equal(o KeyPath) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// ParsePath splits a ':' separated path. Whitespace around each segment is
// dropped, so "a : b" is the path a, b. Empty paths and empty segments are
// syntax errors.
func ParsePath(s string) (KeyPath, error) {
	if strings.TrimSpace(s) == "" {
		return nil, syntaxErr(s, "empty key path")
	}
	segs := strings.Split(s, PathSeparator)
	for i, seg := range segs {
		segs[i] = strings.TrimSpace(seg)
		if segs[i] == "" {
			return nil, syntaxErr(s, "empty path segment")
		}
	}
	return KeyPath(segs), nil
}

// Match is one value reached by a path, with the route actually followed.
// Array elements passed through appear in Route as their decimal index.
type Match struct {
	Route []string
	Value Value
}

// Walk resolves path against doc and returns every value reached.
//
// Starting from doc, each segment is looked up in every object of the
// working set; arrays in the working set contribute the lookup applied to
// each of their object elements. Anything else contributes nothing.
func Walk(doc Value, path KeyPath) []Match {
	set := []Match{{Value: doc}}
	for _, seg := range path {
		var next []Match
		for _, m := range set {
			switch m.Value.kind {
			case KindObject:
				if v, ok := m.Value.obj[seg]; ok {
					next = append(next, Match{Route: extend(m.Route, seg), Value: v})
				}
			case KindArray:
				for i, elem := range m.Value.arr {
					if elem.kind != KindObject {
						continue
					}
					if v, ok := elem.obj[seg]; ok {
						next = append(next, Match{Route: extend(m.Route, strconv.Itoa(i), seg), Value: v})
					}
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		set = next
	}
	return set
}

// Resolve returns the values reached by path. An empty path yields the
// document itself; a path that matches nothing yields nil.
func Resolve(doc Value, path KeyPath) []Value {
	matches := Walk(doc, path)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Value, len(matches))
	for i, m := range matches {
		out[i] = m.Value
	}
	return out
}

// Traverse returns the values reached by path keyed by the path's last
// segment. Several matches are collected into a single array value.
func Traverse(doc Value, path KeyPath) map[string]Value {
	out := map[string]Value{}
	if len(path) == 0 {
		return out
	}
	vals := Resolve(doc, path)
	switch len(vals) {
	case 0:
	case 1:
		out[path[len(path)-1]] = vals[0]
	default:
		out[path[len(path)-1]] = Array(vals...)
	}
	return out
}

func extend(route []string, segs ...string) []string {
	out := make([]string, 0, len(route)+len(segs))
	out = append(out, route...)
	return append(out, segs...)
}
