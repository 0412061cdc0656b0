package metaquery

// Matches evaluates the clause against doc.
//
//   - ==  holds when some resolved value equals the literal.
//   - !=  holds when no resolved value equals the literal, including when the
//     path resolves to nothing.
//   - @>  holds when some resolved value is an array containing every element
//     of the literal array, in any order.
func (c Clause) Matches(doc Value) bool {
	vals := Resolve(doc, c.Path)

	switch c.Op {
	case OpEq:
		return containsEqual(vals, c.Literal)
	case OpNotEq:
		return !containsEqual(vals, c.Literal)
	case OpArrayContains:
		for _, v := range vals {
			if v.kind == KindArray && isSubset(c.Literal.arr, v.arr) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Matches reports whether every clause holds for doc. The empty query
// matches every document.
func (q Query) Matches(doc Value) bool {
	for _, c := range q {
		if !c.Matches(doc) {
			return false
		}
	}
	return true
}

// MatchesDocument parses raw and evaluates q against it. A malformed
// document matches nothing.
func MatchesDocument(raw []byte, q Query) bool {
	doc, err := ParseDocument(raw)
	if err != nil {
		return false
	}
	return q.Matches(doc)
}

func containsEqual(vals []Value, lit Value) bool {
	for _, v := range vals {
		if Equal(v, lit) {
			return true
		}
	}
	return false
}

func isSubset(want, have []Value) bool {
	for _, w := range want {
		if !containsEqual(have, w) {
			return false
		}
	}
	return true
}
