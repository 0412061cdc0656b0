package metaquery

import (
	"strconv"
	"strings"
)

// ClauseSeparator separates clauses in query text.
const ClauseSeparator = ","

// Operator is a clause comparison.
type Operator uint8

// Supported operators.
const (
	OpEq Operator = iota + 1
	OpNotEq
	OpArrayContains
)

// operatorTokens is ordered so that != is tried before ==.
var operatorTokens = []struct {
	token string
	op    Operator
}{
	{"!=", OpNotEq},
	{"==", OpEq},
	{"@>", OpArrayContains},
}

// String returns the operator token.
func (o Operator) String() string {
	switch o {
	case OpEq:
		return "=="
	case OpNotEq:
		return "!="
	case OpArrayContains:
		return "@>"
	default:
		return "?"
	}
}

// Clause is one parsed predicate: Path Op Literal.
type Clause struct {
	Path    KeyPath
	Op      Operator
	Literal Value
}

// String renders the clause in canonical query syntax.
func (c Clause) String() string {
	return c.Path.String() + c.Op.String() + renderLiteral(c.Literal)
}

// Equal reports whether two clauses have the same path, operator and literal.
func (c Clause) Equal(o Clause) bool {
	return c.Op == o.Op && c.Path.Equal(o.Path) && Equal(c.Literal, o.Literal)
}

// Query is an AND of clauses in source order.
type Query []Clause

// String renders the query in canonical syntax. Parse(q.String()) yields a
// query equal to q.
func (q Query) String() string {
	parts := make([]string, len(q))
	for i, c := range q {
		parts[i] = c.String()
	}
	return strings.Join(parts, ClauseSeparator)
}

// Parse converts query text into clauses. Blank input is an empty query.
func Parse(s string) (Query, error) {
	if strings.TrimSpace(s) == "" {
		return Query{}, nil
	}

	parts, err := splitClauses(s)
	if err != nil {
		return nil, err
	}

	q := make(Query, 0, len(parts))
	for _, part := range parts {
		c, err := parseClause(part)
		if err != nil {
			return nil, err
		}
		q = append(q, c)
	}
	return q, nil
}

// splitClauses cuts s at every comma that is outside a quoted string and
// outside an array literal.
func splitClauses(s string) ([]string, error) {
	var parts []string
	inQuotes := false
	quoteStart := 0
	depth := 0
	start := 0

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inQuotes {
			switch ch {
			case '\\':
				i++
			case '"':
				inQuotes = false
			}
			continue
		}
		switch ch {
		case '"':
			inQuotes = true
			quoteStart = i
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}

	if inQuotes {
		return nil, syntaxErr(s[quoteStart:], "unterminated quoted string")
	}
	if depth > 0 {
		return nil, syntaxErr(strings.TrimSpace(s[start:]), "unclosed array literal")
	}
	parts = append(parts, s[start:])

	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return nil, syntaxErr(s, "empty clause")
		}
	}
	return parts, nil
}

func parseClause(text string) (Clause, error) {
	text = strings.TrimSpace(text)

	idx, op := findOperator(text)
	if idx < 0 {
		return Clause{}, syntaxErr(text, "missing operator, expected ==, != or @>")
	}

	pathText := strings.TrimSpace(text[:idx])
	if strings.ContainsAny(pathText, `"[]`) {
		return Clause{}, syntaxErr(text, "invalid character in key path")
	}
	path, err := ParsePath(pathText)
	if err != nil {
		se, _ := AsSyntaxError(err)
		return Clause{}, syntaxErr(text, se.Reason)
	}

	lit, err := parseLiteral(strings.TrimSpace(text[idx+2:]), text)
	if err != nil {
		return Clause{}, err
	}

	switch {
	case op == OpArrayContains && lit.kind != KindArray:
		return Clause{}, syntaxErr(text, "@> requires an array literal")
	case op != OpArrayContains && lit.kind == KindArray:
		return Clause{}, syntaxErr(text, "array literal is only valid with @>")
	}

	return Clause{Path: path, Op: op, Literal: lit}, nil
}

// findOperator returns the byte offset of the leftmost operator token outside
// quotes.
func findOperator(text string) (int, Operator) {
	inQuotes := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inQuotes {
			switch ch {
			case '\\':
				i++
			case '"':
				inQuotes = false
			}
			continue
		}
		if ch == '"' {
			inQuotes = true
			continue
		}
		for _, t := range operatorTokens {
			if strings.HasPrefix(text[i:], t.token) {
				return i, t.op
			}
		}
	}
	return -1, 0
}

func parseLiteral(lit, clause string) (Value, error) {
	switch {
	case lit == "":
		return Value{}, syntaxErr(clause, "missing value")
	case lit[0] == '"':
		s, rest, ok := readQuoted(lit)
		if !ok {
			return Value{}, syntaxErr(lit, "unterminated quoted string")
		}
		if strings.TrimSpace(rest) != "" {
			return Value{}, syntaxErr(clause, "unexpected text after quoted value")
		}
		return String(s), nil
	case lit[0] == '[':
		return parseArray(lit, clause)
	case lit == "true":
		return Bool(true), nil
	case lit == "false":
		return Bool(false), nil
	case isInteger(lit):
		if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return Number(float64(n)), nil
		}
		n, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return Value{}, syntaxErr(clause, "integer out of range")
		}
		return Number(n), nil
	case !isBareToken(lit):
		return Value{}, syntaxErr(clause, "invalid value, quote strings containing spaces or symbols")
	default:
		return String(lit), nil
	}
}

func parseArray(lit, clause string) (Value, error) {
	if lit[len(lit)-1] != ']' {
		return Value{}, syntaxErr(clause, "unclosed array literal")
	}
	inner := strings.TrimSpace(lit[1 : len(lit)-1])
	if inner == "" {
		return Array(), nil
	}

	var elems []Value
	for len(inner) > 0 {
		var elem string
		if inner[0] == '"' {
			s, rest, ok := readQuoted(inner)
			if !ok {
				return Value{}, syntaxErr(inner, "unterminated quoted string")
			}
			elems = append(elems, String(s))
			inner = strings.TrimSpace(rest)
		} else {
			end := strings.IndexByte(inner, ',')
			if end < 0 {
				end = len(inner)
			}
			elem = strings.TrimSpace(inner[:end])
			if elem == "" || !isBareToken(elem) {
				return Value{}, syntaxErr(clause, "invalid array element")
			}
			elems = append(elems, String(elem))
			inner = inner[end:]
		}
		if inner == "" {
			break
		}
		if inner[0] != ',' {
			return Value{}, syntaxErr(clause, "expected ',' between array elements")
		}
		inner = strings.TrimSpace(inner[1:])
		if inner == "" {
			return Value{}, syntaxErr(clause, "invalid array element")
		}
	}
	return Array(elems...), nil
}

// readQuoted reads a double quoted string at the start of s and returns its
// unescaped content and the remaining text. Only \" and \\ are escapes; any
// other backslash is kept as is.
func readQuoted(s string) (string, string, bool) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\'):
			b.WriteByte(s[i+1])
			i++
		case ch == '"':
			return b.String(), s[i+1:], true
		default:
			b.WriteByte(ch)
		}
	}
	return "", "", false
}

func isInteger(s string) bool {
	if s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isBareToken(s string) bool {
	return !strings.ContainsAny(s, "\"[]=, \t\r\n")
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

func renderLiteral(v Value) string {
	switch v.kind {
	case KindString:
		return quote(v.s)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = renderLiteral(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return v.String()
	}
}
