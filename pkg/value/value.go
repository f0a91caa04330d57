// Package value implements the tagged-variant Value type shared across the
// parser, catalog, storage, and executor: a closed set of seven kinds
// (null plus six concrete kinds), with coercion, comparison and
// three-valued-logic semantics defined once and dispatched from a single
// place.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant of Value is populated.
type Kind uint8

const (
	Null Kind = iota
	Integer
	Float
	String
	Boolean
	Date
	Timestamp
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "NULL"
	case Integer:
		return "INTEGER"
	case Float:
		return "FLOAT"
	case String:
		return "STRING"
	case Boolean:
		return "BOOLEAN"
	case Date:
		return "DATE"
	case Timestamp:
		return "TIMESTAMP"
	default:
		return "UNKNOWN"
	}
}

// Value is a tagged union over the seven supported value kinds. Zero value
// is Null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
	t    time.Time
}

// TypeError reports a value incompatible with a declared type, an invalid
// comparison across incompatible kinds, a malformed date/timestamp literal,
// or integer arithmetic overflow.
type TypeError struct {
	Message string
}

func (e *TypeError) Error() string { return "type error: " + e.Message }

func typeErrorf(format string, args ...interface{}) *TypeError {
	return &TypeError{Message: fmt.Sprintf(format, args...)}
}

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

func NewNull() Value                { return Value{kind: Null} }
func NewInteger(i int64) Value      { return Value{kind: Integer, i: i} }
func NewFloat(f float64) Value      { return Value{kind: Float, f: f} }
func NewString(s string) Value      { return Value{kind: String, s: s} }
func NewBoolean(b bool) Value       { return Value{kind: Boolean, b: b} }
func NewDate(t time.Time) Value     { return Value{kind: Date, t: t} }
func NewTimestamp(t time.Time) Value { return Value{kind: Timestamp, t: t} }

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsNull() bool  { return v.kind == Null }
func (v Value) AsInt() int64  { return v.i }
func (v Value) AsFloat() float64 { return v.f }
func (v Value) AsString() string { return v.s }
func (v Value) AsBool() bool { return v.b }
func (v Value) AsTime() time.Time { return v.t }

// ParseDate parses a YYYY-MM-DD literal into a Date value.
func ParseDate(s string) (Value, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Value{}, typeErrorf("cannot parse %q as DATE: %v", s, err)
	}
	return NewDate(t), nil
}

// ParseTimestamp parses a YYYY-MM-DD or YYYY-MM-DD HH:MM:SS literal into a
// Timestamp value.
func ParseTimestamp(s string) (Value, error) {
	if t, err := time.Parse(timestampLayout, s); err == nil {
		return NewTimestamp(t), nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return NewTimestamp(t), nil
	}
	return Value{}, typeErrorf("cannot parse %q as TIMESTAMP", s)
}

// String renders the value the way it should appear in shell output: "NULL"
// for null, plain decimal for numbers, the literal string for
// strings, "true"/"false" for booleans, and the fixed layout for
// date/timestamp.
func (v Value) String() string {
	switch v.kind {
	case Null:
		return "NULL"
	case Integer:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case String:
		return v.s
	case Boolean:
		return strconv.FormatBool(v.b)
	case Date:
		return v.t.Format(dateLayout)
	case Timestamp:
		return v.t.Format(timestampLayout)
	default:
		return ""
	}
}

// isNumeric reports whether the kind participates in real-number ordering.
func isNumeric(k Kind) bool { return k == Integer || k == Float }

func (v Value) float64Value() float64 {
	if v.kind == Integer {
		return float64(v.i)
	}
	return v.f
}

// Equal implements equality under three-valued logic: returns (result,
// isKnown). isKnown is false whenever either side is null, per spec the
// caller of a WHERE predicate treats unknown as false, but DISTINCT and
// GROUP BY treat null as equal to null — those callers use EqualForGrouping
// instead.
func Equal(a, b Value) (bool, bool) {
	if a.IsNull() || b.IsNull() {
		return false, false
	}
	cmp, err := Compare(a, b)
	if err != nil {
		return false, false
	}
	return cmp == 0, true
}

// EqualForGrouping implements the "null equals null" convention used by
// DISTINCT and GROUP BY (SQL's grouping equality, not predicate equality).
func EqualForGrouping(a, b Value) bool {
	if a.IsNull() && b.IsNull() {
		return true
	}
	if a.IsNull() != b.IsNull() {
		return false
	}
	cmp, err := Compare(a, b)
	if err != nil {
		return false
	}
	return cmp == 0
}

// Compare orders two non-null values. Numeric kinds compare across kinds
// using real-number ordering; string, boolean, date and timestamp compare
// only against their own kind. Any other cross-kind comparison is a
// TypeError. Comparing a null operand is the caller's responsibility to
// avoid (see Equal/Less for three-valued wrappers).
func Compare(a, b Value) (int, error) {
	if a.IsNull() || b.IsNull() {
		return 0, typeErrorf("cannot compare NULL directly; use IS NULL")
	}

	if isNumeric(a.kind) && isNumeric(b.kind) {
		af, bf := a.float64Value(), b.float64Value()
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}

	if a.kind != b.kind {
		return 0, typeErrorf("cannot compare %s to %s", a.kind, b.kind)
	}

	switch a.kind {
	case String:
		return strings.Compare(a.s, b.s), nil
	case Boolean:
		if a.b == b.b {
			return 0, nil
		}
		if !a.b && b.b {
			return -1, nil
		}
		return 1, nil
	case Date, Timestamp:
		switch {
		case a.t.Before(b.t):
			return -1, nil
		case a.t.After(b.t):
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, typeErrorf("cannot compare values of kind %s", a.kind)
	}
}

// Less implements three-valued `<`: returns (result, isKnown).
func Less(a, b Value) (bool, bool) {
	if a.IsNull() || b.IsNull() {
		return false, false
	}
	cmp, err := Compare(a, b)
	if err != nil {
		return false, false
	}
	return cmp < 0, true
}

// LessOrEqual implements three-valued `<=`.
func LessOrEqual(a, b Value) (bool, bool) {
	if a.IsNull() || b.IsNull() {
		return false, false
	}
	cmp, err := Compare(a, b)
	if err != nil {
		return false, false
	}
	return cmp <= 0, true
}

// Truthy converts a value to the boolean used by AND/OR/NOT and the final
// WHERE decision: null is "unknown" (neither true nor false); callers that
// need three-valued semantics should check IsNull first.
func Truthy(v Value) (bool, bool) {
	if v.IsNull() {
		return false, false
	}
	if v.kind == Boolean {
		return v.b, true
	}
	return false, false
}

// Like implements SQL LIKE: `%` matches any substring (including empty),
// `_` matches exactly one character, matching is anchored across the whole
// value and case-sensitive.
func Like(value, pattern string) bool {
	return likeMatch(value, pattern)
}

func likeMatch(s, pattern string) bool {
	// Classic DP over (len(s)+1) x (len(pattern)+1): ok[i][j] means s[:i]
	// matches pattern[:j].
	sr := []rune(s)
	pr := []rune(pattern)
	n, m := len(sr), len(pr)
	ok := make([][]bool, n+1)
	for i := range ok {
		ok[i] = make([]bool, m+1)
	}
	ok[0][0] = true
	for j := 1; j <= m; j++ {
		if pr[j-1] == '%' {
			ok[0][j] = ok[0][j-1]
		}
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			switch pr[j-1] {
			case '%':
				ok[i][j] = ok[i-1][j] || ok[i][j-1]
			case '_':
				ok[i][j] = ok[i-1][j-1]
			default:
				ok[i][j] = ok[i-1][j-1] && sr[i-1] == pr[j-1]
			}
		}
	}
	return ok[n][m]
}

// CheckedAdd, CheckedSub, CheckedMul implement overflow-checked 64-bit
// signed integer arithmetic: an overflowing +, -, or * on INTEGER values
// reports a TypeError rather than wrapping or silently promoting to float.
func CheckedAdd(a, b int64) (int64, error) {
	r := a + b
	if (b > 0 && r < a) || (b < 0 && r > a) {
		return 0, typeErrorf("integer overflow: %d + %d", a, b)
	}
	return r, nil
}

func CheckedSub(a, b int64) (int64, error) {
	r := a - b
	if (b < 0 && r < a) || (b > 0 && r > a) {
		return 0, typeErrorf("integer overflow: %d - %d", a, b)
	}
	return r, nil
}

func CheckedMul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	r := a * b
	if r/b != a || (a == -1 && b == math.MinInt64) {
		return 0, typeErrorf("integer overflow: %d * %d", a, b)
	}
	return r, nil
}
