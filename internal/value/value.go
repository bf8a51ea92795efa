// Package value implements the language's dynamically-typed runtime values
// and their type-directed operators. It follows the structural shape of
// the teacher's evaluator.go (a Value interface plus one struct per
// variant, with arithmetic/comparison dispatched through type-switch
// helper methods) but the concrete per-type rules come from
// original_source/lib/AST/AbstractSyntaxTree.cpp's CalculateAdd/Sub/Mult/
// Div/Mod/Pow/Compare family, as described in SPEC_FULL.md §4.3.
package value

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Value is implemented by every runtime value variant: Nil, Number,
// *String, *List, and the Function type defined one layer up in
// internal/evaluator.
type Value interface {
	TypeName() string
	Truthy() bool
	String() string
}

// Nil is the single nil value.
type Nil struct{}

func (Nil) TypeName() string { return "nil" }
func (Nil) Truthy() bool     { return false }
func (Nil) String() string   { return "nil" }

// Number is an IEEE-754 double; booleans and comparisons are represented as
// Number(1)/Number(0), matching the original's "no distinct boolean type"
// design.
type Number float64

func (Number) TypeName() string { return "number" }
func (n Number) Truthy() bool   { return float64(n) != 0 }

// String is displayed via FormatNumber's integer-vs-general-double rule
// (SPEC_FULL.md §6 / DESIGN.md's number-formatting decision).
func (n Number) String() string { return FormatNumber(float64(n)) }

// FormatNumber renders a float64 per the "platform default double->string"
// rule: integer-valued finite doubles representable exactly in int64 render
// as plain decimal integers, everything else renders via the shortest
// round-tripping decimal form.
func FormatNumber(f float64) string {
	if !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f) &&
		f >= -9.223372036854775808e18 && f < 9.223372036854775808e18 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Bool returns Number(1) for true, Number(0) for false — the language has
// no separate boolean type; every comparison and logical operator produces
// a Number.
func Bool(b bool) Number {
	if b {
		return Number(1)
	}
	return Number(0)
}

// String is a reference-shared mutable string, aliasing *String the way
// original_source shares std::shared_ptr<std::string>: assigning one
// variable's String value to another shares the same backing pointer, so
// in-place builtins like capitalize are visible through every alias.
type String struct {
	V string
}

// NewString allocates a fresh *String handle.
func NewString(s string) *String { return &String{V: s} }

func (*String) TypeName() string  { return "string" }
func (s *String) Truthy() bool    { return s.V != "" }
func (s *String) String() string  { return s.V }

// List is a reference-shared mutable list of Values, aliasing the way
// original_source shares std::shared_ptr<List>.
type List struct {
	Items []Value
}

// NewList allocates a fresh *List handle.
func NewList(items []Value) *List { return &List{Items: items} }

func (*List) TypeName() string { return "list" }
func (l *List) Truthy() bool   { return len(l.Items) > 0 }

func (l *List) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, it := range l.Items {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(displayElement(it))
	}
	sb.WriteByte(']')
	return sb.String()
}

// displayElement renders a value the way it appears nested inside a list's
// own String(): strings are quoted, matching original_source's ToString
// recursion, which always quotes nested strings even though top-level
// print never quotes a raw string.
func displayElement(v Value) string {
	if s, ok := v.(*String); ok {
		return strconv.Quote(s.V)
	}
	return v.String()
}

// TypeError reports an operator or builtin applied to an operand of the
// wrong runtime type.
func TypeError(format string, args ...interface{}) error {
	return errors.Errorf("type error: "+format, args...)
}

// Add implements `+`. Number+Number adds; String+String/anything
// concatenates string representations is NOT supported — only
// String+String concatenates, matching the per-pair table in SPEC_FULL.md
// §4.3; List+List concatenates into a new list; any other pairing is a
// TypeError.
func Add(a, b Value) (Value, error) {
	switch x := a.(type) {
	case Number:
		if y, ok := b.(Number); ok {
			return x + y, nil
		}
	case *String:
		if y, ok := b.(*String); ok {
			return NewString(x.V + y.V), nil
		}
	case *List:
		if y, ok := b.(*List); ok {
			out := make([]Value, 0, len(x.Items)+len(y.Items))
			out = append(out, x.Items...)
			out = append(out, y.Items...)
			return NewList(out), nil
		}
	}
	return nil, TypeError("cannot add %s and %s", a.TypeName(), b.TypeName())
}

// Sub implements `-`. Number-Number subtracts. String-String strips a
// trailing suffix: if b is a suffix of a, returns a with that suffix
// removed, else returns a unchanged — matching original_source's
// CalculateSub string case.
func Sub(a, b Value) (Value, error) {
	switch x := a.(type) {
	case Number:
		if y, ok := b.(Number); ok {
			return x - y, nil
		}
	case *String:
		if y, ok := b.(*String); ok {
			if strings.HasSuffix(x.V, y.V) {
				return NewString(x.V[:len(x.V)-len(y.V)]), nil
			}
			return NewString(x.V), nil
		}
	}
	return nil, TypeError("cannot subtract %s and %s", a.TypeName(), b.TypeName())
}

// Mul implements `*`. Number*Number multiplies. String*Number and
// List*Number repeat the string/list that many times (cyclically); a
// negative count is a ValueError.
func Mul(a, b Value) (Value, error) {
	switch x := a.(type) {
	case Number:
		if y, ok := b.(Number); ok {
			return x * y, nil
		}
	case *String:
		if n, ok := b.(Number); ok {
			return repeatString(x, n)
		}
	case *List:
		if n, ok := b.(Number); ok {
			return repeatList(x, n)
		}
	}
	return nil, TypeError("cannot multiply %s and %s", a.TypeName(), b.TypeName())
}

func repeatString(s *String, n Number) (Value, error) {
	count := int(n)
	if float64(count) != float64(n) || count < 0 {
		return nil, errors.Errorf("value error: string repeat count must be a non-negative integer, got %v", float64(n))
	}
	return NewString(strings.Repeat(s.V, count)), nil
}

func repeatList(l *List, n Number) (Value, error) {
	count := int(n)
	if float64(count) != float64(n) || count < 0 {
		return nil, errors.Errorf("value error: list repeat count must be a non-negative integer, got %v", float64(n))
	}
	out := make([]Value, 0, len(l.Items)*count)
	for i := 0; i < count; i++ {
		out = append(out, l.Items...)
	}
	return NewList(out), nil
}

// Div implements `/`. Number/Number divides; division by zero follows
// IEEE-754 (±Inf or NaN), it is never an evaluator error.
func Div(a, b Value) (Value, error) {
	x, ok1 := a.(Number)
	y, ok2 := b.(Number)
	if !ok1 || !ok2 {
		return nil, TypeError("cannot divide %s and %s", a.TypeName(), b.TypeName())
	}
	return x / y, nil
}

// Mod implements `%` (math.Mod semantics, i.e. C fmod, sign follows the
// dividend).
func Mod(a, b Value) (Value, error) {
	x, ok1 := a.(Number)
	y, ok2 := b.(Number)
	if !ok1 || !ok2 {
		return nil, TypeError("cannot take modulo of %s and %s", a.TypeName(), b.TypeName())
	}
	return Number(math.Mod(float64(x), float64(y))), nil
}

// Pow implements `^`.
func Pow(a, b Value) (Value, error) {
	x, ok1 := a.(Number)
	y, ok2 := b.(Number)
	if !ok1 || !ok2 {
		return nil, TypeError("cannot raise %s to the power of %s", a.TypeName(), b.TypeName())
	}
	return Number(math.Pow(float64(x), float64(y))), nil
}

// UnaryMinus and UnaryPlus require a Number operand, matching
// original_source's CalculateUnaryMinus/Plus.
func UnaryMinus(v Value) (Value, error) {
	n, ok := v.(Number)
	if !ok {
		return nil, TypeError("unary minus can be applied only to the number, got %s", v.TypeName())
	}
	return -n, nil
}

func UnaryPlus(v Value) (Value, error) {
	n, ok := v.(Number)
	if !ok {
		return nil, TypeError("unary plus can be applied only to the number, got %s", v.TypeName())
	}
	return n, nil
}

// Compare implements the six relational operators uniformly: strings
// compare lexicographically by byte; numbers compare numerically; two
// Lists compare by length only, never by contents, per spec's stated rule
// for `<`/`>` on lists; anything else (Function values, or any cross-type
// pairing) yields "incomparable" and only Equal/NotEqual are meaningful
// (false/true respectively).
//
// Compare returns -1, 0, or 1 when an order exists, or a special
// "incomparable" flag via the second return for pairs with no meaningful
// order (two Functions, or cross-type), in which case only equality (by
// pointer identity, or always-false for cross-type) is defined.
func Compare(a, b Value) (order int, comparable bool) {
	switch x := a.(type) {
	case Number:
		if y, ok := b.(Number); ok {
			switch {
			case x < y:
				return -1, true
			case x > y:
				return 1, true
			default:
				return 0, true
			}
		}
	case *String:
		if y, ok := b.(*String); ok {
			return strings.Compare(x.V, y.V), true
		}
	case *List:
		if y, ok := b.(*List); ok {
			switch {
			case len(x.Items) < len(y.Items):
				return -1, true
			case len(x.Items) > len(y.Items):
				return 1, true
			default:
				return 0, true
			}
		}
	}
	return 0, false
}

// Equal implements `==`/`!=` for all type pairs: Number/String compare by
// value, *List compares by pointer identity, Nil equals only Nil, and
// anything else (including Function values, defined one layer up in
// internal/evaluator) falls through to Go's own interface equality, which
// for pointer-shaped concrete types is exactly pointer identity — matching
// original_source's shared_ptr comparison semantics for types value.go has
// no concrete knowledge of.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Number:
		y, ok := b.(Number)
		return ok && x == y
	case *String:
		y, ok := b.(*String)
		return ok && x.V == y.V
	case *List:
		y, ok := b.(*List)
		return ok && x == y
	case Nil:
		_, ok := b.(Nil)
		return ok
	default:
		return a == b
	}
}
