package evaluator

import (
	"bufio"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"wisp/internal/value"
)

// builtins maps the 25 by-name-callable global functions to their Go
// implementation. "slice" is intentionally absent — it has no textual
// spelling, only the `x[a:b:c]` bracket form, handled directly by
// evaluator.evalSlice, matching original_source's kGlobalFunctions map.
var builtins = map[string]Builtin{
	"print":      builtinPrint,
	"println":    builtinPrintln,
	"read":       builtinRead,
	"stacktrace": builtinStackTrace,
	"len":        builtinLen,
	"lower":      builtinLower,
	"upper":      builtinUpper,
	"capitalize": builtinCapitalize,
	"split":      builtinSplit,
	"join":       builtinJoin,
	"replace":    builtinReplace,
	"abs":        builtinAbs,
	"sqrt":       builtinSqrt,
	"ceil":       builtinCeil,
	"floor":      builtinFloor,
	"round":      builtinRound,
	"rnd":        builtinRnd,
	"parse_num":  builtinParseNum,
	"to_string":  builtinToString,
	"range":      builtinRange,
	"push":       builtinPush,
	"pop":        builtinPop,
	"insert":     builtinInsert,
	"remove":     builtinRemove,
	"sort":       builtinSort,
}

// displayValue renders v the way print() does: no quotes around a
// top-level string, but still recursing through List's own quoting String()
// for nested elements.
func displayValue(v value.Value) string { return v.String() }

func builtinPrint(ev *Evaluator, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, arityError("print expects 1 argument, got %d", len(args))
	}
	fmt.Fprint(ev.out, displayValue(args[0]))
	return value.Nil{}, nil
}

func builtinPrintln(ev *Evaluator, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, arityError("println expects 1 argument, got %d", len(args))
	}
	fmt.Fprintln(ev.out, displayValue(args[0]))
	return value.Nil{}, nil
}

func builtinRead(ev *Evaluator, args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return nil, arityError("read expects 0 arguments, got %d", len(args))
	}
	if ev.in == nil {
		return value.Nil{}, nil
	}
	reader := bufio.NewReader(ev.in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return value.Nil{}, nil
	}
	return value.NewString(strings.TrimRight(line, "\r\n")), nil
}

// builtinStackTrace dumps only the innermost scope frame, returning
// "Empty trace" if the frame stack is empty — matching original_source's
// ExecuteStackTrace, which reads only scopes_.back(). The dump itself uses
// spew.Sdump for a richer rendering than a hand-rolled formatter.
func builtinStackTrace(ev *Evaluator, args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return nil, arityError("stacktrace expects 0 arguments, got %d", len(args))
	}
	if len(ev.scopes) == 0 {
		return value.NewString("Empty trace"), nil
	}
	innermost := ev.scopes[len(ev.scopes)-1]
	vars := make(map[string]string, len(innermost.vars))
	for k, v := range innermost.vars {
		vars[k] = v.String()
	}
	return value.NewString(strings.TrimSpace(spew.Sdump(vars))), nil
}

func builtinLen(ev *Evaluator, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, arityError("len expects 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case *value.String:
		return value.Number(len(v.V)), nil
	case *value.List:
		return value.Number(len(v.Items)), nil
	default:
		return nil, value.TypeError("len expects a string or list, got %s", v.TypeName())
	}
}

func builtinLower(ev *Evaluator, args []value.Value) (value.Value, error) {
	s, err := oneString("lower", args)
	if err != nil {
		return nil, err
	}
	return value.NewString(asciiLower(s.V)), nil
}

func builtinUpper(ev *Evaluator, args []value.Value) (value.Value, error) {
	s, err := oneString("upper", args)
	if err != nil {
		return nil, err
	}
	return value.NewString(asciiUpper(s.V)), nil
}

// asciiLower/asciiUpper are byte-wise, C-locale case conversions — not
// Unicode-aware — matching original_source's use of plain std::tolower/
// std::toupper per byte.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// builtinCapitalize mutates the string in place through the shared handle
// and also returns it, matching original_source's ExecuteCapitalize, which
// assigns directly into *arg.
func builtinCapitalize(ev *Evaluator, args []value.Value) (value.Value, error) {
	s, err := oneString("capitalize", args)
	if err != nil {
		return nil, err
	}
	if s.V == "" {
		return s, nil
	}
	b := []byte(s.V)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	s.V = string(b)
	return s, nil
}

func builtinSplit(ev *Evaluator, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, arityError("split expects 2 arguments, got %d", len(args))
	}
	s, ok := args[0].(*value.String)
	if !ok {
		return nil, value.TypeError("split expects a string as its first argument, got %s", args[0].TypeName())
	}
	sep, ok := args[1].(*value.String)
	if !ok {
		return nil, value.TypeError("split expects a string separator, got %s", args[1].TypeName())
	}
	parts := strings.Split(s.V, sep.V)
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.NewString(p)
	}
	return value.NewList(out), nil
}

func builtinJoin(ev *Evaluator, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, arityError("join expects 2 arguments, got %d", len(args))
	}
	list, ok := args[0].(*value.List)
	if !ok {
		return nil, value.TypeError("join expects a list as its first argument, got %s", args[0].TypeName())
	}
	sep, ok := args[1].(*value.String)
	if !ok {
		return nil, value.TypeError("join expects a string separator, got %s", args[1].TypeName())
	}
	parts := make([]string, len(list.Items))
	for i, it := range list.Items {
		s, ok := it.(*value.String)
		if !ok {
			return nil, value.TypeError("join expects a list of strings, found %s at index %d", it.TypeName(), i)
		}
		parts[i] = s.V
	}
	return value.NewString(strings.Join(parts, sep.V)), nil
}

func builtinReplace(ev *Evaluator, args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return nil, arityError("replace expects 3 arguments, got %d", len(args))
	}
	s, ok := args[0].(*value.String)
	if !ok {
		return nil, value.TypeError("replace expects a string, got %s", args[0].TypeName())
	}
	old, ok := args[1].(*value.String)
	if !ok {
		return nil, value.TypeError("replace expects a string search target, got %s", args[1].TypeName())
	}
	replacement, ok := args[2].(*value.String)
	if !ok {
		return nil, value.TypeError("replace expects a string replacement, got %s", args[2].TypeName())
	}
	return value.NewString(strings.ReplaceAll(s.V, old.V, replacement.V)), nil
}

func oneNumber(name string, args []value.Value) (float64, error) {
	if len(args) != 1 {
		return 0, arityError("%s expects 1 argument, got %d", name, len(args))
	}
	n, ok := args[0].(value.Number)
	if !ok {
		return 0, value.TypeError("%s expects a number, got %s", name, args[0].TypeName())
	}
	return float64(n), nil
}

func oneString(name string, args []value.Value) (*value.String, error) {
	if len(args) != 1 {
		return nil, arityError("%s expects 1 argument, got %d", name, len(args))
	}
	s, ok := args[0].(*value.String)
	if !ok {
		return nil, value.TypeError("%s expects a string, got %s", name, args[0].TypeName())
	}
	return s, nil
}

func builtinAbs(ev *Evaluator, args []value.Value) (value.Value, error) {
	n, err := oneNumber("abs", args)
	if err != nil {
		return nil, err
	}
	return value.Number(math.Abs(n)), nil
}

func builtinSqrt(ev *Evaluator, args []value.Value) (value.Value, error) {
	n, err := oneNumber("sqrt", args)
	if err != nil {
		return nil, err
	}
	return value.Number(math.Sqrt(n)), nil
}

func builtinCeil(ev *Evaluator, args []value.Value) (value.Value, error) {
	n, err := oneNumber("ceil", args)
	if err != nil {
		return nil, err
	}
	return value.Number(math.Ceil(n)), nil
}

func builtinFloor(ev *Evaluator, args []value.Value) (value.Value, error) {
	n, err := oneNumber("floor", args)
	if err != nil {
		return nil, err
	}
	return value.Number(math.Floor(n)), nil
}

func builtinRound(ev *Evaluator, args []value.Value) (value.Value, error) {
	n, err := oneNumber("round", args)
	if err != nil {
		return nil, err
	}
	return value.Number(math.Round(n)), nil
}

// builtinRnd returns a random float64 in [0, 1), seeded per SPEC_FULL.md's
// REDESIGN FLAGS item 7 (a reproducible PRNG, not the original's unseeded
// rand()).
func builtinRnd(ev *Evaluator, args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return nil, arityError("rnd expects 0 arguments, got %d", len(args))
	}
	return value.Number(ev.rng.Float64()), nil
}

func builtinParseNum(ev *Evaluator, args []value.Value) (value.Value, error) {
	s, err := oneString("parse_num", args)
	if err != nil {
		return nil, err
	}
	f, perr := strconv.ParseFloat(strings.TrimSpace(s.V), 64)
	if perr != nil {
		return nil, valueError("cannot parse %q as a number", s.V)
	}
	return value.Number(f), nil
}

// builtinToString formats any value the way it would display nested
// inside a list (strings quoted), not the way print() displays a top-level
// string (unquoted) — matching original_source's ToString recursion.
func builtinToString(ev *Evaluator, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, arityError("to_string expects 1 argument, got %d", len(args))
	}
	if s, ok := args[0].(*value.String); ok {
		return value.NewString(strconv.Quote(s.V)), nil
	}
	return value.NewString(args[0].String()), nil
}

// builtinRange implements range(start, end, step), strictly 3 arguments
// per spec's arity table and original_source's ExecuteRange, by walking a
// floating accumulator rather than a precomputed integer count, so a
// non-integer step that doesn't evenly divide the interval stops exactly
// where ordinary float accumulation error would leave it — preserved
// deliberately, per SPEC_FULL.md's SUPPLEMENTED FEATURES item 5.
func builtinRange(ev *Evaluator, args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return nil, arityError("range expects 3 arguments, got %d", len(args))
	}
	startN, ok := args[0].(value.Number)
	if !ok {
		return nil, value.TypeError("range expects a number, got %s", args[0].TypeName())
	}
	endN, ok := args[1].(value.Number)
	if !ok {
		return nil, value.TypeError("range expects a number, got %s", args[1].TypeName())
	}
	stepN, ok := args[2].(value.Number)
	if !ok {
		return nil, value.TypeError("range expects a number, got %s", args[2].TypeName())
	}
	start, end, step := float64(startN), float64(endN), float64(stepN)
	if step == 0 {
		return nil, valueError("range step must not be zero")
	}
	var out []value.Value
	if step > 0 {
		for i := start; i < end; i += step {
			out = append(out, value.Number(i))
		}
	} else {
		for i := start; i > end; i += step {
			out = append(out, value.Number(i))
		}
	}
	return value.NewList(out), nil
}

func builtinPush(ev *Evaluator, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, arityError("push expects 2 arguments, got %d", len(args))
	}
	list, ok := args[0].(*value.List)
	if !ok {
		return nil, value.TypeError("push expects a list, got %s", args[0].TypeName())
	}
	list.Items = append(list.Items, args[1])
	return list, nil
}

func builtinPop(ev *Evaluator, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, arityError("pop expects 1 argument, got %d", len(args))
	}
	list, ok := args[0].(*value.List)
	if !ok {
		return nil, value.TypeError("pop expects a list, got %s", args[0].TypeName())
	}
	if len(list.Items) == 0 {
		return nil, indexError("pop on an empty list")
	}
	last := list.Items[len(list.Items)-1]
	list.Items = list.Items[:len(list.Items)-1]
	return last, nil
}

func builtinInsert(ev *Evaluator, args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return nil, arityError("insert expects 3 arguments, got %d", len(args))
	}
	list, ok := args[0].(*value.List)
	if !ok {
		return nil, value.TypeError("insert expects a list, got %s", args[0].TypeName())
	}
	idxN, ok := args[1].(value.Number)
	if !ok {
		return nil, value.TypeError("insert expects a number index, got %s", args[1].TypeName())
	}
	idx := int(idxN)
	if idx < 0 || idx > len(list.Items) {
		return nil, indexError("insert index %d out of range (length %d)", idx, len(list.Items))
	}
	list.Items = append(list.Items[:idx], append([]value.Value{args[2]}, list.Items[idx:]...)...)
	return list, nil
}

func builtinRemove(ev *Evaluator, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, arityError("remove expects 2 arguments, got %d", len(args))
	}
	list, ok := args[0].(*value.List)
	if !ok {
		return nil, value.TypeError("remove expects a list, got %s", args[0].TypeName())
	}
	idxN, ok := args[1].(value.Number)
	if !ok {
		return nil, value.TypeError("remove expects a number index, got %s", args[1].TypeName())
	}
	idx := int(idxN)
	if idx < 0 || idx >= len(list.Items) {
		return nil, indexError("remove index %d out of range (length %d)", idx, len(list.Items))
	}
	removed := list.Items[idx]
	list.Items = append(list.Items[:idx], list.Items[idx+1:]...)
	return removed, nil
}

// builtinSort sorts a list in place. Number/String elements compare by
// value; two List elements compare by length ONLY, never by contents —
// preserved from original_source's sort comparator, which compares lists
// by .size() alone. A function anywhere in the list, or two elements of
// different types, is a TypeError rather than a fallback ordering —
// original_source's comparator throws in both cases instead of inventing
// a cross-type order.
func builtinSort(ev *Evaluator, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, arityError("sort expects 1 argument, got %d", len(args))
	}
	list, ok := args[0].(*value.List)
	if !ok {
		return nil, value.TypeError("sort expects a list, got %s", args[0].TypeName())
	}
	var sortErr error
	sort.SliceStable(list.Items, func(i, j int) bool {
		less, err := sortLess(list.Items[i], list.Items[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return less
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return list, nil
}

func sortLess(a, b value.Value) (bool, error) {
	if _, ok := a.(*Function); ok {
		return false, value.TypeError("sort cannot be applied to a list containing a function")
	}
	if _, ok := b.(*Function); ok {
		return false, value.TypeError("sort cannot be applied to a list containing a function")
	}
	if a.TypeName() != b.TypeName() {
		return false, value.TypeError("sort can only be applied to a list of a single type, got %s and %s", a.TypeName(), b.TypeName())
	}
	switch x := a.(type) {
	case value.Number:
		return x < b.(value.Number), nil
	case *value.String:
		return x.V < b.(*value.String).V, nil
	case *value.List:
		return len(x.Items) < len(b.(*value.List).Items), nil
	}
	return false, nil
}
