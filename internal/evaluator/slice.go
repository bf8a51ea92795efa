package evaluator

import (
	"wisp/internal/ast"
	"wisp/internal/value"
)

// normalizeIndex folds a single negative index by adding length once,
// matching original_source's List::GetSublist normalization.
func normalizeIndex(i, length int) int {
	if i < 0 {
		return i + length
	}
	return i
}

// sliceList implements `list[a]`, `list[a:b]`, `list[a:b:c]`. The 2- and
// 3-index forms both treat the end index as exclusive-by-one (the parser
// hands the raw index straight through; the -1 adjustment to match the
// original's inclusive convention happens here, in one place, instead of
// being split between the parser and this function — see DESIGN.md).
func (ev *Evaluator) sliceList(l *value.List, n *ast.SliceExpr) (value.Value, error) {
	length := len(l.Items)
	if !n.End.Present && !n.Step.Present {
		i, err := ev.resolveIndex(n.Start, 0)
		if err != nil {
			return nil, err
		}
		i = normalizeIndex(i, length)
		if i < 0 || i >= length {
			return nil, indexError("list index %d out of range (length %d)", i, length)
		}
		return l.Items[i], nil
	}
	start, err := ev.resolveIndex(n.Start, 0)
	if err != nil {
		return nil, err
	}
	end, err := ev.resolveIndex(n.End, length)
	if err != nil {
		return nil, err
	}
	step, err := ev.resolveIndex(n.Step, 1)
	if err != nil {
		return nil, err
	}
	rawEnd := end
	if n.End.Present {
		rawEnd--
	} else {
		rawEnd = length - 1
	}
	// Mismatched-sign check happens on the RAW (pre-wrap) indices, matching
	// original_source's List::GetSublist, which checks sign before adding
	// length back in — checking after normalizeIndex has already wrapped a
	// negative index into a positive one destroys the very signs this rule
	// is meant to catch. Only applies when both bounds were explicitly
	// given; an omitted bound keeps this implementation's open-ended-slice
	// convenience default.
	if n.Start.Present && n.End.Present {
		if (start > 0 && rawEnd < 0) || (start < 0 && rawEnd > 0) {
			return value.NewList(nil), nil
		}
	}
	start = normalizeIndex(start, length)
	end = normalizeIndex(rawEnd, length)
	return value.NewList(subList(l.Items, start, end, step)), nil
}

// subList walks from start to end inclusive, stepping by step, clamping to
// valid indices. The mismatched-sign empty-result rule is checked by the
// caller on the raw, pre-normalization indices before they reach here.
func subList(items []value.Value, start, end, step int) []value.Value {
	length := len(items)
	if step == 0 {
		step = 1
	}
	if start < 0 {
		start = 0
	}
	if end >= length {
		end = length - 1
	}
	if start > end || start >= length || end < 0 {
		return nil
	}
	var out []value.Value
	if step > 0 {
		for i := start; i <= end; i += step {
			out = append(out, items[i])
		}
	} else {
		for i := start; i >= end; i += step {
			out = append(out, items[i])
		}
	}
	return out
}

// sliceString implements the string forms, indexing s.V as raw bytes — the
// same bytewise contract as len(), not runes. The 3-index form ignores the
// step and computes the identical substring as the 2-index form — a
// deliberately preserved quirk of original_source's ExecuteSlice, which
// computes substr(indices[0], indices[1]-indices[0]) regardless of whether
// a third index was supplied.
func (ev *Evaluator) sliceString(s *value.String, n *ast.SliceExpr) (value.Value, error) {
	length := len(s.V)
	if !n.End.Present && !n.Step.Present {
		i, err := ev.resolveIndex(n.Start, 0)
		if err != nil {
			return nil, err
		}
		// Strings do not wrap negative indices — unlike lists, a negative
		// index here is always an IndexError, matching the bounds check the
		// multi-index form below already applies with no normalization.
		if i < 0 || i >= length {
			return nil, indexError("string index %d out of range (length %d)", i, length)
		}
		return value.NewString(s.V[i : i+1]), nil
	}
	start, err := ev.resolveIndex(n.Start, 0)
	if err != nil {
		return nil, err
	}
	end, err := ev.resolveIndex(n.End, length)
	if err != nil {
		return nil, err
	}
	if start < 0 || end < 0 || start > length || end > length || start > end {
		return nil, indexError("string slice [%d:%d] out of range (length %d)", start, end, length)
	}
	return value.NewString(s.V[start:end]), nil
}
