package evaluator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintVsToStringQuoting(t *testing.T) {
	// print() writes a top-level string unquoted; to_string() quotes it,
	// matching original_source's ToString recursion instead of print's
	// top-level special case.
	assert.Equal(t, "hi", run(t, `print("hi")`))
	assert.Equal(t, `"hi"`, run(t, `print(to_string("hi"))`))
}

func TestLenStringIsByteLength(t *testing.T) {
	assert.Equal(t, "3", run(t, `print(len("abc"))`))
	// "é" is one rune but two UTF-8 bytes; len must report the byte count.
	assert.Equal(t, "2", run(t, `print(len("é"))`))
	assert.Equal(t, "2", run(t, `print(len([1, 2]))`))
}

func TestCapitalizeMutatesInPlace(t *testing.T) {
	out := run(t, `
s = "hello"
t = s
capitalize(s)
print(t)
`)
	assert.Equal(t, "Hello", out)
}

func TestLowerUpperAreASCIIOnly(t *testing.T) {
	assert.Equal(t, "ABC", run(t, `print(upper("abc"))`))
	assert.Equal(t, "abc", run(t, `print(lower("ABC"))`))
}

func TestSplitJoinReplace(t *testing.T) {
	assert.Equal(t, `["a", "b", "c"]`, run(t, `print(split("a,b,c", ","))`))
	assert.Equal(t, "a-b-c", run(t, `print(join(["a", "b", "c"], "-"))`))
	assert.Equal(t, "xbc", run(t, `print(replace("abc", "a", "x"))`))
}

func TestMathBuiltins(t *testing.T) {
	assert.Equal(t, "3", run(t, `print(abs(-3))`))
	assert.Equal(t, "2", run(t, `print(sqrt(4))`))
	assert.Equal(t, "3", run(t, `print(ceil(2.1))`))
	assert.Equal(t, "2", run(t, `print(floor(2.9))`))
	assert.Equal(t, "3", run(t, `print(round(2.5))`))
}

func TestParseNumAndValueErrorOnGarbage(t *testing.T) {
	assert.Equal(t, "42", run(t, `print(parse_num("42"))`))
	err := runErr(t, `print(parse_num("nope"))`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value error")
}

func TestRangeIsStrictlyThreeArgs(t *testing.T) {
	assert.Equal(t, "[0, 1, 2]", run(t, `print(range(0, 3, 1))`))
	assert.Equal(t, "[1, 2]", run(t, `print(range(1, 3, 1))`))
	assert.Equal(t, "[0, 2, 4]", run(t, `print(range(0, 5, 2))`))

	err := runErr(t, `print(range(3))`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arity error")

	err = runErr(t, `print(range(1, 3))`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arity error")
}

func TestRangeZeroStepIsValueError(t *testing.T) {
	err := runErr(t, `print(range(0, 5, 0))`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value error")
}

func TestPushPopInsertRemove(t *testing.T) {
	assert.Equal(t, "[1, 2, 3]", run(t, "xs = [1, 2]\npush(xs, 3)\nprint(xs)"))
	assert.Equal(t, "3", run(t, "xs = [1, 2, 3]\nprint(pop(xs))"))
	assert.Equal(t, "[1, 9, 2]", run(t, "xs = [1, 2]\ninsert(xs, 1, 9)\nprint(xs)"))
	assert.Equal(t, "[1, 3]", run(t, "xs = [1, 2, 3]\nremove(xs, 1)\nprint(xs)"))
}

func TestPopOnEmptyListIsIndexError(t *testing.T) {
	err := runErr(t, `pop([])`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index error")
}

func TestSortComparesListsByLengthOnly(t *testing.T) {
	// Preserved quirk: two sub-lists compare purely by element count, never
	// by contents.
	out := run(t, `print(sort([[1, 2, 3], [1], [1, 2]]))`)
	assert.Equal(t, "[[1], [1, 2], [1, 2, 3]]", out)
}

func TestSortNumbersAndStrings(t *testing.T) {
	assert.Equal(t, "[1, 2, 3]", run(t, `print(sort([3, 1, 2]))`))
	assert.Equal(t, `["a", "b", "c"]`, run(t, `print(sort(["c", "a", "b"]))`))
}

func TestSortMixedTypesIsTypeError(t *testing.T) {
	err := runErr(t, `print(sort([1, "a"]))`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type error")
}

func TestSortListContainingFunctionIsTypeError(t *testing.T) {
	err := runErr(t, `
f = function(x)
  return x
end function
print(sort([f, f]))
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type error")
}
