package evaluator_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisp/internal/evaluator"
	"wisp/internal/parser"
)

// run parses and evaluates src against a fresh Evaluator, returning whatever
// it wrote to its output writer.
func run(t *testing.T, src string) string {
	t.Helper()
	prog, err := parser.ParseProgram(src)
	require.NoError(t, err)
	var out bytes.Buffer
	ev := evaluator.New(&out, strings.NewReader(""))
	err = ev.Eval(prog)
	require.NoError(t, err)
	return out.String()
}

func runErr(t *testing.T, src string) error {
	t.Helper()
	prog, err := parser.ParseProgram(src)
	require.NoError(t, err)
	var out bytes.Buffer
	ev := evaluator.New(&out, strings.NewReader(""))
	return ev.Eval(prog)
}

func TestAssignmentInsideIfUpdatesOuterScope(t *testing.T) {
	// Regression case: if/while/for bodies each push their own scope frame,
	// so an assignment to an already-declared outer variable must search
	// outward and update it in place rather than shadowing it locally.
	out := run(t, `
a = 1
if a > 0 then
  a = 2
end if
print(a)
`)
	assert.Equal(t, "2", out)
}

func TestFunctionParameterShadowsSameNamedOuterVariable(t *testing.T) {
	// Regression case: binding a call's parameter must never mutate an
	// unrelated caller-scope variable that happens to share the parameter's
	// name.
	out := run(t, `
x = 100
f = function(x)
  x = x + 1
  return x
end function
print(f(1))
print(x)
`)
	assert.Equal(t, "2100", out)
}

func TestForLoopVariableShadowsOuterVariable(t *testing.T) {
	out := run(t, `
item = "outer"
for item in [1, 2] then
end for
print(item)
`)
	assert.Equal(t, "outer", out)
}

func TestWhileLoopBreakAndContinue(t *testing.T) {
	out := run(t, `
i = 0
total = 0
while i < 10 then
  i = i + 1
  if i == 5 then
    break
  end if
  if i % 2 == 0 then
    continue
  end if
  total = total + i
end while
print(total)
`)
	// i counts 1,2,3,4 before the break fires at i==5; odd values 1,3 are
	// accumulated, even values skipped by continue.
	assert.Equal(t, "4", out)
}

func TestFunctionReturnStopsExecution(t *testing.T) {
	out := run(t, `
f = function(x)
  if x < 0 then
    return "negative"
  end if
  return "non-negative"
end function
print(f(-1))
print(f(1))
`)
	assert.Equal(t, "negativenon-negative", out)
}

func TestClosureCapturesDefiningScope(t *testing.T) {
	out := run(t, `
make_adder = function(n)
  return function(x) return x + n end function
end function
add5 = make_adder(5)
print(add5(10))
`)
	assert.Equal(t, "15", out)
}

func TestAndOrDoNotShortCircuit(t *testing.T) {
	// Both operands are always evaluated, so a side-effecting right operand
	// of `or` still runs even though the left operand is already truthy.
	out := run(t, `
calls = 0
noisy = function()
  calls = calls + 1
  return true
end function
x = true or noisy()
print(calls)
`)
	assert.Equal(t, "1", out)
}

func TestTopLevelReturnDoesNotHaltProgram(t *testing.T) {
	out := run(t, `
return 1
print("still runs")
`)
	assert.Equal(t, "still runs", out)
}

func TestUndefinedVariableIsNameError(t *testing.T) {
	err := runErr(t, "print(nope)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name error")
}

func TestArityMismatchOnCallIsAnError(t *testing.T) {
	err := runErr(t, `
f = function(x, y) return x end function
f(1)
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arity error")
}

func TestFunctionValuesAreAlwaysFalsy(t *testing.T) {
	out := run(t, `
f = function() end function
if f then
  print("truthy")
else
  print("falsy")
end if
`)
	assert.Equal(t, "falsy", out)
}

func TestListMutationAliasing(t *testing.T) {
	out := run(t, `
xs = [1, 2]
ys = xs
push(ys, 3)
print(xs)
`)
	assert.Equal(t, "[1, 2, 3]", out)
}

func TestSeedableRandomIsDeterministic(t *testing.T) {
	prog, err := parser.ParseProgram("print(rnd())")
	require.NoError(t, err)

	var out1, out2 bytes.Buffer
	ev1 := evaluator.New(&out1, strings.NewReader(""))
	ev1.SetSeed(1, 2)
	require.NoError(t, ev1.Eval(prog))

	ev2 := evaluator.New(&out2, strings.NewReader(""))
	ev2.SetSeed(1, 2)
	require.NoError(t, ev2.Eval(prog))

	assert.Equal(t, out1.String(), out2.String())
}

func TestCompoundAssignReadsLHSBeforeRHS(t *testing.T) {
	// x starts at 1; the RHS assignment (x=5) must not be visible to the
	// LHS read of the += — so 1+5 is the computation, landing on 6, not
	// 5+5 landing on 10.
	out := run(t, `
x = 1
x += (x = 5)
print(x)
`)
	assert.Equal(t, "6", out)
}

func TestListOrderingComparesLengthOnly(t *testing.T) {
	assert.Equal(t, "1\n", run(t, `println([1, 2] < [1, 2, 3])`))
	assert.Equal(t, "0\n", run(t, `println([1, 2, 3] < [1, 2])`))
	assert.Equal(t, "1\n", run(t, `println([1, 2, 3] <= [1, 2, 3])`))
}
