package wisp_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisp"
)

func TestInterpretScenarios(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "hello world",
			src:  `print("Hello, world!")`,
			want: "Hello, world!",
		},
		{
			name: "arithmetic precedence",
			src:  `println(1 + 2 * 3)`,
			want: "7\n",
		},
		{
			name: "closures and recursion",
			src: `
fib = function(n)
  if n < 2 then
    return n
  end if
  return fib(n - 1) + fib(n - 2)
end function
println(fib(10))
`,
			want: "55\n",
		},
		{
			name: "function literal assigned then called",
			src:  "f = function(x) return x*x end function\nprint(f(7))",
			want: "49",
		},
		{
			name: "list builtins compose",
			src: `
xs = range(0, 5, 1)
ys = []
for x in xs then
  if x % 2 == 0 then
    push(ys, x)
  end if
end for
println(ys)
`,
			want: "[0, 2, 4]\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			ok := wisp.Interpret(strings.NewReader(tc.src), &out)
			require.True(t, ok, "expected clean completion, output: %s", out.String())
			assert.Equal(t, tc.want, out.String())
		})
	}
}

func TestInterpretReportsParseErrorAndReturnsFalse(t *testing.T) {
	var out bytes.Buffer
	ok := wisp.Interpret(strings.NewReader("1 + "), &out)
	assert.False(t, ok)
	assert.NotEmpty(t, out.String())
}

func TestInterpretReportsEvaluationErrorAndReturnsFalse(t *testing.T) {
	var out bytes.Buffer
	ok := wisp.Interpret(strings.NewReader("print(undefined_name)"), &out)
	assert.False(t, ok)
	assert.Contains(t, out.String(), "name error")
}

func TestInterpretStdinFeedsRead(t *testing.T) {
	var out bytes.Buffer
	ok := wisp.InterpretStdin(strings.NewReader(`println(read())`), &out, strings.NewReader("hello\n"))
	require.True(t, ok)
	assert.Equal(t, "hello\n", out.String())
}
