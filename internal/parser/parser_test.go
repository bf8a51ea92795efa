package parser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisp/internal/ast"
	"wisp/internal/parser"
	"wisp/internal/token"
)

func parseExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	prog, err := parser.ParseProgram(src)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 1)
	stmt, ok := prog.Statements[0].(*ast.ExprStmt)
	require.True(t, ok, "expected an expression statement, got %T", prog.Statements[0])
	return stmt.X
}

func TestParsePowerIsRightAssociative(t *testing.T) {
	// 2 ^ 3 ^ 2 must parse as 2 ^ (3 ^ 2), not (2 ^ 3) ^ 2.
	e := parseExpr(t, "2 ^ 3 ^ 2")
	top, ok := e.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.Power, top.Op)
	left, ok := top.Left.(*ast.NumberLit)
	require.True(t, ok)
	assert.Equal(t, float64(2), left.Value)
	right, ok := top.Right.(*ast.BinaryExpr)
	require.True(t, ok, "expected the right operand to itself be a ^ expression")
	assert.Equal(t, token.Power, right.Op)
}

func TestParseAddSubIsLeftAssociative(t *testing.T) {
	e := parseExpr(t, "1 - 2 - 3")
	top, ok := e.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.Minus, top.Op)
	_, leftIsBinary := top.Left.(*ast.BinaryExpr)
	assert.True(t, leftIsBinary, "expected the left operand to be the earlier subtraction")
	_, rightIsNumber := top.Right.(*ast.NumberLit)
	assert.True(t, rightIsNumber)
}

func TestParseMulBindsTighterThanAdd(t *testing.T) {
	e := parseExpr(t, "1 + 2 * 3")
	top, ok := e.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.Plus, top.Op)
	right, ok := top.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.Multiply, right.Op)
}

func TestParseAssignRequiresIdentifierLHS(t *testing.T) {
	_, err := parser.ParseProgram("1 + 2 = 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "left operand of the assignment must be a variable")
}

func TestParseCompoundAssign(t *testing.T) {
	e := parseExpr(t, "x += 1")
	assign, ok := e.(*ast.AssignExpr)
	require.True(t, ok)
	assert.Equal(t, token.AddAssign, assign.Op)
	assert.Equal(t, "x", assign.LHS.Name)
}

func TestParseUnaryBindsTighterThanPower(t *testing.T) {
	// -2 ^ 2 parses as (-2) ^ 2 because prefix operators bind tighter than ^.
	e := parseExpr(t, "-2 ^ 2")
	top, ok := e.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, token.Power, top.Op)
	_, leftIsUnary := top.Left.(*ast.UnaryExpr)
	assert.True(t, leftIsUnary)
}

func TestParseNamedCallResolvesBuiltin(t *testing.T) {
	e := parseExpr(t, `len("abc")`)
	call, ok := e.(*ast.NamedCallExpr)
	require.True(t, ok)
	assert.Equal(t, "len", call.Builtin)
}

func TestParseNamedCallLeavesUserFunctionsUnresolved(t *testing.T) {
	e := parseExpr(t, "double(21)")
	call, ok := e.(*ast.NamedCallExpr)
	require.True(t, ok)
	assert.Empty(t, call.Builtin)
	assert.Equal(t, "double", call.Name)
}

func TestParseSliceOmittedIndices(t *testing.T) {
	e := parseExpr(t, "xs[:3]")
	slice, ok := e.(*ast.SliceExpr)
	require.True(t, ok)
	assert.False(t, slice.Start.Present)
	assert.True(t, slice.End.Present)
	assert.False(t, slice.Step.Present)
}

func TestParseSliceTooManyIndicesIsAnError(t *testing.T) {
	_, err := parser.ParseProgram("xs[1:2:3:4]")
	require.Error(t, err)
}

func TestParseEmptySliceIsAnError(t *testing.T) {
	_, err := parser.ParseProgram("xs[]")
	require.Error(t, err)
}

func TestParseIfElseIfElse(t *testing.T) {
	src := `
if a then
  1
elseif b then
  2
else
  3
end if
`
	prog, err := parser.ParseProgram(src)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 1)
	ifStmt, ok := prog.Statements[0].(*ast.IfStmt)
	require.True(t, ok)
	assert.Len(t, ifStmt.Body, 1)
	require.Len(t, ifStmt.ElseIfs, 1)
	assert.Len(t, ifStmt.Else, 1)
}

func TestParseWhileAndFor(t *testing.T) {
	prog, err := parser.ParseProgram("while x < 10 then x += 1 end while")
	require.NoError(t, err)
	_, ok := prog.Statements[0].(*ast.WhileStmt)
	assert.True(t, ok)

	prog, err = parser.ParseProgram("for item in xs then print(item) end for")
	require.NoError(t, err)
	forStmt, ok := prog.Statements[0].(*ast.ForStmt)
	require.True(t, ok)
	assert.Equal(t, "item", forStmt.Name)
}

func TestParseFunctionLiteralAndUnnamedCall(t *testing.T) {
	e := parseExpr(t, "(function(x, y) return x + y end function)(1, 2)")
	call, ok := e.(*ast.UnnamedCallExpr)
	require.True(t, ok)
	assert.Len(t, call.Args, 2)
	fn, ok := call.Callee.(*ast.FunctionLit)
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, fn.Params)
}

func TestParseBareReturn(t *testing.T) {
	e := parseExpr(t, "function() return end function")
	fn, ok := e.(*ast.FunctionLit)
	require.True(t, ok)
	require.Len(t, fn.Body, 1)
	ret, ok := fn.Body[0].(*ast.ReturnStmt)
	require.True(t, ok)
	assert.Nil(t, ret.Value)
}

func TestParseListLiteral(t *testing.T) {
	e := parseExpr(t, "[1, 2, 3]")
	list, ok := e.(*ast.ListLit)
	require.True(t, ok)
	assert.Len(t, list.Elements, 3)
}

// ignorePositions drops every node's Base (source position), which varies
// with whitespace and isn't part of the shape being asserted below.
var ignorePositions = cmpopts.IgnoreTypes(ast.Base{})

func TestParseBinaryExpressionShape(t *testing.T) {
	got := parseExpr(t, "1 + 2 * 3")
	want := &ast.BinaryExpr{
		Op:   token.Plus,
		Left: &ast.NumberLit{Value: 1},
		Right: &ast.BinaryExpr{
			Op:    token.Multiply,
			Left:  &ast.NumberLit{Value: 2},
			Right: &ast.NumberLit{Value: 3},
		},
	}
	if diff := cmp.Diff(want, got, ignorePositions); diff != "" {
		t.Errorf("parsed expression shape mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFunctionLiteralShape(t *testing.T) {
	got := parseExpr(t, "function(a, b) return a + b end function")
	want := &ast.FunctionLit{
		Params: []string{"a", "b"},
		Body: []ast.Stmt{
			&ast.ReturnStmt{
				Value: &ast.BinaryExpr{
					Op:    token.Plus,
					Left:  &ast.Identifier{Name: "a"},
					Right: &ast.Identifier{Name: "b"},
				},
			},
		},
	}
	if diff := cmp.Diff(want, got, ignorePositions); diff != "" {
		t.Errorf("parsed function literal shape mismatch (-want +got):\n%s", diff)
	}
}
