// Package ast defines the syntax tree produced by internal/parser and
// walked by internal/evaluator. Node variants mirror the teacher's
// marker-interface style (Stmt/Expr tag methods) generalized to the
// imperative, statement-oriented grammar described by SPEC_FULL.md.
package ast

import "wisp/internal/token"

// Stmt is implemented by every statement node.
type Stmt interface {
	isStmt()
	Pos() token.Position
}

// Expr is implemented by every expression node.
type Expr interface {
	isExpr()
	Pos() token.Position
}

// Base carries the source position every node embeds; it is exported so
// internal/parser (a separate package) can set it via a struct literal.
type Base struct{ Position token.Position }

func (b Base) Pos() token.Position { return b.Position }

// Program is the root of a parsed source file: a flat list of top-level
// statements, executed in order with no halt on a top-level return.
type Program struct {
	Statements []Stmt
}

// ---- Statements ----

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	Base
	X Expr
}

func (*ExprStmt) isStmt() {}

// IfStmt is `if COND then BODY (elseif COND then BODY)* (else BODY)? end if`.
// ElseIfs holds zero or more additional condition/body pairs; Else holds the
// final else body, if any (nil slice, not a distinguished "absent" marker,
// when there is no else clause).
type IfStmt struct {
	Base
	Cond     Expr
	Body     []Stmt
	ElseIfs  []ElseIfClause
	Else     []Stmt
}

func (*IfStmt) isStmt() {}

// ElseIfClause is one `elseif COND then BODY` arm of an IfStmt.
type ElseIfClause struct {
	Cond Expr
	Body []Stmt
}

// WhileStmt is `while COND (then)? BODY end while`.
type WhileStmt struct {
	Base
	Cond Expr
	Body []Stmt
}

func (*WhileStmt) isStmt() {}

// ForStmt is `for NAME in EXPR (then)? BODY end for`, iterating either a
// list's elements or a string's characters depending on EXPR's runtime
// type.
type ForStmt struct {
	Base
	Name string
	Iter Expr
	Body []Stmt
}

func (*ForStmt) isStmt() {}

// BreakStmt is `break`.
type BreakStmt struct{ Base }

func (*BreakStmt) isStmt() {}

// ContinueStmt is `continue`.
type ContinueStmt struct{ Base }

func (*ContinueStmt) isStmt() {}

// ReturnStmt is `return EXPR`. Value is nil for a bare `return` (yields
// Nil).
type ReturnStmt struct {
	Base
	Value Expr
}

func (*ReturnStmt) isStmt() {}

// ---- Expressions ----

// NumberLit is a numeric literal, already parsed to float64.
type NumberLit struct {
	Base
	Value float64
}

func (*NumberLit) isExpr() {}

// StringLit is a string literal with escapes already resolved.
type StringLit struct {
	Base
	Value string
}

func (*StringLit) isExpr() {}

// NilLit is the `nil` literal.
type NilLit struct{ Base }

func (*NilLit) isExpr() {}

// BoolLit is `true`/`false`, which the language represents as Number(1)/
// Number(0) at evaluation time but which the parser keeps distinct for
// clearer diagnostics and AST dumps.
type BoolLit struct {
	Base
	Value bool
}

func (*BoolLit) isExpr() {}

// Identifier is a variable reference.
type Identifier struct {
	Base
	Name string
}

func (*Identifier) isExpr() {}

// ListLit is `[e1, e2, ...]`.
type ListLit struct {
	Base
	Elements []Expr
}

func (*ListLit) isExpr() {}

// UnaryExpr is a prefix operator: not, unary -, unary +.
type UnaryExpr struct {
	Base
	Op token.Kind
	X  Expr
}

func (*UnaryExpr) isExpr() {}

// BinaryExpr is an infix operator application, including and/or (which do
// not short-circuit) and the comparison/arithmetic operators.
type BinaryExpr struct {
	Base
	Op    token.Kind
	Left  Expr
	Right Expr
}

func (*BinaryExpr) isExpr() {}

// AssignExpr is `LHS op= RHS` for op in {=, +, -, *, /, %, ^}; Op is
// token.Assign for plain `=`. LHS must be an Identifier.
type AssignExpr struct {
	Base
	Op    token.Kind
	LHS   *Identifier
	Value Expr
}

func (*AssignExpr) isExpr() {}

// FunctionLit is `function(p1, p2, ...) BODY end function`.
type FunctionLit struct {
	Base
	Params []string
	Body   []Stmt
}

func (*FunctionLit) isExpr() {}

// NamedCallExpr is a call to an identifier resolved at parse time either to
// a global builtin (Builtin != "") or to a user-defined function looked up
// by name at call time.
type NamedCallExpr struct {
	Base
	Name    string
	Builtin string // non-empty for one of the 25 by-name global builtins
	Args    []Expr
}

func (*NamedCallExpr) isExpr() {}

// UnnamedCallExpr is a call through an arbitrary callee expression, e.g.
// `(function(x) x end function)(1)` or `f()()`.
type UnnamedCallExpr struct {
	Base
	Callee Expr
	Args   []Expr
}

func (*UnnamedCallExpr) isExpr() {}

// SliceIndex is one of a slice expression's 1-3 index positions. Present is
// false for an omitted index (`x[:n]`, `x[n:]`, `x[::s]`), letting the
// evaluator fill in the documented default (0 for start, len for end, 1 for
// step) instead of propagating a sentinel value through evaluation.
type SliceIndex struct {
	Expr    Expr
	Present bool
}

// SliceExpr is `X[a]`, `X[a:b]`, or `X[a:b:c]`, lowered here from the
// bracket syntax rather than surfaced as a call to a builtin named "slice"
// in source — `slice` has no textual spelling, matching original_source's
// kGlobalFunctions map, which deliberately omits it.
type SliceExpr struct {
	Base
	X     Expr
	Start SliceIndex
	End   SliceIndex
	Step  SliceIndex
}

func (*SliceExpr) isExpr() {}
