// Package evaluator tree-walks an internal/ast.Program against a stack of
// variable scopes, in the shape of the teacher's Env/Evaluator pair
// (internal/evaluator/evaluator.go in the teacher repo) generalized to a
// scope *stack* with a parallel function-name-set stack, matching
// original_source/lib/AST/AbstractSyntaxTree.cpp's EvalVisitor field
// layout and control-flow-as-mutable-register design.
package evaluator

import (
	"io"
	"math/rand"
	"time"

	"fortio.org/log"
	"github.com/pkg/errors"

	"wisp/internal/ast"
	"wisp/internal/value"
)

// Function is a first-class function value: either a user-defined closure
// (Body/Params/Closure set, Builtin nil) or a reference to one of the 26
// global builtins (Builtin set). Function values are ALWAYS falsy, an
// intentional divergence from the "non-empty is truthy" rule that the rest
// of the type system follows, preserved from the original's GetBool
// special case.
type Function struct {
	Name    string
	Params  []string
	Body    []ast.Stmt
	Closure []frame // captured scope chain, copied by reference to each map
	Builtin Builtin
}

func (*Function) TypeName() string { return "function" }
func (*Function) Truthy() bool     { return false }

func (f *Function) String() string {
	if f.Builtin != nil {
		return "<builtin " + f.Name + ">"
	}
	return "<function>"
}

// Builtin is the Go implementation of one of the 26 global functions.
type Builtin func(ev *Evaluator, args []value.Value) (value.Value, error)

// controlFlow is the mutable control-flow register threaded through
// statement evaluation, replacing exception-style unwinding the way
// original_source's EvalVisitor::control_flow_ does.
type controlFlow int

const (
	cfNormal controlFlow = iota
	cfBreak
	cfContinue
	cfReturn
)

// frame is one scope level: a variable store plus the set of names in this
// frame that currently hold a Function value. The set is kept per-frame
// (not re-derived by type-checking values on lookup) and is only ever
// populated in the innermost frame when a function value is bound —
// matching original_source's function_names_ stack exactly, which a
// handful of shadowing-dependent behaviors in this language rely on.
type frame struct {
	vars          map[string]value.Value
	functionNames map[string]struct{}
}

func newFrame() frame {
	return frame{vars: map[string]value.Value{}, functionNames: map[string]struct{}{}}
}

// Evaluator holds the scope stack and I/O for one interpretation run.
type Evaluator struct {
	scopes []frame
	out    io.Writer
	in     io.Reader
	cf     controlFlow
	retVal value.Value
	rng    *rand.Rand
}

// New creates an Evaluator writing program output to out and reading
// read()'s input from in.
func New(out io.Writer, in io.Reader) *Evaluator {
	now := uint64(time.Now().UnixNano())
	return &Evaluator{
		scopes: []frame{newFrame()},
		out:    out,
		in:     in,
		rng:    rand.New(rand.NewSource(int64(now ^ 0x9E3779B97F4A7C15))),
	}
}

// pushScope pushes a fresh, empty frame.
func (ev *Evaluator) pushScope() {
	ev.scopes = append(ev.scopes, newFrame())
	log.LogVf("eval: push scope, depth=%d", len(ev.scopes))
}

// popScope pops the innermost frame.
func (ev *Evaluator) popScope() {
	ev.scopes = ev.scopes[:len(ev.scopes)-1]
	log.LogVf("eval: pop scope, depth=%d", len(ev.scopes))
}

// findVariable searches frames innermost-to-outermost, matching
// original_source's FindVariable, which walks scopes_ via rbegin()..rend().
func (ev *Evaluator) findVariable(name string) (value.Value, bool) {
	for i := len(ev.scopes) - 1; i >= 0; i-- {
		if v, ok := ev.scopes[i].vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// isFunctionName reports whether name is tracked as a function name in ANY
// frame, matching original_source's IsFunctionName, which scans the whole
// function_names_ stack, not just the innermost frame.
func (ev *Evaluator) isFunctionName(name string) bool {
	for i := len(ev.scopes) - 1; i >= 0; i-- {
		if _, ok := ev.scopes[i].functionNames[name]; ok {
			return true
		}
	}
	return false
}

// setVariable updates name in the innermost frame that already holds it
// (an if/while/for body mutating a variable declared by an enclosing
// block, or an enclosing function's call frame, is visible after the block
// exits), or creates it in the innermost frame if no frame holds it yet —
// matching original_source's SetVariable, which walks scopes_ outward
// looking for an existing binding before falling back to scopes_.back().
// A newly bound Function value is recorded into the innermost frame's
// function-name set, even when the variable itself lives in an outer
// frame, as original_source does with function_names_. isFunctionName
// searches every frame, so the name is found while that innermost frame is
// live; once it is popped, the name is no longer tracked even though the
// outer variable still holds the function.
func (ev *Evaluator) setVariable(name string, v value.Value) {
	target := len(ev.scopes) - 1
	for i := len(ev.scopes) - 1; i >= 0; i-- {
		if _, ok := ev.scopes[i].vars[name]; ok {
			target = i
			break
		}
	}
	ev.bindInFrame(target, name, v)
}

// declareLocal binds name in the innermost frame unconditionally, without
// searching outer frames first. Function parameters and for-loop variables
// use this, never setVariable's search-then-fallback: a parameter or loop
// variable must always introduce a fresh local, even when a same-named
// variable already exists in an enclosing scope, or calling a function
// would corrupt the caller's unrelated variable of the same name.
func (ev *Evaluator) declareLocal(name string, v value.Value) {
	ev.bindInFrame(len(ev.scopes)-1, name, v)
}

func (ev *Evaluator) bindInFrame(frameIdx int, name string, v value.Value) {
	ev.scopes[frameIdx].vars[name] = v
	innermost := len(ev.scopes) - 1
	if _, ok := v.(*Function); ok {
		ev.scopes[innermost].functionNames[name] = struct{}{}
	} else {
		delete(ev.scopes[innermost].functionNames, name)
	}
}

// SetSeed reseeds rnd()'s generator — used by tests that want
// deterministic output.
func (ev *Evaluator) SetSeed(seed1, seed2 uint64) {
	ev.rng = rand.New(rand.NewSource(int64(seed1 ^ seed2)))
}

// Eval runs prog to completion. A top-level `return` sets the control-flow
// register but does not stop subsequent top-level statements, matching
// original_source's RootNode visitor, which loops unconditionally.
func (ev *Evaluator) Eval(prog *ast.Program) error {
	for _, stmt := range prog.Statements {
		if err := ev.evalStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (ev *Evaluator) evalStmt(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.ExprStmt:
		_, err := ev.evalExpr(n.X)
		return err
	case *ast.IfStmt:
		return ev.evalIf(n)
	case *ast.WhileStmt:
		return ev.evalWhile(n)
	case *ast.ForStmt:
		return ev.evalFor(n)
	case *ast.BreakStmt:
		ev.cf = cfBreak
		return nil
	case *ast.ContinueStmt:
		ev.cf = cfContinue
		return nil
	case *ast.ReturnStmt:
		if n.Value == nil {
			ev.retVal = value.Nil{}
		} else {
			v, err := ev.evalExpr(n.Value)
			if err != nil {
				return err
			}
			ev.retVal = v
		}
		ev.cf = cfReturn
		return nil
	default:
		return errors.Errorf("internal error: unhandled statement type %T", s)
	}
}

// execBlock runs stmts in order, stopping early if the control-flow
// register becomes non-Normal (Break/Continue/Return all abort the rest of
// the block; the caller decides what to do with each).
func (ev *Evaluator) execBlock(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := ev.evalStmt(s); err != nil {
			return err
		}
		if ev.cf != cfNormal {
			return nil
		}
	}
	return nil
}

// evalIf pushes one shared scope for whichever branch runs, matching
// original_source's Visit(IfNode&), which pushes a single scope covering
// either the then-branch or the else/elseif chain, not one scope per
// branch attempt.
func (ev *Evaluator) evalIf(n *ast.IfStmt) error {
	cond, err := ev.evalExpr(n.Cond)
	if err != nil {
		return err
	}
	if cond.Truthy() {
		return ev.evalBranch(n.Body)
	}
	for _, ei := range n.ElseIfs {
		c, err := ev.evalExpr(ei.Cond)
		if err != nil {
			return err
		}
		if c.Truthy() {
			return ev.evalBranch(ei.Body)
		}
	}
	if n.Else != nil {
		return ev.evalBranch(n.Else)
	}
	return nil
}

func (ev *Evaluator) evalBranch(body []ast.Stmt) error {
	ev.pushScope()
	defer ev.popScope()
	return ev.execBlock(body)
}

// evalWhile resets Break/Continue to Normal at the top of every iteration
// and stops only on a false condition, a Return, or a Break — the unified
// reset discipline decided in SPEC_FULL.md's REDESIGN FLAGS item 3.
func (ev *Evaluator) evalWhile(n *ast.WhileStmt) error {
	for {
		if ev.cf == cfBreak || ev.cf == cfContinue {
			ev.cf = cfNormal
		}
		cond, err := ev.evalExpr(n.Cond)
		if err != nil {
			return err
		}
		if !cond.Truthy() {
			return nil
		}
		ev.pushScope()
		err = ev.execBlock(n.Body)
		ev.popScope()
		if err != nil {
			return err
		}
		switch ev.cf {
		case cfReturn:
			return nil
		case cfBreak:
			ev.cf = cfNormal
			return nil
		case cfContinue:
			ev.cf = cfNormal
		}
	}
}

// evalFor iterates a List's elements or a String's bytes (as one-byte
// Strings, matching the bytewise contract len()/slicing already follow),
// depending on Iter's runtime type, with the same unified Break/Continue
// reset discipline as evalWhile.
func (ev *Evaluator) evalFor(n *ast.ForStmt) error {
	iterVal, err := ev.evalExpr(n.Iter)
	if err != nil {
		return err
	}
	var items []value.Value
	switch it := iterVal.(type) {
	case *value.List:
		items = it.Items
	case *value.String:
		for i := 0; i < len(it.V); i++ {
			items = append(items, value.NewString(it.V[i:i+1]))
		}
	default:
		return errors.Errorf("type error: for loop requires a list or string, got %s", iterVal.TypeName())
	}
	for _, item := range items {
		if ev.cf == cfBreak || ev.cf == cfContinue {
			ev.cf = cfNormal
		}
		ev.pushScope()
		ev.declareLocal(n.Name, item)
		err := ev.execBlock(n.Body)
		ev.popScope()
		if err != nil {
			return err
		}
		switch ev.cf {
		case cfReturn:
			return nil
		case cfBreak:
			ev.cf = cfNormal
			return nil
		case cfContinue:
			ev.cf = cfNormal
		}
	}
	return nil
}
