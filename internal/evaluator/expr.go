package evaluator

import (
	"fortio.org/log"
	"github.com/pkg/errors"

	"wisp/internal/ast"
	"wisp/internal/token"
	"wisp/internal/value"
)

func (ev *Evaluator) evalExpr(e ast.Expr) (value.Value, error) {
	switch n := e.(type) {
	case *ast.NumberLit:
		return value.Number(n.Value), nil
	case *ast.StringLit:
		return value.NewString(n.Value), nil
	case *ast.BoolLit:
		return value.Bool(n.Value), nil
	case *ast.NilLit:
		return value.Nil{}, nil
	case *ast.Identifier:
		return ev.evalIdentifier(n)
	case *ast.ListLit:
		return ev.evalListLit(n)
	case *ast.UnaryExpr:
		return ev.evalUnary(n)
	case *ast.BinaryExpr:
		return ev.evalBinary(n)
	case *ast.AssignExpr:
		return ev.evalAssign(n)
	case *ast.FunctionLit:
		return ev.evalFunctionLit(n), nil
	case *ast.NamedCallExpr:
		return ev.evalNamedCall(n)
	case *ast.UnnamedCallExpr:
		return ev.evalUnnamedCall(n)
	case *ast.SliceExpr:
		return ev.evalSlice(n)
	default:
		return nil, errors.Errorf("internal error: unhandled expression type %T", e)
	}
}

func (ev *Evaluator) evalIdentifier(n *ast.Identifier) (value.Value, error) {
	if v, ok := ev.findVariable(n.Name); ok {
		return v, nil
	}
	return nil, errors.Errorf("name error: variable %q is not defined", n.Name)
}

func (ev *Evaluator) evalListLit(n *ast.ListLit) (value.Value, error) {
	items := make([]value.Value, len(n.Elements))
	for i, el := range n.Elements {
		v, err := ev.evalExpr(el)
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return value.NewList(items), nil
}

func (ev *Evaluator) evalUnary(n *ast.UnaryExpr) (value.Value, error) {
	v, err := ev.evalExpr(n.X)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case token.Not:
		return value.Bool(!v.Truthy()), nil
	case token.Minus:
		return value.UnaryMinus(v)
	case token.Plus:
		return value.UnaryPlus(v)
	default:
		return nil, errors.Errorf("internal error: unhandled unary operator %s", n.Op)
	}
}

// evalBinary evaluates both operands unconditionally, including for
// and/or, which do not short-circuit — SPEC_FULL.md's REDESIGN FLAGS
// item 1, matching original_source's and/or being parsed and evaluated as
// ordinary binary operators.
func (ev *Evaluator) evalBinary(n *ast.BinaryExpr) (value.Value, error) {
	left, err := ev.evalExpr(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := ev.evalExpr(n.Right)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case token.Plus:
		return value.Add(left, right)
	case token.Minus:
		return value.Sub(left, right)
	case token.Multiply:
		return value.Mul(left, right)
	case token.Divide:
		return value.Div(left, right)
	case token.Modulo:
		return value.Mod(left, right)
	case token.Power:
		return value.Pow(left, right)
	case token.And:
		return value.Bool(left.Truthy() && right.Truthy()), nil
	case token.Or:
		return value.Bool(left.Truthy() || right.Truthy()), nil
	case token.Equal:
		return value.Bool(value.Equal(left, right)), nil
	case token.NotEqual:
		return value.Bool(!value.Equal(left, right)), nil
	case token.Less, token.LessOrEqual, token.Greater, token.GreaterOrEqual:
		return evalCompareOrder(n.Op, left, right)
	default:
		return nil, errors.Errorf("internal error: unhandled binary operator %s", n.Op)
	}
}

func evalCompareOrder(op token.Kind, left, right value.Value) (value.Value, error) {
	order, ok := value.Compare(left, right)
	if !ok {
		// No defined order for this pairing (cross-type, or two Function
		// values): every ordering comparison is false, matching the
		// generic-fallback behavior original_source falls back to for
		// mismatched variant alternatives. Lists DO have a defined order
		// (by length) — see value.Compare.
		return value.Bool(false), nil
	}
	switch op {
	case token.Less:
		return value.Bool(order < 0), nil
	case token.LessOrEqual:
		return value.Bool(order <= 0), nil
	case token.Greater:
		return value.Bool(order > 0), nil
	case token.GreaterOrEqual:
		return value.Bool(order >= 0), nil
	default:
		return nil, errors.Errorf("internal error: %s is not an ordering operator", op)
	}
}

// evalAssign implements `=` and the six compound `op=` forms. For a
// compound op, the LHS is read BEFORE the RHS is evaluated, matching
// original_source's CalculateAddAssign et al. (`node.lhs()->Calculate(...)`
// happens first, capturing the pre-RHS value; only then does
// `node.rhs()->Calculate(...)` run) — so `x=1 x+=(x=5)` reads x as 1, then
// evaluates the RHS (which sets x to 5), then adds, leaving x at 6, not 10.
func (ev *Evaluator) evalAssign(n *ast.AssignExpr) (value.Value, error) {
	if n.Op == token.Assign {
		rhs, err := ev.evalExpr(n.Value)
		if err != nil {
			return nil, err
		}
		ev.setVariable(n.LHS.Name, rhs)
		return rhs, nil
	}
	current, ok := ev.findVariable(n.LHS.Name)
	if !ok {
		return nil, errors.Errorf("name error: variable %q is not defined", n.LHS.Name)
	}
	rhs, err := ev.evalExpr(n.Value)
	if err != nil {
		return nil, err
	}
	var result value.Value
	switch n.Op {
	case token.AddAssign:
		result, err = value.Add(current, rhs)
	case token.SubAssign:
		result, err = value.Sub(current, rhs)
	case token.MultAssign:
		result, err = value.Mul(current, rhs)
	case token.DivAssign:
		result, err = value.Div(current, rhs)
	case token.ModAssign:
		result, err = value.Mod(current, rhs)
	case token.PowAssign:
		result, err = value.Pow(current, rhs)
	default:
		return nil, errors.Errorf("internal error: unhandled compound assignment %s", n.Op)
	}
	if err != nil {
		return nil, err
	}
	ev.setVariable(n.LHS.Name, result)
	return result, nil
}

func (ev *Evaluator) evalFunctionLit(n *ast.FunctionLit) *Function {
	closure := make([]frame, len(ev.scopes))
	copy(closure, ev.scopes)
	return &Function{Params: n.Params, Body: n.Body, Closure: closure}
}

// evalNamedCall dispatches a call to a resolved global builtin, or to a
// user-defined function looked up by name at call time. Both forms
// evaluate every argument expression against the CALLER's live scope chain
// before pushing the callee's frame, and bind parameters only after that
// push — the conventional order decided in SPEC_FULL.md's REDESIGN FLAGS
// item 8, instead of original_source's push-then-evaluate order.
func (ev *Evaluator) evalNamedCall(n *ast.NamedCallExpr) (value.Value, error) {
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := ev.evalExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	if n.Builtin != "" {
		impl, ok := builtins[n.Builtin]
		if !ok {
			return nil, errors.Errorf("internal error: unknown builtin %q", n.Builtin)
		}
		log.LogVf("eval: call builtin %s/%d", n.Builtin, len(args))
		return impl(ev, args)
	}
	if !ev.isFunctionName(n.Name) {
		return nil, errors.Errorf("name error: function %q with %d arguments not found", n.Name, len(args))
	}
	fnVal, ok := ev.findVariable(n.Name)
	if !ok {
		return nil, errors.Errorf("name error: function %q with %d arguments not found", n.Name, len(args))
	}
	fn, ok := fnVal.(*Function)
	if !ok {
		return nil, errors.Errorf("name error: function %q with %d arguments not found", n.Name, len(args))
	}
	if len(args) != len(fn.Params) {
		return nil, errors.Errorf("arity error: function %q expects %d arguments, got %d", n.Name, len(fn.Params), len(args))
	}
	return ev.callFunction(fn, args)
}

// evalUnnamedCall calls an arbitrary callee expression's value, validating
// arity unconditionally — SPEC_FULL.md's REDESIGN FLAGS item 6, a
// deliberate fix of original_source's UnnamedFunctionCallNode, which never
// checks argument count at all.
func (ev *Evaluator) evalUnnamedCall(n *ast.UnnamedCallExpr) (value.Value, error) {
	calleeVal, err := ev.evalExpr(n.Callee)
	if err != nil {
		return nil, err
	}
	fn, ok := calleeVal.(*Function)
	if !ok {
		return nil, errors.Errorf("type error: cannot call a value of type %s", calleeVal.TypeName())
	}
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := ev.evalExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	if fn.Builtin != nil {
		return fn.Builtin(ev, args)
	}
	if len(args) != len(fn.Params) {
		return nil, errors.Errorf("arity error: function expects %d arguments, got %d", len(fn.Params), len(args))
	}
	return ev.callFunction(fn, args)
}

// callFunction runs a user-defined function body against its captured
// closure scope plus a fresh call frame, consuming a Return control-flow
// signal unconditionally (both original_source call forms reset
// control_flow_ to Default after a call; this implementation unifies that
// into one path for both named and unnamed calls).
func (ev *Evaluator) callFunction(fn *Function, args []value.Value) (value.Value, error) {
	callerScopes := ev.scopes
	ev.scopes = append(append([]frame{}, fn.Closure...), newFrame())
	for i, p := range fn.Params {
		ev.declareLocal(p, args[i])
	}
	ev.retVal = value.Nil{}
	err := ev.execBlock(fn.Body)
	result := ev.retVal
	ev.cf = cfNormal
	ev.scopes = callerScopes
	if err != nil {
		return nil, err
	}
	return result, nil
}

// evalSlice resolves the 1-3 slice indices (filling in documented defaults
// for any omitted one) and dispatches to the string or list slicing rule.
func (ev *Evaluator) evalSlice(n *ast.SliceExpr) (value.Value, error) {
	target, err := ev.evalExpr(n.X)
	if err != nil {
		return nil, err
	}
	switch t := target.(type) {
	case *value.String:
		return ev.sliceString(t, n)
	case *value.List:
		return ev.sliceList(t, n)
	default:
		return nil, errors.Errorf("type error: cannot slice a value of type %s", target.TypeName())
	}
}

func (ev *Evaluator) resolveIndex(idx ast.SliceIndex, fallback int) (int, error) {
	if !idx.Present {
		return fallback, nil
	}
	v, err := ev.evalExpr(idx.Expr)
	if err != nil {
		return 0, err
	}
	n, ok := v.(value.Number)
	if !ok {
		return 0, errors.Errorf("type error: slice index must be a number, got %s", v.TypeName())
	}
	return int(n), nil
}
