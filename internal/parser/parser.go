// Package parser implements a recursive-descent statement parser and a
// Pratt/precedence-climbing expression parser, built in the shape of the
// teacher's hand-written parser (cur/next/match/expect helpers, a
// binding-power-driven expression loop) but retargeted to the control
// structures and operator table described by SPEC_FULL.md.
package parser

import (
	"strconv"

	"github.com/pkg/errors"

	"wisp/internal/ast"
	"wisp/internal/lexer"
	"wisp/internal/token"
)

// globalFunctions maps a bare identifier name to the builtin it resolves to
// at parse time. "slice" is deliberately absent — slice syntax is only
// reachable through the `x[a:b:c]` bracket form, never by name, matching
// original_source's kGlobalFunctions map.
var globalFunctions = map[string]string{
	"print":      "print",
	"println":    "println",
	"len":        "len",
	"read":       "read",
	"stacktrace": "stacktrace",
	"lower":      "lower",
	"upper":      "upper",
	"split":      "split",
	"join":       "join",
	"replace":    "replace",
	"capitalize": "capitalize",
	"abs":        "abs",
	"sqrt":       "sqrt",
	"ceil":       "ceil",
	"floor":      "floor",
	"round":      "round",
	"rnd":        "rnd",
	"parse_num":  "parse_num",
	"to_string":  "to_string",
	"range":      "range",
	"push":       "push",
	"pop":        "pop",
	"insert":     "insert",
	"remove":     "remove",
	"sort":       "sort",
}

// Binding powers, matching original_source/lib/Parser/Parser.hpp exactly.
const (
	lbpAssign  = -1
	rbpAssign  = -2
	lbpOr      = 1
	rbpOr      = 2
	lbpAnd     = 3
	rbpAnd     = 4
	lbpEq      = 5
	rbpEq      = 6
	lbpCompare = 7
	rbpCompare = 8
	lbpAddSub  = 9
	rbpAddSub  = 10
	lbpMulDiv  = 11
	rbpMulDiv  = 12
	rbpPower   = 14
	lbpPower   = 15
	prefixBP   = 17
	minBP      = -1 << 30
)

func leftBindingPower(k token.Kind) (int, bool) {
	switch k {
	case token.Assign, token.AddAssign, token.SubAssign, token.MultAssign,
		token.DivAssign, token.ModAssign, token.PowAssign:
		return lbpAssign, true
	case token.Or:
		return lbpOr, true
	case token.And:
		return lbpAnd, true
	case token.Equal, token.NotEqual:
		return lbpEq, true
	case token.Less, token.LessOrEqual, token.Greater, token.GreaterOrEqual:
		return lbpCompare, true
	case token.Plus, token.Minus:
		return lbpAddSub, true
	case token.Multiply, token.Divide, token.Modulo:
		return lbpMulDiv, true
	case token.Power:
		return lbpPower, true
	default:
		return 0, false
	}
}

func rightBindingPower(k token.Kind) int {
	switch k {
	case token.Assign, token.AddAssign, token.SubAssign, token.MultAssign,
		token.DivAssign, token.ModAssign, token.PowAssign:
		return rbpAssign
	case token.Or:
		return rbpOr
	case token.And:
		return rbpAnd
	case token.Equal, token.NotEqual:
		return rbpEq
	case token.Less, token.LessOrEqual, token.Greater, token.GreaterOrEqual:
		return rbpCompare
	case token.Plus, token.Minus:
		return rbpAddSub
	case token.Multiply, token.Divide, token.Modulo:
		return rbpMulDiv
	case token.Power:
		return rbpPower
	default:
		return 0
	}
}

// stopTokens are the kinds that terminate an expression's binary/postfix
// loop, matching original_source/lib/Parser/Parser.cpp's terminator set
// exactly.
func isStopToken(k token.Kind) bool {
	switch k {
	case token.EOF, token.Colon, token.EndLine, token.RParen, token.End,
		token.Then, token.ElseIf, token.Else, token.Comma, token.RBracket:
		return true
	default:
		return false
	}
}

// Parser consumes a full token stream up front (a Lexer is scanned to
// completion into a slice) so that arbitrary lookahead and backtracking —
// needed for distinguishing a bare identifier from a by-name call, and for
// the optional `then`/trailing separators — are simple index operations.
type Parser struct {
	toks []token.Token
	i    int
}

// New lexes src completely and returns a Parser ready to parse it.
func New(src string) (*Parser, error) {
	lx := lexer.New(src)
	var toks []token.Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, errors.Wrap(err, "lex error")
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return &Parser{toks: toks}, nil
}

func (p *Parser) cur() token.Token { return p.toks[p.i] }

func (p *Parser) next() token.Token {
	t := p.toks[p.i]
	if p.i < len(p.toks)-1 {
		p.i++
	}
	return t
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) match(k token.Kind) bool {
	if p.at(k) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if !p.at(k) {
		return token.Token{}, errors.Errorf("parse error at %s: expected %s, found %s", p.cur().Pos, k, p.cur().Kind)
	}
	return p.next(), nil
}

// skipEndLines consumes zero or more EndLine tokens, used at positions
// where a statement separator is optional (after `then`, inside argument
// lists, etc).
func (p *Parser) skipEndLines() {
	for p.at(token.EndLine) {
		p.next()
	}
}

// ParseProgram parses the full token stream into a Program.
func ParseProgram(src string) (*ast.Program, error) {
	p, err := New(src)
	if err != nil {
		return nil, err
	}
	prog := &ast.Program{}
	p.skipEndLines()
	for !p.at(token.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
		p.skipEndLines()
	}
	return prog, nil
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	p.skipEndLines()
	switch p.cur().Kind {
	case token.If:
		return p.parseIf()
	case token.While:
		return p.parseWhile()
	case token.For:
		return p.parseFor()
	case token.Break:
		pos := p.next().Pos
		return &ast.BreakStmt{Base: ast.Base{Position: pos}}, nil
	case token.Continue:
		pos := p.next().Pos
		return &ast.ContinueStmt{Base: ast.Base{Position: pos}}, nil
	case token.Return:
		pos := p.next().Pos
		if isStopToken(p.cur().Kind) {
			return &ast.ReturnStmt{Base: ast.Base{Position: pos}}, nil
		}
		val, err := p.ParseExpression(minBP)
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{Base: ast.Base{Position: pos}, Value: val}, nil
	default:
		pos := p.cur().Pos
		e, err := p.ParseExpression(minBP)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Base: ast.Base{Position: pos}, X: e}, nil
	}
}

func (p *Parser) parseBlockUntil(terminators ...token.Kind) ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	p.skipEndLines()
	for {
		for _, t := range terminators {
			if p.at(t) {
				return stmts, nil
			}
		}
		if p.at(token.EOF) {
			return nil, errors.Errorf("parse error at %s: unexpected end of input", p.cur().Pos)
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		p.skipEndLines()
	}
}

func (p *Parser) parseIf() (*ast.IfStmt, error) {
	pos := p.next().Pos // consume 'if'
	cond, err := p.ParseExpression(minBP)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Then); err != nil {
		return nil, err
	}
	body, err := p.parseBlockUntil(token.ElseIf, token.Else, token.End)
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{Base: ast.Base{Position: pos}, Cond: cond, Body: body}
	for p.at(token.ElseIf) {
		p.next()
		c, err := p.ParseExpression(minBP)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Then); err != nil {
			return nil, err
		}
		b, err := p.parseBlockUntil(token.ElseIf, token.Else, token.End)
		if err != nil {
			return nil, err
		}
		stmt.ElseIfs = append(stmt.ElseIfs, ast.ElseIfClause{Cond: c, Body: b})
	}
	if p.match(token.Else) {
		b, err := p.parseBlockUntil(token.End)
		if err != nil {
			return nil, err
		}
		stmt.Else = b
	}
	if _, err := p.expect(token.End); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.If); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (*ast.WhileStmt, error) {
	pos := p.next().Pos // consume 'while'
	cond, err := p.ParseExpression(minBP)
	if err != nil {
		return nil, err
	}
	p.match(token.Then)
	body, err := p.parseBlockUntil(token.End)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.End); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.While); err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Base: ast.Base{Position: pos}, Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (*ast.ForStmt, error) {
	pos := p.next().Pos // consume 'for'
	nameTok, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.In); err != nil {
		return nil, err
	}
	iter, err := p.ParseExpression(minBP)
	if err != nil {
		return nil, err
	}
	p.match(token.Then)
	body, err := p.parseBlockUntil(token.End)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.End); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.For); err != nil {
		return nil, err
	}
	return &ast.ForStmt{Base: ast.Base{Position: pos}, Name: nameTok.Lit, Iter: iter, Body: body}, nil
}

// ParseExpression parses an expression using precedence climbing with a
// minimum binding power, the same algorithm shape as the teacher's
// parseExpression(minPrec), but driven by the original's exact
// binding-power tables instead of santa-lang's.
func (p *Parser) ParseExpression(minBindingPower int) (ast.Expr, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for {
		cur := p.cur()
		if isStopToken(cur.Kind) {
			return left, nil
		}
		if cur.Kind == token.LParen {
			left, err = p.parseUnnamedCall(left)
			if err != nil {
				return nil, err
			}
			continue
		}
		if cur.Kind == token.LBracket {
			left, err = p.parseSlice(left)
			if err != nil {
				return nil, err
			}
			continue
		}
		if !cur.Kind.IsBinaryOperator() {
			return nil, errors.Errorf("parse error at %s: unknown binary operation %s", cur.Pos, cur.Kind)
		}
		lbp, _ := leftBindingPower(cur.Kind)
		if lbp < minBindingPower {
			return left, nil
		}
		p.next()
		rbp := rightBindingPower(cur.Kind)
		right, err := p.ParseExpression(rbp)
		if err != nil {
			return nil, err
		}
		if cur.Kind == token.Assign || cur.Kind.IsCompoundAssign() {
			ident, ok := left.(*ast.Identifier)
			if !ok {
				return nil, errors.Errorf("parse error at %s: the left operand of the assignment must be a variable", cur.Pos)
			}
			left = &ast.AssignExpr{Base: ast.Base{Position: cur.Pos}, Op: cur.Kind, LHS: ident, Value: right}
			continue
		}
		left = &ast.BinaryExpr{Base: ast.Base{Position: cur.Pos}, Op: cur.Kind, Left: left, Right: right}
	}
}

func (p *Parser) parsePrefix() (ast.Expr, error) {
	cur := p.cur()
	if cur.Kind == token.Not || cur.Kind == token.Plus || cur.Kind == token.Minus {
		p.next()
		operand, err := p.ParseExpression(prefixBP)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Base: ast.Base{Position: cur.Pos}, Op: cur.Kind, X: operand}, nil
	}
	switch cur.Kind {
	case token.Number:
		p.next()
		v, err := strconv.ParseFloat(cur.Lit, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse error at %s: invalid number literal %q", cur.Pos, cur.Lit)
		}
		return &ast.NumberLit{Base: ast.Base{Position: cur.Pos}, Value: v}, nil
	case token.String:
		p.next()
		return &ast.StringLit{Base: ast.Base{Position: cur.Pos}, Value: cur.Lit}, nil
	case token.True:
		p.next()
		return &ast.BoolLit{Base: ast.Base{Position: cur.Pos}, Value: true}, nil
	case token.False:
		p.next()
		return &ast.BoolLit{Base: ast.Base{Position: cur.Pos}, Value: false}, nil
	case token.Nil:
		p.next()
		return &ast.NilLit{Base: ast.Base{Position: cur.Pos}}, nil
	case token.LBracket:
		return p.parseList()
	case token.LParen:
		p.next()
		e, err := p.ParseExpression(minBP)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return e, nil
	case token.Function:
		return p.parseFunctionLit()
	case token.Identifier:
		return p.parseIdentifierOrCall()
	default:
		return nil, errors.Errorf("parse error at %s: incorrect expression, found %s", cur.Pos, cur.Kind)
	}
}

func (p *Parser) parseList() (ast.Expr, error) {
	pos := p.next().Pos // consume '['
	var elems []ast.Expr
	p.skipEndLines()
	for !p.at(token.RBracket) {
		e, err := p.ParseExpression(minBP)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		p.skipEndLines()
		if !p.match(token.Comma) {
			break
		}
		p.skipEndLines()
	}
	if _, err := p.expect(token.RBracket); err != nil {
		return nil, err
	}
	return &ast.ListLit{Base: ast.Base{Position: pos}, Elements: elems}, nil
}

func (p *Parser) parseFunctionLit() (ast.Expr, error) {
	pos := p.next().Pos // consume 'function'
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var params []string
	p.skipEndLines()
	for !p.at(token.RParen) {
		nameTok, err := p.expect(token.Identifier)
		if err != nil {
			return nil, err
		}
		params = append(params, nameTok.Lit)
		p.skipEndLines()
		if !p.match(token.Comma) {
			break
		}
		p.skipEndLines()
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlockUntil(token.End)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.End); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Function); err != nil {
		return nil, err
	}
	return &ast.FunctionLit{Base: ast.Base{Position: pos}, Params: params, Body: body}, nil
}

func (p *Parser) parseIdentifierOrCall() (ast.Expr, error) {
	nameTok := p.next()
	if !p.at(token.LParen) {
		return &ast.Identifier{Base: ast.Base{Position: nameTok.Pos}, Name: nameTok.Lit}, nil
	}
	args, err := p.parseArgList()
	if err != nil {
		return nil, err
	}
	if builtin, ok := globalFunctions[nameTok.Lit]; ok {
		return &ast.NamedCallExpr{Base: ast.Base{Position: nameTok.Pos}, Name: nameTok.Lit, Builtin: builtin, Args: args}, nil
	}
	return &ast.NamedCallExpr{Base: ast.Base{Position: nameTok.Pos}, Name: nameTok.Lit, Args: args}, nil
}

func (p *Parser) parseArgList() ([]ast.Expr, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var args []ast.Expr
	p.skipEndLines()
	for !p.at(token.RParen) {
		a, err := p.ParseExpression(minBP)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		p.skipEndLines()
		if !p.match(token.Comma) {
			break
		}
		p.skipEndLines()
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseUnnamedCall(callee ast.Expr) (ast.Expr, error) {
	pos := p.cur().Pos
	args, err := p.parseArgList()
	if err != nil {
		return nil, err
	}
	return &ast.UnnamedCallExpr{Base: ast.Base{Position: pos}, Callee: callee, Args: args}, nil
}

// parseSlice parses the `[` that follows an expression as a 1-3 index
// slice, lowering omitted indices to ast.SliceIndex{Present: false} instead
// of original_source's DBL_MIN sentinel literal.
func (p *Parser) parseSlice(x ast.Expr) (ast.Expr, error) {
	pos := p.next().Pos // consume '['
	if p.at(token.RBracket) {
		return nil, errors.Errorf("parse error at %s: empty slice expression", pos)
	}
	var idx []ast.SliceIndex
	for {
		if p.at(token.Colon) || p.at(token.RBracket) {
			idx = append(idx, ast.SliceIndex{Present: false})
		} else {
			e, err := p.ParseExpression(minBP)
			if err != nil {
				return nil, err
			}
			idx = append(idx, ast.SliceIndex{Expr: e, Present: true})
		}
		if p.match(token.Colon) {
			continue
		}
		break
	}
	if _, err := p.expect(token.RBracket); err != nil {
		return nil, err
	}
	if len(idx) < 1 || len(idx) > 3 {
		return nil, errors.Errorf("parse error at %s: slice expects 1 to 3 indices, found %d", pos, len(idx))
	}
	se := &ast.SliceExpr{Base: ast.Base{Position: pos}, X: x, Start: idx[0]}
	if len(idx) >= 2 {
		se.End = idx[1]
	} else {
		se.End = ast.SliceIndex{Present: false}
	}
	if len(idx) == 3 {
		se.Step = idx[2]
	} else {
		se.Step = ast.SliceIndex{Present: false}
	}
	return se, nil
}
