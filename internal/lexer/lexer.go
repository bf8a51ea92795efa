// Package lexer turns source text into a stream of internal/token.Token
// values. It is a streaming, stateful lexer with a one-token save/restore
// peek, in the spirit of the teacher's hand-written scanner but reworked to
// match the token set and scanning rules of the language described by
// SPEC_FULL.md.
package lexer

import (
	"strconv"
	"strings"

	"fortio.org/log"
	"github.com/pkg/errors"

	"wisp/internal/token"
)

// Lexer scans src one rune at a time, tracking line/column for diagnostics.
type Lexer struct {
	src    []rune
	pos    int
	line   int
	column int
}

// New creates a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, column: 1}
}

func (l *Lexer) atEOF() bool { return l.pos >= len(l.src) }

func (l *Lexer) peekRune() rune {
	if l.atEOF() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekRuneAt(offset int) rune {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

func (l *Lexer) pos0() token.Position { return token.Position{Line: l.line, Column: l.column} }

// skipSpaces skips ' ', '\t' and '\r' — newlines are significant statement
// separators and are never skipped here.
func (l *Lexer) skipSpaces() {
	for !l.atEOF() {
		switch l.peekRune() {
		case ' ', '\t', '\r':
			l.advance()
		default:
			return
		}
	}
}

// skipComments consumes a line comment ("//...") or block comment
// ("/* ... */") starting at the current position, if any. An unterminated
// block comment is a fatal lex error, matching original_source's
// SkipComments, which throws rather than silently swallowing the rest of
// the file.
func (l *Lexer) skipComments() error {
	for {
		l.skipSpaces()
		if l.peekRune() != '/' {
			return nil
		}
		switch l.peekRuneAt(1) {
		case '/':
			l.advance()
			l.advance()
			for !l.atEOF() && l.peekRune() != '\n' {
				l.advance()
			}
		case '*':
			start := l.pos0()
			l.advance()
			l.advance()
			closed := false
			for !l.atEOF() {
				if l.peekRune() == '*' && l.peekRuneAt(1) == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return errors.Errorf("lex error at %s: unclosed comment", start)
			}
		default:
			return nil
		}
	}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
func isAlpha(r rune) bool { return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isAlnum(r rune) bool { return isAlpha(r) || isDigit(r) }

// Peek returns the next token without consuming it, by saving and restoring
// the scan cursor around a call to Next — the same save/restore strategy
// original_source's Lexer::GetPeek uses.
func (l *Lexer) Peek() (token.Token, error) {
	saved := *l
	tok, err := l.Next()
	*l = saved
	return tok, err
}

// Next scans and returns the next token, advancing the lexer.
func (l *Lexer) Next() (token.Token, error) {
	if err := l.skipComments(); err != nil {
		return token.Token{}, err
	}
	if l.atEOF() {
		return token.Token{Kind: token.EOF, Pos: l.pos0()}, nil
	}

	start := l.pos0()

	if r := l.peekRune(); r == '\n' {
		l.advance()
		return token.Token{Kind: token.EndLine, Pos: start}, nil
	}

	if tok, ok, err := l.scanDelimiter(start); ok || err != nil {
		return tok, err
	}
	if tok, ok := l.scanOperator(start); ok {
		return tok, nil
	}
	if tok, ok, err := l.scanString(start); ok || err != nil {
		return tok, err
	}
	if tok, ok, err := l.scanNumber(start); ok || err != nil {
		return tok, err
	}
	if tok, ok := l.scanKeyword(start); ok {
		return tok, nil
	}
	if tok, ok := l.scanIdentifier(start); ok {
		return tok, nil
	}

	bad := l.advance()
	log.LogVf("lex: incorrect token %q at %s", bad, start)
	return token.Token{Kind: token.Incorrect, Lit: string(bad), Pos: start}, nil
}

var delimiters = map[rune]token.Kind{
	',': token.Comma,
	':': token.Colon,
	'(': token.LParen,
	')': token.RParen,
	'[': token.LBracket,
	']': token.RBracket,
}

func (l *Lexer) scanDelimiter(start token.Position) (token.Token, bool, error) {
	if k, ok := delimiters[l.peekRune()]; ok {
		l.advance()
		return token.Token{Kind: k, Pos: start}, true, nil
	}
	return token.Token{}, false, nil
}

var twoCharOperators = map[string]token.Kind{
	"==": token.Equal,
	"!=": token.NotEqual,
	">=": token.GreaterOrEqual,
	"<=": token.LessOrEqual,
	"+=": token.AddAssign,
	"-=": token.SubAssign,
	"*=": token.MultAssign,
	"/=": token.DivAssign,
	"%=": token.ModAssign,
	"^=": token.PowAssign,
}

var oneCharOperators = map[rune]token.Kind{
	'+': token.Plus,
	'-': token.Minus,
	'*': token.Multiply,
	'/': token.Divide,
	'%': token.Modulo,
	'^': token.Power,
	'=': token.Assign,
	'<': token.Less,
	'>': token.Greater,
}

func (l *Lexer) scanOperator(start token.Position) (token.Token, bool) {
	two := string(l.peekRune()) + string(l.peekRuneAt(1))
	if k, ok := twoCharOperators[two]; ok {
		l.advance()
		l.advance()
		return token.Token{Kind: k, Pos: start}, true
	}
	if k, ok := oneCharOperators[l.peekRune()]; ok {
		l.advance()
		return token.Token{Kind: k, Pos: start}, true
	}
	return token.Token{}, false
}

// scanString scans a double-quoted string literal, processing the escape
// table \n \t \r \" \\ \0 plus a fallback that passes through any other
// escaped character literally, matching original_source's GetStringLiteral.
// An EOF before the closing quote, or immediately after a trailing
// backslash, produces an Incorrect token.
func (l *Lexer) scanString(start token.Position) (token.Token, bool, error) {
	if l.peekRune() != '"' {
		return token.Token{}, false, nil
	}
	l.advance()
	var sb strings.Builder
	for {
		if l.atEOF() {
			return token.Token{Kind: token.Incorrect, Lit: sb.String(), Pos: start}, true, nil
		}
		r := l.peekRune()
		if r == '"' {
			l.advance()
			return token.Token{Kind: token.String, Lit: sb.String(), Pos: start}, true, nil
		}
		if r == '\\' {
			l.advance()
			if l.atEOF() {
				return token.Token{Kind: token.Incorrect, Lit: sb.String(), Pos: start}, true, nil
			}
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case '0':
				sb.WriteByte(0)
			default:
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(r)
		l.advance()
	}
}

// scanNumber scans a run of digits/'.'/'e'/'E'/sign-after-exponent
// characters and validates the whole run parses as a float64 in one shot,
// backtracking (returning ok=false) if it doesn't — matching
// original_source's stod-based full-consumption check. A malformed numeric
// run therefore falls through to become an Incorrect token at the call
// site in Next, one rune at a time.
func (l *Lexer) scanNumber(start token.Position) (token.Token, bool, error) {
	if !isDigit(l.peekRune()) {
		return token.Token{}, false, nil
	}
	mark := *l
	var sb strings.Builder
	for isDigit(l.peekRune()) {
		sb.WriteRune(l.advance())
	}
	if l.peekRune() == '.' && isDigit(l.peekRuneAt(1)) {
		sb.WriteRune(l.advance())
		for isDigit(l.peekRune()) {
			sb.WriteRune(l.advance())
		}
	}
	if l.peekRune() == 'e' || l.peekRune() == 'E' {
		save := *l
		exp := string(l.advance())
		if l.peekRune() == '+' || l.peekRune() == '-' {
			exp += string(l.advance())
		}
		if isDigit(l.peekRune()) {
			for isDigit(l.peekRune()) {
				exp += string(l.advance())
			}
			sb.WriteString(exp)
		} else {
			*l = save
		}
	}
	lit := sb.String()
	if _, err := strconv.ParseFloat(lit, 64); err != nil {
		*l = mark
		return token.Token{}, false, nil
	}
	return token.Token{Kind: token.Number, Lit: lit, Pos: start}, true, nil
}

func (l *Lexer) scanKeyword(start token.Position) (token.Token, bool) {
	mark := *l
	if !isAlpha(l.peekRune()) {
		return token.Token{}, false
	}
	var sb strings.Builder
	for isAlpha(l.peekRune()) {
		sb.WriteRune(l.advance())
	}
	word := sb.String()
	if k, ok := token.Keywords[word]; ok {
		return token.Token{Kind: k, Lit: word, Pos: start}, true
	}
	*l = mark
	return token.Token{}, false
}

// scanIdentifier scans an identifier: must not start with a digit (digits
// are handled by scanNumber) and, per original_source's GetIdentifier, must
// not start with '_' either — a leading underscore backtracks to nothing
// and the caller falls through to an Incorrect single-character token.
func (l *Lexer) scanIdentifier(start token.Position) (token.Token, bool) {
	if l.peekRune() == '_' || isDigit(l.peekRune()) || !isAlnum(l.peekRune()) {
		return token.Token{}, false
	}
	var sb strings.Builder
	for isAlnum(l.peekRune()) {
		sb.WriteRune(l.advance())
	}
	return token.Token{Kind: token.Identifier, Lit: sb.String(), Pos: start}, true
}
