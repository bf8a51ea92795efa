// Package wisp is the root of the interpreter: it wires
// internal/lexer/internal/parser/internal/evaluator together behind one
// entry point, Interpret, matching original_source's
// lib/interpreter/interpreter.cpp try/catch-to-bool-return shape translated
// to Go's error-return-plus-recover idiom.
package wisp

import (
	"fmt"
	"io"
	"os"

	"fortio.org/log"

	"wisp/internal/evaluator"
	"wisp/internal/parser"
)

// Interpret reads r to EOF, lexes, parses, and evaluates it as one program,
// writing any produced output to w as it runs. On any lex, parse, or
// evaluation error, it writes the error's message followed by a newline to
// w and returns false; it never rolls back output already written. On
// clean completion it returns true. Interpret never panics outward: a
// defensive recover converts any internal panic into the same
// message-plus-false contract.
func Interpret(r io.Reader, w io.Writer) bool {
	return InterpretStdin(r, w, os.Stdin)
}

// InterpretStdin is Interpret with an overridable stdin, so read()'s input
// can be substituted in tests without touching the real process stdin.
func InterpretStdin(r io.Reader, w io.Writer, stdin io.Reader) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Warnf("interpreter: recovered from panic: %v", rec)
			fmt.Fprintf(w, "%v\n", rec)
			ok = false
		}
	}()

	src, err := io.ReadAll(r)
	if err != nil {
		fmt.Fprintf(w, "%v\n", err)
		return false
	}

	prog, err := parser.ParseProgram(string(src))
	if err != nil {
		fmt.Fprintf(w, "%v\n", err)
		return false
	}

	// read()'s blocking input comes from stdin, not from r — r is the
	// program source, already fully consumed above.
	ev := evaluator.New(w, stdin)
	if err := ev.Eval(prog); err != nil {
		fmt.Fprintf(w, "%v\n", err)
		return false
	}
	return true
}
