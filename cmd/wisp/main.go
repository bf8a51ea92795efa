// Command wisp runs programs written in the language implemented by the
// wisp package: a file runner, debug token/AST dumpers, and a
// liner-backed REPL, in the shape of the teacher's cmd/elf/main.go merged
// with daios-ai-msg/mindscript/cmd/main.go's flag-and-liner REPL pattern.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"fortio.org/log"
	"github.com/peterh/liner"

	"wisp"
	"wisp/internal/evaluator"
	"wisp/internal/lexer"
	"wisp/internal/parser"
	"wisp/internal/token"
)

func main() {
	verbose := flag.Bool("v", false, "enable verbose logging")
	veryVerbose := flag.Bool("vv", false, "enable very verbose (trace) logging")
	flag.Parse()

	switch {
	case *veryVerbose:
		log.SetLogLevel(log.Debug)
	case *verbose:
		log.SetLogLevel(log.Verbose)
	}

	args := flag.Args()
	if len(args) >= 2 && args[0] == "tokens" {
		os.Exit(runTokens(args[1]))
	}
	if len(args) >= 2 && args[0] == "ast" {
		os.Exit(runAST(args[1]))
	}
	if len(args) >= 2 && args[0] == "run" {
		os.Exit(runFile(args[1]))
	}
	if len(args) >= 1 {
		os.Exit(runFile(args[0]))
	}
	os.Exit(runREPL())
}

func runFile(path string) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer f.Close()
	if wisp.Interpret(f, os.Stdout) {
		return 0
	}
	return 1
}

func runTokens(path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	lx := lexer.New(string(src))
	var toks []token.Token
	for {
		tok, err := lx.Next()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for _, t := range toks {
		enc.Encode(struct {
			Kind string `json:"kind"`
			Lit  string `json:"lit,omitempty"`
		}{Kind: t.Kind.String(), Lit: t.Lit})
	}
	return 0
}

func runAST(path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	prog, err := parser.ParseProgram(string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return boolToExit(enc.Encode(prog) == nil)
}

func boolToExit(ok bool) int {
	if ok {
		return 0
	}
	return 1
}

func runREPL() int {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyPath = home + "/.wisp_history"
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	ev := evaluator.New(os.Stdout, os.Stdin)
	fmt.Println("wisp interactive — Ctrl+D to exit")
	for {
		text, err := line.Prompt(">>> ")
		if err != nil {
			break
		}
		if text == "" {
			continue
		}
		line.AppendHistory(text)
		prog, err := parser.ParseProgram(text)
		if err != nil {
			fmt.Println(err)
			continue
		}
		if err := ev.Eval(prog); err != nil {
			fmt.Println(err)
		}
	}
	if historyPath != "" {
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}
	return 0
}
