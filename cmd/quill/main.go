// Command quill is the file runner and REPL entry point for the Quill
// scripting engine, grounded on funvibe-funxy/cmd/funxy's split between
// running a script file and dropping into an interactive REPL, trimmed of
// the teacher's bytecode-bundling and ext-module machinery (out of scope
// here).
package main

import (
	"fmt"
	"os"

	"github.com/quill-lang/quill/pkg/cli"
	"github.com/quill-lang/quill/pkg/engine"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) > 0 {
		return runFile(args[0])
	}
	return runREPL()
}

func runFile(path string) int {
	e, err := engine.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return 1
	}
	if _, err := e.EvalFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return 1
	}
	return 0
}

func runREPL() int {
	r, err := cli.NewREPL(os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return 1
	}
	interactive := cli.IsInteractive(os.Stdin.Fd())
	return r.Run(interactive)
}
