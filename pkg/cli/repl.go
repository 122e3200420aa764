// Package cli is the REPL front-end (spec §1 "external collaborators",
// exit-code contract of spec §6), grounded on funvibe-funxy/pkg/cli's use
// of github.com/mattn/go-isatty to tell an interactive terminal from a
// piped script, without the teacher's bytecode/ext-module machinery this
// spec explicitly excludes.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/quill-lang/quill/internal/box"
	"github.com/quill-lang/quill/internal/config"
	"github.com/quill-lang/quill/pkg/engine"
)

const prompt = "quill> "
const contPrompt = "   ... "

// REPL reads script source line by line and evaluates each complete
// statement against a single persistent Engine, so variables, functions,
// and classes defined in one line are visible in the next (spec §8 "REPL
// session continuity").
type REPL struct {
	Engine *engine.Engine
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
}

// NewREPL builds a REPL over a fresh Engine.
func NewREPL(in io.Reader, out, errOut io.Writer) (*REPL, error) {
	e, err := engine.New()
	if err != nil {
		return nil, err
	}
	return &REPL{Engine: e, In: in, Out: out, Err: errOut}, nil
}

// IsInteractive reports whether out is a terminal (vs. a pipe/redirect),
// the signal cmd/quill uses to decide whether to print the prompt/banner.
func IsInteractive(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Banner is the line printed before the first prompt in interactive mode.
func Banner() string {
	return fmt.Sprintf("Quill %s — Ctrl-D to exit", config.Version)
}

// Run drives the read-eval-print loop until In is exhausted. interactive
// controls whether prompts are printed (a piped script has none). It
// returns the process exit code the caller should use (spec §6 exit-code
// contract): 0 if every statement evaluated without an unhandled error, 1
// otherwise.
func (r *REPL) Run(interactive bool) int {
	scanner := bufio.NewScanner(r.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if interactive {
		fmt.Fprintln(r.Out, Banner())
	}

	exitCode := 0
	var buf strings.Builder
	for {
		if interactive {
			if buf.Len() == 0 {
				fmt.Fprint(r.Out, prompt)
			} else {
				fmt.Fprint(r.Out, contPrompt)
			}
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')

		if !looksComplete(buf.String()) {
			continue
		}

		src := buf.String()
		buf.Reset()
		if strings.TrimSpace(src) == "" {
			continue
		}

		v, err := r.Engine.Eval(src)
		if err != nil {
			fmt.Fprintf(r.Err, "error: %s\n", err)
			exitCode = 1
			continue
		}
		if v != nil && !v.IsEmpty() {
			fmt.Fprintln(r.Out, describe(v))
		}
	}
	return exitCode
}

// looksComplete is a shallow heuristic (balanced braces/parens/brackets on
// the accumulated line) deciding whether the REPL should evaluate now or
// keep reading a multi-line statement; the parser itself is the real
// authority and will error on anything this heuristic gets wrong.
func looksComplete(line string) bool {
	depth := 0
	for _, r := range line {
		switch r {
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		}
	}
	return depth <= 0
}

func describe(v *box.Value) string {
	if s, ok := v.Interface().(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v.Interface())
}
