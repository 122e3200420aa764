package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestLooksCompleteBalancesBraces(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"1 + 2;", true},
		{"def foo() {", false},
		{"var x = [1, 2", false},
		{"}", true},
	}
	for _, c := range cases {
		if got := looksComplete(c.line); got != c.want {
			t.Errorf("looksComplete(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

func TestREPLEvaluatesAndPrintsResult(t *testing.T) {
	in := strings.NewReader("1 + 2;\n")
	var out, errOut bytes.Buffer
	r, err := NewREPL(in, &out, &errOut)
	if err != nil {
		t.Fatalf("NewREPL: %v", err)
	}
	code := r.Run(false)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0; stderr: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "3") {
		t.Errorf("output %q does not contain evaluated result", out.String())
	}
}

func TestREPLReportsErrorAndSetsExitCode(t *testing.T) {
	in := strings.NewReader("1 +;\n")
	var out, errOut bytes.Buffer
	r, err := NewREPL(in, &out, &errOut)
	if err != nil {
		t.Fatalf("NewREPL: %v", err)
	}
	code := r.Run(false)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if errOut.Len() == 0 {
		t.Errorf("expected an error message on stderr")
	}
}
