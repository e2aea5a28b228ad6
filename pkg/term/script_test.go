package term

import (
	"strings"
	"testing"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
)

func runScript(t *testing.T, in *Interpreter, script string) string {
	t.Helper()
	return textOf(in.RunScript(splitScript(script)))
}

func TestScriptWhileLoop(t *testing.T) {
	in := newTestInterp(t)
	script := "set I=0\nwhile test $I -lt 3\n  echo $I\n  expr $I + 1 | set I\ndone"
	out := runScript(t, in, script)
	if out != "0\n1\n2\n" {
		t.Errorf("script output = %q, want 0 1 2", out)
	}
}

func TestScriptIfElse(t *testing.T) {
	in := newTestInterp(t)
	out := runScript(t, in, "if test 1 -eq 1\n  echo then-branch\nelse\n  echo else-branch\nfi")
	if out != "then-branch\n" {
		t.Errorf("if output = %q", out)
	}
	out = runScript(t, in, "if test 1 -eq 2\n  echo then-branch\nelse\n  echo else-branch\nfi")
	if out != "else-branch\n" {
		t.Errorf("else output = %q", out)
	}
}

func TestScriptForLoop(t *testing.T) {
	in := newTestInterp(t)
	out := runScript(t, in, "for W in red green blue\n  echo $W\ndone")
	if out != "red\ngreen\nblue\n" {
		t.Errorf("for output = %q", out)
	}
}

func TestScriptNestedLoops(t *testing.T) {
	in := newTestInterp(t)
	script := "for A in 1 2\n  for B in x y\n    echo $A$B\n  done\ndone"
	out := runScript(t, in, script)
	if out != "1x\n1y\n2x\n2y\n" {
		t.Errorf("nested loops = %q", out)
	}
}

func TestScriptLoopBound(t *testing.T) {
	in := newTestInterp(t)
	outs := in.RunScript(splitScript("while test 1 -eq 1\n  echo spin\ndone"))
	last := outs[len(outs)-1]
	if last.Kind != KindError || fault.KindOf(last.Err) != fault.Resource {
		t.Fatalf("runaway loop last output = %+v, want Resource error", last)
	}
	count := 0
	for _, o := range outs {
		if o.Kind == KindText && len(o.Lines) > 0 {
			count++
		}
	}
	if count != maxLoopIterations {
		t.Errorf("loop ran %d iterations, want bound %d", count, maxLoopIterations)
	}
}

func TestScriptFunction(t *testing.T) {
	in := newTestInterp(t)
	out := runScript(t, in, "function greet\n  echo hi $1\nend\ngreet world")
	if out != "hi world\n" {
		t.Errorf("function output = %q", out)
	}
	// Functions stay defined after the script.
	out = textOf(in.Execute("greet again"))
	if out != "hi again\n" {
		t.Errorf("function after script = %q", out)
	}
}

func TestScriptParseErrors(t *testing.T) {
	in := newTestInterp(t)
	for _, script := range []string{
		"if test 1 -eq 1\n  echo x",
		"while test 1 -eq 1\n  echo x",
		"done",
		"fi",
		"for X\n  echo x\ndone",
	} {
		outs := in.RunScript(splitScript(script))
		if len(outs) != 1 || outs[0].Kind != KindError {
			t.Errorf("script %q outputs = %+v, want parse error", script, outs)
		}
	}
}

func TestScriptCommentsAndBlanks(t *testing.T) {
	in := newTestInterp(t)
	out := runScript(t, in, "# a comment\n\necho only\n")
	if out != "only\n" {
		t.Errorf("output = %q", out)
	}
}

func TestRunCommandExecutesScriptFile(t *testing.T) {
	in := newTestInterp(t)
	if err := in.FS.Write("/tmp/s.sh", []byte("echo from-script\n")); err != nil {
		t.Fatal(err)
	}
	out := textOf(in.Execute("run /tmp/s.sh"))
	if !strings.Contains(out, "from-script") {
		t.Errorf("run output = %q", out)
	}
}
