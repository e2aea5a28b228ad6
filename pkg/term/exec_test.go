package term

import (
	"strings"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/platform"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

func newTestInterp(t *testing.T) *Interpreter {
	t.Helper()
	fs := vfs.NewMemFS()
	if err := vfs.Seed(fs); err != nil {
		t.Fatal(err)
	}
	if err := fs.Mkdir("/tmp"); err != nil {
		t.Fatal(err)
	}
	plat := &platform.FixedServices{
		Time: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Up:   90 * time.Second,
		Disk: platform.StorageStatus{TotalBytes: 1 << 30, FreeBytes: 1 << 29},
	}
	return NewInterpreter(NewRegistry(), fs, plat)
}

// textOf concatenates the text outputs of an execution.
func textOf(outs []Output) string {
	var b strings.Builder
	for _, o := range outs {
		b.WriteString(o.TextString())
	}
	return b.String()
}

func TestScenarioShellPipeline(t *testing.T) {
	in := newTestInterp(t)
	if err := in.FS.Write("/tmp/data", []byte("c\nb\na\nb\n")); err != nil {
		t.Fatal(err)
	}
	outs := in.Execute("cat /tmp/data | sort | uniq")
	if got := textOf(outs); got != "a\nb\nc\n" {
		t.Errorf("pipeline output = %q, want %q", got, "a\nb\nc\n")
	}
	if in.Env.LastStatus != 0 {
		t.Errorf("$? = %d, want 0", in.Env.LastStatus)
	}
}

func TestPipeEqualsSequentialApplication(t *testing.T) {
	in := newTestInterp(t)
	if err := in.FS.Write("/tmp/f", []byte("z\ny\nx\n")); err != nil {
		t.Fatal(err)
	}
	piped := textOf(in.Execute("cat /tmp/f | sort"))
	direct := textOf(in.Execute("sort /tmp/f"))
	if piped != direct {
		t.Errorf("A|B = %q, B(A) = %q", piped, direct)
	}
}

func TestShortCircuitLaws(t *testing.T) {
	in := newTestInterp(t)

	out := textOf(in.Execute("test 1 -eq 1 && echo yes"))
	if out != "yes\n" {
		t.Errorf("true && echo: %q, want yes", out)
	}
	out = textOf(in.Execute("test 1 -eq 2 && echo yes"))
	if out != "" {
		t.Errorf("false && echo ran: %q", out)
	}
	out = textOf(in.Execute("test 1 -eq 2 || echo fallback"))
	if out != "fallback\n" {
		t.Errorf("false || echo: %q, want fallback", out)
	}
	out = textOf(in.Execute("test 1 -eq 1 || echo fallback"))
	if out != "" {
		t.Errorf("true || echo ran: %q", out)
	}
	out = textOf(in.Execute("test 1 -eq 2 ; echo always"))
	if out != "always\n" {
		t.Errorf("seq after failure: %q, want always", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	in := newTestInterp(t)
	in.Env.Vars["KEEP"] = "1"
	outs := in.Execute("frobnicate")
	if len(outs) != 1 || outs[0].Kind != KindError {
		t.Fatalf("outputs = %+v, want one error", outs)
	}
	if fault.KindOf(outs[0].Err) != fault.NotFound {
		t.Errorf("error kind = %v, want NotFound", fault.KindOf(outs[0].Err))
	}
	if in.Env.LastStatus == 0 {
		t.Error("$? = 0 after unknown command")
	}
	if in.Env.Vars["KEEP"] != "1" {
		t.Error("environment modified by unknown command")
	}
}

func TestRedirect(t *testing.T) {
	in := newTestInterp(t)
	in.Execute("echo one > /tmp/out")
	data, err := in.FS.Read("/tmp/out")
	if err != nil || string(data) != "one\n" {
		t.Fatalf("redirect wrote %q, %v", data, err)
	}
	in.Execute("echo two >> /tmp/out")
	data, _ = in.FS.Read("/tmp/out")
	if string(data) != "one\ntwo\n" {
		t.Errorf("append wrote %q", data)
	}
	in.Execute("echo replaced > /tmp/out")
	data, _ = in.FS.Read("/tmp/out")
	if string(data) != "replaced\n" {
		t.Errorf("truncate wrote %q", data)
	}
}

func TestCdPwdClamp(t *testing.T) {
	in := newTestInterp(t)
	if err := in.FS.Mkdir("/a/b"); err != nil {
		t.Fatal(err)
	}
	in.Execute("cd /a/b/..")
	if got := textOf(in.Execute("pwd")); got != "/a\n" {
		t.Errorf("pwd after cd /a/b/.. = %q, want /a", got)
	}
	in.Execute("cd /../..")
	if got := textOf(in.Execute("pwd")); got != "/\n" {
		t.Errorf("pwd after cd /../.. = %q, want /", got)
	}
}

func TestHistoryBangBang(t *testing.T) {
	in := newTestInterp(t)
	in.Execute("echo again")
	out := textOf(in.Execute("!!"))
	if out != "again\n" {
		t.Errorf("!! output = %q, want again", out)
	}
	// !! records the expanded command, not the literal "!!".
	last, _ := in.Env.History.Last()
	if last != "echo again" {
		t.Errorf("history last = %q, want echo again", last)
	}
}

func TestHistoryOrdinal(t *testing.T) {
	in := newTestInterp(t)
	in.Execute("echo first")
	in.Execute("echo second")
	out := textOf(in.Execute("!1"))
	if out != "first\n" {
		t.Errorf("!1 = %q, want first", out)
	}
}

func TestHistoryBounded(t *testing.T) {
	h := NewHistory(3)
	for _, l := range []string{"a", "b", "c", "d", "e"} {
		h.Add(l)
	}
	if h.Len() != 3 {
		t.Errorf("history length = %d, want 3", h.Len())
	}
	if _, ok := h.Get(1); ok {
		t.Error("evicted ordinal still resolvable")
	}
	if line, ok := h.Get(5); !ok || line != "e" {
		t.Errorf("Get(5) = %q, %v, want e", line, ok)
	}
}

func TestAliasExpansion(t *testing.T) {
	in := newTestInterp(t)
	in.Execute("alias ll=echo listed")
	out := textOf(in.Execute("ll now"))
	if out != "listed now\n" {
		t.Errorf("alias expansion = %q, want listed now", out)
	}
}

func TestAliasCycle(t *testing.T) {
	in := newTestInterp(t)
	in.Env.Aliases["a"] = "b"
	in.Env.Aliases["b"] = "a"
	outs := in.Execute("a")
	if len(outs) != 1 || outs[0].Kind != KindError {
		t.Fatalf("alias cycle outputs = %+v, want error", outs)
	}
	if fault.KindOf(outs[0].Err) != fault.Parse {
		t.Errorf("cycle error kind = %v, want Parse", fault.KindOf(outs[0].Err))
	}
}

func TestGlobExpansion(t *testing.T) {
	in := newTestInterp(t)
	for _, p := range []string{"/tmp/b.txt", "/tmp/a.txt", "/tmp/c.log"} {
		if err := in.FS.Write(p, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}
	in.Env.CWD = "/tmp"
	out := textOf(in.Execute("echo *.txt"))
	if out != "a.txt b.txt\n" {
		t.Errorf("glob = %q, want lexicographic a.txt b.txt", out)
	}
	// No match keeps the pattern.
	out = textOf(in.Execute("echo *.nope"))
	if out != "*.nope\n" {
		t.Errorf("unmatched glob = %q, want literal pattern", out)
	}
	// Quoting suppresses globbing.
	out = textOf(in.Execute("echo '*.txt'"))
	if out != "*.txt\n" {
		t.Errorf("quoted glob = %q, want literal", out)
	}
}

func TestSetFromPipe(t *testing.T) {
	in := newTestInterp(t)
	in.Execute("echo value | set V")
	if got := in.Env.Vars["V"]; got != "value" {
		t.Errorf("V = %q, want value", got)
	}
}

func TestExprAndTest(t *testing.T) {
	in := newTestInterp(t)
	if out := textOf(in.Execute("expr 2 + 3")); out != "5\n" {
		t.Errorf("expr 2 + 3 = %q", out)
	}
	in.Execute("test 2 -lt 3")
	if in.Env.LastStatus != 0 {
		t.Errorf("test 2 -lt 3 status = %d, want 0", in.Env.LastStatus)
	}
	in.Execute("test 3 -lt 2")
	if in.Env.LastStatus == 0 {
		t.Error("test 3 -lt 2 status = 0")
	}
}

func TestSleepReturnsPending(t *testing.T) {
	in := newTestInterp(t)
	outs := in.Execute("sleep 0.5")
	if len(outs) != 1 || outs[0].Kind != KindPending {
		t.Fatalf("sleep outputs = %+v, want pending", outs)
	}
	if outs[0].Pend.Delay != 500*time.Millisecond {
		t.Errorf("delay = %v, want 500ms", outs[0].Pend.Delay)
	}
}

func TestPendingRefusesToPipe(t *testing.T) {
	in := newTestInterp(t)
	outs := in.Execute("sleep 1 | cat")
	if len(outs) != 1 || outs[0].Kind != KindError {
		t.Fatalf("outputs = %+v, want error", outs)
	}
	if fault.KindOf(outs[0].Err) != fault.Protocol {
		t.Errorf("kind = %v, want Protocol", fault.KindOf(outs[0].Err))
	}
}

func TestCategoryGate(t *testing.T) {
	in := newTestInterp(t)
	in.Gate = func(cat string) bool { return cat != CatFun }
	outs := in.Execute("cowsay hi")
	if len(outs) != 1 || outs[0].Kind != KindError {
		t.Fatalf("gated command outputs = %+v, want error", outs)
	}
	if fault.KindOf(outs[0].Err) != fault.Unsupported {
		t.Errorf("kind = %v, want Unsupported", fault.KindOf(outs[0].Err))
	}
	if out := textOf(in.Execute("echo fine")); out != "fine\n" {
		t.Errorf("ungated command blocked: %q", out)
	}
}

func TestSecurityCommandAudited(t *testing.T) {
	in := newTestInterp(t)
	in.Execute("psk status")
	data, err := in.FS.Read(vfs.AuditLogPath)
	if err != nil {
		t.Fatalf("audit log missing: %v", err)
	}
	if !strings.Contains(string(data), "psk") {
		t.Errorf("audit log %q does not mention psk", data)
	}
}

func TestHistoryPersistence(t *testing.T) {
	in := newTestInterp(t)
	in.Execute("echo persisted")
	in.Shutdown()

	again := NewInterpreter(in.Reg, in.FS, in.Platform)
	again.Boot()
	last, ok := again.Env.History.Last()
	if !ok || last != "echo persisted" {
		t.Errorf("history after reboot = %q, %v", last, ok)
	}
}

func TestBufferElision(t *testing.T) {
	b := NewBuffer(5)
	for i := 0; i < 9; i++ {
		b.Append("line")
	}
	view := b.View(100)
	if len(view) != 6 {
		t.Fatalf("view length = %d, want 5 lines + marker", len(view))
	}
	if !strings.Contains(view[0], "4 lines elided") {
		t.Errorf("marker = %q, want elision count 4", view[0])
	}
}
