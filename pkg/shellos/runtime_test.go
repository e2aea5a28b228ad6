package shellos

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/oasis/pkg/input"
	"gitlab.com/tinyland/lab/oasis/pkg/platform"
	"gitlab.com/tinyland/lab/oasis/pkg/skin"
	"gitlab.com/tinyland/lab/oasis/pkg/softrender"
	"gitlab.com/tinyland/lab/oasis/pkg/term"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

// fakeInput replays a queue of events.
type fakeInput struct {
	events []input.Event
}

func (f *fakeInput) Poll() []input.Event {
	evs := f.events
	f.events = nil
	return evs
}

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New(Options{
		FS: vfs.NewMemFS(),
		Platform: &platform.FixedServices{
			Time: time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC),
			Up:   time.Minute,
		},
		Log:  slog.New(slog.DiscardHandler),
		Seed: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	return rt
}

func TestBootAppliesClassicSkin(t *testing.T) {
	rt := newTestRuntime(t)
	if got := rt.Skins().Current().Manifest.Name; got != "classic" {
		t.Errorf("boot skin = %q, want classic", got)
	}
	if !rt.Registry().Has(skin.LayoutPrefix + "backdrop") {
		t.Error("skin layout objects not applied at boot")
	}
}

func TestScenarioSkinHotSwap(t *testing.T) {
	rt := newTestRuntime(t)
	// Remember a classic-only SDI check: the backdrop exists and uses
	// the classic background.
	classicBG := rt.Skins().Current().Theme.Base.Background

	out := rt.Exec("skin modern")
	if !strings.Contains(out, "modern") {
		t.Errorf("skin modern output = %q", out)
	}
	if rt.Skins().Current().Manifest.Name != "modern" {
		t.Fatalf("current skin = %q after swap", rt.Skins().Current().Manifest.Name)
	}

	// theme get primary reports modern's documented purple.
	out = rt.Exec("theme get primary")
	if !strings.Contains(out, "#8A2BE2") {
		t.Errorf("theme get primary = %q, want #8A2BE2", out)
	}

	// skin list mentions both.
	out = rt.Exec("skin list")
	if !strings.Contains(out, "classic") || !strings.Contains(out, "modern") {
		t.Errorf("skin list = %q", out)
	}

	// The classic layout objects are gone, replaced by modern's.
	bd, err := rt.Registry().Get(skin.LayoutPrefix + "backdrop")
	if err != nil {
		t.Fatal("modern backdrop missing")
	}
	if bd.Fill == classicBG {
		t.Error("backdrop still carries classic background after swap")
	}
}

func TestScenarioPipeRefusal(t *testing.T) {
	rt := newTestRuntime(t)
	before := rt.Skins().Current().Manifest.Name
	out := rt.Exec("skin modern | cat")
	if !strings.Contains(out, "not pipeable") {
		t.Errorf("output = %q, want pipe refusal", out)
	}
	if rt.Skins().Current().Manifest.Name != before {
		t.Error("skin changed despite pipe refusal")
	}
	if rt.Interp().Env.LastStatus == 0 {
		t.Error("$? = 0 after refused pipe")
	}
}

func TestSwapFailureLeavesSkinIntact(t *testing.T) {
	rt := newTestRuntime(t)
	out := rt.Exec("skin nonexistent")
	if !strings.Contains(out, "not found") {
		t.Errorf("output = %q", out)
	}
	if rt.Skins().Current().Manifest.Name != "classic" {
		t.Errorf("skin = %q after failed swap", rt.Skins().Current().Manifest.Name)
	}
}

func TestCategoryGateFromSkinFeatures(t *testing.T) {
	rt := newTestRuntime(t)
	// Register a restrictive skin and swap to it.
	restricted := *rt.Skins().Current()
	restricted.Manifest.Name = "kiosk"
	restricted.Features.CommandCategories = []string{term.CatFilesystem, term.CatUI}
	rt.Skins().Register(&restricted)
	rt.Exec("skin kiosk")
	if rt.Skins().Current().Manifest.Name != "kiosk" {
		t.Fatal("swap to kiosk failed")
	}
	out := rt.Exec("cowsay hi")
	if !strings.Contains(out, "disabled by skin") {
		t.Errorf("gated output = %q", out)
	}
	out = rt.Exec("pwd")
	if !strings.Contains(out, "/home/guest") {
		t.Errorf("allowed category blocked: %q", out)
	}
}

func TestClearSignal(t *testing.T) {
	rt := newTestRuntime(t)
	rt.Exec("echo visible")
	rt.Exec("clear")
	if rt.buffer.Len() != 0 {
		t.Errorf("buffer length after clear = %d", rt.buffer.Len())
	}
}

func TestSleepSuspendsAndResumes(t *testing.T) {
	rt := newTestRuntime(t)
	rt.Exec("sleep 1 && echo ignored")
	if len(rt.pendings) != 1 {
		t.Fatalf("pendings = %d, want 1", len(rt.pendings))
	}
	// Half a second in: still pending.
	rt.Tick(500 * time.Millisecond)
	if len(rt.pendings) != 1 {
		t.Error("pending resumed early")
	}
	rt.Tick(600 * time.Millisecond)
	if len(rt.pendings) != 0 {
		t.Error("pending not resumed after delay elapsed")
	}
}

func TestWatchRearms(t *testing.T) {
	rt := newTestRuntime(t)
	rt.fs.Write("/tmp/w", []byte("x"))
	rt.Exec("watch 1 echo tick-output")
	rt.Tick(1100 * time.Millisecond)
	if len(rt.pendings) != 1 {
		t.Fatalf("watch did not re-arm: %d pendings", len(rt.pendings))
	}
	view := strings.Join(rt.buffer.View(100), "\n")
	if !strings.Contains(view, "tick-output") {
		t.Errorf("watch output missing from buffer: %q", view)
	}
}

func TestStartupScriptsRun(t *testing.T) {
	fs := vfs.NewMemFS()
	if err := fs.Mkdir("/etc/startup"); err != nil {
		t.Fatal(err)
	}
	if err := fs.Write("/etc/startup/hello", []byte("set GREETED=yes\n")); err != nil {
		t.Fatal(err)
	}
	rt, err := New(Options{FS: fs, Platform: &platform.FixedServices{Time: time.Unix(0, 0)}, Log: slog.New(slog.DiscardHandler), Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	if got := rt.Interp().Env.Vars["GREETED"]; got != "yes" {
		t.Errorf("GREETED = %q, startup script did not run", got)
	}
}

func TestCronRunsOnSchedule(t *testing.T) {
	fs := vfs.NewMemFS()
	if err := fs.Mkdir("/etc/cron"); err != nil {
		t.Fatal(err)
	}
	if err := fs.Mkdir("/home/guest"); err != nil {
		t.Fatal(err)
	}
	if err := fs.Write("/home/guest/job.sh", []byte("expr $COUNT + 1 | set COUNT\n")); err != nil {
		t.Fatal(err)
	}
	if err := fs.Write("/etc/cron/job.sh", []byte("#interval=1\n/home/guest/job.sh\n")); err != nil {
		t.Fatal(err)
	}
	rt, err := New(Options{FS: fs, Platform: &platform.FixedServices{Time: time.Unix(0, 0)}, Log: slog.New(slog.DiscardHandler), Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	rt.Interp().Env.Vars["COUNT"] = "0"
	rt.Tick(1100 * time.Millisecond)
	rt.Tick(1100 * time.Millisecond)
	if got := rt.Interp().Env.Vars["COUNT"]; got != "2" {
		t.Errorf("COUNT = %q after two due ticks, want 2", got)
	}
}

func TestDashboardNavigation(t *testing.T) {
	in := &fakeInput{}
	rt, err := New(Options{
		FS:       vfs.NewMemFS(),
		Input:    in,
		Platform: &platform.FixedServices{Time: time.Unix(0, 0)},
		Log:      slog.New(slog.DiscardHandler),
		Seed:     1,
	})
	if err != nil {
		t.Fatal(err)
	}
	in.events = []input.Event{
		input.ButtonPress{Button: input.Right},
		input.ButtonPress{Button: input.Left},
		input.ButtonPress{Button: input.Confirm}, // open terminal tile
	}
	rt.Tick(50 * time.Millisecond)
	if rt.mode != ModeTerminal {
		t.Errorf("mode = %v after confirming terminal tile", rt.mode)
	}
	// Typing then enter executes a command.
	in.events = []input.Event{
		input.TextInput{Text: "pwd"},
		input.ButtonPress{Button: input.Confirm},
	}
	rt.Tick(50 * time.Millisecond)
	view := strings.Join(rt.buffer.View(100), "\n")
	if !strings.Contains(view, "/home/guest") {
		t.Errorf("terminal buffer = %q, want pwd output", view)
	}
}

func TestScreenshotSavesToVFS(t *testing.T) {
	rt, err := New(Options{
		FS:       vfs.NewMemFS(),
		Renderer: softrender.New(),
		Platform: &platform.FixedServices{Time: time.Unix(0, 0)},
		Log:      slog.New(slog.DiscardHandler),
		Seed:     1,
	})
	if err != nil {
		t.Fatal(err)
	}
	rt.Tick(50 * time.Millisecond)
	out := rt.Exec("screenshot")
	if !strings.Contains(out, "saved /home/guest/screenshot-1.png") {
		t.Fatalf("screenshot output = %q", out)
	}
	data, err := rt.FS().Read("/home/guest/screenshot-1.png")
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Error("saved screenshot is not a PNG")
	}
}

func TestExitFromDashboardQuits(t *testing.T) {
	rt := newTestRuntime(t)
	rt.Exec("exit 3")
	done, code := rt.Exited()
	if !done || code != 3 {
		t.Errorf("Exited = %v, %d; want true, 3", done, code)
	}
}

func TestStatusBarUpdates(t *testing.T) {
	rt := newTestRuntime(t)
	rt.Tick(50 * time.Millisecond)
	clock, err := rt.Registry().Get(skin.LayoutPrefix + "statusbar.clock")
	if err != nil {
		t.Fatal(err)
	}
	if clock.Text != "09:30" {
		t.Errorf("clock text = %q, want 09:30", clock.Text)
	}
}
