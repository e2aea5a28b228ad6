package wm

import (
	"testing"

	"gitlab.com/tinyland/lab/oasis/pkg/backend"
	"gitlab.com/tinyland/lab/oasis/pkg/input"
)

func newTestManager() *Manager {
	return NewManager(backend.Rect{Y: 18, W: 480, H: 254})
}

// checkFocusInvariant asserts: at most one focused window, and if any
// interactive window exists, one of them is focused and topmost.
func checkFocusInvariant(t *testing.T, m *Manager) {
	t.Helper()
	var normals []*Window
	for _, w := range m.Windows() {
		if w.State == Normal || w.State == Maximized {
			normals = append(normals, w)
		}
	}
	focused, ok := m.Focused()
	if len(normals) == 0 {
		if ok {
			t.Fatalf("focused window %d but no Normal windows", focused.ID)
		}
		return
	}
	if !ok {
		t.Fatal("Normal windows exist but none focused")
	}
	for _, w := range normals {
		if w.ID != focused.ID && w.z > focused.z {
			t.Fatalf("window %d above focused %d", w.ID, focused.ID)
		}
	}
}

func TestOpenFocuses(t *testing.T) {
	m := newTestManager()
	a := m.Open("a", backend.Rect{X: 40, Y: 60, W: 100, H: 80})
	b := m.Open("b", backend.Rect{X: 80, Y: 80, W: 100, H: 80})
	checkFocusInvariant(t, m)
	f, _ := m.Focused()
	if f.ID != b.ID {
		t.Errorf("focused = %d, want most recent %d", f.ID, b.ID)
	}
	_ = a
}

func TestCloseUnreachable(t *testing.T) {
	m := newTestManager()
	a := m.Open("a", backend.Rect{X: 40, Y: 60, W: 100, H: 80})
	if err := m.Close(a.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := m.Get(a.ID); err == nil {
		t.Error("Get after Close succeeded")
	}
	if len(m.Windows()) != 0 {
		t.Error("closed window still listed")
	}
	checkFocusInvariant(t, m)
}

func TestCloseRefocusesTopmost(t *testing.T) {
	m := newTestManager()
	a := m.Open("a", backend.Rect{X: 40, Y: 60, W: 100, H: 80})
	b := m.Open("b", backend.Rect{X: 80, Y: 80, W: 100, H: 80})
	if err := m.Close(b.ID); err != nil {
		t.Fatal(err)
	}
	checkFocusInvariant(t, m)
	f, ok := m.Focused()
	if !ok || f.ID != a.ID {
		t.Errorf("focus after close = %+v, want window %d", f, a.ID)
	}
}

func TestMinimizeRetainsGeometry(t *testing.T) {
	m := newTestManager()
	a := m.Open("a", backend.Rect{X: 40, Y: 60, W: 100, H: 80})
	if err := m.Minimize(a.ID); err != nil {
		t.Fatal(err)
	}
	checkFocusInvariant(t, m)
	w, err := m.Get(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if w.State != Minimized {
		t.Errorf("state = %v, want Minimized", w.State)
	}
	if w.Content.X != 40 || w.Content.Y != 60 {
		t.Errorf("geometry lost: %+v", w.Content)
	}
}

func TestMaximizeRestoreRoundTrip(t *testing.T) {
	m := newTestManager()
	a := m.Open("a", backend.Rect{X: 40, Y: 60, W: 100, H: 80})
	orig := a.Content
	if err := m.Maximize(a.ID); err != nil {
		t.Fatal(err)
	}
	if a.Content == orig {
		t.Error("maximize did not change geometry")
	}
	if err := m.Restore(a.ID); err != nil {
		t.Fatal(err)
	}
	if a.Content != orig {
		t.Errorf("restore = %+v, want original %+v", a.Content, orig)
	}
}

func TestPointerDownFocuses(t *testing.T) {
	m := newTestManager()
	a := m.Open("a", backend.Rect{X: 40, Y: 60, W: 100, H: 80})
	b := m.Open("b", backend.Rect{X: 200, Y: 60, W: 100, H: 80})
	// Click inside a's content.
	routed, w := m.Route(input.PointerDown{X: 60, Y: 100, Button: input.Confirm})
	if routed != ToWindow || w == nil || w.ID != a.ID {
		t.Fatalf("route = %v, %v; want ToWindow a", routed, w)
	}
	f, _ := m.Focused()
	if f.ID != a.ID {
		t.Errorf("focused = %d, want %d", f.ID, a.ID)
	}
	checkFocusInvariant(t, m)
	_ = b
}

func TestTitlebarDragMoves(t *testing.T) {
	m := newTestManager()
	a := m.Open("a", backend.Rect{X: 100, Y: 100, W: 100, H: 80})
	// Press inside the title bar (above content top).
	m.Route(input.PointerDown{X: 110, Y: 92, Button: input.Confirm})
	m.Route(input.CursorMove{X: 130, Y: 102})
	m.Route(input.PointerUp{X: 130, Y: 102, Button: input.Confirm})
	if a.Content.X != 120 || a.Content.Y != 110 {
		t.Errorf("content after drag = %+v, want 120,110", a.Content)
	}
}

func TestResizeClampsToMin(t *testing.T) {
	m := newTestManager()
	a := m.Open("a", backend.Rect{X: 100, Y: 100, W: 100, H: 80})
	f := a.Frame()
	// Press in the bottom-right grip, drag far up-left.
	m.Route(input.PointerDown{X: f.X + f.W - 2, Y: f.Y + f.H - 2, Button: input.Confirm})
	m.Route(input.CursorMove{X: 0, Y: 0})
	if a.Content.W < MinWidth || a.Content.H < MinHeight {
		t.Errorf("resize below minimum: %+v", a.Content)
	}
}

func TestCloseButton(t *testing.T) {
	m := newTestManager()
	a := m.Open("a", backend.Rect{X: 100, Y: 100, W: 100, H: 80})
	btn := a.closeButton()
	routed, _ := m.Route(input.PointerDown{X: btn.X + 2, Y: btn.Y + 2, Button: input.Confirm})
	if routed != Consumed {
		t.Fatalf("close click routed = %v, want Consumed", routed)
	}
	if _, err := m.Get(a.ID); err == nil {
		t.Error("window alive after close button")
	}
}

func TestKeyRoutesToFocused(t *testing.T) {
	m := newTestManager()
	m.Open("a", backend.Rect{X: 40, Y: 60, W: 100, H: 80})
	routed, w := m.Route(input.TextInput{Text: "k"})
	if routed != ToWindow || w == nil {
		t.Errorf("key route = %v, want ToWindow", routed)
	}
	// Without focus, keys fall through to the global handler.
	empty := newTestManager()
	routed, _ = empty.Route(input.TextInput{Text: "k"})
	if routed != Unrouted {
		t.Errorf("key route with no windows = %v, want Unrouted", routed)
	}
}

func TestFocusInvariantUnderSequence(t *testing.T) {
	m := newTestManager()
	a := m.Open("a", backend.Rect{X: 40, Y: 60, W: 100, H: 80})
	b := m.Open("b", backend.Rect{X: 200, Y: 60, W: 100, H: 80})
	c := m.Open("c", backend.Rect{X: 100, Y: 120, W: 100, H: 80})
	steps := []func() error{
		func() error { return m.Minimize(c.ID) },
		func() error { return m.Maximize(a.ID) },
		func() error { return m.Close(b.ID) },
		func() error { return m.Restore(c.ID) },
		func() error { return m.Restore(a.ID) },
		func() error { return m.Close(a.ID) },
		func() error { return m.Close(c.ID) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		checkFocusInvariant(t, m)
	}
}
