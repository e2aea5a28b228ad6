// Package wm is the window manager: decorated, draggable, z-ordered
// frames with focus-follows-pointer-down semantics. The manager owns
// window geometry and routing only; window content is drawn by the
// owning app through SDI under the window's object prefix.
package wm

import (
	"fmt"
	"sort"

	"gitlab.com/tinyland/lab/oasis/pkg/backend"
	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/input"
)

// State is the window lifecycle state.
type State int

const (
	// Normal windows are visible and interactive.
	Normal State = iota
	// Minimized windows keep their geometry but are hidden.
	Minimized
	// Maximized windows fill the work area, remembering their rect.
	Maximized
	// Closed windows are unreachable from every lookup.
	Closed
)

// Title bar and frame metrics in virtual pixels.
const (
	TitleBarHeight = 14
	BorderWidth    = 2
	cornerGrip     = 10
	MinWidth       = 80
	MinHeight      = 40
)

// Window is one managed frame.
type Window struct {
	ID      int
	Title   string
	Content backend.Rect
	State   State
	z       int

	// savedRect holds the pre-maximize geometry.
	savedRect backend.Rect
}

// Frame returns the decorated bounds: content plus title bar and
// borders.
func (w *Window) Frame() backend.Rect {
	return backend.Rect{
		X: w.Content.X - BorderWidth,
		Y: w.Content.Y - TitleBarHeight,
		W: w.Content.W + 2*BorderWidth,
		H: w.Content.H + TitleBarHeight + BorderWidth,
	}
}

// titleBar returns the draggable strip.
func (w *Window) titleBar() backend.Rect {
	f := w.Frame()
	return backend.Rect{X: f.X, Y: f.Y, W: f.W, H: TitleBarHeight}
}

// resizeGrip returns the bottom-right resize corner.
func (w *Window) resizeGrip() backend.Rect {
	f := w.Frame()
	return backend.Rect{X: f.X + f.W - cornerGrip, Y: f.Y + f.H - cornerGrip, W: cornerGrip, H: cornerGrip}
}

// closeButton returns the title bar close hit zone.
func (w *Window) closeButton() backend.Rect {
	tb := w.titleBar()
	return backend.Rect{X: tb.X + tb.W - TitleBarHeight, Y: tb.Y, W: TitleBarHeight, H: TitleBarHeight}
}

// dragKind tracks an in-progress pointer interaction.
type dragKind int

const (
	dragNone dragKind = iota
	dragMove
	dragResize
)

// Manager owns the window set.
type Manager struct {
	windows  map[int]*Window
	nextID   int
	nextZ    int
	focused  int // window id; 0 means none
	workArea backend.Rect

	drag       dragKind
	dragID     int
	dragLastX  int
	dragLastY  int
}

// NewManager returns a manager with the given work area (the screen
// minus the status bar).
func NewManager(workArea backend.Rect) *Manager {
	return &Manager{windows: map[int]*Window{}, nextID: 1, workArea: workArea}
}

// Open creates a Normal window with focus.
func (m *Manager) Open(title string, content backend.Rect) *Window {
	w := &Window{ID: m.nextID, Title: title, Content: content, State: Normal}
	m.nextID++
	m.nextZ++
	w.z = m.nextZ
	m.windows[w.ID] = w
	m.focus(w.ID)
	return w
}

// Get returns a live (non-Closed) window.
func (m *Manager) Get(id int) (*Window, error) {
	w, ok := m.windows[id]
	if !ok || w.State == Closed {
		return nil, fault.Newf(fault.NotFound, fmt.Sprint(id), "no window %d", id)
	}
	return w, nil
}

// Windows returns live windows in ascending z-order.
func (m *Manager) Windows() []*Window {
	out := make([]*Window, 0, len(m.windows))
	for _, w := range m.windows {
		if w.State != Closed {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].z < out[j].z })
	return out
}

// interactive reports whether a window can hold focus.
func interactive(w *Window) bool {
	return w.State == Normal || w.State == Maximized
}

// Focused returns the focused window, if any.
func (m *Manager) Focused() (*Window, bool) {
	w, ok := m.windows[m.focused]
	if !ok || !interactive(w) {
		return nil, false
	}
	return w, true
}

// focus promotes id to the top of the Normal stack.
func (m *Manager) focus(id int) {
	w, ok := m.windows[id]
	if !ok || w.State == Closed {
		return
	}
	m.focused = id
	m.nextZ++
	w.z = m.nextZ
}

// refocusTop moves focus to the topmost Normal or Maximized window, or
// clears it.
func (m *Manager) refocusTop() {
	m.focused = 0
	var top *Window
	for _, w := range m.windows {
		if !interactive(w) {
			continue
		}
		if top == nil || w.z > top.z {
			top = w
		}
	}
	if top != nil {
		m.focused = top.ID
	}
}

// Close removes the window from every lookup.
func (m *Manager) Close(id int) error {
	w, err := m.Get(id)
	if err != nil {
		return err
	}
	w.State = Closed
	delete(m.windows, id)
	if m.focused == id {
		m.refocusTop()
	}
	return nil
}

// Minimize hides the window, retaining geometry.
func (m *Manager) Minimize(id int) error {
	w, err := m.Get(id)
	if err != nil {
		return err
	}
	w.State = Minimized
	if m.focused == id {
		m.refocusTop()
	}
	return nil
}

// Maximize fills the work area, remembering the prior rect.
func (m *Manager) Maximize(id int) error {
	w, err := m.Get(id)
	if err != nil {
		return err
	}
	if w.State != Maximized {
		w.savedRect = w.Content
	}
	w.State = Maximized
	w.Content = backend.Rect{
		X: m.workArea.X + BorderWidth,
		Y: m.workArea.Y + TitleBarHeight,
		W: m.workArea.W - 2*BorderWidth,
		H: m.workArea.H - TitleBarHeight - BorderWidth,
	}
	m.focus(id)
	return nil
}

// Restore returns a minimized or maximized window to Normal.
func (m *Manager) Restore(id int) error {
	w, err := m.Get(id)
	if err != nil {
		return err
	}
	if w.State == Maximized && !w.savedRect.Empty() {
		w.Content = w.savedRect
	}
	w.State = Normal
	m.focus(id)
	return nil
}

// hitTest returns the topmost Normal or Maximized window containing
// the point.
func (m *Manager) hitTest(x, y int) *Window {
	var best *Window
	for _, w := range m.windows {
		if w.State != Normal && w.State != Maximized {
			continue
		}
		if !w.Frame().Contains(x, y) {
			continue
		}
		if best == nil || w.z > best.z {
			best = w
		}
	}
	return best
}

// Routed tells the coordinator where an event went.
type Routed int

const (
	// Unrouted events fall through to the global handler.
	Unrouted Routed = iota
	// Consumed events were handled by the manager itself (drag, close).
	Consumed
	// ToWindow events belong to the returned window's app.
	ToWindow
)

// Route processes one input event. Pointer events hit test against
// frames; key and text events go to the focused window.
func (m *Manager) Route(ev input.Event) (Routed, *Window) {
	switch e := ev.(type) {
	case input.PointerDown:
		w := m.hitTest(e.X, e.Y)
		if w == nil {
			return Unrouted, nil
		}
		m.focus(w.ID)
		if w.closeButton().Contains(e.X, e.Y) {
			_ = m.Close(w.ID)
			return Consumed, nil
		}
		if w.resizeGrip().Contains(e.X, e.Y) && w.State == Normal {
			m.drag, m.dragID = dragResize, w.ID
			m.dragLastX, m.dragLastY = e.X, e.Y
			return Consumed, nil
		}
		if w.titleBar().Contains(e.X, e.Y) && w.State == Normal {
			m.drag, m.dragID = dragMove, w.ID
			m.dragLastX, m.dragLastY = e.X, e.Y
			return Consumed, nil
		}
		return ToWindow, w
	case input.PointerUp:
		if m.drag != dragNone {
			m.drag = dragNone
			return Consumed, nil
		}
		if w, ok := m.Focused(); ok && w.Frame().Contains(e.X, e.Y) {
			return ToWindow, w
		}
		return Unrouted, nil
	case input.CursorMove:
		if m.drag == dragNone {
			return Unrouted, nil
		}
		w, ok := m.windows[m.dragID]
		if !ok || w.State != Normal {
			m.drag = dragNone
			return Consumed, nil
		}
		dx, dy := e.X-m.dragLastX, e.Y-m.dragLastY
		m.dragLastX, m.dragLastY = e.X, e.Y
		if m.drag == dragMove {
			w.Content.X += dx
			w.Content.Y += dy
		} else {
			w.Content.W = clampInt(w.Content.W+dx, MinWidth, m.workArea.W)
			w.Content.H = clampInt(w.Content.H+dy, MinHeight, m.workArea.H)
		}
		return Consumed, nil
	case input.ButtonPress, input.ButtonRelease, input.TextInput, input.Wheel:
		if w, ok := m.Focused(); ok {
			return ToWindow, w
		}
		return Unrouted, nil
	}
	return Unrouted, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
