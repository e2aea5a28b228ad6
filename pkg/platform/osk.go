package platform

import "gitlab.com/tinyland/lab/oasis/pkg/input"

// OSK is the on-screen keyboard state machine for button-only hosts:
// a grid of characters navigated with the d-pad, Confirm appending the
// highlighted rune, Cancel deleting, Start committing.
//
// The OSK produces text only; drawing it is a widget concern.
type OSK struct {
	rows   []string
	curX   int
	curY   int
	buf    []rune
	active bool
	done   bool
}

// defaultRows is the qwerty-ish grid shown by default.
var defaultRows = []string{
	"1234567890",
	"qwertyuiop",
	"asdfghjkl-",
	"zxcvbnm._/",
	" ",
}

// NewOSK returns an inactive keyboard with the default grid.
func NewOSK() *OSK {
	return &OSK{rows: defaultRows}
}

// Open starts an input session with an optional initial value.
func (k *OSK) Open(initial string) {
	k.buf = []rune(initial)
	k.curX, k.curY = 0, 0
	k.active = true
	k.done = false
}

// Active reports whether the keyboard is consuming input.
func (k *OSK) Active() bool { return k.active }

// Done reports whether the last session committed.
func (k *OSK) Done() bool { return k.done }

// Text returns the accumulated text.
func (k *OSK) Text() string { return string(k.buf) }

// Rows exposes the character grid for the rendering widget.
func (k *OSK) Rows() []string { return k.rows }

// Cursor returns the highlighted grid cell.
func (k *OSK) Cursor() (x, y int) { return k.curX, k.curY }

// Handle consumes one input event, returning true when it was
// consumed. TextInput events bypass the grid so hosts with real
// keyboards type directly.
func (k *OSK) Handle(ev input.Event) bool {
	if !k.active {
		return false
	}
	switch e := ev.(type) {
	case input.TextInput:
		k.buf = append(k.buf, []rune(e.Text)...)
		return true
	case input.ButtonPress:
		switch e.Button {
		case input.Up:
			k.curY = (k.curY + len(k.rows) - 1) % len(k.rows)
		case input.Down:
			k.curY = (k.curY + 1) % len(k.rows)
		case input.Left:
			k.curX--
		case input.Right:
			k.curX++
		case input.Confirm:
			row := []rune(k.rows[k.curY])
			k.clampX()
			k.buf = append(k.buf, row[k.curX])
		case input.Cancel:
			if len(k.buf) > 0 {
				k.buf = k.buf[:len(k.buf)-1]
			}
		case input.Start:
			k.active = false
			k.done = true
		case input.Select:
			k.active = false
			k.done = false
		default:
			return false
		}
		k.clampX()
		return true
	}
	return false
}

func (k *OSK) clampX() {
	row := []rune(k.rows[k.curY])
	if k.curX < 0 {
		k.curX = len(row) - 1
	}
	if k.curX >= len(row) {
		k.curX = 0
	}
}
