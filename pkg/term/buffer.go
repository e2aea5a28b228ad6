package term

import "fmt"

// defaultBufferLines bounds terminal scrollback.
const defaultBufferLines = 500

// Buffer is the terminal's bounded scrollback. Appends past the bound
// evict the oldest lines, replaced once by an explicit elision marker
// so truncation is never silent.
type Buffer struct {
	lines  []string
	max    int
	elided int
	// scroll is the offset from the bottom, in lines.
	scroll int
}

// NewBuffer returns a buffer bounded at max lines (the default when
// max <= 0).
func NewBuffer(max int) *Buffer {
	if max <= 0 {
		max = defaultBufferLines
	}
	return &Buffer{max: max}
}

// Append adds lines, evicting from the top past the bound.
func (b *Buffer) Append(lines ...string) {
	b.lines = append(b.lines, lines...)
	if over := len(b.lines) - b.max; over > 0 {
		b.lines = b.lines[over:]
		b.elided += over
	}
	b.scroll = 0
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.lines = nil
	b.elided = 0
	b.scroll = 0
}

// Len returns the retained line count (marker included when elided).
func (b *Buffer) Len() int {
	if b.elided > 0 {
		return len(b.lines) + 1
	}
	return len(b.lines)
}

// Scroll moves the view offset by delta lines (positive scrolls back).
func (b *Buffer) Scroll(delta int) {
	b.scroll += delta
	maxScroll := b.Len()
	if b.scroll > maxScroll {
		b.scroll = maxScroll
	}
	if b.scroll < 0 {
		b.scroll = 0
	}
}

// View returns the last n lines at the current scroll offset, with the
// elision marker first when lines have been dropped.
func (b *Buffer) View(n int) []string {
	all := b.lines
	if b.elided > 0 {
		all = append([]string{fmt.Sprintf("…(%d lines elided)…", b.elided)}, all...)
	}
	end := len(all) - b.scroll
	if end < 0 {
		end = 0
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	return all[start:end]
}
