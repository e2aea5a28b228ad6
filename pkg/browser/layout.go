package browser

import (
	"strings"

	"gitlab.com/tinyland/lab/oasis/pkg/backend"
)

// charWidth approximates glyph advance for the fixed-pitch UI font at
// a given size.
func charWidth(size int) int {
	w := size * 3 / 5
	if w < 3 {
		w = 3
	}
	return w
}

func lineHeight(size int) int { return size + 4 }

// Box is one layout-tree node with computed geometry.
type Box struct {
	Styled *StyledNode
	Rect   backend.Rect
	// Text is set on line boxes produced by inline layout.
	Text     string
	TextSize int
	Children []*Box
}

// Layout computes geometry for the styled tree within the given
// viewport width, returning the box tree root and total content
// height.
func Layout(root *StyledNode, width int) (*Box, int) {
	box := layoutBlock(root, 0, 0, width)
	return box, box.Rect.H
}

// layoutBlock lays out a block-level node at (x, y) within width,
// returning a box whose Rect spans the full margin-less border box.
// Vertical margins between siblings collapse to the max.
func layoutBlock(sn *StyledNode, x, y, width int) *Box {
	st := sn.Style
	contentX := x + st.Padding[3]
	contentW := width - st.Padding[1] - st.Padding[3]
	if st.Width >= 0 && st.Width < contentW {
		contentW = st.Width
	}
	box := &Box{Styled: sn, Rect: backend.Rect{X: x, Y: y, W: width}}

	cursorY := y + st.Padding[0]
	prevMarginBottom := 0
	var floats []floatRegion
	var inlineRun []*StyledNode

	flushInline := func() {
		if len(inlineRun) == 0 {
			return
		}
		lines := layoutInline(inlineRun, contentX, cursorY, contentW, floats)
		for _, lb := range lines {
			box.Children = append(box.Children, lb)
			if bottom := lb.Rect.Y + lb.Rect.H; bottom > cursorY {
				cursorY = bottom
			}
		}
		inlineRun = nil
		prevMarginBottom = 0
	}

	for _, child := range sn.Children {
		cst := child.Style
		if cst.Display == "none" {
			continue
		}
		if child.Node.Type == TextNode || cst.Display == "inline" {
			inlineRun = append(inlineRun, child)
			continue
		}
		flushInline()

		if cst.Float != "" {
			fw := contentW / 2
			if cst.Width >= 0 {
				fw = cst.Width
			}
			fx := contentX
			if cst.Float == "right" {
				fx = contentX + contentW - fw
			}
			fb := layoutBlock(child, fx, cursorY, fw)
			box.Children = append(box.Children, fb)
			floats = append(floats, floatRegion{rect: fb.Rect, side: cst.Float})
			continue
		}

		// Margin collapsing: the gap between siblings is the max of
		// the adjacent margins, not their sum.
		gap := cst.Margin[0]
		if prevMarginBottom > gap {
			gap = prevMarginBottom
		}
		if len(box.Children) == 0 {
			gap = cst.Margin[0]
		}
		cursorY += gap

		childX := contentX + cst.Margin[3]
		childW := contentW - cst.Margin[3] - cst.Margin[1]
		var cb *Box
		if cst.Display == "table" {
			cb = layoutTable(child, childX, cursorY, childW)
		} else {
			cb = layoutBlock(child, childX, cursorY, childW)
		}
		box.Children = append(box.Children, cb)
		cursorY = cb.Rect.Y + cb.Rect.H
		prevMarginBottom = cst.Margin[2]
	}
	flushInline()

	// Clear past any floats extending below the content.
	for _, f := range floats {
		if bottom := f.rect.Y + f.rect.H; bottom > cursorY {
			cursorY = bottom
		}
	}

	box.Rect.H = cursorY + st.Padding[2] - y
	if box.Rect.H < 0 {
		box.Rect.H = 0
	}
	return box
}

// floatRegion narrows inline lines that overlap it vertically.
type floatRegion struct {
	rect backend.Rect
	side string
}

// layoutInline flows the text of an inline run into line boxes,
// breaking at word boundaries and narrowing around floats.
type word struct {
	text string
	sn   *StyledNode
}

func layoutInline(run []*StyledNode, x, y, width int, floats []floatRegion) []*Box {
	var words []word
	for _, sn := range run {
		collectWords(sn, &words)
	}
	if len(words) == 0 {
		return nil
	}

	var lines []*Box
	cursorY := y
	i := 0
	for i < len(words) {
		lineX, lineW := lineExtent(x, width, cursorY, floats)
		size := words[i].sn.Style.FontSize
		lh := lineHeight(size)
		var parts []string
		lineStart := i
		used := 0
		for i < len(words) {
			w := words[i]
			if w.text == "" {
				// <br> sentinel: force the line to end here.
				i++
				break
			}
			ws := w.sn.Style.FontSize
			adv := len(w.text) * charWidth(ws)
			if len(parts) > 0 {
				adv += charWidth(ws)
			}
			if used+adv > lineW && len(parts) > 0 {
				break
			}
			parts = append(parts, w.text)
			used += adv
			if lineHeight(ws) > lh {
				lh = lineHeight(ws)
			}
			i++
		}
		sn := words[lineStart].sn
		lines = append(lines, &Box{
			Styled:   sn,
			Rect:     backend.Rect{X: lineX, Y: cursorY, W: used, H: lh},
			Text:     strings.Join(parts, " "),
			TextSize: sn.Style.FontSize,
		})
		cursorY += lh
	}
	return lines
}

// lineExtent returns the usable horizontal span at a given y after
// float subtraction.
func lineExtent(x, width, y int, floats []floatRegion) (int, int) {
	lx, lw := x, width
	for _, f := range floats {
		if y >= f.rect.Y+f.rect.H || y+8 <= f.rect.Y {
			continue
		}
		if f.side == "left" {
			shift := f.rect.X + f.rect.W - lx
			if shift > 0 {
				lx += shift
				lw -= shift
			}
		} else {
			overlap := lx + lw - f.rect.X
			if overlap > 0 {
				lw -= overlap
			}
		}
	}
	if lw < charWidth(8) {
		lw = charWidth(8)
	}
	return lx, lw
}

// collectWords flattens an inline subtree into words carrying their
// styled node (for color and size).
func collectWords(sn *StyledNode, words *[]word) {
	if sn.Node.Type == TextNode {
		for _, w := range strings.Fields(sn.Node.Text) {
			*words = append(*words, word{text: w, sn: sn})
		}
		return
	}
	if sn.Node.Tag == "br" {
		// A break forces a new line; encode as an empty-text sentinel.
		*words = append(*words, word{text: "", sn: sn})
		return
	}
	for _, c := range sn.Children {
		collectWords(c, words)
	}
}

// layoutTable computes table geometry: column minimum widths first,
// then remaining space distributed evenly.
func layoutTable(sn *StyledNode, x, y, width int) *Box {
	box := &Box{Styled: sn, Rect: backend.Rect{X: x, Y: y, W: width}}

	// Collect rows and cells.
	var rows []*StyledNode
	for _, c := range sn.Children {
		if c.Style.Display == "table-row" {
			rows = append(rows, c)
		}
	}
	cols := 0
	for _, r := range rows {
		n := 0
		for _, c := range r.Children {
			if c.Style.Display == "table-cell" {
				n++
			}
		}
		if n > cols {
			cols = n
		}
	}
	if cols == 0 {
		box.Rect.H = 0
		return box
	}

	// Pass 1: min-content widths.
	minW := make([]int, cols)
	for _, r := range rows {
		ci := 0
		for _, c := range r.Children {
			if c.Style.Display != "table-cell" {
				continue
			}
			w := minContentWidth(c)
			if w > minW[ci] {
				minW[ci] = w
			}
			ci++
		}
	}
	// Pass 2: distribute the remaining width evenly.
	total := 0
	for _, w := range minW {
		total += w
	}
	if extra := width - total; extra > 0 {
		per := extra / cols
		for i := range minW {
			minW[i] += per
		}
	}

	const cellPad = 2
	cursorY := y
	for _, r := range rows {
		rowBox := &Box{Styled: r, Rect: backend.Rect{X: x, Y: cursorY, W: width}}
		cx := x
		rowH := lineHeight(8)
		ci := 0
		for _, c := range r.Children {
			if c.Style.Display != "table-cell" {
				continue
			}
			cb := layoutBlock(c, cx+cellPad, cursorY+cellPad, minW[ci]-2*cellPad)
			cb.Rect = backend.Rect{X: cx, Y: cursorY, W: minW[ci], H: cb.Rect.H + 2*cellPad}
			rowBox.Children = append(rowBox.Children, cb)
			if cb.Rect.H > rowH {
				rowH = cb.Rect.H
			}
			cx += minW[ci]
			ci++
		}
		rowBox.Rect.H = rowH
		box.Children = append(box.Children, rowBox)
		cursorY += rowH
	}
	box.Rect.H = cursorY - y
	return box
}

// minContentWidth is the widest single word in a cell.
func minContentWidth(sn *StyledNode) int {
	var words []word
	collectWords(sn, &words)
	maxw := charWidth(8) * 2
	for _, w := range words {
		if adv := len(w.text) * charWidth(w.sn.Style.FontSize); adv > maxw {
			maxw = adv
		}
	}
	return maxw + 4
}
