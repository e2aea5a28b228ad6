package browser

import (
	"fmt"

	"gitlab.com/tinyland/lab/oasis/pkg/backend"
	"gitlab.com/tinyland/lab/oasis/pkg/gfx"
	"gitlab.com/tinyland/lab/oasis/pkg/skin"
)

// PaintKind tags a paint command.
type PaintKind int

const (
	// PaintFill fills a rectangle.
	PaintFill PaintKind = iota
	// PaintText draws a text run.
	PaintText
	// PaintBorder strokes a rectangle outline.
	PaintBorder
	// PaintImage blits a loaded texture.
	PaintImage
)

// PaintCmd is one backend-ready draw command.
type PaintCmd struct {
	Kind    PaintKind
	Rect    backend.Rect
	Color   gfx.Color
	Text    string
	Size    int
	Texture backend.TextureID
}

// Paint flattens a box tree into draw commands in depth-first tree
// order: each box emits its background, border and text before its
// children, so identical trees always paint identically.
func Paint(root *Box, th skin.Theme) []PaintCmd {
	var cmds []PaintCmd
	paintBox(root, th, &cmds)
	return cmds
}

func paintBox(b *Box, th skin.Theme, cmds *[]PaintCmd) {
	st := b.Styled.Style
	if st.HasBG {
		*cmds = append(*cmds, PaintCmd{Kind: PaintFill, Rect: b.Rect, Color: st.Background})
	}
	if b.Styled.Node.Type == ElementNode {
		switch b.Styled.Node.Tag {
		case "hr":
			*cmds = append(*cmds, PaintCmd{
				Kind: PaintFill,
				Rect: backend.Rect{X: b.Rect.X, Y: b.Rect.Y, W: b.Rect.W, H: 1},
				Color: th.PageBorder,
			})
		case "table", "td", "th":
			*cmds = append(*cmds, PaintCmd{Kind: PaintBorder, Rect: b.Rect, Color: th.PageBorder})
		}
	}
	if b.Text != "" {
		color := st.Color
		if color == (gfx.Color{}) {
			color = th.PageText
		}
		*cmds = append(*cmds, PaintCmd{
			Kind: PaintText,
			Rect: b.Rect,
			Color: color,
			Text: b.Text,
			Size: b.TextSize,
		})
	}
	for _, c := range b.Children {
		paintBox(c, th, cmds)
	}
}

// Render runs the whole pipeline on an HTML document: parse, collect
// styles, cascade, layout, paint.
func Render(html string, width int, th skin.Theme) []PaintCmd {
	doc := ParseHTML(html)
	rules := ParseCSS(CollectCSS(doc))
	base := Style{Color: th.PageText, FontSize: 8, Display: "block", Width: -1}
	styled := Cascade(doc, rules, base)
	boxes, _ := Layout(styled, width)
	return Paint(boxes, th)
}

// ErrorPage renders a themed error document; the browser never shows
// a blank page.
func ErrorPage(status int, title, detail string) string {
	code := ""
	if status > 0 {
		code = fmt.Sprintf(" (%d)", status)
	}
	return `<html><head><style>
body { background-color: #1A1020; color: #ECE6F5; }
h1 { color: #FF5370; }
p { color: #A89CC0; }
</style></head><body>
<h1>` + title + code + `</h1>
<p>` + detail + `</p>
</body></html>`
}
