package browser

import (
	"strings"

	"gitlab.com/tinyland/lab/oasis/pkg/backend"
	"gitlab.com/tinyland/lab/oasis/pkg/gfx"
	"gitlab.com/tinyland/lab/oasis/pkg/skin"
)

// GemLine is one parsed gemtext line.
type GemLine struct {
	Kind GemLineKind
	Text string
	URL  string
}

// GemLineKind tags gemtext line types.
type GemLineKind int

const (
	// GemText is a plain paragraph line.
	GemText GemLineKind = iota
	// GemHeading1 through GemHeading3 are # heading levels.
	GemHeading1
	GemHeading2
	GemHeading3
	// GemLink is a => link line.
	GemLink
	// GemListItem is a * bullet line.
	GemListItem
	// GemQuote is a > quote line.
	GemQuote
	// GemPre is a line inside a ``` block.
	GemPre
)

// ParseGemtext parses a text/gemini document line by line.
func ParseGemtext(src string) []GemLine {
	var out []GemLine
	pre := false
	for _, raw := range strings.Split(src, "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.HasPrefix(line, "```") {
			pre = !pre
			continue
		}
		if pre {
			out = append(out, GemLine{Kind: GemPre, Text: line})
			continue
		}
		switch {
		case strings.HasPrefix(line, "###"):
			out = append(out, GemLine{Kind: GemHeading3, Text: strings.TrimSpace(line[3:])})
		case strings.HasPrefix(line, "##"):
			out = append(out, GemLine{Kind: GemHeading2, Text: strings.TrimSpace(line[2:])})
		case strings.HasPrefix(line, "#"):
			out = append(out, GemLine{Kind: GemHeading1, Text: strings.TrimSpace(line[1:])})
		case strings.HasPrefix(line, "=>"):
			rest := strings.TrimSpace(line[2:])
			fields := strings.Fields(rest)
			gl := GemLine{Kind: GemLink}
			if len(fields) > 0 {
				gl.URL = fields[0]
				gl.Text = strings.TrimSpace(strings.TrimPrefix(rest, fields[0]))
				if gl.Text == "" {
					gl.Text = gl.URL
				}
			}
			out = append(out, gl)
		case strings.HasPrefix(line, "* "):
			out = append(out, GemLine{Kind: GemListItem, Text: line[2:]})
		case strings.HasPrefix(line, ">"):
			out = append(out, GemLine{Kind: GemQuote, Text: strings.TrimSpace(line[1:])})
		default:
			out = append(out, GemLine{Kind: GemText, Text: line})
		}
	}
	return out
}

// RenderGemtext produces the same paint-command stream the HTML
// pipeline emits, so the compositor treats both formats identically.
func RenderGemtext(src string, width int, th skin.Theme) []PaintCmd {
	lines := ParseGemtext(src)
	var cmds []PaintCmd
	y := 4
	const x = 4
	for _, l := range lines {
		size := 8
		color := th.PageText
		text := l.Text
		indent := 0
		switch l.Kind {
		case GemHeading1:
			size = 16
			color = th.PageHeading
		case GemHeading2:
			size = 13
			color = th.PageHeading
		case GemHeading3:
			size = 10
			color = th.PageHeading
		case GemLink:
			color = th.PageLink
			text = "=> " + l.Text
		case GemListItem:
			text = "• " + l.Text
			indent = 8
		case GemQuote:
			color = th.PageQuote
			indent = 8
		case GemPre:
			color = th.PagePre
		}
		if text == "" {
			y += lineHeight(size) / 2
			continue
		}
		// Wrap long lines at word boundaries; preformatted lines clip.
		if l.Kind == GemPre {
			cmds = append(cmds, paintLine(x+indent, y, text, size, color))
			y += lineHeight(size)
			continue
		}
		avail := (width - x - indent) / charWidth(size)
		for _, seg := range wrapText(text, avail) {
			cmds = append(cmds, paintLine(x+indent, y, seg, size, color))
			y += lineHeight(size)
		}
	}
	return cmds
}

func paintLine(x, y int, text string, size int, color gfx.Color) PaintCmd {
	return PaintCmd{
		Kind: PaintText,
		Rect: backend.Rect{X: x, Y: y, W: len(text) * charWidth(size), H: lineHeight(size)},
		Color: color,
		Text: text,
		Size: size,
	}
}

// wrapText breaks text into segments of at most maxChars, at word
// boundaries where possible.
func wrapText(text string, maxChars int) []string {
	if maxChars < 8 {
		maxChars = 8
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var out []string
	cur := ""
	for _, w := range words {
		if cur == "" {
			cur = w
			continue
		}
		if len(cur)+1+len(w) > maxChars {
			out = append(out, cur)
			cur = w
		} else {
			cur += " " + w
		}
	}
	return append(out, cur)
}
