// Package termview displays the virtual framebuffer inside a
// terminal. It picks a graphics protocol from the terminal's
// capabilities (Kitty, iTerm2 or Sixel via go-termimg) and falls back
// to Unicode half-block rendering with 24-bit color, which works on
// any true-color terminal.
package termview

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/blacktop/go-termimg"
	"github.com/disintegration/imaging"
	"github.com/muesli/termenv"
)

// Protocol selects how frames reach the terminal.
type Protocol int

const (
	// ProtocolHalfblocks renders with U+2580 cells and ANSI colors.
	ProtocolHalfblocks Protocol = iota
	// ProtocolKitty uses the kitty graphics protocol.
	ProtocolKitty
	// ProtocolITerm2 uses iTerm2 inline images.
	ProtocolITerm2
	// ProtocolSixel uses DEC sixel graphics.
	ProtocolSixel
)

func (p Protocol) String() string {
	switch p {
	case ProtocolKitty:
		return "kitty"
	case ProtocolITerm2:
		return "iterm2"
	case ProtocolSixel:
		return "sixel"
	}
	return "halfblocks"
}

// Detect picks the best protocol for the current terminal.
func Detect() Protocol {
	termName := os.Getenv("TERM")
	switch {
	case os.Getenv("KITTY_WINDOW_ID") != "" || strings.Contains(termName, "kitty"):
		return ProtocolKitty
	case strings.Contains(os.Getenv("TERM_PROGRAM"), "iTerm"):
		return ProtocolITerm2
	case strings.Contains(termName, "sixel") || os.Getenv("OASIS_SIXEL") != "":
		return ProtocolSixel
	}
	return ProtocolHalfblocks
}

// View renders frames for one terminal.
type View struct {
	proto   Protocol
	profile termenv.Profile
}

// New builds a view with the detected protocol and color profile.
func New() *View {
	return &View{proto: Detect(), profile: termenv.ColorProfile()}
}

// Protocol reports the active protocol.
func (v *View) Protocol() Protocol { return v.proto }

// Render converts a frame to the escape sequence that displays it in
// a region of widthCells × heightCells.
func (v *View) Render(frame image.Image, widthCells, heightCells int) (string, error) {
	switch v.proto {
	case ProtocolKitty:
		return v.renderTermimg(frame, termimg.Kitty, widthCells, heightCells)
	case ProtocolITerm2:
		return v.renderTermimg(frame, termimg.ITerm2, widthCells, heightCells)
	case ProtocolSixel:
		return v.renderTermimg(frame, termimg.Sixel, widthCells, heightCells)
	}
	return v.renderHalfblocks(frame, widthCells, heightCells), nil
}

func (v *View) renderTermimg(frame image.Image, proto termimg.Protocol, widthCells, heightCells int) (string, error) {
	ti := termimg.New(frame)
	if ti == nil {
		return "", fmt.Errorf("termview: image wrapper failed")
	}
	ti.Protocol(proto).Size(widthCells, heightCells).Scale(termimg.ScaleFit)
	return ti.Render()
}

// renderHalfblocks packs two pixel rows per character cell: the top
// pixel colors the U+2580 foreground, the bottom pixel the background.
func (v *View) renderHalfblocks(frame image.Image, widthCells, heightCells int) string {
	img := imaging.Resize(frame, widthCells, heightCells*2, imaging.NearestNeighbor)
	bounds := img.Bounds()
	var b strings.Builder
	b.Grow(bounds.Dx() * bounds.Dy() / 2 * 24)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 2 {
		if y > bounds.Min.Y {
			b.WriteString("\x1b[0m\n")
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			top := img.NRGBAAt(x, y)
			bot := top
			if y+1 < bounds.Max.Y {
				bot = img.NRGBAAt(x, y+1)
			}
			fmt.Fprintf(&b, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
				top.R, top.G, top.B, bot.R, bot.G, bot.B)
		}
	}
	b.WriteString("\x1b[0m")
	return b.String()
}
