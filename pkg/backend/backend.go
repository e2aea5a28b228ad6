// Package backend declares the four trait boundaries between the
// kernel and its host: rendering, input, network and audio. These
// interfaces are the only coupling — no kernel package may import a
// platform library, and no backend reaches into kernel state.
//
// All rendering coordinates are in the virtual 480×272 space; backends
// own scaling to their physical surface.
package backend

import (
	"io"

	"gitlab.com/tinyland/lab/oasis/pkg/gfx"
	"gitlab.com/tinyland/lab/oasis/pkg/input"
)

// Virtual screen dimensions every renderer addresses.
const (
	VirtualWidth  = 480
	VirtualHeight = 272
)

// TextureID is an opaque handle returned by LoadTexture. Handles are
// lifetime-bound to the Renderer that issued them.
type TextureID int

// Rect is an axis-aligned rectangle in virtual pixels.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the point (px, py) lies inside r.
func (r Rect) Contains(px, py int) bool {
	return px >= r.X && px < r.X+r.W && py >= r.Y && py < r.Y+r.H
}

// Intersect clips r to o, returning the overlapping region. A zero
// Rect is returned when the rectangles do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.X+r.W, o.X+o.W)
	y2 := min(r.Y+r.H, o.Y+o.H)
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Empty reports whether r has zero area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// TextStyle carries the font parameters for DrawText.
type TextStyle struct {
	Size  int
	Color gfx.Color
}

// Renderer is the drawing contract. Clip pushes nest LIFO. ReadPixels
// may fail with fault.Unsupported on backends without readback.
type Renderer interface {
	Clear(c gfx.Color)
	FillRect(r Rect, c gfx.Color)
	StrokeRect(r Rect, width int, c gfx.Color)
	Blit(tex TextureID, dst Rect)
	DrawText(x, y int, text string, style TextStyle)
	// TextWidth reports the advance width of text at the given size.
	TextWidth(text string, size int) int
	LoadTexture(pngData []byte) (TextureID, error)
	FreeTexture(tex TextureID)
	PushClip(r Rect)
	PopClip()
	SwapBuffers()
	// ReadPixels returns the current frame as RGBA bytes, row-major,
	// stride VirtualWidth*4.
	ReadPixels() ([]byte, error)
}

// InputSource delivers the host's pending events once per frame,
// ordered by occurrence time. An empty batch is valid.
type InputSource interface {
	Poll() []input.Event
}

// Stream is a bidirectional byte stream. Partial reads and writes are
// allowed; Close releases the underlying transport.
type Stream interface {
	io.ReadWriteCloser
}

// Listener accepts inbound streams.
type Listener interface {
	// Accept blocks until a connection arrives or the listener closes.
	Accept() (Stream, error)
	Close() error
}

// TLSProvider upgrades plain streams. Hosts without TLS simply return
// nil from the capability query NetworkBackend.TLS.
type TLSProvider interface {
	// ClientWrap performs a client handshake for serverName over raw.
	ClientWrap(raw Stream, serverName string) (Stream, error)
}

// NetworkBackend is the socket contract.
type NetworkBackend interface {
	Listen(port int) (Listener, error)
	Connect(host string, port int) (Stream, error)
	// TLS returns the provider when the host has one, else nil.
	TLS() TLSProvider
}

// AudioBackend is the playback contract. Calls are synchronous from
// the kernel's perspective; decoding happens on the backend's side.
// PositionMS and DurationMS may fail with fault.Unsupported.
type AudioBackend interface {
	Init() error
	LoadTrack(data []byte) error
	Play() error
	Pause()
	Resume()
	Stop()
	SetVolume(v float64)
	IsPlaying() bool
	PositionMS() (int64, error)
	DurationMS() (int64, error)
}
