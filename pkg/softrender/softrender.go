// Package softrender is the software framebuffer renderer: the
// reference backend used by the terminal host and by pipeline tests.
// It draws into an in-memory RGBA image in the virtual 480×272 space;
// hosts scale the finished frame to their surface.
package softrender

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"gitlab.com/tinyland/lab/oasis/pkg/backend"
	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/gfx"
)

// Renderer implements backend.Renderer on an in-memory RGBA buffer.
type Renderer struct {
	front *image.RGBA
	back  *image.RGBA

	textures map[backend.TextureID]image.Image
	nextTex  backend.TextureID

	clips []backend.Rect
}

// New returns a renderer with cleared buffers.
func New() *Renderer {
	bounds := image.Rect(0, 0, backend.VirtualWidth, backend.VirtualHeight)
	return &Renderer{
		front:    image.NewRGBA(bounds),
		back:     image.NewRGBA(bounds),
		textures: map[backend.TextureID]image.Image{},
		nextTex:  1,
	}
}

// clip returns the active clip rectangle.
func (r *Renderer) clip() backend.Rect {
	full := backend.Rect{W: backend.VirtualWidth, H: backend.VirtualHeight}
	for _, c := range r.clips {
		full = full.Intersect(c)
	}
	return full
}

func toNRGBA(c gfx.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// Clear fills the back buffer.
func (r *Renderer) Clear(c gfx.Color) {
	draw.Draw(r.back, r.back.Bounds(), image.NewUniform(toNRGBA(c)), image.Point{}, draw.Src)
}

// FillRect fills a rectangle, alpha-blended, honoring the clip stack.
func (r *Renderer) FillRect(rect backend.Rect, c gfx.Color) {
	area := rect.Intersect(r.clip())
	if area.Empty() {
		return
	}
	dst := image.Rect(area.X, area.Y, area.X+area.W, area.Y+area.H)
	draw.Draw(r.back, dst, image.NewUniform(toNRGBA(c)), image.Point{}, draw.Over)
}

// StrokeRect outlines a rectangle with the given border width.
func (r *Renderer) StrokeRect(rect backend.Rect, width int, c gfx.Color) {
	if width < 1 {
		width = 1
	}
	r.FillRect(backend.Rect{X: rect.X, Y: rect.Y, W: rect.W, H: width}, c)
	r.FillRect(backend.Rect{X: rect.X, Y: rect.Y + rect.H - width, W: rect.W, H: width}, c)
	r.FillRect(backend.Rect{X: rect.X, Y: rect.Y, W: width, H: rect.H}, c)
	r.FillRect(backend.Rect{X: rect.X + rect.W - width, Y: rect.Y, W: width, H: rect.H}, c)
}

// Blit draws a loaded texture scaled into dst.
func (r *Renderer) Blit(tex backend.TextureID, dst backend.Rect) {
	img, ok := r.textures[tex]
	if !ok {
		return
	}
	area := dst.Intersect(r.clip())
	if area.Empty() {
		return
	}
	scaled := imaging.Resize(img, dst.W, dst.H, imaging.NearestNeighbor)
	target := image.Rect(dst.X, dst.Y, dst.X+dst.W, dst.Y+dst.H)
	draw.Draw(r.back, target.Intersect(image.Rect(area.X, area.Y, area.X+area.W, area.Y+area.H)), scaled, image.Point{}, draw.Over)
}

// DrawText renders text with the 7x13 bitmap UI font. style.Size is
// ignored: every size draws at the face's native height.
func (r *Renderer) DrawText(x, y int, text string, style backend.TextStyle) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  r.back,
		Src:  image.NewUniform(toNRGBA(style.Color)),
		Face: face,
		Dot:  fixed.P(x, y+face.Ascent),
	}
	d.DrawString(text)
}

// TextWidth reports the advance width of text at the given size.
func (r *Renderer) TextWidth(text string, size int) int {
	return font.MeasureString(basicfont.Face7x13, text).Ceil()
}

// LoadTexture decodes PNG bytes into a texture handle.
func (r *Renderer) LoadTexture(pngData []byte) (backend.TextureID, error) {
	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return 0, fault.Wrap(fault.Parse, "decode png", err)
	}
	id := r.nextTex
	r.nextTex++
	r.textures[id] = img
	return id, nil
}

// FreeTexture releases a handle.
func (r *Renderer) FreeTexture(tex backend.TextureID) {
	delete(r.textures, tex)
}

// PushClip nests a clip rectangle.
func (r *Renderer) PushClip(rect backend.Rect) {
	r.clips = append(r.clips, rect)
}

// PopClip removes the innermost clip. Popping an empty stack is a
// no-op.
func (r *Renderer) PopClip() {
	if len(r.clips) > 0 {
		r.clips = r.clips[:len(r.clips)-1]
	}
}

// SwapBuffers publishes the back buffer and clears the new back.
func (r *Renderer) SwapBuffers() {
	r.front, r.back = r.back, r.front
	draw.Draw(r.back, r.back.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// ReadPixels returns the front buffer as RGBA bytes.
func (r *Renderer) ReadPixels() ([]byte, error) {
	out := make([]byte, len(r.front.Pix))
	copy(out, r.front.Pix)
	return out, nil
}

// Frame returns the current front buffer image for host display.
func (r *Renderer) Frame() *image.RGBA { return r.front }

// EncodePNG encodes the current frame as PNG, scaled by an integer
// factor when scale > 1.
func (r *Renderer) EncodePNG(scale int) ([]byte, error) {
	img := image.Image(r.front)
	if scale > 1 {
		img = imaging.Resize(img, backend.VirtualWidth*scale, backend.VirtualHeight*scale, imaging.NearestNeighbor)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fault.Wrap(fault.Io, "encode png", err)
	}
	return buf.Bytes(), nil
}
