package shellos

import (
	"bytes"
	"image"
	"image/png"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
)

// encodeRGBA wraps raw read-back pixels as a PNG for the screenshot
// command.
func encodeRGBA(pix []byte, w, h int) ([]byte, error) {
	if len(pix) < w*h*4 {
		return nil, fault.New(fault.Protocol, "screenshot: short pixel buffer")
	}
	img := &image.RGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fault.Wrap(fault.Io, "encode png", err)
	}
	return buf.Bytes(), nil
}
