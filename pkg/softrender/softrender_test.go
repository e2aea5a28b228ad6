package softrender

import (
	"testing"

	"gitlab.com/tinyland/lab/oasis/pkg/backend"
	"gitlab.com/tinyland/lab/oasis/pkg/gfx"
)

func TestFillAndReadPixels(t *testing.T) {
	r := New()
	r.Clear(gfx.MustParse("#000"))
	r.FillRect(backend.Rect{X: 10, Y: 10, W: 5, H: 5}, gfx.MustParse("#FF0000"))
	r.SwapBuffers()
	pix, err := r.ReadPixels()
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	at := func(x, y int) (byte, byte, byte) {
		i := (y*backend.VirtualWidth + x) * 4
		return pix[i], pix[i+1], pix[i+2]
	}
	if rr, gg, bb := at(12, 12); rr != 255 || gg != 0 || bb != 0 {
		t.Errorf("pixel inside rect = %d,%d,%d, want red", rr, gg, bb)
	}
	if rr, _, _ := at(50, 50); rr != 0 {
		t.Errorf("pixel outside rect = %d, want black", rr)
	}
}

func TestClipStack(t *testing.T) {
	r := New()
	r.Clear(gfx.MustParse("#000"))
	r.PushClip(backend.Rect{X: 0, Y: 0, W: 20, H: 20})
	r.FillRect(backend.Rect{X: 0, Y: 0, W: 100, H: 100}, gfx.MustParse("#00FF00"))
	r.PopClip()
	r.SwapBuffers()
	pix, _ := r.ReadPixels()
	inside := (5*backend.VirtualWidth + 5) * 4
	outside := (50*backend.VirtualWidth + 50) * 4
	if pix[inside+1] != 255 {
		t.Error("clipped fill missing inside clip")
	}
	if pix[outside+1] != 0 {
		t.Error("fill escaped the clip rect")
	}
}

func TestDrawTextMarksPixels(t *testing.T) {
	r := New()
	r.Clear(gfx.MustParse("#000"))
	r.DrawText(10, 10, "W", backend.TextStyle{Size: 8, Color: gfx.MustParse("#FFFFFF")})
	r.SwapBuffers()
	pix, _ := r.ReadPixels()
	lit := 0
	for i := 0; i < len(pix); i += 4 {
		if pix[i] > 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Error("DrawText lit no pixels")
	}
}

func TestTexturesAndUnknownBlit(t *testing.T) {
	r := New()
	if _, err := r.LoadTexture([]byte("not a png")); err == nil {
		t.Error("LoadTexture of garbage succeeded")
	}
	png, err := New().EncodePNG(1)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	tex, err := r.LoadTexture(png)
	if err != nil {
		t.Fatalf("LoadTexture: %v", err)
	}
	// Blit of a freed or unknown texture is a quiet no-op.
	r.FreeTexture(tex)
	r.Blit(tex, backend.Rect{X: 0, Y: 0, W: 10, H: 10})
}

func TestEncodePNGScale(t *testing.T) {
	r := New()
	r.Clear(gfx.MustParse("#123456"))
	r.SwapBuffers()
	small, err := r.EncodePNG(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(small) < 8 || string(small[1:4]) != "PNG" {
		t.Error("EncodePNG output is not a PNG")
	}
}
