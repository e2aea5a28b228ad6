package skin

import (
	"math/rand"

	"gitlab.com/tinyland/lab/oasis/pkg/sdi"
)

// Effect is a per-frame transform over an SDI snapshot. Apply mutates
// the ephemeral frame slice only; the registry's objects are never
// touched, so each frame transforms the pristine state.
type Effect interface {
	Name() string
	Apply(frame int, objs []sdi.Object)
}

// NewEffect constructs a built-in effect by name. Unknown names return
// nil; callers skip them (a skin may name effects this build lacks).
func NewEffect(name string, p EffectParams, rng *rand.Rand) Effect {
	switch name {
	case "corrupted":
		if p.JitterPx == 0 {
			p.JitterPx = 2
		}
		if p.FlickerP == 0 {
			p.FlickerP = 0.08
		}
		if p.GarbleP == 0 {
			p.GarbleP = 0.02
		}
		if p.MinAlpha == 0 {
			p.MinAlpha = 0.35
		}
		if p.Intensity == 0 {
			p.Intensity = 1
		}
		return &corrupted{params: p, rng: rng}
	case "scanlines":
		if p.SpacingPx == 0 {
			p.SpacingPx = 3
		}
		if p.LineAlpha == 0 {
			p.LineAlpha = 0.15
		}
		return &scanlines{params: p}
	}
	return nil
}

// corrupted jitters object positions, flickers alpha and garbles text,
// all scaled by intensity.
type corrupted struct {
	params EffectParams
	rng    *rand.Rand
}

func (c *corrupted) Name() string { return "corrupted" }

const garbleSet = "!@#$%^&*▓▒░#?"

func (c *corrupted) Apply(frame int, objs []sdi.Object) {
	jitter := int(float64(c.params.JitterPx) * c.params.Intensity)
	if jitter < 1 {
		jitter = 1
	}
	for i := range objs {
		o := &objs[i]
		if !o.Visible {
			continue
		}
		o.X += c.rng.Intn(2*jitter+1) - jitter
		o.Y += c.rng.Intn(2*jitter+1) - jitter
		if c.rng.Float64() < c.params.FlickerP*c.params.Intensity {
			o.Alpha *= 0.3 + 0.7*c.rng.Float64()
			if o.Alpha < c.params.MinAlpha {
				o.Alpha = c.params.MinAlpha
			}
		}
		if o.Text != "" {
			o.Text = c.garble(o.Text)
		}
	}
}

func (c *corrupted) garble(s string) string {
	p := c.params.GarbleP * c.params.Intensity
	runes := []rune(s)
	garbles := []rune(garbleSet)
	changed := false
	for i, r := range runes {
		if r == ' ' {
			continue
		}
		if c.rng.Float64() < p {
			runes[i] = garbles[c.rng.Intn(len(garbles))]
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(runes)
}

// scanlines overlays thin dark strips across the virtual screen. It
// leaves existing objects untouched; the strips come from ScanlineRects.
type scanlines struct {
	params EffectParams
}

func (s *scanlines) Name() string { return "scanlines" }

// Apply is a no-op: scanlines do not transform objects. The strips
// come from ScanlineRects and composite above the object pass.
func (s *scanlines) Apply(frame int, objs []sdi.Object) {}

// ScanlineRects returns the overlay strips for a screen of the given
// height. The coordinator paints these after the object pass.
func ScanlineRects(p EffectParams, width, height int) []sdi.Object {
	spacing := p.SpacingPx
	if spacing <= 0 {
		spacing = 3
	}
	alpha := p.LineAlpha
	if alpha <= 0 {
		alpha = 0.15
	}
	var out []sdi.Object
	for y := 0; y < height; y += spacing {
		out = append(out, sdi.Object{
			Name:    "effect.scanline",
			X:       0,
			Y:       y,
			W:       width,
			H:       1,
			Visible: true,
			Alpha:   alpha,
		})
	}
	return out
}
