package gfx

import "testing"

func TestParseForms(t *testing.T) {
	cases := []struct {
		in   string
		want Color
	}{
		{"#fff", Color{255, 255, 255, 255}},
		{"#000", Color{0, 0, 0, 255}},
		{"#8A2BE2", Color{0x8A, 0x2B, 0xE2, 255}},
		{"#8a2be2", Color{0x8A, 0x2B, 0xE2, 255}},
		{"#10141880", Color{0x10, 0x14, 0x18, 0x80}},
		{" #f00 ", Color{255, 0, 0, 255}},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	for _, in := range []string{"", "fff", "#", "#ff", "#ffff", "#fffff", "#fffffff", "#gggggg", "red"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", in)
		}
	}
}

func TestHexRoundTrip(t *testing.T) {
	for _, in := range []string{"#8A2BE2", "#00FF0080", "#010203"} {
		c, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		back, err := Parse(c.Hex())
		if err != nil {
			t.Fatalf("Parse(Hex()) of %q: %v", in, err)
		}
		if back != c {
			t.Errorf("round trip of %q: got %+v, want %+v", in, back, c)
		}
	}
}

func TestLightenDarken(t *testing.T) {
	base := MustParse("#808080")
	light := base.Lighten(0.5)
	dark := base.Darken(0.5)
	if !(light.R > base.R && light.G > base.G && light.B > base.B) {
		t.Errorf("Lighten(0.5) of %v = %v, want brighter", base, light)
	}
	if !(dark.R < base.R && dark.G < base.G && dark.B < base.B) {
		t.Errorf("Darken(0.5) of %v = %v, want darker", base, dark)
	}
	if got := base.Lighten(0); got != base {
		t.Errorf("Lighten(0) = %v, want unchanged %v", got, base)
	}
}

func TestWithAlpha(t *testing.T) {
	c := MustParse("#112233").WithAlpha(0.5)
	if c.A != 127 {
		t.Errorf("WithAlpha(0.5).A = %d, want 127", c.A)
	}
	if c.R != 0x11 || c.G != 0x22 || c.B != 0x33 {
		t.Errorf("WithAlpha changed RGB: %+v", c)
	}
	if a := MustParse("#fff").WithAlpha(2).A; a != 255 {
		t.Errorf("WithAlpha(2).A = %d, want clamp to 255", a)
	}
}

func TestMixEndpoints(t *testing.T) {
	a, b := MustParse("#000"), MustParse("#fff")
	if got := a.Mix(b, 0); got != a {
		t.Errorf("Mix(t=0) = %v, want %v", got, a)
	}
	if got := a.Mix(b, 1); got != b {
		t.Errorf("Mix(t=1) = %v, want %v", got, b)
	}
}
