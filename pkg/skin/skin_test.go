package skin

import (
	"math/rand"
	"strings"
	"testing"

	"gitlab.com/tinyland/lab/oasis/pkg/gfx"
	"gitlab.com/tinyland/lab/oasis/pkg/sdi"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

func TestDeriveTotality(t *testing.T) {
	// Every slot must have a value even from a bare 9-color palette.
	th := Derive(classicBase())
	for key, slot := range th.slotTable() {
		if *slot == (gfx.Color{}) {
			t.Errorf("derived slot %q is zero", key)
		}
	}
}

func TestDeriveDocumentedTransforms(t *testing.T) {
	b := classicBase()
	th := Derive(b)
	if want := b.StatusBar.WithAlpha(0.8); th.StatusBarBG != want {
		t.Errorf("StatusBarBG = %v, want alpha(status_bar, 0.8) = %v", th.StatusBarBG, want)
	}
	if want := b.Primary.Lighten(0.3); th.BatteryText != want {
		t.Errorf("BatteryText = %v, want lighten(primary, 0.3) = %v", th.BatteryText, want)
	}
}

func TestSlotLookup(t *testing.T) {
	th := Derive(modernBase())
	c, ok := th.Slot("primary")
	if !ok {
		t.Fatal("Slot(primary) not found")
	}
	if c.Hex() != "#8A2BE2" {
		t.Errorf("modern primary = %s, want #8A2BE2", c.Hex())
	}
	if _, ok := th.Slot("no-such-slot"); ok {
		t.Error("Slot(no-such-slot) found")
	}
}

const minimalManifest = `
name = "minimal"
version = "0.1"
`

const minimalLayout = `
[objects.backdrop]
x = 0
y = 0
w = 480
h = 272
fill = "background"
z = -10
`

const minimalFeatures = `
dashboard = true
terminal = true
`

func TestParseMinimalSkin(t *testing.T) {
	s, err := Parse([]byte(minimalManifest), []byte(minimalLayout), []byte(minimalFeatures), nil, nil, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Manifest.Name != "minimal" {
		t.Errorf("Name = %q", s.Manifest.Name)
	}
	if s.Manifest.ScreenWidth != 480 || s.Manifest.ScreenHeight != 272 {
		t.Errorf("screen = %dx%d, want 480x272 defaults", s.Manifest.ScreenWidth, s.Manifest.ScreenHeight)
	}
	// Minimal skin still has a complete theme.
	for key, slot := range s.Theme.slotTable() {
		if *slot == (gfx.Color{}) {
			t.Errorf("minimal skin slot %q is zero", key)
		}
	}
	bd, ok := s.Layout["backdrop"]
	if !ok {
		t.Fatal("layout object backdrop missing")
	}
	if bd.Fill != s.Theme.Base.Background {
		t.Errorf("backdrop fill = %v, want theme background %v", bd.Fill, s.Theme.Base.Background)
	}
	if !bd.Visible || bd.Alpha != 1 {
		t.Errorf("backdrop defaults: visible=%v alpha=%v", bd.Visible, bd.Alpha)
	}
}

func TestParseThemeOverrides(t *testing.T) {
	theme := `
background = "#111111"
primary = "#222222"

[wm_theme]
title_bg = "#ABCDEF"

[bar_overrides]
battery_text = "#0F0F0F"
unknown_key = "#123456"
`
	s, err := Parse([]byte(minimalManifest), []byte(minimalLayout), []byte(minimalFeatures), []byte(theme), nil, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Theme.WinTitleBG.Hex() != "#ABCDEF" {
		t.Errorf("WinTitleBG = %s, want override #ABCDEF", s.Theme.WinTitleBG.Hex())
	}
	if s.Theme.BatteryText.Hex() != "#0F0F0F" {
		t.Errorf("BatteryText = %s, want override #0F0F0F", s.Theme.BatteryText.Hex())
	}
	// Slots without overrides keep derived values.
	if want := gfx.MustParse("#222222").Darken(0.45); s.Theme.WinTitleBGBlur != want {
		t.Errorf("WinTitleBGBlur = %v, want derived %v", s.Theme.WinTitleBGBlur, want)
	}
}

func TestParseBadColorFails(t *testing.T) {
	theme := "background = \"nothex\"\n"
	if _, err := Parse([]byte(minimalManifest), []byte(minimalLayout), []byte(minimalFeatures), []byte(theme), nil, nil); err == nil {
		t.Error("Parse with bad color succeeded")
	}
}

func TestManagerSwap(t *testing.T) {
	m, err := NewManager("classic")
	if err != nil {
		t.Fatal(err)
	}
	reg := sdi.NewRegistry()
	if err := m.Current().Apply(reg); err != nil {
		t.Fatal(err)
	}
	before := reg.Len()
	if before == 0 {
		t.Fatal("classic layout created no objects")
	}
	if err := m.Swap("modern", reg); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if m.Current().Manifest.Name != "modern" {
		t.Errorf("Current = %q after swap", m.Current().Manifest.Name)
	}
	// All layout objects belong to the new skin now.
	for _, name := range reg.Names() {
		if !strings.HasPrefix(name, LayoutPrefix) {
			t.Errorf("unexpected object %q", name)
		}
	}
}

func TestManagerSwapUnknownLeavesCurrent(t *testing.T) {
	m, err := NewManager("")
	if err != nil {
		t.Fatal(err)
	}
	reg := sdi.NewRegistry()
	if err := m.Current().Apply(reg); err != nil {
		t.Fatal(err)
	}
	before := reg.Len()
	if err := m.Swap("no-such-skin", reg); err == nil {
		t.Fatal("Swap to unknown skin succeeded")
	}
	if m.Current().Manifest.Name != "classic" {
		t.Errorf("Current = %q, want classic", m.Current().Manifest.Name)
	}
	if reg.Len() != before {
		t.Errorf("registry changed by failed swap: %d -> %d", before, reg.Len())
	}
}

func TestFeaturesAllowsCategory(t *testing.T) {
	f := Features{}
	if !f.AllowsCategory("network") {
		t.Error("empty category list should allow everything")
	}
	f.CommandCategories = []string{"filesystem", "system"}
	if !f.AllowsCategory("Filesystem") {
		t.Error("case-folded category refused")
	}
	if f.AllowsCategory("network") {
		t.Error("unlisted category allowed")
	}
}

func TestScanDir(t *testing.T) {
	fs := vfs.NewMemFS()
	dir := "/etc/skins/custom"
	if err := fs.Mkdir(dir); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"manifest.toml": "name = \"custom\"\n",
		"layout.toml":   minimalLayout,
		"features.toml": minimalFeatures,
	}
	for name, content := range files {
		if err := fs.Write(dir+"/"+name, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	m, _ := NewManager("")
	loaded, errs := m.ScanDir(fs, "/etc/skins")
	if len(errs) != 0 {
		t.Fatalf("ScanDir errors: %v", errs)
	}
	if len(loaded) != 1 || loaded[0] != "custom" {
		t.Fatalf("loaded = %v, want [custom]", loaded)
	}
	if _, err := m.Get("custom"); err != nil {
		t.Errorf("Get(custom): %v", err)
	}
}

func TestCorruptedEffectPreservesRegistry(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	e := NewEffect("corrupted", EffectParams{Intensity: 1, GarbleP: 1, FlickerP: 1, JitterPx: 3, MinAlpha: 0.3}, rng)
	if e == nil {
		t.Fatal("NewEffect(corrupted) = nil")
	}
	orig := sdi.Object{Name: "label", X: 100, Y: 100, Text: "hello", Visible: true, Alpha: 1}
	frame := []sdi.Object{orig}
	e.Apply(1, frame)
	if frame[0].Text == "hello" && frame[0].X == 100 && frame[0].Y == 100 {
		t.Error("effect with full intensity changed nothing")
	}
	if orig.Text != "hello" {
		t.Error("effect mutated the original object")
	}
	if frame[0].Alpha < 0.3 {
		t.Errorf("alpha %f below configured minimum", frame[0].Alpha)
	}
}

func TestScanlineRects(t *testing.T) {
	strips := ScanlineRects(EffectParams{SpacingPx: 4, LineAlpha: 0.2}, 480, 272)
	if len(strips) != 68 {
		t.Errorf("strip count = %d, want 68", len(strips))
	}
	for _, s := range strips {
		if s.W != 480 || s.H != 1 {
			t.Fatalf("strip geometry %dx%d, want 480x1", s.W, s.H)
		}
	}
}

func TestUnknownEffectIsNil(t *testing.T) {
	if e := NewEffect("wobble", EffectParams{}, rand.New(rand.NewSource(1))); e != nil {
		t.Errorf("NewEffect(wobble) = %v, want nil", e)
	}
}
