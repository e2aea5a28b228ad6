package skin

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/gfx"
	"gitlab.com/tinyland/lab/oasis/pkg/sdi"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

// TOML-facing structs. Unknown keys are tolerated everywhere for
// forward compatibility (toml.Unmarshal ignores them).

type tomlManifest struct {
	Name         string `toml:"name"`
	Version      string `toml:"version"`
	Author       string `toml:"author"`
	Description  string `toml:"description"`
	ScreenWidth  int    `toml:"screen_width"`
	ScreenHeight int    `toml:"screen_height"`
}

type tomlObject struct {
	X            int     `toml:"x"`
	Y            int     `toml:"y"`
	W            int     `toml:"w"`
	H            int     `toml:"h"`
	Fill         string  `toml:"fill"`
	Text         string  `toml:"text"`
	FontSize     int     `toml:"font_size"`
	TextColor    string  `toml:"text_color"`
	Z            int     `toml:"z"`
	Visible      *bool   `toml:"visible"`
	Alpha        *float64 `toml:"alpha"`
	GradientTop  string  `toml:"gradient_top"`
	GradientBot  string  `toml:"gradient_bottom"`
	BorderRadius int     `toml:"border_radius"`
	StrokeWidth  int     `toml:"stroke_width"`
	StrokeColor  string  `toml:"stroke_color"`
	Shadow       int     `toml:"shadow"`
}

type tomlLayout struct {
	Objects map[string]tomlObject `toml:"objects"`
}

type tomlFeatures struct {
	Dashboard         *bool    `toml:"dashboard"`
	Terminal          *bool    `toml:"terminal"`
	WindowManager     *bool    `toml:"window_manager"`
	Browser           *bool    `toml:"browser"`
	GridCols          int      `toml:"grid_cols"`
	GridRows          int      `toml:"grid_rows"`
	Effects           []string `toml:"effects"`
	CommandCategories []string `toml:"command_categories"`
}

type tomlTheme struct {
	Background string `toml:"background"`
	Primary    string `toml:"primary"`
	Secondary  string `toml:"secondary"`
	Text       string `toml:"text"`
	DimText    string `toml:"dim_text"`
	StatusBar  string `toml:"status_bar"`
	Prompt     string `toml:"prompt"`
	Output     string `toml:"output"`
	Error      string `toml:"error"`

	Surface         string `toml:"surface"`
	AccentHover     string `toml:"accent_hover"`
	BorderRadius    int    `toml:"border_radius"`
	ShadowIntensity int    `toml:"shadow_intensity"`
	GradientEnabled bool   `toml:"gradient_enabled"`

	BarOverrides     map[string]string `toml:"bar_overrides"`
	IconOverrides    map[string]string `toml:"icon_overrides"`
	BrowserOverrides map[string]string `toml:"browser_overrides"`
	WMTheme          map[string]string `toml:"wm_theme"`
}

type tomlStrings struct {
	BootText     []string `toml:"boot_text"`
	PromptFormat string   `toml:"prompt_format"`
}

type tomlEffect struct {
	Intensity float64 `toml:"intensity"`
	JitterPx  int     `toml:"jitter_px"`
	FlickerP  float64 `toml:"flicker_probability"`
	GarbleP   float64 `toml:"garble_probability"`
	MinAlpha  float64 `toml:"min_alpha"`
	SpacingPx int     `toml:"spacing_px"`
	LineAlpha float64 `toml:"line_alpha"`
}

type tomlEffects struct {
	Effects map[string]tomlEffect `toml:"effects"`
}

// LoadDir loads a skin from a VFS directory holding manifest.toml,
// layout.toml and features.toml, plus optional theme.toml,
// strings.toml and effects.toml. The returned skin is complete: a
// missing theme file falls back to the classic palette, and all
// derived slots are filled.
func LoadDir(fs vfs.FS, dir string) (*Skin, error) {
	read := func(name string, required bool) ([]byte, error) {
		data, err := fs.Read(vfs.Join(dir, name))
		if err != nil {
			if !required && fault.KindOf(err) == fault.NotFound {
				return nil, nil
			}
			return nil, fmt.Errorf("skin: %s/%s: %w", dir, name, err)
		}
		return data, nil
	}

	manifestData, err := read("manifest.toml", true)
	if err != nil {
		return nil, err
	}
	layoutData, err := read("layout.toml", true)
	if err != nil {
		return nil, err
	}
	featuresData, err := read("features.toml", true)
	if err != nil {
		return nil, err
	}
	themeData, err := read("theme.toml", false)
	if err != nil {
		return nil, err
	}
	stringsData, err := read("strings.toml", false)
	if err != nil {
		return nil, err
	}
	effectsData, err := read("effects.toml", false)
	if err != nil {
		return nil, err
	}
	return Parse(manifestData, layoutData, featuresData, themeData, stringsData, effectsData)
}

// Parse assembles a skin from raw TOML documents. theme, strings and
// effects may be nil.
func Parse(manifest, layout, features, theme, strs, effects []byte) (*Skin, error) {
	var tm tomlManifest
	if err := toml.Unmarshal(manifest, &tm); err != nil {
		return nil, fault.Wrap(fault.Parse, "skin manifest", err)
	}
	if tm.Name == "" {
		return nil, fault.New(fault.Parse, "skin manifest: missing required field 'name'")
	}
	if tm.ScreenWidth == 0 {
		tm.ScreenWidth = 480
	}
	if tm.ScreenHeight == 0 {
		tm.ScreenHeight = 272
	}

	var tf tomlFeatures
	if err := toml.Unmarshal(features, &tf); err != nil {
		return nil, fault.Wrap(fault.Parse, "skin features", err)
	}

	th, err := parseTheme(theme)
	if err != nil {
		return nil, err
	}

	objs, order, err := parseLayout(layout, th)
	if err != nil {
		return nil, err
	}

	var ts tomlStrings
	if strs != nil {
		if err := toml.Unmarshal(strs, &ts); err != nil {
			return nil, fault.Wrap(fault.Parse, "skin strings", err)
		}
	}

	effectParams := map[string]EffectParams{}
	if effects != nil {
		var te tomlEffects
		if err := toml.Unmarshal(effects, &te); err != nil {
			return nil, fault.Wrap(fault.Parse, "skin effects", err)
		}
		for name, e := range te.Effects {
			effectParams[name] = EffectParams{
				Intensity: e.Intensity,
				JitterPx:  e.JitterPx,
				FlickerP:  e.FlickerP,
				GarbleP:   e.GarbleP,
				MinAlpha:  e.MinAlpha,
				SpacingPx: e.SpacingPx,
				LineAlpha: e.LineAlpha,
			}
		}
	}

	return &Skin{
		Manifest: Manifest{
			Name:         tm.Name,
			Version:      tm.Version,
			Author:       tm.Author,
			Description:  tm.Description,
			ScreenWidth:  tm.ScreenWidth,
			ScreenHeight: tm.ScreenHeight,
		},
		Layout:      objs,
		LayoutOrder: order,
		Features: Features{
			Dashboard:         boolOr(tf.Dashboard, true),
			Terminal:          boolOr(tf.Terminal, true),
			WindowManager:     boolOr(tf.WindowManager, true),
			Browser:           boolOr(tf.Browser, true),
			GridCols:          intOr(tf.GridCols, 4),
			GridRows:          intOr(tf.GridRows, 2),
			Effects:           tf.Effects,
			CommandCategories: tf.CommandCategories,
		},
		Theme:   th,
		Strings: Strings{BootText: ts.BootText, PromptFormat: ts.PromptFormat},
		Effects: effectParams,
	}, nil
}

func parseTheme(data []byte) (Theme, error) {
	base := classicBase()
	var tt tomlTheme
	if data != nil {
		if err := toml.Unmarshal(data, &tt); err != nil {
			return Theme{}, fault.Wrap(fault.Parse, "skin theme", err)
		}
		assign := func(dst *gfx.Color, raw string) error {
			if raw == "" {
				return nil
			}
			c, err := gfx.Parse(raw)
			if err != nil {
				return err
			}
			*dst = c
			return nil
		}
		fields := []struct {
			dst *gfx.Color
			raw string
		}{
			{&base.Background, tt.Background},
			{&base.Primary, tt.Primary},
			{&base.Secondary, tt.Secondary},
			{&base.Text, tt.Text},
			{&base.DimText, tt.DimText},
			{&base.StatusBar, tt.StatusBar},
			{&base.Prompt, tt.Prompt},
			{&base.Output, tt.Output},
			{&base.Error, tt.Error},
			{&base.Surface, tt.Surface},
			{&base.AccentHover, tt.AccentHover},
		}
		for _, f := range fields {
			if err := assign(f.dst, f.raw); err != nil {
				return Theme{}, err
			}
		}
		if tt.BorderRadius > 0 {
			base.BorderRadius = tt.BorderRadius
		}
		if tt.ShadowIntensity > 0 {
			base.ShadowIntensity = tt.ShadowIntensity
		}
		base.GradientEnabled = tt.GradientEnabled
	}
	th := Derive(base)
	for _, overrides := range []map[string]string{tt.BarOverrides, tt.IconOverrides, tt.BrowserOverrides, tt.WMTheme} {
		if err := applyOverrides(&th, overrides); err != nil {
			return Theme{}, err
		}
	}
	return th, nil
}

func parseLayout(data []byte, th Theme) (map[string]sdi.Template, []string, error) {
	var tl tomlLayout
	if err := toml.Unmarshal(data, &tl); err != nil {
		return nil, nil, fault.Wrap(fault.Parse, "skin layout", err)
	}
	objs := map[string]sdi.Template{}
	order := make([]string, 0, len(tl.Objects))
	for name, to := range tl.Objects {
		t := sdi.Template{
			X: to.X, Y: to.Y, W: to.W, H: to.H,
			Text:         to.Text,
			FontSize:     to.FontSize,
			Z:            to.Z,
			Visible:      boolOr(to.Visible, true),
			Alpha:        floatOr(to.Alpha, 1.0),
			BorderRadius: to.BorderRadius,
			StrokeWidth:  to.StrokeWidth,
			ShadowLevel:  to.Shadow,
		}
		var err error
		if to.Fill != "" {
			if t.Fill, err = resolveColor(th, to.Fill); err != nil {
				return nil, nil, fmt.Errorf("skin: layout object %q: %w", name, err)
			}
		}
		if to.TextColor != "" {
			if t.TextColor, err = resolveColor(th, to.TextColor); err != nil {
				return nil, nil, fmt.Errorf("skin: layout object %q: %w", name, err)
			}
		} else {
			t.TextColor = th.Base.Text
		}
		if to.StrokeColor != "" {
			if t.StrokeColor, err = resolveColor(th, to.StrokeColor); err != nil {
				return nil, nil, fmt.Errorf("skin: layout object %q: %w", name, err)
			}
		}
		if to.GradientTop != "" && to.GradientBot != "" {
			t.HasGradient = true
			if t.GradientTop, err = resolveColor(th, to.GradientTop); err != nil {
				return nil, nil, fmt.Errorf("skin: layout object %q: %w", name, err)
			}
			if t.GradientBottom, err = resolveColor(th, to.GradientBot); err != nil {
				return nil, nil, fmt.Errorf("skin: layout object %q: %w", name, err)
			}
		}
		objs[name] = t
		order = append(order, name)
	}
	sort.Strings(order)
	return objs, order, nil
}

// ScanDir registers every skin found under dir (one subdirectory per
// skin). Broken skins are skipped and reported; good skins register.
func (m *Manager) ScanDir(fs vfs.FS, dir string) (loaded []string, errs []error) {
	entries, err := fs.List(dir)
	if err != nil {
		return nil, []error{err}
	}
	for _, e := range entries {
		if e.Kind != vfs.KindDir {
			continue
		}
		s, err := LoadDir(fs, vfs.Join(dir, e.Name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.Register(s)
		loaded = append(loaded, s.Manifest.Name)
	}
	return loaded, errs
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func intOr(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
