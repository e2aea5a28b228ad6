package skin

import (
	"gitlab.com/tinyland/lab/oasis/pkg/gfx"
	"gitlab.com/tinyland/lab/oasis/pkg/sdi"
)

// classicBase is the fallback palette: a muted green-on-dark console
// look. Every theme load starts from it, so a skin declaring only a
// few colors still produces a complete theme.
func classicBase() Base {
	return Base{
		Background: gfx.MustParse("#101418"),
		Primary:    gfx.MustParse("#3FA66A"),
		Secondary:  gfx.MustParse("#5FB3B3"),
		Text:       gfx.MustParse("#D8DEE9"),
		DimText:    gfx.MustParse("#6B7380"),
		StatusBar:  gfx.MustParse("#1C232B"),
		Prompt:     gfx.MustParse("#3FA66A"),
		Output:     gfx.MustParse("#C0C8D0"),
		Error:      gfx.MustParse("#D9534F"),

		BorderRadius:    0,
		ShadowIntensity: 1,
	}
}

// modernBase is the second built-in palette: purple accents, rounded
// corners, gradients on.
func modernBase() Base {
	return Base{
		Background: gfx.MustParse("#14101E"),
		Primary:    gfx.MustParse("#8A2BE2"),
		Secondary:  gfx.MustParse("#5FB0FF"),
		Text:       gfx.MustParse("#ECE6F5"),
		DimText:    gfx.MustParse("#7A7290"),
		StatusBar:  gfx.MustParse("#1E1530"),
		Prompt:     gfx.MustParse("#B06CF0"),
		Output:     gfx.MustParse("#D5CCE8"),
		Error:      gfx.MustParse("#FF5370"),

		BorderRadius:    4,
		ShadowIntensity: 2,
		GradientEnabled: true,
	}
}

// builtinLayout is the shared layout shape of the built-in skins:
// a full-screen backdrop, the status bar strip, and its battery, clock
// and title slots.
// Colors come from the skin's own theme.
func builtinLayout(th Theme) (map[string]sdi.Template, []string) {
	objs := map[string]sdi.Template{
		"backdrop": {
			X: 0, Y: 0, W: 480, H: 272,
			Fill: th.Base.Background, Z: -100, Visible: true, Alpha: 1,
		},
		"statusbar": {
			X: 0, Y: 0, W: 480, H: 18,
			Fill: th.StatusBarBG, Z: 90, Visible: true, Alpha: 1,
		},
		"statusbar.clock": {
			X: 430, Y: 5, W: 46, H: 10,
			TextColor: th.ClockText, FontSize: 8, Z: 91, Visible: true, Alpha: 1,
		},
		"statusbar.battery": {
			X: 390, Y: 5, W: 34, H: 10,
			TextColor: th.BatteryText, FontSize: 8, Z: 91, Visible: true, Alpha: 1,
		},
		"statusbar.title": {
			X: 6, Y: 5, W: 200, H: 10,
			Text: "OASIS", TextColor: th.StatusBarText, FontSize: 8, Z: 91, Visible: true, Alpha: 1,
		},
	}
	order := []string{"backdrop", "statusbar", "statusbar.battery", "statusbar.clock", "statusbar.title"}
	return objs, order
}

// builtinSkins constructs the in-memory skins available without any
// VFS content: classic and modern.
func builtinSkins() []*Skin {
	classicTheme := Derive(classicBase())
	classicLayout, classicOrder := builtinLayout(classicTheme)
	classic := &Skin{
		Manifest: Manifest{
			Name:         "classic",
			Version:      "1.0",
			Author:       "oasis",
			Description:  "Muted console green. The boot default.",
			ScreenWidth:  480,
			ScreenHeight: 272,
		},
		Layout:      classicLayout,
		LayoutOrder: classicOrder,
		Features: Features{
			Dashboard: true, Terminal: true, WindowManager: true, Browser: true,
			GridCols: 4, GridRows: 2,
		},
		Theme: classicTheme,
		Strings: Strings{
			BootText:     []string{"OASIS 1.0", "booting classic shell..."},
			PromptFormat: "$CWD> ",
		},
		Effects: map[string]EffectParams{},
	}

	modernTheme := Derive(modernBase())
	modernLayout, modernOrder := builtinLayout(modernTheme)
	modern := &Skin{
		Manifest: Manifest{
			Name:         "modern",
			Version:      "1.0",
			Author:       "oasis",
			Description:  "Purple gradients, rounded corners, scanlines.",
			ScreenWidth:  480,
			ScreenHeight: 272,
		},
		Layout:      modernLayout,
		LayoutOrder: modernOrder,
		Features: Features{
			Dashboard: true, Terminal: true, WindowManager: true, Browser: true,
			GridCols: 5, GridRows: 2,
			Effects: []string{"scanlines"},
		},
		Theme: modernTheme,
		Strings: Strings{
			BootText:     []string{"OASIS 1.0", "modern shell online"},
			PromptFormat: "[$USER $CWD]> ",
		},
		Effects: map[string]EffectParams{
			"scanlines": {Intensity: 1, SpacingPx: 3, LineAlpha: 0.12},
		},
	}

	return []*Skin{classic, modern}
}
