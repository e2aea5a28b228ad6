package skin

import "gitlab.com/tinyland/lab/oasis/pkg/gfx"

// Base is the 9-color palette every skin declares, plus the extended
// properties that steer derivation.
type Base struct {
	Background gfx.Color
	Primary    gfx.Color
	Secondary  gfx.Color
	Text       gfx.Color
	DimText    gfx.Color
	StatusBar  gfx.Color
	Prompt     gfx.Color
	Output     gfx.Color
	Error      gfx.Color

	// Extended properties.
	Surface         gfx.Color
	AccentHover     gfx.Color
	BorderRadius    int
	ShadowIntensity int
	GradientEnabled bool
}

// Theme is the complete slot table the renderer-facing components
// read. Every slot always has a value after Derive.
type Theme struct {
	Base Base

	// Status bar.
	StatusBarBG   gfx.Color
	StatusBarText gfx.Color
	ClockText     gfx.Color
	BatteryText   gfx.Color
	BatteryLow    gfx.Color
	NetText       gfx.Color

	// Terminal.
	TermBG     gfx.Color
	TermText   gfx.Color
	TermPrompt gfx.Color
	TermDim    gfx.Color
	TermError  gfx.Color
	TermCursor gfx.Color

	// Dashboard icons.
	IconBG       gfx.Color
	IconText     gfx.Color
	IconSelected gfx.Color
	IconLabel    gfx.Color

	// Window manager.
	WinTitleBG     gfx.Color
	WinTitleText   gfx.Color
	WinTitleBGBlur gfx.Color
	WinBG          gfx.Color
	WinBorder      gfx.Color
	WinBorderBlur  gfx.Color
	WinShadow      gfx.Color
	WinClose       gfx.Color

	// Browser.
	PageBG      gfx.Color
	PageText    gfx.Color
	PageLink    gfx.Color
	PageHeading gfx.Color
	PageQuote   gfx.Color
	PagePre     gfx.Color
	PageBorder  gfx.Color
	PageErrorBG gfx.Color

	// Widgets.
	ProgressFill  gfx.Color
	ProgressEmpty gfx.Color
	SelectionBG   gfx.Color
}

// Derive computes the full slot table from the base palette. The
// transforms below are the documented derivation rules; overrides
// replace individual slots afterwards (see applyOverrides).
func Derive(b Base) Theme {
	// Extended properties fall back to derived values themselves so a
	// minimal 9-color skin still fills every slot.
	if b.Surface == (gfx.Color{}) {
		b.Surface = b.Background.Lighten(0.08)
	}
	if b.AccentHover == (gfx.Color{}) {
		b.AccentHover = b.Primary.Lighten(0.2)
	}
	return Theme{
		Base: b,

		StatusBarBG:   b.StatusBar.WithAlpha(0.8),
		StatusBarText: b.Text,
		ClockText:     b.Text,
		BatteryText:   b.Primary.Lighten(0.3),
		BatteryLow:    b.Error,
		NetText:       b.Secondary,

		TermBG:     b.Background.WithAlpha(0.95),
		TermText:   b.Output,
		TermPrompt: b.Prompt,
		TermDim:    b.DimText,
		TermError:  b.Error,
		TermCursor: b.Text.WithAlpha(0.7),

		IconBG:       b.Surface,
		IconText:     b.Text,
		IconSelected: b.AccentHover,
		IconLabel:    b.DimText,

		WinTitleBG:     b.Primary.Darken(0.2),
		WinTitleText:   b.Text.Lighten(0.2),
		WinTitleBGBlur: b.Primary.Darken(0.45),
		WinBG:          b.Background.Lighten(0.05),
		WinBorder:      b.Primary,
		WinBorderBlur:  b.DimText,
		WinShadow:      gfx.Black.WithAlpha(0.4),
		WinClose:       b.Error,

		PageBG:      b.Background.Lighten(0.03),
		PageText:    b.Text,
		PageLink:    b.Secondary,
		PageHeading: b.Primary.Lighten(0.2),
		PageQuote:   b.DimText,
		PagePre:     b.Output,
		PageBorder:  b.DimText.Darken(0.2),
		PageErrorBG: b.Error.Darken(0.6),

		ProgressFill:  b.Primary,
		ProgressEmpty: b.Surface,
		SelectionBG:   b.Primary.WithAlpha(0.35),
	}
}

// slotTable maps override keys to theme slots. The same names appear
// in [bar_overrides], [icon_overrides], [browser_overrides] and
// [wm_theme] tables; tables only differ in which subsystem they are
// conventionally grouped under.
func (t *Theme) slotTable() map[string]*gfx.Color {
	return map[string]*gfx.Color{
		"status_bar_bg":   &t.StatusBarBG,
		"status_bar_text": &t.StatusBarText,
		"clock_text":      &t.ClockText,
		"battery_text":    &t.BatteryText,
		"battery_low":     &t.BatteryLow,
		"net_text":        &t.NetText,

		"term_bg":     &t.TermBG,
		"term_text":   &t.TermText,
		"term_prompt": &t.TermPrompt,
		"term_dim":    &t.TermDim,
		"term_error":  &t.TermError,
		"term_cursor": &t.TermCursor,

		"icon_bg":       &t.IconBG,
		"icon_text":     &t.IconText,
		"icon_selected": &t.IconSelected,
		"icon_label":    &t.IconLabel,

		"title_bg":      &t.WinTitleBG,
		"title_text":    &t.WinTitleText,
		"title_bg_blur": &t.WinTitleBGBlur,
		"window_bg":     &t.WinBG,
		"border":        &t.WinBorder,
		"border_blur":   &t.WinBorderBlur,
		"shadow":        &t.WinShadow,
		"close_button":  &t.WinClose,

		"page_bg":       &t.PageBG,
		"page_text":     &t.PageText,
		"link":          &t.PageLink,
		"heading":       &t.PageHeading,
		"quote":         &t.PageQuote,
		"preformatted":  &t.PagePre,
		"table_border":  &t.PageBorder,
		"error_page_bg": &t.PageErrorBG,

		"progress_fill":  &t.ProgressFill,
		"progress_empty": &t.ProgressEmpty,
		"selection_bg":   &t.SelectionBG,
	}
}

// Slot looks up a slot color by its override key. Base colors are
// addressable too, under their palette names.
func (t Theme) Slot(key string) (gfx.Color, bool) {
	switch key {
	case "background":
		return t.Base.Background, true
	case "primary":
		return t.Base.Primary, true
	case "secondary":
		return t.Base.Secondary, true
	case "text":
		return t.Base.Text, true
	case "dim_text":
		return t.Base.DimText, true
	case "status_bar":
		return t.Base.StatusBar, true
	case "prompt":
		return t.Base.Prompt, true
	case "output":
		return t.Base.Output, true
	case "error":
		return t.Base.Error, true
	case "surface":
		return t.Base.Surface, true
	case "accent_hover":
		return t.Base.AccentHover, true
	}
	if p, ok := t.slotTable()[key]; ok {
		return *p, true
	}
	return gfx.Color{}, false
}

// applyOverrides replaces derived slots with explicitly configured
// colors. Unknown keys are ignored for forward compatibility; bad
// color syntax is a load error.
func applyOverrides(t *Theme, overrides map[string]string) error {
	table := t.slotTable()
	for key, raw := range overrides {
		slot, ok := table[key]
		if !ok {
			continue
		}
		c, err := gfx.Parse(raw)
		if err != nil {
			return err
		}
		*slot = c
	}
	return nil
}
