// Package widgets holds the stateless renderable components the apps
// compose: labels, panels, progress bars, status bar segments and the
// dashboard icon grid. A widget is a function from its inputs to SDI
// mutations; it owns objects under its name prefix and nothing else.
package widgets

import (
	"fmt"

	"gitlab.com/tinyland/lab/oasis/pkg/gfx"
	"gitlab.com/tinyland/lab/oasis/pkg/sdi"
	"gitlab.com/tinyland/lab/oasis/pkg/skin"
)

// upsert creates or patches the named object so widgets can be called
// every frame without tracking creation state.
func upsert(reg *sdi.Registry, name string, t sdi.Template) {
	if reg.Has(name) {
		_ = reg.Update(name, sdi.Patch{
			SetPos: true, X: t.X, Y: t.Y,
			SetSize: true, W: t.W, H: t.H,
			SetFill: true, Fill: t.Fill,
			SetText: true, Text: t.Text,
			SetTextColor: true, TextColor: t.TextColor,
			SetFontSize: true, FontSize: t.FontSize,
			SetZ: true, Z: t.Z,
			SetVisible: true, Visible: t.Visible,
			SetAlpha: true, Alpha: t.Alpha,
			SetStroke: true, StrokeWidth: t.StrokeWidth, StrokeColor: t.StrokeColor,
			SetGradient: true, HasGradient: t.HasGradient, GradientTop: t.GradientTop, GradientBottom: t.GradientBottom,
			SetBorderRadius: true, BorderRadius: t.BorderRadius,
			SetShadowLevel: true, ShadowLevel: t.ShadowLevel,
		})
		return
	}
	_, _ = reg.Create(name, t)
}

// Label places a text run.
func Label(reg *sdi.Registry, name string, x, y int, text string, size int, color gfx.Color, z int) {
	upsert(reg, name, sdi.Template{
		X: x, Y: y, W: len(text) * size, H: size + 2,
		Text: text, FontSize: size, TextColor: color,
		Z: z, Visible: true, Alpha: 1,
	})
}

// Panel places a filled rectangle, picking up radius, shadow and
// gradient defaults from the theme's extended properties.
func Panel(reg *sdi.Registry, name string, r sdi.Template, th skin.Theme) {
	if r.BorderRadius == 0 {
		r.BorderRadius = th.Base.BorderRadius
	}
	if r.ShadowLevel == 0 {
		r.ShadowLevel = th.Base.ShadowIntensity
	}
	if th.Base.GradientEnabled && !r.HasGradient {
		r.HasGradient = true
		r.GradientTop = r.Fill.Lighten(0.06)
		r.GradientBottom = r.Fill.Darken(0.06)
	}
	if r.Alpha == 0 {
		r.Alpha = 1
	}
	r.Visible = true
	upsert(reg, name, r)
}

// ProgressBar renders a horizontal gauge; frac is clamped to [0,1].
func ProgressBar(reg *sdi.Registry, name string, x, y, w, h int, frac float64, th skin.Theme, z int) {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	upsert(reg, name+".empty", sdi.Template{
		X: x, Y: y, W: w, H: h,
		Fill: th.ProgressEmpty, Z: z, Visible: true, Alpha: 1,
		BorderRadius: th.Base.BorderRadius,
	})
	upsert(reg, name+".fill", sdi.Template{
		X: x, Y: y, W: int(float64(w) * frac), H: h,
		Fill: th.ProgressFill, Z: z + 1, Visible: true, Alpha: 1,
		BorderRadius: th.Base.BorderRadius,
	})
}

// StatusSegments updates the skin-provided status bar slots: clock,
// battery and title. Skins may omit slots; missing ones are skipped.
func StatusSegments(reg *sdi.Registry, clock, battery, title string) {
	set := func(name, text string) {
		if reg.Has(name) {
			_ = reg.Update(name, sdi.Patch{SetText: true, Text: text})
		}
	}
	set(skin.LayoutPrefix+"statusbar.clock", clock)
	set(skin.LayoutPrefix+"statusbar.battery", battery)
	set(skin.LayoutPrefix+"statusbar.title", title)
}

// IconCell describes one dashboard tile.
type IconCell struct {
	ID    string
	Label string
}

// CellRect returns the bounds of tile i in a grid with cols columns.
func CellRect(i, cols int) (x, y, w, h int) {
	if cols < 1 {
		cols = 4
	}
	const (
		originX = 24
		originY = 40
		cellW   = 88
		cellH   = 72
		gapX    = 16
		gapY    = 20
	)
	col, row := i%cols, i/cols
	return originX + col*(cellW+gapX), originY + row*(cellH+gapY), cellW, cellH
}

// IconGrid lays out the dashboard tiles in the skin's grid and
// highlights the selected one.
func IconGrid(reg *sdi.Registry, prefix string, cells []IconCell, cols, rows, selected int, th skin.Theme, z int) {
	if cols < 1 {
		cols = 4
	}
	for i, c := range cells {
		if rows > 0 && i/cols >= rows {
			break
		}
		x, y, cellW, cellH := CellRect(i, cols)
		fill := th.IconBG
		if i == selected {
			fill = th.IconSelected
		}
		upsert(reg, fmt.Sprintf("%s.%s.tile", prefix, c.ID), sdi.Template{
			X: x, Y: y, W: cellW, H: cellH - 16,
			Fill: fill, Z: z, Visible: true, Alpha: 1,
			BorderRadius: th.Base.BorderRadius,
			ShadowLevel:  th.Base.ShadowIntensity,
		})
		labelColor := th.IconLabel
		if i == selected {
			labelColor = th.IconText
		}
		upsert(reg, fmt.Sprintf("%s.%s.label", prefix, c.ID), sdi.Template{
			X: x + 4, Y: y + cellH - 12, W: cellW - 8, H: 10,
			Text: c.Label, FontSize: 8, TextColor: labelColor,
			Z: z + 1, Visible: true, Alpha: 1,
		})
	}
}
