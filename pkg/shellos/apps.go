package shellos

import (
	"strconv"
	"strings"

	"gitlab.com/tinyland/lab/oasis/pkg/backend"
	"gitlab.com/tinyland/lab/oasis/pkg/browser"
	"gitlab.com/tinyland/lab/oasis/pkg/input"
	"gitlab.com/tinyland/lab/oasis/pkg/sdi"
	"gitlab.com/tinyland/lab/oasis/pkg/term"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
	"gitlab.com/tinyland/lab/oasis/pkg/widgets"
	"gitlab.com/tinyland/lab/oasis/pkg/wm"
)

// Surface layout constants in virtual pixels.
const (
	statusBarHeight = 18
	termLineH       = 11
	termMargin      = 6
	termRows        = (backend.VirtualHeight - statusBarHeight - 2*termMargin) / termLineH
)

// Per-surface SDI prefixes; switching surfaces destroys the outgoing
// prefix wholesale.
const (
	dashPrefix = "dash"
	termPrefix = "term"
	wmPrefix   = "wm"
)

// setMode switches the active surface and rebuilds its objects.
func (rt *Runtime) setMode(m Mode) {
	rt.reg.DestroyPrefix(dashPrefix + ".")
	rt.reg.DestroyPrefix(termPrefix + ".")
	rt.mode = m
	rt.redrawSurface()
}

// redrawSurface rebuilds the active surface's SDI objects, used after
// mode switches and skin swaps.
func (rt *Runtime) redrawSurface() {
	rt.reg.DestroyPrefix(dashPrefix + ".")
	rt.reg.DestroyPrefix(termPrefix + ".")
	rt.updateSurface()
}

// updateSurface refreshes the active surface's SDI objects each frame.
func (rt *Runtime) updateSurface() {
	switch rt.mode {
	case ModeDashboard:
		rt.drawDashboard()
	case ModeTerminal:
		rt.drawTerminal()
	}
	rt.drawWindows()
}

// --- Dashboard ---

func (rt *Runtime) handleDashboardEvent(ev input.Event) {
	features := rt.skins.Current().Features
	if !features.Dashboard {
		return
	}
	cols := features.GridCols
	switch e := ev.(type) {
	case input.ButtonPress:
		switch e.Button {
		case input.Left:
			if rt.selected > 0 {
				rt.selected--
			}
		case input.Right:
			if rt.selected < len(rt.cells)-1 {
				rt.selected++
			}
		case input.Up:
			if rt.selected >= cols {
				rt.selected -= cols
			}
		case input.Down:
			if rt.selected+cols < len(rt.cells) {
				rt.selected += cols
			}
		case input.Confirm, input.Start:
			rt.openCell(rt.cells[rt.selected])
		}
	case input.PointerDown:
		for i := range rt.cells {
			x, y, w, h := widgets.CellRect(i, cols)
			if (backend.Rect{X: x, Y: y, W: w, H: h}).Contains(e.X, e.Y) {
				rt.selected = i
				rt.openCell(rt.cells[i])
				return
			}
		}
	}
}

// openCell launches the app behind a dashboard tile.
func (rt *Runtime) openCell(id string) {
	features := rt.skins.Current().Features
	switch id {
	case "terminal":
		if features.Terminal {
			rt.setMode(ModeTerminal)
		}
	case "browser":
		if features.Browser {
			rt.setMode(ModeBrowser)
		}
	case "files":
		rt.setMode(ModeTerminal)
		rt.submitLine("ls")
	case "music":
		rt.setMode(ModeTerminal)
		rt.submitLine("playlist")
	case "settings":
		rt.setMode(ModeTerminal)
		rt.submitLine("skin list")
	}
}

func (rt *Runtime) drawDashboard() {
	features := rt.skins.Current().Features
	if !features.Dashboard {
		return
	}
	th := rt.skins.Current().Theme
	cells := make([]widgets.IconCell, len(rt.cells))
	for i, id := range rt.cells {
		cells[i] = widgets.IconCell{ID: id, Label: id}
	}
	widgets.IconGrid(rt.reg, dashPrefix, cells, features.GridCols, features.GridRows, rt.selected, th, 10)
}

// --- Terminal ---

func (rt *Runtime) handleTerminalEvent(ev input.Event) {
	switch e := ev.(type) {
	case input.TextInput:
		for _, r := range e.Text {
			if r == '\n' || r == '\r' {
				rt.submitLine(string(rt.inputLine))
				rt.inputLine = nil
			} else {
				rt.inputLine = append(rt.inputLine, r)
			}
		}
	case input.ButtonPress:
		switch e.Button {
		case input.Confirm:
			rt.submitLine(string(rt.inputLine))
			rt.inputLine = nil
			rt.histPos = 0
		case input.Cancel:
			if len(rt.inputLine) > 0 {
				rt.inputLine = rt.inputLine[:len(rt.inputLine)-1]
			} else {
				rt.setMode(ModeDashboard)
			}
		case input.Up:
			rt.recallHistory(1)
		case input.Down:
			rt.recallHistory(-1)
		case input.ShoulderL:
			rt.buffer.Scroll(termRows / 2)
		case input.ShoulderR:
			rt.buffer.Scroll(-termRows / 2)
		case input.Start:
			rt.setMode(ModeDashboard)
		}
	case input.Wheel:
		rt.buffer.Scroll(e.DY)
	}
}

// recallHistory walks the ring into the input line.
func (rt *Runtime) recallHistory(dir int) {
	h := rt.interp.Env.History
	if h.Len() == 0 {
		return
	}
	rt.histPos += dir
	if rt.histPos < 1 {
		rt.histPos = 0
		rt.inputLine = nil
		return
	}
	if rt.histPos > h.Len() {
		rt.histPos = h.Len()
	}
	var lines []string
	h.Each(func(_ int, l string) { lines = append(lines, l) })
	rt.inputLine = []rune(lines[len(lines)-rt.histPos])
}

// prompt renders the skin's prompt format against the environment.
func (rt *Runtime) prompt() string {
	p := rt.skins.Current().Prompt()
	p = strings.ReplaceAll(p, "$CWD", rt.interp.Env.CWD)
	p = strings.ReplaceAll(p, "$USER", rt.interp.Env.User)
	return p
}

// submitLine executes a terminal line and folds its outputs into the
// scrollback.
func (rt *Runtime) submitLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	rt.buffer.Append(rt.prompt() + line)
	for _, out := range rt.interp.Execute(line) {
		rt.applyOutput(line, out)
	}
}

// Exec runs a line through the interpreter with full signal routing
// and returns the text that reached the scrollback. The embedding
// surface's send_command is built on this.
func (rt *Runtime) Exec(line string) string {
	mark := rt.buffer.Len()
	for _, out := range rt.interp.Execute(line) {
		rt.applyOutput(line, out)
	}
	view := rt.buffer.View(rt.buffer.Len())
	if mark > len(view) {
		return ""
	}
	var b strings.Builder
	for _, l := range view[mark:] {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// applyOutput routes one command output: text to the buffer, signals
// to their owners.
func (rt *Runtime) applyOutput(origin string, out term.Output) {
	switch out.Kind {
	case term.KindText:
		rt.buffer.Append(out.Lines...)
	case term.KindTable:
		for _, row := range out.Rows {
			rt.buffer.Append(strings.Join(row, "  "))
		}
	case term.KindClear:
		rt.buffer.Clear()
	case term.KindSkinSwap:
		if err := rt.swapSkin(out.Skin); err != nil {
			rt.buffer.Append("skin: " + err.Error())
			rt.interp.Env.LastStatus = 1
		} else {
			rt.buffer.Append("skin: now " + out.Skin)
		}
	case term.KindScreenshot:
		rt.saveScreenshot(out.Image)
	case term.KindExit:
		if rt.mode == ModeTerminal {
			rt.setMode(ModeDashboard)
		} else {
			rt.exited = true
			rt.exitCode = out.Code
		}
	case term.KindError:
		if out.Err != nil {
			rt.buffer.Append(out.Err.Error())
		}
	case term.KindPending:
		rt.addPending(origin, out.Pend)
	}
}

// saveScreenshot writes encoded image bytes to a numbered VFS path.
func (rt *Runtime) saveScreenshot(img []byte) {
	for i := 1; ; i++ {
		path := fmtScreenshotPath(i)
		if _, err := rt.fs.Stat(path); err != nil {
			if werr := rt.fs.Write(path, img); werr != nil {
				rt.buffer.Append("screenshot: " + werr.Error())
			} else {
				rt.buffer.Append("screenshot: saved " + path)
			}
			return
		}
	}
}

func fmtScreenshotPath(i int) string {
	return "/home/guest/screenshot-" + strconv.Itoa(i) + ".png"
}

func (rt *Runtime) drawTerminal() {
	th := rt.skins.Current().Theme
	widgets.Panel(rt.reg, termPrefix+".bg", sdi.Template{
		X: 0, Y: statusBarHeight, W: backend.VirtualWidth, H: backend.VirtualHeight - statusBarHeight,
		Fill: th.TermBG, Z: 5,
	}, th)

	view := rt.buffer.View(termRows - 1)
	y := statusBarHeight + termMargin
	for i := 0; i < termRows-1; i++ {
		text := ""
		if i < len(view) {
			text = view[i]
		}
		color := th.TermText
		if strings.HasPrefix(text, rt.prompt()) {
			color = th.TermDim
		}
		widgets.Label(rt.reg, termPrefix+".line"+strconv.Itoa(i), termMargin, y, text, 8, color, 20)
		y += termLineH
	}
	// Input row with an underscore cursor.
	widgets.Label(rt.reg, termPrefix+".input", termMargin, y,
		rt.prompt()+string(rt.inputLine)+"_", 8, th.TermPrompt, 20)
}

// --- Browser surface ---

func (rt *Runtime) handleBrowserEvent(ev input.Event) {
	switch e := ev.(type) {
	case input.ButtonPress:
		switch e.Button {
		case input.Up:
			rt.pageTop -= termLineH * 2
			if rt.pageTop < 0 {
				rt.pageTop = 0
			}
		case input.Down:
			rt.pageTop += termLineH * 2
		case input.Cancel, input.ShoulderL:
			if url, ok := rt.nav.Back(); ok {
				rt.loadPage(url, false)
			} else {
				rt.setMode(ModeDashboard)
			}
		case input.ShoulderR:
			if url, ok := rt.nav.Forward(); ok {
				rt.loadPage(url, false)
			}
		case input.Start:
			rt.setMode(ModeDashboard)
		}
	case input.Wheel:
		rt.pageTop -= e.DY * termLineH
		if rt.pageTop < 0 {
			rt.pageTop = 0
		}
	}
}

// loadPage fetches and renders a URL. record adds it to the nav stack
// (false for back/forward re-visits). Any pending render for another
// page is discarded by replacement.
func (rt *Runtime) loadPage(url string, record bool) {
	th := rt.skins.Current().Theme
	var page browser.Page
	if rt.loader == nil {
		page = browser.Page{URL: url, MIME: "text/html",
			Body: browser.ErrorPage(0, "Offline", "This host has no network backend.")}
	} else {
		p, err := rt.loader.Load(url)
		if err != nil {
			rt.buffer.Append("browse: " + err.Error())
			return
		}
		page = p
	}
	rt.page = &page
	rt.pageTop = 0
	if record {
		rt.nav.Visit(page.URL)
		rt.appendBrowseHistory(page.URL)
	}
	width := backend.VirtualWidth - 8
	if page.MIME == "text/gemini" {
		rt.paints = browser.RenderGemtext(page.Body, width, th)
	} else {
		rt.paints = browser.Render(page.Body, width, th)
	}
	rt.setMode(ModeBrowser)
}

// paintBrowser forwards the current page's paint commands to the
// backend, offset below the status bar and by the scroll position.
func (rt *Runtime) paintBrowser() {
	th := rt.skins.Current().Theme
	content := backend.Rect{X: 0, Y: statusBarHeight, W: backend.VirtualWidth, H: backend.VirtualHeight - statusBarHeight}
	rt.render.FillRect(content, th.PageBG)
	rt.render.PushClip(content)
	defer rt.render.PopClip()
	for _, cmd := range rt.paints {
		r := cmd.Rect
		r.Y += statusBarHeight - rt.pageTop
		switch cmd.Kind {
		case browser.PaintFill:
			rt.render.FillRect(r, cmd.Color)
		case browser.PaintText:
			rt.render.DrawText(r.X, r.Y, cmd.Text, backend.TextStyle{Size: cmd.Size, Color: cmd.Color})
		case browser.PaintBorder:
			rt.render.StrokeRect(r, 1, cmd.Color)
		case browser.PaintImage:
			rt.render.Blit(cmd.Texture, r)
		}
	}
}

// appendBrowseHistory records a visit in the conventional dotfile.
func (rt *Runtime) appendBrowseHistory(url string) {
	prev, _ := rt.fs.Read(vfs.BrowseHistoryPath)
	_ = rt.fs.Write(vfs.BrowseHistoryPath, append(prev, []byte(url+"\n")...))
}

// --- Window chrome ---

// drawWindows mirrors the window set into SDI chrome objects.
func (rt *Runtime) drawWindows() {
	if rt.wins == nil {
		return
	}
	th := rt.skins.Current().Theme
	rt.reg.DestroyPrefix(wmPrefix + ".")
	focused, _ := rt.wins.Focused()
	baseZ := 50
	for i, w := range rt.wins.Windows() {
		if w.State == wm.Minimized {
			continue
		}
		frame := w.Frame()
		titleBG := th.WinTitleBGBlur
		border := th.WinBorderBlur
		if focused != nil && focused.ID == w.ID {
			titleBG = th.WinTitleBG
			border = th.WinBorder
		}
		z := baseZ + i*4
		prefix := wmPrefix + "." + strconv.Itoa(w.ID)
		widgets.Panel(rt.reg, prefix+".frame", sdi.Template{
			X: frame.X, Y: frame.Y, W: frame.W, H: frame.H,
			Fill: th.WinBG, Z: z, StrokeWidth: wm.BorderWidth, StrokeColor: border,
		}, th)
		widgets.Panel(rt.reg, prefix+".title", sdi.Template{
			X: frame.X, Y: frame.Y, W: frame.W, H: wm.TitleBarHeight,
			Fill: titleBG, Z: z + 1,
		}, th)
		widgets.Label(rt.reg, prefix+".titletext", frame.X+4, frame.Y+3, w.Title, 8, th.WinTitleText, z+2)
		widgets.Label(rt.reg, prefix+".close", frame.X+frame.W-wm.TitleBarHeight+4, frame.Y+3, "x", 8, th.WinClose, z+2)
	}
}
