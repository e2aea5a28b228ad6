package shellos

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gitlab.com/tinyland/lab/oasis/pkg/backend"
	"gitlab.com/tinyland/lab/oasis/pkg/browser"
	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/term"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
	"gitlab.com/tinyland/lab/oasis/pkg/wm"
)

// registerRuntimeCommands adds the commands that need coordinator
// state: ui, network, browser, audio and agent categories.
func (rt *Runtime) registerRuntimeCommands(reg *term.Registry) {
	rt.registerUICommands(reg)
	rt.registerNetworkCommands(reg)
	rt.registerBrowserCommands(reg)
	rt.registerAudioCommands(reg)
	reg.Register(&term.Command{
		Name: "agent", Category: term.CatAgent,
		Description: "List or invoke host callbacks",
		Usage:       "agent [call KIND ARG]",
		Run:         rt.cmdAgent,
	})
}

func (rt *Runtime) registerUICommands(reg *term.Registry) {
	reg.Register(&term.Command{
		Name: "skin", Category: term.CatUI,
		Description: "Show, list or activate skins",
		Usage:       "skin [list | NAME]",
		Run:         rt.cmdSkin,
	})
	reg.Register(&term.Command{
		Name: "theme", Category: term.CatUI,
		Description: "Inspect the active theme",
		Usage:       "theme [get SLOT]",
		Run:         rt.cmdTheme,
	})
	reg.Register(&term.Command{
		Name: "wm", Category: term.CatUI,
		Description: "Manage windows",
		Usage:       "wm [list | close ID | min ID | max ID | restore ID]",
		Run:         rt.cmdWM,
	})
	reg.Register(&term.Command{
		Name: "sdi", Category: term.CatUI,
		Description: "Inspect the scene graph",
		Usage:       "sdi [list | show NAME]",
		Run:         rt.cmdSDI,
	})
	reg.Register(&term.Command{
		Name: "screenshot", Category: term.CatUI,
		Description: "Capture the current frame",
		Usage:       "screenshot",
		Run:         rt.cmdScreenshot,
	})
}

func (rt *Runtime) cmdSkin(ctx *term.Context, args []string) term.Output {
	if len(args) == 0 {
		cur := rt.skins.Current()
		return term.Text(cur.Manifest.Name + " " + cur.Manifest.Version + " - " + cur.Manifest.Description)
	}
	if args[0] == "list" {
		var lines []string
		for _, name := range rt.skins.Names() {
			marker := "  "
			if name == strings.ToLower(rt.skins.Current().Manifest.Name) {
				marker = "* "
			}
			lines = append(lines, marker+name)
		}
		return term.Text(lines...)
	}
	if _, err := rt.skins.Get(args[0]); err != nil {
		return term.ErrOut(err)
	}
	// The swap itself happens at the coordinator, keeping the change
	// atomic with respect to this frame's paint.
	return term.SkinSwap(args[0])
}

func (rt *Runtime) cmdTheme(ctx *term.Context, args []string) term.Output {
	th := rt.skins.Current().Theme
	if len(args) == 2 && args[0] == "get" {
		c, ok := th.Slot(args[1])
		if !ok {
			return term.Errorf(fault.NotFound, args[1], "theme: no slot %q", args[1])
		}
		return term.Text(c.Hex())
	}
	if len(args) == 0 || args[0] == "list" {
		base := th.Base
		return term.Table([][]string{
			{"background", base.Background.Hex()},
			{"primary", base.Primary.Hex()},
			{"secondary", base.Secondary.Hex()},
			{"text", base.Text.Hex()},
			{"dim_text", base.DimText.Hex()},
			{"status_bar", base.StatusBar.Hex()},
			{"prompt", base.Prompt.Hex()},
			{"output", base.Output.Hex()},
			{"error", base.Error.Hex()},
		})
	}
	return term.Errorf(fault.Parse, args[0], "theme: want 'theme [get SLOT | list]'")
}

func (rt *Runtime) cmdWM(ctx *term.Context, args []string) term.Output {
	if rt.wins == nil {
		return term.Errorf(fault.Unsupported, "", "wm: window manager disabled by skin")
	}
	if len(args) == 0 || args[0] == "list" {
		var rows [][]string
		for _, w := range rt.wins.Windows() {
			state := "normal"
			switch w.State {
			case wm.Minimized:
				state = "minimized"
			case wm.Maximized:
				state = "maximized"
			}
			rows = append(rows, []string{fmt.Sprint(w.ID), state, w.Title})
		}
		return term.Table(rows)
	}
	if args[0] == "open" {
		title := "window"
		if len(args) > 1 {
			title = strings.Join(args[1:], " ")
		}
		w := rt.wins.Open(title, backend.Rect{X: 60, Y: 60, W: 240, H: 140})
		return term.Text(fmt.Sprintf("opened window %d", w.ID))
	}
	if len(args) != 2 {
		return term.Errorf(fault.Parse, strings.Join(args, " "), "wm: want 'wm ACTION ID'")
	}
	id, err := strconv.Atoi(args[1])
	if err != nil {
		return term.Errorf(fault.Parse, args[1], "wm: bad window id %q", args[1])
	}
	var opErr error
	switch args[0] {
	case "close":
		opErr = rt.wins.Close(id)
	case "min":
		opErr = rt.wins.Minimize(id)
	case "max":
		opErr = rt.wins.Maximize(id)
	case "restore":
		opErr = rt.wins.Restore(id)
	default:
		return term.Errorf(fault.Parse, args[0], "wm: unknown action %q", args[0])
	}
	if opErr != nil {
		return term.ErrOut(opErr)
	}
	return term.Text()
}

func (rt *Runtime) cmdSDI(ctx *term.Context, args []string) term.Output {
	if len(args) == 2 && args[0] == "show" {
		o, err := rt.reg.Get(args[1])
		if err != nil {
			return term.ErrOut(err)
		}
		return term.Table([][]string{
			{"name", o.Name},
			{"rect", fmt.Sprintf("%d,%d %dx%d", o.X, o.Y, o.W, o.H)},
			{"z", fmt.Sprint(o.Z)},
			{"visible", fmt.Sprint(o.Visible)},
			{"alpha", fmt.Sprintf("%.2f", o.Alpha)},
			{"text", o.Text},
		})
	}
	var rows [][]string
	for _, o := range rt.reg.InZOrder() {
		vis := "hidden"
		if o.Visible {
			vis = "visible"
		}
		rows = append(rows, []string{fmt.Sprint(o.Z), vis, o.Name})
	}
	return term.Table(rows)
}

func (rt *Runtime) cmdScreenshot(ctx *term.Context, args []string) term.Output {
	if rt.render == nil {
		return term.Errorf(fault.Unsupported, "", "screenshot: no renderer")
	}
	pix, err := rt.render.ReadPixels()
	if err != nil {
		return term.ErrOut(err)
	}
	img, err := encodeRGBA(pix, backend.VirtualWidth, backend.VirtualHeight)
	if err != nil {
		return term.ErrOut(err)
	}
	return term.Screenshot(img)
}

func (rt *Runtime) registerNetworkCommands(reg *term.Registry) {
	reg.Register(&term.Command{
		Name: "wifi", Category: term.CatNetwork,
		Description: "Show network status",
		Usage:       "wifi",
		Run: func(ctx *term.Context, args []string) term.Output {
			n, err := ctx.Platform.Net()
			if err != nil {
				return term.ErrOut(err)
			}
			if !n.Connected {
				return term.Text("offline")
			}
			return term.Table([][]string{
				{"interface", n.Interface},
				{"address", n.Address},
			})
		},
	})
	reg.Register(&term.Command{
		Name: "ping", Category: term.CatNetwork,
		Description: "Measure connect latency to a host",
		Usage:       "ping host [port]",
		Run:         rt.cmdPing,
	})
	reg.Register(&term.Command{
		Name: "http", Category: term.CatNetwork,
		Description: "Fetch a URL and print the body",
		Usage:       "http url",
		Run:         rt.cmdHTTP,
	})
}

func (rt *Runtime) cmdPing(ctx *term.Context, args []string) term.Output {
	if rt.net == nil {
		return term.Errorf(fault.Unsupported, "", "ping: no network backend")
	}
	if len(args) < 1 {
		return term.Errorf(fault.Parse, "", "ping: want 'ping host [port]'")
	}
	port := 80
	if len(args) > 1 {
		p, err := strconv.Atoi(args[1])
		if err != nil {
			return term.Errorf(fault.Parse, args[1], "ping: bad port %q", args[1])
		}
		port = p
	}
	start := rt.plat.Now()
	stream, err := rt.net.Connect(args[0], port)
	if err != nil {
		return term.Errorf(fault.Network, args[0], "ping: %s unreachable", args[0])
	}
	elapsed := rt.plat.Now().Sub(start)
	stream.Close()
	return term.Text(fmt.Sprintf("%s:%d reachable in %s", args[0], port, elapsed.Round(time.Millisecond)))
}

func (rt *Runtime) cmdHTTP(ctx *term.Context, args []string) term.Output {
	if rt.loader == nil {
		return term.Errorf(fault.Unsupported, "", "http: no network backend")
	}
	if len(args) != 1 {
		return term.Errorf(fault.Parse, "", "http: want 'http url'")
	}
	page, err := rt.loader.Load(args[0])
	if err != nil {
		return term.ErrOut(err)
	}
	return term.TextBlock(page.Body)
}

func (rt *Runtime) registerBrowserCommands(reg *term.Registry) {
	reg.Register(&term.Command{
		Name: "browse", Category: term.CatBrowser,
		Description: "Open a URL in the browser",
		Usage:       "browse url",
		Run: func(ctx *term.Context, args []string) term.Output {
			if len(args) != 1 {
				return term.Errorf(fault.Parse, "", "browse: want 'browse url'")
			}
			rt.loadPage(args[0], true)
			return term.Text()
		},
	})
	reg.Register(&term.Command{
		Name: "bookmark", Category: term.CatBrowser,
		Description: "Save or list bookmarks",
		Usage:       "bookmark [add URL | rm N | list]",
		Run:         rt.cmdBookmark,
	})
	reg.Register(&term.Command{
		Name: "reader", Category: term.CatBrowser,
		Description: "Print a page as plain text",
		Usage:       "reader url",
		Run:         rt.cmdReader,
	})
}

func (rt *Runtime) cmdBookmark(ctx *term.Context, args []string) term.Output {
	read := func() []string {
		data, err := rt.fs.Read(vfs.BookmarksPath)
		if err != nil {
			return nil
		}
		return term.TextBlock(string(data)).Lines
	}
	write := func(lines []string) term.Output {
		blob := strings.Join(lines, "\n")
		if blob != "" {
			blob += "\n"
		}
		if err := rt.fs.Write(vfs.BookmarksPath, []byte(blob)); err != nil {
			return term.ErrOut(err)
		}
		return term.Text()
	}
	if len(args) == 0 || args[0] == "list" {
		var lines []string
		for i, b := range read() {
			lines = append(lines, fmt.Sprintf("%2d  %s", i+1, b))
		}
		return term.Text(lines...)
	}
	switch args[0] {
	case "add":
		url := ""
		if len(args) > 1 {
			url = args[1]
		} else if cur, ok := rt.nav.Current(); ok {
			url = cur
		}
		if url == "" {
			return term.Errorf(fault.Parse, "", "bookmark: nothing to add")
		}
		return write(append(read(), url))
	case "rm":
		if len(args) != 2 {
			return term.Errorf(fault.Parse, "", "bookmark: want 'bookmark rm N'")
		}
		n, err := strconv.Atoi(args[1])
		marks := read()
		if err != nil || n < 1 || n > len(marks) {
			return term.Errorf(fault.NotFound, args[1], "bookmark: no bookmark %q", args[1])
		}
		return write(append(marks[:n-1], marks[n:]...))
	}
	return term.Errorf(fault.Parse, args[0], "bookmark: unknown subcommand %q", args[0])
}

// cmdReader fetches a page and flattens it to text lines: the terminal
// equivalent of reader mode.
func (rt *Runtime) cmdReader(ctx *term.Context, args []string) term.Output {
	if rt.loader == nil {
		return term.Errorf(fault.Unsupported, "", "reader: no network backend")
	}
	if len(args) != 1 {
		return term.Errorf(fault.Parse, "", "reader: want 'reader url'")
	}
	page, err := rt.loader.Load(args[0])
	if err != nil {
		return term.ErrOut(err)
	}
	th := rt.skins.Current().Theme
	var cmds []browser.PaintCmd
	if page.MIME == "text/gemini" {
		cmds = browser.RenderGemtext(page.Body, backend.VirtualWidth, th)
	} else {
		cmds = browser.Render(page.Body, backend.VirtualWidth, th)
	}
	var lines []string
	for _, c := range cmds {
		if c.Kind == browser.PaintText {
			lines = append(lines, c.Text)
		}
	}
	return term.Text(lines...)
}

func (rt *Runtime) registerAudioCommands(reg *term.Registry) {
	reg.Register(&term.Command{
		Name: "play", Category: term.CatAudio,
		Description: "Play a track or resume playback",
		Usage:       "play [file]",
		Run: func(ctx *term.Context, args []string) term.Output {
			if len(args) == 1 {
				if _, err := rt.audio.Add(vfs.Join(ctx.Env.CWD, args[0])); err != nil {
					return term.ErrOut(err)
				}
				if err := rt.audio.Play(len(rt.audio.Tracks()) - 1); err != nil {
					return term.ErrOut(err)
				}
			} else if err := rt.audio.Play(-1); err != nil {
				return term.ErrOut(err)
			}
			if t, ok := rt.audio.Current(); ok {
				return term.Text("playing " + t.Title)
			}
			return term.Text()
		},
	})
	reg.Register(&term.Command{
		Name: "pause", Category: term.CatAudio,
		Description: "Pause playback",
		Usage:       "pause",
		Run: func(ctx *term.Context, args []string) term.Output {
			rt.audio.Pause()
			return term.Text()
		},
	})
	reg.Register(&term.Command{
		Name: "next", Category: term.CatAudio,
		Description: "Skip to the next track",
		Usage:       "next",
		Run: func(ctx *term.Context, args []string) term.Output {
			if err := rt.audio.Next(); err != nil {
				return term.ErrOut(err)
			}
			t, _ := rt.audio.Current()
			return term.Text("playing " + t.Title)
		},
	})
	reg.Register(&term.Command{
		Name: "vol", Category: term.CatAudio,
		Description: "Show or set the volume",
		Usage:       "vol [0-100]",
		Run: func(ctx *term.Context, args []string) term.Output {
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v < 0 || v > 100 {
					return term.Errorf(fault.Parse, args[0], "vol: want 0-100")
				}
				rt.audio.SetVolume(float64(v) / 100)
			}
			return term.Text(fmt.Sprintf("volume %d%%", int(rt.audio.Volume()*100)))
		},
	})
	reg.Register(&term.Command{
		Name: "playlist", Category: term.CatAudio,
		Description: "Show the playlist",
		Usage:       "playlist [shuffle]",
		Run: func(ctx *term.Context, args []string) term.Output {
			if len(args) == 1 && args[0] == "shuffle" {
				rt.audio.Shuffle()
			}
			var rows [][]string
			cur, hasCur := rt.audio.Current()
			for i, t := range rt.audio.Tracks() {
				marker := " "
				if hasCur && t.Path == cur.Path && rt.audio.Playing() {
					marker = ">"
				}
				rows = append(rows, []string{marker, fmt.Sprint(i), t.Title, t.Artist, rt.audio.Position()})
			}
			return term.Table(rows)
		},
	})
}

func (rt *Runtime) cmdAgent(ctx *term.Context, args []string) term.Output {
	if len(args) == 0 {
		kinds := make([]string, 0, len(rt.callbacks))
		for k := range rt.callbacks {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		if len(kinds) == 0 {
			return term.Text("no host callbacks registered")
		}
		return term.Text(kinds...)
	}
	if args[0] == "call" && len(args) >= 2 {
		fn, ok := rt.callbacks[args[1]]
		if !ok {
			return term.Errorf(fault.NotFound, args[1], "agent: no callback %q", args[1])
		}
		arg := ""
		if len(args) > 2 {
			arg = strings.Join(args[2:], " ")
		}
		return term.TextBlock(fn(arg))
	}
	return term.Errorf(fault.Parse, args[0], "agent: want 'agent [call KIND ARG]'")
}
