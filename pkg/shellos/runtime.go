// Package shellos is the coordinator: it owns the frame loop, the app
// surfaces (dashboard, terminal, browser), skin activation, script
// scheduling and the single flush point from SDI to the rendering
// backend. All kernel state is owned here and handed to components
// only during their update slot; the core runs single-threaded.
package shellos

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"gitlab.com/tinyland/lab/oasis/pkg/audio"
	"gitlab.com/tinyland/lab/oasis/pkg/backend"
	"gitlab.com/tinyland/lab/oasis/pkg/browser"
	"gitlab.com/tinyland/lab/oasis/pkg/gfx"
	"gitlab.com/tinyland/lab/oasis/pkg/input"
	"gitlab.com/tinyland/lab/oasis/pkg/platform"
	"gitlab.com/tinyland/lab/oasis/pkg/sdi"
	"gitlab.com/tinyland/lab/oasis/pkg/skin"
	"gitlab.com/tinyland/lab/oasis/pkg/term"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
	"gitlab.com/tinyland/lab/oasis/pkg/widgets"
	"gitlab.com/tinyland/lab/oasis/pkg/wm"
)

// Mode selects the active full-screen surface.
type Mode int

const (
	// ModeDashboard is the icon-grid launcher.
	ModeDashboard Mode = iota
	// ModeTerminal is the shell surface.
	ModeTerminal
	// ModeBrowser is the document viewer.
	ModeBrowser
)

// Options configures a Runtime.
type Options struct {
	Renderer backend.Renderer
	Input    backend.InputSource
	Net      backend.NetworkBackend
	Audio    backend.AudioBackend
	FS       vfs.FS
	Platform platform.Services
	// BootSkin names the initial skin ("" means classic).
	BootSkin string
	Log      *slog.Logger
	// Seed fixes the effect RNG for reproducible tests; 0 seeds from
	// the platform clock.
	Seed int64
}

// Runtime is the coordinator instance. One exists per embedded shell.
type Runtime struct {
	reg    *sdi.Registry
	skins  *skin.Manager
	fs     vfs.FS
	plat   platform.Services
	render backend.Renderer
	inSrc  backend.InputSource
	net    backend.NetworkBackend
	audio  *audio.Manager
	interp *term.Interpreter
	wins   *wm.Manager
	log    *slog.Logger
	rng    *rand.Rand

	mode  Mode
	frame int
	clock time.Duration

	// Terminal surface state.
	buffer    *term.Buffer
	inputLine []rune
	histPos   int

	// Dashboard state.
	selected int
	cells    []string

	// Browser surface state.
	loader  *browser.Loader
	nav     *browser.NavStack
	page    *browser.Page
	paints  []browser.PaintCmd
	pageTop int

	effects  []skin.Effect
	pendings []*pendingCmd
	cronJobs []*cronJob

	// Host callbacks registered through the embedding surface.
	callbacks map[string]func(string) string

	exited   bool
	exitCode int
}

// New assembles a runtime, seeds the VFS, loads skins from /etc/skins,
// applies the boot skin and boots the shell.
func New(opts Options) (*Runtime, error) {
	if opts.FS == nil {
		opts.FS = vfs.NewMemFS()
	}
	if err := vfs.Seed(opts.FS); err != nil {
		return nil, err
	}
	if opts.Platform == nil {
		opts.Platform = platform.NewHostServices()
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	mgr, err := skin.NewManager(opts.BootSkin)
	if err != nil {
		return nil, err
	}
	seed := opts.Seed
	if seed == 0 {
		seed = opts.Platform.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	rt := &Runtime{
		reg:       sdi.NewRegistry(),
		skins:     mgr,
		fs:        opts.FS,
		plat:      opts.Platform,
		render:    opts.Renderer,
		inSrc:     opts.Input,
		net:       opts.Net,
		log:       opts.Log,
		rng:       rng,
		buffer:    term.NewBuffer(0),
		nav:       browser.NewNavStack(),
		callbacks: map[string]func(string) string{},
		cells:     []string{"terminal", "browser", "files", "music", "settings"},
	}
	rt.audio = audio.NewManager(opts.Audio, opts.FS, rng)
	if opts.Net != nil {
		rt.loader = &browser.Loader{Net: opts.Net}
	}

	reg := term.NewRegistry()
	rt.interp = term.NewInterpreter(reg, opts.FS, opts.Platform)
	rt.registerRuntimeCommands(reg)
	rt.interp.Gate = func(cat string) bool {
		return rt.skins.Current().Features.AllowsCategory(cat)
	}

	if loaded, errs := mgr.ScanDir(opts.FS, "/etc/skins"); len(loaded) > 0 || len(errs) > 0 {
		for _, e := range errs {
			rt.log.Warn("skin load failed", "err", e)
		}
	}
	if err := mgr.Current().Apply(rt.reg); err != nil {
		return nil, err
	}
	if mgr.Current().Features.WindowManager {
		rt.wins = wm.NewManager(backend.Rect{Y: statusBarHeight, W: backend.VirtualWidth, H: backend.VirtualHeight - statusBarHeight})
	}
	rt.initEffects()

	rt.interp.Boot()
	rt.runStartupScripts()
	rt.loadCronJobs()
	rt.showBootText()
	return rt, nil
}

// FS exposes the runtime's file system (embedding surface).
func (rt *Runtime) FS() vfs.FS { return rt.fs }

// Interp exposes the interpreter for hosts that inject commands.
func (rt *Runtime) Interp() *term.Interpreter { return rt.interp }

// Skins exposes the skin manager.
func (rt *Runtime) Skins() *skin.Manager { return rt.skins }

// Platform exposes the platform services (remote sessions reuse them).
func (rt *Runtime) Platform() platform.Services { return rt.plat }

// Registry exposes the scene graph (tests, host tooling).
func (rt *Runtime) Registry() *sdi.Registry { return rt.reg }

// Exited reports whether the shell asked the host to quit.
func (rt *Runtime) Exited() (bool, int) { return rt.exited, rt.exitCode }

// RegisterCallback wires a host event handler reachable from the
// agent command and the embedding ABI.
func (rt *Runtime) RegisterCallback(kind string, fn func(string) string) {
	rt.callbacks[kind] = fn
}

// showBootText seeds the terminal with the skin's boot banner and the
// message of the day.
func (rt *Runtime) showBootText() {
	cur := rt.skins.Current()
	rt.buffer.Append(cur.Strings.BootText...)
	if motd, err := rt.fs.Read(vfs.MotdPath); err == nil {
		rt.buffer.Append(term.TextBlock(string(motd)).Lines...)
	}
}

// Tick advances one frame: drain input, run scheduled work, update the
// status bar and active surface, then flush SDI through effects and swap.
func (rt *Runtime) Tick(dt time.Duration) {
	rt.frame++
	rt.clock += dt

	if rt.inSrc != nil {
		for _, ev := range rt.inSrc.Poll() {
			rt.route(ev)
		}
	}

	rt.runPending(dt)
	rt.runCron()
	rt.updateStatusBar()
	rt.updateSurface()

	if rt.render != nil {
		rt.flush()
	}
}

// route dispatches one input event: window manager first, then the
// active surface as the global handler.
func (rt *Runtime) route(ev input.Event) {
	if rt.wins != nil {
		routed, _ := rt.wins.Route(ev)
		if routed == wm.Consumed {
			return
		}
		if routed == wm.ToWindow {
			// Window apps receive events through their surface update;
			// the focused-window surface is the terminal for now.
			rt.handleTerminalEvent(ev)
			return
		}
	}
	switch rt.mode {
	case ModeDashboard:
		rt.handleDashboardEvent(ev)
	case ModeTerminal:
		rt.handleTerminalEvent(ev)
	case ModeBrowser:
		rt.handleBrowserEvent(ev)
	}
}

// updateStatusBar refreshes the skin's status bar slots from platform
// services once per frame.
func (rt *Runtime) updateStatusBar() {
	clock := rt.plat.Now().Format("15:04")
	batt := ""
	if p, err := rt.plat.Power(); err == nil {
		batt = fmt.Sprintf("%d%%", p.Percent)
		if p.Charging {
			batt += "+"
		}
	}
	title := "OASIS"
	switch rt.mode {
	case ModeTerminal:
		title = "OASIS · terminal"
	case ModeBrowser:
		if url, ok := rt.nav.Current(); ok {
			title = url
		}
	}
	widgets.StatusSegments(rt.reg, clock, batt, title)
}

// initEffects rebuilds the active effect list from the current skin.
func (rt *Runtime) initEffects() {
	rt.effects = nil
	cur := rt.skins.Current()
	for _, name := range cur.Features.Effects {
		if e := skin.NewEffect(name, cur.Effects[name], rt.rng); e != nil {
			rt.effects = append(rt.effects, e)
		}
	}
}

// swapSkin activates a skin atomically and re-derives dependent state.
// On failure the current skin stays fully intact.
func (rt *Runtime) swapSkin(name string) error {
	if err := rt.skins.Swap(name, rt.reg); err != nil {
		return err
	}
	// In-flight effects are dropped at the frame boundary.
	rt.initEffects()
	rt.redrawSurface()
	return nil
}

// flush paints the frame: SDI snapshot through effects, browser paint
// forwarding, then buffer swap.
func (rt *Runtime) flush() {
	th := rt.skins.Current().Theme
	rt.render.Clear(th.Base.Background)

	objs := rt.reg.Snapshot()
	for _, e := range rt.effects {
		e.Apply(rt.frame, objs)
	}
	for i := range objs {
		rt.paintObject(&objs[i])
	}

	if rt.mode == ModeBrowser {
		rt.paintBrowser()
	}

	// Scanline strips composite above everything.
	cur := rt.skins.Current()
	for _, name := range cur.Features.Effects {
		if name == "scanlines" {
			for _, strip := range skin.ScanlineRects(cur.Effects[name], backend.VirtualWidth, backend.VirtualHeight) {
				rt.render.FillRect(backend.Rect{X: strip.X, Y: strip.Y, W: strip.W, H: strip.H},
					gfx.Black.WithAlpha(strip.Alpha))
			}
		}
	}
	rt.render.SwapBuffers()
}

// paintObject draws one (effect-transformed) SDI object.
func (rt *Runtime) paintObject(o *sdi.Object) {
	if !o.Visible || o.Alpha <= 0 {
		return
	}
	rect := o.Rect()
	withAlpha := func(c gfx.Color) gfx.Color {
		if o.Alpha >= 1 {
			return c
		}
		return c.WithAlpha(o.Alpha * float64(c.A) / 255)
	}
	if o.ShadowLevel > 0 {
		off := o.ShadowLevel
		rt.render.FillRect(backend.Rect{X: rect.X + off, Y: rect.Y + off, W: rect.W, H: rect.H},
			gfx.Black.WithAlpha(0.15*float64(o.ShadowLevel)))
	}
	if o.HasGradient {
		half := rect.H / 2
		rt.render.FillRect(backend.Rect{X: rect.X, Y: rect.Y, W: rect.W, H: half}, withAlpha(o.GradientTop))
		rt.render.FillRect(backend.Rect{X: rect.X, Y: rect.Y + half, W: rect.W, H: rect.H - half}, withAlpha(o.GradientBottom))
	} else if o.Fill.A > 0 && rect.W > 0 && rect.H > 0 {
		rt.render.FillRect(rect, withAlpha(o.Fill))
	}
	if o.StrokeWidth > 0 {
		rt.render.StrokeRect(rect, o.StrokeWidth, withAlpha(o.StrokeColor))
	}
	if o.Texture != 0 {
		rt.render.Blit(o.Texture, rect)
	}
	if o.Text != "" {
		rt.render.DrawText(o.X, o.Y, o.Text, backend.TextStyle{Size: o.FontSize, Color: withAlpha(o.TextColor)})
	}
}
