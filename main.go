// oasis is the reference terminal host for the OASIS shell runtime.
//
// It runs the platform-agnostic kernel against the software renderer
// and displays the virtual framebuffer inside the terminal, using the
// best graphics protocol the terminal offers.
//
// Usage:
//
//	oasis [flags]
//
// Flags:
//
//	-config string  Path to configuration file (default: ~/.config/oasis/config.yaml)
//	-skin string    Boot skin (overrides config)
//	-remote         Start the PSK remote shell listener
//	-verbose        Enable verbose logging
//	-version        Print version and exit
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"gitlab.com/tinyland/lab/oasis/pkg/backend"
	"gitlab.com/tinyland/lab/oasis/pkg/hostcfg"
	"gitlab.com/tinyland/lab/oasis/pkg/input"
	"gitlab.com/tinyland/lab/oasis/pkg/remote"
	"gitlab.com/tinyland/lab/oasis/pkg/shellos"
	"gitlab.com/tinyland/lab/oasis/pkg/softrender"
	"gitlab.com/tinyland/lab/oasis/pkg/term"
	"gitlab.com/tinyland/lab/oasis/pkg/termview"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

const version = "1.0.0"

// frameInterval drives the kernel at 20 fps, plenty for a terminal
// surface.
const frameInterval = 50 * time.Millisecond

func main() {
	var (
		configPath  = flag.String("config", "", "path to configuration file")
		skinFlag    = flag.String("skin", "", "boot skin")
		remoteFlag  = flag.Bool("remote", false, "start the remote shell listener")
		verbose     = flag.Bool("verbose", false, "enable verbose logging")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("oasis " + version)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "oasis: config:", err)
		os.Exit(1)
	}
	if *skinFlag != "" {
		cfg.Skin = *skinFlag
	}

	level := parseLevel(cfg.LogLevel)
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(os.Stderr, "oasis: stdout is not a terminal")
		os.Exit(1)
	}

	fs := buildFS(cfg)
	render := softrender.New()
	inputQueue := &queuedInput{}
	net := newHostNetwork()

	rt, err := shellos.New(shellos.Options{
		Renderer: render,
		Input:    inputQueue,
		Net:      net,
		FS:       fs,
		BootSkin: cfg.Skin,
		Log:      logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "oasis:", err)
		os.Exit(1)
	}

	if *remoteFlag || cfg.Remote.Enabled {
		startRemote(rt, cfg, net, logger)
	}

	m := model{
		rt:     rt,
		render: render,
		queue:  inputQueue,
		view:   termview.New(),
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "oasis:", err)
		os.Exit(1)
	}
	rt.Interp().Shutdown()
}

func loadConfig(path string) (*hostcfg.Config, error) {
	if path != "" {
		return hostcfg.LoadFromFile(path)
	}
	return hostcfg.Load()
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// buildFS assembles the boot file system: in-memory by default, a
// host-directory overlay when data_dir is configured, with skins
// mounted read-only when skin_dir is set.
func buildFS(cfg *hostcfg.Config) vfs.FS {
	var fs vfs.FS = vfs.NewMemFS()
	if cfg.DataDir != "" {
		fs = vfs.NewOverlayFS(vfs.NewDirFS(cfg.DataDir))
	}
	if cfg.SkinDir != "" {
		_ = fs.Mkdir("/etc/skins")
		copySkinDir(fs, cfg.SkinDir)
	}
	return fs
}

// copySkinDir mirrors the host skin directory into /etc/skins.
func copySkinDir(dst vfs.FS, hostDir string) {
	src := vfs.NewDirFS(hostDir)
	_ = vfs.Walk(src, "/", func(path string, e vfs.DirEntry) error {
		target := vfs.Join("/etc/skins", strings.TrimPrefix(path, "/"))
		if e.Kind == vfs.KindDir {
			return dst.Mkdir(target)
		}
		data, err := src.Read(path)
		if err != nil {
			return nil
		}
		return dst.Write(target, data)
	})
}

func startRemote(rt *shellos.Runtime, cfg *hostcfg.Config, net backend.NetworkBackend, logger *slog.Logger) {
	psk := cfg.Remote.PSK
	if psk == "" {
		if data, err := rt.FS().Read(term.PSKPath); err == nil {
			psk = strings.TrimSpace(string(data))
		}
	}
	if psk == "" {
		logger.Warn("remote shell requested but no psk configured")
		return
	}
	srv := &remote.Server{
		Net: net,
		PSK: []byte(psk),
		NewSession: func() *term.Interpreter {
			return term.NewInterpreter(term.NewRegistry(), rt.FS(), rt.Platform())
		},
		Log: logger,
	}
	if err := srv.Listen(cfg.Remote.Port); err != nil {
		logger.Warn("remote listen failed", "err", err)
		return
	}
	logger.Info("remote shell listening", "port", cfg.Remote.Port)
	go srv.Serve()
}

// queuedInput adapts bubbletea key events to the InputSource trait.
type queuedInput struct {
	events []input.Event
}

func (q *queuedInput) Poll() []input.Event {
	evs := q.events
	q.events = nil
	return evs
}

func (q *queuedInput) push(ev input.Event) {
	q.events = append(q.events, ev)
}

// model is the bubbletea host shell around the kernel.
type model struct {
	rt     *shellos.Runtime
	render *softrender.Renderer
	queue  *queuedInput
	view   *termview.View

	frame  string
	width  int
	height int
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		for _, ev := range translateKey(msg) {
			m.queue.push(ev)
		}
		return m, nil
	case tickMsg:
		m.rt.Tick(frameInterval)
		if done, _ := m.rt.Exited(); done {
			return m, tea.Quit
		}
		m.frame = m.renderFrame()
		return m, tick()
	}
	return m, nil
}

// translateKey maps terminal keys onto kernel input events.
func translateKey(msg tea.KeyMsg) []input.Event {
	switch msg.Type {
	case tea.KeyUp:
		return press(input.Up)
	case tea.KeyDown:
		return press(input.Down)
	case tea.KeyLeft:
		return press(input.Left)
	case tea.KeyRight:
		return press(input.Right)
	case tea.KeyEnter:
		return press(input.Confirm)
	case tea.KeyBackspace:
		return press(input.Cancel)
	case tea.KeyEsc:
		return press(input.Start)
	case tea.KeyTab:
		return press(input.Select)
	case tea.KeyPgUp:
		return press(input.ShoulderL)
	case tea.KeyPgDown:
		return press(input.ShoulderR)
	case tea.KeySpace:
		return []input.Event{input.TextInput{Text: " "}}
	case tea.KeyRunes:
		return []input.Event{input.TextInput{Text: string(msg.Runes)}}
	}
	return nil
}

func press(b input.Button) []input.Event {
	return []input.Event{input.ButtonPress{Button: b}, input.ButtonRelease{Button: b}}
}

var statusStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("8")).
	Padding(0, 1)

func (m model) renderFrame() string {
	cells := m.width
	rows := m.height - 1
	if cells <= 0 || rows <= 0 {
		return ""
	}
	// Preserve the 480:272 aspect within the available cells (a cell
	// is roughly twice as tall as wide).
	w := cells
	h := w * backend.VirtualHeight / backend.VirtualWidth / 2
	if h > rows {
		h = rows
		w = h * 2 * backend.VirtualWidth / backend.VirtualHeight
	}
	out, err := m.view.Render(m.render.Frame(), w, h)
	if err != nil {
		return "render error: " + err.Error()
	}
	return out
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("oasis %s · %s · ctrl-c quits", version, m.view.Protocol()))
	return m.frame + "\n" + status
}
