// Package term implements the terminal interpreter: tokenization with
// shell quoting, variable/alias/glob expansion, operator parsing
// (sequence, conditionals, pipes, redirection), the command registry,
// history, and the control-flow script runner.
//
// The pipeline for one raw line is
//
//	raw → history expansion → tokenize → expand → parse operators →
//	dispatch → collect output
//
// Commands never terminate the shell: failures become error outputs
// and a nonzero $?.
package term

import (
	"sort"
	"strings"
	"time"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/platform"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

// OutputKind tags a command result.
type OutputKind int

const (
	// KindText is line output; pipeable.
	KindText OutputKind = iota
	// KindTable is row output; pipeable (rows flatten to tab-joined
	// lines when piped).
	KindTable
	// KindClear asks the terminal to clear its scrollback.
	KindClear
	// KindSkinSwap asks the coordinator to activate a skin.
	KindSkinSwap
	// KindScreenshot carries encoded image bytes for the coordinator.
	KindScreenshot
	// KindExit asks the session to end with a code.
	KindExit
	// KindError carries a fault; the terminal prints it and sets $?.
	KindError
	// KindPending suspends the command until the coordinator resumes
	// it on a later frame.
	KindPending
)

// signal reports whether the kind is a signal output: routed by the
// coordinator, never pipeable.
func (k OutputKind) signal() bool {
	return k != KindText && k != KindTable
}

// Pending is a suspended command. The coordinator resumes it once
// Delay has elapsed (sleep) or every Every interval (watch).
type Pending struct {
	Delay  time.Duration
	Every  time.Duration
	Resume func() Output
}

// Output is the tagged command result.
type Output struct {
	Kind    OutputKind
	Lines   []string
	Rows    [][]string
	Skin    string
	Image   []byte
	Code    int
	Err     *fault.Error
	Pend    *Pending
	// Status is the exit status. Zero for success; error outputs carry
	// their fault's status. Commands like test set it without Err to
	// fail silently.
	Status int
}

// Text builds a text output from pre-split lines.
func Text(lines ...string) Output { return Output{Kind: KindText, Lines: lines} }

// TextBlock splits s on newlines, dropping one trailing empty line.
func TextBlock(s string) Output {
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return Output{Kind: KindText, Lines: lines}
}

// Table builds a row output.
func Table(rows [][]string) Output { return Output{Kind: KindTable, Rows: rows} }

// Clear builds the clear signal.
func Clear() Output { return Output{Kind: KindClear} }

// SkinSwap builds the skin-activation signal.
func SkinSwap(name string) Output { return Output{Kind: KindSkinSwap, Skin: name} }

// Screenshot wraps encoded image bytes.
func Screenshot(img []byte) Output { return Output{Kind: KindScreenshot, Image: img} }

// Exit builds the session-exit signal.
func Exit(code int) Output { return Output{Kind: KindExit, Code: code} }

// Errorf builds an error output.
func Errorf(k fault.Kind, input, format string, args ...any) Output {
	e := fault.Newf(k, input, format, args...)
	return Output{Kind: KindError, Err: e, Status: k.Status()}
}

// ErrOut wraps an existing error.
func ErrOut(err error) Output {
	if fe, ok := err.(*fault.Error); ok {
		return Output{Kind: KindError, Err: fe, Status: fe.Kind.Status()}
	}
	return Output{Kind: KindError, Err: fault.Wrap(fault.Io, err.Error(), err), Status: fault.Io.Status()}
}

// Suspend builds a pending output.
func Suspend(p *Pending) Output { return Output{Kind: KindPending, Pend: p} }

// TextString joins a pipeable output into the byte stream form used by
// pipes and redirection.
func (o Output) TextString() string {
	switch o.Kind {
	case KindText:
		if len(o.Lines) == 0 {
			return ""
		}
		return strings.Join(o.Lines, "\n") + "\n"
	case KindTable:
		var b strings.Builder
		for _, row := range o.Rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
		return b.String()
	}
	return ""
}

// Command categories. Skins gate dispatch by this closed set.
const (
	CatFilesystem = "filesystem"
	CatSystem     = "system"
	CatNetwork    = "network"
	CatAudio      = "audio"
	CatText       = "text"
	CatBrowser    = "browser"
	CatScripting  = "scripting"
	CatDeveloper  = "developer"
	CatUI         = "ui"
	CatAgent      = "agent"
	CatTransfer   = "transfer"
	CatConfig     = "config"
	CatFun        = "fun"
	CatSecurity   = "security"
)

// Context is what a command invocation receives.
type Context struct {
	Env      *Environment
	FS       vfs.FS
	Platform platform.Services
	// Stdin holds piped input lines; nil when the command starts a
	// pipeline.
	Stdin []string
	// Interp allows scripting commands to run sub-scripts.
	Interp *Interpreter
}

// StdinString joins piped input back into byte-stream form.
func (c *Context) StdinString() string {
	if len(c.Stdin) == 0 {
		return ""
	}
	return strings.Join(c.Stdin, "\n") + "\n"
}

// Command is one registry entry.
type Command struct {
	Name        string
	Category    string
	Description string
	Usage       string
	Run         func(ctx *Context, args []string) Output
}

// Registry maps lowercase command names to entries.
type Registry struct {
	commands map[string]*Command
}

// NewRegistry returns a registry preloaded with the bundled command
// set.
func NewRegistry() *Registry {
	r := &Registry{commands: map[string]*Command{}}
	registerFilesystem(r)
	registerText(r)
	registerSystem(r)
	registerConfig(r)
	registerDeveloper(r)
	registerScripting(r)
	registerFun(r)
	registerSecurity(r)
	registerTransfer(r)
	return r
}

// Register adds or replaces a command. Names are case-folded.
func (r *Registry) Register(c *Command) {
	r.commands[strings.ToLower(c.Name)] = c
}

// Unregister removes a command by case-folded name.
func (r *Registry) Unregister(name string) {
	delete(r.commands, strings.ToLower(name))
}

// Lookup finds a command by case-folded name.
func (r *Registry) Lookup(name string) (*Command, bool) {
	c, ok := r.commands[strings.ToLower(name)]
	return c, ok
}

// Names returns all command names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for n := range r.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ByCategory groups command names by category.
func (r *Registry) ByCategory() map[string][]string {
	out := map[string][]string{}
	for _, c := range r.commands {
		out[c.Category] = append(out[c.Category], c.Name)
	}
	for _, names := range out {
		sort.Strings(names)
	}
	return out
}
