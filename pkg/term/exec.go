package term

import (
	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/platform"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

// Interpreter executes raw lines against a registry, environment and
// VFS. One exists per session (local terminal, each remote session).
type Interpreter struct {
	Reg      *Registry
	Env      *Environment
	FS       vfs.FS
	Platform platform.Services
	// Gate filters dispatch by command category. Nil allows all; the
	// coordinator installs the active skin's filter.
	Gate func(category string) bool
}

// NewInterpreter wires an interpreter with a fresh environment.
func NewInterpreter(reg *Registry, fs vfs.FS, plat platform.Services) *Interpreter {
	return &Interpreter{Reg: reg, Env: NewEnvironment(), FS: fs, Platform: plat}
}

// redirectSpec is a trailing > or >> with its target.
type redirectSpec struct {
	path   string
	append bool
}

// pipelineSpec is a series of |-joined command segments plus an
// optional redirect.
type pipelineSpec struct {
	segments [][]token
	redirect *redirectSpec
}

// chainItem is one pipeline with the operator linking it to the
// previous item ("" for the first).
type chainItem struct {
	op   string
	pipe pipelineSpec
}

// Execute runs one raw line through the full pipeline and returns the
// outputs of every executed stage in order. The line is recorded in
// history (after history expansion, before execution).
func (in *Interpreter) Execute(line string) []Output {
	expanded, err := expandHistory(line, in.Env.History)
	if err != nil {
		in.Env.LastStatus = fault.StatusOf(err)
		return []Output{ErrOut(err)}
	}
	in.Env.History.Add(expanded)
	return in.run(expanded)
}

// Run executes a line without recording history. Scripts and startup
// files use this.
func (in *Interpreter) Run(line string) []Output {
	return in.run(line)
}

func (in *Interpreter) run(line string) []Output {
	tokens, err := tokenize(line, in.Env.Lookup)
	if err != nil {
		in.Env.LastStatus = fault.StatusOf(err)
		return []Output{ErrOut(err)}
	}
	tokens, err = expandAliases(tokens, in.Env.Aliases, in.Env.Lookup)
	if err != nil {
		in.Env.LastStatus = fault.StatusOf(err)
		return []Output{ErrOut(err)}
	}
	tokens = expandGlobs(tokens, in.FS, in.Env.CWD)

	chains, err := parseOperators(tokens)
	if err != nil {
		in.Env.LastStatus = fault.StatusOf(err)
		return []Output{ErrOut(err)}
	}

	var outputs []Output
	for _, chain := range chains {
		for _, item := range chain {
			switch item.op {
			case "&&":
				if in.Env.LastStatus != 0 {
					continue
				}
			case "||":
				if in.Env.LastStatus == 0 {
					continue
				}
			}
			out := in.runPipeline(item.pipe)
			in.Env.LastStatus = out.Status
			if out.Kind == KindError && out.Err == nil {
				// Silent status-only failure (test); nothing to show.
				continue
			}
			outputs = append(outputs, out)
		}
	}
	return outputs
}

// parseOperators splits a token stream into ;-separated chains of
// &&/||-linked pipelines, each pipeline holding |-joined segments and
// an optional trailing redirect.
func parseOperators(tokens []token) ([][]chainItem, error) {
	var chains [][]chainItem
	var chain []chainItem
	var segs [][]token
	var seg []token
	var redirect *redirectSpec
	pendingOp := ""

	endSegment := func() {
		if len(seg) > 0 {
			segs = append(segs, seg)
			seg = nil
		}
	}
	endPipeline := func() {
		endSegment()
		if len(segs) > 0 || redirect != nil {
			chain = append(chain, chainItem{op: pendingOp, pipe: pipelineSpec{segments: segs, redirect: redirect}})
			segs = nil
			redirect = nil
		}
		pendingOp = ""
	}
	endChain := func() {
		endPipeline()
		if len(chain) > 0 {
			chains = append(chains, chain)
			chain = nil
		}
	}

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if !t.op {
			if redirect != nil {
				return nil, fault.Newf(fault.Parse, t.text, "unexpected token after redirect")
			}
			seg = append(seg, t)
			continue
		}
		switch t.text {
		case ";":
			endChain()
		case "&&", "||":
			endPipeline()
			pendingOp = t.text
		case "|":
			if len(seg) == 0 {
				return nil, fault.New(fault.Parse, "empty pipeline segment")
			}
			endSegment()
		case ">", ">>":
			if i+1 >= len(tokens) || tokens[i+1].op {
				return nil, fault.Newf(fault.Parse, t.text, "missing redirect target")
			}
			redirect = &redirectSpec{path: tokens[i+1].text, append: t.text == ">>"}
			i++
		}
	}
	endChain()
	return chains, nil
}

// runPipeline executes the stages of one pipeline, threading text
// output as stdin, then applies the redirect. Signal outputs refuse
// to participate in multi-stage pipelines or redirects.
func (in *Interpreter) runPipeline(p pipelineSpec) Output {
	if len(p.segments) == 0 {
		if p.redirect != nil {
			return in.applyRedirect(Text(), p.redirect)
		}
		return Text()
	}
	var stdin []string
	var out Output
	for i, seg := range p.segments {
		out = in.dispatch(seg, stdin)
		last := i == len(p.segments)-1
		if out.Kind == KindError {
			return out
		}
		if !last {
			if out.Kind.signal() {
				return Errorf(fault.Protocol, seg[0].text, "%s: signal output is not pipeable", seg[0].text)
			}
			stdin = toLines(out)
		}
	}
	if p.redirect != nil {
		if out.Kind.signal() {
			return Errorf(fault.Protocol, p.redirect.path, "signal output cannot be redirected")
		}
		return in.applyRedirect(out, p.redirect)
	}
	return out
}

// toLines flattens a pipeable output into stdin lines.
func toLines(o Output) []string {
	if o.Kind == KindTable {
		lines := make([]string, 0, len(o.Rows))
		for _, row := range o.Rows {
			lines = append(lines, joinRow(row))
		}
		return lines
	}
	return o.Lines
}

func joinRow(row []string) string {
	s := ""
	for i, cell := range row {
		if i > 0 {
			s += "\t"
		}
		s += cell
	}
	return s
}

// applyRedirect writes the output's byte-stream form to the VFS.
func (in *Interpreter) applyRedirect(out Output, r *redirectSpec) Output {
	path := vfs.Join(in.Env.CWD, r.path)
	data := []byte(out.TextString())
	if r.append {
		if prev, err := in.FS.Read(path); err == nil {
			data = append(prev, data...)
		}
	}
	if err := in.FS.Write(path, data); err != nil {
		return ErrOut(err)
	}
	return Text()
}

// dispatch resolves and runs one command segment.
func (in *Interpreter) dispatch(seg []token, stdin []string) Output {
	name := seg[0].text
	args := make([]string, 0, len(seg)-1)
	for _, t := range seg[1:] {
		args = append(args, t.text)
	}

	if fnBody, ok := in.Env.Functions[name]; ok {
		return in.runFunction(fnBody, args, stdin)
	}

	cmd, ok := in.Reg.Lookup(name)
	if !ok {
		return Errorf(fault.NotFound, name, "%s: command not found", name)
	}
	if in.Gate != nil && !in.Gate(cmd.Category) {
		return Errorf(fault.Unsupported, name, "%s: command category %q disabled by skin", name, cmd.Category)
	}
	if cmd.Category == CatSecurity {
		in.auditLog(name, args)
	}
	ctx := &Context{Env: in.Env, FS: in.FS, Platform: in.Platform, Stdin: stdin, Interp: in}
	out := cmd.Run(ctx, args)
	if out.Kind == KindError && out.Status == 0 {
		out.Status = 1
	}
	return out
}

// runFunction executes a defined function body as a script.
func (in *Interpreter) runFunction(body []string, args []string, stdin []string) Output {
	// Positional parameters $1..$9 are bound for the call.
	saved := map[string]string{}
	for i, a := range args {
		key := string(rune('1' + i))
		saved[key] = in.Env.Vars[key]
		in.Env.Vars[key] = a
		if i == 8 {
			break
		}
	}
	outs := in.RunScript(body)
	for key, val := range saved {
		if val == "" {
			delete(in.Env.Vars, key)
		} else {
			in.Env.Vars[key] = val
		}
	}
	return mergeOutputs(outs)
}

// mergeOutputs folds a script's outputs into one pipeline-friendly
// output: text lines concatenate; the first signal or error wins.
func mergeOutputs(outs []Output) Output {
	var lines []string
	status := 0
	for _, o := range outs {
		switch o.Kind {
		case KindText:
			lines = append(lines, o.Lines...)
		case KindTable:
			lines = append(lines, toLines(o)...)
		default:
			return o
		}
		status = o.Status
	}
	return Output{Kind: KindText, Lines: lines, Status: status}
}

// auditLog appends a security-command invocation to /var/log/audit.
// Failures are swallowed; auditing never blocks the command.
func (in *Interpreter) auditLog(name string, args []string) {
	line := in.Platform.Now().Format("2006-01-02 15:04:05") + " " + in.Env.User + " " + name
	if len(args) > 0 {
		line += " " + args[0]
	}
	prev, _ := in.FS.Read(vfs.AuditLogPath)
	_ = in.FS.Write(vfs.AuditLogPath, append(prev, []byte(line+"\n")...))
}

// Boot runs the startup dotfiles: restores saved state and executes
// /home/.shellrc line by line.
func (in *Interpreter) Boot() {
	in.Env.History.Load(in.FS)
	in.Env.LoadState(in.FS)
	if data, err := in.FS.Read(vfs.ShellRCPath); err == nil {
		in.RunScript(splitScript(string(data)))
	}
}

// Shutdown persists history and environment state.
func (in *Interpreter) Shutdown() {
	_ = in.Env.History.Save(in.FS)
	_ = in.Env.SaveState(in.FS)
}
