package term

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

func registerDeveloper(r *Registry) {
	r.Register(&Command{
		Name: "base64", Category: CatDeveloper,
		Description: "Encode or decode base64",
		Usage:       "base64 [-d] [text]",
		Run:         cmdBase64,
	})
	r.Register(&Command{
		Name: "json", Category: CatDeveloper,
		Description: "Pretty-print or query JSON input",
		Usage:       "json [key.path]",
		Run:         cmdJSON,
	})
	r.Register(&Command{
		Name: "uuid", Category: CatDeveloper,
		Description: "Generate a random UUID",
		Usage:       "uuid [count]",
		Run: func(ctx *Context, args []string) Output {
			n := 1
			if len(args) == 1 {
				if v, err := strconv.Atoi(args[0]); err == nil && v > 0 && v <= 100 {
					n = v
				}
			}
			lines := make([]string, n)
			for i := range lines {
				lines[i] = uuid.NewString()
			}
			return Text(lines...)
		},
	})
	r.Register(&Command{
		Name: "seq", Category: CatDeveloper,
		Description: "Print a number sequence",
		Usage:       "seq [start] end",
		Run:         cmdSeq,
	})
	r.Register(&Command{
		Name: "expr", Category: CatDeveloper,
		Description: "Evaluate an integer expression",
		Usage:       "expr a op b",
		Run:         cmdExpr,
	})
	r.Register(&Command{
		Name: "test", Category: CatDeveloper,
		Description: "Evaluate a condition, setting $?",
		Usage:       "test expr",
		Run:         cmdTest,
	})
	r.Register(&Command{
		Name: "xargs", Category: CatDeveloper,
		Description: "Run a command with piped input as arguments",
		Usage:       "xargs command [args...]",
		Run:         cmdXargs,
	})
}

func cmdBase64(ctx *Context, args []string) Output {
	decode := false
	var rest []string
	for _, a := range args {
		if a == "-d" {
			decode = true
		} else {
			rest = append(rest, a)
		}
	}
	input := strings.Join(rest, " ")
	if input == "" {
		input = strings.TrimSuffix(ctx.StdinString(), "\n")
	}
	if decode {
		data, err := base64.StdEncoding.DecodeString(input)
		if err != nil {
			return Errorf(fault.Parse, input, "base64: invalid input")
		}
		return TextBlock(string(data))
	}
	return Text(base64.StdEncoding.EncodeToString([]byte(input)))
}

func cmdJSON(ctx *Context, args []string) Output {
	raw := ctx.StdinString()
	if raw == "" {
		return Errorf(fault.Parse, "", "json: no input")
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return Errorf(fault.Parse, raw, "json: %v", err)
	}
	if len(args) == 1 {
		for _, key := range strings.Split(args[0], ".") {
			obj, ok := v.(map[string]any)
			if !ok {
				return Errorf(fault.NotFound, args[0], "json: path %q not found", args[0])
			}
			v, ok = obj[key]
			if !ok {
				return Errorf(fault.NotFound, args[0], "json: path %q not found", args[0])
			}
		}
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Errorf(fault.Parse, "", "json: %v", err)
	}
	return TextBlock(string(pretty))
}

func cmdSeq(ctx *Context, args []string) Output {
	start, end := 1, 0
	var err error
	switch len(args) {
	case 1:
		end, err = strconv.Atoi(args[0])
	case 2:
		start, err = strconv.Atoi(args[0])
		if err == nil {
			end, err = strconv.Atoi(args[1])
		}
	default:
		return Errorf(fault.Parse, "", "seq: want 'seq [start] end'")
	}
	if err != nil {
		return Errorf(fault.Parse, strings.Join(args, " "), "seq: bad number")
	}
	if end-start >= 10000 {
		return Errorf(fault.Resource, "", "seq: range too large")
	}
	var lines []string
	for i := start; i <= end; i++ {
		lines = append(lines, strconv.Itoa(i))
	}
	return Text(lines...)
}

func cmdExpr(ctx *Context, args []string) Output {
	if len(args) != 3 {
		return Errorf(fault.Parse, strings.Join(args, " "), "expr: want 'expr a op b'")
	}
	a, errA := strconv.Atoi(args[0])
	b, errB := strconv.Atoi(args[2])
	if errA != nil || errB != nil {
		return Errorf(fault.Parse, strings.Join(args, " "), "expr: bad operand")
	}
	var v int
	switch args[1] {
	case "+":
		v = a + b
	case "-":
		v = a - b
	case "*":
		v = a * b
	case "/":
		if b == 0 {
			return Errorf(fault.Parse, "", "expr: division by zero")
		}
		v = a / b
	case "%":
		if b == 0 {
			return Errorf(fault.Parse, "", "expr: division by zero")
		}
		v = a % b
	default:
		return Errorf(fault.Parse, args[1], "expr: unknown operator %q", args[1])
	}
	return Text(strconv.Itoa(v))
}

// cmdTest evaluates a condition and reports it through $? alone: no
// output, status 0 when true, 1 when false.
func cmdTest(ctx *Context, args []string) Output {
	ok, err := evalTest(ctx, args)
	if err != nil {
		return ErrOut(err)
	}
	if ok {
		return Text()
	}
	return Output{Kind: KindError, Status: 1}
}

func evalTest(ctx *Context, args []string) (bool, error) {
	switch len(args) {
	case 1:
		return args[0] != "", nil
	case 2:
		switch args[0] {
		case "-z":
			return args[1] == "", nil
		case "-n":
			return args[1] != "", nil
		case "-e":
			return pathExists(ctx.FS, resolve(ctx, args[1])), nil
		case "-f":
			md, err := ctx.FS.Stat(resolve(ctx, args[1]))
			return err == nil && md.Kind == vfs.KindFile, nil
		case "-d":
			md, err := ctx.FS.Stat(resolve(ctx, args[1]))
			return err == nil && md.Kind == vfs.KindDir, nil
		}
		return false, fault.Newf(fault.Parse, args[0], "test: unknown unary %q", args[0])
	case 3:
		op := args[1]
		switch op {
		case "=", "==":
			return args[0] == args[2], nil
		case "!=":
			return args[0] != args[2], nil
		}
		a, errA := strconv.Atoi(args[0])
		b, errB := strconv.Atoi(args[2])
		if errA != nil || errB != nil {
			return false, fault.Newf(fault.Parse, strings.Join(args, " "), "test: bad integer operand")
		}
		switch op {
		case "-eq":
			return a == b, nil
		case "-ne":
			return a != b, nil
		case "-lt":
			return a < b, nil
		case "-le":
			return a <= b, nil
		case "-gt":
			return a > b, nil
		case "-ge":
			return a >= b, nil
		}
		return false, fault.Newf(fault.Parse, op, "test: unknown operator %q", op)
	}
	return false, fault.New(fault.Parse, "test: want 1-3 operands")
}

func cmdXargs(ctx *Context, args []string) Output {
	if len(args) == 0 {
		return Errorf(fault.Parse, "", "xargs: missing command")
	}
	var extra []string
	for _, l := range ctx.Stdin {
		extra = append(extra, strings.Fields(l)...)
	}
	line := strings.Join(append(append([]string(nil), args...), extra...), " ")
	return mergeOutputs(ctx.Interp.Run(line))
}

// Scripting commands store their definitions on the VFS; the
// coordinator owns actual scheduling.
const (
	cronDir    = "/etc/cron"
	startupDir = "/etc/startup"
)

func registerScripting(r *Registry) {
	r.Register(&Command{
		Name: "run", Category: CatScripting,
		Description: "Execute a script file",
		Usage:       "run file",
		Run: func(ctx *Context, args []string) Output {
			if len(args) != 1 {
				return Errorf(fault.Parse, "", "run: want 'run file'")
			}
			data, err := ctx.FS.Read(resolve(ctx, args[0]))
			if err != nil {
				return ErrOut(err)
			}
			return mergeOutputs(ctx.Interp.RunScript(splitScript(string(data))))
		},
	})
	r.Register(&Command{
		Name: "cron", Category: CatScripting,
		Description: "Manage periodic scripts",
		Usage:       "cron [add seconds file | rm name | list]",
		Run:         cmdCron,
	})
	r.Register(&Command{
		Name: "startup", Category: CatScripting,
		Description: "Manage boot scripts",
		Usage:       "startup [add file | rm name | list]",
		Run:         cmdStartup,
	})
}

func cmdCron(ctx *Context, args []string) Output {
	if len(args) == 0 || args[0] == "list" {
		entries, err := ctx.FS.List(cronDir)
		if err != nil {
			return Text()
		}
		var lines []string
		for _, e := range entries {
			data, _ := ctx.FS.Read(vfs.Join(cronDir, e.Name))
			first := strings.SplitN(string(data), "\n", 2)[0]
			lines = append(lines, fmt.Sprintf("%s\t%s", e.Name, first))
		}
		return Text(lines...)
	}
	switch args[0] {
	case "add":
		if len(args) != 3 {
			return Errorf(fault.Parse, "", "cron: want 'cron add seconds file'")
		}
		if _, err := strconv.ParseFloat(args[1], 64); err != nil {
			return Errorf(fault.Parse, args[1], "cron: bad interval %q", args[1])
		}
		src := resolve(ctx, args[2])
		if !pathExists(ctx.FS, src) {
			return Errorf(fault.NotFound, src, "cron: %s: no such file", src)
		}
		_, name := vfs.SplitDir(src)
		if err := ctx.FS.Mkdir(cronDir); err != nil {
			return ErrOut(err)
		}
		entry := "#interval=" + args[1] + "\n" + src + "\n"
		if err := ctx.FS.Write(vfs.Join(cronDir, name), []byte(entry)); err != nil {
			return ErrOut(err)
		}
		return Text("scheduled " + name + " every " + args[1] + "s")
	case "rm":
		if len(args) != 2 {
			return Errorf(fault.Parse, "", "cron: want 'cron rm name'")
		}
		if err := ctx.FS.Remove(vfs.Join(cronDir, args[1]), false); err != nil {
			return ErrOut(err)
		}
		return Text()
	}
	return Errorf(fault.Parse, args[0], "cron: unknown subcommand %q", args[0])
}

func cmdStartup(ctx *Context, args []string) Output {
	if len(args) == 0 || args[0] == "list" {
		entries, err := ctx.FS.List(startupDir)
		if err != nil {
			return Text()
		}
		var lines []string
		for _, e := range entries {
			lines = append(lines, e.Name)
		}
		return Text(lines...)
	}
	switch args[0] {
	case "add":
		if len(args) != 2 {
			return Errorf(fault.Parse, "", "startup: want 'startup add file'")
		}
		src := resolve(ctx, args[1])
		data, err := ctx.FS.Read(src)
		if err != nil {
			return ErrOut(err)
		}
		_, name := vfs.SplitDir(src)
		if err := ctx.FS.Mkdir(startupDir); err != nil {
			return ErrOut(err)
		}
		if err := ctx.FS.Write(vfs.Join(startupDir, name), data); err != nil {
			return ErrOut(err)
		}
		return Text("registered " + name)
	case "rm":
		if len(args) != 2 {
			return Errorf(fault.Parse, "", "startup: want 'startup rm name'")
		}
		if err := ctx.FS.Remove(vfs.Join(startupDir, args[1]), false); err != nil {
			return ErrOut(err)
		}
		return Text()
	}
	return Errorf(fault.Parse, args[0], "startup: unknown subcommand %q", args[0])
}
