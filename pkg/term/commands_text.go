package term

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

func registerText(r *Registry) {
	r.Register(&Command{
		Name: "echo", Category: CatText,
		Description: "Print arguments",
		Usage:       "echo [args...]",
		Run: func(ctx *Context, args []string) Output {
			return Text(strings.Join(args, " "))
		},
	})
	r.Register(&Command{
		Name: "head", Category: CatText,
		Description: "Print the first lines of input",
		Usage:       "head [-n N] [file...]",
		Run:         cmdHead,
	})
	r.Register(&Command{
		Name: "tail", Category: CatText,
		Description: "Print the last lines of input",
		Usage:       "tail [-n N] [file...]",
		Run:         cmdTail,
	})
	r.Register(&Command{
		Name: "wc", Category: CatText,
		Description: "Count lines, words and bytes",
		Usage:       "wc [-l|-w|-c] [file...]",
		Run:         cmdWc,
	})
	r.Register(&Command{
		Name: "grep", Category: CatText,
		Description: "Print lines containing a substring",
		Usage:       "grep [-v] [-i] pattern [file...]",
		Run:         cmdGrep,
	})
	r.Register(&Command{
		Name: "sort", Category: CatText,
		Description: "Sort input lines",
		Usage:       "sort [-r] [-n] [file...]",
		Run:         cmdSort,
	})
	r.Register(&Command{
		Name: "uniq", Category: CatText,
		Description: "Collapse adjacent duplicate lines",
		Usage:       "uniq [-c] [file...]",
		Run:         cmdUniq,
	})
	r.Register(&Command{
		Name: "tr", Category: CatText,
		Description: "Translate characters",
		Usage:       "tr from to",
		Run:         cmdTr,
	})
	r.Register(&Command{
		Name: "cut", Category: CatText,
		Description: "Select fields from each line",
		Usage:       "cut -d DELIM -f N [file...]",
		Run:         cmdCut,
	})
	r.Register(&Command{
		Name: "diff", Category: CatText,
		Description: "Compare two files line by line",
		Usage:       "diff a b",
		Run:         cmdDiff,
	})
	r.Register(&Command{
		Name: "tee", Category: CatText,
		Description: "Copy input to a file and to output",
		Usage:       "tee [-a] file",
		Run:         cmdTee,
	})
}

// parseN separates a "-n N" count (def when absent) from the other
// operands.
func parseN(args []string, def int) (n int, files []string, bad Output) {
	n = def
	for i := 0; i < len(args); i++ {
		if args[i] == "-n" && i+1 < len(args) {
			v, err := strconv.Atoi(args[i+1])
			if err != nil {
				return 0, nil, Errorf(fault.Parse, args[i+1], "bad count %q", args[i+1])
			}
			n = v
			i++
			continue
		}
		files = append(files, args[i])
	}
	return n, files, Output{}
}

func cmdHead(ctx *Context, args []string) Output {
	n, files, bad := parseN(args, 10)
	if bad.Kind == KindError {
		return bad
	}
	lines, errOut := readFiles(ctx, files)
	if errOut.Kind == KindError {
		return errOut
	}
	if len(lines) > n {
		lines = lines[:n]
	}
	return Text(lines...)
}

func cmdTail(ctx *Context, args []string) Output {
	n, files, bad := parseN(args, 10)
	if bad.Kind == KindError {
		return bad
	}
	lines, errOut := readFiles(ctx, files)
	if errOut.Kind == KindError {
		return errOut
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return Text(lines...)
}

func cmdWc(ctx *Context, args []string) Output {
	mode := ""
	var files []string
	for _, a := range args {
		switch a {
		case "-l", "-w", "-c":
			mode = a
		default:
			files = append(files, a)
		}
	}
	lines, errOut := readFiles(ctx, files)
	if errOut.Kind == KindError {
		return errOut
	}
	nl := len(lines)
	nw, nc := 0, 0
	for _, l := range lines {
		nw += len(strings.Fields(l))
		nc += len(l) + 1
	}
	switch mode {
	case "-l":
		return Text(fmt.Sprint(nl))
	case "-w":
		return Text(fmt.Sprint(nw))
	case "-c":
		return Text(fmt.Sprint(nc))
	}
	return Text(fmt.Sprintf("%d %d %d", nl, nw, nc))
}

func cmdGrep(ctx *Context, args []string) Output {
	invert, fold := false, false
	var rest []string
	for _, a := range args {
		switch a {
		case "-v":
			invert = true
		case "-i":
			fold = true
		default:
			rest = append(rest, a)
		}
	}
	if len(rest) == 0 {
		return Errorf(fault.Parse, "", "grep: missing pattern")
	}
	pattern := rest[0]
	lines, errOut := readFiles(ctx, rest[1:])
	if errOut.Kind == KindError {
		return errOut
	}
	var out []string
	for _, l := range lines {
		hay, needle := l, pattern
		if fold {
			hay, needle = strings.ToLower(l), strings.ToLower(pattern)
		}
		if strings.Contains(hay, needle) != invert {
			out = append(out, l)
		}
	}
	o := Text(out...)
	if len(out) == 0 {
		o.Status = 1
	}
	return o
}

func cmdSort(ctx *Context, args []string) Output {
	reverse, numeric := false, false
	var files []string
	for _, a := range args {
		switch a {
		case "-r":
			reverse = true
		case "-n":
			numeric = true
		default:
			files = append(files, a)
		}
	}
	lines, errOut := readFiles(ctx, files)
	if errOut.Kind == KindError {
		return errOut
	}
	out := append([]string(nil), lines...)
	sort.SliceStable(out, func(i, j int) bool {
		if numeric {
			a, _ := strconv.Atoi(strings.TrimSpace(out[i]))
			b, _ := strconv.Atoi(strings.TrimSpace(out[j]))
			if a != b {
				return a < b
			}
		}
		return out[i] < out[j]
	})
	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return Text(out...)
}

func cmdUniq(ctx *Context, args []string) Output {
	count := false
	var files []string
	for _, a := range args {
		if a == "-c" {
			count = true
		} else {
			files = append(files, a)
		}
	}
	lines, errOut := readFiles(ctx, files)
	if errOut.Kind == KindError {
		return errOut
	}
	var out []string
	i := 0
	for i < len(lines) {
		j := i
		for j < len(lines) && lines[j] == lines[i] {
			j++
		}
		if count {
			out = append(out, fmt.Sprintf("%4d %s", j-i, lines[i]))
		} else {
			out = append(out, lines[i])
		}
		i = j
	}
	return Text(out...)
}

func cmdTr(ctx *Context, args []string) Output {
	if len(args) != 2 {
		return Errorf(fault.Parse, "", "tr: want 'tr from to'")
	}
	from, to := []rune(args[0]), []rune(args[1])
	if len(from) == 0 || len(to) == 0 {
		return Errorf(fault.Parse, "", "tr: empty set")
	}
	mapping := map[rune]rune{}
	for i, f := range from {
		t := to[len(to)-1]
		if i < len(to) {
			t = to[i]
		}
		mapping[f] = t
	}
	out := make([]string, len(ctx.Stdin))
	for i, l := range ctx.Stdin {
		out[i] = strings.Map(func(r rune) rune {
			if t, ok := mapping[r]; ok {
				return t
			}
			return r
		}, l)
	}
	return Text(out...)
}

func cmdCut(ctx *Context, args []string) Output {
	delim := "\t"
	field := 0
	var files []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-d":
			if i+1 < len(args) {
				delim = args[i+1]
				i++
			}
		case "-f":
			if i+1 < len(args) {
				v, err := strconv.Atoi(args[i+1])
				if err != nil || v < 1 {
					return Errorf(fault.Parse, args[i+1], "cut: bad field %q", args[i+1])
				}
				field = v
				i++
			}
		default:
			files = append(files, args[i])
		}
	}
	if field == 0 {
		return Errorf(fault.Parse, "", "cut: missing -f")
	}
	lines, errOut := readFiles(ctx, files)
	if errOut.Kind == KindError {
		return errOut
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		parts := strings.Split(l, delim)
		if field <= len(parts) {
			out = append(out, parts[field-1])
		} else {
			out = append(out, "")
		}
	}
	return Text(out...)
}

func cmdDiff(ctx *Context, args []string) Output {
	if len(args) != 2 {
		return Errorf(fault.Parse, "", "diff: want 'diff a b'")
	}
	aData, err := ctx.FS.Read(resolve(ctx, args[0]))
	if err != nil {
		return ErrOut(err)
	}
	bData, err := ctx.FS.Read(resolve(ctx, args[1]))
	if err != nil {
		return ErrOut(err)
	}
	a := TextBlock(string(aData)).Lines
	b := TextBlock(string(bData)).Lines
	var out []string
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	for i := 0; i < maxLen; i++ {
		var la, lb string
		inA, inB := i < len(a), i < len(b)
		if inA {
			la = a[i]
		}
		if inB {
			lb = b[i]
		}
		if inA && inB && la == lb {
			continue
		}
		if inA {
			out = append(out, fmt.Sprintf("%d< %s", i+1, la))
		}
		if inB {
			out = append(out, fmt.Sprintf("%d> %s", i+1, lb))
		}
	}
	o := Text(out...)
	if len(out) > 0 {
		o.Status = 1
	}
	return o
}

func cmdTee(ctx *Context, args []string) Output {
	appendMode := false
	var files []string
	for _, a := range args {
		if a == "-a" {
			appendMode = true
		} else {
			files = append(files, a)
		}
	}
	if len(files) != 1 {
		return Errorf(fault.Parse, "", "tee: want one file")
	}
	path := resolve(ctx, files[0])
	data := []byte(ctx.StdinString())
	if appendMode {
		if prev, err := ctx.FS.Read(path); err == nil {
			data = append(prev, data...)
		}
	}
	if err := ctx.FS.Write(path, data); err != nil {
		return ErrOut(err)
	}
	return Text(ctx.Stdin...)
}

// pathExists reports whether path resolves on fs.
func pathExists(fs vfs.FS, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}
