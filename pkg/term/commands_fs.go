package term

import (
	"fmt"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

// resolve maps a command argument onto an absolute VFS path.
func resolve(ctx *Context, arg string) string {
	return vfs.Join(ctx.Env.CWD, arg)
}

func registerFilesystem(r *Registry) {
	r.Register(&Command{
		Name: "ls", Category: CatFilesystem,
		Description: "List directory contents",
		Usage:       "ls [-l] [path]",
		Run:         cmdLs,
	})
	r.Register(&Command{
		Name: "cd", Category: CatFilesystem,
		Description: "Change the working directory",
		Usage:       "cd [path]",
		Run:         cmdCd,
	})
	r.Register(&Command{
		Name: "pwd", Category: CatFilesystem,
		Description: "Print the working directory",
		Usage:       "pwd",
		Run: func(ctx *Context, args []string) Output {
			return Text(ctx.Env.CWD)
		},
	})
	r.Register(&Command{
		Name: "cat", Category: CatFilesystem,
		Description: "Concatenate files to output",
		Usage:       "cat [file...]",
		Run:         cmdCat,
	})
	r.Register(&Command{
		Name: "mkdir", Category: CatFilesystem,
		Description: "Create directories",
		Usage:       "mkdir dir...",
		Run:         cmdMkdir,
	})
	r.Register(&Command{
		Name: "rm", Category: CatFilesystem,
		Description: "Remove files or directories",
		Usage:       "rm [-r] path...",
		Run:         cmdRm,
	})
	r.Register(&Command{
		Name: "touch", Category: CatFilesystem,
		Description: "Create an empty file",
		Usage:       "touch file...",
		Run:         cmdTouch,
	})
	r.Register(&Command{
		Name: "cp", Category: CatFilesystem,
		Description: "Copy a file",
		Usage:       "cp src dst",
		Run:         cmdCp,
	})
	r.Register(&Command{
		Name: "mv", Category: CatFilesystem,
		Description: "Move or rename a file",
		Usage:       "mv src dst",
		Run:         cmdMv,
	})
	r.Register(&Command{
		Name: "find", Category: CatFilesystem,
		Description: "Walk a tree printing matching paths",
		Usage:       "find [path] [pattern]",
		Run:         cmdFind,
	})
}

func cmdLs(ctx *Context, args []string) Output {
	long := false
	var target string
	for _, a := range args {
		if a == "-l" {
			long = true
		} else {
			target = a
		}
	}
	path := ctx.Env.CWD
	if target != "" {
		path = resolve(ctx, target)
	}
	md, err := ctx.FS.Stat(path)
	if err != nil {
		return ErrOut(err)
	}
	if md.Kind == vfs.KindFile {
		_, name := vfs.SplitDir(path)
		return Text(name)
	}
	entries, err := ctx.FS.List(path)
	if err != nil {
		return ErrOut(err)
	}
	if !long {
		lines := make([]string, 0, len(entries))
		for _, e := range entries {
			name := e.Name
			if e.Kind == vfs.KindDir {
				name += "/"
			}
			lines = append(lines, name)
		}
		return Text(lines...)
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		emd, err := ctx.FS.Stat(vfs.Join(path, e.Name))
		if err != nil {
			continue
		}
		rows = append(rows, []string{
			fmt.Sprintf("%04o", emd.Mode),
			emd.Owner,
			fmt.Sprint(emd.Size),
			emd.MTime.Format("Jan _2 15:04"),
			e.Name,
		})
	}
	return Table(rows)
}

func cmdCd(ctx *Context, args []string) Output {
	target := vfs.HomeDir
	if len(args) > 0 {
		target = resolve(ctx, args[0])
	}
	md, err := ctx.FS.Stat(target)
	if err != nil {
		return ErrOut(err)
	}
	if md.Kind != vfs.KindDir {
		return Errorf(fault.Io, target, "cd: %s: not a directory", target)
	}
	ctx.Env.CWD = target
	return Text()
}

func cmdCat(ctx *Context, args []string) Output {
	if len(args) == 0 {
		return Text(ctx.Stdin...)
	}
	var lines []string
	for _, a := range args {
		data, err := ctx.FS.Read(resolve(ctx, a))
		if err != nil {
			return ErrOut(err)
		}
		lines = append(lines, TextBlock(string(data)).Lines...)
	}
	return Text(lines...)
}

func cmdMkdir(ctx *Context, args []string) Output {
	if len(args) == 0 {
		return Errorf(fault.Parse, "", "mkdir: missing operand")
	}
	for _, a := range args {
		if err := ctx.FS.Mkdir(resolve(ctx, a)); err != nil {
			return ErrOut(err)
		}
	}
	return Text()
}

func cmdRm(ctx *Context, args []string) Output {
	recursive := false
	var paths []string
	for _, a := range args {
		if a == "-r" || a == "-rf" {
			recursive = true
		} else {
			paths = append(paths, a)
		}
	}
	if len(paths) == 0 {
		return Errorf(fault.Parse, "", "rm: missing operand")
	}
	for _, p := range paths {
		if err := ctx.FS.Remove(resolve(ctx, p), recursive); err != nil {
			return ErrOut(err)
		}
	}
	return Text()
}

func cmdTouch(ctx *Context, args []string) Output {
	if len(args) == 0 {
		return Errorf(fault.Parse, "", "touch: missing operand")
	}
	for _, a := range args {
		path := resolve(ctx, a)
		if _, err := ctx.FS.Stat(path); err == nil {
			continue
		}
		if err := ctx.FS.Write(path, nil); err != nil {
			return ErrOut(err)
		}
	}
	return Text()
}

func cmdCp(ctx *Context, args []string) Output {
	if len(args) != 2 {
		return Errorf(fault.Parse, "", "cp: want 'cp src dst'")
	}
	src, dst := resolve(ctx, args[0]), resolve(ctx, args[1])
	data, err := ctx.FS.Read(src)
	if err != nil {
		return ErrOut(err)
	}
	// Copying onto a directory targets a same-named entry inside it.
	if md, err := ctx.FS.Stat(dst); err == nil && md.Kind == vfs.KindDir {
		_, name := vfs.SplitDir(src)
		dst = vfs.Join(dst, name)
	}
	if err := ctx.FS.Write(dst, data); err != nil {
		return ErrOut(err)
	}
	return Text()
}

func cmdMv(ctx *Context, args []string) Output {
	if len(args) != 2 {
		return Errorf(fault.Parse, "", "mv: want 'mv src dst'")
	}
	src, dst := resolve(ctx, args[0]), resolve(ctx, args[1])
	if md, err := ctx.FS.Stat(dst); err == nil && md.Kind == vfs.KindDir {
		_, name := vfs.SplitDir(src)
		dst = vfs.Join(dst, name)
	}
	if err := ctx.FS.Rename(src, dst); err != nil {
		return ErrOut(err)
	}
	return Text()
}

func cmdFind(ctx *Context, args []string) Output {
	root := ctx.Env.CWD
	pattern := "*"
	if len(args) > 0 {
		root = resolve(ctx, args[0])
	}
	if len(args) > 1 {
		pattern = args[1]
	}
	var lines []string
	err := vfs.Walk(ctx.FS, root, func(path string, e vfs.DirEntry) error {
		if vfs.Glob(pattern, e.Name) {
			lines = append(lines, path)
		}
		return nil
	})
	if err != nil {
		return ErrOut(err)
	}
	return Text(lines...)
}

// readFiles resolves a text command's input: file arguments win,
// otherwise piped stdin. The error output's Kind is KindError when a
// read failed.
func readFiles(ctx *Context, files []string) ([]string, Output) {
	if len(files) == 0 {
		return ctx.Stdin, Output{}
	}
	var lines []string
	for _, f := range files {
		data, err := ctx.FS.Read(resolve(ctx, f))
		if err != nil {
			return nil, ErrOut(err)
		}
		lines = append(lines, TextBlock(string(data)).Lines...)
	}
	return lines, Output{}
}
