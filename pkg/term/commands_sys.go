package term

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/platform"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

func registerSystem(r *Registry) {
	r.Register(&Command{
		Name: "status", Category: CatSystem,
		Description: "Show system status",
		Usage:       "status",
		Run:         cmdStatus,
	})
	r.Register(&Command{
		Name: "uptime", Category: CatSystem,
		Description: "Show time since boot",
		Usage:       "uptime",
		Run: func(ctx *Context, args []string) Output {
			up := ctx.Platform.Uptime().Round(time.Second)
			return Text(fmt.Sprintf("up %s", up))
		},
	})
	r.Register(&Command{
		Name: "df", Category: CatSystem,
		Description: "Show storage usage",
		Usage:       "df",
		Run: func(ctx *Context, args []string) Output {
			st, err := ctx.Platform.Storage("/")
			if err != nil {
				return ErrOut(err)
			}
			used := st.TotalBytes - st.FreeBytes
			return Table([][]string{
				{"total", platform.FormatBytes(st.TotalBytes)},
				{"used", platform.FormatBytes(used)},
				{"free", platform.FormatBytes(st.FreeBytes)},
			})
		},
	})
	r.Register(&Command{
		Name: "date", Category: CatSystem,
		Description: "Print the current date and time",
		Usage:       "date",
		Run: func(ctx *Context, args []string) Output {
			return Text(ctx.Platform.Now().Format("Mon Jan _2 15:04:05 2006"))
		},
	})
	r.Register(&Command{
		Name: "sleep", Category: CatSystem,
		Description: "Suspend for a number of seconds",
		Usage:       "sleep seconds",
		Run:         cmdSleep,
	})
	r.Register(&Command{
		Name: "watch", Category: CatSystem,
		Description: "Re-run a command periodically",
		Usage:       "watch seconds command...",
		Run:         cmdWatch,
	})
	r.Register(&Command{
		Name: "clear", Category: CatSystem,
		Description: "Clear the terminal",
		Usage:       "clear",
		Run: func(ctx *Context, args []string) Output {
			return Clear()
		},
	})
	r.Register(&Command{
		Name: "exit", Category: CatSystem,
		Description: "End the session",
		Usage:       "exit [code]",
		Run: func(ctx *Context, args []string) Output {
			code := 0
			if len(args) > 0 {
				code, _ = strconv.Atoi(args[0])
			}
			return Exit(code)
		},
	})
	r.Register(&Command{
		Name: "help", Category: CatSystem,
		Description: "List commands by category",
		Usage:       "help [command]",
		Run:         cmdHelp,
	})
	r.Register(&Command{
		Name: "man", Category: CatSystem,
		Description: "Show a command's manual page",
		Usage:       "man command",
		Run:         cmdMan,
	})
	r.Register(&Command{
		Name: "history", Category: CatSystem,
		Description: "Show shell or browsing history",
		Usage:       "history [web]",
		Run: func(ctx *Context, args []string) Output {
			if len(args) == 1 && args[0] == "web" {
				data, err := ctx.FS.Read(vfs.BrowseHistoryPath)
				if err != nil {
					return Text()
				}
				return TextBlock(string(data))
			}
			var lines []string
			ctx.Env.History.Each(func(ordinal int, line string) {
				lines = append(lines, fmt.Sprintf("%4d  %s", ordinal, line))
			})
			return Text(lines...)
		},
	})
}

func cmdStatus(ctx *Context, args []string) Output {
	rows := [][]string{
		{"user", ctx.Env.User},
		{"uptime", ctx.Platform.Uptime().Round(time.Second).String()},
	}
	if p, err := ctx.Platform.Power(); err == nil {
		state := "discharging"
		if p.Charging {
			state = "charging"
		}
		rows = append(rows, []string{"battery", fmt.Sprintf("%d%% (%s)", p.Percent, state)})
	} else {
		rows = append(rows, []string{"battery", "n/a"})
	}
	if n, err := ctx.Platform.Net(); err == nil && n.Connected {
		rows = append(rows, []string{"network", fmt.Sprintf("%s %s", n.Interface, n.Address)})
	} else {
		rows = append(rows, []string{"network", "offline"})
	}
	usb := "disconnected"
	if ctx.Platform.USBConnected() {
		usb = "connected"
	}
	rows = append(rows, []string{"usb", usb})
	return Table(rows)
}

func cmdSleep(ctx *Context, args []string) Output {
	if len(args) != 1 {
		return Errorf(fault.Parse, "", "sleep: want 'sleep seconds'")
	}
	secs, err := strconv.ParseFloat(args[0], 64)
	if err != nil || secs < 0 {
		return Errorf(fault.Parse, args[0], "sleep: bad duration %q", args[0])
	}
	return Suspend(&Pending{
		Delay:  time.Duration(secs * float64(time.Second)),
		Resume: func() Output { return Text() },
	})
}

func cmdWatch(ctx *Context, args []string) Output {
	if len(args) < 2 {
		return Errorf(fault.Parse, "", "watch: want 'watch seconds command...'")
	}
	secs, err := strconv.ParseFloat(args[0], 64)
	if err != nil || secs <= 0 {
		return Errorf(fault.Parse, args[0], "watch: bad interval %q", args[0])
	}
	line := strings.Join(args[1:], " ")
	interp := ctx.Interp
	return Suspend(&Pending{
		Every: time.Duration(secs * float64(time.Second)),
		Resume: func() Output {
			return mergeOutputs(interp.Run(line))
		},
	})
}

func cmdHelp(ctx *Context, args []string) Output {
	if len(args) == 1 {
		cmd, ok := ctx.Interp.Reg.Lookup(args[0])
		if !ok {
			return Errorf(fault.NotFound, args[0], "help: no command %q", args[0])
		}
		return Text(
			cmd.Name+" - "+cmd.Description,
			"usage: "+cmd.Usage,
			"category: "+cmd.Category,
		)
	}
	byCat := ctx.Interp.Reg.ByCategory()
	cats := make([]string, 0, len(byCat))
	for c := range byCat {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	var lines []string
	for _, c := range cats {
		lines = append(lines, c+":")
		lines = append(lines, "  "+strings.Join(byCat[c], " "))
	}
	return Text(lines...)
}

func cmdMan(ctx *Context, args []string) Output {
	if len(args) != 1 {
		return Errorf(fault.Parse, "", "man: want 'man command'")
	}
	path := vfs.Join(vfs.ManDir, args[0]+".txt")
	data, err := ctx.FS.Read(path)
	if err != nil {
		if cmd, ok := ctx.Interp.Reg.Lookup(args[0]); ok {
			return Text(cmd.Name+" - "+cmd.Description, "usage: "+cmd.Usage)
		}
		return Errorf(fault.NotFound, args[0], "man: no manual for %q", args[0])
	}
	return TextBlock(string(data))
}

func registerConfig(r *Registry) {
	r.Register(&Command{
		Name: "env", Category: CatConfig,
		Description: "List environment variables",
		Usage:       "env",
		Run: func(ctx *Context, args []string) Output {
			var lines []string
			for _, name := range ctx.Env.VarNames() {
				lines = append(lines, name+"="+ctx.Env.Vars[name])
			}
			return Text(lines...)
		},
	})
	r.Register(&Command{
		Name: "set", Category: CatConfig,
		Description: "Set a variable (NAME=VALUE, or NAME with piped input)",
		Usage:       "set [NAME=VALUE | NAME]",
		Run:         cmdSet,
	})
	r.Register(&Command{
		Name: "unset", Category: CatConfig,
		Description: "Remove a variable",
		Usage:       "unset NAME",
		Run: func(ctx *Context, args []string) Output {
			if len(args) != 1 {
				return Errorf(fault.Parse, "", "unset: want 'unset NAME'")
			}
			delete(ctx.Env.Vars, args[0])
			return Text()
		},
	})
	r.Register(&Command{
		Name: "alias", Category: CatConfig,
		Description: "Define or list aliases",
		Usage:       "alias [NAME=VALUE]",
		Run:         cmdAlias,
	})
	r.Register(&Command{
		Name: "unalias", Category: CatConfig,
		Description: "Remove an alias",
		Usage:       "unalias NAME",
		Run: func(ctx *Context, args []string) Output {
			if len(args) != 1 {
				return Errorf(fault.Parse, "", "unalias: want 'unalias NAME'")
			}
			if _, ok := ctx.Env.Aliases[args[0]]; !ok {
				return Errorf(fault.NotFound, args[0], "unalias: no alias %q", args[0])
			}
			delete(ctx.Env.Aliases, args[0])
			return Text()
		},
	})
}

func cmdSet(ctx *Context, args []string) Output {
	if len(args) == 0 {
		var lines []string
		for _, name := range ctx.Env.VarNames() {
			lines = append(lines, name+"="+ctx.Env.Vars[name])
		}
		return Text(lines...)
	}
	arg := strings.Join(args, " ")
	if i := strings.IndexByte(arg, '='); i > 0 {
		ctx.Env.Vars[arg[:i]] = arg[i+1:]
		return Text()
	}
	// Bare name takes its value from piped input.
	if len(ctx.Stdin) == 0 {
		return Errorf(fault.Parse, arg, "set: %s: no value (want NAME=VALUE or piped input)", arg)
	}
	ctx.Env.Vars[arg] = strings.TrimSpace(ctx.Stdin[0])
	return Text()
}

func cmdAlias(ctx *Context, args []string) Output {
	if len(args) == 0 {
		names := make([]string, 0, len(ctx.Env.Aliases))
		for n := range ctx.Env.Aliases {
			names = append(names, n)
		}
		sort.Strings(names)
		var lines []string
		for _, n := range names {
			lines = append(lines, n+"="+ctx.Env.Aliases[n])
		}
		return Text(lines...)
	}
	arg := strings.Join(args, " ")
	i := strings.IndexByte(arg, '=')
	if i <= 0 {
		if val, ok := ctx.Env.Aliases[arg]; ok {
			return Text(arg + "=" + val)
		}
		return Errorf(fault.NotFound, arg, "alias: no alias %q", arg)
	}
	ctx.Env.Aliases[arg[:i]] = arg[i+1:]
	return Text()
}
