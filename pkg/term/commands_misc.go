package term

import (
	"encoding/base64"
	"fmt"
	"strings"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

func registerFun(r *Registry) {
	r.Register(&Command{
		Name: "cowsay", Category: CatFun,
		Description: "A cow says your text",
		Usage:       "cowsay text...",
		Run:         cmdCowsay,
	})
	r.Register(&Command{
		Name: "banner", Category: CatFun,
		Description: "Print text in a large block style",
		Usage:       "banner text",
		Run:         cmdBanner,
	})
}

func cmdCowsay(ctx *Context, args []string) Output {
	msg := strings.Join(args, " ")
	if msg == "" {
		msg = strings.TrimSuffix(ctx.StdinString(), "\n")
	}
	if msg == "" {
		msg = "moo"
	}
	border := strings.Repeat("-", len(msg)+2)
	return Text(
		" "+border,
		"< "+msg+" >",
		" "+border,
		`        \   ^__^`,
		`         \  (oo)\_______`,
		`            (__)\       )\/\`,
		`                ||----w |`,
		`                ||     ||`,
	)
}

func cmdBanner(ctx *Context, args []string) Output {
	text := strings.ToUpper(strings.Join(args, " "))
	if text == "" {
		return Errorf(fault.Parse, "", "banner: missing text")
	}
	// 3-row block rendering: each glyph cell is the character repeated
	// or blanked in a 3x3 grid.
	rows := [3]strings.Builder{}
	for _, r := range text {
		cell := bannerGlyph(r)
		for i := 0; i < 3; i++ {
			rows[i].WriteString(cell[i])
			rows[i].WriteByte(' ')
		}
	}
	return Text(rows[0].String(), rows[1].String(), rows[2].String())
}

// bannerGlyph returns a crude 3x3 block glyph.
func bannerGlyph(r rune) [3]string {
	c := string(r)
	if r == ' ' {
		return [3]string{"   ", "   ", "   "}
	}
	return [3]string{
		c + c + c,
		c + "  ",
		c + c + c,
	}
}

func registerSecurity(r *Registry) {
	r.Register(&Command{
		Name: "psk", Category: CatSecurity,
		Description: "Manage the remote shell pre-shared key",
		Usage:       "psk [set KEY | status]",
		Run:         cmdPSK,
	})
	r.Register(&Command{
		Name: "audit", Category: CatSecurity,
		Description: "Show the security audit log",
		Usage:       "audit [-n N]",
		Run:         cmdAudit,
	})
}

// PSKPath holds the remote-terminal pre-shared key on the VFS.
const PSKPath = "/etc/psk"

func cmdPSK(ctx *Context, args []string) Output {
	if len(args) == 0 || args[0] == "status" {
		if pathExists(ctx.FS, PSKPath) {
			return Text("psk: configured")
		}
		return Text("psk: not set (remote shell disabled)")
	}
	if args[0] == "set" {
		if len(args) != 2 {
			return Errorf(fault.Parse, "", "psk: want 'psk set KEY'")
		}
		if len(args[1]) < 8 {
			return Errorf(fault.Parse, "", "psk: key must be at least 8 characters")
		}
		if err := ctx.FS.Write(PSKPath, []byte(args[1])); err != nil {
			return ErrOut(err)
		}
		return Text("psk: updated")
	}
	return Errorf(fault.Parse, args[0], "psk: unknown subcommand %q", args[0])
}

func cmdAudit(ctx *Context, args []string) Output {
	n, _, bad := parseN(args, 20)
	if bad.Kind == KindError {
		return bad
	}
	data, err := ctx.FS.Read(vfs.AuditLogPath)
	if err != nil {
		return Text()
	}
	lines := TextBlock(string(data)).Lines
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return Text(lines...)
}

func registerTransfer(r *Registry) {
	r.Register(&Command{
		Name: "export", Category: CatTransfer,
		Description: "Encode a file as a portable base64 blob",
		Usage:       "export file",
		Run: func(ctx *Context, args []string) Output {
			if len(args) != 1 {
				return Errorf(fault.Parse, "", "export: want 'export file'")
			}
			path := resolve(ctx, args[0])
			data, err := ctx.FS.Read(path)
			if err != nil {
				return ErrOut(err)
			}
			blob := base64.StdEncoding.EncodeToString(data)
			return Text(fmt.Sprintf("oasis-blob:%s:%s", path, blob))
		},
	})
	r.Register(&Command{
		Name: "import", Category: CatTransfer,
		Description: "Decode a blob produced by export",
		Usage:       "import blob [path]",
		Run:         cmdImport,
	})
}

func cmdImport(ctx *Context, args []string) Output {
	blob := ""
	if len(args) > 0 {
		blob = args[0]
	} else if len(ctx.Stdin) > 0 {
		blob = strings.TrimSpace(ctx.Stdin[0])
	}
	if blob == "" {
		return Errorf(fault.Parse, "", "import: missing blob")
	}
	parts := strings.SplitN(blob, ":", 3)
	if len(parts) != 3 || parts[0] != "oasis-blob" {
		return Errorf(fault.Protocol, blob, "import: not an oasis blob")
	}
	path := parts[1]
	if len(args) > 1 {
		path = resolve(ctx, args[1])
	}
	data, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return Errorf(fault.Protocol, "", "import: corrupt blob payload")
	}
	if err := ctx.FS.Write(path, data); err != nil {
		return ErrOut(err)
	}
	return Text("imported " + path)
}
