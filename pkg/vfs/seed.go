package vfs

import "fmt"

// DefaultUser is the conventional shell user.
const DefaultUser = "guest"

// Well-known paths components agree on.
const (
	HomeDir           = "/home/" + DefaultUser
	HistoryPath       = "/home/.shell_history"
	AliasesPath       = "/home/.aliases"
	ShellRCPath       = "/home/.shellrc"
	BookmarksPath     = "/home/.bookmarks"
	BrowseHistoryPath = "/home/.browse_history"
	MotdPath          = "/etc/motd"
	ManDir            = "/usr/share/man"
	AuditLogPath      = "/var/log/audit"
)

// Seed lays down the conventional tree on a fresh file system:
// /home/<user>/, /etc/motd, /usr/share/man, /var/log.
func Seed(fs FS) error {
	dirs := []string{HomeDir, "/etc", ManDir, "/var/log", "/tmp"}
	for _, d := range dirs {
		if err := fs.Mkdir(d); err != nil {
			return fmt.Errorf("vfs: seed %s: %w", d, err)
		}
	}
	if _, err := fs.Stat(MotdPath); err != nil {
		motd := "Welcome to OASIS.\nType 'help' for available commands.\n"
		if err := fs.Write(MotdPath, []byte(motd)); err != nil {
			return fmt.Errorf("vfs: seed motd: %w", err)
		}
	}
	for cmd, text := range seedManPages {
		path := ManDir + "/" + cmd + ".txt"
		if _, err := fs.Stat(path); err == nil {
			continue
		}
		if err := fs.Write(path, []byte(text)); err != nil {
			return fmt.Errorf("vfs: seed man %s: %w", cmd, err)
		}
	}
	return nil
}

// seedManPages are the longer-form manuals shipped with the image;
// commands without one fall back to their registry usage line.
var seedManPages = map[string]string{
	"skin": `skin - show, list or activate skins

usage: skin [list | NAME]

Without arguments, prints the active skin. 'skin list' enumerates
every registered skin, marking the active one. 'skin NAME' swaps to
NAME atomically: on failure the current skin stays active. Skins are
loaded from /etc/skins at boot, one directory per skin.
`,
	"browse": `browse - open a URL in the browser

usage: browse url

Supports http (plain TCP), https and gemini (TLS, when the host
provides it). Pages render in the browser surface; use up/down to
scroll, cancel to go back, start to return to the dashboard. Visits
are logged to /home/.browse_history.
`,
	"psk": `psk - manage the remote shell pre-shared key

usage: psk [set KEY | status]

The key gates the line-oriented remote shell. 'psk set' stores it at
/etc/psk; keys shorter than 8 characters are refused. All psk
invocations are recorded in /var/log/audit.
`,
}
