package term

import (
	"fmt"
	"sort"
	"strings"

	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

// historySize bounds the history ring.
const historySize = 100

// Environment is the mutable state the interpreter threads through
// execution. One exists per terminal session; remote sessions get
// their own.
type Environment struct {
	CWD        string
	User       string
	Vars       map[string]string
	Aliases    map[string]string
	Functions  map[string][]string
	History    *History
	LastStatus int
}

// NewEnvironment returns a fresh environment rooted at the user home.
func NewEnvironment() *Environment {
	return &Environment{
		CWD:       vfs.HomeDir,
		User:      vfs.DefaultUser,
		Vars:      map[string]string{},
		Aliases:   map[string]string{},
		Functions: map[string][]string{},
		History:   NewHistory(historySize),
	}
}

// Lookup resolves a variable, handling the special names. Unbound
// variables resolve to the empty string.
func (e *Environment) Lookup(name string) string {
	switch name {
	case "?":
		return fmt.Sprint(e.LastStatus)
	case "CWD":
		return e.CWD
	case "USER":
		return e.User
	case "HOME":
		return vfs.HomeDir
	}
	return e.Vars[name]
}

// VarNames returns the defined variable names sorted.
func (e *Environment) VarNames() []string {
	names := make([]string, 0, len(e.Vars))
	for n := range e.Vars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SaveState persists variables and aliases to the conventional VFS
// dotfiles. History persists separately at shell exit.
func (e *Environment) SaveState(fs vfs.FS) error {
	var b strings.Builder
	for _, name := range e.VarNames() {
		fmt.Fprintf(&b, "%s=%s\n", name, e.Vars[name])
	}
	if err := fs.Write("/home/.vars", []byte(b.String())); err != nil {
		return err
	}
	b.Reset()
	aliases := make([]string, 0, len(e.Aliases))
	for n := range e.Aliases {
		aliases = append(aliases, n)
	}
	sort.Strings(aliases)
	for _, name := range aliases {
		fmt.Fprintf(&b, "%s=%s\n", name, e.Aliases[name])
	}
	return fs.Write(vfs.AliasesPath, []byte(b.String()))
}

// LoadState restores variables and aliases saved by SaveState. Missing
// files are not errors.
func (e *Environment) LoadState(fs vfs.FS) {
	if data, err := fs.Read("/home/.vars"); err == nil {
		for name, val := range parseKVLines(string(data)) {
			e.Vars[name] = val
		}
	}
	if data, err := fs.Read(vfs.AliasesPath); err == nil {
		for name, val := range parseKVLines(string(data)) {
			e.Aliases[name] = val
		}
	}
}

func parseKVLines(s string) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(s, "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '='); i > 0 {
			out[line[:i]] = line[i+1:]
		}
	}
	return out
}

// History is the bounded command ring. Ordinals are 1-based and keep
// counting as old entries fall off.
type History struct {
	entries []string
	max     int
	// base is the ordinal of entries[0].
	base int
}

// NewHistory returns an empty ring bounded at max entries.
func NewHistory(max int) *History {
	return &History{max: max, base: 1}
}

// Add appends a command line. Consecutive duplicates collapse.
func (h *History) Add(line string) {
	if line == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	if len(h.entries) > h.max {
		drop := len(h.entries) - h.max
		h.entries = h.entries[drop:]
		h.base += drop
	}
}

// Len returns the number of retained entries.
func (h *History) Len() int { return len(h.entries) }

// Last returns the most recent entry.
func (h *History) Last() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	return h.entries[len(h.entries)-1], true
}

// Get returns the entry with 1-based ordinal n.
func (h *History) Get(n int) (string, bool) {
	idx := n - h.base
	if idx < 0 || idx >= len(h.entries) {
		return "", false
	}
	return h.entries[idx], true
}

// Each visits entries oldest-first with their ordinals.
func (h *History) Each(fn func(ordinal int, line string)) {
	for i, line := range h.entries {
		fn(h.base+i, line)
	}
}

// Save writes the ring to the conventional history path.
func (h *History) Save(fs vfs.FS) error {
	var b strings.Builder
	for _, line := range h.entries {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return fs.Write(vfs.HistoryPath, []byte(b.String()))
}

// Load restores the ring saved by Save. A missing file is fine.
func (h *History) Load(fs vfs.FS) {
	data, err := fs.Read(vfs.HistoryPath)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			h.Add(line)
		}
	}
}
