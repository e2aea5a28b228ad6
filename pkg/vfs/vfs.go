// Package vfs implements the virtual file system: named hierarchical
// byte storage with metadata behind a single FS interface.
//
// Three implementations are provided:
//   - MemFS: in-memory tree, the default boot file system
//   - DirFS: backed by a host directory
//   - OverlayFS: read-only base + in-memory writes with tombstones
//
// Paths are absolute, '/'-separated, UTF-8, and lexically normalized.
// Traversal above root clamps to root.
package vfs

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
)

// NodeKind distinguishes directory entries.
type NodeKind int

const (
	// KindFile marks a regular file.
	KindFile NodeKind = iota
	// KindDir marks a directory.
	KindDir
)

func (k NodeKind) String() string {
	if k == KindDir {
		return "dir"
	}
	return "file"
}

// DirEntry is one row of a directory listing.
type DirEntry struct {
	Name string
	Kind NodeKind
}

// Metadata describes a node. Mode bits and owner are advisory.
type Metadata struct {
	Size  int64
	MTime time.Time
	Mode  uint16
	Owner string
	Kind  NodeKind
}

// FS is the storage contract every component programs against.
type FS interface {
	Read(path string) ([]byte, error)
	Write(path string, data []byte) error
	List(path string) ([]DirEntry, error)
	Stat(path string) (Metadata, error)
	Mkdir(path string) error
	// Remove deletes a file or directory. Non-empty directories are
	// refused unless recursive is set.
	Remove(path string, recursive bool) error
	Rename(src, dst string) error
}

// Normalize resolves a path lexically: collapses '//' and '.', applies
// '..' (clamping at root), and strips the trailing slash. The result
// is always absolute. Normalize is idempotent.
func Normalize(path string) string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

// Join resolves target against base: absolute targets normalize on
// their own, relative targets normalize under base.
func Join(base, target string) string {
	if strings.HasPrefix(target, "/") {
		return Normalize(target)
	}
	return Normalize(base + "/" + target)
}

// SplitDir returns the parent directory and leaf name of a normalized
// path. The root splits into ("/", "").
func SplitDir(path string) (dir, name string) {
	path = Normalize(path)
	if path == "/" {
		return "/", ""
	}
	i := strings.LastIndexByte(path, '/')
	if i == 0 {
		return "/", path[1:]
	}
	return path[:i], path[i+1:]
}

// ValidName rejects entry names the tree cannot hold: empty, non-UTF-8,
// or containing '/' or NUL.
func ValidName(name string) error {
	if name == "" {
		return fault.Newf(fault.Parse, name, "empty name")
	}
	if !utf8.ValidString(name) {
		return fault.Newf(fault.Parse, name, "name is not valid UTF-8")
	}
	if strings.ContainsAny(name, "/\x00") {
		return fault.Newf(fault.Parse, name, "name %q contains '/' or NUL", name)
	}
	return nil
}

// Glob reports whether name matches pattern, where '*' matches any run
// and '?' matches a single rune.
func Glob(pattern, name string) bool {
	return globMatch([]rune(pattern), []rune(name))
}

func globMatch(p, s []rune) bool {
	for len(p) > 0 {
		switch p[0] {
		case '*':
			for i := 0; i <= len(s); i++ {
				if globMatch(p[1:], s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			p, s = p[1:], s[1:]
		default:
			if len(s) == 0 || s[0] != p[0] {
				return false
			}
			p, s = p[1:], s[1:]
		}
	}
	return len(s) == 0
}

// HasGlob reports whether a token contains glob metacharacters.
func HasGlob(s string) bool { return strings.ContainsAny(s, "*?") }

func sortEntries(entries []DirEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
}

func errNotFound(path string) error {
	return fault.Newf(fault.NotFound, path, "%s: no such file or directory", path)
}

func errNotDir(path string) error {
	return fault.Newf(fault.Io, path, "%s: not a directory", path)
}

func errIsDir(path string) error {
	return fault.Newf(fault.Io, path, "%s: is a directory", path)
}
