package vfs

import (
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
)

// DirFS exposes a host directory as a virtual file system. All virtual
// paths resolve strictly under the base directory; normalization
// clamps traversal so the host tree above base is unreachable.
type DirFS struct {
	base string
}

// NewDirFS wraps the host directory at base.
func NewDirFS(base string) *DirFS {
	return &DirFS{base: filepath.Clean(base)}
}

// hostPath maps a virtual path onto the host tree.
func (d *DirFS) hostPath(path string) string {
	norm := Normalize(path)
	if norm == "/" {
		return d.base
	}
	return filepath.Join(d.base, filepath.FromSlash(norm[1:]))
}

// Read returns a file's content.
func (d *DirFS) Read(path string) ([]byte, error) {
	hp := d.hostPath(path)
	info, err := os.Stat(hp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errNotFound(path)
		}
		return nil, fault.Wrap(fault.Io, path, err)
	}
	if info.IsDir() {
		return nil, errIsDir(path)
	}
	data, err := os.ReadFile(hp)
	if err != nil {
		return nil, fault.Wrap(fault.Io, path, err)
	}
	return data, nil
}

// Write creates or replaces a file.
func (d *DirFS) Write(path string, data []byte) error {
	_, name := SplitDir(path)
	if err := ValidName(name); err != nil {
		return err
	}
	hp := d.hostPath(path)
	if info, err := os.Stat(filepath.Dir(hp)); err != nil || !info.IsDir() {
		return errNotDir(path)
	}
	if err := os.WriteFile(hp, data, 0o644); err != nil {
		return fault.Wrap(fault.Io, path, err)
	}
	return nil
}

// List returns a directory's entries ordered by name.
func (d *DirFS) List(path string) ([]DirEntry, error) {
	hp := d.hostPath(path)
	dirents, err := os.ReadDir(hp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errNotFound(path)
		}
		if strings.Contains(err.Error(), "not a directory") {
			return nil, errNotDir(path)
		}
		return nil, fault.Wrap(fault.Io, path, err)
	}
	entries := make([]DirEntry, 0, len(dirents))
	for _, de := range dirents {
		kind := KindFile
		if de.IsDir() {
			kind = KindDir
		}
		entries = append(entries, DirEntry{Name: de.Name(), Kind: kind})
	}
	sortEntries(entries)
	return entries, nil
}

// Stat returns a node's metadata. Owner is the fixed "host" principal;
// host uid mapping is out of scope.
func (d *DirFS) Stat(path string) (Metadata, error) {
	info, err := os.Stat(d.hostPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return Metadata{}, errNotFound(path)
		}
		return Metadata{}, fault.Wrap(fault.Io, path, err)
	}
	md := Metadata{
		MTime: info.ModTime(),
		Mode:  uint16(info.Mode().Perm()),
		Owner: "host",
		Kind:  KindFile,
	}
	if info.IsDir() {
		md.Kind = KindDir
	} else {
		md.Size = info.Size()
	}
	return md, nil
}

// Mkdir creates a directory, making parents as needed.
func (d *DirFS) Mkdir(path string) error {
	if err := os.MkdirAll(d.hostPath(path), 0o755); err != nil {
		return fault.Wrap(fault.Io, path, err)
	}
	return nil
}

// Remove deletes an entry.
func (d *DirFS) Remove(path string, recursive bool) error {
	hp := d.hostPath(path)
	info, err := os.Stat(hp)
	if err != nil {
		if os.IsNotExist(err) {
			return errNotFound(path)
		}
		return fault.Wrap(fault.Io, path, err)
	}
	if info.IsDir() && !recursive {
		if err := os.Remove(hp); err != nil {
			return fault.Newf(fault.Io, path, "%s: directory not empty", path)
		}
		return nil
	}
	if err := os.RemoveAll(hp); err != nil {
		return fault.Wrap(fault.Io, path, err)
	}
	return nil
}

// Rename moves src to dst.
func (d *DirFS) Rename(src, dst string) error {
	if _, err := os.Stat(d.hostPath(src)); os.IsNotExist(err) {
		return errNotFound(src)
	}
	if err := os.Rename(d.hostPath(src), d.hostPath(dst)); err != nil {
		return fault.Wrap(fault.Io, src, err)
	}
	return nil
}
