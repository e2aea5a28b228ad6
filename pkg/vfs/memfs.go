package vfs

import (
	"sort"
	"time"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
)

// memNode is one tree node: a file with content, or a directory with
// children. Never both.
type memNode struct {
	kind     NodeKind
	data     []byte
	children map[string]*memNode
	mtime    time.Time
	mode     uint16
	owner    string
}

func newMemDir() *memNode {
	return &memNode{kind: KindDir, children: map[string]*memNode{}, mtime: time.Now(), mode: 0o755, owner: "guest"}
}

// MemFS is the in-memory file system. The zero value is not usable;
// call NewMemFS.
type MemFS struct {
	root *memNode
	// now is swapped in tests for stable mtimes.
	now func() time.Time
}

// NewMemFS returns an empty in-memory file system containing only "/".
func NewMemFS() *MemFS {
	return &MemFS{root: newMemDir(), now: time.Now}
}

// lookup walks a normalized path and returns its node.
func (m *MemFS) lookup(path string) (*memNode, error) {
	path = Normalize(path)
	node := m.root
	if path == "/" {
		return node, nil
	}
	for _, seg := range splitSegments(path) {
		if node.kind != KindDir {
			return nil, errNotDir(path)
		}
		child, ok := node.children[seg]
		if !ok {
			return nil, errNotFound(path)
		}
		node = child
	}
	return node, nil
}

// lookupDir walks to the parent directory of path.
func (m *MemFS) lookupDir(path string) (*memNode, string, error) {
	dir, name := SplitDir(path)
	if name == "" {
		return nil, "", fault.Newf(fault.Io, path, "cannot address root as an entry")
	}
	node, err := m.lookup(dir)
	if err != nil {
		return nil, "", err
	}
	if node.kind != KindDir {
		return nil, "", errNotDir(dir)
	}
	return node, name, nil
}

// Read returns a file's content.
func (m *MemFS) Read(path string) ([]byte, error) {
	node, err := m.lookup(path)
	if err != nil {
		return nil, err
	}
	if node.kind != KindFile {
		return nil, errIsDir(path)
	}
	out := make([]byte, len(node.data))
	copy(out, node.data)
	return out, nil
}

// Write creates or replaces a file. The parent directory must exist.
func (m *MemFS) Write(path string, data []byte) error {
	parent, name, err := m.lookupDir(path)
	if err != nil {
		return err
	}
	if err := ValidName(name); err != nil {
		return err
	}
	if existing, ok := parent.children[name]; ok && existing.kind == KindDir {
		return errIsDir(path)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	parent.children[name] = &memNode{kind: KindFile, data: buf, mtime: m.now(), mode: 0o644, owner: "guest"}
	return nil
}

// List returns a directory's entries ordered by name.
func (m *MemFS) List(path string) ([]DirEntry, error) {
	node, err := m.lookup(path)
	if err != nil {
		return nil, err
	}
	if node.kind != KindDir {
		return nil, errNotDir(path)
	}
	entries := make([]DirEntry, 0, len(node.children))
	for name, child := range node.children {
		entries = append(entries, DirEntry{Name: name, Kind: child.kind})
	}
	sortEntries(entries)
	return entries, nil
}

// Stat returns a node's metadata.
func (m *MemFS) Stat(path string) (Metadata, error) {
	node, err := m.lookup(path)
	if err != nil {
		return Metadata{}, err
	}
	md := Metadata{MTime: node.mtime, Mode: node.mode, Owner: node.owner, Kind: node.kind}
	if node.kind == KindFile {
		md.Size = int64(len(node.data))
	}
	return md, nil
}

// Mkdir creates a directory, making parents as needed.
func (m *MemFS) Mkdir(path string) error {
	path = Normalize(path)
	if path == "/" {
		return nil
	}
	node := m.root
	for _, seg := range splitSegments(path) {
		if err := ValidName(seg); err != nil {
			return err
		}
		child, ok := node.children[seg]
		if !ok {
			child = newMemDir()
			child.mtime = m.now()
			node.children[seg] = child
		} else if child.kind != KindDir {
			return errNotDir(path)
		}
		node = child
	}
	return nil
}

// Remove deletes an entry. Non-empty directories require recursive.
func (m *MemFS) Remove(path string, recursive bool) error {
	parent, name, err := m.lookupDir(path)
	if err != nil {
		return err
	}
	node, ok := parent.children[name]
	if !ok {
		return errNotFound(path)
	}
	if node.kind == KindDir && len(node.children) > 0 && !recursive {
		return fault.Newf(fault.Io, path, "%s: directory not empty", path)
	}
	delete(parent.children, name)
	return nil
}

// Rename moves src to dst, overwriting a destination file.
func (m *MemFS) Rename(src, dst string) error {
	srcParent, srcName, err := m.lookupDir(src)
	if err != nil {
		return err
	}
	node, ok := srcParent.children[srcName]
	if !ok {
		return errNotFound(src)
	}
	dstParent, dstName, err := m.lookupDir(dst)
	if err != nil {
		return err
	}
	if err := ValidName(dstName); err != nil {
		return err
	}
	if existing, ok := dstParent.children[dstName]; ok && existing.kind == KindDir {
		return errIsDir(dst)
	}
	delete(srcParent.children, srcName)
	dstParent.children[dstName] = node
	node.mtime = m.now()
	return nil
}

// splitSegments splits a normalized non-root path into its segments.
func splitSegments(path string) []string {
	segs := []string{}
	start := 1
	for i := 1; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				segs = append(segs, path[start:i])
			}
			start = i + 1
		}
	}
	return segs
}

// Walk visits every path under root in depth-first name order. Used by
// find and by recursive copies.
func Walk(fs FS, root string, fn func(path string, entry DirEntry) error) error {
	entries, err := fs.List(root)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	for _, e := range entries {
		p := Join(root, e.Name)
		if err := fn(p, e); err != nil {
			return err
		}
		if e.Kind == KindDir {
			if err := Walk(fs, p, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
