package vfs

import (
	"strings"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
)

// OverlayFS layers an in-memory writable view over a read-only base.
// Writes always land in the overlay; deletes record tombstones that
// hide base entries. Reads and listings consult the overlay first.
//
// Discarding the overlay (NewOverlayFS again over the same base)
// restores the base contents exactly.
type OverlayFS struct {
	base  FS
	upper *MemFS
	// tombstones holds normalized paths deleted from the base view.
	// A tombstone on a directory hides its whole subtree.
	tombstones map[string]bool
}

// NewOverlayFS builds an overlay with an empty upper layer.
func NewOverlayFS(base FS) *OverlayFS {
	return &OverlayFS{base: base, upper: NewMemFS(), tombstones: map[string]bool{}}
}

// buried reports whether path or any ancestor carries a tombstone.
func (o *OverlayFS) buried(path string) bool {
	path = Normalize(path)
	for {
		if o.tombstones[path] {
			return true
		}
		if path == "/" {
			return false
		}
		path, _ = SplitDir(path)
	}
}

// Read consults the overlay first, then the base.
func (o *OverlayFS) Read(path string) ([]byte, error) {
	if data, err := o.upper.Read(path); err == nil {
		return data, nil
	} else if fault.KindOf(err) != fault.NotFound {
		return nil, err
	}
	if o.buried(path) {
		return nil, errNotFound(path)
	}
	return o.base.Read(path)
}

// Write routes to the upper layer, materializing parent directories so
// base-layer directories remain writable destinations. A write clears
// any tombstone shadowing the path.
func (o *OverlayFS) Write(path string, data []byte) error {
	norm := Normalize(path)
	dir, name := SplitDir(norm)
	if name == "" {
		return fault.Newf(fault.Io, path, "cannot address root as an entry")
	}
	// The parent must exist in either layer unless tombstoned.
	if _, err := o.upper.Stat(dir); err != nil {
		if o.buried(dir) {
			return errNotDir(dir)
		}
		md, berr := o.base.Stat(dir)
		if berr != nil || md.Kind != KindDir {
			return errNotDir(dir)
		}
	}
	if err := o.upper.Mkdir(dir); err != nil {
		return err
	}
	delete(o.tombstones, norm)
	return o.upper.Write(norm, data)
}

// List merges both layers, overlay entries shadowing base entries of
// the same name and tombstones filtering base entries out.
func (o *OverlayFS) List(path string) ([]DirEntry, error) {
	norm := Normalize(path)
	upperEntries, upperErr := o.upper.List(norm)
	var baseEntries []DirEntry
	var baseErr error
	if o.buried(norm) {
		baseErr = errNotFound(norm)
	} else {
		baseEntries, baseErr = o.base.List(norm)
	}
	if upperErr != nil && baseErr != nil {
		return nil, baseErr
	}
	seen := map[string]bool{}
	merged := []DirEntry{}
	for _, e := range upperEntries {
		merged = append(merged, e)
		seen[e.Name] = true
	}
	for _, e := range baseEntries {
		if seen[e.Name] || o.tombstones[Join(norm, e.Name)] {
			continue
		}
		merged = append(merged, e)
	}
	sortEntries(merged)
	return merged, nil
}

// Stat consults the overlay first, then the base.
func (o *OverlayFS) Stat(path string) (Metadata, error) {
	if md, err := o.upper.Stat(path); err == nil {
		return md, nil
	}
	if o.buried(path) {
		return Metadata{}, errNotFound(path)
	}
	return o.base.Stat(path)
}

// Mkdir creates the directory in the upper layer.
func (o *OverlayFS) Mkdir(path string) error {
	delete(o.tombstones, Normalize(path))
	return o.upper.Mkdir(path)
}

// Remove deletes from the upper layer and tombstones the base entry.
func (o *OverlayFS) Remove(path string, recursive bool) error {
	norm := Normalize(path)
	_, upperErr := o.upper.Stat(norm)
	var baseVisible bool
	if !o.buried(norm) {
		if md, err := o.base.Stat(norm); err == nil {
			if md.Kind == KindDir && !recursive {
				// Merge-aware emptiness check.
				entries, lerr := o.List(norm)
				if lerr == nil && len(entries) > 0 {
					return fault.Newf(fault.Io, norm, "%s: directory not empty", norm)
				}
			}
			baseVisible = true
		}
	}
	if upperErr == nil {
		if err := o.upper.Remove(norm, recursive); err != nil {
			return err
		}
	} else if !baseVisible {
		return errNotFound(norm)
	}
	if baseVisible {
		o.tombstones[norm] = true
	}
	return nil
}

// Rename copies through the upper layer, then removes the source.
// Directory renames move the merged subtree file by file.
func (o *OverlayFS) Rename(src, dst string) error {
	md, err := o.Stat(src)
	if err != nil {
		return err
	}
	if md.Kind == KindFile {
		data, err := o.Read(src)
		if err != nil {
			return err
		}
		if err := o.Write(dst, data); err != nil {
			return err
		}
		return o.Remove(src, false)
	}
	srcNorm, dstNorm := Normalize(src), Normalize(dst)
	if dstNorm == srcNorm || strings.HasPrefix(dstNorm, srcNorm+"/") {
		return fault.Newf(fault.Io, dst, "cannot move %s inside itself", srcNorm)
	}
	if err := o.Mkdir(dstNorm); err != nil {
		return err
	}
	var moveErr error
	_ = Walk(o, srcNorm, func(p string, e DirEntry) error {
		rel := strings.TrimPrefix(p, srcNorm)
		target := Join(dstNorm, strings.TrimPrefix(rel, "/"))
		if e.Kind == KindDir {
			moveErr = o.Mkdir(target)
		} else {
			data, err := o.Read(p)
			if err == nil {
				err = o.Write(target, data)
			}
			moveErr = err
		}
		return moveErr
	})
	if moveErr != nil {
		return moveErr
	}
	return o.Remove(srcNorm, true)
}
