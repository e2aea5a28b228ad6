// Package sdi implements the Scene Display Interface: the retained
// registry of named renderable objects that is the sole handoff
// between UI producers and the rendering backend.
//
// Components never draw. They create and mutate sdi objects; the
// coordinator flushes the registry to the backend once per frame in
// ascending z-order, with insertion order breaking ties.
package sdi

import (
	"sort"

	"gitlab.com/tinyland/lab/oasis/pkg/backend"
	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/gfx"
)

// Object is one named renderable. Fields mirror the draw capabilities
// of the Renderer trait plus the visual extensions skins can express.
type Object struct {
	Name    string
	X, Y    int
	W, H    int
	Fill    gfx.Color
	Texture backend.TextureID // 0 means no texture
	Text    string
	FontSize  int
	TextColor gfx.Color
	Z         int
	Visible   bool
	Alpha     float64 // 0..1, multiplied into Fill and TextColor at paint

	// Visual extensions. Zero values mean "absent".
	GradientTop    gfx.Color
	GradientBottom gfx.Color
	HasGradient    bool
	BorderRadius   int
	StrokeWidth    int
	StrokeColor    gfx.Color
	ShadowLevel    int // 0..3

	seq int // insertion order, breaks z ties
}

// Rect returns the object's bounds.
func (o *Object) Rect() backend.Rect {
	return backend.Rect{X: o.X, Y: o.Y, W: o.W, H: o.H}
}

// Template is the constructor argument for Create: an Object minus
// the registry-owned fields (Name is taken separately, seq assigned).
type Template struct {
	X, Y, W, H int
	Fill       gfx.Color
	Text       string
	FontSize   int
	TextColor  gfx.Color
	Z          int
	Visible    bool
	Alpha      float64

	GradientTop    gfx.Color
	GradientBottom gfx.Color
	HasGradient    bool
	BorderRadius   int
	StrokeWidth    int
	StrokeColor    gfx.Color
	ShadowLevel    int
}

// Patch carries a partial update. Only fields whose Set flag is true
// are applied, so producers can move an object without racing other
// producers' color updates.
type Patch struct {
	SetPos          bool
	X, Y            int
	SetSize         bool
	W, H            int
	SetFill         bool
	Fill            gfx.Color
	SetText         bool
	Text            string
	SetTextColor    bool
	TextColor       gfx.Color
	SetFontSize     bool
	FontSize        int
	SetZ            bool
	Z               int
	SetVisible      bool
	Visible         bool
	SetAlpha        bool
	Alpha           float64
	SetTexture      bool
	Texture         backend.TextureID
	SetStroke       bool
	StrokeWidth     int
	StrokeColor     gfx.Color
	SetGradient     bool
	HasGradient     bool
	GradientTop     gfx.Color
	GradientBottom  gfx.Color
	SetBorderRadius bool
	BorderRadius    int
	SetShadowLevel  bool
	ShadowLevel     int
}

// Registry owns every live object. It is not safe for concurrent use;
// the core is single-threaded and the coordinator serializes access.
type Registry struct {
	objects map[string]*Object
	nextSeq int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{objects: map[string]*Object{}}
}

// Create registers a new object under name. Names are unique; a second
// Create with the same name yields a Duplicate fault.
func (r *Registry) Create(name string, t Template) (*Object, error) {
	if name == "" {
		return nil, fault.Newf(fault.Parse, name, "sdi: empty object name")
	}
	if _, exists := r.objects[name]; exists {
		return nil, fault.Newf(fault.Duplicate, name, "sdi: object %q already exists", name)
	}
	o := &Object{
		Name: name,
		X:    t.X, Y: t.Y, W: t.W, H: t.H,
		Fill:      t.Fill,
		Text:      t.Text,
		FontSize:  t.FontSize,
		TextColor: t.TextColor,
		Z:         t.Z,
		Visible:   t.Visible,
		Alpha:     t.Alpha,

		GradientTop:    t.GradientTop,
		GradientBottom: t.GradientBottom,
		HasGradient:    t.HasGradient,
		BorderRadius:   t.BorderRadius,
		StrokeWidth:    t.StrokeWidth,
		StrokeColor:    t.StrokeColor,
		ShadowLevel:    t.ShadowLevel,

		seq: r.nextSeq,
	}
	if o.FontSize == 0 {
		o.FontSize = 8
	}
	r.nextSeq++
	r.objects[name] = o
	return o, nil
}

// Update applies a patch to the named object.
func (r *Registry) Update(name string, p Patch) error {
	o, ok := r.objects[name]
	if !ok {
		return fault.Newf(fault.NotFound, name, "sdi: no object %q", name)
	}
	if p.SetPos {
		o.X, o.Y = p.X, p.Y
	}
	if p.SetSize {
		o.W, o.H = p.W, p.H
	}
	if p.SetFill {
		o.Fill = p.Fill
	}
	if p.SetText {
		o.Text = p.Text
	}
	if p.SetTextColor {
		o.TextColor = p.TextColor
	}
	if p.SetFontSize {
		o.FontSize = p.FontSize
	}
	if p.SetZ {
		o.Z = p.Z
	}
	if p.SetVisible {
		o.Visible = p.Visible
	}
	if p.SetAlpha {
		o.Alpha = p.Alpha
	}
	if p.SetTexture {
		o.Texture = p.Texture
	}
	if p.SetStroke {
		o.StrokeWidth, o.StrokeColor = p.StrokeWidth, p.StrokeColor
	}
	if p.SetGradient {
		o.HasGradient, o.GradientTop, o.GradientBottom = p.HasGradient, p.GradientTop, p.GradientBottom
	}
	if p.SetBorderRadius {
		o.BorderRadius = p.BorderRadius
	}
	if p.SetShadowLevel {
		o.ShadowLevel = p.ShadowLevel
	}
	return nil
}

// Destroy removes the named object. Removal is complete: later lookups
// report NotFound and iteration never yields it again.
func (r *Registry) Destroy(name string) error {
	if _, ok := r.objects[name]; !ok {
		return fault.Newf(fault.NotFound, name, "sdi: no object %q", name)
	}
	delete(r.objects, name)
	return nil
}

// Get returns the named object.
func (r *Registry) Get(name string) (*Object, error) {
	o, ok := r.objects[name]
	if !ok {
		return nil, fault.Newf(fault.NotFound, name, "sdi: no object %q", name)
	}
	return o, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.objects[name]
	return ok
}

// Len returns the number of live objects.
func (r *Registry) Len() int { return len(r.objects) }

// Names returns all object names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.objects))
	for n := range r.objects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// zLess orders objects by (Z, seq). The comparison is total and
// stable: seq is unique, so no two objects compare equal.
func zLess(a, b *Object) bool {
	if a.Z != b.Z {
		return a.Z < b.Z
	}
	return a.seq < b.seq
}

// InZOrder returns the live objects in paint order.
func (r *Registry) InZOrder() []*Object {
	out := make([]*Object, 0, len(r.objects))
	for _, o := range r.objects {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return zLess(out[i], out[j]) })
	return out
}

// BringToFront reassigns the object's z and seq so it paints last.
func (r *Registry) BringToFront(name string) error {
	o, ok := r.objects[name]
	if !ok {
		return fault.Newf(fault.NotFound, name, "sdi: no object %q", name)
	}
	maxZ := o.Z
	for _, other := range r.objects {
		if other.Z > maxZ {
			maxZ = other.Z
		}
	}
	o.Z = maxZ
	o.seq = r.nextSeq
	r.nextSeq++
	return nil
}

// SetVisible toggles the named object.
func (r *Registry) SetVisible(name string, visible bool) error {
	return r.Update(name, Patch{SetVisible: true, Visible: visible})
}

// DestroyPrefix removes every object whose name starts with prefix.
// Skin hot-swap uses this to clear the outgoing layout atomically.
func (r *Registry) DestroyPrefix(prefix string) int {
	n := 0
	for name := range r.objects {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			delete(r.objects, name)
			n++
		}
	}
	return n
}

// Snapshot returns deep copies of the live objects in paint order.
// Effects transform the snapshot; originals stay untouched for the
// next frame.
func (r *Registry) Snapshot() []Object {
	ordered := r.InZOrder()
	out := make([]Object, len(ordered))
	for i, o := range ordered {
		out[i] = *o
	}
	return out
}
