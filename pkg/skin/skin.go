// Package skin data-drives visual identity and feature gating. A skin
// bundles a manifest, an SDI layout, feature flags, a theme, optional
// strings and effect parameters, loaded either from built-in manifests
// or from a directory of TOML files on the VFS.
//
// Theme derivation is a pure function from the 9 base colors to the
// full slot table (see derive.go); override tables replace derived
// slots one by one. Hot-swap is atomic: a skin is fully constructed
// and validated before the first SDI mutation.
package skin

import (
	"sort"
	"strings"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/gfx"
	"gitlab.com/tinyland/lab/oasis/pkg/sdi"
)

// Manifest identifies a skin.
type Manifest struct {
	Name         string
	Version      string
	Author       string
	Description  string
	ScreenWidth  int
	ScreenHeight int
}

// Features gates what the shell exposes while the skin is active.
type Features struct {
	Dashboard     bool
	Terminal      bool
	WindowManager bool
	Browser       bool
	GridCols      int
	GridRows      int
	Effects       []string
	// CommandCategories restricts dispatch when nonempty.
	CommandCategories []string
}

// AllowsCategory reports whether the skin permits commands of the
// given category. An empty list permits everything.
func (f Features) AllowsCategory(cat string) bool {
	if len(f.CommandCategories) == 0 {
		return true
	}
	for _, c := range f.CommandCategories {
		if strings.EqualFold(c, cat) {
			return true
		}
	}
	return false
}

// Strings holds the skin's textual identity.
type Strings struct {
	BootText     []string
	PromptFormat string
}

// EffectParams tunes one named effect.
type EffectParams struct {
	Intensity  float64
	JitterPx   int
	FlickerP   float64
	GarbleP    float64
	MinAlpha   float64
	SpacingPx  int
	LineAlpha  float64
}

// Skin is a fully constructed, renderable skin.
type Skin struct {
	Manifest Manifest
	Layout   map[string]sdi.Template
	// LayoutOrder fixes the creation order of layout objects (sorted by
	// name for TOML skins) so identical skins always create identical
	// SDI sequences.
	LayoutOrder []string
	Features    Features
	Theme       Theme
	Strings     Strings
	Effects     map[string]EffectParams
}

// Prompt returns the prompt format, defaulting to "$CWD> ".
func (s *Skin) Prompt() string {
	if s.Strings.PromptFormat == "" {
		return "$CWD> "
	}
	return s.Strings.PromptFormat
}

// LayoutPrefix namespaces every skin-owned SDI object so hot-swap can
// clear the outgoing layout with one prefix destroy.
const LayoutPrefix = "skin."

// Apply creates the skin's layout objects in the registry. The caller
// must have cleared any previous skin layout first (see Swap).
func (s *Skin) Apply(reg *sdi.Registry) error {
	for _, name := range s.LayoutOrder {
		t := s.Layout[name]
		if _, err := reg.Create(LayoutPrefix+name, t); err != nil {
			return err
		}
	}
	return nil
}

// Manager is the skin registry plus the active skin. Loaded skins are
// keyed by lowercase name.
type Manager struct {
	skins   map[string]*Skin
	current *Skin
}

// NewManager returns a manager preloaded with the built-in skins,
// with the named skin active (empty means "classic").
func NewManager(boot string) (*Manager, error) {
	m := &Manager{skins: map[string]*Skin{}}
	for _, s := range builtinSkins() {
		m.skins[strings.ToLower(s.Manifest.Name)] = s
	}
	if boot == "" {
		boot = "classic"
	}
	cur, ok := m.skins[strings.ToLower(boot)]
	if !ok {
		return nil, fault.Newf(fault.NotFound, boot, "skin %q not found", boot)
	}
	m.current = cur
	return m, nil
}

// Register adds or replaces a loaded skin.
func (m *Manager) Register(s *Skin) {
	m.skins[strings.ToLower(s.Manifest.Name)] = s
}

// Current returns the active skin. There is always one.
func (m *Manager) Current() *Skin { return m.current }

// Get returns a skin by name.
func (m *Manager) Get(name string) (*Skin, error) {
	s, ok := m.skins[strings.ToLower(name)]
	if !ok {
		return nil, fault.Newf(fault.NotFound, name, "skin %q not found", name)
	}
	return s, nil
}

// Names returns all registered skin names sorted alphabetically.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.skins))
	for n := range m.skins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Swap activates the named skin atomically: the incoming skin must
// already be fully constructed (registered), the outgoing layout is
// destroyed, the new layout created, and only then does Current flip.
// On any failure the registry is restored and the old skin stays
// active.
func (m *Manager) Swap(name string, reg *sdi.Registry) error {
	next, err := m.Get(name)
	if err != nil {
		return err
	}
	old := m.current
	reg.DestroyPrefix(LayoutPrefix)
	if err := next.Apply(reg); err != nil {
		reg.DestroyPrefix(LayoutPrefix)
		if old != nil {
			_ = old.Apply(reg)
		}
		return fault.Wrap(fault.Resource, "skin swap failed", err)
	}
	m.current = next
	return nil
}

// resolveColor turns a layout color reference into a concrete color:
// either a theme slot name or a hex literal.
func resolveColor(th Theme, raw string) (gfx.Color, error) {
	if c, ok := th.Slot(raw); ok {
		return c, nil
	}
	return gfx.Parse(raw)
}
