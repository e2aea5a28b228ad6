package audio

import (
	"math/rand"
	"testing"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

// fakeBackend records playback calls.
type fakeBackend struct {
	loaded   [][]byte
	playing  bool
	paused   bool
	volume   float64
	posErr   bool
}

func (f *fakeBackend) Init() error { return nil }
func (f *fakeBackend) LoadTrack(data []byte) error {
	f.loaded = append(f.loaded, data)
	return nil
}
func (f *fakeBackend) Play() error { f.playing = true; f.paused = false; return nil }
func (f *fakeBackend) Pause()      { f.paused = true }
func (f *fakeBackend) Resume()     { f.paused = false }
func (f *fakeBackend) Stop()       { f.playing = false }
func (f *fakeBackend) SetVolume(v float64) { f.volume = v }
func (f *fakeBackend) IsPlaying() bool     { return f.playing && !f.paused }
func (f *fakeBackend) PositionMS() (int64, error) {
	if f.posErr {
		return 0, fault.New(fault.Unsupported, "no position")
	}
	return 65_000, nil
}
func (f *fakeBackend) DurationMS() (int64, error) {
	if f.posErr {
		return 0, fault.New(fault.Unsupported, "no duration")
	}
	return 180_000, nil
}

// id3File builds a file with an ID3v1 trailer.
func id3File(title, artist string) []byte {
	data := make([]byte, 256)
	tag := data[128:]
	copy(tag[:3], "TAG")
	copy(tag[3:33], title)
	copy(tag[33:63], artist)
	return data
}

func newTestManager(t *testing.T, be *fakeBackend) *Manager {
	t.Helper()
	fs := vfs.NewMemFS()
	if err := fs.Mkdir("/music"); err != nil {
		t.Fatal(err)
	}
	if err := fs.Write("/music/one.mp3", id3File("First Song", "Band A")); err != nil {
		t.Fatal(err)
	}
	if err := fs.Write("/music/two.mp3", []byte("not tagged")); err != nil {
		t.Fatal(err)
	}
	if be == nil {
		return NewManager(nil, fs, rand.New(rand.NewSource(1)))
	}
	return NewManager(be, fs, rand.New(rand.NewSource(1)))
}

func TestAddParsesID3(t *testing.T) {
	m := newTestManager(t, &fakeBackend{})
	tr, err := m.Add("/music/one.mp3")
	if err != nil {
		t.Fatal(err)
	}
	if tr.Title != "First Song" || tr.Artist != "Band A" {
		t.Errorf("track = %+v", tr)
	}
}

func TestAddFilenameFallback(t *testing.T) {
	m := newTestManager(t, &fakeBackend{})
	tr, err := m.Add("/music/two.mp3")
	if err != nil {
		t.Fatal(err)
	}
	if tr.Title != "two" {
		t.Errorf("fallback title = %q, want two", tr.Title)
	}
}

func TestPlayNextPrevWraps(t *testing.T) {
	be := &fakeBackend{}
	m := newTestManager(t, be)
	m.Add("/music/one.mp3")
	m.Add("/music/two.mp3")
	if err := m.Play(0); err != nil {
		t.Fatal(err)
	}
	if err := m.Next(); err != nil {
		t.Fatal(err)
	}
	cur, _ := m.Current()
	if cur.Title != "two" {
		t.Errorf("after Next: %q", cur.Title)
	}
	if err := m.Next(); err != nil {
		t.Fatal(err)
	}
	cur, _ = m.Current()
	if cur.Title != "First Song" {
		t.Errorf("Next should wrap: %q", cur.Title)
	}
	if err := m.Prev(); err != nil {
		t.Fatal(err)
	}
	cur, _ = m.Current()
	if cur.Title != "two" {
		t.Errorf("Prev should wrap back: %q", cur.Title)
	}
	if len(be.loaded) != 4 {
		t.Errorf("backend loaded %d tracks, want 4", len(be.loaded))
	}
}

func TestPauseResume(t *testing.T) {
	be := &fakeBackend{}
	m := newTestManager(t, be)
	m.Add("/music/one.mp3")
	m.Play(0)
	m.Pause()
	if m.Playing() {
		t.Error("Playing after Pause")
	}
	if err := m.Play(-1); err != nil {
		t.Fatal(err)
	}
	if !m.Playing() {
		t.Error("not Playing after resume")
	}
	if len(be.loaded) != 1 {
		t.Errorf("resume reloaded the track: %d loads", len(be.loaded))
	}
}

func TestPositionFormatting(t *testing.T) {
	be := &fakeBackend{}
	m := newTestManager(t, be)
	m.Add("/music/one.mp3")
	m.Play(0)
	if got := m.Position(); got != "1:05 / 3:00" {
		t.Errorf("Position = %q, want 1:05 / 3:00", got)
	}
	be.posErr = true
	if got := m.Position(); got != "--:-- / --:--" {
		t.Errorf("Position with Unsupported = %q, want --:-- / --:--", got)
	}
}

func TestNoBackendIsUnsupported(t *testing.T) {
	m := newTestManager(t, nil)
	m.Add("/music/one.mp3")
	err := m.Play(0)
	if fault.KindOf(err) != fault.Unsupported {
		t.Errorf("Play without backend = %v, want Unsupported", err)
	}
	if got := m.Position(); got != "--:-- / --:--" {
		t.Errorf("Position without backend = %q", got)
	}
}

func TestVolumeClamped(t *testing.T) {
	be := &fakeBackend{}
	m := newTestManager(t, be)
	m.SetVolume(1.8)
	if m.Volume() != 1 {
		t.Errorf("Volume = %f, want clamp to 1", m.Volume())
	}
	if be.volume != 1 {
		t.Errorf("backend volume = %f", be.volume)
	}
}

func TestRemoveAdjustsIndex(t *testing.T) {
	m := newTestManager(t, &fakeBackend{})
	m.Add("/music/one.mp3")
	m.Add("/music/two.mp3")
	if err := m.Remove(1); err != nil {
		t.Fatal(err)
	}
	if len(m.Tracks()) != 1 {
		t.Errorf("tracks = %d", len(m.Tracks()))
	}
	if err := m.Remove(5); err == nil {
		t.Error("Remove out of range succeeded")
	}
}
