// Package audio manages the playlist and playback state on top of the
// AudioBackend trait. Decoding is entirely the backend's concern; this
// package owns ordering, metadata and the play/pause state machine.
package audio

import (
	"fmt"
	"math/rand"
	"strings"

	"gitlab.com/tinyland/lab/oasis/pkg/backend"
	"gitlab.com/tinyland/lab/oasis/pkg/fault"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

// Track is one playlist entry.
type Track struct {
	Path   string
	Title  string
	Artist string
	Album  string
}

// Manager owns the playlist and drives the backend.
type Manager struct {
	be       backend.AudioBackend
	fs       vfs.FS
	tracks   []Track
	index    int
	playing  bool
	paused   bool
	volume   float64
	shuffled bool
	rng      *rand.Rand
}

// NewManager wires a manager to its backend and the VFS the tracks
// live on. A nil backend is valid: every playback call then reports
// Unsupported while playlist editing still works.
func NewManager(be backend.AudioBackend, fs vfs.FS, rng *rand.Rand) *Manager {
	return &Manager{be: be, fs: fs, volume: 0.8, rng: rng}
}

// Add appends a track, parsing metadata from the file's ID3v1 trailer
// with a filename fallback.
func (m *Manager) Add(path string) (Track, error) {
	data, err := m.fs.Read(path)
	if err != nil {
		return Track{}, err
	}
	t := parseTrack(path, data)
	m.tracks = append(m.tracks, t)
	return t, nil
}

// Remove drops the track at index i.
func (m *Manager) Remove(i int) error {
	if i < 0 || i >= len(m.tracks) {
		return fault.Newf(fault.NotFound, fmt.Sprint(i), "no track %d", i)
	}
	m.tracks = append(m.tracks[:i], m.tracks[i+1:]...)
	if m.index >= len(m.tracks) && m.index > 0 {
		m.index = len(m.tracks) - 1
	}
	return nil
}

// Tracks returns the playlist in order.
func (m *Manager) Tracks() []Track { return m.tracks }

// Current returns the active track, if any.
func (m *Manager) Current() (Track, bool) {
	if m.index < 0 || m.index >= len(m.tracks) {
		return Track{}, false
	}
	return m.tracks[m.index], true
}

// Shuffle randomizes playlist order.
func (m *Manager) Shuffle() {
	m.rng.Shuffle(len(m.tracks), func(i, j int) {
		m.tracks[i], m.tracks[j] = m.tracks[j], m.tracks[i]
	})
	m.shuffled = true
	m.index = 0
}

// Play starts the track at index i (or resumes the current track when
// i is negative and playback is paused).
func (m *Manager) Play(i int) error {
	if m.be == nil {
		return fault.New(fault.Unsupported, "no audio backend")
	}
	if i < 0 {
		if m.paused {
			m.be.Resume()
			m.paused = false
			m.playing = true
			return nil
		}
		i = m.index
	}
	if i >= len(m.tracks) || len(m.tracks) == 0 {
		return fault.Newf(fault.NotFound, fmt.Sprint(i), "no track %d", i)
	}
	data, err := m.fs.Read(m.tracks[i].Path)
	if err != nil {
		return err
	}
	if err := m.be.LoadTrack(data); err != nil {
		return fault.Wrap(fault.Io, "load track", err)
	}
	if err := m.be.Play(); err != nil {
		return fault.Wrap(fault.Io, "play", err)
	}
	m.index = i
	m.playing = true
	m.paused = false
	return nil
}

// Pause suspends playback.
func (m *Manager) Pause() {
	if m.be != nil && m.playing && !m.paused {
		m.be.Pause()
		m.paused = true
	}
}

// Stop halts playback entirely.
func (m *Manager) Stop() {
	if m.be != nil {
		m.be.Stop()
	}
	m.playing = false
	m.paused = false
}

// Next advances to the following track, wrapping at the end.
func (m *Manager) Next() error {
	if len(m.tracks) == 0 {
		return fault.New(fault.NotFound, "playlist empty")
	}
	return m.Play((m.index + 1) % len(m.tracks))
}

// Prev steps back one track, wrapping at the start.
func (m *Manager) Prev() error {
	if len(m.tracks) == 0 {
		return fault.New(fault.NotFound, "playlist empty")
	}
	return m.Play((m.index + len(m.tracks) - 1) % len(m.tracks))
}

// SetVolume clamps and forwards the volume.
func (m *Manager) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	m.volume = v
	if m.be != nil {
		m.be.SetVolume(v)
	}
}

// Volume returns the last set volume.
func (m *Manager) Volume() float64 { return m.volume }

// Playing reports whether audio is actively playing.
func (m *Manager) Playing() bool { return m.playing && !m.paused }

// Position formats the playback position as "m:ss / m:ss", degrading
// to "--:--" on backends without position support.
func (m *Manager) Position() string {
	if m.be == nil || !m.playing {
		return "--:-- / --:--"
	}
	pos, perr := m.be.PositionMS()
	dur, derr := m.be.DurationMS()
	fmtMS := func(ms int64, err error) string {
		if err != nil {
			return "--:--"
		}
		s := ms / 1000
		return fmt.Sprintf("%d:%02d", s/60, s%60)
	}
	return fmtMS(pos, perr) + " / " + fmtMS(dur, derr)
}

// parseTrack extracts metadata from an ID3v1 trailer (the final 128
// bytes, "TAG" magic). Files without one fall back to the filename.
func parseTrack(path string, data []byte) Track {
	t := Track{Path: path}
	if len(data) >= 128 {
		tag := data[len(data)-128:]
		if string(tag[:3]) == "TAG" {
			t.Title = trimTag(tag[3:33])
			t.Artist = trimTag(tag[33:63])
			t.Album = trimTag(tag[63:93])
		}
	}
	if t.Title == "" {
		_, name := vfs.SplitDir(path)
		if i := strings.LastIndexByte(name, '.'); i > 0 {
			name = name[:i]
		}
		t.Title = name
	}
	return t
}

// trimTag strips the NUL padding ID3v1 fields carry.
func trimTag(b []byte) string {
	return strings.TrimRight(strings.TrimRight(string(b), "\x00"), " ")
}
