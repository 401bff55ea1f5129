// Package stream implements the append-only stream directory every demuxer
// populates during open and the optional
// position->timestamp seek index a container's index chunk feeds. The
// manager guards a slice with sync.RWMutex, since stream numbering must
// be index-stable and sequential rather than keyed.
package stream

import (
	"log/slog"
	"sync"

	"github.com/mediaframe/core/frame"
)

// Manager is an append-only collection of streams. A Stream
// with a given ID may appear at most once.
type Manager struct {
	log     *slog.Logger
	mu      sync.RWMutex
	streams []*frame.Stream
	ignored map[uint32]bool
}

// NewManager creates an empty Manager. A nil logger falls back to
// slog.Default().
func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		log:     log.With("component", "stream-manager"),
		ignored: make(map[uint32]bool),
	}
}

// Add assigns Num = len(streams) and appends s, returning the new index.
// It rejects a duplicate stream ID.
func (m *Manager) Add(s frame.Stream) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.streams {
		if existing.ID == s.ID {
			m.log.Warn("duplicate stream id rejected", "id", s.ID)
			return 0, false
		}
	}

	s.Num = len(m.streams)
	cp := s
	m.streams = append(m.streams, &cp)
	m.log.Info("stream added", "num", cp.Num, "id", cp.ID, "media_type", cp.MediaType.String(), "codec", cp.Info.Name)
	return cp.Num, true
}

// Get returns the stream at manager-assigned index num.
func (m *Manager) Get(num int) (*frame.Stream, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if num < 0 || num >= len(m.streams) {
		return nil, false
	}
	return m.streams[num], true
}

// GetByID scans for the stream with demuxer-assigned identifier id.
func (m *Manager) GetByID(id uint32) (*frame.Stream, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.streams {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Count returns the number of streams registered so far.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.streams)
}

// Streams returns a snapshot slice of every registered stream, in manager
// (Num) order.
func (m *Manager) Streams() []*frame.Stream {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*frame.Stream, len(m.streams))
	copy(out, m.streams)
	return out
}

// SetIgnored marks the stream at manager index num as filtered; a
// conformant Demuxer.NextPacket skips packets belonging to it.
func (m *Manager) SetIgnored(num int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if num < 0 || num >= len(m.streams) {
		return
	}
	m.ignored[m.streams[num].ID] = true
}

// SetUnignored clears a previous SetIgnored.
func (m *Manager) SetUnignored(num int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if num < 0 || num >= len(m.streams) {
		return
	}
	delete(m.ignored, m.streams[num].ID)
}

// IsIgnoredID reports whether the stream with demuxer-assigned id is
// currently filtered.
func (m *Manager) IsIgnoredID(id uint32) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ignored[id]
}

// AnyIgnored reports whether at least one stream is currently ignored, the
// condition under which NextPacket must apply the filter at all.
func (m *Manager) AnyIgnored() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ignored) > 0
}
