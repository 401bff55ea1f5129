// Package demux defines the demuxer contract and a
// name-keyed registry of demuxer factories"). Concrete
// containers live in subpackages (demux/avi, demux/realmedia) and register
// themselves into a Registry the caller owns: a small, explicitly
// constructed map rather than a package-level global.
package demux

import (
	"github.com/mediaframe/core/frame"
	"github.com/mediaframe/core/mediaerr"
	"github.com/mediaframe/core/stream"
)

// Core is the per-container state machine every demuxer implements.
// Open populates sm (and si, if the container carries an index).
// NextPacket returns the next packet or mediaerr.ErrEOF. Seek repositions
// the container so the next packet returned has Pts >= timeMs for at least
// one stream.
type Core interface {
	Open(sm *stream.Manager, si *stream.SeekIndex) error
	NextPacket(sm *stream.Manager) (frame.Packet, error)
	Seek(timeMs uint64, si *stream.SeekIndex) error
}

// Factory constructs a Core instance reading from data. A demuxer receives
// the whole source as an in-memory byte slice and parses it with its own
// reader; bitio.ByteReader is not used. The concrete file/network source
// that fills data is an external collaborator out of scope for this core.
type Factory func(data []byte) Core

// Registry is a small, explicitly-owned name->Factory table. Its
// zero value is ready to use.
type Registry struct {
	entries map[string]Factory
	order   []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Factory)}
}

// Register adds a named demuxer factory. A later call with the same name
// replaces the earlier one: last registration wins, no error on overwrite.
// Registries are populated once at startup by the owning process.
func (r *Registry) Register(name string, f Factory) {
	if r.entries == nil {
		r.entries = make(map[string]Factory)
	}
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = f
}

// Create looks up name and constructs a Core over data.
func (r *Registry) Create(name string, data []byte) (Core, error) {
	f, ok := r.entries[name]
	if !ok {
		return nil, mediaerr.Wrap(mediaerr.ErrNotImplemented, "demux: no demuxer registered for %q", name)
	}
	return f(data), nil
}

// Names returns the registered demuxer names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Demuxer composes a Core with the stream manager and seek index it owns,
// and is the handle an application drives in its packet loop. It is the
// one place the ignored-stream filter is enforced, so individual Core
// implementations don't each need to replicate the loop-and-skip logic.
type Demuxer struct {
	core Core
	sm   *stream.Manager
	si   *stream.SeekIndex
}

// Open constructs and opens a Demuxer for the named container format.
func Open(reg *Registry, name string, data []byte) (*Demuxer, error) {
	core, err := reg.Create(name, data)
	if err != nil {
		return nil, err
	}
	sm := stream.NewManager(nil)
	si := stream.NewSeekIndex()
	if err := core.Open(sm, si); err != nil {
		return nil, err
	}
	return &Demuxer{core: core, sm: sm, si: si}, nil
}

// Streams returns the stream manager populated by Open.
func (d *Demuxer) Streams() *stream.Manager { return d.sm }

// SeekIndex returns the seek index populated by Open, if any.
func (d *Demuxer) SeekIndex() *stream.SeekIndex { return d.si }

// NextPacket returns the next packet belonging to a non-ignored stream, or
// mediaerr.ErrEOF.
func (d *Demuxer) NextPacket() (frame.Packet, error) {
	for {
		pkt, err := d.core.NextPacket(d.sm)
		if err != nil {
			return frame.Packet{}, err
		}
		if d.sm.AnyIgnored() && pkt.Stream != nil && d.sm.IsIgnoredID(pkt.Stream.ID) {
			continue
		}
		return pkt, nil
	}
}

// Seek requests the underlying container reposition to timeMs.
func (d *Demuxer) Seek(timeMs uint64) error {
	return d.core.Seek(timeMs, d.si)
}
