// Package codec defines the decoder contract every codec in this core
// implements, the buffer pools a decoder draws frames from, and a
// name-keyed registry mirroring package demux's.
package codec

import (
	"github.com/mediaframe/core/buffer"
	"github.com/mediaframe/core/format"
	"github.com/mediaframe/core/frame"
	"github.com/mediaframe/core/mediaerr"
)

// Decoder is the per-stream state machine a codec implements. Init is
// called once with the stream's CodecInfo; Decode is called once per
// Packet and may return mediaerr.ErrNoFrame when a packet produces no
// displayable output (B-frame reordering delay, header-only packets).
// Flush resets the decoder's inter-packet state: it releases any reference
// frames held for prediction and clears any overlap state. It returns a
// held-back frame and true if the decoder had one; the decoders in this
// module hold no frame back and always return false.
type Decoder interface {
	Init(sup *Support, info frame.CodecInfo) error
	Decode(sup *Support, pkt *frame.Packet) (frame.Frame, error)
	Flush() (frame.Frame, bool)
}

// Factory constructs a fresh, uninitialized Decoder instance.
type Factory func() Decoder

// Registry is a small, explicitly-owned name->Factory table, matching
// demux.Registry's shape.
type Registry struct {
	entries map[string]Factory
	order   []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Factory)}
}

// Register adds a named decoder factory.
func (r *Registry) Register(name string, f Factory) {
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = f
}

// Create looks up name and constructs a fresh Decoder.
func (r *Registry) Create(name string) (Decoder, error) {
	f, ok := r.entries[name]
	if !ok {
		return nil, mediaerr.Wrap(mediaerr.ErrDecNotImplemented, "codec: no decoder registered for %q", name)
	}
	return f(), nil
}

// Names returns the registered decoder names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Support bundles the buffer pools and scratch resources a decoder is
// allowed to allocate from. The three pools correspond to the three video
// sample widths a decoder can produce; a decoder that reuses output
// buffers across frames should prefer a pool over AllocVideoBuffer.
type Support struct {
	PoolU8  *buffer.VideoPool
	PoolU16 *buffer.VideoPool
	PoolU32 *buffer.VideoPool
}

// NewSupport builds an empty Support; pools are created lazily via
// EnsurePool once a decoder knows its output VideoInfo.
func NewSupport() *Support {
	return &Support{}
}

// EnsurePool returns the pool matching info's sample depth, creating it
// the first time it is needed for this Support. A new pool is preallocated
// with 2*maxLen frames: maxLen plus an equal number of extra frames.
func (s *Support) EnsurePool(info format.VideoInfo, maxLen int) (*buffer.VideoPool, error) {
	depth := info.Format.MaxDepth()
	switch {
	case depth <= 8:
		if s.PoolU8 == nil {
			s.PoolU8 = buffer.NewVideoPool(info, 5)
			if err := s.PoolU8.PreallocVideo(maxLen, maxLen); err != nil {
				return nil, err
			}
		}
		return s.PoolU8, nil
	case depth <= 16:
		if s.PoolU16 == nil {
			s.PoolU16 = buffer.NewVideoPool(info, 5)
			if err := s.PoolU16.PreallocVideo(maxLen, maxLen); err != nil {
				return nil, err
			}
		}
		return s.PoolU16, nil
	default:
		if s.PoolU32 == nil {
			s.PoolU32 = buffer.NewVideoPool(info, 5)
			if err := s.PoolU32.PreallocVideo(maxLen, maxLen); err != nil {
				return nil, err
			}
		}
		return s.PoolU32, nil
	}
}
