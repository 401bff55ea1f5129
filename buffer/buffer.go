// Package buffer implements the reference-counted, pooled buffer types the
// rest of the core trades in. No buffer ever references another buffer —
// the handle graph is a forest rooted at frame.Frame and frame.Packet
// instances — and cloning is O(1): it shares the backing slice and bumps
// an atomic refcount, keeping ownership transfer cheap and explicit.
package buffer

import "sync/atomic"

// Kind identifies which variant of the buffer tagged union a Buffer value
// holds.
type Kind int

const (
	KindNone Kind = iota
	KindVideo
	KindVideo16
	KindVideo32
	KindVideoPacked
	KindAudioU8
	KindAudioI16
	KindAudioI32
	KindAudioF32
	KindAudioPacked
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindVideo:
		return "Video"
	case KindVideo16:
		return "Video16"
	case KindVideo32:
		return "Video32"
	case KindVideoPacked:
		return "VideoPacked"
	case KindAudioU8:
		return "AudioU8"
	case KindAudioI16:
		return "AudioI16"
	case KindAudioI32:
		return "AudioI32"
	case KindAudioF32:
		return "AudioF32"
	case KindAudioPacked:
		return "AudioPacked"
	case KindData:
		return "Data"
	default:
		return "Unknown"
	}
}

// refCount is the shared exclusivity counter backing every Buffer clone.
// It is the sole mechanism by which GetMut on a VideoBuffer/AudioBuffer can
// observe that the caller holds the only live handle.
type refCount struct {
	n int32
}

func newRefCount() *refCount {
	return &refCount{n: 1}
}

func (r *refCount) clone() *refCount {
	atomic.AddInt32(&r.n, 1)
	return r
}

func (r *refCount) release() {
	atomic.AddInt32(&r.n, -1)
}

func (r *refCount) solelyOwned() bool {
	return atomic.LoadInt32(&r.n) == 1
}

// Buffer is the common interface every tagged-union variant implements.
// Consumers type-switch on the concrete type (VideoBuffer, AudioBuffer,
// DataBuffer) rather than relying on dynamic dispatch.
type Buffer interface {
	Kind() Kind
	// Release drops this handle's reference. It must be called exactly
	// once per handle obtained from Clone or an allocator.
	Release()
}
