// Package reorder converts decode order into display order. Decoders emit
// frames in the order they appear in the container; codecs with B frames
// deliver the future reference before the bidirectional frames that depend
// on it, so the caller runs every decoded frame through a Reorderer before
// presentation.
package reorder

import "github.com/mediaframe/core/frame"

// Reorderer buffers decoded frames and releases them in display order.
// Add reports whether the frame was accepted; a full reorderer rejects the
// frame and the caller must drain with Get first.
type Reorderer interface {
	Add(f frame.Frame) bool
	Get() (frame.Frame, bool)
	// Flush drops buffered state; Last drains any remaining frames in
	// display order after the stream ends.
	Flush()
	Last() (frame.Frame, bool)
}

// None is the pass-through reorderer for codecs without frame reordering:
// it holds at most one frame and returns it on the next Get.
type None struct {
	f   frame.Frame
	set bool
}

// NewNone creates a pass-through reorderer.
func NewNone() *None { return &None{} }

func (n *None) Add(f frame.Frame) bool {
	if n.set {
		return false
	}
	n.f = f
	n.set = true
	return true
}

func (n *None) Get() (frame.Frame, bool) {
	if !n.set {
		return frame.Frame{}, false
	}
	n.set = false
	return n.f, true
}

func (n *None) Flush() { n.set = false }

func (n *None) Last() (frame.Frame, bool) { return frame.Frame{}, false }

// IPB reorders an I/P/B stream: B frames display before the reference that
// was decoded ahead of them, so on submit a B frame is inserted before the
// most recent non-B frame.
type IPB struct {
	frames   []frame.Frame
	maxDepth int
}

// NewIPB creates a reorderer buffering at most maxDepth frames.
func NewIPB(maxDepth int) *IPB {
	if maxDepth < 2 {
		maxDepth = 2
	}
	return &IPB{frames: make([]frame.Frame, 0, maxDepth), maxDepth: maxDepth}
}

func (r *IPB) Add(f frame.Frame) bool {
	if len(r.frames) >= r.maxDepth {
		return false
	}
	if f.FrameType != frame.TypeB {
		r.frames = append(r.frames, f)
		return true
	}
	if len(r.frames) == 0 {
		// A B frame with no future reference buffered displays as-is.
		r.frames = append(r.frames, f)
		return true
	}
	ref := r.frames[len(r.frames)-1]
	r.frames[len(r.frames)-1] = f
	r.frames = append(r.frames, ref)
	return true
}

func (r *IPB) Get() (frame.Frame, bool) {
	if len(r.frames) == 0 {
		return frame.Frame{}, false
	}
	f := r.frames[0]
	r.frames = r.frames[1:]
	return f, true
}

func (r *IPB) Flush() {
	r.frames = r.frames[:0]
}

func (r *IPB) Last() (frame.Frame, bool) {
	return r.Get()
}
