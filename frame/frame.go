package frame

import "github.com/mediaframe/core/buffer"

// Type classifies how a decoded Frame was predicted.
type Type int

const (
	TypeOther Type = iota
	TypeI
	TypeP
	TypeB
	TypeSkip
)

func (t Type) String() string {
	switch t {
	case TypeI:
		return "I"
	case TypeP:
		return "P"
	case TypeB:
		return "B"
	case TypeSkip:
		return "Skip"
	default:
		return "Other"
	}
}

// IsRef reports whether frames of this type are usable as a motion/LPC
// reference by a later frame (I and P only; B, Skip and Other are not,
// the H.263 decoder's reference-tracking rule).
func (t Type) IsRef() bool {
	return t == TypeI || t == TypeP
}

// Value is the dynamic type Frame.Options stores. No concrete payload
// shape is imposed: decoders attach whatever side data they produce (e.g.
// per-MB quantizers for a debug overlay), and callers that care
// type-assert it.
type Value = any

// Frame is one decoded access unit. Buffer is the decoded
// payload; Info carries the producing stream's CodecInfo by reference so
// callers can tell which codec/format the buffer is shaped for without
// re-deriving it from the Stream.
type Frame struct {
	TS        TimeInfo
	Buffer    buffer.Buffer
	Info      CodecInfo
	FrameType Type
	Keyframe  bool
	Options   map[string]Value
}

// NewFrame constructs a Frame. Options starts nil; use SetOption to attach
// side data lazily so the common no-side-data case allocates no map.
func NewFrame(ts TimeInfo, buf buffer.Buffer, info CodecInfo, ft Type, keyframe bool) Frame {
	return Frame{TS: ts, Buffer: buf, Info: info, FrameType: ft, Keyframe: keyframe}
}

// SetOption attaches a named value of side data to the frame.
func (f *Frame) SetOption(name string, v Value) {
	if f.Options == nil {
		f.Options = make(map[string]Value)
	}
	f.Options[name] = v
}

// Option retrieves previously attached side data.
func (f Frame) Option(name string) (Value, bool) {
	v, ok := f.Options[name]
	return v, ok
}
