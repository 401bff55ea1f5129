// Package frame defines the data that flows between demuxers and decoders:
// codec metadata, stream descriptors, timestamps, compressed packets, and
// decoded frames. Buffer memory itself lives in
// package buffer; this package only adds timing, identity, and codec
// metadata around a buffer.Buffer handle.
package frame

import "github.com/mediaframe/core/format"

// MediaType distinguishes what a Stream or CodecInfo describes.
type MediaType int

const (
	MediaNone MediaType = iota
	MediaVideo
	MediaAudio
	MediaData
)

func (m MediaType) String() string {
	switch m {
	case MediaVideo:
		return "video"
	case MediaAudio:
		return "audio"
	case MediaData:
		return "data"
	default:
		return "none"
	}
}

// Properties holds the media-type-specific half of a CodecInfo: exactly one
// of Video/Audio is meaningful, selected by the enclosing CodecInfo's type.
// Kept as two optional pointers rather than an interface so callers can
// type-assert-free read the field they expect.
type Properties struct {
	Video *format.VideoInfo
	Audio *format.AudioInfo
}

// CodecInfo is created once per stream and shared by reference
// thereafter. Name is the decoder-registry key.
type CodecInfo struct {
	Name       string
	Type       MediaType
	Props      Properties
	ExtraData  []byte // shared; callers must not mutate after construction
}

// IsDummy reports whether this CodecInfo is the reserved "dummy"
// sentinel, the one CodecInfo shape with no properties.
func (ci CodecInfo) IsDummy() bool {
	return ci.Type == MediaNone
}

// NewDummyCodecInfo returns the reserved sentinel used for streams whose
// codec is not (yet) known.
func NewDummyCodecInfo(name string) CodecInfo {
	return CodecInfo{Name: name, Type: MediaNone}
}
