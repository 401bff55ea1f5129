package h263

import "github.com/mediaframe/core/codec"

// Register adds the H.263-family decoders to reg under their stable codec
// names, the keys demuxers put into a stream's CodecInfo.
func Register(reg *codec.Registry) {
	reg.Register("intel263", NewIntel263)
	reg.Register("realvideo2", NewRV20)
}
