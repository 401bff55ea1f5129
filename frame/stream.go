package frame

// gcd computes the greatest common divisor, used to keep every timebase in
// reduced form.
func gcd(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// Stream describes one elementary stream within a container. Id
// is assigned by the demuxer and is unique within that container; Num is
// assigned sequentially by the StreamManager that holds it.
type Stream struct {
	MediaType MediaType
	ID        uint32
	Num       int
	Info      CodecInfo
	TbNum     uint32
	TbDen     uint32
}

// NewStream constructs a Stream with its timebase reduced to lowest terms,
// matching every other timebase produced by this framework == 1").
func NewStream(mediaType MediaType, id uint32, info CodecInfo, tbNum, tbDen uint32) Stream {
	if tbNum == 0 {
		tbNum = 1
	}
	if tbDen == 0 {
		tbDen = 1
	}
	g := gcd(tbNum, tbDen)
	return Stream{
		MediaType: mediaType,
		ID:        id,
		Info:      info,
		TbNum:     tbNum / g,
		TbDen:     tbDen / g,
	}
}
