package realmedia

// genrDeinterleaver undoes the "genr" RealAudio interleaving policy: factor
// packets are received back to back, each holding one blockSize-sized slice
// of every one of factor logical frames; once the last of the group arrives
// the factor frames can be read out contiguously.
type genrDeinterleaver struct {
	factor    int
	blockSize int
	frameSize int

	buf []byte
	got int
}

func newGenrDeinterleaver(ii *interleaveInfo) *genrDeinterleaver {
	return &genrDeinterleaver{factor: ii.factor, blockSize: ii.blockSize, frameSize: ii.frameSize}
}

// addPacket folds one physical packet (at position ppos within its group of
// factor) into the accumulation buffer, returning the factor reconstructed
// frames once the group is complete.
func (g *genrDeinterleaver) addPacket(ppos int, data []byte) [][]byte {
	if g.buf == nil {
		g.buf = make([]byte, g.factor*g.frameSize)
	}
	numSub := g.frameSize / g.blockSize
	for sb := 0; sb < numSub; sb++ {
		sbPos := g.factor*sb + ((g.factor+1)>>1)*(ppos&1) + (ppos >> 1)
		src := sb * g.blockSize
		dst := sbPos * g.blockSize
		if src+g.blockSize > len(data) || dst+g.blockSize > len(g.buf) {
			continue
		}
		copy(g.buf[dst:dst+g.blockSize], data[src:src+g.blockSize])
	}
	g.got++
	if g.got < g.factor {
		return nil
	}
	out := make([][]byte, g.factor)
	for i := range out {
		out[i] = append([]byte(nil), g.buf[i*g.frameSize:(i+1)*g.frameSize]...)
	}
	g.buf = nil
	g.got = 0
	return out
}

// ra288Deinterleaver undoes the RA28.8 ("Int4") interleaving policy, which
// scatters each packet's subbands across two logical frames at a time
// instead of genr's full-group shuffle.
type ra288Deinterleaver struct {
	factor    int
	blockSize int
	frameSize int

	buf []byte
	got int
}

func newRA288Deinterleaver(ii *interleaveInfo) *ra288Deinterleaver {
	return &ra288Deinterleaver{factor: ii.factor, blockSize: ii.blockSize, frameSize: ii.frameSize}
}

func (r *ra288Deinterleaver) addPacket(ppos int, data []byte) [][]byte {
	if r.buf == nil {
		r.buf = make([]byte, r.factor*r.frameSize)
	}
	half := r.factor / 2
	for sb := 0; sb < half; sb++ {
		src := sb * r.blockSize
		dst := sb*2*r.frameSize + ppos*r.blockSize
		if src+r.blockSize > len(data) || dst+r.blockSize > len(r.buf) {
			continue
		}
		copy(r.buf[dst:dst+r.blockSize], data[src:src+r.blockSize])
	}
	r.got++
	if r.got < r.factor {
		return nil
	}
	out := make([][]byte, r.factor)
	for i := range out {
		out[i] = append([]byte(nil), r.buf[i*r.frameSize:(i+1)*r.frameSize]...)
	}
	r.buf = nil
	r.got = 0
	return out
}

// vbrSplit splits one physical packet carrying several variable-bitrate
// sub-packets, each prefixed by its own self-delimiting 14/30-bit length.
func vbrSplit(data []byte) ([][]byte, error) {
	c := &cursor{data: data}
	count, err := c.u16()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, count)
	for i := 0; i < int(count); i++ {
		_, n, err := read14or30(c)
		if err != nil {
			return nil, err
		}
		b, err := c.bytes(int(n))
		if err != nil {
			return nil, err
		}
		out = append(out, append([]byte(nil), b...))
	}
	return out, nil
}

// siprDeinterleaver collects factor whole frames of frameSize bytes each and
// emits them as a group; the Sipro decoder performs its own intra-group
// block reordering.
type siprDeinterleaver struct {
	factor    int
	frameSize int

	buf []byte
	got int
}

func newSiprDeinterleaver(ii *interleaveInfo) *siprDeinterleaver {
	return &siprDeinterleaver{factor: ii.factor, frameSize: ii.frameSize}
}

func (s *siprDeinterleaver) addPacket(ppos int, data []byte) [][]byte {
	if s.buf == nil {
		s.buf = make([]byte, s.factor*s.frameSize)
	}
	if ppos < s.factor {
		dst := s.buf[ppos*s.frameSize:]
		copy(dst[:min(len(dst), s.frameSize)], data)
	}
	s.got++
	if s.got < s.factor {
		return nil
	}
	out := make([][]byte, s.factor)
	for i := range out {
		out[i] = append([]byte(nil), s.buf[i*s.frameSize:(i+1)*s.frameSize]...)
	}
	s.buf = nil
	s.got = 0
	return out
}

func (s *siprDeinterleaver) reset() { s.buf = nil; s.got = 0 }

func (g *genrDeinterleaver) reset() { g.buf = nil; g.got = 0 }

func (r *ra288Deinterleaver) reset() { r.buf = nil; r.got = 0 }

// streamDeinterleaver is whichever of the policies a stream uses; nil means
// "no de-interleaving, one packet is one frame" (Int0 and vbrs, the latter
// split separately since one physical packet expands rather than
// accumulates).
type streamDeinterleaver interface {
	addPacket(ppos int, data []byte) [][]byte
	// reset drops a half-filled group; invoked when a keyframe starts a new
	// interleave group.
	reset()
}

func newDeinterleaver(ii *interleaveInfo) streamDeinterleaver {
	if ii == nil {
		return nil
	}
	switch ii.id {
	case ileaveGenr:
		return newGenrDeinterleaver(ii)
	case ileaveInt4:
		return newRA288Deinterleaver(ii)
	case ileaveSipr:
		return newSiprDeinterleaver(ii)
	default:
		return nil
	}
}
