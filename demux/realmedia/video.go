package realmedia

import "github.com/mediaframe/core/mediaerr"

// assembled is one logical video frame produced from physical packets. A
// multi-frame packet carries its own per-frame timestamp, which overrides
// the enclosing packet's.
type assembled struct {
	data  []byte
	hasTS bool
	ts    uint32
}

// videoAccum reassembles one video frame's payload across one or more
// physical packets. RealVideo packets carry a per-packet mode in the top two
// bits of the first payload byte: a partial (leading) fragment, a frame sent
// whole, the tail fragment that completes a frame, or several small frames
// packed into one physical packet.
//
// The emitted frame is prefixed with the slice table the RealVideo decoders
// consume: one count byte holding num_slices-1, then per slice eight bytes
// [0,0,0,1, pos:u32be] recording where that slice's payload begins.
type videoAccum struct {
	frame     []byte
	hdrSize   int
	frameSize int
	framePos  int
	active    bool
}

const (
	vmodePartial = iota
	vmodeWhole
	vmodeTail
	vmodeMulti
)

func (v *videoAccum) reset() {
	v.frame = nil
	v.hdrSize = 0
	v.frameSize = 0
	v.framePos = 0
	v.active = false
}

func (v *videoAccum) startSlice(numSlices, frameSize int, data []byte) {
	v.hdrSize = numSlices*8 + 1
	v.frame = make([]byte, frameSize+v.hdrSize)
	v.frame[0] = byte(numSlices - 1)
	v.frameSize = frameSize
	v.framePos = 0
	v.active = true
	v.addSlice(1, data)
}

func (v *videoAccum) addSlice(sliceNo int, data []byte) {
	if !v.active {
		return
	}
	v.writeSliceInfo(sliceNo)
	dst := v.frame[v.hdrSize+v.framePos:]
	n := copy(dst, data)
	v.framePos += n
}

func (v *videoAccum) writeSliceInfo(sliceNo int) {
	off := 1 + (sliceNo-1)*8
	if off+8 > v.hdrSize {
		return
	}
	v.frame[off+3] = 1
	v.frame[off+4] = byte(v.framePos >> 24)
	v.frame[off+5] = byte(v.framePos >> 16)
	v.frame[off+6] = byte(v.framePos >> 8)
	v.frame[off+7] = byte(v.framePos)
}

func (v *videoAccum) finish() []byte {
	out := v.frame
	v.reset()
	return out
}

// wholeFrame wraps an unfragmented frame payload in a one-slice table.
func wholeFrame(data []byte) []byte {
	out := make([]byte, len(data)+9)
	out[4] = 1
	copy(out[9:], data)
	return out
}

// readMultiRecord parses one record of a multi-frame packet: its own
// 14/30-bit size and millisecond timestamp, a sequence byte, then the frame
// bytes.
func readMultiRecord(c *cursor, skipMode bool) (assembled, error) {
	if !skipMode {
		mt, err := c.u8()
		if err != nil {
			return assembled{}, err
		}
		if mt>>6 != vmodeMulti {
			return assembled{}, mediaerr.Wrap(mediaerr.ErrInvalidData, "realmedia: bad multi-frame record type %#x", mt)
		}
	}
	_, size, err := read14or30(c)
	if err != nil {
		return assembled{}, err
	}
	_, ts, err := read14or30(c)
	if err != nil {
		return assembled{}, err
	}
	if _, err := c.u8(); err != nil { // sequence number
		return assembled{}, err
	}
	b, err := c.bytes(int(size))
	if err != nil {
		return assembled{}, err
	}
	return assembled{data: wholeFrame(b), hasTS: true, ts: ts}, nil
}

// addPacket folds one physical video packet into the accumulator, returning
// any completed frames (immediately, for whole-frame or multi-frame
// packets).
func (v *videoAccum) addPacket(payload []byte) ([]assembled, error) {
	if len(payload) < 1 {
		return nil, mediaerr.Wrap(mediaerr.ErrInvalidData, "realmedia: empty video payload")
	}
	c := &cursor{data: payload}
	b0, _ := c.u8()

	switch b0 >> 6 {
	case vmodePartial:
		b1, err := c.u8()
		if err != nil {
			return nil, err
		}
		hdr := uint16(b0)<<8 | uint16(b1)
		numPkts := int(hdr>>7) & 0x7F
		packetNum := int(hdr) & 0x7F
		_, frameSize, err := read14or30(c)
		if err != nil {
			return nil, err
		}
		if _, _, err := read14or30(c); err != nil { // offset within the frame
			return nil, err
		}
		if _, err := c.u8(); err != nil { // sequence number
			return nil, err
		}
		if numPkts == 0 || packetNum == 0 || packetNum > numPkts {
			return nil, mediaerr.Wrap(mediaerr.ErrInvalidData, "realmedia: fragment %d of %d", packetNum, numPkts)
		}
		data := payload[c.tell():]
		if packetNum == 1 {
			v.startSlice(numPkts, int(frameSize), data)
		} else {
			v.addSlice(packetNum, data)
		}
		if packetNum < numPkts {
			return nil, nil
		}
		if !v.active {
			return nil, nil
		}
		return []assembled{{data: v.finish()}}, nil

	case vmodeWhole:
		if _, err := c.u8(); err != nil { // sequence number
			return nil, err
		}
		return []assembled{{data: wholeFrame(payload[c.tell():])}}, nil

	case vmodeTail:
		b1, err := c.u8()
		if err != nil {
			return nil, err
		}
		hdr := uint16(b0)<<8 | uint16(b1)
		numPkts := int(hdr>>7) & 0x7F
		packetNum := int(hdr) & 0x7F
		_, frameSize, err := read14or30(c)
		if err != nil {
			return nil, err
		}
		_, tailSize, err := read14or30(c)
		if err != nil {
			return nil, err
		}
		if _, err := c.u8(); err != nil { // sequence number
			return nil, err
		}
		data, err := c.bytes(int(tailSize))
		if err != nil {
			return nil, err
		}
		if numPkts == 0 {
			return nil, mediaerr.Wrap(mediaerr.ErrInvalidData, "realmedia: tail with zero fragments")
		}
		if packetNum == 1 && frameSize == tailSize {
			v.startSlice(numPkts, int(frameSize), data)
		} else {
			v.addSlice(packetNum, data)
		}
		var out []assembled
		if v.active {
			out = append(out, assembled{data: v.finish()})
		}
		// Small complete frames may ride in the same physical packet after
		// the tail fragment.
		for c.left() > 0 {
			rec, err := readMultiRecord(c, false)
			if err != nil {
				break
			}
			out = append(out, rec)
		}
		return out, nil

	default: // vmodeMulti
		first, err := readMultiRecord(c, true)
		if err != nil {
			return nil, err
		}
		out := []assembled{first}
		for c.left() > 0 {
			rec, err := readMultiRecord(c, false)
			if err != nil {
				break
			}
			out = append(out, rec)
		}
		return out, nil
	}
}
