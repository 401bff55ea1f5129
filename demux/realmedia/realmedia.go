package realmedia

import (
	"github.com/mediaframe/core/demux"
	"github.com/mediaframe/core/frame"
	"github.com/mediaframe/core/mediaerr"
	"github.com/mediaframe/core/stream"
)

// Register adds the "realmedia" factory to reg. Callers construct and own
// their own demux.Registry.
func Register(reg *demux.Registry) {
	reg.Register("realmedia", func(data []byte) demux.Core { return &Demuxer{data: data} })
}

const (
	keyframeFlag = 0x02
	rmfMarker    = ".RMF"
)

type rmStream struct {
	id          uint32
	mediaType   frame.MediaType
	ileave      *interleaveInfo
	deinterlave streamDeinterleaver
	subPacket   int // position within the current de-interleave group
	vaccum      *videoAccum
}

// Demuxer implements demux.Core for RealMedia (.rm) files.
type Demuxer struct {
	data       []byte
	pos        int
	dataStart  int
	dataEnd    int
	numPackets uint32

	// streams is keyed by MDPR stream_number, the id packet headers carry;
	// stream numbers need not be sequential.
	streams map[uint16]*rmStream
	pending []frame.Packet
}

func (d *Demuxer) c() *cursor { return &cursor{data: d.data, pos: d.pos} }

// Open parses the .RMF/PROP/MDPR/CONT header chunks and positions the
// cursor at the start of the DATA section's packets.
func (d *Demuxer) Open(sm *stream.Manager, si *stream.SeekIndex) error {
	d.streams = make(map[uint16]*rmStream)

	c := &cursor{data: d.data}
	hdr, err := c.chunkHeader()
	if err != nil {
		return err
	}
	if hdr.Tag != rmfMarker {
		return mediaerr.Wrap(mediaerr.ErrInvalidData, "realmedia: missing .RMF marker")
	}
	if _, err := c.u32(); err != nil { // file version
		return err
	}
	numHeaders, err := c.u32()
	if err != nil {
		return err
	}

	for i := uint32(0); i < numHeaders; i++ {
		if c.left() < 10 {
			break
		}
		start := c.tell()
		ch, err := c.chunkHeader()
		if err != nil {
			return err
		}
		chunkEnd := start + int(ch.Size)
		if chunkEnd > len(d.data) {
			chunkEnd = len(d.data)
		}

		switch ch.Tag {
		case tagPROP:
			// max_bitrate, avg_bitrate, max_packet_size, avg_packet_size,
			// num_packets, duration, preroll, index_offset, data_offset,
			// num_streams, flags.
			if err := c.skip(4 * 9); err != nil {
				return err
			}
			if _, err := c.u16(); err != nil { // num_streams
				return err
			}
			if _, err := c.u16(); err != nil { // flags
				return err
			}

		case tagMDPR:
			sd, err := parseMDPR(c, chunkEnd)
			if err != nil {
				return err
			}
			s := frame.NewStream(sd.mediaType, uint32(sd.streamID), sd.codecInfo, sd.tbNum, sd.tbDen)
			sm.Add(s)
			rs := &rmStream{id: s.ID, mediaType: sd.mediaType, ileave: sd.ileave}
			rs.deinterlave = newDeinterleaver(sd.ileave)
			if sd.mediaType == frame.MediaVideo {
				rs.vaccum = &videoAccum{}
			}
			d.streams[sd.streamID] = rs

		case tagCONT:
			// Content description metadata (title/author/copyright/comment);
			// not surfaced by this core.

		case tagDATA:
			d.dataStart = c.tell()
			numPkts, err := c.u32()
			if err != nil {
				return err
			}
			d.numPackets = numPkts
			if _, err := c.u32(); err != nil { // next_data_header
				return err
			}
			d.dataStart = c.tell()
			d.dataEnd = chunkEnd
			d.pos = d.dataStart
			return nil
		}
		c.pos = chunkEnd
	}
	return mediaerr.Wrap(mediaerr.ErrInvalidData, "realmedia: no DATA chunk found")
}

// packetHeader is one physical RealMedia packet's framing fields.
type packetHeader struct {
	length    uint16
	streamIdx uint16
	timestamp uint32
	keyframe  bool
}

func (d *Demuxer) readPacketHeader(c *cursor) (packetHeader, error) {
	ver, err := c.u16()
	if err != nil {
		return packetHeader{}, err
	}
	if ver > 1 {
		return packetHeader{}, mediaerr.Wrap(mediaerr.ErrInvalidData, "realmedia: unknown packet header version %d", ver)
	}
	length, err := c.u16()
	if err != nil {
		return packetHeader{}, err
	}
	streamIdx, err := c.u16()
	if err != nil {
		return packetHeader{}, err
	}
	ts, err := c.u32()
	if err != nil {
		return packetHeader{}, err
	}
	var flags uint8
	if ver == 0 {
		if _, err := c.u8(); err != nil { // packet group
			return packetHeader{}, err
		}
		if flags, err = c.u8(); err != nil {
			return packetHeader{}, err
		}
	} else {
		// 16-bit ASM rule and 8-bit ASM flags, read and discarded.
		if err := c.skip(3); err != nil {
			return packetHeader{}, err
		}
	}
	return packetHeader{length: length, streamIdx: streamIdx, timestamp: ts, keyframe: flags&keyframeFlag != 0}, nil
}

// NextPacket implements demux.Core. It reads physical RealMedia packets and
// reassembles or de-interleaves them until a complete presentable packet is
// available, draining any backlog produced by a single physical packet that
// expands into several logical ones.
func (d *Demuxer) NextPacket(sm *stream.Manager) (frame.Packet, error) {
	for {
		if len(d.pending) > 0 {
			p := d.pending[0]
			d.pending = d.pending[1:]
			return p, nil
		}
		if d.pos+10 > d.dataEnd || d.pos+10 > len(d.data) {
			return frame.Packet{}, mediaerr.ErrEOF
		}

		c := &cursor{data: d.data, pos: d.pos}
		startPos := c.tell()
		hdr, err := d.readPacketHeader(c)
		if err != nil {
			return frame.Packet{}, err
		}
		if int(hdr.length) < c.tell()-startPos {
			return frame.Packet{}, mediaerr.ErrInvalidData
		}
		payloadEnd := startPos + int(hdr.length)
		if payloadEnd > len(d.data) {
			return frame.Packet{}, mediaerr.ErrInvalidData
		}
		payload, err := c.bytes(payloadEnd - c.tell())
		if err != nil {
			return frame.Packet{}, err
		}
		d.pos = payloadEnd

		rs, ok := d.streams[hdr.streamIdx]
		if !ok {
			continue
		}
		s, ok := sm.GetByID(rs.id)
		if !ok {
			continue
		}

		var bodies []assembled
		switch rs.mediaType {
		case frame.MediaVideo:
			bodies, err = rs.vaccum.addPacket(payload)
			if err != nil {
				return frame.Packet{}, err
			}
		case frame.MediaAudio:
			if rs.deinterlave != nil {
				if hdr.keyframe {
					// A keyframe starts a fresh interleave group.
					rs.subPacket = 0
					rs.deinterlave.reset()
				}
				frames := rs.deinterlave.addPacket(rs.subPacket, payload)
				rs.subPacket++
				if frames != nil {
					rs.subPacket = 0
				}
				for _, f := range frames {
					bodies = append(bodies, assembled{data: f})
				}
			} else if rs.ileave != nil && rs.ileave.id == ileaveVBRS {
				frames, err := vbrSplit(payload)
				if err != nil {
					return frame.Packet{}, err
				}
				for _, f := range frames {
					bodies = append(bodies, assembled{data: f})
				}
			} else {
				bodies = []assembled{{data: payload}}
			}
		default:
			bodies = []assembled{{data: payload}}
		}

		if len(bodies) == 0 {
			continue
		}
		for i, b := range bodies {
			tsMs := hdr.timestamp
			if b.hasTS {
				tsMs = b.ts
			}
			ts := frame.NewTimeInfo(uint64(tsMs), frame.NoTimestamp, frame.NoTimestamp, s.TbNum, s.TbDen)
			kf := hdr.keyframe && i == 0
			d.pending = append(d.pending, frame.NewPacket(s, ts, kf, b.data))
		}
	}
}

// Seek is not implemented; RealMedia index chunks (INDX) are not parsed by
// this core.
func (d *Demuxer) Seek(timeMs uint64, si *stream.SeekIndex) error {
	return mediaerr.ErrNotImplemented
}
