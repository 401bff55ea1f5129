// Package avi implements the AVI (RIFF) demuxer. It walks
// the hdrl LIST to build one frame.Stream per strh/strf pair, then hands
// out movi chunks as Packets keyed by the stream index encoded in each
// chunk's four-character id.
package avi

import (
	"encoding/binary"

	"github.com/mediaframe/core/demux"
	"github.com/mediaframe/core/format"
	"github.com/mediaframe/core/frame"
	"github.com/mediaframe/core/mediaerr"
	"github.com/mediaframe/core/stream"
)

// Register adds the "avi" factory to reg. Callers own and construct their
// own demux.Registry — there is no
// package-level default to opt out of.
func Register(reg *demux.Registry) {
	reg.Register("avi", func(data []byte) demux.Core { return &Demuxer{data: data} })
}

const (
	tagRIFF = "RIFF"
	tagAVI  = "AVI "
	tagLIST = "LIST"
	tagHdrl = "hdrl"
	tagMovi = "movi"
	tagAvih = "avih"
	tagStrl = "strl"
	tagStrh = "strh"
	tagStrf = "strf"
	tagIdx1 = "idx1"
	tagVids = "vids"
	tagAuds = "auds"
)

// videoCodecNames maps a strf BITMAPINFOHEADER compression FourCC to this
// core's registered codec name.
var videoCodecNames = map[string]string{
	"I263": "intel263",
	"RV20": "realvideo2",
	"RV30": "realvideo3",
	"RV40": "realvideo4",
	"VP30": "vp3",
	"VP31": "vp3",
	"VP40": "vp4",
}

// audioCodecNames maps a WAVEFORMATEX formatTag to a codec name.
var audioCodecNames = map[uint16]string{
	0x0001: "pcm",
	0x0050: "mp2",
	0x2000: "ac3",
}

type aviStream struct {
	index     int // position in the chunk-id ("00", "01",...)
	mediaType frame.MediaType
	tbNum     uint32
	tbDen     uint32
}

// Demuxer implements demux.Core for RIFF/AVI containers.
type Demuxer struct {
	data      []byte
	pos       int
	moviStart int
	moviEnd   int
	streams   []aviStream
	counts    []uint64     // per-stream packet counter, the packet pts
	keyframes map[int]bool // absolute chunk offset -> idx1 keyframe flag
}

func (d *Demuxer) need(n int) error {
	if d.pos < 0 || d.pos+n > len(d.data) {
		return mediaerr.Wrap(mediaerr.ErrIO, "avi: short read at offset %d (need %d, have %d)", d.pos, n, len(d.data)-d.pos)
	}
	return nil
}

func (d *Demuxer) fourcc() (string, error) {
	if err := d.need(4); err != nil {
		return "", err
	}
	s := string(d.data[d.pos : d.pos+4])
	d.pos += 4
	return s, nil
}

func (d *Demuxer) u32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(d.data[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *Demuxer) u16() (uint16, error) {
	if err := d.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(d.data[d.pos:])
	d.pos += 2
	return v, nil
}

func (d *Demuxer) skip(n int) error {
	if err := d.need(n); err != nil {
		return err
	}
	d.pos += n
	return nil
}

// chunkHeader reads an 8-byte [id:4][size:4] chunk header.
func (d *Demuxer) chunkHeader() (id string, size int, err error) {
	id, err = d.fourcc()
	if err != nil {
		return "", 0, err
	}
	sz, err := d.u32()
	if err != nil {
		return "", 0, err
	}
	if sz > 0x7FFFFFFF {
		return "", 0, mediaerr.Wrap(mediaerr.ErrInvalidData, "avi: negative chunk size for %q", id)
	}
	return id, int(sz), nil
}

// Open implements demux.Core.
func (d *Demuxer) Open(sm *stream.Manager, si *stream.SeekIndex) error {
	if len(d.data) == 0 {
		return mediaerr.ErrIO
	}
	tag, size, err := d.chunkHeader()
	if err != nil {
		return err
	}
	if tag != tagRIFF {
		return mediaerr.Wrap(mediaerr.ErrInvalidData, "avi: missing RIFF tag")
	}
	riffEnd := d.pos + size
	form, err := d.fourcc()
	if err != nil {
		return err
	}
	if form != tagAVI {
		return mediaerr.Wrap(mediaerr.ErrInvalidData, "avi: not an AVI RIFF form (got %q)", form)
	}

	var frameUsec uint32
	var totalFrames uint32

	for d.pos < riffEnd {
		id, sz, err := d.chunkHeader()
		if err != nil {
			return err
		}
		chunkEnd := d.pos + sz
		switch id {
		case tagLIST:
			listType, err := d.fourcc()
			if err != nil {
				return err
			}
			switch listType {
			case tagHdrl:
				if err := d.parseHdrl(sm, chunkEnd, &frameUsec, &totalFrames); err != nil {
					return err
				}
			case tagMovi:
				d.moviStart = d.pos
				d.moviEnd = chunkEnd
				d.pos = chunkEnd
			default:
				d.pos = chunkEnd
			}
		case tagIdx1:
			if err := d.parseIdx1(sm, si, chunkEnd); err != nil {
				return err
			}
		default:
			d.pos = chunkEnd
		}
		if d.pos < chunkEnd {
			d.pos = chunkEnd
		}
		if d.pos%2 == 1 && d.pos < riffEnd {
			d.pos++ // RIFF chunks are word-aligned
		}
	}
	if d.moviStart == 0 {
		return mediaerr.Wrap(mediaerr.ErrInvalidData, "avi: no movi list found")
	}
	d.pos = d.moviStart
	return nil
}

func (d *Demuxer) parseHdrl(sm *stream.Manager, hdrlEnd int, frameUsec, totalFrames *uint32) error {
	for d.pos < hdrlEnd {
		id, sz, err := d.chunkHeader()
		if err != nil {
			return err
		}
		chunkEnd := d.pos + sz
		switch id {
		case tagAvih:
			if err := d.parseAvih(frameUsec, totalFrames); err != nil {
				return err
			}
		case tagLIST:
			listType, err := d.fourcc()
			if err != nil {
				return err
			}
			if listType == tagStrl {
				if err := d.parseStrl(sm); err != nil {
					return err
				}
			}
		}
		d.pos = chunkEnd
		if d.pos%2 == 1 {
			d.pos++
		}
	}
	return nil
}

func (d *Demuxer) parseAvih(frameUsec, totalFrames *uint32) error {
	var err error
	if *frameUsec, err = d.u32(); err != nil {
		return err
	}
	if err := d.skip(4 * 3); err != nil { // max bytes/sec, padding granularity, flags
		return err
	}
	if *totalFrames, err = d.u32(); err != nil {
		return err
	}
	// initial frames, streams, suggested buffer size, width, height, reserved[4]
	return d.skip(4 * (1 + 1 + 1 + 1 + 1 + 4))
}

func (d *Demuxer) parseStrl(sm *stream.Manager) error {
	var strhType string
	var fcc string
	var scale, rate uint32
	var st aviStream
	var info frame.CodecInfo
	var gotStrh, gotStrf bool

	for {
		if d.pos+8 > len(d.data) {
			break
		}
		save := d.pos
		id, sz, err := d.chunkHeader()
		if err != nil {
			d.pos = save
			break
		}
		chunkEnd := d.pos + sz
		switch id {
		case tagStrh:
			if strhType, err = d.fourcc(); err != nil {
				return err
			}
			if fcc, err = d.fourcc(); err != nil {
				return err
			}
			if err := d.skip(4 * 3); err != nil { // flags, priority+language, initial frames
				return err
			}
			if scale, err = d.u32(); err != nil {
				return err
			}
			if rate, err = d.u32(); err != nil {
				return err
			}
			gotStrh = true
			d.pos = chunkEnd
		case tagStrf:
			switch strhType {
			case tagVids:
				vi, codecName, err := parseBitmapInfoHeader(d.data[d.pos:chunkEnd], fcc)
				if err != nil {
					return err
				}
				info = frame.CodecInfo{Name: codecName, Type: frame.MediaVideo, Props: frame.Properties{Video: &vi}}
				st.mediaType = frame.MediaVideo
				gotStrf = true
			case tagAuds:
				ai, codecName, err := parseWaveFormat(d.data[d.pos:chunkEnd])
				if err != nil {
					return err
				}
				info = frame.CodecInfo{Name: codecName, Type: frame.MediaAudio, Props: frame.Properties{Audio: &ai}}
				st.mediaType = frame.MediaAudio
				gotStrf = true
			}
			d.pos = chunkEnd
		default:
			d.pos = chunkEnd
		}
		if d.pos%2 == 1 {
			d.pos++
		}
		if gotStrh && gotStrf {
			break
		}
	}
	if !gotStrh {
		return mediaerr.Wrap(mediaerr.ErrInvalidData, "avi: strl without strh")
	}
	if !gotStrf {
		info = frame.NewDummyCodecInfo("unknown")
	}

	id := uint32(len(d.streams))
	st.index = len(d.streams)
	s := frame.NewStream(st.mediaType, id, info, scale, rate)
	st.tbNum, st.tbDen = s.TbNum, s.TbDen
	d.streams = append(d.streams, st)
	sm.Add(s)
	return nil
}

// parseBitmapInfoHeader reads the video strf payload. Rejects
// declared width >= 1<<16.
func parseBitmapInfoHeader(buf []byte, fallbackFcc string) (format.VideoInfo, string, error) {
	if len(buf) < 20 {
		return format.VideoInfo{}, "", mediaerr.Wrap(mediaerr.ErrInvalidData, "avi: strf (video) too short")
	}
	width := int32(binary.LittleEndian.Uint32(buf[4:8]))
	height := int32(binary.LittleEndian.Uint32(buf[8:12]))
	compression := string(buf[16:20])

	if width < 0 || width >= (1<<16) {
		return format.VideoInfo{}, "", mediaerr.ErrUnsupportedFormat
	}
	flipped := height > 0
	h := height
	if h < 0 {
		h = -h
	}

	name, ok := videoCodecNames[compression]
	if !ok {
		// Some muxers leave the strf compression blank and only fill the
		// strh fcc.
		if name, ok = videoCodecNames[fallbackFcc]; !ok {
			name = "unknown"
		}
	}

	vi := format.VideoInfo{
		Width:   int(width),
		Height:  int(h),
		Flipped: flipped,
		Format:  format.YUV420P,
	}
	return vi, name, nil
}

func parseWaveFormat(buf []byte) (format.AudioInfo, string, error) {
	if len(buf) < 16 {
		return format.AudioInfo{}, "", mediaerr.Wrap(mediaerr.ErrInvalidData, "avi: strf (audio) too short")
	}
	formatTag := binary.LittleEndian.Uint16(buf[0:2])
	channels := binary.LittleEndian.Uint16(buf[2:4])
	sampleRate := binary.LittleEndian.Uint32(buf[4:8])
	bits := uint16(16)
	if len(buf) >= 16 {
		bits = binary.LittleEndian.Uint16(buf[14:16])
	}
	name, ok := audioCodecNames[formatTag]
	if !ok {
		name = "unknown"
	}
	son := format.Soniton{Bits: uint8(bits), Signed: bits > 8}
	ai := format.AudioInfo{SampleRate: int(sampleRate), Channels: int(channels), Format: son}
	return ai, name, nil
}

func (d *Demuxer) parseIdx1(sm *stream.Manager, si *stream.SeekIndex, end int) error {
	if d.keyframes == nil {
		d.keyframes = make(map[int]bool)
	}
	frameNo := make([]uint64, sm.Count())
	for d.pos+16 <= end {
		idxID, err := d.fourcc()
		if err != nil {
			return err
		}
		flags, err := d.u32()
		if err != nil {
			return err
		}
		offset, err := d.u32()
		if err != nil {
			return err
		}
		_, err = d.u32() // size
		if err != nil {
			return err
		}
		idx, ok := chunkStreamIndex(idxID)
		if !ok {
			continue
		}
		s, ok := sm.Get(idx)
		if !ok || idx >= len(frameNo) {
			continue
		}
		keyframe := flags&0x10 != 0
		abs := d.resolveIdx1Offset(int(offset))
		if abs >= 0 {
			d.keyframes[abs] = keyframe
		}
		ts := frame.NewTimeInfo(frameNo[idx], frame.NoTimestamp, frame.NoTimestamp, s.TbNum, s.TbDen)
		timeMs, _ := ts.PtsMillis()
		frameNo[idx]++
		si.Add(stream.SeekEntry{StreamID: s.ID, TimeMs: timeMs, Offset: int64(abs), Keyframe: keyframe})
	}
	d.pos = end
	return nil
}

// resolveIdx1Offset turns an idx1 entry offset into an absolute file
// position. Most muxers write offsets relative to the movi list's fourcc;
// some write absolute positions. Returns -1 if neither interpretation
// lands on a chunk id.
func (d *Demuxer) resolveIdx1Offset(offset int) int {
	rel := d.moviStart - 4 + offset
	if d.looksLikeChunk(rel) {
		return rel
	}
	if d.looksLikeChunk(offset) {
		return offset
	}
	return -1
}

func (d *Demuxer) looksLikeChunk(pos int) bool {
	if pos < 0 || pos+8 > len(d.data) {
		return false
	}
	_, ok := chunkStreamIndex(string(d.data[pos : pos+4]))
	return ok
}

// chunkStreamIndex decodes a movi chunk id's stream index from its first
// two ASCII digits ("00dc" -> 0, "01wb" -> 1).
func chunkStreamIndex(id string) (int, bool) {
	if len(id) != 4 {
		return 0, false
	}
	hi, ok1 := hexDigit(id[0])
	lo, ok2 := hexDigit(id[1])
	if !ok1 || !ok2 {
		return 0, false
	}
	return hi*16 + lo, true
}

func hexDigit(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10, true
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10, true
	default:
		return 0, false
	}
}

// NextPacket implements demux.Core.
func (d *Demuxer) NextPacket(sm *stream.Manager) (frame.Packet, error) {
	for {
		if d.pos+8 > d.moviEnd {
			return frame.Packet{}, mediaerr.ErrEOF
		}
		chunkStart := d.pos
		id, sz, err := d.chunkHeader()
		if err != nil {
			return frame.Packet{}, err
		}
		dataEnd := d.pos + sz
		if dataEnd > d.moviEnd {
			return frame.Packet{}, mediaerr.ErrInvalidData
		}
		idx, ok := chunkStreamIndex(id)
		payload := d.data[d.pos:dataEnd]
		d.pos = dataEnd
		if d.pos%2 == 1 {
			d.pos++
		}
		if !ok {
			continue
		}
		s, ok := sm.Get(idx)
		if !ok {
			continue
		}

		// Without an idx1 entry every chunk counts as a possible sync
		// point and the decoder's own bitstream parsing decides.
		keyframe := true
		if kf, indexed := d.keyframes[chunkStart]; indexed {
			keyframe = kf
		}

		for len(d.counts) <= idx {
			d.counts = append(d.counts, 0)
		}
		pts := d.counts[idx]
		d.counts[idx]++

		ts := frame.NewTimeInfo(pts, frame.NoTimestamp, frame.NoTimestamp, s.TbNum, s.TbDen)
		pkt := frame.NewPacket(s, ts, keyframe, payload)
		return pkt, nil
	}
}

// Seek implements demux.Core using the SeekIndex built from idx1:
// reposition to the last indexed keyframe at or before timeMs on any
// stream that has index entries.
func (d *Demuxer) Seek(timeMs uint64, si *stream.SeekIndex) error {
	if si == nil || si.IsEmpty() {
		return mediaerr.ErrNotPossible
	}
	for idx, st := range d.streams {
		entry, ok := si.Lookup(uint32(idx), timeMs)
		if !ok || entry.Offset < 0 {
			continue
		}
		d.pos = int(entry.Offset)
		// Rebase the packet counter so timestamps stay monotonic with the
		// new position.
		tbNum := st.tbNum
		if tbNum == 0 {
			tbNum = 1
		}
		frames := entry.TimeMs * uint64(st.tbDen) / (1000 * uint64(tbNum))
		for len(d.counts) <= idx {
			d.counts = append(d.counts, 0)
		}
		d.counts[idx] = frames
		return nil
	}
	return mediaerr.Wrap(mediaerr.ErrSeek, "avi: no indexed keyframe at or before %dms", timeMs)
}
