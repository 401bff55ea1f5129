package realmedia

import (
	"github.com/mediaframe/core/format"
	"github.com/mediaframe/core/frame"
	"github.com/mediaframe/core/mediaerr"
)

const (
	tagRMF  = ".RMF"
	tagPROP = "PROP"
	tagMDPR = "MDPR"
	tagCONT = "CONT"
	tagDATA = "DATA"
	tagINDX = "INDX"
)

// videoCodecNames maps a VIDO/IMAG descriptor FourCC to a registered codec
// name.
var videoCodecNames = map[string]string{
	"RV10": "realvideo1",
	"RV20": "realvideo2",
	"RV30": "realvideo3",
	"RV40": "realvideo4",
	"CLV1": "clearvideo",
}

// audioCodecNames maps a.ra descriptor FourCC to a registered codec name.
var audioCodecNames = map[string]string{
	"dnet": "ac3",
	"28_8": "ra28.8",
	"cook": "cook",
	"atrc": "atrac3",
	"sipr": "sipro",
	"raac": "aac",
	"racp": "aac",
	"14_4": "ra14.4",
	"28_8_": "ra28.8",
}

// interleaveID identifies one of the five RealAudio de-interleaving
// policies by its descriptor FourCC.
type interleaveID uint32

const (
	ileaveNone interleaveID = iota
	ileaveInt4
	ileaveGenr
	ileaveSipr
	ileaveVBRS
)

func parseInterleaveID(fcc string) interleaveID {
	switch fcc {
	case "Int0":
		return ileaveNone
	case "Int4":
		return ileaveInt4
	case "genr":
		return ileaveGenr
	case "sipr":
		return ileaveSipr
	case "vbrs":
		return ileaveVBRS
	default:
		return ileaveNone
	}
}

// interleaveInfo describes one RealAudio interleaving scheme.
type interleaveInfo struct {
	id        interleaveID
	factor    int
	blockSize int
	frameSize int
}

// parseRAHeader reads the ".ra\xFD" RealAudio descriptor (versions 3/4/5)
// embedded in an MDPR's type-specific data.
func parseRAHeader(c *cursor) (format.AudioInfo, string, *interleaveInfo, error) {
	ver, err := c.u16()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	switch ver {
	case 3:
		return parseRA3(c)
	case 4:
		return parseRA4(c)
	case 5:
		return parseRA5(c)
	default:
		return format.AudioInfo{}, "", nil, mediaerr.Wrap(mediaerr.ErrInvalidData, "realmedia: unknown.ra version %d", ver)
	}
}

func skipRAMetadata(c *cursor) error {
	for i := 0; i < 4; i++ {
		if _, err := c.str8(); err != nil {
			return err
		}
	}
	return nil
}

func parseRA3(c *cursor) (format.AudioInfo, string, *interleaveInfo, error) {
	if _, err := c.u16(); err != nil { // header_len
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u16(); err != nil { // flavor
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u32(); err != nil { // granularity
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u32(); err != nil { // bytes_per_minute
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u32(); err != nil { // total_bytes
		return format.AudioInfo{}, "", nil, err
	}
	if err := skipRAMetadata(c); err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u8(); err != nil { // can_copy
		return format.AudioInfo{}, "", nil, err
	}
	fccLen, err := c.u8()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	if fccLen != 4 {
		return format.AudioInfo{}, "", nil, mediaerr.ErrInvalidData
	}
	fcc, err := c.fourcc()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	ai := format.AudioInfo{SampleRate: 8000, Channels: 1, Format: format.Soniton{Bits: 16, Signed: true}}
	return ai, codecNameOrUnknown(fcc), nil, nil
}

func parseRA4(c *cursor) (format.AudioInfo, string, *interleaveInfo, error) {
	if err := c.skip(2); err != nil { // zeroes
		return format.AudioInfo{}, "", nil, err
	}
	id, err := c.fourcc()
	if err != nil || id != ".ra4" {
		return format.AudioInfo{}, "", nil, mediaerr.Wrap(mediaerr.ErrInvalidData, "realmedia: bad .ra4 marker")
	}
	if _, err := c.u32(); err != nil { // data_size
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u16(); err != nil { // ver4
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u32(); err != nil { // header_size
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u16(); err != nil { // flavor
		return format.AudioInfo{}, "", nil, err
	}
	granularity, err := c.u32()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u32(); err != nil { // total_bytes
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u32(); err != nil { // bytes_per_minute
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u32(); err != nil { // bytes_per_minute2
		return format.AudioInfo{}, "", nil, err
	}
	ileaveFactor, err := c.u16()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	ileaveBlockSize, err := c.u16()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u16(); err != nil { // user_data
		return format.AudioInfo{}, "", nil, err
	}
	sampleRate, err := c.u32()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	sampleSize, err := c.u32()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	channels, err := c.u16()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	idLen, err := c.u8()
	if err != nil || idLen != 4 {
		return format.AudioInfo{}, "", nil, mediaerr.ErrInvalidData
	}
	ileaveTag, err := c.fourcc()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	fccLen, err := c.u8()
	if err != nil || fccLen != 4 {
		return format.AudioInfo{}, "", nil, mediaerr.ErrInvalidData
	}
	fcc, err := c.fourcc()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	isIleaved, err := c.u8()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u8(); err != nil { // can_copy
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u8(); err != nil { // stream_type
		return format.AudioInfo{}, "", nil, err
	}
	if err := skipRAMetadata(c); err != nil {
		return format.AudioInfo{}, "", nil, err
	}

	ai := format.AudioInfo{
		SampleRate: int(sampleRate),
		Channels:   int(channels),
		Format:     format.Soniton{Bits: uint8(sampleSize), Signed: true},
	}
	var iinfo *interleaveInfo
	if isIleaved != 0 {
		iinfo = &interleaveInfo{
			id:        parseInterleaveID(ileaveTag),
			factor:    int(ileaveFactor),
			blockSize: int(granularity),
			frameSize: int(ileaveBlockSize),
		}
	}
	return ai, codecNameOrUnknown(fcc), iinfo, nil
}

func parseRA5(c *cursor) (format.AudioInfo, string, *interleaveInfo, error) {
	if err := c.skip(2); err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	id, err := c.fourcc()
	if err != nil || id != ".ra5" {
		return format.AudioInfo{}, "", nil, mediaerr.Wrap(mediaerr.ErrInvalidData, "realmedia: bad .ra5 marker")
	}
	if _, err := c.u32(); err != nil { // data_size
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u16(); err != nil { // ver5
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u32(); err != nil { // header_size
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u16(); err != nil { // flavor
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u32(); err != nil { // granularity
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u32(); err != nil { // total_bytes
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u32(); err != nil { // bytes_per_minute
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u32(); err != nil { // bytes_per_minute2
		return format.AudioInfo{}, "", nil, err
	}
	ileaveFactor, err := c.u16()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	frameSize, err := c.u16()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	ileaveBlockSize, err := c.u16()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u32(); err != nil { // user_data
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u16(); err != nil { // sample_rate1
		return format.AudioInfo{}, "", nil, err
	}
	sampleRate, err := c.u32()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	sampleSize, err := c.u32()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	channels, err := c.u16()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	ileaveTag, err := c.fourcc()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	fcc, err := c.fourcc()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	isIleaved, err := c.u8()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u8(); err != nil { // can_copy
		return format.AudioInfo{}, "", nil, err
	}
	if _, err := c.u8(); err != nil { // stream_type
		return format.AudioInfo{}, "", nil, err
	}
	hasIleavePattern, err := c.u8()
	if err != nil {
		return format.AudioInfo{}, "", nil, err
	}
	if hasIleavePattern != 0 {
		return format.AudioInfo{}, "", nil, mediaerr.ErrNotImplemented
	}
	if _, err := c.u32(); err != nil { // edata_size
		return format.AudioInfo{}, "", nil, err
	}

	ai := format.AudioInfo{
		SampleRate: int(sampleRate),
		Channels:   int(channels),
		Format:     format.Soniton{Bits: uint8(sampleSize), Signed: true},
	}
	var iinfo *interleaveInfo
	if isIleaved != 0 {
		iinfo = &interleaveInfo{
			id:        parseInterleaveID(ileaveTag),
			factor:    int(ileaveFactor),
			blockSize: int(ileaveBlockSize),
			frameSize: int(frameSize),
		}
	}
	return ai, codecNameOrUnknown(fcc), iinfo, nil
}

func codecNameOrUnknown(fcc string) string {
	if name, ok := audioCodecNames[fcc]; ok {
		return name
	}
	return "unknown"
}

// parseVideoDescriptor reads a VIDO/IMAG MDPR payload. The caller has
// already consumed the leading "VIDO"/"IMAG" tag.
func parseVideoDescriptor(c *cursor) (format.VideoInfo, string, error) {
	fcc, err := c.fourcc()
	if err != nil {
		return format.VideoInfo{}, "", err
	}
	width, err := c.u16()
	if err != nil {
		return format.VideoInfo{}, "", err
	}
	height, err := c.u16()
	if err != nil {
		return format.VideoInfo{}, "", err
	}
	if _, err := c.u16(); err != nil { // bpp
		return format.VideoInfo{}, "", err
	}
	if _, err := c.u16(); err != nil { // pad_w
		return format.VideoInfo{}, "", err
	}
	if _, err := c.u16(); err != nil { // pad_h
		return format.VideoInfo{}, "", err
	}

	name, ok := videoCodecNames[fcc]
	if !ok {
		name = "unknown"
	}
	vi := format.VideoInfo{Width: int(width), Height: int(height), Format: format.YUV420P}
	return vi, name, nil
}

// streamDescriptor is the parsed result of one MDPR chunk.
type streamDescriptor struct {
	streamID  uint16
	codecInfo frame.CodecInfo
	mediaType frame.MediaType
	ileave    *interleaveInfo
	tbNum     uint32
	tbDen     uint32
}

func parseMDPR(c *cursor, end int) (streamDescriptor, error) {
	streamNo, err := c.u16()
	if err != nil {
		return streamDescriptor{}, err
	}
	if _, err := c.u32(); err != nil { // maxbr
		return streamDescriptor{}, err
	}
	if _, err := c.u32(); err != nil { // avgbr
		return streamDescriptor{}, err
	}
	if _, err := c.u32(); err != nil { // maxps
		return streamDescriptor{}, err
	}
	if _, err := c.u32(); err != nil { // avgps
		return streamDescriptor{}, err
	}
	if _, err := c.u32(); err != nil { // start
		return streamDescriptor{}, err
	}
	if _, err := c.u32(); err != nil { // preroll
		return streamDescriptor{}, err
	}
	if _, err := c.u32(); err != nil { // duration
		return streamDescriptor{}, err
	}
	if _, err := c.str8(); err != nil { // stream name
		return streamDescriptor{}, err
	}
	if _, err := c.str8(); err != nil { // mime type
		return streamDescriptor{}, err
	}
	edataSize, err := c.u32()
	if err != nil {
		return streamDescriptor{}, err
	}
	edata, err := c.bytes(int(edataSize))
	if err != nil {
		return streamDescriptor{}, err
	}

	sd := streamDescriptor{streamID: streamNo, tbNum: 1, tbDen: 1000}
	if len(edata) <= 8 {
		sd.codecInfo = frame.NewDummyCodecInfo("unknown")
		return sd, nil
	}

	ec := &cursor{data: edata}
	tag, err := ec.fourcc()
	if err != nil {
		return sd, err
	}

	switch {
	case tag == ".ra\xfd":
		ai, codecName, iinfo, err := parseRAHeader(ec)
		if err != nil {
			return sd, err
		}
		extra := append([]byte(nil), edata[ec.tell():]...)
		sd.mediaType = frame.MediaAudio
		sd.codecInfo = frame.CodecInfo{Name: codecName, Type: frame.MediaAudio, Props: frame.Properties{Audio: &ai}, ExtraData: extra}
		sd.ileave = iinfo
		sd.tbNum, sd.tbDen = 1, uint32(ai.SampleRate)
		if sd.tbDen == 0 {
			sd.tbDen = 1
		}
	case tag == "VIDO" || tag == "IMAG":
		vi, codecName, err := parseVideoDescriptor(ec)
		if err != nil {
			return sd, err
		}
		extra := append([]byte(nil), edata[ec.tell():]...)
		sd.mediaType = frame.MediaVideo
		sd.codecInfo = frame.CodecInfo{Name: codecName, Type: frame.MediaVideo, Props: frame.Properties{Video: &vi}, ExtraData: extra}
		sd.tbNum, sd.tbDen = 1, 0x10000
	case tag == "LSD:":
		extra := append([]byte(nil), edata...)
		if err := ec.skip(4); err != nil { // version
			return sd, err
		}
		channels, err := ec.u16()
		if err != nil {
			return sd, err
		}
		sampSize, err := ec.u16()
		if err != nil {
			return sd, err
		}
		sampleRate, err := ec.u32()
		if err != nil {
			return sd, err
		}
		ai := format.AudioInfo{SampleRate: int(sampleRate), Channels: int(channels), Format: format.Soniton{Bits: uint8(sampSize), Signed: true}}
		sd.mediaType = frame.MediaAudio
		sd.codecInfo = frame.CodecInfo{Name: "ralf", Type: frame.MediaAudio, Props: frame.Properties{Audio: &ai}, ExtraData: extra}
		sd.tbNum, sd.tbDen = 1, uint32(sampleRate)
	default:
		sd.codecInfo = frame.NewDummyCodecInfo("unknown")
	}
	return sd, nil
}

