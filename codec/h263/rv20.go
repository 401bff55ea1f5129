package h263

import (
	"encoding/binary"

	"github.com/mediaframe/core/bitio"
	"github.com/mediaframe/core/codec"
	"github.com/mediaframe/core/frame"
	"github.com/mediaframe/core/mediaerr"
)

// mbPosBits maps the highest macroblock index of a picture to the width of
// the slice-header macroblock position field.
var mbPosBits = []struct {
	blocks int
	bits   int
}{
	{47, 6}, {98, 7}, {395, 9}, {1583, 11}, {6335, 13}, {9215, 14}, {65536, 14},
}

func mbPosFieldWidth(maxPos int) int {
	for _, e := range mbPosBits {
		if maxPos <= e.blocks {
			return e.bits
		}
	}
	return 14
}

// rv20 implements the RealVideo 2 half of the shared decoder: slice-table
// payload framing and the RV20 slice header, including the optional
// reference-picture-resampling dimension table carried in the stream's
// extra data.
type rv20 struct {
	minorVer uint8
	rprBits  int
	rprW     [8]int
	rprH     [8]int
}

// NewRV20 constructs the RealVideo 2 decoder.
func NewRV20() codec.Decoder {
	return &Decoder{variant: &rv20{}}
}

// init parses the extra data: a 4-byte capability word whose low three bits
// of the second byte size the resampling index, a packed 20-bit version at
// bytes 4..6, then pairs of width/height bytes in units of four pixels.
func (v *rv20) init(d *Decoder) error {
	ed := d.info.ExtraData
	if len(ed) < 8 {
		return mediaerr.Wrap(mediaerr.ErrDecInvalidData, "rv20: extra data too short (%d bytes)", len(ed))
	}
	ver := uint32(ed[4])<<12 | uint32(ed[5])<<4 | uint32(ed[6])>>4
	if ver>>16 != 2 {
		return mediaerr.Wrap(mediaerr.ErrDecInvalidData, "rv20: major version %d", ver>>16)
	}
	v.minorVer = uint8((ver >> 8) & 0xFF)

	rprb := ed[1] & 7
	if rprb != 0 {
		v.rprBits = int(rprb>>1) + 1
		for i := 4; i < len(ed)/2 && i-4 < len(v.rprW); i++ {
			v.rprW[i-4] = int(ed[i*2]) * 4
			v.rprH[i-4] = int(ed[i*2+1]) * 4
		}
	}
	return nil
}

// splitPayload consumes the slice table prepended by the demuxer: a count
// byte holding num_slices-1, then eight bytes per slice whose last four are
// the big-endian start offset of that slice's payload.
func (v *rv20) splitPayload(data []byte) ([][]byte, error) {
	if len(data) < 9 {
		return nil, mediaerr.Wrap(mediaerr.ErrShortData, "rv20: packet shorter than slice table")
	}
	n := int(data[0]) + 1
	hdrSize := n*8 + 1
	if len(data) < hdrSize {
		return nil, mediaerr.Wrap(mediaerr.ErrShortData, "rv20: truncated slice table")
	}
	payload := data[hdrSize:]
	offs := make([]int, n+1)
	for i := 0; i < n; i++ {
		offs[i] = int(binary.BigEndian.Uint32(data[1+i*8+4:]))
	}
	offs[n] = len(payload)
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		if offs[i] < 0 || offs[i] > offs[i+1] || offs[i+1] > len(payload) {
			return nil, mediaerr.Wrap(mediaerr.ErrDecInvalidData, "rv20: bad slice offset %d", offs[i])
		}
		out = append(out, payload[offs[i]:offs[i+1]])
	}
	return out, nil
}

// parseHeader decodes one RV20 slice header.
func (v *rv20) parseHeader(br *bitio.Reader, d *Decoder) (picInfo, error) {
	var pi picInfo

	ft, err := br.Read(2)
	if err != nil {
		return pi, bitsErr(err)
	}
	switch ft {
	case 0, 1:
		pi.ftype = frame.TypeI
	case 2:
		pi.ftype = frame.TypeP
	default:
		pi.ftype = frame.TypeB
	}

	marker, err := br.ReadBool()
	if err != nil {
		return pi, bitsErr(err)
	}
	if marker {
		return pi, mediaerr.Wrap(mediaerr.ErrDecInvalidData, "rv20: marker bit set")
	}
	q, err := br.Read(5)
	if err != nil {
		return pi, bitsErr(err)
	}
	if q == 0 {
		return pi, mediaerr.Wrap(mediaerr.ErrDecInvalidData, "rv20: zero quantizer")
	}
	pi.quant = uint8(q)

	if v.minorVer >= 2 {
		lf, err := br.ReadBool()
		if err != nil {
			return pi, bitsErr(err)
		}
		pi.deblock = lf
	}
	if v.minorVer <= 1 {
		seq, err := br.Read(8)
		if err != nil {
			return pi, bitsErr(err)
		}
		pi.seq = seq << 8
	} else {
		seq, err := br.Read(13)
		if err != nil {
			return pi, bitsErr(err)
		}
		pi.seq = seq << 3
	}

	w, h := d.width, d.height
	if v.rprBits > 0 {
		idx, err := br.Read(v.rprBits)
		if err != nil {
			return pi, bitsErr(err)
		}
		if idx > 0 {
			w = v.rprW[idx-1]
			h = v.rprH[idx-1]
			if w == 0 || h == 0 {
				return pi, mediaerr.Wrap(mediaerr.ErrDecInvalidData, "rv20: empty resampling entry %d", idx)
			}
		}
	}
	pi.width, pi.height = w, h

	mbW := (w + 15) >> 4
	mbH := (h + 15) >> 4
	pos, err := br.Read(mbPosFieldWidth(mbW*mbH - 1))
	if err != nil {
		return pi, bitsErr(err)
	}
	pi.mbPos = int(pos)

	if err := br.Skip(1); err != nil { // rounding mode
		return pi, bitsErr(err)
	}
	if v.minorVer <= 1 && pi.ftype == frame.TypeB {
		if err := br.Skip(5); err != nil {
			return pi, bitsErr(err)
		}
	}

	// RV20 I frames always code intra blocks through the advanced-intra
	// tables.
	pi.aic = pi.ftype == frame.TypeI
	return pi, nil
}

// readDquant applies the modified-quantization update: flag set means a
// one-bit table step, clear means a full 5-bit replacement.
func (v *rv20) readDquant(br *bitio.Reader, quant uint8) (uint8, error) {
	flag, err := br.ReadBool()
	if err != nil {
		return quant, bitsErr(err)
	}
	if flag {
		step, err := br.Read(1)
		if err != nil {
			return quant, bitsErr(err)
		}
		return clampQuant(int(modifiedQuant[step][quant&31])), nil
	}
	q, err := br.Read(5)
	if err != nil {
		return quant, bitsErr(err)
	}
	return clampQuant(int(q)), nil
}
