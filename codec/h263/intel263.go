package h263

import (
	"github.com/mediaframe/core/bitio"
	"github.com/mediaframe/core/codec"
	"github.com/mediaframe/core/frame"
	"github.com/mediaframe/core/mediaerr"
)

// sourceFormats maps the three-bit PTYPE source format to fixed picture
// dimensions; entries 0, 6, and 7 are reserved or signalled elsewhere.
var sourceFormats = [8][2]int{
	{0, 0},
	{128, 96},   // sub-QCIF
	{176, 144},  // QCIF
	{352, 288},  // CIF
	{704, 576},  // 4CIF
	{1408, 1152}, // 16CIF
	{0, 0},
	{0, 0},
}

var dquantTab = [4]int8{-1, -2, 1, 2}

// intel263 implements the Intel I263 half of the shared decoder: one slice
// per packet and the baseline picture header behind a 22-bit start code.
type intel263 struct{}

// NewIntel263 constructs the Intel 263 decoder.
func NewIntel263() codec.Decoder {
	return &Decoder{variant: intel263{}}
}

func (intel263) splitPayload(data []byte) ([][]byte, error) {
	return [][]byte{data}, nil
}

func (intel263) parseHeader(br *bitio.Reader, d *Decoder) (picInfo, error) {
	var pi picInfo

	psc, err := br.Read(22)
	if err != nil {
		return pi, bitsErr(err)
	}
	if psc != 0x20 {
		return pi, mediaerr.Wrap(mediaerr.ErrDecInvalidData, "intel263: bad picture start code %#x", psc)
	}
	tr, err := br.Read(8)
	if err != nil {
		return pi, bitsErr(err)
	}
	pi.seq = tr

	// PTYPE: constant '10', split screen, document camera, freeze release.
	fixed, err := br.Read(2)
	if err != nil {
		return pi, bitsErr(err)
	}
	if fixed != 2 {
		return pi, mediaerr.Wrap(mediaerr.ErrDecInvalidData, "intel263: bad PTYPE prefix %#x", fixed)
	}
	if err := br.Skip(3); err != nil {
		return pi, bitsErr(err)
	}
	srcFmt, err := br.Read(3)
	if err != nil {
		return pi, bitsErr(err)
	}
	inter, err := br.ReadBool()
	if err != nil {
		return pi, bitsErr(err)
	}
	if inter {
		pi.ftype = frame.TypeP
	} else {
		pi.ftype = frame.TypeI
	}
	// Optional modes: unrestricted MV, arithmetic coding, advanced
	// prediction, PB frames.
	umv, err := br.ReadBool()
	if err != nil {
		return pi, bitsErr(err)
	}
	_ = umv
	sac, err := br.ReadBool()
	if err != nil {
		return pi, bitsErr(err)
	}
	if sac {
		return pi, mediaerr.Wrap(mediaerr.ErrDecNotImplemented, "intel263: arithmetic coding")
	}
	if _, err := br.ReadBool(); err != nil { // advanced prediction
		return pi, bitsErr(err)
	}
	pb, err := br.ReadBool()
	if err != nil {
		return pi, bitsErr(err)
	}
	if pb {
		return pi, mediaerr.Wrap(mediaerr.ErrDecNotImplemented, "intel263: PB frames")
	}

	if dims := sourceFormats[srcFmt]; dims[0] != 0 {
		pi.width, pi.height = dims[0], dims[1]
	} else {
		// Non-standard format index: keep the dimensions the container
		// advertised.
		pi.width, pi.height = d.width, d.height
	}

	q, err := br.Read(5)
	if err != nil {
		return pi, bitsErr(err)
	}
	if q == 0 {
		q = 1
	}
	pi.quant = uint8(q)

	cpm, err := br.ReadBool()
	if err != nil {
		return pi, bitsErr(err)
	}
	if cpm {
		return pi, mediaerr.Wrap(mediaerr.ErrDecNotImplemented, "intel263: continuous presence multipoint")
	}
	// PEI extension bytes.
	for {
		pei, err := br.ReadBool()
		if err != nil {
			return pi, bitsErr(err)
		}
		if !pei {
			break
		}
		if err := br.Skip(8); err != nil {
			return pi, bitsErr(err)
		}
	}
	return pi, nil
}

// readDquant applies the baseline two-bit differential quantizer update.
func (intel263) readDquant(br *bitio.Reader, quant uint8) (uint8, error) {
	v, err := br.Read(2)
	if err != nil {
		return quant, bitsErr(err)
	}
	return clampQuant(int(quant) + int(dquantTab[v])), nil
}
