// Package aac decodes AAC-LC access units: up to two channels, 1024
// samples per frame. One access unit is a sequence of syntactic elements
// (SCE/CPE/DSE/FIL/END) whose channel payloads go through section and
// scale-factor decoding, spectral Huffman decoding, optional temporal noise
// shaping, mid/side and intensity stereo, and the inverse MDCT filter bank
// with overlap-add.
package aac

import (
	"errors"
	"math"

	"github.com/mediaframe/core/bitio"
	"github.com/mediaframe/core/buffer"
	"github.com/mediaframe/core/codec"
	"github.com/mediaframe/core/format"
	"github.com/mediaframe/core/frame"
	"github.com/mediaframe/core/huffman"
	"github.com/mediaframe/core/mediaerr"
)

const (
	maxWindows = 8
	maxSfbs    = 64

	frameSamples = 1024
)

// Window sequences.
const (
	seqOnlyLong = iota
	seqLongStart
	seqEightShort
	seqLongStop
)

// Section codebook indices with special meaning.
const (
	zeroHCB       = 0
	firstPairHCB  = 5
	escHCB        = 11
	reservedHCB   = 12
	noiseHCB      = 13
	intensityHCB2 = 14
	intensityHCB  = 15
)

const (
	intensityScaleMin = -155
	noiseScaleMin     = -100
)

var (
	scaleCodebook *huffman.Codebook
	specCodebooks [11]*huffman.Codebook
)

func init() {
	scfEntries := make([]huffman.Entry, len(scfCodebookBits))
	for i := range scfEntries {
		scfEntries[i] = huffman.Entry{
			Code:   scfCodebookCodes[i],
			Bits:   scfCodebookBits[i],
			Symbol: i - 60,
		}
	}
	cb, err := huffman.NewCodebook(scfEntries)
	if err != nil {
		panic(err)
	}
	scaleCodebook = cb

	for b := 0; b < 11; b++ {
		entries := make([]huffman.Entry, len(specBits[b]))
		for i := range entries {
			entries[i] = huffman.Entry{
				Code:   specCodes[b][i],
				Bits:   specBits[b][i],
				Symbol: i,
			}
		}
		cb, err := huffman.NewCodebook(entries)
		if err != nil {
			panic(err)
		}
		specCodebooks[b] = cb
	}
}

func bitsErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bitio.ErrShortRead) {
		return mediaerr.Wrap(mediaerr.ErrShortData, "aac: bitstream exhausted")
	}
	return mediaerr.Wrap(mediaerr.ErrDecInvalidData, "aac: %v", err)
}

func invalid(msg string) error {
	return mediaerr.Wrap(mediaerr.ErrDecInvalidData, "aac: %s", msg)
}

// audioConfig is the decoded AudioSpecificConfig from a stream's extra
// data.
type audioConfig struct {
	objectType int
	srate      uint32
	channels   int
	samples    int
}

const objTypeLC = 2

func parseAudioConfig(ed []byte) (audioConfig, error) {
	var cfg audioConfig
	if len(ed) < 2 {
		return cfg, invalid("audio config too short")
	}
	br := bitio.NewReader(ed, bitio.BigEndian)

	readObjectType := func() (int, error) {
		ot, err := br.Read(5)
		if err != nil {
			return 0, bitsErr(err)
		}
		if ot == 31 {
			ext, err := br.Read(6)
			if err != nil {
				return 0, bitsErr(err)
			}
			return int(ext) + 32, nil
		}
		return int(ot), nil
	}

	var err error
	cfg.objectType, err = readObjectType()
	if err != nil {
		return cfg, err
	}

	sfIdx, err := br.Read(4)
	if err != nil {
		return cfg, bitsErr(err)
	}
	if sfIdx == 15 {
		rate, err := br.Read(24)
		if err != nil {
			return cfg, bitsErr(err)
		}
		cfg.srate = rate
	} else {
		cfg.srate = sampleRates[sfIdx]
	}
	if cfg.srate == 0 {
		return cfg, invalid("zero sampling rate")
	}

	chIdx, err := br.Read(4)
	if err != nil {
		return cfg, bitsErr(err)
	}
	if int(chIdx) < len(channelConfigs) {
		cfg.channels = channelConfigs[chIdx]
	} else {
		cfg.channels = int(chIdx)
	}

	// GASpecificConfig for the object types this decoder accepts.
	shortFrame, err := br.ReadBool()
	if err != nil {
		return cfg, bitsErr(err)
	}
	if shortFrame {
		cfg.samples = 960
	} else {
		cfg.samples = 1024
	}
	dependsOnCore, err := br.ReadBool()
	if err != nil {
		return cfg, bitsErr(err)
	}
	if dependsOnCore {
		if err := br.Skip(14); err != nil {
			return cfg, bitsErr(err)
		}
	}
	if _, err := br.ReadBool(); err != nil { // extension flag
		return cfg, bitsErr(err)
	}
	return cfg, nil
}

// icsInfo is the per-channel (or shared, for a common window) windowing
// configuration.
type icsInfo struct {
	windowSequence     int
	prevWindowSequence int
	windowShape        bool
	prevWindowShape    bool
	scaleFactorGroup   [maxWindows]bool
	groupStart         [maxWindows]int
	windowGroups       int
	numWindows         int
	maxSfb             int
	longWin            bool
}

func (ii *icsInfo) decode(br *bitio.Reader) error {
	ii.prevWindowSequence = ii.windowSequence
	ii.prevWindowShape = ii.windowShape

	reserved, err := br.ReadBool()
	if err != nil {
		return bitsErr(err)
	}
	if reserved {
		return invalid("ics reserved bit set")
	}
	ws, err := br.Read(2)
	if err != nil {
		return bitsErr(err)
	}
	ii.windowSequence = int(ws)
	switch ii.prevWindowSequence {
	case seqOnlyLong, seqLongStop:
		if ii.windowSequence != seqOnlyLong && ii.windowSequence != seqLongStart {
			return invalid("invalid window sequence transition")
		}
	case seqLongStart, seqEightShort:
		if ii.windowSequence != seqEightShort && ii.windowSequence != seqLongStop {
			return invalid("invalid window sequence transition")
		}
	}
	shape, err := br.ReadBool()
	if err != nil {
		return bitsErr(err)
	}
	ii.windowShape = shape
	ii.windowGroups = 1
	if ii.windowSequence == seqEightShort {
		ii.longWin = false
		ii.numWindows = 8
		sfb, err := br.Read(4)
		if err != nil {
			return bitsErr(err)
		}
		ii.maxSfb = int(sfb)
		for i := 0; i < maxWindows-1; i++ {
			grouped, err := br.ReadBool()
			if err != nil {
				return bitsErr(err)
			}
			ii.scaleFactorGroup[i] = grouped
			if !grouped {
				ii.groupStart[ii.windowGroups] = i + 1
				ii.windowGroups++
			}
		}
		return nil
	}
	ii.longWin = true
	ii.numWindows = 1
	sfb, err := br.Read(6)
	if err != nil {
		return bitsErr(err)
	}
	ii.maxSfb = int(sfb)
	predictor, err := br.ReadBool()
	if err != nil {
		return bitsErr(err)
	}
	if predictor {
		return mediaerr.Wrap(mediaerr.ErrDecNotImplemented, "aac: long-term prediction data")
	}
	return nil
}

func (ii *icsInfo) getGroupStart(g int) int {
	switch {
	case g == 0:
		return 0
	case g >= ii.windowGroups:
		if ii.longWin {
			return 1
		}
		return 8
	default:
		return ii.groupStart[g]
	}
}

// pulseData restores isolated spectral peaks coded outside the Huffman
// path.
type pulseData struct {
	numPulse int
	startSfb int
	offset   [4]uint8
	amp      [4]uint8
}

func readPulseData(br *bitio.Reader) (*pulseData, error) {
	present, err := br.ReadBool()
	if err != nil {
		return nil, bitsErr(err)
	}
	if !present {
		return nil, nil
	}
	var pd pulseData
	n, err := br.Read(2)
	if err != nil {
		return nil, bitsErr(err)
	}
	pd.numPulse = int(n) + 1
	sfb, err := br.Read(6)
	if err != nil {
		return nil, bitsErr(err)
	}
	pd.startSfb = int(sfb)
	for i := 0; i < pd.numPulse; i++ {
		off, err := br.Read(5)
		if err != nil {
			return nil, bitsErr(err)
		}
		amp, err := br.Read(4)
		if err != nil {
			return nil, bitsErr(err)
		}
		pd.offset[i] = uint8(off)
		pd.amp[i] = uint8(amp)
	}
	return &pd, nil
}

const tnsMaxOrder = 20

// tnsCoeffs is one TNS filter: quantized reflection coefficients converted
// through an arcsine-like inverse into LPC form.
type tnsCoeffs struct {
	length    int
	order     int
	direction bool
	coef      [tnsMaxOrder + 1]float32
}

func (tc *tnsCoeffs) read(br *bitio.Reader, longWin, coefRes bool, maxOrder int) error {
	lenBits, ordBits := 6, 5
	if !longWin {
		lenBits, ordBits = 4, 3
	}
	l, err := br.Read(lenBits)
	if err != nil {
		return bitsErr(err)
	}
	tc.length = int(l)
	o, err := br.Read(ordBits)
	if err != nil {
		return bitsErr(err)
	}
	tc.order = int(o)
	if tc.order > maxOrder {
		return invalid("TNS order too large")
	}
	if tc.order == 0 {
		return nil
	}
	dir, err := br.ReadBool()
	if err != nil {
		return bitsErr(err)
	}
	tc.direction = dir
	compress, err := br.ReadBool()
	if err != nil {
		return bitsErr(err)
	}

	coefBits := 3
	if coefRes {
		coefBits++
	}
	if compress {
		coefBits--
	}
	signMask := 1 << (coefBits - 1)
	negMask := ^(signMask*2 - 1)

	facBase := 4.0
	if coefRes {
		facBase = 8.0
	}
	iqfac := (facBase - 0.5) / (math.Pi / 2.0)
	iqfacM := (facBase + 0.5) / (math.Pi / 2.0)

	var tmp [tnsMaxOrder]float32
	for i := 0; i < tc.order; i++ {
		v, err := br.Read(coefBits)
		if err != nil {
			return bitsErr(err)
		}
		iv := int(v)
		if iv&signMask != 0 {
			iv |= negMask
		}
		c := float64(iv)
		if c >= 0 {
			tmp[i] = float32(math.Sin(c / iqfac))
		} else {
			tmp[i] = float32(math.Sin(c / iqfacM))
		}
	}
	// Reflection to LPC.
	var b [tnsMaxOrder + 1]float32
	for m := 1; m <= tc.order; m++ {
		for i := 1; i < m; i++ {
			b[i] = tc.coef[i-1] + tmp[m-1]*tc.coef[m-i-1]
		}
		for i := 1; i < m; i++ {
			tc.coef[i-1] = b[i]
		}
		tc.coef[m-1] = tmp[m-1]
	}
	return nil
}

type tnsData struct {
	nFilt  [maxWindows]int
	coeffs [maxWindows][4]tnsCoeffs
}

func readTNSData(br *bitio.Reader, longWin bool, numWindows, maxOrder int) (*tnsData, error) {
	present, err := br.ReadBool()
	if err != nil {
		return nil, bitsErr(err)
	}
	if !present {
		return nil, nil
	}
	var td tnsData
	filtBits := 2
	if !longWin {
		filtBits = 1
	}
	for w := 0; w < numWindows; w++ {
		n, err := br.Read(filtBits)
		if err != nil {
			return nil, bitsErr(err)
		}
		td.nFilt[w] = int(n)
		coefRes := false
		if td.nFilt[w] != 0 {
			coefRes, err = br.ReadBool()
			if err != nil {
				return nil, bitsErr(err)
			}
		}
		for f := 0; f < td.nFilt[w]; f++ {
			if err := td.coeffs[w][f].read(br, longWin, coefRes, maxOrder); err != nil {
				return nil, err
			}
		}
	}
	return &td, nil
}

// ics is one individual channel stream: everything between a channel's
// side info and its 1024 reconstructed time samples.
type ics struct {
	globalGain uint8
	info       icsInfo
	pulse      *pulseData
	tns        *tnsData
	sfbCB      [maxWindows][maxSfbs]uint8
	scales     [maxWindows][maxSfbs]uint8
	sbinfo     subbandInfo
	coeffs     [frameSamples]float32
	delay      [frameSamples]float32
}

func (c *ics) isIntensity(g, sfb int) bool {
	return c.sfbCB[g][sfb] == intensityHCB || c.sfbCB[g][sfb] == intensityHCB2
}

func (c *ics) intensityDir(g, sfb int) bool {
	return c.sfbCB[g][sfb] == intensityHCB
}

func (c *ics) bandStart(swb int) int {
	if c.info.longWin {
		return c.sbinfo.longBands[swb]
	}
	return c.sbinfo.shortBands[swb]
}

func (c *ics) numBands() int {
	if c.info.longWin {
		return len(c.sbinfo.longBands) - 1
	}
	return len(c.sbinfo.shortBands) - 1
}

// decodeSectionData reads runs of (codebook, length) over scale-factor
// bands; the escape run value accumulates with the next field.
func (c *ics) decodeSectionData(br *bitio.Reader, mayHaveIntensity bool) error {
	sectBits := 5
	if !c.info.longWin {
		sectBits = 3
	}
	sectEscVal := 1<<sectBits - 1

	for g := 0; g < c.info.windowGroups; g++ {
		k := 0
		for k < c.info.maxSfb {
			cb, err := br.Read(4)
			if err != nil {
				return bitsErr(err)
			}
			if cb == reservedHCB {
				return invalid("reserved section codebook")
			}
			if (cb == intensityHCB || cb == intensityHCB2) && !mayHaveIntensity {
				return invalid("intensity codebook outside channel pair")
			}
			sectLen := 0
			for {
				incr, err := br.Read(sectBits)
				if err != nil {
					return bitsErr(err)
				}
				sectLen += int(incr)
				if int(incr) < sectEscVal {
					break
				}
			}
			if k+sectLen > c.info.maxSfb {
				return invalid("section length past max_sfb")
			}
			for i := 0; i < sectLen; i++ {
				c.sfbCB[g][k] = uint8(cb)
				k++
			}
		}
	}
	return nil
}

// decodeScaleFactors reads the three differential scale chains: normal
// (seeded by the global gain), intensity, and noise (9-bit PCM start).
func (c *ics) decodeScaleFactors(br *bitio.Reader) error {
	noisePCMFlag := true
	scfNormal := int(c.globalGain)
	scfIntensity := 0
	scfNoise := 0
	for g := 0; g < c.info.windowGroups; g++ {
		for sfb := 0; sfb < c.info.maxSfb; sfb++ {
			switch {
			case c.sfbCB[g][sfb] == zeroHCB:
			case c.isIntensity(g, sfb):
				diff, err := br.ReadCB(scaleCodebook)
				if err != nil {
					return bitsErr(err)
				}
				scfIntensity += diff
				if scfIntensity < intensityScaleMin || scfIntensity >= intensityScaleMin+256 {
					return invalid("intensity scale out of range")
				}
				c.scales[g][sfb] = uint8(scfIntensity - intensityScaleMin)
			case c.sfbCB[g][sfb] == noiseHCB:
				if noisePCMFlag {
					noisePCMFlag = false
					pcm, err := br.Read(9)
					if err != nil {
						return bitsErr(err)
					}
					scfNoise = int(pcm) - 256 + int(c.globalGain) - 90
				} else {
					diff, err := br.ReadCB(scaleCodebook)
					if err != nil {
						return bitsErr(err)
					}
					scfNoise += diff
				}
				if scfNoise < noiseScaleMin || scfNoise >= noiseScaleMin+256 {
					return invalid("noise scale out of range")
				}
				c.scales[g][sfb] = uint8(scfNoise - noiseScaleMin)
			default:
				diff, err := br.ReadCB(scaleCodebook)
				if err != nil {
					return bitsErr(err)
				}
				scfNormal += diff
				if scfNormal < 0 || scfNormal >= 255 {
					return invalid("scale factor out of range")
				}
				c.scales[g][sfb] = uint8(scfNormal)
			}
		}
	}
	return nil
}

// getScale converts a decoded scale factor to the linear coefficient
// multiplier.
func getScale(scale uint8) float32 {
	return float32(math.Pow(2.0, 0.25*(float64(scale)-100.0-56.0)))
}

// iquant applies the sign-preserving |x|^(4/3) expansion.
func iquant(val float32) float32 {
	if val < 0 {
		return -float32(math.Pow(float64(-val), 4.0/3.0))
	}
	return float32(math.Pow(float64(val), 4.0/3.0))
}

func requant(val, scale float32) float32 {
	if scale == 0 {
		return 0
	}
	if val >= 0 {
		return float32(math.Pow(float64(val), 3.0/4.0))
	}
	return -float32(math.Pow(float64(-val), 3.0/4.0))
}

func decodeQuads(br *bitio.Reader, cb *huffman.Codebook, unsigned bool, scale float32, dst []float32) error {
	for off := 0; off+4 <= len(dst); off += 4 {
		cw, err := br.ReadCB(cb)
		if err != nil {
			return bitsErr(err)
		}
		if cw < 0 || cw >= len(quadTuples) {
			return invalid("bad quad codeword")
		}
		if unsigned {
			for i := 0; i < 4; i++ {
				val := quadTuples[cw][i]
				if val == 0 {
					continue
				}
				neg, err := br.ReadBool()
				if err != nil {
					return bitsErr(err)
				}
				if neg {
					dst[off+i] = iquant(-float32(val)) * scale
				} else {
					dst[off+i] = iquant(float32(val)) * scale
				}
			}
		} else {
			for i := 0; i < 4; i++ {
				dst[off+i] = iquant(float32(quadTuples[cw][i]-1)) * scale
			}
		}
	}
	return nil
}

func decodePairs(br *bitio.Reader, cb *huffman.Codebook, unsigned, escape bool, modulo uint16, scale float32, dst []float32) error {
	for off := 0; off+2 <= len(dst); off += 2 {
		cw, err := br.ReadCB(cb)
		if err != nil {
			return bitsErr(err)
		}
		x := int(cw) / int(modulo)
		y := int(cw) % int(modulo)
		if unsigned {
			if x != 0 {
				neg, err := br.ReadBool()
				if err != nil {
					return bitsErr(err)
				}
				if neg {
					x = -x
				}
			}
			if y != 0 {
				neg, err := br.ReadBool()
				if err != nil {
					return bitsErr(err)
				}
				if neg {
					y = -y
				}
			}
		} else {
			x -= int(modulo) >> 1
			y -= int(modulo) >> 1
		}
		if escape {
			if x == 16 || x == -16 {
				esc, err := readEscape(br, x > 0)
				if err != nil {
					return err
				}
				x += esc
			}
			if y == 16 || y == -16 {
				esc, err := readEscape(br, y > 0)
				if err != nil {
					return err
				}
				y += esc
			}
		}
		dst[off] = iquant(float32(x)) * scale
		dst[off+1] = iquant(float32(y)) * scale
	}
	return nil
}

// readEscape reads the |16| escape extension: a unary-ones prefix of up to
// eight bits selecting a (prefix+4)-bit magnitude.
func readEscape(br *bitio.Reader, positive bool) (int, error) {
	prefix, err := br.ReadCode(bitio.UnaryOnes, 0)
	if err != nil {
		return 0, bitsErr(err)
	}
	if prefix >= 9 {
		return 0, invalid("escape prefix too long")
	}
	bits, err := br.Read(int(prefix) + 4)
	if err != nil {
		return 0, bitsErr(err)
	}
	if positive {
		return int(bits), nil
	}
	return -int(bits), nil
}

func (c *ics) decodeSpectrum(br *bitio.Reader) error {
	for i := range c.coeffs {
		c.coeffs[i] = 0
	}
	for g := 0; g < c.info.windowGroups; g++ {
		curW := c.info.getGroupStart(g)
		nextW := c.info.getGroupStart(g + 1)
		for sfb := 0; sfb < c.info.maxSfb; sfb++ {
			start := c.bandStart(sfb)
			end := c.bandStart(sfb + 1)
			cbIdx := c.sfbCB[g][sfb]
			for w := curW; w < nextW; w++ {
				dst := c.coeffs[start+w*128 : end+w*128]
				switch cbIdx {
				case zeroHCB, noiseHCB, intensityHCB, intensityHCB2:
				default:
					unsigned := unsignedCodebook[cbIdx-1]
					scale := getScale(c.scales[g][sfb])
					cb := specCodebooks[cbIdx-1]
					if cbIdx < firstPairHCB {
						if err := decodeQuads(br, cb, unsigned, scale, dst); err != nil {
							return err
						}
					} else {
						if err := decodePairs(br, cb, unsigned, cbIdx == escHCB,
							codebookModulo[cbIdx-firstPairHCB], scale, dst); err != nil {
							return err
						}
					}
				}
			}
		}
	}
	return nil
}

func (c *ics) placePulses() {
	pd := c.pulse
	if pd == nil {
		return
	}
	if pd.startSfb >= len(c.sbinfo.longBands)-1 {
		return
	}
	k := c.bandStart(pd.startSfb)
	band := pd.startSfb
	for pno := 0; pno < pd.numPulse; pno++ {
		k += int(pd.offset[pno])
		if k >= frameSamples {
			return
		}
		for c.bandStart(band+1) <= k {
			band++
		}
		scale := getScale(c.scales[0][band])
		base := c.coeffs[k]
		if base != 0 {
			base = requant(c.coeffs[k], scale)
		}
		if base > 0 {
			base += float32(pd.amp[pno])
		} else {
			base -= float32(pd.amp[pno])
		}
		c.coeffs[k] = iquant(base) * scale
	}
}

func (c *ics) decode(br *bitio.Reader, commonWindow, mayHaveIntensity bool) error {
	gg, err := br.Read(8)
	if err != nil {
		return bitsErr(err)
	}
	c.globalGain = uint8(gg)
	if !commonWindow {
		if err := c.info.decode(br); err != nil {
			return err
		}
	}
	if c.info.maxSfb > c.numBands() {
		return invalid("max_sfb past the band table")
	}
	if err := c.decodeSectionData(br, mayHaveIntensity); err != nil {
		return err
	}
	if err := c.decodeScaleFactors(br); err != nil {
		return err
	}
	c.pulse, err = readPulseData(br)
	if err != nil {
		return err
	}
	if c.pulse != nil && !c.info.longWin {
		return invalid("pulse data in a short window")
	}
	maxOrder := 12
	if !c.info.longWin {
		maxOrder = 7
	}
	c.tns, err = readTNSData(br, c.info.longWin, c.info.numWindows, maxOrder)
	if err != nil {
		return err
	}
	gainPresent, err := br.ReadBool()
	if err != nil {
		return bitsErr(err)
	}
	if gainPresent {
		return mediaerr.Wrap(mediaerr.ErrDecNotImplemented, "aac: SSR gain control data")
	}
	return c.decodeSpectrum(br)
}

// applyTNS runs each window's LPC filters over the spectral coefficients
// along frequency.
func (c *ics) applyTNS(srateIdx int) {
	td := c.tns
	if td == nil {
		return
	}
	tnsMaxBands := tnsMaxShortBands[srateIdx]
	if c.info.longWin {
		tnsMaxBands = tnsMaxLongBands[srateIdx]
	}
	if tnsMaxBands > c.info.maxSfb {
		tnsMaxBands = c.info.maxSfb
	}
	minBand := func(a, b int) int {
		if a < b {
			return a
		}
		return b
	}
	for w := 0; w < c.info.numWindows; w++ {
		bottom := c.numBands()
		for f := 0; f < td.nFilt[w]; f++ {
			top := bottom
			bottom = top - td.coeffs[w][f].length
			if bottom < 0 {
				bottom = 0
			}
			order := td.coeffs[w][f].order
			if order == 0 {
				continue
			}
			start := w*128 + c.bandStart(minBand(tnsMaxBands, bottom))
			end := w*128 + c.bandStart(minBand(tnsMaxBands, top))
			lpc := &td.coeffs[w][f].coef
			var state [64]float32
			sidx := 32
			if !td.coeffs[w][f].direction {
				for m := start; m < end; m++ {
					for i := 0; i < order; i++ {
						c.coeffs[m] -= state[(sidx+i)&63] * lpc[i]
					}
					sidx = (sidx + 63) & 63
					state[sidx] = c.coeffs[m]
				}
			} else {
				for m := end - 1; m >= start; m-- {
					for i := 0; i < order; i++ {
						c.coeffs[m] -= state[(sidx+i)&63] * lpc[i]
					}
					sidx = (sidx + 63) & 63
					state[sidx] = c.coeffs[m]
				}
			}
		}
	}
}

func (c *ics) synth(dsp *filterBank, dst []float32, srateIdx int) {
	c.placePulses()
	c.applyTNS(srateIdx)
	dsp.synth(&c.coeffs, &c.delay, c.info.windowSequence, c.info.windowShape, c.info.prevWindowShape, dst)
}

// channelPair is one SCE or CPE element's decoding state.
type channelPair struct {
	pair          bool
	channel       int
	commonWindow  bool
	msMaskPresent int
	msUsed        [maxWindows][maxSfbs]bool
	ics           [2]ics
}

func newChannelPair(pair bool, channel int, sbinfo subbandInfo) *channelPair {
	cp := &channelPair{pair: pair, channel: channel}
	cp.ics[0].sbinfo = sbinfo
	cp.ics[1].sbinfo = sbinfo
	return cp
}

func (cp *channelPair) decodeSCE(br *bitio.Reader) error {
	return cp.ics[0].decode(br, false, false)
}

func (cp *channelPair) decodeCPE(br *bitio.Reader) error {
	common, err := br.ReadBool()
	if err != nil {
		return bitsErr(err)
	}
	cp.commonWindow = common
	if common {
		if err := cp.ics[0].info.decode(br); err != nil {
			return err
		}
		mask, err := br.Read(2)
		if err != nil {
			return bitsErr(err)
		}
		if mask == 3 {
			return invalid("reserved M/S mask mode")
		}
		cp.msMaskPresent = int(mask)
		if mask == 1 {
			for g := 0; g < cp.ics[0].info.windowGroups; g++ {
				for sfb := 0; sfb < cp.ics[0].info.maxSfb; sfb++ {
					used, err := br.ReadBool()
					if err != nil {
						return bitsErr(err)
					}
					cp.msUsed[g][sfb] = used
				}
			}
		}
		cp.ics[1].info = cp.ics[0].info
	}
	if err := cp.ics[0].decode(br, common, true); err != nil {
		return err
	}
	if err := cp.ics[1].decode(br, common, false); err != nil {
		return err
	}
	if common && cp.msMaskPresent != 0 {
		cp.applyStereo()
	}
	return nil
}

// applyStereo resolves intensity bands (right channel as a scaled copy of
// the left) and M/S bands ((l,r) -> (l+r, l-r)).
func (cp *channelPair) applyStereo() {
	l := &cp.ics[0]
	r := &cp.ics[1]
	g := 0
	for w := 0; w < l.info.numWindows; w++ {
		if w > 0 && l.info.scaleFactorGroup[w-1] {
			g++
		}
		for sfb := 0; sfb < l.info.maxSfb; sfb++ {
			start := w*128 + l.bandStart(sfb)
			end := w*128 + l.bandStart(sfb+1)
			if l.isIntensity(g, sfb) {
				invert := cp.msMaskPresent == 1 && cp.msUsed[g][sfb]
				dir := l.intensityDir(g, sfb) != invert
				scale := float32(math.Pow(0.5, 0.25*(float64(l.scales[g][sfb])+float64(intensityScaleMin))))
				if dir {
					scale = -scale
				}
				for i := start; i < end; i++ {
					r.coeffs[i] = scale * l.coeffs[i]
				}
			} else if cp.msMaskPresent == 2 || cp.msUsed[g][sfb] {
				for i := start; i < end; i++ {
					side := l.coeffs[i] - r.coeffs[i]
					l.coeffs[i] += r.coeffs[i]
					r.coeffs[i] = side
				}
			}
		}
	}
}

// Decoder is the AAC-LC decoder.
type Decoder struct {
	info     frame.CodecInfo
	cfg      audioConfig
	ainfo    format.AudioInfo
	sbinfo   subbandInfo
	srateIdx int
	pairs    []*channelPair
	dsp      *filterBank
}

// New constructs the AAC decoder.
func New() codec.Decoder {
	return &Decoder{}
}

// Register adds the AAC decoder to reg under its stable codec name.
func Register(reg *codec.Registry) {
	reg.Register("aac", New)
}

// Init implements codec.Decoder.
func (d *Decoder) Init(sup *codec.Support, info frame.CodecInfo) error {
	if info.Props.Audio == nil {
		return invalid("codec info carries no audio properties")
	}
	cfg, err := parseAudioConfig(info.ExtraData)
	if err != nil {
		return err
	}
	if cfg.objectType != objTypeLC || cfg.channels > 2 || cfg.channels == 0 || cfg.samples != frameSamples {
		return mediaerr.Wrap(mediaerr.ErrDecNotImplemented,
			"aac: only LC with <=2 channels and 1024-sample frames (got object %d, %d ch, %d samples)",
			cfg.objectType, cfg.channels, cfg.samples)
	}
	d.info = info
	d.cfg = cfg
	d.sbinfo, d.srateIdx = findSubbandInfo(cfg.srate)
	d.ainfo = format.AudioInfo{
		SampleRate: int(cfg.srate),
		Channels:   cfg.channels,
		Format:     format.SonitonF32P,
		BlockLen:   frameSamples,
	}
	d.pairs = nil
	d.dsp = newFilterBank()
	return nil
}

func (d *Decoder) pairAt(pairNo, channel int, pair bool) (*channelPair, error) {
	if len(d.pairs) <= pairNo {
		d.pairs = append(d.pairs, newChannelPair(pair, channel, d.sbinfo))
	}
	cp := d.pairs[pairNo]
	if cp.channel != channel || cp.pair != pair {
		return nil, invalid("element layout changed mid-stream")
	}
	need := channel + 1
	if pair {
		need++
	}
	if need > d.cfg.channels {
		return nil, invalid("more channels than configured")
	}
	return cp, nil
}

// Decode implements codec.Decoder: one packet is one access unit yielding
// one 1024-sample frame. An access unit that holds no channel element
// yields mediaerr.ErrNoFrame instead.
func (d *Decoder) Decode(sup *codec.Support, pkt *frame.Packet) (frame.Frame, error) {
	if d.dsp == nil {
		return frame.Frame{}, mediaerr.Wrap(mediaerr.ErrBug, "aac: decode before init")
	}
	br := bitio.NewReader(pkt.Buffer, bitio.BigEndian)

	curPair, curCh := 0, 0
elements:
	for br.Left() > 3 {
		id, err := br.Read(3)
		if err != nil {
			return frame.Frame{}, bitsErr(err)
		}
		switch id {
		case 0, 3: // SCE / LFE
			if err := br.Skip(4); err != nil { // element tag
				return frame.Frame{}, bitsErr(err)
			}
			cp, err := d.pairAt(curPair, curCh, false)
			if err != nil {
				return frame.Frame{}, err
			}
			if err := cp.decodeSCE(br); err != nil {
				return frame.Frame{}, err
			}
			curPair++
			curCh++
		case 1: // CPE
			if err := br.Skip(4); err != nil {
				return frame.Frame{}, bitsErr(err)
			}
			cp, err := d.pairAt(curPair, curCh, true)
			if err != nil {
				return frame.Frame{}, err
			}
			if err := cp.decodeCPE(br); err != nil {
				return frame.Frame{}, err
			}
			curPair++
			curCh += 2
		case 2: // CCE
			return frame.Frame{}, mediaerr.Wrap(mediaerr.ErrDecNotImplemented, "aac: coupling channel element")
		case 4: // DSE
			if err := br.Skip(4); err != nil {
				return frame.Frame{}, bitsErr(err)
			}
			alignFlag, err := br.ReadBool()
			if err != nil {
				return frame.Frame{}, bitsErr(err)
			}
			count, err := br.Read(8)
			if err != nil {
				return frame.Frame{}, bitsErr(err)
			}
			if count == 255 {
				more, err := br.Read(8)
				if err != nil {
					return frame.Frame{}, bitsErr(err)
				}
				count += more
			}
			if alignFlag {
				br.Align()
			}
			if err := br.Skip(int(count) * 8); err != nil {
				return frame.Frame{}, bitsErr(err)
			}
		case 5: // PCE
			return frame.Frame{}, mediaerr.Wrap(mediaerr.ErrDecNotImplemented, "aac: program config element")
		case 6: // FIL
			count, err := br.Read(4)
			if err != nil {
				return frame.Frame{}, bitsErr(err)
			}
			n := int(count)
			if n == 15 {
				more, err := br.Read(8)
				if err != nil {
					return frame.Frame{}, bitsErr(err)
				}
				n += int(more) - 1
			}
			if err := br.Skip(n * 8); err != nil {
				return frame.Frame{}, bitsErr(err)
			}
		case 7: // END
			break elements
		}
	}

	if curPair == 0 {
		return frame.Frame{}, mediaerr.Wrap(mediaerr.ErrNoFrame, "aac: access unit carried no channel elements")
	}

	abuf, err := buffer.AllocAudioBuffer(d.ainfo, frameSamples, nil)
	if err != nil {
		return frame.Frame{}, mediaerr.Wrap(mediaerr.ErrAlloc, "aac: %v", err)
	}
	out, ok := abuf.GetMutF32()
	if !ok {
		return frame.Frame{}, mediaerr.Wrap(mediaerr.ErrBug, "aac: fresh buffer not writable")
	}
	for p := 0; p < curPair; p++ {
		cp := d.pairs[p]
		off0 := abuf.Offset(cp.channel)
		cp.ics[0].synth(d.dsp, out[off0:off0+frameSamples], d.srateIdx)
		if cp.pair {
			off1 := abuf.Offset(cp.channel + 1)
			cp.ics[1].synth(d.dsp, out[off1:off1+frameSamples], d.srateIdx)
		}
	}

	return frame.NewFrame(pkt.TS, abuf, d.info, frame.TypeOther, true), nil
}

// Flush implements codec.Decoder, clearing the overlap-add delay lines.
func (d *Decoder) Flush() (frame.Frame, bool) {
	for _, cp := range d.pairs {
		for i := range cp.ics {
			for j := range cp.ics[i].delay {
				cp.ics[i].delay[j] = 0
			}
		}
	}
	return frame.Frame{}, false
}

var _ codec.Decoder = (*Decoder)(nil)
