// Package h263 decodes the H.263 family of video bitstreams this core
// supports: the Intel 263 variant carried in AVI and the RealVideo 2 (RV20)
// variant carried in RealMedia. Both share the macroblock layer, coefficient
// tables, motion compensation, and deblocking; only the payload framing and
// picture/slice header syntax differ, expressed as a small per-variant
// interface the shared decoder drives.
package h263

import (
	"errors"

	"github.com/mediaframe/core/bitio"
	"github.com/mediaframe/core/buffer"
	"github.com/mediaframe/core/codec"
	"github.com/mediaframe/core/codec/blockdsp"
	"github.com/mediaframe/core/format"
	"github.com/mediaframe/core/frame"
	"github.com/mediaframe/core/mediaerr"
)

// acPred selects the coefficient scan for intra blocks.
type acPred int

const (
	acPredNone acPred = iota
	acPredHor
	acPredVer
)

// scan returns the coefficient order: prediction along one axis flips to
// the opposite axis's alternate scan.
func (p acPred) scan() *[64]int {
	switch p {
	case acPredHor:
		return &vertScan
	case acPredVer:
		return &horizScan
	default:
		return &zigzagScan
	}
}

// picInfo is the decoded picture (or slice) header, normalized across
// variants.
type picInfo struct {
	ftype   frame.Type
	quant   uint8
	deblock bool
	aic     bool // advanced intra coding: I-frame intra blocks carry no DC byte
	seq     uint32
	width   int // 0 keeps the current dimensions
	height  int
	mbPos   int // first macroblock this slice covers
}

// variant is the per-codec half of the decoder: payload framing,
// picture-header syntax, and the quantizer-update rule.
type variant interface {
	// splitPayload turns one packet payload into per-slice bitstreams.
	splitPayload(data []byte) ([][]byte, error)
	// parseHeader decodes one slice's picture header.
	parseHeader(br *bitio.Reader, d *Decoder) (picInfo, error)
	// readDquant applies the variant's quantizer-update syntax.
	readDquant(br *bitio.Reader, quant uint8) (uint8, error)
}

// Decoder is the shared H.263-family decoder state.
type Decoder struct {
	variant variant
	info    frame.CodecInfo
	vinfo   format.VideoInfo

	width, height int
	mbW, mbH      int

	pool   *buffer.VideoPool
	fwdRef *buffer.VideoBuffer // older reference, forward prediction of B frames
	bwdRef *buffer.VideoBuffer // most recent reference, P prediction

	grid    *mvGrid
	mbQuant []uint8
}

// bitsErr maps a bit-reader failure onto the decoder taxonomy: running out
// of bits is ShortData, anything else is a malformed stream.
func bitsErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bitio.ErrShortRead) {
		return mediaerr.Wrap(mediaerr.ErrShortData, "h263: bitstream exhausted")
	}
	return mediaerr.Wrap(mediaerr.ErrDecInvalidData, "h263: %v", err)
}

func (d *Decoder) setDimensions(w, h int) {
	d.width, d.height = w, h
	d.mbW = (w + 15) >> 4
	d.mbH = (h + 15) >> 4
	d.vinfo = format.VideoInfo{Width: w, Height: h, Format: format.YUV420P}
	d.grid = newMVGrid(d.mbW, d.mbH)
	d.mbQuant = make([]uint8, d.mbW*d.mbH)
	d.pool = nil
}

// Init implements codec.Decoder.
func (d *Decoder) Init(sup *codec.Support, info frame.CodecInfo) error {
	d.info = info
	if info.Props.Video == nil {
		return mediaerr.Wrap(mediaerr.ErrDecInvalidData, "h263: codec info carries no video properties")
	}
	d.setDimensions(info.Props.Video.Width, info.Props.Video.Height)
	if v, ok := d.variant.(interface{ init(*Decoder) error }); ok {
		return v.init(d)
	}
	return nil
}

func (d *Decoder) ensurePool(sup *codec.Support) error {
	if d.pool != nil {
		return nil
	}
	// Two display frames plus slack for the two references the decoder may
	// be holding at once.
	pool, err := sup.EnsurePool(d.vinfo, 2)
	if err != nil {
		return err
	}
	if pool.Shape().Width != d.width || pool.Shape().Height != d.height {
		// Resolution switch mid-stream: the shared pool no longer fits, so
		// allocate a private one shaped for the new dimensions.
		pool = buffer.NewVideoPool(d.vinfo, 5)
		if err := pool.PreallocVideo(2, 2); err != nil {
			return err
		}
	}
	d.pool = pool
	return nil
}

// planes is a borrowed view of one frame's three YUV planes.
type planes struct {
	data   []uint8
	off    [3]int
	stride [3]int
	height [3]int
	w      [3]int
}

func bufPlanes(b *buffer.VideoBuffer, mutable bool) (planes, error) {
	var p planes
	var data []uint8
	if mutable {
		var ok bool
		data, ok = b.GetMutData8()
		if !ok {
			return p, mediaerr.Wrap(mediaerr.ErrBug, "h263: frame buffer unexpectedly shared")
		}
	} else {
		data = b.Data8()
	}
	p.data = data
	info := b.Info()
	for i := 0; i < 3; i++ {
		p.off[i] = b.Offset(i)
		p.stride[i] = b.Stride(i)
		p.height[i] = b.Height(i)
		c, _ := info.Format.Comp(i)
		p.w[i] = info.Width >> uint(c.HSubsample)
	}
	return p, nil
}

func (p planes) plane(i int) []uint8 { return p.data[p.off[i]:] }

// Decode implements codec.Decoder.
func (d *Decoder) Decode(sup *codec.Support, pkt *frame.Packet) (frame.Frame, error) {
	slices, err := d.variant.splitPayload(pkt.Buffer)
	if err != nil {
		return frame.Frame{}, err
	}
	if len(slices) == 0 {
		return frame.Frame{}, mediaerr.Wrap(mediaerr.ErrShortData, "h263: empty packet")
	}

	// Parse every slice header up front: each slice's macroblock range ends
	// where the next slice begins.
	readers := make([]*bitio.Reader, len(slices))
	headers := make([]picInfo, len(slices))
	for i, sl := range slices {
		readers[i] = bitio.NewReader(sl, bitio.BigEndian)
		hdr, err := d.variant.parseHeader(readers[i], d)
		if err != nil {
			return frame.Frame{}, err
		}
		headers[i] = hdr
	}
	hdr := headers[0]
	if hdr.width != 0 && (hdr.width != d.width || hdr.height != d.height) {
		d.setDimensions(hdr.width, hdr.height)
	}

	switch hdr.ftype {
	case frame.TypeP:
		if d.bwdRef == nil {
			return frame.Frame{}, mediaerr.Wrap(mediaerr.ErrMissingReference, "h263: P frame before any reference")
		}
	case frame.TypeB:
		if d.fwdRef == nil || d.bwdRef == nil {
			return frame.Frame{}, mediaerr.Wrap(mediaerr.ErrMissingReference, "h263: B frame without both references")
		}
	}

	if err := d.ensurePool(sup); err != nil {
		return frame.Frame{}, err
	}
	cur := d.pool.GetFree()
	if cur == nil {
		return frame.Frame{}, mediaerr.Wrap(mediaerr.ErrAlloc, "h263: frame pool exhausted")
	}
	dst, err := bufPlanes(cur, true)
	if err != nil {
		cur.Release()
		return frame.Frame{}, err
	}

	d.grid.reset()
	mbCount := d.mbW * d.mbH
	for i := range slices {
		shdr := headers[i]
		if shdr.ftype != hdr.ftype {
			cur.Release()
			return frame.Frame{}, mediaerr.Wrap(mediaerr.ErrDecInvalidData, "h263: slice frame type mismatch")
		}
		end := mbCount
		if i+1 < len(slices) {
			end = headers[i+1].mbPos
		}
		if shdr.mbPos < 0 || shdr.mbPos > end || end > mbCount {
			cur.Release()
			return frame.Frame{}, mediaerr.Wrap(mediaerr.ErrDecInvalidData, "h263: slice macroblock range %d..%d", shdr.mbPos, end)
		}
		if err := d.decodeSlice(readers[i], shdr, dst, end); err != nil {
			cur.Release()
			return frame.Frame{}, err
		}
	}

	if hdr.deblock {
		d.deblockFrame(dst)
	}

	if hdr.ftype.IsRef() {
		if d.fwdRef != nil {
			d.fwdRef.Release()
		}
		d.fwdRef = d.bwdRef
		d.bwdRef = cur.Clone()
	}

	return frame.NewFrame(pkt.TS, cur, d.info, hdr.ftype, hdr.ftype == frame.TypeI), nil
}

// Flush implements codec.Decoder, dropping the prediction references.
func (d *Decoder) Flush() (frame.Frame, bool) {
	if d.fwdRef != nil {
		d.fwdRef.Release()
		d.fwdRef = nil
	}
	if d.bwdRef != nil {
		d.bwdRef.Release()
		d.bwdRef = nil
	}
	return frame.Frame{}, false
}

func clampQuant(q int) uint8 {
	if q < 1 {
		return 1
	}
	if q > 31 {
		return 31
	}
	return uint8(q)
}

// decodeSlice runs the macroblock loop over [hdr.mbPos, end).
func (d *Decoder) decodeSlice(br *bitio.Reader, hdr picInfo, dst planes, end int) error {
	quant := hdr.quant
	for mbIdx := hdr.mbPos; mbIdx < end; mbIdx++ {
		mbX := mbIdx % d.mbW
		mbY := mbIdx / d.mbW

		var err error
		switch hdr.ftype {
		case frame.TypeI:
			quant, err = d.decodeMBIntraPic(br, hdr, dst, mbX, mbY, quant)
		case frame.TypeP:
			quant, err = d.decodeMBInterPic(br, hdr, dst, mbX, mbY, quant)
		case frame.TypeB:
			quant, err = d.decodeMBB(br, hdr, dst, mbX, mbY, quant)
		default:
			return mediaerr.Wrap(mediaerr.ErrDecInvalidData, "h263: unsupported frame type %v", hdr.ftype)
		}
		if err != nil {
			return err
		}
		d.mbQuant[mbY*d.mbW+mbX] = quant
	}
	return nil
}

// readMCBPC decodes the MCBPC field, skipping stuffing codes.
func readMCBPC(br *bitio.Reader, cb bitio.Codebook) (mbType, cbpc int, err error) {
	for {
		sym, err := br.ReadCB(cb)
		if err != nil {
			return 0, 0, bitsErr(err)
		}
		if sym < 0 {
			continue // stuffing
		}
		return sym >> 2, sym & 3, nil
	}
}

func readCBPY(br *bitio.Reader, intra bool) (int, error) {
	sym, err := br.ReadCB(cbCBPY)
	if err != nil {
		return 0, bitsErr(err)
	}
	if !intra {
		sym ^= 0xF
	}
	return sym, nil
}

// readACPred reads the AC-prediction flag pair used when advanced intra
// coding is active.
func readACPred(br *bitio.Reader) (acPred, error) {
	flag, err := br.ReadBool()
	if err != nil {
		return acPredNone, bitsErr(err)
	}
	if !flag {
		return acPredNone, nil
	}
	dir, err := br.ReadBool()
	if err != nil {
		return acPredNone, bitsErr(err)
	}
	if dir {
		return acPredHor, nil
	}
	return acPredVer, nil
}

// decodeMV reads one motion-vector delta and resolves it against pred.
func decodeMV(br *bitio.Reader, pred MV) (MV, error) {
	read1 := func() (int16, error) {
		sym, err := br.ReadCB(cbMV)
		if err != nil {
			return 0, bitsErr(err)
		}
		if sym == 0 {
			return 0, nil
		}
		sign, err := br.ReadBool()
		if err != nil {
			return 0, bitsErr(err)
		}
		if sign {
			return int16(-sym), nil
		}
		return int16(sym), nil
	}
	dx, err := read1()
	if err != nil {
		return ZeroMV, err
	}
	dy, err := read1()
	if err != nil {
		return ZeroMV, err
	}
	return MV{X: wrapMV(pred.X + dx), Y: wrapMV(pred.Y + dy)}, nil
}

func (d *Decoder) decodeMBIntraPic(br *bitio.Reader, hdr picInfo, dst planes, mbX, mbY int, quant uint8) (uint8, error) {
	mbType, cbpc, err := readMCBPC(br, cbIntraMCBPC)
	if err != nil {
		return quant, err
	}
	if mbType != mbIntra && mbType != mbIntraQ {
		return quant, mediaerr.Wrap(mediaerr.ErrDecInvalidData, "h263: inter macroblock in I frame")
	}

	pred := acPredNone
	if hdr.aic {
		if pred, err = readACPred(br); err != nil {
			return quant, err
		}
	}

	cbpy, err := readCBPY(br, true)
	if err != nil {
		return quant, err
	}
	if mbType == mbIntraQ {
		if quant, err = d.variant.readDquant(br, quant); err != nil {
			return quant, err
		}
	}

	cbp := cbpy<<2 | cbpc
	if err := d.reconIntra(br, hdr, dst, mbX, mbY, cbp, quant, pred, true); err != nil {
		return quant, err
	}
	d.setMBVectors(mbX, mbY, [4]MV{})
	return quant, nil
}

func (d *Decoder) decodeMBInterPic(br *bitio.Reader, hdr picInfo, dst planes, mbX, mbY int, quant uint8) (uint8, error) {
	notCoded, err := br.ReadBool()
	if err != nil {
		return quant, bitsErr(err)
	}
	ref, err := bufPlanes(d.bwdRef, false)
	if err != nil {
		return quant, err
	}
	if notCoded {
		d.copyMB(dst, ref, mbX, mbY, [4]MV{}, false)
		d.setMBVectors(mbX, mbY, [4]MV{})
		return quant, nil
	}

	mbType, cbpc, err := readMCBPC(br, cbInterMCBPC)
	if err != nil {
		return quant, err
	}

	if mbType == mbIntra || mbType == mbIntraQ {
		pred := acPredNone
		if hdr.aic {
			if pred, err = readACPred(br); err != nil {
				return quant, err
			}
		}
		cbpy, err := readCBPY(br, true)
		if err != nil {
			return quant, err
		}
		if mbType == mbIntraQ {
			if quant, err = d.variant.readDquant(br, quant); err != nil {
				return quant, err
			}
		}
		cbp := cbpy<<2 | cbpc
		if err := d.reconIntra(br, hdr, dst, mbX, mbY, cbp, quant, pred, false); err != nil {
			return quant, err
		}
		d.setMBVectors(mbX, mbY, [4]MV{})
		return quant, nil
	}

	cbpy, err := readCBPY(br, false)
	if err != nil {
		return quant, err
	}
	if mbType == mbInterQ || mbType == mbInter4VQ {
		if quant, err = d.variant.readDquant(br, quant); err != nil {
			return quant, err
		}
	}

	bx, by := mbX*2, mbY*2
	var mvs [4]MV
	fourMV := mbType == mbInter4V || mbType == mbInter4VQ
	if fourMV {
		order := [4][2]int{{bx, by}, {bx + 1, by}, {bx, by + 1}, {bx + 1, by + 1}}
		for i, pos := range order {
			mv, err := decodeMV(br, d.grid.predict(pos[0], pos[1]))
			if err != nil {
				return quant, err
			}
			mvs[i] = mv
			d.grid.set(pos[0], pos[1], mv)
		}
	} else {
		mv, err := decodeMV(br, d.grid.predict(bx, by))
		if err != nil {
			return quant, err
		}
		mvs = [4]MV{mv, mv, mv, mv}
		d.setMBVectors(mbX, mbY, mvs)
	}

	d.copyMB(dst, ref, mbX, mbY, mvs, fourMV)

	cbp := cbpy<<2 | cbpc
	return quant, d.addResidual(br, dst, mbX, mbY, cbp, quant)
}

func (d *Decoder) decodeMBB(br *bitio.Reader, hdr picInfo, dst planes, mbX, mbY int, quant uint8) (uint8, error) {
	sym, err := br.ReadCB(cbMBTypeB)
	if err != nil {
		return quant, bitsErr(err)
	}
	if sym < 0 || sym >= len(mbTypeBModes) {
		return quant, mediaerr.Wrap(mediaerr.ErrDecInvalidData, "h263: bad B macroblock mode %d", sym)
	}
	mode := mbTypeBModes[sym]

	var cbp int
	if mode.coded {
		cbpc, err := br.ReadCB(cbCBPCB)
		if err != nil {
			return quant, bitsErr(err)
		}
		cbpy, err := readCBPY(br, mode.intra)
		if err != nil {
			return quant, err
		}
		cbp = cbpy<<2 | (cbpc & 3)
	}
	if mode.dquant {
		if quant, err = d.variant.readDquant(br, quant); err != nil {
			return quant, err
		}
	}

	if mode.intra {
		if err := d.reconIntra(br, hdr, dst, mbX, mbY, cbp, quant, acPredNone, false); err != nil {
			return quant, err
		}
		return quant, nil
	}

	if !mode.forward && !mode.backward {
		// Direct mode needs the co-located future P vector temporally
		// scaled, which this decoder does not derive.
		return quant, mediaerr.Wrap(mediaerr.ErrDecNotImplemented, "h263: direct-mode B macroblock")
	}

	bx, by := mbX*2, mbY*2
	var fwdMV, bwdMV MV
	if mode.forward {
		fwdMV, err = decodeMV(br, d.grid.predict(bx, by))
		if err != nil {
			return quant, err
		}
		d.setMBVectors(mbX, mbY, [4]MV{fwdMV, fwdMV, fwdMV, fwdMV})
	}
	if mode.backward {
		bwdMV, err = decodeMV(br, ZeroMV)
		if err != nil {
			return quant, err
		}
	}

	if mode.forward {
		ref, err := bufPlanes(d.fwdRef, false)
		if err != nil {
			return quant, err
		}
		d.copyMB(dst, ref, mbX, mbY, [4]MV{fwdMV, fwdMV, fwdMV, fwdMV}, false)
	}
	if mode.backward {
		ref, err := bufPlanes(d.bwdRef, false)
		if err != nil {
			return quant, err
		}
		mvs := [4]MV{bwdMV, bwdMV, bwdMV, bwdMV}
		if mode.forward {
			d.avgMB(dst, ref, mbX, mbY, mvs)
		} else {
			d.copyMB(dst, ref, mbX, mbY, mvs, false)
		}
	}

	if mode.coded {
		return quant, d.addResidual(br, dst, mbX, mbY, cbp, quant)
	}
	return quant, nil
}

func (d *Decoder) setMBVectors(mbX, mbY int, mvs [4]MV) {
	bx, by := mbX*2, mbY*2
	d.grid.set(bx, by, mvs[0])
	d.grid.set(bx+1, by, mvs[1])
	d.grid.set(bx, by+1, mvs[2])
	d.grid.set(bx+1, by+1, mvs[3])
}

// copyMB motion-compensates one macroblock from ref into dst.
func (d *Decoder) copyMB(dst, ref planes, mbX, mbY int, mvs [4]MV, fourMV bool) {
	lx, ly := mbX*16, mbY*16
	if fourMV {
		for i, mv := range mvs {
			ox, oy := (i&1)*8, (i>>1)*8
			d.mcBlock(dst, ref, 0, lx+ox, ly+oy, 8, 8, mv, false)
		}
	} else {
		d.mcBlock(dst, ref, 0, lx, ly, 16, 16, mvs[0], false)
	}
	cmv := chromaMV(mvs)
	cx, cy := mbX*8, mbY*8
	d.mcBlock(dst, ref, 1, cx, cy, 8, 8, cmv, false)
	d.mcBlock(dst, ref, 2, cx, cy, 8, 8, cmv, false)
}

// avgMB averages a second prediction into dst (bidirectional B blocks).
func (d *Decoder) avgMB(dst, ref planes, mbX, mbY int, mvs [4]MV) {
	lx, ly := mbX*16, mbY*16
	d.mcBlock(dst, ref, 0, lx, ly, 16, 16, mvs[0], true)
	cmv := chromaMV(mvs)
	cx, cy := mbX*8, mbY*8
	d.mcBlock(dst, ref, 1, cx, cy, 8, 8, cmv, true)
	d.mcBlock(dst, ref, 2, cx, cy, 8, 8, cmv, true)
}

func (d *Decoder) mcBlock(dst, ref planes, plane, x, y, bw, bh int, mv MV, avg bool) {
	sx := x + int(mv.X>>1)
	sy := y + int(mv.Y>>1)
	mode := int(mv.Y&1)<<1 | int(mv.X&1)
	blockdsp.CopyBlock(dst.plane(plane), dst.stride[plane], x, y,
		ref.plane(plane), ref.stride[plane], sx, sy, bw, bh,
		ref.w[plane], ref.height[plane], mode, avg)
}

// reconIntra decodes and places the six blocks of an intra macroblock.
// iframe selects the advanced-intra coefficient path, where the DC value is
// folded into the run-level data instead of a leading fixed-width code.
func (d *Decoder) reconIntra(br *bitio.Reader, hdr picInfo, dst planes, mbX, mbY, cbp int, quant uint8, pred acPred, iframe bool) error {
	scan := pred.scan()
	for blkNo := 0; blkNo < 6; blkNo++ {
		coded := cbp&(1<<(5-blkNo)) != 0
		var blk [64]int32
		if err := d.decodeBlock(br, &blk, true, iframe && hdr.aic, coded, quant, blkNo >= 4, scan); err != nil {
			return err
		}
		blockdsp.IDCT8x8(&blk)
		plane, x, y := blockPos(mbX, mbY, blkNo)
		blockdsp.PutBlock(dst.plane(plane), dst.stride[plane], x, y, &blk)
	}
	return nil
}

// addResidual decodes the coded blocks of an inter macroblock and adds them
// onto the prediction already in dst.
func (d *Decoder) addResidual(br *bitio.Reader, dst planes, mbX, mbY, cbp int, quant uint8) error {
	for blkNo := 0; blkNo < 6; blkNo++ {
		if cbp&(1<<(5-blkNo)) == 0 {
			continue
		}
		var blk [64]int32
		if err := d.decodeBlock(br, &blk, false, false, true, quant, blkNo >= 4, &zigzagScan); err != nil {
			return err
		}
		blockdsp.IDCT8x8(&blk)
		plane, x, y := blockPos(mbX, mbY, blkNo)
		blockdsp.AddBlock(dst.plane(plane), dst.stride[plane], x, y, &blk)
	}
	return nil
}

// blockPos maps a block number (0-3 luma, 4-5 chroma) to its plane and
// pixel coordinates.
func blockPos(mbX, mbY, blkNo int) (plane, x, y int) {
	if blkNo < 4 {
		return 0, mbX*16 + (blkNo&1)*8, mbY*16 + (blkNo>>1)*8
	}
	return blkNo - 3, mbX * 8, mbY * 8
}

// decodeBlock reads one 8x8 coefficient block. Intra blocks outside the
// advanced-intra path start with a fixed 8-bit DC code; AC coefficients
// follow only when the block is coded. Reconstruction scales each level by
// 2*quant (luma) or the chroma quantizer, then offsets it away from zero by
// (quant-1)|1 except on the advanced-intra path.
func (d *Decoder) decodeBlock(br *bitio.Reader, blk *[64]int32, intra, aicPath, coded bool, quant uint8, chroma bool, scan *[64]int) error {
	pos := 0
	table := cbRLInter
	qAdd := int32((quant - 1) | 1)
	if aicPath {
		table = cbRLIntraAIC
		qAdd = 0
	}
	scale := int32(quant) * 2
	if chroma {
		scale = int32(chromaQuant[quant&31])
	}

	if intra && !aicPath {
		dc, err := br.Read(8)
		if err != nil {
			return bitsErr(err)
		}
		if dc == 255 {
			dc = 128
		}
		blk[0] = int32(dc) << 3
		pos = 1
	}
	if !coded {
		return nil
	}

	applyQ := func(level int32) int32 {
		v := level * scale
		if qAdd == 0 || v == 0 {
			return v
		}
		if v > 0 {
			return v + qAdd
		}
		return v - qAdd
	}

	for {
		sym, err := br.ReadCB(table)
		if err != nil {
			return bitsErr(err)
		}
		var last bool
		var run int
		var level int32
		if sym == rlEscape {
			lastBit, err := br.ReadBool()
			if err != nil {
				return bitsErr(err)
			}
			runBits, err := br.Read(6)
			if err != nil {
				return bitsErr(err)
			}
			lvl32, err := br.ReadS(8)
			if err != nil {
				return bitsErr(err)
			}
			lvl := lvl32
			if lvl == -128 {
				low, err := br.Read(5)
				if err != nil {
					return bitsErr(err)
				}
				top, err := br.ReadS(6)
				if err != nil {
					return bitsErr(err)
				}
				lvl = top<<5 | int32(low)
			}
			if lvl == 0 {
				return mediaerr.Wrap(mediaerr.ErrDecInvalidData, "h263: zero escape level")
			}
			last, run, level = lastBit, int(runBits), applyQ(lvl)
			if level < -2048 {
				level = -2048
			} else if level > 2047 {
				level = 2047
			}
		} else {
			pair := unpackRL(sym)
			sign, err := br.ReadBool()
			if err != nil {
				return bitsErr(err)
			}
			lvl := pair.level
			if sign {
				lvl = -lvl
			}
			last, run, level = pair.last, pair.run, applyQ(lvl)
		}

		pos += run
		if pos > 63 {
			return mediaerr.Wrap(mediaerr.ErrDecInvalidData, "h263: coefficient run past block end")
		}
		blk[scan[pos]] = level
		pos++
		if last {
			return nil
		}
		if pos > 63 {
			return mediaerr.Wrap(mediaerr.ErrDecInvalidData, "h263: block not terminated")
		}
	}
}

// deblockFrame applies the loop filter across every 8-pel block edge:
// all vertical edges first, then the horizontal ones, strength indexed by
// the per-macroblock quantizer.
func (d *Decoder) deblockFrame(dst planes) {
	for mbY := 0; mbY < d.mbH; mbY++ {
		for mbX := 0; mbX < d.mbW; mbX++ {
			q := d.mbQuant[mbY*d.mbW+mbX]
			cq := chromaQuant[q&31]
			top := mbY * 16
			h := 16
			if top+h > d.height {
				h = d.height - top
			}
			for _, bx := range [2]int{mbX * 16, mbX*16 + 8} {
				if bx == 0 || bx+1 >= d.width {
					continue
				}
				blockdsp.FilterColVer(dst.plane(0), dst.stride[0], bx, top, h, q)
			}
			cbx := mbX * 8
			if cbx > 0 && cbx+1 < d.width/2 {
				ch := 8
				if mbY*8+ch > d.height/2 {
					ch = d.height/2 - mbY*8
				}
				blockdsp.FilterColVer(dst.plane(1), dst.stride[1], cbx, mbY*8, ch, cq)
				blockdsp.FilterColVer(dst.plane(2), dst.stride[2], cbx, mbY*8, ch, cq)
			}
		}
	}
	for mbY := 0; mbY < d.mbH; mbY++ {
		for mbX := 0; mbX < d.mbW; mbX++ {
			q := d.mbQuant[mbY*d.mbW+mbX]
			cq := chromaQuant[q&31]
			left := mbX * 16
			w := 16
			if left+w > d.width {
				w = d.width - left
			}
			for _, by := range [2]int{mbY * 16, mbY*16 + 8} {
				if by < 2 || by+2 > d.height {
					continue
				}
				blockdsp.FilterRowHor(dst.plane(0), dst.stride[0], left, by, w, q)
			}
			cby := mbY * 8
			if cby >= 2 && cby+2 <= d.height/2 {
				cw := 8
				if mbX*8+cw > d.width/2 {
					cw = d.width/2 - mbX*8
				}
				blockdsp.FilterRowHor(dst.plane(1), dst.stride[1], mbX*8, cby, cw, cq)
				blockdsp.FilterRowHor(dst.plane(2), dst.stride[2], mbX*8, cby, cw, cq)
			}
		}
	}
}
