package buffer

import (
	"math"

	"github.com/mediaframe/core/format"
	"github.com/mediaframe/core/mediaerr"
)

// alignUp rounds v up to the next multiple of 1<<logAlign.
func alignUp(v int, logAlign uint) int {
	mask := (1 << logAlign) - 1
	return (v + mask) &^ mask
}

// safeMul multiplies two non-negative ints, reporting overflow the way a
// checked multiply would.
func safeMul(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a < 0 || b < 0 || a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

func safeAdd(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// AllocVideoBuffer allocates a video buffer for info, aligning each plane's
// stride up to 1<<logAlign bytes/elements.
func AllocVideoBuffer(info format.VideoInfo, logAlign uint) (*VideoBuffer, error) {
	pf := info.Format
	if pf.NumComps <= 0 {
		return nil, mediaerr.ErrFormat
	}
	for i := 0; i < pf.NumComps; i++ {
		if c, ok := pf.Comp(i); !ok || !c.Present {
			_ = c
			return nil, mediaerr.ErrFormat
		}
	}

	maxDepth := pf.MaxDepth()
	elem := uint8(8)
	switch {
	case maxDepth > 16:
		elem = 32
	case maxDepth > 8:
		elem = 16
	}

	b := &VideoBuffer{rc: newRefCount(), info: info, elem: elem, palette: -1}

	if pf.AllPacked() {
		return allocPackedVideo(b, info, logAlign)
	}
	return allocPlanarVideo(b, info, logAlign)
}

func allocPlanarVideo(b *VideoBuffer, info format.VideoInfo, logAlign uint) (*VideoBuffer, error) {
	pf := info.Format
	b.numPl = pf.NumComps

	total := 0
	for i := 0; i < pf.NumComps; i++ {
		c, _ := pf.Comp(i)
		lineBytes := c.Linesize(info.Width)
		lineBytes = alignUp(lineBytes, logAlign)
		h := c.PlaneHeight(info.Height)

		planeBytes, ok := safeMul(lineBytes, h)
		if !ok {
			return nil, mediaerr.ErrTooLargeDimensions
		}
		newTotal, ok := safeAdd(total, planeBytes)
		if !ok {
			return nil, mediaerr.ErrTooLargeDimensions
		}

		// Offsets/strides are tracked in elements of the chosen width; for
		// planar 8-bit formats elements == bytes.
		elemsPerLine := lineBytes / int(b.elem/8)
		if elemsPerLine == 0 && lineBytes > 0 {
			elemsPerLine = lineBytes
		}
		b.offset[i] = total / max1(int(b.elem/8))
		b.stride[i] = elemsPerLine
		b.height[i] = h
		total = newTotal
	}

	if pf.IsPaletted {
		entrySize := pf.ElemSize
		if entrySize == 0 {
			entrySize = 3
		}
		paletteBytes, ok := safeMul(256, entrySize)
		if !ok {
			return nil, mediaerr.ErrTooLargeDimensions
		}
		b.palette = total
		newTotal, ok := safeAdd(total, paletteBytes)
		if !ok {
			return nil, mediaerr.ErrTooLargeDimensions
		}
		total = newTotal
	}

	switch b.elem {
	case 8:
		b.data8 = make([]uint8, total)
	case 16:
		b.data16 = make([]uint16, total/2)
	case 32:
		b.data32 = make([]uint32, total/4)
	}
	return b, nil
}

func allocPackedVideo(b *VideoBuffer, info format.VideoInfo, logAlign uint) (*VideoBuffer, error) {
	pf := info.Format
	b.numPl = 1
	b.packed = true

	elemSize := pf.ElemSize
	if elemSize == 0 {
		elemSize = 1
	}

	lineBytes, ok := safeMul(info.Width, elemSize)
	if !ok {
		return nil, mediaerr.ErrTooLargeDimensions
	}
	lineBytes = alignUp(lineBytes, logAlign)

	planeBytes, ok := safeMul(lineBytes, info.Height)
	if !ok {
		return nil, mediaerr.ErrTooLargeDimensions
	}

	total := planeBytes
	if pf.IsPaletted {
		entrySize := 3
		paletteBytes, ok := safeMul(256, entrySize)
		if !ok {
			return nil, mediaerr.ErrTooLargeDimensions
		}
		b.palette = total
		total, ok = safeAdd(total, paletteBytes)
		if !ok {
			return nil, mediaerr.ErrTooLargeDimensions
		}
	}

	b.stride[0] = lineBytes / max1(int(b.elem/8))
	b.height[0] = info.Height
	b.offset[0] = 0

	switch b.elem {
	case 8:
		b.data8 = make([]uint8, total)
	case 16:
		b.data16 = make([]uint16, total/2)
	case 32:
		b.data32 = make([]uint32, total/4)
	}
	return b, nil
}

func max1(v int) int {
	if v <= 0 {
		return 1
	}
	return v
}

// AllocAudioBuffer allocates an audio buffer for nsamples samples per
// channel: planar sonitons with
// a byte-multiple bit width get one offset per channel; everything else
// becomes an interleaved AudioPacked buffer sized by soniton.AudioSize.
func AllocAudioBuffer(info format.AudioInfo, nsamples int, channelMap []int) (*AudioBuffer, error) {
	if info.Channels <= 0 || info.Channels > MaxChannels {
		return nil, mediaerr.ErrFormat
	}
	if nsamples < 0 {
		return nil, mediaerr.ErrTooLargeDimensions
	}

	b := &AudioBuffer{rc: newRefCount(), info: info, nCh: info.Channels, length: nsamples}

	if info.Format.Planar && info.Format.Bits%8 == 0 {
		for ch := 0; ch < info.Channels; ch++ {
			b.offset[ch] = ch * nsamples
		}
		total, ok := safeMul(nsamples, info.Channels)
		if !ok {
			return nil, mediaerr.ErrTooLargeDimensions
		}
		switch {
		case info.Format.Float:
			b.elemKind = KindAudioF32
			b.dataF32 = make([]float32, total)
		case info.Format.Bits == 16:
			b.elemKind = KindAudioI16
			b.dataI16 = make([]int16, total)
		case info.Format.Bits == 32:
			b.elemKind = KindAudioI32
			b.dataI32 = make([]int32, total)
		default:
			b.elemKind = KindAudioU8
			b.dataU8 = make([]uint8, total)
		}
		return b, nil
	}

	total, ok := safeMul(nsamples, info.Channels)
	if !ok {
		return nil, mediaerr.ErrTooLargeDimensions
	}
	size := info.Format.AudioSize(total)
	b.packed = true
	b.dataU8 = make([]uint8, size)
	return b, nil
}
