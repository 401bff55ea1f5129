package buffer

import (
	"sync/atomic"

	"github.com/mediaframe/core/format"
)

// MaxPlanes bounds the number of planes a VideoBuffer tracks, matching
// format.MaxChromatons.
const MaxPlanes = format.MaxChromatons

// VideoBuffer is the planar or single-plane packed video buffer. The
// u8/u16/u32 and packed variants are unified by an element-width and
// packed discriminant rather than four separate types; Kind still reports
// which variant a given buffer is.
type VideoBuffer struct {
	rc      *refCount
	pooled  bool // handle came from a VideoPool, whose own reference never reads the data
	info    format.VideoInfo
	elem    uint8 // 8, 16, or 32
	packed  bool  // true => single interleaved plane (VideoPacked/Video16/Video32 packed case)
	numPl   int
	offset  [MaxPlanes]int
	stride  [MaxPlanes]int // in elements, not bytes
	height  [MaxPlanes]int
	data8   []uint8
	data16  []uint16
	data32  []uint32
	palette int // byte offset of the 256-entry palette within data8, -1 if none
}

var _ Buffer = (*VideoBuffer)(nil)

// Kind reports the tagged-union variant this buffer holds.
func (b *VideoBuffer) Kind() Kind {
	switch {
	case b.packed && b.elem == 8:
		return KindVideoPacked
	case b.elem == 16:
		return KindVideo16
	case b.elem == 32:
		return KindVideo32
	default:
		return KindVideo
	}
}

// Clone returns a new handle sharing this buffer's backing storage; O(1).
func (b *VideoBuffer) Clone() *VideoBuffer {
	clone := *b
	clone.rc = b.rc.clone()
	return &clone
}

// Release drops this handle's reference.
func (b *VideoBuffer) Release() {
	b.rc.release()
}

// NumPlanes returns the number of planes (1 for packed/palette formats).
func (b *VideoBuffer) NumPlanes() int { return b.numPl }

// Info returns the video format this buffer was allocated for.
func (b *VideoBuffer) Info() format.VideoInfo { return b.info }

// Offset returns the element offset of plane i within the buffer's backing
// storage.
func (b *VideoBuffer) Offset(i int) int { return b.offset[i] }

// Stride returns the element stride (elements per row) of plane i.
func (b *VideoBuffer) Stride(i int) int { return b.stride[i] }

// Height returns the row count of plane i.
func (b *VideoBuffer) Height(i int) int { return b.height[i] }

// Data8 returns the backing u8 storage (KindVideo/KindVideoPacked).
func (b *VideoBuffer) Data8() []uint8 { return b.data8 }

// Data16 returns the backing u16 storage (KindVideo16).
func (b *VideoBuffer) Data16() []uint16 { return b.data16 }

// Data32 returns the backing u32 storage (KindVideo32).
func (b *VideoBuffer) Data32() []uint32 { return b.data32 }

// HasPalette reports whether a 256-entry palette region follows the pixel
// data.
func (b *VideoBuffer) HasPalette() bool { return b.palette >= 0 }

// PaletteOffset returns the byte offset of the palette region within
// Data8, valid only when HasPalette is true.
func (b *VideoBuffer) PaletteOffset() int { return b.palette }

// exclusive reports whether this handle may mutate the backing storage: it
// is the sole reference, or the only other reference is the owning pool's,
// which never observes entry data.
func (b *VideoBuffer) exclusive() bool {
	if b.rc.solelyOwned() {
		return true
	}
	return b.pooled && loadRC(b.rc) == 2
}

// GetMutData8 returns a mutable view of the u8 backing storage, succeeding
// only when no other live handle could observe the data. This is the only
// way a decoder may write into a buffer it did not just allocate.
func (b *VideoBuffer) GetMutData8() ([]uint8, bool) {
	if !b.exclusive() {
		return nil, false
	}
	return b.data8, true
}

// GetMutData16 is GetMutData8 for 16-bit element buffers.
func (b *VideoBuffer) GetMutData16() ([]uint16, bool) {
	if !b.exclusive() {
		return nil, false
	}
	return b.data16, true
}

// GetMutData32 is GetMutData8 for 32-bit element buffers.
func (b *VideoBuffer) GetMutData32() ([]uint32, bool) {
	if !b.exclusive() {
		return nil, false
	}
	return b.data32, true
}

// RefCount reports the current number of live handles, for tests and
// diagnostics only — not part of the decoding contract.
func (b *VideoBuffer) RefCount() int32 {
	return loadRC(b.rc)
}

func loadRC(r *refCount) int32 {
	return atomic.LoadInt32(&r.n)
}
