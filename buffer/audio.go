package buffer

import "github.com/mediaframe/core/format"

// MaxChannels bounds the number of channels an AudioBuffer tracks.
const MaxChannels = 8

// AudioBuffer is the planar or interleaved audio buffer variant.
type AudioBuffer struct {
	rc       *refCount
	info     format.AudioInfo
	elemKind Kind // KindAudioU8/I16/I32/F32/Packed
	packed   bool
	nCh      int
	length   int // samples per channel
	offset   [MaxChannels]int
	dataU8   []uint8
	dataI16  []int16
	dataI32  []int32
	dataF32  []float32
}

var _ Buffer = (*AudioBuffer)(nil)

func (b *AudioBuffer) Kind() Kind {
	if b.packed {
		return KindAudioPacked
	}
	return b.elemKind
}

// Clone returns a new handle sharing this buffer's backing storage; O(1).
func (b *AudioBuffer) Clone() *AudioBuffer {
	clone := *b
	clone.rc = b.rc.clone()
	return &clone
}

// Release drops this handle's reference.
func (b *AudioBuffer) Release() { b.rc.release() }

// Channels returns the channel count.
func (b *AudioBuffer) Channels() int { return b.nCh }

// Length returns the number of samples per channel.
func (b *AudioBuffer) Length() int { return b.length }

// Info returns the audio format this buffer was allocated for.
func (b *AudioBuffer) Info() format.AudioInfo { return b.info }

// Offset returns the per-channel sample offset (planar buffers only).
func (b *AudioBuffer) Offset(ch int) int { return b.offset[ch] }

func (b *AudioBuffer) DataU8() []uint8    { return b.dataU8 }
func (b *AudioBuffer) DataI16() []int16   { return b.dataI16 }
func (b *AudioBuffer) DataI32() []int32   { return b.dataI32 }
func (b *AudioBuffer) DataF32() []float32 { return b.dataF32 }

// GetMutF32 returns a mutable view of the float32 backing storage,
// succeeding only when this handle is the sole reference.
func (b *AudioBuffer) GetMutF32() ([]float32, bool) {
	if !b.rc.solelyOwned() {
		return nil, false
	}
	return b.dataF32, true
}

// GetMutI16 is GetMutF32 for the 16-bit signed variant.
func (b *AudioBuffer) GetMutI16() ([]int16, bool) {
	if !b.rc.solelyOwned() {
		return nil, false
	}
	return b.dataI16, true
}

// DataBuffer is the opaque byte-payload variant packets carry.
type DataBuffer struct {
	rc   *refCount
	data []byte
}

var _ Buffer = (*DataBuffer)(nil)

func (b *DataBuffer) Kind() Kind    { return KindData }
func (b *DataBuffer) Release()      { b.rc.release() }
func (b *DataBuffer) Bytes() []byte { return b.data }

func (b *DataBuffer) Clone() *DataBuffer {
	clone := *b
	clone.rc = b.rc.clone()
	return &clone
}

// NewDataBuffer wraps an opaque byte slice as a Buffer with refcounting.
func NewDataBuffer(data []byte) *DataBuffer {
	return &DataBuffer{rc: newRefCount(), data: data}
}

// NoneBuffer is the reserved "no buffer" sentinel.
type NoneBuffer struct{}

var _ Buffer = NoneBuffer{}

func (NoneBuffer) Kind() Kind { return KindNone }
func (NoneBuffer) Release()   {}
