package buffer

import (
	"errors"
	"testing"

	"github.com/mediaframe/core/format"
	"github.com/mediaframe/core/mediaerr"
)

func yuvInfo(w, h int) format.VideoInfo {
	return format.VideoInfo{Width: w, Height: h, Format: format.YUV420P}
}

func TestAllocVideoBufferPlaneBounds(t *testing.T) {
	b, err := AllocVideoBuffer(yuvInfo(352, 288), 4)
	if err != nil {
		t.Fatalf("AllocVideoBuffer: %v", err)
	}
	if b.Kind() != KindVideo {
		t.Fatalf("kind %v, want Video", b.Kind())
	}
	if b.NumPlanes() != 3 {
		t.Fatalf("planes %d, want 3", b.NumPlanes())
	}
	for p := 0; p < b.NumPlanes(); p++ {
		end := b.Offset(p) + (b.Height(p)-1)*b.Stride(p) + b.Stride(p)
		if end > len(b.Data8()) {
			t.Fatalf("plane %d end %d exceeds data length %d", p, end, len(b.Data8()))
		}
	}
	// Chroma planes half size in both dimensions.
	if b.Height(1) != 144 || b.Height(2) != 144 {
		t.Fatalf("chroma heights %d/%d, want 144", b.Height(1), b.Height(2))
	}
}

func TestAllocVideoBufferStrideAligned(t *testing.T) {
	b, err := AllocVideoBuffer(yuvInfo(100, 50), 5)
	if err != nil {
		t.Fatalf("AllocVideoBuffer: %v", err)
	}
	for p := 0; p < b.NumPlanes(); p++ {
		if b.Stride(p)%32 != 0 {
			t.Fatalf("plane %d stride %d not 32-aligned", p, b.Stride(p))
		}
	}
}

func TestAllocVideoBufferOverflow(t *testing.T) {
	_, err := AllocVideoBuffer(yuvInfo(1<<32, 1<<32), 0)
	if !errors.Is(err, mediaerr.ErrTooLargeDimensions) {
		t.Fatalf("got %v, want TooLargeDimensions", err)
	}
}

func TestAllocVideoBufferMissingChromaton(t *testing.T) {
	pf := format.PixelFormaton{Model: format.ColorYUV, NumComps: 2}
	pf.Chromatons[0] = format.Chromaton{Depth: 8, Present: true}
	// Component 1 declared but not present.
	_, err := AllocVideoBuffer(format.VideoInfo{Width: 16, Height: 16, Format: pf}, 0)
	if !errors.Is(err, mediaerr.ErrFormat) {
		t.Fatalf("got %v, want FormatError", err)
	}
}

func TestPackedAllocation(t *testing.T) {
	b, err := AllocVideoBuffer(format.VideoInfo{Width: 16, Height: 8, Format: format.RGB24}, 0)
	if err != nil {
		t.Fatalf("AllocVideoBuffer: %v", err)
	}
	if b.Kind() != KindVideoPacked {
		t.Fatalf("kind %v, want VideoPacked", b.Kind())
	}
	if b.Stride(0) != 16*3 {
		t.Fatalf("stride %d, want width*elemSize", b.Stride(0))
	}
}

func TestGetMutRequiresExclusivity(t *testing.T) {
	b, err := AllocVideoBuffer(yuvInfo(16, 16), 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := b.GetMutData8(); !ok {
		t.Fatal("sole owner denied mutable access")
	}
	clone := b.Clone()
	if _, ok := b.GetMutData8(); ok {
		t.Fatal("mutable access granted with two live handles")
	}
	clone.Release()
	if _, ok := b.GetMutData8(); !ok {
		t.Fatal("mutable access denied after clone released")
	}
}

func TestPoolGetFreeTracksCheckouts(t *testing.T) {
	pool := NewVideoPool(yuvInfo(32, 32), 4)
	if err := pool.PreallocVideo(2, 0); err != nil {
		t.Fatalf("PreallocVideo: %v", err)
	}
	a := pool.GetFree()
	if a == nil {
		t.Fatal("empty pool at first GetFree")
	}
	// A checked-out pooled buffer stays writable: the pool's own reference
	// never observes entry data.
	if _, ok := a.GetMutData8(); !ok {
		t.Fatal("pooled buffer not writable by its checker-outer")
	}
	b := pool.GetFree()
	if b == nil {
		t.Fatal("second entry not free")
	}
	if pool.GetFree() != nil {
		t.Fatal("exhausted pool still returned a buffer")
	}
	a.Release()
	if pool.GetFree() == nil {
		t.Fatal("released entry not reusable")
	}
}

func TestPoolBufferLosesWritabilityWhenShared(t *testing.T) {
	pool := NewVideoPool(yuvInfo(32, 32), 4)
	if err := pool.PreallocVideo(1, 0); err != nil {
		t.Fatal(err)
	}
	a := pool.GetFree()
	ref := a.Clone() // a decoder keeping it as a reference frame
	if _, ok := a.GetMutData8(); ok {
		t.Fatal("shared pooled buffer still writable")
	}
	ref.Release()
	if _, ok := a.GetMutData8(); !ok {
		t.Fatal("writability not restored after reference released")
	}
}

func TestAllocAudioBufferPlanarOffsets(t *testing.T) {
	info := format.AudioInfo{SampleRate: 44100, Channels: 2, Format: format.SonitonF32P}
	b, err := AllocAudioBuffer(info, 1024, nil)
	if err != nil {
		t.Fatalf("AllocAudioBuffer: %v", err)
	}
	if b.Kind() != KindAudioF32 {
		t.Fatalf("kind %v, want AudioF32", b.Kind())
	}
	if b.Offset(0) != 0 || b.Offset(1) != 1024 {
		t.Fatalf("offsets %d/%d, want 0/1024", b.Offset(0), b.Offset(1))
	}
	if len(b.DataF32()) != 2048 {
		t.Fatalf("data length %d, want 2048", len(b.DataF32()))
	}
}

func TestAllocAudioBufferPackedFallback(t *testing.T) {
	// A non-byte-multiple soniton goes through the packed path.
	info := format.AudioInfo{SampleRate: 8000, Channels: 1, Format: format.Soniton{Bits: 4, Packed: true}}
	b, err := AllocAudioBuffer(info, 16, nil)
	if err != nil {
		t.Fatalf("AllocAudioBuffer: %v", err)
	}
	if b.Kind() != KindAudioPacked {
		t.Fatalf("kind %v, want AudioPacked", b.Kind())
	}
	if len(b.DataU8()) != 8 {
		t.Fatalf("packed size %d bytes, want 8 (16 samples x 4 bits)", len(b.DataU8()))
	}
}

func TestPalettedAllocationAppendsPalette(t *testing.T) {
	pf := format.PixelFormaton{Model: format.ColorRGB, NumComps: 1, IsPaletted: true, ElemSize: 3}
	pf.Chromatons[0] = format.Chromaton{Depth: 8, Present: true}
	b, err := AllocVideoBuffer(format.VideoInfo{Width: 16, Height: 16, Format: pf}, 0)
	if err != nil {
		t.Fatalf("AllocVideoBuffer: %v", err)
	}
	if !b.HasPalette() {
		t.Fatal("palette region missing")
	}
	if b.PaletteOffset() != 16*16 {
		t.Fatalf("palette offset %d, want %d", b.PaletteOffset(), 16*16)
	}
	if len(b.Data8()) != 16*16+256*3 {
		t.Fatalf("total size %d, want pixels+palette", len(b.Data8()))
	}
}
