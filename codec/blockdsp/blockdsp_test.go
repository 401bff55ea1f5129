package blockdsp

import "testing"

func TestIDCTDCOnly(t *testing.T) {
	// The net DC gain through both passes is 1/8 (row <<11 >>8, column
	// <<8 >>14), so a lone DC of 1024 reconstructs a flat block of 128.
	var blk [64]int32
	blk[0] = 1024
	IDCT8x8(&blk)
	for i, v := range blk {
		if v < 127 || v > 129 {
			t.Fatalf("sample %d: got %d, want 128 (+/-1)", i, v)
		}
	}
}

func TestIDCTZeroBlock(t *testing.T) {
	var blk [64]int32
	IDCT8x8(&blk)
	for i, v := range blk {
		if v != 0 {
			t.Fatalf("sample %d: got %d, want 0", i, v)
		}
	}
}

func TestPutAddBlockClamp(t *testing.T) {
	plane := make([]uint8, 16*16)
	var blk [64]int32
	for i := range blk {
		blk[i] = int32(i * 8)
	}
	blk[63] = 999
	blk[0] = -5
	PutBlock(plane, 16, 0, 0, &blk)
	if plane[0] != 0 {
		t.Errorf("negative sample not clamped to 0: %d", plane[0])
	}
	if plane[7*16+7] != 255 {
		t.Errorf("oversized sample not clamped to 255: %d", plane[7*16+7])
	}

	var res [64]int32
	for i := range res {
		res[i] = 100
	}
	AddBlock(plane, 16, 0, 0, &res)
	if plane[7*16+7] != 255 {
		t.Errorf("add not clamped to 255: %d", plane[7*16+7])
	}
	if plane[0] != 100 {
		t.Errorf("add onto 0: got %d, want 100", plane[0])
	}
}

func TestEdgeEmulateClampsAllCorners(t *testing.T) {
	w, h := 4, 4
	src := make([]uint8, w*h)
	for i := range src {
		src[i] = uint8(i)
	}
	dst := make([]uint8, 8*8)
	EdgeEmulate(dst, 8, src, w, -2, -2, 8, 8, w, h)

	if dst[0] != src[0] {
		t.Errorf("top-left clamp: got %d, want %d", dst[0], src[0])
	}
	if dst[7*8+7] != src[3*4+3] {
		t.Errorf("bottom-right clamp: got %d, want %d", dst[7*8+7], src[3*4+3])
	}
	// Interior samples line up with the unclamped region.
	if dst[2*8+2] != src[0] || dst[3*8+3] != src[4+1] {
		t.Errorf("interior mapping wrong: %d %d", dst[2*8+2], dst[3*8+3])
	}
}

func TestHalfPelTaps(t *testing.T) {
	src := []uint8{
		10, 20, 30,
		40, 60, 80,
		90, 100, 110,
	}
	dst := make([]uint8, 4)

	CopyFuncs[0](dst, 2, src, 3, 2, 2)
	if dst[0] != 10 || dst[1] != 20 || dst[2] != 40 || dst[3] != 60 {
		t.Errorf("copy00: %v", dst)
	}

	CopyFuncs[1](dst, 2, src, 3, 2, 2)
	if dst[0] != 15 || dst[1] != 25 {
		t.Errorf("copy01 row 0: %v", dst)
	}

	CopyFuncs[2](dst, 2, src, 3, 2, 2)
	if dst[0] != 25 || dst[1] != 40 {
		t.Errorf("copy10 row 0: %v", dst)
	}

	CopyFuncs[3](dst, 2, src, 3, 2, 2)
	// (10+20+40+60+2)>>2 = 33
	if dst[0] != 33 {
		t.Errorf("copy11: got %d, want 33", dst[0])
	}
}

func TestAvgHalvesTowardPrediction(t *testing.T) {
	src := []uint8{100, 100, 100, 100}
	dst := []uint8{0, 0, 0, 0}
	AvgFuncs[0](dst, 2, src, 2, 2, 2)
	for i, v := range dst {
		if v != 50 {
			t.Errorf("avg00 sample %d: got %d, want 50", i, v)
		}
	}
}

func TestCopyBlockOutOfRangeUsesEdgeEmulation(t *testing.T) {
	w, h := 8, 8
	src := make([]uint8, w*h)
	for i := range src {
		src[i] = uint8(i + 1)
	}
	dst := make([]uint8, 16*16)
	// Window starts left of the plane; must not panic and must produce the
	// clamped column.
	CopyBlock(dst, 16, 0, 0, src, w, -4, 0, 8, 8, w, h, 0, false)
	if dst[0] != src[0] {
		t.Errorf("emulated sample: got %d, want %d", dst[0], src[0])
	}
}

func TestLoopFilterSmoothsEdge(t *testing.T) {
	// A hard vertical step across the block edge at x=8.
	plane := make([]uint8, 16*16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if x < 8 {
				plane[y*16+x] = 60
			} else {
				plane[y*16+x] = 80
			}
		}
	}
	FilterColVer(plane, 16, 8, 0, 8, 16)
	b := plane[0*16+7]
	c := plane[0*16+8]
	if b <= 60 || c >= 80 {
		t.Errorf("edge not smoothed: b=%d c=%d", b, c)
	}
	if c < b && c+8 < b {
		t.Errorf("overshoot: b=%d c=%d", b, c)
	}
}

func BenchmarkIDCT8x8(b *testing.B) {
	var blk [64]int32
	for i := range blk {
		blk[i] = int32((i * 13) % 256)
	}
	for i := 0; i < b.N; i++ {
		work := blk
		IDCT8x8(&work)
	}
}
