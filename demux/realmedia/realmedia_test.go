package realmedia

import (
	"bytes"
	"testing"
)

func TestGenrDeinterleaveReordersSubbands(t *testing.T) {
	ii := &interleaveInfo{id: ileaveGenr, factor: 2, blockSize: 4, frameSize: 8}
	g := newGenrDeinterleaver(ii)

	p0 := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}
	p1 := []byte{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17}

	if out := g.addPacket(0, p0); out != nil {
		t.Fatalf("expected nil after first of 2 packets, got %v", out)
	}
	out := g.addPacket(1, p1)
	if out == nil {
		t.Fatal("expected reconstructed frames after second packet")
	}
	want0 := []byte{0x00, 0x01, 0x02, 0x03, 0x10, 0x11, 0x12, 0x13}
	want1 := []byte{0x04, 0x05, 0x06, 0x07, 0x14, 0x15, 0x16, 0x17}
	if !bytes.Equal(out[0], want0) {
		t.Fatalf("frame 0 = % x, want % x", out[0], want0)
	}
	if !bytes.Equal(out[1], want1) {
		t.Fatalf("frame 1 = % x, want % x", out[1], want1)
	}
}

func TestSiprDeinterleaveCollectsGroup(t *testing.T) {
	ii := &interleaveInfo{id: ileaveSipr, factor: 2, frameSize: 4}
	s := newSiprDeinterleaver(ii)
	if out := s.addPacket(0, []byte{1, 2, 3, 4}); out != nil {
		t.Fatal("expected nil before group completes")
	}
	out := s.addPacket(1, []byte{5, 6, 7, 8})
	if len(out) != 2 {
		t.Fatalf("got %d frames, want 2", len(out))
	}
	if !bytes.Equal(out[0], []byte{1, 2, 3, 4}) || !bytes.Equal(out[1], []byte{5, 6, 7, 8}) {
		t.Fatalf("frames = % x / % x", out[0], out[1])
	}
}

func TestVideoAccumWholeFramePacket(t *testing.T) {
	v := &videoAccum{}
	pkt := []byte{0x40, 0x01, 0xAA, 0xBB, 0xCC}
	out, err := v.addPacket(pkt)
	if err != nil {
		t.Fatalf("addPacket: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d frames, want 1", len(out))
	}
	fr := out[0].data
	// One-slice table: count byte 0, marker at offset 4, payload at 9.
	if fr[0] != 0 || fr[4] != 1 {
		t.Fatalf("bad slice table prefix: % x", fr[:9])
	}
	if !bytes.Equal(fr[9:], []byte{0xAA, 0xBB, 0xCC}) {
		t.Fatalf("payload = % x, want AA BB CC", fr[9:])
	}
}

// fragmentHeader builds the two leading bytes of a partial/tail packet: the
// mode in the top two bits, then the 7-bit fragment count and 7-bit
// fragment number.
func fragmentHeader(mode, numPkts, packetNum int) []byte {
	hdr := uint16(mode)<<14 | uint16(numPkts)<<7 | uint16(packetNum)
	return []byte{byte(hdr >> 8), byte(hdr)}
}

func TestVideoAccumThreeFragmentReassembly(t *testing.T) {
	v := &videoAccum{}
	total := 2000 + 1800 + 800
	whole := make([]byte, total)
	for i := range whole {
		whole[i] = byte(i)
	}

	start := fragmentHeader(0, 3, 1)
	start = append(start, encode14or30(uint32(total))...)
	start = append(start, encode14or30(0)...)
	start = append(start, 0) // sequence number
	start = append(start, whole[:2000]...)

	out, err := v.addPacket(start)
	if err != nil {
		t.Fatalf("start fragment: %v", err)
	}
	if out != nil {
		t.Fatal("expected incomplete frame after first fragment")
	}

	mid := fragmentHeader(0, 3, 2)
	mid = append(mid, encode14or30(uint32(total))...)
	mid = append(mid, encode14or30(2000)...)
	mid = append(mid, 0)
	mid = append(mid, whole[2000:3800]...)
	out, err = v.addPacket(mid)
	if err != nil {
		t.Fatalf("mid fragment: %v", err)
	}
	if out != nil {
		t.Fatal("expected incomplete frame after second fragment")
	}

	tail := fragmentHeader(2, 3, 3)
	tail = append(tail, encode14or30(uint32(total))...)
	tail = append(tail, encode14or30(800)...)
	tail = append(tail, 0)
	tail = append(tail, whole[3800:]...)
	out, err = v.addPacket(tail)
	if err != nil {
		t.Fatalf("tail fragment: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d frames, want 1", len(out))
	}
	fr := out[0].data
	hdrSize := 3*8 + 1
	if fr[0] != 2 {
		t.Fatalf("slice count byte = %d, want 2", fr[0])
	}
	if !bytes.Equal(fr[hdrSize:], whole) {
		t.Fatal("reassembled frame does not match source bytes")
	}
	// The slice table records each fragment's running start offset.
	wantOffs := []int{0, 2000, 3800}
	for i, want := range wantOffs {
		off := 1 + i*8
		if fr[off+3] != 1 {
			t.Fatalf("slice %d marker missing", i)
		}
		got := int(fr[off+4])<<24 | int(fr[off+5])<<16 | int(fr[off+6])<<8 | int(fr[off+7])
		if got != want {
			t.Fatalf("slice %d offset = %d, want %d", i, got, want)
		}
	}
}

func TestVideoAccumTailWithoutStartEmitsNothing(t *testing.T) {
	v := &videoAccum{}
	tail := fragmentHeader(2, 3, 3)
	tail = append(tail, encode14or30(100)...)
	tail = append(tail, encode14or30(40)...)
	tail = append(tail, 0)
	tail = append(tail, make([]byte, 40)...)
	out, err := v.addPacket(tail)
	if err != nil {
		t.Fatalf("tail fragment: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("got %d frames from orphan tail, want 0", len(out))
	}
}

func TestRead14or30RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 0x3FFF, 0x4000, 0x12345, 1<<30 - 1} {
		c := &cursor{data: encode14or30(v)}
		_, got, err := read14or30(c)
		if err != nil {
			t.Fatalf("value %#x: %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip %#x: got %#x", v, got)
		}
	}
}

// encode14or30 mirrors read14or30's wire format for test fixture
// construction: values under 0x4000 fit the 14-bit short form.
func encode14or30(v uint32) []byte {
	if v < 0x4000 {
		return []byte{byte(0x40 | (v >> 8)), byte(v)}
	}
	hi := uint16(v >> 16)
	lo := uint16(v)
	return []byte{byte(hi >> 8), byte(hi), byte(lo >> 8), byte(lo)}
}
