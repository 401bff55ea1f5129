package bitio

import (
	"errors"
	"testing"
)

func TestReadMSBFirst(t *testing.T) {
	r := NewReader([]byte{0xA5, 0x33}, BigEndian)
	for _, want := range []uint32{0xA, 0x5} {
		got, err := r.Read(4)
		if err != nil {
			t.Fatalf("Read(4): %v", err)
		}
		if got != want {
			t.Fatalf("Read(4) = %#x, want %#x", got, want)
		}
	}
	got, err := r.Read(8)
	if err != nil || got != 0x33 {
		t.Fatalf("Read(8) = %#x, %v; want 0x33", got, err)
	}
	if r.Left() != 0 {
		t.Fatalf("Left = %d, want 0", r.Left())
	}
}

func TestReadLSBFirst(t *testing.T) {
	r := NewReader([]byte{0xA5}, LittleEndian)
	// LSB-first: bits come out 1,0,1,0, 0,1,0,1.
	got, err := r.Read(4)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != 0b1010 {
		t.Fatalf("Read(4) = %#b, want 1010", got)
	}
}

func TestReadSSignExtends(t *testing.T) {
	r := NewReader([]byte{0xF0}, BigEndian)
	v, err := r.ReadS(4)
	if err != nil {
		t.Fatalf("ReadS: %v", err)
	}
	if v != -1 {
		t.Fatalf("ReadS(4) on 1111 = %d, want -1", v)
	}
}

func TestReadPastEndIsShortRead(t *testing.T) {
	r := NewReader([]byte{0xFF}, BigEndian)
	if _, err := r.Read(16); !errors.Is(err, ErrShortRead) {
		t.Fatalf("got %v, want ErrShortRead", err)
	}
	// The failed read leaves the cursor in place; the remaining bits stay readable.
	if _, err := r.Read(1); err != nil {
		t.Fatalf("reading remaining bits after failed wide read: %v", err)
	}
}

func TestPeekDoesNotAdvance(t *testing.T) {
	r := NewReader([]byte{0xA5}, BigEndian)
	v, ok := r.Peek(4)
	if !ok || v != 0xA {
		t.Fatalf("Peek = %#x %v", v, ok)
	}
	if r.Tell() != 0 {
		t.Fatalf("Peek advanced cursor to %d", r.Tell())
	}
	v, ok = r.Peek(16)
	if ok {
		t.Fatal("Peek past end reported ok")
	}
	if v>>8 != 0xA5 {
		t.Fatalf("short Peek not left-aligned: %#x", v)
	}
}

func TestAlignAndSkip(t *testing.T) {
	r := NewReader([]byte{0xFF, 0x0F}, BigEndian)
	if _, err := r.Read(3); err != nil {
		t.Fatal(err)
	}
	r.Align()
	if r.Tell() != 8 {
		t.Fatalf("Align left cursor at %d", r.Tell())
	}
	if err := r.Skip(4); err != nil {
		t.Fatal(err)
	}
	v, _ := r.Read(4)
	if v != 0xF {
		t.Fatalf("after skip: %#x, want 0xF", v)
	}
}

func TestGammaCode(t *testing.T) {
	// Elias gamma for 5: 00101.
	r := NewReader([]byte{0b00101_000}, BigEndian)
	v, err := r.ReadCode(Gamma, 0)
	if err != nil || v != 5 {
		t.Fatalf("Gamma = %d, %v; want 5", v, err)
	}
}

func TestUnaryOnes(t *testing.T) {
	r := NewReader([]byte{0b1110_0000}, BigEndian)
	v, err := r.ReadCode(UnaryOnes, 0)
	if err != nil || v != 3 {
		t.Fatalf("UnaryOnes = %d, %v; want 3", v, err)
	}
}

func TestLimitedUnaryStopsAtMax(t *testing.T) {
	r := NewReader([]byte{0xFF}, BigEndian)
	v, err := r.ReadCode(LimitedUnary, 4)
	if err != nil || v != 4 {
		t.Fatalf("LimitedUnary = %d, %v; want 4 (implied terminator)", v, err)
	}
	// Only 4 bits consumed.
	if r.Tell() != 4 {
		t.Fatalf("consumed %d bits, want 4", r.Tell())
	}
}

func TestMemReaderBasics(t *testing.T) {
	r := NewMemReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})
	v16, err := r.ReadU16BE()
	if err != nil || v16 != 0x0102 {
		t.Fatalf("ReadU16BE = %#x, %v", v16, err)
	}
	v16, err = r.ReadU16LE()
	if err != nil || v16 != 0x0403 {
		t.Fatalf("ReadU16LE = %#x, %v", v16, err)
	}
	v32, err := r.PeekU32BE()
	if err != nil || v32 != 0x05060708 {
		t.Fatalf("PeekU32BE = %#x, %v", v32, err)
	}
	if r.Tell() != 4 {
		t.Fatalf("Peek advanced to %d", r.Tell())
	}
	if err := r.ReadSkip(4); err != nil {
		t.Fatal(err)
	}
	if !r.IsEOF() {
		t.Fatal("not EOF after consuming all bytes")
	}
	if _, err := r.ReadU8(); !errors.Is(err, ErrShortRead) {
		t.Fatalf("read at EOF = %v, want ErrShortRead", err)
	}
}
