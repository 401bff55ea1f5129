package huffman

import "testing"

func TestLookupMatchesLongestPrefix(t *testing.T) {
	cb, err := NewCodebook([]Entry{
		{Code: 0b0, Bits: 1, Symbol: 10},
		{Code: 0b10, Bits: 2, Symbol: 20},
		{Code: 0b110, Bits: 3, Symbol: 30},
		{Code: 0b111, Bits: 3, Symbol: 40},
	})
	if err != nil {
		t.Fatalf("NewCodebook: %v", err)
	}

	cases := []struct {
		peek   uint32
		width  int
		symbol int
		bits   int
	}{
		{0b0 << 23, 24, 10, 1},
		{0b10 << 22, 24, 20, 2},
		{0b110 << 21, 24, 30, 3},
		{0b111 << 21, 24, 40, 3},
	}
	for _, c := range cases {
		sym, bits, ok := cb.Lookup(c.peek, c.width)
		if !ok || sym != c.symbol || bits != c.bits {
			t.Fatalf("Lookup(%#x) = %d/%d/%v, want %d/%d", c.peek, sym, bits, ok, c.symbol, c.bits)
		}
	}
}

func TestCollisionDetected(t *testing.T) {
	_, err := NewCodebook([]Entry{
		{Code: 0b1, Bits: 1, Symbol: 1},
		{Code: 0b10, Bits: 2, Symbol: 2}, // prefixed by "1"
	})
	if err == nil {
		t.Fatal("prefix collision not detected")
	}
}

func TestBuildFromLengthsCanonical(t *testing.T) {
	// Lengths 1,2,3,3 produce the canonical codes 0, 10, 110, 111.
	cb, err := BuildFromLengths([]int{1, 2, 3, 3})
	if err != nil {
		t.Fatalf("BuildFromLengths: %v", err)
	}
	wantBits := map[int]int{0: 1, 1: 2, 2: 3, 3: 3}
	for sym, bits := range wantBits {
		found := false
		for _, e := range cb.entries {
			if e.Symbol == sym {
				if e.Bits != bits {
					t.Fatalf("symbol %d got %d bits, want %d", sym, e.Bits, bits)
				}
				found = true
			}
		}
		if !found {
			t.Fatalf("symbol %d missing", sym)
		}
	}
	if cb.MaxBits() != 3 {
		t.Fatalf("MaxBits = %d, want 3", cb.MaxBits())
	}
}

func TestBuildFromLengthsSkipsZero(t *testing.T) {
	cb, err := BuildFromLengths([]int{0, 2, 2, 0, 1})
	if err != nil {
		t.Fatalf("BuildFromLengths: %v", err)
	}
	for _, e := range cb.entries {
		if e.Symbol == 0 || e.Symbol == 3 {
			t.Fatalf("zero-length symbol %d present", e.Symbol)
		}
	}
}
