// Package huffman builds lookup tables from (code, bit-length, symbol)
// triples for the variable-length codes used throughout the H.263 and
// AAC-LC decoders: MCBPC, CBPY, motion-vector, scale-factor, and spectral
// codebooks. The builder supports both MSB-first (H.263, RealMedia) and
// LSB-first bitstreams by storing codes left-aligned within a fixed-width
// window and matching the longest prefix, the same peek-then-consume shape
// as bitio.Reader.ReadCB expects.
package huffman

import (
	"fmt"
	"sort"
)

// Entry describes one codeword: its bit pattern (left-aligned is not
// required by the caller — Code holds the code value right-aligned in its
// low Bits bits, MSB-first), its length, and the symbol it decodes to.
type Entry struct {
	Code   uint32
	Bits   int
	Symbol int
}

// Codebook is a builder-produced lookup table. It implements
// bitio.Codebook without importing bitio, avoiding a cycle.
type Codebook struct {
	entries []Entry
	maxBits int
}

// NewCodebook builds a Codebook from entries. Entries must form a prefix
// code (no code is a prefix of another at the same bit order); this is not
// re-verified at lookup time for speed, only at construction via a
// collision check.
func NewCodebook(entries []Entry) (*Codebook, error) {
	cb := &Codebook{entries: append([]Entry(nil), entries...)}
	for _, e := range cb.entries {
		if e.Bits <= 0 || e.Bits > 24 {
			return nil, fmt.Errorf("huffman: entry for symbol %d has invalid length %d", e.Symbol, e.Bits)
		}
		if e.Bits > cb.maxBits {
			cb.maxBits = e.Bits
		}
	}
	sort.Slice(cb.entries, func(i, j int) bool { return cb.entries[i].Bits < cb.entries[j].Bits })
	if err := cb.checkPrefixFree(); err != nil {
		return nil, err
	}
	return cb, nil
}

func (cb *Codebook) checkPrefixFree() error {
	for i, a := range cb.entries {
		for _, b := range cb.entries[i+1:] {
			shorter, longer := a, b
			if b.Bits < a.Bits {
				shorter, longer = b, a
			}
			prefix := longer.Code >> uint(longer.Bits-shorter.Bits)
			if prefix == shorter.Code {
				return fmt.Errorf("huffman: code collision between symbols %d and %d", a.Symbol, b.Symbol)
			}
		}
	}
	return nil
}

// Lookup matches the longest codeword that is a prefix of the top bits of
// peek (a window-bit value with the next bit to decode in its MSB). It
// satisfies bitio.Codebook.
func (cb *Codebook) Lookup(peek uint32, width int) (symbol int, bits int, ok bool) {
	for _, e := range cb.entries {
		if e.Bits > width {
			continue
		}
		candidate := peek >> uint(width-e.Bits)
		if candidate == e.Code {
			return e.Symbol, e.Bits, true
		}
	}
	return 0, 0, false
}

// MaxBits returns the longest codeword length in the table.
func (cb *Codebook) MaxBits() int { return cb.maxBits }

// BuildFromLengths constructs a canonical Huffman codebook from a table of
// (bit-length, symbol) pairs ordered by symbol, assigning codes in
// increasing length then increasing symbol order (the canonical-code
// convention used by AAC's scale-factor and spectral codebooks, ISO/IEC
// 14496-3 Annex 4.A). Entries with length 0 are omitted (unused symbol).
func BuildFromLengths(lengths []int) (*Codebook, error) {
	type ls struct {
		length, symbol int
	}
	var list []ls
	for sym, l := range lengths {
		if l > 0 {
			list = append(list, ls{l, sym})
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].length != list[j].length {
			return list[i].length < list[j].length
		}
		return list[i].symbol < list[j].symbol
	})

	var entries []Entry
	var code uint32
	prevLen := 0
	for _, e := range list {
		if prevLen != 0 {
			code <<= uint(e.length - prevLen)
		}
		entries = append(entries, Entry{Code: code, Bits: e.length, Symbol: e.symbol})
		code++
		prevLen = e.length
	}
	return NewCodebook(entries)
}
