package h263

import "github.com/mediaframe/core/huffman"

// Macroblock types shared by the picture-layer and MB-layer parsers.
const (
	mbInter = iota
	mbInterQ
	mbInter4V
	mbIntra
	mbIntraQ
	mbInter4VQ
	mbStuffing
)

// Intra-picture MCBPC codes. Symbol = mbType*4 + cbpc, stuffing = -1.
var intraMCBPC = []huffman.Entry{
	{Code: 0x1, Bits: 1, Symbol: mbIntra*4 + 0},
	{Code: 0x1, Bits: 3, Symbol: mbIntra*4 + 1},
	{Code: 0x2, Bits: 3, Symbol: mbIntra*4 + 2},
	{Code: 0x3, Bits: 3, Symbol: mbIntra*4 + 3},
	{Code: 0x1, Bits: 4, Symbol: mbIntraQ*4 + 0},
	{Code: 0x1, Bits: 6, Symbol: mbIntraQ*4 + 1},
	{Code: 0x2, Bits: 6, Symbol: mbIntraQ*4 + 2},
	{Code: 0x3, Bits: 6, Symbol: mbIntraQ*4 + 3},
	{Code: 0x1, Bits: 9, Symbol: -1},
}

// Inter-picture MCBPC codes.
var interMCBPC = []huffman.Entry{
	{Code: 0x1, Bits: 1, Symbol: mbInter*4 + 0},
	{Code: 0x3, Bits: 4, Symbol: mbInter*4 + 1},
	{Code: 0x2, Bits: 4, Symbol: mbInter*4 + 2},
	{Code: 0x5, Bits: 6, Symbol: mbInter*4 + 3},
	{Code: 0x3, Bits: 5, Symbol: mbIntra*4 + 0},
	{Code: 0x4, Bits: 8, Symbol: mbIntra*4 + 1},
	{Code: 0x3, Bits: 8, Symbol: mbIntra*4 + 2},
	{Code: 0x3, Bits: 7, Symbol: mbIntra*4 + 3},
	{Code: 0x3, Bits: 3, Symbol: mbInterQ*4 + 0},
	{Code: 0x7, Bits: 7, Symbol: mbInterQ*4 + 1},
	{Code: 0x6, Bits: 7, Symbol: mbInterQ*4 + 2},
	{Code: 0x5, Bits: 9, Symbol: mbInterQ*4 + 3},
	{Code: 0x4, Bits: 6, Symbol: mbIntraQ*4 + 0},
	{Code: 0x4, Bits: 9, Symbol: mbIntraQ*4 + 1},
	{Code: 0x3, Bits: 9, Symbol: mbIntraQ*4 + 2},
	{Code: 0x2, Bits: 9, Symbol: mbIntraQ*4 + 3},
	{Code: 0x2, Bits: 3, Symbol: mbInter4V*4 + 0},
	{Code: 0x5, Bits: 7, Symbol: mbInter4V*4 + 1},
	{Code: 0x4, Bits: 7, Symbol: mbInter4V*4 + 2},
	{Code: 0x5, Bits: 8, Symbol: mbInter4V*4 + 3},
	{Code: 0x1, Bits: 9, Symbol: -1},
	{Code: 0x2, Bits: 11, Symbol: mbInter4VQ*4 + 0},
	{Code: 0xC, Bits: 13, Symbol: mbInter4VQ*4 + 1},
	{Code: 0xE, Bits: 13, Symbol: mbInter4VQ*4 + 2},
	{Code: 0xF, Bits: 13, Symbol: mbInter4VQ*4 + 3},
}

// CBPY codes; symbol is the 4-bit luma coded-block pattern for intra
// macroblocks (inter XORs with 0xF after decode).
var cbpyCodes = []huffman.Entry{
	{Code: 0x3, Bits: 4, Symbol: 0},
	{Code: 0x5, Bits: 5, Symbol: 1},
	{Code: 0x4, Bits: 5, Symbol: 2},
	{Code: 0x9, Bits: 4, Symbol: 3},
	{Code: 0x3, Bits: 5, Symbol: 4},
	{Code: 0x7, Bits: 4, Symbol: 5},
	{Code: 0x2, Bits: 6, Symbol: 6},
	{Code: 0xB, Bits: 4, Symbol: 7},
	{Code: 0x2, Bits: 5, Symbol: 8},
	{Code: 0x3, Bits: 6, Symbol: 9},
	{Code: 0x5, Bits: 4, Symbol: 10},
	{Code: 0xA, Bits: 4, Symbol: 11},
	{Code: 0x4, Bits: 4, Symbol: 12},
	{Code: 0x8, Bits: 4, Symbol: 13},
	{Code: 0x6, Bits: 4, Symbol: 14},
	{Code: 0x3, Bits: 2, Symbol: 15},
}

// Motion-vector magnitude codes; symbol is the magnitude index 0..32, sign
// follows as one explicit bit for non-zero magnitudes.
var mvCodes = []huffman.Entry{
	{Code: 0x1, Bits: 1, Symbol: 0},
	{Code: 0x1, Bits: 2, Symbol: 1},
	{Code: 0x1, Bits: 3, Symbol: 2},
	{Code: 0x1, Bits: 4, Symbol: 3},
	{Code: 0x3, Bits: 6, Symbol: 4},
	{Code: 0x5, Bits: 7, Symbol: 5},
	{Code: 0x4, Bits: 7, Symbol: 6},
	{Code: 0x3, Bits: 7, Symbol: 7},
	{Code: 0xB, Bits: 9, Symbol: 8},
	{Code: 0xA, Bits: 9, Symbol: 9},
	{Code: 0x9, Bits: 9, Symbol: 10},
	{Code: 0x11, Bits: 10, Symbol: 11},
	{Code: 0x10, Bits: 10, Symbol: 12},
	{Code: 0xF, Bits: 10, Symbol: 13},
	{Code: 0xE, Bits: 10, Symbol: 14},
	{Code: 0xD, Bits: 10, Symbol: 15},
	{Code: 0xC, Bits: 10, Symbol: 16},
	{Code: 0xB, Bits: 10, Symbol: 17},
	{Code: 0xA, Bits: 10, Symbol: 18},
	{Code: 0x9, Bits: 10, Symbol: 19},
	{Code: 0x8, Bits: 10, Symbol: 20},
	{Code: 0x7, Bits: 10, Symbol: 21},
	{Code: 0x6, Bits: 10, Symbol: 22},
	{Code: 0x5, Bits: 10, Symbol: 23},
	{Code: 0x4, Bits: 10, Symbol: 24},
	{Code: 0x7, Bits: 11, Symbol: 25},
	{Code: 0x6, Bits: 11, Symbol: 26},
	{Code: 0x5, Bits: 11, Symbol: 27},
	{Code: 0x4, Bits: 11, Symbol: 28},
	{Code: 0x3, Bits: 11, Symbol: 29},
	{Code: 0x2, Bits: 11, Symbol: 30},
	{Code: 0x3, Bits: 12, Symbol: 31},
	{Code: 0x2, Bits: 12, Symbol: 32},
}

// B-frame macroblock mode, decoded from its own 14-entry codebook.
type mbTypeB struct {
	coded    bool
	intra    bool
	dquant   bool
	forward  bool
	backward bool
}

// mbTypeBModes indexes the decoded symbol of mbTypeBCodes.
var mbTypeBModes = [14]mbTypeB{
	{coded: false, intra: false, dquant: false, forward: false, backward: false}, // direct, not coded
	{coded: true, intra: false, dquant: false, forward: false, backward: false},  // direct
	{coded: false, intra: false, dquant: false, forward: true, backward: false},
	{coded: true, intra: false, dquant: false, forward: true, backward: false},
	{coded: true, intra: false, dquant: true, forward: true, backward: false},
	{coded: false, intra: false, dquant: false, forward: false, backward: true},
	{coded: true, intra: false, dquant: false, forward: false, backward: true},
	{coded: true, intra: false, dquant: true, forward: false, backward: true},
	{coded: false, intra: false, dquant: false, forward: true, backward: true},
	{coded: true, intra: false, dquant: false, forward: true, backward: true},
	{coded: true, intra: false, dquant: true, forward: true, backward: true},
	{coded: true, intra: true, dquant: false, forward: false, backward: false},
	{coded: true, intra: true, dquant: true, forward: false, backward: false},
	{coded: true, intra: false, dquant: true, forward: false, backward: false}, // direct + dquant
}

// mbTypeBLengths assigns canonical code lengths to the 14 B modes; codes are
// derived at init via huffman.BuildFromLengths.
var mbTypeBLengths = []int{2, 3, 3, 4, 4, 4, 5, 5, 5, 5, 6, 6, 7, 7}

// cbpcBLengths is the chroma coded-block-pattern codebook used by coded
// B macroblocks, which carry CBPC through its own table rather than MCBPC.
var cbpcBLengths = []int{1, 2, 3, 3}

// Run/level pair tables. A symbol packs (last<<12)|(run<<6)|levelIndex; the
// escape codeword is symbol -1.
const rlEscape = -1

type rlPair struct {
	last  bool
	run   int
	level int32
}

// Inter run-level codes (also the AIC intra codes — the code/length pairs
// are shared between the two tables, only the run/level assignment differs).
var rlCodes = []struct {
	code uint32
	bits int
}{
	{0x2, 2}, {0xF, 4}, {0x15, 6}, {0x17, 7},
	{0x1F, 8}, {0x25, 9}, {0x24, 9}, {0x21, 10},
	{0x20, 10}, {0x7, 11}, {0x6, 11}, {0x20, 11},
	{0x6, 3}, {0x14, 6}, {0x1E, 8}, {0xF, 10},
	{0x21, 11}, {0x50, 12}, {0xE, 4}, {0x1D, 8},
	{0xE, 10}, {0x51, 12}, {0xD, 5}, {0x23, 9},
	{0xD, 10}, {0xC, 5}, {0x22, 9}, {0x52, 12},
	{0xB, 5}, {0xC, 10}, {0x53, 12}, {0x13, 6},
	{0xB, 10}, {0x54, 12}, {0x12, 6}, {0xA, 10},
	{0x11, 6}, {0x9, 10}, {0x10, 6}, {0x8, 10},
	{0x16, 7}, {0x55, 12}, {0x15, 7}, {0x14, 7},
	{0x1C, 8}, {0x1B, 8}, {0x21, 9}, {0x20, 9},
	{0x1F, 9}, {0x1E, 9}, {0x1D, 9}, {0x1C, 9},
	{0x1B, 9}, {0x1A, 9}, {0x22, 11}, {0x23, 11},
	{0x56, 12}, {0x57, 12}, {0x7, 4}, {0x19, 9},
	{0x5, 11}, {0xF, 6}, {0x4, 11}, {0xE, 6},
	{0xD, 6}, {0xC, 6}, {0x13, 7}, {0x12, 7},
	{0x11, 7}, {0x10, 7}, {0x1A, 8}, {0x19, 8},
	{0x18, 8}, {0x17, 8}, {0x16, 8}, {0x15, 8},
	{0x14, 8}, {0x13, 8}, {0x18, 9}, {0x17, 9},
	{0x16, 9}, {0x15, 9}, {0x14, 9}, {0x13, 9},
	{0x12, 9}, {0x11, 9}, {0x7, 10}, {0x6, 10},
	{0x5, 10}, {0x4, 10}, {0x24, 11}, {0x25, 11},
	{0x26, 11}, {0x27, 11}, {0x58, 12}, {0x59, 12},
	{0x5A, 12}, {0x5B, 12}, {0x5C, 12}, {0x5D, 12},
	{0x5E, 12}, {0x5F, 12},
}

// rlEscapeCode is the shared escape codeword of both run-level tables.
var rlEscapeCode = struct {
	code uint32
	bits int
}{0x3, 7}

// Inter run/level assignment; entries 0..57 have last=0, the rest last=1.
var rlInterRuns = []int{
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 1, 1, 1, 1,
	1, 1, 2, 2, 2, 2, 3, 3,
	3, 4, 4, 4, 5, 5, 5, 6,
	6, 6, 7, 7, 8, 8, 9, 9,
	10, 10, 11, 12, 13, 14, 15, 16,
	17, 18, 19, 20, 21, 22, 23, 24,
	25, 26, 0, 0, 0, 1, 1, 2,
	3, 4, 5, 6, 7, 8, 9, 10,
	11, 12, 13, 14, 15, 16, 17, 18,
	19, 20, 21, 22, 23, 24, 25, 26,
	27, 28, 29, 30, 31, 32, 33, 34,
	35, 36, 37, 38, 39, 40,
}

var rlInterLevels = []int32{
	1, 2, 3, 4, 5, 6, 7, 8,
	9, 10, 11, 12, 1, 2, 3, 4,
	5, 6, 1, 2, 3, 4, 1, 2,
	3, 1, 2, 3, 1, 2, 3, 1,
	2, 3, 1, 2, 1, 2, 1, 2,
	1, 2, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 2, 3, 1, 2, 1,
	1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1,
}

const rlInterLastSplit = 58

// AIC intra run/level assignment over the same codes, trading the inter
// table's long runs for a deeper level range at run 0.
var rlIntraAICRuns = []int{
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 1, 1, 1, 1, 1, 1, 1,
	2, 2, 2, 2, 3, 3, 3, 4,
	4, 5, 5, 6, 6, 7, 7, 8,
	8, 9, 9, 10, 11, 12, 13, 14,
	15, 16, 0, 0, 0, 1, 1, 2,
	3, 4, 5, 6, 7, 8, 9, 10,
	11, 12, 13, 14, 15, 16, 17, 18,
	19, 20, 21, 22, 23, 24, 25, 26,
	27, 28, 29, 30, 31, 32, 33, 34,
	35, 36, 37, 38, 39, 40,
}

var rlIntraAICLevels = []int32{
	1, 2, 3, 4, 5, 6, 7, 8,
	9, 10, 11, 12, 13, 14, 15, 16,
	17, 18, 19, 20, 21, 22, 23, 24,
	25, 1, 2, 3, 4, 5, 6, 7,
	1, 2, 3, 4, 1, 2, 3, 1,
	2, 1, 2, 1, 2, 1, 2, 1,
	2, 1, 2, 1, 1, 1, 1, 1,
	1, 1, 1, 2, 3, 1, 2, 1,
	1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1,
}

// chromaQuant maps the luma quantizer to the chroma quantizer.
var chromaQuant = [32]uint8{
	0, 1, 2, 3, 4, 5, 6, 6, 7, 8, 9, 9, 10, 10, 11, 11,
	12, 12, 12, 13, 13, 13, 14, 14, 14, 14, 14, 15, 15, 15, 15, 15,
}

// Coefficient scan orders: zig-zag, and the horizontal/vertical alternates
// selected when AC prediction runs along one axis.
var zigzagScan = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

var horizScan = [64]int{
	0, 1, 2, 3, 8, 9, 16, 17,
	10, 11, 4, 5, 6, 7, 15, 14,
	13, 12, 19, 18, 24, 25, 32, 33,
	26, 27, 20, 21, 22, 23, 28, 29,
	30, 31, 36, 35, 34, 40, 41, 48,
	49, 42, 43, 44, 45, 46, 47, 38,
	39, 37, 50, 51, 56, 57, 58, 59,
	52, 53, 54, 55, 60, 61, 62, 63,
}

var vertScan = [64]int{
	0, 8, 16, 24, 1, 9, 2, 10,
	17, 25, 32, 40, 48, 56, 57, 49,
	41, 33, 26, 18, 3, 11, 4, 12,
	19, 27, 34, 42, 50, 58, 35, 43,
	51, 59, 20, 28, 5, 13, 6, 14,
	21, 29, 36, 44, 52, 60, 37, 45,
	53, 61, 22, 30, 7, 15, 23, 31,
	38, 46, 54, 62, 39, 47, 55, 63,
}

// Built codebooks, constructed once; table construction cannot fail for the
// static data above, so errors here are programming mistakes surfaced at
// package load.
var (
	cbIntraMCBPC *huffman.Codebook
	cbInterMCBPC *huffman.Codebook
	cbCBPY       *huffman.Codebook
	cbMV         *huffman.Codebook
	cbMBTypeB    *huffman.Codebook
	cbCBPCB      *huffman.Codebook
	cbRLInter    *huffman.Codebook
	cbRLIntraAIC *huffman.Codebook
)

func buildRL(runs []int, levels []int32, lastSplit int) *huffman.Codebook {
	entries := make([]huffman.Entry, 0, len(rlCodes)+1)
	for i, c := range rlCodes {
		last := 0
		if i >= lastSplit {
			last = 1
		}
		sym := (last << 12) | (runs[i] << 6) | int(levels[i])
		entries = append(entries, huffman.Entry{Code: c.code, Bits: c.bits, Symbol: sym})
	}
	entries = append(entries, huffman.Entry{Code: rlEscapeCode.code, Bits: rlEscapeCode.bits, Symbol: rlEscape})
	cb, err := huffman.NewCodebook(entries)
	if err != nil {
		panic(err)
	}
	return cb
}

func mustBook(entries []huffman.Entry) *huffman.Codebook {
	cb, err := huffman.NewCodebook(entries)
	if err != nil {
		panic(err)
	}
	return cb
}

func init() {
	cbIntraMCBPC = mustBook(intraMCBPC)
	cbInterMCBPC = mustBook(interMCBPC)
	cbCBPY = mustBook(cbpyCodes)
	cbMV = mustBook(mvCodes)
	cbRLInter = buildRL(rlInterRuns, rlInterLevels, rlInterLastSplit)
	cbRLIntraAIC = buildRL(rlIntraAICRuns, rlIntraAICLevels, rlInterLastSplit)

	var err error
	cbMBTypeB, err = huffman.BuildFromLengths(mbTypeBLengths)
	if err != nil {
		panic(err)
	}
	cbCBPCB, err = huffman.BuildFromLengths(cbpcBLengths)
	if err != nil {
		panic(err)
	}
}

// modifiedQuant updates the quantizer by the modified-quantization rule: a
// set flag selects a one-bit table step, a clear flag is followed by a full
// 5-bit replacement value.
var modifiedQuant = [2][32]uint8{
	{0, 3, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14,
		15, 16, 17, 18, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 28},
	{0, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
		17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 29, 30, 31},
}

// unpackRL splits a run-level symbol back into its parts.
func unpackRL(sym int) rlPair {
	return rlPair{
		last:  sym>>12 != 0,
		run:   (sym >> 6) & 0x3F,
		level: int32(sym & 0x3F),
	}
}
