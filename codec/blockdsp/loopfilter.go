package blockdsp

// loopFilterStrength maps the macroblock quantizer (1..31) to the clipping
// strength of the H.263 Annex J deblocking filter.
var loopFilterStrength = [32]int32{
	0, 1, 1, 2, 2, 3, 3, 4, 4, 4, 5, 5, 6, 6, 7, 7,
	7, 8, 8, 8, 9, 9, 9, 10, 10, 10, 11, 11, 11, 12, 12, 12,
}

func clipSym(v, lim int32) int32 {
	if v < -lim {
		return -lim
	}
	if v > lim {
		return lim
	}
	return v
}

// filterEdgePair updates the two samples b, c straddling a block edge given
// their outer neighbors a, d: diff = (3*(a-d) + 8*(c-b) + 4) >> 4, clipped
// by the quantizer-dependent strength.
func filterEdgePair(a, b, c, d uint8, strength int32) (uint8, uint8) {
	diff := (3*(int32(a)-int32(d)) + 8*(int32(c)-int32(b)) + 4) >> 4
	if diff == 0 {
		return b, c
	}
	d1 := clipSym(diff, strength)
	nb := int32(b) + d1
	nc := int32(c) - d1
	return clip255(nb), clip255(nc)
}

// FilterRowHor filters one horizontal 8-sample edge: the edge lies between
// rows y-1 and y of plane, spanning columns [x, x+len).
func FilterRowHor(plane []uint8, stride, x, y, length int, q uint8) {
	strength := loopFilterStrength[q&31]
	for i := 0; i < length; i++ {
		off := (y-2)*stride + x + i
		a := plane[off]
		b := plane[off+stride]
		c := plane[off+2*stride]
		d := plane[off+3*stride]
		nb, nc := filterEdgePair(a, b, c, d, strength)
		plane[off+stride] = nb
		plane[off+2*stride] = nc
	}
}

// FilterColVer filters one vertical 8-sample edge: the edge lies between
// columns x-1 and x of plane, spanning rows [y, y+len).
func FilterColVer(plane []uint8, stride, x, y, length int, q uint8) {
	strength := loopFilterStrength[q&31]
	for i := 0; i < length; i++ {
		off := (y+i)*stride + x - 2
		a := plane[off]
		b := plane[off+1]
		c := plane[off+2]
		d := plane[off+3]
		nb, nc := filterEdgePair(a, b, c, d, strength)
		plane[off+1] = nb
		plane[off+2] = nc
	}
}
