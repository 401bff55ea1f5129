// Package mdct implements the forward and inverse modified discrete cosine
// transform used by the AAC decoder's filter bank: length 2048 for long
// windows and 256 for short ones. The transforms are direct summations over
// a precomputed cosine table; the decoder calls them a handful of times per
// frame, so clarity wins over an FFT decomposition here.
package mdct

import "math"

// Both transforms share the kernel cos((2*pi/N)*(n + 1/2 + N/4)*(k + 1/2))
// with N the total (time-domain) length. The angle is always pi/(2N) times
// an odd integer, so one table of cos(pi/(2N)*j) for j in [0, 4N) covers
// every term exactly.
func cosTable(size int) []float64 {
	t := make([]float64, 4*size)
	for j := range t {
		t[j] = math.Cos(math.Pi / float64(2*size) * float64(j))
	}
	return t
}

// IMDCT computes the inverse transform: size/2 spectral coefficients to
// size time-domain samples.
type IMDCT struct {
	size  int
	scale float64
	cosT  []float64
}

// NewIMDCT creates an inverse transform of total length size. When
// scaledown is set the output carries the 4/size normalization under which
// a forward transform, this inverse, and windowed 50%-overlap-add with a
// power-complementary window reconstruct the input exactly.
func NewIMDCT(size int, scaledown bool) *IMDCT {
	t := &IMDCT{size: size, scale: 1.0, cosT: cosTable(size)}
	if scaledown {
		t.scale = 4.0 / float64(size)
	}
	return t
}

// Transform writes size output samples into dst from size/2 coefficients.
func (t *IMDCT) Transform(coeffs []float32, dst []float32) {
	n := t.size
	half := n / 2
	mod := 4 * n
	for smp := 0; smp < n; smp++ {
		a := 2*smp + 1 + n/2
		var sum float64
		for k := 0; k < half; k++ {
			sum += float64(coeffs[k]) * t.cosT[a*(2*k+1)%mod]
		}
		dst[smp] = float32(sum * t.scale)
	}
}

// Size returns the output length of the transform.
func (t *IMDCT) Size() int { return t.size }

// MDCT is the forward transform: size time samples to size/2 coefficients.
// The decoder itself never runs it; it exists so the filter bank's perfect
// reconstruction property is testable.
type MDCT struct {
	size int
	cosT []float64
}

// NewMDCT creates a forward transform of total length size.
func NewMDCT(size int) *MDCT {
	return &MDCT{size: size, cosT: cosTable(size)}
}

// Transform writes size/2 coefficients into dst from size input samples.
func (t *MDCT) Transform(src []float32, dst []float32) {
	n := t.size
	half := n / 2
	mod := 4 * n
	for k := 0; k < half; k++ {
		b := 2*k + 1
		var sum float64
		for smp := 0; smp < n; smp++ {
			sum += float64(src[smp]) * t.cosT[(2*smp+1+n/2)*b%mod]
		}
		dst[k] = float32(sum)
	}
}
