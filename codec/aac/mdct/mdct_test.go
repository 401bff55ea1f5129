package mdct

import (
	"math"
	"testing"
)

// sineWindow fills the power-complementary sine window of length n.
func sineWindow(n int) []float32 {
	w := make([]float32, n)
	for i := range w {
		w[i] = float32(math.Sin(math.Pi / float64(2*n) * (2*float64(i) + 1)))
	}
	return w
}

// TestPerfectReconstruction runs three overlapping windowed forward
// transforms and checks that windowed overlap-add of the inverses
// reproduces the middle block: the time-domain aliasing of adjacent blocks
// must cancel exactly.
func TestPerfectReconstruction(t *testing.T) {
	const n = 64 // total transform length, 50% overlap of 32-sample hops
	half := n / 2
	win := sineWindow(n)

	src := make([]float32, n*2)
	for i := range src {
		src[i] = float32(math.Sin(float64(i)*0.31) + 0.5*math.Cos(float64(i)*0.07))
	}

	fwd := NewMDCT(n)
	inv := NewIMDCT(n, true)

	// Three blocks at hops 0, half, 2*half cover src[half:3*half].
	recon := make([]float32, n*2)
	for _, off := range []int{0, half, 2 * half} {
		blockIn := make([]float32, n)
		for i := 0; i < n; i++ {
			blockIn[i] = src[off+i] * win[i]
		}
		coeffs := make([]float32, half)
		fwd.Transform(blockIn, coeffs)
		blockOut := make([]float32, n)
		inv.Transform(coeffs, blockOut)
		for i := 0; i < n; i++ {
			recon[off+i] += blockOut[i] * win[i]
		}
	}

	for i := half; i < 3*half; i++ {
		diff := math.Abs(float64(recon[i] - src[i]))
		if diff > 1e-4 {
			t.Fatalf("sample %d: recon %f, src %f (diff %g)", i, recon[i], src[i], diff)
		}
	}
}

func TestIMDCTOddSymmetry(t *testing.T) {
	// The first quarter of the inverse output is the odd mirror of the
	// second quarter: out[n/4-1-i] == -out[n/4+i] for the second half of
	// the block... the defining time-domain aliasing structure.
	const n = 32
	inv := NewIMDCT(n, true)
	coeffs := make([]float32, n/2)
	for i := range coeffs {
		coeffs[i] = float32(i%5) - 2
	}
	out := make([]float32, n)
	inv.Transform(coeffs, out)
	// IMDCT output satisfies out[3n/4-1-i] == out[3n/4+i] mirrored odd
	// around n/4 and even around 3n/4.
	for i := 0; i < n/4; i++ {
		a := out[3*n/4-1-i]
		b := out[3*n/4+i]
		if math.Abs(float64(a-b)) > 1e-5 {
			t.Fatalf("even symmetry broken at %d: %f vs %f", i, a, b)
		}
	}
	for i := 0; i < n/4; i++ {
		a := out[n/4-1-i]
		b := out[n/4+i]
		if math.Abs(float64(a+b)) > 1e-5 {
			t.Fatalf("odd symmetry broken at %d: %f vs %f", i, a, b)
		}
	}
}
