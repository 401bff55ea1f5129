package aac

import (
	"math"

	"github.com/mediaframe/core/codec/aac/mdct"
)

// besselI0 evaluates the zeroth-order modified Bessel function by its power
// series, the kernel of the Kaiser-Bessel-derived window.
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	half := x / 2
	for k := 1; k < 50; k++ {
		term *= (half / float64(k)) * (half / float64(k))
		sum += term
		if term < sum*1e-18 {
			break
		}
	}
	return sum
}

// kbdWindow builds the Kaiser-Bessel-derived window of half-length n:
// cumulative sums of the Kaiser kernel, square-rooted so the two window
// halves are power complementary.
func kbdWindow(alpha float64, n int) []float32 {
	v := make([]float64, n+1)
	var total float64
	for i := 0; i <= n; i++ {
		t := 2*float64(i)/float64(n) - 1
		v[i] = besselI0(math.Pi * alpha * math.Sqrt(1-t*t))
		total += v[i]
	}
	w := make([]float32, n)
	var run float64
	for i := 0; i < n; i++ {
		run += v[i]
		w[i] = float32(math.Sqrt(run / total))
	}
	return w
}

// sineWindow builds the power-complementary sine window of half-length n.
func sineWindow(n int) []float32 {
	w := make([]float32, n)
	for i := range w {
		w[i] = float32(math.Sin(math.Pi / float64(2*n) * (2*float64(i) + 1)))
	}
	return w
}

const (
	shortWinPoint0 = 512 - 64
	shortWinPoint1 = 512 + 64
)

// filterBank is the inverse transform and overlap-add stage shared by every
// channel: long/short IMDCTs, the four windows, and scratch buffers.
type filterBank struct {
	kbdLong    []float32
	kbdShort   []float32
	sineLong   []float32
	sineShort  []float32
	imdctLong  *mdct.IMDCT
	imdctShort *mdct.IMDCT
	tmp        [2048]float32
	ewBuf      [1152]float32
}

func newFilterBank() *filterBank {
	return &filterBank{
		kbdLong:    kbdWindow(4.0, 1024),
		kbdShort:   kbdWindow(6.0, 128),
		sineLong:   sineWindow(1024),
		sineShort:  sineWindow(128),
		imdctLong:  mdct.NewIMDCT(2048, true),
		imdctShort: mdct.NewIMDCT(256, true),
	}
}

// synth converts one channel's 1024 spectral coefficients into 1024 output
// samples, mixing in the previous frame's delay and storing the new delay.
// The window shape applies asymmetrically: the left (overlap) half uses the
// previous frame's shape, the right half the current one.
func (fb *filterBank) synth(coeffs *[1024]float32, delay *[1024]float32, seq int, shape, prevShape bool, dst []float32) {
	longWin, shortWin := fb.sineLong, fb.sineShort
	if shape {
		longWin, shortWin = fb.kbdLong, fb.kbdShort
	}
	leftLongWin, leftShortWin := fb.sineLong, fb.sineShort
	if prevShape {
		leftLongWin, leftShortWin = fb.kbdLong, fb.kbdShort
	}

	if seq != seqEightShort {
		fb.imdctLong.Transform(coeffs[:], fb.tmp[:])
	} else {
		for w := 0; w < 8; w++ {
			fb.imdctShort.Transform(coeffs[w*128:(w+1)*128], fb.tmp[w*256:(w+1)*256])
		}
		for i := range fb.ewBuf {
			fb.ewBuf[i] = 0
		}
		for w := 0; w < 8; w++ {
			src := fb.tmp[w*256 : (w+1)*256]
			if w > 0 {
				for i := 0; i < 128; i++ {
					fb.ewBuf[w*128+i] += src[i] * shortWin[i]
				}
			} else {
				// Left-windowed later against the previous frame's shape.
				copy(fb.ewBuf[:128], src[:128])
			}
			for i := 0; i < 128; i++ {
				fb.ewBuf[w*128+i+128] += src[i+128] * shortWin[127-i]
			}
		}
	}

	switch seq {
	case seqOnlyLong, seqLongStart:
		for i := 0; i < 1024; i++ {
			dst[i] = fb.tmp[i]*leftLongWin[i] + delay[i]
		}
	case seqEightShort:
		for i := 0; i < shortWinPoint0; i++ {
			dst[i] = delay[i]
		}
		for i := shortWinPoint0; i < shortWinPoint1; i++ {
			j := i - shortWinPoint0
			dst[i] = delay[i] + fb.ewBuf[j]*leftShortWin[j]
		}
		for i := shortWinPoint1; i < 1024; i++ {
			dst[i] = fb.ewBuf[i-shortWinPoint0]
		}
	case seqLongStop:
		for i := 0; i < shortWinPoint0; i++ {
			dst[i] = delay[i]
		}
		for i := shortWinPoint0; i < shortWinPoint1; i++ {
			dst[i] = delay[i] + fb.tmp[i]*leftShortWin[i-shortWinPoint0]
		}
		for i := shortWinPoint1; i < 1024; i++ {
			dst[i] = fb.tmp[i]
		}
	}

	switch seq {
	case seqOnlyLong, seqLongStop:
		for i := 0; i < 1024; i++ {
			delay[i] = fb.tmp[i+1024] * longWin[1023-i]
		}
	case seqEightShort:
		// The trailing short windows are already windowed in ewBuf.
		for i := 0; i < shortWinPoint1; i++ {
			delay[i] = fb.ewBuf[i+shortWinPoint1]
		}
		for i := shortWinPoint1; i < 1024; i++ {
			delay[i] = 0
		}
	case seqLongStart:
		for i := 0; i < shortWinPoint0; i++ {
			delay[i] = fb.tmp[i+1024]
		}
		for i := shortWinPoint0; i < shortWinPoint1; i++ {
			delay[i] = fb.tmp[i+1024] * shortWin[127-(i-shortWinPoint0)]
		}
		for i := shortWinPoint1; i < 1024; i++ {
			delay[i] = 0
		}
	}
}

// gainEnvelope interpolates up to eight per-interval gains of the form
// 2^((g-64)/4) across a frame at sample granularity. Two consecutive zero
// gain codes mean unity.
type gainEnvelope struct {
	gains [8]uint8
}

func (ge gainEnvelope) level(g uint8) float32 {
	return float32(math.Pow(2.0, (float64(g)-64.0)/4.0))
}

// apply scales dst's samples by the envelope, linearly interpolated across
// eighth-frame intervals.
func (ge gainEnvelope) apply(dst []float32) {
	n := len(dst)
	if n == 0 {
		return
	}
	step := n / 8
	if step == 0 {
		step = n
	}
	for seg := 0; seg < 8 && seg*step < n; seg++ {
		cur := ge.gains[seg]
		next := cur
		if seg < 7 {
			next = ge.gains[seg+1]
		}
		if cur == 0 && next == 0 {
			continue // unity
		}
		g0 := ge.level(cur)
		g1 := ge.level(next)
		for i := 0; i < step && seg*step+i < n; i++ {
			t := float32(i) / float32(step)
			dst[seg*step+i] *= g0 + (g1-g0)*t
		}
	}
}
