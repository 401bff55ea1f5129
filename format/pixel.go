package format

import "fmt"

// ColorModel enumerates the color space a PixelFormaton describes.
type ColorModel int

const (
	ColorRGB ColorModel = iota
	ColorYUV
	ColorCMYK
	ColorHSV
	ColorLAB
	ColorXYZ
)

// MaxChromatons is the maximum number of color components a PixelFormaton
// may declare.
const MaxChromatons = 5

// Chromaton describes the layout of one color component.
type Chromaton struct {
	HSubsample int // log2 horizontal subsampling
	VSubsample int // log2 vertical subsampling
	Packed     bool
	Depth      uint8 // bits per component sample
	Shift      uint8 // bit shift within the packed element
	CompOffset int   // byte offset of this component within a packed element
	NextElem   int   // byte stride to the next pixel's same component (packed only)
	Present    bool  // false means "no chromaton for this slot"
}

// Linesize returns the byte stride of one row of this component at image
// width w * depth / 8)).
func (c Chromaton) Linesize(w int) int {
	sw := w >> uint(c.HSubsample)
	bits := sw * int(c.Depth)
	return (bits + 7) / 8
}

// PlaneHeight returns the number of rows this component occupies at image
// height h.
func (c Chromaton) PlaneHeight(h int) int {
	return h >> uint(c.VSubsample)
}

// PixelFormaton describes a complete pixel format.
type PixelFormaton struct {
	Model       ColorModel
	Chromatons  [MaxChromatons]Chromaton
	NumComps    int
	ElemSize    int // bytes per packed pixel element, 0 for planar formats
	BigEndian   bool
	HasAlpha    bool
	IsPaletted  bool
}

// Comp returns the i'th declared chromaton and whether it is present.
func (p PixelFormaton) Comp(i int) (Chromaton, bool) {
	if i < 0 || i >= p.NumComps {
		return Chromaton{}, false
	}
	c := p.Chromatons[i]
	return c, c.Present
}

// MaxDepth returns the largest bit depth among the format's present
// components; buffer allocation picks the element width from it (<=8 bits
// u8, <=16 u16, else u32).
func (p PixelFormaton) MaxDepth() uint8 {
	var max uint8
	for i := 0; i < p.NumComps; i++ {
		c := p.Chromatons[i]
		if c.Present && c.Depth > max {
			max = c.Depth
		}
	}
	return max
}

// AllPacked reports whether every present component is packed; only then
// does a single-plane interleaved allocation apply.
func (p PixelFormaton) AllPacked() bool {
	any := false
	for i := 0; i < p.NumComps; i++ {
		c := p.Chromatons[i]
		if !c.Present {
			continue
		}
		any = true
		if !c.Packed {
			return false
		}
	}
	return any
}

// ByteAligned reports whether every present component starts and ends on a
// byte boundary, the condition that decides between a
// VideoPacked allocation (stride width*elemSize) and a generic interleaved
// layout.
func (p PixelFormaton) ByteAligned() bool {
	for i := 0; i < p.NumComps; i++ {
		c := p.Chromatons[i]
		if !c.Present {
			continue
		}
		if c.Depth%8 != 0 || c.Shift%8 != 0 {
			return false
		}
	}
	return true
}

func (p PixelFormaton) String() string {
	return fmt.Sprintf("PixelFormaton{model=%d comps=%d elemSize=%d paletted=%v}", p.Model, p.NumComps, p.ElemSize, p.IsPaletted)
}

// Well-known formats used by the demuxers, decoders, and tests.
var (
	// YUV420P: 3 planar components, 2x2 chroma subsampling, 8-bit depth.
	YUV420P = PixelFormaton{
		Model: ColorYUV,
		Chromatons: [MaxChromatons]Chromaton{
			{Depth: 8, Present: true},
			{HSubsample: 1, VSubsample: 1, Depth: 8, Present: true},
			{HSubsample: 1, VSubsample: 1, Depth: 8, Present: true},
		},
		NumComps: 3,
	}

	// RGB24: single packed 3-byte-per-pixel element.
	RGB24 = PixelFormaton{
		Model: ColorRGB,
		Chromatons: [MaxChromatons]Chromaton{
			{Packed: true, Depth: 8, CompOffset: 0, NextElem: 3, Present: true},
			{Packed: true, Depth: 8, CompOffset: 1, NextElem: 3, Present: true},
			{Packed: true, Depth: 8, CompOffset: 2, NextElem: 3, Present: true},
		},
		NumComps: 3,
		ElemSize: 3,
	}
)
