// Package soundcvt converts decoded audio between sample formats and
// channel layouts: any two byte-aligned sonitons, plus channel passthrough,
// reordering, standard downmix, and mono duplication. Conversion routes
// every sample through a float64 intermediate, whatever the target format;
// there is no separate integer path.
package soundcvt

import (
	"math"

	"github.com/mediaframe/core/buffer"
	"github.com/mediaframe/core/format"
	"github.com/mediaframe/core/mediaerr"
)

// Channel identifies one speaker position.
type Channel uint8

const (
	ChC Channel = iota
	ChL
	ChR
	ChCs
	ChLs
	ChRs
	ChLss
	ChRss
	ChLFE
)

func (c Channel) isLeft() bool  { return c == ChL || c == ChLs || c == ChLss }
func (c Channel) isRight() bool { return c == ChR || c == ChRs || c == ChRss }

// ChannelMap lists a buffer's channels in storage order.
type ChannelMap []Channel

// Equal reports whether two maps list the same channels in the same order.
func (m ChannelMap) Equal(o ChannelMap) bool {
	if len(m) != len(o) {
		return false
	}
	for i := range m {
		if m[i] != o[i] {
			return false
		}
	}
	return true
}

// sameSet reports whether two maps hold the same channels in any order.
func sameSet(a, b ChannelMap) bool {
	if len(a) != len(b) {
		return false
	}
	var have [16]int
	for _, c := range a {
		have[c]++
	}
	for _, c := range b {
		have[c]--
	}
	for _, n := range have {
		if n != 0 {
			return false
		}
	}
	return true
}

// StereoMap and MonoMap are the layouts this core's decoders produce.
var (
	MonoMap   = ChannelMap{ChC}
	StereoMap = ChannelMap{ChL, ChR}
)

func isStereo(m ChannelMap) bool {
	return len(m) == 2 && m[0] == ChL && m[1] == ChR
}

// channel operations
type opKind int

const (
	opPassthrough opKind = iota
	opReorder
	opRemix
	opDupMono
)

type channelOp struct {
	kind    opKind
	reorder []int
	remix   []float32 // dst-major: remix[d*srcCh+s]
	dup     []bool
}

// ReorderMatrix computes the source index feeding each destination channel;
// nil when the maps are not permutations of each other.
func ReorderMatrix(src, dst ChannelMap) []int {
	if len(src) != len(dst) {
		return nil
	}
	out := make([]int, 0, len(dst))
	for _, want := range dst {
		found := -1
		for j, have := range src {
			if have == want {
				found = j
				break
			}
		}
		if found < 0 {
			return nil
		}
		out = append(out, found)
	}
	return out
}

// RemixMatrix computes the downmix coefficients for the supported
// reductions: stereo to mono, and five-or-more channels to stereo with the
// standard 1 / sqrt(2)/2 weights.
func RemixMatrix(src, dst ChannelMap) ([]float32, error) {
	if isStereo(src) && len(dst) == 1 && (dst[0] == ChL || dst[0] == ChC) {
		return []float32{0.5, 0.5}, nil
	}
	if len(src) >= 5 && isStereo(dst) {
		const half = float32(math.Sqrt2 / 2.0)
		mat := make([]float32, len(src)*2)
		lMat := mat[:len(src)]
		rMat := mat[len(src):]
		for ch, c := range src {
			switch c {
			case ChL:
				lMat[ch] = 1.0
			case ChR:
				rMat[ch] = 1.0
			case ChC:
				lMat[ch] = half
				rMat[ch] = half
			case ChLs:
				lMat[ch] = half
			case ChRs:
				rMat[ch] = half
			}
		}
		return mat, nil
	}
	return nil, mediaerr.Wrap(mediaerr.ErrUnsupportedFormat, "soundcvt: no remix from %d to %d channels", len(src), len(dst))
}

func pickChannelOp(src, dst ChannelMap) (channelOp, error) {
	switch {
	case src.Equal(dst):
		return channelOp{kind: opPassthrough}, nil
	case sameSet(src, dst):
		return channelOp{kind: opReorder, reorder: ReorderMatrix(src, dst)}, nil
	case len(src) > 1:
		mat, err := RemixMatrix(src, dst)
		if err != nil {
			return channelOp{}, err
		}
		return channelOp{kind: opRemix, remix: mat}, nil
	default:
		dup := make([]bool, len(dst))
		for i, c := range dst {
			dup[i] = c.isLeft() || c.isRight() || c == ChC
		}
		return channelOp{kind: opDupMono, dup: dup}, nil
	}
}

// sampleReader yields one channel-vector of f64 samples per frame index,
// normalized to [-1, 1).
type sampleReader func(idx int, out []float64) error

func readerFor(src *buffer.AudioBuffer, srcCh int) (sampleReader, error) {
	switch src.Kind() {
	case buffer.KindAudioU8:
		data := src.DataU8()
		return func(idx int, out []float64) error {
			for ch := range out {
				out[ch] = (float64(data[src.Offset(ch)+idx]) - 128.0) / 128.0
			}
			return nil
		}, nil
	case buffer.KindAudioI16:
		data := src.DataI16()
		return func(idx int, out []float64) error {
			for ch := range out {
				out[ch] = float64(data[src.Offset(ch)+idx]) / 32768.0
			}
			return nil
		}, nil
	case buffer.KindAudioI32:
		data := src.DataI32()
		return func(idx int, out []float64) error {
			for ch := range out {
				out[ch] = float64(data[src.Offset(ch)+idx]) / 2147483648.0
			}
			return nil
		}, nil
	case buffer.KindAudioF32:
		data := src.DataF32()
		return func(idx int, out []float64) error {
			for ch := range out {
				out[ch] = float64(data[src.Offset(ch)+idx])
			}
			return nil
		}, nil
	default:
		return nil, mediaerr.Wrap(mediaerr.ErrUnsupportedFormat, "soundcvt: unsupported source buffer %v", src.Kind())
	}
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type sampleWriter func(idx int, in []float64) error

func writerFor(dst *buffer.AudioBuffer) (sampleWriter, error) {
	switch dst.Kind() {
	case buffer.KindAudioU8:
		data := dst.DataU8()
		return func(idx int, in []float64) error {
			for ch := range in {
				data[dst.Offset(ch)+idx] = uint8(clip(in[ch]*128.0+128.0, 0, 255))
			}
			return nil
		}, nil
	case buffer.KindAudioI16:
		data := dst.DataI16()
		return func(idx int, in []float64) error {
			for ch := range in {
				data[dst.Offset(ch)+idx] = int16(clip(in[ch]*32768.0, -32768, 32767))
			}
			return nil
		}, nil
	case buffer.KindAudioI32:
		data := dst.DataI32()
		return func(idx int, in []float64) error {
			for ch := range in {
				data[dst.Offset(ch)+idx] = int32(clip(in[ch]*2147483648.0, -2147483648, 2147483647))
			}
			return nil
		}, nil
	case buffer.KindAudioF32:
		data := dst.DataF32()
		return func(idx int, in []float64) error {
			for ch := range in {
				data[dst.Offset(ch)+idx] = float32(in[ch])
			}
			return nil
		}, nil
	default:
		return nil, mediaerr.Wrap(mediaerr.ErrUnsupportedFormat, "soundcvt: unsupported target buffer %v", dst.Kind())
	}
}

func (op channelOp) apply(in, out []float64) {
	switch op.kind {
	case opPassthrough:
		copy(out, in)
	case opReorder:
		for d, s := range op.reorder {
			out[d] = in[s]
		}
	case opRemix:
		srcCh := len(in)
		for d := range out {
			var sum float64
			for s := 0; s < srcCh; s++ {
				sum += in[s] * float64(op.remix[d*srcCh+s])
			}
			out[d] = sum
		}
	case opDupMono:
		for d := range out {
			if op.dup[d] {
				out[d] = in[0]
			} else {
				out[d] = 0
			}
		}
	}
}

// ConvertAudioFrame converts src into a freshly allocated buffer described
// by dstInfo/dstMap. The source layout is given by srcMap; len(srcMap) must
// match the source's channel count.
func ConvertAudioFrame(src *buffer.AudioBuffer, dstInfo format.AudioInfo, srcMap, dstMap ChannelMap) (*buffer.AudioBuffer, error) {
	if src == nil || src.Length() == 0 {
		return nil, mediaerr.Wrap(mediaerr.ErrInvalidData, "soundcvt: empty source")
	}
	if len(srcMap) == 0 || len(dstMap) == 0 || len(srcMap) != src.Channels() {
		return nil, mediaerr.Wrap(mediaerr.ErrInvalidData, "soundcvt: bad channel maps (%d src, %d dst)", len(srcMap), len(dstMap))
	}
	if dstInfo.Channels != len(dstMap) {
		return nil, mediaerr.Wrap(mediaerr.ErrInvalidData, "soundcvt: channel count mismatch")
	}

	op, err := pickChannelOp(srcMap, dstMap)
	if err != nil {
		return nil, err
	}

	nsamples := src.Length()
	dst, err := buffer.AllocAudioBuffer(dstInfo, nsamples, nil)
	if err != nil {
		return nil, err
	}
	read, err := readerFor(src, len(srcMap))
	if err != nil {
		return nil, err
	}
	write, err := writerFor(dst)
	if err != nil {
		return nil, err
	}

	in := make([]float64, len(srcMap))
	out := make([]float64, len(dstMap))
	for i := 0; i < nsamples; i++ {
		if err := read(i, in); err != nil {
			return nil, err
		}
		op.apply(in, out)
		if err := write(i, out); err != nil {
			return nil, err
		}
	}
	return dst, nil
}
