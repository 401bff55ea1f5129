package soundcvt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mediaframe/core/buffer"
	"github.com/mediaframe/core/format"
)

func allocS16(t *testing.T, channels, nsamples int) *buffer.AudioBuffer {
	t.Helper()
	info := format.AudioInfo{SampleRate: 44100, Channels: channels, Format: format.SonitonS16P}
	b, err := buffer.AllocAudioBuffer(info, nsamples, nil)
	require.NoError(t, err)
	return b
}

func TestReorderMatrixRoundTrip(t *testing.T) {
	src := ChannelMap{ChL, ChR, ChC}
	dst := ChannelMap{ChC, ChL, ChR}
	fwd := ReorderMatrix(src, dst)
	inv := ReorderMatrix(dst, src)
	if fwd == nil || inv == nil {
		t.Fatal("reorder matrices not computed")
	}
	// Composing the two permutations is the identity.
	for i := range src {
		if fwd[inv[i]] != i {
			t.Fatalf("permutation not inverted at %d: fwd=%v inv=%v", i, fwd, inv)
		}
	}
}

func TestReorderMatrixRejectsDifferentSets(t *testing.T) {
	if m := ReorderMatrix(ChannelMap{ChL, ChR}, ChannelMap{ChL, ChC}); m != nil {
		t.Fatalf("got matrix %v for non-permutation maps", m)
	}
}

func TestIdentityConversionRoundTrips(t *testing.T) {
	src := allocS16(t, 2, 4)
	data, _ := src.GetMutI16()
	vals := []int16{100, -200, 3000, -4000, 50, -60, 7000, -8000}
	copy(data, vals)

	dstInfo := format.AudioInfo{SampleRate: 44100, Channels: 2, Format: format.SonitonS16P}
	dst, err := ConvertAudioFrame(src, dstInfo, StereoMap, StereoMap)
	if err != nil {
		t.Fatalf("ConvertAudioFrame: %v", err)
	}
	for i, want := range vals {
		if got := dst.DataI16()[i]; got != want {
			t.Fatalf("sample %d = %d, want %d", i, got, want)
		}
	}
}

func TestS16ToF32AndBack(t *testing.T) {
	src := allocS16(t, 1, 3)
	data, _ := src.GetMutI16()
	copy(data, []int16{16384, -16384, 0})

	f32Info := format.AudioInfo{SampleRate: 44100, Channels: 1, Format: format.SonitonF32P}
	fbuf, err := ConvertAudioFrame(src, f32Info, MonoMap, MonoMap)
	if err != nil {
		t.Fatalf("to f32: %v", err)
	}
	if math.Abs(float64(fbuf.DataF32()[0])-0.5) > 1e-6 {
		t.Fatalf("16384 -> %f, want 0.5", fbuf.DataF32()[0])
	}

	s16Info := format.AudioInfo{SampleRate: 44100, Channels: 1, Format: format.SonitonS16P}
	back, err := ConvertAudioFrame(fbuf, s16Info, MonoMap, MonoMap)
	if err != nil {
		t.Fatalf("back to s16: %v", err)
	}
	for i, want := range []int16{16384, -16384, 0} {
		if got := back.DataI16()[i]; got != want {
			t.Fatalf("sample %d = %d, want %d", i, got, want)
		}
	}
}

func TestStereoToMonoAverages(t *testing.T) {
	src := allocS16(t, 2, 2)
	data, _ := src.GetMutI16()
	// L = 1000, 2000; R = 3000, 4000.
	data[src.Offset(0)+0] = 1000
	data[src.Offset(0)+1] = 2000
	data[src.Offset(1)+0] = 3000
	data[src.Offset(1)+1] = 4000

	monoInfo := format.AudioInfo{SampleRate: 44100, Channels: 1, Format: format.SonitonS16P}
	dst, err := ConvertAudioFrame(src, monoInfo, StereoMap, MonoMap)
	if err != nil {
		t.Fatalf("ConvertAudioFrame: %v", err)
	}
	if got := dst.DataI16()[0]; got != 2000 {
		t.Fatalf("mono sample 0 = %d, want 2000", got)
	}
	if got := dst.DataI16()[1]; got != 3000 {
		t.Fatalf("mono sample 1 = %d, want 3000", got)
	}
}

func TestFiveOneToStereoCoefficients(t *testing.T) {
	src := ChannelMap{ChL, ChR, ChC, ChLFE, ChLs, ChRs}
	mat, err := RemixMatrix(src, StereoMap)
	require.NoError(t, err)
	half := float32(math.Sqrt2 / 2.0)
	require.Equal(t, []float32{1, 0, half, 0, half, 0}, mat[:len(src)], "left coefficients")
	require.Equal(t, []float32{0, 1, half, 0, 0, half}, mat[len(src):], "right coefficients")
}

func TestMonoToStereoDuplicates(t *testing.T) {
	src := allocS16(t, 1, 2)
	data, _ := src.GetMutI16()
	data[0] = 1234
	data[1] = -1234

	stereoInfo := format.AudioInfo{SampleRate: 44100, Channels: 2, Format: format.SonitonS16P}
	dst, err := ConvertAudioFrame(src, stereoInfo, MonoMap, StereoMap)
	if err != nil {
		t.Fatalf("ConvertAudioFrame: %v", err)
	}
	for ch := 0; ch < 2; ch++ {
		if got := dst.DataI16()[dst.Offset(ch)+0]; got != 1234 {
			t.Fatalf("ch %d sample 0 = %d, want 1234", ch, got)
		}
		if got := dst.DataI16()[dst.Offset(ch)+1]; got != -1234 {
			t.Fatalf("ch %d sample 1 = %d, want -1234", ch, got)
		}
	}
}

func TestU8RoundTripThroughI16(t *testing.T) {
	u8Info := format.AudioInfo{SampleRate: 8000, Channels: 1, Format: format.Soniton{Bits: 8, Planar: true}}
	src, err := buffer.AllocAudioBuffer(u8Info, 3, nil)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	// Planar 8-bit allocations land in the U8 variant.
	for i, v := range []uint8{0, 128, 255} {
		src.DataU8()[i] = v
	}
	s16Info := format.AudioInfo{SampleRate: 8000, Channels: 1, Format: format.SonitonS16P}
	mid, err := ConvertAudioFrame(src, s16Info, MonoMap, MonoMap)
	if err != nil {
		t.Fatalf("to s16: %v", err)
	}
	back, err := ConvertAudioFrame(mid, u8Info, MonoMap, MonoMap)
	if err != nil {
		t.Fatalf("back to u8: %v", err)
	}
	for i, want := range []uint8{0, 128, 255} {
		if got := back.DataU8()[i]; got != want {
			t.Fatalf("sample %d = %d, want %d", i, got, want)
		}
	}
}
