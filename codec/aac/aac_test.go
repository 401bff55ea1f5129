package aac

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mediaframe/core/bitio"
	"github.com/mediaframe/core/buffer"
	"github.com/mediaframe/core/codec"
	"github.com/mediaframe/core/format"
	"github.com/mediaframe/core/frame"
	"github.com/mediaframe/core/mediaerr"
)

func TestParseAudioConfigStereo44k(t *testing.T) {
	// The canonical LC/44100/stereo config pair.
	cfg, err := parseAudioConfig([]byte{0x12, 0x10})
	require.NoError(t, err)
	require.Equal(t, objTypeLC, cfg.objectType)
	require.Equal(t, uint32(44100), cfg.srate)
	require.Equal(t, 2, cfg.channels)
	require.Equal(t, 1024, cfg.samples)
}

func audioInfo(channels int) frame.CodecInfo {
	ed := []byte{0x12, 0x10}
	if channels == 1 {
		ed = []byte{0x12, 0x08}
	}
	return frame.CodecInfo{
		Name: "aac",
		Type: frame.MediaAudio,
		Props: frame.Properties{
			Audio: &format.AudioInfo{SampleRate: 44100, Channels: channels, Format: format.SonitonF32P},
		},
		ExtraData: ed,
	}
}

func TestInitRejectsNonLC(t *testing.T) {
	d := New()
	info := audioInfo(2)
	info.ExtraData = []byte{0x0A, 0x10} // object type Main
	err := d.Init(codec.NewSupport(), info)
	if !errors.Is(err, mediaerr.ErrDecNotImplemented) {
		t.Fatalf("got %v, want NotImplemented", err)
	}
}

func TestDecodeSilentSCE(t *testing.T) {
	d := New()
	if err := d.Init(codec.NewSupport(), audioInfo(1)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// SCE with global gain 100, long-only window, max_sfb 0, no pulse/TNS,
	// then END.
	payload := []byte{0x00, 0xC8, 0x00, 0x07}
	pkt := frame.NewPacket(nil, frame.TimeInfo{}, true, payload)
	fr, err := d.Decode(codec.NewSupport(), &pkt)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ab, ok := fr.Buffer.(*buffer.AudioBuffer)
	if !ok {
		t.Fatalf("buffer type %T, want *AudioBuffer", fr.Buffer)
	}
	if ab.Kind() != buffer.KindAudioF32 {
		t.Errorf("buffer kind %v, want AudioF32", ab.Kind())
	}
	if ab.Length() != 1024 {
		t.Errorf("frame length %d, want 1024", ab.Length())
	}
	for i, v := range ab.DataF32() {
		if v != 0 {
			t.Fatalf("sample %d = %f, want silence", i, v)
		}
	}
}

func TestDecodeTruncatedIsShortData(t *testing.T) {
	d := New()
	if err := d.Init(codec.NewSupport(), audioInfo(1)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	pkt := frame.NewPacket(nil, frame.TimeInfo{}, true, []byte{0x00})
	_, err := d.Decode(codec.NewSupport(), &pkt)
	if !errors.Is(err, mediaerr.ErrShortData) {
		t.Fatalf("got %v, want ShortData", err)
	}
}

func TestWindowSequenceTransitions(t *testing.T) {
	var ii icsInfo
	ii.windowSequence = seqOnlyLong
	// OnlyLong -> EightShort is illegal.
	data := []byte{0b0_10_0_0000, 0}
	br := bitio.NewReader(data, bitio.BigEndian)
	if err := ii.decode(br); !errors.Is(err, mediaerr.ErrDecInvalidData) {
		t.Fatalf("got %v, want InvalidData for OnlyLong->EightShort", err)
	}

	// OnlyLong -> LongStart is legal.
	ii = icsInfo{windowSequence: seqOnlyLong}
	data = []byte{0b0_01_0_0000, 0b00_0_00000}
	br = bitio.NewReader(data, bitio.BigEndian)
	if err := ii.decode(br); err != nil {
		t.Fatalf("legal transition rejected: %v", err)
	}
	if ii.windowSequence != seqLongStart || !ii.longWin {
		t.Errorf("decoded sequence %d longWin=%v", ii.windowSequence, ii.longWin)
	}
}

func TestReadEscape(t *testing.T) {
	// Three unary ones, terminator, then seven explicit bits: 0x55.
	data := []byte{0xEA, 0xA0}
	br := bitio.NewReader(data, bitio.BigEndian)
	v, err := readEscape(br, true)
	if err != nil {
		t.Fatalf("readEscape: %v", err)
	}
	if v != 85 {
		t.Fatalf("escape value %d, want 85", v)
	}
}

func TestScaleCodebookZeroDiff(t *testing.T) {
	// Symbol 60 (diff 0) is the single one-bit codeword.
	br := bitio.NewReader([]byte{0x00}, bitio.BigEndian)
	diff, err := br.ReadCB(scaleCodebook)
	if err != nil {
		t.Fatalf("ReadCB: %v", err)
	}
	if diff != 0 {
		t.Fatalf("decoded diff %d, want 0", diff)
	}
}

func TestKBDWindowPowerComplementary(t *testing.T) {
	for _, n := range []int{128, 1024} {
		w := kbdWindow(4.0, n)
		for i := 0; i < n/2; i++ {
			sum := float64(w[i])*float64(w[i]) + float64(w[n-1-i])*float64(w[n-1-i])
			if math.Abs(sum-1.0) > 1e-5 {
				t.Fatalf("n=%d i=%d: w^2 sum = %f", n, i, sum)
			}
		}
	}
}

func TestSubbandInfoSelection(t *testing.T) {
	sbi, idx := findSubbandInfo(44100)
	if idx != 4 {
		t.Errorf("44100 index %d, want 4", idx)
	}
	if len(sbi.longBands)-1 != 49 {
		t.Errorf("44100 long bands %d, want 49", len(sbi.longBands)-1)
	}
	if len(sbi.shortBands)-1 != 14 {
		t.Errorf("44100 short bands %d, want 14", len(sbi.shortBands)-1)
	}
	_, idx = findSubbandInfo(8000)
	if idx != 11 {
		t.Errorf("8000 index %d, want 11", idx)
	}
}

func TestGainEnvelopeDefaultsToUnity(t *testing.T) {
	var ge gainEnvelope // all gain codes zero
	buf := make([]float32, 1024)
	for i := range buf {
		buf[i] = 1.0
	}
	ge.apply(buf)
	for i, v := range buf {
		if v != 1.0 {
			t.Fatalf("sample %d scaled to %f by default envelope", i, v)
		}
	}
}

func TestGainEnvelopeScales(t *testing.T) {
	ge := gainEnvelope{gains: [8]uint8{64, 64, 64, 64, 64, 64, 64, 64}}
	buf := make([]float32, 64)
	for i := range buf {
		buf[i] = 2.0
	}
	ge.apply(buf)
	// Gain code 64 is 2^0 = 1.0.
	for i, v := range buf {
		if math.Abs(float64(v)-2.0) > 1e-6 {
			t.Fatalf("sample %d = %f, want 2.0", i, v)
		}
	}
}

func TestIquantSignSymmetry(t *testing.T) {
	if iquant(8) != -iquant(-8) {
		t.Error("iquant is not odd")
	}
	want := math.Pow(8, 4.0/3.0)
	if math.Abs(float64(iquant(8))-want) > 1e-4 {
		t.Errorf("iquant(8) = %f, want %f", iquant(8), want)
	}
}
