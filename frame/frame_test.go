package frame

import "testing"

func TestNewStreamReducesTimebase(t *testing.T) {
	s := NewStream(MediaVideo, 0, CodecInfo{Name: "realvideo2"}, 2000, 3000)
	if s.TbNum != 2 || s.TbDen != 3 {
		t.Fatalf("timebase not reduced: got %d/%d, want 2/3", s.TbNum, s.TbDen)
	}
}

func TestNewStreamZeroTimebaseDefaultsToOne(t *testing.T) {
	s := NewStream(MediaAudio, 1, CodecInfo{Name: "aac"}, 0, 0)
	if s.TbNum != 1 || s.TbDen != 1 {
		t.Fatalf("zero timebase should default to 1/1, got %d/%d", s.TbNum, s.TbDen)
	}
}

func TestDummyCodecInfo(t *testing.T) {
	ci := NewDummyCodecInfo("unknown")
	if !ci.IsDummy() {
		t.Fatal("expected dummy CodecInfo")
	}
	real := CodecInfo{Name: "aac", Type: MediaAudio}
	if real.IsDummy() {
		t.Fatal("CodecInfo with a real type must not be dummy")
	}
}

func TestTimeInfoPtsMillis(t *testing.T) {
	ts := NewTimeInfo(44100, NoTimestamp, NoTimestamp, 1, 44100)
	ms, ok := ts.PtsMillis()
	if !ok || ms != 1000 {
		t.Fatalf("44100 pts at 1/44100 tb => 1000ms, got %d ok=%v", ms, ok)
	}
}

func TestTimeInfoNoPts(t *testing.T) {
	ts := TimeInfo{Pts: NoTimestamp, TbNum: 1, TbDen: 1000}
	if ts.HasPts() {
		t.Fatal("NoTimestamp must report HasPts() == false")
	}
	if _, ok := ts.PtsMillis(); ok {
		t.Fatal("PtsMillis must fail when Pts is absent")
	}
}

func TestFrameTypeIsRef(t *testing.T) {
	cases := map[Type]bool{TypeI: true, TypeP: true, TypeB: false, TypeSkip: false, TypeOther: false}
	for ft, want := range cases {
		if got := ft.IsRef(); got != want {
			t.Errorf("%v.IsRef() = %v, want %v", ft, got, want)
		}
	}
}

func TestFrameSetOption(t *testing.T) {
	var f Frame
	if _, ok := f.Option("missing"); ok {
		t.Fatal("expected no option on zero-value Frame")
	}
	f.SetOption("quant", 5)
	v, ok := f.Option("quant")
	if !ok || v.(int) != 5 {
		t.Fatalf("option round-trip failed: got %v, %v", v, ok)
	}
}
