package stream

import (
	"testing"

	"github.com/mediaframe/core/frame"
)

func TestManagerAddAssignsSequentialNum(t *testing.T) {
	m := NewManager(nil)
	n0, ok := m.Add(frame.NewStream(frame.MediaVideo, 0, frame.CodecInfo{Name: "realvideo2"}, 1, 1000))
	if !ok || n0 != 0 {
		t.Fatalf("first Add: num=%d ok=%v, want 0 true", n0, ok)
	}
	n1, ok := m.Add(frame.NewStream(frame.MediaAudio, 1, frame.CodecInfo{Name: "aac"}, 1, 44100))
	if !ok || n1 != 1 {
		t.Fatalf("second Add: num=%d ok=%v, want 1 true", n1, ok)
	}
	if m.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", m.Count())
	}
}

func TestManagerRejectsDuplicateID(t *testing.T) {
	m := NewManager(nil)
	m.Add(frame.NewStream(frame.MediaVideo, 5, frame.CodecInfo{Name: "realvideo2"}, 1, 1000))
	_, ok := m.Add(frame.NewStream(frame.MediaVideo, 5, frame.CodecInfo{Name: "realvideo2"}, 1, 1000))
	if ok {
		t.Fatal("Add must reject a second stream with the same ID")
	}
	if m.Count() != 1 {
		t.Fatalf("Count() = %d, want 1 after rejected duplicate", m.Count())
	}
}

func TestManagerGetByID(t *testing.T) {
	m := NewManager(nil)
	m.Add(frame.NewStream(frame.MediaAudio, 7, frame.CodecInfo{Name: "aac"}, 1, 44100))
	s, ok := m.GetByID(7)
	if !ok || s.ID != 7 {
		t.Fatalf("GetByID(7): %+v ok=%v", s, ok)
	}
	if _, ok := m.GetByID(99); ok {
		t.Fatal("GetByID should fail for an unknown id")
	}
}

func TestManagerIgnoredFilter(t *testing.T) {
	m := NewManager(nil)
	m.Add(frame.NewStream(frame.MediaVideo, 0, frame.CodecInfo{Name: "realvideo2"}, 1, 1000))
	if m.AnyIgnored() {
		t.Fatal("fresh manager should have no ignored streams")
	}
	m.SetIgnored(0)
	if !m.AnyIgnored() || !m.IsIgnoredID(0) {
		t.Fatal("stream 0 should be ignored after SetIgnored(0)")
	}
	m.SetUnignored(0)
	if m.AnyIgnored() || m.IsIgnoredID(0) {
		t.Fatal("stream 0 should not be ignored after SetUnignored(0)")
	}
}

func TestSeekIndexLookup(t *testing.T) {
	si := NewSeekIndex()
	si.Add(SeekEntry{StreamID: 0, TimeMs: 0, Offset: 100, Keyframe: true})
	si.Add(SeekEntry{StreamID: 0, TimeMs: 1000, Offset: 5000, Keyframe: true})
	si.Add(SeekEntry{StreamID: 0, TimeMs: 2000, Offset: 9000, Keyframe: false})

	e, ok := si.Lookup(0, 1500)
	if !ok || e.Offset != 5000 {
		t.Fatalf("Lookup(1500): %+v ok=%v, want offset 5000", e, ok)
	}

	e, ok = si.Lookup(0, 2500)
	if !ok || e.Offset != 5000 {
		t.Fatalf("Lookup(2500) should fall back to the last keyframe before it: %+v", e)
	}

	if _, ok := si.Lookup(1, 0); ok {
		t.Fatal("Lookup on an unindexed stream must fail")
	}
}
