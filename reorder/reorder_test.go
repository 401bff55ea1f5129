package reorder

import (
	"testing"

	"github.com/mediaframe/core/frame"
)

func mkFrame(id uint64, ft frame.Type) frame.Frame {
	return frame.Frame{TS: frame.TimeInfo{Pts: id}, FrameType: ft}
}

func TestNoneHoldsOneFrame(t *testing.T) {
	n := NewNone()
	if !n.Add(mkFrame(1, frame.TypeI)) {
		t.Fatal("first Add rejected")
	}
	if n.Add(mkFrame(2, frame.TypeP)) {
		t.Fatal("second Add accepted while full")
	}
	f, ok := n.Get()
	if !ok || f.TS.Pts != 1 {
		t.Fatalf("Get = %v %v", f.TS.Pts, ok)
	}
	if _, ok := n.Get(); ok {
		t.Fatal("Get on empty reorderer returned a frame")
	}
}

func TestIPBDisplaysBBeforeReference(t *testing.T) {
	r := NewIPB(4)
	// Decode order: I0 P3 B1 B2 — display order: I0 B1 B2 P3.
	r.Add(mkFrame(0, frame.TypeI))
	r.Add(mkFrame(3, frame.TypeP))
	r.Add(mkFrame(1, frame.TypeB))
	r.Add(mkFrame(2, frame.TypeB))

	var got []uint64
	for {
		f, ok := r.Get()
		if !ok {
			break
		}
		got = append(got, f.TS.Pts)
	}
	want := []uint64{0, 1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("display order %v, want %v", got, want)
		}
	}
}

func TestIPBEveryInputAppearsOnce(t *testing.T) {
	r := NewIPB(16)
	types := []frame.Type{
		frame.TypeI, frame.TypeP, frame.TypeB, frame.TypeP,
		frame.TypeB, frame.TypeB, frame.TypeP, frame.TypeB,
	}
	seen := map[uint64]int{}
	var emitted []uint64
	for i, ft := range types {
		if !r.Add(mkFrame(uint64(i), ft)) {
			t.Fatalf("Add %d rejected", i)
		}
	}
	for {
		f, ok := r.Last()
		if !ok {
			break
		}
		seen[f.TS.Pts]++
		emitted = append(emitted, f.TS.Pts)
	}
	if len(emitted) != len(types) {
		t.Fatalf("emitted %d frames, want %d", len(emitted), len(types))
	}
	for i := range types {
		if seen[uint64(i)] != 1 {
			t.Fatalf("frame %d appeared %d times", i, seen[uint64(i)])
		}
	}
}

func TestIPBRespectsMaxDepth(t *testing.T) {
	r := NewIPB(2)
	if !r.Add(mkFrame(0, frame.TypeI)) || !r.Add(mkFrame(1, frame.TypeP)) {
		t.Fatal("fills rejected")
	}
	if r.Add(mkFrame(2, frame.TypeP)) {
		t.Fatal("Add accepted past max depth")
	}
	r.Flush()
	if _, ok := r.Get(); ok {
		t.Fatal("frames survived Flush")
	}
}
