package avi

import (
	"encoding/binary"
	"testing"

	"github.com/mediaframe/core/demux"
	"github.com/mediaframe/core/mediaerr"
)

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u16le(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

// buildMinimalAVI assembles a RIFF/AVI file with one Intel-263 video stream
// and a single movi chunk.
func buildMinimalAVI(width, height int32, fcc string, moviPayload []byte) []byte {
	var strf []byte
	strf = append(strf, u32le(40)...) // biSize
	strf = append(strf, u32le(uint32(int32(width)))...)
	strf = append(strf, u32le(uint32(int32(height)))...)
	strf = append(strf, u16le(1)...)  // planes
	strf = append(strf, u16le(24)...) // bitcount
	strf = append(strf, []byte(fcc)...)
	strf = append(strf, u32le(0)...) // sizeimage
	strf = append(strf, u32le(0)...) // xpels
	strf = append(strf, u32le(0)...) // ypels
	strf = append(strf, u32le(0)...) // clrused
	strf = append(strf, u32le(0)...) // clrimportant

	var strh []byte
	strh = append(strh, []byte("vids")...)
	strh = append(strh, []byte(fcc)...)
	strh = append(strh, u32le(0)...) // flags
	strh = append(strh, u32le(0)...) // priority+language
	strh = append(strh, u32le(0)...) // initial frames
	strh = append(strh, u32le(1)...) // scale
	strh = append(strh, u32le(25)...) // rate
	strh = append(strh, u32le(0)...)
	strh = append(strh, u32le(1)...)
	strh = append(strh, u32le(0)...)
	strh = append(strh, u32le(0)...)
	strh = append(strh, u32le(0)...)
	strh = append(strh, u16le(0)...)
	strh = append(strh, u16le(0)...)
	strh = append(strh, u16le(0)...)
	strh = append(strh, u16le(0)...)

	strl := chunk("strh", strh)
	strl = append(strl, chunk("strf", strf)...)
	strlList := list("strl", strl)

	avih := append(u32le(40000), u32le(0)...)
	avih = append(avih, u32le(0)...)
	avih = append(avih, u32le(0)...)
	avih = append(avih, u32le(1)...) // total frames
	avih = append(avih, make([]byte, 4*6)...)

	hdrl := chunk("avih", avih)
	hdrl = append(hdrl, strlList...)
	hdrlList := list("hdrl", hdrl)

	moviList := list("movi", chunk("00dc", moviPayload))

	riffBody := append([]byte("AVI "), hdrlList...)
	riffBody = append(riffBody, moviList...)
	return chunk("RIFF", riffBody)
}

func chunk(id string, body []byte) []byte {
	out := append([]byte(id), u32le(uint32(len(body)))...)
	out = append(out, body...)
	if len(body)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func list(listType string, body []byte) []byte {
	return chunk("LIST", append([]byte(listType), body...))
}

func TestAVIDemuxIntel263(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	data := buildMinimalAVI(176, 144, "I263", payload)

	reg := demux.NewRegistry()
	Register(reg)
	d, err := demux.Open(reg, "avi", data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	streams := d.Streams().Streams()
	if len(streams) != 1 {
		t.Fatalf("expected 1 stream, got %d", len(streams))
	}
	if streams[0].Info.Name != "intel263" {
		t.Fatalf("codec name = %q, want intel263", streams[0].Info.Name)
	}
	if streams[0].Info.Props.Video.Width != 176 || streams[0].Info.Props.Video.Height != 144 {
		t.Fatalf("video dims = %dx%d, want 176x144", streams[0].Info.Props.Video.Width, streams[0].Info.Props.Video.Height)
	}

	pkt, err := d.NextPacket()
	if err != nil {
		t.Fatalf("NextPacket: %v", err)
	}
	if string(pkt.Buffer) != string(payload) {
		t.Fatalf("packet payload mismatch: got %v want %v", pkt.Buffer, payload)
	}
	if !pkt.TS.HasPts() || pkt.TS.Pts != 0 {
		t.Fatalf("first packet pts = %d (has=%v), want 0", pkt.TS.Pts, pkt.TS.HasPts())
	}
	if pkt.TS.TbNum != 1 || pkt.TS.TbDen != 25 {
		t.Fatalf("timebase %d/%d, want 1/25", pkt.TS.TbNum, pkt.TS.TbDen)
	}

	if _, err := d.NextPacket(); err != mediaerr.ErrEOF {
		t.Fatalf("expected EOF after one packet, got %v", err)
	}
}

func TestAVIRejectsOversizedWidth(t *testing.T) {
	data := buildMinimalAVI(1<<16, 144, "I263", []byte{1})
	reg := demux.NewRegistry()
	Register(reg)
	_, err := demux.Open(reg, "avi", data)
	if err != mediaerr.ErrUnsupportedFormat {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestAVIZeroByteSourceDoesNotPanic(t *testing.T) {
	reg := demux.NewRegistry()
	Register(reg)
	_, err := demux.Open(reg, "avi", nil)
	if err == nil {
		t.Fatal("expected an error on empty input")
	}
}
