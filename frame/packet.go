package frame

// Packet is one demuxed, still-compressed access unit. Stream is
// a reference to the Stream that produced it; Buffer is the payload, a
// plain byte slice taken by reference (see NewPacket), not reference-counted.
//
// Invariant: Stream must have been produced by the StreamManager that
// owns the demuxer that produced this Packet. The framework does not check
// this at runtime; it is a contract between a demuxer and its caller.
type Packet struct {
	Stream   *Stream
	TS       TimeInfo
	Keyframe bool
	Buffer   []byte
}

// NewPacket constructs a Packet. Buffer is taken by reference, not copied;
// callers that need to retain the source slice must copy before reuse.
func NewPacket(stream *Stream, ts TimeInfo, keyframe bool, buffer []byte) Packet {
	return Packet{Stream: stream, TS: ts, Keyframe: keyframe, Buffer: buffer}
}

// Size returns the payload length in bytes.
func (p Packet) Size() int { return len(p.Buffer) }
