// Package bitio provides byte- and bit-level reading primitives. ByteReader
// is a positioned-read abstraction over a byte source; the concrete
// file/network source behind it is an external collaborator and out of
// scope here, so this package only ships a byte-slice-backed adapter,
// MemReader, for tests and simple callers. The demuxers in this module do
// not use ByteReader: they parse an in-memory byte slice with their own
// readers. Reader is the bit-level cursor the codecs (H.263 and AAC
// bitstreams) drive directly.
package bitio

import (
	"errors"
	"fmt"
	"io"
)

// ErrShortRead is returned when a positioned read runs past the end of the
// underlying source.
var ErrShortRead = errors.New("bitio: short read")

// SeekFrom mirrors io.SeekStart/Current/End without importing io for callers
// that only need the byte reader contract.
type SeekFrom int

const (
	SeekStart   SeekFrom = SeekFrom(io.SeekStart)
	SeekCurrent SeekFrom = SeekFrom(io.SeekCurrent)
	SeekEnd     SeekFrom = SeekFrom(io.SeekEnd)
)

// ByteReader is a positioned byte-oriented source. Implementations must treat a read past EOF as ErrShortRead
// wrapped, never a panic.
type ByteReader interface {
	ReadU8() (uint8, error)
	ReadU16LE() (uint16, error)
	ReadU16BE() (uint16, error)
	ReadU24LE() (uint32, error)
	ReadU24BE() (uint32, error)
	ReadU32LE() (uint32, error)
	ReadU32BE() (uint32, error)
	ReadU64LE() (uint64, error)
	ReadU64BE() (uint64, error)
	ReadS8() (int8, error)
	ReadS16LE() (int16, error)
	ReadS16BE() (int16, error)
	ReadS32LE() (int32, error)
	ReadS32BE() (int32, error)
	ReadBuf(dst []byte) error
	ReadSkip(n int) error
	PeekU32BE() (uint32, error)
	Tell() int64
	Seek(off int64, from SeekFrom) (int64, error)
	IsEOF() bool
}

// MemReader implements ByteReader over an in-memory byte slice. It is the
// concrete adapter this core ships for tests and simple callers; production
// callers are expected to supply their own ByteReader over a file or socket.
type MemReader struct {
	data []byte
	pos  int64
}

// NewMemReader wraps data for positioned reading.
func NewMemReader(data []byte) *MemReader {
	return &MemReader{data: data}
}

func (r *MemReader) need(n int) error {
	if r.pos < 0 || r.pos+int64(n) > int64(len(r.data)) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d total", ErrShortRead, n, r.pos, len(r.data))
	}
	return nil
}

func (r *MemReader) ReadU8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *MemReader) ReadS8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

func (r *MemReader) ReadU16LE() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := uint16(r.data[r.pos]) | uint16(r.data[r.pos+1])<<8
	r.pos += 2
	return v, nil
}

func (r *MemReader) ReadU16BE() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := uint16(r.data[r.pos])<<8 | uint16(r.data[r.pos+1])
	r.pos += 2
	return v, nil
}

func (r *MemReader) ReadS16LE() (int16, error) {
	v, err := r.ReadU16LE()
	return int16(v), err
}

func (r *MemReader) ReadS16BE() (int16, error) {
	v, err := r.ReadU16BE()
	return int16(v), err
}

func (r *MemReader) ReadU24LE() (uint32, error) {
	if err := r.need(3); err != nil {
		return 0, err
	}
	v := uint32(r.data[r.pos]) | uint32(r.data[r.pos+1])<<8 | uint32(r.data[r.pos+2])<<16
	r.pos += 3
	return v, nil
}

func (r *MemReader) ReadU24BE() (uint32, error) {
	if err := r.need(3); err != nil {
		return 0, err
	}
	v := uint32(r.data[r.pos])<<16 | uint32(r.data[r.pos+1])<<8 | uint32(r.data[r.pos+2])
	r.pos += 3
	return v, nil
}

func (r *MemReader) ReadU32LE() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := uint32(r.data[r.pos]) | uint32(r.data[r.pos+1])<<8 | uint32(r.data[r.pos+2])<<16 | uint32(r.data[r.pos+3])<<24
	r.pos += 4
	return v, nil
}

func (r *MemReader) ReadU32BE() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := uint32(r.data[r.pos])<<24 | uint32(r.data[r.pos+1])<<16 | uint32(r.data[r.pos+2])<<8 | uint32(r.data[r.pos+3])
	r.pos += 4
	return v, nil
}

func (r *MemReader) ReadS32LE() (int32, error) {
	v, err := r.ReadU32LE()
	return int32(v), err
}

func (r *MemReader) ReadS32BE() (int32, error) {
	v, err := r.ReadU32BE()
	return int32(v), err
}

func (r *MemReader) ReadU64LE() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	lo, _ := r.ReadU32LE()
	hi, _ := r.ReadU32LE()
	return uint64(lo) | uint64(hi)<<32, nil
}

func (r *MemReader) ReadU64BE() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	hi, _ := r.ReadU32BE()
	lo, _ := r.ReadU32BE()
	return uint64(hi)<<32 | uint64(lo), nil
}

func (r *MemReader) ReadBuf(dst []byte) error {
	if err := r.need(len(dst)); err != nil {
		return err
	}
	copy(dst, r.data[r.pos:r.pos+int64(len(dst))])
	r.pos += int64(len(dst))
	return nil
}

func (r *MemReader) ReadSkip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += int64(n)
	return nil
}

func (r *MemReader) PeekU32BE() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	return uint32(r.data[r.pos])<<24 | uint32(r.data[r.pos+1])<<16 | uint32(r.data[r.pos+2])<<8 | uint32(r.data[r.pos+3]), nil
}

func (r *MemReader) Tell() int64 { return r.pos }

func (r *MemReader) Seek(off int64, from SeekFrom) (int64, error) {
	var base int64
	switch from {
	case SeekStart:
		base = 0
	case SeekCurrent:
		base = r.pos
	case SeekEnd:
		base = int64(len(r.data))
	default:
		return 0, fmt.Errorf("bitio: invalid seek mode %d", from)
	}
	np := base + off
	if np < 0 {
		return 0, fmt.Errorf("bitio: negative seek position %d", np)
	}
	r.pos = np
	return np, nil
}

func (r *MemReader) IsEOF() bool {
	return r.pos >= int64(len(r.data))
}

// Remaining returns the unread tail of the backing slice without advancing
// the cursor, a convenience used by demuxers that hand off a whole payload
// to a bit-level parser.
func (r *MemReader) Remaining() []byte {
	if r.pos >= int64(len(r.data)) {
		return nil
	}
	return r.data[r.pos:]
}

// Len returns the total size of the backing slice.
func (r *MemReader) Len() int64 { return int64(len(r.data)) }
