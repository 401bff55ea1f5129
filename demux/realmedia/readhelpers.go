// Package realmedia implements the RealMedia (.rm) demuxer: header
// parsing (.RMF/PROP/MDPR/CONT/DATA), RealVideo packet reassembly across
// fragments, and the RealAudio de-interleaving policies.
package realmedia

import (
	"encoding/binary"

	"github.com/mediaframe/core/mediaerr"
)

// cursor is a minimal positioned big-endian reader over an in-memory
// RealMedia file. All multi-byte header fields are big-endian.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) need(n int) error {
	if c.pos < 0 || c.pos+n > len(c.data) {
		return mediaerr.Wrap(mediaerr.ErrIO, "realmedia: short read at %d (need %d, have %d)", c.pos, n, len(c.data)-c.pos)
	}
	return nil
}

func (c *cursor) u8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) u16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) fourcc() (string, error) {
	b, err := c.bytes(4)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *cursor) str8() (string, error) {
	n, err := c.u8()
	if err != nil {
		return "", err
	}
	b, err := c.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *cursor) str16() (string, error) {
	n, err := c.u16()
	if err != nil {
		return "", err
	}
	b, err := c.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *cursor) peekU32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(c.data[c.pos:]), nil
}

func (c *cursor) tell() int { return c.pos }

func (c *cursor) left() int { return len(c.data) - c.pos }

// chunkHeader reads the common [tag:4][size:4][version:2] header shared by
// every top-level RealMedia chunk.
type chunkHeader struct {
	Tag     string
	Size    uint32
	Version uint16
}

func (c *cursor) chunkHeader() (chunkHeader, error) {
	start := c.pos
	tag, err := c.fourcc()
	if err != nil {
		return chunkHeader{}, err
	}
	size, err := c.u32()
	if err != nil {
		return chunkHeader{}, err
	}
	ver, err := c.u16()
	if err != nil {
		return chunkHeader{}, err
	}
	_ = start
	return chunkHeader{Tag: tag, Size: size, Version: ver}, nil
}

// read14or30 decodes the self-delimiting integer used throughout RealMedia
// slice headers: a 16-bit value whose top bit is a flag and
// whose second-from-top bit selects 14-bit (set) vs 30-bit (clear, reads a
// further 16 bits) width.
func read14or30(c *cursor) (flag bool, val uint32, err error) {
	tmp, err := c.u16()
	if err != nil {
		return false, 0, err
	}
	flag = tmp&0x8000 != 0
	if tmp&0x4000 == 0x4000 {
		return flag, uint32(tmp & 0x3FFF), nil
	}
	lo, err := c.u16()
	if err != nil {
		return false, 0, err
	}
	val = (uint32(tmp) << 16) | uint32(lo)
	return flag, val & 0x3FFFFFFF, nil
}
