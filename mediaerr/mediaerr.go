// Package mediaerr defines the two disjoint error taxonomies shared by every
// demuxer and decoder in the core: container-level errors returned by
// anything implementing demux.Core, and codec-level errors returned by
// anything implementing codec.Decoder. Both are plain sentinel errors
// tested with errors.Is rather than panics, so that malformed input never
// crashes a pipeline.
package mediaerr

import (
	"errors"
	"fmt"
)

// Demuxer errors.
var (
	// ErrEOF signals the expected end of the container.
	ErrEOF = errors.New("mediaerr: end of stream")
	// ErrInvalidData signals a violated container invariant.
	ErrInvalidData = errors.New("mediaerr: invalid container data")
	// ErrIO wraps an underlying I/O failure.
	ErrIO = errors.New("mediaerr: i/o failure")
	// ErrNotImplemented signals a container feature this core does not decode.
	ErrNotImplemented = errors.New("mediaerr: not implemented")
	// ErrMemory signals an allocation failure while producing a packet.
	ErrMemory = errors.New("mediaerr: allocation failure")
	// ErrTryAgain signals an interleaver needs more packets before producing
	// one; demuxers must loop internally rather than surface this to callers.
	ErrTryAgain = errors.New("mediaerr: try again")
	// ErrSeek signals a seek request that could not be satisfied.
	ErrSeek = errors.New("mediaerr: seek failed")
	// ErrNotPossible signals an operation the container format cannot support.
	ErrNotPossible = errors.New("mediaerr: not possible")
)

// Decoder errors.
var (
	// ErrNoFrame signals the decoder produced no output for this packet.
	ErrNoFrame = errors.New("mediaerr: no frame produced")
	// ErrAlloc signals a buffer pool was exhausted.
	ErrAlloc = errors.New("mediaerr: buffer allocation failure")
	// ErrDecTryAgain mirrors ErrTryAgain at the decoder layer.
	ErrDecTryAgain = errors.New("mediaerr: decoder needs more input")
	// ErrDecInvalidData mirrors ErrInvalidData at the decoder layer.
	ErrDecInvalidData = errors.New("mediaerr: invalid bitstream data")
	// ErrShortData signals a bitstream that ran out before a codeword
	// finished decoding.
	ErrShortData = errors.New("mediaerr: short bitstream data")
	// ErrMissingReference signals an inter-coded frame arrived before any
	// reference frame was decoded.
	ErrMissingReference = errors.New("mediaerr: missing reference frame")
	// ErrDecNotImplemented mirrors ErrNotImplemented at the decoder layer.
	ErrDecNotImplemented = errors.New("mediaerr: codec feature not implemented")
	// ErrBug signals an internal invariant violation that should never
	// happen on any input; distinguishes decoder bugs from bad bitstreams.
	ErrBug = errors.New("mediaerr: internal decoder error")

	// ErrTooLargeDimensions signals a checked-multiply overflow while sizing
	// a buffer.
	ErrTooLargeDimensions = errors.New("mediaerr: dimensions too large")
	// ErrFormat signals a pixel format missing a chromaton for a declared
	// component.
	ErrFormat = errors.New("mediaerr: malformed pixel format")
	// ErrUnsupportedFormat signals a container declaring a format this core
	// refuses to allocate (e.g. an AVI strf width of 1<<16 or more).
	ErrUnsupportedFormat = errors.New("mediaerr: unsupported format")
)

// Wrap annotates err with a static description while preserving it for
// errors.Is against the sentinel values above.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &wrapped{msg: fmt.Sprintf(format, args...), cause: err}
}

type wrapped struct {
	msg   string
	cause error
}

func (w *wrapped) Error() string { return w.msg + ": " + w.cause.Error() }
func (w *wrapped) Unwrap() error { return w.cause }
