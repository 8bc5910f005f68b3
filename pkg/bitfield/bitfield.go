// Package bitfield reads and writes unsigned fields of arbitrary bit width at
// arbitrary bit offsets in a byte slice.
//
// Bit numbering is big-endian: bit offset 0 is the most significant bit of
// buf[0], bit offset 8 the most significant bit of buf[1], and so on. A field
// of n bits starting at offset k is returned with its first bit as the most
// significant bit of the result.
package bitfield

import (
	"errors"
	"fmt"
)

// MaxBits is the widest field Extract and Insert handle.
const MaxBits = 64

// ErrShortBuffer is returned when a field extends past the end of the buffer.
var ErrShortBuffer = errors.New("bitfield: field exceeds buffer")

func check(buf []byte, off, n int) error {
	if off < 0 {
		return fmt.Errorf("bitfield: negative offset %d", off)
	}
	if n < 0 || n > MaxBits {
		return fmt.Errorf("bitfield: width %d out of range [0,%d]", n, MaxBits)
	}
	if off+n > len(buf)*8 {
		return ErrShortBuffer
	}
	return nil
}

// Extract returns the n-bit field starting at bit offset off.
func Extract(buf []byte, off, n int) (uint64, error) {
	if err := check(buf, off, n); err != nil {
		return 0, err
	}
	var v uint64
	for n > 0 {
		avail := 8 - off&7
		take := min(avail, n)
		chunk := uint64(buf[off>>3]>>uint(avail-take)) & (1<<uint(take) - 1)
		v = v<<uint(take) | chunk
		off += take
		n -= take
	}
	return v, nil
}

// Insert stores the low n bits of v at bit offset off, leaving the
// surrounding bits untouched.
func Insert(buf []byte, off, n int, v uint64) error {
	if err := check(buf, off, n); err != nil {
		return err
	}
	if n < MaxBits && v>>uint(n) != 0 {
		return fmt.Errorf("bitfield: value %#x does not fit in %d bits", v, n)
	}
	for n > 0 {
		avail := 8 - off&7
		take := min(avail, n)
		shift := uint(avail - take)
		chunk := byte(v>>uint(n-take)) & byte(1<<uint(take)-1)
		mask := byte(1<<uint(take)-1) << shift
		buf[off>>3] = buf[off>>3]&^mask | chunk<<shift
		off += take
		n -= take
	}
	return nil
}

// Reader extracts consecutive fields from a byte slice.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at bit 0 of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// ReadBits returns the next n bits and advances the reader.
func (r *Reader) ReadBits(n int) (uint64, error) {
	v, err := Extract(r.buf, r.pos, n)
	if err != nil {
		return 0, err
	}
	r.pos += n
	return v, nil
}

// Writer stores consecutive fields into a byte slice.
type Writer struct {
	buf []byte
	pos int
}

// NewWriter returns a Writer positioned at bit 0 of buf.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// WriteBits stores the low n bits of v and advances the writer.
func (w *Writer) WriteBits(n int, v uint64) error {
	if err := Insert(w.buf, w.pos, n, v); err != nil {
		return err
	}
	w.pos += n
	return nil
}
