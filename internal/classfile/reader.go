package classfile

import (
	"encoding/binary"
)

// reader is a cursor over the raw class file bytes. The class file format
// is big-endian throughout, so all multi-byte reads decode accordingly.
// Every read advances the cursor; a read past the end of the data fails
// with ErrTruncated wrapped in a ParseError carrying the current offset.
type reader struct {
	data []byte
	off  int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

// offset returns the current cursor position.
func (r *reader) offset() int {
	return r.off
}

// remaining returns the number of unread bytes.
func (r *reader) remaining() int {
	return len(r.data) - r.off
}

// u1 reads an unsigned 8-bit integer.
func (r *reader) u1() (uint8, error) {
	if r.remaining() < 1 {
		return 0, errAt(r.off, ErrTruncated)
	}
	v := r.data[r.off]
	r.off++
	return v, nil
}

// u2 reads an unsigned big-endian 16-bit integer.
func (r *reader) u2() (uint16, error) {
	if r.remaining() < 2 {
		return 0, errAt(r.off, ErrTruncated)
	}
	v := binary.BigEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v, nil
}

// u4 reads an unsigned big-endian 32-bit integer.
func (r *reader) u4() (uint32, error) {
	if r.remaining() < 4 {
		return 0, errAt(r.off, ErrTruncated)
	}
	v := binary.BigEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

// u8 reads an unsigned big-endian 64-bit integer.
func (r *reader) u8() (uint64, error) {
	if r.remaining() < 8 {
		return 0, errAt(r.off, ErrTruncated)
	}
	v := binary.BigEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v, nil
}

// bytes reads exactly n bytes. The returned slice aliases the underlying
// data and must not be modified.
func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, errAt(r.off, ErrTruncated)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}
