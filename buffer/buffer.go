// Package buffer implements zero-copy cursors over byte slices.
//
// A Reader is an immutable view whose offset only advances on success; a
// Writer is the mutable counterpart. A Child is a speculative clone of a
// Reader's remaining bytes whose progress becomes visible to the parent only
// through an explicit Commit. Every operation is all-or-nothing with respect
// to its own cursor: a failed get or put never moves the offset.
package buffer

import (
	"errors"

	"github.com/quic-go/quic-go/quicvarint"

	"github.com/webtransport/wtproto/varint"
)

// ErrEndOfBuffer is returned when a cursor does not have enough remaining
// capacity for the requested operation. The cursor is left unchanged, so the
// caller may retry once more bytes (or space) are available.
var ErrEndOfBuffer = errors.New("buffer: end of buffer")

// BytesReader reads varints and raw bytes from a source.
type BytesReader interface {
	// GetVarint decodes a variable-length integer at the current offset and
	// advances past it. It returns ErrEndOfBuffer, without consuming
	// anything, if the remaining bytes do not contain a whole varint.
	GetVarint() (varint.VarInt, error)

	// GetBytes returns n bytes at the current offset without copying and
	// advances past them. It returns ErrEndOfBuffer, without consuming
	// anything, if fewer than n bytes remain.
	GetBytes(n int) ([]byte, error)
}

// BytesWriter writes varints and raw bytes into a destination.
type BytesWriter interface {
	// PutVarint encodes v at the current offset and advances past it.
	PutVarint(v varint.VarInt) error

	// PutBytes copies p at the current offset and advances past it.
	PutBytes(p []byte) error
}

// A Reader is a zero-copy cursor over an immutable byte slice.
//
// The zero value is an empty reader. Slices returned by GetBytes and
// Remaining alias the underlying buffer, not the Reader.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader over buf with the offset at zero. The buffer is
// not copied.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Capacity returns the number of bytes left to read.
func (r *Reader) Capacity() int {
	return len(r.buf) - r.off
}

// Buffer returns the entire underlying slice, ignoring the offset.
func (r *Reader) Buffer() []byte {
	return r.buf
}

// Remaining returns the unread portion of the underlying slice.
func (r *Reader) Remaining() []byte {
	return r.buf[r.off:]
}

// Skip advances the offset by n. On ErrEndOfBuffer the offset is unchanged.
func (r *Reader) Skip(n int) error {
	if r.Capacity() < n {
		return ErrEndOfBuffer
	}
	r.off += n
	return nil
}

// GetBytes implements BytesReader. The returned slice aliases the underlying
// buffer.
func (r *Reader) GetBytes(n int) ([]byte, error) {
	if r.Capacity() < n {
		return nil, ErrEndOfBuffer
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// GetVarint implements BytesReader.
func (r *Reader) GetVarint() (varint.VarInt, error) {
	if r.Capacity() == 0 {
		return 0, ErrEndOfBuffer
	}
	size := varint.ParseSize(r.buf[r.off])
	if r.Capacity() < size {
		return 0, ErrEndOfBuffer
	}
	v, n, err := quicvarint.Parse(r.buf[r.off : r.off+size])
	if err != nil || n != size {
		// Cannot happen: exactly size bytes are present.
		return 0, ErrEndOfBuffer
	}
	r.off += size
	return varint.VarInt(v), nil
}

// Child returns a speculative cursor over the unread bytes of r.
//
// Reads against the child never touch r. Calling Commit on the child
// advances r by exactly the bytes the child consumed; discarding the child
// without committing leaves r as it was when Child was called. The parent
// must not be read independently while the child is in use.
func (r *Reader) Child() *Child {
	return &Child{Reader: Reader{buf: r.Remaining()}, parent: r}
}

// A Child is a speculative clone of a parent Reader, created by
// (*Reader).Child. It reads with the ordinary Reader contract against the
// parent's remaining bytes.
type Child struct {
	Reader
	parent *Reader
}

// Commit advances the parent by the number of bytes read through the child.
// The child must not be used afterwards.
func (c *Child) Commit() {
	// The child's offset is bounded by the parent's remaining capacity at
	// creation time, so this cannot fail.
	if err := c.parent.Skip(c.off); err != nil {
		panic("buffer: child offset exceeds parent capacity")
	}
}

// A Writer is a cursor over a mutable, fixed-capacity byte slice.
type Writer struct {
	buf []byte
	off int
}

// NewWriter returns a Writer over buf with the offset at zero.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int {
	return w.off
}

// Capacity returns the number of bytes of space left.
func (w *Writer) Capacity() int {
	return len(w.buf) - w.off
}

// Written returns the portion of the underlying slice written so far.
func (w *Writer) Written() []byte {
	return w.buf[:w.off]
}

// PutBytes implements BytesWriter. On ErrEndOfBuffer nothing is written.
func (w *Writer) PutBytes(p []byte) error {
	if w.Capacity() < len(p) {
		return ErrEndOfBuffer
	}
	copy(w.buf[w.off:], p)
	w.off += len(p)
	return nil
}

// PutVarint implements BytesWriter. On ErrEndOfBuffer nothing is written.
func (w *Writer) PutVarint(v varint.VarInt) error {
	size := v.Size()
	if w.Capacity() < size {
		return ErrEndOfBuffer
	}
	quicvarint.Append(w.buf[w.off:w.off], v.Uint64())
	w.off += size
	return nil
}

// An Appender is a growable BytesWriter. Unlike a Writer it extends its
// buffer instead of bounds-checking, so its put operations never fail.
//
// The zero value is ready to use.
type Appender struct {
	buf []byte
}

// NewAppender returns an Appender that appends to buf.
func NewAppender(buf []byte) *Appender {
	return &Appender{buf: buf}
}

// Bytes returns everything written so far.
func (a *Appender) Bytes() []byte {
	return a.buf
}

// PutBytes implements BytesWriter. It never fails.
func (a *Appender) PutBytes(p []byte) error {
	a.buf = append(a.buf, p...)
	return nil
}

// PutVarint implements BytesWriter. It never fails.
func (a *Appender) PutVarint(v varint.VarInt) error {
	a.buf = quicvarint.Append(a.buf, v.Uint64())
	return nil
}
