package buffer

import (
	"errors"
	"testing"

	"github.com/webtransport/wtproto/internal/tests"
	"github.com/webtransport/wtproto/varint"
)

var sampleVarints = []struct {
	bytes []byte
	value varint.VarInt
}{
	{[]byte{0x25}, 37},
	{[]byte{0x7b, 0xbd}, 15293},
	{[]byte{0x9d, 0x7f, 0x3e, 0x7d}, 494878333},
	{[]byte{0xc2, 0x19, 0x7c, 0x5e, 0xff, 0x14, 0xe8, 0x8c}, 151288809941952652},
}

func TestReaderGetVarint(t *testing.T) {
	for _, c := range sampleVarints {
		r := NewReader(c.bytes)
		tests.AssertEqual(t, 0, r.Offset())
		tests.AssertEqual(t, len(c.bytes), r.Capacity())

		v, err := r.GetVarint()
		tests.AssertNoError(t, err)
		tests.AssertEqual(t, c.value, v)
		tests.AssertEqual(t, len(c.bytes), r.Offset())
		tests.AssertEqual(t, 0, r.Capacity())
	}
}

func TestWriterPutVarint(t *testing.T) {
	buf := make([]byte, varint.MaxSize)
	for _, c := range sampleVarints {
		w := NewWriter(buf)
		tests.AssertEqual(t, 0, w.Offset())
		tests.AssertEqual(t, varint.MaxSize, w.Capacity())

		tests.AssertNoError(t, w.PutVarint(c.value))
		tests.AssertEqual(t, len(c.bytes), w.Offset())
		tests.AssertEqual(t, c.bytes, w.Written())
	}
}

func TestReaderGetBytesAliasing(t *testing.T) {
	buf := []byte{0x1, 0x2, 0x3}
	r := NewReader(buf)

	b, err := r.GetBytes(2)
	tests.AssertNoError(t, err)
	tests.AssertEqual(t, []byte{0x1, 0x2}, b)

	// Zero-copy: the returned slice shares the underlying array.
	buf[0] = 0xff
	tests.AssertEqual(t, byte(0xff), b[0])
}

func TestReaderAtomicity(t *testing.T) {
	// First byte declares a 4-byte varint, only 2 bytes present.
	r := NewReader([]byte{0x9d, 0x7f})

	_, err := r.GetVarint()
	tests.AssertErrorIs(t, err, ErrEndOfBuffer)
	tests.AssertEqual(t, 0, r.Offset())
	tests.AssertEqual(t, 2, r.Capacity())

	_, err = r.GetBytes(3)
	tests.AssertErrorIs(t, err, ErrEndOfBuffer)
	tests.AssertEqual(t, 0, r.Offset())
}

func TestWriterAtomicity(t *testing.T) {
	w := NewWriter(make([]byte, 1))

	tests.AssertErrorIs(t, w.PutVarint(15293), ErrEndOfBuffer)
	tests.AssertEqual(t, 0, w.Offset())

	tests.AssertErrorIs(t, w.PutBytes([]byte{0x1, 0x2}), ErrEndOfBuffer)
	tests.AssertEqual(t, 0, w.Offset())
	tests.AssertEqual(t, 0, len(w.Written()))
}

func TestChildCommit(t *testing.T) {
	r := NewReader([]byte{0x1, 0x2})

	tests.AssertNoError(t, r.Skip(1))
	tests.AssertEqual(t, 1, r.Offset())
	tests.AssertEqual(t, 1, r.Capacity())

	child := r.Child()
	tests.AssertEqual(t, 0, child.Offset())
	tests.AssertEqual(t, 1, child.Capacity())

	b, err := child.GetBytes(1)
	tests.AssertNoError(t, err)
	tests.AssertEqual(t, []byte{0x2}, b)
	tests.AssertEqual(t, 1, child.Offset())

	child.Commit()
	tests.AssertEqual(t, 2, r.Offset())
	tests.AssertEqual(t, 0, r.Capacity())
}

func TestChildDrop(t *testing.T) {
	r := NewReader([]byte{0x1, 0x2})

	tests.AssertNoError(t, r.Skip(1))

	child := r.Child()
	b, err := child.GetBytes(1)
	tests.AssertNoError(t, err)
	tests.AssertEqual(t, []byte{0x2}, b)
	tests.AssertEqual(t, 1, child.Offset())

	// No commit: the parent is untouched.
	tests.AssertEqual(t, 1, r.Offset())
	tests.AssertEqual(t, 1, r.Capacity())
}

func TestEmpty(t *testing.T) {
	r := NewReader(nil)
	if _, err := r.GetVarint(); !errors.Is(err, ErrEndOfBuffer) {
		t.Errorf("GetVarint on empty reader: %v", err)
	}
	if _, err := r.GetBytes(1); !errors.Is(err, ErrEndOfBuffer) {
		t.Errorf("GetBytes on empty reader: %v", err)
	}
	if _, err := r.GetBytes(0); err != nil {
		t.Errorf("GetBytes(0) on empty reader: %v", err)
	}

	w := NewWriter(nil)
	tests.AssertErrorIs(t, w.PutVarint(0), ErrEndOfBuffer)
	tests.AssertErrorIs(t, w.PutBytes([]byte{0x0}), ErrEndOfBuffer)
}

func TestSkipBounds(t *testing.T) {
	r := NewReader([]byte{0x1})
	tests.AssertErrorIs(t, r.Skip(2), ErrEndOfBuffer)
	tests.AssertEqual(t, 0, r.Offset())
	tests.AssertNoError(t, r.Skip(1))
	tests.AssertNoError(t, r.Skip(0))
}

func TestAppender(t *testing.T) {
	var a Appender
	for _, c := range sampleVarints {
		tests.AssertNoError(t, a.PutVarint(c.value))
	}
	tests.AssertNoError(t, a.PutBytes([]byte{0xaa, 0xbb}))

	r := NewReader(a.Bytes())
	for _, c := range sampleVarints {
		v, err := r.GetVarint()
		tests.AssertNoError(t, err)
		tests.AssertEqual(t, c.value, v)
	}
	b, err := r.GetBytes(2)
	tests.AssertNoError(t, err)
	tests.AssertEqual(t, []byte{0xaa, 0xbb}, b)
	tests.AssertEqual(t, 0, r.Capacity())
}

func TestWriterRoundTrip(t *testing.T) {
	buf := make([]byte, 32)
	w := NewWriter(buf)
	tests.AssertNoError(t, w.PutVarint(15293))
	tests.AssertNoError(t, w.PutBytes([]byte{0x1, 0x2, 0x3}))
	tests.AssertEqual(t, 5, w.Offset())
	tests.AssertEqual(t, 27, w.Capacity())

	r := NewReader(w.Written())
	v, err := r.GetVarint()
	tests.AssertNoError(t, err)
	tests.AssertEqual(t, varint.VarInt(15293), v)
	b, err := r.GetBytes(3)
	tests.AssertNoError(t, err)
	tests.AssertEqual(t, []byte{0x1, 0x2, 0x3}, b)
}
