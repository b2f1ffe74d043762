package nio

import (
	"errors"

	"github.com/webtransport/wtproto/buffer"
	"github.com/webtransport/wtproto/varint"
)

// A VarintRead decodes one varint from a Source, surviving arbitrarily
// fine-grained partial transfers. Create it with ReadVarint and poll it to
// completion; the decoded value is available from Value afterwards.
type VarintRead struct {
	src     Source
	scratch [varint.MaxSize]byte
	off     int
	size    int
	value   varint.VarInt
}

// ReadVarint returns a single-use op that reads a varint from src.
func ReadVarint(src Source) *VarintRead {
	return &VarintRead{src: src}
}

// Poll implements Op.
func (op *VarintRead) Poll() (bool, error) {
	if op.off == 0 {
		// First byte determines the encoded size.
		n, err := op.src.ReadSome(op.scratch[:1])
		if err != nil {
			if errors.Is(err, ErrAgain) {
				return false, nil
			}
			return false, classify(err)
		}
		if n == 0 {
			return false, ErrClosed
		}
		op.off = 1
		op.size = varint.ParseSize(op.scratch[0])
	}

	for op.off < op.size {
		n, err := op.src.ReadSome(op.scratch[op.off:op.size])
		if err != nil {
			if errors.Is(err, ErrAgain) {
				return false, nil
			}
			return false, classify(err)
		}
		if n == 0 {
			return false, ErrClosed
		}
		op.off += n
	}

	// Exactly size bytes are present, so the decode cannot fail.
	v, err := buffer.NewReader(op.scratch[:op.size]).GetVarint()
	if err != nil {
		panic("nio: complete varint failed to decode")
	}
	op.value = v
	return true, nil
}

// Value returns the decoded varint. It is meaningful only after Poll has
// reported done.
func (op *VarintRead) Value() varint.VarInt {
	return op.value
}

// A BufferRead fills a caller-supplied slice from a Source.
type BufferRead struct {
	src  Source
	dest []byte
	off  int
}

// ReadBuffer returns a single-use op that fills dest from src.
func ReadBuffer(src Source, dest []byte) *BufferRead {
	return &BufferRead{src: src, dest: dest}
}

// Poll implements Op.
func (op *BufferRead) Poll() (bool, error) {
	for op.off < len(op.dest) {
		n, err := op.src.ReadSome(op.dest[op.off:])
		if err != nil {
			if errors.Is(err, ErrAgain) {
				return false, nil
			}
			return false, classify(err)
		}
		if n == 0 {
			return false, ErrClosed
		}
		op.off += n
	}
	return true, nil
}

// A VarintWrite writes one varint to a Sink. The value is encoded once at
// construction; polling drives the encoded bytes out.
type VarintWrite struct {
	sink    Sink
	scratch [varint.MaxSize]byte
	off     int
	size    int
}

// WriteVarint returns a single-use op that writes v to sink.
func WriteVarint(sink Sink, v varint.VarInt) *VarintWrite {
	op := &VarintWrite{sink: sink}
	w := buffer.NewWriter(op.scratch[:])
	// The scratch buffer fits any varint, so this cannot fail.
	if err := w.PutVarint(v); err != nil {
		panic("nio: varint exceeds max size")
	}
	op.size = w.Offset()
	return op
}

// Poll implements Op.
func (op *VarintWrite) Poll() (bool, error) {
	for op.off < op.size {
		n, err := op.sink.WriteSome(op.scratch[op.off:op.size])
		if err != nil {
			if errors.Is(err, ErrAgain) {
				return false, nil
			}
			return false, classify(err)
		}
		if n == 0 {
			// A sink reporting no progress without ErrAgain is out of
			// contract; treat it as a suspension rather than a closure so a
			// misbehaving-but-recoverable sink can still complete.
			return false, nil
		}
		op.off += n
	}
	return true, nil
}

// N returns the number of bytes written: the encoded size of the value.
func (op *VarintWrite) N() int {
	return op.size
}

// A BufferWrite drains a caller-supplied slice into a Sink.
type BufferWrite struct {
	sink Sink
	src  []byte
	off  int
}

// WriteBuffer returns a single-use op that writes src to sink.
func WriteBuffer(sink Sink, src []byte) *BufferWrite {
	return &BufferWrite{sink: sink, src: src}
}

// Poll implements Op.
func (op *BufferWrite) Poll() (bool, error) {
	for op.off < len(op.src) {
		n, err := op.sink.WriteSome(op.src[op.off:])
		if err != nil {
			if errors.Is(err, ErrAgain) {
				return false, nil
			}
			return false, classify(err)
		}
		if n == 0 {
			return false, nil
		}
		op.off += n
	}
	return true, nil
}
