// Package frame implements the HTTP/3 frame envelope: a type varint, a
// length varint and the payload bytes. Frame payload semantics belong to the
// layers above; this package only moves envelopes in and out of buffers and
// non-blocking transports.
//
// One frame type is special-cased: a WEBTRANSPORT frame carries a session id
// varint instead of a length and payload, and everything after it on the
// stream belongs to that session.
package frame

import (
	"context"
	"errors"
	"fmt"

	"github.com/webtransport/wtproto/buffer"
	"github.com/webtransport/wtproto/ids"
	"github.com/webtransport/wtproto/nio"
	"github.com/webtransport/wtproto/varint"
)

// ErrPayloadTooLarge reports a frame whose declared payload length exceeds
// the limit the caller is willing to buffer.
var ErrPayloadTooLarge = errors.New("frame: payload too large")

// A Kind is an HTTP/3 frame-type discriminant.
type Kind varint.VarInt

// Frame types from RFC 9114 and the WebTransport draft.
const (
	KindData         Kind = 0x00
	KindHeaders      Kind = 0x01
	KindSettings     Kind = 0x04
	KindWebTransport Kind = 0x41
)

// IsExercise reports whether k is a reserved greasing frame type.
func (k Kind) IsExercise() bool {
	return k >= 0x21 && (k-0x21)%0x1f == 0
}

func (k Kind) String() string {
	switch k {
	case KindData:
		return "DATA"
	case KindHeaders:
		return "HEADERS"
	case KindSettings:
		return "SETTINGS"
	case KindWebTransport:
		return "WEBTRANSPORT"
	}
	if k.IsExercise() {
		return fmt.Sprintf("exercise (0x%x)", uint64(k))
	}
	return fmt.Sprintf("unknown (0x%x)", uint64(k))
}

// A Frame is a parsed envelope. The payload aliases the buffer it was parsed
// from; it is not copied.
type Frame struct {
	kind    Kind
	payload []byte
	session ids.SessionID
	hasSess bool
}

// New returns a frame of the given kind wrapping payload. It must not be
// used for KindWebTransport frames; those carry a session id instead of a
// payload and are built with NewWebTransport.
func New(kind Kind, payload []byte) Frame {
	if kind == KindWebTransport {
		panic("frame: webtransport frames carry a session id, use NewWebTransport")
	}
	return Frame{kind: kind, payload: payload}
}

// NewWebTransport returns a WEBTRANSPORT frame for sessionID.
func NewWebTransport(sessionID ids.SessionID) Frame {
	return Frame{kind: KindWebTransport, session: sessionID, hasSess: true}
}

// Kind returns the frame type.
func (f Frame) Kind() Kind {
	return f.kind
}

// Payload returns the frame payload. It is empty for WEBTRANSPORT frames.
func (f Frame) Payload() []byte {
	return f.payload
}

// SessionID returns the session id and true for WEBTRANSPORT frames.
func (f Frame) SessionID() (ids.SessionID, bool) {
	return f.session, f.hasSess
}

// WriteSize returns the exact number of bytes Write produces for f.
func (f Frame) WriteSize() int {
	id := varint.VarInt(f.kind)
	if f.hasSess {
		return id.Size() + f.session.Varint().Size()
	}
	length, _ := varint.New(uint64(len(f.payload)))
	return id.Size() + length.Size() + len(f.payload)
}

// Read parses a frame from r. On any error r may have been partially
// consumed; ReadBuffer is the atomic entry point.
func Read(r buffer.BytesReader) (Frame, error) {
	id, err := r.GetVarint()
	if err != nil {
		return Frame{}, err
	}
	kind := Kind(id)

	if kind == KindWebTransport {
		v, err := r.GetVarint()
		if err != nil {
			return Frame{}, err
		}
		sessionID, err := ids.FromVarint(v)
		if err != nil {
			return Frame{}, err
		}
		return NewWebTransport(sessionID), nil
	}

	length, err := r.GetVarint()
	if err != nil {
		return Frame{}, err
	}
	n := length.Uint64()
	if n > uint64(^uint(0)>>1) {
		// No in-memory buffer can hold it.
		return Frame{}, buffer.ErrEndOfBuffer
	}
	payload, err := r.GetBytes(int(n))
	if err != nil {
		return Frame{}, err
	}
	return Frame{kind: kind, payload: payload}, nil
}

// ReadBuffer parses a frame from r, consuming bytes only on success. On any
// error r's offset is exactly where it was before the call.
func ReadBuffer(r *buffer.Reader) (Frame, error) {
	child := r.Child()
	f, err := Read(child)
	if err != nil {
		return Frame{}, err
	}
	child.Commit()
	return f, nil
}

// Write serializes f into w. On failure w may have been partially written.
func (f Frame) Write(w buffer.BytesWriter) error {
	if err := w.PutVarint(varint.VarInt(f.kind)); err != nil {
		return err
	}
	if f.hasSess {
		return w.PutVarint(f.session.Varint())
	}
	length, err := varint.New(uint64(len(f.payload)))
	if err != nil {
		return fmt.Errorf("frame: payload length: %w", err)
	}
	if err := w.PutVarint(length); err != nil {
		return err
	}
	return w.PutBytes(f.payload)
}

// A FrameRead is a resumable parse of a frame from a non-blocking source.
// The payload, if any, is read into memory, bounded by the caller's limit.
type FrameRead struct {
	src        nio.Source
	maxPayload int

	varintOp *nio.VarintRead
	bufferOp *nio.BufferRead

	kind    Kind
	gotKind bool
	payload []byte
	frame   Frame
}

// ReadSource returns a single-use op that parses a frame from src,
// rejecting payloads longer than maxPayload with ErrPayloadTooLarge.
func ReadSource(src nio.Source, maxPayload int) *FrameRead {
	return &FrameRead{src: src, maxPayload: maxPayload, varintOp: nio.ReadVarint(src)}
}

// Poll implements nio.Op.
func (r *FrameRead) Poll() (bool, error) {
	for {
		if r.bufferOp != nil {
			done, err := r.bufferOp.Poll()
			if err != nil || !done {
				return false, err
			}
			r.frame = Frame{kind: r.kind, payload: r.payload}
			return true, nil
		}

		done, err := r.varintOp.Poll()
		if err != nil || !done {
			return false, err
		}
		v := r.varintOp.Value()

		if !r.gotKind {
			r.kind = Kind(v)
			r.gotKind = true
			r.varintOp = nio.ReadVarint(r.src)
			continue
		}

		if r.kind == KindWebTransport {
			sessionID, err := ids.FromVarint(v)
			if err != nil {
				return false, err
			}
			r.frame = NewWebTransport(sessionID)
			return true, nil
		}

		length := v.Uint64()
		if length > uint64(r.maxPayload) {
			return false, ErrPayloadTooLarge
		}
		if length == 0 {
			r.frame = Frame{kind: r.kind}
			return true, nil
		}
		r.payload = make([]byte, length)
		r.bufferOp = nio.ReadBuffer(r.src, r.payload)
	}
}

// Frame returns the parsed frame. It is meaningful only after Poll has
// reported done.
func (r *FrameRead) Frame() Frame {
	return r.frame
}

// Accept reads one frame from src, driving the parse to completion under
// ctx.
func Accept(ctx context.Context, src nio.Source, maxPayload int) (Frame, error) {
	op := ReadSource(src, maxPayload)
	if err := nio.Drive(ctx, op); err != nil {
		return Frame{}, err
	}
	return op.Frame(), nil
}

// Send writes f to sink, driving the write to completion under ctx. The
// envelope is serialized up front; the payload is written from f directly.
func Send(ctx context.Context, sink nio.Sink, f Frame) error {
	head := buffer.NewAppender(make([]byte, 0, 2*varint.MaxSize))
	if err := head.PutVarint(varint.VarInt(f.kind)); err != nil {
		return err
	}
	if f.hasSess {
		if err := head.PutVarint(f.session.Varint()); err != nil {
			return err
		}
	} else {
		length, err := varint.New(uint64(len(f.payload)))
		if err != nil {
			return fmt.Errorf("frame: payload length: %w", err)
		}
		if err := head.PutVarint(length); err != nil {
			return err
		}
	}
	if err := nio.Drive(ctx, nio.WriteBuffer(sink, head.Bytes())); err != nil {
		return err
	}
	if f.hasSess || len(f.payload) == 0 {
		return nil
	}
	return nio.Drive(ctx, nio.WriteBuffer(sink, f.payload))
}
