// Package stream implements the header that prefixes every unidirectional
// HTTP/3 stream: a stream-type discriminant varint, followed by a session id
// varint when — and only when — the stream belongs to a WebTransport
// session.
package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/webtransport/wtproto/buffer"
	"github.com/webtransport/wtproto/ids"
	"github.com/webtransport/wtproto/nio"
	"github.com/webtransport/wtproto/varint"
)

// ErrUnknownStream reports a discriminant that maps to no known stream type.
var ErrUnknownStream = errors.New("stream: unknown stream type")

// A Kind is the logical type of a unidirectional stream.
type Kind int

const (
	// Control is the HTTP/3 control stream.
	Control Kind = iota
	// QPackEncoder is the QPACK encoder stream.
	QPackEncoder
	// QPackDecoder is the QPACK decoder stream.
	QPackDecoder
	// WebTransport is a WebTransport data stream.
	WebTransport
	// Exercise is a greasing stream type, deliberately unrecognized by
	// peers.
	Exercise
)

// Stream-type discriminants from RFC 9114 and the WebTransport draft.
const (
	idControl      varint.VarInt = 0x00
	idQPackEncoder varint.VarInt = 0x02
	idQPackDecoder varint.VarInt = 0x03
	idWebTransport varint.VarInt = 0x54
)

func (k Kind) String() string {
	switch k {
	case Control:
		return "control"
	case QPackEncoder:
		return "qpack encoder"
	case QPackDecoder:
		return "qpack decoder"
	case WebTransport:
		return "webtransport"
	case Exercise:
		return "exercise"
	default:
		return fmt.Sprintf("unknown stream kind %d", int(k))
	}
}

// IsIDExercise reports whether id is a valid exercise (greasing)
// stream-type discriminant.
func IsIDExercise(id varint.VarInt) bool {
	return id >= 0x21 && (id-0x21)%0x1f == 0
}

// parseKind maps a discriminant to a Kind. Exercise ids keep their
// discriminant; anything unrecognized reports false.
func parseKind(id varint.VarInt) (Kind, varint.VarInt, bool) {
	switch id {
	case idControl:
		return Control, 0, true
	case idQPackEncoder:
		return QPackEncoder, 0, true
	case idQPackDecoder:
		return QPackDecoder, 0, true
	case idWebTransport:
		return WebTransport, 0, true
	}
	if IsIDExercise(id) {
		return Exercise, id, true
	}
	return 0, 0, false
}

// A Header is the parsed stream header. Construct it with one of the New
// functions; a Header carries a session id if and only if its kind is
// WebTransport.
type Header struct {
	kind     Kind
	exercise varint.VarInt
	session  ids.SessionID
	hasSess  bool
}

// MaxSize is the largest number of bytes a Header takes on the wire.
const MaxSize = 2 * varint.MaxSize

// NewControl returns a control stream header.
func NewControl() Header {
	return Header{kind: Control}
}

// NewQPackEncoder returns a QPACK encoder stream header.
func NewQPackEncoder() Header {
	return Header{kind: QPackEncoder}
}

// NewQPackDecoder returns a QPACK decoder stream header.
func NewQPackDecoder() Header {
	return Header{kind: QPackDecoder}
}

// NewWebTransport returns a WebTransport stream header carrying sessionID.
func NewWebTransport(sessionID ids.SessionID) Header {
	return Header{kind: WebTransport, session: sessionID, hasSess: true}
}

// NewExercise returns a greasing stream header. It fails if id does not
// satisfy the exercise arithmetic rule.
func NewExercise(id varint.VarInt) (Header, error) {
	if !IsIDExercise(id) {
		return Header{}, fmt.Errorf("stream: %d is not an exercise id", id.Uint64())
	}
	return Header{kind: Exercise, exercise: id}, nil
}

// Kind returns the stream kind.
func (h Header) Kind() Kind {
	return h.kind
}

// SessionID returns the session id and true if the header is a WebTransport
// header.
func (h Header) SessionID() (ids.SessionID, bool) {
	return h.session, h.hasSess
}

// ExerciseID returns the discriminant of an Exercise header.
func (h Header) ExerciseID() (varint.VarInt, bool) {
	return h.exercise, h.kind == Exercise
}

func (h Header) id() varint.VarInt {
	switch h.kind {
	case Control:
		return idControl
	case QPackEncoder:
		return idQPackEncoder
	case QPackDecoder:
		return idQPackDecoder
	case WebTransport:
		return idWebTransport
	default:
		return h.exercise
	}
}

// WriteSize returns the exact number of bytes Write produces for h.
func (h Header) WriteSize() int {
	n := h.id().Size()
	if h.hasSess {
		n += h.session.Varint().Size()
	}
	return n
}

// ReadHeader parses a header from r.
//
// buffer.ErrEndOfBuffer means the reader does not (yet) hold a whole header;
// ErrUnknownStream and ids.ErrInvalidSessionID mean the bytes were readable
// but invalid. On any error r may have been partially consumed — callers
// that need atomicity use ReadHeaderBuffer.
func ReadHeader(r buffer.BytesReader) (Header, error) {
	id, err := r.GetVarint()
	if err != nil {
		return Header{}, err
	}
	kind, exercise, ok := parseKind(id)
	if !ok {
		return Header{}, ErrUnknownStream
	}
	if kind != WebTransport {
		return Header{kind: kind, exercise: exercise}, nil
	}
	v, err := r.GetVarint()
	if err != nil {
		return Header{}, err
	}
	sessionID, err := ids.FromVarint(v)
	if err != nil {
		return Header{}, err
	}
	return NewWebTransport(sessionID), nil
}

// ReadHeaderBuffer parses a header from r, consuming bytes only on success.
//
// On any error — including an incomplete header — r's offset is exactly
// where it was before the call.
func ReadHeaderBuffer(r *buffer.Reader) (Header, error) {
	child := r.Child()
	h, err := ReadHeader(child)
	if err != nil {
		return Header{}, err
	}
	child.Commit()
	return h, nil
}

// Write serializes h into w. On failure w may have been partially written;
// WriteBuffer avoids that for fixed buffers.
func (h Header) Write(w buffer.BytesWriter) error {
	if err := w.PutVarint(h.id()); err != nil {
		return err
	}
	if h.hasSess {
		return w.PutVarint(h.session.Varint())
	}
	return nil
}

// WriteBuffer serializes h into w. It checks the required capacity up front,
// so on failure w is untouched.
func (h Header) WriteBuffer(w *buffer.Writer) error {
	if w.Capacity() < h.WriteSize() {
		return buffer.ErrEndOfBuffer
	}
	if err := h.Write(w); err != nil {
		// Capacity was checked above.
		panic("stream: header write failed with sufficient capacity")
	}
	return nil
}

// A HeaderRead is a resumable parse of a stream header from a non-blocking
// source. It is single-use; poll it to completion and then call Header.
type HeaderRead struct {
	src    nio.Source
	op     *nio.VarintRead
	header Header
	inSess bool
}

// ReadHeaderSource returns a single-use op that parses a header from src.
//
// Like ReadHeader, a failed parse may leave src partially consumed; there is
// no atomic option over a live transport.
func ReadHeaderSource(src nio.Source) *HeaderRead {
	return &HeaderRead{src: src, op: nio.ReadVarint(src)}
}

// Poll implements nio.Op.
func (r *HeaderRead) Poll() (bool, error) {
	for {
		done, err := r.op.Poll()
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}

		if !r.inSess {
			kind, exercise, ok := parseKind(r.op.Value())
			if !ok {
				return false, ErrUnknownStream
			}
			if kind != WebTransport {
				r.header = Header{kind: kind, exercise: exercise}
				return true, nil
			}
			r.inSess = true
			r.op = nio.ReadVarint(r.src)
			continue
		}

		sessionID, err := ids.FromVarint(r.op.Value())
		if err != nil {
			return false, err
		}
		r.header = NewWebTransport(sessionID)
		return true, nil
	}
}

// Header returns the parsed header. It is meaningful only after Poll has
// reported done.
func (r *HeaderRead) Header() Header {
	return r.header
}

// AcceptHeader reads a stream header from src, driving the parse to
// completion under ctx.
func AcceptHeader(ctx context.Context, src nio.Source) (Header, error) {
	op := ReadHeaderSource(src)
	if err := nio.Drive(ctx, op); err != nil {
		return Header{}, err
	}
	return op.Header(), nil
}

// A HeaderWrite is a resumable write of a stream header to a non-blocking
// sink. The header is serialized once at construction.
type HeaderWrite struct {
	scratch [MaxSize]byte
	op      *nio.BufferWrite
}

// WriteHeaderSink returns a single-use op that writes h to sink.
func WriteHeaderSink(sink nio.Sink, h Header) *HeaderWrite {
	w := &HeaderWrite{}
	bw := buffer.NewWriter(w.scratch[:])
	// The scratch buffer fits any header.
	if err := h.WriteBuffer(bw); err != nil {
		panic("stream: header exceeds max size")
	}
	w.op = nio.WriteBuffer(sink, bw.Written())
	return w
}

// Poll implements nio.Op.
func (w *HeaderWrite) Poll() (bool, error) {
	return w.op.Poll()
}

// SendHeader writes h to sink, driving the write to completion under ctx.
func SendHeader(ctx context.Context, sink nio.Sink, h Header) error {
	return nio.Drive(ctx, WriteHeaderSink(sink, h))
}
