// Package nio drives varint and buffer transfers over non-blocking byte
// sources and sinks.
//
// A Source or Sink transfers whatever it can right now and reports ErrAgain
// when no progress is possible. Each operation in this package is a
// single-use, resumable state machine: construct it, then Poll it until it
// reports done. Progress already made survives across polls, so sources that
// deliver one byte at a time still decode correctly. Drive runs an Op to
// completion under a context.
package nio

import (
	"context"
	"errors"
	"io"
	"syscall"
)

// ErrAgain is returned by a Source or Sink when no bytes can be transferred
// right now. The operation stays pending and may be polled again.
var ErrAgain = errors.New("nio: no progress")

// ErrClosed reports that the underlying transport can no longer transfer
// bytes. It is terminal for the in-flight operation.
var ErrClosed = errors.New("nio: closed")

// ErrNotConnected reports that the underlying transport is not connected
// yet. It is terminal for the in-flight operation.
var ErrNotConnected = errors.New("nio: not connected")

// A Source is a non-blocking byte source.
type Source interface {
	// ReadSome copies up to len(p) bytes into p and returns the number
	// transferred. It returns (0, ErrAgain) when no progress is possible
	// right now. Returning 0 with a nil error for a non-empty p means the
	// source is closed.
	ReadSome(p []byte) (int, error)
}

// A Sink is a non-blocking byte sink.
type Sink interface {
	// WriteSome copies up to len(p) bytes from p and returns the number
	// transferred. It returns (0, ErrAgain) when no progress is possible
	// right now.
	WriteSome(p []byte) (int, error)
}

// An Op is a single-use resumable transfer. Once Poll reports done or an
// error, the op must not be polled again.
type Op interface {
	// Poll resumes the operation. It returns (true, nil) on completion,
	// (false, nil) when the operation suspended waiting for the underlying
	// transport, and a terminal error otherwise.
	Poll() (done bool, err error)
}

// classify maps an underlying transport error to the package's terminal
// errors. Anything that is not specifically "not connected" counts as a
// closed transport.
func classify(err error) error {
	if errors.Is(err, syscall.ENOTCONN) {
		return ErrNotConnected
	}
	return ErrClosed
}

// Logger receives debug traces from a Driver. The wtproto root Logger
// satisfies it.
type Logger interface {
	Debugf(format string, v ...interface{})
}

// A Driver runs ops to completion, checking the context between polls. The
// zero value is ready to use. If Logger is set it receives a line each time
// an op suspends.
//
// The Driver is the cooperative scheduler for ops backed by sources that
// report ErrAgain transiently (a source backed by a blocking reader never
// does).
type Driver struct {
	Logger Logger
}

// Drive polls op until it completes or fails.
func (d Driver) Drive(ctx context.Context, op Op) error {
	for i := 0; ; i++ {
		done, err := op.Poll()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if d.Logger != nil {
			d.Logger.Debugf("op %T suspended (poll %d)", op, i)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Drive runs op to completion with a zero Driver.
func Drive(ctx context.Context, op Op) error {
	return Driver{}.Drive(ctx, op)
}

type readerSource struct {
	r io.Reader
}

// ReaderSource adapts a blocking io.Reader (for example a quic-go receive
// stream) into a Source. The adapted source never reports ErrAgain; it
// blocks inside ReadSome instead.
func ReaderSource(r io.Reader) Source {
	return &readerSource{r: r}
}

func (s *readerSource) ReadSome(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if n > 0 {
		return n, nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	// n == 0 with nil or EOF: closed, let the op classify it.
	return 0, nil
}

type writerSink struct {
	w io.Writer
}

// WriterSink adapts a blocking io.Writer (for example a quic-go send stream)
// into a Sink.
func WriterSink(w io.Writer) Sink {
	return &writerSink{w: w}
}

func (s *writerSink) WriteSome(p []byte) (int, error) {
	return s.w.Write(p)
}
