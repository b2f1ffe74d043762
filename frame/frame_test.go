package frame

import (
	"bytes"
	"context"
	"testing"

	"github.com/webtransport/wtproto/buffer"
	"github.com/webtransport/wtproto/ids"
	"github.com/webtransport/wtproto/internal/tests"
	"github.com/webtransport/wtproto/nio"
	"github.com/webtransport/wtproto/varint"
)

// stepSource delivers one byte per call, reporting ErrAgain on every other
// call.
type stepSource struct {
	data    []byte
	off     int
	pending bool
}

func (s *stepSource) ReadSome(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	s.pending = !s.pending
	if s.pending {
		return 0, nio.ErrAgain
	}
	if s.off >= len(s.data) {
		return 0, nil
	}
	p[0] = s.data[s.off]
	s.off++
	return 1, nil
}

func mustSessionID(t *testing.T, v varint.VarInt) ids.SessionID {
	t.Helper()
	s, err := ids.FromVarint(v)
	tests.AssertNoError(t, err)
	return s
}

func encode(t *testing.T, f Frame) []byte {
	t.Helper()
	var a buffer.Appender
	tests.AssertNoError(t, f.Write(&a))
	tests.AssertEqual(t, f.WriteSize(), len(a.Bytes()))
	return a.Bytes()
}

func TestRoundTrip(t *testing.T) {
	payloads := [][]byte{nil, {0xde, 0xad}, bytes.Repeat([]byte{0x5a}, 300)}
	for _, kind := range []Kind{KindData, KindHeaders, KindSettings} {
		for _, payload := range payloads {
			f := New(kind, payload)
			wire := encode(t, f)

			r := buffer.NewReader(wire)
			got, err := ReadBuffer(r)
			tests.AssertNoError(t, err)
			tests.AssertEqual(t, kind, got.Kind())
			tests.AssertEqual(t, len(payload), len(got.Payload()))
			if len(payload) > 0 {
				tests.AssertEqual(t, payload, got.Payload())
			}
			tests.AssertEqual(t, 0, r.Capacity())
		}
	}
}

func TestRoundTripWebTransport(t *testing.T) {
	f := NewWebTransport(mustSessionID(t, 0x4c))
	wire := encode(t, f)

	got, err := ReadBuffer(buffer.NewReader(wire))
	tests.AssertNoError(t, err)
	tests.AssertEqual(t, KindWebTransport, got.Kind())
	sess, ok := got.SessionID()
	tests.AssertEqual(t, true, ok)
	tests.AssertEqual(t, mustSessionID(t, 0x4c), sess)
}

func TestReadTruncated(t *testing.T) {
	wire := encode(t, New(KindData, []byte{0x1, 0x2, 0x3}))

	for n := 0; n < len(wire); n++ {
		r := buffer.NewReader(wire[:n])
		_, err := ReadBuffer(r)
		tests.AssertErrorIs(t, err, buffer.ErrEndOfBuffer)
		tests.AssertEqual(t, 0, r.Offset())
	}
}

func TestReadInvalidSessionID(t *testing.T) {
	var a buffer.Appender
	tests.AssertNoError(t, a.PutVarint(0x41))
	tests.AssertNoError(t, a.PutVarint(2))

	r := buffer.NewReader(a.Bytes())
	_, err := ReadBuffer(r)
	tests.AssertErrorIs(t, err, ids.ErrInvalidSessionID)
	tests.AssertEqual(t, 0, r.Offset())
}

func TestPayloadZeroCopy(t *testing.T) {
	wire := encode(t, New(KindData, []byte{0x1, 0x2}))

	got, err := ReadBuffer(buffer.NewReader(wire))
	tests.AssertNoError(t, err)

	wire[len(wire)-1] = 0xff
	tests.AssertEqual(t, byte(0xff), got.Payload()[1])
}

func TestAcceptStepwise(t *testing.T) {
	f := New(KindHeaders, []byte{0xaa, 0xbb, 0xcc})
	wire := encode(t, f)

	got, err := Accept(context.Background(), &stepSource{data: wire}, 1<<10)
	tests.AssertNoError(t, err)
	tests.AssertEqual(t, KindHeaders, got.Kind())
	tests.AssertEqual(t, []byte{0xaa, 0xbb, 0xcc}, got.Payload())
}

func TestAcceptWebTransportStepwise(t *testing.T) {
	wire := encode(t, NewWebTransport(mustSessionID(t, 0)))

	got, err := Accept(context.Background(), &stepSource{data: wire}, 1<<10)
	tests.AssertNoError(t, err)
	tests.AssertEqual(t, KindWebTransport, got.Kind())
}

func TestAcceptPayloadTooLarge(t *testing.T) {
	wire := encode(t, New(KindData, bytes.Repeat([]byte{0x0}, 64)))

	_, err := Accept(context.Background(), &stepSource{data: wire}, 16)
	tests.AssertErrorIs(t, err, ErrPayloadTooLarge)
}

func TestAcceptClosed(t *testing.T) {
	wire := encode(t, New(KindData, []byte{0x1, 0x2, 0x3}))

	_, err := Accept(context.Background(), &stepSource{data: wire[:len(wire)-1]}, 1<<10)
	tests.AssertErrorIs(t, err, nio.ErrClosed)
}

func TestSend(t *testing.T) {
	var sink sliceSink
	f := New(KindData, []byte{0x1, 0x2, 0x3})
	tests.AssertNoError(t, Send(context.Background(), &sink, f))
	tests.AssertEqual(t, encode(t, f), sink.buf)

	sink.buf = nil
	wt := NewWebTransport(mustSessionID(t, 4))
	tests.AssertNoError(t, Send(context.Background(), &sink, wt))
	tests.AssertEqual(t, encode(t, wt), sink.buf)
}

type sliceSink struct {
	buf []byte
}

func (s *sliceSink) WriteSome(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

func TestKindString(t *testing.T) {
	tests.AssertEqual(t, "DATA", KindData.String())
	tests.AssertEqual(t, "WEBTRANSPORT", KindWebTransport.String())
	tests.AssertEqual(t, true, Kind(0x21).IsExercise())
	tests.AssertEqual(t, false, Kind(0x22).IsExercise())
}
