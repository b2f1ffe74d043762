// Package ids defines the opaque identifier types carried on the wire:
// QUIC stream ids and WebTransport session ids.
package ids

import (
	"errors"
	"fmt"

	"github.com/webtransport/wtproto/varint"
)

// ErrInvalidSessionID reports that a decoded varint is not a valid session
// id.
var ErrInvalidSessionID = errors.New("ids: invalid session id")

// A StreamID identifies a QUIC stream. The two low bits encode the
// initiator and directionality.
type StreamID varint.VarInt

// IsBidirectional reports whether the stream is bidirectional.
func (s StreamID) IsBidirectional() bool {
	return s&0x2 == 0
}

// IsClientInitiated reports whether the client opened the stream.
func (s StreamID) IsClientInitiated() bool {
	return s&0x1 == 0
}

func (s StreamID) String() string {
	return fmt.Sprintf("%d", uint64(s))
}

// A SessionID identifies a WebTransport session. It is the id of the
// client-initiated bidirectional stream that carried the session's CONNECT
// request, so only varints with both low bits zero convert successfully.
type SessionID struct {
	id varint.VarInt
}

// FromVarint converts a decoded varint into a SessionID. It returns
// ErrInvalidSessionID if v is not the id of a client-initiated
// bidirectional stream.
func FromVarint(v varint.VarInt) (SessionID, error) {
	s := StreamID(v)
	if !s.IsBidirectional() || !s.IsClientInitiated() {
		return SessionID{}, ErrInvalidSessionID
	}
	return SessionID{id: v}, nil
}

// Varint returns the session id as the varint it is encoded as.
func (s SessionID) Varint() varint.VarInt {
	return s.id
}

// StreamID returns the id of the stream that established the session.
func (s SessionID) StreamID() StreamID {
	return StreamID(s.id)
}

func (s SessionID) String() string {
	return fmt.Sprintf("%d", s.id.Uint64())
}
