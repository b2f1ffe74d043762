package ids

import (
	"testing"

	"github.com/webtransport/wtproto/internal/tests"
	"github.com/webtransport/wtproto/varint"
)

func TestStreamIDProperties(t *testing.T) {
	cases := []struct {
		id     StreamID
		bidi   bool
		client bool
	}{
		{0, true, true},
		{1, true, false},
		{2, false, true},
		{3, false, false},
		{4, true, true},
		{0x54, true, true},
	}
	for _, c := range cases {
		tests.AssertEqual(t, c.bidi, c.id.IsBidirectional())
		tests.AssertEqual(t, c.client, c.id.IsClientInitiated())
	}
}

func TestSessionIDFromVarint(t *testing.T) {
	for _, v := range []varint.VarInt{0, 4, 8, 0x100} {
		s, err := FromVarint(v)
		tests.AssertNoError(t, err)
		tests.AssertEqual(t, v, s.Varint())
		tests.AssertEqual(t, StreamID(v), s.StreamID())
	}

	for _, v := range []varint.VarInt{1, 2, 3, 5, 6, 7} {
		if _, err := FromVarint(v); err == nil {
			t.Errorf("expected %d to be rejected", v)
		} else {
			tests.AssertErrorIs(t, err, ErrInvalidSessionID)
		}
	}
}
