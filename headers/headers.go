// Package headers encodes and decodes the payload of HEADERS frames using
// QPACK. Only the static table is used, so an encoded block is decodable
// without encoder-stream state.
package headers

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/quic-go/qpack"
	"golang.org/x/net/http/httpguts"

	"github.com/webtransport/wtproto/frame"
)

// A Field is a single header field. Pseudo fields have names starting with
// a colon.
type Field struct {
	Name  string
	Value string
}

// IsPseudo reports whether the field is a pseudo header field.
func (f Field) IsPseudo() bool {
	return strings.HasPrefix(f.Name, ":")
}

// Headers is an ordered list of header fields.
type Headers []Field

// Get returns the value of the first field named name, or "".
func (h Headers) Get(name string) string {
	for _, f := range h {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// Decode parses a QPACK header block. Field names must be lower-case and all
// pseudo fields must precede regular fields, per RFC 9114 section 4.
func Decode(payload []byte) (Headers, error) {
	fields, err := qpack.NewDecoder(nil).DecodeFull(payload)
	if err != nil {
		return nil, fmt.Errorf("headers: %w", err)
	}

	h := make(Headers, 0, len(fields))
	var sawRegular bool
	for _, f := range fields {
		if strings.ToLower(f.Name) != f.Name {
			return nil, fmt.Errorf("headers: field name is not lower-case: %s", f.Name)
		}
		if !httpguts.ValidHeaderFieldValue(f.Value) {
			return nil, fmt.Errorf("headers: invalid value for %s: %q", f.Name, f.Value)
		}
		if f.IsPseudo() {
			if sawRegular {
				return nil, fmt.Errorf("headers: pseudo field %s after a regular field", f.Name)
			}
		} else {
			if !httpguts.ValidHeaderFieldName(f.Name) {
				return nil, fmt.Errorf("headers: invalid field name: %q", f.Name)
			}
			sawRegular = true
		}
		h = append(h, Field{Name: f.Name, Value: f.Value})
	}
	return h, nil
}

// Encode serializes h as a QPACK header block.
func (h Headers) Encode() ([]byte, error) {
	var buf bytes.Buffer
	encoder := qpack.NewEncoder(&buf)
	for _, f := range h {
		if err := encoder.WriteField(qpack.HeaderField{Name: f.Name, Value: f.Value}); err != nil {
			return nil, fmt.Errorf("headers: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// Frame returns h encoded as a HEADERS frame.
func (h Headers) Frame() (frame.Frame, error) {
	payload, err := h.Encode()
	if err != nil {
		return frame.Frame{}, err
	}
	return frame.New(frame.KindHeaders, payload), nil
}

// FromFrame decodes the payload of a HEADERS frame.
func FromFrame(f frame.Frame) (Headers, error) {
	if f.Kind() != frame.KindHeaders {
		return nil, fmt.Errorf("headers: not a HEADERS frame: %s", f.Kind())
	}
	return Decode(f.Payload())
}
