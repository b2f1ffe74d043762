// Package wtproto implements the wire layer of WebTransport over HTTP/3:
// zero-copy buffer cursors, the QUIC varint value type, resumable
// non-blocking I/O operations, and the stream-header and frame framing built
// on them. The QUIC transport itself is external; this module only turns
// bytes into protocol values and back.
package wtproto

// ALPN is the application protocol negotiated for WebTransport connections.
const ALPN = "h3"
