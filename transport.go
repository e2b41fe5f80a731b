package websocket

import "io"

// ByteReader is the transport-side read collaborator, per spec Section 6:
// a blocking byte-oriented reader. Standard io.Reader semantics apply —
// io.EOF signals the transport-level end of stream.
type ByteReader = io.Reader

// ByteWriter is the transport-side write collaborator, per spec Section 6:
// a blocking byte-oriented writer.
type ByteWriter = io.Writer

// Transport is the full byte-oriented collaborator a Conn is built on: an
// already-upgraded connection (post-handshake), read and write ends
// included. A net.Conn and the buffered connection Dial builds after the
// handshake both satisfy this.
type Transport interface {
	ByteReader
	ByteWriter
}
