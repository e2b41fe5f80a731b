package websocket

import "errors"

// Error taxonomy, per spec Section 7. Readers latch the first protocol or
// UTF-8 error they see; every later read returns that same error value
// (wrapped, so errors.Is still matches the sentinel below).
var (
	// ErrEndOfStream is returned by a transport (or a caller-facing
	// stream) that has reached its true end, or by a single-frame writer
	// that was written to past its declared length.
	ErrEndOfStream = errors.New("websocket: end of stream")

	// ErrInvalidMessage covers reserved bits set, an unknown opcode, a
	// fragmented control frame, an oversized control payload, a
	// continuation frame with no message in progress, or a non-
	// continuation data frame arriving mid-fragment. Connection layers
	// should respond with close code 1002 (protocol_error).
	ErrInvalidMessage = errors.New("websocket: invalid message")

	// ErrInvalidUtf8 is returned when a text message's payload fails
	// incremental UTF-8 validation, or ends with a non-empty carry
	// (a truncated code point). Connection layers should respond with
	// close code 1007 (inconsistent_format).
	ErrInvalidUtf8 = errors.New("websocket: invalid UTF-8 in text message")

	// ErrPayloadTooLong is returned when a decoded frame header declares
	// a payload length that exceeds what this host can address.
	ErrPayloadTooLong = errors.New("websocket: payload length exceeds host limit")

	// ErrReceivedCloseFrame is returned by a read when the control
	// handler observed a close frame. Callers should complete the
	// closing handshake and tear down the transport.
	ErrReceivedCloseFrame = errors.New("websocket: received close frame")

	// ErrUnexpectedControlFrameResponseFailure is returned when the
	// control handler's write-back (e.g. an automatic pong) failed; the
	// connection is not salvageable afterward.
	ErrUnexpectedControlFrameResponseFailure = errors.New("websocket: control frame response failed")

	// ErrMaskPolicyMismatch is returned by a read when an incoming
	// frame's mask bit does not match the reader's role: an unmasked
	// frame where masked reads are required (server role), or a masked
	// frame where they are not (client role).
	ErrMaskPolicyMismatch = errors.New("websocket: mask policy does not match required role")
)
