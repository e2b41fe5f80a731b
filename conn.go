package websocket

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Conn is a WebSocket connection over an already-upgraded transport. It
// sequences exactly one in-flight reader and one in-flight writer per
// spec Section 5 ("one message-in-flight in each direction, sequenced by
// the caller") and wires the default control-frame handler to an
// internal ControlWriter so pings are answered even mid-read.
//
// Conn is not safe for concurrent use by multiple goroutines; see spec
// Section 5 for the sharing model.
type Conn struct {
	rwc  io.ReadWriteCloser
	opts options
	cw   *ControlWriter

	closeSent bool
	closeRecv bool
}

// NewConn wraps an already-upgraded transport (e.g. a dialed net.Conn, or
// the hijacked connection returned by a server-side Upgrade) into a Conn.
func NewConn(rwc io.ReadWriteCloser, opts ...Option) *Conn {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Conn{
		rwc: rwc,
		opts: o,
		cw:  NewControlWriter(rwc, o.writeMask),
	}
}

// NextReader blocks until the next message begins (dispatching any
// interleaved control frames to the configured ControlHandler along the
// way) and returns a Reader streaming that message's payload in bounded
// memory, per spec Section 4.4.
func (c *Conn) NextReader() (Reader, error) {
	r, err := ReadMessage(c.rwc, c.opts.controlHandler, c.cw, c.opts.readMask)
	if err != nil {
		if errors.Is(err, ErrReceivedCloseFrame) {
			c.closeRecv = true
		}
		return nil, err
	}
	return r, nil
}

// ReadMessage reads one whole message into memory and returns its opcode
// (OpText or OpBinary) and payload. Prefer NextReader for large messages
// the caller wants to stream instead of buffer.
func (c *Conn) ReadMessage() (Opcode, []byte, error) {
	r, err := c.NextReader()
	if err != nil {
		return 0, nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return r.Opcode(), data, err
	}
	logDebugPayload(r.Opcode(), data)
	return r.Opcode(), data, nil
}

// NextWriter returns a MultiFrameWriter for streaming a message of
// unknown length. The caller MUST call Close or CloseWith when done.
func (c *Conn) NextWriter(op Opcode) *MultiFrameWriter {
	return NewMultiFrameWriter(c.rwc, op, c.opts.writeMask)
}

// WriteMessage writes data as one complete message, chunked into frames
// of at most WithMaxFrameSize bytes (the first carrying op, the rest
// OpContinuation), matching the teacher's per-call frame-size chunking.
func (c *Conn) WriteMessage(op Opcode, data []byte) error {
	size := c.opts.maxFrameSize
	if size <= 0 {
		size = DefaultFrameSize
	}
	if len(data) <= size {
		sw, err := NewSingleFrameWriter(c.rwc, op, uint64(len(data)), c.opts.writeMask)
		if err != nil {
			return err
		}
		_, err = sw.Write(data)
		return err
	}

	w := c.NextWriter(op)
	for len(data) > size {
		if _, err := w.Write(data[:size]); err != nil {
			return err
		}
		data = data[size:]
	}
	return w.CloseWith(data)
}

// Ping sends a ping control frame carrying payload (must be ≤125 bytes).
func (c *Conn) Ping(payload []byte) error {
	return c.cw.WriteControl(OpPing, payload)
}

// Pong sends an unsolicited pong control frame.
func (c *Conn) Pong(payload []byte) error {
	return c.cw.WriteControl(OpPong, payload)
}

// Close performs (the local half of) the closing handshake: it sends a
// close frame with code and reason unless an earlier Close already sent
// one, and then closes the transport. A close frame received from the
// peer does not suppress the send: calling Close after ReadMessage
// returned ErrReceivedCloseFrame sends the reply that completes the
// handshake.
func (c *Conn) Close(code CloseCode, reason string) error {
	var sendErr error
	if !c.closeSent {
		c.closeSent = true
		sendErr = c.cw.WriteControl(OpClose, FormatCloseMessage(code, reason))
		if sendErr != nil {
			logrus.WithError(sendErr).Warn("websocket: failed to send close frame")
		}
	}
	if err := c.rwc.Close(); err != nil {
		if sendErr != nil {
			return fmt.Errorf("websocket: close frame write failed (%v), transport close also failed: %w", sendErr, err)
		}
		return fmt.Errorf("websocket: close transport: %w", err)
	}
	return sendErr
}
