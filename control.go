package websocket

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ControlHandler reacts to a control frame (ping/pong/close) discovered
// while reading a message. It receives the frame's header, its payload
// (≤125 bytes), and a ControlWriter it may use to emit a response (e.g.
// a pong), per spec Section 9: "a capability... not a virtual method on
// the connection". Passing it as a plain function lets tests supply a
// panicking stub or a capturing mock.
type ControlHandler func(h Header, payload []byte, cw *ControlWriter) error

// DefaultControlHandler implements the conventional reaction: answer a
// ping with a pong carrying the same payload, ignore a pong, and signal
// a close frame by returning ErrReceivedCloseFrame so the caller can run
// the closing handshake. It never writes a close frame itself — per
// spec Section 4.4, that is the caller's responsibility once the error
// surfaces.
func DefaultControlHandler(h Header, payload []byte, cw *ControlWriter) error {
	switch h.Opcode {
	case OpPing:
		logrus.WithField("len", len(payload)).Debug("websocket: received ping, sending pong")
		if err := cw.WriteControl(OpPong, payload); err != nil {
			return err
		}
		return nil
	case OpPong:
		logrus.WithField("len", len(payload)).Debug("websocket: received unsolicited pong")
		return nil
	case OpClose:
		code, reason := ParseCloseMessage(payload)
		if len(payload) > 2 {
			var v Validator
			if err := v.Validate(payload[2:]); err != nil {
				return fmt.Errorf("websocket: close reason: %w", ErrInvalidUtf8)
			}
			if err := v.Close(); err != nil {
				return fmt.Errorf("websocket: close reason: %w", ErrInvalidUtf8)
			}
		}
		logrus.WithFields(logrus.Fields{"code": code, "reason": reason}).Info("websocket: received close frame")
		return ErrReceivedCloseFrame
	default:
		// Unreachable: the header codec rejects unknown opcodes before a
		// control frame ever reaches a handler.
		return nil
	}
}
