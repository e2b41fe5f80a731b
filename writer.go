package websocket

import "fmt"

// writeDataFrame encodes and writes one complete frame: header plus
// (optionally masked) payload. Used by MultiFrameWriter and ControlWriter,
// where one call always maps to exactly one wire frame.
func writeDataFrame(w Transport, op Opcode, fin bool, payload []byte, policy MaskPolicy) error {
	h, err := newHeader(op, fin, uint64(len(payload)), policy)
	if err != nil {
		return err
	}
	if err := h.Encode(w); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	if h.Mask {
		data, release := maskedCopy(0, h.MaskKey, payload)
		defer release()
		_, err = w.Write(data)
	} else {
		_, err = w.Write(payload)
	}
	if err != nil {
		return fmt.Errorf("websocket: write frame payload: %w", err)
	}
	return nil
}

// SingleFrameWriter streams a single frame of a known total length L,
// emitting the header at construction time with FIN=1, per spec
// Section 4.5. Each Write call masks and forwards its chunk directly —
// no further headers are written. Writing past L returns ErrEndOfStream
// once exactly L bytes have been accepted, per the writer invariant in
// spec Section 8 (#7).
type SingleFrameWriter struct {
	w       Transport
	header  Header
	length  uint64
	written uint64
}

// NewSingleFrameWriter constructs a writer for a frame of opcode op and
// declared payload length, writing the frame header immediately.
func NewSingleFrameWriter(w Transport, op Opcode, length uint64, policy MaskPolicy) (*SingleFrameWriter, error) {
	h, err := newHeader(op, true, length, policy)
	if err != nil {
		return nil, err
	}
	if err := h.Encode(w); err != nil {
		return nil, err
	}
	return &SingleFrameWriter{w: w, header: h, length: length}, nil
}

// Write forwards up to length-written bytes of p, masking them per the
// writer's policy at the correct running offset. If p would carry the
// cursor past the declared length, the bytes up to the limit are still
// accepted and written, and ErrEndOfStream is returned alongside the
// count actually written.
func (sw *SingleFrameWriter) Write(p []byte) (int, error) {
	if sw.written >= sw.length {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, ErrEndOfStream
	}

	remaining := sw.length - sw.written
	n := len(p)
	if uint64(n) > remaining {
		n = int(remaining)
	}
	chunk := p[:n]

	if sw.header.Mask {
		data, release := maskedCopy(int(sw.written), sw.header.MaskKey, chunk)
		defer release()
		if _, err := sw.w.Write(data); err != nil {
			return 0, fmt.Errorf("websocket: write frame payload: %w", err)
		}
	} else if _, err := sw.w.Write(chunk); err != nil {
		return 0, fmt.Errorf("websocket: write frame payload: %w", err)
	}

	sw.written += uint64(n)
	if n < len(p) {
		return n, ErrEndOfStream
	}
	return n, nil
}

// Discard pads the remainder of the declared length with zero bytes,
// used to satisfy a declared length after a caller-side error leaves the
// frame short.
func (sw *SingleFrameWriter) Discard() error {
	remaining := sw.length - sw.written
	if remaining == 0 {
		return nil
	}
	_, err := sw.Write(make([]byte, remaining))
	return err
}

// MultiFrameWriter streams a message of unknown total length as a
// sequence of frames: the first carries the data opcode, every later one
// carries OpContinuation, until Close/CloseWith emits the terminal FIN=1
// frame.
// Per spec Section 4.5, every Write call maps one-to-one to a frame on
// the wire — callers that care about header overhead should buffer
// before writing.
type MultiFrameWriter struct {
	w      Transport
	policy MaskPolicy
	opcode Opcode
	closed bool
}

// NewMultiFrameWriter constructs a writer for a message of the given
// data opcode (OpText or OpBinary).
func NewMultiFrameWriter(w Transport, op Opcode, policy MaskPolicy) *MultiFrameWriter {
	return &MultiFrameWriter{w: w, policy: policy, opcode: op}
}

// Write emits p as one FIN=0 frame: OpText/OpBinary on the first call,
// OpContinuation on every call after.
func (mw *MultiFrameWriter) Write(p []byte) (int, error) {
	if mw.closed {
		return 0, ErrEndOfStream
	}
	if err := writeDataFrame(mw.w, mw.opcode, false, p, mw.policy); err != nil {
		return 0, err
	}
	mw.opcode = OpContinuation
	return len(p), nil
}

// Close emits an empty terminal FIN=1 frame and marks the writer done.
func (mw *MultiFrameWriter) Close() error {
	return mw.CloseWith(nil)
}

// CloseWith emits p as the terminal FIN=1 frame (carrying OpContinuation
// if any prior Write happened, else the original data opcode) and marks
// the writer done.
func (mw *MultiFrameWriter) CloseWith(p []byte) error {
	if mw.closed {
		return nil
	}
	if err := writeDataFrame(mw.w, mw.opcode, true, p, mw.policy); err != nil {
		return err
	}
	mw.closed = true
	return nil
}

// ControlWriter emits one-shot control frames (close/ping/pong), always
// FIN=1 with a payload of at most 125 bytes — the 126/127 extended
// length forms are structurally unreachable here, per spec Section 4.5.
type ControlWriter struct {
	w      Transport
	policy MaskPolicy
}

// NewControlWriter constructs a control writer over w using policy for
// the (typically pong/close) frames it emits.
func NewControlWriter(w Transport, policy MaskPolicy) *ControlWriter {
	return &ControlWriter{w: w, policy: policy}
}

// WriteControl emits one control frame with opcode op and the given
// payload (must be ≤125 bytes).
func (cw *ControlWriter) WriteControl(op Opcode, payload []byte) error {
	if !op.IsControl() {
		return fmt.Errorf("websocket: %s is not a control opcode: %w", op, ErrInvalidMessage)
	}
	if len(payload) > lenShortMax {
		return fmt.Errorf("websocket: control payload of %d bytes exceeds 125: %w", len(payload), ErrInvalidMessage)
	}
	return writeDataFrame(cw.w, op, true, payload, cw.policy)
}
