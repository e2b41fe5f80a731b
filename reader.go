package websocket

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Reader presents one WebSocket message as a byte stream, per spec
// Section 4.4. Read never buffers the whole message: it returns
// (0, io.EOF) only at the true end of the message (never at a frame
// boundary), and a partial read may return fewer bytes than requested.
type Reader interface {
	io.Reader
	// Opcode returns the message's type: OpText or OpBinary.
	Opcode() Opcode
}

// nextDataHeader reads frame headers from r, dispatching every control
// frame it sees to handler before looping again, until a data-frame
// header arrives — which it returns. Used both by ReadMessage (at
// message construction) and by the multi-frame reader (between
// fragments), per spec Section 4.4.
func nextDataHeader(r Transport, handler ControlHandler, cw *ControlWriter, requireMasked bool) (Header, error) {
	for {
		h, err := DecodeHeader(r)
		if err != nil {
			return Header{}, err
		}

		if h.Rsv1 || h.Rsv2 || h.Rsv3 {
			return Header{}, fmt.Errorf("websocket: reserved bit set: %w", ErrInvalidMessage)
		}
		if !h.Opcode.IsKnown() {
			return Header{}, fmt.Errorf("websocket: unknown opcode 0x%X: %w", byte(h.Opcode), ErrInvalidMessage)
		}
		if requireMasked != h.Mask {
			return Header{}, fmt.Errorf("websocket: frame mask bit %v, want %v: %w", h.Mask, requireMasked, ErrMaskPolicyMismatch)
		}

		if !h.Opcode.IsControl() {
			return h, nil
		}

		if !h.Fin {
			return Header{}, fmt.Errorf("websocket: fragmented control frame: %w", ErrInvalidMessage)
		}
		if h.PayloadLen() > lenShortMax || h.UsesExtendedLength() {
			return Header{}, fmt.Errorf("websocket: oversized control frame payload: %w", ErrInvalidMessage)
		}

		var payload []byte
		if n := h.PayloadLen(); n > 0 {
			payload = make([]byte, n)
			if _, err := io.ReadFull(r, payload); err != nil {
				return Header{}, fmt.Errorf("websocket: read control frame payload: %w", err)
			}
			if h.Mask {
				ApplyMask(0, h.MaskKey, payload)
			}
		}

		logrus.WithFields(logrus.Fields{"opcode": h.Opcode, "len": len(payload)}).Debug("websocket: dispatching control frame")

		if err := handler(h, payload, cw); err != nil {
			if errors.Is(err, ErrReceivedCloseFrame) || errors.Is(err, ErrInvalidUtf8) {
				return Header{}, err
			}
			return Header{}, fmt.Errorf("websocket: control frame response: %w: %w", ErrUnexpectedControlFrameResponseFailure, err)
		}
	}
}

// ReadMessage reads frame headers from r, dispatching interleaved control
// frames to handler (which may use cw to answer, e.g. with a pong), until
// a data-frame header starts a message. It returns a Reader sized to that
// message: a single-frame reader if the first header already has FIN=1,
// or a multi-frame reader otherwise. Per spec Section 4.4.
func ReadMessage(r Transport, handler ControlHandler, cw *ControlWriter, requireMasked bool) (Reader, error) {
	h, err := nextDataHeader(r, handler, cw, requireMasked)
	if err != nil {
		return nil, err
	}
	if h.Opcode == OpContinuation {
		return nil, fmt.Errorf("websocket: continuation frame with no message in progress: %w", ErrInvalidMessage)
	}

	if h.Fin {
		return newSingleFrameReader(r, h), nil
	}
	return newMultiFrameReader(r, h, handler, cw, requireMasked), nil
}

// singleFrameReader streams the one frame of a message whose first
// (and only) header had FIN=1.
type singleFrameReader struct {
	r         Transport
	opcode    Opcode
	header    Header
	idx       uint64
	validator *Validator
	err       error
}

func newSingleFrameReader(r Transport, h Header) *singleFrameReader {
	sr := &singleFrameReader{r: r, opcode: h.Opcode, header: h}
	if h.Opcode == OpText {
		sr.validator = &Validator{}
	}
	return sr
}

func (sr *singleFrameReader) Opcode() Opcode { return sr.opcode }

func (sr *singleFrameReader) Read(p []byte) (int, error) {
	if sr.err != nil {
		return 0, sr.err
	}

	remaining := sr.header.PayloadLen() - sr.idx
	if remaining == 0 {
		if sr.validator != nil {
			if err := sr.validator.Close(); err != nil {
				sr.err = err
				return 0, err
			}
		}
		return 0, io.EOF
	}

	n := len(p)
	if uint64(n) > remaining {
		n = int(remaining)
	}
	if n == 0 {
		return 0, nil
	}

	buf := p[:n]
	read, rerr := sr.r.Read(buf)
	if rerr != nil && rerr != io.EOF {
		sr.err = fmt.Errorf("websocket: read frame payload: %w", rerr)
		return read, sr.err
	}
	if read == 0 && rerr == io.EOF {
		sr.err = fmt.Errorf("websocket: %w", ErrEndOfStream)
		return 0, sr.err
	}

	actual := buf[:read]
	if sr.header.Mask {
		ApplyMask(int(sr.idx), sr.header.MaskKey, actual)
	}
	if sr.validator != nil {
		if verr := sr.validator.Validate(actual); verr != nil {
			sr.err = verr
			return read, verr
		}
	}
	sr.idx += uint64(read)
	return read, nil
}

// mfState is the multi-frame reader's state, a 4-variant sum per spec
// Section 9 ("implementers... should encode this explicitly; do not
// flatten into boolean flags").
type mfState int

const (
	mfInPayload mfState = iota
	mfWaitingNextHeader
	mfDone
	mfErr
)

// multiFrameReader streams a message whose first header had FIN=0,
// transitioning between frame payloads and intervening headers
// (possibly with interleaved control frames) until a FIN=1 frame closes
// the message.
type multiFrameReader struct {
	r       Transport
	handler ControlHandler
	cw      *ControlWriter

	opcode        Opcode // message type, fixed for the reader's lifetime
	requireMasked bool

	header    Header // current frame's header
	idx       uint64
	validator *Validator // survives frame transitions; never reset

	state mfState
	err   error
}

func newMultiFrameReader(r Transport, h Header, handler ControlHandler, cw *ControlWriter, requireMasked bool) *multiFrameReader {
	mr := &multiFrameReader{
		r:             r,
		handler:       handler,
		cw:            cw,
		opcode:        h.Opcode,
		header:        h,
		state:         mfInPayload,
		requireMasked: requireMasked,
	}
	if h.Opcode == OpText {
		mr.validator = &Validator{}
	}
	return mr
}

func (mr *multiFrameReader) Opcode() Opcode { return mr.opcode }

func (mr *multiFrameReader) Read(p []byte) (int, error) {
	for {
		switch mr.state {
		case mfErr:
			return 0, mr.err

		case mfDone:
			return 0, io.EOF

		case mfWaitingNextHeader:
			h, err := nextDataHeader(mr.r, mr.handler, mr.cw, mr.requireMasked)
			if err != nil {
				mr.state, mr.err = mfErr, err
				return 0, err
			}
			if h.Opcode != OpContinuation {
				mr.state, mr.err = mfErr, fmt.Errorf("websocket: expected continuation frame, got %s: %w", h.Opcode, ErrInvalidMessage)
				return 0, mr.err
			}
			mr.header = h
			mr.idx = 0
			mr.state = mfInPayload

		case mfInPayload:
			remaining := mr.header.PayloadLen() - mr.idx
			if remaining == 0 {
				if !mr.header.Fin {
					mr.state = mfWaitingNextHeader
					continue
				}
				if mr.validator != nil {
					if err := mr.validator.Close(); err != nil {
						mr.state, mr.err = mfErr, err
						return 0, err
					}
				}
				mr.state = mfDone
				return 0, io.EOF
			}

			n := len(p)
			if uint64(n) > remaining {
				n = int(remaining)
			}
			if n == 0 {
				return 0, nil
			}

			buf := p[:n]
			read, rerr := mr.r.Read(buf)
			if rerr != nil && rerr != io.EOF {
				mr.state, mr.err = mfErr, fmt.Errorf("websocket: read frame payload: %w", rerr)
				return read, mr.err
			}
			if read == 0 && rerr == io.EOF {
				mr.state, mr.err = mfErr, fmt.Errorf("websocket: %w", ErrEndOfStream)
				return 0, mr.err
			}

			actual := buf[:read]
			if mr.header.Mask {
				ApplyMask(int(mr.idx), mr.header.MaskKey, actual)
			}
			if mr.validator != nil {
				if verr := mr.validator.Validate(actual); verr != nil {
					mr.state, mr.err = mfErr, verr
					return read, verr
				}
			}
			mr.idx += uint64(read)
			return read, nil
		}
	}
}
