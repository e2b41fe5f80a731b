package websocket

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Payload-length wire-form thresholds, per RFC 6455 Section 5.2.
const (
	lenShortMax  = 125
	lenMarker16  = 126
	lenMarker64  = 127
	maxUint16Len = math.MaxUint16
)

// Header is the logical projection of an RFC 6455 frame header: the FIN
// bit, the three reserved bits, the opcode, the mask bit and key, and the
// effective payload length — regardless of which of the three wire forms
// (short/medium/long) carried it. One struct serves every wire form; the
// only trace of the form kept after decoding is whether an extended
// length field was used.
type Header struct {
	Fin  bool
	Rsv1 bool
	Rsv2 bool
	Rsv3 bool

	Opcode Opcode

	Mask    bool
	MaskKey [4]byte

	payloadLen uint64
	// extended records whether the wire form used the 126/127 extended-
	// length marker, regardless of the resulting effective length. Used
	// to reject a control frame that (mis)encodes its ≤125-byte payload
	// with an extended-length form, per spec Section 4.4.
	extended bool
}

// PayloadLen returns the effective payload length: the 7-bit length field
// when it was ≤125, or the decoded 16-/64-bit extended length otherwise.
func (h Header) PayloadLen() uint64 { return h.payloadLen }

// UsesExtendedLength reports whether this header's wire form carried its
// length in the 16- or 64-bit extended form rather than the 7-bit short
// form, regardless of the resulting effective length.
func (h Header) UsesExtendedLength() bool { return h.extended }

// DecodeHeader reads a frame header from r: the fixed 2-byte prefix, then
// the extended length (0/2/8 bytes) and the masking key (0/4 bytes) as
// dictated by the prefix. Per spec Section 4.1.
func DecodeHeader(r io.Reader) (Header, error) {
	var prefix [2]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return Header{}, fmt.Errorf("websocket: read frame header: %w", err)
	}

	h := Header{
		Fin:    prefix[0]&0x80 != 0,
		Rsv1:   prefix[0]&0x40 != 0,
		Rsv2:   prefix[0]&0x20 != 0,
		Rsv3:   prefix[0]&0x10 != 0,
		Opcode: Opcode(prefix[0] & 0x0F),
		Mask:   prefix[1]&0x80 != 0,
	}

	len7 := prefix[1] & 0x7F
	switch len7 {
	case lenMarker16:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return Header{}, fmt.Errorf("websocket: read extended length: %w", err)
		}
		h.payloadLen = uint64(binary.BigEndian.Uint16(ext[:]))
		h.extended = true
	case lenMarker64:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return Header{}, fmt.Errorf("websocket: read extended length: %w", err)
		}
		n := binary.BigEndian.Uint64(ext[:])
		if n > math.MaxInt64 {
			return Header{}, ErrPayloadTooLong
		}
		h.payloadLen = n
		h.extended = true
	default:
		h.payloadLen = uint64(len7)
	}

	if h.payloadLen > math.MaxInt {
		return Header{}, ErrPayloadTooLong
	}

	if h.Mask {
		if _, err := io.ReadFull(r, h.MaskKey[:]); err != nil {
			return Header{}, fmt.Errorf("websocket: read mask key: %w", err)
		}
	}

	return h, nil
}

// Encode writes h's logical fields to w, choosing the minimal wire form
// for the payload length (short/medium/long) and emitting the mask key
// when h.Mask is set. Per spec Section 4.1.
func (h Header) Encode(w io.Writer) error {
	var prefix [2]byte
	if h.Fin {
		prefix[0] |= 0x80
	}
	if h.Rsv1 {
		prefix[0] |= 0x40
	}
	if h.Rsv2 {
		prefix[0] |= 0x20
	}
	if h.Rsv3 {
		prefix[0] |= 0x10
	}
	prefix[0] |= byte(h.Opcode) & 0x0F

	if h.Mask {
		prefix[1] |= 0x80
	}

	switch {
	case h.payloadLen <= lenShortMax:
		prefix[1] |= byte(h.payloadLen)
		if _, err := w.Write(prefix[:]); err != nil {
			return fmt.Errorf("websocket: write frame header: %w", err)
		}
	case h.payloadLen <= maxUint16Len:
		prefix[1] |= lenMarker16
		if _, err := w.Write(prefix[:]); err != nil {
			return fmt.Errorf("websocket: write frame header: %w", err)
		}
		var ext [2]byte
		binary.BigEndian.PutUint16(ext[:], uint16(h.payloadLen))
		if _, err := w.Write(ext[:]); err != nil {
			return fmt.Errorf("websocket: write extended length: %w", err)
		}
	default:
		prefix[1] |= lenMarker64
		if _, err := w.Write(prefix[:]); err != nil {
			return fmt.Errorf("websocket: write frame header: %w", err)
		}
		var ext [8]byte
		binary.BigEndian.PutUint64(ext[:], h.payloadLen)
		if _, err := w.Write(ext[:]); err != nil {
			return fmt.Errorf("websocket: write extended length: %w", err)
		}
	}

	if h.Mask {
		if _, err := w.Write(h.MaskKey[:]); err != nil {
			return fmt.Errorf("websocket: write mask key: %w", err)
		}
	}
	return nil
}

// newHeader builds a header for length with the given opcode, FIN bit,
// and mask policy, drawing a masking key from policy if it requests one.
// Per spec Section 4.1 ("masking key sourcing").
func newHeader(op Opcode, fin bool, length uint64, policy MaskPolicy) (Header, error) {
	h := Header{
		Fin:        fin,
		Opcode:     op,
		payloadLen: length,
	}
	key, masked, err := policy.key()
	if err != nil {
		return Header{}, err
	}
	h.Mask = masked
	h.MaskKey = key
	return h, nil
}
