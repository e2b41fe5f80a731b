package websocket

import "encoding/binary"

// CloseCode is the 16-bit status carried in the first two bytes of a
// close-frame payload, per RFC 6455 Section 7.4.
type CloseCode uint16

// Normative subset of close codes, per spec Section 6.
const (
	CloseNormalClosure      CloseCode = 1000
	CloseGoingAway          CloseCode = 1001
	CloseProtocolError      CloseCode = 1002
	CloseUnsupportedData    CloseCode = 1003
	CloseNoStatusReceived   CloseCode = 1005
	CloseAbnormalClosure    CloseCode = 1006
	CloseInvalidFramePayload CloseCode = 1007
	ClosePolicyViolation    CloseCode = 1008
	CloseMessageTooBig      CloseCode = 1009
	CloseMandatoryExtension CloseCode = 1010
	CloseTLSHandshake       CloseCode = 1015
)

// String returns the conventional lower_snake_case name for known codes,
// "registered_or_private" for the 3000-4999 range, or "reserved" for
// anything else.
func (c CloseCode) String() string {
	switch c {
	case CloseNormalClosure:
		return "normal"
	case CloseGoingAway:
		return "going_away"
	case CloseProtocolError:
		return "protocol_error"
	case CloseUnsupportedData:
		return "cannot_accept"
	case CloseNoStatusReceived:
		return "no_status_code_present"
	case CloseAbnormalClosure:
		return "closed_abnormally"
	case CloseInvalidFramePayload:
		return "inconsistent_format"
	case ClosePolicyViolation:
		return "policy_violation"
	case CloseMessageTooBig:
		return "message_too_large"
	case CloseMandatoryExtension:
		return "expected_extension"
	case CloseTLSHandshake:
		return "invalid_tls_signature"
	default:
		if c >= 3000 && c <= 4999 {
			return "registered_or_private"
		}
		return "reserved"
	}
}

// IsSendable reports whether c may legally appear on the wire in a close
// frame, per spec Section 3/6. Codes 1005, 1006, 1015, and anything not
// in the named/registered ranges are for local reporting only.
func (c CloseCode) IsSendable() bool {
	switch c {
	case CloseNoStatusReceived, CloseAbnormalClosure, CloseTLSHandshake:
		return false
	}
	switch {
	case c >= 1000 && c <= 1003:
		return true
	case c >= 1007 && c <= 1010:
		return true
	case c >= 3000 && c <= 4999:
		return true
	default:
		return false
	}
}

// FormatCloseMessage builds a close-frame payload: a 2-byte big-endian
// status code followed by the UTF-8 reason text. Per RFC 6455, it is
// illegal to send CloseNoStatusReceived on the wire, so that case returns
// an empty payload (a valid, status-less close frame).
func FormatCloseMessage(code CloseCode, reason string) []byte {
	if code == CloseNoStatusReceived {
		return []byte{}
	}
	buf := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(buf, uint16(code))
	copy(buf[2:], reason)
	return buf
}

// ParseCloseMessage extracts the status code and reason from a close-frame
// payload. A payload shorter than 2 bytes has no status code, per RFC 6455
// Section 7.1.5 ("if this Close control frame contains no status code").
func ParseCloseMessage(payload []byte) (code CloseCode, reason string) {
	if len(payload) < 2 {
		return CloseNoStatusReceived, ""
	}
	code = CloseCode(binary.BigEndian.Uint16(payload))
	reason = string(payload[2:])
	return code, reason
}
