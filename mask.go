package websocket

import (
	"crypto/rand"

	"github.com/valyala/bytebufferpool"
)

// MaskPolicy selects how outgoing frames obtain a masking key, per spec
// Section 3 ("mask policy"). The zero value is Unmasked.
type MaskPolicy struct {
	kind    maskKind
	fixedOK bool
	fixed   [4]byte
}

type maskKind int

const (
	maskUnmasked maskKind = iota
	maskRandom
	maskFixed
)

// Unmasked returns a policy that never masks outgoing frames. Per spec
// Section 3, a writer configured Unmasked on a client connection is a
// caller error the core does not itself enforce (the connection layer's
// responsibility).
func Unmasked() MaskPolicy { return MaskPolicy{kind: maskUnmasked} }

// RandomMask returns a policy that draws a fresh 32-bit masking key from
// a cryptographically strong source for every frame.
func RandomMask() MaskPolicy { return MaskPolicy{kind: maskRandom} }

// FixedMask returns a policy that masks every frame with the given
// 32-bit key, useful for deterministic tests and for replaying fixtures.
func FixedMask(key uint32) MaskPolicy {
	var k [4]byte
	k[0] = byte(key >> 24)
	k[1] = byte(key >> 16)
	k[2] = byte(key >> 8)
	k[3] = byte(key)
	return MaskPolicy{kind: maskFixed, fixed: k, fixedOK: true}
}

// Masked reports whether this policy produces masked frames.
func (p MaskPolicy) Masked() bool { return p.kind != maskUnmasked }

// key returns the masking key and whether masking is active, drawing a
// fresh random key per call for a RandomMask policy.
func (p MaskPolicy) key() (key [4]byte, masked bool, err error) {
	switch p.kind {
	case maskUnmasked:
		return [4]byte{}, false, nil
	case maskFixed:
		return p.fixed, true, nil
	case maskRandom:
		var k [4]byte
		if _, err := rand.Read(k[:]); err != nil {
			return [4]byte{}, false, err
		}
		return k, true, nil
	default:
		return [4]byte{}, false, nil
	}
}

// ApplyMask XORs data in place against key, treating data[i] as byte
// (start+i) of the masked stream. Per spec Section 4.2, start lets a
// single masked payload be unmasked correctly across multiple chunked
// reads/writes without losing 4-byte alignment. ApplyMask is its own
// inverse: masking and unmasking are the same operation.
func ApplyMask(start int, key [4]byte, data []byte) {
	for i := range data {
		data[i] ^= key[(start+i)%4]
	}
}

// scratchPool supplies the transient buffers used to mask a payload copy
// before it reaches the transport (spec Section 4.5: "the transport
// never sees unmasked bytes when mask is configured"), avoiding a fresh
// allocation for every write call.
var scratchPool bytebufferpool.Pool

// maskedCopy writes ApplyMask(start, key, copy-of-p) into a pooled
// buffer and returns it along with a release function the caller must
// invoke once the bytes have been written to the transport.
func maskedCopy(start int, key [4]byte, p []byte) (data []byte, release func()) {
	buf := scratchPool.Get()
	buf.B = append(buf.B[:0], p...)
	ApplyMask(start, key, buf.B)
	return buf.B, func() { scratchPool.Put(buf) }
}
