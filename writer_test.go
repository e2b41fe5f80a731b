package websocket

import (
	"bytes"
	"io"
	"testing"
)

// S1: single-frame unmasked "Hello" writer output must match the exact
// wire bytes from the read-side scenario.
func TestSingleFrameWriter_S1_Unmasked(t *testing.T) {
	var buf bytes.Buffer
	sw, err := NewSingleFrameWriter(&buf, OpText, 5, Unmasked())
	if err != nil {
		t.Fatalf("NewSingleFrameWriter: %v", err)
	}
	if _, err := sw.Write([]byte("Hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := []byte{0x81, 0x05, 'H', 'e', 'l', 'l', 'o'}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got %x, want %x", buf.Bytes(), want)
	}
}

// S2: single-frame masked "Hello" with a fixed key producing the exact
// wire bytes from the read-side scenario.
func TestSingleFrameWriter_S2_Masked(t *testing.T) {
	var buf bytes.Buffer
	sw, err := NewSingleFrameWriter(&buf, OpText, 5, FixedMask(0x37fa213d))
	if err != nil {
		t.Fatalf("NewSingleFrameWriter: %v", err)
	}
	if _, err := sw.Write([]byte("Hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := []byte{0x81, 0x85, 0x37, 0xfa, 0x21, 0x3d, 0x7f, 0x9f, 0x4d, 0x51, 0x58}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got %x, want %x", buf.Bytes(), want)
	}
}

func TestSingleFrameWriter_ChunkedWritesStayAligned(t *testing.T) {
	key := uint32(0xdeadbeef)

	var whole bytes.Buffer
	sw1, _ := NewSingleFrameWriter(&whole, OpBinary, 10, FixedMask(key))
	sw1.Write([]byte("0123456789"))

	var chunked bytes.Buffer
	sw2, _ := NewSingleFrameWriter(&chunked, OpBinary, 10, FixedMask(key))
	sw2.Write([]byte("012"))
	sw2.Write([]byte("34567"))
	sw2.Write([]byte("89"))

	if !bytes.Equal(whole.Bytes(), chunked.Bytes()) {
		t.Fatalf("chunked write diverged from whole write:\n got  %x\n want %x", chunked.Bytes(), whole.Bytes())
	}
}

// Writer invariant from spec Section 8 (#7): writing past the declared
// length returns ErrEndOfStream once exactly the declared length has been
// accepted.
func TestSingleFrameWriter_EnforcesDeclaredLength(t *testing.T) {
	var buf bytes.Buffer
	sw, err := NewSingleFrameWriter(&buf, OpText, 5, Unmasked())
	if err != nil {
		t.Fatalf("NewSingleFrameWriter: %v", err)
	}
	n, err := sw.Write([]byte("Hello, world"))
	if err != ErrEndOfStream {
		t.Fatalf("got err=%v, want ErrEndOfStream", err)
	}
	if n != 5 {
		t.Fatalf("got n=%d, want 5", n)
	}

	n2, err2 := sw.Write([]byte("more"))
	if err2 != ErrEndOfStream || n2 != 0 {
		t.Fatalf("write after limit: got (%d, %v), want (0, ErrEndOfStream)", n2, err2)
	}
}

func TestSingleFrameWriter_Discard(t *testing.T) {
	var buf bytes.Buffer
	sw, err := NewSingleFrameWriter(&buf, OpBinary, 4, Unmasked())
	if err != nil {
		t.Fatalf("NewSingleFrameWriter: %v", err)
	}
	if err := sw.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	// header (2 bytes) + 4 zero padding bytes
	if buf.Len() != 6 {
		t.Fatalf("got %d bytes, want 6", buf.Len())
	}
}

// S3: multi-frame writer emits a FIN=0 first frame and a FIN=1 terminal
// frame, reassembling to the same payload the reader scenario expects.
func TestMultiFrameWriter_S3_Fragmented(t *testing.T) {
	var buf bytes.Buffer
	mw := NewMultiFrameWriter(&buf, OpText, Unmasked())
	if _, err := mw.Write([]byte("Hel")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := mw.CloseWith([]byte("lo")); err != nil {
		t.Fatalf("CloseWith: %v", err)
	}

	want := []byte{
		0x01, 0x03, 'H', 'e', 'l',
		0x80, 0x02, 'l', 'o',
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got %x, want %x", buf.Bytes(), want)
	}

	// And it must round-trip back through the reader.
	r := readOnlyTransport(bytes.NewReader(buf.Bytes()))
	msg, err := ReadMessage(r, nil, nil, false)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	data, err := io.ReadAll(msg)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "Hello" {
		t.Fatalf("got %q, want %q", data, "Hello")
	}
}

func TestMultiFrameWriter_CloseIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	mw := NewMultiFrameWriter(&buf, OpBinary, Unmasked())
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	firstLen := buf.Len()
	if err := mw.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if buf.Len() != firstLen {
		t.Fatalf("second Close wrote more bytes: %d -> %d", firstLen, buf.Len())
	}
}

func TestMultiFrameWriter_WriteAfterCloseFails(t *testing.T) {
	var buf bytes.Buffer
	mw := NewMultiFrameWriter(&buf, OpBinary, Unmasked())
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := mw.Write([]byte("x")); err != ErrEndOfStream {
		t.Fatalf("got %v, want ErrEndOfStream", err)
	}
}

func TestControlWriter_RejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	cw := NewControlWriter(&buf, Unmasked())
	if err := cw.WriteControl(OpPing, make([]byte, 126)); err == nil {
		t.Fatal("expected error for oversized control payload")
	}
}

func TestControlWriter_RejectsNonControlOpcode(t *testing.T) {
	var buf bytes.Buffer
	cw := NewControlWriter(&buf, Unmasked())
	if err := cw.WriteControl(OpText, []byte("hi")); err == nil {
		t.Fatal("expected error for non-control opcode")
	}
}

func TestControlWriter_PingPongRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	cw := NewControlWriter(&buf, FixedMask(0x01020304))
	if err := cw.WriteControl(OpPing, []byte("ping-payload")); err != nil {
		t.Fatalf("WriteControl: %v", err)
	}

	r := bytes.NewReader(buf.Bytes())
	h, err := DecodeHeader(r)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if h.Opcode != OpPing || !h.Fin || !h.Mask {
		t.Fatalf("got %+v", h)
	}
	payload := make([]byte, h.PayloadLen())
	if _, err := io.ReadFull(r, payload); err != nil {
		t.Fatalf("read payload: %v", err)
	}
	ApplyMask(0, h.MaskKey, payload)
	if string(payload) != "ping-payload" {
		t.Fatalf("got %q, want %q", payload, "ping-payload")
	}
}
