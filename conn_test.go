package websocket

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

// loopbackPair returns two Conns wired together over net.Pipe, one acting
// as client (masked writes) and one as server (unmasked writes), matching
// the roles spec Section 3 assigns.
func loopbackPair(t *testing.T) (client, server *Conn) {
	t.Helper()
	c1, c2 := net.Pipe()
	client = NewConn(c1, WithMaskPolicy(RandomMask()))
	server = NewConn(c2, WithMaskPolicy(Unmasked()), WithRequireMaskedReads(true))
	return client, server
}

func TestConn_WriteMessageThenReadMessage(t *testing.T) {
	client, server := loopbackPair(t)
	defer client.rwc.Close()
	defer server.rwc.Close()

	done := make(chan error, 1)
	go func() {
		done <- client.WriteMessage(OpText, []byte("hello from client"))
	}()

	op, data, err := server.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if op != OpText || string(data) != "hello from client" {
		t.Fatalf("got (%s, %q)", op, data)
	}
	if err := <-done; err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
}

func TestConn_WriteMessageChunksLargePayloads(t *testing.T) {
	client, server := loopbackPair(t)
	defer client.rwc.Close()
	defer server.rwc.Close()

	payload := make([]byte, DefaultFrameSize*2+17)
	for i := range payload {
		payload[i] = byte(i)
	}

	done := make(chan error, 1)
	go func() {
		done <- client.WriteMessage(OpBinary, payload)
	}()

	op, data, err := server.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if op != OpBinary || len(data) != len(payload) {
		t.Fatalf("got op=%s len=%d, want %d", op, len(data), len(payload))
	}
	for i := range payload {
		if data[i] != payload[i] {
			t.Fatalf("byte %d mismatch: got %x want %x", i, data[i], payload[i])
		}
	}
	if err := <-done; err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
}

func TestConn_PingIsAnsweredWithPong(t *testing.T) {
	client, server := loopbackPair(t)
	defer client.rwc.Close()
	defer server.rwc.Close()

	done := make(chan error, 1)
	go func() {
		done <- client.Ping([]byte("pingdata"))
	}()

	// The server's next reader call dispatches the ping to the default
	// control handler before any data frame arrives, then blocks; give it
	// a bounded deadline via a timed read in another goroutine instead of
	// hanging the test forever if something regresses.
	result := make(chan error, 1)
	go func() {
		r, err := server.NextReader()
		if err == nil {
			_, err = io.ReadAll(r)
		}
		result <- err
	}()

	// net.Pipe is unbuffered, so the server's pong write completes only
	// once the client side reads it.
	pong := make(chan string, 1)
	go func() {
		h, err := DecodeHeader(client.rwc)
		if err != nil || h.Opcode != OpPong {
			pong <- ""
			return
		}
		payload := make([]byte, h.PayloadLen())
		io.ReadFull(client.rwc, payload)
		pong <- string(payload)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("client.Ping did not complete")
	}

	select {
	case got := <-pong:
		if got != "pingdata" {
			t.Fatalf("pong payload = %q, want %q", got, "pingdata")
		}
	case <-time.After(time.Second):
		t.Fatal("no pong received for the ping")
	}

	// Now have the client send a real message so NextReader unblocks.
	writeDone := make(chan error, 1)
	go func() {
		writeDone <- client.WriteMessage(OpText, []byte("after ping"))
	}()

	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("NextReader: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("server.NextReader did not unblock after data frame")
	}
	if err := <-writeDone; err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
}

func TestConn_CloseSendsCloseFrame(t *testing.T) {
	client, server := loopbackPair(t)
	defer server.rwc.Close()

	closeDone := make(chan error, 1)
	go func() {
		closeDone <- client.Close(CloseNormalClosure, "done")
	}()

	_, _, err := server.ReadMessage()
	if !errors.Is(err, ErrReceivedCloseFrame) {
		t.Fatalf("got %v, want ErrReceivedCloseFrame", err)
	}
	if err := <-closeDone; err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	client, server := loopbackPair(t)
	defer server.rwc.Close()
	// Drain the server end so the first close frame's write on the
	// unbuffered pipe can complete.
	go io.Copy(io.Discard, server.rwc)

	if err := client.Close(CloseNormalClosure, "first"); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	// Second close must not attempt to write to the now-closed transport's
	// control writer a second time; it should just close the transport
	// again (net.Conn.Close is itself idempotent-safe to call, returning
	// an error here is acceptable and expected, what matters is no panic
	// and no second close-frame write attempt).
	_ = client.Close(CloseNormalClosure, "second")
}

func TestConn_NextWriterStreaming(t *testing.T) {
	client, server := loopbackPair(t)
	defer client.rwc.Close()
	defer server.rwc.Close()

	done := make(chan error, 1)
	go func() {
		w := client.NextWriter(OpText)
		if _, err := w.Write([]byte("stream-")); err != nil {
			done <- err
			return
		}
		done <- w.CloseWith([]byte("end"))
	}()

	r, err := server.NextReader()
	if err != nil {
		t.Fatalf("NextReader: %v", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "stream-end" {
		t.Fatalf("got %q, want %q", data, "stream-end")
	}
	if err := <-done; err != nil {
		t.Fatalf("writer goroutine: %v", err)
	}
}
