package websocket

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
)

// Dial opens a TCP connection to rawURL, performs the RFC 6455 Upgrade
// handshake, and returns a Conn ready to exchange messages. Per spec
// Section 1, the handshake and transport are collaborators the frame
// codec core does not itself implement; Dial is the glue that makes the
// core usable end to end, recovered from the teacher's client.go.
//
// Client frames are masked by default (WithMaskPolicy can override this,
// though an unmasked client writer violates RFC 6455 Section 5.1 and is
// a caller error the core does not itself enforce).
func Dial(rawURL string, opts ...Option) (*Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("websocket: parse url: %w", err)
	}
	logrus.WithField("url", u.String()).Info("websocket: dialing")

	key, err := generateKey()
	if err != nil {
		return nil, err
	}

	conn, err := net.Dial("tcp", u.Host)
	if err != nil {
		logrus.WithError(err).WithField("host", u.Host).Error("websocket: tcp dial failed")
		return nil, fmt.Errorf("websocket: dial %s: %w", u.Host, err)
	}
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("websocket: tcp connected")

	path := u.RequestURI()
	if path == "" {
		path = "/"
	}
	req := fmt.Sprintf(
		"GET %s HTTP/1.1\r\nHost: %s\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Key: %s\r\nSec-WebSocket-Version: 13\r\n\r\n",
		path, u.Host, key,
	)
	if _, err := conn.Write([]byte(req)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("websocket: write handshake request: %w", err)
	}

	br := bufio.NewReader(conn)
	resp, err := http.ReadResponse(br, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("websocket: read handshake response: %w", err)
	}
	defer resp.Body.Close()

	if err := checkHandshakeResponse(resp, key); err != nil {
		conn.Close()
		return nil, err
	}

	// br may already hold bytes the server pipelined right after the
	// handshake response; route reads through it rather than conn
	// directly so those bytes aren't dropped.
	rwc := &bufferedConn{Reader: br, WriteCloser: conn}

	allOpts := append([]Option{WithMaskPolicy(RandomMask())}, opts...)
	return NewConn(rwc, allOpts...), nil
}

// bufferedConn pairs a buffered reader (which may already hold bytes read
// past an HTTP response) with the underlying connection's writer/closer.
type bufferedConn struct {
	*bufio.Reader
	io.WriteCloser
}
