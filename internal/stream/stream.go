// Package stream implements the Byte Stream component (spec §2, §4): a
// bidirectional TCP/TLS connection with a configurable read/write timeout,
// plus the one hand-rolled sliver of
// HTTP (§4.2's WebSocket upgrade request/response) that must run directly
// on the raw connection because the connection itself is handed off to the
// WebSocket codec afterward — everything else speaks HTTP through
// internal/request instead.
package stream

import (
	"bufio"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

// Stream is a bidirectional byte stream with a read/write deadline derived
// from Options.Timeout.
type Stream struct {
	conn    net.Conn
	Timeout time.Duration
}

// Dial opens a TCP or TLS connection to addr ("host:port"). tlsConfig nil
// means plaintext.
func Dial(network, addr string, timeout time.Duration, tlsConfig *tls.Config) (*Stream, error) {
	dialer := &net.Dialer{Timeout: timeout}
	var (
		conn net.Conn
		err  error
	)
	if tlsConfig != nil {
		conn, err = tls.DialWithDialer(dialer, network, addr, tlsConfig)
	} else {
		conn, err = dialer.Dial(network, addr)
	}
	if err != nil {
		return nil, err
	}
	return &Stream{conn: conn, Timeout: timeout}, nil
}

func (s *Stream) applyDeadline() {
	if s.Timeout > 0 {
		s.conn.SetDeadline(time.Now().Add(s.Timeout))
	}
}

// Read implements io.Reader with the configured timeout.
func (s *Stream) Read(p []byte) (int, error) {
	s.applyDeadline()
	return s.conn.Read(p)
}

// Write implements io.Writer with the configured timeout.
func (s *Stream) Write(p []byte) (int, error) {
	s.applyDeadline()
	return s.conn.Write(p)
}

// IsTimeout reports whether err is a recoverable read/write deadline
// expiry, per spec §7's "Timeout: read timed out with no data" row.
func IsTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Close closes the underlying connection. On any write error elsewhere the
// caller is expected to discard the Stream and Close it; persistent=true
// reuse ends there (spec §5).
func (s *Stream) Close() error {
	return s.conn.Close()
}

// UpgradeResponse is the parsed 101 (or error) response to a WebSocket
// upgrade request, read directly off the Stream so the connection's read
// position lands exactly on the first WebSocket frame byte.
type UpgradeResponse struct {
	StatusCode int
	Header     http.Header
}

// Upgrade writes the WebSocket upgrade GET request and reads back the
// status line and headers without using net/http's buffered client (which
// would risk consuming bytes past the header block). This is the one place
// the HTTP Requester operates directly on the Byte Stream rather than
// through internal/request, because the live connection must be handed off
// to the WebSocket codec immediately after the headers are parsed.
func Upgrade(s *Stream, requestURI string, header http.Header) (*UpgradeResponse, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "GET %s HTTP/1.1\r\n", requestURI)
	for k, vs := range header {
		for _, v := range vs {
			fmt.Fprintf(&b, "%s: %s\r\n", k, v)
		}
	}
	b.WriteString("\r\n")

	if _, err := s.Write([]byte(b.String())); err != nil {
		return nil, err
	}

	s.applyDeadline()
	reader := bufio.NewReader(&byteAtATimeReader{s: s})
	tp := textproto.NewReader(reader)

	statusLine, err := tp.ReadLine()
	if err != nil {
		return nil, fmt.Errorf("stream: reading status line: %w", err)
	}
	code, err := parseStatusCode(statusLine)
	if err != nil {
		return nil, err
	}

	mimeHeader, err := tp.ReadMIMEHeader()
	if err != nil {
		return nil, fmt.Errorf("stream: reading response headers: %w", err)
	}

	return &UpgradeResponse{StatusCode: code, Header: http.Header(mimeHeader)}, nil
}

func parseStatusCode(statusLine string) (int, error) {
	parts := strings.SplitN(statusLine, " ", 3)
	if len(parts) < 2 {
		return 0, fmt.Errorf("stream: malformed status line %q", statusLine)
	}
	return strconv.Atoi(parts[1])
}

// byteAtATimeReader reads a single byte per call so bufio.Reader's internal
// buffer never reads ahead into the WebSocket frame stream that follows the
// header block.
type byteAtATimeReader struct {
	s *Stream
}

func (r *byteAtATimeReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	var one [1]byte
	n, err := r.s.Read(one[:])
	if n > 0 {
		p[0] = one[0]
	}
	return n, err
}
