// Package elephantio implements the Session Façade (spec §2, §4.4): the
// top-level orchestration of connect/of/emit/wait/close over the
// Engine.IO Engine and Socket.IO packet codec.
//
// Grounded on clients/engine/socket.go and clients/engine/socket-with-
// upgrade.go of zishang520/socket.io, redesigned per spec §5 as a
// single-threaded, blocking API: there is no event-listener registry —
// waiting for an event is a blocking call, not a callback dispatcher.
package elephantio

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tihiydo/elephant.io/engine"
	"github.com/tihiydo/elephant.io/internal/log"
	engineparser "github.com/tihiydo/elephant.io/parser/engine"
	socketparser "github.com/tihiydo/elephant.io/parser/socket"
)

var clientLog = log.NewLog("elephantio:client")

// Client is one Socket.IO connection. A closed Client is terminal; reuse
// requires a fresh Client (spec §3's lifecycle rule).
type Client struct {
	url  *url.URL
	opts *Options
	eng  *engine.Engine
	nsp  string
}

// NewClient parses rawurl and returns an unconnected Client. opts may be
// nil, in which case NewOptions' defaults apply.
func NewClient(rawurl string, opts *Options) (*Client, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, NewInvalidArgumentError(fmt.Sprintf("invalid url: %v", err))
	}
	if opts == nil {
		opts = NewOptions()
	}
	return &Client{url: u, opts: opts, nsp: "/"}, nil
}

// Connect runs the handshake, the EIO>=4 namespace-connect, and the
// WebSocket upgrade. Idempotent if already connected (spec §4.4).
func (c *Client) Connect(ctx context.Context) error {
	if c.eng != nil && c.eng.State() == engine.Connected {
		return nil
	}

	eopts := engine.Options{
		URL:        c.url,
		Version:    c.opts.version,
		Transport:  c.opts.transport,
		UseB64:     c.opts.useB64,
		Timeout:    c.opts.timeout,
		Wait:       c.opts.wait,
		Persistent: c.opts.persistent,
		Headers:    c.opts.headers,
		Auth:       c.opts.auth,
		TLSConfig:  c.opts.tlsConfig,
		MaxPayload: c.opts.maxPayload,
		Origin:     c.opts.origin,
	}

	eng, err := engine.Dial(ctx, eopts)
	if err != nil {
		return err
	}
	c.eng = eng
	c.nsp = "/"
	clientLog.Debug("connected sid=%s", eng.Session().Id)
	return nil
}

// Session exposes the current handshake's Session, or nil if unconnected.
func (c *Client) Session() *Session {
	if c.eng == nil {
		return nil
	}
	return c.eng.Session()
}

// Of switches the current namespace, sending a CONNECT packet and draining
// until the server acknowledges it (spec §4.4's of()).
func (c *Client) Of(ctx context.Context, nsp string) error {
	if nsp == "" {
		nsp = "/"
	}
	if nsp == c.nsp {
		return nil
	}
	if err := c.eng.KeepAlive(ctx); err != nil {
		return err
	}

	dialect := c.eng.Dialect()
	pkt := &socketparser.Packet{Type: socketparser.Connect, Nsp: nsp}
	if dialect.AuthInConnect {
		pkt.Data = c.opts.auth
	}
	forceNsp := dialect.AuthInConnect
	text, _, err := socketparser.Encode(pkt, forceNsp)
	if err != nil {
		return NewInvalidArgumentError(err.Error())
	}
	if err := c.eng.Send(ctx, engineparser.Packet{Type: engineparser.Message, Data: text}); err != nil {
		return err
	}

	for {
		sp, err := c.drain(ctx)
		if err != nil {
			return err
		}
		if sp == nil {
			continue
		}
		if !namespaceMatches(sp.Nsp, nsp) {
			continue
		}
		switch sp.Type {
		case socketparser.Connect:
			c.nsp = nsp
			return nil
		case socketparser.ConnectError:
			return NewServerConnectionFailure(fmt.Sprintf("connect rejected: %v", sp.Data), nil)
		}
	}
}

// Emit assembles and transmits an event per spec §4.3, returning the total
// bytes written across the text frame and any binary attachment frames.
func (c *Client) Emit(ctx context.Context, event string, args ...any) (int, error) {
	if err := c.eng.KeepAlive(ctx); err != nil {
		return 0, err
	}

	pkt := &socketparser.Packet{Type: socketparser.Event, Nsp: c.nsp, Event: event, Args: args}
	text, attachments, err := socketparser.Encode(pkt, false)
	if err != nil {
		return 0, NewInvalidArgumentError(err.Error())
	}
	if err := c.eng.Send(ctx, engineparser.Packet{Type: engineparser.Message, Data: text}); err != nil {
		return 0, err
	}

	total := len(text)
	for _, att := range attachments {
		if err := c.eng.SendRaw(att); err != nil {
			return total, err
		}
		total += len(att)
	}

	if c.opts.wait > 0 {
		time.Sleep(c.opts.wait)
	}
	return total, nil
}

// Wait blocks until a MESSAGE arrives whose type is EVENT (or a reassembled
// BINARY_EVENT), whose namespace matches the current one, and whose event
// name equals name. All other messages are consumed silently (spec §4.4).
func (c *Client) Wait(ctx context.Context, name string) (*socketparser.Packet, error) {
	for {
		sp, err := c.drain(ctx)
		if err != nil {
			return nil, err
		}
		if sp == nil {
			continue
		}
		if sp.Type != socketparser.Event {
			continue
		}
		if !namespaceMatches(sp.Nsp, c.nsp) {
			continue
		}
		if sp.Event != name {
			continue
		}
		return sp, nil
	}
}

// Drain performs one read-and-interpret cycle: auto-responding to PING with
// PONG, swallowing NOOP/PONG, reassembling BINARY_EVENT/BINARY_ACK packets,
// and always calling keepAlive() at the end (spec §4.4's drain(raw=false)).
func (c *Client) Drain(ctx context.Context) (*socketparser.Packet, error) {
	return c.drain(ctx)
}

// DrainRaw returns the next raw WebSocket payload with no packet
// interpretation, used while reassembling binary attachments (spec §4.4's
// drain(raw=true)).
func (c *Client) DrainRaw(ctx context.Context) ([]byte, error) {
	defer func() { _ = c.eng.KeepAlive(ctx) }()

	b, err := c.eng.ReceiveRaw()
	if err != nil {
		if engine.IsTimeout(err) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

func (c *Client) drain(ctx context.Context) (*socketparser.Packet, error) {
	defer func() { _ = c.eng.KeepAlive(ctx) }()

	ep, err := c.eng.Receive(ctx)
	if err != nil {
		if engine.IsTimeout(err) {
			return nil, nil
		}
		return nil, err
	}

	switch ep.Type {
	case engineparser.Ping:
		if err := c.eng.Send(ctx, engineparser.Packet{Type: engineparser.Pong}); err != nil {
			return nil, err
		}
		return nil, nil
	case engineparser.Pong, engineparser.Noop:
		return nil, nil
	case engineparser.Close:
		return nil, NewSocketError("server closed the connection", nil)
	case engineparser.Message:
		return c.handleMessage(ep.Data)
	default:
		return nil, nil
	}
}

func (c *Client) handleMessage(data []byte) (*socketparser.Packet, error) {
	sp, err := socketparser.Decode(data)
	if err != nil {
		return nil, NewSocketError("decoding socket.io packet", err)
	}

	if sp.Type != socketparser.BinaryEvent && sp.Type != socketparser.BinaryAck {
		return sp, nil
	}

	attachments := make([][]byte, 0, sp.BinCount)
	for i := 0; i < sp.BinCount; i++ {
		b, err := c.eng.ReceiveRaw()
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, b)
	}
	if err := socketparser.ReconstructAttachments(sp, attachments); err != nil {
		return nil, NewSocketError("reassembling binary event", err)
	}
	if sp.Type == socketparser.BinaryEvent {
		sp.Type = socketparser.Event
	} else {
		sp.Type = socketparser.Ack
	}
	return sp, nil
}

// Close sends PROTO_CLOSE on the current namespace, closes the byte stream,
// and clears session and cookies (spec §4.4's close()).
func (c *Client) Close(ctx context.Context) error {
	if c.eng == nil {
		return nil
	}
	err := c.eng.Close(ctx)
	c.eng = nil
	return err
}

// namespaceMatches implements spec §9's open question about the source's
// matchNamespace: accept both exact equality and the off-by-one slash case,
// preserving wire compatibility rather than tightening the comparison.
func namespaceMatches(host, want string) bool {
	if host == want {
		return true
	}
	return strings.TrimPrefix(host, "/") == strings.TrimPrefix(want, "/")
}
