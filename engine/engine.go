// Package engine implements the Engine.IO Engine component (spec §2, §4.2):
// the handshake, transport selection, heartbeat clock, and ping/pong
// handling that sit between the Socket.IO packet layer and the wire.
//
// Grounded on clients/engine/socket.go, socket-with-upgrade.go and
// polling.go of zishang520/socket.io, redesigned per spec §9 from that
// package's goroutine/event-emitter model to the single-threaded,
// cooperative, blocking contract spec §5 requires: one caller, sequential
// reads and writes, no background heartbeat task.
package engine

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tihiydo/elephant.io/internal/apierror"
	"github.com/tihiydo/elephant.io/internal/log"
	"github.com/tihiydo/elephant.io/internal/request"
	"github.com/tihiydo/elephant.io/internal/stream"
	"github.com/tihiydo/elephant.io/internal/wsproto"
	"github.com/tihiydo/elephant.io/internal/yeast"
	engineparser "github.com/tihiydo/elephant.io/parser/engine"
	socketparser "github.com/tihiydo/elephant.io/parser/socket"
)

var engineLog = log.NewLog("elephantio:engine")

// State is the Engine's connection lifecycle (spec §4.2's state machine).
type State int

const (
	Disconnected State = iota
	Handshaken
	Connected
	Closed
)

// minConnectInterval enforces spec §4.2's "connect throttling": a minimum of
// 50ms between successive socket creations.
const minConnectInterval = 50 * time.Millisecond

var lastConnectAt time.Time

// Engine owns the current Byte Stream and the Session object (spec §3's
// ownership rule); a new stream instance replaces the old one at the
// handshake-to-upgrade transition.
type Engine struct {
	opts    Options
	dialect Dialect

	requester *request.Client
	jar       *request.Jar

	state   State
	session *Session

	usingWebSocket bool
	stream         *stream.Stream
	encoder        *wsproto.Encoder
	decoder        *wsproto.Decoder

	pollingBuffer []engineparser.Packet

	lastSend time.Time
}

// Dial runs the full connect sequence: polling handshake, optional EIO>=4
// namespace-connect, then WebSocket upgrade (spec §4.2, §4.4's connect()).
func Dial(ctx context.Context, opts Options) (*Engine, error) {
	throttleConnect()

	e := &Engine{
		opts:    opts,
		dialect: opts.Version.Dialect(),
		jar:     request.NewJar(),
	}
	e.requester = request.NewClient(opts.Timeout, opts.TLSConfig, e.jar, opts.Persistent)

	if err := e.handshake(ctx); err != nil {
		e.requester.Close()
		return nil, err
	}

	if e.dialect.NamespaceConnect {
		if err := e.namespaceConnect(ctx, "/", opts.Auth); err != nil {
			e.requester.Close()
			return nil, err
		}
	}

	if opts.Transport != "polling" {
		if err := e.upgrade(ctx); err != nil {
			e.requester.Close()
			return nil, err
		}
	} else {
		e.state = Connected
	}

	return e, nil
}

func throttleConnect() {
	if since := time.Since(lastConnectAt); since < minConnectInterval {
		time.Sleep(minConnectInterval - since)
	}
	lastConnectAt = time.Now()
}

func (e *Engine) State() State      { return e.state }
func (e *Engine) Session() *Session { return e.session }
func (e *Engine) Dialect() Dialect  { return e.dialect }

// handshake performs the polling GET and parses the OPEN packet.
func (e *Engine) handshake(ctx context.Context) error {
	reqURL := e.pollingURL("")
	resp, err := e.requester.Get(ctx, reqURL, &request.Options{Headers: e.opts.Headers})
	if err != nil {
		return apierror.NewSocketError("handshake request failed", err)
	}
	if resp.StatusCode != http.StatusOK {
		return apierror.NewServerConnectionFailure(
			fmt.Sprintf("handshake returned status %d", resp.StatusCode), nil)
	}
	e.captureCookies(resp.Header)

	packets, err := engineparser.DecodePayload(resp.Body, e.dialect.EIOVersion)
	if err != nil {
		return apierror.NewServerConnectionFailure("malformed handshake body", err)
	}
	if len(packets) == 0 || packets[0].Type != engineparser.Open {
		return apierror.NewServerConnectionFailure("handshake did not open", nil)
	}

	var hs struct {
		Sid          string   `json:"sid"`
		Upgrades     []string `json:"upgrades"`
		PingInterval int64    `json:"pingInterval"`
		PingTimeout  int64    `json:"pingTimeout"`
		MaxPayload   int64    `json:"maxPayload"`
	}
	if err := json.Unmarshal(packets[0].Data, &hs); err != nil {
		return apierror.NewServerConnectionFailure("malformed handshake payload", err)
	}
	if hs.Sid == "" {
		return apierror.NewServerConnectionFailure("handshake missing sid", nil)
	}
	if !containsUpgrade(hs.Upgrades, "websocket") {
		return apierror.NewUnsupportedTransportError("server does not advertise websocket upgrade")
	}

	e.session = &Session{
		Id:           hs.Sid,
		PingInterval: time.Duration(hs.PingInterval) * time.Millisecond,
		PingTimeout:  time.Duration(hs.PingTimeout) * time.Millisecond,
		Upgrades:     hs.Upgrades,
		MaxPayload:   hs.MaxPayload,
		LastActivity: time.Now(),
	}
	e.state = Handshaken
	engineLog.Debug("handshake complete sid=%s", hs.Sid)
	return nil
}

// namespaceConnect performs the pre-upgrade CONNECT round trip required by
// EIO>=4 (spec §4.2's "Namespace connect").
func (e *Engine) namespaceConnect(ctx context.Context, nsp string, auth any) error {
	pkt := &socketparser.Packet{Type: socketparser.Connect, Nsp: nsp, Data: auth}
	text, _, err := socketparser.Encode(pkt, true)
	if err != nil {
		return apierror.NewSocketError("encoding namespace connect", err)
	}
	body, err := engineparser.EncodePayload(
		[]engineparser.Packet{{Type: engineparser.Message, Data: text}}, e.dialect.EIOVersion)
	if err != nil {
		return apierror.NewSocketError("framing namespace connect", err)
	}

	reqURL := e.pollingURL(e.session.Id)
	resp, err := e.requester.Post(ctx, reqURL, &request.Options{Body: body, Headers: e.opts.Headers})
	if err != nil || !resp.Ok() {
		return apierror.NewServerConnectionFailure("namespace connect post failed", err)
	}

	resp, err = e.requester.Get(ctx, reqURL, &request.Options{Headers: e.opts.Headers})
	if err != nil || !resp.Ok() {
		return apierror.NewServerConnectionFailure("namespace connect read failed", err)
	}

	packets, err := engineparser.DecodePayload(resp.Body, e.dialect.EIOVersion)
	if err != nil {
		return apierror.NewServerConnectionFailure("malformed namespace connect response", err)
	}
	for _, p := range packets {
		if p.Type != engineparser.Message {
			continue
		}
		sp, err := socketparser.Decode(p.Data)
		if err != nil {
			continue
		}
		switch sp.Type {
		case socketparser.Connect:
			return nil
		case socketparser.ConnectError:
			msg := fmt.Sprintf("%v", sp.Data)
			return apierror.NewServerConnectionFailure("namespace connect rejected: "+msg, nil)
		}
	}
	return apierror.NewServerConnectionFailure("namespace connect: missing sid", nil)
}

// upgrade performs the WebSocket handshake and switches the Engine onto it
// (spec §4.2's "Upgrade (WebSocket)").
func (e *Engine) upgrade(ctx context.Context) error {
	host := e.opts.URL.Hostname()
	port := e.opts.URL.Port()
	network := "tcp"
	secure := e.opts.URL.Scheme == "https" || e.opts.URL.Scheme == "wss"
	if port == "" {
		if secure {
			port = "443"
		} else {
			port = "80"
		}
	}

	var tlsConfig = e.opts.TLSConfig
	if !secure {
		tlsConfig = nil
	}

	s, err := stream.Dial(network, host+":"+port, e.opts.Timeout, tlsConfig)
	if err != nil {
		return apierror.NewSocketError("dialing websocket upgrade", err)
	}

	header := http.Header{}
	header.Set("Host", e.opts.URL.Host)
	header.Set("Upgrade", "websocket")
	header.Set("Connection", "Upgrade")
	header.Set("Sec-WebSocket-Key", generateWSKey(e.dialect.ShortWSKey))
	header.Set("Sec-WebSocket-Version", "13")
	origin := e.opts.Origin
	if origin == "" {
		origin = "*"
	}
	header.Set("Origin", origin)
	if cookie := e.jar.Header(); cookie != "" {
		header.Set("Cookie", cookie)
	}
	for k, vs := range e.opts.Headers {
		for _, v := range vs {
			header.Add(k, v)
		}
	}

	resp, err := stream.Upgrade(s, e.websocketRequestURI(), header)
	if err != nil {
		s.Close()
		return apierror.NewServerConnectionFailure("websocket upgrade request failed", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		s.Close()
		return apierror.NewServerConnectionFailure(
			fmt.Sprintf("websocket upgrade returned status %d", resp.StatusCode), nil)
	}

	e.stream = s
	e.encoder = wsproto.NewEncoder(s, e.opts.MaxPayload)
	e.decoder = wsproto.NewDecoder(bufio.NewReader(s), e.opts.MaxPayload)
	e.usingWebSocket = true

	upgradePkt, err := engineparser.EncodePacket(engineparser.Packet{Type: engineparser.Upgrade})
	if err != nil {
		return apierror.NewSocketError("encoding upgrade packet", err)
	}
	if err := e.encoder.Encode(wsproto.OpText, upgradePkt); err != nil {
		return apierror.NewSocketError("sending upgrade packet", err)
	}

	if e.dialect.EIOVersion == 2 {
		// spec §4.2: "the server then emits a gratuitous 40 which must be
		// drained and discarded". Spec mandates always draining it, unlike
		// the teacher's inconsistent handling of this step.
		if _, err := e.decoder.Read(); err != nil {
			return apierror.NewSocketError("draining post-upgrade packet", err)
		}
	}

	e.state = Connected
	engineLog.Debug("upgraded to websocket")
	return nil
}

func generateWSKey(short bool) string {
	if short {
		sum := sha1.Sum([]byte(yeast.Default.Yeast()))
		return base64.StdEncoding.EncodeToString(sum[:16])
	}
	var key [16]byte
	_, _ = rand.Read(key[:])
	return base64.StdEncoding.EncodeToString(key[:])
}

// pollingURL builds the polling endpoint URL, adding sid when non-empty.
func (e *Engine) pollingURL(sid string) string {
	u := *e.opts.URL
	q := url.Values{}
	q.Set("EIO", strconv.Itoa(e.dialect.EIOVersion))
	q.Set("transport", "polling")
	q.Set("t", yeast.Default.Yeast())
	if e.opts.UseB64 {
		q.Set("b64", "1")
	}
	if sid != "" {
		q.Set("sid", sid)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (e *Engine) websocketRequestURI() string {
	u := *e.opts.URL
	q := url.Values{}
	q.Set("EIO", strconv.Itoa(e.dialect.EIOVersion))
	q.Set("transport", "websocket")
	q.Set("t", yeast.Default.Yeast())
	if e.session != nil {
		q.Set("sid", e.session.Id)
	}
	u.RawQuery = q.Encode()
	if u.Path == "" {
		u.Path = "/"
	}
	return u.Path + "?" + u.RawQuery
}

func (e *Engine) captureCookies(h http.Header) {
	for _, raw := range h.Values("Set-Cookie") {
		if c := parseSetCookie(raw); c != nil {
			e.jar.SetCookies(e.opts.URL, []*http.Cookie{c})
		}
	}
}

func parseSetCookie(raw string) *http.Cookie {
	header := http.Header{}
	header.Add("Set-Cookie", raw)
	resp := http.Response{Header: header}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return nil
	}
	return cookies[0]
}
