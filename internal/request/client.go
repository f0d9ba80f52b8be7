// Package request implements the HTTP Requester component (spec §2, §4):
// a one-shot request/response wrapper over resty.dev/v3, used for the
// Engine.IO polling handshake, the EIO>=4 namespace-connect POST/GET pair,
// and later polling reads and writes. The WebSocket upgrade does not go
// through this package (see internal/stream). Grounded on
// clients/engine/request/http-client.go of zishang520/socket.io.
package request

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tihiydo/elephant.io/internal/log"
	"resty.dev/v3"
)

var reqLog = log.NewLog("elephantio:request")

// Options configures a single Request call.
type Options struct {
	// Headers are added on top of the client's own default headers.
	Headers http.Header
	// Body is sent verbatim (used for the Socket.IO CONNECT POST payload).
	Body []byte
	// SkipBody requests that the response body not be read/parsed;
	// Response.Body is then left nil.
	SkipBody bool
}

// Response is the parsed result of a Request call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Ok reports whether the response is a successful 2xx.
func (r *Response) Ok() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// Client is a one-shot HTTP requester with a persistent cookie jar and
// optional TLS configuration, matching Options.Context / Options.Headers
// from spec §3.
type Client struct {
	rc *resty.Client
}

// NewClient builds a requester. tlsConfig may be nil. persistent mirrors
// spec §3's Options.persistent: when false, the underlying transport is
// told not to keep connections alive across requests, so every poll opens
// a fresh TCP connection instead of reusing one (spec §5's "Persistent-
// connection policy").
func NewClient(timeout time.Duration, tlsConfig *tls.Config, jar http.CookieJar, persistent bool) *Client {
	rc := resty.New()

	rc.AddContentDecompresser("br", decompressBrotli)
	rc.AddContentDecompresser("gzip", decompressGzip)

	rc.SetTimeout(timeout)
	rc.SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}))

	if tlsConfig != nil {
		rc.SetTLSClientConfig(tlsConfig)
	}
	if jar != nil {
		rc.SetCookieJar(jar)
	}
	if !persistent {
		rc.SetTransport(&http.Transport{DisableKeepAlives: true, TLSClientConfig: tlsConfig})
	}

	return &Client{rc: rc}
}

// Do performs a single request. For SkipBody requests Response.Body is left
// nil.
func (c *Client) Do(ctx context.Context, method, url string, opts *Options) (*Response, error) {
	if opts == nil {
		opts = &Options{}
	}

	req := c.rc.R().SetContext(ctx)
	req.SetHeader("User-Agent", "elephant.io/1.0")
	for k, vs := range opts.Headers {
		for _, v := range vs {
			req.AddHeader(k, v)
		}
	}
	if opts.Body != nil {
		req.SetBody(opts.Body)
	}
	if opts.SkipBody {
		req.SetDoNotParseResponse(true)
	}

	reqLog.Debug("%s %s", method, url)
	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("elephantio: request failed: %w", err)
	}

	out := &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
	}
	if !opts.SkipBody {
		out.Body = resp.Bytes()
	}
	return out, nil
}

// Get is a convenience wrapper around Do.
func (c *Client) Get(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.Do(ctx, http.MethodGet, url, opts)
}

// Post is a convenience wrapper around Do.
func (c *Client) Post(ctx context.Context, url string, opts *Options) (*Response, error) {
	return c.Do(ctx, http.MethodPost, url, opts)
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	if closer, ok := c.rc.Transport().(io.Closer); ok {
		defer closer.Close()
	}
	return c.rc.Close()
}
