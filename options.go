package elephantio

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/tihiydo/elephant.io/engine"
)

// Version selects the Engine.IO generation the client speaks (spec §6).
type Version = engine.Version

const (
	Version0X = engine.Version0X
	Version1X = engine.Version1X
	Version2X = engine.Version2X
	Version3X = engine.Version3X
	Version4X = engine.Version4X
)

// defaultMaxPayload is spec §3's default of 10^8 bytes.
const defaultMaxPayload = 100_000_000

// Options is the client's configuration bag (spec §3). Zero value is usable;
// NewOptions applies the documented defaults.
type Options struct {
	version    Version
	transport  string
	useB64     bool
	timeout    time.Duration
	wait       time.Duration
	persistent bool
	headers    http.Header
	auth       any
	tlsConfig  *tls.Config
	maxPayload int64
	origin     string
}

// NewOptions returns an Options with spec §3's defaults: EIO v4, websocket
// transport, a 5s timeout, and a 10^8 byte max payload.
func NewOptions() *Options {
	return &Options{
		version:    Version4X,
		transport:  "websocket",
		timeout:    5 * time.Second,
		headers:    http.Header{},
		maxPayload: defaultMaxPayload,
	}
}

func (o *Options) SetVersion(v Version) *Options       { o.version = v; return o }
func (o *Options) SetTransport(t string) *Options      { o.transport = t; return o }
func (o *Options) SetUseB64(b bool) *Options           { o.useB64 = b; return o }
func (o *Options) SetTimeout(d time.Duration) *Options { o.timeout = d; return o }
func (o *Options) SetWait(d time.Duration) *Options    { o.wait = d; return o }
func (o *Options) SetPersistent(b bool) *Options       { o.persistent = b; return o }
func (o *Options) SetAuth(auth any) *Options           { o.auth = auth; return o }
func (o *Options) SetTLSConfig(c *tls.Config) *Options { o.tlsConfig = c; return o }
func (o *Options) SetMaxPayload(n int64) *Options      { o.maxPayload = n; return o }
func (o *Options) SetOrigin(origin string) *Options    { o.origin = origin; return o }

func (o *Options) AddHeader(key, value string) *Options {
	if o.headers == nil {
		o.headers = http.Header{}
	}
	o.headers.Add(key, value)
	return o
}

func (o *Options) Version() Version      { return o.version }
func (o *Options) Transport() string     { return o.transport }
func (o *Options) Timeout() time.Duration { return o.timeout }
func (o *Options) Wait() time.Duration    { return o.wait }
func (o *Options) Persistent() bool       { return o.persistent }
func (o *Options) MaxPayload() int64      { return o.maxPayload }
