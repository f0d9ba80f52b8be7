package engine

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"time"
)

// Options carries the configuration the Engine needs to dial and maintain a
// connection (spec §3's Options keys, minus the ones the façade never
// forwards unchanged).
type Options struct {
	URL        *url.URL
	Version    Version
	Transport  string // "polling" or "websocket"
	UseB64     bool
	Timeout    time.Duration
	Wait       time.Duration
	Persistent bool
	Headers    http.Header
	Auth       any
	TLSConfig  *tls.Config
	MaxPayload int64
	Origin     string
}
