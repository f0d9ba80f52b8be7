package request

import (
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
)

// decompressBrotli registers "br" as a Resty content decompresser, grounded
// on pkg/request/decompresser.go of zishang520/socket.io.
func decompressBrotli(r io.ReadCloser) (io.ReadCloser, error) {
	return &brotliReader{s: r, r: brotli.NewReader(r)}, nil
}

type brotliReader struct {
	s io.ReadCloser
	r *brotli.Reader
}

func (b *brotliReader) Read(p []byte) (int, error) { return b.r.Read(p) }
func (b *brotliReader) Close() error                { return b.s.Close() }

// decompressGzip registers "gzip" the same way, using klauspost/compress's
// drop-in gzip reader instead of compress/gzip for parity with the rest of
// this module's compression stack.
func decompressGzip(r io.ReadCloser) (io.ReadCloser, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &gzipReader{s: r, r: gr}, nil
}

type gzipReader struct {
	s io.ReadCloser
	r *gzip.Reader
}

func (g *gzipReader) Read(p []byte) (int, error) { return g.r.Read(p) }
func (g *gzipReader) Close() error {
	g.r.Close()
	return g.s.Close()
}
