// Package buffer provides the two buffer flavors threaded through the
// parser and transport layers: a StringBuffer for JSON/text packets and a
// BytesBuffer for raw binary attachments. Keeping them as distinct types
// (rather than a single []byte) lets the WebSocket codec pick TEXT vs BINARY
// framing with a type switch, the way
// zishang520/socket.io's pkg/types does it.
package buffer

import (
	"bytes"
	"fmt"
	"io"
)

// Interface is the common surface both buffer flavors expose.
type Interface interface {
	io.Reader
	io.Writer
	io.ByteScanner
	io.ByteWriter
	io.StringWriter
	io.WriterTo
	io.ReaderFrom
	fmt.Stringer
	Bytes() []byte
	Len() int
	ReadString(delim byte) (string, error)
	Clone() Interface
}

// base wraps bytes.Buffer and forwards its ByteScanner.UnreadByte.
type base struct {
	*bytes.Buffer
}

func (b *base) UnreadByte() error {
	return b.Buffer.UnreadByte()
}

// StringBuffer holds textual (JSON) packet payloads.
type StringBuffer struct{ base }

// BytesBuffer holds raw binary attachment payloads.
type BytesBuffer struct{ base }

func NewStringBuffer(buf []byte) *StringBuffer {
	return &StringBuffer{base{bytes.NewBuffer(buf)}}
}

func NewStringBufferString(s string) *StringBuffer {
	return &StringBuffer{base{bytes.NewBufferString(s)}}
}

func (b *StringBuffer) Clone() Interface {
	return &StringBuffer{base{bytes.NewBuffer(append([]byte(nil), b.Bytes()...))}}
}

func NewBytesBuffer(buf []byte) *BytesBuffer {
	return &BytesBuffer{base{bytes.NewBuffer(buf)}}
}

func (b *BytesBuffer) Clone() Interface {
	return &BytesBuffer{base{bytes.NewBuffer(append([]byte(nil), b.Bytes()...))}}
}

var (
	_ Interface = (*StringBuffer)(nil)
	_ Interface = (*BytesBuffer)(nil)
)
