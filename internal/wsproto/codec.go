package wsproto

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/tihiydo/elephant.io/internal/buffer"
	"github.com/tihiydo/elephant.io/internal/log"
)

var codecLog = log.NewLog("elephantio:wsproto")

// defaultFragmentSize bounds a single frame's payload so very large messages
// are still split, matching the "fragmentation" requirement in spec §4.1
// even though this client never needs to stream unboundedly large frames.
const defaultFragmentSize = 1 << 20 // 1 MiB

// Message is one fully reassembled incoming WebSocket message.
type Message struct {
	Opcode  Opcode
	Payload []byte
}

// Encoder writes client (always-masked) WebSocket frames to an io.Writer.
type Encoder struct {
	w          io.Writer
	MaxPayload int64 // 0 means unbounded
}

func NewEncoder(w io.Writer, maxPayload int64) *Encoder {
	return &Encoder{w: w, MaxPayload: maxPayload}
}

// Encode writes payload as one or more frames of the given opcode. Control
// frames (CLOSE/PING/PONG) are never fragmented and must be <=125 bytes.
func (e *Encoder) Encode(opcode Opcode, payload []byte) error {
	if opcode.isControl() {
		if len(payload) > 125 {
			return ErrMalformedFrame
		}
		return e.writeFrame(true, opcode, payload)
	}

	if e.MaxPayload > 0 && int64(len(payload)) > e.MaxPayload {
		return ErrPayloadTooLarge
	}

	if len(payload) <= defaultFragmentSize {
		return e.writeFrame(true, opcode, payload)
	}

	first := true
	for offset := 0; offset < len(payload); offset += defaultFragmentSize {
		end := offset + defaultFragmentSize
		if end > len(payload) {
			end = len(payload)
		}
		fin := end == len(payload)
		op := opcode
		if !first {
			op = OpContinuation
		}
		if err := e.writeFrame(fin, op, payload[offset:end]); err != nil {
			return err
		}
		first = false
	}
	return nil
}

func (e *Encoder) writeFrame(fin bool, opcode Opcode, payload []byte) error {
	var key [4]byte
	if _, err := rand.Read(key[:]); err != nil {
		return fmt.Errorf("wsproto: generating mask key: %w", err)
	}

	h := &frameHeader{
		fin:     fin,
		opcode:  opcode,
		masked:  true,
		length:  int64(len(payload)),
		maskKey: key,
	}
	if err := h.writeTo(e.w); err != nil {
		return err
	}

	masked := append([]byte(nil), payload...)
	maskBytes(key, masked)
	codecLog.Debug("wrote %s frame fin=%t len=%d", opcode, fin, len(masked))
	_, err := e.w.Write(masked)
	return err
}

// EncodeBuffer is a convenience for buffer.Interface payloads: a
// *buffer.StringBuffer encodes as TEXT, anything else (notably
// *buffer.BytesBuffer) encodes as BINARY.
func (e *Encoder) EncodeBuffer(b buffer.Interface) error {
	opcode := OpBinary
	if _, ok := b.(*buffer.StringBuffer); ok {
		opcode = OpText
	}
	return e.Encode(opcode, b.Bytes())
}

// Decoder reads and reassembles WebSocket messages from an io.Reader.
type Decoder struct {
	r          *bufio.Reader
	MaxPayload int64
}

func NewDecoder(r io.Reader, maxPayload int64) *Decoder {
	return &Decoder{r: bufio.NewReader(r), MaxPayload: maxPayload}
}

// ReadRaw reads exactly one WebSocket message, fully unmasked, without any
// interpretation of its content — used while reassembling binary attachment
// frames, where each frame is consumed as an opaque blob (spec §4.3).
func (d *Decoder) ReadRaw() (*Message, error) {
	return d.read()
}

// Read reads one complete message. Fragmented messages (FIN=0 continuations)
// are reassembled transparently. CLOSE/PING/PONG are returned as distinct
// message kinds so the caller (the Engine.IO Engine) can reply.
func (d *Decoder) Read() (*Message, error) {
	return d.read()
}

func (d *Decoder) read() (*Message, error) {
	var (
		payload     []byte
		msgOpcode   Opcode
		initialized bool
	)

	for {
		h, err := readFrameHeader(d.r, d.MaxPayload)
		if err != nil {
			return nil, err
		}

		frame := make([]byte, h.length)
		if _, err := io.ReadFull(d.r, frame); err != nil {
			return nil, io.ErrUnexpectedEOF
		}

		if h.controlFrame() {
			codecLog.Debug("read control frame %s len=%d", h.opcode, len(frame))
			return &Message{Opcode: h.opcode, Payload: frame}, nil
		}

		if !initialized {
			msgOpcode = h.opcode
			initialized = true
		}
		payload = append(payload, frame...)

		if h.fin {
			codecLog.Debug("read %s message len=%d", msgOpcode, len(payload))
			return &Message{Opcode: msgOpcode, Payload: payload}, nil
		}
	}
}
