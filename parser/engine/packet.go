// Package parser implements the Engine.IO packet codec: the wire opcodes
// (spec §4.2) and the two payload-framing dialects used to batch packets in
// an HTTP long-polling body (spec §4.2's "Packet-length framing").
// Grounded on parsers/engine/parser/parser-v3.go and parser-v4.go of
// zishang520/socket.io, adapted from that package's string opcode table
// ("open", "close", …) to the numeric wire opcodes spec.md names directly.
package parser

import (
	"bytes"
	"fmt"
)

// Opcode is one of the seven Engine.IO packet types.
type Opcode int

const (
	Open Opcode = iota
	Close
	Ping
	Pong
	Message
	Upgrade
	Noop
)

func (o Opcode) Valid() bool { return o >= Open && o <= Noop }

func (o Opcode) String() string {
	switch o {
	case Open:
		return "open"
	case Close:
		return "close"
	case Ping:
		return "ping"
	case Pong:
		return "pong"
	case Message:
		return "message"
	case Upgrade:
		return "upgrade"
	case Noop:
		return "noop"
	default:
		return fmt.Sprintf("opcode(%d)", int(o))
	}
}

// Packet is one decoded Engine.IO packet. Data is the raw payload that
// follows the opcode digit — for Open, the handshake JSON; for Message,
// the embedded Socket.IO text (still including nothing of the Engine.IO
// layer, since the leading digit has already been consumed here).
type Packet struct {
	Type Opcode
	Data []byte
}

// EncodePacket renders a single packet as "<opcode><data>", the form used
// both inside a WebSocket frame and as one unit of a polling payload.
func EncodePacket(p Packet) ([]byte, error) {
	if !p.Type.Valid() {
		return nil, fmt.Errorf("parser: invalid engine.io opcode %d", p.Type)
	}
	buf := make([]byte, 0, len(p.Data)+1)
	buf = append(buf, byte('0'+int(p.Type)))
	buf = append(buf, p.Data...)
	return buf, nil
}

// DecodePacket parses a single packet from raw bytes (the content of one
// WebSocket frame, or one unit of a polling payload after framing has
// already split it out).
func DecodePacket(raw []byte) (Packet, error) {
	if len(raw) == 0 {
		return Packet{}, fmt.Errorf("parser: empty packet")
	}
	digit := raw[0]
	if digit < '0' || digit > '9' {
		return Packet{}, fmt.Errorf("parser: missing opcode digit in %q", raw)
	}
	opcode := Opcode(digit - '0')
	if !opcode.Valid() {
		return Packet{}, fmt.Errorf("parser: unknown engine.io opcode %d", opcode)
	}
	return Packet{Type: opcode, Data: append([]byte(nil), raw[1:]...)}, nil
}

// DecodePayload splits an HTTP long-polling response body into its
// constituent packets, per spec §4.2's two dialects.
//
//   - eioVersion <= 3: each packet is "<decimalLen>:<payload>" concatenated.
//   - eioVersion >= 4: the whole body is exactly one packet.
func DecodePayload(body []byte, eioVersion int) ([]Packet, error) {
	if eioVersion >= 4 {
		if len(body) == 0 {
			return nil, nil
		}
		p, err := DecodePacket(body)
		if err != nil {
			return nil, err
		}
		return []Packet{p}, nil
	}

	var packets []Packet
	for len(body) > 0 {
		sep := bytes.IndexByte(body, ':')
		if sep < 0 {
			return nil, fmt.Errorf("parser: missing length delimiter in polling body")
		}
		n := 0
		for _, c := range body[:sep] {
			if c < '0' || c > '9' {
				return nil, fmt.Errorf("parser: non-numeric packet length in polling body")
			}
			n = n*10 + int(c-'0')
		}
		body = body[sep+1:]
		if n > len(body) {
			return nil, fmt.Errorf("parser: packet length %d exceeds remaining body", n)
		}
		p, err := DecodePacket(body[:n])
		if err != nil {
			return nil, err
		}
		packets = append(packets, p)
		body = body[n:]
	}
	return packets, nil
}

// EncodePayload is the inverse of DecodePayload, used when this client
// POSTs a batch of packets (in practice, always exactly one).
func EncodePayload(packets []Packet, eioVersion int) ([]byte, error) {
	var buf bytes.Buffer
	for _, p := range packets {
		enc, err := EncodePacket(p)
		if err != nil {
			return nil, err
		}
		if eioVersion >= 4 {
			buf.Write(enc)
			continue
		}
		fmt.Fprintf(&buf, "%d:", len(enc))
		buf.Write(enc)
	}
	return buf.Bytes(), nil
}
