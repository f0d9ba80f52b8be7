// Package parser implements the Socket.IO packet codec (spec §4.3):
// encoding/decoding of CONNECT/DISCONNECT/EVENT/ACK/CONNECT_ERROR/
// BINARY_EVENT/BINARY_ACK packets, and the binary-attachment placeholder
// protocol. Grounded on parsers/socket/parser/{type,encoder,decoder,binary}.go
// of zishang520/socket.io.
package parser

import "fmt"

// Type is a Socket.IO packet opcode.
type Type int

const (
	Connect Type = iota
	Disconnect
	Event
	Ack
	ConnectError
	BinaryEvent
	BinaryAck
)

func (t Type) Valid() bool { return t >= Connect && t <= BinaryAck }

func (t Type) String() string {
	switch t {
	case Connect:
		return "CONNECT"
	case Disconnect:
		return "DISCONNECT"
	case Event:
		return "EVENT"
	case Ack:
		return "ACK"
	case ConnectError:
		return "CONNECT_ERROR"
	case BinaryEvent:
		return "BINARY_EVENT"
	case BinaryAck:
		return "BINARY_ACK"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Packet is a decoded Socket.IO packet. Event holds the first element of an
// EVENT/BINARY_EVENT's JSON array (spec §3's Packet data model); Args holds
// the remainder, and Data is Args[0] by the same convention.
type Packet struct {
	Type        Type
	Nsp         string
	Id          *uint64
	Event       string
	Args        []any
	Data        any
	BinCount    int
	Attachments [][]byte // raw attachment payloads, filled in during reassembly
}

// namespace returns the packet's namespace, defaulting to "/".
func (p *Packet) namespace() string {
	if p.Nsp == "" {
		return "/"
	}
	return p.Nsp
}
