package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode renders a packet as the Socket.IO wire grammar
// "<type><nAttach '-'>?<nsp ','>?<id>?<jsonPayload>" (spec §4.3). When an
// EVENT/ACK payload contains a Bytes or []byte leaf, the encoded type digit is
// its BINARY_ variant and the payload is deconstructed into attachments; p
// itself is not modified.
//
// forceNamespace is set by callers encoding a CONNECT packet under an
// Engine.IO dialect that always emits the namespace (EIO>=4), even for "/".
func Encode(p *Packet, forceNamespace bool) (text []byte, attachments [][]byte, err error) {
	if !p.Type.Valid() {
		return nil, nil, fmt.Errorf("parser: invalid socket.io type %d", p.Type)
	}

	payload := payloadJSON(p)
	wireType := p.Type

	if wireType == Event || wireType == Ack {
		if arr, ok := payload.([]any); ok && hasBinary(arr) {
			if wireType == Event {
				wireType = BinaryEvent
			} else {
				wireType = BinaryAck
			}
			deconstructed, atts := DeconstructArgs(arr)
			payload = deconstructed
			attachments = atts
		}
	}

	var buf bytes.Buffer
	buf.WriteByte(byte('0' + int(wireType)))

	if wireType == BinaryEvent || wireType == BinaryAck {
		fmt.Fprintf(&buf, "%d-", len(attachments))
	}

	nsp := p.namespace()
	if forceNamespace || nsp != "/" {
		buf.WriteString(nsp)
		buf.WriteByte(',')
	}

	if p.Id != nil {
		fmt.Fprintf(&buf, "%d", *p.Id)
	}

	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("parser: encoding payload: %w", err)
		}
		buf.Write(b)
	}

	return buf.Bytes(), attachments, nil
}

// payloadJSON builds the JSON value that follows the header, per packet type.
func payloadJSON(p *Packet) any {
	switch p.Type {
	case Event, BinaryEvent:
		arr := make([]any, 0, len(p.Args)+1)
		arr = append(arr, p.Event)
		arr = append(arr, p.Args...)
		return arr
	case Ack, BinaryAck:
		if p.Args == nil {
			return []any{}
		}
		return append([]any(nil), p.Args...)
	case Connect:
		return p.Data
	case ConnectError:
		return p.Data
	case Disconnect:
		return nil
	default:
		return p.Data
	}
}
