package parser

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Decode parses a Socket.IO packet from its wire text, per spec §4.3's
// character-cursor state machine: type digit, optional attachment count up
// to '-', optional namespace (read only when the next byte is '/') up to the
// first ',' (stopping early if '[' or '{' is seen), optional ack id digits,
// then the JSON payload.
//
// The caller is expected to have already stripped the Engine.IO MESSAGE
// opcode digit; raw begins directly with the Socket.IO type digit.
func Decode(raw []byte) (*Packet, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("parser: empty socket.io packet")
	}

	digit := raw[0]
	if digit < '0' || digit > '9' {
		return nil, fmt.Errorf("parser: missing socket.io type digit in %q", raw)
	}
	t := Type(digit - '0')
	if !t.Valid() {
		return nil, fmt.Errorf("parser: unknown socket.io type %d", t)
	}
	cur := raw[1:]

	p := &Packet{Type: t}

	if t == BinaryEvent || t == BinaryAck {
		i := 0
		for i < len(cur) && cur[i] != '-' {
			if cur[i] < '0' || cur[i] > '9' {
				return nil, fmt.Errorf("parser: malformed attachment count in %q", raw)
			}
			i++
		}
		if i == 0 || i >= len(cur) {
			return nil, fmt.Errorf("parser: missing attachment count separator in %q", raw)
		}
		n, err := strconv.Atoi(string(cur[:i]))
		if err != nil {
			return nil, fmt.Errorf("parser: malformed attachment count: %w", err)
		}
		p.BinCount = n
		cur = cur[i+1:]
	}

	if len(cur) > 0 && cur[0] == '/' {
		i := 0
		for i < len(cur) && cur[i] != ',' && cur[i] != '[' && cur[i] != '{' {
			i++
		}
		if i < len(cur) && cur[i] == ',' {
			p.Nsp = string(cur[:i])
			cur = cur[i+1:]
		} else {
			p.Nsp = string(cur[:i])
			cur = cur[i:]
		}
	}
	if p.Nsp == "" {
		p.Nsp = "/"
	}

	i := 0
	for i < len(cur) && cur[i] >= '0' && cur[i] <= '9' {
		i++
	}
	if i > 0 {
		id, err := strconv.ParseUint(string(cur[:i]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parser: malformed ack id: %w", err)
		}
		p.Id = &id
		cur = cur[i:]
	}

	if len(cur) > 0 {
		var payload any
		if err := json.Unmarshal(cur, &payload); err != nil {
			return nil, fmt.Errorf("parser: invalid json payload in %q: %w", raw, err)
		}
		applyPayload(p, payload)
	}

	return p, nil
}

// applyPayload splits the decoded JSON value into the packet's Event/Args/
// Data fields, per packet type.
func applyPayload(p *Packet, payload any) {
	switch p.Type {
	case Event, BinaryEvent:
		arr, ok := payload.([]any)
		if !ok || len(arr) == 0 {
			return
		}
		if name, ok := arr[0].(string); ok {
			p.Event = name
		}
		p.Args = arr[1:]
		if len(p.Args) > 0 {
			p.Data = p.Args[0]
		}
	case Ack, BinaryAck:
		if arr, ok := payload.([]any); ok {
			p.Args = arr
			if len(arr) > 0 {
				p.Data = arr[0]
			}
		}
	default:
		p.Data = payload
	}
}

// ReconstructAttachments fills in a BINARY_EVENT/BINARY_ACK packet's Args
// (and Data) once all its attachments have arrived, substituting each
// placeholder with its raw attachment bytes (spec §4.3 "Attachment
// re-assembly", §8 invariant 4).
func ReconstructAttachments(p *Packet, attachments [][]byte) error {
	args, err := ReconstructArgs(p.Args, attachments)
	if err != nil {
		return err
	}
	p.Args = args
	p.Attachments = attachments
	if len(args) > 0 {
		p.Data = args[0]
	}
	return nil
}
