package wsproto

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/tihiydo/elephant.io/internal/buffer"
)

// unmaskClientFrames rewrites a sequence of masked client frames as the
// equivalent unmasked frames a server would send, so that the Decoder, which
// rejects masked frames, can read back what the Encoder wrote.
func unmaskClientFrames(t *testing.T, raw []byte) []byte {
	t.Helper()
	var out []byte
	for len(raw) > 0 {
		if len(raw) < 2 || raw[1]&maskBit == 0 {
			t.Fatalf("expected a masked client frame header")
		}
		hdr := 2
		n := int(raw[1] & lenMask)
		switch n {
		case 126:
			n = int(binary.BigEndian.Uint16(raw[2:4]))
			hdr = 4
		case 127:
			n = int(binary.BigEndian.Uint64(raw[2:10]))
			hdr = 10
		}
		var key [4]byte
		copy(key[:], raw[hdr:hdr+4])
		payload := append([]byte(nil), raw[hdr+4:hdr+4+n]...)
		maskBytes(key, payload)
		out = append(out, raw[0], raw[1]&^maskBit)
		out = append(out, raw[2:hdr]...)
		out = append(out, payload...)
		raw = raw[hdr+4+n:]
	}
	return out
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, 0)
	payload := []byte(`42["hello",["world"]]`)
	if err := enc.Encode(OpText, payload); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// First byte after FIN/opcode is the length byte; verify the mask bit is set.
	raw := buf.Bytes()
	if raw[1]&maskBit == 0 {
		t.Fatalf("expected mask bit set on client frame")
	}

	dec := NewDecoder(bytes.NewReader(unmaskClientFrames(t, raw)), 0)
	msg, err := dec.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if msg.Opcode != OpText {
		t.Fatalf("opcode = %v, want text", msg.Opcode)
	}
	if string(msg.Payload) != string(payload) {
		t.Fatalf("payload = %q, want %q", msg.Payload, payload)
	}
}

func TestMaskedServerFrameRejected(t *testing.T) {
	var buf bytes.Buffer
	// Hand-craft a masked "server" frame: FIN+TEXT, masked, 1-byte payload.
	buf.Write([]byte{finBit | byte(OpText), maskBit | 1, 0, 0, 0, 0, 'x'})

	dec := NewDecoder(&buf, 0)
	if _, err := dec.Read(); err != ErrMaskedServerFrame {
		t.Fatalf("err = %v, want ErrMaskedServerFrame", err)
	}
}

func TestFragmentation(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, 0)
	payload := make([]byte, defaultFragmentSize+100)
	for i := range payload {
		payload[i] = byte(i)
	}
	if err := enc.Encode(OpBinary, payload); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dec := NewDecoder(bytes.NewReader(unmaskClientFrames(t, buf.Bytes())), 0)
	msg, err := dec.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(msg.Payload) != len(payload) {
		t.Fatalf("reassembled len = %d, want %d", len(msg.Payload), len(payload))
	}
	if !bytes.Equal(msg.Payload, payload) {
		t.Fatalf("reassembled payload mismatch")
	}
}

func TestPayloadTooLargeOnEncode(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, 10)
	if err := enc.Encode(OpBinary, make([]byte, 11)); err != ErrPayloadTooLarge {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
}

func TestEncodeBufferPicksOpcodeByType(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, 0)
	if err := enc.EncodeBuffer(buffer.NewStringBuffer([]byte(`2["ping"]`))); err != nil {
		t.Fatalf("EncodeBuffer(string): %v", err)
	}
	dec := NewDecoder(bytes.NewReader(unmaskClientFrames(t, buf.Bytes())), 0)
	msg, err := dec.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if msg.Opcode != OpText {
		t.Fatalf("opcode = %v, want text for StringBuffer", msg.Opcode)
	}

	buf.Reset()
	if err := enc.EncodeBuffer(buffer.NewBytesBuffer([]byte{1, 2, 3})); err != nil {
		t.Fatalf("EncodeBuffer(bytes): %v", err)
	}
	dec = NewDecoder(bytes.NewReader(unmaskClientFrames(t, buf.Bytes())), 0)
	msg, err = dec.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if msg.Opcode != OpBinary {
		t.Fatalf("opcode = %v, want binary for BytesBuffer", msg.Opcode)
	}
	if !bytes.Equal(msg.Payload, []byte{1, 2, 3}) {
		t.Fatalf("payload mismatch: %v", msg.Payload)
	}
}

func TestPayloadTooLargeOnDecode(t *testing.T) {
	var buf bytes.Buffer
	// Unmasked "server" frame header: FIN+BINARY, 16-bit extended length of
	// 200, declared without ever writing a body — readFrameHeader must
	// reject on the header alone, before Read tries to consume 200 bytes.
	buf.Write([]byte{finBit | byte(OpBinary), 126, 0, 200})

	dec := NewDecoder(&buf, 100)
	if _, err := dec.Read(); err != ErrPayloadTooLarge {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
}

func TestControlFrameNeverFragments(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, 0)
	if err := enc.Encode(OpPing, make([]byte, 126)); err != ErrMalformedFrame {
		t.Fatalf("err = %v, want ErrMalformedFrame", err)
	}
}
