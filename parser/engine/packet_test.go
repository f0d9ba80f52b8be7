package parser

import (
	"reflect"
	"testing"
)

func TestEncodeDecodePacketRoundTrip(t *testing.T) {
	p := Packet{Type: Message, Data: []byte(`42["hello",["world"]]`)}
	enc, err := EncodePacket(p)
	if err != nil {
		t.Fatalf("EncodePacket: %v", err)
	}
	got, err := DecodePacket(enc)
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if !reflect.DeepEqual(got, p) {
		t.Fatalf("got %+v, want %+v", got, p)
	}
}

func TestDecodePayloadEIO3LengthPrefixed(t *testing.T) {
	body := []byte(`79:0{"sid":"abc","upgrades":["websocket"],"pingInterval":25000,"pingTimeout":5000}2:40`)
	packets, err := DecodePayload(body, 3)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if len(packets) != 2 {
		t.Fatalf("got %d packets, want 2", len(packets))
	}
	if packets[0].Type != Open {
		t.Fatalf("packets[0].Type = %v, want Open", packets[0].Type)
	}
	if packets[1].Type != Message || string(packets[1].Data) != "0" {
		t.Fatalf("packets[1] = %+v, want Message \"0\"", packets[1])
	}
}

func TestDecodePayloadEIO4SinglePacket(t *testing.T) {
	body := []byte(`0{"sid":"abc","upgrades":["websocket"],"pingInterval":25000,"pingTimeout":20000}`)
	packets, err := DecodePayload(body, 4)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if len(packets) != 1 || packets[0].Type != Open {
		t.Fatalf("got %+v, want single Open packet", packets)
	}
}

func TestDecodePacketUnknownOpcodeRejected(t *testing.T) {
	if _, err := DecodePacket([]byte("9garbage")); err == nil {
		t.Fatalf("expected error for opcode 9")
	}
}
