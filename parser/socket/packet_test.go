package parser

import (
	"reflect"
	"testing"
)

func TestEncodeSimpleEvent(t *testing.T) {
	p := &Packet{Type: Event, Nsp: "/", Event: "hello", Args: []any{[]any{"world"}}}
	text, atts, err := Encode(p, false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(atts) != 0 {
		t.Fatalf("unexpected attachments: %v", atts)
	}
	want := `2["hello",["world"]]`
	if string(text) != want {
		t.Fatalf("got %q, want %q", text, want)
	}
}

func TestEncodeNamespacedEvent(t *testing.T) {
	p := &Packet{
		Type:  Event,
		Nsp:   "/chat",
		Event: "msg",
		Args:  []any{map[string]any{"text": "hi"}},
	}
	text, _, err := Encode(p, false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `2/chat,["msg",{"text":"hi"}]`
	if string(text) != want {
		t.Fatalf("got %q, want %q", text, want)
	}
}

func TestEncodeBinaryEvent(t *testing.T) {
	p := &Packet{
		Type:  Event,
		Nsp:   "/",
		Event: "test",
		Args:  []any{map[string]any{"file": Bytes("1234567890")}},
	}
	text, atts, err := Encode(p, false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(atts) != 1 || string(atts[0]) != "1234567890" {
		t.Fatalf("got attachments %v", atts)
	}
	want := `51-["test",{"file":{"_placeholder":true,"num":0}}]`
	if string(text) != want {
		t.Fatalf("got %q, want %q", text, want)
	}
}

func TestEncodeConnectForcesNamespace(t *testing.T) {
	p := &Packet{Type: Connect, Nsp: "/", Data: map[string]any{"token": "abc"}}
	text, _, err := Encode(p, true)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `0/,{"token":"abc"}`
	if string(text) != want {
		t.Fatalf("got %q, want %q", text, want)
	}
}

func TestDecodeSimpleEvent(t *testing.T) {
	p, err := Decode([]byte(`2["hello",["world"]]`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Type != Event || p.Nsp != "/" || p.Event != "hello" {
		t.Fatalf("got %+v", p)
	}
	if !reflect.DeepEqual(p.Args, []any{[]any{"world"}}) {
		t.Fatalf("got args %+v", p.Args)
	}
}

func TestDecodeNamespacedEvent(t *testing.T) {
	p, err := Decode([]byte(`2/chat,["msg",{"text":"hi"}]`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Nsp != "/chat" || p.Event != "msg" {
		t.Fatalf("got %+v", p)
	}
	data, ok := p.Data.(map[string]any)
	if !ok || data["text"] != "hi" {
		t.Fatalf("got data %+v", p.Data)
	}
}

func TestDecodeBinaryEventThenReconstruct(t *testing.T) {
	p, err := Decode([]byte(`51-["ev",{"a":{"_placeholder":true,"num":0},"b":"s"}]`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Type != BinaryEvent || p.BinCount != 1 || p.Event != "ev" {
		t.Fatalf("got %+v", p)
	}
	if err := ReconstructAttachments(p, [][]byte{[]byte("XYZ")}); err != nil {
		t.Fatalf("ReconstructAttachments: %v", err)
	}
	data, ok := p.Data.(map[string]any)
	if !ok {
		t.Fatalf("got data %+v", p.Data)
	}
	if b, ok := data["a"].([]byte); !ok || string(b) != "XYZ" {
		t.Fatalf("got a = %+v", data["a"])
	}
	if data["b"] != "s" {
		t.Fatalf("got b = %+v", data["b"])
	}
}

func TestDecodeAckWithId(t *testing.T) {
	p, err := Decode([]byte(`312["ok"]`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Type != Ack || p.Id == nil || *p.Id != 12 {
		t.Fatalf("got %+v", p)
	}
	if !reflect.DeepEqual(p.Args, []any{"ok"}) {
		t.Fatalf("got args %+v", p.Args)
	}
}

func TestDecodeConnectNoPayload(t *testing.T) {
	p, err := Decode([]byte(`0/admin,`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Type != Connect || p.Nsp != "/admin" || p.Data != nil {
		t.Fatalf("got %+v", p)
	}
}

func TestDecodeInvalidTypeDigit(t *testing.T) {
	if _, err := Decode([]byte("9bogus")); err == nil {
		t.Fatalf("expected error for type digit 9")
	}
}

func TestDecodeReconstructIllegalAttachment(t *testing.T) {
	p, err := Decode([]byte(`61-[{"_placeholder":true,"num":5}]`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if err := ReconstructAttachments(p, [][]byte{[]byte("only one")}); err != ErrIllegalAttachments {
		t.Fatalf("got err %v, want ErrIllegalAttachments", err)
	}
}
