package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	engineparser "github.com/tihiydo/elephant.io/parser/engine"
	socketparser "github.com/tihiydo/elephant.io/parser/socket"
)

// pollingServer is a minimal Engine.IO v4 polling-only server double: one
// handshake, one namespace-connect POST/GET pair, then an echo loop for
// subsequent POST/GET cycles. It never upgrades, which keeps these tests
// independent of a raw TCP WebSocket double.
type pollingServer struct {
	mu       sync.Mutex
	sid      string
	step     int
	inbox    [][]byte
	connectErr bool
}

func newPollingServer(sid string) *pollingServer {
	return &pollingServer{sid: sid}
}

func (s *pollingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("sid") == "" {
		body := fmt.Sprintf(`{"sid":"%s","upgrades":["websocket"],"pingInterval":25000,"pingTimeout":20000}`, s.sid)
		pkt, _ := engineparser.EncodePacket(engineparser.Packet{Type: engineparser.Open, Data: []byte(body)})
		w.Write(pkt)
		return
	}

	if r.Method == http.MethodPost {
		data, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.inbox = append(s.inbox, data)
		s.mu.Unlock()
		w.Write([]byte("ok"))
		return
	}

	s.mu.Lock()
	step := s.step
	s.step++
	s.mu.Unlock()

	if step == 0 {
		// reply to the namespace-connect
		var sioBody string
		if s.connectErr {
			sioBody = `4{"message":"invalid credentials"}`
		} else {
			sioBody = fmt.Sprintf(`0{"sid":"%s"}`, s.sid)
		}
		pkt, _ := engineparser.EncodePacket(engineparser.Packet{Type: engineparser.Message, Data: []byte(sioBody)})
		w.Write(pkt)
		return
	}

	// echo loop: answer with an ACK naming the last EVENT that was POSTed
	s.mu.Lock()
	var out []byte
	if len(s.inbox) > 0 {
		last := s.inbox[len(s.inbox)-1]
		if len(last) > 0 && last[0] == '4' {
			sp, err := socketparser.Decode(last[1:])
			if err == nil && sp.Type == socketparser.Event {
				ackBody := fmt.Sprintf(`3[%q]`, "ok:"+sp.Event)
				out, _ = engineparser.EncodePacket(engineparser.Packet{Type: engineparser.Message, Data: []byte(ackBody)})
			}
		}
	}
	s.mu.Unlock()
	w.Write(out)
}

func dialOpts(rawurl string) Options {
	u, _ := url.Parse(rawurl)
	return Options{
		URL:       u,
		Version:   Version4X,
		Transport: "polling",
		Timeout:   2 * time.Second,
	}
}

func TestDialPollingHandshakeAndNamespaceConnect(t *testing.T) {
	srv := newPollingServer("abc123")
	ts := httptest.NewServer(srv)
	defer ts.Close()

	eng, err := Dial(context.Background(), dialOpts(ts.URL))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer eng.Close(context.Background())

	if eng.Session().Id != "abc123" {
		t.Fatalf("got sid %q, want abc123", eng.Session().Id)
	}
	if eng.State() != Connected {
		t.Fatalf("got state %v, want Connected", eng.State())
	}
	if eng.Session().PingInterval != 25*time.Second {
		t.Fatalf("got ping interval %v", eng.Session().PingInterval)
	}
}

func TestDialNamespaceConnectFailure(t *testing.T) {
	srv := newPollingServer("abc123")
	srv.connectErr = true
	ts := httptest.NewServer(srv)
	defer ts.Close()

	_, err := Dial(context.Background(), dialOpts(ts.URL))
	if err == nil {
		t.Fatalf("expected ServerConnectionFailure")
	}
}

func TestSendReceiveOverPolling(t *testing.T) {
	srv := newPollingServer("abc123")
	ts := httptest.NewServer(srv)
	defer ts.Close()

	eng, err := Dial(context.Background(), dialOpts(ts.URL))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer eng.Close(context.Background())

	pkt := socketparser.Packet{Type: socketparser.Event, Nsp: "/", Event: "hello", Args: []any{"world"}}
	text, _, err := socketparser.Encode(&pkt, false)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := eng.Send(context.Background(), engineparser.Packet{Type: engineparser.Message, Data: text}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	ep, err := eng.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if ep.Type != engineparser.Message {
		t.Fatalf("got %+v, want Message", ep)
	}
	sp, err := socketparser.Decode(ep.Data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if sp.Type != socketparser.Ack {
		t.Fatalf("got %+v, want Ack", sp)
	}
}
