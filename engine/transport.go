package engine

import (
	"context"
	"time"

	"github.com/tihiydo/elephant.io/internal/apierror"
	"github.com/tihiydo/elephant.io/internal/buffer"
	"github.com/tihiydo/elephant.io/internal/request"
	"github.com/tihiydo/elephant.io/internal/stream"
	"github.com/tihiydo/elephant.io/internal/wsproto"
	engineparser "github.com/tihiydo/elephant.io/parser/engine"
)

// Send writes one Engine.IO packet over whichever transport is active.
func (e *Engine) Send(ctx context.Context, p engineparser.Packet) error {
	if e.usingWebSocket {
		raw, err := engineparser.EncodePacket(p)
		if err != nil {
			return apierror.NewInvalidArgumentError(err.Error())
		}
		if err := e.encoder.EncodeBuffer(buffer.NewStringBuffer(raw)); err != nil {
			return translateWSError(err)
		}
	} else {
		if err := e.sendPolling(ctx, p); err != nil {
			return err
		}
	}
	e.touch()
	return nil
}

func (e *Engine) sendPolling(ctx context.Context, p engineparser.Packet) error {
	body, err := engineparser.EncodePayload([]engineparser.Packet{p}, e.dialect.EIOVersion)
	if err != nil {
		return apierror.NewInvalidArgumentError(err.Error())
	}
	resp, err := e.requester.Post(ctx, e.pollingURL(e.session.Id), &request.Options{
		Headers: e.opts.Headers,
		Body:    body,
	})
	if err != nil {
		return apierror.NewSocketError("polling write failed", err)
	}
	if !resp.Ok() {
		return apierror.NewSocketError("polling write rejected", nil)
	}
	return nil
}

// SendRaw writes a binary attachment frame directly, bypassing the
// Engine.IO packet envelope, per spec §4.3's attachment transmission.
// Binary attachments require the WebSocket transport.
func (e *Engine) SendRaw(payload []byte) error {
	if !e.usingWebSocket {
		return apierror.NewInvalidArgumentError("binary attachments require the websocket transport")
	}
	if err := e.encoder.EncodeBuffer(buffer.NewBytesBuffer(payload)); err != nil {
		return translateWSError(err)
	}
	e.touch()
	return nil
}

// Receive reads and decodes the next Engine.IO packet. Over polling it may
// perform a GET and buffer the remaining packets of that payload.
func (e *Engine) Receive(ctx context.Context) (engineparser.Packet, error) {
	if e.usingWebSocket {
		return e.receiveWebSocket()
	}
	return e.receivePolling(ctx)
}

func (e *Engine) receiveWebSocket() (engineparser.Packet, error) {
	msg, err := e.decoder.Read()
	if err != nil {
		if stream.IsTimeout(err) {
			return engineparser.Packet{}, errTimeout
		}
		return engineparser.Packet{}, apierror.NewSocketError("reading websocket frame", err)
	}
	switch msg.Opcode {
	case wsproto.OpClose:
		return engineparser.Packet{Type: engineparser.Close}, nil
	case wsproto.OpPing:
		return engineparser.Packet{Type: engineparser.Ping, Data: msg.Payload}, nil
	case wsproto.OpPong:
		return engineparser.Packet{Type: engineparser.Pong, Data: msg.Payload}, nil
	}
	p, err := engineparser.DecodePacket(msg.Payload)
	if err != nil {
		return engineparser.Packet{}, apierror.NewSocketError("decoding engine.io packet", err)
	}
	e.touch()
	return p, nil
}

func (e *Engine) receivePolling(ctx context.Context) (engineparser.Packet, error) {
	if len(e.pollingBuffer) > 0 {
		p := e.pollingBuffer[0]
		e.pollingBuffer = e.pollingBuffer[1:]
		return p, nil
	}

	resp, err := e.requester.Get(ctx, e.pollingURL(e.session.Id), &request.Options{Headers: e.opts.Headers})
	if err != nil {
		return engineparser.Packet{}, apierror.NewSocketError("polling read failed", err)
	}
	if !resp.Ok() {
		return engineparser.Packet{}, apierror.NewSocketError("polling read rejected", nil)
	}
	packets, err := engineparser.DecodePayload(resp.Body, e.dialect.EIOVersion)
	if err != nil {
		return engineparser.Packet{}, apierror.NewSocketError("malformed polling payload", err)
	}
	if len(packets) == 0 {
		return engineparser.Packet{}, errTimeout
	}
	e.pollingBuffer = packets[1:]
	e.touch()
	return packets[0], nil
}

// ReceiveRaw reads exactly one raw WebSocket frame without any Engine.IO
// interpretation, used to collect binary attachment frames during
// re-assembly (spec §4.3).
func (e *Engine) ReceiveRaw() ([]byte, error) {
	if !e.usingWebSocket {
		return nil, apierror.NewInvalidArgumentError("binary attachments require the websocket transport")
	}
	msg, err := e.decoder.ReadRaw()
	if err != nil {
		if stream.IsTimeout(err) {
			return nil, errTimeout
		}
		return nil, apierror.NewSocketError("reading attachment frame", err)
	}
	return msg.Payload, nil
}

// KeepAlive implements spec §4.2 and §8 invariant 6: for EIO<=3, send PING
// when now-lastSend has reached pingInterval; for EIO>=4 the server drives
// PING and nothing is sent here. Always called opportunistically before
// emit/of and after a drain cycle (spec §9's "Heartbeat without a thread").
func (e *Engine) KeepAlive(ctx context.Context) error {
	if e.dialect.EIOVersion > 3 || e.session == nil {
		return nil
	}
	if time.Since(e.lastSend) < e.session.PingInterval {
		return nil
	}
	if err := e.Send(ctx, engineparser.Packet{Type: engineparser.Ping}); err != nil {
		return err
	}
	e.lastSend = time.Now()
	return nil
}

func (e *Engine) touch() {
	e.lastSend = time.Now()
	if e.session != nil {
		e.session.LastActivity = time.Now()
	}
}

// Close sends the CLOSE packet (if connected) and tears down the transport,
// per spec §4.4's close() contract.
func (e *Engine) Close(ctx context.Context) error {
	e.pollingBuffer = nil
	if e.state == Connected {
		_ = e.Send(ctx, engineparser.Packet{Type: engineparser.Close})
	}
	e.state = Closed
	e.session = nil

	var err error
	if e.stream != nil {
		err = e.stream.Close()
	}
	if cerr := e.requester.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func translateWSError(err error) error {
	if err == wsproto.ErrPayloadTooLarge {
		return apierror.NewPayloadTooLargeError(err.Error())
	}
	return apierror.NewSocketError("writing websocket frame", err)
}

// errTimeout is returned by Receive/ReceiveRaw when the underlying stream's
// read deadline expired with no data, which drain() treats as "no packet
// now" (spec §7's Timeout row).
var errTimeout = apierror.New(apierror.KindSocketError, "timeout", nil)

// IsTimeout reports whether err is the recoverable "no data yet" signal
// Receive/ReceiveRaw return on a read-deadline expiry.
func IsTimeout(err error) bool { return err == errTimeout }
