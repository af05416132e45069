/*
 * L2 Router - A Layer 2 OpenFlow Controller
 *
 * Copyright (C) 2026 The L2 Router Authors.
 * Portions Copyright (C) 2015 Samjung Data Service, Inc.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package network

import (
	"bytes"
	"context"
	"encoding"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/harmjan/l2-router/graph"

	"github.com/contiv/libOpenflow/common"
	"github.com/contiv/libOpenflow/openflow13"
	"github.com/contiv/libOpenflow/util"
	"github.com/google/go-cmp/cmp"
	"github.com/gopacket/gopacket/layers"
	"go.uber.org/goleak"
)

const timeout = 5 * time.Second

type submitter struct {
	events chan Event
}

func newSubmitter() *submitter {
	return &submitter{events: make(chan Event, 16)}
}

func (r *submitter) Submit(ev Event) {
	r.events <- ev
}

func (r *submitter) wait(t *testing.T) Event {
	select {
	case ev := <-r.events:
		return ev
	case <-time.After(timeout):
		t.Fatal("Timeout waiting for an event")
		return nil
	}
}

// fakeSwitch is the switch side of a control channel.
type fakeSwitch struct {
	t    *testing.T
	conn net.Conn
}

func (r *fakeSwitch) read() util.Message {
	r.conn.SetReadDeadline(time.Now().Add(timeout))
	raw, err := readMessage(r.conn)
	if err != nil {
		r.t.Fatalf("failed to read a message: %v", err)
	}
	msg, err := openflow13.Parse(raw)
	if err != nil {
		r.t.Fatalf("failed to parse a message: %v", err)
	}

	return msg
}

func (r *fakeSwitch) write(msg encoding.BinaryMarshaler) {
	b, err := msg.MarshalBinary()
	if err != nil {
		r.t.Fatalf("failed to encode a message: %v", err)
	}
	r.writeRaw(b)
}

func (r *fakeSwitch) writeRaw(b []byte) {
	r.conn.SetWriteDeadline(time.Now().Add(timeout))
	if _, err := r.conn.Write(b); err != nil {
		r.t.Fatalf("failed to write a message: %v", err)
	}
}

func (r *fakeSwitch) expectHeader(typ uint8) *common.Header {
	msg := r.read()
	v, ok := msg.(*common.Header)
	if !ok || v.Type != typ {
		r.t.Fatalf("Unexpected message: expected type=%v, got=%#v", typ, msg)
	}

	return v
}

func (r *fakeSwitch) expectClosed() {
	r.conn.SetReadDeadline(time.Now().Add(timeout))
	if _, err := readMessage(r.conn); err != io.EOF {
		r.t.Fatalf("Unexpected read result: expected=%v, got=%v", io.EOF, err)
	}
}

// handshake answers the hello and the features request of the controller.
func (r *fakeSwitch) handshake(id graph.SwitchID) {
	if _, ok := r.read().(*common.Hello); !ok {
		r.t.Fatal("Expected a hello message")
	}
	hello, err := common.NewHello(int(openflow13.VERSION))
	if err != nil {
		r.t.Fatal(err)
	}
	r.write(hello)
	r.expectHeader(openflow13.Type_FeaturesRequest)

	features := openflow13.NewFeaturesReply()
	binary.BigEndian.PutUint64(features.DPID, uint64(id))
	r.write(features)
}

func connect(t *testing.T, ctx context.Context, sessions *Sessions, s Submitter) *fakeSwitch {
	controller, sw := net.Pipe()
	sessions.AddConnection(ctx, controller, s)

	return &fakeSwitch{t: t, conn: sw}
}

// packetIn encodes a packet-in whose match has only the ingress port.
func packetIn(inPort uint32, frame []byte) []byte {
	match := []byte{
		0x00, 0x01, 0x00, 0x0c, // OXM match without the padding
		0x80, 0x00, 0x00, 0x04, // in_port of the basic class
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	binary.BigEndian.PutUint32(match[8:], inPort)

	length := headerLength + packetInFixedLength + len(match) + packetInPadLength + len(frame)
	b := make([]byte, headerLength+packetInFixedLength, length)
	b[0] = uint8(openflow13.VERSION)
	b[1] = uint8(openflow13.Type_PacketIn)
	binary.BigEndian.PutUint16(b[2:4], uint16(length))
	binary.BigEndian.PutUint32(b[4:8], 9)
	binary.BigEndian.PutUint32(b[8:12], 0xFFFFFFFF)
	binary.BigEndian.PutUint16(b[12:14], uint16(len(frame)))
	b = append(b, match...)
	b = append(b, 0x00, 0x00)

	return append(b, frame...)
}

func TestSession(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newSubmitter()
	sessions := NewSessions()
	sw := connect(t, ctx, sessions, s)
	defer sw.conn.Close()

	sw.handshake(0x10)
	if diff := cmp.Diff(SwitchConnected{ID: 0x10}, s.wait(t)); diff != "" {
		t.Fatalf("Unexpected event: %v", diff)
	}
	sender, ok := sessions.Sender(0x10)
	if !ok {
		t.Fatal("Expected the session of the switch")
	}

	sw.write(&common.Header{Version: uint8(openflow13.VERSION), Type: openflow13.Type_EchoRequest, Length: 8, Xid: 7})
	if reply := sw.expectHeader(openflow13.Type_EchoReply); reply.Xid != 7 {
		t.Fatalf("Unexpected echo reply: expected xid=7, got=%v", reply.Xid)
	}

	data := frame(t, hostA, layers.EthernetType(0x88B5))
	sw.writeRaw(packetIn(3, data))
	ev, ok := s.wait(t).(PacketIn)
	if !ok {
		t.Fatalf("Unexpected event: %v", ev)
	}
	if ev.ID != 0x10 || ev.InPort != 3 {
		t.Fatalf("Unexpected packet-in: %v", ev)
	}
	if !bytes.Equal(data, ev.Data) {
		t.Fatalf("Unexpected frame: expected=%x, got=%x", data, ev.Data)
	}

	// Messages sent by the applications go out in order.
	for i := uint32(1); i <= 3; i++ {
		if err := sender.Send(&common.Header{Version: uint8(openflow13.VERSION), Type: openflow13.Type_BarrierRequest, Length: 8, Xid: i}); err != nil {
			t.Fatal(err)
		}
	}
	for i := uint32(1); i <= 3; i++ {
		if v := sw.expectHeader(openflow13.Type_BarrierRequest); v.Xid != i {
			t.Fatalf("Unexpected message order: expected=%v, got=%v", i, v.Xid)
		}
	}

	cancel()
	sw.expectClosed()
	sessions.Wait()
	if _, ok := sessions.Sender(0x10); ok {
		t.Fatal("Unexpected session after the cancellation")
	}
	if err := sender.Send(openflow13.NewEchoRequest()); err != ErrNotConnected {
		t.Fatalf("Unexpected error: expected=%v, got=%v", ErrNotConnected, err)
	}
}

func TestSessionReplaced(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newSubmitter()
	sessions := NewSessions()

	first := connect(t, ctx, sessions, s)
	defer first.conn.Close()
	first.handshake(0x10)
	s.wait(t)

	second := connect(t, ctx, sessions, s)
	defer second.conn.Close()
	second.handshake(0x10)
	if diff := cmp.Diff(SwitchConnected{ID: 0x10}, s.wait(t)); diff != "" {
		t.Fatalf("Unexpected event: %v", diff)
	}
	// The reconnection closes the previous session.
	first.expectClosed()

	// The previous session does not unregister the new one.
	second.write(&common.Header{Version: uint8(openflow13.VERSION), Type: openflow13.Type_EchoRequest, Length: 8, Xid: 1})
	second.expectHeader(openflow13.Type_EchoReply)
	sender, ok := sessions.Sender(0x10)
	if !ok {
		t.Fatal("Expected the session of the switch")
	}
	if err := sender.Send(&common.Header{Version: uint8(openflow13.VERSION), Type: openflow13.Type_BarrierRequest, Length: 8, Xid: 2}); err != nil {
		t.Fatal(err)
	}
	second.expectHeader(openflow13.Type_BarrierRequest)

	cancel()
	second.expectClosed()
	sessions.Wait()
}

func TestSessionVersionMismatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newSubmitter()
	sessions := NewSessions()
	sw := connect(t, ctx, sessions, s)
	defer sw.conn.Close()

	sw.read()
	hello, err := common.NewHello(1)
	if err != nil {
		t.Fatal(err)
	}
	sw.write(hello)
	sw.expectClosed()
	sessions.Wait()

	if len(s.events) != 0 {
		t.Fatalf("Unexpected events: %v", len(s.events))
	}
}

func TestReadMessage(t *testing.T) {
	msg := []byte{0x04, 0x02, 0x00, 0x0a, 0x00, 0x00, 0x00, 0x01, 0xaa, 0xbb}
	got, err := readMessage(bytes.NewReader(append(msg, 0x04)))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(msg, got) {
		t.Fatalf("Unexpected message: expected=%x, got=%x", msg, got)
	}

	if _, err := readMessage(bytes.NewReader([]byte{0x04, 0x02, 0x00, 0x04, 0, 0, 0, 1})); err == nil {
		t.Fatal("Expected an error for a length shorter than the header")
	}
	if _, err := readMessage(bytes.NewReader(msg[:9])); err == nil {
		t.Fatal("Expected an error for a truncated body")
	}
}
