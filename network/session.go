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
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/harmjan/l2-router/graph"
	"github.com/harmjan/l2-router/openflow"

	"github.com/contiv/libOpenflow/common"
	"github.com/contiv/libOpenflow/openflow13"
	"github.com/contiv/libOpenflow/util"
	"github.com/pkg/errors"
)

const (
	headerLength = 8
	// Fixed fields of a packet-in between the header and the match.
	packetInFixedLength = 16
	// Padding between the match and the frame of a packet-in.
	packetInPadLength = 2
)

// session is the OpenFlow 1.3 control channel of a switch.
type session struct {
	conn      net.Conn
	reader    *bufio.Reader
	registry  *Sessions
	submitter Submitter
	outbound  *queue[openflow.Message]
	closeOnce sync.Once
	done      chan struct{}
	// helpers tracks the writer and the closer goroutines.
	helpers sync.WaitGroup

	// id and ready belong to the reader loop. The helper goroutines never touch them.
	id    graph.SwitchID
	ready bool
}

func newSession(conn net.Conn, registry *Sessions, submitter Submitter) *session {
	if conn == nil {
		panic("nil connection")
	}
	if registry == nil {
		panic("nil session registry")
	}
	if submitter == nil {
		panic("nil event submitter")
	}

	return &session{
		conn:      conn,
		reader:    bufio.NewReaderSize(conn, 0xFFFF),
		registry:  registry,
		submitter: submitter,
		outbound:  newQueue[openflow.Message](),
		done:      make(chan struct{}),
	}
}

// Send queues msg for the connection. It never blocks.
func (r *session) Send(msg openflow.Message) error {
	select {
	case <-r.done:
		return ErrNotConnected
	default:
	}
	r.outbound.Push(msg)

	return nil
}

func (r *session) close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// Run reads the messages of the switch until the connection, the session or ctx is closed.
func (r *session) Run(ctx context.Context) {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		r.helpers.Wait()
	}()

	r.helpers.Add(2)
	go func() {
		defer r.helpers.Done()
		r.write(sessionCtx)
	}()
	go func() {
		defer r.helpers.Done()
		select {
		case <-sessionCtx.Done():
		case <-r.done:
		}
		// Unblocks the reader.
		r.conn.Close()
	}()

	hello, err := common.NewHello(int(openflow13.VERSION))
	if err != nil {
		logger.Errorf("failed to make a hello message: %v", err)
		r.cleanup()
		return
	}
	r.Send(hello)

	if err := r.serve(sessionCtx); err != nil {
		logger.Errorf("openflow session is unexpectedly closed: remote=%v, err=%v", r.conn.RemoteAddr(), err)
	}
	if r.ready {
		logger.Infof("disconnected device (DPID=%v)", r.id)
	}
	r.cleanup()
}

func (r *session) serve(ctx context.Context) error {
	for {
		raw, err := readMessage(r.reader)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-r.done:
				return nil
			default:
			}
			if errors.Cause(err) == io.EOF {
				return nil
			}
			return err
		}

		msg, err := parse(raw)
		if msg == nil {
			logger.Debugf("ignoring an undecodable message: DPID=%v, type=%v, err=%v", r.id, raw[1], err)
			continue
		}
		if err := r.handle(msg, raw); err != nil {
			return err
		}
	}
}

func (r *session) cleanup() {
	r.close()
	if r.ready {
		r.registry.pop(r.id, r)
	}
	r.conn.Close()
}

// readMessage returns the next OpenFlow message including its header.
func readMessage(rd io.Reader) ([]byte, error) {
	header := make([]byte, headerLength)
	if _, err := io.ReadFull(rd, header); err != nil {
		return nil, err
	}
	length := int(binary.BigEndian.Uint16(header[2:4]))
	if length < headerLength {
		return nil, fmt.Errorf("invalid message length: %v", length)
	}

	msg := make([]byte, length)
	copy(msg, header)
	if _, err := io.ReadFull(rd, msg[headerLength:]); err != nil {
		return nil, errors.Wrap(err, "reading a message body")
	}

	return msg, nil
}

// parse decodes raw. The decoder panics on some truncated payloads.
func parse(raw []byte) (msg util.Message, err error) {
	defer func() {
		if v := recover(); v != nil {
			msg, err = nil, fmt.Errorf("malformed message: %v", v)
		}
	}()

	return openflow13.Parse(raw)
}

func (r *session) write(ctx context.Context) {
	for {
		msg, ok := r.outbound.Pop(ctx)
		if !ok {
			return
		}
		b, err := msg.MarshalBinary()
		if err != nil {
			logger.Errorf("failed to encode a message: remote=%v, err=%v", r.conn.RemoteAddr(), err)
			continue
		}
		if _, err := r.conn.Write(b); err != nil {
			logger.Debugf("failed to write a message: remote=%v, err=%v", r.conn.RemoteAddr(), err)
			r.close()
			return
		}
	}
}

func (r *session) handle(msg util.Message, raw []byte) error {
	switch v := msg.(type) {
	case *common.Hello:
		if v.Header.Version != openflow13.VERSION {
			return fmt.Errorf("unsupported OpenFlow version: %v", v.Header.Version)
		}
		return r.Send(openflow13.NewFeaturesRequest())

	case *openflow13.SwitchFeatures:
		if len(v.DPID) != 8 {
			return fmt.Errorf("invalid datapath ID: %v", v.DPID)
		}
		if r.ready {
			logger.Debugf("ignoring a duplicated features reply: DPID=%v", r.id)
			return nil
		}
		r.id = graph.SwitchID(binary.BigEndian.Uint64(v.DPID))
		r.ready = true
		r.registry.push(r.id, r)
		logger.Infof("new device is ready: DPID=%v, remote=%v", r.id, r.conn.RemoteAddr())
		// The switch may have joined while it had no control channel.
		r.submitter.Submit(SwitchConnected{ID: r.id})

	case *common.Header:
		switch v.Type {
		case openflow13.Type_EchoRequest:
			reply := openflow13.NewEchoReply()
			reply.Xid = v.Xid
			return r.Send(reply)
		case openflow13.Type_EchoReply:
		default:
			logger.Debugf("ignoring a message: DPID=%v, type=%v", r.id, v.Type)
		}

	case *openflow13.PacketIn:
		if !r.ready {
			logger.Debug("ignoring a packet before the features reply")
			return nil
		}
		r.onPacketIn(v, raw)

	case *openflow13.ErrorMsg:
		logger.Errorf("error message from the device: DPID=%v, type=%v, code=%v", r.id, v.Type, v.Code)

	default:
		logger.Debugf("ignoring an unexpected message: DPID=%v, type=%T", r.id, msg)
	}

	return nil
}

func (r *session) onPacketIn(v *openflow13.PacketIn, raw []byte) {
	inPort, ok := packetInPort(v)
	if !ok {
		logger.Debugf("ignoring a packet without the ingress port: DPID=%v", r.id)
		return
	}
	// The frame is taken verbatim from the message instead of re-encoding the decoded one.
	offset := headerLength + packetInFixedLength + int(v.Match.Len()) + packetInPadLength
	if offset > len(raw) {
		logger.Debugf("ignoring a truncated packet-in: DPID=%v, length=%v", r.id, len(raw))
		return
	}
	data := make([]byte, len(raw)-offset)
	copy(data, raw[offset:])
	r.submitter.Submit(PacketIn{ID: r.id, InPort: graph.PortNo(inPort), Data: data})
}

func packetInPort(v *openflow13.PacketIn) (port uint32, ok bool) {
	for _, f := range v.Match.Fields {
		if f.Field != openflow13.OXM_FIELD_IN_PORT {
			continue
		}
		if p, ok := f.Value.(*openflow13.InPortField); ok {
			return p.InPort, true
		}
	}

	return 0, false
}
