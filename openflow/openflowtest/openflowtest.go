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

// Package openflowtest provides a recording factory and transport for tests of the forwarding programming.
package openflowtest

import (
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/harmjan/l2-router/graph"
	"github.com/harmjan/l2-router/openflow"
)

type Kind string

const (
	KindGroup       Kind = "group"
	KindFlow        Kind = "flow"
	KindDelete      Kind = "delete"
	KindPortDisable Kind = "port-disable"
)

// Message is a decoded control message.
type Message struct {
	Kind Kind
	// KindGroup
	Command openflow.GroupCommand
	Ports   []uint32
	// KindFlow
	Rule openflow.Rule
	// KindDelete
	Table     uint8
	Tag, Mask uint64
	// KindPortDisable
	Port   uint32
	HWAddr net.HardwareAddr
}

func (r *Message) String() string {
	switch r.Kind {
	case KindGroup:
		return fmt.Sprintf("group %v ports=%v", r.Command, r.Ports)
	case KindFlow:
		return fmt.Sprintf("flow %v", r.Rule)
	case KindDelete:
		return fmt.Sprintf("delete table=%v, tag=%v, mask=%x", r.Table, r.Tag, r.Mask)
	case KindPortDisable:
		return fmt.Sprintf("port-disable port=%v, hwaddr=%v", r.Port, r.HWAddr)
	default:
		return string(r.Kind)
	}
}

func (r *Message) MarshalBinary() ([]byte, error) {
	return []byte(r.String()), nil
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (r *Factory) NewFloodGroup(command openflow.GroupCommand, ports []uint32) (openflow.Message, error) {
	return &Message{Kind: KindGroup, Command: command, Ports: append([]uint32{}, ports...)}, nil
}

func (r *Factory) NewFlowRule(rule openflow.Rule) (openflow.Message, error) {
	return &Message{Kind: KindFlow, Rule: rule}, nil
}

func (r *Factory) NewFlowDeleteByTag(table uint8, tag, mask uint64) (openflow.Message, error) {
	return &Message{Kind: KindDelete, Table: table, Tag: tag, Mask: mask}, nil
}

func (r *Factory) NewPortDisable(port uint32, hwAddr net.HardwareAddr) (openflow.Message, error) {
	if len(hwAddr) != 6 {
		return nil, fmt.Errorf("invalid hardware address: %v", hwAddr)
	}
	return &Message{Kind: KindPortDisable, Port: port, HWAddr: hwAddr}, nil
}

// Transport records the messages sent to each switch. Every switch is connected unless disconnected.
type Transport struct {
	mutex        sync.Mutex
	disconnected map[graph.SwitchID]bool
	messages     map[graph.SwitchID][]*Message
}

func NewTransport() *Transport {
	return &Transport{
		disconnected: make(map[graph.SwitchID]bool),
		messages:     make(map[graph.SwitchID][]*Message),
	}
}

func (r *Transport) Sender(id graph.SwitchID) (openflow.Sender, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.disconnected[id] {
		return nil, false
	}

	return &sender{id: id, transport: r}, true
}

func (r *Transport) Disconnect(id graph.SwitchID) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.disconnected[id] = true
}

// Connect reverts Disconnect. The recorded messages are kept.
func (r *Transport) Connect(id graph.SwitchID) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.disconnected, id)
}

type sender struct {
	id        graph.SwitchID
	transport *Transport
}

func (r *sender) Send(msg openflow.Message) error {
	m, ok := msg.(*Message)
	if !ok {
		return fmt.Errorf("unexpected message type: %T", msg)
	}

	r.transport.mutex.Lock()
	defer r.transport.mutex.Unlock()
	r.transport.messages[r.id] = append(r.transport.messages[r.id], m)

	return nil
}

// Messages returns the messages sent to the switch in order.
func (r *Transport) Messages(id graph.SwitchID) []*Message {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return append([]*Message{}, r.messages[id]...)
}

// Filter returns the messages of the kind sent to the switch in order.
func (r *Transport) Filter(id graph.SwitchID, kind Kind) []*Message {
	result := make([]*Message, 0)
	for _, m := range r.Messages(id) {
		if m.Kind == kind {
			result = append(result, m)
		}
	}

	return result
}

// Clear forgets every recorded message.
func (r *Transport) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.messages = make(map[graph.SwitchID][]*Message)
}

// FlowTable replays the flow additions and deletions sent to the switch and returns the remaining entries sorted.
func (r *Transport) FlowTable(id graph.SwitchID) []openflow.Rule {
	table := make(map[string]openflow.Rule)
	for _, m := range r.Messages(id) {
		switch m.Kind {
		case KindFlow:
			// Same table, priority and match replace the existing entry.
			key := fmt.Sprintf("%v/%v/%v", m.Rule.Table, m.Rule.Priority, m.Rule.Match)
			table[key] = m.Rule
		case KindDelete:
			for key, v := range table {
				if v.Table == m.Table && v.Tag&m.Mask == m.Tag&m.Mask {
					delete(table, key)
				}
			}
		}
	}

	result := make([]openflow.Rule, 0, len(table))
	for _, v := range table {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].String() < result[j].String() })

	return result
}

// FloodGroup returns the buckets of the flood group after replaying the group changes, and whether it exists.
func (r *Transport) FloodGroup(id graph.SwitchID) (ports []uint32, ok bool) {
	for _, m := range r.Filter(id, KindGroup) {
		switch m.Command {
		case openflow.GroupAdd, openflow.GroupModify:
			ports, ok = m.Ports, true
		case openflow.GroupDelete:
			ports, ok = nil, false
		}
	}

	return ports, ok
}
