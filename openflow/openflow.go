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

// Package openflow describes the forwarding programming of a switch independent of the wire encoding.
package openflow

import (
	"encoding"
	"fmt"
	"net"
)

// Table numbering of the two-stage pipeline.
const (
	// TableDestination matches destination addresses and falls back to the flood group.
	TableDestination uint8 = 0
	// TableSource suppresses already learned sources and falls back to the controller.
	TableSource uint8 = 1
)

// Tags (cookies) identifying the owner of an installed entry.
const (
	// TagBase marks the table-miss entries installed when a switch joins.
	TagBase uint64 = 1
	// TagRoute marks the learned host entries. Its low bit is shared with TagBase.
	TagRoute uint64 = 3
	// TagExact matches a single tag value.
	TagExact uint64 = 0xFFFFFFFFFFFFFFFF
)

const (
	TableMissPriority uint16 = 0
	RoutePriority     uint16 = 100
	// FloodGroup is the group every switch floods unknown destinations to.
	FloodGroup uint32 = 0
	// PortSecurityThreshold is the number of distinct source addresses a port may carry.
	PortSecurityThreshold = 8
)

// Message is an encoded control message for a switch.
type Message interface {
	encoding.BinaryMarshaler
}

// Sender delivers messages to a switch without waiting for an acknowledgment.
type Sender interface {
	Send(Message) error
}

type GroupCommand uint8

const (
	GroupAdd GroupCommand = iota
	GroupModify
	GroupDelete
)

func (r GroupCommand) String() string {
	switch r {
	case GroupAdd:
		return "add"
	case GroupModify:
		return "modify"
	case GroupDelete:
		return "delete"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

type Action uint8

const (
	// ActionDrop adds no instruction. The action set written by earlier tables still applies.
	ActionDrop Action = iota
	// ActionOutput sends the packet out the port immediately.
	ActionOutput
	// ActionNextTableOutput writes output to the port into the action set and goes to the next table.
	ActionNextTableOutput
	// ActionNextTableFlood writes the flood group into the action set and goes to the next table.
	ActionNextTableFlood
	// ActionController sends the packet to the controller.
	ActionController
)

func (r Action) String() string {
	switch r {
	case ActionDrop:
		return "drop"
	case ActionOutput:
		return "output"
	case ActionNextTableOutput:
		return "next-table-output"
	case ActionNextTableFlood:
		return "next-table-flood"
	case ActionController:
		return "controller"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// Match is a set of exact-match fields. Nil addresses are wildcards.
type Match struct {
	SrcMAC net.HardwareAddr
	DstMAC net.HardwareAddr
}

func (r Match) String() string {
	return fmt.Sprintf("src=%v, dst=%v", r.SrcMAC, r.DstMAC)
}

// Rule is a forwarding table entry.
type Rule struct {
	Table    uint8
	Priority uint16
	Tag      uint64
	Match    Match
	Action   Action
	// Port is the output port of ActionOutput and ActionNextTableOutput.
	Port uint32
}

func (r Rule) String() string {
	return fmt.Sprintf("table=%v, priority=%v, tag=%v, match={%v}, action=%v, port=%v", r.Table, r.Priority, r.Tag, r.Match, r.Action, r.Port)
}

// Factory builds the control messages of a specific protocol version.
type Factory interface {
	// NewFloodGroup builds a change of the flood group whose buckets output to ports.
	NewFloodGroup(command GroupCommand, ports []uint32) (Message, error)
	NewFlowRule(rule Rule) (Message, error)
	// NewFlowDeleteByTag builds a deletion of every entry in the table whose tag matches tag under mask.
	NewFlowDeleteByTag(table uint8, tag, mask uint64) (Message, error)
	// NewPortDisable builds an administrative port-down that also stops receiving on the port.
	NewPortDisable(port uint32, hwAddr net.HardwareAddr) (Message, error)
}
