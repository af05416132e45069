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
	"fmt"

	"github.com/harmjan/l2-router/graph"
)

// Event is one of the topology or data-plane notifications handled by the controller.
type Event interface {
	fmt.Stringer
	// kind is the metric label of the event.
	kind() string
}

type SwitchJoin struct {
	ID    graph.SwitchID
	Ports []graph.Port
}

func (r SwitchJoin) kind() string { return "switch_join" }

func (r SwitchJoin) String() string {
	return fmt.Sprintf("SwitchJoin(id=%v, ports=%v)", r.ID, len(r.Ports))
}

type SwitchLeave struct {
	ID graph.SwitchID
}

func (r SwitchLeave) kind() string { return "switch_leave" }

func (r SwitchLeave) String() string {
	return fmt.Sprintf("SwitchLeave(id=%v)", r.ID)
}

// SwitchConnected reports that the control channel of a switch has completed the handshake.
type SwitchConnected struct {
	ID graph.SwitchID
}

func (r SwitchConnected) kind() string { return "switch_connected" }

func (r SwitchConnected) String() string {
	return fmt.Sprintf("SwitchConnected(id=%v)", r.ID)
}

type LinkUp struct {
	Link graph.Link
}

func (r LinkUp) kind() string { return "link_up" }

func (r LinkUp) String() string {
	return fmt.Sprintf("LinkUp(%v)", r.Link)
}

type LinkDown struct {
	Link graph.Link
}

func (r LinkDown) kind() string { return "link_down" }

func (r LinkDown) String() string {
	return fmt.Sprintf("LinkDown(%v)", r.Link)
}

type PortUp struct {
	ID   graph.SwitchID
	Port graph.Port
}

func (r PortUp) kind() string { return "port_up" }

func (r PortUp) String() string {
	return fmt.Sprintf("PortUp(id=%v, port=%v, hwaddr=%v)", r.ID, r.Port.Number, r.Port.HWAddr)
}

type PortDown struct {
	ID   graph.SwitchID
	Port graph.PortNo
}

func (r PortDown) kind() string { return "port_down" }

func (r PortDown) String() string {
	return fmt.Sprintf("PortDown(id=%v, port=%v)", r.ID, r.Port)
}

// PacketIn is the first packet of a flow relayed by a switch.
type PacketIn struct {
	ID     graph.SwitchID
	InPort graph.PortNo
	Data   []byte
}

func (r PacketIn) kind() string { return "packet_in" }

func (r PacketIn) String() string {
	return fmt.Sprintf("PacketIn(id=%v, inPort=%v, length=%v)", r.ID, r.InPort, len(r.Data))
}
