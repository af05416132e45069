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
	"net"

	"github.com/harmjan/l2-router/graph"
	"github.com/harmjan/l2-router/openflow"

	"github.com/pkg/errors"
)

var (
	ErrNotConnected = errors.New("not connected device")
)

// Transport finds the control channel of a switch.
type Transport interface {
	Sender(id graph.SwitchID) (openflow.Sender, bool)
}

// Device programs the forwarding tables and the flood group of a switch.
type Device struct {
	id        graph.SwitchID
	factory   openflow.Factory
	transport Transport
}

func newDevice(id graph.SwitchID, f openflow.Factory, t Transport) *Device {
	return &Device{
		id:        id,
		factory:   f,
		transport: t,
	}
}

func (r *Device) String() string {
	_, connected := r.transport.Sender(r.id)
	return fmt.Sprintf("Device ID=%v, Connected=%v", r.id, connected)
}

func (r *Device) ID() graph.SwitchID {
	return r.id
}

func (r *Device) Factory() openflow.Factory {
	return r.factory
}

// SendMessage hands msg to the control channel of the switch without waiting for its delivery.
func (r *Device) SendMessage(msg openflow.Message) error {
	if msg == nil {
		panic("Message is nil")
	}

	s, ok := r.transport.Sender(r.id)
	if !ok {
		return ErrNotConnected
	}

	return s.Send(msg)
}

func (r *Device) send(msg openflow.Message, err error) error {
	if err != nil {
		return errors.Wrap(err, "building a message")
	}

	return r.SendMessage(msg)
}

func toUint32(ports []graph.PortNo) []uint32 {
	result := make([]uint32, len(ports))
	for i, p := range ports {
		result[i] = uint32(p)
	}

	return result
}

// InstallFloodGroup creates the flood group from scratch with the ports.
func (r *Device) InstallFloodGroup(ports []graph.PortNo) error {
	// The group may survive from a previous session of this switch.
	if err := r.send(r.factory.NewFloodGroup(openflow.GroupDelete, nil)); err != nil {
		return err
	}

	return r.send(r.factory.NewFloodGroup(openflow.GroupAdd, toUint32(ports)))
}

// ReplaceFloodGroup modifies the existing flood group in place.
func (r *Device) ReplaceFloodGroup(ports []graph.PortNo) error {
	return r.send(r.factory.NewFloodGroup(openflow.GroupModify, toUint32(ports)))
}

// InstallTableMiss installs the fallbacks of both tables: flood unknown destinations and report unknown sources.
func (r *Device) InstallTableMiss() error {
	rules := []openflow.Rule{
		{
			Table:    openflow.TableDestination,
			Priority: openflow.TableMissPriority,
			Tag:      openflow.TagBase,
			Action:   openflow.ActionNextTableFlood,
		},
		{
			Table:    openflow.TableSource,
			Priority: openflow.TableMissPriority,
			Tag:      openflow.TagBase,
			Action:   openflow.ActionController,
		},
	}
	for _, v := range rules {
		if err := r.InstallRule(v); err != nil {
			return err
		}
	}

	return nil
}

func (r *Device) InstallRule(rule openflow.Rule) error {
	return r.send(r.factory.NewFlowRule(rule))
}

// InstallRoute forwards frames destined to mac out the port, and lets the next table decide whether to report them.
func (r *Device) InstallRoute(mac net.HardwareAddr, port graph.PortNo, tag uint64) error {
	return r.InstallRule(openflow.Rule{
		Table:    openflow.TableDestination,
		Priority: openflow.RoutePriority,
		Tag:      tag,
		Match:    openflow.Match{DstMAC: mac},
		Action:   openflow.ActionNextTableOutput,
		Port:     uint32(port),
	})
}

// InstallSuppression stops reporting frames sourced from mac to the controller.
func (r *Device) InstallSuppression(mac net.HardwareAddr, tag uint64) error {
	return r.InstallRule(openflow.Rule{
		Table:    openflow.TableSource,
		Priority: openflow.RoutePriority,
		Tag:      tag,
		Match:    openflow.Match{SrcMAC: mac},
		Action:   openflow.ActionDrop,
	})
}

// DeleteByTag removes the entries of the table carrying exactly the tag.
func (r *Device) DeleteByTag(table uint8, tag uint64) error {
	return r.send(r.factory.NewFlowDeleteByTag(table, tag, openflow.TagExact))
}

// DeleteByTagBits removes the entries of the table whose tag has all the bits of tag set.
func (r *Device) DeleteByTagBits(table uint8, tag uint64) error {
	return r.send(r.factory.NewFlowDeleteByTag(table, tag, tag))
}

// DisablePort shuts the port down administratively.
func (r *Device) DisablePort(port graph.Port) error {
	return r.send(r.factory.NewPortDisable(uint32(port.Number), port.HWAddr))
}
