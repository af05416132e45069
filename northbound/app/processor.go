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

package app

import (
	"github.com/harmjan/l2-router/graph"
	"github.com/harmjan/l2-router/network"
	"github.com/harmjan/l2-router/protocol"
)

// Processor is a link of the application chain. Every processor is executed by the single controller worker.
type Processor interface {
	network.EventListener
	Init() error
	// Name returns the application name that is globally unique
	Name() string
	// Dependencies returns the names of the applications that should be enabled before this one.
	Dependencies() []string
	Next() (next Processor, ok bool)
	SetNext(Processor)
}

type BaseProcessor struct {
	next Processor
}

func (r *BaseProcessor) Init() error {
	return nil
}

func (r *BaseProcessor) Name() string {
	return "BaseProcessor"
}

func (r *BaseProcessor) Dependencies() []string {
	return nil
}

func (r *BaseProcessor) OnPacketIn(finder network.Finder, device *network.Device, inPort graph.PortNo, eth *protocol.Ethernet) error {
	// Do nothing and execute the next processor if it exists
	next, ok := r.Next()
	if !ok {
		return nil
	}
	return next.OnPacketIn(finder, device, inPort, eth)
}

func (r *BaseProcessor) OnSwitchJoin(finder network.Finder, device *network.Device) error {
	// Do nothing and execute the next processor if it exists
	next, ok := r.Next()
	if !ok {
		return nil
	}
	return next.OnSwitchJoin(finder, device)
}

func (r *BaseProcessor) OnSwitchLeave(finder network.Finder, id graph.SwitchID) error {
	// Do nothing and execute the next processor if it exists
	next, ok := r.Next()
	if !ok {
		return nil
	}
	return next.OnSwitchLeave(finder, id)
}

func (r *BaseProcessor) OnPortUp(finder network.Finder, device *network.Device, port graph.Port) error {
	// Do nothing and execute the next processor if it exists
	next, ok := r.Next()
	if !ok {
		return nil
	}
	return next.OnPortUp(finder, device, port)
}

func (r *BaseProcessor) OnPortDown(finder network.Finder, device *network.Device, port graph.PortNo) error {
	// Do nothing and execute the next processor if it exists
	next, ok := r.Next()
	if !ok {
		return nil
	}
	return next.OnPortDown(finder, device, port)
}

func (r *BaseProcessor) OnTopologyChange(finder network.Finder) error {
	// Do nothing and execute the next processor if it exists
	next, ok := r.Next()
	if !ok {
		return nil
	}
	return next.OnTopologyChange(finder)
}

func (r *BaseProcessor) Next() (next Processor, ok bool) {
	if r.next != nil {
		return r.next, true
	}

	return nil, false
}

func (r *BaseProcessor) SetNext(next Processor) {
	r.next = next
}
