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

// Package broadcast keeps the flood group of every switch on a loop-free spanning forest.
package broadcast

import (
	"fmt"
	"slices"
	"sync"

	"github.com/harmjan/l2-router/graph"
	"github.com/harmjan/l2-router/network"
	"github.com/harmjan/l2-router/northbound/app"

	"github.com/op/go-logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	logger = logging.MustGetLogger("broadcast")

	groupUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "l2router",
		Name:      "flood_group_updates_total",
		Help:      "Number of flood group replacements sent to switches.",
	})
)

type Broadcast struct {
	app.BaseProcessor
	mutex sync.Mutex
	// pushed is the last flood port set sent to each switch.
	pushed map[graph.SwitchID][]graph.PortNo
}

func New() *Broadcast {
	return &Broadcast{
		pushed: make(map[graph.SwitchID][]graph.PortNo),
	}
}

func (r *Broadcast) Name() string {
	return "Broadcast"
}

func (r *Broadcast) Dependencies() []string {
	return []string{"Initializer"}
}

func (r *Broadcast) String() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return fmt.Sprintf("%v: switches=%v", r.Name(), len(r.pushed))
}

func (r *Broadcast) OnSwitchJoin(finder network.Finder, device *network.Device) error {
	// The flood group of this switch has just been recreated empty.
	r.forget(device.ID())
	r.update(finder)

	return r.BaseProcessor.OnSwitchJoin(finder, device)
}

func (r *Broadcast) OnSwitchLeave(finder network.Finder, id graph.SwitchID) error {
	r.forget(id)
	r.update(finder)

	return r.BaseProcessor.OnSwitchLeave(finder, id)
}

func (r *Broadcast) OnTopologyChange(finder network.Finder) error {
	r.update(finder)

	return r.BaseProcessor.OnTopologyChange(finder)
}

func (r *Broadcast) OnPortUp(finder network.Finder, device *network.Device, port graph.Port) error {
	r.update(finder)

	return r.BaseProcessor.OnPortUp(finder, device, port)
}

func (r *Broadcast) OnPortDown(finder network.Finder, device *network.Device, port graph.PortNo) error {
	r.update(finder)

	return r.BaseProcessor.OnPortDown(finder, device, port)
}

func (r *Broadcast) forget(id graph.SwitchID) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.pushed, id)
}

// update recalculates the flood tree and replaces the flood group of the switches whose ports have changed.
func (r *Broadcast) update(finder network.Finder) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	tree := finder.FloodTree()
	for _, device := range finder.Devices() {
		ports := tree.Ports(device.ID())
		if prev, ok := r.pushed[device.ID()]; ok && slices.Equal(prev, ports) {
			continue
		}
		if err := device.ReplaceFloodGroup(ports); err != nil {
			logger.Errorf("failed to replace the flood group: DPID=%v, err=%v", device.ID(), err)
			continue
		}
		r.pushed[device.ID()] = ports
		groupUpdates.Inc()
		logger.Infof("replaced the flood group: DPID=%v, ports=%v", device.ID(), ports)
	}
}
