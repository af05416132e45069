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

// Package portsecurity disables ports that expose too many distinct source addresses.
package portsecurity

import (
	"fmt"
	"sync"

	"github.com/harmjan/l2-router/graph"
	"github.com/harmjan/l2-router/network"
	"github.com/harmjan/l2-router/northbound/app"
	"github.com/harmjan/l2-router/openflow"
	"github.com/harmjan/l2-router/protocol"

	"github.com/op/go-logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/spf13/viper"
)

var (
	logger = logging.MustGetLogger("portsecurity")

	portsDisabled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "l2router",
		Name:      "ports_disabled_total",
		Help:      "Number of ports disabled by the port security.",
	})
)

type key struct {
	id   graph.SwitchID
	port graph.PortNo
}

type observation struct {
	addrs    map[string]struct{}
	disabled bool
}

type PortSecurity struct {
	app.BaseProcessor
	// edgeOnly limits the observation to the host-facing ports.
	edgeOnly bool

	// Guards ports against the status dump.
	mutex sync.Mutex
	ports map[key]*observation
}

func New() *PortSecurity {
	return &PortSecurity{
		ports: make(map[key]*observation),
	}
}

func (r *PortSecurity) Init() error {
	r.edgeOnly = viper.GetBool("port_security.edge_only")
	return nil
}

func (r *PortSecurity) Name() string {
	return "PortSecurity"
}

func (r *PortSecurity) String() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	disabled := 0
	for _, v := range r.ports {
		if v.disabled {
			disabled++
		}
	}

	return fmt.Sprintf("%v: observed ports=%v, disabled=%v, edge only=%v", r.Name(), len(r.ports), disabled, r.edgeOnly)
}

func (r *PortSecurity) OnPacketIn(finder network.Finder, device *network.Device, inPort graph.PortNo, eth *protocol.Ethernet) error {
	if !r.edgeOnly || finder.IsEdge(device.ID(), inPort) {
		r.observe(finder, device, inPort, eth.SrcMAC.String())
	}

	return r.BaseProcessor.OnPacketIn(finder, device, inPort, eth)
}

func (r *PortSecurity) observe(finder network.Finder, device *network.Device, inPort graph.PortNo, addr string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	k := key{id: device.ID(), port: inPort}
	o, ok := r.ports[k]
	if !ok {
		o = &observation{addrs: make(map[string]struct{})}
		r.ports[k] = o
	}
	if o.disabled {
		return
	}
	if _, ok := o.addrs[addr]; ok {
		return
	}
	o.addrs[addr] = struct{}{}
	if len(o.addrs) <= openflow.PortSecurityThreshold {
		return
	}

	// No more disable messages until the port is reset.
	o.disabled = true
	port, ok := finder.Port(device.ID(), inPort)
	if !ok {
		logger.Errorf("failed to disable an unknown port: DPID=%v, port=%v", device.ID(), inPort)
		return
	}
	logger.Warningf("disabling the port: DPID=%v, port=%v, addresses=%v", device.ID(), inPort, len(o.addrs))
	if err := device.DisablePort(port); err != nil {
		logger.Errorf("failed to disable the port: DPID=%v, port=%v, err=%v", device.ID(), inPort, err)
		return
	}
	portsDisabled.Inc()
}

func (r *PortSecurity) reset(id graph.SwitchID, port graph.PortNo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.ports, key{id: id, port: port})
}

func (r *PortSecurity) OnPortUp(finder network.Finder, device *network.Device, port graph.Port) error {
	r.reset(device.ID(), port.Number)
	return r.BaseProcessor.OnPortUp(finder, device, port)
}

func (r *PortSecurity) OnPortDown(finder network.Finder, device *network.Device, port graph.PortNo) error {
	r.reset(device.ID(), port)
	return r.BaseProcessor.OnPortDown(finder, device, port)
}

func (r *PortSecurity) OnSwitchLeave(finder network.Finder, id graph.SwitchID) error {
	r.mutex.Lock()
	for k := range r.ports {
		if k.id == id {
			delete(r.ports, k)
		}
	}
	r.mutex.Unlock()

	return r.BaseProcessor.OnSwitchLeave(finder, id)
}
