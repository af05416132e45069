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

// Package router learns host locations and installs shortest-path routes towards them.
package router

import (
	"bytes"
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/harmjan/l2-router/graph"
	"github.com/harmjan/l2-router/network"
	"github.com/harmjan/l2-router/northbound/app"
	"github.com/harmjan/l2-router/openflow"
	"github.com/harmjan/l2-router/protocol"

	"github.com/op/go-logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	logger = logging.MustGetLogger("router")

	hostsLearned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "l2router",
		Name:      "hosts_learned_total",
		Help:      "Number of host addresses learned.",
	})
	anomalousMoves = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "l2router",
		Name:      "anomalous_moves_total",
		Help:      "Number of learned addresses observed at a different location.",
	})
	routeResets = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "l2router",
		Name:      "route_resets_total",
		Help:      "Number of full route rebuilds.",
	})
)

// Host is a learned attachment point of a MAC address.
type Host struct {
	MAC    net.HardwareAddr
	Switch graph.SwitchID
	Port   graph.PortNo
}

func (r Host) String() string {
	return fmt.Sprintf("MAC=%v, DPID=%v, Port=%v", r.MAC, r.Switch, r.Port)
}

type Router struct {
	app.BaseProcessor

	mutex sync.RWMutex
	// Key is the MAC address string.
	hosts map[string]Host
}

func New() *Router {
	return &Router{
		hosts: make(map[string]Host),
	}
}

func (r *Router) Name() string {
	return "Router"
}

func (r *Router) Dependencies() []string {
	return []string{"Initializer"}
}

func (r *Router) String() string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%v:\n", r.Name()))
	for _, v := range r.Hosts() {
		buf.WriteString(fmt.Sprintf("\t%v\n", v))
	}

	return buf.String()
}

// Hosts returns the learned hosts sorted by their MAC addresses.
func (r *Router) Hosts() []Host {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]Host, 0, len(r.hosts))
	for _, v := range r.hosts {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return bytes.Compare(result[i].MAC, result[j].MAC) < 0 })

	return result
}

func (r *Router) OnPacketIn(finder network.Finder, device *network.Device, inPort graph.PortNo, eth *protocol.Ethernet) error {
	// Frames relayed over inter-switch links are learned at their ingress edge instead.
	if finder.IsEdge(device.ID(), inPort) && !eth.IsMulticastSource() {
		r.learn(finder, Host{MAC: eth.SrcMAC, Switch: device.ID(), Port: inPort})
	}

	return r.BaseProcessor.OnPacketIn(finder, device, inPort, eth)
}

func (r *Router) learn(finder network.Finder, host Host) {
	r.mutex.Lock()
	prev, ok := r.hosts[host.MAC.String()]
	if !ok {
		r.hosts[host.MAC.String()] = host
	}
	r.mutex.Unlock()

	if ok {
		if prev.Switch != host.Switch || prev.Port != host.Port {
			// The learned location is kept on purpose.
			anomalousMoves.Inc()
			logger.Warningf("host moved: MAC=%v, learned=%v/%v, observed=%v/%v", host.MAC, prev.Switch, prev.Port, host.Switch, host.Port)
		}
		return
	}

	hostsLearned.Inc()
	logger.Infof("learned a new host: %v", host)
	install(finder, host)
}

// install programs the route towards the host on every known switch and stops reporting its frames.
func install(finder network.Finder, host Host) {
	if _, ok := finder.Device(host.Switch); !ok {
		logger.Debugf("skipping a host on an unknown switch: %v", host)
		return
	}

	for _, device := range finder.Devices() {
		port, ok := nextHop(finder, device.ID(), host)
		if ok {
			if err := device.InstallRoute(host.MAC, port, openflow.TagRoute); err != nil {
				logger.Errorf("failed to install a route: DPID=%v, host=%v, err=%v", device.ID(), host, err)
			}
		} else {
			logger.Debugf("unreachable host: DPID=%v, host=%v", device.ID(), host)
		}
		if err := device.InstallSuppression(host.MAC, openflow.TagRoute); err != nil {
			logger.Errorf("failed to install a suppression flow: DPID=%v, host=%v, err=%v", device.ID(), host, err)
		}
	}
}

// nextHop returns the egress port of the switch towards the host.
func nextHop(finder network.Finder, id graph.SwitchID, host Host) (graph.PortNo, bool) {
	if id == host.Switch {
		return host.Port, true
	}
	port, ok := finder.RoutesFrom(id)[host.Switch]

	return port, ok
}

// reset withdraws every route and installs them again on the current topology.
func (r *Router) reset(finder network.Finder) {
	routeResets.Inc()
	logger.Debug("rebuilding all routes...")

	for _, device := range finder.Devices() {
		for _, table := range []uint8{openflow.TableDestination, openflow.TableSource} {
			if err := device.DeleteByTag(table, openflow.TagRoute); err != nil {
				logger.Errorf("failed to remove routes: DPID=%v, table=%v, err=%v", device.ID(), table, err)
			}
		}
	}
	finder.InvalidateRoutes()

	for _, host := range r.Hosts() {
		install(finder, host)
	}
}

func (r *Router) OnTopologyChange(finder network.Finder) error {
	r.reset(finder)
	return r.BaseProcessor.OnTopologyChange(finder)
}

func (r *Router) OnSwitchJoin(finder network.Finder, device *network.Device) error {
	r.reset(finder)
	return r.BaseProcessor.OnSwitchJoin(finder, device)
}

func (r *Router) OnSwitchLeave(finder network.Finder, id graph.SwitchID) error {
	r.reset(finder)
	return r.BaseProcessor.OnSwitchLeave(finder, id)
}
