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
	"fmt"
	"sort"
	"sync"

	"github.com/harmjan/l2-router/graph"
	"github.com/harmjan/l2-router/openflow"
	"github.com/harmjan/l2-router/protocol"

	"github.com/op/go-logging"
)

var (
	logger = logging.MustGetLogger("network")
)

type EventListener interface {
	ControllerEventListener
	TopologyEventListener
}

type ControllerEventListener interface {
	OnPacketIn(finder Finder, device *Device, inPort graph.PortNo, eth *protocol.Ethernet) error
	OnPortUp(finder Finder, device *Device, port graph.Port) error
	OnPortDown(finder Finder, device *Device, port graph.PortNo) error
	OnSwitchJoin(finder Finder, device *Device) error
	OnSwitchLeave(finder Finder, id graph.SwitchID) error
}

type TopologyEventListener interface {
	// OnTopologyChange is called when an inter-switch link is added or removed.
	OnTopologyChange(Finder) error
}

// Finder is the view of the controller state given to the event listeners.
type Finder interface {
	Device(id graph.SwitchID) (device *Device, ok bool)
	// Devices returns the devices of the known switches in ascending order of their IDs.
	Devices() []*Device
	Port(id graph.SwitchID, port graph.PortNo) (graph.Port, bool)
	// IsEdge returns whether the port faces end hosts rather than another switch.
	IsEdge(id graph.SwitchID, port graph.PortNo) bool
	FloodTree() *graph.FloodTree
	RoutesFrom(src graph.SwitchID) map[graph.SwitchID]graph.PortNo
	InvalidateRoutes()
}

// Controller owns the topology and serializes every event through a single worker.
type Controller struct {
	graph     *graph.Graph
	router    *graph.Router
	factory   openflow.Factory
	transport Transport
	events    *queue[Event]
	listener  EventListener

	mutex   sync.RWMutex
	devices map[graph.SwitchID]*Device
}

func NewController(f openflow.Factory, t Transport) *Controller {
	if f == nil {
		panic("nil factory")
	}
	if t == nil {
		panic("nil transport")
	}

	g := graph.New()
	return &Controller{
		graph:     g,
		router:    graph.NewRouter(g),
		factory:   f,
		transport: t,
		events:    newQueue[Event](),
		devices:   make(map[graph.SwitchID]*Device),
	}
}

// SetEventListener should be called before Run.
func (r *Controller) SetEventListener(l EventListener) {
	r.listener = l
}

// Submit queues the event for the worker. It never blocks.
func (r *Controller) Submit(ev Event) {
	if ev == nil {
		panic("nil event")
	}
	r.events.Push(ev)
	queueLength.Set(float64(r.events.Len()))
}

// Run processes the submitted events in order until ctx is canceled.
func (r *Controller) Run(ctx context.Context) {
	logger.Debug("started the controller worker")
	for {
		ev, ok := r.events.Pop(ctx)
		if !ok {
			logger.Debug("terminating the controller worker...")
			return
		}
		queueLength.Set(float64(r.events.Len()))
		r.Process(ev)
	}
}

// Process handles a single event on the calling goroutine. It must not run concurrently with Run.
func (r *Controller) Process(ev Event) {
	logger.Debugf("processing %v", ev)

	var err error
	switch v := ev.(type) {
	case SwitchJoin:
		err = r.onSwitchJoin(v)
	case SwitchLeave:
		err = r.onSwitchLeave(v)
	case SwitchConnected:
		err = r.onSwitchConnected(v)
	case LinkUp:
		err = r.onLinkChange(v.Link, true)
	case LinkDown:
		err = r.onLinkChange(v.Link, false)
	case PortUp:
		err = r.onPortUp(v)
	case PortDown:
		err = r.onPortDown(v)
	case PacketIn:
		err = r.onPacketIn(v)
	default:
		panic(fmt.Sprintf("unexpected event type: %T", ev))
	}

	eventsProcessed.WithLabelValues(ev.kind()).Inc()
	if err != nil {
		eventErrors.WithLabelValues(ev.kind()).Inc()
		logger.Errorf("failed to handle %v: %v", ev, err)
	}
}

func (r *Controller) onSwitchJoin(ev SwitchJoin) error {
	r.graph.AddSwitch(ev.ID, ev.Ports)

	r.mutex.Lock()
	device, ok := r.devices[ev.ID]
	if !ok {
		device = newDevice(ev.ID, r.factory, r.transport)
		r.devices[ev.ID] = device
	}
	r.mutex.Unlock()
	logger.Infof("switch joined: id=%v, ports=%v", ev.ID, len(ev.Ports))

	if r.listener == nil {
		return nil
	}
	return r.listener.OnSwitchJoin(r, device)
}

func (r *Controller) onSwitchLeave(ev SwitchLeave) error {
	known := r.graph.HasSwitch(ev.ID)
	// Purge the links pointing to this switch even if the switch itself is already gone.
	r.graph.RemoveSwitch(ev.ID)

	r.mutex.Lock()
	delete(r.devices, ev.ID)
	r.mutex.Unlock()

	if !known {
		logger.Debugf("ignoring the leave of an unknown switch: id=%v", ev.ID)
		return nil
	}
	logger.Infof("switch left: id=%v", ev.ID)

	if r.listener == nil {
		return nil
	}
	return r.listener.OnSwitchLeave(r, ev.ID)
}

// onSwitchConnected reprograms a known switch whose control channel came up after its join, or came back.
func (r *Controller) onSwitchConnected(ev SwitchConnected) error {
	device, ok := r.Device(ev.ID)
	if !ok {
		// The join of this switch will program it over the new session.
		logger.Debugf("control channel of a switch that has not joined yet: id=%v", ev.ID)
		return nil
	}
	logger.Infof("reprogramming the reconnected switch: id=%v", ev.ID)

	if r.listener == nil {
		return nil
	}
	return r.listener.OnSwitchJoin(r, device)
}

func (r *Controller) onLinkChange(link graph.Link, up bool) error {
	gen := r.graph.Generation()
	if up {
		r.graph.AddLink(link)
	} else {
		r.graph.RemoveLink(link)
	}
	if r.graph.Generation() == gen {
		logger.Debugf("topology is not changed by the link event: link=%v, up=%v", link, up)
		return nil
	}
	logger.Infof("topology changed: link=%v, up=%v", link, up)

	if r.listener == nil {
		return nil
	}
	return r.listener.OnTopologyChange(r)
}

func (r *Controller) onPortUp(ev PortUp) error {
	device, ok := r.Device(ev.ID)
	if !ok {
		logger.Debugf("ignoring a port event of an unknown switch: %v", ev)
		return nil
	}
	r.graph.AddPort(ev.ID, ev.Port)

	if r.listener == nil {
		return nil
	}
	return r.listener.OnPortUp(r, device, ev.Port)
}

func (r *Controller) onPortDown(ev PortDown) error {
	device, ok := r.Device(ev.ID)
	if !ok {
		logger.Debugf("ignoring a port event of an unknown switch: %v", ev)
		return nil
	}
	r.graph.RemovePort(ev.ID, ev.Port)

	if r.listener == nil {
		return nil
	}
	return r.listener.OnPortDown(r, device, ev.Port)
}

func (r *Controller) onPacketIn(ev PacketIn) error {
	device, ok := r.Device(ev.ID)
	if !ok {
		logger.Debugf("ignoring a packet from an unknown switch: %v", ev)
		return nil
	}

	eth := new(protocol.Ethernet)
	if err := eth.UnmarshalBinary(ev.Data); err != nil {
		logger.Debugf("ignoring a malformed packet: %v: %v", ev, err)
		return nil
	}
	// Link probing frames belong to the topology discovery.
	if eth.IsDiscovery() {
		return nil
	}

	if r.listener == nil {
		return nil
	}
	return r.listener.OnPacketIn(r, device, ev.InPort, eth)
}

func (r *Controller) Device(id graph.SwitchID) (device *Device, ok bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	device, ok = r.devices[id]
	return device, ok
}

func (r *Controller) Devices() []*Device {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*Device, 0, len(r.devices))
	for _, v := range r.devices {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })

	return result
}

func (r *Controller) Port(id graph.SwitchID, port graph.PortNo) (graph.Port, bool) {
	return r.graph.Port(id, port)
}

func (r *Controller) IsEdge(id graph.SwitchID, port graph.PortNo) bool {
	return r.graph.IsFreePort(id, port)
}

func (r *Controller) FloodTree() *graph.FloodTree {
	return r.graph.FloodTree()
}

func (r *Controller) RoutesFrom(src graph.SwitchID) map[graph.SwitchID]graph.PortNo {
	return r.router.RoutesFrom(src)
}

func (r *Controller) InvalidateRoutes() {
	r.router.Invalidate()
}

// Topology returns the graph for read-only queries.
func (r *Controller) Topology() *graph.Graph {
	return r.graph
}

func (r *Controller) String() string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Queued events: %v\n", r.events.Len()))
	for _, v := range r.Devices() {
		buf.WriteString(fmt.Sprintf("%v\n", v))
	}
	buf.WriteString(r.graph.String())

	return buf.String()
}
