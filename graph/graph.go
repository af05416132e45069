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

package graph

import (
	"bytes"
	"fmt"
	"net"
	"slices"
	"sort"
	"sync"

	"github.com/op/go-logging"
)

var (
	logger = logging.MustGetLogger("graph")
)

// SwitchID is a datapath identifier of a switch.
type SwitchID uint64

func (r SwitchID) String() string {
	return fmt.Sprintf("%016x", uint64(r))
}

// PortNo is a port number local to a switch.
type PortNo uint32

// Port is a physical port of a switch.
type Port struct {
	Number PortNo
	HWAddr net.HardwareAddr
}

// Link is a directed inter-switch connection. The reverse direction is a different link.
type Link struct {
	Src     SwitchID
	SrcPort PortNo
	Dst     SwitchID
	DstPort PortNo
}

func (r Link) String() string {
	return fmt.Sprintf("%v/%v->%v/%v", r.Src, r.SrcPort, r.Dst, r.DstPort)
}

// Adjacency is an outgoing link seen from its source switch.
type Adjacency struct {
	Port         PortNo
	Neighbor     SwitchID
	NeighborPort PortNo
}

type vertex struct {
	ports map[PortNo]Port
	// edges is never modified in place. Every mutation replaces the slice.
	edges []Adjacency
	// links counts the known links using each local port, in either direction.
	links map[PortNo]int
}

func (r *vertex) isFree(port PortNo) bool {
	_, ok := r.ports[port]
	return ok && r.links[port] == 0
}

// Graph is the in-memory topology of switches, inter-switch links and host-facing ports.
type Graph struct {
	mutex     sync.RWMutex
	vertexies map[SwitchID]*vertex
	// generation increases whenever a switch or a link is added or removed.
	generation uint64
}

func New() *Graph {
	return &Graph{
		vertexies: make(map[SwitchID]*vertex),
	}
}

func (r *Graph) String() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var buf bytes.Buffer
	for _, id := range r.switches() {
		v := r.vertexies[id]
		buf.WriteString(fmt.Sprintf("Switch ID=%v, Ports=%v, FreePorts=%v\n", id, len(v.ports), r.freePorts(v)))
		for _, e := range v.edges {
			buf.WriteString(fmt.Sprintf("\tPort=%v -> %v/%v\n", e.Port, e.Neighbor, e.NeighborPort))
		}
	}

	return buf.String()
}

// Generation returns a counter that changes whenever a switch or a link is added or removed.
func (r *Graph) Generation() uint64 {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.generation
}

// AddSwitch adds a switch with its physical ports. Adding a known switch is a no-op.
func (r *Graph) AddSwitch(id SwitchID, ports []Port) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.vertexies[id]; ok {
		logger.Debugf("ignoring the duplicated switch: id=%v", id)
		return
	}

	v := &vertex{
		ports: make(map[PortNo]Port),
		edges: []Adjacency{},
		links: make(map[PortNo]int),
	}
	for _, p := range ports {
		v.ports[p.Number] = p
	}
	r.vertexies[id] = v
	r.generation++
	logger.Debugf("added a new switch: id=%v, ports=%v", id, len(ports))
}

// RemoveSwitch removes the switch and purges every link pointing to it. It is safe to call it repeatedly.
func (r *Graph) RemoveSwitch(id SwitchID) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	changed := false
	if v, ok := r.vertexies[id]; ok {
		for _, e := range v.edges {
			if n, ok := r.vertexies[e.Neighbor]; ok {
				n.release(e.NeighborPort)
			}
		}
		delete(r.vertexies, id)
		changed = true
	}

	// Link-down notifications may still be on the way, so purge by value.
	for _, v := range r.vertexies {
		edges := make([]Adjacency, 0, len(v.edges))
		for _, e := range v.edges {
			if e.Neighbor == id {
				v.release(e.Port)
				continue
			}
			edges = append(edges, e)
		}
		if len(edges) != len(v.edges) {
			v.edges = edges
			changed = true
		}
	}

	if changed {
		r.generation++
		logger.Debugf("removed a switch: id=%v", id)
	}
}

func (r *vertex) release(port PortNo) {
	if r.links[port] <= 1 {
		delete(r.links, port)
		return
	}
	r.links[port]--
}

// AddLink adds one direction of an inter-switch link. Links that refer to an unknown switch are ignored.
func (r *Graph) AddLink(link Link) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	src, ok1 := r.vertexies[link.Src]
	dst, ok2 := r.vertexies[link.Dst]
	if !ok1 || !ok2 {
		logger.Debugf("ignoring a link to an unknown switch: link=%v", link)
		return
	}
	adj := Adjacency{Port: link.SrcPort, Neighbor: link.Dst, NeighborPort: link.DstPort}
	if slices.Contains(src.edges, adj) {
		return
	}

	src.edges = append(slices.Clip(src.edges), adj)
	src.links[link.SrcPort]++
	dst.links[link.DstPort]++
	r.generation++
	logger.Debugf("added a new link: %v", link)
}

// RemoveLink removes one direction of an inter-switch link. Unknown links are ignored.
func (r *Graph) RemoveLink(link Link) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	src, ok := r.vertexies[link.Src]
	if !ok {
		return
	}
	adj := Adjacency{Port: link.SrcPort, Neighbor: link.Dst, NeighborPort: link.DstPort}
	idx := slices.Index(src.edges, adj)
	if idx < 0 {
		return
	}

	edges := make([]Adjacency, 0, len(src.edges)-1)
	edges = append(edges, src.edges[:idx]...)
	edges = append(edges, src.edges[idx+1:]...)
	src.edges = edges
	src.release(link.SrcPort)
	if dst, ok := r.vertexies[link.Dst]; ok {
		dst.release(link.DstPort)
	}
	r.generation++
	logger.Debugf("removed a link: %v", link)
}

// AddPort adds a physical port to a known switch. It only affects the free ports.
func (r *Graph) AddPort(id SwitchID, port Port) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	v, ok := r.vertexies[id]
	if !ok {
		return
	}
	v.ports[port.Number] = port
}

// RemovePort removes a physical port from a known switch. It only affects the free ports.
func (r *Graph) RemovePort(id SwitchID, port PortNo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	v, ok := r.vertexies[id]
	if !ok {
		return
	}
	delete(v.ports, port)
}

func (r *Graph) HasSwitch(id SwitchID) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, ok := r.vertexies[id]
	return ok
}

// Switches returns the known switches in ascending order.
func (r *Graph) Switches() []SwitchID {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.switches()
}

func (r *Graph) switches() []SwitchID {
	result := make([]SwitchID, 0, len(r.vertexies))
	for id := range r.vertexies {
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })

	return result
}

// Port returns the physical port of the switch.
func (r *Graph) Port(id SwitchID, port PortNo) (Port, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	v, ok := r.vertexies[id]
	if !ok {
		return Port{}, false
	}
	p, ok := v.ports[port]

	return p, ok
}

// Ports returns the physical ports of the switch in ascending order.
func (r *Graph) Ports(id SwitchID) []Port {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	v, ok := r.vertexies[id]
	if !ok {
		return nil
	}
	result := make([]Port, 0, len(v.ports))
	for _, p := range v.ports {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })

	return result
}

// Neighbors returns the outgoing links of the switch in the order they were added.
func (r *Graph) Neighbors(id SwitchID) []Adjacency {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	v, ok := r.vertexies[id]
	if !ok {
		return nil
	}

	return slices.Clip(v.edges)
}

// FreePorts returns the physical ports of the switch that are not part of any known link.
func (r *Graph) FreePorts(id SwitchID) []PortNo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	v, ok := r.vertexies[id]
	if !ok {
		return nil
	}

	return r.freePorts(v)
}

func (r *Graph) freePorts(v *vertex) []PortNo {
	result := make([]PortNo, 0, len(v.ports))
	for n := range v.ports {
		if v.isFree(n) {
			result = append(result, n)
		}
	}
	slices.Sort(result)

	return result
}

// IsFreePort returns whether the port is a known physical port facing end hosts.
func (r *Graph) IsFreePort(id SwitchID, port PortNo) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	v, ok := r.vertexies[id]
	if !ok {
		return false
	}

	return v.isFree(port)
}
