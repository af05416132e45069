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
	"slices"
)

// FloodTree is a loop-free set of flood ports per switch.
type FloodTree struct {
	links []Link
	ports map[SwitchID][]PortNo
}

// Links returns the inter-switch links selected as the spanning forest.
func (r *FloodTree) Links() []Link {
	return r.links
}

// Ports returns the flood ports of the switch in ascending order.
func (r *FloodTree) Ports(id SwitchID) []PortNo {
	return r.ports[id]
}

// Switches returns the switches covered by this tree.
func (r *FloodTree) Switches() []SwitchID {
	result := make([]SwitchID, 0, len(r.ports))
	for id := range r.ports {
		result = append(result, id)
	}
	slices.Sort(result)

	return result
}

// FloodTree computes a spanning forest of the graph using union-find over the links in switch order,
// and merges the free ports of each switch into the result. Disconnected components are not bridged.
func (r *Graph) FloodTree() *FloodTree {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	switches := r.switches()
	set := NewDisjointSet[SwitchID]()
	ports := make(map[SwitchID]map[PortNo]struct{})
	for _, id := range switches {
		set.MakeSet(id)
		ports[id] = make(map[PortNo]struct{})
	}

	links := make([]Link, 0)
	for _, id := range switches {
		for _, e := range r.vertexies[id].edges {
			if _, ok := r.vertexies[e.Neighbor]; !ok {
				continue
			}
			// Prevent a loop
			if !set.Union(id, e.Neighbor) {
				continue
			}
			ports[id][e.Port] = struct{}{}
			ports[e.Neighbor][e.NeighborPort] = struct{}{}
			links = append(links, Link{Src: id, SrcPort: e.Port, Dst: e.Neighbor, DstPort: e.NeighborPort})
		}
	}

	result := &FloodTree{
		links: links,
		ports: make(map[SwitchID][]PortNo),
	}
	for _, id := range switches {
		for _, p := range r.freePorts(r.vertexies[id]) {
			ports[id][p] = struct{}{}
		}
		v := make([]PortNo, 0, len(ports[id]))
		for p := range ports[id] {
			v = append(v, p)
		}
		slices.Sort(v)
		result.ports[id] = v
	}
	logger.Debugf("calculated a flood tree: switches=%v, links=%v", len(switches), len(links))

	return result
}
