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
	"net"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
)

func hwaddr(id SwitchID, port PortNo) net.HardwareAddr {
	return net.HardwareAddr{0x02, 0, 0, byte(id), byte(port >> 8), byte(port)}
}

func ports(id SwitchID, numbers ...PortNo) []Port {
	result := make([]Port, 0, len(numbers))
	for _, n := range numbers {
		result = append(result, Port{Number: n, HWAddr: hwaddr(id, n)})
	}

	return result
}

func connect(g *Graph, a SwitchID, aPort PortNo, b SwitchID, bPort PortNo) {
	g.AddLink(Link{Src: a, SrcPort: aPort, Dst: b, DstPort: bPort})
	g.AddLink(Link{Src: b, SrcPort: bPort, Dst: a, DstPort: aPort})
}

// newLine builds S1-S2-S3 where port 1 faces the lower switch, port 2 faces the higher one and port 7 faces a host.
func newLine() *Graph {
	g := New()
	g.AddSwitch(1, ports(1, 2, 7))
	g.AddSwitch(2, ports(2, 1, 2, 7))
	g.AddSwitch(3, ports(3, 1, 7))
	connect(g, 1, 2, 2, 1)
	connect(g, 2, 2, 3, 1)

	return g
}

func TestAddSwitchIdempotent(t *testing.T) {
	g := newLine()
	before := g.String()
	gen := g.Generation()

	g.AddSwitch(2, ports(2, 1, 2, 3, 4, 7))
	if after := g.String(); before != after {
		t.Fatalf("Unexpected graph after a duplicated switch: %v", cmp.Diff(before, after))
	}
	if g.Generation() != gen {
		t.Fatalf("Unexpected generation: expected=%v, got=%v", gen, g.Generation())
	}
}

func TestFreePorts(t *testing.T) {
	g := newLine()

	expected := map[SwitchID][]PortNo{
		1: {7},
		2: {7},
		3: {7},
	}
	for id, v := range expected {
		if diff := cmp.Diff(v, g.FreePorts(id)); diff != "" {
			t.Fatalf("Unexpected free ports of %v: %v", id, diff)
		}
	}

	// Only one direction is retracted, so the port is still used by the reverse one.
	g.RemoveLink(Link{Src: 2, SrcPort: 2, Dst: 3, DstPort: 1})
	if diff := cmp.Diff([]PortNo{7}, g.FreePorts(2)); diff != "" {
		t.Fatalf("Unexpected free ports: %v", diff)
	}
	g.RemoveLink(Link{Src: 3, SrcPort: 1, Dst: 2, DstPort: 2})
	if diff := cmp.Diff([]PortNo{2, 7}, g.FreePorts(2)); diff != "" {
		t.Fatalf("Unexpected free ports: %v", diff)
	}
	if diff := cmp.Diff([]PortNo{1, 7}, g.FreePorts(3)); diff != "" {
		t.Fatalf("Unexpected free ports: %v", diff)
	}
}

func TestAddRemovePort(t *testing.T) {
	g := newLine()

	g.AddPort(1, Port{Number: 9, HWAddr: hwaddr(1, 9)})
	if diff := cmp.Diff([]PortNo{7, 9}, g.FreePorts(1)); diff != "" {
		t.Fatalf("Unexpected free ports: %v", diff)
	}
	gen := g.Generation()
	g.RemovePort(1, 7)
	if diff := cmp.Diff([]PortNo{9}, g.FreePorts(1)); diff != "" {
		t.Fatalf("Unexpected free ports: %v", diff)
	}
	if g.Generation() != gen {
		t.Fatalf("Unexpected generation after a port change: expected=%v, got=%v", gen, g.Generation())
	}
	// Unknown switch
	g.AddPort(100, Port{Number: 1})
	g.RemovePort(100, 1)
	if g.HasSwitch(100) {
		t.Fatal("Unexpected switch created by a port event")
	}
}

func TestRemoveSwitch(t *testing.T) {
	g := newLine()

	g.RemoveSwitch(3)
	if g.HasSwitch(3) {
		t.Fatal("Expected switch 3 to be removed")
	}
	for _, e := range g.Neighbors(2) {
		if e.Neighbor == 3 {
			t.Fatalf("Unexpected adjacency to the removed switch: %v", spew.Sdump(g.Neighbors(2)))
		}
	}
	if diff := cmp.Diff([]PortNo{2, 7}, g.FreePorts(2)); diff != "" {
		t.Fatalf("Unexpected free ports: %v", diff)
	}

	// Removing twice and late link-down notifications are harmless.
	before := g.String()
	gen := g.Generation()
	g.RemoveSwitch(3)
	g.RemoveLink(Link{Src: 2, SrcPort: 2, Dst: 3, DstPort: 1})
	g.RemoveLink(Link{Src: 3, SrcPort: 1, Dst: 2, DstPort: 2})
	if after := g.String(); before != after {
		t.Fatalf("Unexpected graph: %v", cmp.Diff(before, after))
	}
	if g.Generation() != gen {
		t.Fatalf("Unexpected generation: expected=%v, got=%v", gen, g.Generation())
	}
}

func TestUnknownSwitchLink(t *testing.T) {
	g := New()
	g.AddSwitch(1, ports(1, 1))
	gen := g.Generation()

	g.AddLink(Link{Src: 1, SrcPort: 1, Dst: 2, DstPort: 1})
	g.AddLink(Link{Src: 2, SrcPort: 1, Dst: 1, DstPort: 1})
	if len(g.Neighbors(1)) != 0 {
		t.Fatalf("Unexpected adjacency: %v", spew.Sdump(g.Neighbors(1)))
	}
	if g.Generation() != gen {
		t.Fatalf("Unexpected generation: expected=%v, got=%v", gen, g.Generation())
	}
}

func TestNeighborsCopyOnWrite(t *testing.T) {
	g := newLine()

	old := g.Neighbors(2)
	g.RemoveLink(Link{Src: 2, SrcPort: 1, Dst: 1, DstPort: 2})
	expected := []Adjacency{
		{Port: 1, Neighbor: 1, NeighborPort: 2},
		{Port: 2, Neighbor: 3, NeighborPort: 1},
	}
	if diff := cmp.Diff(expected, old); diff != "" {
		t.Fatalf("Previously returned adjacency has been modified: %v", diff)
	}
	if diff := cmp.Diff(expected[1:], g.Neighbors(2)); diff != "" {
		t.Fatalf("Unexpected adjacency: %v", diff)
	}
}
