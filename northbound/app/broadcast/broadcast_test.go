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

package broadcast

import (
	"net"
	"testing"

	"github.com/harmjan/l2-router/graph"
	"github.com/harmjan/l2-router/network"
	"github.com/harmjan/l2-router/northbound/app/initializer"
	"github.com/harmjan/l2-router/openflow/openflowtest"

	"github.com/google/go-cmp/cmp"
)

func ports(numbers ...graph.PortNo) []graph.Port {
	result := make([]graph.Port, 0, len(numbers))
	for _, n := range numbers {
		result = append(result, graph.Port{Number: n, HWAddr: net.HardwareAddr{0x02, 0, 0, 0, 0, byte(n)}})
	}

	return result
}

func link(c *network.Controller, up bool, src graph.SwitchID, srcPort graph.PortNo, dst graph.SwitchID, dstPort graph.PortNo) {
	for _, v := range []graph.Link{
		{Src: src, SrcPort: srcPort, Dst: dst, DstPort: dstPort},
		{Src: dst, SrcPort: dstPort, Dst: src, DstPort: srcPort},
	} {
		if up {
			c.Process(network.LinkUp{Link: v})
		} else {
			c.Process(network.LinkDown{Link: v})
		}
	}
}

// newRing connects three switches in a ring. Port 2 faces the next switch and port 1 the previous one.
func newRing() (*network.Controller, *openflowtest.Transport) {
	transport := openflowtest.NewTransport()
	c := network.NewController(openflowtest.NewFactory(), transport)
	first := initializer.New()
	first.SetNext(New())
	c.SetEventListener(first)

	for id := graph.SwitchID(1); id <= 3; id++ {
		c.Process(network.SwitchJoin{ID: id, Ports: ports(1, 2, 7)})
	}
	link(c, true, 1, 2, 2, 1)
	link(c, true, 2, 2, 3, 1)
	link(c, true, 3, 2, 1, 1)

	return c, transport
}

func checkFloodGroups(t *testing.T, transport *openflowtest.Transport, expected map[graph.SwitchID][]uint32) {
	for id, v := range expected {
		got, ok := transport.FloodGroup(id)
		if !ok {
			t.Fatalf("Missing flood group: DPID=%v", id)
		}
		if diff := cmp.Diff(v, got); diff != "" {
			t.Fatalf("Unexpected flood group: DPID=%v, %v", id, diff)
		}
	}
}

func TestRing(t *testing.T) {
	c, transport := newRing()
	checkFloodGroups(t, transport, map[graph.SwitchID][]uint32{
		1: {1, 2, 7},
		2: {1, 7},
		3: {2, 7},
	})

	// Unchanged flood ports are not sent again.
	transport.Clear()
	link(c, true, 1, 2, 2, 1)
	c.Process(network.PortUp{ID: 1, Port: ports(8)[0]})
	for id := graph.SwitchID(2); id <= 3; id++ {
		if len(transport.Messages(id)) != 0 {
			t.Fatalf("Unexpected messages: DPID=%v, %v", id, transport.Messages(id))
		}
	}
	checkFloodGroups(t, transport, map[graph.SwitchID][]uint32{1: {1, 2, 7, 8}})

	link(c, false, 3, 2, 1, 1)
	checkFloodGroups(t, transport, map[graph.SwitchID][]uint32{
		1: {1, 2, 7, 8},
		2: {1, 2, 7},
		3: {1, 2, 7},
	})

	c.Process(network.PortDown{ID: 1, Port: 8})
	checkFloodGroups(t, transport, map[graph.SwitchID][]uint32{1: {1, 2, 7}})
}

func TestSwitchRejoin(t *testing.T) {
	c, transport := newRing()

	transport.Clear()
	c.Process(network.SwitchJoin{ID: 2, Ports: ports(1, 2, 7)})
	// The initializer has recreated the group empty, so the flood ports are sent again.
	checkFloodGroups(t, transport, map[graph.SwitchID][]uint32{2: {1, 7}})
	if len(transport.Messages(1)) != 0 || len(transport.Messages(3)) != 0 {
		t.Fatalf("Unexpected messages to the other switches: %v, %v", transport.Messages(1), transport.Messages(3))
	}
}

func TestSwitchLeave(t *testing.T) {
	c, transport := newRing()

	transport.Clear()
	c.Process(network.SwitchLeave{ID: 1})
	// S2 and S3 form a line through their remaining link.
	checkFloodGroups(t, transport, map[graph.SwitchID][]uint32{
		2: {1, 2, 7},
		3: {1, 2, 7},
	})
	if len(transport.Messages(1)) != 0 {
		t.Fatalf("Unexpected messages to the removed switch: %v", transport.Messages(1))
	}
}
