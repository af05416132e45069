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

package northbound

import (
	"net"
	"strings"
	"testing"

	"github.com/harmjan/l2-router/graph"
	"github.com/harmjan/l2-router/network"
	"github.com/harmjan/l2-router/openflow/openflowtest"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
)

func TestEnable(t *testing.T) {
	tests := []struct {
		apps []string
		ok   bool
	}{
		{[]string{"initializer", "broadcast", "router", "portsecurity"}, true},
		{[]string{"INITIALIZER", "Router"}, true},
		{[]string{"portsecurity"}, true},
		{[]string{"broadcast", "initializer"}, false},
		{[]string{"router"}, false},
		{[]string{"initializer", "initializer"}, false},
		{[]string{"unknown"}, false},
	}

	for _, test := range tests {
		manager := NewManager()
		var err error
		for _, v := range test.apps {
			if err = manager.Enable(v); err != nil {
				break
			}
		}
		if (err == nil) != test.ok {
			t.Fatalf("Unexpected result: apps=%v, expected=%v, err=%v", test.apps, test.ok, err)
		}
	}
}

func TestChain(t *testing.T) {
	manager := NewManager()
	for _, v := range []string{"initializer", "broadcast", "router", "portsecurity"} {
		if err := manager.Enable(v); err != nil {
			t.Fatalf("failed to enable %v: %v", v, err)
		}
	}
	if len(manager.Hosts()) != 0 {
		t.Fatalf("Unexpected hosts: %v", manager.Hosts())
	}

	transport := openflowtest.NewTransport()
	c := network.NewController(openflowtest.NewFactory(), transport)
	manager.AddEventSender(c)

	c.Process(network.SwitchJoin{ID: 1, Ports: []graph.Port{{Number: 7, HWAddr: net.HardwareAddr{0x02, 0, 0, 0, 0, 7}}}})
	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{},
		&layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 0xa},
			DstMAC:       layers.EthernetBroadcast,
			EthernetType: layers.EthernetTypeARP,
		},
		gopacket.Payload([]byte{0, 1, 2, 3}),
	)
	if err != nil {
		t.Fatal(err)
	}
	c.Process(network.PacketIn{ID: 1, InPort: 7, Data: buf.Bytes()})

	hosts := manager.Hosts()
	if len(hosts) != 1 || hosts[0].Switch != 1 || hosts[0].Port != 7 {
		t.Fatalf("Unexpected hosts: %v", hosts)
	}
	if group, ok := transport.FloodGroup(1); !ok || len(group) != 1 || group[0] != 7 {
		t.Fatalf("Unexpected flood group: ok=%v, ports=%v", ok, group)
	}

	status := manager.String()
	for _, v := range []string{"Initializer", "Broadcast", "Router", "PortSecurity"} {
		if !strings.Contains(status, v) {
			t.Fatalf("Missing %v in the status: %v", v, status)
		}
	}
}

func TestHostsWithoutRouter(t *testing.T) {
	manager := NewManager()
	if err := manager.Enable("initializer"); err != nil {
		t.Fatal(err)
	}
	if v := manager.Hosts(); v != nil {
		t.Fatalf("Unexpected hosts: %v", v)
	}
}
