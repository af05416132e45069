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

package protocol

import (
	"bytes"
	"net"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/pkg/errors"
)

const (
	// EtherTypeLLDP is the link layer discovery protocol.
	EtherTypeLLDP = uint16(layers.EthernetTypeLinkLayerDiscovery)
	// EtherTypeBDDP is the broadcast domain discovery protocol used by link probing across non-OpenFlow segments.
	EtherTypeBDDP = uint16(0x8942)
)

var broadcast = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// Ethernet is the part of a frame needed to learn and forward it.
type Ethernet struct {
	SrcMAC, DstMAC net.HardwareAddr
	// Type is the EtherType after any 802.1Q or 802.1ad tags.
	Type uint16
	// VLANID is the outermost VLAN identifier, zero for untagged frames.
	VLANID  uint16
	Payload []byte
}

func (r *Ethernet) UnmarshalBinary(data []byte) error {
	eth := new(layers.Ethernet)
	if err := eth.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return errors.Wrap(err, "decoding ethernet header")
	}
	r.DstMAC = eth.DstMAC
	r.SrcMAC = eth.SrcMAC
	r.Type = uint16(eth.EthernetType)
	r.VLANID = 0
	r.Payload = eth.Payload

	tagged := false
	for r.Type == uint16(layers.EthernetTypeDot1Q) || r.Type == uint16(layers.EthernetTypeQinQ) {
		tag := new(layers.Dot1Q)
		if err := tag.DecodeFromBytes(r.Payload, gopacket.NilDecodeFeedback); err != nil {
			return errors.Wrap(err, "decoding 802.1Q tag")
		}
		if !tagged {
			r.VLANID = tag.VLANIdentifier
			tagged = true
		}
		r.Type = uint16(tag.Type)
		r.Payload = tag.Payload
	}

	return nil
}

// IsDiscovery returns whether this frame is a link probing frame that must not reach host learning.
func (r *Ethernet) IsDiscovery() bool {
	return r.Type == EtherTypeLLDP || r.Type == EtherTypeBDDP
}

func (r *Ethernet) IsBroadcast() bool {
	return bytes.Equal(r.DstMAC, broadcast)
}

// IsMulticastSource returns whether the source address is a group address, which no host may use as its own.
func (r *Ethernet) IsMulticastSource() bool {
	return len(r.SrcMAC) > 0 && r.SrcMAC[0]&0x01 != 0
}
