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

// Package of13 builds OpenFlow 1.3 messages.
package of13

import (
	"fmt"
	"net"
	"sync/atomic"

	"github.com/harmjan/l2-router/openflow"

	"github.com/contiv/libOpenflow/openflow13"
	"github.com/pkg/errors"
)

// Concrete factory
type Factory struct {
	xid uint32
}

func NewFactory() *Factory {
	return &Factory{}
}

func (r *Factory) getTransactionID() uint32 {
	// Transaction ID will be started from 1, not 0.
	return atomic.AddUint32(&r.xid, 1)
}

func (r *Factory) NewFloodGroup(command openflow.GroupCommand, ports []uint32) (openflow.Message, error) {
	group := openflow13.NewGroupMod()
	group.Header.Xid = r.getTransactionID()
	group.Type = openflow13.OFPGT_ALL
	group.GroupId = openflow.FloodGroup

	switch command {
	case openflow.GroupAdd:
		group.Command = openflow13.OFPGC_ADD
	case openflow.GroupModify:
		group.Command = openflow13.OFPGC_MODIFY
	case openflow.GroupDelete:
		group.Command = openflow13.OFPGC_DELETE
		return group, nil
	default:
		return nil, fmt.Errorf("unknown group command: %v", command)
	}

	for _, p := range ports {
		bucket := openflow13.NewBucket()
		bucket.AddAction(openflow13.NewActionOutput(p))
		group.AddBucket(*bucket)
	}

	return group, nil
}

func (r *Factory) NewFlowRule(rule openflow.Rule) (openflow.Message, error) {
	flow := openflow13.NewFlowMod()
	flow.Header.Xid = r.getTransactionID()
	flow.Command = openflow13.FC_ADD
	flow.TableId = rule.Table
	flow.Priority = rule.Priority
	flow.Cookie = rule.Tag
	flow.CookieMask = 0

	if rule.Match.SrcMAC != nil {
		flow.Match.AddField(*openflow13.NewEthSrcField(rule.Match.SrcMAC, nil))
	}
	if rule.Match.DstMAC != nil {
		flow.Match.AddField(*openflow13.NewEthDstField(rule.Match.DstMAC, nil))
	}

	instructions, err := r.newInstructions(rule)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("building instructions of %v", rule))
	}
	for _, v := range instructions {
		flow.AddInstruction(v)
	}

	return flow, nil
}

func (r *Factory) newInstructions(rule openflow.Rule) ([]openflow13.Instruction, error) {
	switch rule.Action {
	case openflow.ActionDrop:
		return nil, nil

	case openflow.ActionOutput:
		apply := openflow13.NewInstrApplyActions()
		apply.AddAction(openflow13.NewActionOutput(rule.Port), false)
		return []openflow13.Instruction{apply}, nil

	case openflow.ActionController:
		output := openflow13.NewActionOutput(openflow13.P_CONTROLLER)
		// Send the whole packet to the controller.
		output.MaxLen = 0xffff
		apply := openflow13.NewInstrApplyActions()
		apply.AddAction(output, false)
		return []openflow13.Instruction{apply}, nil

	case openflow.ActionNextTableOutput, openflow.ActionNextTableFlood:
		if rule.Table == 0xFF {
			return nil, errors.New("no next table of the last table")
		}
		write := openflow13.NewInstrWriteActions()
		if rule.Action == openflow.ActionNextTableOutput {
			write.AddAction(openflow13.NewActionOutput(rule.Port), false)
		} else {
			write.AddAction(openflow13.NewActionGroup(openflow.FloodGroup), false)
		}
		return []openflow13.Instruction{write, openflow13.NewInstrGotoTable(rule.Table + 1)}, nil

	default:
		return nil, fmt.Errorf("unknown action: %v", rule.Action)
	}
}

func (r *Factory) NewFlowDeleteByTag(table uint8, tag, mask uint64) (openflow.Message, error) {
	flow := openflow13.NewFlowMod()
	flow.Header.Xid = r.getTransactionID()
	flow.Command = openflow13.FC_DELETE
	flow.TableId = table
	flow.Cookie = tag
	flow.CookieMask = mask
	flow.OutPort = openflow13.P_ANY
	flow.OutGroup = openflow13.OFPG_ANY

	return flow, nil
}

func (r *Factory) NewPortDisable(port uint32, hwAddr net.HardwareAddr) (openflow.Message, error) {
	if len(hwAddr) != 6 {
		return nil, fmt.Errorf("invalid hardware address of port %v: %v", port, hwAddr)
	}

	mod := openflow13.NewPortMod(int(port))
	mod.Header.Xid = r.getTransactionID()
	mod.HWAddr = hwAddr
	mod.Config = openflow13.PC_PORT_DOWN | openflow13.PC_NO_RECV
	mod.Mask = openflow13.PC_PORT_DOWN | openflow13.PC_NO_RECV

	return mod, nil
}
