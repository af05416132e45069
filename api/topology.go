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

package api

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"

	"github.com/harmjan/l2-router/graph"
	"github.com/harmjan/l2-router/network"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/davecgh/go-spew/spew"
)

type portParam struct {
	Number uint32 `json:"number"`
	HWAddr string `json:"hw_addr"`
}

func (r portParam) toPort() (graph.Port, error) {
	if r.Number == 0 {
		return graph.Port{}, fmt.Errorf("invalid port number: %v", r.Number)
	}
	mac, err := net.ParseMAC(r.HWAddr)
	if err != nil {
		return graph.Port{}, err
	}
	if len(mac) != 6 {
		return graph.Port{}, fmt.Errorf("invalid hardware address: %v", r.HWAddr)
	}

	return graph.Port{Number: graph.PortNo(r.Number), HWAddr: mac}, nil
}

type switchParam struct {
	ID    graph.SwitchID
	Ports []graph.Port
}

func (r *switchParam) UnmarshalJSON(data []byte) error {
	v := struct {
		DPID  uint64      `json:"dpid"`
		Ports []portParam `json:"ports"`
	}{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	r.ID = graph.SwitchID(v.DPID)
	r.Ports = make([]graph.Port, 0, len(v.Ports))
	for _, p := range v.Ports {
		port, err := p.toPort()
		if err != nil {
			return err
		}
		r.Ports = append(r.Ports, port)
	}

	return nil
}

func (r *Server) addSwitch(w rest.ResponseWriter, req *rest.Request) {
	p := new(switchParam)
	if err := req.DecodeJsonPayload(p); err != nil {
		w.WriteJson(Response{Status: StatusInvalidParameter, Message: err.Error()})
		return
	}
	logger.Debugf("add switch request from %v: %v", req.RemoteAddr, spew.Sdump(p))

	r.Controller.Submit(network.SwitchJoin{ID: p.ID, Ports: p.Ports})
	w.WriteJson(Response{Status: StatusOkay})
}

func parseDPID(s string) (graph.SwitchID, error) {
	// Accept both the decimal and the 0x prefixed hexadecimal notation.
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid DPID: %v", s)
	}

	return graph.SwitchID(v), nil
}

func (r *Server) removeSwitch(w rest.ResponseWriter, req *rest.Request) {
	id, err := parseDPID(req.PathParam("dpid"))
	if err != nil {
		w.WriteJson(Response{Status: StatusInvalidParameter, Message: err.Error()})
		return
	}
	logger.Debugf("remove switch request from %v: DPID=%v", req.RemoteAddr, id)

	r.Controller.Submit(network.SwitchLeave{ID: id})
	w.WriteJson(Response{Status: StatusOkay})
}

type linkParam struct {
	graph.Link
}

func (r *linkParam) UnmarshalJSON(data []byte) error {
	v := struct {
		SrcDPID uint64 `json:"src_dpid"`
		SrcPort uint32 `json:"src_port"`
		DstDPID uint64 `json:"dst_dpid"`
		DstPort uint32 `json:"dst_port"`
	}{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.SrcPort == 0 || v.DstPort == 0 {
		return fmt.Errorf("invalid port number: src=%v, dst=%v", v.SrcPort, v.DstPort)
	}
	if v.SrcDPID == v.DstDPID {
		return fmt.Errorf("self-loop link: DPID=%v", v.SrcDPID)
	}

	r.Link = graph.Link{
		Src:     graph.SwitchID(v.SrcDPID),
		SrcPort: graph.PortNo(v.SrcPort),
		Dst:     graph.SwitchID(v.DstDPID),
		DstPort: graph.PortNo(v.DstPort),
	}

	return nil
}

func (r *Server) addLink(w rest.ResponseWriter, req *rest.Request) {
	p := new(linkParam)
	if err := req.DecodeJsonPayload(p); err != nil {
		w.WriteJson(Response{Status: StatusInvalidParameter, Message: err.Error()})
		return
	}
	logger.Debugf("add link request from %v: %v", req.RemoteAddr, p.Link)

	r.Controller.Submit(network.LinkUp{Link: p.Link})
	w.WriteJson(Response{Status: StatusOkay})
}

func (r *Server) removeLink(w rest.ResponseWriter, req *rest.Request) {
	p := new(linkParam)
	if err := req.DecodeJsonPayload(p); err != nil {
		w.WriteJson(Response{Status: StatusInvalidParameter, Message: err.Error()})
		return
	}
	logger.Debugf("remove link request from %v: %v", req.RemoteAddr, p.Link)

	r.Controller.Submit(network.LinkDown{Link: p.Link})
	w.WriteJson(Response{Status: StatusOkay})
}

type addPortParam struct {
	ID   graph.SwitchID
	Port graph.Port
}

func (r *addPortParam) UnmarshalJSON(data []byte) error {
	v := struct {
		DPID uint64 `json:"dpid"`
		portParam
	}{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	port, err := v.portParam.toPort()
	if err != nil {
		return err
	}
	r.ID = graph.SwitchID(v.DPID)
	r.Port = port

	return nil
}

func (r *Server) addPort(w rest.ResponseWriter, req *rest.Request) {
	p := new(addPortParam)
	if err := req.DecodeJsonPayload(p); err != nil {
		w.WriteJson(Response{Status: StatusInvalidParameter, Message: err.Error()})
		return
	}
	logger.Debugf("add port request from %v: %v", req.RemoteAddr, spew.Sdump(p))

	r.Controller.Submit(network.PortUp{ID: p.ID, Port: p.Port})
	w.WriteJson(Response{Status: StatusOkay})
}

func (r *Server) removePort(w rest.ResponseWriter, req *rest.Request) {
	id, err := parseDPID(req.PathParam("dpid"))
	if err != nil {
		w.WriteJson(Response{Status: StatusInvalidParameter, Message: err.Error()})
		return
	}
	port, err := strconv.ParseUint(req.PathParam("port"), 10, 32)
	if err != nil || port == 0 {
		w.WriteJson(Response{Status: StatusInvalidParameter, Message: fmt.Sprintf("invalid port number: %v", req.PathParam("port"))})
		return
	}
	logger.Debugf("remove port request from %v: DPID=%v, port=%v", req.RemoteAddr, id, port)

	r.Controller.Submit(network.PortDown{ID: id, Port: graph.PortNo(port)})
	w.WriteJson(Response{Status: StatusOkay})
}
