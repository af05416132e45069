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
	"sort"

	"github.com/harmjan/l2-router/graph"

	"github.com/ant0ine/go-json-rest/rest"
)

type port struct {
	Number graph.PortNo `json:"number"`
	HWAddr string       `json:"hw_addr"`
}

type switchStatus struct {
	DPID       string         `json:"dpid"`
	Ports      []port         `json:"ports"`
	FreePorts  []graph.PortNo `json:"free_ports"`
	FloodPorts []graph.PortNo `json:"flood_ports"`
}

func (r *Server) listSwitches(w rest.ResponseWriter, req *rest.Request) {
	logger.Debugf("switch list request from %v", req.RemoteAddr)

	topo := r.Controller.Topology()
	tree := r.Controller.FloodTree()
	result := make([]switchStatus, 0)
	for _, id := range topo.Switches() {
		v := switchStatus{
			DPID:       id.String(),
			Ports:      make([]port, 0),
			FreePorts:  topo.FreePorts(id),
			FloodPorts: tree.Ports(id),
		}
		for _, p := range topo.Ports(id) {
			v.Ports = append(v.Ports, port{Number: p.Number, HWAddr: p.HWAddr.String()})
		}
		result = append(result, v)
	}

	w.WriteJson(Response{Status: StatusOkay, Data: result})
}

type route struct {
	DPID string       `json:"dpid"`
	Port graph.PortNo `json:"port"`
}

func (r *Server) listRoutes(w rest.ResponseWriter, req *rest.Request) {
	id, err := parseDPID(req.PathParam("dpid"))
	if err != nil {
		w.WriteJson(Response{Status: StatusInvalidParameter, Message: err.Error()})
		return
	}
	logger.Debugf("route list request from %v: DPID=%v", req.RemoteAddr, id)

	if !r.Controller.Topology().HasSwitch(id) {
		w.WriteJson(Response{Status: StatusNotFound, Message: "unknown switch"})
		return
	}
	result := make([]route, 0)
	for dst, p := range r.Controller.RoutesFrom(id) {
		result = append(result, route{DPID: dst.String(), Port: p})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DPID < result[j].DPID })

	w.WriteJson(Response{Status: StatusOkay, Data: result})
}

type host struct {
	MAC  string       `json:"mac"`
	DPID string       `json:"dpid"`
	Port graph.PortNo `json:"port"`
}

func (r *Server) listHosts(w rest.ResponseWriter, req *rest.Request) {
	logger.Debugf("host list request from %v", req.RemoteAddr)

	result := make([]host, 0)
	for _, v := range r.Hosts.Hosts() {
		result = append(result, host{MAC: v.MAC.String(), DPID: v.Switch.String(), Port: v.Port})
	}

	w.WriteJson(Response{Status: StatusOkay, Data: result})
}
