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

// Package api exposes the topology ingestion and the status of the controller over REST.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/harmjan/l2-router/graph"
	"github.com/harmjan/l2-router/network"
	"github.com/harmjan/l2-router/northbound/app/router"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/op/go-logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	logger = logging.MustGetLogger("api")
)

type Server struct {
	Port uint16
	TLS  struct {
		Cert string // Path for a TLS certification file.
		Key  string // Path for a TLS private key file.
	}
	Controller Controller
	Hosts      HostFinder
}

type Controller interface {
	Submit(network.Event)
	Topology() *graph.Graph
	FloodTree() *graph.FloodTree
	RoutesFrom(src graph.SwitchID) map[graph.SwitchID]graph.PortNo
}

type HostFinder interface {
	Hosts() []router.Host
}

func (r *Server) validate() error {
	if r.Controller == nil {
		return errors.New("nil controller")
	}
	if r.Hosts == nil {
		return errors.New("nil host finder")
	}

	return nil
}

// Handler returns the REST API under /api/ and the Prometheus metrics under /metrics.
func (r *Server) Handler() (http.Handler, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	api := rest.NewApi()
	// Middleware to set the CORS header.
	api.Use(rest.MiddlewareSimple(func(handler rest.HandlerFunc) rest.HandlerFunc {
		return func(writer rest.ResponseWriter, request *rest.Request) {
			writer.Header().Set("Access-Control-Allow-Origin", "*")
			handler(writer, request)
		}
	}))
	routes, err := rest.MakeRouter(
		rest.Post("/api/v1/switch", r.addSwitch),
		rest.Delete("/api/v1/switch/:dpid", r.removeSwitch),
		rest.Get("/api/v1/switch", r.listSwitches),
		rest.Post("/api/v1/link", r.addLink),
		rest.Delete("/api/v1/link", r.removeLink),
		rest.Post("/api/v1/port", r.addPort),
		rest.Delete("/api/v1/port/:dpid/:port", r.removePort),
		rest.Get("/api/v1/route/:dpid", r.listRoutes),
		rest.Get("/api/v1/host", r.listHosts),
	)
	if err != nil {
		return nil, err
	}
	api.SetApp(routes)

	mux := http.NewServeMux()
	mux.Handle("/api/", api.MakeHandler())
	mux.Handle("/metrics", promhttp.Handler())

	return mux, nil
}

func (r *Server) Serve() error {
	handler, err := r.Handler()
	if err != nil {
		return err
	}

	// Listen on all interfaces.
	addr := fmt.Sprintf(":%v", r.Port)
	logger.Infof("serving the REST API on %v", addr)
	if r.TLS.Cert != "" && r.TLS.Key != "" {
		err = http.ListenAndServeTLS(addr, r.TLS.Cert, r.TLS.Key, handler)
	} else {
		err = http.ListenAndServe(addr, handler)
	}

	return err
}
