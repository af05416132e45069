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

package network

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "l2router",
		Name:      "events_total",
		Help:      "Number of processed controller events by kind.",
	}, []string{"kind"})
	eventErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "l2router",
		Name:      "event_errors_total",
		Help:      "Number of controller events whose handling returned an error, by kind.",
	}, []string{"kind"})
	queueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "l2router",
		Name:      "event_queue_length",
		Help:      "Number of events waiting for the controller worker.",
	})
	connectedSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "l2router",
		Name:      "sessions",
		Help:      "Number of switches with an established control channel.",
	})
)
