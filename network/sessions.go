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
	"bytes"
	"context"
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/harmjan/l2-router/graph"
	"github.com/harmjan/l2-router/openflow"
)

// Submitter accepts the events relayed by the switch sessions.
type Submitter interface {
	Submit(Event)
}

// Sessions keeps the established control channel of each switch.
type Sessions struct {
	mutex sync.Mutex
	elems map[graph.SwitchID]*session
	// wg tracks the running sessions.
	wg sync.WaitGroup
}

func NewSessions() *Sessions {
	return &Sessions{
		elems: make(map[graph.SwitchID]*session),
	}
}

// AddConnection runs a new OpenFlow 1.3 session over conn until the connection or ctx is closed.
func (r *Sessions) AddConnection(ctx context.Context, conn net.Conn, submitter Submitter) {
	s := newSession(conn, r, submitter)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		s.Run(ctx)
	}()
}

// Wait blocks until every session started by AddConnection has terminated.
func (r *Sessions) Wait() {
	r.wg.Wait()
}

func (r *Sessions) Sender(id graph.SwitchID) (openflow.Sender, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	s, ok := r.elems[id]
	if !ok {
		return nil, false
	}

	return s, true
}

// push registers s, and closes the previous session of the same switch if it exists.
func (r *Sessions) push(id graph.SwitchID, s *session) {
	r.mutex.Lock()
	prev, ok := r.elems[id]
	r.elems[id] = s
	connectedSessions.Set(float64(len(r.elems)))
	r.mutex.Unlock()

	if ok && prev != s {
		logger.Warningf("replacing the existing session of the same switch: id=%v", id)
		prev.close()
	}
}

// pop unregisters s only if it is still the session of the switch.
func (r *Sessions) pop(id graph.SwitchID, s *session) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.elems[id] != s {
		return
	}
	delete(r.elems, id)
	connectedSessions.Set(float64(len(r.elems)))
}

func (r *Sessions) String() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ids := make([]graph.SwitchID, 0, len(r.elems))
	for id := range r.elems {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var buf bytes.Buffer
	for _, id := range ids {
		buf.WriteString(fmt.Sprintf("Session ID=%v, Remote=%v\n", id, r.elems[id].conn.RemoteAddr()))
	}

	return buf.String()
}
