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
	"container/list"
	"fmt"
	"maps"
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

const routeCacheSize = 1024

// Router calculates the egress port of a source switch toward every other reachable switch.
type Router struct {
	graph      *Graph
	mutex      sync.Mutex
	generation uint64
	cache      *lru.Cache
}

func NewRouter(g *Graph) *Router {
	if g == nil {
		panic("nil graph")
	}
	c, err := lru.New(routeCacheSize)
	if err != nil {
		panic(fmt.Sprintf("failed to init a LRU route cache: %v", err))
	}

	return &Router{
		graph:      g,
		generation: g.Generation(),
		cache:      c,
	}
}

// RoutesFrom returns the local egress port of src for every switch reachable from src, excluding src itself.
// Ties between equal-cost paths are broken by the adjacency order of the graph.
func (r *Router) RoutesFrom(src SwitchID) map[SwitchID]PortNo {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if gen := r.graph.Generation(); gen != r.generation {
		r.cache.Purge()
		r.generation = gen
		logger.Debugf("purged the route cache: generation=%v", gen)
	}
	if v, ok := r.cache.Get(src); ok {
		return maps.Clone(v.(map[SwitchID]PortNo))
	}

	routes, gen := r.graph.bfs(src)
	// Do not cache a result calculated from a newer graph than the cache.
	if gen == r.generation {
		r.cache.Add(src, routes)
	}

	return maps.Clone(routes)
}

// Invalidate removes all the cached routes.
func (r *Router) Invalidate() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.cache.Purge()
	logger.Debug("removed all the route caches")
}

type hop struct {
	id   SwitchID
	port PortNo
}

func (r *Graph) bfs(src SwitchID) (routes map[SwitchID]PortNo, generation uint64) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	routes = make(map[SwitchID]PortNo)
	v, ok := r.vertexies[src]
	if !ok {
		return routes, r.generation
	}

	visited := map[SwitchID]bool{src: true}
	queue := list.New()
	for _, e := range v.edges {
		if visited[e.Neighbor] {
			continue
		}
		if _, ok := r.vertexies[e.Neighbor]; !ok {
			continue
		}
		visited[e.Neighbor] = true
		routes[e.Neighbor] = e.Port
		queue.PushBack(hop{id: e.Neighbor, port: e.Port})
	}

	for queue.Len() > 0 {
		h := queue.Remove(queue.Front()).(hop)
		for _, e := range r.vertexies[h.id].edges {
			if visited[e.Neighbor] {
				continue
			}
			if _, ok := r.vertexies[e.Neighbor]; !ok {
				continue
			}
			visited[e.Neighbor] = true
			// Every switch behind the first hop inherits its egress port.
			routes[e.Neighbor] = h.port
			queue.PushBack(hop{id: e.Neighbor, port: h.port})
		}
	}

	return routes, r.generation
}
