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

// DisjointSet is a union-find forest over comparable identifiers.
type DisjointSet[T comparable] struct {
	parent map[T]T
	rank   map[T]int
}

func NewDisjointSet[T comparable]() *DisjointSet[T] {
	return &DisjointSet[T]{
		parent: make(map[T]T),
		rank:   make(map[T]int),
	}
}

// MakeSet adds v as a singleton set. Known elements are left untouched.
func (r *DisjointSet[T]) MakeSet(v T) {
	if _, ok := r.parent[v]; ok {
		return
	}
	r.parent[v] = v
	r.rank[v] = 0
}

// Find returns the representative of the set containing v.
func (r *DisjointSet[T]) Find(v T) (root T, ok bool) {
	if _, ok := r.parent[v]; !ok {
		return root, false
	}

	root = v
	for r.parent[root] != root {
		root = r.parent[root]
	}
	// Path compression
	for v != root {
		next := r.parent[v]
		r.parent[v] = root
		v = next
	}

	return root, true
}

// Union merges the sets containing a and b. It returns false if they are unknown or already in the same set.
func (r *DisjointSet[T]) Union(a, b T) bool {
	x, ok1 := r.Find(a)
	y, ok2 := r.Find(b)
	if !ok1 || !ok2 || x == y {
		return false
	}

	switch {
	case r.rank[x] < r.rank[y]:
		r.parent[x] = y
	case r.rank[x] > r.rank[y]:
		r.parent[y] = x
	default:
		r.parent[y] = x
		r.rank[x]++
	}

	return true
}

func (r *DisjointSet[T]) SameSet(a, b T) bool {
	x, ok1 := r.Find(a)
	y, ok2 := r.Find(b)

	return ok1 && ok2 && x == y
}
