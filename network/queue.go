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
	"container/list"
	"context"
	"sync"
)

// queue is an unbounded FIFO queue. Push never blocks.
type queue[T any] struct {
	mutex  sync.Mutex
	list   *list.List
	notify chan struct{}
}

func newQueue[T any]() *queue[T] {
	return &queue[T]{
		list:   list.New(),
		notify: make(chan struct{}, 1),
	}
}

func (r *queue[T]) Push(v T) {
	r.mutex.Lock()
	r.list.PushBack(v)
	r.mutex.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Pop waits for the oldest element. It returns false if ctx is done first.
func (r *queue[T]) Pop(ctx context.Context) (v T, ok bool) {
	for {
		r.mutex.Lock()
		if elem := r.list.Front(); elem != nil {
			r.list.Remove(elem)
			r.mutex.Unlock()
			return elem.Value.(T), true
		}
		r.mutex.Unlock()

		select {
		case <-ctx.Done():
			return v, false
		case <-r.notify:
		}
	}
}

func (r *queue[T]) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.list.Len()
}
