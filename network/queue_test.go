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
	"context"
	"testing"
	"time"
)

func TestQueueOrder(t *testing.T) {
	q := newQueue[int]()
	for i := 0; i < 10; i++ {
		q.Push(i)
	}
	if q.Len() != 10 {
		t.Fatalf("Unexpected queue length: expected=10, got=%v", q.Len())
	}

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		v, ok := q.Pop(ctx)
		if !ok || v != i {
			t.Fatalf("Unexpected element: expected=%v, got=%v", i, v)
		}
	}
}

func TestQueueWait(t *testing.T) {
	q := newQueue[string]()

	result := make(chan string)
	go func() {
		v, _ := q.Pop(context.Background())
		result <- v
	}()
	time.Sleep(10 * time.Millisecond)
	q.Push("hello")

	select {
	case v := <-result:
		if v != "hello" {
			t.Fatalf("Unexpected element: expected=hello, got=%v", v)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for the element")
	}
}

func TestQueueCancel(t *testing.T) {
	q := newQueue[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := q.Pop(ctx); ok {
		t.Fatal("Unexpected element from an empty queue")
	}
}

func TestSessionsRegistry(t *testing.T) {
	r := NewSessions()
	first := &session{done: make(chan struct{})}
	second := &session{done: make(chan struct{})}

	if _, ok := r.Sender(1); ok {
		t.Fatal("Unexpected sender of an unknown switch")
	}
	r.push(1, first)
	if s, ok := r.Sender(1); !ok || s != first {
		t.Fatal("Expected the first session")
	}

	// A reconnected switch replaces and closes its previous session.
	r.push(1, second)
	select {
	case <-first.done:
	default:
		t.Fatal("Expected the previous session to be closed")
	}
	if err := first.Send(nil); err != ErrNotConnected {
		t.Fatalf("Unexpected error: expected=%v, got=%v", ErrNotConnected, err)
	}

	// The stale session does not unregister the new one.
	r.pop(1, first)
	if s, ok := r.Sender(1); !ok || s != second {
		t.Fatal("Expected the second session")
	}
	r.pop(1, second)
	if _, ok := r.Sender(1); ok {
		t.Fatal("Unexpected sender after pop")
	}
}
