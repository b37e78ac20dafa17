// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

// Package priorityqueue provides a static-priority scheduling policy for
// kthread kernels: the highest-priority waiting thread is dispatched first,
// and equal priorities fall back to thread-id order, so scheduling stays
// deterministic. Priority donation is not implemented; the transferable
// flag is recorded but does not change the ordering.
package priorityqueue

import (
	"container/heap"

	"github.com/buke/kthread"
)

const (
	// MinPriority is the lowest priority a thread can be assigned.
	MinPriority = 0
	// MaxPriority is the highest priority a thread can be assigned.
	MaxPriority = 7
	// DefaultPriority is the priority of threads that were never assigned
	// one.
	DefaultPriority = 1
)

// New returns a queue factory scheduling by static priority. Pass it to
// kthread.WithQueueFactory.
func New() kthread.QueueFactory {
	return func(transferable bool) kthread.ThreadQueue {
		return &queue{transferable: transferable}
	}
}

// SetPriority assigns t's scheduling priority, clamped to the legal range.
// Like any other scheduler-state mutation, call it only from a thread of t's
// kernel.
func SetPriority(t *kthread.Thread, priority int) {
	if priority < MinPriority {
		priority = MinPriority
	} else if priority > MaxPriority {
		priority = MaxPriority
	}
	stateOf(t).priority = priority
}

// Priority returns t's scheduling priority.
func Priority(t *kthread.Thread) int {
	return stateOf(t).priority
}

// state is the per-thread slot this policy keeps in Thread.SchedulingState.
type state struct {
	priority int
}

// stateOf returns t's scheduling state, attaching a default one on first
// use.
func stateOf(t *kthread.Thread) *state {
	if s, ok := t.SchedulingState.(*state); ok {
		return s
	}
	s := &state{priority: DefaultPriority}
	t.SchedulingState = s
	return s
}

// queue orders waiting threads by priority descending, thread id ascending.
type queue struct {
	transferable bool
	heap         threadHeap
}

// WaitForAccess queues t.
func (q *queue) WaitForAccess(t *kthread.Thread) {
	heap.Push(&q.heap, t)
}

// NextThread pops the highest-priority waiting thread, or returns nil when
// none is waiting.
func (q *queue) NextThread() *kthread.Thread {
	if q.heap.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.heap).(*kthread.Thread)
}

// Acquire is a no-op; without donation there is no ownership to track.
func (q *queue) Acquire(t *kthread.Thread) {
}

// threadHeap implements heap.Interface over thread descriptors.
type threadHeap []*kthread.Thread

func (h threadHeap) Len() int {
	return len(h)
}

func (h threadHeap) Less(i, j int) bool {
	pi, pj := stateOf(h[i]).priority, stateOf(h[j]).priority
	if pi != pj {
		return pi > pj
	}
	return h[i].ID() < h[j].ID()
}

func (h threadHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *threadHeap) Push(x any) {
	*h = append(*h, x.(*kthread.Thread))
}

func (h *threadHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
