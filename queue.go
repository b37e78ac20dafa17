// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package kthread

// ThreadQueue orders threads waiting for a resource: the CPU in the case of
// the ready queue, a thread's termination in the case of a join queue. The
// ordering policy belongs to the implementation; the core only enqueues and
// dequeues. All calls happen with interrupts disabled.
type ThreadQueue interface {
	// WaitForAccess queues t until the resource becomes available.
	WaitForAccess(t *Thread)

	// NextThread removes and returns the next thread to receive the
	// resource, or nil when no thread is waiting.
	NextThread() *Thread

	// Acquire records that t holds the resource without having waited for
	// it. The bootstrap thread acquires the CPU this way.
	Acquire(t *Thread)
}

// QueueFactory builds the thread queues a kernel schedules with. The
// transferable flag reports whether queued access implies the resource being
// handed from its current holder to the next thread, as with join queues,
// rather than shared turn-taking as with the ready queue. Policies that
// track ownership may use it; the default policy ignores it.
type QueueFactory func(transferable bool) ThreadQueue

// RoundRobin returns the default scheduling policy: plain FIFO ordering with
// no ownership bookkeeping.
func RoundRobin() QueueFactory {
	return func(transferable bool) ThreadQueue {
		return &fifoQueue{}
	}
}

// fifoQueue is a slice-backed FIFO thread queue.
type fifoQueue struct {
	threads []*Thread
}

// WaitForAccess appends t to the queue.
func (q *fifoQueue) WaitForAccess(t *Thread) {
	q.threads = append(q.threads, t)
}

// NextThread pops the head of the queue, or returns nil when it is empty.
func (q *fifoQueue) NextThread() *Thread {
	if len(q.threads) == 0 {
		return nil
	}
	t := q.threads[0]
	q.threads = q.threads[1:]
	return t
}

// Acquire is a no-op; FIFO scheduling keeps no ownership state.
func (q *fifoQueue) Acquire(t *Thread) {
}
