// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package kthread

// Tracer receives diagnostic callbacks at thread lifecycle events. Callbacks
// run inside the state machine with interrupts disabled: they may observe
// kernel state but must not fork, wake, block or otherwise reschedule.
type Tracer interface {
	// ThreadForked runs when a thread's context has been started, before
	// the thread turns ready.
	ThreadForked(t *Thread)

	// ThreadReady runs after a thread enters the ready state.
	ThreadReady(t *Thread)

	// ThreadRunning runs on the incoming side of a dispatch, once the
	// thread holds the CPU.
	ThreadRunning(t *Thread)

	// ThreadFinishing runs when a thread begins its terminal transition.
	ThreadFinishing(t *Thread)
}

// nopTracer is the default tracer; it ignores every event.
type nopTracer struct{}

func (nopTracer) ThreadForked(t *Thread)    {}
func (nopTracer) ThreadReady(t *Thread)     {}
func (nopTracer) ThreadRunning(t *Thread)   {}
func (nopTracer) ThreadFinishing(t *Thread) {}
