// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package kthread

import (
	"fmt"
	"strconv"

	"github.com/buke/kthread/machine"
)

// Thread is the descriptor of one cooperative kernel thread. Threads are
// created with Kernel.NewThread, started with Fork and waited on with Join;
// everything in between is driven by the kernel's dispatcher.
type Thread struct {
	// SchedulingState is owned by the scheduling policy behind the kernel's
	// queue factory. The core never reads or writes it.
	SchedulingState any

	kernel *Kernel
	id     uint64
	name   string
	status Status
	target func()

	context  machine.ExecutionContext
	wakeTime int64

	joinRequested bool
	joinWaiters   ThreadQueue
}

// newThread allocates a descriptor in the new state with the next thread id.
// The caller attaches the execution context.
func (k *Kernel) newThread(target func()) *Thread {
	t := &Thread{
		kernel:      k,
		id:          k.nextID,
		name:        "thread-" + strconv.FormatUint(k.nextID, 10),
		status:      StatusNew,
		target:      target,
		joinWaiters: k.queues(true),
	}
	k.nextID++
	return t
}

// NewThread allocates a thread in the new state with a fresh execution
// context. target may be nil and set later with SetTarget, but must be set
// before Fork.
func (k *Kernel) NewThread(target func()) *Thread {
	k.ensureLive()
	t := k.newThread(target)
	t.context = k.contexts.New()
	k.logger.Debug("thread created", "thread", t.name, "id", t.id)
	return t
}

// ID returns the thread's unique identifier. Ids are assigned monotonically
// from zero, giving scheduling policies a total order for deterministic
// tie-breaking.
func (t *Thread) ID() uint64 {
	return t.id
}

// Name returns the thread's debugging label.
func (t *Thread) Name() string {
	return t.name
}

// SetName sets the thread's debugging label.
func (t *Thread) SetName(name string) *Thread {
	t.name = name
	return t
}

// SetTarget sets the function the thread will execute. The thread must not
// have been forked yet.
func (t *Thread) SetTarget(target func()) *Thread {
	if t.status != StatusNew {
		panic("kthread: target set after fork")
	}
	t.target = target
	return t
}

// Status returns the thread's lifecycle state.
func (t *Thread) Status() Status {
	return t.status
}

// SetWakeTime stores the tick at which an external alarm intends to wake the
// thread. The core never interprets the value.
func (t *Thread) SetWakeTime(tick int64) {
	t.wakeTime = tick
}

// WakeTime returns the wake-up hint stored with SetWakeTime.
func (t *Thread) WakeTime() int64 {
	return t.wakeTime
}

// String returns the thread's name and id for debug output.
func (t *Thread) String() string {
	return fmt.Sprintf("%s (#%d)", t.name, t.id)
}

// Fork starts the thread: its context is set up to run the target to
// completion and the thread turns ready. The calling thread keeps the CPU;
// the new thread runs when the dispatcher selects it.
func (t *Thread) Fork() {
	k := t.kernel
	k.ensureLive()
	if t.status != StatusNew {
		panic("kthread: fork of a thread that is not new")
	}
	if t.target == nil {
		panic("kthread: fork without a target")
	}

	k.logger.Debug("forking thread", "thread", t.name, "id", t.id)

	intStatus := k.interrupt.Disable()

	t.context.Start(func() { t.run() })
	k.tracer.ThreadForked(t)
	t.Ready()

	k.interrupt.Restore(intStatus)
}

// run is the entry point of a forked context: complete the dispatch that
// selected this thread, execute the target, then finish.
func (t *Thread) run() {
	t.begin()
	t.target()
	t.kernel.Finish()
}

// begin completes the first dispatch into this thread. Restore-state runs on
// the incoming side of every switch, and interrupts come back on before the
// target starts.
func (t *Thread) begin() {
	k := t.kernel
	if t != k.current {
		panic("kthread: thread beginning without holding the CPU")
	}
	t.restoreState()
	k.interrupt.Enable()
}

// Ready moves the thread to the ready state and hands it to the scheduling
// queue. Interrupts must be disabled. The idle thread is never enqueued; the
// dispatcher substitutes it when the queue comes up empty.
func (t *Thread) Ready() {
	k := t.kernel
	if !k.interrupt.Disabled() {
		panic("kthread: ready with interrupts enabled")
	}
	if t.status == StatusReady {
		panic("kthread: ready on an already ready thread")
	}

	k.logger.Debug("thread ready", "thread", t.name, "id", t.id)

	t.status = StatusReady
	if t != k.idle {
		k.readyQueue.WaitForAccess(t)
	}
	k.tracer.ThreadReady(t)
}

// Join blocks the calling thread until t finishes, returning immediately if
// it already has. A thread may be joined at most once, and never by itself;
// either misuse panics, whatever came of the first join.
func (t *Thread) Join() {
	k := t.kernel
	k.ensureLive()
	if t == k.current {
		panic("kthread: join with self")
	}
	if t.joinRequested {
		panic("kthread: second join on thread " + t.String())
	}

	k.logger.Debug("joining thread", "thread", t.name, "id", t.id, "caller", k.current.name)

	intStatus := k.interrupt.Disable()

	t.joinRequested = true
	if t.status != StatusFinished {
		t.joinWaiters.WaitForAccess(k.current)
		k.Sleep()
	}

	k.interrupt.Restore(intStatus)
}
