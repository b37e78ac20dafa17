// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

// Package kthread implements cooperative kernel threads: a thread lifecycle
// state machine, a dispatcher with deferred context destruction, a single-use
// join and an idle fallback thread, scheduled over pluggable queues and
// execution-context backends. Serialization is by interrupt masking alone;
// one thread of a kernel executes at a time.
package kthread

import (
	"log/slog"

	goroutinecontext "github.com/buke/kthread/contexts/goroutine"
	"github.com/buke/kthread/machine"
)

// Kernel owns the run state of one cooperative processor: the thread holding
// the CPU, the ready queue, the idle fallback and the deferred-destruction
// slot. Kernel methods may only be called from threads of the kernel itself;
// that discipline is what makes the interrupt mask a real mutual exclusion.
type Kernel struct {
	current       *Thread
	readyQueue    ThreadQueue
	idle          *Thread
	toBeDestroyed *Thread

	interrupt machine.InterruptController
	contexts  machine.ContextFactory
	queues    QueueFactory
	tracer    Tracer
	logger    *slog.Logger

	nextID uint64
	halted bool
}

// NewKernel builds a kernel and adopts the caller as its bootstrap "main"
// thread: on return the caller is the running thread of a machine with
// interrupts enabled and an idle thread standing by. A flow of control
// drives at most one kernel at a time.
func NewKernel(opts ...func(*Kernel)) *Kernel {
	k := &Kernel{
		interrupt: machine.NewInterrupt(),
		contexts:  goroutinecontext.New(),
		queues:    RoundRobin(),
		tracer:    nopTracer{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(k)
	}

	k.readyQueue = k.queues(false)

	main := k.newThread(nil)
	main.name = "main"
	main.context = k.contexts.Current()
	main.status = StatusRunning
	k.readyQueue.Acquire(main)
	k.current = main

	k.createIdleThread()

	k.logger.Debug("kernel bootstrapped", "main", main.name, "mainId", main.id, "idle", k.idle.name, "idleId", k.idle.id)

	return k
}

// createIdleThread builds the fallback thread: an unbounded yield loop that
// holds the CPU only while the ready queue has no candidate. It is never
// enqueued and must never block or finish.
func (k *Kernel) createIdleThread() {
	if k.idle != nil {
		panic("kthread: idle thread created twice")
	}

	idle := k.NewThread(func() {
		for {
			k.Yield()
		}
	})
	idle.name = "idle"
	k.idle = idle
	idle.Fork()
}

// Current returns the thread holding the CPU.
func (k *Kernel) Current() *Thread {
	return k.current
}

// Interrupt exposes the kernel's interrupt controller, so that code layering
// blocking primitives on Sleep and Ready can mask around them.
func (k *Kernel) Interrupt() machine.InterruptController {
	return k.interrupt
}

// Halt tears the machine down: every execution context except the calling
// thread's is destroyed, parked threads unwind without resuming their
// targets, and the kernel refuses further lifecycle operations.
func (k *Kernel) Halt() {
	k.ensureLive()

	intStatus := k.interrupt.Disable()

	k.logger.Debug("halting kernel", "thread", k.current.name, "id", k.current.id)

	k.halted = true
	k.contexts.Shutdown(k.current.context)

	k.interrupt.Restore(intStatus)
}

// ensureLive panics when the kernel has been halted.
func (k *Kernel) ensureLive() {
	if k.halted {
		panic("kthread: kernel halted")
	}
}

// WithLogger configures the logger for the kernel.
func WithLogger(logger *slog.Logger) func(*Kernel) {
	return func(k *Kernel) {
		if logger != nil {
			k.logger = logger
		}
	}
}

// WithContextFactory configures the execution-context backend for the
// kernel.
func WithContextFactory(contexts machine.ContextFactory) func(*Kernel) {
	return func(k *Kernel) {
		if contexts != nil {
			k.contexts = contexts
		}
	}
}

// WithInterrupt configures the interrupt controller for the kernel.
func WithInterrupt(interrupt machine.InterruptController) func(*Kernel) {
	return func(k *Kernel) {
		if interrupt != nil {
			k.interrupt = interrupt
		}
	}
}

// WithQueueFactory configures the scheduling policy behind the ready queue
// and the per-thread join queues.
func WithQueueFactory(queues QueueFactory) func(*Kernel) {
	return func(k *Kernel) {
		if queues != nil {
			k.queues = queues
		}
	}
}

// WithTracer configures the diagnostic hooks fired at fork, ready, run and
// finish events.
func WithTracer(tracer Tracer) func(*Kernel) {
	return func(k *Kernel) {
		if tracer != nil {
			k.tracer = tracer
		}
	}
}
