// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package kthread

// Yield relinquishes the CPU: the calling thread re-enters the ready queue
// and the dispatcher runs the next candidate, which may be the caller itself.
// The full save, switch and restore sequence runs either way. Yield works
// with interrupts enabled or disabled and leaves the mask as it found it.
func (k *Kernel) Yield() {
	k.ensureLive()
	if k.current.status != StatusRunning {
		panic("kthread: yield by a thread that is not running")
	}

	k.logger.Debug("yielding thread", "thread", k.current.name, "id", k.current.id)

	intStatus := k.interrupt.Disable()

	k.current.Ready()
	k.runNextThread()

	k.interrupt.Restore(intStatus)
}

// Sleep gives up the CPU without re-entering the ready queue. Interrupts
// must already be disabled, closing the window between deciding to block and
// blocking. The thread is marked blocked, unless it is finishing, and runs
// again only when some other thread passes it to Ready; Sleep and Ready
// together are the substrate blocking primitives are built from.
func (k *Kernel) Sleep() {
	k.ensureLive()
	if !k.interrupt.Disabled() {
		panic("kthread: sleep with interrupts enabled")
	}

	k.logger.Debug("blocking thread", "thread", k.current.name, "id", k.current.id)

	if k.current.status != StatusFinished {
		k.current.status = StatusBlocked
	}
	k.runNextThread()
}

// Finish terminates the calling thread and never returns. A context cannot
// be reclaimed while it is still executing, so destruction is deferred: the
// thread parks in the to-be-destroyed slot and the next dispatched thread
// releases it. The join waiter, if one is parked, is woken. Finish runs
// automatically when a thread's target returns and may also be called
// directly.
func (k *Kernel) Finish() {
	k.ensureLive()
	k.interrupt.Disable()

	k.logger.Debug("finishing thread", "thread", k.current.name, "id", k.current.id)

	k.tracer.ThreadFinishing(k.current)

	if k.toBeDestroyed != nil {
		panic("kthread: finish with a destruction already pending")
	}
	k.toBeDestroyed = k.current
	k.current.status = StatusFinished

	if waiter := k.current.joinWaiters.NextThread(); waiter != nil {
		waiter.Ready()
	}

	k.Sleep()
}

// runNextThread dispatches the CPU to the next ready thread, falling back to
// the idle thread when the queue is empty.
func (k *Kernel) runNextThread() {
	next := k.readyQueue.NextThread()
	if next == nil {
		next = k.idle
	}
	next.dispatch()
}

// dispatch transfers the CPU to t: save the outgoing thread's state, repoint
// current, switch execution contexts and, back on the incoming side, restore.
// The sequence is identical when t is the outgoing thread itself.
func (t *Thread) dispatch() {
	k := t.kernel
	if !k.interrupt.Disabled() {
		panic("kthread: dispatch with interrupts enabled")
	}

	k.current.saveState()

	k.logger.Debug("switching threads", "from", k.current.name, "fromId", k.current.id, "to", t.name, "toId", t.id)

	k.current = t
	t.context.SwitchTo()

	// Control is back: current was repointed at this thread by whichever
	// dispatch resumed it.
	k.current.restoreState()
}

// saveState parks the outgoing thread's processor state. Pure kernel threads
// keep everything on their own stack, so only the invariants are checked.
func (t *Thread) saveState() {
	k := t.kernel
	if !k.interrupt.Disabled() {
		panic("kthread: save-state with interrupts enabled")
	}
	if t != k.current {
		panic("kthread: save-state of a thread that is not current")
	}
}

// restoreState completes a dispatch on the incoming side: the thread becomes
// the running one and releases the context a finished predecessor left for
// destruction.
func (t *Thread) restoreState() {
	k := t.kernel
	if !k.interrupt.Disabled() {
		panic("kthread: restore-state with interrupts enabled")
	}
	if t != k.current {
		panic("kthread: restore-state of a thread that is not current")
	}
	if t.context != k.contexts.Current() {
		panic("kthread: running thread does not own the executing context")
	}

	t.status = StatusRunning
	k.tracer.ThreadRunning(t)

	if k.toBeDestroyed != nil {
		k.toBeDestroyed.context.Destroy()
		k.toBeDestroyed.context = nil
		k.toBeDestroyed = nil
	}
}
