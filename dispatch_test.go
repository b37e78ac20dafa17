// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package kthread

import (
	"testing"
)

// TestKernel_Yield_SelfSwitch tests that yielding with nothing else ready
// runs the full dispatch sequence back into the caller.
func TestKernel_Yield_SelfSwitch(t *testing.T) {
	tracer := &recordingTracer{}
	spy := newSpyInterrupt()
	k := NewKernel(WithTracer(tracer), WithInterrupt(spy))
	tracer.events = nil
	spy.disables, spy.restores = 0, 0

	k.Yield()

	assertLog(t, tracer.events, []string{"ready main", "running main"})
	if spy.disables != 1 || spy.restores != 1 {
		t.Fatalf("Expected one disable and one restore, got %d and %d", spy.disables, spy.restores)
	}
	if spy.Disabled() {
		t.Fatal("Expected interrupts enabled after yield")
	}

	k.Halt()
}

// TestKernel_Yield_KeepsDisabledMask tests that yield leaves a disabled
// mask disabled.
func TestKernel_Yield_KeepsDisabledMask(t *testing.T) {
	k := NewKernel()

	k.Interrupt().Disable()
	k.Yield()
	if !k.Interrupt().Disabled() {
		t.Fatal("Expected interrupts still disabled after yield")
	}
	k.Interrupt().Enable()

	k.Halt()
}

// TestKernel_Yield_RoundRobin tests FIFO turn-taking across yields.
func TestKernel_Yield_RoundRobin(t *testing.T) {
	k := NewKernel()

	var log []string
	worker := func(name string) func() {
		return func() {
			log = append(log, name+"0")
			k.Yield()
			log = append(log, name+"1")
		}
	}
	a := k.NewThread(worker("a")).SetName("a")
	b := k.NewThread(worker("b")).SetName("b")

	a.Fork()
	b.Fork()
	k.Yield()
	k.Yield()

	assertLog(t, log, []string{"a0", "b0", "a1", "b1"})
	if a.Status() != StatusFinished || b.Status() != StatusFinished {
		t.Fatalf("Expected both workers finished, got %v and %v", a.Status(), b.Status())
	}

	k.Halt()
}

// TestKernel_Yield_Panics tests that only the running thread may yield.
func TestKernel_Yield_Panics(t *testing.T) {
	k := NewKernel()

	k.current.status = StatusBlocked
	mustPanic(t, "yield by a thread that is not running", func() { k.Yield() })
	k.current.status = StatusRunning

	k.Halt()
}

// TestKernel_Sleep_RequiresDisabledMask tests the sleep precondition.
func TestKernel_Sleep_RequiresDisabledMask(t *testing.T) {
	k := NewKernel()

	mustPanic(t, "sleep with interrupts enabled", func() { k.Sleep() })

	k.Halt()
}

// TestKernel_Sleep_WakesOnReady tests the block-and-wake substrate: a
// sleeping thread runs again once another thread readies it.
func TestKernel_Sleep_WakesOnReady(t *testing.T) {
	k := NewKernel()

	main := k.Current()
	waker := k.NewThread(func() {
		intStatus := k.Interrupt().Disable()
		main.Ready()
		k.Interrupt().Restore(intStatus)
	}).SetName("waker")
	waker.Fork()

	intStatus := k.Interrupt().Disable()
	k.Sleep()
	k.Interrupt().Restore(intStatus)

	if main.Status() != StatusRunning {
		t.Fatalf("Expected the woken thread running, got %v", main.Status())
	}
	if waker.Status() != StatusFinished {
		t.Fatalf("Expected the waker finished, got %v", waker.Status())
	}

	k.Halt()
}

// TestKernel_Idle_RunsWhenNothingReady tests the idle fallback: when the
// ready queue produces no candidate the idle thread takes the CPU, and it
// is never enqueued itself.
func TestKernel_Idle_RunsWhenNothingReady(t *testing.T) {
	tracer := &recordingTracer{}
	probe := &probeQueues{}
	k := NewKernel(WithTracer(tracer), WithQueueFactory(probe.factory()))
	tracer.events = nil

	probe.starve = 1
	k.Yield()

	assertLog(t, tracer.events, []string{"ready main", "running idle", "ready idle", "running main"})
	for _, th := range probe.enqueued {
		if th == k.idle {
			t.Fatal("Expected the idle thread to never enter a queue")
		}
	}

	k.Halt()
}

// TestKernel_Finish_DeferredDestruction tests that a finished thread's
// context is destroyed by the next dispatched thread, never by itself.
func TestKernel_Finish_DeferredDestruction(t *testing.T) {
	tracer := &recordingTracer{}
	contexts := newRecordingFactory(tracer)
	k := NewKernel(WithTracer(tracer), WithContextFactory(contexts))
	tracer.events = nil

	child := k.NewThread(func() {}).SetName("child")
	child.Fork()
	k.Yield()

	assertLog(t, tracer.events, []string{
		"forked child",
		"ready child",
		"ready main",
		"running child",
		"finishing child",
		"running main",
		"destroy",
	})
	if contexts.destroyedWhileCurrent != 0 {
		t.Fatalf("Expected no context destroyed while executing, got %d", contexts.destroyedWhileCurrent)
	}
	if k.toBeDestroyed != nil {
		t.Fatal("Expected the destruction slot cleared after the dispatch")
	}

	k.Halt()
}

// TestKernel_Finish_Direct tests calling finish from inside a target; code
// after the call never runs.
func TestKernel_Finish_Direct(t *testing.T) {
	k := NewKernel()

	var log []string
	th := k.NewThread(func() {
		log = append(log, "before finish")
		k.Finish()
		log = append(log, "after finish")
	}).SetName("quitter")

	th.Fork()
	k.Yield()

	assertLog(t, log, []string{"before finish"})
	if th.Status() != StatusFinished {
		t.Fatalf("Expected the thread finished, got %v", th.Status())
	}

	k.Halt()
}

// TestKernel_Finish_PanicsWhenDestructionPending tests the
// single-pending-destruction invariant.
func TestKernel_Finish_PanicsWhenDestructionPending(t *testing.T) {
	k := NewKernel()

	dummy := k.NewThread(func() {})
	k.toBeDestroyed = dummy
	mustPanic(t, "destruction already pending", func() { k.Finish() })

	// Finish masked interrupts before panicking; undo the probe state.
	k.toBeDestroyed = nil
	k.Interrupt().Enable()

	k.Halt()
}
