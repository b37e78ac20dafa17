// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

// Package machine declares the low-level contracts the thread core runs on:
// execution contexts that carry suspended computations, and the interrupt
// controller whose mask is the core's only serialization primitive.
package machine

// ExecutionContext is an opaque unit of suspended or running computation: a
// stack and a position in it, detached from any particular thread descriptor.
// Exactly one context of a machine executes at a time; all others are parked
// inside SwitchTo.
type ExecutionContext interface {
	// Start prepares the context to run entry. The entry function does not
	// begin executing until the context is switched to for the first time,
	// and it must never return: a finishing thread switches away for good
	// and leaves its context to be destroyed by whoever runs next.
	Start(entry func())

	// SwitchTo transfers control from the calling context to this one. It
	// returns when some other context switches back to the caller. Switching
	// a context to itself is a complete handoff round trip, not a no-op.
	SwitchTo()

	// Destroy releases the context. The caller must be executing on a
	// different context; a parked context unwinds before Destroy returns,
	// and the context must not be switched to again.
	Destroy()
}

// ContextFactory creates execution contexts and tracks which one is
// executing. A factory serves a single machine; its methods are called only
// from the context that currently holds the CPU.
type ContextFactory interface {
	// New allocates a context for a thread that has not started yet.
	New() ExecutionContext

	// Current returns the context of the calling flow of control. The first
	// call adopts the caller as the machine's bootstrap context.
	Current() ExecutionContext

	// Shutdown destroys every live context except keep. Parked contexts
	// unwind and exit one at a time before it returns.
	Shutdown(keep ExecutionContext)
}
