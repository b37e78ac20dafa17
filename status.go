// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package kthread

// Status is the lifecycle state of a thread.
type Status int

const (
	// StatusNew marks a thread that has been allocated but not forked.
	StatusNew Status = iota
	// StatusReady marks a thread eligible to run, waiting in the ready queue.
	StatusReady
	// StatusRunning marks the one thread holding the CPU.
	StatusRunning
	// StatusBlocked marks a thread off the ready queue, waiting for an
	// explicit wake.
	StatusBlocked
	// StatusFinished marks a terminated thread; its context may still be
	// awaiting destruction.
	StatusFinished
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusBlocked:
		return "blocked"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}
