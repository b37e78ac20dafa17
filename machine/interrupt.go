// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package machine

// InterruptController models the processor interrupt mask. Masking is the
// only mutual-exclusion primitive the thread core uses: every mutation of
// scheduler state happens with interrupts disabled.
type InterruptController interface {
	// Disable masks interrupts and returns the previous state, true when
	// they were enabled.
	Disable() bool

	// Restore sets the mask back to a state previously returned by Disable.
	Restore(enabled bool)

	// Enable unmasks interrupts.
	Enable()

	// Disabled reports whether interrupts are currently masked.
	Disabled() bool
}

// interrupt is the simulated controller. A plain flag is enough: contexts
// hand the CPU off explicitly, so the flag is only ever touched by the one
// context that holds it.
type interrupt struct {
	enabled bool
}

// NewInterrupt returns a simulated interrupt controller with interrupts
// enabled.
func NewInterrupt() InterruptController {
	return &interrupt{enabled: true}
}

// Disable masks interrupts and returns the previous state.
func (i *interrupt) Disable() bool {
	old := i.enabled
	i.enabled = false
	return old
}

// Restore sets the mask back to a previously observed state.
func (i *interrupt) Restore(enabled bool) {
	i.enabled = enabled
}

// Enable unmasks interrupts.
func (i *interrupt) Enable() {
	i.enabled = true
}

// Disabled reports whether interrupts are currently masked.
func (i *interrupt) Disabled() bool {
	return !i.enabled
}
