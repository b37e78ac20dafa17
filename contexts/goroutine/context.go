// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

// Package goroutinecontext implements the machine execution-context contract
// on plain goroutines. Each context is a goroutine parked on a capacity-1
// handoff channel: switching sends the CPU token to the target and parks the
// caller, so at most one context runs at a time and every handoff carries a
// happens-before edge. No locks are needed.
package goroutinecontext

import (
	"runtime"

	"github.com/buke/kthread/machine"
)

// Factory creates goroutine-backed execution contexts for one machine.
type Factory struct {
	running  *Context
	contexts []*Context
}

// New returns an empty factory. The first call to Current adopts the calling
// goroutine as the bootstrap context.
func New() *Factory {
	return &Factory{}
}

// New allocates a context for a thread that has not started yet.
func (f *Factory) New() machine.ExecutionContext {
	return f.newContext()
}

// Current returns the context of the calling goroutine, adopting it as the
// bootstrap context on first use.
func (f *Factory) Current() machine.ExecutionContext {
	if f.running == nil {
		c := f.newContext()
		c.started = true
		c.bootstrap = true
		f.running = c
	}
	return f.running
}

// Shutdown destroys every live context except keep, one at a time.
func (f *Factory) Shutdown(keep machine.ExecutionContext) {
	live := make([]*Context, len(f.contexts))
	copy(live, f.contexts)
	for _, c := range live {
		if keep == c || c.destroyed {
			continue
		}
		c.terminate()
	}
}

// Live returns the number of contexts that have been created and not yet
// destroyed, the bootstrap context included.
func (f *Factory) Live() int {
	return len(f.contexts)
}

func (f *Factory) newContext() *Context {
	c := &Context{
		factory: f,
		cpu:     make(chan struct{}, 1),
		dead:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	f.contexts = append(f.contexts, c)
	return c
}

func (f *Factory) remove(c *Context) {
	for i, o := range f.contexts {
		if o == c {
			f.contexts = append(f.contexts[:i], f.contexts[i+1:]...)
			return
		}
	}
}

// Context is one goroutine-backed execution context.
type Context struct {
	factory *Factory

	// cpu carries the CPU token. It is buffered so that a context switching
	// to itself can deposit the token before parking to pick it up again.
	cpu chan struct{}

	// dead is closed by Destroy; a context parked on cpu unwinds instead of
	// resuming. exited is closed once the goroutine is gone.
	dead   chan struct{}
	exited chan struct{}

	started   bool
	bootstrap bool
	destroyed bool
}

// Start launches the context's goroutine. The goroutine parks immediately
// and runs entry only once the context is first switched to.
func (c *Context) Start(entry func()) {
	if c.started {
		panic("goroutinecontext: context started twice")
	}
	c.started = true
	go func() {
		defer close(c.exited)
		c.park()
		entry()
		panic("goroutinecontext: context entry returned")
	}()
}

// SwitchTo hands the CPU to this context and parks the caller's context
// until somebody switches back.
func (c *Context) SwitchTo() {
	if !c.started {
		panic("goroutinecontext: switch to a context that was not started")
	}
	if c.destroyed {
		panic("goroutinecontext: switch to a destroyed context")
	}
	from := c.factory.running
	c.factory.running = c
	c.cpu <- struct{}{}
	from.park()
}

// Destroy releases the context. The parked goroutine unwinds, running its
// deferred calls, before Destroy returns.
func (c *Context) Destroy() {
	c.terminate()
}

func (c *Context) terminate() {
	if c == c.factory.running {
		panic("goroutinecontext: destroy of the running context")
	}
	if c.destroyed {
		panic("goroutinecontext: context destroyed twice")
	}
	c.destroyed = true
	close(c.dead)
	if c.started {
		<-c.exited
	}
	c.factory.remove(c)
}

// park blocks until the context receives the CPU token. A destroyed context
// exits its goroutine instead of resuming.
func (c *Context) park() {
	select {
	case <-c.cpu:
	case <-c.dead:
		// The bootstrap goroutine has no Start wrapper to close exited
		// for it.
		if c.bootstrap {
			close(c.exited)
		}
		runtime.Goexit()
	}
}
