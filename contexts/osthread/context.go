// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

// Package osthreadcontext implements the machine execution-context contract
// with every context pinned to its own OS thread. Contexts park on a
// condition variable and hand the CPU off one at a time, exactly like the
// goroutine backend, but runtime.LockOSThread keeps each computation on a
// dedicated kernel thread for targets that rely on thread-local state, cgo
// or syscall affinity.
package osthreadcontext

import (
	"log/slog"
	"runtime"
	"sync"

	"github.com/buke/kthread/machine"
)

// Factory creates OS-thread-pinned execution contexts for one machine.
type Factory struct {
	logger   *slog.Logger
	running  *Context
	contexts []*Context
}

// New returns a factory producing OS-thread-pinned contexts.
func New(opts ...Option) *Factory {
	f := &Factory{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// New allocates a context for a thread that has not started yet.
func (f *Factory) New() machine.ExecutionContext {
	return f.newContext()
}

// Current returns the context of the calling flow of control, locking the
// caller to its OS thread and adopting it as the bootstrap context on first
// use.
func (f *Factory) Current() machine.ExecutionContext {
	if f.running == nil {
		runtime.LockOSThread()
		c := f.newContext()
		c.started = true
		c.bootstrap = true
		f.running = c
		f.logger.Debug("bootstrap context pinned", "tid", threadID())
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
		exited:  make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
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

// Context is one execution context pinned to an OS thread.
type Context struct {
	factory *Factory

	mu   sync.Mutex
	cond *sync.Cond
	wake bool
	dead bool

	exited chan struct{}

	started   bool
	bootstrap bool
	destroyed bool
}

// Start launches the context's goroutine and locks it to an OS thread. The
// goroutine parks immediately and runs entry only once the context is first
// switched to.
func (c *Context) Start(entry func()) {
	if c.started {
		panic("osthreadcontext: context started twice")
	}
	c.started = true
	go func() {
		defer close(c.exited)
		runtime.LockOSThread()
		c.factory.logger.Debug("context pinned", "tid", threadID())
		c.park()
		entry()
		panic("osthreadcontext: context entry returned")
	}()
}

// SwitchTo hands the CPU to this context and parks the caller's context
// until somebody switches back.
func (c *Context) SwitchTo() {
	if !c.started {
		panic("osthreadcontext: switch to a context that was not started")
	}
	if c.destroyed {
		panic("osthreadcontext: switch to a destroyed context")
	}
	from := c.factory.running
	c.factory.running = c
	c.wakeUp()
	from.park()
}

// Destroy releases the context. The parked goroutine unwinds, running its
// deferred calls and unlocking its OS thread, before Destroy returns.
func (c *Context) Destroy() {
	c.terminate()
}

func (c *Context) terminate() {
	if c == c.factory.running {
		panic("osthreadcontext: destroy of the running context")
	}
	if c.destroyed {
		panic("osthreadcontext: context destroyed twice")
	}
	c.destroyed = true
	c.mu.Lock()
	c.dead = true
	c.cond.Signal()
	c.mu.Unlock()
	if c.started {
		<-c.exited
	}
	c.factory.remove(c)
}

// wakeUp deposits the CPU token for the context.
func (c *Context) wakeUp() {
	c.mu.Lock()
	c.wake = true
	c.cond.Signal()
	c.mu.Unlock()
}

// park blocks until the context receives the CPU token. A destroyed context
// exits its goroutine instead of resuming.
func (c *Context) park() {
	c.mu.Lock()
	for !c.wake && !c.dead {
		c.cond.Wait()
	}
	if c.dead {
		c.mu.Unlock()
		if c.bootstrap {
			close(c.exited)
		}
		runtime.Goexit()
	}
	c.wake = false
	c.mu.Unlock()
}
