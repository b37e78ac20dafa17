package kthread_test

import (
	"fmt"

	"github.com/buke/kthread"
)

func Example() {
	// The caller becomes the kernel's running main thread.
	k := kthread.NewKernel()

	// Fork a child that takes turns with main at every yield.
	child := k.NewThread(func() {
		for i := 0; i < 3; i++ {
			fmt.Printf("child step %d\n", i)
			k.Yield()
		}
	}).SetName("child")
	child.Fork()

	// Wait for the child to finish.
	child.Join()
	fmt.Printf("child is %v\n", child.Status())

	// Tear the machine down.
	k.Halt()

	// Output:
	// child step 0
	// child step 1
	// child step 2
	// child is finished
}

// semaphore is a counting semaphore layered on Sleep and Ready, the way
// blocking primitives are meant to be built on the kernel.
type semaphore struct {
	k       *kthread.Kernel
	count   int
	waiters []*kthread.Thread
}

// P waits until the count is positive, then decrements it.
func (s *semaphore) P() {
	intStatus := s.k.Interrupt().Disable()
	for s.count == 0 {
		s.waiters = append(s.waiters, s.k.Current())
		s.k.Sleep()
	}
	s.count--
	s.k.Interrupt().Restore(intStatus)
}

// V increments the count and wakes one waiter.
func (s *semaphore) V() {
	intStatus := s.k.Interrupt().Disable()
	s.count++
	if len(s.waiters) > 0 {
		waiter := s.waiters[0]
		s.waiters = s.waiters[1:]
		waiter.Ready()
	}
	s.k.Interrupt().Restore(intStatus)
}

func Example_semaphore() {
	k := kthread.NewKernel()
	sem := &semaphore{k: k}

	// The producer signals once its work is done.
	producer := k.NewThread(func() {
		fmt.Println("producing")
		sem.V()
	}).SetName("producer")
	producer.Fork()

	// Main blocks on the semaphore until the producer signals.
	fmt.Println("waiting")
	sem.P()
	fmt.Println("consumed")

	k.Halt()

	// Output:
	// waiting
	// producing
	// consumed
}
