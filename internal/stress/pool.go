package stress

import (
	"sync"
	"time"
)

// queueCapacityFactor sizes the task queue relative to the worker count. The
// dispatcher's hysteresis throttle keeps actual depth far below this hard
// cap; the capacity only bounds memory in the worst case.
const queueCapacityFactor = 1000

// WorkerPool runs tasks on a fixed number of goroutines fed by a bounded
// queue with producer/consumer semantics.
type WorkerPool struct {
	tasks chan func()
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// NewWorkerPool starts size workers backed by a queue of size*1000 tasks.
func NewWorkerPool(size int) *WorkerPool {
	p := &WorkerPool{
		tasks: make(chan func(), size*queueCapacityFactor),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit enqueues a task. It blocks only when the queue is at its hard
// capacity, which the dispatcher's throttle prevents in practice.
func (p *WorkerPool) Submit(task func()) {
	p.tasks <- task
}

// QueueDepth returns the number of queued, not-yet-started tasks.
func (p *WorkerPool) QueueDepth() int {
	return len(p.tasks)
}

// Shutdown stops accepting tasks and waits up to graceful for queued and
// in-flight tasks to drain. It reports whether the pool drained in time;
// callers force-terminate remaining work by cancelling the run context the
// tasks execute under. Safe to call more than once.
func (p *WorkerPool) Shutdown(graceful time.Duration) bool {
	p.closeOnce.Do(func() { close(p.tasks) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(graceful):
		return false
	}
}

// Wait blocks until all workers have exited. Only meaningful after Shutdown.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}
