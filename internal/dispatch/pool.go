package dispatch

import "sync"

// TaskPool launches independent execution tasks and hands back a handle per
// task, so liveness can be observed and shutdown can drain in-flight trades.
// It imposes no queue, cap, or ordering: every accepted signal runs
// concurrently with all others.
type TaskPool struct {
	wg sync.WaitGroup
}

// Handle observes one launched task.
type Handle struct {
	done chan struct{}
}

// Done is closed when the task finishes.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Go runs fn in its own goroutine and returns its handle.
func (p *TaskPool) Go(fn func()) *Handle {
	h := &Handle{done: make(chan struct{})}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(h.done)
		fn()
	}()
	return h
}

// Wait blocks until every launched task has finished.
func (p *TaskPool) Wait() {
	p.wg.Wait()
}
