package tasks

import "sync"

// control coordinates pause, resume, and cancel requests between the run
// goroutine and whoever drives it (CLI signal handler, TUI key handler).
// Requests are flags; the run goroutine observes them at item boundaries.
type control struct {
	mu        sync.Mutex
	cond      *sync.Cond
	paused    bool
	cancelled bool
}

func newControl() *control {
	c := &control{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// pause requests a pause. Returns false when the request changes nothing,
// i.e. already paused or already cancelled.
func (c *control) pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.paused || c.cancelled {
		return false
	}

	c.paused = true
	return true
}

// resume clears a pause and wakes the run goroutine.
func (c *control) resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.paused || c.cancelled {
		return false
	}

	c.paused = false
	c.cond.Broadcast()
	return true
}

// cancel marks the run for termination and wakes it if paused. Cancellation
// is sticky; later pause or resume calls are ignored.
func (c *control) cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelled {
		return false
	}

	c.cancelled = true
	c.paused = false
	c.cond.Broadcast()
	return true
}

func (c *control) isPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *control) isCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

// awaitResume blocks while paused. Returns true when resumed and false when
// the pause ended in cancellation.
func (c *control) awaitResume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.paused && !c.cancelled {
		c.cond.Wait()
	}

	return !c.cancelled
}
