package app

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates a 60Hz redraw cycle.
const DefaultFrameInterval = 16 * time.Millisecond

// FrameScheduler batches scheduled callbacks and runs them on a fixed-rate
// tick. It stands in for a UI frame callback: the coalescer schedules at
// most one flush per tick through it.
type FrameScheduler struct {
	mu    sync.Mutex
	queue []func()

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewFrameScheduler starts the tick loop.
func NewFrameScheduler(interval time.Duration) *FrameScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	f := &FrameScheduler{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go f.loop(interval)
	return f
}

// Schedule queues a callback for the next tick.
func (f *FrameScheduler) Schedule(fn func()) {
	f.mu.Lock()
	f.queue = append(f.queue, fn)
	f.mu.Unlock()
}

// Stop ends the tick loop after draining pending callbacks.
func (f *FrameScheduler) Stop() {
	f.stopOnce.Do(func() { close(f.stop) })
	<-f.done
}

func (f *FrameScheduler) loop(interval time.Duration) {
	defer close(f.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.runPending()
		case <-f.stop:
			f.runPending()
			return
		}
	}
}

func (f *FrameScheduler) runPending() {
	f.mu.Lock()
	queue := f.queue
	f.queue = nil
	f.mu.Unlock()
	for _, fn := range queue {
		fn()
	}
}
