package app

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestFrameSchedulerRunsCallbacks(t *testing.T) {
	f := NewFrameScheduler(time.Millisecond)
	defer f.Stop()

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		f.Schedule(func() { ran.Add(1) })
	}

	deadline := time.After(time.Second)
	for ran.Load() != 10 {
		select {
		case <-deadline:
			t.Fatalf("ran %d of 10 callbacks", ran.Load())
		case <-time.After(time.Millisecond):
		}
	}
}

func TestFrameSchedulerStopDrains(t *testing.T) {
	f := NewFrameScheduler(time.Hour) // tick never fires on its own
	var ran atomic.Bool
	f.Schedule(func() { ran.Store(true) })

	f.Stop()
	if !ran.Load() {
		t.Error("Stop must drain pending callbacks")
	}
}
