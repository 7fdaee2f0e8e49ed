package events

import (
	"testing"
	"time"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := NewBroker[string]()
	defer b.Shutdown()

	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel1()
	defer cancel2()

	b.Publish("hello")

	for _, ch := range []<-chan Event[string]{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Payload != "hello" {
				t.Errorf("payload = %q, want %q", ev.Payload, "hello")
			}
			if ev.ID == "" {
				t.Error("event id must be set")
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroker[int]()
	defer b.Shutdown()

	ch, cancel := b.Subscribe()
	cancel()

	b.Publish(1)

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
}

func TestPublishAfterShutdownIsNoOp(t *testing.T) {
	b := NewBroker[int]()
	ch, _ := b.Subscribe()

	b.Shutdown()
	b.Publish(42)

	if _, ok := <-ch; ok {
		t.Error("no events expected after shutdown")
	}
}

func TestCancelAfterShutdownDoesNotPanic(t *testing.T) {
	b := NewBroker[int]()
	_, cancel := b.Subscribe()

	b.Shutdown()
	cancel() // channel already closed by Shutdown; must be a no-op
	cancel()
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBroker[int]()
	defer b.Shutdown()

	_, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBufferSize*2; i++ {
			b.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}
