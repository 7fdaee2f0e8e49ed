// Package events provides a small typed publish-subscribe broker used to
// fan out user-facing notifications.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultBufferSize = 64

// Event wraps a payload with delivery metadata.
type Event[T any] struct {
	ID        string
	Payload   T
	Timestamp time.Time
}

// Broker is a generic publish-subscribe broker. Slow subscribers drop
// events rather than block publishers.
type Broker[T any] struct {
	mu     sync.RWMutex
	subs   map[chan Event[T]]struct{}
	done   chan struct{}
	buffer int
}

// NewBroker creates a broker with the default channel buffer.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subs:   make(map[chan Event[T]]struct{}),
		done:   make(chan struct{}),
		buffer: defaultBufferSize,
	}
}

// Subscribe registers a new subscriber channel and an unsubscribe func.
func (b *Broker[T]) Subscribe() (<-chan Event[T], func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event[T], b.buffer)
	b.subs[ch] = struct{}{}

	// The membership check makes cancel safe to call after Shutdown (or
	// twice): whoever removes the channel from subs closes it, nobody else.
	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a payload to every subscriber. Non-blocking: a full
// subscriber buffer means that subscriber misses the event.
func (b *Broker[T]) Publish(payload T) {
	select {
	case <-b.done:
		return
	default:
	}

	event := Event[T]{
		ID:        uuid.NewString(),
		Payload:   payload,
		Timestamp: time.Now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Shutdown stops publishing and closes every subscriber channel.
func (b *Broker[T]) Shutdown() {
	select {
	case <-b.done:
		return
	default:
		close(b.done)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
