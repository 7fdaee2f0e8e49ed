package chat

import (
	"strings"
	"sync"
	"time"
)

// Scheduler defers a callback to the next redraw cycle. The frame loop in
// the command layer provides the real implementation; tests drive flushes
// by hand.
type Scheduler interface {
	Schedule(fn func())
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(fn func())

// Schedule calls f(fn).
func (f SchedulerFunc) Schedule(fn func()) { f(fn) }

// Coalescer accumulates stream events for one in-flight assistant message
// and writes them to the store at most once per redraw cycle. However fast
// fragments arrive, each cycle sees exactly one store mutation carrying the
// full buffer state at flush time.
type Coalescer struct {
	store     *Store
	scheduler Scheduler
	chatID    string
	messageID string

	now func() time.Time

	mu               sync.Mutex
	answer           strings.Builder
	reasoning        strings.Builder
	pending          bool
	canceled         bool
	hasThinking      bool
	thinkingStarted  time.Time
	thinkingComplete bool
	thinkingSeconds  int
}

// NewCoalescer creates a coalescer targeting one message.
func NewCoalescer(store *Store, scheduler Scheduler, chatID, messageID string) *Coalescer {
	return &Coalescer{
		store:     store,
		scheduler: scheduler,
		chatID:    chatID,
		messageID: messageID,
		now:       time.Now,
	}
}

// Consume folds one multiplexed event into the buffers and schedules a
// flush if none is pending.
func (c *Coalescer) Consume(ev StreamEvent) {
	c.mu.Lock()
	switch ev.Kind {
	case EventReasoningStart:
		c.hasThinking = true
		c.reasoning.Reset()
		c.thinkingStarted = c.now()
	case EventReasoningChunk:
		c.reasoning.WriteString(ev.Payload)
	case EventReasoningEnd:
		// Completion is latched when answer text exists, not here: a
		// response may reopen reasoning after an end sentinel.
	case EventAnswerChunk:
		if c.hasThinking && !c.thinkingComplete {
			c.thinkingComplete = true
			c.thinkingSeconds = int(c.now().Sub(c.thinkingStarted).Round(time.Second).Seconds())
		}
		c.answer.WriteString(ev.Payload)
	}

	if c.pending || c.canceled {
		c.mu.Unlock()
		return
	}
	c.pending = true
	c.mu.Unlock()
	c.scheduler.Schedule(c.flush)
}

// Cancel drops everything not yet flushed. A flush already scheduled at
// cancellation time becomes a no-op, so an aborted stream never writes a
// partial tail.
func (c *Coalescer) Cancel() {
	c.mu.Lock()
	c.canceled = true
	c.mu.Unlock()
}

func (c *Coalescer) flush() {
	c.mu.Lock()
	if c.canceled {
		c.pending = false
		c.mu.Unlock()
		return
	}
	content := c.answer.String()
	hasThinking := c.hasThinking
	th := Thinking{
		ThoughtSummary:   c.reasoning.String(),
		ThinkingTime:     c.thinkingSeconds,
		ThinkingComplete: c.thinkingComplete,
	}
	if hasThinking && !c.thinkingComplete {
		th.ThinkingTime = int(c.now().Sub(c.thinkingStarted).Round(time.Second).Seconds())
	}
	c.pending = false
	c.mu.Unlock()

	if hasThinking {
		c.store.SetMessageContentAndThinking(c.chatID, c.messageID, content, th)
	} else {
		c.store.SetMessageContent(c.chatID, c.messageID, content)
	}
}
