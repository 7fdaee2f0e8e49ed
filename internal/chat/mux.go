package chat

import (
	"strings"

	"github.com/kotonoha-app/kotonoha/internal/llm"
)

// EventKind classifies a multiplexed stream fragment.
type EventKind int

const (
	// EventReasoningStart opens (or reopens) a reasoning segment.
	EventReasoningStart EventKind = iota
	// EventReasoningChunk carries reasoning text.
	EventReasoningChunk
	// EventReasoningEnd closes the current reasoning segment.
	EventReasoningEnd
	// EventAnswerChunk carries answer text.
	EventAnswerChunk
)

// StreamEvent is one tagged fragment of a multiplexed stream. Payload is
// empty for start/end events.
type StreamEvent struct {
	Kind    EventKind
	Payload string
}

// sentinelState is the parser position within a single response stream.
type sentinelState int

const (
	stateIdle sentinelState = iota
	stateReasoning
	stateAnswering
)

// SentinelParser turns a single sentinel-multiplexed text channel into a
// tagged event stream so nothing downstream ever matches on string
// prefixes. State machine:
//
//	Idle/Answering --start--> Reasoning (reasoning buffer resets downstream)
//	Reasoning    --content--> Reasoning (prefix stripped, payload emitted)
//	Reasoning        --end--> Answering
//
// Non-sentinel fragments are answer content in Idle/Answering and are
// discarded in Reasoning: reasoning text only ever arrives through the
// content sentinel, so no byte can land in both channels.
type SentinelParser struct {
	state sentinelState
}

// NewSentinelParser returns a parser in the Idle state.
func NewSentinelParser() *SentinelParser {
	return &SentinelParser{}
}

// Feed consumes one raw fragment and returns the events it maps to. A
// fragment maps to at most one event; the slice is empty for discarded
// fragments.
func (p *SentinelParser) Feed(fragment string) []StreamEvent {
	switch {
	case fragment == llm.ThinkingStart:
		p.state = stateReasoning
		return []StreamEvent{{Kind: EventReasoningStart}}
	case strings.HasPrefix(fragment, llm.ThinkingContentPrefix):
		if p.state != stateReasoning {
			return nil
		}
		return []StreamEvent{{
			Kind:    EventReasoningChunk,
			Payload: strings.TrimPrefix(fragment, llm.ThinkingContentPrefix),
		}}
	case fragment == llm.ThinkingEnd:
		if p.state != stateReasoning {
			return nil
		}
		p.state = stateAnswering
		return []StreamEvent{{Kind: EventReasoningEnd}}
	case p.state == stateReasoning:
		// Stray non-sentinel text inside a reasoning segment.
		return nil
	default:
		return []StreamEvent{{Kind: EventAnswerChunk, Payload: fragment}}
	}
}

// Mux adapts both provider callback shapes to a single event consumer.
type Mux struct {
	emit   func(StreamEvent)
	parser *SentinelParser
}

// NewMux creates a multiplexer delivering events to emit.
func NewMux(emit func(StreamEvent)) *Mux {
	return &Mux{emit: emit, parser: NewSentinelParser()}
}

// OnChunk is the single-callback entry point for sentinel-mode providers.
func (m *Mux) OnChunk(fragment string) {
	for _, ev := range m.parser.Feed(fragment) {
		m.emit(ev)
	}
}

// OnThought is the reasoning callback for dual-channel providers. The first
// thought of a response opens the reasoning segment.
func (m *Mux) OnThought(fragment string) {
	if m.parser.state != stateReasoning {
		m.parser.state = stateReasoning
		m.emit(StreamEvent{Kind: EventReasoningStart})
	}
	m.emit(StreamEvent{Kind: EventReasoningChunk, Payload: fragment})
}

// OnAnswer is the answer callback for dual-channel providers. Answer text
// after a reasoning segment closes it first.
func (m *Mux) OnAnswer(fragment string) {
	if m.parser.state == stateReasoning {
		m.parser.state = stateAnswering
		m.emit(StreamEvent{Kind: EventReasoningEnd})
	}
	m.emit(StreamEvent{Kind: EventAnswerChunk, Payload: fragment})
}
