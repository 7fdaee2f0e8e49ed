package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kotonoha-app/kotonoha/internal/llm"
)

// replay feeds fragments through a sentinel-mode mux and splits the output
// into the two channel buffers.
func replay(fragments []string) (reasoning, answer string) {
	var r, a strings.Builder
	mux := NewMux(func(ev StreamEvent) {
		switch ev.Kind {
		case EventReasoningChunk:
			r.WriteString(ev.Payload)
		case EventAnswerChunk:
			a.WriteString(ev.Payload)
		}
	})
	for _, f := range fragments {
		mux.OnChunk(f)
	}
	return r.String(), a.String()
}

func TestSentinelScenario(t *testing.T) {
	reasoning, answer := replay([]string{
		llm.ThinkingStart,
		llm.ThinkingContentPrefix + "foo",
		llm.ThinkingContentPrefix + "bar",
		llm.ThinkingEnd,
		"answer1",
	})
	assert.Equal(t, "foobar", reasoning)
	assert.Equal(t, "answer1", answer)
}

func TestSentinelExclusivity(t *testing.T) {
	cases := [][]string{
		{"plain", " answer"},
		{llm.ThinkingStart, "stray inside reasoning", llm.ThinkingContentPrefix + "kept", llm.ThinkingEnd, "out"},
		{llm.ThinkingContentPrefix + "orphan content before start", "visible"},
		{llm.ThinkingStart, llm.ThinkingEnd, llm.ThinkingEnd, "double end"},
		{llm.ThinkingStart, llm.ThinkingContentPrefix + "alpha", llm.ThinkingEnd, "mid", llm.ThinkingStart, llm.ThinkingContentPrefix + "omega", llm.ThinkingEnd, "tail"},
	}
	for _, fragments := range cases {
		reasoning, answer := replay(fragments)
		for _, f := range fragments {
			payload := strings.TrimPrefix(f, llm.ThinkingContentPrefix)
			if payload == "" || f == llm.ThinkingStart || f == llm.ThinkingEnd {
				continue
			}
			inBoth := strings.Contains(reasoning, payload) && strings.Contains(answer, payload)
			assert.False(t, inBoth, "fragment %q landed in both channels", f)
		}
	}
}

func TestStrayContentDiscardedInReasoning(t *testing.T) {
	reasoning, answer := replay([]string{
		llm.ThinkingStart,
		"leaked answer text",
		llm.ThinkingContentPrefix + "thought",
		llm.ThinkingEnd,
		"real answer",
	})
	assert.Equal(t, "thought", reasoning)
	assert.Equal(t, "real answer", answer)
}

func TestSecondReasoningSegmentResets(t *testing.T) {
	var events []StreamEvent
	mux := NewMux(func(ev StreamEvent) { events = append(events, ev) })
	for _, f := range []string{
		llm.ThinkingStart, llm.ThinkingContentPrefix + "a", llm.ThinkingEnd,
		llm.ThinkingStart, llm.ThinkingContentPrefix + "b", llm.ThinkingEnd,
	} {
		mux.OnChunk(f)
	}

	var starts int
	for _, ev := range events {
		if ev.Kind == EventReasoningStart {
			starts++
		}
	}
	assert.Equal(t, 2, starts)
}

func TestDualChannelMode(t *testing.T) {
	var events []StreamEvent
	mux := NewMux(func(ev StreamEvent) { events = append(events, ev) })

	mux.OnThought("think1")
	mux.OnThought("think2")
	mux.OnAnswer("ans")

	kinds := make([]EventKind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	assert.Equal(t, []EventKind{
		EventReasoningStart,
		EventReasoningChunk,
		EventReasoningChunk,
		EventReasoningEnd,
		EventAnswerChunk,
	}, kinds)
}

func TestDualChannelAnswerOnly(t *testing.T) {
	var events []StreamEvent
	mux := NewMux(func(ev StreamEvent) { events = append(events, ev) })

	mux.OnAnswer("hello")

	assert.Len(t, events, 1)
	assert.Equal(t, EventAnswerChunk, events[0].Kind)
}
