package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncatedTitle(t *testing.T) {
	assert.Equal(t, "short question", TruncatedTitle("short question"))

	long := "a question that keeps going well past the thirty rune mark"
	got := TruncatedTitle(long)
	assert.Equal(t, "a question that keeps going we...", got)

	// Rune-aware, not byte-aware.
	jp := "これはとても長い質問でルビコン川を渡ってしまうほど長い文章です"
	assert.Equal(t, string([]rune(jp)[:30])+"...", TruncatedTitle(jp))
}

func TestFallbackTitle(t *testing.T) {
	assert.Equal(t, "What is the airspeed", FallbackTitle("What is the airspeed velocity of an unladen swallow?"))
	assert.Equal(t, "two words", FallbackTitle("two words"))
	assert.Equal(t, "New Chat", FallbackTitle("   "))
}
