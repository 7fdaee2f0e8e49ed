package providers

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateTitle(t *testing.T) {
	if got := truncateTitle("short title"); got != "short title" {
		t.Errorf("got %q, want unchanged", got)
	}

	long := strings.Repeat("会話のタイトル", 10)
	got := truncateTitle(long)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("got %q, want ellipsis suffix", got)
	}
	if n := utf8.RuneCountInString(got); n != maxTitleLength {
		t.Errorf("rune count = %d, want %d", n, maxTitleLength)
	}
	if !strings.HasPrefix(long, strings.TrimSuffix(got, "...")) {
		t.Errorf("kept prefix %q does not match the original", got)
	}
}
