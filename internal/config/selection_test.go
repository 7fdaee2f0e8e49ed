package config

import (
	"path/filepath"
	"testing"
)

func TestSelectionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "selection.toml")

	want := &Selection{Provider: "groq", Model: "openai/gpt-oss-120b", Thinking: true}
	if err := SaveSelection(path, want); err != nil {
		t.Fatalf("SaveSelection: %v", err)
	}

	got, err := LoadSelection(path)
	if err != nil {
		t.Fatalf("LoadSelection: %v", err)
	}
	if *got != *want {
		t.Errorf("LoadSelection = %+v, want %+v", got, want)
	}
}

func TestLoadSelectionMissingFileReturnsDefault(t *testing.T) {
	got, err := LoadSelection(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadSelection: %v", err)
	}
	if got.Provider != "gemini" || got.Model == "" {
		t.Errorf("unexpected default selection: %+v", got)
	}
}
