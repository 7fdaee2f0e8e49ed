package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Selection is the persisted provider/model choice plus the reasoning
// toggle. The resolver's stale-model substitution writes back through
// UpdateModel, so a removed catalog entry heals itself on the next send.
type Selection struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	Thinking bool   `toml:"thinking"`
}

// DefaultSelection is used when no selection file exists yet.
func DefaultSelection() *Selection {
	return &Selection{
		Provider: "gemini",
		Model:    "gemini-2.5-flash",
	}
}

// SaveSelection writes the selection to a TOML file, creating parent
// directories as needed.
func SaveSelection(filePath string, sel *Selection) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create selection file %s: %w", filePath, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := toml.NewEncoder(writer).Encode(sel); err != nil {
		return fmt.Errorf("failed to encode selection to %s: %w", filePath, err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush selection file %s: %w", filePath, err)
	}
	return nil
}

// LoadSelection reads the selection from a TOML file, returning the default
// when the file does not exist.
func LoadSelection(filePath string) (*Selection, error) {
	var sel Selection
	if _, err := toml.DecodeFile(filePath, &sel); err != nil {
		if _, statErr := os.Stat(filePath); os.IsNotExist(statErr) {
			return DefaultSelection(), nil
		}
		return nil, fmt.Errorf("failed to decode selection from %s: %w", filePath, err)
	}
	return &sel, nil
}

// SelectionPath returns the default selection file path.
func SelectionPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./kotonoha-selection.toml"
	}
	return filepath.Join(homeDir, ".config", appName, "selection.toml")
}

// UpdateModel updates the selection and saves it to the default path.
func (s *Selection) UpdateModel(provider, model string) error {
	s.Provider = provider
	s.Model = model
	return SaveSelection(SelectionPath(), s)
}
