package storage

import (
	"os"
	"path/filepath"
)

// PathManager resolves platform-aware storage locations under the user's
// home directory.
type PathManager struct {
	homeDir     string
	kotonohaDir string
}

// NewPathManager creates a path manager rooted at ~/.kotonoha.
func NewPathManager() *PathManager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir is not available
		homeDir = "."
	}
	return &PathManager{
		homeDir:     homeDir,
		kotonohaDir: filepath.Join(homeDir, ".kotonoha"),
	}
}

// Dir returns the main configuration directory, creating it if needed.
func (pm *PathManager) Dir() (string, error) {
	if err := os.MkdirAll(pm.kotonohaDir, 0755); err != nil {
		return "", err
	}
	return pm.kotonohaDir, nil
}

// DatabasePath returns the path for the chat database.
func (pm *PathManager) DatabasePath() (string, error) {
	dir, err := pm.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chats.db"), nil
}
