package env

import (
	"os"
	"path/filepath"
	"strings"
)

// Get returns the trimmed value of the given environment variable or a fallback.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// StateDir returns the directory where the client keeps its local state.
// GREENCART_HOME wins; otherwise ~/.greencart, falling back to the working dir.
func StateDir() string {
	if dir := Get("GREENCART_HOME", ""); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".greencart"
	}
	return filepath.Join(home, ".greencart")
}
