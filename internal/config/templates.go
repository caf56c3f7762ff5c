package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"tagfix/internal/shared"
)

// Templates is the named rename-pattern store. It survives across
// sessions so users can keep a library of filename layouts.
type Templates map[string]string

// TemplatesPath returns the template store location under the XDG config
// dir.
func TemplatesPath() string {
	path, err := xdg.ConfigFile("tagfix/templates.json")
	if err != nil {
		return filepath.Join(".", "templates.json")
	}
	return path
}

// LoadTemplates reads the template store. A missing file is an empty
// store, not an error.
func LoadTemplates(filePath string) (Templates, error) {
	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return Templates{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read templates file: %w", err)
	}
	var t Templates
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal templates: %w", err)
	}
	return t, nil
}

// SaveTemplates writes the template store back to disk.
func SaveTemplates(filePath string, t Templates) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal templates: %w", err)
	}
	if err := shared.CreateDirIfNotExists(filepath.Dir(filePath)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write templates file: %w", err)
	}
	return nil
}
