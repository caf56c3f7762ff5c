package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"tagfix/internal/shared"
)

const (
	RequestTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
)

// Config is the persisted application configuration.
type Config struct {
	MusicBrainzURL   string `json:"MusicBrainzURL"`
	LyricsURL        string `json:"LyricsURL"`
	MaxRetryAttempts int    `json:"MaxRetryAttempts"`
	WarningBehavior  string `json:"WarningBehavior"` // "summary" or "silent"
	RenamePattern    string `json:"RenamePattern"`
	OverwriteLyrics  bool   `json:"OverwriteLyrics"`
	OverwriteCovers  bool   `json:"OverwriteCovers"`
}

// DefaultConfig returns the configuration used when no file exists yet.
func DefaultConfig() *Config {
	return &Config{
		MusicBrainzURL:   "https://musicbrainz.org/ws/2",
		LyricsURL:        "https://lrclib.net",
		MaxRetryAttempts: DefaultMaxRetries,
		WarningBehavior:  "summary",
		RenamePattern:    "%track% - %artist% - %title%",
	}
}

// ApplyDefaults fills empty fields with their default values.
func (cfg *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if cfg.MusicBrainzURL == "" {
		cfg.MusicBrainzURL = defaults.MusicBrainzURL
	}
	if cfg.LyricsURL == "" {
		cfg.LyricsURL = defaults.LyricsURL
	}
	if cfg.MaxRetryAttempts <= 0 {
		cfg.MaxRetryAttempts = defaults.MaxRetryAttempts
	}
	if cfg.WarningBehavior == "" {
		cfg.WarningBehavior = defaults.WarningBehavior
	}
	if cfg.RenamePattern == "" {
		cfg.RenamePattern = defaults.RenamePattern
	}
}

// DefaultPath returns the config file location under the XDG config dir.
func DefaultPath() string {
	path, err := xdg.ConfigFile("tagfix/config.json")
	if err != nil {
		return filepath.Join(".", "config.json")
	}
	return path
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.ApplyDefaults()
	return nil
}

// SaveConfig saves configuration to a JSON file.
func SaveConfig(filePath string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := shared.CreateDirIfNotExists(filepath.Dir(filePath)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
