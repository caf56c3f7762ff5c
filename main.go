package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"tagfix/internal/api/cover"
	"tagfix/internal/api/lyrics"
	"tagfix/internal/api/musicbrainz"
	"tagfix/internal/config"
	"tagfix/internal/shared"
	"tagfix/internal/tag"
)

const toolVersion = "1.0.0"

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:     "tagfix",
	Version: toolVersion,
	Short:   "A batch metadata editor for MP3, FLAC, OGG, M4A and WAV files.",
	Long: fmt.Sprintf(`tagfix (v%s)

A batch audio metadata editor with one tag model across containers.
It can:
- Fill year, album artist, genre and track numbers from MusicBrainz.
- Fetch synced lyrics and album covers.
- Rename files from tags (and fill tags from filenames).
- Normalize tag text (case conversion, romanization) and exchange tags as CSV.

All commands accept files and directories; directories are scanned for
supported extensions.`, toolVersion),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		shared.InitializeColors()
	},
}

func loadAppConfig() *config.Config {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	cfg := config.DefaultConfig()
	if shared.FileExists(path) {
		if err := config.LoadConfig(path, cfg); err != nil {
			shared.ColorWarning.Printf("Failed to load config from %s: %v\n", path, err)
			cfg = config.DefaultConfig()
		}
	}
	return cfg
}

func newMusicBrainzClient(cfg *config.Config) *musicbrainz.Client {
	mbConfig := musicbrainz.DefaultConfig()
	if cfg.MusicBrainzURL != "" {
		mbConfig.BaseURL = strings.TrimSuffix(cfg.MusicBrainzURL, "/") + "/"
	}
	if cfg.MaxRetryAttempts > 0 {
		mbConfig.MaxRetries = cfg.MaxRetryAttempts
	}
	mbConfig.Debug = debug
	return musicbrainz.NewClientWithConfig(mbConfig)
}

func newLyricsClient(cfg *config.Config) *lyrics.Client {
	lrcConfig := lyrics.DefaultConfig()
	if cfg.LyricsURL != "" {
		lrcConfig.BaseURL = strings.TrimSuffix(cfg.LyricsURL, "/")
	}
	if cfg.MaxRetryAttempts > 0 {
		lrcConfig.MaxRetries = cfg.MaxRetryAttempts
	}
	lrcConfig.Debug = debug
	return lyrics.NewClientWithConfig(lrcConfig)
}

func newCoverClient(cfg *config.Config, mb *musicbrainz.Client) *cover.Client {
	coverConfig := cover.DefaultConfig()
	if cfg.MaxRetryAttempts > 0 {
		coverConfig.MaxRetries = cfg.MaxRetryAttempts
	}
	coverConfig.Debug = debug
	return cover.NewClientWithConfig(coverConfig, mb)
}

func newWarningCollector(cfg *config.Config) *shared.WarningCollector {
	return shared.NewWarningCollector(cfg.WarningBehavior != "silent")
}

// collectFiles expands the command arguments into supported audio files.
// Plain file arguments keep their order; directories are walked and
// contribute their matches sorted by path.
func collectFiles(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no files or directories given")
	}

	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			if !tag.IsSupported(arg) {
				shared.ColorWarning.Printf("Skipping unsupported file: %s\n", arg)
				continue
			}
			files = append(files, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && tag.IsSupported(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no supported audio files found (supported: %s)",
			strings.Join(tag.SupportedExtensions(), ", "))
	}
	return files, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
