package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tagfix/internal/config"
	"tagfix/internal/core/worker"
	"tagfix/internal/shared"
)

var (
	autotagMode    string
	overwrite      bool
	renamePattern  string
	renameTemplate string
	saveTemplate   string
	fromName       bool
	caseMode       string
	fieldNames     string
)

var autotagCmd = &cobra.Command{
	Use:   "autotag [files or directories...]",
	Short: "Fill year, album artist, genre and track numbers from MusicBrainz.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := collectFiles(args)
		if err != nil {
			return err
		}
		mode, err := parseAutotagMode(autotagMode)
		if err != nil {
			return err
		}

		cfg := loadAppConfig()
		warnings := newWarningCollector(cfg)
		r := newRunner(len(files), warnings)
		r.run(&worker.AutoTagWorker{
			Files:        files,
			Client:       newMusicBrainzClient(cfg),
			Mode:         mode,
			SkipExisting: !overwrite,
			Warnings:     warnings,
			Events:       r.events(),
		})
		return nil
	},
}

func parseAutotagMode(s string) (worker.AutoTagMode, error) {
	switch worker.AutoTagMode(strings.ToLower(s)) {
	case worker.TagAll:
		return worker.TagAll, nil
	case worker.TagMissingGenre:
		return worker.TagMissingGenre, nil
	case worker.TagMissingNumbers:
		return worker.TagMissingNumbers, nil
	}
	return "", fmt.Errorf("unknown mode %q (all, genre, numbers)", s)
}

var lyricsCmd = &cobra.Command{
	Use:   "lyrics [files or directories...]",
	Short: "Fetch lyrics from lrclib.net and embed the best match.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := collectFiles(args)
		if err != nil {
			return err
		}

		cfg := loadAppConfig()
		warnings := newWarningCollector(cfg)
		r := newRunner(len(files), warnings)
		r.run(&worker.LyricsWorker{
			Files:     files,
			Client:    newLyricsClient(cfg),
			Overwrite: overwrite || cfg.OverwriteLyrics,
			Warnings:  warnings,
			Events:    r.events(),
		})
		return nil
	},
}

var coverCmd = &cobra.Command{
	Use:   "cover [files or directories...]",
	Short: "Fetch album art from iTunes and the Cover Art Archive.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := collectFiles(args)
		if err != nil {
			return err
		}

		cfg := loadAppConfig()
		warnings := newWarningCollector(cfg)
		r := newRunner(len(files), warnings)
		r.run(&worker.CoverWorker{
			Files:     files,
			Client:    newCoverClient(cfg, newMusicBrainzClient(cfg)),
			Overwrite: overwrite || cfg.OverwriteCovers,
			Warnings:  warnings,
			Events:    r.events(),
		})
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename [files or directories...]",
	Short: "Rename files from their tags, or fill tags from filenames.",
	Long: `Rename files from their tags using a %token% pattern, or with
--from-name fill tags by parsing existing filenames against the pattern.

Tokens: %artist% %albumartist% %album% %title% %track% %disc% %year% %genre%`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern, err := resolvePattern()
		if err != nil {
			return err
		}
		if saveTemplate != "" {
			if err := storeTemplate(saveTemplate, pattern); err != nil {
				return err
			}
			shared.ColorSuccess.Printf("Saved template %q\n", saveTemplate)
		}

		files, err := collectFiles(args)
		if err != nil {
			return err
		}
		r := newRunner(len(files), nil)
		r.run(&worker.RenameWorker{
			Files:    files,
			Pattern:  pattern,
			FromName: fromName,
			Events:   r.events(),
		})
		return nil
	},
}

// resolvePattern picks the rename pattern: explicit flag, then named
// template, then the configured default.
func resolvePattern() (string, error) {
	if renamePattern != "" {
		return renamePattern, nil
	}
	if renameTemplate != "" {
		store, err := config.LoadTemplates(config.TemplatesPath())
		if err != nil {
			return "", err
		}
		pattern, ok := store[renameTemplate]
		if !ok {
			return "", fmt.Errorf("no template named %q", renameTemplate)
		}
		return pattern, nil
	}
	return loadAppConfig().RenamePattern, nil
}

func storeTemplate(name, pattern string) error {
	store, err := config.LoadTemplates(config.TemplatesPath())
	if err != nil {
		return err
	}
	store[name] = pattern
	return config.SaveTemplates(config.TemplatesPath(), store)
}

func init() {
	autotagCmd.Flags().StringVar(&autotagMode, "mode", "all", "Which files need tagging (all, genre, numbers)")
	autotagCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite fields that already have a value")
	lyricsCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace lyrics that are already embedded")
	coverCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace covers that are already embedded")

	renameCmd.Flags().StringVar(&renamePattern, "pattern", "", "Rename pattern, e.g. \"%track% - %artist% - %title%\"")
	renameCmd.Flags().StringVar(&renameTemplate, "template", "", "Use a saved pattern template by name")
	renameCmd.Flags().StringVar(&saveTemplate, "save-template", "", "Save the pattern under this template name")
	renameCmd.Flags().BoolVar(&fromName, "from-name", false, "Fill tags from filenames instead of renaming")

	caseCmd.Flags().StringVar(&caseMode, "mode", "title", "Case mode (title, sentence, upper, lower)")
	caseCmd.Flags().StringVar(&fieldNames, "fields", "", "Comma-separated fields (default: title, artist, album, albumartist)")
	romanizeCmd.Flags().StringVar(&fieldNames, "fields", "", "Comma-separated fields (default: title, artist, album, albumartist)")

	csvCmd.AddCommand(csvExportCmd)
	csvCmd.AddCommand(csvImportCmd)

	rootCmd.AddCommand(autotagCmd)
	rootCmd.AddCommand(lyricsCmd)
	rootCmd.AddCommand(coverCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(caseCmd)
	rootCmd.AddCommand(romanizeCmd)
	rootCmd.AddCommand(reencodeCmd)
	rootCmd.AddCommand(csvCmd)
	rootCmd.AddCommand(showCmd)
}
