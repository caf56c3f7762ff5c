package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tagfix/internal/core/csvio"
	"tagfix/internal/core/reencode"
	"tagfix/internal/core/textcase"
	"tagfix/internal/core/worker"
	"tagfix/internal/shared"
	"tagfix/internal/tag"
)

var caseCmd = &cobra.Command{
	Use:   "case [files or directories...]",
	Short: "Convert the case of text tags (title, sentence, upper, lower).",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := textcase.ParseMode(caseMode)
		if err != nil {
			return err
		}
		fields, err := parseFieldNames(fieldNames)
		if err != nil {
			return err
		}
		files, err := collectFiles(args)
		if err != nil {
			return err
		}

		r := newRunner(len(files), nil)
		r.run(&worker.CaseConvertWorker{
			Files:  files,
			Mode:   mode,
			Fields: fields,
			Events: r.events(),
		})
		return nil
	},
}

var romanizeCmd = &cobra.Command{
	Use:   "romanize [files or directories...]",
	Short: "Transliterate text tags to plain ASCII.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseFieldNames(fieldNames)
		if err != nil {
			return err
		}
		files, err := collectFiles(args)
		if err != nil {
			return err
		}

		r := newRunner(len(files), nil)
		r.run(&worker.RomanizeWorker{
			Files:  files,
			Fields: fields,
			Events: r.events(),
		})
		return nil
	},
}

var reencodeCmd = &cobra.Command{
	Use:   "reencode [files or directories...]",
	Short: "Re-encode FLAC files in place with ffmpeg, keeping tags.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !reencode.CheckFFmpeg() {
			return fmt.Errorf("ffmpeg not found in PATH")
		}
		files, err := collectFiles(args)
		if err != nil {
			return err
		}

		r := newRunner(len(files), nil)
		r.run(&worker.ReencodeWorker{Files: files, Events: r.events()})
		return nil
	},
}

var csvCmd = &cobra.Command{
	Use:   "csv",
	Short: "Exchange tags as CSV.",
}

var csvExportCmd = &cobra.Command{
	Use:   "export [output.csv] [files or directories...]",
	Short: "Export tags of the given files to a CSV file.",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := collectFiles(args[1:])
		if err != nil {
			return err
		}

		var loaded []*tag.File
		for _, path := range files {
			f, err := tag.Load(path)
			if err != nil {
				shared.ColorWarning.Printf("Skipping %s: %v\n", path, err)
				continue
			}
			loaded = append(loaded, f)
		}

		out, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", args[0], err)
		}
		defer out.Close()
		if err := csvio.Export(out, loaded); err != nil {
			return err
		}
		shared.ColorSuccess.Printf("Exported %d files to %s\n", len(loaded), args[0])
		return nil
	},
}

var csvImportCmd = &cobra.Command{
	Use:   "import [input.csv]",
	Short: "Apply tags from a CSV file to the files it names.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer in.Close()
		rows, err := csvio.Import(in)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("%s contains no rows", args[0])
		}

		r := newRunner(len(rows), nil)
		r.run(&worker.CsvImportWorker{Rows: rows, Events: r.events()})
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show [files or directories...]",
	Short: "Print the tags and stream info of the given files.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := collectFiles(args)
		if err != nil {
			return err
		}
		for _, path := range files {
			f, err := tag.Load(path)
			if err != nil {
				shared.ColorError.Printf("%s: %v\n", path, err)
				continue
			}
			printRecord(f)
		}
		return nil
	},
}

func printRecord(f *tag.File) {
	shared.ColorPrompt.Println(f.Path)
	for _, field := range tag.ScalarFields {
		value := f.Record.Get(field)
		if value == "" {
			continue
		}
		if field == tag.FieldLyrics {
			value = shared.TruncateString(strings.ReplaceAll(value, "\n", " / "), 60)
		}
		fmt.Printf("  %-12s %s\n", field, value)
	}
	if len(f.Record.Cover) > 0 {
		fmt.Printf("  %-12s %d bytes (%s)\n", "cover", len(f.Record.Cover), f.Record.CoverMIME)
	}

	info := f.Record.Info
	if info.Duration > 0 || info.Bitrate > 0 {
		shared.ColorInfo.Printf("  %d:%02d, %d kbps, %d Hz, %d bytes\n",
			info.Duration/60, info.Duration%60, info.Bitrate, info.SampleRate, info.FileSize)
	}
	fmt.Println()
}

// parseFieldNames maps a comma-separated field list onto tag fields. An
// empty list means the worker's default selection.
func parseFieldNames(s string) ([]tag.Field, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var fields []tag.Field
	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		found := false
		for _, f := range tag.ScalarFields {
			if string(f) == name {
				fields = append(fields, f)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown field %q", name)
		}
	}
	return fields, nil
}
