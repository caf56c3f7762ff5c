package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tagfix/internal/core/rename"
	"tagfix/internal/shared"
	"tagfix/internal/tag"
)

// RenameWorker renames files from their tags using a %token% pattern.
// With FromName set it runs the other direction and fills tags from the
// filename instead.
type RenameWorker struct {
	Files    []string
	Pattern  string
	FromName bool
	Events   Events
}

func (w *RenameWorker) Name() string { return "rename" }

func (w *RenameWorker) Run(ctx context.Context) {
	runFiles(ctx, w.Files, w.Events, w.processFile)
}

func (w *RenameWorker) processFile(path string) (Outcome, string) {
	f, err := tag.Load(path)
	if err != nil {
		return OutcomeError, err.Error()
	}
	if w.FromName {
		return w.tagsFromName(f)
	}

	name, err := rename.Expand(f.Record, w.Pattern)
	if err != nil {
		return OutcomeError, err.Error()
	}
	target := filepath.Join(filepath.Dir(path), name+filepath.Ext(path))
	if target == path {
		return OutcomeSkipped, "name already matches pattern"
	}
	if shared.FileExists(target) {
		return OutcomeError, fmt.Sprintf("target %s already exists", filepath.Base(target))
	}
	if err := os.Rename(path, target); err != nil {
		return OutcomeError, err.Error()
	}
	return OutcomeSuccess, "renamed to " + filepath.Base(target)
}

func (w *RenameWorker) tagsFromName(f *tag.File) (Outcome, string) {
	base := filepath.Base(f.Path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	values, err := rename.Parse(base, w.Pattern)
	if err != nil {
		return OutcomeError, err.Error()
	}

	var changed []string
	for _, field := range tag.ScalarFields {
		value, ok := values[field]
		if !ok || value == "" || f.Record.Get(field) == value {
			continue
		}
		f.Record.Set(field, value)
		changed = append(changed, string(field))
	}
	if len(changed) == 0 {
		return OutcomeSkipped, "tags already match filename"
	}
	if err := f.Save(); err != nil {
		return OutcomeError, err.Error()
	}
	return OutcomeUpdated, "updated " + strings.Join(changed, ", ")
}
