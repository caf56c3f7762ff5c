package worker

import (
	"context"
	"strings"

	"tagfix/internal/core/romanize"
	"tagfix/internal/core/textcase"
	"tagfix/internal/tag"
)

// DefaultTextFields are the fields text transforms touch when the caller
// does not narrow the selection.
var DefaultTextFields = []tag.Field{
	tag.FieldTitle, tag.FieldArtist, tag.FieldAlbum, tag.FieldAlbumArtist,
}

// CaseConvertWorker applies a case conversion to the selected text fields.
type CaseConvertWorker struct {
	Files  []string
	Mode   textcase.Mode
	Fields []tag.Field
	Events Events
}

func (w *CaseConvertWorker) Name() string { return "case" }

func (w *CaseConvertWorker) Run(ctx context.Context) {
	fields := w.Fields
	if len(fields) == 0 {
		fields = DefaultTextFields
	}
	runFiles(ctx, w.Files, w.Events, func(path string) (Outcome, string) {
		return transformFields(path, fields, func(s string) string {
			out, err := textcase.Convert(s, w.Mode)
			if err != nil {
				return s
			}
			return out
		})
	})
}

// RomanizeWorker transliterates the selected text fields to ASCII.
type RomanizeWorker struct {
	Files  []string
	Fields []tag.Field
	Events Events
}

func (w *RomanizeWorker) Name() string { return "romanize" }

func (w *RomanizeWorker) Run(ctx context.Context) {
	fields := w.Fields
	if len(fields) == 0 {
		fields = DefaultTextFields
	}
	runFiles(ctx, w.Files, w.Events, func(path string) (Outcome, string) {
		return transformFields(path, fields, romanize.Convert)
	})
}

// transformFields loads a file, runs fn over the chosen fields and saves
// when anything changed.
func transformFields(path string, fields []tag.Field, fn func(string) string) (Outcome, string) {
	f, err := tag.Load(path)
	if err != nil {
		return OutcomeError, err.Error()
	}

	var changed []string
	for _, field := range fields {
		old := f.Record.Get(field)
		if old == "" {
			continue
		}
		if next := fn(old); next != old {
			f.Record.Set(field, next)
			changed = append(changed, string(field))
		}
	}
	if len(changed) == 0 {
		return OutcomeSkipped, "no changes"
	}
	if err := f.Save(); err != nil {
		return OutcomeError, err.Error()
	}
	return OutcomeUpdated, "updated " + strings.Join(changed, ", ")
}
