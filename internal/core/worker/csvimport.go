package worker

import (
	"context"
	"strings"

	"tagfix/internal/core/csvio"
	"tagfix/internal/shared"
	"tagfix/internal/tag"
)

// CsvImportWorker applies rows from a CSV export back onto the files they
// name. Empty cells were dropped at parse time, so existing tag values
// are only ever replaced, never blanked.
type CsvImportWorker struct {
	Rows   []csvio.Row
	Events Events
}

func (w *CsvImportWorker) Name() string { return "csv-import" }

func (w *CsvImportWorker) Run(ctx context.Context) {
	runBatch(ctx, w.Rows, w.Events,
		func(r csvio.Row) string { return r.Path },
		w.processRow)
}

func (w *CsvImportWorker) processRow(row csvio.Row) (Outcome, string) {
	if !shared.FileExists(row.Path) {
		return OutcomeMissing, "file not found"
	}
	f, err := tag.Load(row.Path)
	if err != nil {
		return OutcomeError, err.Error()
	}

	var changed []string
	for _, field := range tag.ScalarFields {
		value, ok := row.Values[field]
		if !ok || f.Record.Get(field) == value {
			continue
		}
		f.Record.Set(field, value)
		changed = append(changed, string(field))
	}
	if len(changed) == 0 {
		return OutcomeSkipped, "no changes"
	}
	if err := f.Save(); err != nil {
		return OutcomeError, err.Error()
	}
	return OutcomeUpdated, "updated " + strings.Join(changed, ", ")
}
