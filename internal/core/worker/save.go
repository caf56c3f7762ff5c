package worker

import (
	"context"

	"tagfix/internal/tag"
)

// SaveWorker reloads and rewrites each file, normalizing the container
// layout and refreshing the lyric sidecar.
type SaveWorker struct {
	Files  []string
	Events Events
}

func (w *SaveWorker) Name() string { return "save" }

func (w *SaveWorker) Run(ctx context.Context) {
	runFiles(ctx, w.Files, w.Events, func(path string) (Outcome, string) {
		f, err := tag.Load(path)
		if err != nil {
			return OutcomeError, err.Error()
		}
		if err := f.Save(); err != nil {
			return OutcomeError, err.Error()
		}
		return OutcomeSuccess, "saved"
	})
}
