package worker

import (
	"context"

	"tagfix/internal/core/reencode"
)

// ReencodeWorker rewrites FLAC files in place with ffmpeg, fixing bad
// encodes while keeping tags intact. Unsupported formats are skipped.
type ReencodeWorker struct {
	Files  []string
	Events Events
}

func (w *ReencodeWorker) Name() string { return "reencode" }

func (w *ReencodeWorker) Run(ctx context.Context) {
	runFiles(ctx, w.Files, w.Events, func(path string) (Outcome, string) {
		if !reencode.CanReencode(path) {
			return OutcomeSkipped, "not a FLAC file"
		}
		if err := reencode.File(path); err != nil {
			return OutcomeError, err.Error()
		}
		return OutcomeSuccess, "re-encoded"
	})
}
