package worker

import (
	"context"
	"fmt"

	"tagfix/internal/api/lyrics"
	"tagfix/internal/shared"
	"tagfix/internal/tag"
)

// LyricsWorker fetches lyrics by artist and title and embeds the best
// candidate. Saving also refreshes the ".lrc" sidecar.
type LyricsWorker struct {
	Files     []string
	Client    LyricsSearcher
	Overwrite bool
	Warnings  *shared.WarningCollector
	Events    Events
}

func (w *LyricsWorker) Name() string { return "lyrics" }

func (w *LyricsWorker) Run(ctx context.Context) {
	runFiles(ctx, w.Files, w.Events, func(path string) (Outcome, string) {
		return w.processFile(ctx, path)
	})
}

func (w *LyricsWorker) processFile(ctx context.Context, path string) (Outcome, string) {
	f, err := tag.Load(path)
	if err != nil {
		return OutcomeError, err.Error()
	}
	rec := f.Record

	if rec.Lyrics != "" && !w.Overwrite {
		return OutcomeSkipped, "lyrics already present"
	}
	if rec.Artist == "" || rec.Title == "" {
		return OutcomeMissing, "artist or title tag missing"
	}

	candidates, err := w.Client.Search(ctx, rec.Artist, rec.Title)
	if err != nil {
		if w.Warnings != nil {
			w.Warnings.AddLyricsLookupWarning(rec.Artist, rec.Title, err.Error())
		}
		return OutcomeError, fmt.Sprintf("lyrics search failed: %v", err)
	}

	best := lyrics.Best(candidates, rec.Info.Duration)
	if best == nil {
		return OutcomeNotFound, "no lyrics found"
	}

	rec.Lyrics = best.Text()
	if err := f.Save(); err != nil {
		return OutcomeError, err.Error()
	}
	if best.IsSynced() {
		return OutcomeUpdated, "synced lyrics embedded"
	}
	return OutcomeUpdated, "plain lyrics embedded"
}
