package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"tagfix/internal/shared"
	"tagfix/internal/tag"
)

// CoverWorker fetches album art and embeds it. The first successful fetch
// in each directory also drops a cover.jpg sidecar; an existing sidecar
// is never overwritten.
type CoverWorker struct {
	Files     []string
	Client    CoverProvider
	Overwrite bool
	Warnings  *shared.WarningCollector
	Events    Events

	doneDirs map[string]bool
}

func (w *CoverWorker) Name() string { return "cover" }

func (w *CoverWorker) Run(ctx context.Context) {
	w.doneDirs = make(map[string]bool)
	runFiles(ctx, w.Files, w.Events, func(path string) (Outcome, string) {
		return w.processFile(ctx, path)
	})
}

func (w *CoverWorker) processFile(ctx context.Context, path string) (Outcome, string) {
	f, err := tag.Load(path)
	if err != nil {
		return OutcomeError, err.Error()
	}
	rec := f.Record

	if len(rec.Cover) > 0 && !w.Overwrite {
		return OutcomeSkipped, "cover already embedded"
	}
	if rec.Artist == "" && rec.Album == "" {
		return OutcomeMissing, "artist and album tags missing"
	}

	candidates, err := w.Client.Search(ctx, rec.Artist, rec.Album)
	if err != nil {
		return OutcomeError, fmt.Sprintf("cover search failed: %v", err)
	}
	if len(candidates) == 0 {
		return OutcomeNotFound, "no cover found"
	}

	var data []byte
	var source string
	for _, candidate := range candidates {
		d, err := w.Client.Download(ctx, candidate)
		if err != nil {
			if w.Warnings != nil {
				w.Warnings.AddCoverDownloadWarning(rec.Album, err.Error())
			}
			continue
		}
		data = d
		source = candidate.Source
		break
	}
	if data == nil {
		return OutcomeError, "every cover download failed"
	}

	// Download already normalized the image, so install it directly
	// instead of running it through SetCover a second time.
	rec.Cover = data
	rec.CoverMIME = "image/jpeg"
	if err := f.Save(); err != nil {
		return OutcomeError, err.Error()
	}

	w.writeSidecar(path, data)
	return OutcomeUpdated, "cover from " + source
}

// writeSidecar writes cover.jpg next to the file once per directory.
func (w *CoverWorker) writeSidecar(path string, data []byte) {
	dir := filepath.Dir(path)
	if w.doneDirs[dir] {
		return
	}
	w.doneDirs[dir] = true

	target := filepath.Join(dir, "cover.jpg")
	if shared.FileExists(target) {
		return
	}
	if err := os.WriteFile(target, data, 0644); err != nil && w.Warnings != nil {
		w.Warnings.AddSidecarWriteWarning(target, err.Error())
	}
}
