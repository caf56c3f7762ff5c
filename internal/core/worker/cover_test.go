package worker

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"tagfix/internal/api/cover"
	"tagfix/internal/tag"
)

type fakeProvider struct {
	candidates  []cover.Candidate
	data        []byte
	downloadErr error
}

func (p *fakeProvider) Search(ctx context.Context, artist, album string) ([]cover.Candidate, error) {
	return p.candidates, nil
}

func (p *fakeProvider) Download(ctx context.Context, candidate cover.Candidate) ([]byte, error) {
	if p.downloadErr != nil {
		return nil, p.downloadErr
	}
	return p.data, nil
}

func taggedTrack(t *testing.T, dir, name string) string {
	return writeTrack(t, dir, name, func(r *tag.Record) {
		r.Artist = "The Beatles"
		r.Album = "Abbey Road"
	})
}

func TestCoverWorkerEmbedsAndWritesSidecar(t *testing.T) {
	dir := t.TempDir()
	path := taggedTrack(t, dir, "a.mp3")
	art := []byte("jpeg-bytes")

	provider := &fakeProvider{
		candidates: []cover.Candidate{{URL: "http://x/art", Source: "iTunes"}},
		data:       art,
	}
	rec := &recorder{}
	w := &CoverWorker{Files: []string{path}, Client: provider, Events: rec.events()}
	w.Run(context.Background())

	if rec.outcomes[0] != OutcomeUpdated || rec.details[0] != "cover from iTunes" {
		t.Fatalf("outcome = %s (%s)", rec.outcomes[0], rec.details[0])
	}
	if got := loadRecord(t, path).Cover; !bytes.Equal(got, art) {
		t.Errorf("embedded cover = %q", got)
	}
	sidecar, err := os.ReadFile(filepath.Join(dir, "cover.jpg"))
	if err != nil {
		t.Fatalf("cover.jpg sidecar missing: %v", err)
	}
	if !bytes.Equal(sidecar, art) {
		t.Error("sidecar content differs from downloaded art")
	}
}

func TestCoverWorkerSidecarFirstWins(t *testing.T) {
	dir := t.TempDir()
	path := taggedTrack(t, dir, "a.mp3")
	existing := filepath.Join(dir, "cover.jpg")
	if err := os.WriteFile(existing, []byte("old art"), 0644); err != nil {
		t.Fatal(err)
	}

	provider := &fakeProvider{
		candidates: []cover.Candidate{{URL: "http://x/art", Source: "iTunes"}},
		data:       []byte("new art"),
	}
	w := &CoverWorker{Files: []string{path}, Client: provider}
	w.Run(context.Background())

	got, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "old art" {
		t.Error("existing cover.jpg was overwritten")
	}
}

func TestCoverWorkerSkipsEmbedded(t *testing.T) {
	dir := t.TempDir()
	path := writeTrack(t, dir, "a.mp3", func(r *tag.Record) {
		r.Artist = "The Beatles"
		r.Album = "Abbey Road"
		r.Cover = []byte("present")
		r.CoverMIME = "image/jpeg"
	})

	rec := &recorder{}
	w := &CoverWorker{Files: []string{path}, Client: &fakeProvider{}, Events: rec.events()}
	w.Run(context.Background())

	if rec.outcomes[0] != OutcomeSkipped {
		t.Errorf("outcome = %s, want Skipped", rec.outcomes[0])
	}
}

func TestCoverWorkerOutcomes(t *testing.T) {
	dir := t.TempDir()
	bare := writeTrack(t, dir, "bare.mp3", nil)
	tagged := taggedTrack(t, dir, "tagged.mp3")

	rec := &recorder{}
	w := &CoverWorker{Files: []string{bare}, Client: &fakeProvider{}, Events: rec.events()}
	w.Run(context.Background())
	if rec.outcomes[0] != OutcomeMissing {
		t.Errorf("bare file outcome = %s, want Missing", rec.outcomes[0])
	}

	rec = &recorder{}
	w = &CoverWorker{Files: []string{tagged}, Client: &fakeProvider{}, Events: rec.events()}
	w.Run(context.Background())
	if rec.outcomes[0] != OutcomeNotFound {
		t.Errorf("no-candidate outcome = %s, want Not Found", rec.outcomes[0])
	}

	rec = &recorder{}
	failing := &fakeProvider{
		candidates:  []cover.Candidate{{URL: "http://x/art", Source: "iTunes"}},
		downloadErr: fmt.Errorf("timeout"),
	}
	w = &CoverWorker{Files: []string{tagged}, Client: failing, Events: rec.events()}
	w.Run(context.Background())
	if rec.outcomes[0] != OutcomeError {
		t.Errorf("failed-download outcome = %s, want Error", rec.outcomes[0])
	}
}
