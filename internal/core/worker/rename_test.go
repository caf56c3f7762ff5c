package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tagfix/internal/tag"
)

func TestRenameWorkerFromTags(t *testing.T) {
	dir := t.TempDir()
	path := writeTrack(t, dir, "untitled.mp3", func(r *tag.Record) {
		r.Artist = "Queen"
		r.Title = "Bohemian Rhapsody"
		r.Track = "11"
	})

	rec := &recorder{}
	w := &RenameWorker{Files: []string{path}, Pattern: "%track% - %artist% - %title%", Events: rec.events()}
	w.Run(context.Background())

	if rec.outcomes[0] != OutcomeSuccess {
		t.Fatalf("outcome = %s (%s)", rec.outcomes[0], rec.details[0])
	}
	target := filepath.Join(dir, "11 - Queen - Bohemian Rhapsody.mp3")
	if _, err := os.Stat(target); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("original file still present after rename")
	}
}

func TestRenameWorkerCollision(t *testing.T) {
	dir := t.TempDir()
	path := writeTrack(t, dir, "untitled.mp3", func(r *tag.Record) {
		r.Artist = "Queen"
		r.Title = "Bohemian Rhapsody"
	})
	// Occupy the target name.
	collision := filepath.Join(dir, "Queen - Bohemian Rhapsody.mp3")
	if err := os.WriteFile(collision, []byte("taken"), 0644); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	w := &RenameWorker{Files: []string{path}, Pattern: "%artist% - %title%", Events: rec.events()}
	w.Run(context.Background())

	if rec.outcomes[0] != OutcomeError {
		t.Errorf("outcome = %s, want Error on collision", rec.outcomes[0])
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("original file must survive a collision")
	}
}

func TestRenameWorkerAlreadyNamed(t *testing.T) {
	dir := t.TempDir()
	path := writeTrack(t, dir, "Queen - Bohemian Rhapsody.mp3", func(r *tag.Record) {
		r.Artist = "Queen"
		r.Title = "Bohemian Rhapsody"
	})

	rec := &recorder{}
	w := &RenameWorker{Files: []string{path}, Pattern: "%artist% - %title%", Events: rec.events()}
	w.Run(context.Background())

	if rec.outcomes[0] != OutcomeSkipped {
		t.Errorf("outcome = %s, want Skipped", rec.outcomes[0])
	}
}

func TestRenameWorkerTagsFromName(t *testing.T) {
	dir := t.TempDir()
	path := writeTrack(t, dir, "Queen - Somebody to Love.mp3", nil)

	rec := &recorder{}
	w := &RenameWorker{Files: []string{path}, Pattern: "%artist% - %title%", FromName: true, Events: rec.events()}
	w.Run(context.Background())

	if rec.outcomes[0] != OutcomeUpdated {
		t.Fatalf("outcome = %s (%s)", rec.outcomes[0], rec.details[0])
	}
	got := loadRecord(t, path)
	if got.Artist != "Queen" || got.Title != "Somebody to Love" {
		t.Errorf("parsed tags = %q / %q", got.Artist, got.Title)
	}
}
