package csvio

import (
	"bytes"
	"strings"
	"testing"

	"tagfix/internal/tag"
)

func TestExportImportRoundTrip(t *testing.T) {
	files := []*tag.File{
		{Path: "/music/a.mp3", Record: &tag.Record{Title: "Hey Jude", Artist: "The Beatles", Track: "1/2"}},
		{Path: "/music/b.flac", Record: &tag.Record{Title: "Let It Be", Year: "1970", Genre: "rock, pop"}},
	}

	var buf bytes.Buffer
	if err := Export(&buf, files); err != nil {
		t.Fatalf("Export error: %v", err)
	}

	rows, err := Import(&buf)
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Path != "/music/a.mp3" {
		t.Errorf("rows[0].Path = %q", rows[0].Path)
	}
	if rows[0].Values[tag.FieldTrack] != "1/2" {
		t.Errorf("track = %q, want 1/2", rows[0].Values[tag.FieldTrack])
	}
	if rows[1].Values[tag.FieldGenre] != "rock, pop" {
		t.Errorf("genre = %q", rows[1].Values[tag.FieldGenre])
	}
}

func TestImportDropsEmptyCells(t *testing.T) {
	csv := "path,title,artist\n/music/a.mp3,,Queen\n"
	rows, err := Import(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if _, ok := rows[0].Values[tag.FieldTitle]; ok {
		t.Error("empty title cell should not be imported")
	}
	if rows[0].Values[tag.FieldArtist] != "Queen" {
		t.Errorf("artist = %q", rows[0].Values[tag.FieldArtist])
	}
}

func TestImportIgnoresUnknownColumns(t *testing.T) {
	csv := "path,title,rating\n/music/a.mp3,Hey Jude,5\n"
	rows, err := Import(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if len(rows[0].Values) != 1 || rows[0].Values[tag.FieldTitle] != "Hey Jude" {
		t.Errorf("Values = %v, want only the title", rows[0].Values)
	}
}

func TestImportRequiresPathColumn(t *testing.T) {
	if _, err := Import(strings.NewReader("title,artist\nx,y\n")); err == nil {
		t.Error("expected error for CSV without a path column")
	}
}

func TestImportSkipsPathlessRows(t *testing.T) {
	csv := "path,title\n,No Path\n/music/a.mp3,Hey Jude\n"
	rows, err := Import(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if len(rows) != 1 || rows[0].Path != "/music/a.mp3" {
		t.Errorf("rows = %v, want only the row with a path", rows)
	}
}

func TestHeaderShape(t *testing.T) {
	header := Header()
	if header[0] != "path" {
		t.Errorf("header[0] = %q, want path", header[0])
	}
	if len(header) != len(tag.ScalarFields)+1 {
		t.Errorf("header has %d columns, want %d", len(header), len(tag.ScalarFields)+1)
	}
}
