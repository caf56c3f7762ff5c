package reencode

import "testing"

func TestCanReencode(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/music/a.flac", true},
		{"/music/a.FLAC", true},
		{"/music/a.mp3", false},
		{"/music/a.ogg", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := CanReencode(tt.path); got != tt.want {
			t.Errorf("CanReencode(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestFileRejectsNonFlac(t *testing.T) {
	if err := File("/music/a.mp3"); err == nil {
		t.Error("expected error for non-FLAC input")
	}
}
