package reencode

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CheckFFmpeg checks if ffmpeg is installed and available in the system's PATH.
func CheckFFmpeg() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// CanReencode reports whether the file is a format the re-encoder handles.
func CanReencode(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".flac"
}

// File re-encodes a FLAC file in place using ffmpeg at the highest
// compression level. Tags are carried over with -map_metadata; the
// original is only replaced after ffmpeg succeeded.
func File(path string) error {
	if !CanReencode(path) {
		return fmt.Errorf("unsupported format for re-encode: %s", filepath.Ext(path))
	}

	tmp := strings.TrimSuffix(path, filepath.Ext(path)) + ".reencode.flac"
	cmd := exec.Command("ffmpeg", "-y", "-i", path,
		"-c:a", "flac", "-compression_level", "8", "-map_metadata", "0", tmp)
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to re-encode track: %w\nffmpeg output: %s", err, string(output))
	}

	if _, err := os.Stat(tmp); os.IsNotExist(err) {
		return fmt.Errorf("re-encoded file not found after conversion")
	}
	return os.Rename(tmp, path)
}
