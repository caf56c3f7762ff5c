package tag

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned by Load for extensions outside the
// supported container set.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// codec translates between one container format and a Record. Codecs are
// stateless; the Record owns all decoded values until written back.
type codec interface {
	read(path string) (*Record, error)
	write(path string, rec *Record) error
}

var codecs = map[string]codec{
	".mp3":  id3Codec{},
	".wav":  wavCodec{},
	".flac": flacCodec{},
	".ogg":  oggCodec{},
	".m4a":  mp4Codec{},
	".mp4":  mp4Codec{},
}

// SupportedExtensions returns the extensions (with leading dot, lowercase)
// the codec layer can load.
func SupportedExtensions() []string {
	return []string{".mp3", ".wav", ".flac", ".ogg", ".m4a", ".mp4"}
}

// IsSupported reports whether the path has a loadable extension.
func IsSupported(path string) bool {
	_, ok := codecs[strings.ToLower(filepath.Ext(path))]
	return ok
}

// File binds an on-disk audio file to its in-memory Record. Changes to the
// Record are only persisted by Save; a discarded File leaves the file
// untouched.
type File struct {
	Path   string
	Record *Record

	codec codec
}

// Load reads the metadata of the audio file at path into a fresh Record.
func Load(path string) (*File, error) {
	ext := strings.ToLower(filepath.Ext(path))
	c, ok := codecs[ext]
	if !ok {
		return nil, fmt.Errorf("%s: %w (%s)", path, ErrUnsupportedFormat, ext)
	}

	rec, err := c.read(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if info, statErr := os.Stat(path); statErr == nil {
		rec.Info.FileSize = info.Size()
	}

	return &File{Path: path, Record: rec, codec: c}, nil
}

// Save writes the Record back into the container. When the lyrics field is
// non-empty a "<base>.lrc" sidecar is rewritten next to the audio file so
// external players stay in sync; sidecar failures do not fail the save.
func (f *File) Save() error {
	if err := f.codec.write(f.Path, f.Record); err != nil {
		return fmt.Errorf("save %s: %w", f.Path, err)
	}
	if strings.TrimSpace(f.Record.Lyrics) != "" {
		_ = WriteLyricsSidecar(f.Path, f.Record.Lyrics)
	}
	return nil
}

// SetCover normalizes raw image bytes and installs them as the front cover.
func (f *File) SetCover(data []byte) error {
	return f.Record.SetCover(data)
}

// WriteLyricsSidecar writes lyrics to "<base>.lrc" next to the audio file.
func WriteLyricsSidecar(audioPath, lyrics string) error {
	base := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	return os.WriteFile(base+".lrc", []byte(lyrics), 0644)
}

func fileSizeOf(path string) int64 {
	st, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return st.Size()
}
