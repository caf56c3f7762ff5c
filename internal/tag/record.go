package tag

import "strings"

// Field names a scalar metadata field on a Record. The same set of fields
// is exposed for every container; fields a container cannot store read as
// empty and are dropped on write.
type Field string

const (
	FieldTitle       Field = "title"
	FieldArtist      Field = "artist"
	FieldAlbum       Field = "album"
	FieldAlbumArtist Field = "albumartist"
	FieldYear        Field = "year"
	FieldGenre       Field = "genre"
	FieldComment     Field = "comment"
	FieldTrack       Field = "track"
	FieldDisc        Field = "disc"
	FieldLyrics      Field = "lyrics"
	FieldBPM         Field = "bpm"
	FieldKey         Field = "key"
	FieldISRC        Field = "isrc"
	FieldPublisher   Field = "publisher"
)

// ScalarFields lists every scalar field in stable order. The cover image is
// not included; it is binary and handled separately.
var ScalarFields = []Field{
	FieldTitle, FieldArtist, FieldAlbum, FieldAlbumArtist,
	FieldYear, FieldGenre, FieldComment, FieldTrack, FieldDisc,
	FieldLyrics, FieldBPM, FieldKey, FieldISRC, FieldPublisher,
}

// Info carries read-only stream properties. All values are best-effort and
// zero when the container could not be probed.
type Info struct {
	Duration   int   // seconds
	Bitrate    int   // kbps
	SampleRate int   // Hz
	FileSize   int64 // bytes
}

// Record is the unified metadata view over one audio file. Track and Disc
// hold either "N" or "N/total" regardless of how the container stores them.
type Record struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Year        string
	Genre       string
	Comment     string
	Track       string
	Disc        string
	Lyrics      string
	BPM         string
	Key         string
	ISRC        string
	Publisher   string

	Cover     []byte
	CoverMIME string

	Info Info
}

// Get returns the value of a scalar field. Unknown fields read as empty.
func (r *Record) Get(f Field) string {
	switch f {
	case FieldTitle:
		return r.Title
	case FieldArtist:
		return r.Artist
	case FieldAlbum:
		return r.Album
	case FieldAlbumArtist:
		return r.AlbumArtist
	case FieldYear:
		return r.Year
	case FieldGenre:
		return r.Genre
	case FieldComment:
		return r.Comment
	case FieldTrack:
		return r.Track
	case FieldDisc:
		return r.Disc
	case FieldLyrics:
		return r.Lyrics
	case FieldBPM:
		return r.BPM
	case FieldKey:
		return r.Key
	case FieldISRC:
		return r.ISRC
	case FieldPublisher:
		return r.Publisher
	}
	return ""
}

// Set assigns a scalar field. Unknown fields are a no-op.
func (r *Record) Set(f Field, value string) {
	switch f {
	case FieldTitle:
		r.Title = value
	case FieldArtist:
		r.Artist = value
	case FieldAlbum:
		r.Album = value
	case FieldAlbumArtist:
		r.AlbumArtist = value
	case FieldYear:
		r.Year = value
	case FieldGenre:
		r.Genre = value
	case FieldComment:
		r.Comment = value
	case FieldTrack:
		r.Track = value
	case FieldDisc:
		r.Disc = value
	case FieldLyrics:
		r.Lyrics = value
	case FieldBPM:
		r.BPM = value
	case FieldKey:
		r.Key = value
	case FieldISRC:
		r.ISRC = value
	case FieldPublisher:
		r.Publisher = value
	}
}

// splitTotal splits "N/total" into its parts. A bare "N" yields an empty
// total.
func splitTotal(s string) (num, total string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

// combineTotal renders "N/total", or just "N" when total is empty.
func combineTotal(num, total string) string {
	num = strings.TrimSpace(num)
	total = strings.TrimSpace(total)
	if num == "" {
		return ""
	}
	if total == "" || total == "0" {
		return num
	}
	return num + "/" + total
}
