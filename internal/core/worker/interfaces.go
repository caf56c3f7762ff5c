package worker

import (
	"context"

	"tagfix/internal/api/cover"
	"tagfix/internal/api/lyrics"
	"tagfix/internal/api/musicbrainz"
)

// ReleaseResolver is the slice of the MusicBrainz client the auto-tag
// worker depends on.
type ReleaseResolver interface {
	SearchRelease(ctx context.Context, artist, album string) (*musicbrainz.Release, error)
	LookupRelease(ctx context.Context, mbid string) (*musicbrainz.Release, error)
	MatchTrack(release *musicbrainz.Release, title string) *musicbrainz.MediaTrack
	ResolveGenres(ctx context.Context, release *musicbrainz.Release, track *musicbrainz.MediaTrack) []string
}

// LyricsSearcher is the slice of the lyrics client the lyrics worker
// depends on.
type LyricsSearcher interface {
	Search(ctx context.Context, artist, title string) ([]lyrics.Candidate, error)
}

// CoverProvider is the slice of the cover client the cover worker
// depends on.
type CoverProvider interface {
	Search(ctx context.Context, artist, album string) ([]cover.Candidate, error)
	Download(ctx context.Context, candidate cover.Candidate) ([]byte, error)
}

var (
	_ ReleaseResolver = (*musicbrainz.Client)(nil)
	_ LyricsSearcher  = (*lyrics.Client)(nil)
	_ CoverProvider   = (*cover.Client)(nil)
)
