package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"tagfix/internal/api/musicbrainz"
	"tagfix/internal/shared"
	"tagfix/internal/tag"
)

// AutoTagMode selects which files an auto-tag run considers in need of
// tagging.
type AutoTagMode string

const (
	TagAll            AutoTagMode = "all"
	TagMissingGenre   AutoTagMode = "genre"
	TagMissingNumbers AutoTagMode = "numbers"
)

// genericGenres are placeholder values treated the same as an absent
// genre.
var genericGenres = map[string]bool{
	"unknown": true,
	"generic": true,
	"various": true,
	"track":   true,
	"audio":   true,
}

// IsGenericGenre reports whether the genre is empty or a placeholder.
func IsGenericGenre(genre string) bool {
	return strings.TrimSpace(genre) == "" || genericGenres[strings.ToLower(strings.TrimSpace(genre))]
}

var leadingTrackNumber = regexp.MustCompile(`^\d{1,3}\s*[-._)\s]\s*`)

// TitleFromFilename derives a track title from a file path: the base name
// without extension, with any leading track-number prefix stripped.
func TitleFromFilename(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = leadingTrackNumber.ReplaceAllString(base, "")
	return strings.TrimSpace(base)
}

// AutoTagWorker fills year, album artist, genre and disc/track numbers
// from MusicBrainz. Files sharing an (artist, album) pair form one match
// group so the release search happens once per group.
type AutoTagWorker struct {
	Files        []string
	Client       ReleaseResolver
	Mode         AutoTagMode
	SkipExisting bool
	Warnings     *shared.WarningCollector
	Events       Events

	groups map[groupKey]*matchGroup
}

type groupKey struct {
	artist string
	album  string
}

// matchGroup caches one release resolution. resolved is set even when the
// search came up empty so a missing release is only searched once.
type matchGroup struct {
	resolved bool
	release  *musicbrainz.Release
}

func (w *AutoTagWorker) Name() string { return "autotag" }

func (w *AutoTagWorker) Run(ctx context.Context) {
	w.groups = make(map[groupKey]*matchGroup)
	runFiles(ctx, w.Files, w.Events, func(path string) (Outcome, string) {
		return w.processFile(ctx, path)
	})
}

func (w *AutoTagWorker) processFile(ctx context.Context, path string) (Outcome, string) {
	f, err := tag.Load(path)
	if err != nil {
		return OutcomeError, err.Error()
	}
	rec := f.Record

	if !w.needsTagging(rec) {
		return OutcomeSkipped, "nothing to tag"
	}
	// Files tagged only at the album level still group: the album artist
	// stands in when the track artist is absent.
	groupArtist := rec.Artist
	if groupArtist == "" {
		groupArtist = rec.AlbumArtist
	}
	if groupArtist == "" || rec.Album == "" {
		return OutcomeMissing, "artist or album tag missing"
	}

	release := w.resolveGroup(ctx, groupArtist, rec.Album)
	if release == nil {
		return OutcomeNotFound, fmt.Sprintf("no release found for %s - %s", groupArtist, rec.Album)
	}

	title := rec.Title
	if title == "" {
		title = TitleFromFilename(path)
	}
	track := w.Client.MatchTrack(release, title)
	if track == nil {
		if fromName := TitleFromFilename(path); fromName != "" && fromName != title {
			track = w.Client.MatchTrack(release, fromName)
		}
	}
	if track == nil && w.Warnings != nil {
		w.Warnings.AddTrackMatchWarning(rec.Artist, title, "no matching track on release")
	}

	changed := w.applyRelease(ctx, rec, release, track)
	if len(changed) == 0 {
		if track == nil {
			return OutcomeNotMatched, "no matching track on release"
		}
		return OutcomeSkipped, "already tagged"
	}
	if err := f.Save(); err != nil {
		return OutcomeError, err.Error()
	}
	return OutcomeUpdated, "updated " + strings.Join(changed, ", ")
}

func (w *AutoTagWorker) needsTagging(rec *tag.Record) bool {
	switch w.Mode {
	case TagMissingGenre:
		return IsGenericGenre(rec.Genre)
	case TagMissingNumbers:
		return rec.Track == "" || rec.Disc == "" || rec.Year == ""
	default:
		return true
	}
}

// resolveGroup returns the release for the file's match group, searching
// on the first call and serving every later call from the cache.
func (w *AutoTagWorker) resolveGroup(ctx context.Context, artist, album string) *musicbrainz.Release {
	key := groupKey{strings.ToLower(artist), strings.ToLower(album)}
	group, ok := w.groups[key]
	if !ok {
		group = &matchGroup{}
		w.groups[key] = group
	}
	if group.resolved {
		return group.release
	}
	group.resolved = true

	found, err := w.Client.SearchRelease(ctx, artist, album)
	if err != nil || found == nil {
		if err != nil && w.Warnings != nil {
			w.Warnings.AddReleaseLookupWarning(artist, album, err.Error())
		}
		return nil
	}

	// The search result lacks the track listing; fall back to it only if
	// the full lookup fails.
	full, err := w.Client.LookupRelease(ctx, found.ID)
	if err != nil || full == nil {
		group.release = found
		return found
	}
	group.release = full
	return full
}

// applyRelease writes release fields into the record under the
// only-if-empty policy (unless SkipExisting is off) and returns the names
// of the fields it changed.
func (w *AutoTagWorker) applyRelease(ctx context.Context, rec *tag.Record, release *musicbrainz.Release, track *musicbrainz.MediaTrack) []string {
	var changed []string
	apply := func(field tag.Field, value string) {
		if value == "" {
			return
		}
		current := rec.Get(field)
		if current == value || (current != "" && w.SkipExisting) {
			return
		}
		rec.Set(field, value)
		changed = append(changed, string(field))
	}

	apply(tag.FieldYear, release.Year())
	if len(release.ArtistCredit) > 0 {
		apply(tag.FieldAlbumArtist, release.ArtistCredit[0].Name)
	}

	// A placeholder genre never blocks a real one, but the lookup chain
	// is only walked when the result could actually be applied.
	if IsGenericGenre(rec.Genre) || !w.SkipExisting {
		genres := w.Client.ResolveGenres(ctx, release, track)
		if len(genres) > 0 {
			value := strings.Join(genres, ", ")
			if rec.Genre != value {
				rec.Set(tag.FieldGenre, value)
				changed = append(changed, string(tag.FieldGenre))
			}
		} else if w.Warnings != nil {
			w.Warnings.AddGenreLookupWarning(rec.Artist, rec.Album, "no genre tags at any level")
		}
	}

	// Number and total are applied independently: a file that already
	// carries a bare track number still gets the total filled in next
	// to it.
	if track != nil {
		applyMerged := func(field tag.Field, num, total string) {
			value := mergeNumber(rec.Get(field), num, total, w.SkipExisting)
			if value == "" || rec.Get(field) == value {
				return
			}
			rec.Set(field, value)
			changed = append(changed, string(field))
		}

		discTotal := ""
		if n := release.DiscCount(); n > 1 {
			discTotal = strconv.Itoa(n)
		}
		applyMerged(tag.FieldDisc, strconv.Itoa(track.DiscNumber), discTotal)

		trackTotal := ""
		if n := discTrackCount(release, track.DiscNumber); n > 0 {
			trackTotal = strconv.Itoa(n)
		}
		applyMerged(tag.FieldTrack, strconv.Itoa(track.Position), trackTotal)
	}
	return changed
}

// mergeNumber merges a resolved number/total pair into the current "N" or
// "N/total" value. Under the only-if-empty policy the existing number and
// total each win separately, so a missing total is still filled in.
func mergeNumber(current, num, total string, skipExisting bool) string {
	curNum, curTotal := current, ""
	if i := strings.IndexByte(current, '/'); i >= 0 {
		curNum, curTotal = current[:i], current[i+1:]
	}
	if curNum != "" && skipExisting {
		num = curNum
	}
	if curTotal != "" && skipExisting {
		total = curTotal
	}
	if num == "" {
		return ""
	}
	if total == "" || total == "0" {
		return num
	}
	return num + "/" + total
}

func discTrackCount(release *musicbrainz.Release, disc int) int {
	for _, m := range release.Media {
		if m.Position == disc {
			if m.TrackCount > 0 {
				return m.TrackCount
			}
			return len(m.Tracks)
		}
	}
	return 0
}
