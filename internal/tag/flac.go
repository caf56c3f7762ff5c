package tag

import (
	"fmt"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"
)

// flacCodec handles FLAC files via Vorbis comment and PICTURE blocks.
type flacCodec struct{}

const (
	vorbisAlbumArtist = "ALBUMARTIST"
	vorbisDate        = "DATE"
	vorbisTrackTotal  = "TRACKTOTAL"
	vorbisDiscNumber  = "DISCNUMBER"
	vorbisDiscTotal   = "DISCTOTAL"
	vorbisComment     = "COMMENT"
	vorbisLyrics      = "LYRICS"
	vorbisBPM         = "BPM"
	vorbisKey         = "KEY"
	vorbisISRC        = "ISRC"
	vorbisPublisher   = "PUBLISHER"
)

func (flacCodec) read(path string) (*Record, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse FLAC: %w", err)
	}

	rec := &Record{}
	for _, block := range f.Meta {
		switch block.Type {
		case flac.VorbisComment:
			cmt, err := flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				continue
			}
			readVorbisComment(cmt, rec)
		case flac.Picture:
			pic, err := flacpicture.ParseFromMetaDataBlock(*block)
			if err != nil {
				continue
			}
			if rec.Cover == nil || pic.PictureType == flacpicture.PictureTypeFrontCover {
				rec.Cover = pic.ImageData
				rec.CoverMIME = pic.MIME
			}
		case flac.StreamInfo:
			rec.Info = flacStreamInfo(block.Data)
		}
	}

	if rec.Info.Duration > 0 {
		if size := fileSizeOf(path); size > 0 {
			rec.Info.Bitrate = int(size * 8 / int64(rec.Info.Duration) / 1000)
		}
	}
	return rec, nil
}

func (flacCodec) write(path string, rec *Record) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse FLAC: %w", err)
	}

	// Strip the old comment and picture blocks, then rebuild both so at
	// most one of each survives.
	var kept []*flac.MetaDataBlock
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment && block.Type != flac.Picture {
			kept = append(kept, block)
		}
	}
	f.Meta = kept

	cmt := buildVorbisComment(rec)
	cmtBlock := cmt.Marshal()
	f.Meta = append(f.Meta, &cmtBlock)

	if len(rec.Cover) > 0 {
		mime := rec.CoverMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front cover", rec.Cover, mime)
		if err != nil {
			return fmt.Errorf("build FLAC picture block: %w", err)
		}
		picBlock := pic.Marshal()
		f.Meta = append(f.Meta, &picBlock)
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("write FLAC: %w", err)
	}
	return nil
}

func readVorbisComment(cmt *flacvorbis.MetaDataBlockVorbisComment, rec *Record) {
	get := func(key string) string {
		vals, err := cmt.Get(key)
		if err != nil || len(vals) == 0 {
			return ""
		}
		return vals[0]
	}

	rec.Title = get(flacvorbis.FIELD_TITLE)
	rec.Artist = get(flacvorbis.FIELD_ARTIST)
	rec.Album = get(flacvorbis.FIELD_ALBUM)
	rec.AlbumArtist = get(vorbisAlbumArtist)
	rec.Year = get(vorbisDate)
	rec.Genre = get(flacvorbis.FIELD_GENRE)
	rec.Comment = get(vorbisComment)
	rec.Lyrics = get(vorbisLyrics)
	rec.BPM = get(vorbisBPM)
	rec.Key = get(vorbisKey)
	rec.ISRC = get(vorbisISRC)
	rec.Publisher = get(vorbisPublisher)

	// Number and total live in separate keys; the record surfaces the
	// combined "N/total" form.
	rec.Track = combineTotal(get(flacvorbis.FIELD_TRACKNUMBER), get(vorbisTrackTotal))
	rec.Disc = combineTotal(get(vorbisDiscNumber), get(vorbisDiscTotal))
}

func buildVorbisComment(rec *Record) *flacvorbis.MetaDataBlockVorbisComment {
	cmt := flacvorbis.New()
	add := func(key, value string) {
		if value != "" {
			_ = cmt.Add(key, value)
		}
	}

	add(flacvorbis.FIELD_TITLE, rec.Title)
	add(flacvorbis.FIELD_ARTIST, rec.Artist)
	add(flacvorbis.FIELD_ALBUM, rec.Album)
	add(vorbisAlbumArtist, rec.AlbumArtist)
	add(vorbisDate, rec.Year)
	add(flacvorbis.FIELD_GENRE, rec.Genre)
	add(vorbisComment, rec.Comment)
	add(vorbisLyrics, rec.Lyrics)
	add(vorbisBPM, rec.BPM)
	add(vorbisKey, rec.Key)
	add(vorbisISRC, rec.ISRC)
	add(vorbisPublisher, rec.Publisher)

	trackNum, trackTotal := splitTotal(rec.Track)
	add(flacvorbis.FIELD_TRACKNUMBER, trackNum)
	add(vorbisTrackTotal, trackTotal)

	discNum, discTotal := splitTotal(rec.Disc)
	add(vorbisDiscNumber, discNum)
	add(vorbisDiscTotal, discTotal)

	return cmt
}

// flacStreamInfo decodes the 34-byte STREAMINFO block body. Sample rate,
// channel count and total samples share one bit-packed 64-bit region.
func flacStreamInfo(data []byte) Info {
	if len(data) < 18 {
		return Info{}
	}

	packed := uint64(data[10])<<56 | uint64(data[11])<<48 | uint64(data[12])<<40 | uint64(data[13])<<32 |
		uint64(data[14])<<24 | uint64(data[15])<<16 | uint64(data[16])<<8 | uint64(data[17])

	sampleRate := int((packed >> 44) & 0xFFFFF)
	totalSamples := packed & 0xFFFFFFFFF

	info := Info{SampleRate: sampleRate}
	if sampleRate > 0 {
		info.Duration = int(totalSamples / uint64(sampleRate))
	}
	return info
}
