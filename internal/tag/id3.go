package tag

import (
	"encoding/binary"
	"fmt"
	"os"

	id3v2 "github.com/bogem/id3v2/v2"
)

// id3Codec handles MP3 files tagged with ID3v2.
type id3Codec struct{}

func (id3Codec) read(path string) (*Record, error) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("parse ID3 tag: %w", err)
	}
	defer t.Close()

	rec := recordFromID3(t)
	rec.Info = mp3Info(path, int64(t.Size()))
	return rec, nil
}

func (id3Codec) write(path string, rec *Record) error {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("parse ID3 tag: %w", err)
	}
	defer t.Close()

	applyRecordToID3(t, rec)

	if err := t.Save(); err != nil {
		return fmt.Errorf("write ID3 tag: %w", err)
	}
	return nil
}

func recordFromID3(t *id3v2.Tag) *Record {
	rec := &Record{
		Title:       t.Title(),
		Artist:      t.Artist(),
		Album:       t.Album(),
		AlbumArtist: t.GetTextFrame("TPE2").Text,
		Year:        t.Year(),
		Genre:       t.Genre(),
		Track:       t.GetTextFrame(t.CommonID("Track number/Position in set")).Text,
		Disc:        t.GetTextFrame(t.CommonID("Part of a set")).Text,
		BPM:         t.GetTextFrame("TBPM").Text,
		Key:         t.GetTextFrame("TKEY").Text,
		ISRC:        t.GetTextFrame("TSRC").Text,
		Publisher:   t.GetTextFrame("TPUB").Text,
	}

	for _, f := range t.GetFrames(t.CommonID("Comments")) {
		if cf, ok := f.(id3v2.CommentFrame); ok {
			rec.Comment = cf.Text
			break
		}
	}

	for _, f := range t.GetFrames(t.CommonID("Unsynchronised lyrics/text transcription")) {
		if uslt, ok := f.(id3v2.UnsynchronisedLyricsFrame); ok {
			rec.Lyrics = uslt.Lyrics
			break
		}
	}

	// Prefer the front cover; fall back to the first picture present.
	for _, f := range t.GetFrames(t.CommonID("Attached picture")) {
		pic, ok := f.(id3v2.PictureFrame)
		if !ok {
			continue
		}
		if rec.Cover == nil || pic.PictureType == id3v2.PTFrontCover {
			rec.Cover = pic.Picture
			rec.CoverMIME = pic.MimeType
		}
		if pic.PictureType == id3v2.PTFrontCover {
			break
		}
	}

	return rec
}

// applyRecordToID3 rewrites the managed frames. Lyrics and picture frames
// are deleted before re-adding so at most one instance of each survives.
func applyRecordToID3(t *id3v2.Tag, rec *Record) {
	t.SetDefaultEncoding(id3v2.EncodingUTF8)
	t.SetVersion(4)

	setID3Text(t, "TIT2", rec.Title)
	setID3Text(t, "TPE1", rec.Artist)
	setID3Text(t, "TALB", rec.Album)
	setID3Text(t, "TPE2", rec.AlbumArtist)
	setID3Text(t, t.CommonID("Year"), rec.Year)
	setID3Text(t, "TCON", rec.Genre)
	setID3Text(t, t.CommonID("Track number/Position in set"), rec.Track)
	setID3Text(t, t.CommonID("Part of a set"), rec.Disc)
	setID3Text(t, "TBPM", rec.BPM)
	setID3Text(t, "TKEY", rec.Key)
	setID3Text(t, "TSRC", rec.ISRC)
	setID3Text(t, "TPUB", rec.Publisher)

	t.DeleteFrames(t.CommonID("Comments"))
	if rec.Comment != "" {
		t.AddCommentFrame(id3v2.CommentFrame{
			Encoding: id3v2.EncodingUTF8,
			Language: "eng",
			Text:     rec.Comment,
		})
	}

	t.DeleteFrames(t.CommonID("Unsynchronised lyrics/text transcription"))
	if rec.Lyrics != "" {
		t.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
			Encoding:          id3v2.EncodingUTF8,
			Language:          "eng",
			ContentDescriptor: "",
			Lyrics:            rec.Lyrics,
		})
	}

	t.DeleteFrames(t.CommonID("Attached picture"))
	if len(rec.Cover) > 0 {
		mime := rec.CoverMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		t.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    mime,
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     rec.Cover,
		})
	}
}

func setID3Text(t *id3v2.Tag, id, value string) {
	if value == "" {
		t.DeleteFrames(id)
		return
	}
	t.AddTextFrame(id, id3v2.EncodingUTF8, value)
}

// MPEG1 Layer III bitrate table, kbps.
var mp3BitrateTable = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}

// MPEG1 sample rate table, Hz.
var mp3SampleRateTable = [4]int{44100, 48000, 32000, 0}

// mp3Info probes the first MPEG audio frame after the ID3 tag. Duration
// comes from a Xing/Info frame count when present, otherwise from a CBR
// estimate. Failures yield a zero Info.
func mp3Info(path string, tagSize int64) Info {
	f, err := os.Open(path)
	if err != nil {
		return Info{}
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Info{}
	}
	fileSize := st.Size()

	for offset := tagSize; offset < fileSize-4; offset++ {
		header, ok := mp3FrameHeaderAt(f, offset)
		if !ok {
			continue
		}
		bitrate, sampleRate := decodeMP3FrameHeader(header)
		if bitrate == 0 || sampleRate == 0 {
			continue
		}

		info := Info{Bitrate: bitrate, SampleRate: sampleRate, FileSize: fileSize}
		if frames, ok := xingFrameCount(f, offset); ok {
			// Each MPEG1 Layer III frame carries 1152 samples.
			info.Duration = int(uint64(frames) * 1152 / uint64(sampleRate))
		} else {
			info.Duration = int((fileSize - tagSize) * 8 / int64(bitrate*1000))
		}
		return info
	}
	return Info{FileSize: fileSize}
}

func mp3FrameHeaderAt(f *os.File, offset int64) (uint32, bool) {
	var buf [4]byte
	if _, err := f.ReadAt(buf[:], offset); err != nil {
		return 0, false
	}
	header := binary.BigEndian.Uint32(buf[:])

	// 11-bit frame sync.
	if header&0xFFE00000 != 0xFFE00000 {
		return 0, false
	}
	version := (header >> 19) & 0x3
	layer := (header >> 17) & 0x3
	if version != 3 || layer != 1 { // MPEG1 Layer III
		return 0, false
	}
	return header, true
}

func decodeMP3FrameHeader(header uint32) (bitrateKbps, sampleRate int) {
	bitrateKbps = mp3BitrateTable[(header>>12)&0xF]
	sampleRate = mp3SampleRateTable[(header>>10)&0x3]
	return
}

func xingFrameCount(f *os.File, frameOffset int64) (uint32, bool) {
	// Xing/Info header sits 36 bytes into an MPEG1 frame.
	buf := make([]byte, 12)
	if _, err := f.ReadAt(buf, frameOffset+36); err != nil {
		return 0, false
	}
	marker := string(buf[0:4])
	if marker != "Xing" && marker != "Info" {
		return 0, false
	}
	flags := binary.BigEndian.Uint32(buf[4:8])
	if flags&0x1 == 0 {
		return 0, false
	}
	return binary.BigEndian.Uint32(buf[8:12]), true
}
