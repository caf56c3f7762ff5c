package tag

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	id3v2 "github.com/bogem/id3v2/v2"
	flac "github.com/go-flac/go-flac"
)

func fillRecord(rec *Record) {
	rec.Title = "Hey Jude"
	rec.Artist = "The Beatles"
	rec.Album = "Past Masters"
	rec.AlbumArtist = "The Beatles"
	rec.Year = "1968"
	rec.Genre = "Rock"
	rec.Comment = "remaster"
	rec.Track = "3/12"
	rec.Disc = "2/5"
	rec.Lyrics = "Hey Jude, don't make it bad"
	rec.BPM = "74"
	rec.ISRC = "GBAYE0601690"
}

func checkRecord(t *testing.T, rec *Record, skip ...Field) {
	t.Helper()
	want := &Record{}
	fillRecord(want)
	skipped := make(map[Field]bool)
	for _, f := range skip {
		skipped[f] = true
	}
	for _, f := range ScalarFields {
		if skipped[f] || want.Get(f) == "" {
			continue
		}
		if got := rec.Get(f); got != want.Get(f) {
			t.Errorf("field %s = %q, want %q", f, got, want.Get(f))
		}
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for .txt")
	}
	if !IsSupported("a.mp3") || IsSupported("a.txt") {
		t.Error("IsSupported misclassifies extensions")
	}
}

func writeTestMP3(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "song.mp3")
	// No leading tag; the codec creates one on save. The payload stays
	// clear of the 0xFF frame sync.
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x00, 0x7F}, 256), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMP3RoundTrip(t *testing.T) {
	path := writeTestMP3(t, t.TempDir())

	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	fillRecord(f.Record)
	if err := f.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	checkRecord(t, reloaded.Record)
}

func TestMP3LyricsSidecar(t *testing.T) {
	dir := t.TempDir()
	path := writeTestMP3(t, dir)

	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	f.Record.Lyrics = "[00:01.00] line one"
	if err := f.Save(); err != nil {
		t.Fatal(err)
	}

	sidecar := filepath.Join(dir, "song.lrc")
	data, err := os.ReadFile(sidecar)
	if err != nil {
		t.Fatalf("lyrics sidecar not written: %v", err)
	}
	if string(data) != f.Record.Lyrics {
		t.Errorf("sidecar content = %q", data)
	}
}

func TestMP3CoverSetTwiceKeepsOnePicture(t *testing.T) {
	path := writeTestMP3(t, t.TempDir())

	for i := 0; i < 2; i++ {
		f, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetCover(testImagePNG(t, 600, 600)); err != nil {
			t.Fatal(err)
		}
		if err := f.Save(); err != nil {
			t.Fatal(err)
		}
	}

	id3, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatal(err)
	}
	defer id3.Close()
	pics := id3.GetFrames(id3.CommonID("Attached picture"))
	if len(pics) != 1 {
		t.Errorf("got %d picture frames, want 1", len(pics))
	}
}

func writeTestWAV(t *testing.T, dir string) string {
	t.Helper()

	var fmtBody [16]byte
	binary.LittleEndian.PutUint16(fmtBody[0:2], 1) // PCM
	binary.LittleEndian.PutUint16(fmtBody[2:4], 2)
	binary.LittleEndian.PutUint32(fmtBody[4:8], 44100)
	binary.LittleEndian.PutUint32(fmtBody[8:12], 176400)
	binary.LittleEndian.PutUint16(fmtBody[12:14], 4)
	binary.LittleEndian.PutUint16(fmtBody[14:16], 16)

	samples := make([]byte, 176400*2) // two seconds

	out := make([]byte, 12)
	copy(out[:4], "RIFF")
	copy(out[8:12], "WAVE")
	out = append(out, buildRIFFChunk("fmt ", fmtBody[:])...)
	out = append(out, buildRIFFChunk("data", samples)...)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))

	path := filepath.Join(dir, "song.wav")
	if err := os.WriteFile(path, out, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWAVRoundTrip(t *testing.T) {
	path := writeTestWAV(t, t.TempDir())

	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Record.Info.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", f.Record.Info.SampleRate)
	}
	if f.Record.Info.Duration != 2 {
		t.Errorf("Duration = %d, want 2", f.Record.Info.Duration)
	}

	fillRecord(f.Record)
	if err := f.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	checkRecord(t, reloaded.Record)

	// Audio chunks must survive the tag rewrite.
	if reloaded.Record.Info.Duration != 2 {
		t.Errorf("Duration after save = %d, want 2", reloaded.Record.Info.Duration)
	}
}

func writeTestOgg(t *testing.T, dir string) string {
	t.Helper()

	ident := make([]byte, 30)
	ident[0] = 0x01
	copy(ident[1:7], "vorbis")
	ident[11] = 2
	binary.LittleEndian.PutUint32(ident[12:16], 44100)
	binary.LittleEndian.PutUint32(ident[20:24], 128000)

	comment := buildVorbisCommentPacket(&Record{Artist: "Old Artist"}, "test vendor")

	setup := append([]byte{0x05}, "vorbis"...)
	setup = append(setup, bytes.Repeat([]byte{0xAA}, 64)...)

	const serial = 0xBEEF
	var out []byte
	out = append(out, buildOggPage(oggBOS, 0, serial, 0, []byte{byte(len(ident))}, ident)...)
	for _, p := range packOggPackets([][]byte{comment, setup}, serial, 1) {
		out = append(out, p...)
	}
	audio := bytes.Repeat([]byte{0x42}, 100)
	out = append(out, buildOggPage(oggEOS, 44100*3, serial, 2, []byte{byte(len(audio))}, audio)...)

	path := filepath.Join(dir, "song.ogg")
	if err := os.WriteFile(path, out, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOggRoundTrip(t *testing.T) {
	path := writeTestOgg(t, t.TempDir())

	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Record.Artist != "Old Artist" {
		t.Errorf("Artist = %q, want %q", f.Record.Artist, "Old Artist")
	}
	if f.Record.Info.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", f.Record.Info.SampleRate)
	}
	if f.Record.Info.Duration != 3 {
		t.Errorf("Duration = %d, want 3", f.Record.Info.Duration)
	}

	fillRecord(f.Record)
	if err := f.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	checkRecord(t, reloaded.Record)
	if reloaded.Record.Info.Duration != 3 {
		t.Errorf("Duration after save = %d, want 3", reloaded.Record.Info.Duration)
	}
}

func TestOggDiscTotalStoredAsSeparateKeys(t *testing.T) {
	packet := buildVorbisCommentPacket(&Record{Disc: "2/5", Track: "3/12"}, "v")
	comments, vendor, err := parseVorbisCommentPacket(packet)
	if err != nil {
		t.Fatal(err)
	}
	if vendor != "v" {
		t.Errorf("vendor = %q", vendor)
	}

	want := map[string]string{
		"DISCNUMBER": "2", "DISCTOTAL": "5",
		"TRACKNUMBER": "3", "TRACKTOTAL": "12",
	}
	got := make(map[string]string)
	for _, c := range comments {
		if i := bytes.IndexByte([]byte(c), '='); i > 0 {
			got[c[:i]] = c[i+1:]
		}
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("comment %s = %q, want %q", k, got[k], v)
		}
	}

	rec := &Record{}
	applyVorbisComments(comments, rec)
	if rec.Disc != "2/5" || rec.Track != "3/12" {
		t.Errorf("read back disc=%q track=%q", rec.Disc, rec.Track)
	}
}

func writeTestM4A(t *testing.T, dir string) string {
	t.Helper()

	mvhd := make([]byte, 100)
	binary.BigEndian.PutUint32(mvhd[12:16], 600)    // timescale
	binary.BigEndian.PutUint32(mvhd[16:20], 600*30) // 30 seconds

	mdhd := make([]byte, 24)
	binary.BigEndian.PutUint32(mdhd[12:16], 44100)

	stco := make([]byte, 12)
	binary.BigEndian.PutUint32(stco[4:8], 1) // one chunk

	stbl := wrapAtom("stco", stco)
	minf := wrapAtom("stbl", stbl)
	mdia := append(wrapAtom("mdhd", mdhd), wrapAtom("minf", minf)...)
	trak := wrapAtom("mdia", mdia)

	moovBody := append(wrapAtom("mvhd", mvhd), wrapAtom("trak", trak)...)
	moov := wrapAtom("moov", moovBody)

	ftyp := wrapAtom("ftyp", []byte("M4A \x00\x00\x00\x00"))
	mdat := wrapAtom("mdat", bytes.Repeat([]byte{0x11}, 64))

	out := append(ftyp, moov...)
	mdatStart := len(out) + 8
	out = append(out, mdat...)

	// Point the single chunk offset at the mdat payload.
	stcoPos := bytes.Index(out, []byte("stco"))
	binary.BigEndian.PutUint32(out[stcoPos+12:stcoPos+16], uint32(mdatStart))

	path := filepath.Join(dir, "song.m4a")
	if err := os.WriteFile(path, out, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestM4ARoundTrip(t *testing.T) {
	path := writeTestM4A(t, t.TempDir())

	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Record.Info.Duration != 30 {
		t.Errorf("Duration = %d, want 30", f.Record.Info.Duration)
	}
	if f.Record.Info.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", f.Record.Info.SampleRate)
	}

	fillRecord(f.Record)
	if err := f.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	// The atom tree has no key, ISRC, or publisher slots.
	checkRecord(t, reloaded.Record, FieldKey, FieldISRC, FieldPublisher)
	if got := reloaded.Record.Get(FieldISRC); got != "" {
		t.Errorf("ISRC should read empty on m4a, got %q", got)
	}
}

func TestM4AChunkOffsetsFollowMoovGrowth(t *testing.T) {
	path := writeTestM4A(t, t.TempDir())

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	mdatPayloadBefore := raw[bytes.Index(raw, []byte("mdat"))+4:]

	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	fillRecord(f.Record)
	if err := f.Save(); err != nil {
		t.Fatal(err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	stcoPos := bytes.Index(after, []byte("stco"))
	if stcoPos < 0 {
		t.Fatal("stco atom lost")
	}
	offset := int(binary.BigEndian.Uint32(after[stcoPos+12 : stcoPos+16]))
	mdatPos := bytes.Index(after, []byte("mdat"))
	if mdatPos < 0 {
		t.Fatal("mdat atom lost")
	}
	// bytes.Index lands on the type field; the payload starts 4 bytes on.
	if offset != mdatPos+4 {
		t.Errorf("chunk offset %d does not track mdat payload at %d", offset, mdatPos+4)
	}
	if !bytes.Equal(after[mdatPos+4:mdatPos+4+len(mdatPayloadBefore)], mdatPayloadBefore) {
		t.Error("mdat payload changed during tag save")
	}
}

func writeTestFLAC(t *testing.T, dir string) string {
	t.Helper()

	streamInfo := make([]byte, 34)
	// sample rate 44100, 2 channels, 16 bps, two seconds of samples
	var packed uint64
	packed |= uint64(44100) << 44
	packed |= uint64(1) << 41 // channels - 1
	packed |= uint64(15) << 36
	packed |= uint64(44100 * 2)
	binary.BigEndian.PutUint64(streamInfo[10:18], packed)

	out := []byte("fLaC")
	out = append(out, 0x80, 0, 0, 34) // STREAMINFO, last metadata block
	out = append(out, streamInfo...)
	out = append(out, 0xFF, 0xF8)                         // frame sync code
	out = append(out, bytes.Repeat([]byte{0x5A}, 126)...) // stand-in frames

	path := filepath.Join(dir, "song.flac")
	if err := os.WriteFile(path, out, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFLACRoundTrip(t *testing.T) {
	path := writeTestFLAC(t, t.TempDir())

	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Record.Info.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", f.Record.Info.SampleRate)
	}
	if f.Record.Info.Duration != 2 {
		t.Errorf("Duration = %d, want 2", f.Record.Info.Duration)
	}

	fillRecord(f.Record)
	if err := f.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	checkRecord(t, reloaded.Record)

	// STREAMINFO must survive the comment block rewrite.
	if reloaded.Record.Info.Duration != 2 {
		t.Errorf("Duration after save = %d, want 2", reloaded.Record.Info.Duration)
	}
}

func TestFLACCoverSetTwiceKeepsOnePicture(t *testing.T) {
	path := writeTestFLAC(t, t.TempDir())

	for i := 0; i < 2; i++ {
		f, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetCover(testImagePNG(t, 600, 600)); err != nil {
			t.Fatal(err)
		}
		if err := f.Save(); err != nil {
			t.Fatal(err)
		}
	}

	parsed, err := flac.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	pictures := 0
	for _, block := range parsed.Meta {
		if block.Type == flac.Picture {
			pictures++
		}
	}
	if pictures != 1 {
		t.Errorf("got %d picture blocks, want 1", pictures)
	}
}

func TestFlacStreamInfo(t *testing.T) {
	data := make([]byte, 34)
	// sample rate 44100, 2 channels, 16 bps, 44100*60 samples
	var packed uint64
	packed |= uint64(44100) << 44
	packed |= uint64(1) << 41 // channels - 1
	packed |= uint64(15) << 36
	packed |= uint64(44100 * 60)
	binary.BigEndian.PutUint64(data[10:18], packed)

	info := flacStreamInfo(data)
	if info.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", info.SampleRate)
	}
	if info.Duration != 60 {
		t.Errorf("Duration = %d, want 60", info.Duration)
	}
}

func TestFlacStreamInfoShortBlock(t *testing.T) {
	if info := flacStreamInfo([]byte{1, 2, 3}); info != (Info{}) {
		t.Errorf("short block should yield zero Info, got %+v", info)
	}
}
