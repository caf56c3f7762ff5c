package tag

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
)

// mp4Codec handles M4A/MP4 files. The ilst metadata tree is rebuilt in
// place; when the moov box grows or shrinks, every chunk offset pointing
// past it is shifted by the size delta so the sample tables stay valid.
type mp4Codec struct{}

// iTunes metadata atom codes. 0xA9 is the "©" prefix.
const (
	atomTitle       = "\xa9nam"
	atomArtist      = "\xa9ART"
	atomAlbum       = "\xa9alb"
	atomAlbumArtist = "aART"
	atomYear        = "\xa9day"
	atomGenre       = "\xa9gen"
	atomGenreID     = "gnre"
	atomComment     = "\xa9cmt"
	atomLyrics      = "\xa9lyr"
	atomTrack       = "trkn"
	atomDisc        = "disk"
	atomTempo       = "tmpo"
	atomCover       = "covr"
)

// data atom type flags.
const (
	mp4DataUTF8 = 1
	mp4DataJPEG = 13
	mp4DataPNG  = 14
	mp4DataInt  = 21
)

func (mp4Codec) read(path string) (*Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	moov, _, _, err := findTopLevelAtom(b, "moov")
	if err != nil {
		return nil, err
	}

	rec := &Record{}
	if ilst, ok := descendAtoms(moov, "udta", "meta", "ilst"); ok {
		readIlst(ilst, rec)
	}
	rec.Info = mp4Info(moov, int64(len(b)))
	return rec, nil
}

func (mp4Codec) write(path string, rec *Record) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	moov, moovStart, moovEnd, err := findTopLevelAtom(b, "moov")
	if err != nil {
		return err
	}

	newMoov := rebuildMoov(moov, rec)
	delta := int64(len(newMoov)+8) - int64(moovEnd-moovStart)
	if delta != 0 {
		patchChunkOffsets(newMoov, int64(moovStart), delta)
	}

	out := make([]byte, 0, int64(len(b))+delta)
	out = append(out, b[:moovStart]...)
	out = append(out, wrapAtom("moov", newMoov)...)
	out = append(out, b[moovEnd:]...)
	return os.WriteFile(path, out, 0644)
}

// findTopLevelAtom returns the body of the first top-level atom with the
// given type plus its start and end file offsets.
func findTopLevelAtom(b []byte, typ string) (body []byte, start, end int, err error) {
	off := 0
	for off+8 <= len(b) {
		size := int64(binary.BigEndian.Uint32(b[off : off+4]))
		name := string(b[off+4 : off+8])
		headerLen := 8
		switch size {
		case 0:
			size = int64(len(b) - off)
		case 1:
			if off+16 > len(b) {
				return nil, 0, 0, fmt.Errorf("mp4: truncated extended atom at %d", off)
			}
			size = int64(binary.BigEndian.Uint64(b[off+8 : off+16]))
			headerLen = 16
		}
		if size < int64(headerLen) || int64(off)+size > int64(len(b)) {
			return nil, 0, 0, fmt.Errorf("mp4: bad atom size %d at %d", size, off)
		}
		if name == typ {
			return b[off+headerLen : off+int(size)], off, off + int(size), nil
		}
		off += int(size)
	}
	return nil, 0, 0, fmt.Errorf("mp4: %q atom not found", typ)
}

// walkChildAtoms iterates direct children of a container body. The callback
// returns false to stop.
func walkChildAtoms(body []byte, fn func(typ string, child []byte, start, end int) bool) {
	off := 0
	for off+8 <= len(body) {
		size := int(binary.BigEndian.Uint32(body[off : off+4]))
		if size < 8 || off+size > len(body) {
			return
		}
		if !fn(string(body[off+4:off+8]), body[off+8:off+size], off, off+size) {
			return
		}
		off += size
	}
}

// descendAtoms follows a path of nested containers. The body of a "meta"
// atom starts with a 4-byte version/flags field before its children.
func descendAtoms(body []byte, path ...string) ([]byte, bool) {
	for _, typ := range path {
		var next []byte
		found := false
		walkChildAtoms(body, func(t string, child []byte, _, _ int) bool {
			if t == typ {
				next = child
				found = true
				return false
			}
			return true
		})
		if !found {
			return nil, false
		}
		if typ == "meta" {
			if len(next) < 4 {
				return nil, false
			}
			next = next[4:]
		}
		body = next
	}
	return body, true
}

func wrapAtom(typ string, body []byte) []byte {
	out := make([]byte, 8, 8+len(body))
	binary.BigEndian.PutUint32(out[:4], uint32(8+len(body)))
	copy(out[4:8], typ)
	return append(out, body...)
}

func readIlst(ilst []byte, rec *Record) {
	walkChildAtoms(ilst, func(typ string, child []byte, _, _ int) bool {
		payload, flags, ok := dataPayload(child)
		if !ok {
			return true
		}
		switch typ {
		case atomTitle:
			rec.Title = string(payload)
		case atomArtist:
			rec.Artist = string(payload)
		case atomAlbum:
			rec.Album = string(payload)
		case atomAlbumArtist:
			rec.AlbumArtist = string(payload)
		case atomYear:
			rec.Year = string(payload)
		case atomGenre:
			rec.Genre = string(payload)
		case atomComment:
			rec.Comment = string(payload)
		case atomLyrics:
			rec.Lyrics = string(payload)
		case atomTrack:
			if len(payload) >= 6 {
				num := binary.BigEndian.Uint16(payload[2:4])
				total := binary.BigEndian.Uint16(payload[4:6])
				rec.Track = combineTuple(num, total)
			}
		case atomDisc:
			if len(payload) >= 6 {
				num := binary.BigEndian.Uint16(payload[2:4])
				total := binary.BigEndian.Uint16(payload[4:6])
				rec.Disc = combineTuple(num, total)
			}
		case atomTempo:
			if len(payload) >= 2 {
				rec.BPM = strconv.Itoa(int(binary.BigEndian.Uint16(payload[:2])))
			}
		case atomCover:
			rec.Cover = payload
			if flags == mp4DataPNG {
				rec.CoverMIME = "image/png"
			} else {
				rec.CoverMIME = "image/jpeg"
			}
		}
		return true
	})
}

// dataPayload extracts the value bytes of a tag atom's "data" child,
// skipping the 4-byte type flags and 4-byte locale.
func dataPayload(tagAtom []byte) (payload []byte, flags int, ok bool) {
	walkChildAtoms(tagAtom, func(typ string, child []byte, _, _ int) bool {
		if typ == "data" && len(child) >= 8 {
			flags = int(binary.BigEndian.Uint32(child[:4]) & 0xFFFFFF)
			payload = child[8:]
			ok = true
			return false
		}
		return true
	})
	return
}

func combineTuple(num, total uint16) string {
	if num == 0 && total == 0 {
		return ""
	}
	if total == 0 {
		return strconv.Itoa(int(num))
	}
	return fmt.Sprintf("%d/%d", num, total)
}

var managedAtoms = map[string]bool{
	atomTitle: true, atomArtist: true, atomAlbum: true, atomAlbumArtist: true,
	atomYear: true, atomGenre: true, atomGenreID: true, atomComment: true,
	atomLyrics: true, atomTrack: true, atomDisc: true, atomTempo: true,
	atomCover: true,
}

// rebuildIlst keeps unmanaged tag atoms and regenerates the managed set
// from the record.
func rebuildIlst(oldIlst []byte, rec *Record) []byte {
	var out []byte
	walkChildAtoms(oldIlst, func(typ string, _ []byte, start, end int) bool {
		if !managedAtoms[typ] {
			out = append(out, oldIlst[start:end]...)
		}
		return true
	})

	addText := func(typ, value string) {
		if value != "" {
			out = append(out, buildTagAtom(typ, mp4DataUTF8, []byte(value))...)
		}
	}

	addText(atomTitle, rec.Title)
	addText(atomArtist, rec.Artist)
	addText(atomAlbum, rec.Album)
	addText(atomAlbumArtist, rec.AlbumArtist)
	addText(atomYear, rec.Year)
	addText(atomGenre, rec.Genre)
	addText(atomComment, rec.Comment)
	addText(atomLyrics, rec.Lyrics)

	if payload, ok := tuplePayload(rec.Track, 8); ok {
		out = append(out, buildTagAtom(atomTrack, 0, payload)...)
	}
	if payload, ok := tuplePayload(rec.Disc, 6); ok {
		out = append(out, buildTagAtom(atomDisc, 0, payload)...)
	}
	if bpm, err := strconv.Atoi(rec.BPM); err == nil && bpm > 0 {
		payload := make([]byte, 2)
		binary.BigEndian.PutUint16(payload, uint16(bpm))
		out = append(out, buildTagAtom(atomTempo, mp4DataInt, payload)...)
	}
	if len(rec.Cover) > 0 {
		flags := mp4DataJPEG
		if rec.CoverMIME == "image/png" {
			flags = mp4DataPNG
		}
		out = append(out, buildTagAtom(atomCover, flags, rec.Cover)...)
	}
	return out
}

// tuplePayload renders "N/total" as the native (index, total) tuple; trkn
// carries a trailing reserved pair that disk does not.
func tuplePayload(value string, size int) ([]byte, bool) {
	numStr, totalStr := splitTotal(value)
	num, err := strconv.Atoi(numStr)
	if err != nil || num <= 0 {
		return nil, false
	}
	total, _ := strconv.Atoi(totalStr)

	payload := make([]byte, size)
	binary.BigEndian.PutUint16(payload[2:4], uint16(num))
	binary.BigEndian.PutUint16(payload[4:6], uint16(total))
	return payload, true
}

func buildTagAtom(typ string, flags int, payload []byte) []byte {
	body := make([]byte, 8, 8+len(payload))
	binary.BigEndian.PutUint32(body[:4], uint32(flags))
	body = append(body, payload...)
	return wrapAtom(typ, wrapAtom("data", body))
}

// rebuildMoov splices a fresh udta/meta/ilst chain into the moov body,
// creating the intermediate containers when the file has none.
func rebuildMoov(moov []byte, rec *Record) []byte {
	oldIlst, _ := descendAtoms(moov, "udta", "meta", "ilst")
	ilstAtom := wrapAtom("ilst", rebuildIlst(oldIlst, rec))

	udta, udtaOK := descendAtoms(moov, "udta")
	var newUdta []byte
	if udtaOK {
		meta, metaOK := descendAtoms(udta, "meta")
		var newMeta []byte
		if metaOK {
			newMeta = replaceChildAtom(meta, "ilst", ilstAtom)
			// Reattach the version/flags prefix descendAtoms stripped.
			newMeta = append(append([]byte{}, udtaMetaPrefix(udta)...), newMeta...)
		} else {
			newMeta = newMetaBody(ilstAtom)
		}
		newUdta = replaceChildAtom(udta, "meta", wrapAtom("meta", newMeta))
	} else {
		newUdta = wrapAtom("meta", newMetaBody(ilstAtom))
	}
	return replaceChildAtom(moov, "udta", wrapAtom("udta", newUdta))
}

func udtaMetaPrefix(udta []byte) []byte {
	prefix := []byte{0, 0, 0, 0}
	walkChildAtoms(udta, func(typ string, child []byte, _, _ int) bool {
		if typ == "meta" && len(child) >= 4 {
			prefix = child[:4]
			return false
		}
		return true
	})
	return prefix
}

// newMetaBody builds a minimal meta body: version/flags, an iTunes-style
// mdir handler, and the ilst atom.
func newMetaBody(ilstAtom []byte) []byte {
	hdlr := make([]byte, 25)
	copy(hdlr[8:12], "mdir")
	copy(hdlr[12:16], "appl")

	body := []byte{0, 0, 0, 0}
	body = append(body, wrapAtom("hdlr", hdlr)...)
	return append(body, ilstAtom...)
}

// replaceChildAtom swaps the named child inside a container body, or
// appends it when absent.
func replaceChildAtom(body []byte, typ string, newChild []byte) []byte {
	var out []byte
	replaced := false
	walkChildAtoms(body, func(t string, _ []byte, start, end int) bool {
		if t == typ && !replaced {
			out = append(out, newChild...)
			replaced = true
		} else {
			out = append(out, body[start:end]...)
		}
		return true
	})
	if !replaced {
		out = append(out, newChild...)
	}
	return out
}

var mp4Containers = map[string]bool{
	"trak": true, "mdia": true, "minf": true, "stbl": true,
	"edts": true, "mvex": true,
}

// patchChunkOffsets shifts every stco/co64 entry pointing past the moov
// start by delta. Offsets before the moov (mdat-first layouts) stay put.
func patchChunkOffsets(moov []byte, moovStart, delta int64) {
	walkChildAtoms(moov, func(typ string, child []byte, _, _ int) bool {
		patchChunkOffsetsIn(typ, child, moovStart, delta)
		return true
	})
}

func patchChunkOffsetsIn(typ string, body []byte, moovStart, delta int64) {
	switch typ {
	case "stco":
		if len(body) < 8 {
			return
		}
		count := int(binary.BigEndian.Uint32(body[4:8]))
		for i := 0; i < count && 8+i*4+4 <= len(body); i++ {
			off := int64(binary.BigEndian.Uint32(body[8+i*4 : 12+i*4]))
			if off > moovStart {
				binary.BigEndian.PutUint32(body[8+i*4:12+i*4], uint32(off+delta))
			}
		}
	case "co64":
		if len(body) < 8 {
			return
		}
		count := int(binary.BigEndian.Uint32(body[4:8]))
		for i := 0; i < count && 8+i*8+8 <= len(body); i++ {
			off := int64(binary.BigEndian.Uint64(body[8+i*8 : 16+i*8]))
			if off > moovStart {
				binary.BigEndian.PutUint64(body[8+i*8:16+i*8], uint64(off+delta))
			}
		}
	default:
		if mp4Containers[typ] {
			walkChildAtoms(body, func(t string, child []byte, _, _ int) bool {
				patchChunkOffsetsIn(t, child, moovStart, delta)
				return true
			})
		}
	}
}

// mp4Info reads duration from mvhd and the sample rate from the first
// track's mdhd timescale.
func mp4Info(moov []byte, fileSize int64) Info {
	info := Info{FileSize: fileSize}

	if mvhd, ok := descendAtoms(moov, "mvhd"); ok && len(mvhd) >= 20 {
		var timescale uint32
		var duration uint64
		if mvhd[0] == 1 && len(mvhd) >= 32 {
			timescale = binary.BigEndian.Uint32(mvhd[20:24])
			duration = binary.BigEndian.Uint64(mvhd[24:32])
		} else {
			timescale = binary.BigEndian.Uint32(mvhd[12:16])
			duration = uint64(binary.BigEndian.Uint32(mvhd[16:20]))
		}
		if timescale > 0 {
			info.Duration = int(duration / uint64(timescale))
		}
	}

	if mdhd, ok := descendAtoms(moov, "trak", "mdia", "mdhd"); ok && len(mdhd) >= 16 {
		if mdhd[0] == 1 && len(mdhd) >= 24 {
			info.SampleRate = int(binary.BigEndian.Uint32(mdhd[20:24]))
		} else {
			info.SampleRate = int(binary.BigEndian.Uint32(mdhd[12:16]))
		}
	}

	if info.Duration > 0 {
		info.Bitrate = int(fileSize * 8 / int64(info.Duration) / 1000)
	}
	return info
}
