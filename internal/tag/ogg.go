package tag

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"
)

// oggCodec handles Ogg Vorbis files. Pages are parsed and rebuilt by hand:
// the identification page is kept verbatim, the comment header is replaced,
// and every following page is renumbered with a fresh checksum.
type oggCodec struct{}

const oggPageMagic = "OggS"

// Ogg page header flags.
const (
	oggContinued = 0x01
	oggBOS       = 0x02
	oggEOS       = 0x04
)

type oggPage struct {
	headerType byte
	granule    uint64
	serial     uint32
	sequence   uint32
	lacing     []byte
	payload    []byte
	raw        []byte // original page bytes, checksum included
}

func (oggCodec) read(path string) (*Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	pages, err := parseOggPages(b, 8)
	if err != nil {
		return nil, err
	}
	packets := oggPackets(pages)
	if len(packets) < 2 {
		return nil, fmt.Errorf("ogg: missing vorbis header packets")
	}

	ident, err := parseVorbisIdent(packets[0])
	if err != nil {
		return nil, err
	}

	rec := &Record{}
	if comments, _, err := parseVorbisCommentPacket(packets[1]); err == nil {
		applyVorbisComments(comments, rec)
	}

	rec.Info.SampleRate = ident.sampleRate
	if ident.sampleRate > 0 {
		if granule, ok := lastOggGranule(b); ok {
			rec.Info.Duration = int(granule / uint64(ident.sampleRate))
		}
	}
	if ident.nominalBitrate > 0 {
		rec.Info.Bitrate = ident.nominalBitrate / 1000
	} else if rec.Info.Duration > 0 {
		rec.Info.Bitrate = int(int64(len(b)) * 8 / int64(rec.Info.Duration) / 1000)
	}
	return rec, nil
}

func (oggCodec) write(path string, rec *Record) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	pages, err := parseOggPages(b, -1)
	if err != nil {
		return err
	}

	// Locate the pages carrying the three vorbis header packets.
	headerPages := 0
	packetCount := 0
	for i, p := range pages {
		for _, l := range p.lacing {
			if l < 255 {
				packetCount++
			}
		}
		if packetCount >= 3 {
			headerPages = i + 1
			break
		}
	}
	if headerPages == 0 || packetCount < 3 {
		return fmt.Errorf("ogg: missing vorbis header packets")
	}

	packets := oggPackets(pages[:headerPages])
	if len(packets) < 3 {
		return fmt.Errorf("ogg: missing vorbis header packets")
	}
	if _, err := parseVorbisIdent(packets[0]); err != nil {
		return err
	}

	vendor := "tagfix"
	if _, v, err := parseVorbisCommentPacket(packets[1]); err == nil && v != "" {
		vendor = v
	}
	commentPacket := buildVorbisCommentPacket(rec, vendor)

	serial := pages[0].serial
	out := make([]byte, 0, len(b)+len(commentPacket))

	// Identification page is rewritten byte for byte.
	out = append(out, pages[0].raw...)

	// Comment and setup packets are repacked into fresh pages.
	newPages := packOggPackets([][]byte{commentPacket, packets[2]}, serial, 1)
	seq := uint32(1)
	for _, p := range newPages {
		out = append(out, p...)
		seq++
	}

	// Audio pages keep their payload; only sequence and checksum change.
	for _, p := range pages[headerPages:] {
		raw := make([]byte, len(p.raw))
		copy(raw, p.raw)
		binary.LittleEndian.PutUint32(raw[18:22], seq)
		patchOggChecksum(raw)
		out = append(out, raw...)
		seq++
	}

	return os.WriteFile(path, out, 0644)
}

// parseOggPages reads up to maxPages pages (all of them when negative).
func parseOggPages(b []byte, maxPages int) ([]*oggPage, error) {
	var pages []*oggPage
	off := 0
	for off < len(b) {
		if maxPages >= 0 && len(pages) >= maxPages {
			break
		}
		if off+27 > len(b) {
			break
		}
		if string(b[off:off+4]) != oggPageMagic {
			return nil, fmt.Errorf("ogg: bad page magic at offset %d", off)
		}

		nsegs := int(b[off+26])
		headerLen := 27 + nsegs
		if off+headerLen > len(b) {
			return nil, fmt.Errorf("ogg: truncated page header at offset %d", off)
		}
		lacing := b[off+27 : off+headerLen]
		payloadLen := 0
		for _, l := range lacing {
			payloadLen += int(l)
		}
		if off+headerLen+payloadLen > len(b) {
			return nil, fmt.Errorf("ogg: truncated page payload at offset %d", off)
		}

		pages = append(pages, &oggPage{
			headerType: b[off+5],
			granule:    binary.LittleEndian.Uint64(b[off+6 : off+14]),
			serial:     binary.LittleEndian.Uint32(b[off+14 : off+18]),
			sequence:   binary.LittleEndian.Uint32(b[off+18 : off+22]),
			lacing:     lacing,
			payload:    b[off+headerLen : off+headerLen+payloadLen],
			raw:        b[off : off+headerLen+payloadLen],
		})
		off += headerLen + payloadLen
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("ogg: no pages found")
	}
	return pages, nil
}

// oggPackets reassembles logical packets from page lacing tables. A lacing
// value below 255 terminates the current packet.
func oggPackets(pages []*oggPage) [][]byte {
	var packets [][]byte
	var current []byte
	for _, p := range pages {
		pos := 0
		for _, l := range p.lacing {
			current = append(current, p.payload[pos:pos+int(l)]...)
			pos += int(l)
			if l < 255 {
				packets = append(packets, current)
				current = nil
			}
		}
	}
	return packets
}

type vorbisIdent struct {
	channels       int
	sampleRate     int
	nominalBitrate int
}

func parseVorbisIdent(packet []byte) (vorbisIdent, error) {
	if len(packet) < 28 || packet[0] != 0x01 || string(packet[1:7]) != "vorbis" {
		return vorbisIdent{}, fmt.Errorf("ogg: not a vorbis identification header")
	}
	return vorbisIdent{
		channels:       int(packet[11]),
		sampleRate:     int(binary.LittleEndian.Uint32(packet[12:16])),
		nominalBitrate: int(int32(binary.LittleEndian.Uint32(packet[20:24]))),
	}, nil
}

func parseVorbisCommentPacket(packet []byte) (comments []string, vendor string, err error) {
	if len(packet) < 7 || packet[0] != 0x03 || string(packet[1:7]) != "vorbis" {
		return nil, "", fmt.Errorf("ogg: not a vorbis comment header")
	}

	pos := 7
	readU32 := func() (uint32, bool) {
		if pos+4 > len(packet) {
			return 0, false
		}
		v := binary.LittleEndian.Uint32(packet[pos : pos+4])
		pos += 4
		return v, true
	}

	vlen, ok := readU32()
	if !ok || pos+int(vlen) > len(packet) {
		return nil, "", fmt.Errorf("ogg: truncated vendor string")
	}
	vendor = string(packet[pos : pos+int(vlen)])
	pos += int(vlen)

	count, ok := readU32()
	if !ok {
		return nil, vendor, fmt.Errorf("ogg: truncated comment count")
	}
	for i := uint32(0); i < count; i++ {
		clen, ok := readU32()
		if !ok || pos+int(clen) > len(packet) {
			break
		}
		comments = append(comments, string(packet[pos:pos+int(clen)]))
		pos += int(clen)
	}
	return comments, vendor, nil
}

func applyVorbisComments(comments []string, rec *Record) {
	kv := make(map[string]string, len(comments))
	for _, c := range comments {
		i := strings.IndexByte(c, '=')
		if i < 0 {
			continue
		}
		key := strings.ToUpper(c[:i])
		if _, seen := kv[key]; !seen {
			kv[key] = c[i+1:]
		}
	}

	rec.Title = kv["TITLE"]
	rec.Artist = kv["ARTIST"]
	rec.Album = kv["ALBUM"]
	rec.AlbumArtist = kv[vorbisAlbumArtist]
	rec.Year = kv[vorbisDate]
	rec.Genre = kv["GENRE"]
	rec.Comment = kv[vorbisComment]
	rec.Lyrics = kv[vorbisLyrics]
	rec.BPM = kv[vorbisBPM]
	rec.Key = kv[vorbisKey]
	rec.ISRC = kv[vorbisISRC]
	rec.Publisher = kv[vorbisPublisher]
	rec.Track = combineTotal(kv["TRACKNUMBER"], kv[vorbisTrackTotal])
	rec.Disc = combineTotal(kv[vorbisDiscNumber], kv[vorbisDiscTotal])
}

func buildVorbisCommentPacket(rec *Record, vendor string) []byte {
	var comments []string
	add := func(key, value string) {
		if value != "" {
			comments = append(comments, key+"="+value)
		}
	}

	add("TITLE", rec.Title)
	add("ARTIST", rec.Artist)
	add("ALBUM", rec.Album)
	add(vorbisAlbumArtist, rec.AlbumArtist)
	add(vorbisDate, rec.Year)
	add("GENRE", rec.Genre)
	add(vorbisComment, rec.Comment)
	add(vorbisLyrics, rec.Lyrics)
	add(vorbisBPM, rec.BPM)
	add(vorbisKey, rec.Key)
	add(vorbisISRC, rec.ISRC)
	add(vorbisPublisher, rec.Publisher)

	trackNum, trackTotal := splitTotal(rec.Track)
	add("TRACKNUMBER", trackNum)
	add(vorbisTrackTotal, trackTotal)

	discNum, discTotal := splitTotal(rec.Disc)
	add(vorbisDiscNumber, discNum)
	add(vorbisDiscTotal, discTotal)

	var buf []byte
	buf = append(buf, 0x03)
	buf = append(buf, "vorbis"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(vendor)))
	buf = append(buf, vendor...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(comments)))
	for _, c := range comments {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(c)))
		buf = append(buf, c...)
	}
	buf = append(buf, 0x01) // framing bit
	return buf
}

// packOggPackets lays packets out into pages of at most 255 lacing values.
func packOggPackets(packets [][]byte, serial uint32, firstSeq uint32) [][]byte {
	type segment struct {
		lacing byte
		data   []byte
	}

	var segments []segment
	for _, packet := range packets {
		rest := packet
		for {
			if len(rest) >= 255 {
				segments = append(segments, segment{255, rest[:255]})
				rest = rest[255:]
				continue
			}
			segments = append(segments, segment{byte(len(rest)), rest})
			break
		}
	}

	var pages [][]byte
	seq := firstSeq
	continued := false
	for len(segments) > 0 {
		n := len(segments)
		if n > 255 {
			n = 255
		}
		var headerType byte
		if continued {
			headerType = oggContinued
		}

		lacing := make([]byte, n)
		var payload []byte
		for i := 0; i < n; i++ {
			lacing[i] = segments[i].lacing
			payload = append(payload, segments[i].data...)
		}
		pages = append(pages, buildOggPage(headerType, 0, serial, seq, lacing, payload))

		continued = segments[n-1].lacing == 255
		segments = segments[n:]
		seq++
	}
	return pages
}

func buildOggPage(headerType byte, granule uint64, serial, seq uint32, lacing, payload []byte) []byte {
	page := make([]byte, 0, 27+len(lacing)+len(payload))
	page = append(page, oggPageMagic...)
	page = append(page, 0, headerType)
	page = binary.LittleEndian.AppendUint64(page, granule)
	page = binary.LittleEndian.AppendUint32(page, serial)
	page = binary.LittleEndian.AppendUint32(page, seq)
	page = append(page, 0, 0, 0, 0) // checksum placeholder
	page = append(page, byte(len(lacing)))
	page = append(page, lacing...)
	page = append(page, payload...)
	patchOggChecksum(page)
	return page
}

// lastOggGranule scans the tail of the file for the final page header.
func lastOggGranule(b []byte) (uint64, bool) {
	start := len(b) - 64*1024
	if start < 0 {
		start = 0
	}
	for i := len(b) - 27; i >= start; i-- {
		if string(b[i:i+4]) == oggPageMagic {
			return binary.LittleEndian.Uint64(b[i+6 : i+14]), true
		}
	}
	return 0, false
}

// Ogg uses CRC-32 with polynomial 0x04C11DB7, no reflection, zero init.
var oggCRCTable = makeOggCRCTable()

func makeOggCRCTable() [256]uint32 {
	var table [256]uint32
	for i := range table {
		r := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if r&0x80000000 != 0 {
				r = (r << 1) ^ 0x04C11DB7
			} else {
				r <<= 1
			}
		}
		table[i] = r
	}
	return table
}

func patchOggChecksum(page []byte) {
	page[22], page[23], page[24], page[25] = 0, 0, 0, 0
	var crc uint32
	for _, c := range page {
		crc = (crc << 8) ^ oggCRCTable[byte(crc>>24)^c]
	}
	binary.LittleEndian.PutUint32(page[22:26], crc)
}
