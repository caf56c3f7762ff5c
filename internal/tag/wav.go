package tag

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	id3v2 "github.com/bogem/id3v2/v2"
)

// wavCodec handles WAV files carrying an ID3v2 tag in an "id3 " RIFF
// chunk. The audio chunks are copied untouched; only the tag chunk is
// replaced and the RIFF size patched.
type wavCodec struct{}

func (wavCodec) read(path string) (*Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := checkRIFF(b); err != nil {
		return nil, err
	}

	rec := &Record{}
	info := Info{FileSize: int64(len(b))}
	var byteRate uint32
	var dataSize uint32

	walkRIFFChunks(b, func(id string, body []byte, _, _ int) {
		switch id {
		case "fmt ":
			if len(body) >= 16 {
				info.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
				byteRate = binary.LittleEndian.Uint32(body[8:12])
			}
		case "data":
			dataSize = uint32(len(body))
		case "id3 ", "ID3 ":
			t, err := id3v2.ParseReader(bytes.NewReader(body), id3v2.Options{Parse: true})
			if err == nil {
				tagRec := recordFromID3(t)
				tagRec.Info = info
				rec = tagRec
			}
		}
	})

	if byteRate > 0 {
		info.Duration = int(dataSize / byteRate)
		info.Bitrate = int(byteRate * 8 / 1000)
	}
	rec.Info = info
	return rec, nil
}

func (wavCodec) write(path string, rec *Record) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := checkRIFF(b); err != nil {
		return err
	}

	// Build the new tag chunk from the existing tag when present so
	// unmanaged frames survive.
	var t *id3v2.Tag
	walkRIFFChunks(b, func(id string, body []byte, _, _ int) {
		if (id == "id3 " || id == "ID3 ") && t == nil {
			if parsed, err := id3v2.ParseReader(bytes.NewReader(body), id3v2.Options{Parse: true}); err == nil {
				t = parsed
			}
		}
	})
	if t == nil {
		t = id3v2.NewEmptyTag()
	}
	applyRecordToID3(t, rec)

	var tagBuf bytes.Buffer
	if _, err := t.WriteTo(&tagBuf); err != nil {
		return fmt.Errorf("render ID3 tag: %w", err)
	}
	tagChunk := buildRIFFChunk("id3 ", tagBuf.Bytes())

	// Copy every chunk except old tag chunks, then append the new one.
	out := make([]byte, 12)
	copy(out[:4], "RIFF")
	copy(out[8:12], "WAVE")
	walkRIFFChunks(b, func(id string, _ []byte, start, end int) {
		if id != "id3 " && id != "ID3 " {
			out = append(out, b[start:end]...)
		}
	})
	out = append(out, tagChunk...)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))

	return os.WriteFile(path, out, 0644)
}

func checkRIFF(b []byte) error {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return fmt.Errorf("not a RIFF/WAVE file")
	}
	return nil
}

// walkRIFFChunks visits each chunk; start/end cover the chunk including its
// header and odd-length pad byte.
func walkRIFFChunks(b []byte, fn func(id string, body []byte, start, end int)) {
	off := 12
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		end := off + 8 + size
		if end > len(b) {
			return
		}
		padded := end
		if size%2 == 1 && padded < len(b) {
			padded++
		}
		fn(id, b[off+8:end], off, padded)
		off = padded
	}
}

func buildRIFFChunk(id string, body []byte) []byte {
	out := make([]byte, 8, 8+len(body)+1)
	copy(out[:4], id)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(body)))
	out = append(out, body...)
	if len(body)%2 == 1 {
		out = append(out, 0)
	}
	return out
}
