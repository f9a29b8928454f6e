package metadata

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/spindle/internal/core"
)

var _ core.Extractor = (*Extractor)(nil)

func TestExtractMissingFile(t *testing.T) {
	e := NewExtractor(nil)
	path := filepath.Join(t.TempDir(), "Artist", "02 - Missing.mp3")

	tr := e.Extract(path)

	assert.Equal(t, path, tr.Path)
	assert.Equal(t, "02 - Missing", tr.Title)
	assert.Equal(t, core.UnknownArtist, tr.Artist)
	assert.Equal(t, core.UnknownAlbum, tr.Album)
	assert.Zero(t, tr.Duration)
	assert.Zero(t, tr.TrackNumber)
}

func TestExtractGarbageFile(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"mp3 without frames", "noise.mp3"},
		{"flac without header", "noise.flac"},
		{"undecodable format", "noise.m4a"},
		{"wav without header", "noise.wav"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte("definitely not audio"), 0o644))

			tr := NewExtractor(nil).Extract(path)

			assert.Equal(t, "noise", tr.Title)
			assert.Equal(t, core.UnknownArtist, tr.Artist)
			assert.Equal(t, core.UnknownAlbum, tr.Album)
			assert.Zero(t, tr.Duration)
		})
	}
}

// id3v23 builds an ID3v2.3 tag holding ISO-8859-1 text frames in order.
func id3v23(frames ...[2]string) []byte {
	var body bytes.Buffer
	for _, f := range frames {
		data := append([]byte{0}, f[1]...)
		body.WriteString(f[0])
		_ = binary.Write(&body, binary.BigEndian, uint32(len(data)))
		body.Write([]byte{0, 0})
		body.Write(data)
	}
	body.Write(make([]byte, 16))

	size := body.Len()
	header := []byte{'I', 'D', '3', 3, 0, 0,
		byte(size >> 21 & 0x7f), byte(size >> 14 & 0x7f), byte(size >> 7 & 0x7f), byte(size & 0x7f)}
	return append(header, body.Bytes()...)
}

func TestExtractID3Tags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.mp3")
	require.NoError(t, os.WriteFile(path, id3v23(
		[2]string{"TIT2", "So What"},
		[2]string{"TPE1", "Miles Davis"},
		[2]string{"TALB", "Kind of Blue"},
		[2]string{"TCON", "Jazz"},
		[2]string{"TRCK", "1/5"},
		[2]string{"TYER", "1959"},
	), 0o644))

	tr := NewExtractor(nil).Extract(path)

	assert.Equal(t, path, tr.Path)
	assert.Equal(t, "So What", tr.Title)
	assert.Equal(t, "Miles Davis", tr.Artist)
	assert.Equal(t, "Kind of Blue", tr.Album)
	assert.Equal(t, "Jazz", tr.Genre)
	assert.Equal(t, 1, tr.TrackNumber)
	assert.Equal(t, 1959, tr.Year)
	assert.Zero(t, tr.Duration, "a tag without audio frames has no duration")
}

func TestExtractFallsBackToAlbumArtist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "02 - Flamenco Sketches.mp3")
	require.NoError(t, os.WriteFile(path, id3v23(
		[2]string{"TALB", "Kind of Blue"},
		[2]string{"TPE2", "Miles Davis Sextet"},
	), 0o644))

	tr := NewExtractor(nil).Extract(path)

	assert.Equal(t, "Miles Davis Sextet", tr.Artist)
	assert.Equal(t, "Kind of Blue", tr.Album)
	assert.Equal(t, "02 - Flamenco Sketches", tr.Title)
}

func TestExtractDurationFromDecoder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	format := beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Silence(12000), format))
	require.NoError(t, f.Close())

	tr := NewExtractor(nil).Extract(path)

	assert.Equal(t, 1500*time.Millisecond, tr.Duration)
	assert.Equal(t, "tone", tr.Title)
	assert.Equal(t, core.UnknownArtist, tr.Artist)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", " "))
}
