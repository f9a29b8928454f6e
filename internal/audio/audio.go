// Package audio knows which files are audio and how to decode the ones the
// engine can play.
package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	spindleerrors "github.com/tessro/spindle/internal/errors"
)

const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extOGG  = ".ogg"
	extWAV  = ".wav"
	extM4A  = ".m4a"
	extAAC  = ".aac"
	extWMA  = ".wma"
)

// Extensions lists every extension recognised as audio, lower case.
var Extensions = []string{extMP3, extFLAC, extOGG, extWAV, extM4A, extAAC, extWMA}

// IsAudioFile reports whether path has an audio extension. The check is
// case-insensitive and looks only at the name.
func IsAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// CanDecode reports whether Decode supports the file's format.
func CanDecode(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case extMP3, extFLAC, extOGG, extWAV:
		return true
	}
	return false
}

// Decode opens path and returns a seekable stream for it. The returned
// streamer owns the file; closing it closes the file.
func Decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	if !CanDecode(path) {
		return nil, beep.Format{}, spindleerrors.WithSuggestion(
			fmt.Errorf("%w: %s", spindleerrors.ErrUnsupportedFormat, filepath.Ext(path)),
			"Supported formats for playback are mp3, flac, ogg and wav",
		)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case extMP3:
		streamer, format, err = mp3.Decode(f)
	case extFLAC:
		streamer, format, err = flac.Decode(f)
	case extOGG:
		streamer, format, err = vorbis.Decode(f)
	case extWAV:
		streamer, format, err = wav.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return &fileStreamer{StreamSeekCloser: streamer, file: f}, format, nil
}

// fileStreamer closes the underlying file together with the decoder. The
// flac and wav decoders only close the reader when it is an io.Closer they
// were handed, so the file is closed here regardless.
type fileStreamer struct {
	beep.StreamSeekCloser
	file *os.File
}

func (s *fileStreamer) Close() error {
	err := s.StreamSeekCloser.Close()
	s.file.Close()
	return err
}
