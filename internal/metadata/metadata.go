// Package metadata reads display metadata from audio files.
package metadata

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dhowden/tag"

	"github.com/tessro/spindle/internal/audio"
	"github.com/tessro/spindle/internal/core"
	"github.com/tessro/spindle/internal/logging"
)

// Extractor reads tags with dhowden/tag and measures duration by opening
// the stream with the audio decoders. It never returns an error: whatever
// cannot be read falls back to file-name-derived values.
type Extractor struct {
	logger *log.Logger
}

// NewExtractor creates an Extractor. A nil logger discards warnings.
func NewExtractor(logger *log.Logger) *Extractor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Extractor{logger: logger}
}

// Extract returns the Track for path.
func (e *Extractor) Extract(path string) core.Track {
	meta := e.readTags(path)
	meta.Duration = e.readDuration(path)
	return core.NewTrack(path, meta)
}

func (e *Extractor) readTags(path string) core.Track {
	file, err := os.Open(path)
	if err != nil {
		e.logger.Warn("could not open audio file", "path", path, "err", err)
		return core.Track{}
	}
	defer file.Close()

	m, err := tag.ReadFrom(file)
	if err != nil {
		e.logger.Debug("no readable tags", "path", path, "err", err)
		return core.Track{}
	}

	track, _ := m.Track()
	return core.Track{
		Title:       strings.TrimSpace(m.Title()),
		Artist:      strings.TrimSpace(firstNonEmpty(m.Artist(), m.AlbumArtist())),
		Album:       strings.TrimSpace(m.Album()),
		Genre:       strings.TrimSpace(m.Genre()),
		TrackNumber: track,
		Year:        m.Year(),
	}
}

// readDuration decodes just enough of the stream to learn its length. Files
// the engine cannot decode report zero.
func (e *Extractor) readDuration(path string) time.Duration {
	if !audio.CanDecode(path) {
		return 0
	}
	streamer, format, err := audio.Decode(path)
	if err != nil {
		e.logger.Debug("could not measure duration", "path", path, "err", err)
		return 0
	}
	defer streamer.Close()

	n := streamer.Len()
	if n <= 0 || format.SampleRate <= 0 {
		return 0
	}
	return format.SampleRate.D(n).Round(time.Millisecond)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
