package mediainfo

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/shishobooks/librarr/pkg/fileutils"
	"github.com/shishobooks/librarr/pkg/models"
)

// Probe reads the mime type of the file and, for audio files, the embedded
// tags. Files without readable tags still return their mime type.
func Probe(path string) (*models.MediaInfo, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	info := &models.MediaInfo{
		MimeType: mtype.String(),
	}

	if !fileutils.IsAudioFile(path) && !strings.HasPrefix(info.MimeType, "audio/") {
		return info, nil
	}
	info.AudioFormat = strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), "."))

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		// Untagged audio is common for split mp3 releases.
		return info, nil
	}

	switch m.FileType() {
	case tag.MP3:
		info.AudioFormat = "MP3"
	case tag.M4A, tag.M4B:
		info.AudioFormat = "AAC"
	case tag.FLAC:
		info.AudioFormat = "FLAC"
	case tag.OGG:
		info.AudioFormat = "Vorbis"
	}

	info.Title = m.Title()
	info.Album = m.Album()
	info.Artist = m.Artist()
	if info.Artist == "" {
		info.Artist = m.AlbumArtist()
	}
	info.Track, info.TrackTotal = m.Track()

	raw := m.Raw()
	if v, ok := raw["bitrate"].(int); ok {
		info.AudioBitrate = v / 1000
	}
	if v, ok := raw["sample_rate"].(int); ok {
		info.AudioSampleRate = v
	}
	if v, ok := raw["channels"].(int); ok {
		info.AudioChannels = v
	}
	if v, ok := raw["bits_per_sample"].(int); ok {
		info.AudioBits = v
	}

	return info, nil
}
