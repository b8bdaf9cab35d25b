package models

import (
	"database/sql/driver"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

const (
	DeleteReasonMissingFromDisk = "missing_from_disk"
	DeleteReasonManual          = "manual"
	DeleteReasonManualOverride  = "manual_override"
	DeleteReasonUpgrade         = "upgrade"
)

// MediaInfo holds what was read from the file itself, as opposed to what the
// catalog says about it.
type MediaInfo struct {
	MimeType        string `json:"mime_type,omitempty"`
	AudioFormat     string `json:"audio_format,omitempty"`
	AudioBitrate    int    `json:"audio_bitrate,omitempty"`
	AudioChannels   int    `json:"audio_channels,omitempty"`
	AudioBits       int    `json:"audio_bits,omitempty"`
	AudioSampleRate int    `json:"audio_sample_rate,omitempty"`
	Title           string `json:"title,omitempty"`
	Album           string `json:"album,omitempty"`
	Artist          string `json:"artist,omitempty"`
	Track           int    `json:"track,omitempty"`
	TrackTotal      int    `json:"track_total,omitempty"`
}

func (m MediaInfo) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return string(b), nil
}

func (m *MediaInfo) Scan(src interface{}) error {
	return scanJSON(src, m)
}

// scanJSON decodes a TEXT or BLOB column into dest. NULL leaves dest untouched.
func scanJSON(src interface{}, dest interface{}) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return errors.Errorf("unsupported json column type %T", src)
	}
	if len(b) == 0 {
		return nil
	}
	return errors.WithStack(json.Unmarshal(b, dest))
}

type BookFile struct {
	bun.BaseModel `bun:"table:book_files,alias:bf"`

	ID           int          `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	EditionID    int          `bun:",nullzero" json:"edition_id"`
	Edition      *Edition     `bun:"rel:belongs-to,join:edition_id=id" json:"edition,omitempty"`
	AuthorID     int          `bun:",nullzero" json:"author_id"`
	Path         string       `bun:",nullzero" json:"path"`
	Size         int64        `json:"size"`
	Modified     time.Time    `json:"modified"`
	DateAdded    time.Time    `json:"date_added"`
	SceneName    *string      `json:"scene_name"`
	ReleaseGroup *string      `json:"release_group"`
	Quality      QualityModel `json:"quality"`
	MediaInfo    *MediaInfo   `json:"media_info"`
	IndexerFlags IndexerFlags `json:"indexer_flags"`
	Part         int          `json:"part"`
	PartCount    int          `json:"part_count"`
	CalibreID    int          `json:"calibre_id"`

	Author *Author `bun:"-" json:"author,omitempty"`
}

func (f *BookFile) String() string {
	if f == nil {
		return "<nil file>"
	}
	return f.Path
}
