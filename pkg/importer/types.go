package importer

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/librarr/pkg/models"
)

type ImportMode string

const (
	ImportModeAuto ImportMode = "auto"
	ImportModeMove ImportMode = "move"
	ImportModeCopy ImportMode = "copy"
)

// ParseImportMode maps a config or flag value onto an ImportMode. Empty means
// auto.
func ParseImportMode(s string) (ImportMode, error) {
	switch mode := ImportMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return ImportModeAuto, nil
	case ImportModeAuto, ImportModeMove, ImportModeCopy:
		return mode, nil
	default:
		return "", errors.Errorf("unknown import mode %q", s)
	}
}

// copyOnly decides between moving and copying. Auto copies only when the
// download client still needs the files.
func (m ImportMode) copyOnly(item *DownloadClientItem) bool {
	switch m {
	case ImportModeMove:
		return false
	case ImportModeCopy:
		return true
	default:
		return item != nil && !item.CanMoveFiles
	}
}

// LocalBook is a file on disk that has been matched to a catalog author, book
// and edition. Any of those may not exist locally yet, which is signalled by a
// zero ID.
type LocalBook struct {
	Path         string              `json:"path"`
	Size         int64               `json:"size"`
	Modified     time.Time           `json:"modified"`
	Quality      models.QualityModel `json:"quality"`
	ReleaseGroup string              `json:"release_group,omitempty"`
	MediaInfo    *models.MediaInfo   `json:"media_info,omitempty"`
	Part         int                 `json:"part"`
	PartCount    int                 `json:"part_count"`
	Author       *models.Author      `json:"author"`
	Book         *models.Book        `json:"book"`
	Edition      *models.Edition     `json:"edition"`
	ExistingFile bool                `json:"existing_file"`
	IndexerFlags models.IndexerFlags `json:"indexer_flags"`
	CalibreID    int                 `json:"calibre_id,omitempty"`
}

func (l *LocalBook) String() string {
	return l.Path
}

type RejectionType string

const (
	RejectionPermanent RejectionType = "permanent"
	RejectionTemporary RejectionType = "temporary"
)

type Rejection struct {
	Reason string        `json:"reason"`
	Type   RejectionType `json:"type"`
}

type ImportDecision struct {
	Item       *LocalBook  `json:"item"`
	Rejections []Rejection `json:"rejections,omitempty"`
}

// Approved is true while the decision carries no rejections.
func (d *ImportDecision) Approved() bool {
	return len(d.Rejections) == 0
}

func (d *ImportDecision) Reject(r Rejection) {
	d.Rejections = append(d.Rejections, r)
}

type ImportResultType string

const (
	ImportResultImported ImportResultType = "imported"
	ImportResultSkipped  ImportResultType = "skipped"
	ImportResultRejected ImportResultType = "rejected"
)

type ImportResult struct {
	Decision *ImportDecision  `json:"decision"`
	Errors   []string         `json:"errors,omitempty"`
	Type     ImportResultType `json:"type"`
}

func newImportResult(decision *ImportDecision, errs ...string) *ImportResult {
	r := &ImportResult{Decision: decision, Errors: errs}
	switch {
	case len(errs) == 0:
		r.Type = ImportResultImported
	case decision.Approved():
		r.Type = ImportResultSkipped
	default:
		r.Type = ImportResultRejected
	}
	return r
}

func (r *ImportResult) Succeeded() bool {
	return r.Type == ImportResultImported
}

// DownloadClientItem describes the download the decisions came from.
type DownloadClientItem struct {
	DownloadID   string `json:"download_id"`
	Title        string `json:"title"`
	OutputPath   string `json:"output_path"`
	CanMoveFiles bool   `json:"can_move_files"`
	CanBeRemoved bool   `json:"can_be_removed"`
}
