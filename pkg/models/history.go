package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	HistoryEventGrabbed              = "grabbed"
	HistoryEventBookFileImported     = "book_file_imported"
	HistoryEventDownloadFailed       = "download_failed"
	HistoryEventBookImportIncomplete = "book_import_incomplete"
)

// History records download lifecycle events. Data holds indexer-specific
// extras such as "indexerFlags" and "releaseGroup".
type History struct {
	bun.BaseModel `bun:"table:history,alias:h"`

	ID          int               `bun:",pk,nullzero" json:"id"`
	Date        time.Time         `json:"date"`
	EventType   string            `bun:",nullzero" json:"event_type"`
	DownloadID  *string           `json:"download_id"`
	SourceTitle string            `json:"source_title"`
	BookID      *int              `json:"book_id"`
	AuthorID    *int              `json:"author_id"`
	Data        map[string]string `json:"data"`
}
