package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	MonitorAll      = "all"
	MonitorFuture   = "future"
	MonitorMissing  = "missing"
	MonitorExisting = "existing"
	MonitorLatest   = "latest"
	MonitorFirst    = "first"
	MonitorNone     = "none"
)

const (
	NewItemMonitorAll  = "all"
	NewItemMonitorNone = "none"
	NewItemMonitorNew  = "new"
)

// AuthorMetadata is the catalog-facing half of an author. Books hang off the
// metadata row so they can be linked before the author row exists.
type AuthorMetadata struct {
	bun.BaseModel `bun:"table:author_metadata,alias:am"`

	ID              int       `bun:",pk,nullzero" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	ForeignAuthorID string    `bun:",nullzero" json:"foreign_author_id"`
	Name            string    `bun:",nullzero" json:"name"`
	SortName        string    `bun:",nullzero" json:"sort_name"`
	Overview        *string   `json:"overview"`
}

type AddAuthorOptions struct {
	SearchForMissingBooks bool   `json:"search_for_missing_books"`
	Monitored             bool   `json:"monitored"`
	Monitor               string `json:"monitor"`
}

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID                int               `bun:",pk,nullzero" json:"id"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	AuthorMetadataID  int               `bun:",nullzero" json:"author_metadata_id"`
	Metadata          *AuthorMetadata   `bun:"rel:belongs-to,join:author_metadata_id=id" json:"metadata,omitempty"`
	Path              string            `bun:",nullzero" json:"path"`
	RootFolderPath    string            `bun:",nullzero" json:"root_folder_path"`
	Monitored         bool              `json:"monitored"`
	MonitorNewItems   string            `bun:",nullzero,default:'all'" json:"monitor_new_items"`
	QualityProfileID  int               `bun:",nullzero" json:"quality_profile_id"`
	QualityProfile    *QualityProfile   `bun:"rel:belongs-to,join:quality_profile_id=id" json:"quality_profile,omitempty"`
	MetadataProfileID int               `bun:",nullzero" json:"metadata_profile_id"`
	Tags              []int             `json:"tags"`
	AddOptions        *AddAuthorOptions `json:"add_options,omitempty"`
	Added             time.Time         `json:"added"`
	LastInfoSync      *time.Time        `json:"last_info_sync"`
}

// ForeignAuthorID returns the catalog identifier, which lives on the metadata row.
func (a *Author) ForeignAuthorID() string {
	if a.Metadata == nil {
		return ""
	}
	return a.Metadata.ForeignAuthorID
}

// Name returns the display name from the metadata row.
func (a *Author) Name() string {
	if a.Metadata == nil {
		return ""
	}
	return a.Metadata.Name
}

func (a *Author) String() string {
	if a == nil {
		return "<nil author>"
	}
	return "[" + a.ForeignAuthorID() + "][" + a.Name() + "]"
}
