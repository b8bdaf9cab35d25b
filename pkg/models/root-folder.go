package models

import (
	"time"

	"github.com/uptrace/bun"
)

type RootFolder struct {
	bun.BaseModel `bun:"table:root_folders,alias:rf"`

	ID                          int       `bun:",pk,nullzero" json:"id"`
	CreatedAt                   time.Time `json:"created_at"`
	UpdatedAt                   time.Time `json:"updated_at"`
	Name                        string    `bun:",nullzero" json:"name"`
	Path                        string    `bun:",nullzero" json:"path"`
	DefaultMetadataProfileID    int       `json:"default_metadata_profile_id"`
	DefaultQualityProfileID     int       `json:"default_quality_profile_id"`
	DefaultMonitorOption        string    `bun:",nullzero,default:'all'" json:"default_monitor_option"`
	DefaultNewItemMonitorOption string    `bun:",nullzero,default:'all'" json:"default_new_item_monitor_option"`
	DefaultTags                 []int     `json:"default_tags"`
	IsCalibreLibrary            bool      `json:"is_calibre_library"`
}
