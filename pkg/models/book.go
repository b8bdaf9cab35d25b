package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID               int        `bun:",pk,nullzero" json:"id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	AuthorMetadataID int        `bun:",nullzero" json:"author_metadata_id"`
	ForeignBookID    string     `bun:",nullzero" json:"foreign_book_id"`
	Title            string     `bun:",nullzero" json:"title"`
	ReleaseDate      *time.Time `json:"release_date"`
	Monitored        bool       `json:"monitored"`
	AnyEditionOk     bool       `json:"any_edition_ok"`
	Added            time.Time  `json:"added"`
	LastInfoSync     *time.Time `json:"last_info_sync"`
	Editions         []*Edition `bun:"rel:has-many,join:id=book_id" json:"editions,omitempty"`

	// Author is populated in memory by callers that already hold the owning author.
	Author *Author `bun:"-" json:"author,omitempty"`
}

// MonitoredEdition returns the single monitored edition, or nil when there
// isn't exactly one.
func (b *Book) MonitoredEdition() *Edition {
	var found *Edition
	for _, e := range b.Editions {
		if !e.Monitored {
			continue
		}
		if found != nil {
			return nil
		}
		found = e
	}
	return found
}

// EditionByForeignID returns the edition with the given foreign id, or nil when
// there isn't exactly one.
func (b *Book) EditionByForeignID(foreignEditionID string) *Edition {
	var found *Edition
	for _, e := range b.Editions {
		if e.ForeignEditionID != foreignEditionID {
			continue
		}
		if found != nil {
			return nil
		}
		found = e
	}
	return found
}

func (b *Book) String() string {
	if b == nil {
		return "<nil book>"
	}
	return "[" + b.ForeignBookID + "][" + b.Title + "]"
}

type Edition struct {
	bun.BaseModel `bun:"table:editions,alias:e"`

	ID               int       `bun:",pk,nullzero" json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	BookID           int       `bun:",nullzero" json:"book_id"`
	ForeignEditionID string    `bun:",nullzero" json:"foreign_edition_id"`
	Title            string    `bun:",nullzero" json:"title"`
	ISBN13           *string   `bun:"isbn13" json:"isbn13"`
	ASIN             *string   `bun:"asin" json:"asin"`
	Format           *string   `json:"format"`
	IsEbook          bool      `json:"is_ebook"`
	Monitored        bool      `json:"monitored"`
}

func (e *Edition) String() string {
	if e == nil {
		return "<nil edition>"
	}
	return "[" + e.ForeignEditionID + "][" + e.Title + "]"
}
