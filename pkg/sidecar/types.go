package sidecar

// CurrentVersion is the current version of the sidecar file format.
// Increment this when making breaking changes to the schema.
const CurrentVersion = 1

// FileSidecar is the metadata written next to an imported book file as
// {filename}.metadata.json. It stands in for embedded tags on formats we
// can't write to.
type FileSidecar struct {
	Version          int     `json:"version"`
	Title            string  `json:"title,omitempty"`
	ReleaseYear      int     `json:"release_year,omitempty"`
	Authors          []Name  `json:"authors,omitempty"`
	ForeignBookID    string  `json:"foreign_book_id,omitempty"`
	ForeignEditionID string  `json:"foreign_edition_id,omitempty"`
	EditionTitle     string  `json:"edition_title,omitempty"`
	ISBN13           *string `json:"isbn13,omitempty"`
	ASIN             *string `json:"asin,omitempty"`
	Part             int     `json:"part,omitempty"`
	PartCount        int     `json:"part_count,omitempty"`
	Quality          string  `json:"quality,omitempty"`
	ReleaseGroup     *string `json:"release_group,omitempty"`
}

// Name represents an author in the sidecar file.
type Name struct {
	Name     string `json:"name"`
	SortName string `json:"sort_name,omitempty"`
}
