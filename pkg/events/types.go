package events

import "github.com/shishobooks/librarr/pkg/models"

// BookEdited is published as soon as an import switches a book's monitored
// edition. Listeners must not treat it as a reason to rescan the author.
type BookEdited struct {
	Book    *models.Book
	OldBook *models.Book
}

func (BookEdited) Type() EventType { return EventBookEdited }

// BookFileImported is published once per placed file, after its record has
// been persisted.
type BookFileImported struct {
	SourcePath  string
	File        *models.BookFile
	OldFiles    []*models.BookFile
	Author      *models.Author
	Book        *models.Book
	NewDownload bool
	DownloadID  string
}

func (BookFileImported) Type() EventType { return EventBookFileImported }

type BookFileImportFailed struct {
	SourcePath  string
	Err         error
	Author      *models.Author
	Book        *models.Book
	NewDownload bool
	DownloadID  string
}

func (BookFileImportFailed) Type() EventType { return EventBookFileImportFailed }

// BookImported aggregates every file imported for a book in one batch.
type BookImported struct {
	Author        *models.Author
	Book          *models.Book
	ImportedFiles []*models.BookFile
	OldFiles      []*models.BookFile
	NewDownload   bool
	DownloadID    string
}

func (BookImported) Type() EventType { return EventBookImported }
