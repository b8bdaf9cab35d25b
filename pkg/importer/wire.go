package importer

import (
	"github.com/shishobooks/librarr/pkg/authors"
	"github.com/shishobooks/librarr/pkg/books"
	"github.com/shishobooks/librarr/pkg/config"
	"github.com/shishobooks/librarr/pkg/editions"
	"github.com/shishobooks/librarr/pkg/extras"
	"github.com/shishobooks/librarr/pkg/history"
	"github.com/shishobooks/librarr/pkg/jobs"
	"github.com/shishobooks/librarr/pkg/mediafiles"
	"github.com/shishobooks/librarr/pkg/placement"
	"github.com/shishobooks/librarr/pkg/recyclebin"
	"github.com/shishobooks/librarr/pkg/rootfolders"
	"github.com/shishobooks/librarr/pkg/sidecar"
	"github.com/uptrace/bun"
)

// NewForDB wires an Importer to the database-backed services. backend may be
// nil when no root folder is an external library.
func NewForDB(db *bun.DB, cfg *config.Config, pub Publisher, backend placement.LibraryBackend) *Importer {
	fileService := mediafiles.NewService(db)
	rootFolderService := rootfolders.NewService(db)
	tags := sidecar.NewTagWriter(cfg.WriteSidecars)

	return New(Services{
		Authors:     authors.NewService(db),
		Books:       books.NewService(db),
		Editions:    editions.NewService(db),
		RootFolders: rootFolderService,
		Files:       fileService,
		History:     history.NewService(db),
		Placer:      placement.New(fileService, rootFolderService, recyclebin.New(cfg.RecycleBinPath), tags, backend),
		Extras:      extras.NewImporter(),
		Tags:        tags,
		Events:      pub,
		Commands:    jobs.NewService(db),
	})
}
