package importer

import (
	"context"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/librarr/pkg/errcodes"
	"github.com/shishobooks/librarr/pkg/events"
	"github.com/shishobooks/librarr/pkg/fileutils"
	"github.com/shishobooks/librarr/pkg/mediafiles"
	"github.com/shishobooks/librarr/pkg/metrics"
	"github.com/shishobooks/librarr/pkg/models"
	"github.com/shishobooks/librarr/pkg/placement"
)

const (
	reasonAlreadyImported = "Book has already been imported"
	reasonNoLocalBook     = "Decision has no local book"
)

type FileService interface {
	CreateFiles(ctx context.Context, files []*models.BookFile) error
	RetrieveFile(ctx context.Context, opts mediafiles.RetrieveFileOptions) (*models.BookFile, error)
	DeleteFile(ctx context.Context, file *models.BookFile, reason string) error
}

type HistoryService interface {
	MostRecentGrab(ctx context.Context, downloadID string) (*models.History, error)
}

type Placer interface {
	Place(ctx context.Context, req placement.Request, copyOnly bool) (*placement.Result, error)
}

type ExtrasImporter interface {
	ImportExtras(ctx context.Context, src, dst string, copyOnly bool) (int, error)
}

type TagWriter interface {
	WriteTags(ctx context.Context, file *models.BookFile, book *models.Book) error
}

type CommandQueue interface {
	PushRefreshAuthors(ctx context.Context, authorIDs []int, isNewAuthor bool) error
	PushRefreshBooks(ctx context.Context, bookIDs []int) error
}

// Services are the collaborators an Importer drives.
type Services struct {
	Authors     AuthorService
	Books       BookService
	Editions    EditionService
	RootFolders RootFolderService
	Files       FileService
	History     HistoryService
	Placer      Placer
	Extras      ExtrasImporter
	Tags        TagWriter
	Events      Publisher
	Commands    CommandQueue
}

type Importer struct {
	resolver *Resolver
	editions EditionService
	files    FileService
	history  HistoryService
	placer   Placer
	extras   ExtrasImporter
	tags     TagWriter
	events   Publisher
	commands CommandQueue
	now      func() time.Time
}

func New(s Services) *Importer {
	return &Importer{
		resolver: NewResolver(s.Authors, s.Books, s.Editions, s.RootFolders),
		editions: s.Editions,
		files:    s.Files,
		history:  s.History,
		placer:   s.Placer,
		extras:   s.Extras,
		tags:     s.Tags,
		events:   s.Events,
		commands: s.Commands,
		now:      time.Now,
	}
}

// Import brings approved decisions into the library. Every decision yields a
// result; per-file and per-book failures are reported there. The only error
// returned is a failure to persist the new book files.
func (i *Importer) Import(ctx context.Context, decisions []*ImportDecision, replaceExisting bool, item *DownloadClientItem, mode ImportMode) ([]*ImportResult, error) {
	log := logger.FromContext(ctx)
	res := NewResolution()

	for _, d := range decisions {
		if d.Item == nil && d.Approved() {
			d.Reject(Rejection{Reason: reasonNoLocalBook, Type: RejectionPermanent})
		}
	}

	groups := groupByBook(decisions)
	for n, group := range groups {
		log.Info("importing book", logger.Data{"index": n + 1, "total": len(groups), "book": group[0].Item.Book.String()})
		i.prepareBook(ctx, res, group)
	}

	queue := orderForImport(decisions)
	log.Info("importing files", logger.Data{"count": len(queue), "replace_existing": replaceExisting})

	results := make([]*ImportResult, 0, len(decisions))
	filesToAdd := make([]*models.BookFile, 0, len(queue))
	allImported := []*models.BookFile{}
	allOld := []*models.BookFile{}
	pending := &pendingEvents{}
	copyOnly := mode.copyOnly(item)

	for _, decision := range queue {
		local := decision.Item

		if alreadyImported(results, local) {
			results = append(results, newImportResult(decision, reasonAlreadyImported))
			continue
		}

		file, oldFiles, err := i.importFile(ctx, local, item, copyOnly)
		if err != nil {
			ie := classify(err)
			log.Err(err).Warn("couldn't import book", logger.Data{"path": local.Path, "kind": ie.Kind.String()})
			metrics.IncImportFailure(ie.Kind.String())
			if ie.Kind.PublishesFailure() {
				i.events.Publish(events.BookFileImportFailed{
					SourcePath:  local.Path,
					Err:         ie,
					Author:      local.Author,
					Book:        local.Book,
					NewDownload: !local.ExistingFile,
					DownloadID:  downloadID(item),
				})
			}
			results = append(results, newImportResult(decision, ie.Kind.Message()))
			continue
		}

		filesToAdd = append(filesToAdd, file)
		results = append(results, newImportResult(decision))
		allImported = append(allImported, file)
		allOld = append(allOld, oldFiles...)

		source, newDownload, book := local.Path, !local.ExistingFile, local.Book
		author := local.Author
		pending.add(func() events.Event {
			return events.BookFileImported{
				SourcePath:  source,
				File:        file,
				OldFiles:    oldFiles,
				Author:      author,
				Book:        book,
				NewDownload: newDownload,
				DownloadID:  downloadID(item),
			}
		})
	}

	if len(filesToAdd) > 0 {
		start := i.now()
		if err := i.files.CreateFiles(ctx, filesToAdd); err != nil {
			return nil, errors.WithStack(err)
		}
		elapsed := i.now().Sub(start)
		metrics.ObserveBulkInsert(elapsed)
		log.Debug("inserted new book files", logger.Data{"count": len(filesToAdd), "duration_ms": elapsed.Milliseconds()})
	}

	pending.flush(i.events)
	publishBookImports(i.events, results, allImported, allOld, replaceExisting, item)

	results = appendRejected(results, decisions)

	i.scheduleRefreshes(ctx, res)

	recordResults(results)
	return results, nil
}

// prepareBook resolves the group's author, book and edition, numbers audio
// parts and makes the matched edition the monitored one.
func (i *Importer) prepareBook(ctx context.Context, res *Resolution, group []*ImportDecision) {
	log := logger.FromContext(ctx)

	if i.resolver.EnsureAuthor(ctx, res, group) == nil {
		return
	}
	book := i.resolver.EnsureBook(ctx, res, group)
	if book == nil {
		return
	}
	edition := i.resolver.EnsureEdition(ctx, res, group)
	if edition == nil {
		return
	}

	items := make([]*LocalBook, 0, len(group))
	for _, d := range group {
		items = append(items, d.Item)
	}
	if NormalizeParts(items) {
		log.Debug("numbered audio parts by file name", logger.Data{"book": book.String(), "parts": len(items)})
	}

	log.Debug("updating monitored edition", logger.Data{"edition": edition.String()})
	list, err := i.editions.SetMonitored(ctx, edition)
	if err != nil {
		log.Err(err).Warn("unable to update monitored edition")
	} else {
		book.Editions = list
	}

	// The book is passed as its own old version so listeners don't rescan the
	// author.
	i.events.Publish(events.BookEdited{Book: book, OldBook: book})
}

// alreadyImported reports whether a file for the same book and part has
// already been imported in this batch.
func alreadyImported(results []*ImportResult, local *LocalBook) bool {
	if local.Book == nil {
		return false
	}
	for _, r := range results {
		other := r.Decision.Item
		if r.Succeeded() && other.Book != nil && other.Book.ID == local.Book.ID && other.Part == local.Part {
			return true
		}
	}
	return false
}

func (i *Importer) importFile(ctx context.Context, local *LocalBook, item *DownloadClientItem, copyOnly bool) (*models.BookFile, []*models.BookFile, error) {
	if local.Author == nil || local.Book == nil || local.Edition == nil {
		return nil, nil, errors.New("decision was never matched to an author, book and edition")
	}
	local.Book.Author = local.Author

	file := &models.BookFile{
		Path:         filepath.Clean(local.Path),
		CalibreID:    local.CalibreID,
		Part:         local.Part,
		PartCount:    local.PartCount,
		Size:         local.Size,
		Modified:     local.Modified,
		DateAdded:    i.now().UTC(),
		Quality:      local.Quality,
		MediaInfo:    local.MediaInfo,
		EditionID:    local.Edition.ID,
		Edition:      local.Edition,
		AuthorID:     local.Author.ID,
		Author:       local.Author,
		IndexerFlags: i.indexerFlags(ctx, local, item),
	}
	if local.ReleaseGroup != "" {
		group := local.ReleaseGroup
		file.ReleaseGroup = &group
	}

	if local.ExistingFile {
		err := i.replaceExistingRecord(ctx, file)
		if err != nil {
			return nil, nil, err
		}
		if err := i.tags.WriteTags(ctx, file, local.Book); err != nil {
			return nil, nil, err
		}
		return file, nil, nil
	}

	file.SceneName = sceneName(item)
	result, err := i.placer.Place(ctx, placement.Request{SourcePath: local.Path, File: file, Book: local.Book}, copyOnly)
	if err != nil {
		return nil, nil, err
	}

	n, err := i.extras.ImportExtras(ctx, local.Path, file.Path, copyOnly)
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("unable to import extra files", logger.Data{"path": file.Path})
	} else if n > 0 {
		logger.FromContext(ctx).Debug("imported extra files", logger.Data{"path": file.Path, "count": n})
	}

	return file, result.OldFiles, nil
}

// replaceExistingRecord drops the record already stored for file's path,
// keeping its calibre id when file has none.
func (i *Importer) replaceExistingRecord(ctx context.Context, file *models.BookFile) error {
	previous, err := i.files.RetrieveFile(ctx, mediafiles.RetrieveFileOptions{Path: &file.Path})
	if errors.Is(err, errcodes.NotFound("Book file")) {
		return nil
	}
	if err != nil {
		return errors.WithStack(err)
	}

	if err := i.files.DeleteFile(ctx, previous, models.DeleteReasonManualOverride); err != nil {
		return errors.WithStack(err)
	}
	if file.CalibreID == 0 && previous.CalibreID != 0 {
		file.CalibreID = previous.CalibreID
	}
	return nil
}

// indexerFlags prefers the flags recorded when the download was grabbed.
func (i *Importer) indexerFlags(ctx context.Context, local *LocalBook, item *DownloadClientItem) models.IndexerFlags {
	if item == nil || item.DownloadID == "" {
		return local.IndexerFlags
	}

	grab, err := i.history.MostRecentGrab(ctx, item.DownloadID)
	if err != nil {
		if !errors.Is(err, errcodes.NotFound("History")) {
			logger.FromContext(ctx).Err(err).Warn("unable to look up grab history", logger.Data{"download_id": item.DownloadID})
		}
		return 0
	}
	flags, ok := models.ParseIndexerFlags(grab.Data["indexerFlags"])
	if !ok {
		return 0
	}
	return flags
}

func sceneName(item *DownloadClientItem) *string {
	if item == nil || item.Title == "" {
		return nil
	}
	title := fileutils.StripMediaExtension(item.Title)
	if title == "" {
		return nil
	}
	return &title
}

func (i *Importer) scheduleRefreshes(ctx context.Context, res *Resolution) {
	log := logger.FromContext(ctx)

	if ids := res.AddedAuthorIDs(); len(ids) > 0 {
		if err := i.commands.PushRefreshAuthors(ctx, ids, true); err != nil {
			log.Err(err).Error("unable to queue author refresh")
		}
	}

	if ids := res.BookIDsToRefresh(); len(ids) > 0 {
		log.Debug("refreshing info for new books", logger.Data{"count": len(ids)})
		if err := i.commands.PushRefreshBooks(ctx, ids); err != nil {
			log.Err(err).Error("unable to queue book refresh")
		}
	}
}
