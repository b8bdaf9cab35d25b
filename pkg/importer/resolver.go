package importer

import (
	"context"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/librarr/pkg/authors"
	"github.com/shishobooks/librarr/pkg/books"
	"github.com/shishobooks/librarr/pkg/editions"
	"github.com/shishobooks/librarr/pkg/errcodes"
	"github.com/shishobooks/librarr/pkg/fileutils"
	"github.com/shishobooks/librarr/pkg/models"
)

const (
	reasonAuthorNotAdded = "Failed to add missing author"
	reasonBookNotAdded   = "Failed to add missing book"
)

type AuthorService interface {
	CreateAuthor(ctx context.Context, author *models.Author) error
	RetrieveAuthor(ctx context.Context, opts authors.RetrieveAuthorOptions) (*models.Author, error)
}

type BookService interface {
	CreateBook(ctx context.Context, book *models.Book) error
	RetrieveBook(ctx context.Context, opts books.RetrieveBookOptions) (*models.Book, error)
}

type EditionService interface {
	CreateEditions(ctx context.Context, editions []*models.Edition) error
	RetrieveEdition(ctx context.Context, opts editions.RetrieveEditionOptions) (*models.Edition, error)
	SetMonitored(ctx context.Context, edition *models.Edition) ([]*models.Edition, error)
}

type RootFolderService interface {
	BestRootFolder(ctx context.Context, path string) (*models.RootFolder, error)
}

// Resolution is the state of one Import call: entities resolved so far keyed
// by foreign id, plus everything that had to be created along the way.
type Resolution struct {
	Authors  map[string]*models.Author
	Books    map[string]*models.Book
	Editions map[string]*models.Edition

	AddedAuthors []*models.Author
	AddedBooks   []*models.Book
	// ExtendedBooks already existed but gained an edition during this call.
	ExtendedBooks []*models.Book
}

func NewResolution() *Resolution {
	return &Resolution{
		Authors:  map[string]*models.Author{},
		Books:    map[string]*models.Book{},
		Editions: map[string]*models.Edition{},
	}
}

// AddedAuthorIDs lists the ids of authors created during the call.
func (r *Resolution) AddedAuthorIDs() []int {
	ids := make([]int, 0, len(r.AddedAuthors))
	for _, a := range r.AddedAuthors {
		ids = append(ids, a.ID)
	}
	return ids
}

// BookIDsToRefresh lists created or extended books whose author was not itself
// created during the call. New authors get a full refresh that covers them.
func (r *Resolution) BookIDsToRefresh() []int {
	newAuthorMetadata := map[int]struct{}{}
	for _, a := range r.AddedAuthors {
		newAuthorMetadata[a.AuthorMetadataID] = struct{}{}
	}

	seen := map[int]struct{}{}
	ids := []int{}
	for _, list := range [][]*models.Book{r.AddedBooks, r.ExtendedBooks} {
		for _, b := range list {
			if _, ok := newAuthorMetadata[b.AuthorMetadataID]; ok {
				continue
			}
			if _, ok := seen[b.ID]; ok {
				continue
			}
			seen[b.ID] = struct{}{}
			ids = append(ids, b.ID)
		}
	}
	return ids
}

func (r *Resolution) bookAdded(id int) bool {
	for _, b := range r.AddedBooks {
		if b.ID == id {
			return true
		}
	}
	return false
}

// Resolver finds or creates the author, book and edition a group of decisions
// points at. Every Ensure call fans the persisted entity back out to all
// decisions in the group, and rejects the whole group when it can't.
type Resolver struct {
	authors     AuthorService
	books       BookService
	editions    EditionService
	rootFolders RootFolderService
	now         func() time.Time
}

func NewResolver(authorService AuthorService, bookService BookService, editionService EditionService, rootFolderService RootFolderService) *Resolver {
	return &Resolver{
		authors:     authorService,
		books:       bookService,
		editions:    editionService,
		rootFolders: rootFolderService,
		now:         time.Now,
	}
}

func rejectAll(decisions []*ImportDecision, reason string) {
	for _, d := range decisions {
		d.Reject(Rejection{Reason: reason, Type: RejectionTemporary})
	}
}

// EnsureAuthor returns the persisted author for the group, creating it from
// the best root folder's defaults when needed. It returns nil after rejecting
// the group.
func (r *Resolver) EnsureAuthor(ctx context.Context, res *Resolution, decisions []*ImportDecision) *models.Author {
	first := decisions[0].Item
	candidate := first.Author
	if candidate == nil {
		rejectAll(decisions, reasonAuthorNotAdded)
		return nil
	}

	foreignID := candidate.ForeignAuthorID()
	log := logger.FromContext(ctx).Data(logger.Data{"foreign_author_id": foreignID})

	author, ok := res.Authors[foreignID]
	if !ok && candidate.ID != 0 {
		author, ok = candidate, true
	}
	if !ok {
		var err error
		author, err = r.authors.RetrieveAuthor(ctx, authors.RetrieveAuthorOptions{ForeignAuthorID: &foreignID})
		if errors.Is(err, errcodes.NotFound("Author")) {
			log.Debug("adding remote author", logger.Data{"name": candidate.Name()})
			author, err = r.addAuthor(ctx, candidate, first.Path)
			if err == nil {
				res.AddedAuthors = append(res.AddedAuthors, author)
			}
		}
		if err != nil {
			log.Err(err).Error("failed to add author")
			rejectAll(decisions, reasonAuthorNotAdded)
			return nil
		}
		res.Authors[foreignID] = author
	}

	for _, d := range decisions {
		d.Item.Author = author
		if d.Item.Book != nil {
			d.Item.Book.Author = author
			d.Item.Book.AuthorMetadataID = author.AuthorMetadataID
		}
	}

	return author
}

func (r *Resolver) addAuthor(ctx context.Context, candidate *models.Author, path string) (*models.Author, error) {
	rootFolder, err := r.rootFolders.BestRootFolder(ctx, path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if candidate.Metadata == nil {
		return nil, errors.New("author has no metadata")
	}

	metadata := *candidate.Metadata
	metadata.ID = 0
	author := &models.Author{
		Metadata:          &metadata,
		RootFolderPath:    rootFolder.Path,
		MetadataProfileID: rootFolder.DefaultMetadataProfileID,
		QualityProfileID:  rootFolder.DefaultQualityProfileID,
		Monitored:         rootFolder.DefaultMonitorOption != models.MonitorNone,
		MonitorNewItems:   rootFolder.DefaultNewItemMonitorOption,
		Tags:              append([]int(nil), rootFolder.DefaultTags...),
		Added:             r.now(),
	}
	author.AddOptions = &models.AddAuthorOptions{
		SearchForMissingBooks: false,
		Monitored:             author.Monitored,
		Monitor:               rootFolder.DefaultMonitorOption,
	}
	if rootFolder.IsCalibreLibrary {
		// Calibre lays files out as author/book/file.
		author.Path = filepath.Dir(filepath.Dir(path))
	} else {
		author.Path = filepath.Join(rootFolder.Path, fileutils.AuthorFolderName(metadata.Name))
	}

	if err := r.authors.CreateAuthor(ctx, author); err != nil {
		return nil, err
	}

	// Reload so the relations are populated.
	return r.authors.RetrieveAuthor(ctx, authors.RetrieveAuthorOptions{ID: &author.ID})
}

// EnsureBook returns the persisted book for the group. A book created here must
// carry the group's edition, otherwise the group is rejected.
func (r *Resolver) EnsureBook(ctx context.Context, res *Resolution, decisions []*ImportDecision) *models.Book {
	first := decisions[0].Item
	candidate := first.Book

	log := logger.FromContext(ctx).Data(logger.Data{"foreign_book_id": candidate.ForeignBookID})

	book, ok := res.Books[candidate.ForeignBookID]
	if !ok && candidate.ID != 0 {
		book = candidate
		book.Author = first.Author
		res.Books[candidate.ForeignBookID] = book
	} else if !ok {
		var err error
		created := false
		book, err = r.books.RetrieveBook(ctx, books.RetrieveBookOptions{ForeignBookID: &candidate.ForeignBookID})
		if errors.Is(err, errcodes.NotFound("Book")) {
			log.Debug("adding remote book", logger.Data{"title": candidate.Title})
			book, err = r.addBook(ctx, candidate, first.Author)
			created = err == nil
		}
		if err != nil {
			log.Err(err).Error("failed to add book")
			rejectAll(decisions, reasonBookNotAdded)
			return nil
		}
		if created {
			res.AddedBooks = append(res.AddedBooks, book)
		}
		book.Author = first.Author
		res.Books[candidate.ForeignBookID] = book
	}

	if first.Edition != nil {
		if edition := book.EditionByForeignID(first.Edition.ForeignEditionID); edition != nil {
			res.Editions[edition.ForeignEditionID] = edition
		} else if res.bookAdded(book.ID) {
			log.Error("added book is missing the matched edition", logger.Data{"foreign_edition_id": first.Edition.ForeignEditionID})
			rejectAll(decisions, reasonBookNotAdded)
			return nil
		}
	}

	for _, d := range decisions {
		d.Item.Book = book
		if d.Item.Edition != nil {
			if edition, ok := res.Editions[d.Item.Edition.ForeignEditionID]; ok {
				d.Item.Edition = edition
			}
		}
	}

	return book
}

func (r *Resolver) addBook(ctx context.Context, candidate *models.Book, author *models.Author) (*models.Book, error) {
	if candidate.AuthorMetadataID == 0 {
		return nil, errors.New("cannot insert book with author metadata id 0")
	}

	book := &models.Book{
		AuthorMetadataID: candidate.AuthorMetadataID,
		ForeignBookID:    candidate.ForeignBookID,
		Title:            candidate.Title,
		ReleaseDate:      candidate.ReleaseDate,
		AnyEditionOk:     candidate.AnyEditionOk,
		Added:            r.now(),
	}
	if author != nil {
		book.Monitored = author.Monitored
	}
	for _, e := range candidate.Editions {
		edition := *e
		edition.ID = 0
		edition.BookID = 0
		book.Editions = append(book.Editions, &edition)
	}

	if err := r.books.CreateBook(ctx, book); err != nil {
		return nil, err
	}

	return r.books.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &book.ID})
}

// EnsureEdition returns the persisted edition for the group. An edition that is
// new to an existing book is inserted unmonitored.
func (r *Resolver) EnsureEdition(ctx context.Context, res *Resolution, decisions []*ImportDecision) *models.Edition {
	first := decisions[0].Item
	book := first.Book
	candidate := first.Edition
	if candidate == nil {
		rejectAll(decisions, reasonBookNotAdded)
		return nil
	}

	log := logger.FromContext(ctx).Data(logger.Data{"foreign_edition_id": candidate.ForeignEditionID})

	edition, ok := res.Editions[candidate.ForeignEditionID]
	if !ok && candidate.ID != 0 {
		edition = candidate
	} else if !ok {
		var err error
		edition, err = r.editions.RetrieveEdition(ctx, editions.RetrieveEditionOptions{ForeignEditionID: &candidate.ForeignEditionID})
		if errors.Is(err, errcodes.NotFound("Edition")) {
			log.Debug("adding remote edition", logger.Data{"title": candidate.Title})
			edition, err = r.addEdition(ctx, candidate, book)
			if err == nil && !res.bookAdded(book.ID) {
				res.ExtendedBooks = append(res.ExtendedBooks, book)
			}
		}
		if err != nil {
			log.Err(err).Error("failed to add edition")
			rejectAll(decisions, reasonBookNotAdded)
			return nil
		}
	}

	if edition.BookID != book.ID {
		log.Error("edition belongs to another book", logger.Data{"edition_book_id": edition.BookID, "book_id": book.ID})
		rejectAll(decisions, reasonBookNotAdded)
		return nil
	}
	res.Editions[candidate.ForeignEditionID] = edition

	for _, d := range decisions {
		d.Item.Edition = edition
	}

	return edition
}

func (r *Resolver) addEdition(ctx context.Context, candidate *models.Edition, book *models.Book) (*models.Edition, error) {
	edition := *candidate
	edition.ID = 0
	edition.BookID = book.ID
	edition.Monitored = false

	if err := r.editions.CreateEditions(ctx, []*models.Edition{&edition}); err != nil {
		return nil, err
	}
	book.Editions = append(book.Editions, &edition)
	return &edition, nil
}
