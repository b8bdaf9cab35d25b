package placement

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/librarr/pkg/errcodes"
	"github.com/shishobooks/librarr/pkg/fileutils"
	"github.com/shishobooks/librarr/pkg/mediafiles"
	"github.com/shishobooks/librarr/pkg/models"
)

var (
	// ErrRootFolderMissing means the author's root folder is not configured or
	// not present on disk.
	ErrRootFolderMissing = errors.New("root folder missing")
	// ErrExternalLibrary wraps failures reported by a LibraryBackend.
	ErrExternalLibrary = errors.New("external library communication failed")
)

type BookFiles interface {
	ListFiles(ctx context.Context, opts mediafiles.ListFilesOptions) ([]*models.BookFile, error)
	DeleteFile(ctx context.Context, file *models.BookFile, reason string) error
}

type RootFolders interface {
	BestRootFolder(ctx context.Context, path string) (*models.RootFolder, error)
}

type RecycleBin interface {
	DeleteFile(ctx context.Context, path, subfolder string) error
}

type TagWriter interface {
	WriteTags(ctx context.Context, file *models.BookFile, book *models.Book) error
}

// LibraryBackend manages files for root folders that belong to an external
// library manager. AddFile returns the path the backend stored the file at and
// the backend's id for it.
type LibraryBackend interface {
	AddFile(ctx context.Context, src string, file *models.BookFile, book *models.Book, copyOnly bool) (string, int, error)
	RemoveFile(ctx context.Context, file *models.BookFile) error
}

// Request describes one file to place. Book.Author must be set.
type Request struct {
	SourcePath string
	File       *models.BookFile
	Book       *models.Book
}

type Result struct {
	Path     string
	OldFiles []*models.BookFile
}

type Placer struct {
	files       BookFiles
	rootFolders RootFolders
	recycleBin  RecycleBin
	tags        TagWriter
	backend     LibraryBackend
}

// New builds a Placer. backend may be nil when no external library is used.
func New(files BookFiles, rootFolders RootFolders, recycleBin RecycleBin, tags TagWriter, backend LibraryBackend) *Placer {
	return &Placer{
		files:       files,
		rootFolders: rootFolders,
		recycleBin:  recycleBin,
		tags:        tags,
		backend:     backend,
	}
}

// Place removes the book's current files, then moves or copies the source
// into the author's folder and points req.File at the result.
func (p *Placer) Place(ctx context.Context, req Request, copyOnly bool) (*Result, error) {
	log := logger.FromContext(ctx).Data(logger.Data{"source": req.SourcePath})
	book := req.Book
	author := book.Author
	if author == nil {
		return nil, errors.New("book has no author")
	}

	rootFolder, err := p.rootFolder(ctx, author)
	if err != nil {
		return nil, err
	}

	result := &Result{}

	existing, err := p.files.ListFiles(ctx, mediafiles.ListFilesOptions{BookID: &book.ID})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for _, old := range existing {
		if rootFolder.IsCalibreLibrary {
			err = p.backendOrErr().RemoveFile(ctx, old)
			if err != nil {
				return nil, errors.Wrap(ErrExternalLibrary, err.Error())
			}
		} else if _, statErr := os.Stat(old.Path); statErr == nil {
			subfolder, err := filepath.Rel(rootFolder.Path, filepath.Dir(old.Path))
			if err != nil || subfolder == "." {
				subfolder = ""
			}
			err = p.recycleBin.DeleteFile(ctx, old.Path, subfolder)
			if err != nil {
				return nil, err
			}
		} else {
			// The record outlived its file; drop the record only.
			log.Debug("existing book file is already gone from disk", logger.Data{"old_path": old.Path})
		}
		err = p.files.DeleteFile(ctx, old, models.DeleteReasonUpgrade)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		log.Info("replaced existing book file", logger.Data{"old_path": old.Path})
		result.OldFiles = append(result.OldFiles, old)
	}

	if rootFolder.IsCalibreLibrary {
		path, calibreID, err := p.backendOrErr().AddFile(ctx, req.SourcePath, req.File, book, copyOnly)
		if err != nil {
			return nil, errors.Wrap(ErrExternalLibrary, err.Error())
		}
		req.File.Path = path
		req.File.CalibreID = calibreID
		result.Path = path
		return result, nil
	}

	dst := Destination(author, book, req.File, req.SourcePath)
	if dst != req.SourcePath {
		err = fileutils.TransferFile(req.SourcePath, dst, copyOnly)
		if err != nil {
			return nil, err
		}
		log.Info("placed book file", logger.Data{"destination": dst, "copy": copyOnly})
	}
	req.File.Path = dst
	result.Path = dst

	if p.tags != nil {
		if err := p.tags.WriteTags(ctx, req.File, book); err != nil {
			log.Err(err).Warn("unable to write tags")
		}
	}

	return result, nil
}

// Destination is <author path>/<Title (Year)>/<file name>.
func Destination(author *models.Author, book *models.Book, file *models.BookFile, src string) string {
	return filepath.Join(
		author.Path,
		fileutils.BookFolderName(book.Title, book.ReleaseDate),
		fileutils.BookFileName(src, file.Part, file.PartCount),
	)
}

func (p *Placer) rootFolder(ctx context.Context, author *models.Author) (*models.RootFolder, error) {
	rf, err := p.rootFolders.BestRootFolder(ctx, author.Path)
	if errors.Is(err, errcodes.NotFound("Root folder")) {
		return nil, errors.Wrap(ErrRootFolderMissing, author.Path)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if _, err := os.Stat(rf.Path); err != nil {
		return nil, errors.Wrap(ErrRootFolderMissing, rf.Path)
	}
	return rf, nil
}

func (p *Placer) backendOrErr() LibraryBackend {
	if p.backend == nil {
		return missingBackend{}
	}
	return p.backend
}

type missingBackend struct{}

func (missingBackend) AddFile(context.Context, string, *models.BookFile, *models.Book, bool) (string, int, error) {
	return "", 0, errors.New("no library backend configured")
}

func (missingBackend) RemoveFile(context.Context, *models.BookFile) error {
	return errors.New("no library backend configured")
}
