package sidecar

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
	"github.com/shishobooks/librarr/pkg/models"
)

const SidecarSuffix = ".metadata.json"

// FileSidecarPath returns {filepath}.metadata.json.
func FileSidecarPath(filePath string) string {
	return filePath + SidecarSuffix
}

// ReadFileSidecar reads and parses a file sidecar.
// Returns nil, nil if the sidecar doesn't exist.
func ReadFileSidecar(filePath string) (*FileSidecar, error) {
	data, err := os.ReadFile(FileSidecarPath(filePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}

	var s FileSidecar
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.WithStack(err)
	}

	return &s, nil
}

// WriteFileSidecar writes a file sidecar.
func WriteFileSidecar(filePath string, s *FileSidecar) error {
	if s.Version == 0 {
		s.Version = CurrentVersion
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}

	// Sidecar files should be readable by users and other applications
	return errors.WithStack(os.WriteFile(FileSidecarPath(filePath), data, 0644)) //nolint:gosec
}

// FileSidecarFromModel builds the sidecar for a file of the given book. The
// book's Author is used when set.
func FileSidecarFromModel(file *models.BookFile, book *models.Book) *FileSidecar {
	s := &FileSidecar{
		Version:      CurrentVersion,
		Part:         file.Part,
		PartCount:    file.PartCount,
		Quality:      file.Quality.Quality.Name,
		ReleaseGroup: file.ReleaseGroup,
	}

	if book != nil {
		s.Title = book.Title
		s.ForeignBookID = book.ForeignBookID
		if book.ReleaseDate != nil {
			s.ReleaseYear = book.ReleaseDate.Year()
		}
		if book.Author != nil && book.Author.Metadata != nil {
			s.Authors = append(s.Authors, Name{
				Name:     book.Author.Metadata.Name,
				SortName: book.Author.Metadata.SortName,
			})
		}
	}

	if file.Edition != nil {
		s.ForeignEditionID = file.Edition.ForeignEditionID
		s.EditionTitle = file.Edition.Title
		s.ISBN13 = file.Edition.ISBN13
		s.ASIN = file.Edition.ASIN
	}

	return s
}

// TagWriter writes book metadata alongside imported files.
type TagWriter struct {
	enabled bool
}

func NewTagWriter(enabled bool) *TagWriter {
	return &TagWriter{enabled}
}

// WriteTags (re)writes the sidecar for an imported file. A disabled writer is
// a no-op.
func (w *TagWriter) WriteTags(ctx context.Context, file *models.BookFile, book *models.Book) error {
	if !w.enabled {
		return nil
	}
	err := WriteFileSidecar(file.Path, FileSidecarFromModel(file, book))
	if err != nil {
		return errors.WithStack(err)
	}
	logger.FromContext(ctx).Debug("wrote sidecar", logger.Data{"path": FileSidecarPath(file.Path)})
	return nil
}
