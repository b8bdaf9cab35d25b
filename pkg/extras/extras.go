package extras

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/librarr/pkg/fileutils"
	"github.com/shishobooks/librarr/pkg/sidecar"
)

// CoverImageExtensions contains all supported image extensions for cover files.
var CoverImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".bmp"}

type Importer struct{}

func NewImporter() *Importer {
	return &Importer{}
}

// ImportExtras carries files that belong to src over to dst's directory:
// {name}_cover.{ext} images and the {file}.metadata.json sidecar. It returns
// how many extras were transferred. Existing extras at the destination are
// left alone; on a move the source sidecar is removed in that case.
func (i *Importer) ImportExtras(ctx context.Context, src, dst string, copyOnly bool) (int, error) {
	log := logger.FromContext(ctx)

	srcDir := filepath.Dir(src)
	dstDir := filepath.Dir(dst)
	srcBase := fileutils.BaseNameWithoutExt(src)
	dstBase := fileutils.BaseNameWithoutExt(dst)

	pairs := make([][2]string, 0, len(CoverImageExtensions)+1)
	for _, ext := range CoverImageExtensions {
		pairs = append(pairs, [2]string{
			filepath.Join(srcDir, srcBase+"_cover"+ext),
			filepath.Join(dstDir, dstBase+"_cover"+ext),
		})
	}
	srcSidecar := sidecar.FileSidecarPath(src)
	pairs = append(pairs, [2]string{srcSidecar, sidecar.FileSidecarPath(dst)})

	transferred := 0
	for _, pair := range pairs {
		if _, err := os.Stat(pair[0]); err != nil {
			continue
		}
		err := fileutils.TransferFile(pair[0], pair[1], copyOnly)
		if errors.Is(err, fileutils.ErrDestinationExists) {
			log.Debug("extra already exists at destination", logger.Data{"path": pair[1]})
			// The sidecar written for the placed file supersedes the downloaded
			// one, which a move must not leave behind.
			if pair[0] == srcSidecar && !copyOnly {
				if err := os.Remove(srcSidecar); err != nil && !os.IsNotExist(err) {
					return transferred, errors.WithStack(err)
				}
			}
			continue
		}
		if err != nil {
			return transferred, errors.WithStack(err)
		}
		transferred++
	}

	return transferred, nil
}
