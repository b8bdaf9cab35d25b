package recyclebin

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/librarr/pkg/fileutils"
)

// ErrTransfer is returned when a file can't be moved into the recycle bin.
var ErrTransfer = errors.New("unable to move file to the recycle bin")

// Bin deletes files by moving them into a staging directory. A Bin without a
// path deletes permanently.
type Bin struct {
	path string
	now  func() time.Time
}

func New(path string) *Bin {
	return &Bin{path: path, now: time.Now}
}

// DeleteFile removes path from the library. With a configured bin the file
// ends up at <bin>/<subfolder>/<name>, renamed if that name is taken.
func (b *Bin) DeleteFile(ctx context.Context, path, subfolder string) error {
	log := logger.FromContext(ctx)

	if b.path == "" {
		log.Info("recycle bin not configured, deleting file", logger.Data{"path": path})
		err := os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			return errors.WithStack(err)
		}
		return nil
	}

	dst := fileutils.UniqueFilepath(filepath.Join(b.path, subfolder, filepath.Base(path)))
	err := os.MkdirAll(filepath.Dir(dst), 0755)
	if err == nil {
		err = fileutils.MoveFile(path, dst)
	}
	if err != nil {
		return errors.Wrapf(ErrTransfer, "%s: %s", path, err.Error())
	}

	// Cleanup ages entries by modification time, so restart the clock.
	now := b.now()
	if err := os.Chtimes(dst, now, now); err != nil {
		log.Warn("unable to touch recycled file", logger.Data{"path": dst, "err": err.Error()})
	}

	log.Info("moved file to recycle bin", logger.Data{"path": path, "destination": dst})
	return nil
}

// Cleanup deletes bin entries last touched more than days ago and prunes
// directories left empty. Non-positive days disables cleanup.
func (b *Bin) Cleanup(ctx context.Context, days int) (int, error) {
	if b.path == "" || days <= 0 {
		return 0, nil
	}
	if _, err := os.Stat(b.path); os.IsNotExist(err) {
		return 0, nil
	}

	log := logger.FromContext(ctx)
	cutoff := b.now().AddDate(0, 0, -days)
	removed := 0
	dirs := []string{}

	err := filepath.WalkDir(b.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WithStack(err)
		}
		if d.IsDir() {
			if path != b.path {
				dirs = append(dirs, path)
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return errors.WithStack(err)
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return errors.WithStack(err)
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, err
	}

	// Deepest directories come last in walk order.
	for i := len(dirs) - 1; i >= 0; i-- {
		entries, err := os.ReadDir(dirs[i])
		if err == nil && len(entries) == 0 {
			os.Remove(dirs[i])
		}
	}

	log.Info("cleaned up recycle bin", logger.Data{"removed": removed, "days": days})
	return removed, nil
}
