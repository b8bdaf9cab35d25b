package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
	"github.com/shishobooks/librarr/pkg/config"
	"github.com/shishobooks/librarr/pkg/database"
	"github.com/shishobooks/librarr/pkg/events"
	"github.com/shishobooks/librarr/pkg/importer"
	"github.com/shishobooks/librarr/pkg/mediainfo"
	"github.com/shishobooks/librarr/pkg/migrations"
	"github.com/shishobooks/librarr/pkg/models"
	"github.com/shishobooks/librarr/pkg/qualities"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	var opts struct {
		Mode            string `short:"m" long:"mode" description:"Import mode: auto, move or copy (defaults to the configured mode)"`
		DownloadID      string `long:"download-id" description:"Download client id of the release being imported"`
		DownloadTitle   string `long:"download-title" description:"Release title reported by the download client"`
		CanMoveFiles    bool   `long:"can-move-files" description:"The download client no longer needs the files"`
		ReplaceExisting bool   `short:"r" long:"replace-existing" description:"Treat the files as a new download replacing existing ones"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) != 1 {
		fmt.Println("go run ./cmd/import [options] <path/to/decisions.json>")
		os.Exit(1)
	}

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	modeValue := opts.Mode
	if modeValue == "" {
		modeValue = cfg.DefaultImportMode
	}
	mode, err := importer.ParseImportMode(modeValue)
	if err != nil {
		log.Err(err).Fatal("import mode error")
	}

	decisions, err := readDecisions(args[0])
	if err != nil {
		log.Err(err).Fatal("decisions read error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	if _, err := migrations.BringUpToDate(ctx, db); err != nil {
		log.Err(err).Fatal("migrations error")
	}

	var item *importer.DownloadClientItem
	if opts.DownloadID != "" {
		item = &importer.DownloadClientItem{
			DownloadID:   opts.DownloadID,
			Title:        opts.DownloadTitle,
			CanMoveFiles: opts.CanMoveFiles,
		}
	}

	bus := events.NewBus()
	imported := bus.Subscribe(events.EventBookImported, 100)
	failed := bus.Subscribe(events.EventBookFileImportFailed, 100)

	results, err := importer.NewForDB(db, cfg, bus, nil).Import(ctx, decisions, opts.ReplaceExisting, item, mode)
	if err != nil {
		log.Err(err).Fatal("import error")
	}

	bus.Unsubscribe(events.EventBookImported, imported)
	bus.Unsubscribe(events.EventBookFileImportFailed, failed)
	for e := range imported {
		if bi, ok := e.(events.BookImported); ok {
			log.Info("book imported", logger.Data{"book": bi.Book.String(), "files": len(bi.ImportedFiles)})
		}
	}
	for e := range failed {
		if f, ok := e.(events.BookFileImportFailed); ok {
			log.Warn("file import failed", logger.Data{"path": f.SourcePath, "error": f.Err.Error()})
		}
	}

	for _, r := range results {
		fmt.Printf("%-8s %s %v\n", r.Type, r.Decision.Item.Path, r.Errors)
	}
}

// readDecisions loads matched decisions from a JSON file and fills in what
// can be read from the files themselves.
func readDecisions(path string) ([]*importer.ImportDecision, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	decisions := []*importer.ImportDecision{}
	if err := json.Unmarshal(b, &decisions); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	for n, d := range decisions {
		if d == nil || d.Item == nil {
			return nil, errors.Errorf("decision %d has no item", n)
		}
		local := d.Item
		if local.Quality.Quality == models.QualityUnknown {
			local.Quality.Quality = qualities.ForPath(local.Path)
		}
		if local.Quality.Revision.Version == 0 {
			local.Quality.Revision.Version = 1
		}
		if info, err := os.Stat(local.Path); err == nil {
			if local.Size == 0 {
				local.Size = info.Size()
			}
			if local.Modified.IsZero() {
				local.Modified = info.ModTime()
			}
		}
		if local.MediaInfo == nil {
			if mi, err := mediainfo.Probe(local.Path); err == nil {
				local.MediaInfo = mi
			}
		}
	}

	return decisions, nil
}
