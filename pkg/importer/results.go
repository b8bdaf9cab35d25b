package importer

import (
	"github.com/shishobooks/librarr/pkg/events"
	"github.com/shishobooks/librarr/pkg/metrics"
	"github.com/shishobooks/librarr/pkg/models"
)

// publishBookImports sends one BookImported per book that had at least one
// file imported, carrying the files of the book's monitored edition.
func publishBookImports(pub Publisher, results []*ImportResult, imported, old []*models.BookFile, replaceExisting bool, item *DownloadClientItem) int {
	index := map[int]int{}
	byBook := [][]*ImportResult{}
	for _, r := range results {
		if r.Decision.Item == nil || r.Decision.Item.Book == nil {
			continue
		}
		id := r.Decision.Item.Book.ID
		i, ok := index[id]
		if !ok {
			i = len(byBook)
			index[id] = i
			byBook = append(byBook, nil)
		}
		byBook[i] = append(byBook[i], r)
	}

	published := 0
	for _, group := range byBook {
		succeeded := false
		for _, r := range group {
			if r.Succeeded() {
				succeeded = true
				break
			}
		}
		first := group[0].Decision.Item
		if !succeeded || first.Author == nil {
			continue
		}

		belongs := editionFilter(first)
		pub.Publish(events.BookImported{
			Author:        first.Author,
			Book:          first.Book,
			ImportedFiles: filterFiles(imported, belongs),
			OldFiles:      filterFiles(old, belongs),
			NewDownload:   replaceExisting,
			DownloadID:    downloadID(item),
		})
		published++
	}
	return published
}

// editionFilter matches files of the book's monitored edition. Without a
// single monitored edition it falls back to the edition the files were
// imported into.
func editionFilter(item *LocalBook) func(*models.BookFile) bool {
	edition := item.Book.MonitoredEdition()
	if edition == nil {
		edition = item.Edition
	}
	if edition == nil {
		return func(*models.BookFile) bool { return false }
	}
	return func(f *models.BookFile) bool { return f.EditionID == edition.ID }
}

func filterFiles(files []*models.BookFile, keep func(*models.BookFile) bool) []*models.BookFile {
	out := []*models.BookFile{}
	for _, f := range files {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// appendRejected echoes every decision that isn't approved with its own
// rejection reasons.
func appendRejected(results []*ImportResult, decisions []*ImportDecision) []*ImportResult {
	for _, d := range decisions {
		if d.Approved() {
			continue
		}
		reasons := make([]string, 0, len(d.Rejections))
		for _, r := range d.Rejections {
			reasons = append(reasons, r.Reason)
		}
		results = append(results, newImportResult(d, reasons...))
	}
	return results
}

func recordResults(results []*ImportResult) {
	for _, r := range results {
		metrics.IncImportResult(string(r.Type))
	}
}

func downloadID(item *DownloadClientItem) string {
	if item == nil {
		return ""
	}
	return item.DownloadID
}
