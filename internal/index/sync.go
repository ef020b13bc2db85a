package index

import (
	"log/slog"
	"time"

	"github.com/binhphanhai/crambook/internal/checksum"
	"github.com/binhphanhai/crambook/internal/lint"
	"github.com/binhphanhai/crambook/internal/markdown"
	"github.com/binhphanhai/crambook/internal/storage"
)

// Sync walks the corpus and brings the index up to date:
//   - new/changed guides are parsed and upserted
//   - guides removed from disk are deleted from the index
//
// It finishes with a full contract check so the stored issues match what is
// on disk.
func Sync(db *DB, store storage.Provider, opts lint.Options, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteGuide(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	if _, err := Relint(db, store, opts, logger); err != nil {
		return err
	}
	return nil
}

// Relint checks the whole corpus against the authoring contract and
// replaces the stored issues with the fresh result.
//
// The corpus is small enough that re-reading it wholesale costs less than
// tracking which guides a change can invalidate: any edit may break links
// in any other guide.
func Relint(db *DB, store storage.Provider, opts lint.Options, logger *slog.Logger) (*lint.Report, error) {
	report, err := lint.CheckCorpus(store, opts)
	if err != nil {
		return nil, err
	}
	if err := db.ReplaceIssues(report.Issues, report.GeneratedAt); err != nil {
		return nil, err
	}
	logger.Debug("lint: corpus checked",
		slog.Int("checked", report.Checked),
		slog.Int("errors", report.Errors),
		slog.Int("warnings", report.Warnings))
	return report, nil
}

// indexFile parses data and upserts it into the DB.
func indexFile(db *DB, path string, data []byte, modTime time.Time) error {
	doc, err := markdown.Parse(path, data)
	if err != nil {
		return err
	}
	if modTime.IsZero() {
		modTime = time.Now()
	}

	row := GuideRow{
		Path:       path,
		Title:      doc.Title,
		Checksum:   checksum.Sum(data),
		Tags:       doc.Tags(),
		Words:      doc.Words,
		Headings:   len(doc.Headings),
		CodeBlocks: len(doc.CodeBlocks),
		Tables:     doc.Tables,
		UpdatedAt:  modTime.UTC(),
	}
	return db.UpsertGuide(row, doc.Body, doc.Headings, doc.Links)
}
