package index

import (
	"log/slog"
	"time"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// SyncStats summarises one Sync pass.
type SyncStats struct {
	Indexed int
	Removed int
	Failed  int
}

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
//
// Per-file failures are logged and counted; only listing errors abort.
func Sync(db NoteIndex, store storage.Provider, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats

	metas, err := store.List("")
	if err != nil {
		return stats, err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return stats, err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			stats.Failed++
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, m.Path, data); err != nil {
			stats.Failed++
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		stats.Indexed++
		logger.Debug("sync: indexed", slog.String("path", m.Path))
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteNote(p); err != nil {
			stats.Failed++
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
		logger.Debug("sync: removed stale", slog.String("path", p))
	}

	logger.Info("sync: complete",
		slog.Int("indexed", stats.Indexed),
		slog.Int("removed", stats.Removed),
		slog.Int("failed", stats.Failed))
	return stats, nil
}

// IndexFile parses data and upserts the note and its outgoing links.
func IndexFile(db NoteIndex, path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	return db.UpsertNote(NoteRow{
		Path:      path,
		Checksum:  checksum.Sum(data),
		Aliases:   res.Aliases,
		UpdatedAt: time.Now(),
	}, res.Links)
}
