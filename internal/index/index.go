package index

import (
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
)

// NoteIndex defines the interface for note indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type NoteIndex interface {
	UpsertNote(n NoteRow, links []parser.Link) error
	DeleteNote(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	LinkGraph() (models.LinkGraph, error)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
