// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/ansuz/internal/models"

// Provider is the interface for vault file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to vault root).
	List(dir string) ([]models.NoteMetadata, error)
	// Resolve returns the identity of the note at path, or apperr.ErrNotFound.
	Resolve(path string) (models.DocumentRef, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root).
	Write(path string, content []byte) error
}
