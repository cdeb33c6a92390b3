// Package models defines the domain types for Ansuz.
package models

import (
	"path"
	"strings"
	"time"
)

// DocumentRef identifies a note in the vault.
type DocumentRef struct {
	Path     string `json:"path"`
	Basename string `json:"basename"`
}

// NewDocumentRef derives a DocumentRef from a vault-relative path.
func NewDocumentRef(p string) DocumentRef {
	p = strings.ReplaceAll(p, "\\", "/")
	base := path.Base(p)
	return DocumentRef{
		Path:     p,
		Basename: strings.TrimSuffix(base, path.Ext(base)),
	}
}

// PathNoExt returns Path with a trailing .md extension removed.
func (d DocumentRef) PathNoExt() string {
	ext := path.Ext(d.Path)
	if strings.EqualFold(ext, ".md") {
		return d.Path[:len(d.Path)-len(ext)]
	}
	return d.Path
}

// LinkGraph maps a source path to the set of target paths it links to.
type LinkGraph map[string]map[string]struct{}

// MatchingLine is one line of a source note that references the target.
type MatchingLine struct {
	LineNumber int    `json:"line"`
	Content    string `json:"content"`
}

// BacklinkEntry groups the matching lines of a single source note.
type BacklinkEntry struct {
	SourcePath     string         `json:"source_path"`
	SourceBasename string         `json:"source_basename"`
	MatchingLines  []MatchingLine `json:"matching_lines"`
}

// BacklinkResult is the ordered list of backlinks for one target.
type BacklinkResult []BacklinkEntry

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
