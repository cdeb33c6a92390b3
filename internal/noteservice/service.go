// Package noteservice ties storage, the link index and the backlink engine
// together for the transports.
package noteservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/backlink"
	"github.com/starford/ansuz/internal/checkbox"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/panel"
	"github.com/starford/ansuz/internal/storage"
)

// NoteLocation is the result of navigating to a line of a note.
type NoteLocation struct {
	Path      string `json:"path"`
	Basename  string `json:"basename"`
	Line      int    `json:"line"`
	LineCount int    `json:"line_count"`
	Content   string `json:"content"`
}

// Service coordinates storage, index and backlink operations.
type Service struct {
	store    storage.Provider
	db       index.NoteIndex
	agg      *backlink.Aggregator
	renderer *panel.Renderer
	onWrite  func(path string)
}

// NewService creates a new note service. opts configure the backlink aggregator.
func NewService(store storage.Provider, db index.NoteIndex, opts ...backlink.Option) *Service {
	return &Service{
		store:    store,
		db:       db,
		agg:      backlink.NewAggregator(store, opts...),
		renderer: panel.NewRenderer(),
	}
}

// OnNoteWritten registers fn to run with the clean path of every note the
// service rewrote and re-indexed. Call it before the service is shared.
func (s *Service) OnNoteWritten(fn func(path string)) {
	s.onWrite = fn
}

// Backlinks computes the backlinks of the note at path against the current
// link graph.
func (s *Service) Backlinks(ctx context.Context, path string) (models.DocumentRef, models.BacklinkResult, error) {
	target, err := s.store.Resolve(path)
	if err != nil {
		return models.DocumentRef{}, nil, err
	}
	graph, err := s.db.LinkGraph()
	if err != nil {
		return models.DocumentRef{}, nil, fmt.Errorf("noteservice: link graph: %w", err)
	}
	res, err := s.agg.Aggregate(ctx, target, graph)
	if err != nil {
		return models.DocumentRef{}, nil, err
	}
	return target, res, nil
}

// View computes the backlinks of path and renders them as a panel view.
func (s *Service) View(ctx context.Context, path string) (*panel.View, error) {
	target, res, err := s.Backlinks(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(target, res)
}

// OpenNote returns the note at path positioned at line. Lines outside the
// note are clamped to its first or last line.
func (s *Service) OpenNote(_ context.Context, path string, line int) (*NoteLocation, error) {
	ref, err := s.store.Resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(ref.Path)
	if err != nil {
		return nil, err
	}
	content := string(data)
	count := strings.Count(content, "\n") + 1
	line = max(1, min(line, count))
	return &NoteLocation{
		Path:      ref.Path,
		Basename:  ref.Basename,
		Line:      line,
		LineCount: count,
		Content:   content,
	}, nil
}

// ToggleCheckbox sets the task checkbox on line of the note at path to
// checked and re-indexes the note. It reports whether the note changed; a
// line without a checkbox or already in the requested state is a no-op.
func (s *Service) ToggleCheckbox(_ context.Context, path string, line int, checked bool) (bool, error) {
	if line < 1 {
		return false, apperr.ErrInvalidLine
	}
	ref, err := s.store.Resolve(path)
	if err != nil {
		return false, err
	}
	changed, err := checkbox.Apply(s.store, ref.Path, line, checked)
	if err != nil || !changed {
		return changed, err
	}
	data, err := s.store.Read(ref.Path)
	if err != nil {
		return true, err
	}
	if err := s.IndexFile(ref.Path, data); err != nil {
		return true, fmt.Errorf("noteservice: reindex %s: %w", ref.Path, err)
	}
	if s.onWrite != nil {
		s.onWrite(ref.Path)
	}
	return true, nil
}

// IndexFile parses data and upserts it into the index.
func (s *Service) IndexFile(path string, data []byte) error {
	return index.IndexFile(s.db, path, data)
}
