// Package panel turns backlink results into renderable views and decides when
// they are recomputed.
package panel

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/starford/ansuz/internal/checkbox"
	"github.com/starford/ansuz/internal/models"
)

// View is the full content of a backlinks panel for one target. Each render
// replaces the previous View for that target entirely.
type View struct {
	Target  models.DocumentRef `json:"target"`
	Count   int                `json:"count"`
	Entries []EntryView        `json:"entries"`
}

// EntryView is one linking note inside a View.
type EntryView struct {
	Path     string     `json:"path"`
	Basename string     `json:"basename"`
	Lines    []LineView `json:"lines"`
}

// LineView is one matching line. Checked is set only for task-list lines.
type LineView struct {
	Line    int    `json:"line"`
	Content string `json:"content"`
	HTML    string `json:"html"`
	Checked *bool  `json:"checked,omitempty"`
}

// Renderer converts backlink results into Views.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a Renderer that renders line content as GitHub-flavoured Markdown.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Render builds the View of res for target.
func (r *Renderer) Render(target models.DocumentRef, res models.BacklinkResult) (*View, error) {
	v := &View{
		Target:  target,
		Count:   len(res),
		Entries: make([]EntryView, 0, len(res)),
	}
	for _, e := range res {
		ev := EntryView{
			Path:     e.SourcePath,
			Basename: e.SourceBasename,
			Lines:    make([]LineView, 0, len(e.MatchingLines)),
		}
		for _, ml := range e.MatchingLines {
			var buf bytes.Buffer
			if err := r.md.Convert([]byte(ml.Content), &buf); err != nil {
				return nil, fmt.Errorf("panel: render %s:%d: %w", e.SourcePath, ml.LineNumber, err)
			}
			lv := LineView{
				Line:    ml.LineNumber,
				Content: ml.Content,
				HTML:    string(bytes.TrimSpace(buf.Bytes())),
			}
			if checked, ok := checkbox.State(ml.Content); ok {
				lv.Checked = &checked
			}
			ev.Lines = append(ev.Lines, lv)
		}
		v.Entries = append(v.Entries, ev)
	}
	return v, nil
}
