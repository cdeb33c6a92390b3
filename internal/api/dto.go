package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/panel"
)

// BacklinksView is the rendered backlinks panel (aliased from the panel layer).
type BacklinksView = panel.View

// NoteLocation is the navigation response (aliased from the domain layer).
type NoteLocation = noteservice.NoteLocation

// ToggleCheckboxRequest is the request body for setting a task checkbox.
type ToggleCheckboxRequest struct {
	Path    string `json:"path" example:"daily/2024-05-01.md" validate:"required"`
	Line    int    `json:"line" example:"12" validate:"required"`
	Checked bool   `json:"checked" example:"true"`
}

// Validate checks the request fields.
func (r ToggleCheckboxRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Line, validation.Required, validation.Min(1)),
	)
}

// ToggleCheckboxResponse reports whether the note was rewritten.
type ToggleCheckboxResponse struct {
	Changed bool `json:"changed" example:"true"`
}
