package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the wildcard URL segment.
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Backlinks handles GET /api/backlinks/*.
//
//	@Summary		Get the backlinks panel of a note
//	@Tags			backlinks
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	BacklinksView
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backlinks/{path} [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	view, err := h.svc.View(r.Context(), path)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrInvalidPath):
			writeJSON(w, http.StatusBadRequest, errorBody("invalid path"))
		default:
			slog.Error("backlinks failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// OpenNote handles GET /api/notes/*.
//
//	@Summary		Open a note at a line
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Param			line	query		int		false	"1-based line, clamped to the note"
//	@Success		200		{object}	NoteLocation
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) OpenNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	line := 1
	if raw := r.URL.Query().Get("line"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("line must be an integer"))
			return
		}
		line = n
	}
	loc, err := h.svc.OpenNote(r.Context(), path, line)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrInvalidPath):
			writeJSON(w, http.StatusBadRequest, errorBody("invalid path"))
		default:
			slog.Error("open note failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

// ToggleCheckbox handles POST /api/checkbox.
//
//	@Summary		Set the state of a task checkbox
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ToggleCheckboxRequest	true	"Checkbox location and state"
//	@Success		200		{object}	ToggleCheckboxResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/checkbox [post]
func (h *Handler) ToggleCheckbox(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ToggleCheckboxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, validationBody(err))
		return
	}
	changed, err := h.svc.ToggleCheckbox(r.Context(), req.Path, req.Line, req.Checked)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrInvalidLine):
			writeJSON(w, http.StatusBadRequest, errorBody("invalid line"))
		case errors.Is(err, apperr.ErrInvalidPath):
			writeJSON(w, http.StatusBadRequest, errorBody("invalid path"))
		default:
			slog.Error("toggle checkbox failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, ToggleCheckboxResponse{Changed: changed})
}
