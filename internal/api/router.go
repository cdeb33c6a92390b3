package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// events, if non-nil, serves GET /events and POST /panel/trigger inside the
// auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, events *EventsHandler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Backlinks panel.
	r.Get("/backlinks/*", h.Backlinks)

	// Navigation.
	r.Get("/notes/*", h.OpenNote)

	// Checkbox write-back.
	r.Post("/checkbox", h.ToggleCheckbox)

	// Live panels (protected by same auth middleware).
	if events != nil {
		r.Get("/events", events.ServeHTTP)
		r.Post("/panel/trigger", events.Trigger)
	}

	return r
}
