package api

import (
	"encoding/json"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/panel"
	"github.com/starford/ansuz/internal/sse"
)

// PanelControl registers open backlinks panels and schedules their re-render.
type PanelControl interface {
	Open(target string)
	Close(target string)
	Trigger(t panel.Trigger, target string)
}

// TriggerRequest asks for a re-render of a panel, or of every open panel
// when Path is empty.
type TriggerRequest struct {
	Event string `json:"event" example:"active-leaf-change" validate:"required"`
	Path  string `json:"path,omitempty" example:"notes/hello.md"`
}

// Validate checks the request fields.
func (r TriggerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Event, validation.Required, validation.In(
			string(panel.TriggerFileOpen),
			string(panel.TriggerActiveLeafChange),
			string(panel.TriggerLinksResolved),
			string(panel.TriggerLayoutChange),
		)),
	)
}

// EventsHandler serves the live panel endpoints.
type EventsHandler struct {
	broker *sse.Broker
	panels PanelControl
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(broker *sse.Broker, panels PanelControl) *EventsHandler {
	return &EventsHandler{broker: broker, panels: panels}
}

// ServeHTTP handles GET /api/events. With ?path=P the stream carries the
// panel of P: the view is opened once the client is subscribed and closed
// when it goes away. Without a path the client only receives note events.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		h.broker.Stream(w, r, "", nil)
		return
	}
	opened := false
	defer func() {
		if opened {
			h.panels.Close(path)
		}
	}()
	h.broker.Stream(w, r, path, func() {
		h.panels.Open(path)
		opened = true
	})
}

// Trigger handles POST /api/panel/trigger.
//
//	@Summary		Schedule a backlinks panel re-render
//	@Tags			panel
//	@Accept			json
//	@Param			body	body	TriggerRequest	true	"Trigger event"
//	@Success		202		"Re-render scheduled"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/panel/trigger [post]
func (h *EventsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, validationBody(err))
		return
	}
	h.panels.Trigger(panel.Trigger(req.Event), req.Path)
	w.WriteHeader(http.StatusAccepted)
}
