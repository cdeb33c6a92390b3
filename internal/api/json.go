package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error  string            `json:"error" validate:"required"`
	Fields map[string]string `json:"fields,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// validationBody reports per-field messages when err comes from ozzo-validation.
func validationBody(err error) errResponse {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return errorBody(err.Error())
	}
	fields := make(map[string]string, len(verrs))
	for name, ferr := range verrs {
		fields[name] = ferr.Error()
	}
	return errResponse{Error: "invalid request", Fields: fields}
}
