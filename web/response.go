package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	err := enc.Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	err := dec.Decode(v)
	if err != nil {
		return fmt.Errorf("failed to decode request body: %w", err)
	}

	return nil
}

// errorBodyWriter replaces the plain text body of a 404 or 405 written by
// http.ServeMux with an ErrorResponse.
type errorBodyWriter struct {
	http.ResponseWriter

	replaced bool
}

func (ew *errorBodyWriter) WriteHeader(status int) {
	if status != http.StatusNotFound && status != http.StatusMethodNotAllowed {
		ew.ResponseWriter.WriteHeader(status)

		return
	}

	ew.ResponseWriter.Header().Del("X-Content-Type-Options")
	writeError(ew.ResponseWriter, status, http.StatusText(status))

	ew.replaced = true
}

func (ew *errorBodyWriter) Write(p []byte) (int, error) {
	if ew.replaced {
		return len(p), nil
	}

	return ew.ResponseWriter.Write(p)
}
