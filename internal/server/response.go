package server

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Stage  string `json:"stage"`
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes an [ErrorResponse].
func WriteError(w http.ResponseWriter, status int, detail, stage string) {
	WriteJSON(w, status, ErrorResponse{Detail: detail, Stage: stage})
}
