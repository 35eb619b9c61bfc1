package server

import "net/http"

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string          `json:"status"`
	Version       string          `json:"version,omitempty"`
	Authenticated map[string]bool `json:"authenticated,omitempty"`
}

// HealthHandler reports liveness and, when a checker is set, which catalogs hold user credentials.
type HealthHandler struct {
	version string
	auth    func() map[string]bool
}

func NewHealthHandler(version string, auth func() map[string]bool) *HealthHandler {
	return &HealthHandler{version: version, auth: auth}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Version: h.version}
	if h.auth != nil {
		resp.Authenticated = h.auth()
	}
	WriteJSON(w, http.StatusOK, resp)
}
