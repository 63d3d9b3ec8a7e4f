package handlers

import (
	"net/http"
	"route-navigation-service/internal/services"
)

type HealthHandler struct {
	Registry *services.Registry
}

// Health provides a minimal liveness check endpoint.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	res := map[string]any{"status": "ok"}
	if h.Registry != nil {
		res["sessions"] = h.Registry.Len()
	}
	writeJSON(w, r, http.StatusOK, res)
}
