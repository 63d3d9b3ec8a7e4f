package handlers

import (
	"fmt"
	"net/http"
	"route-navigation-service/internal/adapters/export"
	"route-navigation-service/internal/api/dto"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/ports"
	"route-navigation-service/internal/services"

	"github.com/go-chi/chi/v5"
)

type RouteHandler struct {
	Repo     ports.RouteRepository
	Registry *services.Registry
}

func routeResponse(r domain.SavedRoute) dto.RouteResponse {
	points := make([]dto.Coordinate, 0, len(r.Points))
	for _, c := range r.Points {
		points = append(points, dto.FromDomain(c))
	}
	return dto.RouteResponse{ID: r.ID, Name: r.Name, Points: points, CreatedAt: r.CreatedAt}
}

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	routes, err := h.Repo.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.ListRouteResponse{Routes: make([]dto.RouteResponse, 0, len(routes))}
	for _, rt := range routes {
		res.Routes = append(res.Routes, routeResponse(rt))
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Create saves explicit points, or the waypoints of a session when
// session_id is given.
func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.SaveRouteRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	var points []domain.Coordinate
	switch {
	case req.SessionID != "":
		if h.Registry == nil {
			writeDomainError(w, r, domain.ErrSessionNotFound)
			return
		}
		s, err := h.Registry.Get(req.SessionID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		points = s.Edit.Snapshot().Coordinates()
	default:
		for _, c := range req.Points {
			points = append(points, c.Domain())
		}
	}
	if len(points) == 0 {
		writeError(w, r, http.StatusBadRequest, "points or a non-empty session_id is required")
		return
	}

	saved, err := h.Repo.Save(r.Context(), domain.SavedRoute{Name: req.Name, Points: points})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/routes/"+saved.ID)
	writeJSON(w, r, http.StatusCreated, routeResponse(saved))
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	saved, err := h.Repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, routeResponse(saved))
}

func (h *RouteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RouteHandler) ExportGeoJSON(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/geo+json", export.GeoJSON)
}

func (h *RouteHandler) ExportKML(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/vnd.google-earth.kml+xml", export.KML)
}

func (h *RouteHandler) export(w http.ResponseWriter, r *http.Request, contentType string, render func(export.Route) ([]byte, error)) {
	saved, err := h.Repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	b, err := render(export.FromSavedRoute(saved))
	if err != nil {
		writeDomainError(w, r, fmt.Errorf("export route %s: %w", saved.ID, err))
		return
	}
	writeRaw(w, contentType, b)
}
