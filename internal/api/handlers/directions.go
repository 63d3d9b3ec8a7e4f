package handlers

import (
	"net/http"
	"route-navigation-service/internal/api/dto"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/hud"
	"route-navigation-service/internal/ports"
	"route-navigation-service/internal/services"
	"strings"
	"time"
)

type DirectionsHandler struct {
	Registry *services.Registry
	// Geocoder is optional; without it requests must carry coordinates.
	Geocoder ports.Geocoder
	Now      func() time.Time
}

// Plan routes straight to a destination ("navigate to destination").
// The destination is either a coordinate or free text resolved by the geocoder.
func (h *DirectionsHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req dto.DirectionsRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	var to domain.Coordinate
	switch {
	case req.To != nil:
		if err := dto.Validate(req.To); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		to = req.To.Domain()
	case strings.TrimSpace(req.ToText) != "":
		if h.Geocoder == nil {
			writeError(w, r, http.StatusNotImplemented, "geocoding is not configured")
			return
		}
		c, err := h.Geocoder.Geocode(r.Context(), req.ToText)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		to = c
	default:
		writeError(w, r, http.StatusBadRequest, "to or to_text is required")
		return
	}

	opts := h.Registry.Settings().RouteOptions()
	if req.AllowHighways != nil {
		opts.AllowHighways = *req.AllowHighways
	}

	from := req.From.Domain()
	route, err := services.PlanDirect(r.Context(), h.Registry.Router(), from, to, opts)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.DirectionsResponse{
		Directions: route.Directions(),
		To:         dto.FromDomain(to),
		Bounds:     bounds(route.Polyline()),
	}

	tracker := services.NewProgressTracker(route, h.Registry.Settings().OffRouteThresholdM)
	switch {
	case req.Edit:
		s, err := h.Registry.CreateFromRoute(route.Directions(), &from)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		tracker = s.StartNavigation(route)
		res.SessionID = s.ID
	case req.SessionID != "":
		s, err := h.Registry.Get(req.SessionID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		tracker = s.StartNavigation(route)
		res.SessionID = s.ID
	}

	res.Progress = tracker.Initial()
	res.HUD = hud.Render(res.Progress, now(h.Now))
	writeJSON(w, r, http.StatusOK, res)
}

// Geocode resolves free text to a coordinate.
func (h *DirectionsHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, r, http.StatusBadRequest, "q is required")
		return
	}
	if h.Geocoder == nil {
		writeError(w, r, http.StatusNotImplemented, "geocoding is not configured")
		return
	}

	c, err := h.Geocoder.Geocode(r.Context(), q)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.GeocodeResponse{Query: q, Point: dto.FromDomain(c)})
}

func now(fn func() time.Time) time.Time {
	if fn == nil {
		return time.Now()
	}
	return fn()
}
