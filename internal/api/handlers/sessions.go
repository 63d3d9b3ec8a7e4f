package handlers

import (
	"fmt"
	"net/http"
	"route-navigation-service/internal/adapters/export"
	"route-navigation-service/internal/api/dto"
	"route-navigation-service/internal/domain"
	"route-navigation-service/internal/geo"
	"route-navigation-service/internal/hud"
	"route-navigation-service/internal/path"
	"route-navigation-service/internal/ports"
	"route-navigation-service/internal/services"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb"
)

type SessionHandler struct {
	Registry *services.Registry
	Repo     ports.RouteRepository
	Now      func() time.Time
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	s, err := h.Registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	return s, true
}

func sessionResponse(s *services.Session, snap path.Snapshot) dto.SessionResponse {
	_, err := s.Tracker()
	return dto.SessionResponse{ID: s.ID, Path: snap, Navigating: err == nil}
}

// Create starts an edit session, optionally loaded from a saved route or a
// list of points. Loaded points are routed in the background.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSessionRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	var points []domain.Coordinate
	if req.RouteID != "" {
		if h.Repo == nil {
			writeError(w, r, http.StatusNotImplemented, "saved routes are not configured")
			return
		}
		saved, err := h.Repo.Get(r.Context(), req.RouteID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		points = saved.Points
	}
	for _, c := range req.Points {
		points = append(points, c.Domain())
	}

	s := h.Registry.Create()
	snap := s.Edit.Snapshot()
	if len(points) > 0 {
		var err error
		if snap, err = s.Edit.AppendPoints(points); err != nil {
			_ = h.Registry.Delete(s.ID)
			writeDomainError(w, r, err)
			return
		}
	}

	w.Header().Set("Location", "/sessions/"+s.ID)
	writeJSON(w, r, http.StatusCreated, sessionResponse(s, snap))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, sessionResponse(s, s.Edit.Snapshot()))
}

// Delete discards the session; results still in flight are dropped.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Registry.Delete(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.StopNavigation()
	writeJSON(w, r, http.StatusOK, sessionResponse(s, s.Edit.Reset()))
}

func (h *SessionHandler) AddWaypoint(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req dto.Coordinate
	if !decodeJSON(w, r, &req, false) {
		return
	}

	snap, err := s.Edit.HandleTapAdd(req.Domain())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessionResponse(s, snap))
}

func (h *SessionHandler) InsertWaypoint(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req dto.ScreenTapRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	tolerance := req.Tolerance
	if tolerance == 0 {
		tolerance = s.Edit.Settings().InsertTolerancePx
	}

	snap, inserted, err := s.Edit.TryInsertOnPath(orb.Point{req.X, req.Y}, tolerance, viewport(req.Viewport))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.InsertResponse{Inserted: inserted, Path: snap})
}

// HitTest finds the waypoint under a tap, used to pick a drag target.
func (h *SessionHandler) HitTest(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req dto.ScreenTapRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	radius := req.Radius
	if radius == 0 {
		radius = s.Edit.Settings().WaypointHitRadiusPx
	}

	i, found := s.Edit.HitTestWaypoint(orb.Point{req.X, req.Y}, radius, viewport(req.Viewport))
	writeJSON(w, r, http.StatusOK, dto.HitTestResponse{Index: i, Found: found})
}

func (h *SessionHandler) MoveWaypoint(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	i, err := indexParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req dto.Coordinate
	if !decodeJSON(w, r, &req, false) {
		return
	}

	snap, err := s.Edit.MoveWaypoint(i, req.Domain())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessionResponse(s, snap))
}

func (h *SessionHandler) DeleteWaypoint(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	i, err := indexParam(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	snap, err := s.Edit.RemoveWaypoint(i)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessionResponse(s, snap))
}

// Navigate materializes the edited path and makes it the active route.
func (h *SessionHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req dto.NavigationRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	var live *domain.Coordinate
	if req.Live != nil {
		c := req.Live.Domain()
		live = &c
	}

	nav, err := s.Edit.MaterializeForNavigation(r.Context(), live)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	tracker := s.StartNavigation(nav.Route)
	initial := tracker.Initial()
	gaps := nav.Gaps
	if gaps == nil {
		gaps = []int{}
	}

	writeJSON(w, r, http.StatusOK, dto.NavigationResponse{
		DistanceMeters:  nav.DistanceMeters,
		DurationSeconds: nav.DurationSeconds,
		Leading:         nav.Leading,
		Gaps:            gaps,
		Polyline:        nav.Route.Polyline(),
		Bounds:          bounds(nav.Route.Polyline()),
		Progress:        initial,
		HUD:             hud.Render(initial, now(h.Now)),
	})
}

func (h *SessionHandler) StopNavigation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.StopNavigation()
	w.WriteHeader(http.StatusNoContent)
}

// Progress feeds one location sample to the active route.
func (h *SessionHandler) Progress(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req dto.Coordinate
	if !decodeJSON(w, r, &req, false) {
		return
	}

	tracker, err := s.Tracker()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	state := tracker.Update(req.Domain())
	writeJSON(w, r, http.StatusOK, dto.ProgressResponse{Progress: state, HUD: hud.Render(state, now(h.Now))})
}

// Bounds frames the active route, or the waypoints when not navigating.
func (h *SessionHandler) Bounds(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var coords []domain.Coordinate
	if tracker, err := s.Tracker(); err == nil {
		coords = tracker.Source().Polyline()
	} else {
		snap := s.Edit.Snapshot()
		coords = snap.Coordinates()
		for _, seg := range snap.Segments() {
			coords = append(coords, seg.Polyline...)
		}
	}

	b := bounds(coords)
	if b == nil {
		writeError(w, r, http.StatusNotFound, "session has no points")
		return
	}
	writeJSON(w, r, http.StatusOK, b)
}

func (h *SessionHandler) ExportGeoJSON(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/geo+json", export.GeoJSON)
}

func (h *SessionHandler) ExportKML(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/vnd.google-earth.kml+xml", export.KML)
}

func (h *SessionHandler) export(w http.ResponseWriter, r *http.Request, contentType string, render func(export.Route) ([]byte, error)) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	b, err := render(export.FromSnapshot("Session "+s.ID, s.Edit.Snapshot()))
	if err != nil {
		writeDomainError(w, r, fmt.Errorf("export session %s: %w", s.ID, err))
		return
	}
	writeRaw(w, contentType, b)
}

func writeRaw(w http.ResponseWriter, contentType string, b []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func viewport(v dto.Viewport) geo.Viewport {
	return geo.Viewport{Center: v.Center.Domain(), Zoom: v.Zoom, Width: v.Width, Height: v.Height}
}

func bounds(coords []domain.Coordinate) *dto.Bounds {
	b, ok := geo.FitBounds(coords)
	if !ok {
		return nil
	}
	return &dto.Bounds{
		SouthWest: dto.FromDomain(domain.CoordinateFromPoint(b.Min)),
		NorthEast: dto.FromDomain(domain.CoordinateFromPoint(b.Max)),
	}
}
