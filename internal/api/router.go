package api

import (
	"net/http"
	"route-navigation-service/internal/api/handlers"
	"route-navigation-service/internal/ports"
	"route-navigation-service/internal/services"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Deps are the collaborators the HTTP layer needs. Repo and Geocoder may be
// nil; their endpoints then answer 501.
type Deps struct {
	Registry    *services.Registry
	Repo        ports.RouteRepository
	Geocoder    ports.Geocoder
	CORSOrigins []string
	Now         func() time.Time
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware)

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{requestIDHeader, "Location"},
	}))

	health := &handlers.HealthHandler{Registry: d.Registry}
	sessions := &handlers.SessionHandler{Registry: d.Registry, Repo: d.Repo, Now: d.Now}
	directions := &handlers.DirectionsHandler{Registry: d.Registry, Geocoder: d.Geocoder, Now: d.Now}

	r.Get("/health", health.Health)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", sessions.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", sessions.Get)
			r.Delete("/", sessions.Delete)
			r.Post("/reset", sessions.Reset)

			r.Post("/waypoints", sessions.AddWaypoint)
			r.Post("/waypoints/insert", sessions.InsertWaypoint)
			r.Post("/waypoints/hit", sessions.HitTest)
			r.Put("/waypoints/{index}", sessions.MoveWaypoint)
			r.Delete("/waypoints/{index}", sessions.DeleteWaypoint)

			r.Post("/navigation", sessions.Navigate)
			r.Delete("/navigation", sessions.StopNavigation)
			r.Post("/progress", sessions.Progress)
			r.Get("/bounds", sessions.Bounds)

			r.Get("/export.geojson", sessions.ExportGeoJSON)
			r.Get("/export.kml", sessions.ExportKML)
		})
	})

	r.Post("/directions", directions.Plan)
	r.Get("/geocode", directions.Geocode)

	if d.Repo != nil {
		routes := &handlers.RouteHandler{Repo: d.Repo, Registry: d.Registry}
		r.Route("/routes", func(r chi.Router) {
			r.Get("/", routes.List)
			r.Post("/", routes.Create)
			r.Get("/{id}", routes.Get)
			r.Delete("/{id}", routes.Delete)
			r.Get("/{id}/export.geojson", routes.ExportGeoJSON)
			r.Get("/{id}/export.kml", routes.ExportKML)
		})
	} else {
		off := handlers.NotConfigured("saved routes")
		r.Handle("/routes", off)
		r.Handle("/routes/*", off)
	}

	return r
}
