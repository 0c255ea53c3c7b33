package api

import (
	"net/http"

	"pharmacy-route-service/internal/adapters/mapsurface"
	"pharmacy-route-service/internal/api/handlers"
	"pharmacy-route-service/internal/render"
	"pharmacy-route-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps services.DashboardDeps, renderer *render.Renderer, surface *mapsurface.SnapshotSurface) http.Handler {
	mux := http.NewServeMux()

	routeHandler := &handlers.RouteHandler{Deps: deps}
	mapHandler := &handlers.MapHandler{
		Routes:   routeHandler,
		Renderer: renderer,
		Surface:  surface,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/routes", routeHandler.List)
	mux.HandleFunc("/routes/pending/optimize", routeHandler.OptimizePending)
	mux.HandleFunc("/map", mapHandler.Show)

	return requestIDMiddleware(loggingMiddleware(mux))
}
