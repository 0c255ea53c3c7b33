package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"pharmacy-route-service/internal/adapters/mapsurface"
	"pharmacy-route-service/internal/api/dto"
	"pharmacy-route-service/internal/platform/obs"
	"pharmacy-route-service/internal/render"
)

// MapHandler redraws the shared map surface for a viewer and returns what
// the front end has to draw.
type MapHandler struct {
	Routes   *RouteHandler
	Renderer *render.Renderer
	Surface  *mapsurface.SnapshotSurface
}

func (h *MapHandler) Show(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	viewer, err := viewerFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	optimizePending := false
	if raw := r.URL.Query().Get("optimize_pending"); raw != "" {
		optimizePending, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "optimize_pending must be a boolean")
			return
		}
	}

	ctx := r.Context()
	reqID := obs.RequestID(ctx)

	plan, err := planFor(ctx, viewer, h.Routes.Deps)
	if err != nil {
		log.Printf("req_id=%s plan dashboard failed: %v", reqID, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	scene := render.Scene{Origin: plan.Pharmacy, Routes: plan.Routes, Pending: plan.Pending}
	if optimizePending && len(plan.Pending) > 0 {
		pending := h.Routes.Deps.Assembler.OptimizePending(ctx, plan.Pharmacy, plan.Pending)
		scene.Pending = pending.Orders
		if pending.EncodedPath != nil {
			scene.PendingPath = *pending.EncodedPath
		}
	}

	if h.Renderer.State() == render.Uninitialized {
		if err := h.Renderer.Mount(plan.Pharmacy); err != nil && !errors.Is(err, render.ErrAlreadyMounted) {
			log.Printf("req_id=%s mount map failed: %v", reqID, err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	// The snapshot is taken while the renderer still owns the surface so a
	// concurrent request cannot swap in its own scene.
	var snapshot mapsurface.Snapshot
	report, err := h.Renderer.UpdateWith(scene, func(render.Report) {
		snapshot = h.Surface.Snapshot()
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, render.ErrTornDown) {
			status = http.StatusServiceUnavailable
		}
		log.Printf("req_id=%s render map failed: %v", reqID, err)
		writeError(w, r, status, "map unavailable")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.MapResponse{Map: snapshot, Report: report})
}
