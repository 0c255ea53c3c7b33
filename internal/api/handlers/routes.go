package handlers

import (
	"context"
	"log"
	"net/http"

	"pharmacy-route-service/internal/api/dto"
	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/platform/obs"
	"pharmacy-route-service/internal/services"
)

// RouteHandler exposes the assembled courier routes and pending orders.
type RouteHandler struct {
	Deps services.DashboardDeps
}

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	viewer, err := viewerFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := planFor(r.Context(), viewer, h.Deps)
	if err != nil {
		log.Printf("req_id=%s plan dashboard failed: %v", obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RoutesResponse{
		Pharmacy: dto.Location(plan.Pharmacy),
		Routes:   dto.Routes(plan.Routes),
		Pending:  dto.Orders(plan.Pending),
	})
}

// OptimizePending plans the pending orders as one prospective route.
func (h *RouteHandler) OptimizePending(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.OptimizePendingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	pharmacy, plan, err := services.PlanPending(r.Context(), h.Deps, req.OrderIDs)
	if err != nil {
		log.Printf("req_id=%s plan pending failed: %v", obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.PendingRouteResponse{
		Pharmacy:    dto.Location(pharmacy),
		Optimized:   plan.EncodedPath != nil,
		EncodedPath: plan.EncodedPath,
		Summary:     plan.Summary,
		Orders:      dto.Orders(plan.Orders),
	})
}

// planFor resolves the courier's display name before planning.
func planFor(ctx context.Context, viewer domain.Viewer, deps services.DashboardDeps) (*services.DashboardPlan, error) {
	if viewer.IsCourier() && deps.Couriers != nil {
		couriers, err := deps.Couriers.ListCouriers(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range couriers {
			if c.ID == viewer.ID {
				viewer.Name = c.Name
				break
			}
		}
	}
	return services.PlanDashboard(ctx, viewer, deps)
}
