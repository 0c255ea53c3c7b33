package domain

import (
	"fmt"
	"math"
)

// A single order's delivery address submitted to the optimizer.
type Stop struct {
	OrderID string `json:"order_id"`
	Address string `json:"address"`
}

// StopSet is the unordered set of stops for one optimization request.
type StopSet []Stop

// Position of one order in an optimized route. StopNumber starts at 1.
type RouteStop struct {
	OrderID    string `json:"order_id"`
	StopNumber int    `json:"stop_number"`
}

// Represents the result of one optimization call.
// Stops is a permutation of the submitted stop set numbered 1..N.
// Distance and duration stay numeric; display strings are derived on demand.
type OptimizedRoute struct {
	Stops           []RouteStop
	DistanceMeters  int
	DurationSeconds int
	EncodedPath     string
}

// EmptyOptimizedRoute is the result for an empty stop set.
func EmptyOptimizedRoute() *OptimizedRoute {
	return &OptimizedRoute{Stops: []RouteStop{}}
}

// EstimatedDistance renders the total distance in kilometers with one decimal.
func (r *OptimizedRoute) EstimatedDistance() string {
	if len(r.Stops) == 0 {
		return "0 km"
	}
	return fmt.Sprintf("%.1f km", float64(r.DistanceMeters)/1000)
}

// EstimatedTime renders the total duration in whole minutes.
func (r *OptimizedRoute) EstimatedTime() string {
	if len(r.Stops) == 0 {
		return "0 minutes"
	}
	return fmt.Sprintf("%d minutes", int(math.Round(float64(r.DurationSeconds)/60)))
}

func (r *OptimizedRoute) Summary() *RouteSummary {
	return &RouteSummary{
		DistanceMeters:    r.DistanceMeters,
		DurationSeconds:   r.DurationSeconds,
		EstimatedDistance: r.EstimatedDistance(),
		EstimatedTime:     r.EstimatedTime(),
	}
}

type RouteSummary struct {
	DistanceMeters    int    `json:"distance_meters"`
	DurationSeconds   int    `json:"duration_seconds"`
	EstimatedDistance string `json:"estimated_distance"`
	EstimatedTime     string `json:"estimated_time"`
}

// RouteInfo is the render-ready route of one courier.
// EncodedPath is nil exactly when optimization failed and Orders kept
// their fallback (creation time) order.
type RouteInfo struct {
	Courier     Courier       `json:"courier"`
	Orders      []Order       `json:"orders"`
	Color       string        `json:"color"`
	Origin      Location      `json:"origin"`
	EncodedPath *string       `json:"encoded_path"`
	Summary     *RouteSummary `json:"summary,omitempty"`
}

func (r RouteInfo) Optimized() bool { return r.EncodedPath != nil }
