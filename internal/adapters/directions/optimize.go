package directions

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/platform/obs"
)

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		WaypointOrder []int `json:"waypoint_order"`
		Legs          []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
	} `json:"routes"`
}

// Optimize asks the Directions API for the best visiting order of stops
// starting at origin.
//
// The last stop of the unoptimized input is sent as the nominal
// destination and every stop, that one included, is sent as a waypoint
// with optimize:true, so the returned waypoint order is a permutation of
// all input indices.
func (c *GoogleClient) Optimize(
	ctx context.Context,
	origin string,
	stops domain.StopSet,
) (_ *domain.OptimizedRoute, err error) {
	if len(stops) == 0 {
		return domain.EmptyOptimizedRoute(), nil
	}

	if err := c.configured(); err != nil {
		return nil, err
	}

	defer obs.Time(ctx, "directions.Optimize")(&err)

	normOrigin := normalize(origin)
	if normOrigin == "" {
		return nil, &domain.OptimizationError{Status: "INVALID_REQUEST", Message: "origin must be non-empty"}
	}

	waypoints := make([]string, 0, len(stops))
	for _, s := range stops {
		addr := normalize(s.Address)
		if addr == "" {
			return nil, &domain.OptimizationError{
				Status:  "INVALID_REQUEST",
				Message: fmt.Sprintf("order %s has an empty address", s.OrderID),
			}
		}
		waypoints = append(waypoints, addr)
	}
	destination := waypoints[len(waypoints)-1]

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("origin", normOrigin)
	params.Set("destination", destination)
	params.Set("waypoints", "optimize:true|"+strings.Join(waypoints, "|"))
	params.Set("mode", c.mode)

	var decoded directionsResponse
	if err := c.getJSON(ctx, "/maps/api/directions/json", params, &decoded); err != nil {
		return nil, err
	}

	if decoded.Status != "OK" {
		return nil, &domain.OptimizationError{Status: decoded.Status, Message: decoded.ErrorMessage}
	}

	if len(decoded.Routes) == 0 {
		return nil, &domain.OptimizationError{Status: "ZERO_RESULTS", Message: "directions response has no routes"}
	}

	route := decoded.Routes[0]
	meters := make([]float64, 0, len(route.Legs))
	seconds := make([]float64, 0, len(route.Legs))
	for _, leg := range route.Legs {
		meters = append(meters, leg.Distance.Value)
		seconds = append(seconds, leg.Duration.Value)
	}

	return buildOptimizedRoute(stops, route.WaypointOrder, meters, seconds, route.OverviewPolyline.Points)
}

// buildOptimizedRoute maps a waypoint permutation back to order ids and
// sums every leg of the route.
func buildOptimizedRoute(
	stops domain.StopSet,
	waypointOrder []int,
	legMeters []float64,
	legSeconds []float64,
	encodedPath string,
) (*domain.OptimizedRoute, error) {
	if err := validatePermutation(waypointOrder, len(stops)); err != nil {
		return nil, &domain.OptimizationError{Status: "INVALID_RESPONSE", Message: err.Error()}
	}

	out := &domain.OptimizedRoute{
		Stops:       make([]domain.RouteStop, 0, len(stops)),
		EncodedPath: encodedPath,
	}
	for i, idx := range waypointOrder {
		out.Stops = append(out.Stops, domain.RouteStop{
			OrderID:    stops[idx].OrderID,
			StopNumber: i + 1,
		})
	}

	var totalMeters, totalSeconds float64
	for _, m := range legMeters {
		totalMeters += m
	}
	for _, s := range legSeconds {
		totalSeconds += s
	}
	out.DistanceMeters = int(math.Round(totalMeters))
	out.DurationSeconds = int(math.Round(totalSeconds))

	return out, nil
}

// validatePermutation checks that order lists every index in [0, n) exactly once.
func validatePermutation(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("waypoint order has %d entries, want %d", len(order), n)
	}

	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n {
			return fmt.Errorf("waypoint index %d out of range [0,%d)", idx, n)
		}
		if seen[idx] {
			return fmt.Errorf("waypoint index %d repeated", idx)
		}
		seen[idx] = true
	}
	return nil
}
