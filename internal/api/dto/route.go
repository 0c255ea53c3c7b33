package dto

import (
	"time"

	"pharmacy-route-service/internal/domain"
)

type LocationResponse struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type OrderResponse struct {
	ID            string             `json:"id"`
	ClientName    string             `json:"client_name"`
	Address       string             `json:"address"`
	Lat           *float64           `json:"lat"`
	Lng           *float64           `json:"lng"`
	Status        domain.OrderStatus `json:"status"`
	Total         float64            `json:"total"`
	PaymentMethod string             `json:"payment_method"`
	CreatedAt     time.Time          `json:"created_at"`
}

type RouteResponse struct {
	CourierID   string               `json:"courier_id"`
	CourierName string               `json:"courier_name"`
	Color       string               `json:"color"`
	Origin      LocationResponse     `json:"origin"`
	Optimized   bool                 `json:"optimized"`
	EncodedPath *string              `json:"encoded_path"`
	Summary     *domain.RouteSummary `json:"summary,omitempty"`
	Orders      []OrderResponse      `json:"orders"`
}

type RoutesResponse struct {
	Pharmacy LocationResponse `json:"pharmacy"`
	Routes   []RouteResponse  `json:"routes"`
	Pending  []OrderResponse  `json:"pending"`
}

type OptimizePendingRequest struct {
	OrderIDs []string `json:"order_ids"`
}

type PendingRouteResponse struct {
	Pharmacy    LocationResponse     `json:"pharmacy"`
	Optimized   bool                 `json:"optimized"`
	EncodedPath *string              `json:"encoded_path"`
	Summary     *domain.RouteSummary `json:"summary,omitempty"`
	Orders      []OrderResponse      `json:"orders"`
}

func Location(l domain.Location) LocationResponse {
	return LocationResponse{Address: l.Address, Lat: l.Lat, Lng: l.Lng}
}

func Orders(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderResponse{
			ID:            o.ID,
			ClientName:    o.Client.FullName,
			Address:       o.DeliveryLocation.Address,
			Lat:           o.DeliveryLocation.Lat,
			Lng:           o.DeliveryLocation.Lng,
			Status:        o.Status,
			Total:         o.Total,
			PaymentMethod: o.PaymentMethod,
			CreatedAt:     o.CreatedAt,
		})
	}
	return out
}

func Routes(routes []domain.RouteInfo) []RouteResponse {
	out := make([]RouteResponse, 0, len(routes))
	for _, r := range routes {
		out = append(out, RouteResponse{
			CourierID:   r.Courier.ID,
			CourierName: r.Courier.Name,
			Color:       r.Color,
			Origin:      Location(r.Origin),
			Optimized:   r.Optimized(),
			EncodedPath: r.EncodedPath,
			Summary:     r.Summary,
			Orders:      Orders(r.Orders),
		})
	}
	return out
}
