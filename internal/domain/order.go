package domain

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderAssigned  OrderStatus = "assigned"
	OrderInTransit OrderStatus = "in_transit"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderAssigned, OrderInTransit, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// OnRoute reports whether an order in this status belongs to a courier's route.
func (s OrderStatus) OnRoute() bool {
	return s == OrderAssigned || s == OrderInTransit
}

type Client struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
}

// Where an order has to be delivered. Coordinates are optional: orders
// created without a successful geocode carry only the address.
type DeliveryLocation struct {
	Address string   `json:"address"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// Point returns the delivery coordinates, or false when either one is missing.
func (l DeliveryLocation) Point() (LatLng, bool) {
	if l.Lat == nil || l.Lng == nil {
		return LatLng{}, false
	}
	return LatLng{Lat: *l.Lat, Lng: *l.Lng}, true
}

// Reference to the courier an order is assigned to.
type CourierRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Represents a single pharmacy order as seen by route planning.
// Orders are created and mutated elsewhere; planning only reads them.
type Order struct {
	ID               string           `json:"id"`
	Client           Client           `json:"client"`
	DeliveryLocation DeliveryLocation `json:"delivery_location"`
	Total            float64          `json:"total"`
	PaymentMethod    string           `json:"payment_method"`
	Status           OrderStatus      `json:"status"`
	AssignedTo       *CourierRef      `json:"assigned_to,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Validate checks that an assigned courier is present iff the order is on a route.
func (o Order) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("order: id must not be empty")
	}
	if !o.Status.Valid() {
		return fmt.Errorf("order %s: unknown status %q", o.ID, o.Status)
	}
	if o.Status.OnRoute() && o.AssignedTo == nil {
		return fmt.Errorf("order %s: status %s requires an assigned courier", o.ID, o.Status)
	}
	if !o.Status.OnRoute() && o.AssignedTo != nil {
		return fmt.Errorf("order %s: status %s must not have an assigned courier", o.ID, o.Status)
	}
	return nil
}

// Stop converts the order into the address pair submitted to the optimizer.
func (o Order) Stop() Stop {
	return Stop{OrderID: o.ID, Address: o.DeliveryLocation.Address}
}
