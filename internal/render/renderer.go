package render

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/polyline"
	"pharmacy-route-service/internal/ports"
)

const (
	defaultZoom    = 13
	singlePinZoom  = 15
	fitPadding     = 50
	courierZOffset = 1000
	pathWeight     = 5
	pathOpacity    = 0.7
)

type State int

const (
	Uninitialized State = iota
	Mounted
	Updated
	TornDown
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Mounted:
		return "mounted"
	case Updated:
		return "updated"
	case TornDown:
		return "torn_down"
	}
	return "unknown"
}

var (
	ErrNotMounted     = errors.New("render: surface not mounted")
	ErrAlreadyMounted = errors.New("render: surface already mounted")
	ErrTornDown       = errors.New("render: renderer torn down")
)

// Scene is the input of one redraw.
type Scene struct {
	Origin  domain.Location
	Routes  []domain.RouteInfo
	Pending []domain.Order
	// Optional optimized path through the pending orders.
	PendingPath string
}

type Viewport string

const (
	ViewportFit    Viewport = "fit"
	ViewportSingle Viewport = "single"
	ViewportOrigin Viewport = "origin"
)

// Report summarizes what one redraw placed on the surface.
type Report struct {
	Markers  map[ports.IconKind]int            `json:"markers"`
	Paths    int                               `json:"paths"`
	Viewport Viewport                          `json:"viewport"`
	Points   int                               `json:"points"`
	Warning  *domain.MissingCoordinatesWarning `json:"warning,omitempty"`
}

// OrderMarkers counts the markers that stand for orders.
func (r Report) OrderMarkers() int {
	return r.Markers[ports.IconPending] + r.Markers[ports.IconStop]
}

// Renderer owns one map surface and redraws it from scratch on every
// update. Calls are serialized.
type Renderer struct {
	mu      sync.Mutex
	surface ports.MapSurface
	state   State
	origin  domain.Location
}

func New(surface ports.MapSurface) *Renderer {
	return &Renderer{surface: surface}
}

func (r *Renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Mount creates the surface centered on origin with empty marker and path layers.
func (r *Renderer) Mount(origin domain.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case TornDown:
		return ErrTornDown
	case Mounted, Updated:
		return ErrAlreadyMounted
	}

	if err := r.surface.Create(origin.LatLng, defaultZoom, ports.LayerPaths, ports.LayerMarkers); err != nil {
		return fmt.Errorf("render: mount: %w", err)
	}

	r.origin = origin
	r.state = Mounted
	return nil
}

// Update clears both layers and draws the scene.
func (r *Renderer) Update(scene Scene) (Report, error) {
	return r.UpdateWith(scene, nil)
}

// UpdateWith draws the scene like Update and then calls read before
// releasing the surface, so read observes exactly this scene and never a
// concurrent redraw.
func (r *Renderer) UpdateWith(scene Scene, read func(Report)) (Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case Uninitialized:
		return Report{}, ErrNotMounted
	case TornDown:
		return Report{}, ErrTornDown
	}

	// A scene without an origin keeps the mounted one.
	if scene.Origin == (domain.Location{}) {
		scene.Origin = r.origin
	}

	d := &drawing{surface: r.surface, report: Report{Markers: map[ports.IconKind]int{}}}
	if err := d.draw(scene); err != nil {
		return Report{}, fmt.Errorf("render: update: %w", err)
	}

	if d.report.Warning != nil {
		log.Printf("render: %v (orders=%v)", d.report.Warning, d.report.Warning.OrderIDs)
	}

	r.origin = scene.Origin
	r.state = Updated

	if read != nil {
		read(d.report)
	}
	return d.report, nil
}

// Teardown releases the surface. The renderer cannot be used afterwards.
func (r *Renderer) Teardown() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case TornDown:
		return ErrTornDown
	case Uninitialized:
		r.state = TornDown
		return nil
	}

	r.state = TornDown
	if err := r.surface.Remove(); err != nil {
		return fmt.Errorf("render: teardown: %w", err)
	}
	return nil
}

// drawing holds the state of a single redraw.
type drawing struct {
	surface ports.MapSurface
	bounds  domain.Bounds
	missing []string
	report  Report
}

func (d *drawing) draw(scene Scene) error {
	if err := d.surface.ClearLayer(ports.LayerMarkers); err != nil {
		return err
	}
	if err := d.surface.ClearLayer(ports.LayerPaths); err != nil {
		return err
	}

	origin := scene.Origin
	if err := d.marker(origin.LatLng, OriginIcon(), "Pharmacy (start)\n"+origin.Address, 0); err != nil {
		return err
	}

	if err := d.pending(scene); err != nil {
		return err
	}

	for _, route := range scene.Routes {
		if err := d.route(route); err != nil {
			return err
		}
	}

	if len(d.missing) > 0 {
		d.report.Warning = &domain.MissingCoordinatesWarning{Count: len(d.missing), OrderIDs: d.missing}
	}

	return d.viewport(origin.LatLng)
}

func (d *drawing) pending(scene Scene) error {
	if scene.PendingPath == "" {
		for _, o := range scene.Pending {
			popup := fmt.Sprintf("Pending order\nClient: %s\nAddress: %s", o.Client.FullName, o.DeliveryLocation.Address)
			if err := d.order(o, PendingIcon(), popup); err != nil {
				return err
			}
		}
		return nil
	}

	if err := d.path(scene.PendingPath, PrimaryColor, "pending"); err != nil {
		return err
	}

	for i, o := range scene.Pending {
		popup := fmt.Sprintf("Optimized route\n#%d - Order for %s\n%s", i+1, o.Client.FullName, o.DeliveryLocation.Address)
		if err := d.order(o, StopIcon(i+1, PrimaryColor), popup); err != nil {
			return err
		}
	}
	return nil
}

func (d *drawing) route(route domain.RouteInfo) error {
	if route.EncodedPath != nil && *route.EncodedPath != "" {
		if err := d.path(*route.EncodedPath, route.Color, route.Courier.ID); err != nil {
			return err
		}
	}

	popup := route.Courier.Name + "\nOn route from the pharmacy"
	if err := d.marker(route.Origin.LatLng, CourierIcon(route.Color), popup, courierZOffset); err != nil {
		return err
	}

	for i, o := range route.Orders {
		popup := fmt.Sprintf("Route: %s\n#%d - Order for %s\n%s", route.Courier.Name, i+1, o.Client.FullName, o.DeliveryLocation.Address)
		if err := d.order(o, StopIcon(i+1, route.Color), popup); err != nil {
			return err
		}
	}
	return nil
}

// path decodes and draws an encoded path. A malformed path is skipped.
func (d *drawing) path(encoded, color, owner string) error {
	points, err := polyline.Decode(encoded)
	if err != nil {
		log.Printf("render: skip path for %s: %v", owner, err)
		return nil
	}
	if len(points) == 0 {
		return nil
	}

	if err := d.surface.AddPath(ports.LayerPaths, ports.Path{
		Points:  points,
		Color:   color,
		Weight:  pathWeight,
		Opacity: pathOpacity,
	}); err != nil {
		return err
	}
	d.report.Paths++
	return nil
}

func (d *drawing) order(o domain.Order, icon ports.Icon, popup string) error {
	p, ok := o.DeliveryLocation.Point()
	if !ok {
		d.missing = append(d.missing, o.ID)
		return nil
	}
	return d.marker(p, icon, popup, 0)
}

func (d *drawing) marker(p domain.LatLng, icon ports.Icon, popup string, zOffset int) error {
	if err := d.surface.AddMarker(ports.LayerMarkers, ports.Marker{
		Position:     p,
		Icon:         icon,
		Popup:        popup,
		ZIndexOffset: zOffset,
	}); err != nil {
		return err
	}
	d.bounds.Extend(p)
	d.report.Markers[icon.Kind]++
	return nil
}

func (d *drawing) viewport(origin domain.LatLng) error {
	d.report.Points = d.bounds.Len()

	switch {
	case d.bounds.Len() > 1:
		d.report.Viewport = ViewportFit
		return d.surface.FitBounds(d.bounds, fitPadding)
	case d.bounds.Len() == 1:
		d.report.Viewport = ViewportSingle
		return d.surface.SetView(d.bounds.SouthWest, singlePinZoom)
	default:
		d.report.Viewport = ViewportOrigin
		return d.surface.SetView(origin, defaultZoom)
	}
}
