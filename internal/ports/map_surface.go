package ports

import "pharmacy-route-service/internal/domain"

// Layer names a group of features on a map surface.
type Layer string

const (
	LayerMarkers Layer = "markers"
	LayerPaths   Layer = "paths"
)

type IconKind string

const (
	IconOrigin  IconKind = "origin"
	IconPending IconKind = "pending"
	IconStop    IconKind = "stop"
	IconCourier IconKind = "courier"
)

// Icon describes how a marker is drawn. Size and Anchor are in pixels.
type Icon struct {
	Kind   IconKind `json:"kind"`
	Label  string   `json:"label,omitempty"`
	Color  string   `json:"color,omitempty"`
	Size   [2]int   `json:"size"`
	Anchor [2]int   `json:"anchor"`
}

type Marker struct {
	Position     domain.LatLng `json:"position"`
	Icon         Icon          `json:"icon"`
	Popup        string        `json:"popup,omitempty"`
	ZIndexOffset int           `json:"z_index_offset,omitempty"`
}

type Path struct {
	Points  []domain.LatLng `json:"points"`
	Color   string          `json:"color"`
	Weight  int             `json:"weight"`
	Opacity float64         `json:"opacity"`
}

// MapSurface is the display the renderer draws on. Implementations are
// owned by a single renderer and are not required to be safe for
// concurrent use.
type MapSurface interface {
	// Create the base surface centered on a point and attach empty layers.
	Create(center domain.LatLng, zoom int, layers ...Layer) error
	AddMarker(layer Layer, m Marker) error
	AddPath(layer Layer, p Path) error
	ClearLayer(layer Layer) error
	FitBounds(bounds domain.Bounds, padding int) error
	SetView(center domain.LatLng, zoom int) error
	// Release the surface; no calls are valid afterwards.
	Remove() error
}
