package mapsurface

import (
	"errors"
	"fmt"
	"sync"

	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/ports"
)

var (
	ErrNotCreated = errors.New("map surface: not created")
	ErrRemoved    = errors.New("map surface: removed")
)

// View is the viewport the front end should apply. Either Bounds (with
// Padding) or Center and Zoom are set.
type View struct {
	Center  *domain.LatLng `json:"center,omitempty"`
	Zoom    int            `json:"zoom,omitempty"`
	Bounds  *domain.Bounds `json:"bounds,omitempty"`
	Padding int            `json:"padding,omitempty"`
}

// Snapshot is the serializable state of a surface.
type Snapshot struct {
	View    View           `json:"view"`
	Markers []ports.Marker `json:"markers"`
	Paths   []ports.Path   `json:"paths"`
}

type layer struct {
	markers []ports.Marker
	paths   []ports.Path
}

// SnapshotSurface keeps the map layers in memory so a web client can draw
// them with its own tile library. Snapshot may be called concurrently with
// the renderer's mutations.
type SnapshotSurface struct {
	mu      sync.RWMutex
	created bool
	removed bool
	order   []ports.Layer
	layers  map[ports.Layer]*layer
	view    View
}

var _ ports.MapSurface = (*SnapshotSurface)(nil)

func New() *SnapshotSurface {
	return &SnapshotSurface{layers: make(map[ports.Layer]*layer)}
}

func (s *SnapshotSurface) Create(center domain.LatLng, zoom int, layers ...ports.Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removed {
		return ErrRemoved
	}
	if s.created {
		return errors.New("map surface: already created")
	}

	for _, name := range layers {
		if _, ok := s.layers[name]; ok {
			return fmt.Errorf("map surface: duplicate layer %q", name)
		}
		s.layers[name] = &layer{}
		s.order = append(s.order, name)
	}

	c := center
	s.view = View{Center: &c, Zoom: zoom}
	s.created = true
	return nil
}

func (s *SnapshotSurface) AddMarker(name ports.Layer, m ports.Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.layer(name)
	if err != nil {
		return err
	}
	l.markers = append(l.markers, m)
	return nil
}

func (s *SnapshotSurface) AddPath(name ports.Layer, p ports.Path) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.layer(name)
	if err != nil {
		return err
	}
	p.Points = append([]domain.LatLng(nil), p.Points...)
	l.paths = append(l.paths, p)
	return nil
}

func (s *SnapshotSurface) ClearLayer(name ports.Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.layer(name)
	if err != nil {
		return err
	}
	l.markers, l.paths = nil, nil
	return nil
}

func (s *SnapshotSurface) FitBounds(bounds domain.Bounds, padding int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	if bounds.Empty() {
		return errors.New("map surface: fit to empty bounds")
	}
	b := bounds
	s.view = View{Bounds: &b, Padding: padding}
	return nil
}

func (s *SnapshotSurface) SetView(center domain.LatLng, zoom int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	c := center
	s.view = View{Center: &c, Zoom: zoom}
	return nil
}

func (s *SnapshotSurface) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removed {
		return ErrRemoved
	}
	s.removed = true
	s.layers = make(map[ports.Layer]*layer)
	s.order = nil
	s.view = View{}
	return nil
}

// Snapshot copies the current layers in creation order.
func (s *SnapshotSurface) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := Snapshot{View: s.view, Markers: []ports.Marker{}, Paths: []ports.Path{}}
	for _, name := range s.order {
		l := s.layers[name]
		out.Markers = append(out.Markers, l.markers...)
		out.Paths = append(out.Paths, l.paths...)
	}
	return out
}

// Active reports whether the surface was created and not yet removed.
func (s *SnapshotSurface) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.created && !s.removed
}

func (s *SnapshotSurface) usable() error {
	if s.removed {
		return ErrRemoved
	}
	if !s.created {
		return ErrNotCreated
	}
	return nil
}

func (s *SnapshotSurface) layer(name ports.Layer) (*layer, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	l, ok := s.layers[name]
	if !ok {
		return nil, fmt.Errorf("map surface: unknown layer %q", name)
	}
	return l, nil
}
