package render

import (
	"errors"
	"sync"
	"testing"
	"time"

	"pharmacy-route-service/internal/adapters/mapsurface"
	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/polyline"
	"pharmacy-route-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var origin = domain.Location{Address: "Av. Caracas # 45-10", LatLng: domain.LatLng{Lat: 4.63, Lng: -74.07}}

func located(id string, lat, lng float64) domain.Order {
	return domain.Order{
		ID:               id,
		Client:           domain.Client{ID: "cl-" + id, FullName: "Client " + id},
		DeliveryLocation: domain.DeliveryLocation{Address: "Address " + id, Lat: &lat, Lng: &lng},
		Status:           domain.OrderPending,
		CreatedAt:        time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
	}
}

func unlocated(id string) domain.Order {
	return domain.Order{ID: id, DeliveryLocation: domain.DeliveryLocation{Address: "Address " + id}, Status: domain.OrderPending}
}

func mounted(t *testing.T) (*Renderer, *mapsurface.SnapshotSurface) {
	t.Helper()
	surface := mapsurface.New()
	r := New(surface)
	require.NoError(t, r.Mount(origin))
	return r, surface
}

func TestRendererStateMachine(t *testing.T) {
	surface := mapsurface.New()
	r := New(surface)
	assert.Equal(t, Uninitialized, r.State())

	_, err := r.Update(Scene{Origin: origin})
	assert.ErrorIs(t, err, ErrNotMounted)

	require.NoError(t, r.Mount(origin))
	assert.Equal(t, Mounted, r.State())
	assert.ErrorIs(t, r.Mount(origin), ErrAlreadyMounted)

	snap := surface.Snapshot()
	require.NotNil(t, snap.View.Center)
	assert.Equal(t, origin.LatLng, *snap.View.Center)
	assert.Equal(t, 13, snap.View.Zoom)

	_, err = r.Update(Scene{Origin: origin})
	require.NoError(t, err)
	assert.Equal(t, Updated, r.State())

	require.NoError(t, r.Teardown())
	assert.Equal(t, TornDown, r.State())
	assert.False(t, surface.Active())

	_, err = r.Update(Scene{Origin: origin})
	assert.ErrorIs(t, err, ErrTornDown)
	assert.ErrorIs(t, r.Mount(origin), ErrTornDown)
	assert.ErrorIs(t, r.Teardown(), ErrTornDown)
}

func TestRenderPendingOnly(t *testing.T) {
	r, surface := mounted(t)

	report, err := r.Update(Scene{
		Origin: origin,
		Pending: []domain.Order{
			located("p1", 4.60, -74.08),
			located("p2", 4.65, -74.06),
			located("p3", 4.70, -74.05),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Markers[ports.IconOrigin])
	assert.Equal(t, 3, report.Markers[ports.IconPending])
	assert.Equal(t, 0, report.Paths)
	assert.Equal(t, ViewportFit, report.Viewport)
	assert.Equal(t, 4, report.Points)
	assert.Nil(t, report.Warning)

	snap := surface.Snapshot()
	require.Len(t, snap.Markers, 4)
	assert.Equal(t, NeutralColor, snap.Markers[1].Icon.Color)
	require.NotNil(t, snap.View.Bounds)
	assert.Equal(t, 50, snap.View.Padding)
	assert.Equal(t, domain.LatLng{Lat: 4.60, Lng: -74.08}, snap.View.Bounds.SouthWest)
	assert.Equal(t, domain.LatLng{Lat: 4.70, Lng: -74.05}, snap.View.Bounds.NorthEast)
}

func TestRenderRoutesWithOneFailure(t *testing.T) {
	r, surface := mounted(t)

	path := polyline.Encode([]domain.LatLng{origin.LatLng, {Lat: 4.61, Lng: -74.09}, {Lat: 4.62, Lng: -74.1}})
	routes := []domain.RouteInfo{
		{
			Courier:     domain.Courier{ID: "c1", Name: "Ana"},
			Orders:      []domain.Order{located("a2", 4.62, -74.1), located("a1", 4.61, -74.09)},
			Color:       "#2563eb",
			Origin:      origin,
			EncodedPath: &path,
		},
		{
			Courier: domain.Courier{ID: "c2", Name: "Luis"},
			Orders:  []domain.Order{located("b1", 4.66, -74.05), located("b2", 4.67, -74.04)},
			Color:   "#16a34a",
			Origin:  origin,
		},
	}

	report, err := r.Update(Scene{Origin: origin, Routes: routes})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Paths)
	assert.Equal(t, 2, report.Markers[ports.IconCourier])
	assert.Equal(t, 4, report.Markers[ports.IconStop])

	snap := surface.Snapshot()
	require.Len(t, snap.Paths, 1)
	assert.Equal(t, "#2563eb", snap.Paths[0].Color)
	assert.Len(t, snap.Paths[0].Points, 3)

	var stops, couriers []ports.Marker
	for _, m := range snap.Markers {
		switch m.Icon.Kind {
		case ports.IconStop:
			stops = append(stops, m)
		case ports.IconCourier:
			couriers = append(couriers, m)
		}
	}
	require.Len(t, stops, 4)
	assert.Equal(t, []string{"1", "2", "1", "2"}, []string{stops[0].Icon.Label, stops[1].Icon.Label, stops[2].Icon.Label, stops[3].Icon.Label})
	assert.Equal(t, "#16a34a", stops[2].Icon.Color)
	assert.Equal(t, domain.LatLng{Lat: 4.62, Lng: -74.1}, stops[0].Position)
	for _, c := range couriers {
		assert.Equal(t, 1000, c.ZIndexOffset)
		assert.Equal(t, origin.LatLng, c.Position)
	}
}

func TestRenderMissingCoordinates(t *testing.T) {
	r, _ := mounted(t)

	report, err := r.Update(Scene{
		Origin:  origin,
		Pending: []domain.Order{located("p1", 4.6, -74.1), unlocated("p2")},
		Routes: []domain.RouteInfo{{
			Courier: domain.Courier{ID: "c1", Name: "Ana"},
			Orders:  []domain.Order{located("a1", 4.61, -74.09), unlocated("a2"), located("a3", 4.62, -74.1)},
			Color:   "#2563eb",
			Origin:  origin,
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.OrderMarkers())
	require.NotNil(t, report.Warning)
	assert.Equal(t, 2, report.Warning.Count)
	assert.Equal(t, []string{"p2", "a2"}, report.Warning.OrderIDs)
}

func TestRenderPendingPath(t *testing.T) {
	r, surface := mounted(t)

	pending := []domain.Order{located("p2", 4.65, -74.06), located("p1", 4.60, -74.08)}
	path := polyline.Encode([]domain.LatLng{origin.LatLng, {Lat: 4.65, Lng: -74.06}, {Lat: 4.60, Lng: -74.08}})

	report, err := r.Update(Scene{Origin: origin, Pending: pending, PendingPath: path})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Paths)
	assert.Equal(t, 0, report.Markers[ports.IconPending])
	assert.Equal(t, 2, report.Markers[ports.IconStop])

	snap := surface.Snapshot()
	assert.Equal(t, PrimaryColor, snap.Paths[0].Color)
	assert.Equal(t, "1", snap.Markers[1].Icon.Label)
	assert.Equal(t, PrimaryColor, snap.Markers[1].Icon.Color)
}

func TestRenderSkipsMalformedPaths(t *testing.T) {
	r, _ := mounted(t)

	bad := "_p~iF~ps|U_ulLnnqC_mqNvxq`"
	report, err := r.Update(Scene{
		Origin:      origin,
		Pending:     []domain.Order{located("p1", 4.6, -74.1)},
		PendingPath: "@@@",
		Routes: []domain.RouteInfo{{
			Courier:     domain.Courier{ID: "c1"},
			Orders:      []domain.Order{located("a1", 4.61, -74.09)},
			Origin:      origin,
			EncodedPath: &bad,
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, report.Paths)
	assert.Equal(t, 2, report.Markers[ports.IconStop])
}

func TestRenderViewportFallbacks(t *testing.T) {
	r, surface := mounted(t)

	report, err := r.Update(Scene{Origin: origin})
	require.NoError(t, err)
	assert.Equal(t, ViewportSingle, report.Viewport)

	snap := surface.Snapshot()
	require.NotNil(t, snap.View.Center)
	assert.Equal(t, origin.LatLng, *snap.View.Center)
	assert.Equal(t, 15, snap.View.Zoom)
}

func TestRenderRedrawReplacesLayers(t *testing.T) {
	r, surface := mounted(t)

	_, err := r.Update(Scene{Origin: origin, Pending: []domain.Order{located("p1", 4.6, -74.1), located("p2", 4.7, -74.0)}})
	require.NoError(t, err)
	require.Len(t, surface.Snapshot().Markers, 3)

	_, err = r.Update(Scene{Pending: []domain.Order{located("p1", 4.6, -74.1)}})
	require.NoError(t, err)

	snap := surface.Snapshot()
	require.Len(t, snap.Markers, 2)
	assert.Equal(t, origin.LatLng, snap.Markers[0].Position)
}

func TestRenderConcurrentUpdates(t *testing.T) {
	r, surface := mounted(t)

	scene := Scene{Origin: origin, Pending: []domain.Order{located("p1", 4.6, -74.1)}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Update(scene)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, surface.Snapshot().Markers, 2)
}

type failingSurface struct {
	*mapsurface.SnapshotSurface
}

func (failingSurface) AddPath(ports.Layer, ports.Path) error { return errors.New("surface gone") }

func TestRenderSurfaceErrors(t *testing.T) {
	r := New(failingSurface{mapsurface.New()})
	require.NoError(t, r.Mount(origin))

	path := polyline.Encode([]domain.LatLng{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}})
	_, err := r.Update(Scene{Origin: origin, PendingPath: path})
	assert.Error(t, err)
	assert.Equal(t, Mounted, r.State())
}

func TestUpdateWithReadsOwnScene(t *testing.T) {
	r, surface := mounted(t)

	adminScene := Scene{Origin: origin, Pending: []domain.Order{located("p1", 4.6, -74.1), located("p2", 4.7, -74.0)}}
	courierScene := Scene{Origin: origin, Routes: []domain.RouteInfo{{
		Courier: domain.Courier{ID: "c1", Name: "Ana"},
		Orders:  []domain.Order{located("a1", 4.61, -74.09)},
		Color:   "#16a34a",
		Origin:  origin,
	}}}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = r.Update(adminScene)
		}()
		go func() {
			defer wg.Done()
			var snap mapsurface.Snapshot
			report, err := r.UpdateWith(courierScene, func(Report) { snap = surface.Snapshot() })
			if !assert.NoError(t, err) {
				return
			}
			for _, m := range snap.Markers {
				assert.NotEqual(t, ports.IconPending, m.Icon.Kind)
			}
			assert.Len(t, snap.Markers, 3)
			assert.Equal(t, 1, report.Markers[ports.IconStop])
		}()
	}
	wg.Wait()
}
