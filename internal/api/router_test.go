package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pharmacy-route-service/internal/adapters/directions"
	"pharmacy-route-service/internal/adapters/mapsurface"
	"pharmacy-route-service/internal/adapters/repositories"
	"pharmacy-route-service/internal/api/dto"
	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/platform/db"
	"pharmacy-route-service/internal/ports"
	"pharmacy-route-service/internal/render"
	"pharmacy-route-service/internal/services"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticGeocoder struct{ p domain.LatLng }

func (g staticGeocoder) Geocode(context.Context, string) (domain.LatLng, error) { return g.p, nil }

func ptr(v float64) *float64 { return &v }

func newTestRouter(t *testing.T, opt *directions.MockOptimizer) (http.Handler, *render.Renderer) {
	t.Helper()

	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx := context.Background()
	require.NoError(t, repositories.InitSchema(ctx, conn))

	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	ana := &domain.CourierRef{ID: "c1", Name: "Ana"}
	loc := func(address string, lat, lng float64) domain.DeliveryLocation {
		return domain.DeliveryLocation{Address: address, Lat: ptr(lat), Lng: ptr(lng)}
	}

	require.NoError(t, repositories.SeedData(ctx, conn, db.SQLite, repositories.Seed{
		Pharmacy: repositories.PharmacySeed{Name: "Droguería Avenida", Address: "Av. Caracas # 45-10"},
		Couriers: []domain.Courier{{ID: "c1", Name: "Ana", Role: domain.RoleDelivery}},
		Orders: []domain.Order{
			{ID: "o1", Client: domain.Client{ID: "x", FullName: "Pedro"}, DeliveryLocation: loc("Calle 1", 4.61, -74.09),
				Status: domain.OrderAssigned, AssignedTo: ana, CreatedAt: base},
			{ID: "o2", Client: domain.Client{ID: "y", FullName: "María"}, DeliveryLocation: loc("Calle 2", 4.62, -74.1),
				Status: domain.OrderAssigned, AssignedTo: ana, CreatedAt: base.Add(time.Minute)},
			{ID: "p1", Client: domain.Client{ID: "z", FullName: "Lucía"}, DeliveryLocation: loc("Calle 3", 4.66, -74.05),
				Status: domain.OrderPending, CreatedAt: base},
			{ID: "p2", Client: domain.Client{ID: "w", FullName: "Jorge"}, DeliveryLocation: domain.DeliveryLocation{Address: "Calle 4"},
				Status: domain.OrderPending, CreatedAt: base.Add(time.Minute)},
		},
	}))

	repo := repositories.NewSQLRepository(conn, db.SQLite)
	deps := services.DashboardDeps{
		Orders:    repo,
		Couriers:  repo,
		Settings:  repo,
		Geocoder:  staticGeocoder{p: domain.LatLng{Lat: 4.63, Lng: -74.07}},
		Assembler: services.NewAssembler(opt, 2),
	}

	surface := mapsurface.New()
	renderer := render.New(surface)
	return NewRouter(deps, renderer, surface), renderer
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t, directions.NewMockOptimizer())

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(t, h, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, http.MethodGet, w.Header().Get("Allow"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	h, _ := newTestRouter(t, directions.NewMockOptimizer())

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestListRoutes(t *testing.T) {
	opt := directions.NewMockOptimizer().On([]string{"o1", "o2"}, directions.MockRoute{
		WaypointOrder: []int{1, 0},
		LegMeters:     []float64{1000, 2500},
		LegSeconds:    []float64{60, 90},
		EncodedPath:   "_p~iF~ps|U",
	})
	h, _ := newTestRouter(t, opt)

	w := do(t, h, http.MethodGet, "/routes", "")
	require.Equal(t, http.StatusOK, w.Code)

	var res dto.RoutesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))

	assert.Equal(t, "Av. Caracas # 45-10", res.Pharmacy.Address)
	require.Len(t, res.Routes, 1)
	route := res.Routes[0]
	assert.True(t, route.Optimized)
	assert.Equal(t, "Ana", route.CourierName)
	require.Len(t, route.Orders, 2)
	assert.Equal(t, "o2", route.Orders[0].ID)
	require.NotNil(t, route.Summary)
	assert.Equal(t, "3.5 km", route.Summary.EstimatedDistance)
	assert.Equal(t, "3 minutes", route.Summary.EstimatedTime)

	require.Len(t, res.Pending, 2)
	assert.Equal(t, "p1", res.Pending[0].ID)
}

func TestListRoutesForCourier(t *testing.T) {
	h, _ := newTestRouter(t, directions.NewMockOptimizer())

	w := do(t, h, http.MethodGet, "/routes?role=delivery&viewer=c1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var res dto.RoutesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Empty(t, res.Pending)
	require.Len(t, res.Routes, 1)
	assert.Equal(t, "Ana", res.Routes[0].CourierName)

	w = do(t, h, http.MethodGet, "/routes?role=delivery", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/routes?role=owner", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptimizePendingEndpoint(t *testing.T) {
	opt := directions.NewMockOptimizer().On([]string{"p1", "p2"}, directions.MockRoute{
		WaypointOrder: []int{1, 0},
		EncodedPath:   "_p~iF~ps|U",
	})
	h, _ := newTestRouter(t, opt)

	w := do(t, h, http.MethodPost, "/routes/pending/optimize", "")
	require.Equal(t, http.StatusOK, w.Code)

	var res dto.PendingRouteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Optimized)
	require.Len(t, res.Orders, 2)
	assert.Equal(t, "p2", res.Orders[0].ID)

	w = do(t, h, http.MethodPost, "/routes/pending/optimize", `{"order_ids":["p1"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Orders, 1)

	w = do(t, h, http.MethodPost, "/routes/pending/optimize", `{"hub":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/routes/pending/optimize", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestShowMap(t *testing.T) {
	opt := directions.NewMockOptimizer().On([]string{"o1", "o2"}, directions.MockRoute{
		Err: &domain.OptimizationError{Status: "NETWORK_ERROR"},
	})
	h, renderer := newTestRouter(t, opt)

	w := do(t, h, http.MethodGet, "/map", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, render.Updated, renderer.State())

	var res dto.MapResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))

	// origin + courier + 2 stops + 1 located pending order
	assert.Len(t, res.Map.Markers, 5)
	assert.Empty(t, res.Map.Paths)
	require.NotNil(t, res.Report.Warning)
	assert.Equal(t, 1, res.Report.Warning.Count)
	assert.Equal(t, render.ViewportFit, res.Report.Viewport)
	require.NotNil(t, res.Map.View.Bounds)

	w = do(t, h, http.MethodGet, "/map?optimize_pending=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShowMapWithPendingPath(t *testing.T) {
	opt := directions.NewMockOptimizer().On([]string{"p1", "p2"}, directions.MockRoute{
		WaypointOrder: []int{1, 0},
		EncodedPath:   "_p~iF~ps|U_ulLnnqC",
	})
	h, _ := newTestRouter(t, opt)

	w := do(t, h, http.MethodGet, "/map?optimize_pending=true", "")
	require.Equal(t, http.StatusOK, w.Code)

	var res dto.MapResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))

	// The courier route comes back with an empty path and draws nothing.
	require.Len(t, res.Map.Paths, 1)
	assert.Equal(t, render.PrimaryColor, res.Map.Paths[0].Color)
	assert.Len(t, res.Map.Paths[0].Points, 2)
}

func TestShowMapKeepsViewersApartUnderConcurrency(t *testing.T) {
	h, _ := newTestRouter(t, directions.NewMockOptimizer())

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			w := do(t, h, http.MethodGet, "/map", "")
			assert.Equal(t, http.StatusOK, w.Code)
		}()
		go func() {
			defer wg.Done()
			w := do(t, h, http.MethodGet, "/map?role=delivery&viewer=c1", "")
			if !assert.Equal(t, http.StatusOK, w.Code) {
				return
			}

			var res dto.MapResponse
			if !assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &res)) {
				return
			}
			for _, m := range res.Map.Markers {
				assert.NotEqual(t, ports.IconPending, m.Icon.Kind)
			}
			// origin + courier + 2 stops, matching the report of the same redraw
			assert.Len(t, res.Map.Markers, 4)
			assert.Equal(t, 2, res.Report.Markers[ports.IconStop])
			assert.Zero(t, res.Report.Markers[ports.IconPending])
		}()
	}
	wg.Wait()
}
