package directions

import (
	"context"
	"sort"
	"strings"
	"sync"

	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/ports"
)

// MockRoute is a scripted optimizer answer. WaypointOrder indexes the
// submitted stop set; a nil order keeps the input order.
type MockRoute struct {
	WaypointOrder []int
	LegMeters     []float64
	LegSeconds    []float64
	EncodedPath   string
	Err           error
}

// MockOptimizer returns deterministic fixtures keyed by the set of order
// ids in a request, independent of their order.
type MockOptimizer struct {
	mu     sync.Mutex
	routes map[string]MockRoute
	calls  []domain.StopSet
}

var _ ports.RouteOptimizer = (*MockOptimizer)(nil)

func NewMockOptimizer() *MockOptimizer {
	return &MockOptimizer{routes: make(map[string]MockRoute)}
}

func mockKey(orderIDs []string) string {
	ids := append([]string(nil), orderIDs...)
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// On registers the answer for a request containing exactly orderIDs.
func (m *MockOptimizer) On(orderIDs []string, r MockRoute) *MockOptimizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[mockKey(orderIDs)] = r
	return m
}

// Calls returns the stop sets received so far.
func (m *MockOptimizer) Calls() []domain.StopSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.StopSet(nil), m.calls...)
}

func (m *MockOptimizer) Optimize(ctx context.Context, origin string, stops domain.StopSet) (*domain.OptimizedRoute, error) {
	if len(stops) == 0 {
		return domain.EmptyOptimizedRoute(), nil
	}

	ids := make([]string, len(stops))
	for i, s := range stops {
		ids[i] = s.OrderID
	}

	m.mu.Lock()
	m.calls = append(m.calls, append(domain.StopSet(nil), stops...))
	r, ok := m.routes[mockKey(ids)]
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &domain.OptimizationError{Status: "CANCELLED", Err: err}
	}

	if ok && r.Err != nil {
		return nil, r.Err
	}

	order := r.WaypointOrder
	if order == nil {
		order = make([]int, len(stops))
		for i := range order {
			order[i] = i
		}
	}

	return buildOptimizedRoute(stops, order, r.LegMeters, r.LegSeconds, r.EncodedPath)
}
