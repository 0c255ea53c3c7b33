package services

import (
	"sort"

	"pharmacy-route-service/internal/domain"

	"github.com/samber/lo"
)

// CourierGroup holds the on-route orders of one courier in creation order.
type CourierGroup struct {
	CourierID string
	Orders    []domain.Order
}

// Partition on-route orders by assigned courier. Each group is sorted by
// creation time with ties kept in input order, and groups are returned by
// courier id so color assignment is reproducible.
func GroupOrders(orders []domain.Order) []CourierGroup {
	onRoute := lo.Filter(orders, func(o domain.Order, _ int) bool {
		return o.Status.OnRoute() && o.AssignedTo != nil
	})

	byCourier := lo.GroupBy(onRoute, func(o domain.Order) string {
		return o.AssignedTo.ID
	})

	ids := lo.Keys(byCourier)
	sort.Strings(ids)

	groups := make([]CourierGroup, 0, len(ids))
	for _, id := range ids {
		group := byCourier[id]
		sortByCreatedAt(group)
		groups = append(groups, CourierGroup{CourierID: id, Orders: group})
	}

	return groups
}

// Return unassigned pending orders, oldest first.
func PendingOrders(orders []domain.Order) []domain.Order {
	pending := lo.Filter(orders, func(o domain.Order, _ int) bool {
		return o.Status == domain.OrderPending
	})
	sortByCreatedAt(pending)
	return pending
}

// ByCourier indexes groups by courier id.
func ByCourier(groups []CourierGroup) map[string][]domain.Order {
	return lo.SliceToMap(groups, func(g CourierGroup) (string, []domain.Order) {
		return g.CourierID, g.Orders
	})
}

func sortByCreatedAt(orders []domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}
