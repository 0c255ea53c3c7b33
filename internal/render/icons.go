package render

import (
	"strconv"

	"pharmacy-route-service/internal/ports"
)

const (
	PrimaryColor = "#2563eb"
	NeutralColor = "#6b7280"
)

// Default pin used for the pharmacy.
func OriginIcon() ports.Icon {
	return ports.Icon{Kind: ports.IconOrigin, Size: [2]int{25, 41}, Anchor: [2]int{12, 41}}
}

// Unnumbered dot for a pending order.
func PendingIcon() ports.Icon {
	return ports.Icon{Kind: ports.IconPending, Color: NeutralColor, Size: [2]int{24, 24}, Anchor: [2]int{12, 24}}
}

// Numbered circle for the n-th stop of a route.
func StopIcon(n int, color string) ports.Icon {
	return ports.Icon{
		Kind:   ports.IconStop,
		Label:  strconv.Itoa(n),
		Color:  color,
		Size:   [2]int{32, 32},
		Anchor: [2]int{16, 32},
	}
}

// Motorcycle drawn at a courier's position.
func CourierIcon(color string) ports.Icon {
	return ports.Icon{Kind: ports.IconCourier, Color: color, Size: [2]int{32, 32}, Anchor: [2]int{16, 16}}
}
