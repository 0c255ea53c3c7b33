package domain

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAgent    Role = "agent"
	RoleDelivery Role = "delivery"
)

// Courier is a staff member who delivers orders. Route planning only
// needs identity and display data.
type Courier struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Viewer identifies who a dashboard plan is built for.
type Viewer struct {
	ID   string
	Name string
	Role Role
}

// Courier returns the viewer as the courier owning their route.
func (v Viewer) Courier() Courier {
	name := v.Name
	if name == "" {
		name = v.ID
	}
	return Courier{ID: v.ID, Name: name, Role: v.Role}
}

// IsCourier reports whether the viewer should only see their own route.
func (v Viewer) IsCourier() bool { return v.Role == RoleDelivery }
