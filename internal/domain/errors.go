package domain

import "fmt"

// ConfigurationError is returned when the optimization service cannot be
// used at all, e.g. because its credentials are missing.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("optimizer not configured: %s", e.Reason)
}

// OptimizationError reports an upstream non-success status, a malformed
// response, a timeout or a network failure.
type OptimizationError struct {
	Status  string
	Message string
	Err     error
}

func (e *OptimizationError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("route optimization failed: status=%s: %s: %v", e.Status, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("route optimization failed: status=%s: %v", e.Status, e.Err)
	default:
		return fmt.Sprintf("route optimization failed: status=%s: %s", e.Status, e.Message)
	}
}

func (e *OptimizationError) Unwrap() error { return e.Err }

// MissingCoordinatesWarning aggregates orders that could not be placed on
// the map in one render pass.
type MissingCoordinatesWarning struct {
	Count    int      `json:"count"`
	OrderIDs []string `json:"order_ids"`
}

func (w *MissingCoordinatesWarning) Error() string {
	return fmt.Sprintf("%d order(s) have no coordinates and are not shown on the map", w.Count)
}
