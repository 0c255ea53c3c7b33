package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/platform/obs"

	"github.com/goccy/go-json"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("req_id=%s encode failed: method=%s path=%s err=%v",
			obs.RequestID(r.Context()), r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// decodeBody reads a single JSON object. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

// viewerFromQuery reads ?viewer=<id>&role=<role>. The role defaults to
// admin; a delivery viewer must name themselves.
func viewerFromQuery(r *http.Request) (domain.Viewer, error) {
	q := r.URL.Query()

	role := domain.Role(strings.TrimSpace(q.Get("role")))
	if role == "" {
		role = domain.RoleAdmin
	}
	switch role {
	case domain.RoleAdmin, domain.RoleAgent, domain.RoleDelivery:
	default:
		return domain.Viewer{}, errors.New("role must be one of admin, agent, delivery")
	}

	v := domain.Viewer{ID: strings.TrimSpace(q.Get("viewer")), Role: role}
	if v.IsCourier() && v.ID == "" {
		return domain.Viewer{}, errors.New("viewer is required for the delivery role")
	}
	return v, nil
}
