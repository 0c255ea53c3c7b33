package directions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"

	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/platform/obs"
)

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves an address using the persistent cache first and the
// Geocoding API (/maps/api/geocode/json) on a miss.
func (c *GoogleClient) Geocode(ctx context.Context, address string) (_ domain.LatLng, err error) {
	norm := normalize(address)
	if norm == "" {
		return domain.LatLng{}, errors.New("geocode: address must be non-empty")
	}

	if c.geocodeCache != nil {
		hits, err := c.geocodeCache.GetMany(ctx, []string{norm})
		if err != nil {
			log.Printf("req_id=%s geocode cache read failed: %v", obs.RequestID(ctx), err)
		} else if p, ok := hits[norm]; ok {
			return p, nil
		}
	}

	if err := c.configured(); err != nil {
		return domain.LatLng{}, err
	}

	defer obs.Time(ctx, "directions.Geocode")(&err)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("address", norm)
	if c.region != "" {
		params.Set("region", c.region)
	}

	var decoded geocodeResponse
	if err := c.getJSON(ctx, "/maps/api/geocode/json", params, &decoded); err != nil {
		return domain.LatLng{}, fmt.Errorf("geocode %q: %w", norm, err)
	}

	if decoded.Status != "OK" {
		return domain.LatLng{}, fmt.Errorf("geocode %q: status=%s %s", norm, decoded.Status, decoded.ErrorMessage)
	}
	if len(decoded.Results) == 0 {
		return domain.LatLng{}, fmt.Errorf("no geocode results for %q", norm)
	}

	loc := decoded.Results[0].Geometry.Location
	p := domain.LatLng{Lat: loc.Lat, Lng: loc.Lng}

	if c.geocodeCache != nil {
		if err := c.geocodeCache.PutMany(ctx, map[string]domain.LatLng{norm: p}); err != nil {
			log.Printf("req_id=%s geocode cache write failed: %v", obs.RequestID(ctx), err)
		}
	}

	return p, nil
}
