package directions

import (
	"net/http"
	"strings"
	"time"

	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/ports"
)

const defaultBaseURL = "https://maps.googleapis.com"

type Config struct {
	APIKey string
	// BaseURL overrides the Google Maps endpoint (tests, proxies).
	BaseURL string
	// Timeout bounds one Optimize or Geocode call including retries.
	Timeout time.Duration
	// Region biases geocoding results, e.g. "co".
	Region string
}

// GoogleClient implements RouteOptimizer and Geocoder on top of the Google
// Maps Directions and Geocoding web services.
//
// A missing API key is not a construction error: every call then fails fast
// with *domain.ConfigurationError so callers can fall back per request.
// The client is safe for concurrent use.
type GoogleClient struct {
	session      *http.Client
	apiKey       string
	baseURL      string
	mode         string
	region       string
	timeout      time.Duration
	maxAttempts  int
	backoff      time.Duration
	geocodeCache ports.GeocodeCache
}

var (
	_ ports.RouteOptimizer = (*GoogleClient)(nil)
	_ ports.Geocoder       = (*GoogleClient)(nil)
)

func NewGoogleClient(cfg Config, geocodeCache ports.GeocodeCache) *GoogleClient {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &GoogleClient{
		session:      &http.Client{Timeout: timeout},
		apiKey:       strings.TrimSpace(cfg.APIKey),
		baseURL:      baseURL,
		mode:         "driving",
		region:       cfg.Region,
		timeout:      timeout,
		maxAttempts:  3,
		backoff:      200 * time.Millisecond,
		geocodeCache: geocodeCache,
	}
}

// normalize ensures consistent request and cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (c *GoogleClient) configured() error {
	if c.apiKey == "" {
		return &domain.ConfigurationError{Reason: "Google Maps API key is empty"}
	}
	return nil
}
