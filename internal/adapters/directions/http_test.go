package directions

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"pharmacy-route-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSONAddsKeyAndDecodes(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/maps/api/test/json", r.URL.Path)
		assert.Equal(t, "a b", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"status": "OK"}`))
	})

	var out struct {
		Status string `json:"status"`
	}
	err := c.getJSON(context.Background(), "/maps/api/test/json", url.Values{"q": {"a b"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "OK", out.Status)
	assert.EqualValues(t, 1, calls.Load())
}

func TestGetJSONMalformedBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": `))
	})

	var out map[string]any
	err := c.getJSON(context.Background(), "/maps/api/test/json", nil, &out)

	var oe *domain.OptimizationError
	require.True(t, errors.As(err, &oe), "got %v", err)
	assert.Equal(t, "INVALID_RESPONSE", oe.Status)
}

func TestGetJSONRetriesRateLimit(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	var out map[string]any
	err := c.getJSON(context.Background(), "/maps/api/test/json", nil, &out)

	var oe *domain.OptimizationError
	require.True(t, errors.As(err, &oe), "got %v", err)
	assert.Equal(t, "HTTP_429", oe.Status)
	assert.EqualValues(t, c.maxAttempts, calls.Load())
}
