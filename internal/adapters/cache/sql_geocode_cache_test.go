package cache

import (
	"context"
	"testing"

	"pharmacy-route-service/internal/adapters/repositories"
	"pharmacy-route-service/internal/domain"
	"pharmacy-route-service/internal/platform/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLGeocodeCache(t *testing.T) {
	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	require.NoError(t, repositories.InitSchema(ctx, conn))

	c := NewSQLGeocodeCache(conn, db.SQLite)

	empty, err := c.GetMany(ctx, []string{"Calle 1"})
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, c.PutMany(ctx, map[string]domain.LatLng{
		"Calle 1": {Lat: 4.6, Lng: -74.1},
		"Calle 2": {Lat: 4.7, Lng: -74.2},
	}))
	// Upsert replaces existing coordinates.
	require.NoError(t, c.PutMany(ctx, map[string]domain.LatLng{"Calle 2": {Lat: 4.75, Lng: -74.25}}))

	got, err := c.GetMany(ctx, []string{"Calle 1", " Calle 2 ", "Calle 1", "", "Calle 3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.LatLng{
		"Calle 1": {Lat: 4.6, Lng: -74.1},
		"Calle 2": {Lat: 4.75, Lng: -74.25},
	}, got)

	assert.Error(t, c.PutMany(ctx, map[string]domain.LatLng{" ": {}}))
}
